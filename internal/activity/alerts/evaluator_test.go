package alerts

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"floorwatch/internal/activity/models"
)

func ev(ts time.Time, subject string, actions ...string) models.Event {
	scores := make([]float64, len(actions))
	for i := range scores {
		scores[i] = 0.9
	}
	return models.Event{Timestamp: ts, SubjectID: subject, Actions: actions, Scores: scores}
}

func standingRule(threshold time.Duration) []models.AlertRule {
	return []models.AlertRule{{
		Activity:  "standing_still",
		Threshold: threshold,
		Severity:  models.SeverityWarning,
	}}
}

func TestProlongedActivityAlert(t *testing.T) {
	now := time.Now()
	// First occurrence at T, second at T+310s, threshold 300s.
	first := now.Add(-310 * time.Second)
	events := []models.Event{
		ev(first, "E1", "standing_still"),
		ev(now, "E1", "standing_still"),
	}

	e := New(standingRule(300*time.Second), time.Hour)
	alerts := e.Evaluate(events, 315*time.Second, now)

	require.Len(t, alerts, 1)
	a := alerts[0]
	assert.Equal(t, models.AlertTypeProlongedActivity, a.Type)
	assert.Equal(t, "E1", a.SubjectID)
	assert.Equal(t, "standing_still", a.Activity)
	assert.InDelta(t, 310.0, a.Duration, 0.5)
	assert.Equal(t, models.SeverityWarning, a.Severity)
	assert.NotEmpty(t, a.ID)
}

func TestProlongedActivityBelowThreshold(t *testing.T) {
	now := time.Now()
	events := []models.Event{
		ev(now.Add(-200*time.Second), "E1", "standing_still"),
		ev(now, "E1", "standing_still"),
	}

	e := New(standingRule(300*time.Second), time.Hour)
	assert.Empty(t, e.Evaluate(events, 10*time.Minute, now))
}

func TestProlongedActivityOutsideWindowIgnored(t *testing.T) {
	now := time.Now()
	// The first occurrence predates the window, so the in-window span is zero.
	events := []models.Event{
		ev(now.Add(-20*time.Minute), "E1", "standing_still"),
		ev(now, "E1", "standing_still"),
	}

	e := New(standingRule(300*time.Second), time.Hour)
	alerts := e.Evaluate(events, 5*time.Minute, now)
	for _, a := range alerts {
		assert.NotEqual(t, models.AlertTypeProlongedActivity, a.Type)
	}
}

func TestInactivityAlert(t *testing.T) {
	now := time.Now()
	events := []models.Event{
		ev(now.Add(-15*time.Minute), "E1", "walking"),
		ev(now.Add(-30*time.Second), "E2", "walking"),
	}

	e := New(nil, 5*time.Minute)
	alerts := e.Evaluate(events, 10*time.Minute, now)

	require.Len(t, alerts, 1)
	a := alerts[0]
	assert.Equal(t, models.AlertTypeInactivity, a.Type)
	assert.Equal(t, "E1", a.SubjectID)
	assert.InDelta(t, 900.0, a.Duration, 1.0)
	assert.Equal(t, models.SeverityInfo, a.Severity)
}

func TestEvaluateIsStateless(t *testing.T) {
	now := time.Now()
	events := []models.Event{
		ev(now.Add(-310*time.Second), "E1", "standing_still"),
		ev(now, "E1", "standing_still"),
	}

	e := New(standingRule(300*time.Second), time.Hour)
	first := e.Evaluate(events, 10*time.Minute, now)
	second := e.Evaluate(events, 10*time.Minute, now)

	// Polling callers see the alert reappear until the condition resolves.
	require.Len(t, first, 1)
	require.Len(t, second, 1)
	assert.NotEqual(t, first[0].ID, second[0].ID, "alerts are derived fresh, not deduplicated")
}

func TestDeterministicOrder(t *testing.T) {
	now := time.Now()
	events := []models.Event{
		ev(now.Add(-310*time.Second), "E2", "standing_still"),
		ev(now, "E2", "standing_still"),
		ev(now.Add(-310*time.Second), "E1", "standing_still"),
		ev(now, "E1", "standing_still"),
	}
	// Events must be time-ordered for the evaluator's snapshot contract.
	events = []models.Event{events[2], events[0], events[3], events[1]}

	e := New(standingRule(300*time.Second), time.Hour)
	alerts := e.Evaluate(events, 10*time.Minute, now)

	require.Len(t, alerts, 2)
	assert.Equal(t, "E1", alerts[0].SubjectID)
	assert.Equal(t, "E2", alerts[1].SubjectID)
}

func TestSetRules(t *testing.T) {
	now := time.Now()
	events := []models.Event{
		ev(now.Add(-310*time.Second), "E1", "walking"),
		ev(now, "E1", "walking"),
	}

	e := New(standingRule(300*time.Second), time.Hour)
	assert.Empty(t, e.Evaluate(events, 10*time.Minute, now))

	e.SetRules([]models.AlertRule{{
		Activity:  "walking",
		Threshold: 300 * time.Second,
		Severity:  models.SeverityCritical,
	}})
	alerts := e.Evaluate(events, 10*time.Minute, now)
	require.Len(t, alerts, 1)
	assert.Equal(t, models.SeverityCritical, alerts[0].Severity)
}
