// Package alerts scans recent events against configured duration and absence
// thresholds. Evaluation is read-only and stateless: alerts are re-derived
// fresh on every call, so a polling caller sees the same alert until the
// underlying condition resolves.
package alerts

import (
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"floorwatch/internal/activity/models"
)

// DefaultInactivityThreshold flags subjects silent for this long.
const DefaultInactivityThreshold = 5 * time.Minute

// Evaluator holds the rule set. Rules are read-only configuration; they only
// change through an explicit reset, guarded for safety against concurrent
// evaluations.
type Evaluator struct {
	mu         sync.RWMutex
	rules      []models.AlertRule
	inactivity time.Duration
}

// New builds an evaluator over the given rules. A non-positive inactivity
// threshold falls back to the default.
func New(rules []models.AlertRule, inactivity time.Duration) *Evaluator {
	if inactivity <= 0 {
		inactivity = DefaultInactivityThreshold
	}
	return &Evaluator{rules: rules, inactivity: inactivity}
}

// SetRules replaces the rule set. Only the explicit operator reset path calls
// this.
func (e *Evaluator) SetRules(rules []models.AlertRule) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.rules = rules
}

// Evaluate scans the snapshot and returns every rule violation inside the
// window. The full snapshot is needed, not just the window: inactivity
// detection has to know which subjects existed before they went quiet.
//
// Prolonged-activity duration is the span between the first and last matching
// occurrence within the window. Events arrive one per processed frame, so a
// gap in sampling does not reset the span.
func (e *Evaluator) Evaluate(snapshot []models.Event, w time.Duration, now time.Time) []models.Alert {
	e.mu.RLock()
	rules := e.rules
	inactivity := e.inactivity
	e.mu.RUnlock()

	if w <= 0 {
		w = 10 * time.Minute
	}
	cutoff := now.Add(-w)

	type span struct {
		first, last time.Time
	}
	// (subject, activity) -> observed span within the window.
	spans := make(map[string]map[string]*span)
	lastSeen := make(map[string]time.Time)

	for _, ev := range snapshot {
		if ev.Timestamp.After(lastSeen[ev.SubjectID]) {
			lastSeen[ev.SubjectID] = ev.Timestamp
		}
		if ev.Timestamp.Before(cutoff) {
			continue
		}
		for _, a := range ev.Actions {
			byActivity := spans[ev.SubjectID]
			if byActivity == nil {
				byActivity = make(map[string]*span)
				spans[ev.SubjectID] = byActivity
			}
			s := byActivity[a]
			if s == nil {
				byActivity[a] = &span{first: ev.Timestamp, last: ev.Timestamp}
				continue
			}
			if ev.Timestamp.Before(s.first) {
				s.first = ev.Timestamp
			}
			if ev.Timestamp.After(s.last) {
				s.last = ev.Timestamp
			}
		}
	}

	var out []models.Alert

	for _, rule := range rules {
		for subject, byActivity := range spans {
			s, ok := byActivity[rule.Activity]
			if !ok {
				continue
			}
			d := s.last.Sub(s.first)
			if d <= rule.Threshold {
				continue
			}
			out = append(out, models.Alert{
				ID:        uuid.NewString(),
				Type:      models.AlertTypeProlongedActivity,
				SubjectID: subject,
				Activity:  rule.Activity,
				Duration:  d.Seconds(),
				Severity:  rule.Severity,
				Message:   fmt.Sprintf("%s has been %s for %.0f seconds", subject, rule.Activity, d.Seconds()),
				Timestamp: now,
			})
		}
	}

	for subject, seen := range lastSeen {
		silence := now.Sub(seen)
		if silence <= inactivity {
			continue
		}
		out = append(out, models.Alert{
			ID:        uuid.NewString(),
			Type:      models.AlertTypeInactivity,
			SubjectID: subject,
			Duration:  silence.Seconds(),
			Severity:  models.SeverityInfo,
			Message:   fmt.Sprintf("no activity from %s for %.0f seconds", subject, silence.Seconds()),
			Timestamp: now,
		})
	}

	// Deterministic order for consumers and tests.
	sort.Slice(out, func(i, j int) bool {
		if out[i].SubjectID != out[j].SubjectID {
			return out[i].SubjectID < out[j].SubjectID
		}
		if out[i].Type != out[j].Type {
			return out[i].Type < out[j].Type
		}
		return out[i].Activity < out[j].Activity
	})
	return out
}
