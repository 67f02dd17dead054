package models

import (
	"time"

	dErrors "floorwatch/pkg/domainerrors"
)

// Event is one recorded detection: a subject was seen performing one or more
// actions in a single processed frame. Events are immutable once appended to
// the log; Actions and Scores are parallel arrays of equal length.
type Event struct {
	Timestamp time.Time `json:"timestamp"`
	SubjectID string    `json:"subject_id"`
	Actions   []string  `json:"actions"`
	Scores    []float64 `json:"scores"`
}

// NewEvent validates and builds an Event stamped with the given time.
// A frame with zero detections never becomes an event; the producer simply
// skips the call, so an empty action list here is a malformed payload.
func NewEvent(now time.Time, subjectID string, actions []string, scores []float64) (Event, error) {
	if subjectID == "" {
		return Event{}, dErrors.New(dErrors.CodeInvalidInput, "subject_id cannot be empty")
	}
	if len(actions) == 0 {
		return Event{}, dErrors.New(dErrors.CodeInvalidInput, "actions cannot be empty")
	}
	if len(actions) != len(scores) {
		return Event{}, dErrors.New(dErrors.CodeInvalidInput, "actions and scores must have equal length")
	}
	for _, s := range scores {
		if s < 0 || s > 1 {
			return Event{}, dErrors.New(dErrors.CodeInvalidInput, "scores must be within [0,1]")
		}
	}
	return Event{
		Timestamp: now,
		SubjectID: subjectID,
		Actions:   actions,
		Scores:    scores,
	}, nil
}

// AlertRuleSeverity grades how urgent a triggered rule is.
type AlertRuleSeverity string

const (
	SeverityInfo     AlertRuleSeverity = "info"
	SeverityWarning  AlertRuleSeverity = "warning"
	SeverityCritical AlertRuleSeverity = "critical"
)

// IsValid checks if the severity is one of the supported enum values.
func (s AlertRuleSeverity) IsValid() bool {
	switch s {
	case SeverityInfo, SeverityWarning, SeverityCritical:
		return true
	}
	return false
}

// AlertRule flags subjects that stay on one activity for too long.
// Rules are static configuration; they change only through an explicit reset.
type AlertRule struct {
	Activity  string            `json:"activity"`
	Threshold time.Duration     `json:"threshold"`
	Severity  AlertRuleSeverity `json:"severity"`
}

// Alert types emitted by the evaluator.
const (
	AlertTypeProlongedActivity = "prolonged_activity"
	AlertTypeInactivity        = "inactivity"
)

// Alert is a derived, non-persisted signal. Evaluation re-derives alerts on
// every call, so the same alert reappears until the condition resolves.
type Alert struct {
	ID        string            `json:"id"`
	Type      string            `json:"type"`
	SubjectID string            `json:"subject_id"`
	Activity  string            `json:"activity,omitempty"`
	Duration  float64           `json:"duration_seconds"`
	Severity  AlertRuleSeverity `json:"severity"`
	Message   string            `json:"message"`
	Timestamp time.Time         `json:"timestamp"`
}

// Summary is the windowed headline view of the log.
type Summary struct {
	TotalActivities        int        `json:"total_activities"`
	ActiveSubjects         int        `json:"active_employees"`
	UniqueActivities       int        `json:"unique_activities"`
	SessionDurationMinutes float64    `json:"session_duration_minutes"`
	LastUpdate             *time.Time `json:"last_update"`
}

// ActivityCount is one ranked entry in the top-activities list.
type ActivityCount struct {
	Activity   string  `json:"activity"`
	Count      int     `json:"count"`
	Percentage float64 `json:"percentage"`
}

// SubjectStats is the per-subject rollup over a window. A subject with no
// events in the window yields the zero value, not an error.
type SubjectStats struct {
	SubjectID        string         `json:"employee_id"`
	TotalActivities  int            `json:"total_activities"`
	UniqueActivities int            `json:"unique_activities"`
	TopActivity      string         `json:"top_activity"`
	TopActivityCount int            `json:"top_activity_count"`
	LastSeen         *time.Time     `json:"last_seen"`
	Activities       map[string]int `json:"all_activities"`
}

// HourlyBucket is one wall-clock-hour interval with per-label counts.
type HourlyBucket struct {
	Hour   time.Time      `json:"hour"`
	Counts map[string]int `json:"counts"`
	Total  int            `json:"total"`
}

// TimelinePoint is one per-minute bucket for a single activity.
type TimelinePoint struct {
	Minute time.Time `json:"timestamp"`
	Count  int       `json:"count"`
}

// Trend classifications.
const (
	TrendIncreasing = "increasing"
	TrendDecreasing = "decreasing"
	TrendStable     = "stable"
)

// RatePoint is one sub-window of a trend series.
type RatePoint struct {
	Start time.Time `json:"start"`
	Rate  float64   `json:"rate"`
}

// TrendReport compares the most recent sub-window's event rate against the
// mean rate across the whole window.
type TrendReport struct {
	Activity    string      `json:"activity"`
	Trend       string      `json:"trend"`
	CurrentRate float64     `json:"current_rate"`
	AverageRate float64     `json:"average_rate"`
	Rates       []RatePoint `json:"rates"`
}

// Dashboard aggregates everything a presentation layer needs in one call.
type Dashboard struct {
	Snapshot          Summary                 `json:"snapshot"`
	TopActivities     []ActivityCount         `json:"top_activities"`
	EmployeeStats     map[string]SubjectStats `json:"employee_stats"`
	HourlyBreakdown   []HourlyBucket          `json:"hourly_breakdown"`
	Alerts            []Alert                 `json:"alerts"`
	TimeWindowMinutes int                     `json:"time_window_minutes"`
	GeneratedAt       time.Time               `json:"generated_at"`
}
