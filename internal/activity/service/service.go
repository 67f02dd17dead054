// Package service orchestrates the event log, query engine, and alert
// evaluator behind one interface for the HTTP layer. It owns query defaults
// and window clamping; the engine underneath stays pure.
package service

import (
	"context"
	"log/slog"
	"math"
	"sync"
	"time"

	"floorwatch/internal/activity/alerts"
	"floorwatch/internal/activity/analytics"
	"floorwatch/internal/activity/metrics"
	"floorwatch/internal/activity/models"
	"floorwatch/internal/activity/store"
)

// Query defaults, in line with the dashboard's expectations.
const (
	DefaultWindow       = 60 * time.Minute
	DefaultAlertWindow  = 10 * time.Minute
	DefaultTopLimit     = 10
	DefaultHours        = 24
	DefaultIntervals    = 12
	DefaultTrendEpsilon = 0.1
	DefaultTimelineSpan = 60 // minutes
)

// Service answers analytical queries over point-in-time snapshots of the log.
// No method blocks on I/O; the only contention is the store's snapshot copy.
type Service struct {
	store     *store.EventLog
	evaluator *alerts.Evaluator
	metrics   *metrics.Metrics
	logger    *slog.Logger
	epsilon   float64

	mu           sync.Mutex
	sessionStart time.Time
}

// Option configures a Service.
type Option func(*Service)

// WithTrendEpsilon overrides the trend classification sensitivity.
func WithTrendEpsilon(epsilon float64) Option {
	return func(s *Service) {
		if epsilon > 0 {
			s.epsilon = epsilon
		}
	}
}

// WithMetrics attaches query instrumentation.
func WithMetrics(m *metrics.Metrics) Option {
	return func(s *Service) {
		s.metrics = m
	}
}

// New builds the query service.
func New(log *store.EventLog, evaluator *alerts.Evaluator, logger *slog.Logger, opts ...Option) *Service {
	s := &Service{
		store:        log,
		evaluator:    evaluator,
		logger:       logger,
		epsilon:      DefaultTrendEpsilon,
		sessionStart: time.Now(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Snapshot returns the windowed summary plus session housekeeping fields.
// An empty window yields an all-zero summary, session duration included.
func (s *Service) Snapshot(ctx context.Context, windowMinutes int) models.Summary {
	defer s.observe("snapshot", time.Now())

	now := time.Now()
	w := s.window(windowMinutes, DefaultWindow)
	summary := analytics.Summary(s.store.Snapshot(now.Add(-w)), w, now)
	if summary.TotalActivities == 0 {
		return summary
	}

	s.mu.Lock()
	start := s.sessionStart
	s.mu.Unlock()
	summary.SessionDurationMinutes = round1(now.Sub(start).Minutes())
	return summary
}

// TopActivities ranks activity labels by occurrence count within the window.
func (s *Service) TopActivities(ctx context.Context, limit, windowMinutes int) []models.ActivityCount {
	defer s.observe("top_activities", time.Now())

	if limit <= 0 {
		limit = DefaultTopLimit
	}
	now := time.Now()
	w := s.window(windowMinutes, DefaultWindow)
	return analytics.TopActivities(s.store.Snapshot(now.Add(-w)), w, limit, now)
}

// SubjectStats returns one subject's rollup. An unknown subject yields empty
// statistics, not an error.
func (s *Service) SubjectStats(ctx context.Context, subjectID string, windowMinutes int) models.SubjectStats {
	defer s.observe("employee_stats", time.Now())

	now := time.Now()
	w := s.window(windowMinutes, DefaultWindow)
	return analytics.SubjectStatistics(s.store.Snapshot(now.Add(-w)), subjectID, w, now)
}

// AllSubjectStats returns rollups for every subject seen in the window.
func (s *Service) AllSubjectStats(ctx context.Context, windowMinutes int) map[string]models.SubjectStats {
	defer s.observe("employee_stats_all", time.Now())

	now := time.Now()
	w := s.window(windowMinutes, DefaultWindow)
	return analytics.AllSubjectStatistics(s.store.Snapshot(now.Add(-w)), w, now)
}

// Hourly returns wall-clock-hour buckets, oldest first.
func (s *Service) Hourly(ctx context.Context, hours int) []models.HourlyBucket {
	defer s.observe("hourly", time.Now())

	if hours <= 0 {
		hours = DefaultHours
	}
	return analytics.HourlyBreakdown(s.store.Snapshot(time.Time{}), hours, time.Now())
}

// Timeline returns per-minute buckets for one activity.
func (s *Service) Timeline(ctx context.Context, activity string, minutes int) []models.TimelinePoint {
	defer s.observe("timeline", time.Now())

	if minutes <= 0 {
		minutes = DefaultTimelineSpan
	}
	now := time.Now()
	since := now.Add(-time.Duration(minutes) * time.Minute)
	return analytics.Timeline(s.store.Snapshot(since), activity, minutes, now)
}

// TimelineAll returns per-minute buckets for every activity in the window.
func (s *Service) TimelineAll(ctx context.Context, minutes int) map[string][]models.TimelinePoint {
	defer s.observe("timeline_all", time.Now())

	if minutes <= 0 {
		minutes = DefaultTimelineSpan
	}
	now := time.Now()
	since := now.Add(-time.Duration(minutes) * time.Minute)
	return analytics.TimelineAll(s.store.Snapshot(since), minutes, now)
}

// Trend classifies one activity's rate movement across the window.
func (s *Service) Trend(ctx context.Context, activity string, windowMinutes, intervals int) models.TrendReport {
	defer s.observe("trend", time.Now())

	if intervals <= 0 {
		intervals = DefaultIntervals
	}
	now := time.Now()
	w := s.window(windowMinutes, DefaultWindow)
	return analytics.Trend(s.store.Snapshot(now.Add(-w)), activity, w, intervals, s.epsilon, now)
}

// Alerts evaluates the configured rules over the trailing window. The full
// retained snapshot is handed to the evaluator so inactivity detection can
// see subjects whose last event predates the window.
func (s *Service) Alerts(ctx context.Context, windowMinutes int) []models.Alert {
	defer s.observe("alerts", time.Now())

	now := time.Now()
	w := s.window(windowMinutes, DefaultAlertWindow)
	found := s.evaluator.Evaluate(s.store.Snapshot(time.Time{}), w, now)

	if s.metrics != nil {
		for _, a := range found {
			s.metrics.AlertsEmitted.WithLabelValues(a.Type).Inc()
		}
	}
	return found
}

// Dashboard aggregates the full analytical view in one call.
func (s *Service) Dashboard(ctx context.Context, windowMinutes int) models.Dashboard {
	defer s.observe("dashboard", time.Now())

	if windowMinutes <= 0 {
		windowMinutes = int(DefaultWindow / time.Minute)
	}
	return models.Dashboard{
		Snapshot:          s.Snapshot(ctx, windowMinutes),
		TopActivities:     s.TopActivities(ctx, DefaultTopLimit, windowMinutes),
		EmployeeStats:     s.AllSubjectStats(ctx, windowMinutes),
		HourlyBreakdown:   s.Hourly(ctx, DefaultHours),
		Alerts:            s.Alerts(ctx, int(DefaultAlertWindow/time.Minute)),
		TimeWindowMinutes: windowMinutes,
		GeneratedAt:       time.Now(),
	}
}

// Reset clears the log and restarts the session clock. Safe against
// concurrent appends by construction of the store.
func (s *Service) Reset(ctx context.Context) {
	s.store.Reset()

	s.mu.Lock()
	s.sessionStart = time.Now()
	s.mu.Unlock()

	if s.metrics != nil {
		s.metrics.StoreSize.Set(0)
	}
	s.logger.InfoContext(ctx, "event log reset")
}

// window converts a minute parameter to a duration, applying the default and
// clamping to the store's retention horizon.
func (s *Service) window(minutes int, def time.Duration) time.Duration {
	w := def
	if minutes > 0 {
		w = time.Duration(minutes) * time.Minute
	}
	if r := s.store.Retention(); w > r {
		w = r
	}
	return w
}

func (s *Service) observe(query string, start time.Time) {
	if s.metrics != nil {
		s.metrics.ObserveQuery(query, time.Since(start))
	}
}

func round1(x float64) float64 {
	return math.Round(x*10) / 10
}
