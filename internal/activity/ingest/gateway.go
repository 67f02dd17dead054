// Package ingest is the non-blocking entry point called by the perception
// pipeline once per processed frame with detections. It must never stall or
// crash the producer: malformed payloads are rejected locally and label
// lookup failures degrade to raw identifiers.
package ingest

import (
	"context"
	"log/slog"
	"strconv"
	"time"

	"floorwatch/internal/activity/labels"
	"floorwatch/internal/activity/metrics"
	"floorwatch/internal/activity/models"
	"floorwatch/internal/activity/store"
	dErrors "floorwatch/pkg/domainerrors"
)

// Gateway converts raw detections into log entries and appends them. The only
// blocking point is the store's constant-time critical section; there is no
// synchronous analytics recomputation and no I/O once the label cache is warm.
type Gateway struct {
	store   *store.EventLog
	labels  *labels.Cache
	metrics *metrics.Metrics
	logger  *slog.Logger
}

// New builds an ingestion gateway. The label cache may be nil when no label
// source is configured; actions then pass through unresolved.
func New(log *store.EventLog, cache *labels.Cache, m *metrics.Metrics, logger *slog.Logger) *Gateway {
	return &Gateway{
		store:   log,
		labels:  cache,
		metrics: m,
		logger:  logger,
	}
}

// Ingest records one detection. The timestamp is stamped here, not at the
// producer, so store order and time order coincide. Validation failures
// return CodeInvalidInput and leave the store untouched.
func (g *Gateway) Ingest(ctx context.Context, subjectID string, actions []string, scores []float64) error {
	start := time.Now()

	event, err := models.NewEvent(start, subjectID, g.resolve(ctx, actions), scores)
	if err != nil {
		if g.metrics != nil {
			g.metrics.EventsRejected.Inc()
		}
		g.logger.WarnContext(ctx, "rejected ingest payload",
			"subject_id", subjectID,
			"actions", len(actions),
			"scores", len(scores),
			"error", err.Error(),
		)
		return err
	}

	evicted := g.store.Append(event)

	if g.metrics != nil {
		g.metrics.EventsIngested.Inc()
		if evicted {
			g.metrics.EventsEvicted.Inc()
		}
		g.metrics.StoreSize.Set(float64(g.store.Len()))
		g.metrics.ObserveIngest(time.Since(start))
	}
	return nil
}

// resolve swaps numeric class identifiers for display names where the label
// cache knows them. Non-numeric actions and unknown ids pass through as-is.
// A cold or broken cache degrades to raw identifiers; it never fails a frame.
func (g *Gateway) resolve(ctx context.Context, actions []string) []string {
	if g.labels == nil || len(actions) == 0 {
		return actions
	}

	mapping, err := g.labels.Get(ctx)
	if err != nil {
		if dErrors.Is(err, dErrors.CodeConfiguration) {
			g.logger.WarnContext(ctx, "label source unavailable, recording raw identifiers",
				"error", err.Error(),
			)
			return actions
		}
		return actions
	}

	resolved := actions
	copied := false
	for i, a := range actions {
		id, err := strconv.Atoi(a)
		if err != nil {
			continue
		}
		name, ok := mapping[id]
		if !ok {
			continue
		}
		if !copied {
			resolved = make([]string, len(actions))
			copy(resolved, actions)
			copied = true
		}
		resolved[i] = name
	}
	return resolved
}
