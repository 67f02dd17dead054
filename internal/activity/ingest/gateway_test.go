package ingest

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"

	"floorwatch/internal/activity/labels"
	"floorwatch/internal/activity/store"
	dErrors "floorwatch/pkg/domainerrors"
)

type staticSource struct {
	mapping map[int]string
	err     error
	loads   atomic.Int64
}

func (s *staticSource) Load(context.Context) (map[int]string, error) {
	s.loads.Add(1)
	return s.mapping, s.err
}

type GatewaySuite struct {
	suite.Suite
	log     *store.EventLog
	gateway *Gateway
	ctx     context.Context
}

func TestGatewaySuite(t *testing.T) {
	suite.Run(t, new(GatewaySuite))
}

func (s *GatewaySuite) SetupTest() {
	s.log = store.NewEventLog(100, time.Hour)
	logger := slog.New(slog.NewTextHandler(&bytes.Buffer{}, nil))
	cache := labels.NewCache(&staticSource{mapping: map[int]string{3: "walking", 7: "using_phone"}})
	s.gateway = New(s.log, cache, nil, logger)
	s.ctx = context.Background()
}

func (s *GatewaySuite) TestIngestAppendsStampedEvent() {
	before := time.Now()
	err := s.gateway.Ingest(s.ctx, "E1", []string{"walking"}, []float64{0.9})
	s.Require().NoError(err)

	snap := s.log.Snapshot(time.Time{})
	s.Require().Len(snap, 1)
	s.Equal("E1", snap[0].SubjectID)
	s.Equal([]string{"walking"}, snap[0].Actions)
	s.False(snap[0].Timestamp.Before(before), "timestamp is stamped at ingestion time")
	s.Len(snap[0].Scores, len(snap[0].Actions))
}

func (s *GatewaySuite) TestIngestRejectsMismatchedArrays() {
	err := s.gateway.Ingest(s.ctx, "E1", []string{"walking", "talking"}, []float64{0.9})
	s.Require().Error(err)
	s.True(dErrors.Is(err, dErrors.CodeInvalidInput))
	s.Equal(0, s.log.Len(), "a rejected payload must not mutate the store")
}

func (s *GatewaySuite) TestIngestRejectsEmptyActions() {
	err := s.gateway.Ingest(s.ctx, "E1", nil, nil)
	s.Require().Error(err)
	s.True(dErrors.Is(err, dErrors.CodeInvalidInput))
	s.Equal(0, s.log.Len())
}

func (s *GatewaySuite) TestIngestRejectsEmptySubject() {
	err := s.gateway.Ingest(s.ctx, "", []string{"walking"}, []float64{0.9})
	s.Require().Error(err)
	s.True(dErrors.Is(err, dErrors.CodeInvalidInput))
}

func (s *GatewaySuite) TestIngestRejectsOutOfRangeScores() {
	err := s.gateway.Ingest(s.ctx, "E1", []string{"walking"}, []float64{1.5})
	s.Require().Error(err)
	s.True(dErrors.Is(err, dErrors.CodeInvalidInput))
	s.Equal(0, s.log.Len())
}

func (s *GatewaySuite) TestIngestResolvesNumericClassIDs() {
	err := s.gateway.Ingest(s.ctx, "E1", []string{"3", "7", "custom"}, []float64{0.9, 0.8, 0.7})
	s.Require().NoError(err)

	snap := s.log.Snapshot(time.Time{})
	s.Require().Len(snap, 1)
	s.Equal([]string{"walking", "using_phone", "custom"}, snap[0].Actions)
}

func (s *GatewaySuite) TestIngestDegradesWhenLabelSourceBroken() {
	broken := labels.NewCache(&staticSource{err: errors.New("label file corrupt")})
	logger := slog.New(slog.NewTextHandler(&bytes.Buffer{}, nil))
	gw := New(s.log, broken, nil, logger)

	// Label failure never fails the frame: raw identifiers are recorded.
	err := gw.Ingest(s.ctx, "E1", []string{"3"}, []float64{0.9})
	s.Require().NoError(err)

	snap := s.log.Snapshot(time.Time{})
	s.Require().Len(snap, 1)
	s.Equal([]string{"3"}, snap[0].Actions)
}

func (s *GatewaySuite) TestIngestBrokenSourceLoadsOnce() {
	src := &staticSource{err: errors.New("redis: connection refused")}
	logger := slog.New(slog.NewTextHandler(&bytes.Buffer{}, nil))
	gw := New(s.log, labels.NewCache(src), nil, logger)

	// A broken source must not put backing I/O on every frame: the failure
	// is remembered and only one load happens inside the cooldown.
	for i := range 50 {
		s.Require().NoError(gw.Ingest(s.ctx, "E1", []string{"3"}, []float64{0.9}), "ingest %d", i)
	}
	s.Equal(int64(1), src.loads.Load())
	s.Equal(50, s.log.Len())
}

func (s *GatewaySuite) TestIngestWithoutCache() {
	logger := slog.New(slog.NewTextHandler(&bytes.Buffer{}, nil))
	gw := New(s.log, nil, nil, logger)

	err := gw.Ingest(s.ctx, "E1", []string{"3"}, []float64{0.9})
	s.Require().NoError(err)
	s.Equal([]string{"3"}, s.log.Snapshot(time.Time{})[0].Actions)
}

func TestIngestBoundedUnderEviction(t *testing.T) {
	log := store.NewEventLog(50, time.Hour)
	logger := slog.New(slog.NewTextHandler(&bytes.Buffer{}, nil))
	gw := New(log, nil, nil, logger)

	// Well past capacity: every append evicts, none may fail or block.
	for range 500 {
		require.NoError(t, gw.Ingest(context.Background(), "E1", []string{"walking"}, []float64{0.9}))
	}
	assert.Equal(t, 50, log.Len())
}
