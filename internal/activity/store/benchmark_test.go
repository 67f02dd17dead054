package store

import (
	"testing"
	"time"

	"floorwatch/internal/activity/models"
)

func benchEvent(ts time.Time) models.Event {
	return models.Event{
		Timestamp: ts,
		SubjectID: "E1",
		Actions:   []string{"walking"},
		Scores:    []float64{0.9},
	}
}

// BenchmarkAppend measures the append path while the ring is filling.
func BenchmarkAppend(b *testing.B) {
	log := NewEventLog(1_000_000, time.Hour)
	now := time.Now()

	for b.Loop() {
		log.Append(benchEvent(now))
	}
}

// BenchmarkAppend_AtCapacity measures append once every call evicts. Ingest
// latency must stay flat regardless of log size.
func BenchmarkAppend_AtCapacity(b *testing.B) {
	log := NewEventLog(1000, time.Hour)
	now := time.Now()
	for range 1000 {
		log.Append(benchEvent(now))
	}

	b.ResetTimer()
	for b.Loop() {
		log.Append(benchEvent(now))
	}
}

// BenchmarkSnapshot measures the copy cost readers impose on the lock.
func BenchmarkSnapshot(b *testing.B) {
	log := NewEventLog(10000, time.Hour)
	now := time.Now()
	for i := range 10000 {
		log.Append(benchEvent(now.Add(time.Duration(i) * time.Millisecond)))
	}

	b.ResetTimer()
	for b.Loop() {
		_ = log.Snapshot(time.Time{})
	}
}
