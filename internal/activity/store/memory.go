// Package store holds the append-only bounded event log. It is the single
// source of truth for recorded activity and the only mutable shared state in
// the subsystem. The lock protects the buffer structure, never the analytics
// computed over a snapshot.
package store

import (
	"sort"
	"sync"
	"time"

	"floorwatch/internal/activity/models"
)

const (
	// DefaultCapacity bounds the ring when no capacity is configured.
	DefaultCapacity = 10000
	// DefaultRetention bounds how far back snapshots can reach.
	DefaultRetention = 24 * time.Hour
)

// EventLog is a fixed-capacity ring buffer of events ordered by append time.
// Append is O(1): when the ring is full the oldest entry is overwritten.
// Snapshot copies references under the read lock and releases it before the
// caller iterates, so readers never block the producer beyond the copy.
type EventLog struct {
	mu        sync.RWMutex
	buf       []models.Event
	head      int // index of the oldest event
	size      int
	retention time.Duration
}

// NewEventLog builds a log bounded by capacity and retention horizon.
// Non-positive arguments fall back to the defaults.
func NewEventLog(capacity int, retention time.Duration) *EventLog {
	if capacity <= 0 {
		capacity = DefaultCapacity
	}
	if retention <= 0 {
		retention = DefaultRetention
	}
	return &EventLog{
		buf:       make([]models.Event, capacity),
		retention: retention,
	}
}

// Append records one event, evicting the oldest entry when the ring is full.
// It reports whether an eviction happened so the caller can count it.
func (l *EventLog) Append(event models.Event) (evicted bool) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.size == len(l.buf) {
		// Overwrite the oldest slot and advance the head.
		l.buf[l.head] = event
		l.head = (l.head + 1) % len(l.buf)
		return true
	}
	l.buf[(l.head+l.size)%len(l.buf)] = event
	l.size++
	return false
}

// Snapshot returns an ordered copy of all retained events with
// timestamp >= since. The zero time means "all retained events". Events are
// immutable once appended, so sharing their inner slices with the caller is
// safe; only the backing sequence is copied.
func (l *EventLog) Snapshot(since time.Time) []models.Event {
	l.mu.RLock()
	defer l.mu.RUnlock()

	if l.size == 0 {
		return nil
	}

	// Events are appended in time order, so the first index at or after
	// `since` can be found by binary search over logical positions.
	start := 0
	if !since.IsZero() {
		start = sort.Search(l.size, func(i int) bool {
			return !l.at(i).Timestamp.Before(since)
		})
	}
	if start == l.size {
		return nil
	}

	out := make([]models.Event, l.size-start)
	for i := start; i < l.size; i++ {
		out[i-start] = l.at(i)
	}
	return out
}

// Len returns the number of retained events.
func (l *EventLog) Len() int {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.size
}

// Retention returns the configured retention horizon. Query windows larger
// than this simply yield all retained data.
func (l *EventLog) Retention() time.Duration {
	return l.retention
}

// Sweep drops events older than the retention horizon. Eviction pops from
// the head only, so the cost is proportional to the number of expired
// events, amortized O(1) per append. It returns how many were dropped.
func (l *EventLog) Sweep(now time.Time) int {
	cutoff := now.Add(-l.retention)

	l.mu.Lock()
	defer l.mu.Unlock()

	dropped := 0
	for l.size > 0 && l.buf[l.head].Timestamp.Before(cutoff) {
		l.buf[l.head] = models.Event{}
		l.head = (l.head + 1) % len(l.buf)
		l.size--
		dropped++
	}
	return dropped
}

// Reset clears all events. Appends racing a reset land either before or
// after the clear; the ring is never observed in a partial state.
func (l *EventLog) Reset() {
	l.mu.Lock()
	defer l.mu.Unlock()
	clear(l.buf)
	l.head = 0
	l.size = 0
}

// at returns the event at logical position i (0 = oldest).
// Must be called while holding the lock.
func (l *EventLog) at(i int) models.Event {
	return l.buf[(l.head+i)%len(l.buf)]
}
