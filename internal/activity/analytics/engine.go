// Package analytics computes windowed aggregations over a snapshot of the
// event log. Every function is pure: it sees only the events it is handed
// plus an explicit "now", so results are reproducible and testable without a
// live store. Nothing here acquires a lock or performs I/O.
package analytics

import (
	"math"
	"sort"
	"time"

	"floorwatch/internal/activity/models"
)

// window filters events to those at or after now-window. A non-positive
// window keeps everything, which is also how oversized windows behave: a
// window larger than retained history yields all retained data, not an error.
func window(events []models.Event, w time.Duration, now time.Time) []models.Event {
	if w <= 0 {
		return events
	}
	cutoff := now.Add(-w)
	// Events arrive in time order, so the window is always a suffix.
	i := sort.Search(len(events), func(i int) bool {
		return !events[i].Timestamp.Before(cutoff)
	})
	return events[i:]
}

// Summary counts total events, distinct subjects, and distinct activity
// labels within the window.
func Summary(events []models.Event, w time.Duration, now time.Time) models.Summary {
	in := window(events, w, now)
	if len(in) == 0 {
		return models.Summary{}
	}

	subjects := make(map[string]struct{})
	activities := make(map[string]struct{})
	for _, e := range in {
		subjects[e.SubjectID] = struct{}{}
		for _, a := range e.Actions {
			activities[a] = struct{}{}
		}
	}

	last := in[len(in)-1].Timestamp
	return models.Summary{
		TotalActivities:  len(in),
		ActiveSubjects:   len(subjects),
		UniqueActivities: len(activities),
		LastUpdate:       &last,
	}
}

// TopActivities tallies label occurrences across all events in the window and
// ranks them descending by count, ties broken lexically for determinism.
// Percentages are of total label occurrences; an empty window yields an empty
// slice, never a division fault.
func TopActivities(events []models.Event, w time.Duration, limit int, now time.Time) []models.ActivityCount {
	in := window(events, w, now)

	counts := make(map[string]int)
	total := 0
	for _, e := range in {
		for _, a := range e.Actions {
			counts[a]++
			total++
		}
	}
	if total == 0 {
		return []models.ActivityCount{}
	}

	ranked := make([]models.ActivityCount, 0, len(counts))
	for a, c := range counts {
		ranked = append(ranked, models.ActivityCount{
			Activity:   a,
			Count:      c,
			Percentage: round2(float64(c) / float64(total) * 100),
		})
	}
	sort.Slice(ranked, func(i, j int) bool {
		if ranked[i].Count != ranked[j].Count {
			return ranked[i].Count > ranked[j].Count
		}
		return ranked[i].Activity < ranked[j].Activity
	})

	if limit > 0 && len(ranked) > limit {
		ranked = ranked[:limit]
	}
	return ranked
}

// SubjectStatistics rolls up one subject's events in the window. An unknown
// subject yields zero-valued stats, not an error.
func SubjectStatistics(events []models.Event, subjectID string, w time.Duration, now time.Time) models.SubjectStats {
	stats := subjectRollup(window(events, w, now), subjectID)
	if s, ok := stats[subjectID]; ok {
		return s
	}
	return models.SubjectStats{SubjectID: subjectID, Activities: map[string]int{}}
}

// AllSubjectStatistics rolls up every subject seen in the window.
func AllSubjectStatistics(events []models.Event, w time.Duration, now time.Time) map[string]models.SubjectStats {
	return subjectRollup(window(events, w, now), "")
}

// subjectRollup computes per-subject stats; a non-empty filter restricts the
// scan to one subject.
func subjectRollup(in []models.Event, filter string) map[string]models.SubjectStats {
	type acc struct {
		total    int
		counts   map[string]int
		lastSeen time.Time
	}
	accs := make(map[string]*acc)

	for _, e := range in {
		if filter != "" && e.SubjectID != filter {
			continue
		}
		a := accs[e.SubjectID]
		if a == nil {
			a = &acc{counts: make(map[string]int)}
			accs[e.SubjectID] = a
		}
		a.total++
		if e.Timestamp.After(a.lastSeen) {
			a.lastSeen = e.Timestamp
		}
		for _, action := range e.Actions {
			a.counts[action]++
		}
	}

	out := make(map[string]models.SubjectStats, len(accs))
	for id, a := range accs {
		top, topCount := "", 0
		for action, c := range a.counts {
			if c > topCount || (c == topCount && action < top) {
				top, topCount = action, c
			}
		}
		last := a.lastSeen
		out[id] = models.SubjectStats{
			SubjectID:        id,
			TotalActivities:  a.total,
			UniqueActivities: len(a.counts),
			TopActivity:      top,
			TopActivityCount: topCount,
			LastSeen:         &last,
			Activities:       a.counts,
		}
	}
	return out
}

// HourlyBreakdown buckets events into fixed one-hour intervals anchored to
// wall-clock hour boundaries. The most recent `hours` buckets are returned
// oldest first, including empty ones so charts stay aligned.
func HourlyBreakdown(events []models.Event, hours int, now time.Time) []models.HourlyBucket {
	if hours <= 0 {
		hours = 24
	}
	start := now.Truncate(time.Hour).Add(-time.Duration(hours-1) * time.Hour)

	buckets := make([]models.HourlyBucket, hours)
	for i := range buckets {
		buckets[i] = models.HourlyBucket{
			Hour:   start.Add(time.Duration(i) * time.Hour),
			Counts: make(map[string]int),
		}
	}

	for _, e := range events {
		if e.Timestamp.Before(start) {
			continue
		}
		idx := int(e.Timestamp.Sub(start) / time.Hour)
		if idx < 0 || idx >= hours {
			continue
		}
		for _, a := range e.Actions {
			buckets[idx].Counts[a]++
			buckets[idx].Total++
		}
	}
	return buckets
}

// Timeline buckets occurrences of one activity into per-minute intervals over
// the trailing `minutes`. Only minutes with activity are reported, oldest
// first.
func Timeline(events []models.Event, activity string, minutes int, now time.Time) []models.TimelinePoint {
	if minutes <= 0 {
		minutes = 60
	}
	in := window(events, time.Duration(minutes)*time.Minute, now)

	counts := make(map[time.Time]int)
	for _, e := range in {
		for _, a := range e.Actions {
			if a == activity {
				counts[e.Timestamp.Truncate(time.Minute)]++
			}
		}
	}
	return sortedPoints(counts)
}

// TimelineAll computes per-minute series for every activity in the window.
func TimelineAll(events []models.Event, minutes int, now time.Time) map[string][]models.TimelinePoint {
	if minutes <= 0 {
		minutes = 60
	}
	in := window(events, time.Duration(minutes)*time.Minute, now)

	perActivity := make(map[string]map[time.Time]int)
	for _, e := range in {
		minute := e.Timestamp.Truncate(time.Minute)
		for _, a := range e.Actions {
			if perActivity[a] == nil {
				perActivity[a] = make(map[time.Time]int)
			}
			perActivity[a][minute]++
		}
	}

	out := make(map[string][]models.TimelinePoint, len(perActivity))
	for a, counts := range perActivity {
		out[a] = sortedPoints(counts)
	}
	return out
}

// Trend splits the window into `intervals` equal sub-windows, computes the
// occurrence rate per sub-window for one activity, and compares the most
// recent sub-window against the mean of all of them. Epsilon is the relative
// sensitivity band around the mean.
func Trend(events []models.Event, activity string, w time.Duration, intervals int, epsilon float64, now time.Time) models.TrendReport {
	if intervals <= 0 {
		intervals = 12
	}
	if w <= 0 {
		w = time.Hour
	}
	if epsilon <= 0 {
		epsilon = 0.1
	}

	start := now.Add(-w)
	subLen := w / time.Duration(intervals)

	counts := make([]int, intervals)
	for _, e := range window(events, w, now) {
		for _, a := range e.Actions {
			if a != activity {
				continue
			}
			idx := int(e.Timestamp.Sub(start) / subLen)
			if idx < 0 {
				idx = 0
			}
			if idx >= intervals {
				idx = intervals - 1
			}
			counts[idx]++
		}
	}

	rates := make([]models.RatePoint, intervals)
	sum := 0.0
	for i, c := range counts {
		rates[i] = models.RatePoint{
			Start: start.Add(time.Duration(i) * subLen),
			Rate:  float64(c),
		}
		sum += float64(c)
	}
	mean := sum / float64(intervals)
	current := rates[intervals-1].Rate

	trend := models.TrendStable
	switch {
	case current > mean*(1+epsilon):
		trend = models.TrendIncreasing
	case current < mean*(1-epsilon):
		trend = models.TrendDecreasing
	}

	return models.TrendReport{
		Activity:    activity,
		Trend:       trend,
		CurrentRate: round2(current),
		AverageRate: round2(mean),
		Rates:       rates,
	}
}

func sortedPoints(counts map[time.Time]int) []models.TimelinePoint {
	points := make([]models.TimelinePoint, 0, len(counts))
	for ts, c := range counts {
		points = append(points, models.TimelinePoint{Minute: ts, Count: c})
	}
	sort.Slice(points, func(i, j int) bool {
		return points[i].Minute.Before(points[j].Minute)
	})
	return points
}

func round2(x float64) float64 {
	return math.Round(x*100) / 100
}
