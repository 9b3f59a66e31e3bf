// Package coverage folds heartbeat timestamps and stored intervals into
// coverage intervals separated by more than a gap threshold.
package coverage

import (
	"cmp"
	"slices"
	"time"
)

type Interval struct {
	Start time.Time
	End   time.Time
}

type SessionInterval struct {
	Session string
	Interval
}

// MergePoints treats every timestamp as a zero-length interval.
func MergePoints(points []time.Time, gap time.Duration) []Interval {
	in := make([]Interval, 0, len(points))
	for _, p := range points {
		in = append(in, Interval{Start: p, End: p})
	}
	return Merge(in, gap)
}

// Merge returns the minimal ordered list of intervals such that neighbours
// are separated by strictly more than gap. The input is not modified.
func Merge(intervals []Interval, gap time.Duration) []Interval {
	if len(intervals) == 0 {
		return nil
	}
	if gap < 0 {
		gap = 0
	}
	sorted := make([]Interval, len(intervals))
	for i, itv := range intervals {
		sorted[i] = normalize(itv)
	}
	slices.SortStableFunc(sorted, compareIntervals)

	out := make([]Interval, 0, len(sorted))
	cur := sorted[0]
	for _, next := range sorted[1:] {
		if next.Start.Sub(cur.End) <= gap {
			if next.End.After(cur.End) {
				cur.End = next.End
			}
			continue
		}
		out = append(out, cur)
		cur = next
	}
	return append(out, cur)
}

// MergeSessions merges each session independently. Output is ordered by
// session id, then start time.
func MergeSessions(in []SessionInterval, gap time.Duration) []SessionInterval {
	bySession := make(map[string][]Interval)
	for _, si := range in {
		bySession[si.Session] = append(bySession[si.Session], si.Interval)
	}
	sessions := make([]string, 0, len(bySession))
	for s := range bySession {
		sessions = append(sessions, s)
	}
	slices.SortFunc(sessions, compareSessionIDs)

	var out []SessionInterval
	for _, s := range sessions {
		for _, itv := range Merge(bySession[s], gap) {
			out = append(out, SessionInterval{Session: s, Interval: itv})
		}
	}
	return out
}

// SortByStart orders intervals of all sessions by start time, keeping the
// session order for ties.
func SortByStart(in []SessionInterval) {
	slices.SortStableFunc(in, func(a, b SessionInterval) int {
		return a.Start.Compare(b.Start)
	})
}

func compareIntervals(a, b Interval) int {
	if c := a.Start.Compare(b.Start); c != 0 {
		return c
	}
	return a.End.Compare(b.End)
}

// numeric session ids sort numerically so "10" follows "9".
func compareSessionIDs(a, b string) int {
	if len(a) != len(b) && isDigits(a) && isDigits(b) {
		return cmp.Compare(len(a), len(b))
	}
	return cmp.Compare(a, b)
}

func isDigits(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}

func normalize(itv Interval) Interval {
	if itv.End.Before(itv.Start) {
		itv.Start, itv.End = itv.End, itv.Start
	}
	return itv
}
