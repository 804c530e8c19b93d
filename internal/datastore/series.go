package datastore

import (
	"sort"
	"time"
)

// DailySeries holds the samples of one local calendar day, sorted by start.
// The zero value is the "unknown" state: nothing has been fetched yet and no
// aggregates should be computed from it.
type DailySeries struct {
	Known  bool
	Points []PricePoint
}

// Unknown is the series state before any successful fetch.
var Unknown = DailySeries{}

// NewDailySeries localizes the points to loc and sorts a copy of them by
// start. The source order is never trusted.
func NewDailySeries(points []PricePoint, loc *time.Location) DailySeries {
	sorted := make([]PricePoint, len(points))
	for i, p := range points {
		if loc != nil {
			p.Start = p.Start.In(loc)
			p.End = p.End.In(loc)
		}
		sorted[i] = p
	}
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Start.Before(sorted[j].Start)
	})
	return DailySeries{Known: true, Points: sorted}
}

// Len returns the number of samples.
func (s DailySeries) Len() int {
	return len(s.Points)
}

// Values returns the raw values in start order.
func (s DailySeries) Values() []Price {
	values := make([]Price, len(s.Points))
	for i, p := range s.Points {
		values[i] = p.Value
	}
	return values
}

// SampleDuration returns the duration of the first sample, or 0 when it is
// unknown (empty series, or a point without a usable end).
func (s DailySeries) SampleDuration() time.Duration {
	if len(s.Points) == 0 {
		return 0
	}
	if d := s.Points[0].Duration(); d > 0 {
		return d
	}
	return 0
}

// Find returns the point whose start equals start.
func (s DailySeries) Find(start time.Time) (PricePoint, bool) {
	for _, p := range s.Points {
		if p.Start.Equal(start) {
			return p, true
		}
	}
	return PricePoint{}, false
}
