package datastore

import (
	"fmt"
	"strings"
	"time"
)

// Granularity is the period length of a day's samples.
type Granularity int

const (
	GranularityUnknown Granularity = iota
	Hourly
	SubHourly
)

const (
	subHourlyMaxDuration = 15 * time.Minute
	// subHourlyMinCount is used when only the sample count is known.
	subHourlyMinCount = 90
)

// String returns the period label used in configuration and snapshots.
func (g Granularity) String() string {
	switch g {
	case Hourly:
		return "hour"
	case SubHourly:
		return "15min"
	default:
		return "unknown"
	}
}

// ParseGranularity parses a configured period type.
func ParseGranularity(s string) (Granularity, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "hour", "hourly", "60min":
		return Hourly, nil
	case "15min", "quarter", "subhourly":
		return SubHourly, nil
	default:
		return GranularityUnknown, fmt.Errorf("unknown period type: %q. Supported types: hour, 15min", s)
	}
}

// PeriodsPerHour returns count/24 for full days and 1 otherwise.
func PeriodsPerHour(count int) int {
	if count >= 24 {
		return count / 24
	}
	return 1
}

// DetectGranularity infers the granularity from the sample count and, when
// known (> 0), the duration of a single sample.
func DetectGranularity(count int, sample time.Duration) (Granularity, int) {
	pph := PeriodsPerHour(count)
	if sample > 0 {
		if sample <= subHourlyMaxDuration {
			return SubHourly, pph
		}
		return Hourly, pph
	}
	if count >= subHourlyMinCount {
		return SubHourly, pph
	}
	return Hourly, pph
}

// Detector caches the granularity of the first non-empty "today" series it
// sees. The cached value survives later anomalous days until Reset is called.
type Detector struct {
	fallback Granularity
	detected Granularity
}

// NewDetector creates a detector that answers fallback while nothing can be
// detected.
func NewDetector(fallback Granularity) *Detector {
	if fallback == GranularityUnknown {
		fallback = Hourly
	}
	return &Detector{fallback: fallback}
}

// Observe detects the granularity of series unless a result is already
// cached. Series with fewer than two points, or with unknown durations and
// less than a day of samples, are ambiguous and leave the cache untouched.
func (d *Detector) Observe(series DailySeries) Granularity {
	if d.detected != GranularityUnknown || series.Len() < 2 {
		return d.Effective()
	}
	sample := series.SampleDuration()
	if sample == 0 && series.Len() < 24 {
		return d.Effective()
	}
	d.detected, _ = DetectGranularity(series.Len(), sample)
	return d.detected
}

// Detected returns the cached detection, GranularityUnknown if none.
func (d *Detector) Detected() Granularity {
	return d.detected
}

// Effective returns the detected granularity or the configured fallback.
func (d *Detector) Effective() Granularity {
	if d.detected != GranularityUnknown {
		return d.detected
	}
	return d.fallback
}

// Reset drops the cached detection.
func (d *Detector) Reset() {
	d.detected = GranularityUnknown
}

// StartOf truncates t to the start of its period in t's location. It steps
// back by the wall-clock remainder instead of rebuilding the date, so the
// repeated hour of a DST fall-back keeps its own offset.
func StartOf(t time.Time, g Granularity) time.Time {
	minutes := t.Minute()
	if g == SubHourly {
		minutes %= 15
	}
	back := time.Duration(minutes)*time.Minute +
		time.Duration(t.Second())*time.Second +
		time.Duration(t.Nanosecond())
	return t.Add(-back)
}

// EndOf returns the last instant of t's period.
func EndOf(t time.Time, g Granularity) time.Time {
	length := time.Hour
	if g == SubHourly {
		length = 15 * time.Minute
	}
	return StartOf(t, g).Add(length - time.Nanosecond)
}

// StartOfDay returns local midnight of t's day.
func StartOfDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}
