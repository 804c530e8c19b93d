package datastore

import (
	"sort"
)

// Bucket window edges in local hours.
const (
	offPeak1EndHour = 8
	peakEndHour     = 20
)

// Aggregates holds the daily statistics of a series. Any field is Absent
// when no value contributed to it.
type Aggregates struct {
	Average  Price `json:"average"`
	Min      Price `json:"min"`
	Max      Price `json:"max"`
	Median   Price `json:"median"`
	OffPeak1 Price `json:"off_peak_1"`
	Peak     Price `json:"peak"`
	OffPeak2 Price `json:"off_peak_2"`
}

// Bucket computes the day and time-of-day aggregates of values, which must
// already be in start order. Window edges scale with periodsPerHour:
// off-peak 1 is [0, 8*pph), peak [8*pph, 20*pph) and off-peak 2 the rest.
func Bucket(values []Price, periodsPerHour int) Aggregates {
	if periodsPerHour < 1 {
		periodsPerHour = 1
	}
	offPeak1End := clamp(offPeak1EndHour*periodsPerHour, len(values))
	peakEnd := clamp(peakEndHour*periodsPerHour, len(values))

	present := presentValues(values)

	agg := Aggregates{
		OffPeak1: mean(presentValues(values[:offPeak1End])),
		Peak:     mean(presentValues(values[offPeak1End:peakEnd])),
		OffPeak2: mean(presentValues(values[peakEnd:])),
		Average:  mean(present),
		Median:   median(present),
	}
	if len(present) > 0 {
		lo, hi := present[0], present[0]
		for _, v := range present[1:] {
			if v < lo {
				lo = v
			}
			if v > hi {
				hi = v
			}
		}
		agg.Min = Some(lo)
		agg.Max = Some(hi)
	}
	return agg
}

func presentValues(values []Price) []float64 {
	out := make([]float64, 0, len(values))
	for _, v := range values {
		if v.Valid {
			out = append(out, v.Value)
		}
	}
	return out
}

func mean(values []float64) Price {
	if len(values) == 0 {
		return Absent
	}
	sum := 0.0
	for _, v := range values {
		sum += v
	}
	return Some(sum / float64(len(values)))
}

func median(values []float64) Price {
	if len(values) == 0 {
		return Absent
	}
	sorted := append([]float64(nil), values...)
	sort.Float64s(sorted)
	mid := len(sorted) / 2
	if len(sorted)%2 == 1 {
		return Some(sorted[mid])
	}
	return Some((sorted[mid-1] + sorted[mid]) / 2)
}

func clamp(i, n int) int {
	if i > n {
		return n
	}
	return i
}
