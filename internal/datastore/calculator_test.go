package datastore

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func constant(n int, v float64) []Price {
	values := make([]Price, n)
	for i := range values {
		values[i] = Some(v)
	}
	return values
}

func TestBucketConstantHourly(t *testing.T) {
	agg := Bucket(constant(24, 42.5), PeriodsPerHour(24))
	for _, p := range []Price{agg.Average, agg.Min, agg.Max, agg.Median, agg.OffPeak1, agg.Peak, agg.OffPeak2} {
		assert.Equal(t, Some(42.5), p)
	}
}

func TestBucketConstantQuarterHourly(t *testing.T) {
	agg := Bucket(constant(96, 42.5), PeriodsPerHour(96))
	for _, p := range []Price{agg.Average, agg.Min, agg.Max, agg.Median, agg.OffPeak1, agg.Peak, agg.OffPeak2} {
		assert.Equal(t, Some(42.5), p)
	}
}

func TestBucketScalesWindowsWithPeriods(t *testing.T) {
	values := make([]Price, 96)
	for i := range values {
		switch {
		case i < 32:
			values[i] = Some(1)
		case i < 80:
			values[i] = Some(2)
		default:
			values[i] = Some(3)
		}
	}
	agg := Bucket(values, 4)
	assert.Equal(t, Some(1), agg.OffPeak1)
	assert.Equal(t, Some(2), agg.Peak)
	assert.Equal(t, Some(3), agg.OffPeak2)
}

func TestBucketDayScenario(t *testing.T) {
	var values []Price
	values = append(values, constant(8, 10)...)
	values = append(values, constant(12, 50)...)
	values = append(values, constant(4, 5)...)

	agg := Bucket(values, PeriodsPerHour(len(values)))
	assert.Equal(t, Some(10), agg.OffPeak1)
	assert.Equal(t, Some(50), agg.Peak)
	assert.Equal(t, Some(5), agg.OffPeak2)
	// 8*10 + 12*50 + 4*5 = 700 over 24 periods
	assert.InDelta(t, 700.0/24, agg.Average.Value, 1e-9)
	assert.Equal(t, Some(5), agg.Min)
	assert.Equal(t, Some(50), agg.Max)
	assert.Equal(t, Some(30), agg.Median)
}

func TestBucketSkipsAbsentValues(t *testing.T) {
	values := constant(24, 20)
	for i := 0; i < 8; i++ {
		values[i] = Absent
	}
	values[10] = Some(80)

	agg := Bucket(values, 1)
	assert.Equal(t, Absent, agg.OffPeak1)
	assert.Equal(t, Some(25), agg.Peak)
	assert.Equal(t, Some(20), agg.OffPeak2)
	assert.Equal(t, Some(20), agg.Min)
	assert.Equal(t, Some(80), agg.Max)
	assert.Equal(t, Some(20), agg.Median)
}

func TestBucketEmptyAndAllAbsent(t *testing.T) {
	assert.Equal(t, Aggregates{}, Bucket(nil, 1))
	assert.Equal(t, Aggregates{}, Bucket([]Price{Absent, Absent}, 1))
}

func TestBucketShortDayLeavesLateWindowsAbsent(t *testing.T) {
	agg := Bucket(constant(6, 7), 1)
	assert.Equal(t, Some(7), agg.OffPeak1)
	assert.Equal(t, Absent, agg.Peak)
	assert.Equal(t, Absent, agg.OffPeak2)
}
