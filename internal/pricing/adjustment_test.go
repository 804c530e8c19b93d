package pricing

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseAdjustment(t *testing.T) {
	monday := time.Date(2024, 5, 13, 12, 0, 0, 0, time.UTC)
	saturday := time.Date(2024, 5, 18, 12, 0, 0, 0, time.UTC)

	tests := []struct {
		name string
		expr string
		at   time.Time
		want float64
	}{
		{"empty", "", monday, 0},
		{"constant", "0.05", monday, 0.05},
		{"negative constant", "-0.5", monday, -0.5},
		{"ratio only", "0.1*price", monday, 0.2},
		{"linear", "0.05 + 0.1 * price", monday, 0.25},
		{"weekday default", "0.05; sat=0.01; sun=0.01", monday, 0.05},
		{"weekday override", "0.05; sat=0.01; sun=0.01", saturday, 0.01},
		{"weekday linear", "0; SAT = 1 + 0.5*price", saturday, 2},
		{"exponent", "1e+3", monday, 1000},
		{"exponent in linear", "1.5E+1 + 2e-1*price", monday, 15.4},
		{"price then constant", "0.1*price+1", monday, 1.2},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fn, err := ParseAdjustment(tt.expr)
			require.NoError(t, err)
			got, err := fn(tt.at, 2)
			require.NoError(t, err)
			assert.InDelta(t, tt.want, got, 1e-12)
		})
	}
}

func TestParseAdjustmentRejectsGarbage(t *testing.T) {
	for _, expr := range []string{
		"abc",
		"{{ 0.1 }}",
		"0.1 + x*price",
		"0.1; funday=2",
		"0.1; sat",
		"0.1; sat=oops",
		"inf",
		"-Inf + 0.1*price",
		"NaN*price",
		"0.1; sun=infinity",
		"1e+",
		"0.1 +",
	} {
		_, err := ParseAdjustment(expr)
		assert.ErrorIs(t, err, ErrMalformedAdjustment, expr)
	}
}

func TestByWeekday(t *testing.T) {
	fn := ByWeekday(Constant(1), map[time.Weekday]AdjustmentFunc{
		time.Sunday: Linear(0, 1),
	})
	sunday := time.Date(2024, 5, 19, 8, 0, 0, 0, time.UTC)

	got, err := fn(sunday, 3)
	require.NoError(t, err)
	assert.Equal(t, 3.0, got)

	got, err = fn(sunday.AddDate(0, 0, 1), 3)
	require.NoError(t, err)
	assert.Equal(t, 1.0, got)
}
