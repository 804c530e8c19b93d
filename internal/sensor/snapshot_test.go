package sensor

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"kcas/spotprice/internal/datastore"
)

func withAbsent(n, missing int) []datastore.Price {
	out := make([]datastore.Price, n)
	for i := range out {
		if i < missing {
			out[i] = datastore.Absent
		} else {
			out[i] = datastore.Some(1)
		}
	}
	return out
}

func TestTomorrowValid(t *testing.T) {
	tests := []struct {
		name    string
		prices  []datastore.Price
		isValid bool
	}{
		{"empty", nil, false},
		{"full hourly", withAbsent(24, 0), true},
		{"hourly one missing", withAbsent(24, 1), true},
		{"hourly two missing", withAbsent(24, 2), false},
		{"spring forward", withAbsent(23, 0), true},
		{"full quarter hourly", withAbsent(96, 0), true},
		{"quarter hourly four missing", withAbsent(96, 4), true},
		{"quarter hourly five missing", withAbsent(96, 5), false},
		{"quarter hourly spring forward", withAbsent(92, 0), true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.isValid, TomorrowValid(tt.prices))
		})
	}
}

func TestUnitOfMeasurement(t *testing.T) {
	assert.Equal(t, "SEK/kWh", UnitOfMeasurement("SEK", "kWh", false))
	assert.Equal(t, "öre/kWh", UnitOfMeasurement("SEK", "kWh", true))
	assert.Equal(t, "c/MWh", UnitOfMeasurement("EUR", "MWh", true))
	assert.Equal(t, "GBP/kWh", UnitOfMeasurement("GBP", "kWh", true))
}

func TestUniqueID(t *testing.T) {
	assert.Equal(t, "spotprice_kwh_se3_sek_3_1_025", UniqueID("kWh", "SE3", "SEK", 3, 1, 0.25))
}

func TestSnapshotJSON(t *testing.T) {
	low := true
	snap := Snapshot{
		Area:         "FI",
		CurrentPrice: datastore.Some(4.2),
		LowPrice:     &low,
		Today:        []datastore.Price{datastore.Some(1), datastore.Absent},
	}
	out, err := json.Marshal(snap)
	require.NoError(t, err)

	var decoded map[string]any
	require.NoError(t, json.Unmarshal(out, &decoded))
	assert.Equal(t, "FI", decoded["region"])
	assert.Equal(t, 4.2, decoded["current_price"])
	assert.Nil(t, decoded["additional_costs_current_hour"])
	assert.Equal(t, true, decoded["low_price"])
	assert.Equal(t, []any{1.0, nil}, decoded["today"])
}
