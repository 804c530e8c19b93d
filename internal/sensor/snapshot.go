package sensor

import (
	"fmt"
	"strings"
	"time"

	"kcas/spotprice/internal/config"
	"kcas/spotprice/internal/datastore"
)

// Snapshot is the read-only view of a sensor after its last recompute.
type Snapshot struct {
	ID           string `json:"id"`
	Area         string `json:"region"`
	Country      string `json:"country"`
	Currency     string `json:"currency"`
	Unit         string `json:"unit"`
	UnitOfPrice  string `json:"unit_of_measurement"`
	PriceInCents bool   `json:"price_in_cents"`
	PeriodType   string `json:"period_type"`

	CurrentPrice          datastore.Price `json:"current_price"`
	PeriodStart           time.Time       `json:"period_start"`
	AdditionalCosts       datastore.Price `json:"additional_costs_current_hour"`
	LowPrice              *bool           `json:"low_price"`
	PricePercentToAverage datastore.Price `json:"price_percent_to_average"`

	// Aggregates are computed over the raw spot prices.
	Aggregates datastore.Aggregates `json:"aggregates"`

	Today         []datastore.Price      `json:"today"`
	Tomorrow      []datastore.Price      `json:"tomorrow"`
	TomorrowValid bool                   `json:"tomorrow_valid"`
	RawToday      []datastore.PricePoint `json:"raw_today"`
	RawTomorrow   []datastore.PricePoint `json:"raw_tomorrow"`

	UpdatedAt time.Time `json:"updated_at"`
}

// TomorrowValid reports whether tomorrow's transformed prices are complete
// enough to use. One hour may be missing to allow for the DST spring-forward
// day: 23 of 24 hourly values, or 92 of 96 quarter-hour values.
func TomorrowValid(tomorrow []datastore.Price) bool {
	present := 0
	for _, p := range tomorrow {
		if p.Valid {
			present++
		}
	}
	if len(tomorrow) >= 90 {
		return present >= 92
	}
	return present >= 23
}

// UnitOfMeasurement returns e.g. "SEK/kWh", or "öre/kWh" in cents mode.
func UnitOfMeasurement(currency, priceType string, useCents bool) string {
	if useCents {
		if minor, ok := config.MinorUnits[currency]; ok {
			currency = minor
		}
	}
	return fmt.Sprintf("%s/%s", currency, priceType)
}

// UniqueID builds the stable identifier of a sensor configuration.
func UniqueID(priceType, area, currency string, precision int, lowPriceCutoff, vat float64) string {
	name := fmt.Sprintf("spotprice_%s_%s_%s_%d_%v_%v", priceType, area, currency, precision, lowPriceCutoff, vat)
	return strings.ReplaceAll(strings.ToLower(name), ".", "")
}
