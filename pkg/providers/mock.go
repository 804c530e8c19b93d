package providers

import (
	"context"
	"math"
	"time"

	"kcas/spotprice/internal/datastore"
)

// MockProvider implements MarketDataProvider for testing/simulation
type MockProvider struct {
	name   string
	period time.Duration
}

// NewMockProvider creates a mock provider publishing 15-minute periods
func NewMockProvider() *MockProvider {
	return NewMockProviderWithPeriod(15 * time.Minute)
}

// NewMockProviderWithPeriod creates a mock provider with the given period length
func NewMockProviderWithPeriod(period time.Duration) *MockProvider {
	if period <= 0 {
		period = time.Hour
	}
	return &MockProvider{
		name:   "Mock",
		period: period,
	}
}

// GetName returns the provider name
func (p *MockProvider) GetName() string {
	return p.name
}

// FetchDay generates a full local day of prices. DST days get 23 or 25
// hours worth of periods, like a real exchange publishes them.
func (p *MockProvider) FetchDay(ctx context.Context, area, currency string, day time.Time) ([]datastore.PricePoint, error) {
	start := datastore.StartOfDay(day)
	end := start.AddDate(0, 0, 1)

	var data []datastore.PricePoint
	for t := start; t.Before(end); t = t.Add(p.period) {
		local := t.In(day.Location())
		timeOfDay := float64(local.Hour()) + float64(local.Minute())/60.0

		// Morning and evening humps with a midday solar dip
		basePrice := 80.0 + 30.0*math.Sin((timeOfDay-6)*math.Pi/12)
		priceNoise := 20.0 * math.Sin(timeOfDay*math.Pi/2)
		price := math.Max(5.0, basePrice+priceNoise)

		data = append(data, datastore.PricePoint{
			Start: t,
			End:   t.Add(p.period),
			Value: datastore.Some(math.Round(price*100) / 100), // Round to 2 decimals
		})
	}

	return data, nil
}
