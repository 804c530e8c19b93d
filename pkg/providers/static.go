package providers

import (
	"context"
	"sync"
	"time"

	"kcas/spotprice/internal/datastore"
)

// StaticProvider implements MarketDataProvider with fixed per-day data. It
// backs the "static" configuration and the tests of the sensor.
type StaticProvider struct {
	name string

	mu   sync.Mutex
	days map[string][]datastore.PricePoint
	errs map[string]error
}

// NewStaticProvider creates a static provider with no data
func NewStaticProvider() *StaticProvider {
	return &StaticProvider{
		name: "Static",
		days: make(map[string][]datastore.PricePoint),
		errs: make(map[string]error),
	}
}

// NewStaticProviderWithDefaults creates a static provider that serves the
// same hourly profile for today and tomorrow.
func NewStaticProviderWithDefaults(now time.Time) *StaticProvider {
	p := NewStaticProvider()
	for _, day := range []time.Time{now, now.AddDate(0, 0, 1)} {
		start := datastore.StartOfDay(day)
		var data []datastore.PricePoint
		for hour := 0; hour < 24; hour++ {
			// Simple pattern: price rises towards noon, then falls
			price := 30.0 + float64(hour*2)
			if hour > 12 {
				price = 30.0 + float64((24-hour)*2)
			}
			t := start.Add(time.Duration(hour) * time.Hour)
			data = append(data, datastore.PricePoint{
				Start: t,
				End:   t.Add(time.Hour),
				Value: datastore.Some(price),
			})
		}
		p.SetDay(day, data)
	}
	return p
}

// GetName returns the provider name
func (p *StaticProvider) GetName() string {
	return p.name
}

// FetchDay returns a copy of the data stored for day
func (p *StaticProvider) FetchDay(ctx context.Context, area, currency string, day time.Time) ([]datastore.PricePoint, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	key := dayKey(day)
	if err := p.errs[key]; err != nil {
		return nil, err
	}
	data := p.days[key]
	result := make([]datastore.PricePoint, len(data))
	copy(result, data)
	return result, nil
}

// SetDay replaces the data served for day
func (p *StaticProvider) SetDay(day time.Time, data []datastore.PricePoint) {
	p.mu.Lock()
	defer p.mu.Unlock()

	key := dayKey(day)
	p.days[key] = append([]datastore.PricePoint(nil), data...)
	delete(p.errs, key)
}

// SetError makes FetchDay fail for day
func (p *StaticProvider) SetError(day time.Time, err error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.errs[dayKey(day)] = err
}

func dayKey(day time.Time) string {
	return day.Format("2006-01-02")
}
