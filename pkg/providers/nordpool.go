package providers

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/sony/gobreaker"
	"go.uber.org/zap"

	"kcas/spotprice/internal/datastore"
)

const defaultNordPoolURL = "https://dataportal-api.nordpoolgroup.com/api/DayAheadPrices"

// NordPoolProvider implements MarketDataProvider for the Nord Pool day-ahead API
type NordPoolProvider struct {
	baseURL  string
	client   *http.Client
	breaker  *gobreaker.CircuitBreaker
	location *time.Location
}

type nordPoolResponse struct {
	DeliveryDateCET  string `json:"deliveryDateCET"`
	MultiAreaEntries []struct {
		DeliveryStart time.Time                  `json:"deliveryStart"`
		DeliveryEnd   time.Time                  `json:"deliveryEnd"`
		EntryPerArea  map[string]datastore.Price `json:"entryPerArea"`
	} `json:"multiAreaEntries"`
}

// NewNordPoolProvider creates a Nord Pool provider. Delivery dates are
// resolved in CET, the market's own calendar.
func NewNordPoolProvider(baseURL string, logger *zap.SugaredLogger) *NordPoolProvider {
	if baseURL == "" {
		baseURL = defaultNordPoolURL
	}
	loc, err := time.LoadLocation("Europe/Oslo")
	if err != nil {
		loc = time.UTC
	}
	return &NordPoolProvider{
		baseURL:  baseURL,
		client:   &http.Client{Timeout: 30 * time.Second},
		breaker:  newBreaker("nordpool", logger),
		location: loc,
	}
}

// GetName returns the provider name
func (p *NordPoolProvider) GetName() string {
	return "NordPool"
}

// FetchDay fetches day-ahead prices for area in currency
func (p *NordPoolProvider) FetchDay(ctx context.Context, area, currency string, day time.Time) ([]datastore.PricePoint, error) {
	result, err := p.breaker.Execute(func() (interface{}, error) {
		return p.fetch(ctx, area, currency, day)
	})
	if err != nil {
		return nil, err
	}
	return result.([]datastore.PricePoint), nil
}

func (p *NordPoolProvider) fetch(ctx context.Context, area, currency string, day time.Time) ([]datastore.PricePoint, error) {
	q := url.Values{}
	q.Set("date", day.In(p.location).Format("2006-01-02"))
	q.Set("market", "DayAhead")
	q.Set("deliveryArea", area)
	q.Set("currency", currency)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, p.baseURL+"?"+q.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := p.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("HTTP request failed: %w", err)
	}
	defer resp.Body.Close()

	// 204 is how the API says the day is not published yet.
	if resp.StatusCode == http.StatusNoContent {
		return nil, nil
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("HTTP request failed with status: %d", resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response body: %w", err)
	}

	return parseNordPool(body, area)
}

func parseNordPool(body []byte, area string) ([]datastore.PricePoint, error) {
	var payload nordPoolResponse
	if err := json.Unmarshal(body, &payload); err != nil {
		return nil, fmt.Errorf("failed to decode response: %w", err)
	}

	points := make([]datastore.PricePoint, 0, len(payload.MultiAreaEntries))
	for _, entry := range payload.MultiAreaEntries {
		// a missing area and a null price are both absent
		value := entry.EntryPerArea[area]
		points = append(points, datastore.PricePoint{
			Start: entry.DeliveryStart,
			End:   entry.DeliveryEnd,
			Value: value,
		})
	}
	return points, nil
}
