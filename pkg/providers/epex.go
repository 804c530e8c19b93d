package providers

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"regexp"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/sony/gobreaker"
	"go.uber.org/zap"

	"kcas/spotprice/internal/datastore"
)

var (
	periodRe = regexp.MustCompile(`<a href="#">(\d{2}:\d{2}\s*-\s*\d{2}:\d{2})</a>`)
	rowRe    = regexp.MustCompile(`<tr\s+class="child[^"]*"[^>]*>([\s\S]*?)</tr>`)
	cellRe   = regexp.MustCompile(`<td[^>]*>([^<]+)</td>`)
)

const defaultEPEXURL = "https://www.epexspot.com/en/market-results"

// EPEXProvider implements MarketDataProvider for EPEX market results pages
type EPEXProvider struct {
	baseURL string
	params  map[string]string
	client  *http.Client
	breaker *gobreaker.CircuitBreaker
}

// NewEPEXProvider creates a new EPEX market data provider with configuration
func NewEPEXProvider(baseURL string, params map[string]string, logger *zap.SugaredLogger) *EPEXProvider {
	// Set default values if not provided
	if baseURL == "" {
		baseURL = defaultEPEXURL
	}
	if params == nil {
		params = map[string]string{
			"market_area":  "FR",
			"auction":      "IDA1",
			"modality":     "Auction",
			"sub_modality": "Intraday",
			"data_mode":    "table",
		}
	}

	return &EPEXProvider{
		baseURL: baseURL,
		params:  params,
		client:  &http.Client{Timeout: 30 * time.Second},
		breaker: newBreaker("epex", logger),
	}
}

// GetName returns the provider name
func (p *EPEXProvider) GetName() string {
	return "EPEX"
}

// FetchDay fetches EPEX results for the delivery day. EPEX quotes in EUR, so
// currency is ignored; area overrides the configured market_area.
func (p *EPEXProvider) FetchDay(ctx context.Context, area, currency string, day time.Time) ([]datastore.PricePoint, error) {
	result, err := p.breaker.Execute(func() (interface{}, error) {
		html, err := p.download(ctx, area, day)
		if err != nil {
			return nil, err
		}
		return parseEPEXHTML(html, day)
	})
	if err != nil {
		return nil, err
	}
	return result.([]datastore.PricePoint), nil
}

func (p *EPEXProvider) download(ctx context.Context, area string, day time.Time) (string, error) {
	tradingDate := day.AddDate(0, 0, -1).Format("2006-01-02")
	deliveryDate := day.Format("2006-01-02")

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, p.buildURL(area, tradingDate, deliveryDate), nil)
	if err != nil {
		return "", fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("User-Agent", "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36")
	req.Header.Set("Accept", "text/html,application/xhtml+xml,application/xml;q=0.9,*/*;q=0.8")

	resp, err := p.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("HTTP request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("HTTP request failed with status: %d", resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("failed to read response body: %w", err)
	}
	return string(body), nil
}

// parseEPEXHTML extracts the period labels and prices of the results table.
// A page without a table means the auction has not been published.
func parseEPEXHTML(html string, day time.Time) ([]datastore.PricePoint, error) {
	periods := extractPeriods(html)
	prices := extractPrices(html)
	if len(periods) == 0 || len(prices) == 0 {
		return nil, nil
	}

	n := len(periods)
	if len(prices) < n {
		n = len(prices)
	}

	data := make([]datastore.PricePoint, 0, n)
	for i := 0; i < n; i++ {
		start, end, err := periodRange(day, periods[i])
		if err != nil {
			continue // Skip invalid data
		}
		value := datastore.Absent
		if v, err := strconv.ParseFloat(strings.ReplaceAll(prices[i], ",", ""), 64); err == nil {
			value = datastore.Some(v)
		}
		data = append(data, datastore.PricePoint{Start: start, End: end, Value: value})
	}

	if len(data) == 0 {
		return nil, fmt.Errorf("no valid data points extracted")
	}
	return data, nil
}

// periodRange turns "HH:MM-HH:MM" into instants on day. "24:00" and ends
// before the start roll over to the next day.
func periodRange(day time.Time, period string) (time.Time, time.Time, error) {
	parts := strings.Split(period, "-")
	if len(parts) != 2 {
		return time.Time{}, time.Time{}, fmt.Errorf("invalid period %q", period)
	}
	sh, sm, err := clock(parts[0])
	if err != nil {
		return time.Time{}, time.Time{}, err
	}
	eh, em, err := clock(parts[1])
	if err != nil {
		return time.Time{}, time.Time{}, err
	}
	loc := day.Location()
	start := time.Date(day.Year(), day.Month(), day.Day(), sh, sm, 0, 0, loc)
	end := time.Date(day.Year(), day.Month(), day.Day(), eh, em, 0, 0, loc)
	if !end.After(start) {
		end = end.AddDate(0, 0, 1)
	}
	return start, end, nil
}

func clock(s string) (int, int, error) {
	t := strings.Split(strings.TrimSpace(s), ":")
	if len(t) != 2 {
		return 0, 0, fmt.Errorf("invalid clock %q", s)
	}
	h, err := strconv.Atoi(t[0])
	if err != nil {
		return 0, 0, err
	}
	m, err := strconv.Atoi(t[1])
	if err != nil {
		return 0, 0, err
	}
	return h, m, nil
}

// extractPeriods extracts time periods from HTML
func extractPeriods(html string) []string {
	var periods []string
	for _, match := range periodRe.FindAllStringSubmatch(html, -1) {
		if len(match) > 1 {
			periods = append(periods, strings.ReplaceAll(match[1], " ", ""))
		}
	}
	return periods
}

// extractPrices extracts the price column from the results table
func extractPrices(html string) []string {
	tbodyStart := strings.Index(html, "<tbody>")
	tbodyEnd := strings.Index(html, "</tbody>")
	if tbodyStart == -1 || tbodyEnd == -1 || tbodyEnd < tbodyStart {
		return nil
	}
	tbody := html[tbodyStart:tbodyEnd]

	// Each row has 4 columns: Buy Volume, Sell Volume, Volume, Price
	var prices []string
	for _, tr := range rowRe.FindAllStringSubmatch(tbody, -1) {
		cells := cellRe.FindAllStringSubmatch(tr[1], -1)
		if len(cells) == 4 {
			prices = append(prices, strings.TrimSpace(cells[3][1]))
		}
	}
	if len(prices) > 0 {
		return prices
	}

	// Fallback: cells in groups of 4 without row markup
	cells := cellRe.FindAllStringSubmatch(tbody, -1)
	for i := 0; i+3 < len(cells); i += 4 {
		prices = append(prices, strings.TrimSpace(cells[i+3][1]))
	}
	return prices
}

// buildURL constructs the EPEX URL with configurable parameters. A non-empty
// area always becomes market_area, configured or not.
func (p *EPEXProvider) buildURL(area, tradingDate, deliveryDate string) string {
	values := make(map[string]string, len(p.params)+1)
	for key, value := range p.params {
		values[key] = value
	}
	if area != "" {
		values["market_area"] = area
	}

	keys := make([]string, 0, len(values))
	for key := range values {
		keys = append(keys, key)
	}
	sort.Strings(keys)

	params := []string{fmt.Sprintf("trading_date=%s&delivery_date=%s", tradingDate, deliveryDate)}
	for _, key := range keys {
		params = append(params, fmt.Sprintf("%s=%s", key, values[key]))
	}

	// Add empty parameters that EPEX expects
	params = append(params, "underlying_year=", "technology=", "period=", "production_period=")

	return fmt.Sprintf("%s?%s", p.baseURL, strings.Join(params, "&"))
}
