package providers

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"kcas/spotprice/internal/config"
	"kcas/spotprice/internal/datastore"
)

func TestFactoryCreateProvider(t *testing.T) {
	f := NewProviderFactory(zap.NewNop().Sugar())

	tests := []struct {
		kind string
		name string
	}{
		{"nordpool", "NordPool"},
		{"NordPool", "NordPool"},
		{"epex", "EPEX"},
		{"csv", "CSV"},
		{"mock", "Mock"},
		{"static", "Static"},
	}
	for _, tt := range tests {
		t.Run(tt.kind, func(t *testing.T) {
			p, err := f.CreateProvider(&config.Config{DataProvider: tt.kind, CSVDir: t.TempDir()})
			require.NoError(t, err)
			assert.Equal(t, tt.name, p.GetName())
		})
	}

	_, err := f.CreateProvider(&config.Config{DataProvider: "entsoe"})
	assert.Error(t, err)
}

func TestFactoryValidateProviderConfig(t *testing.T) {
	f := NewProviderFactory(zap.NewNop().Sugar())

	assert.NoError(t, f.ValidateProviderConfig(&config.Config{DataProvider: "nordpool", ProviderURL: "http://x"}))
	assert.NoError(t, f.ValidateProviderConfig(&config.Config{DataProvider: "nordpool"}))
	assert.Error(t, f.ValidateProviderConfig(&config.Config{DataProvider: "csv"}))
	assert.NoError(t, f.ValidateProviderConfig(&config.Config{DataProvider: "mock"}))
	assert.Error(t, f.ValidateProviderConfig(&config.Config{DataProvider: "entsoe"}))

	epex := &config.Config{DataProvider: "epex", ProviderParams: map[string]string{
		"auction": "IDA1", "modality": "Auction",
	}}
	assert.ErrorContains(t, f.ValidateProviderConfig(epex), "sub_modality")
	epex.ProviderParams["sub_modality"] = "Intraday"
	assert.NoError(t, f.ValidateProviderConfig(epex))
}

func TestFactoryUsesProviderDefaultURLs(t *testing.T) {
	f := NewProviderFactory(zap.NewNop().Sugar())

	p, err := f.CreateProvider(&config.Config{DataProvider: "epex", ProviderParams: map[string]string{}})
	require.NoError(t, err)
	assert.Equal(t, defaultEPEXURL, p.(*EPEXProvider).baseURL)

	p, err = f.CreateProvider(&config.Config{DataProvider: "nordpool"})
	require.NoError(t, err)
	assert.Equal(t, defaultNordPoolURL, p.(*NordPoolProvider).baseURL)

	p, err = f.CreateProvider(&config.Config{DataProvider: "epex", ProviderURL: "http://mirror.local/results"})
	require.NoError(t, err)
	assert.Equal(t, "http://mirror.local/results", p.(*EPEXProvider).baseURL)
}

func TestMockProviderCoversLocalDay(t *testing.T) {
	stockholm, err := time.LoadLocation("Europe/Stockholm")
	require.NoError(t, err)

	tests := []struct {
		name   string
		day    time.Time
		period time.Duration
		want   int
	}{
		{"quarter hours", time.Date(2024, 5, 14, 12, 0, 0, 0, stockholm), 15 * time.Minute, 96},
		{"hours", time.Date(2024, 5, 14, 12, 0, 0, 0, stockholm), time.Hour, 24},
		{"spring forward", time.Date(2024, 3, 31, 12, 0, 0, 0, stockholm), time.Hour, 23},
		{"fall back", time.Date(2024, 10, 27, 12, 0, 0, 0, stockholm), 15 * time.Minute, 100},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			points, err := NewMockProviderWithPeriod(tt.period).FetchDay(context.Background(), "SE3", "SEK", tt.day)
			require.NoError(t, err)
			require.Len(t, points, tt.want)
			for _, p := range points {
				assert.True(t, p.Value.Valid)
				assert.GreaterOrEqual(t, p.Value.Value, 5.0)
				assert.Equal(t, tt.period, p.Duration())
			}
		})
	}
}

func TestStaticProvider(t *testing.T) {
	now := time.Date(2024, 5, 14, 9, 0, 0, 0, time.UTC)
	p := NewStaticProviderWithDefaults(now)

	today, err := p.FetchDay(context.Background(), "SE3", "SEK", now)
	require.NoError(t, err)
	require.Len(t, today, 24)
	assert.Equal(t, datastore.Some(54), today[12].Value)

	// callers get a copy
	today[0].Value = datastore.Absent
	again, err := p.FetchDay(context.Background(), "SE3", "SEK", now)
	require.NoError(t, err)
	assert.Equal(t, datastore.Some(30), again[0].Value)

	boom := errors.New("boom")
	p.SetError(now, boom)
	_, err = p.FetchDay(context.Background(), "SE3", "SEK", now)
	assert.ErrorIs(t, err, boom)

	p.SetDay(now, nil)
	empty, err := p.FetchDay(context.Background(), "SE3", "SEK", now)
	require.NoError(t, err)
	assert.Empty(t, empty)

	missing, err := p.FetchDay(context.Background(), "SE3", "SEK", now.AddDate(0, 0, 5))
	require.NoError(t, err)
	assert.Empty(t, missing)
}
