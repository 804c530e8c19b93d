package providers

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"

	"kcas/spotprice/internal/datastore"
)

// CSVProvider implements MarketDataProvider over day files exported by
// another system, one file per area and delivery day:
//
//	Start,End,Price
//	2024-03-31T00:00:00+01:00,2024-03-31T01:00:00+01:00,41.27
//
// An empty or non-numeric price ("inf", "-") is read as absent.
type CSVProvider struct {
	dir    string
	logger *zap.SugaredLogger
}

// NewCSVProvider creates a provider reading from dir
func NewCSVProvider(dir string, logger *zap.SugaredLogger) *CSVProvider {
	return &CSVProvider{dir: dir, logger: logger}
}

// GetName returns the provider name
func (p *CSVProvider) GetName() string {
	return "CSV"
}

// GetDataPath returns the file path for the given area and date
func (p *CSVProvider) GetDataPath(area string, date time.Time) string {
	return filepath.Join(p.dir, fmt.Sprintf("%s_%s.csv", strings.ToLower(area), date.Format("2006-01-02")))
}

// FetchDay loads the day file. A missing file means the day is not
// published yet.
func (p *CSVProvider) FetchDay(ctx context.Context, area, currency string, day time.Time) ([]datastore.PricePoint, error) {
	filePath := p.GetDataPath(area, day)

	file, err := os.Open(filePath)
	if errors.Is(err, os.ErrNotExist) {
		p.logger.Debugf("Data file %s not found", filePath)
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to open file: %w", err)
	}
	defer file.Close()

	records, err := csv.NewReader(file).ReadAll()
	if err != nil {
		return nil, fmt.Errorf("failed to read CSV: %w", err)
	}
	if len(records) < 2 {
		return nil, nil
	}

	var data []datastore.PricePoint
	// Skip header row
	for i, record := range records[1:] {
		if len(record) != 3 {
			p.logger.Warnf("Skipping malformed record at line %d", i+2)
			continue
		}

		start, err := time.Parse(time.RFC3339, record[0])
		if err != nil {
			p.logger.Warnf("Invalid start at line %d: %v", i+2, err)
			continue
		}
		end, err := time.Parse(time.RFC3339, record[1])
		if err != nil {
			p.logger.Warnf("Invalid end at line %d: %v", i+2, err)
			continue
		}

		value := datastore.Absent
		if v, err := strconv.ParseFloat(strings.TrimSpace(record[2]), 64); err == nil {
			value = datastore.Some(v)
		}

		data = append(data, datastore.PricePoint{Start: start, End: end, Value: value})
	}

	return data, nil
}
