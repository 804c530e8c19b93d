package datastore

import (
	"context"
	"encoding/json"
	"errors"
	"math"
	"time"
)

// ErrDataUnavailable is returned when a provider has nothing for the requested day.
var ErrDataUnavailable = errors.New("no price data available")

// Price is a spot price that may be absent. An absent price means the
// source has no value for the period; it is not zero.
type Price struct {
	Value float64
	Valid bool
}

// Absent is the "no data for this period" price.
var Absent = Price{}

// Some wraps v as a present price. Non-finite values become Absent.
func Some(v float64) Price {
	if math.IsInf(v, 0) || math.IsNaN(v) {
		return Absent
	}
	return Price{Value: v, Valid: true}
}

// MarshalJSON encodes an absent price as null.
func (p Price) MarshalJSON() ([]byte, error) {
	if !p.Valid {
		return []byte("null"), nil
	}
	return json.Marshal(p.Value)
}

// UnmarshalJSON accepts a number or null.
func (p *Price) UnmarshalJSON(data []byte) error {
	if string(data) == "null" {
		*p = Absent
		return nil
	}
	var v float64
	if err := json.Unmarshal(data, &v); err != nil {
		return err
	}
	*p = Some(v)
	return nil
}

// PricePoint represents a single time-bounded spot price sample
type PricePoint struct {
	Start time.Time `json:"start"`
	End   time.Time `json:"end"`
	Value Price     `json:"value"`
}

// Duration returns the length of the period covered by the point.
func (p PricePoint) Duration() time.Duration {
	return p.End.Sub(p.Start)
}

// MarketDataProvider defines the interface for spot price sources
type MarketDataProvider interface {
	// GetName returns the provider name
	GetName() string

	// FetchDay fetches the samples for the delivery day containing day.
	// An empty result with a nil error means the day is not published yet.
	FetchDay(ctx context.Context, area, currency string, day time.Time) ([]PricePoint, error)
}
