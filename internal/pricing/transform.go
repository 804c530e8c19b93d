// Package pricing turns raw spot prices into consumer prices.
package pricing

import (
	"errors"
	"fmt"
	"math"
	"sync"
	"time"

	"github.com/shopspring/decimal"

	"kcas/spotprice/internal/datastore"
)

// ErrMalformedAdjustment means the configured cost adjustment produced
// something that is not a number. It is a configuration error.
var ErrMalformedAdjustment = errors.New("malformed cost adjustment")

// Config is the immutable transform configuration of one sensor.
type Config struct {
	UnitDivisor     float64 // per-MWh price / UnitDivisor = price per unit
	VAT             float64 // 0.25 for 25 %
	UseCents        bool
	MinorMultiplier float64
	Precision       int32
	Adjust          AdjustmentFunc
}

// Transformer applies Config to raw prices. Every adjustment it computes is
// kept by sample start, so the current period's adjustment can be looked up
// regardless of the order the periods were transformed in.
type Transformer struct {
	cfg Config

	mu          sync.Mutex
	adjustments map[int64]float64
	last        datastore.Price
}

// NewTransformer creates a Transformer. A nil adjustment adds nothing.
func NewTransformer(cfg Config) *Transformer {
	if cfg.UnitDivisor == 0 {
		cfg.UnitDivisor = 1
	}
	if cfg.MinorMultiplier == 0 {
		cfg.MinorMultiplier = 100
	}
	if cfg.Adjust == nil {
		cfg.Adjust = Constant(0)
	}
	return &Transformer{
		cfg:         cfg,
		adjustments: make(map[int64]float64),
	}
}

// Transform converts raw into the consumer price of the period starting at
// at. Absent in, absent out, and the adjustment is not evaluated.
func (t *Transformer) Transform(raw datastore.Price, at time.Time) (datastore.Price, error) {
	if !raw.Valid || math.IsInf(raw.Value, 0) || math.IsNaN(raw.Value) {
		return datastore.Absent, nil
	}

	price := raw.Value / t.cfg.UnitDivisor * (1 + t.cfg.VAT)

	adjustment, err := t.cfg.Adjust(at, price)
	if err != nil {
		return datastore.Absent, fmt.Errorf("%w: %v", ErrMalformedAdjustment, err)
	}
	if math.IsInf(adjustment, 0) || math.IsNaN(adjustment) {
		return datastore.Absent, fmt.Errorf("%w: %v at %s", ErrMalformedAdjustment, adjustment, at.Format(time.RFC3339))
	}
	t.record(at, adjustment)

	price += adjustment

	// Convert price to cents if specified by the user.
	if t.cfg.UseCents {
		price *= t.cfg.MinorMultiplier
	}

	return datastore.Some(Round(price, t.cfg.Precision)), nil
}

// TransformSeries transforms every point of series in order.
func (t *Transformer) TransformSeries(series datastore.DailySeries) ([]datastore.PricePoint, error) {
	out := make([]datastore.PricePoint, len(series.Points))
	for i, p := range series.Points {
		v, err := t.Transform(p.Value, p.Start)
		if err != nil {
			return nil, err
		}
		out[i] = datastore.PricePoint{Start: p.Start, End: p.End, Value: v}
	}
	return out, nil
}

// AdjustmentAt returns the adjustment computed for the period starting at at.
func (t *Transformer) AdjustmentAt(at time.Time) datastore.Price {
	t.mu.Lock()
	defer t.mu.Unlock()
	if v, ok := t.adjustments[at.UnixNano()]; ok {
		return datastore.Some(v)
	}
	return datastore.Absent
}

// LastAdjustment returns the adjustment of the most recent Transform call.
func (t *Transformer) LastAdjustment() datastore.Price {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.last
}

// Forget drops recorded adjustments for periods starting before cutoff.
func (t *Transformer) Forget(cutoff time.Time) {
	t.mu.Lock()
	defer t.mu.Unlock()
	limit := cutoff.UnixNano()
	for k := range t.adjustments {
		if k < limit {
			delete(t.adjustments, k)
		}
	}
}

func (t *Transformer) record(at time.Time, adjustment float64) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.adjustments[at.UnixNano()] = adjustment
	t.last = datastore.Some(adjustment)
}

// Round rounds v to places decimals, half to even.
func Round(v float64, places int32) float64 {
	f, _ := decimal.NewFromFloat(v).RoundBank(places).Float64()
	return f
}
