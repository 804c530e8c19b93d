package sensor

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"sync"
	"time"

	"go.uber.org/zap"

	"kcas/spotprice/internal/config"
	"kcas/spotprice/internal/datastore"
	"kcas/spotprice/internal/metrics"
	"kcas/spotprice/internal/pricing"
)

// Publisher receives every snapshot produced by a recompute.
type Publisher interface {
	Publish(ctx context.Context, snap Snapshot) error
}

// Options configures a Sensor. They are fixed for the sensor's lifetime.
type Options struct {
	Area           string
	Currency       string
	Country        string
	PriceType      string
	Precision      int
	LowPriceCutoff float64
	UseCents       bool
	VAT            float64

	// Fallback is used while the granularity cannot be detected.
	Fallback datastore.Granularity

	// Location is the timezone days and periods are expressed in.
	Location *time.Location

	// Tomorrow's prices are fetched once PublishLocation's clock passes
	// PublishHour:PublishMinute:PublishSecond. The minute and second are
	// randomized by default to spread load on the upstream.
	PublishLocation *time.Location
	PublishHour     int
	PublishMinute   int
	PublishSecond   int

	// Now defaults to time.Now.
	Now func() time.Time
}

// OptionsFromConfig derives sensor options and the transform configuration
// from the application configuration.
func OptionsFromConfig(cfg *config.Config) (Options, pricing.Config, error) {
	loc, err := time.LoadLocation(cfg.Timezone)
	if err != nil {
		return Options{}, pricing.Config{}, fmt.Errorf("invalid timezone: %w", err)
	}
	publishLoc, err := time.LoadLocation(cfg.PublishTimezone)
	if err != nil {
		return Options{}, pricing.Config{}, fmt.Errorf("invalid publish timezone: %w", err)
	}
	fallback, err := datastore.ParseGranularity(cfg.PeriodType)
	if err != nil {
		return Options{}, pricing.Config{}, err
	}
	adjust, err := pricing.ParseAdjustment(cfg.AdditionalCosts)
	if err != nil {
		return Options{}, pricing.Config{}, fmt.Errorf("invalid additional costs: %w", err)
	}

	opts := Options{
		Area:            cfg.Region,
		Currency:        cfg.EffectiveCurrency(),
		Country:         config.Regions[cfg.Region].Country,
		PriceType:       cfg.PriceType,
		Precision:       cfg.Precision,
		LowPriceCutoff:  cfg.LowPriceCutoff,
		UseCents:        cfg.PriceInCents,
		VAT:             cfg.EffectiveVAT(),
		Fallback:        fallback,
		Location:        loc,
		PublishLocation: publishLoc,
		PublishHour:     cfg.PublishHour,
		PublishMinute:   10 + rand.Intn(21),
		PublishSecond:   5 + rand.Intn(55),
	}
	transform := pricing.Config{
		UnitDivisor:     config.PriceUnits[cfg.PriceType],
		VAT:             opts.VAT,
		UseCents:        cfg.PriceInCents,
		MinorMultiplier: config.MinorMultiplier,
		Precision:       int32(cfg.Precision),
		Adjust:          adjust,
	}
	return opts, transform, nil
}

// Sensor holds today's and tomorrow's series for one area and recomputes
// the derived prices when a trigger event arrives. Trigger handlers are
// serialized; sensors for different areas share nothing mutable.
type Sensor struct {
	opts        Options
	provider    datastore.MarketDataProvider
	transformer *pricing.Transformer
	logger      *zap.SugaredLogger
	metrics     *metrics.Metrics
	publishers  []Publisher

	// mu serializes trigger handlers and guards the fields below.
	mu         sync.Mutex
	today      datastore.DailySeries
	tomorrow   datastore.DailySeries
	detector   *datastore.Detector
	aggregates datastore.Aggregates

	snapMu   sync.RWMutex
	snapshot Snapshot
}

// New creates a sensor. metrics may be nil.
func New(opts Options, transformer *pricing.Transformer, provider datastore.MarketDataProvider,
	logger *zap.SugaredLogger, m *metrics.Metrics, publishers ...Publisher) *Sensor {
	if opts.Location == nil {
		opts.Location = time.Local
	}
	if opts.PublishLocation == nil {
		opts.PublishLocation = opts.Location
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	if opts.PriceType == "" {
		opts.PriceType = config.DefaultPriceType
	}

	s := &Sensor{
		opts:        opts,
		provider:    provider,
		transformer: transformer,
		logger:      logger.With("area", opts.Area),
		metrics:     m,
		publishers:  publishers,
		detector:    datastore.NewDetector(opts.Fallback),
	}
	s.snapshot = s.baseSnapshot()
	return s
}

// ID returns the sensor's stable identifier.
func (s *Sensor) ID() string {
	return UniqueID(s.opts.PriceType, s.opts.Area, s.opts.Currency, s.opts.Precision, s.opts.LowPriceCutoff, s.opts.VAT)
}

// OnNewDay forgets tomorrow's series and refreshes today.
func (s *Sensor) OnNewDay(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.logger.Debugf("Handling new day")
	s.count(EventNewDay)
	s.tomorrow = datastore.Unknown
	s.aggregates = datastore.Aggregates{}
	s.transformer.Forget(datastore.StartOfDay(s.now()))
	return s.onNewHour(ctx, false)
}

// OnNewHour refreshes today, fetches tomorrow once it is due, and
// recomputes aggregates and the current price.
func (s *Sensor) OnNewHour(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.count(EventNewHour)
	return s.onNewHour(ctx, false)
}

// OnNewPriceSet refetches tomorrow unconditionally, then refreshes as on a
// new hour without asking for tomorrow a second time.
func (s *Sensor) OnNewPriceSet(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.logger.Debugf("Handling new price set")
	s.count(EventNewPriceSet)
	if series, ok := s.fetch(ctx, dayTomorrow); ok {
		s.tomorrow = series
	}
	return s.onNewHour(ctx, true)
}

// ResetGranularity drops the cached granularity detection, e.g. after the
// provider was switched.
func (s *Sensor) ResetGranularity() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.detector.Reset()
}

// HasTomorrow reports whether tomorrow's series has been fetched.
func (s *Sensor) HasTomorrow() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.tomorrow.Known
}

// AwaitingTomorrow reports whether at is past the publication cutoff while
// tomorrow's series is still missing.
func (s *Sensor) AwaitingTomorrow(at time.Time) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return !s.tomorrow.Known && s.tomorrowDueAt(at)
}

// Snapshot returns the result of the last recompute.
func (s *Sensor) Snapshot() Snapshot {
	s.snapMu.RLock()
	defer s.snapMu.RUnlock()
	return s.snapshot
}

func (s *Sensor) onNewHour(ctx context.Context, tomorrowFetched bool) error {
	if series, ok := s.fetch(ctx, dayToday); ok {
		s.today = series
	}

	if !tomorrowFetched && !s.tomorrow.Known && s.tomorrowDueAt(s.now()) {
		if series, ok := s.fetch(ctx, dayTomorrow); ok {
			s.tomorrow = series
		}
	}

	snap, err := s.recompute()
	if err != nil {
		return err
	}

	s.snapMu.Lock()
	s.snapshot = snap
	s.snapMu.Unlock()

	s.publish(ctx, snap)
	return nil
}

const (
	dayToday    = "today"
	dayTomorrow = "tomorrow"
)

// fetch pulls one day from the provider. Empty results and provider errors
// are logged and reported as !ok so the cached series stays in effect.
func (s *Sensor) fetch(ctx context.Context, which string) (datastore.DailySeries, bool) {
	day := s.now()
	if which == dayTomorrow {
		day = day.AddDate(0, 0, 1)
	}

	startTime := time.Now()
	points, err := s.provider.FetchDay(ctx, s.opts.Area, s.opts.Currency, day)
	fetchDuration := time.Since(startTime)

	if err != nil {
		s.observeFetch(which, "error")
		s.logger.Warnf("Failed to fetch %s from provider '%s' after %v: %v",
			which, s.provider.GetName(), fetchDuration, err)
		return datastore.Unknown, false
	}
	if len(points) == 0 {
		s.observeFetch(which, "empty")
		s.logger.Debugf("No %s data from provider '%s': %v", which, s.provider.GetName(), datastore.ErrDataUnavailable)
		return datastore.Unknown, false
	}

	s.observeFetch(which, "ok")
	s.logger.Debugf("Fetched %d %s data points from '%s' in %v", len(points), which, s.provider.GetName(), fetchDuration)
	return datastore.NewDailySeries(points, s.opts.Location), true
}

// tomorrowDueAt reports whether the publication clock has passed the cutoff
// of at's day.
func (s *Sensor) tomorrowDueAt(at time.Time) bool {
	now := at.In(s.opts.PublishLocation)
	cutoff := time.Date(now.Year(), now.Month(), now.Day(),
		s.opts.PublishHour, s.opts.PublishMinute, s.opts.PublishSecond, 0, now.Location())
	return !now.Before(cutoff)
}

func (s *Sensor) recompute() (Snapshot, error) {
	snap := s.baseSnapshot()
	now := s.now()

	granularity := s.detector.Effective()
	if s.today.Known && s.today.Len() > 0 {
		granularity = s.detector.Observe(s.today)
		// Aggregates come from raw spot prices, never transformed ones.
		s.aggregates = datastore.Bucket(s.today.Values(), datastore.PeriodsPerHour(s.today.Len()))
	}
	snap.PeriodType = granularity.String()
	snap.Aggregates = s.aggregates

	rawToday, err := s.transformer.TransformSeries(s.today)
	if err != nil {
		return Snapshot{}, fmt.Errorf("failed to transform today: %w", err)
	}
	rawTomorrow, err := s.transformer.TransformSeries(s.tomorrow)
	if err != nil {
		return Snapshot{}, fmt.Errorf("failed to transform tomorrow: %w", err)
	}
	snap.RawToday, snap.Today = rawToday, values(rawToday)
	snap.RawTomorrow, snap.Tomorrow = rawTomorrow, values(rawTomorrow)
	snap.TomorrowValid = TomorrowValid(snap.Tomorrow)

	periodStart := datastore.StartOf(now.In(s.opts.Location), granularity)
	snap.PeriodStart = periodStart
	if point, ok := s.today.Find(periodStart); ok {
		current, err := s.transformer.Transform(point.Value, point.Start)
		if err != nil {
			return Snapshot{}, fmt.Errorf("failed to transform current price: %w", err)
		}
		snap.CurrentPrice = current
		snap.AdditionalCosts = s.transformer.AdjustmentAt(point.Start)
	} else if s.today.Known {
		s.logger.Debugf("No sample starts at %s (period %s)", periodStart.Format(time.RFC3339), granularity)
	}

	// Low price compares consumer prices with each other.
	average := datastore.Bucket(snap.Today, 1).Average
	if snap.CurrentPrice.Valid && average.Valid && average.Value != 0 {
		low := snap.CurrentPrice.Value < average.Value*s.opts.LowPriceCutoff
		snap.LowPrice = &low
		snap.PricePercentToAverage = datastore.Some(snap.CurrentPrice.Value / average.Value)
	}

	s.observeSnapshot(snap)
	return snap, nil
}

func (s *Sensor) baseSnapshot() Snapshot {
	return Snapshot{
		ID:           s.ID(),
		Area:         s.opts.Area,
		Country:      s.opts.Country,
		Currency:     s.opts.Currency,
		Unit:         s.opts.PriceType,
		UnitOfPrice:  UnitOfMeasurement(s.opts.Currency, s.opts.PriceType, s.opts.UseCents),
		PriceInCents: s.opts.UseCents,
		PeriodType:   s.detector.Effective().String(),
		Today:        []datastore.Price{},
		Tomorrow:     []datastore.Price{},
		RawToday:     []datastore.PricePoint{},
		RawTomorrow:  []datastore.PricePoint{},
		UpdatedAt:    s.now(),
	}
}

func (s *Sensor) publish(ctx context.Context, snap Snapshot) {
	for _, p := range s.publishers {
		if err := p.Publish(ctx, snap); err != nil {
			s.logger.Warnf("Failed to publish snapshot: %v", err)
		}
	}
}

func (s *Sensor) now() time.Time {
	return s.opts.Now().In(s.opts.Location)
}

func (s *Sensor) count(event Event) {
	if s.metrics != nil {
		s.metrics.Recomputes.WithLabelValues(s.opts.Area, event.String()).Inc()
	}
}

func (s *Sensor) observeFetch(which, outcome string) {
	if s.metrics != nil {
		s.metrics.Fetches.WithLabelValues(s.opts.Area, which, outcome).Inc()
	}
}

func (s *Sensor) observeSnapshot(snap Snapshot) {
	if s.metrics == nil {
		return
	}
	if snap.CurrentPrice.Valid {
		s.metrics.CurrentPrice.WithLabelValues(s.opts.Area, snap.UnitOfPrice).Set(snap.CurrentPrice.Value)
	}
	valid := 0.0
	if snap.TomorrowValid {
		valid = 1
	}
	s.metrics.TomorrowValid.WithLabelValues(s.opts.Area).Set(valid)
}

func values(points []datastore.PricePoint) []datastore.Price {
	out := make([]datastore.Price, len(points))
	for i, p := range points {
		out[i] = p.Value
	}
	return out
}

// IsConfigError reports whether err is a configuration problem that should
// stop the sensor rather than be logged and retried on the next trigger.
func IsConfigError(err error) bool {
	return errors.Is(err, pricing.ErrMalformedAdjustment)
}
