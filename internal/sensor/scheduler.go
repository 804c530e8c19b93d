package sensor

import (
	"context"
	"time"

	"go.uber.org/zap"

	"kcas/spotprice/internal/datastore"
)

// TomorrowChecker reports whether tomorrow's prices are due at a given
// instant but not held yet. *Sensor implements it with its own cutoff.
type TomorrowChecker interface {
	AwaitingTomorrow(at time.Time) bool
}

// Scheduler turns the wall clock into trigger events: new day at local
// midnight, new hour at every quarter-hour boundary (so 15-minute prices
// advance too), and new price set polls while tomorrow is still missing
// after the publication cutoff.
type Scheduler struct {
	interval     time.Duration
	pollInterval time.Duration
	location     *time.Location
	checker      TomorrowChecker
	logger       *zap.SugaredLogger
	now          func() time.Time

	lastPeriod time.Time
	lastPoll   time.Time
}

// NewScheduler creates a scheduler checking the clock every interval.
func NewScheduler(interval time.Duration, location *time.Location, checker TomorrowChecker,
	logger *zap.SugaredLogger) *Scheduler {
	if location == nil {
		location = time.Local
	}
	return &Scheduler{
		interval:     interval,
		pollInterval: 15 * time.Minute,
		location:     location,
		checker:      checker,
		logger:       logger,
		now:          time.Now,
	}
}

// Tick returns the events due at now, in delivery order.
func (s *Scheduler) Tick(now time.Time) []Event {
	now = now.In(s.location)
	period := datastore.StartOf(now, datastore.SubHourly)

	var events []Event
	switch {
	case s.lastPeriod.IsZero():
		events = append(events, EventNewHour)
	case !sameDay(s.lastPeriod, period):
		events = append(events, EventNewDay)
	case !s.lastPeriod.Equal(period):
		events = append(events, EventNewHour)
	}
	s.lastPeriod = period

	if now.Sub(s.lastPoll) >= s.pollInterval && s.checker.AwaitingTomorrow(now) {
		s.lastPoll = now
		events = append(events, EventNewPriceSet)
	}
	return events
}

// Run emits events on the returned channel until ctx is done.
func (s *Scheduler) Run(ctx context.Context) <-chan Event {
	out := make(chan Event, 4)

	go func() {
		defer close(out)

		ticker := time.NewTicker(s.interval)
		defer ticker.Stop()

		emit := func(now time.Time) bool {
			for _, event := range s.Tick(now) {
				s.logger.Debugf("Scheduling %s", event)
				select {
				case out <- event:
				case <-ctx.Done():
					return false
				}
			}
			return true
		}

		if !emit(s.now()) {
			return
		}
		for {
			select {
			case <-ticker.C:
				if !emit(s.now()) {
					return
				}
			case <-ctx.Done():
				return
			}
		}
	}()

	return out
}

func sameDay(a, b time.Time) bool {
	ay, am, ad := a.Date()
	by, bm, bd := b.Date()
	return ay == by && am == bm && ad == bd
}
