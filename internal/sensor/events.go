package sensor

import (
	"context"
	"fmt"
)

// Event is an external trigger delivered to a sensor.
type Event int

const (
	EventNewHour Event = iota
	EventNewDay
	EventNewPriceSet
)

func (e Event) String() string {
	switch e {
	case EventNewHour:
		return "new_hour"
	case EventNewDay:
		return "new_day"
	case EventNewPriceSet:
		return "new_price_set"
	default:
		return fmt.Sprintf("event(%d)", int(e))
	}
}

// Handle dispatches one event to the matching trigger handler.
func (s *Sensor) Handle(ctx context.Context, event Event) error {
	switch event {
	case EventNewHour:
		return s.OnNewHour(ctx)
	case EventNewDay:
		return s.OnNewDay(ctx)
	case EventNewPriceSet:
		return s.OnNewPriceSet(ctx)
	default:
		return fmt.Errorf("unknown event: %v", event)
	}
}

// Run handles events one at a time until ctx is done or events is closed.
// A configuration error stops the loop and is returned; anything else is
// logged and the next event is awaited.
func (s *Sensor) Run(ctx context.Context, events <-chan Event) error {
	s.logger.Infof("Starting sensor %s with provider '%s'", s.ID(), s.provider.GetName())

	for {
		select {
		case <-ctx.Done():
			s.logger.Info("Sensor shutting down...")
			return nil
		case event, ok := <-events:
			if !ok {
				return nil
			}
			if err := s.Handle(ctx, event); err != nil {
				if IsConfigError(err) {
					return err
				}
				s.logger.Errorf("Failed to handle %s: %v", event, err)
			}
		}
	}
}
