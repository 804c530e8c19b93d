package sensor

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type stubChecker struct {
	due time.Time
	has bool
}

func (c *stubChecker) AwaitingTomorrow(at time.Time) bool {
	return !c.has && !at.Before(c.due)
}

func TestSchedulerTick(t *testing.T) {
	at := func(h, m int) time.Time { return day1.Add(time.Duration(h)*time.Hour + time.Duration(m)*time.Minute) }
	checker := &stubChecker{due: at(13, 0)}
	s := NewScheduler(time.Minute, time.UTC, checker, zap.NewNop().Sugar())

	assert.Equal(t, []Event{EventNewHour}, s.Tick(at(10, 5)))
	assert.Empty(t, s.Tick(at(10, 10)))
	assert.Equal(t, []Event{EventNewHour}, s.Tick(at(10, 15)))
	assert.Equal(t, []Event{EventNewHour, EventNewPriceSet}, s.Tick(at(13, 0)))
	assert.Empty(t, s.Tick(at(13, 5)))
	assert.Equal(t, []Event{EventNewHour, EventNewPriceSet}, s.Tick(at(13, 15)))

	checker.has = true
	assert.Equal(t, []Event{EventNewHour}, s.Tick(at(13, 30)))
	assert.Equal(t, []Event{EventNewDay}, s.Tick(at(24, 0)))
}

func TestSchedulerPollsOnSensorCutoff(t *testing.T) {
	f := newFixture(t, nil)
	s := NewScheduler(time.Minute, time.UTC, f.sensor, zap.NewNop().Sugar())

	// the publish hour has started but the 13:15:30 cutoff has not passed
	assert.Equal(t, []Event{EventNewHour}, s.Tick(day1.Add(13*time.Hour)))
	assert.Empty(t, s.Tick(day1.Add(13*time.Hour+10*time.Minute)))
	assert.Equal(t, []Event{EventNewHour, EventNewPriceSet}, s.Tick(day1.Add(13*time.Hour+15*time.Minute+30*time.Second)))
}

func TestAwaitingTomorrowUsesPublishTimezone(t *testing.T) {
	helsinki, err := time.LoadLocation("Europe/Helsinki")
	require.NoError(t, err)

	f := newFixture(t, nil)
	f.sensor.opts.PublishLocation = helsinki

	// 10:15:30 UTC is 13:15:30 in Helsinki during summer time
	assert.False(t, f.sensor.AwaitingTomorrow(day1.Add(10*time.Hour+15*time.Minute)))
	assert.True(t, f.sensor.AwaitingTomorrow(day1.Add(10*time.Hour+15*time.Minute+30*time.Second)))
}

func TestSchedulerRun(t *testing.T) {
	s := NewScheduler(5*time.Millisecond, time.UTC, &stubChecker{has: true}, zap.NewNop().Sugar())
	s.now = func() time.Time { return day1.Add(9 * time.Hour) }

	ctx, cancel := context.WithCancel(context.Background())
	events := s.Run(ctx)

	select {
	case event := <-events:
		assert.Equal(t, EventNewHour, event)
	case <-time.After(time.Second):
		t.Fatal("no event emitted")
	}

	cancel()
	require.Eventually(t, func() bool {
		select {
		case _, ok := <-events:
			return !ok
		default:
			return false
		}
	}, time.Second, 5*time.Millisecond)
}
