package providers

import (
	"time"

	"github.com/sony/gobreaker"
	"go.uber.org/zap"
)

// newBreaker returns the circuit breaker guarding an HTTP provider. It opens
// after consecutive failures so a broken upstream is not hammered every hour;
// the sensor itself never retries.
func newBreaker(name string, logger *zap.SugaredLogger) *gobreaker.CircuitBreaker {
	return gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        name,
		MaxRequests: 1,
		Interval:    time.Hour,
		Timeout:     5 * time.Minute,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= 3
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			if logger != nil {
				logger.Warnf("Circuit breaker %s changed state: %s -> %s", name, from, to)
			}
		},
	})
}
