package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics holds the sensor's Prometheus collectors.
type Metrics struct {
	Fetches       *prometheus.CounterVec
	CurrentPrice  *prometheus.GaugeVec
	TomorrowValid *prometheus.GaugeVec
	Recomputes    *prometheus.CounterVec
}

// New creates the collectors and registers them with reg.
func New(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		Fetches: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "spotprice_fetches_total",
			Help: "Price fetches by day (today, tomorrow) and outcome (ok, empty, error).",
		}, []string{"area", "day", "outcome"}),
		CurrentPrice: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name: "spotprice_current_price",
			Help: "Transformed price of the current period.",
		}, []string{"area", "unit"}),
		TomorrowValid: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name: "spotprice_tomorrow_valid",
			Help: "1 when tomorrow's prices are complete.",
		}, []string{"area"}),
		Recomputes: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "spotprice_recomputes_total",
			Help: "Handled trigger events by kind.",
		}, []string{"area", "event"}),
	}
	reg.MustRegister(m.Fetches, m.CurrentPrice, m.TomorrowValid, m.Recomputes)
	return m
}
