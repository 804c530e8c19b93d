package httpapi

import (
	"encoding/json"
	"net/http"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"kcas/spotprice/internal/sensor"
)

// SnapshotSource provides the latest sensor snapshot.
type SnapshotSource interface {
	Snapshot() sensor.Snapshot
}

// NewRouter exposes the snapshot read-only, plus health and metrics.
func NewRouter(src SnapshotSource, gatherer prometheus.Gatherer) *mux.Router {
	r := mux.NewRouter()

	r.HandleFunc("/health", healthHandler).Methods(http.MethodGet)
	r.HandleFunc("/snapshot", snapshotHandler(src)).Methods(http.MethodGet)
	r.HandleFunc("/prices/{day:today|tomorrow}", pricesHandler(src)).Methods(http.MethodGet)
	r.Handle("/metrics", promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})).Methods(http.MethodGet)

	return r
}

func healthHandler(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	w.Write([]byte(`{"status":"ok"}`))
}

func snapshotHandler(src SnapshotSource) http.HandlerFunc {
	return func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, src.Snapshot())
	}
}

type pricesResponse struct {
	Day    string `json:"day"`
	Unit   string `json:"unit_of_measurement"`
	Valid  *bool  `json:"valid,omitempty"`
	Prices any    `json:"prices"`
}

func pricesHandler(src SnapshotSource) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		snap := src.Snapshot()
		resp := pricesResponse{Day: mux.Vars(r)["day"], Unit: snap.UnitOfPrice}
		if resp.Day == "tomorrow" {
			valid := snap.TomorrowValid
			resp.Valid = &valid
			resp.Prices = snap.RawTomorrow
		} else {
			resp.Prices = snap.RawToday
		}
		writeJSON(w, resp)
	}
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(v); err != nil {
		http.Error(w, "failed to encode response", http.StatusInternalServerError)
	}
}
