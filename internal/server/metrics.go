package server

import (
	"encoding/json"
	"net/http"

	"tsch-topology/internal/metrics"
)

type metricsView struct {
	metrics.Counters
	AcceptanceRatio float64 `json:"acceptance_ratio"`
}

func metricsHandler(coll *metrics.Collector) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if coll == nil {
			http.Error(w, "metrics disabled", http.StatusNotFound)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(metricsView{Counters: coll.Snapshot(), AcceptanceRatio: coll.AcceptanceRatio()})
	}
}
