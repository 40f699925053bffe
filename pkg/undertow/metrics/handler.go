package metrics

import (
	"net/http"

	json "github.com/goccy/go-json"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Handler serves the diagnostics endpoints:
//
//	/metrics  Prometheus exposition of everything in g
//	/stats    JSON snapshot returned by stats
//
// A nil stats disables /stats.
func Handler(g prometheus.Gatherer, stats func() any) http.Handler {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(g, promhttp.HandlerOpts{}))

	if stats != nil {
		mux.HandleFunc("/stats", func(w http.ResponseWriter, r *http.Request) {
			body, err := json.Marshal(stats())
			if err != nil {
				http.Error(w, err.Error(), http.StatusInternalServerError)
				return
			}
			w.Header().Set("Content-Type", "application/json")
			w.Write(body)
		})
	}
	return mux
}
