package httpadapter

import (
	"net/http"

	"github.com/projectcompass/compass/internal/core/monitor"
)

// PipelineStatusHandler serves the collector snapshot as JSON. The worker
// mounts it next to its metrics endpoint, since the worker process is where
// the pipeline actually runs and its collector holds the live stats.
func PipelineStatusHandler(collector *monitor.Collector) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			writeJSON(w, http.StatusMethodNotAllowed, map[string]string{"error": "method not allowed"})
			return
		}
		writeJSON(w, http.StatusOK, collector.Snapshot())
	})
}
