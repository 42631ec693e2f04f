package handlers

import (
	"net/http"
	"time"
)

var startedAt = time.Now()

// HealthHandler is the liveness probe.
func HealthHandler(w http.ResponseWriter, r *http.Request) {
	resp := map[string]any{
		"status":     "ok",
		"service":    "cart-service",
		"started_at": startedAt.Format(time.RFC3339),
		"uptime_sec": int(time.Since(startedAt).Seconds()),
	}
	writeJSON(w, http.StatusOK, resp)
}

// Ready reports 200 once the carts have replayed the log.
func (h *CartHandlers) Ready(w http.ResponseWriter, r *http.Request) {
	if !h.svc.Ready() {
		writeError(w, http.StatusServiceUnavailable, "replaying event log")
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ready"})
}
