package handlers

import (
	"net/http"
	"time"
)

// HealthHandler reports service liveness.
type HealthHandler struct {
	started time.Time
}

// NewHealthHandler constructs a health handler anchored to the process start.
func NewHealthHandler() HealthHandler {
	return HealthHandler{started: time.Now().UTC()}
}

// Handle implements GET /healthz.
func (h HealthHandler) Handle(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}

	respondJSON(r.Context(), w, http.StatusOK, "service is healthy", healthStatus{
		Status: "ok",
		Uptime: time.Since(h.started).Round(time.Second).String(),
	})
}

type healthStatus struct {
	Status string `json:"status"`
	Uptime string `json:"uptime"`
}
