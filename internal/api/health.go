package api

import (
	"net/http"
	"sync/atomic"
	"time"

	"github.com/hihiyo7/Personal-Healthcare-Assistant/internal/api/respond"
)

// HealthHandler handles health check endpoints
type HealthHandler struct{}

// NewHealthHandler creates a new health handler
func NewHealthHandler() *HealthHandler { return &HealthHandler{} }

var (
	serviceIsHealthy atomic.Pointer[func() bool]
	serviceUnhealthy atomic.Pointer[func() []string]
)

// BindServiceHealth lets run.go inject the aggregated service health.
// unhealthy may be nil.
func BindServiceHealth(healthy func() bool, unhealthy func() []string) {
	serviceIsHealthy.Store(&healthy)
	if unhealthy != nil {
		serviceUnhealthy.Store(&unhealthy)
	} else {
		serviceUnhealthy.Store(nil)
	}
}

// CheckHealth handles GET /api/health
// Always returns 200; body reports healthy/unhealthy. 500 indicates handler failure only.
func (h *HealthHandler) CheckHealth(w http.ResponseWriter, r *http.Request) {
	status := "unhealthy"
	if f := serviceIsHealthy.Load(); f != nil && (*f)() {
		status = "healthy"
	}
	response := map[string]any{
		"status":    status,
		"timestamp": time.Now().Format(time.RFC3339),
	}
	if f := serviceUnhealthy.Load(); f != nil && status == "unhealthy" {
		if down := (*f)(); len(down) > 0 {
			response["unhealthy"] = down
		}
	}
	respond.WriteJSON(w, http.StatusOK, response)
}
