package http

import (
	"fmt"
	"net/http"
	"os"
	"runtime"

	"github.com/skyroute/airgate/internal/adapter/outbound/memory"
)

// HealthResponse is the JSON response from the /health endpoint.
type HealthResponse struct {
	Status  string            `json:"status"`            // "healthy" or "unhealthy"
	Checks  map[string]string `json:"checks"`            // Component check results
	Version string            `json:"version,omitempty"` // Optional version info
}

// HealthChecker verifies component health.
type HealthChecker struct {
	jarStore     *memory.JarStore
	rateLimiter  *memory.MemoryRateLimiter
	artifactsDir string
	version      string
}

// NewHealthChecker creates a HealthChecker with optional components.
// Pass nil (or "" for artifactsDir) for components that aren't available.
func NewHealthChecker(
	jarStore *memory.JarStore,
	rateLimiter *memory.MemoryRateLimiter,
	artifactsDir string,
	version string,
) *HealthChecker {
	return &HealthChecker{
		jarStore:     jarStore,
		rateLimiter:  rateLimiter,
		artifactsDir: artifactsDir,
		version:      version,
	}
}

// Check performs health checks on all components.
func (h *HealthChecker) Check() HealthResponse {
	checks := make(map[string]string)
	healthy := true

	// Size() acquires lock - if this hangs, we have a problem
	if h.jarStore != nil {
		checks["session_store"] = fmt.Sprintf("ok: %d sessions", h.jarStore.Size())
	} else {
		checks["session_store"] = "not configured"
	}

	if h.rateLimiter != nil {
		_ = h.rateLimiter.Size()
		checks["rate_limiter"] = "ok"
	} else {
		checks["rate_limiter"] = "not configured"
	}

	if h.artifactsDir != "" {
		info, err := os.Stat(h.artifactsDir)
		switch {
		case err != nil:
			checks["artifacts"] = "unavailable: " + err.Error()
			healthy = false
		case !info.IsDir():
			checks["artifacts"] = "unavailable: not a directory"
			healthy = false
		default:
			checks["artifacts"] = "ok"
		}
	} else {
		checks["artifacts"] = "not configured"
	}

	checks["goroutines"] = fmt.Sprintf("%d", runtime.NumGoroutine())

	status := "healthy"
	if !healthy {
		status = "unhealthy"
	}

	return HealthResponse{
		Status:  status,
		Checks:  checks,
		Version: h.version,
	}
}

// Handler returns an HTTP handler for the health endpoint.
func (h *HealthChecker) Handler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		health := h.Check()

		status := http.StatusOK
		if health.Status != "healthy" {
			status = http.StatusServiceUnavailable
		}
		writeJSON(w, r, status, health)
	})
}

// healthHandler is the minimal /health used when no checker is configured.
func healthHandler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, r, http.StatusOK, HealthResponse{Status: "healthy", Checks: map[string]string{}})
	})
}
