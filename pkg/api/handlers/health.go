package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
)

// StatusChecker reports the state of a backing service
type StatusChecker interface {
	Status(ctx context.Context) string
}

// HealthHandler serves liveness and API info
type HealthHandler struct {
	db          StatusChecker
	cache       StatusChecker
	environment string
	version     string
	now         func() time.Time
}

// NewHealthHandler creates a new health handler
func NewHealthHandler(db StatusChecker, environment, version string) *HealthHandler {
	return &HealthHandler{
		db:          db,
		environment: environment,
		version:     version,
		now:         time.Now,
	}
}

// WithCache adds the shared rate limit store to the health report.
func (h *HealthHandler) WithCache(cache StatusChecker) *HealthHandler {
	h.cache = cache
	return h
}

// HealthResponse is the body of the liveness endpoint
type HealthResponse struct {
	Success     bool   `json:"success"`
	Message     string `json:"message"`
	Timestamp   string `json:"timestamp"`
	Environment string `json:"environment"`
	Version     string `json:"version"`
	Database    string `json:"database"`
	Cache       string `json:"cache,omitempty"`
}

// Health reports process status
// GET /health
func (h *HealthHandler) Health(c echo.Context) error {
	ctx, cancel := context.WithTimeout(c.Request().Context(), 2*time.Second)
	defer cancel()

	dbStatus := "disconnected"
	if h.db != nil {
		dbStatus = h.db.Status(ctx)
	}

	var cacheStatus string
	if h.cache != nil {
		cacheStatus = h.cache.Status(ctx)
	}

	return c.JSON(http.StatusOK, HealthResponse{
		Success:     true,
		Message:     "Sohoj Income Backend is running smoothly!",
		Timestamp:   h.now().UTC().Format(time.RFC3339Nano),
		Environment: h.environment,
		Version:     h.version,
		Database:    dbStatus,
		Cache:       cacheStatus,
	})
}

// APIInfo lists the resource roots
// GET /api
func (h *HealthHandler) APIInfo(c echo.Context) error {
	return c.JSON(http.StatusOK, map[string]any{
		"success": true,
		"message": "Sohoj Income API",
		"version": h.version,
		"endpoints": map[string]string{
			"users":       "/api/users",
			"referrals":   "/api/referrals",
			"withdrawals": "/api/withdrawals",
		},
	})
}
