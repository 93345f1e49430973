package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
)

const (
	statusHealthy   = "healthy"
	statusUnhealthy = "unhealthy"
	statusDisabled  = "disabled"
)

// Pinger is anything whose connectivity can be probed, such as the pgx pool or the cache.
type Pinger interface {
	Ping(ctx context.Context) error
}

// HealthHandlers handles health check endpoints
type HealthHandlers struct {
	db      Pinger
	cache   Pinger
	version string
	now     func() time.Time
}

func NewHealthHandlers(db Pinger, cache Pinger, version string) *HealthHandlers {
	return &HealthHandlers{
		db:      db,
		cache:   cache,
		version: version,
		now:     time.Now,
	}
}

// HealthStatus represents the overall health status
type HealthStatus struct {
	Status    string            `json:"status"`
	Timestamp string            `json:"timestamp"`
	Version   string            `json:"version,omitempty"`
	Services  map[string]string `json:"services"`
}

// HealthCheck always answers 200 while the process serves; degraded dependencies are
// reported in the body.
func (h *HealthHandlers) HealthCheck(c echo.Context) error {
	ctx, cancel := context.WithTimeout(c.Request().Context(), 2*time.Second)
	defer cancel()

	health := &HealthStatus{
		Status:    "ok",
		Timestamp: h.now().UTC().Format(time.RFC3339),
		Version:   h.version,
		Services: map[string]string{
			"database": probe(ctx, h.db),
			"redis":    probe(ctx, h.cache),
		},
	}
	if health.Services["database"] == statusUnhealthy || health.Services["redis"] == statusUnhealthy {
		health.Status = "degraded"
	}

	return c.JSON(http.StatusOK, health)
}

func probe(ctx context.Context, p Pinger) string {
	if p == nil {
		return statusDisabled
	}
	if err := p.Ping(ctx); err != nil {
		return statusUnhealthy
	}
	return statusHealthy
}
