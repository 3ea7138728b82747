package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/siap-api/internal/service"
)

const readinessTimeout = 2 * time.Second

// Dependency is a named readiness check. A failing optional dependency is
// reported but keeps the instance ready.
type Dependency struct {
	Name     string
	Optional bool
	Check    func(ctx context.Context) error
}

// MetricsHandler serves the operational endpoints.
type MetricsHandler struct {
	metrics *service.MetricsService
	deps    []Dependency
}

// NewMetricsHandler constructs a metrics handler.
func NewMetricsHandler(metrics *service.MetricsService, deps ...Dependency) *MetricsHandler {
	return &MetricsHandler{metrics: metrics, deps: deps}
}

// Prometheus serves the scrape endpoint.
func (h *MetricsHandler) Prometheus(c *gin.Context) {
	h.metrics.Handler().ServeHTTP(c.Writer, c.Request)
}

// Health answers liveness checks.
func (h *MetricsHandler) Health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

// Ready reports 503 while a required dependency is down.
func (h *MetricsHandler) Ready(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), readinessTimeout)
	defer cancel()

	status := http.StatusOK
	checks := make(gin.H, len(h.deps))
	for _, dep := range h.deps {
		if err := dep.Check(ctx); err != nil {
			checks[dep.Name] = "down"
			if !dep.Optional {
				status = http.StatusServiceUnavailable
			}
			continue
		}
		checks[dep.Name] = "up"
	}

	state := "ready"
	if status != http.StatusOK {
		state = "unavailable"
	}
	c.JSON(status, gin.H{"status": state, "checks": checks})
}
