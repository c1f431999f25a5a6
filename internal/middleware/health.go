package middleware

import (
	"context"
	"net/http"
	"sync"
	"time"

	"equiphouse/internal/clock"

	"github.com/gin-gonic/gin"
)

type HealthStatus struct {
	Status      string            `json:"status"`
	LastChecked time.Time         `json:"last_checked"`
	Uptime      string            `json:"uptime"`
	Version     string            `json:"version"`
	Checks      map[string]string `json:"checks,omitempty"`
}

// HealthCheck is a named dependency probe, e.g. a store ping.
type HealthCheck func(ctx context.Context) error

const healthCacheDuration = 5 * time.Second

type Health struct {
	mu        sync.Mutex
	clock     clock.Clock
	startTime time.Time
	version   string
	checks    map[string]HealthCheck
	last      *HealthStatus
	lastCode  int
}

func NewHealth(version string, clk clock.Clock, checks map[string]HealthCheck) *Health {
	if clk == nil {
		clk = clock.New()
	}
	return &Health{
		clock:     clk,
		startTime: clk.Now(),
		version:   version,
		checks:    checks,
	}
}

// Handler reports uptime and the result of every check. Results are reused
// for a few seconds so probes do not hammer the store.
func (h *Health) Handler() gin.HandlerFunc {
	return func(c *gin.Context) {
		h.mu.Lock()
		defer h.mu.Unlock()

		now := h.clock.Now()
		if h.last != nil && now.Sub(h.last.LastChecked) < healthCacheDuration {
			c.JSON(h.lastCode, h.last)
			return
		}

		status := &HealthStatus{
			Status:      "ok",
			LastChecked: now,
			Uptime:      now.Sub(h.startTime).String(),
			Version:     h.version,
		}
		code := http.StatusOK
		if len(h.checks) > 0 {
			status.Checks = make(map[string]string, len(h.checks))
			ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
			defer cancel()
			for name, check := range h.checks {
				if err := check(ctx); err != nil {
					status.Checks[name] = err.Error()
					status.Status = "degraded"
					code = http.StatusServiceUnavailable
					continue
				}
				status.Checks[name] = "ok"
			}
		}

		h.last = status
		h.lastCode = code
		c.JSON(code, status)
	}
}
