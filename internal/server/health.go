// internal/server/health.go
//
// GET /healthz.  Each named check runs with a short timeout; concurrent
// probes share one in-flight run through singleflight so a burst of load
// balancer checks costs one database ping.

package server

import (
	"context"
	"net/http"
	"sort"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/yanizio/laxmi/internal/component"
)

// CheckTimeout bounds a single health check.
const CheckTimeout = 2 * time.Second

// Check reports a dependency’s health.
type Check func(ctx context.Context) error

// Health aggregates checks.
type Health struct {
	checks map[string]Check
	sfg    singleflight.Group
}

// NewHealth returns a handler running checks.
func NewHealth(checks map[string]Check) *Health {
	return &Health{checks: checks}
}

type healthReport struct {
	Status string            `json:"status"`
	Checks map[string]string `json:"checks,omitempty"`
}

func (h *Health) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	v, _, _ := h.sfg.Do("healthz", func() (any, error) {
		return h.run(context.WithoutCancel(r.Context())), nil
	})
	rep := v.(healthReport)

	status := http.StatusOK
	if rep.Status != "ok" {
		status = http.StatusServiceUnavailable
	}
	w.Header().Set("Cache-Control", "no-store")
	component.JSON(w, status, rep)
}

func (h *Health) run(ctx context.Context) healthReport {
	rep := healthReport{Status: "ok", Checks: make(map[string]string, len(h.checks))}

	names := make([]string, 0, len(h.checks))
	for n := range h.checks {
		names = append(names, n)
	}
	sort.Strings(names)

	for _, n := range names {
		cctx, cancel := context.WithTimeout(ctx, CheckTimeout)
		err := h.checks[n](cctx)
		cancel()
		if err != nil {
			rep.Status = "degraded"
			rep.Checks[n] = err.Error()
			continue
		}
		rep.Checks[n] = "ok"
	}
	return rep
}
