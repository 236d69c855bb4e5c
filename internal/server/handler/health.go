package handler

import (
	"context"
	"log/slog"
	"net/http"
	"sort"
	"time"
)

// Probe checks one backing service.
type Probe func(ctx context.Context) error

// HealthHandler serves the health-check endpoint.
type HealthHandler struct {
	probes  map[string]Probe
	timeout time.Duration
	logger  *slog.Logger
}

// NewHealthHandler creates a HealthHandler that runs probes on every request.
// A nil map reports liveness only.
func NewHealthHandler(probes map[string]Probe, logger *slog.Logger) *HealthHandler {
	return &HealthHandler{probes: probes, timeout: 3 * time.Second, logger: logger}
}

// HealthCheck responds 200 when every probe passes and 503 otherwise, with the
// per-service result in the body.
// GET /api/health
func (h *HealthHandler) HealthCheck(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	names := make([]string, 0, len(h.probes))
	for name := range h.probes {
		names = append(names, name)
	}
	sort.Strings(names)

	status, code := "ok", http.StatusOK
	checks := make(map[string]string, len(names))
	for _, name := range names {
		if err := h.probes[name](ctx); err != nil {
			checks[name] = err.Error()
			status, code = "degraded", http.StatusServiceUnavailable
			h.logger.WarnContext(ctx, "health probe failed",
				slog.String("service", name),
				slog.String("error", err.Error()),
			)
			continue
		}
		checks[name] = "ok"
	}

	writeJSON(w, code, map[string]any{
		"status":    status,
		"checks":    checks,
		"timestamp": time.Now().UTC().Format(time.RFC3339),
	})
}
