package handler

import (
	"net/http"
	"time"

	"github.com/alanyoungcy/polypaper/internal/pipeline"
)

// ReportSource exposes the most recent completed pass.
type ReportSource interface {
	LastReport() (pipeline.PassReport, bool)
}

// StatusHandler serves the process mode and the last pass report.
type StatusHandler struct {
	mode      string
	startedAt time.Time
	reports   ReportSource
}

// NewStatusHandler creates a StatusHandler.
func NewStatusHandler(mode string, startedAt time.Time, reports ReportSource) *StatusHandler {
	return &StatusHandler{mode: mode, startedAt: startedAt, reports: reports}
}

// GetStatus responds with the mode, start time, and last pass summary.
// GET /api/status
func (h *StatusHandler) GetStatus(w http.ResponseWriter, r *http.Request) {
	body := map[string]any{
		"mode":       h.mode,
		"started_at": h.startedAt.UTC().Format(time.RFC3339),
	}
	if h.reports != nil {
		if rep, ok := h.reports.LastReport(); ok {
			body["last_pass"] = map[string]any{
				"pass_id":     rep.PassID,
				"considered":  rep.Considered,
				"accepted":    rep.Accepted,
				"rejected":    rep.Rejected,
				"skipped":     rep.Skipped,
				"decisions":   rep.Decisions,
				"appended":    len(rep.Appended),
				"duration_ms": rep.Duration.Milliseconds(),
			}
		}
	}
	writeJSON(w, http.StatusOK, body)
}
