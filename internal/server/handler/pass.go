package handler

import (
	"log/slog"
	"net/http"
	"time"
)

// PassHandler lets an operator request an immediate pass in loop mode.
type PassHandler struct {
	logger    *slog.Logger
	triggerCh chan<- struct{}
}

// NewPassHandler creates a PassHandler sending on triggerCh. The pass loop
// must receive from the channel.
func NewPassHandler(triggerCh chan<- struct{}, logger *slog.Logger) *PassHandler {
	return &PassHandler{logger: logger, triggerCh: triggerCh}
}

// TriggerPass enqueues one pass with a non-blocking send; a pending request
// absorbs further ones until the loop consumes it.
// POST /api/pass/trigger
func (h *PassHandler) TriggerPass(w http.ResponseWriter, r *http.Request) {
	queued := false
	select {
	case h.triggerCh <- struct{}{}:
		queued = true
	default:
	}
	h.logger.InfoContext(r.Context(), "handler: pass trigger requested", slog.Bool("queued", queued))
	writeJSON(w, http.StatusAccepted, map[string]any{
		"status":       "accepted",
		"queued":       queued,
		"requested_at": time.Now().UTC().Format(time.RFC3339),
	})
}
