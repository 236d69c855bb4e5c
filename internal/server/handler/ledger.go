package handler

import (
	"log/slog"
	"net/http"

	"github.com/alanyoungcy/polypaper/internal/domain"
)

// LedgerHandler serves read-only views of the paper-trade ledger.
type LedgerHandler struct {
	store  domain.LedgerStore
	logger *slog.Logger
}

// NewLedgerHandler creates a LedgerHandler over store.
func NewLedgerHandler(store domain.LedgerStore, logger *slog.Logger) *LedgerHandler {
	return &LedgerHandler{store: store, logger: logger}
}

// ListEntries returns a page of ledger entries in ledger order.
// GET /api/ledger?limit=&offset=
func (h *LedgerHandler) ListEntries(w http.ResponseWriter, r *http.Request) {
	entries, err := h.store.Load(r.Context())
	if err != nil {
		h.logger.ErrorContext(r.Context(), "handler: load ledger", slog.String("error", err.Error()))
		writeError(w, http.StatusInternalServerError, "failed to load ledger")
		return
	}

	limit, offset := parsePage(r)
	page := []domain.LedgerEntry{}
	if offset < len(entries) {
		end := min(offset+limit, len(entries))
		page = entries[offset:end]
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"total":   len(entries),
		"limit":   limit,
		"offset":  offset,
		"entries": page,
	})
}

// Summary returns entry counts by size tier, trade type, and signal, plus the
// notional bankroll share committed across all open entries.
// GET /api/ledger/summary
func (h *LedgerHandler) Summary(w http.ResponseWriter, r *http.Request) {
	entries, err := h.store.Load(r.Context())
	if err != nil {
		h.logger.ErrorContext(r.Context(), "handler: load ledger", slog.String("error", err.Error()))
		writeError(w, http.StatusInternalServerError, "failed to load ledger")
		return
	}

	bySize := make(map[domain.SizeCategory]int)
	byType := make(map[domain.TradeType]int)
	bySignal := make(map[domain.Signal]int)
	var open int
	var bankroll float64
	for _, e := range entries {
		bySize[e.SizeCategory]++
		byType[e.Type]++
		bySignal[e.Signal]++
		if e.Status == domain.TradeStatusOpen {
			open++
			bankroll += e.SizeCategory.BankrollPercent()
		}
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"total":            len(entries),
		"open":             open,
		"by_size":          bySize,
		"by_type":          byType,
		"by_signal":        bySignal,
		"bankroll_percent": bankroll,
	})
}
