package service

import (
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/alanyoungcy/polypaper/internal/domain"
)

// Ledger is the ordered, append-only sequence of paper trades held in memory
// for one pass. It is loaded in full from a LedgerStore and written back in
// full afterwards.
type Ledger struct {
	mu      sync.Mutex
	entries []domain.LedgerEntry
}

// NewLedger creates a ledger holding a copy of entries.
func NewLedger(entries []domain.LedgerEntry) *Ledger {
	out := make([]domain.LedgerEntry, len(entries))
	copy(out, entries)
	return &Ledger{entries: out}
}

// Append adds e to the end of the ledger.
func (l *Ledger) Append(e domain.LedgerEntry) {
	l.mu.Lock()
	l.entries = append(l.entries, e)
	l.mu.Unlock()
}

// Entries returns a copy of the ledger in append order.
func (l *Ledger) Entries() []domain.LedgerEntry {
	l.mu.Lock()
	defer l.mu.Unlock()
	out := make([]domain.LedgerEntry, len(l.entries))
	copy(out, l.entries)
	return out
}

// Len returns the number of entries.
func (l *Ledger) Len() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.entries)
}

// LedgerConfig holds the paper-trade simulation knobs.
type LedgerConfig struct {
	// PlaceholderPrice is the entry price used when a market's prices are
	// not index-aligned with its outcomes.
	PlaceholderPrice float64
}

// LedgerService turns approved decisions into ledger entries.
type LedgerService struct {
	ledger *Ledger
	cfg    LedgerConfig
	now    func() time.Time
	newID  func() string
	logger *slog.Logger
}

// NewLedgerService creates a LedgerService appending to ledger.
func NewLedgerService(ledger *Ledger, cfg LedgerConfig, logger *slog.Logger) *LedgerService {
	return &LedgerService{
		ledger: ledger,
		cfg:    cfg,
		now:    func() time.Time { return time.Now().UTC() },
		newID:  func() string { return uuid.New().String() },
		logger: logger.With(slog.String("component", "ledger_writer")),
	}
}

// Ledger returns the underlying ledger.
func (s *LedgerService) Ledger() *Ledger {
	return s.ledger
}

// Record appends one OPEN entry when d is a TRADE and reports whether it did.
// NO_TRADE and VETO leave the ledger untouched.
func (s *LedgerService) Record(d domain.Decision, m domain.Market, a domain.Analysis) (domain.LedgerEntry, bool) {
	if d.Decision != domain.DecisionTrade {
		return domain.LedgerEntry{}, false
	}

	position, price := s.side(m, a.Signal)
	entry := domain.LedgerEntry{
		ID:            s.newID(),
		Timestamp:     s.now(),
		MarketSlug:    m.Slug,
		MarketTitle:   m.Title,
		Type:          tradeType(a),
		Signal:        a.Signal,
		RSI:           a.RSI,
		Decision:      d.Decision,
		SizeCategory:  d.SizeCategory,
		WeightedScore: d.WeightedScore,
		EntryPrice:    price,
		Position:      position,
		Status:        domain.TradeStatusOpen,
	}
	s.ledger.Append(entry)

	s.logger.Info("paper trade logged",
		slog.String("id", entry.ID),
		slog.String("market", m.Slug),
		slog.String("position", position),
		slog.Float64("entry_price", price),
		slog.String("size", string(d.SizeCategory)),
	)
	return entry, true
}

// side picks the outcome taken for a signal: the first outcome unless the
// signal is SELL and a second outcome exists. The entry price is that
// outcome's price when prices are index-aligned, else the placeholder.
func (s *LedgerService) side(m domain.Market, sig domain.Signal) (string, float64) {
	idx := 0
	if sig == domain.SignalSell && len(m.Outcomes) > 1 {
		idx = 1
	}

	var position string
	switch {
	case idx < len(m.Outcomes):
		position = m.Outcomes[idx]
	case sig == domain.SignalSell:
		position = "NO"
	default:
		position = "YES"
	}

	price, ok := m.PriceOf(idx)
	if !ok {
		price = s.cfg.PlaceholderPrice
	}
	return position, price
}

func tradeType(a domain.Analysis) domain.TradeType {
	if a.Source == domain.SourceTechnical {
		return domain.TradeTypeCryptoFast
	}
	return domain.TradeTypeEvent
}
