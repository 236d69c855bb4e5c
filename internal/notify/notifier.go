// Package notify announces paper-trading events to chat channels. Every
// registered sender receives each allowed event; a failing sender never
// blocks the others.
package notify

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/alanyoungcy/polypaper/internal/domain"
)

// EventPaperTrade is emitted when a TRADE decision is written to the ledger.
const EventPaperTrade = "paper_trade"

// Sender is the interface that each notification channel must implement.
type Sender interface {
	// Send delivers a notification with the given title and message body.
	Send(ctx context.Context, title, message string) error
	// Name returns a short identifier for the sender (e.g. "telegram").
	Name() string
}

// Notifier dispatches notifications to one or more Senders, forwarding only
// the configured event types. An empty event list allows everything.
type Notifier struct {
	senders []Sender
	events  map[string]bool
	logger  *slog.Logger
}

// NewNotifier creates a Notifier delivering to senders.
func NewNotifier(senders []Sender, events []string, logger *slog.Logger) *Notifier {
	allowed := make(map[string]bool, len(events))
	for _, e := range events {
		if e = strings.TrimSpace(e); e != "" {
			allowed[e] = true
		}
	}
	return &Notifier{
		senders: senders,
		events:  allowed,
		logger:  logger.With(slog.String("component", "notifier")),
	}
}

// Enabled reports whether any sender is registered.
func (n *Notifier) Enabled() bool {
	return n != nil && len(n.senders) > 0
}

// Notify sends title/message to all senders if event is allowed.
func (n *Notifier) Notify(ctx context.Context, event, title, message string) error {
	if len(n.events) > 0 && !n.events[event] {
		n.logger.DebugContext(ctx, "event filtered out", slog.String("event", event))
		return nil
	}
	return n.dispatch(ctx, title, message)
}

// PaperTrade announces a newly logged ledger entry.
func (n *Notifier) PaperTrade(ctx context.Context, e domain.LedgerEntry) error {
	title := fmt.Sprintf("Paper trade: %s %s", e.Signal, e.MarketTitle)
	var b strings.Builder
	fmt.Fprintf(&b, "Market: %s\n", e.MarketSlug)
	fmt.Fprintf(&b, "Position: %s @ %.4f\n", e.Position, e.EntryPrice)
	fmt.Fprintf(&b, "Score: %.2f (%s, %g%% bankroll)\n", e.WeightedScore, e.SizeCategory, e.SizeCategory.BankrollPercent())
	if e.RSI != nil {
		fmt.Fprintf(&b, "RSI: %.2f\n", *e.RSI)
	}
	fmt.Fprintf(&b, "Type: %s", e.Type)
	return n.Notify(ctx, EventPaperTrade, title, b.String())
}

func (n *Notifier) dispatch(ctx context.Context, title, message string) error {
	var errs []error
	for _, s := range n.senders {
		if err := s.Send(ctx, title, message); err != nil {
			n.logger.ErrorContext(ctx, "sender failed",
				slog.String("sender", s.Name()),
				slog.String("error", err.Error()),
			)
			errs = append(errs, fmt.Errorf("%s: %w", s.Name(), err))
			continue
		}
		n.logger.DebugContext(ctx, "notification sent",
			slog.String("sender", s.Name()),
			slog.String("title", title),
		)
	}
	if len(errs) > 0 {
		return fmt.Errorf("notify: %d sender(s) failed: %w", len(errs), errors.Join(errs...))
	}
	return nil
}
