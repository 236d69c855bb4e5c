// Package pipeline drives the paper-trading pass: candidates are filtered,
// analysed, scored, and approved trades appended to the ledger, one
// candidate at a time in source order.
package pipeline

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/alanyoungcy/polypaper/internal/domain"
	"github.com/alanyoungcy/polypaper/internal/filter"
	"github.com/alanyoungcy/polypaper/internal/metrics"
	"github.com/alanyoungcy/polypaper/internal/risk"
	"github.com/alanyoungcy/polypaper/internal/service"
	"github.com/alanyoungcy/polypaper/internal/signal"
)

const (
	// LedgerLockKey serialises ledger rewrites across processes.
	LedgerLockKey = "ledger"
	// DecisionStreamName receives one message per risk decision.
	DecisionStreamName = "decisions"
	// AuditEventDecision is the audit_log event for a risk decision.
	AuditEventDecision = "risk_decision"

	defaultLockTTL = 10 * time.Minute
)

// TradeNotifier announces approved paper trades.
type TradeNotifier interface {
	PaperTrade(ctx context.Context, e domain.LedgerEntry) error
}

// LedgerArchiver stores a copy of the ledger after a pass.
type LedgerArchiver interface {
	ArchiveLedger(ctx context.Context, passID string, entries []domain.LedgerEntry) (string, error)
}

// Config wires an Orchestrator. Source, Filter, Provider, Scorer, and Ledger
// are required; the rest are optional side channels whose failures are
// logged and never fail a pass.
type Config struct {
	Source   CandidateSource
	Filter   *filter.Filter
	Provider signal.Provider
	Scorer   *risk.Scorer
	Ledger   domain.LedgerStore
	Writer   service.LedgerConfig

	Locks    domain.LockManager
	LockTTL  time.Duration
	Audit    domain.AuditStore
	Stream   domain.DecisionStream
	Notifier TradeNotifier
	Archiver LedgerArchiver

	// Trigger, when set, requests an extra pass in RunLoop.
	Trigger <-chan struct{}
}

// PassReport summarises one pass.
type PassReport struct {
	PassID     string
	Considered int
	Accepted   int
	Rejected   map[filter.Reason]int
	Skipped    int
	Decisions  map[domain.DecisionKind]int
	Appended   []domain.LedgerEntry
	Duration   time.Duration
}

// Orchestrator runs passes over the pipeline stages.
type Orchestrator struct {
	cfg    Config
	logger *slog.Logger
	now    func() time.Time

	mu   sync.Mutex
	last *PassReport
}

// NewOrchestrator validates cfg and returns an Orchestrator.
func NewOrchestrator(cfg Config, logger *slog.Logger) (*Orchestrator, error) {
	switch {
	case cfg.Source == nil:
		return nil, errors.New("pipeline: candidate source is required")
	case cfg.Filter == nil:
		return nil, errors.New("pipeline: filter is required")
	case cfg.Provider == nil:
		return nil, errors.New("pipeline: analysis provider is required")
	case cfg.Scorer == nil:
		return nil, errors.New("pipeline: scorer is required")
	case cfg.Ledger == nil:
		return nil, errors.New("pipeline: ledger store is required")
	}
	if cfg.LockTTL <= 0 {
		cfg.LockTTL = defaultLockTTL
	}
	return &Orchestrator{
		cfg:    cfg,
		logger: logger.With(slog.String("component", "orchestrator")),
		now:    time.Now,
	}, nil
}

// RunPass performs one full pass. Individual candidate failures are skipped;
// lock, ledger load/save, and candidate source failures fail the pass and
// leave the persisted ledger untouched.
func (o *Orchestrator) RunPass(ctx context.Context) (PassReport, error) {
	start := o.now()
	report := PassReport{
		PassID:    uuid.New().String(),
		Rejected:  make(map[filter.Reason]int),
		Decisions: make(map[domain.DecisionKind]int),
	}
	log := o.logger.With(slog.String("pass_id", report.PassID))

	if o.cfg.Locks != nil {
		unlock, err := o.cfg.Locks.Acquire(ctx, LedgerLockKey, o.cfg.LockTTL)
		if err != nil {
			return report, fmt.Errorf("pipeline: acquire ledger lock: %w", err)
		}
		defer unlock()
	}

	prior, err := o.cfg.Ledger.Load(ctx)
	if err != nil {
		return report, fmt.Errorf("pipeline: load ledger: %w", err)
	}

	candidates, err := o.cfg.Source.Candidates(ctx)
	if err != nil {
		return report, fmt.Errorf("pipeline: candidates: %w", err)
	}
	report.Considered = len(candidates)

	pass := o.cfg.Filter.Apply(candidates)
	report.Accepted = len(pass.Accepted)
	for _, r := range pass.Rejected {
		report.Rejected[r.Reason]++
		metrics.FilterRejections.WithLabelValues(string(r.Reason)).Inc()
		log.Debug("candidate rejected",
			slog.String("slug", r.Candidate.Slug),
			slog.String("reason", string(r.Reason)),
			slog.String("detail", r.Detail),
		)
	}

	markets := make([]domain.Market, len(pass.Accepted))
	for i, a := range pass.Accepted {
		markets[i] = a.Market
	}
	if pf, ok := o.cfg.Provider.(signal.Prefetcher); ok {
		pf.Prefetch(ctx, markets)
	}

	ledger := service.NewLedger(prior)
	writer := service.NewLedgerService(ledger, o.cfg.Writer, o.logger)

	for _, m := range markets {
		if err := ctx.Err(); err != nil {
			return report, fmt.Errorf("pipeline: pass interrupted: %w", err)
		}

		a, err := o.cfg.Provider.Analyze(ctx, m)
		if err == nil {
			err = a.Scores.Validate()
		}
		if err != nil {
			report.Skipped++
			metrics.CandidatesSkipped.Inc()
			log.Info("candidate skipped",
				slog.String("slug", m.Slug),
				slog.String("reason", skipReason(err)),
				slog.String("error", err.Error()),
			)
			continue
		}

		d := o.cfg.Scorer.Score(a.Scores.Complete())
		report.Decisions[d.Decision]++
		metrics.Decisions.WithLabelValues(string(d.Decision)).Inc()
		log.Info("risk decision",
			slog.String("slug", m.Slug),
			slog.String("source", string(a.Source)),
			slog.String("signal", string(a.Signal)),
			slog.Float64("score", d.WeightedScore),
			slog.String("decision", string(d.Decision)),
			slog.String("size", string(d.SizeCategory)),
			slog.String("veto_reason", d.VetoReason),
		)
		o.publish(ctx, log, decisionDetail(report.PassID, m, a, d))

		entry, ok := writer.Record(d, m, a)
		if !ok {
			continue
		}
		report.Appended = append(report.Appended, entry)
		metrics.LedgerAppends.Inc()
		if o.cfg.Notifier != nil {
			if err := o.cfg.Notifier.PaperTrade(ctx, entry); err != nil {
				log.Warn("paper trade notification failed", slog.String("error", err.Error()))
			}
		}
	}

	entries := ledger.Entries()
	if err := o.cfg.Ledger.Save(ctx, entries); err != nil {
		return report, fmt.Errorf("pipeline: save ledger: %w", err)
	}

	if o.cfg.Archiver != nil && len(report.Appended) > 0 {
		if path, err := o.cfg.Archiver.ArchiveLedger(ctx, report.PassID, entries); err != nil {
			log.Warn("ledger archive failed", slog.String("error", err.Error()))
		} else {
			log.Debug("ledger archived", slog.String("path", path))
		}
	}

	report.Duration = o.now().Sub(start)
	o.mu.Lock()
	o.last = &report
	o.mu.Unlock()
	metrics.PassDuration.Observe(report.Duration.Seconds())
	log.Info("pass complete",
		slog.Int("considered", report.Considered),
		slog.Int("accepted", report.Accepted),
		slog.Int("skipped", report.Skipped),
		slog.Int("appended", len(report.Appended)),
		slog.Int("ledger_size", len(entries)),
		slog.Duration("duration", report.Duration),
	)
	return report, nil
}

// LastReport returns the report of the most recent successful pass.
func (o *Orchestrator) LastReport() (PassReport, bool) {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.last == nil {
		return PassReport{}, false
	}
	return *o.last, true
}

// RunLoop runs a pass immediately and then on every interval tick, or on a
// Trigger request, until ctx is cancelled. Failed passes are logged and
// retried on the next tick.
func (o *Orchestrator) RunLoop(ctx context.Context, interval time.Duration) error {
	o.runLogged(ctx)

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			o.logger.Info("pass loop stopped")
			return ctx.Err()
		case <-ticker.C:
			o.runLogged(ctx)
		case <-o.cfg.Trigger:
			o.logger.Info("pass triggered")
			o.runLogged(ctx)
		}
	}
}

func (o *Orchestrator) runLogged(ctx context.Context) {
	if _, err := o.RunPass(ctx); err != nil && ctx.Err() == nil {
		o.logger.Error("pass failed", slog.String("error", err.Error()))
	}
}

// publish sends a decision to the audit log and decision stream.
func (o *Orchestrator) publish(ctx context.Context, log *slog.Logger, detail map[string]any) {
	if o.cfg.Audit != nil {
		if err := o.cfg.Audit.Log(ctx, AuditEventDecision, detail); err != nil {
			log.Warn("audit log failed", slog.String("error", err.Error()))
		}
	}
	if o.cfg.Stream != nil {
		payload, err := json.Marshal(detail)
		if err != nil {
			log.Warn("encode decision failed", slog.String("error", err.Error()))
			return
		}
		if err := o.cfg.Stream.Append(ctx, DecisionStreamName, payload); err != nil {
			log.Warn("decision stream append failed", slog.String("error", err.Error()))
		}
	}
}

func decisionDetail(passID string, m domain.Market, a domain.Analysis, d domain.Decision) map[string]any {
	scores := make(map[string]float64, len(domain.Dimensions))
	for _, dim := range domain.Dimensions {
		scores[string(dim)] = a.Scores.Get(dim)
	}
	detail := map[string]any{
		"pass_id":        passID,
		"market_slug":    m.Slug,
		"market_title":   m.Title,
		"source":         string(a.Source),
		"signal":         string(a.Signal),
		"scores":         scores,
		"weighted_score": d.WeightedScore,
		"decision":       string(d.Decision),
		"size_category":  string(d.SizeCategory),
		"vetoed":         d.Vetoed,
	}
	if a.Symbol != "" {
		detail["symbol"] = a.Symbol
	}
	if a.RSI != nil {
		detail["rsi"] = *a.RSI
	}
	if d.VetoReason != "" {
		detail["veto_reason"] = d.VetoReason
	}
	return detail
}

func skipReason(err error) string {
	switch {
	case errors.Is(err, domain.ErrNotApplicable):
		return "no provider"
	case errors.Is(err, domain.ErrNoSignal):
		return "no data"
	case errors.Is(err, domain.ErrInvalidScore):
		return "invalid scores"
	case errors.Is(err, domain.ErrRateLimited):
		return "rate limited"
	default:
		return "analysis failed"
	}
}
