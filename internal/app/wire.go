package app

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	s3blob "github.com/alanyoungcy/polypaper/internal/blob/s3"
	"github.com/alanyoungcy/polypaper/internal/cache/redis"
	"github.com/alanyoungcy/polypaper/internal/config"
	"github.com/alanyoungcy/polypaper/internal/domain"
	"github.com/alanyoungcy/polypaper/internal/estimator"
	"github.com/alanyoungcy/polypaper/internal/filter"
	"github.com/alanyoungcy/polypaper/internal/notify"
	"github.com/alanyoungcy/polypaper/internal/pipeline"
	"github.com/alanyoungcy/polypaper/internal/platform/binance"
	"github.com/alanyoungcy/polypaper/internal/platform/polymarket"
	"github.com/alanyoungcy/polypaper/internal/risk"
	"github.com/alanyoungcy/polypaper/internal/server/handler"
	"github.com/alanyoungcy/polypaper/internal/service"
	"github.com/alanyoungcy/polypaper/internal/signal"
	"github.com/alanyoungcy/polypaper/internal/store/file"
	"github.com/alanyoungcy/polypaper/internal/store/postgres"
)

// Dependencies bundles everything the application modes need. It is
// constructed by Wire and torn down by the returned cleanup function.
type Dependencies struct {
	// Pipeline stages
	Scraper     *pipeline.CandidateScraper
	Snapshotter *pipeline.Snapshotter
	Source      pipeline.CandidateSource
	Filter      *filter.Filter
	Provider    signal.Provider
	Scorer      *risk.Scorer

	// Persistence
	LedgerStore domain.LedgerStore
	AuditStore  domain.AuditStore

	// Caches
	LockManager    domain.LockManager
	DecisionStream domain.DecisionStream

	// Blob storage
	Archiver *s3blob.Archiver

	// Notifications
	Notifier *notify.Notifier

	// Health probes for the backing services that were wired
	Probes map[string]handler.Probe
}

// Orchestrator builds the pass orchestrator over the wired stages. trigger
// may be nil.
func (d *Dependencies) Orchestrator(cfg *config.Config, trigger <-chan struct{}, logger *slog.Logger) (*pipeline.Orchestrator, error) {
	oc := pipeline.Config{
		Source:   d.Source,
		Filter:   d.Filter,
		Provider: d.Provider,
		Scorer:   d.Scorer,
		Ledger:   d.LedgerStore,
		Writer:   service.LedgerConfig{PlaceholderPrice: cfg.Ledger.PlaceholderPrice},
		Locks:    d.LockManager,
		LockTTL:  cfg.Redis.LockTTL.Duration,
		Audit:    d.AuditStore,
		Stream:   d.DecisionStream,
		Trigger:  trigger,
	}
	// Typed nils would defeat the orchestrator's nil checks.
	if d.Notifier.Enabled() {
		oc.Notifier = d.Notifier
	}
	if d.Archiver != nil {
		oc.Archiver = d.Archiver
	}
	return pipeline.NewOrchestrator(oc, logger)
}

// Wire constructs all concrete dependency implementations from the given
// configuration and returns them together with a cleanup function that should
// be called on shutdown to release resources.
func Wire(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*Dependencies, func(), error) {
	var closers []func()
	cleanup := func() {
		for i := len(closers) - 1; i >= 0; i-- {
			closers[i]()
		}
	}
	fail := func(err error) (*Dependencies, func(), error) {
		cleanup()
		return nil, nil, err
	}

	deps := &Dependencies{Probes: make(map[string]handler.Probe)}

	// --- Core stages ---
	f, err := filter.New(FilterConfig(cfg.Filter))
	if err != nil {
		return fail(fmt.Errorf("wire: filter: %w", err))
	}
	deps.Filter = f

	riskCfg, err := RiskConfig(cfg.Risk)
	if err != nil {
		return fail(fmt.Errorf("wire: risk: %w", err))
	}
	scorer, err := risk.NewScorer(riskCfg)
	if err != nil {
		return fail(fmt.Errorf("wire: risk: %w", err))
	}
	deps.Scorer = scorer

	gamma := polymarket.NewGammaClient(cfg.Polymarket.GammaHost)
	deps.Scraper = pipeline.NewCandidateScraper(gamma, cfg.Polymarket.PageSize, cfg.Polymarket.MaxPages, logger)
	deps.Snapshotter = pipeline.NewSnapshotter(cfg.Source.SnapshotPath)
	if cfg.Source.Kind == "file" {
		deps.Source = deps.Snapshotter
	} else {
		deps.Source = deps.Scraper
	}

	// --- PostgreSQL ---
	if cfg.Supabase.Enabled {
		pgClient, err := postgres.New(ctx, postgres.ClientConfig{
			DSN:      cfg.Supabase.DSN,
			Host:     cfg.Supabase.Host,
			Port:     cfg.Supabase.Port,
			Database: cfg.Supabase.Database,
			User:     cfg.Supabase.User,
			Password: cfg.Supabase.Password,
			SSLMode:  cfg.Supabase.SSLMode,
			MaxConns: cfg.Supabase.PoolMaxConns,
			MinConns: cfg.Supabase.PoolMinConns,
		})
		if err != nil {
			return fail(fmt.Errorf("wire: postgres: %w", err))
		}
		closers = append(closers, pgClient.Close)

		if cfg.Supabase.RunMigrations {
			if err := pgClient.RunMigrations(ctx); err != nil {
				return fail(fmt.Errorf("wire: postgres migrations: %w", err))
			}
		}

		deps.Probes["postgres"] = pgClient.Ping

		pool := pgClient.Pool()
		deps.AuditStore = postgres.NewAuditStore(pool)
		if cfg.Ledger.Backend == "postgres" {
			deps.LedgerStore = postgres.NewLedgerStore(pool)
		}
	}

	// --- Redis ---
	var candles domain.CandleSource = binance.NewClient(cfg.Binance.BaseURL, cfg.Binance.Timeout.Duration)
	if cfg.Redis.Enabled {
		redisClient, err := redis.New(ctx, redis.ClientConfig{
			Addr:       cfg.Redis.Addr,
			Password:   cfg.Redis.Password,
			DB:         cfg.Redis.DB,
			PoolSize:   cfg.Redis.PoolSize,
			MaxRetries: cfg.Redis.MaxRetries,
			TLSEnabled: cfg.Redis.TLSEnabled,
		})
		if err != nil {
			return fail(fmt.Errorf("wire: redis: %w", err))
		}
		closers = append(closers, func() { _ = redisClient.Close() })
		deps.Probes["redis"] = redisClient.Ping

		if cfg.Redis.CandleTTL.Duration > 0 {
			candles = redis.NewCandleCache(redisClient, candles, cfg.Redis.CandleTTL.Duration, logger)
		}
		deps.LockManager = redis.NewLockManager(redisClient)
		deps.DecisionStream = redis.NewDecisionStream(redisClient)
	}

	// --- S3 blob storage ---
	if cfg.S3.Enabled {
		s3Client, err := s3blob.New(ctx, s3blob.ClientConfig{
			Endpoint:       cfg.S3.Endpoint,
			Region:         cfg.S3.Region,
			Bucket:         cfg.S3.Bucket,
			AccessKey:      cfg.S3.AccessKey,
			SecretKey:      cfg.S3.SecretKey,
			UseSSL:         cfg.S3.UseSSL,
			ForcePathStyle: cfg.S3.ForcePathStyle,
		})
		if err != nil {
			return fail(fmt.Errorf("wire: s3: %w", err))
		}
		if err := s3Client.Health(ctx); err != nil {
			return fail(fmt.Errorf("wire: s3: %w", err))
		}

		deps.Probes["s3"] = s3Client.Health

		writer := s3blob.NewWriter(s3Client)
		deps.Archiver = s3blob.NewArchiver(writer)
		if cfg.Ledger.Backend == "s3" {
			deps.LedgerStore = s3blob.NewLedgerStore(s3blob.NewReader(s3Client), writer, cfg.Ledger.Key)
		}
	}

	if cfg.Ledger.Backend == "file" {
		deps.LedgerStore = file.NewLedgerStore(cfg.Ledger.Path)
	}
	if deps.LedgerStore == nil {
		return fail(fmt.Errorf("wire: ledger backend %q is not available", cfg.Ledger.Backend))
	}

	// --- Score providers ---
	technical := signal.NewTechnical(candles, TechnicalConfig(cfg.Signal, cfg.Binance), logger)
	switch cfg.Estimator.Kind {
	case "http":
		deps.Provider = signal.NewChain(technical, estimator.NewClient(cfg.Estimator.URL, cfg.Estimator.Timeout.Duration))
	case "random":
		deps.Provider = signal.NewChain(technical, signal.NewRandom(cfg.Estimator.Seed))
	default:
		deps.Provider = signal.NewChain(technical)
	}

	// --- Notifications ---
	var senders []notify.Sender
	if cfg.Notify.TelegramToken != "" && cfg.Notify.TelegramChatID != "" {
		senders = append(senders, notify.NewTelegramSender(
			cfg.Notify.TelegramToken,
			cfg.Notify.TelegramChatID,
		))
	}
	if cfg.Notify.DiscordWebhookURL != "" {
		senders = append(senders, notify.NewDiscordSender(cfg.Notify.DiscordWebhookURL))
	}
	deps.Notifier = notify.NewNotifier(senders, cfg.Notify.Events, logger)

	return deps, cleanup, nil
}

// FilterConfig maps the [filter] section onto filter.Config. An empty ban
// list keeps the built-in one.
func FilterConfig(c config.FilterConfig) filter.Config {
	fc := filter.DefaultConfig()
	fc.MinLiquidity = c.MinLiquidity
	fc.MaxHorizonDays = c.MaxHorizonDays
	fc.PriceFloor = c.PriceFloor
	fc.PriceCeiling = c.PriceCeiling
	if len(c.BanKeywords) > 0 {
		fc.BanKeywords = c.BanKeywords
	}
	return fc
}

// RiskConfig maps the [risk] section onto risk.Config. Weight keys must name
// known dimensions.
func RiskConfig(c config.RiskConfig) (risk.Config, error) {
	rc := risk.DefaultConfig()
	rc.VetoFloor = c.VetoFloor
	rc.Conviction = c.Conviction
	rc.Standard = c.Standard
	rc.Minimum = c.Minimum
	if len(c.Weights) == 0 {
		return rc, nil
	}
	w := make(domain.WeightTable, len(c.Weights))
	for name, weight := range c.Weights {
		d := domain.Dimension(strings.ToLower(strings.TrimSpace(name)))
		if !d.Known() {
			return risk.Config{}, fmt.Errorf("%w: unknown dimension %q", domain.ErrInvalidWeights, name)
		}
		w[d] = weight
	}
	rc.Weights = w
	return rc, nil
}

// TechnicalConfig maps the [signal] and [binance] sections onto the RSI
// provider configuration. An empty symbol table keeps the built-in one.
func TechnicalConfig(s config.SignalConfig, b config.BinanceConfig) signal.TechnicalConfig {
	tc := signal.DefaultTechnicalConfig()
	tc.Interval = b.Interval
	tc.Limit = b.Limit
	tc.Concurrency = b.Concurrency
	tc.Period = s.RSIPeriod
	tc.Thresholds = signal.Thresholds{Oversold: s.Oversold, Overbought: s.Overbought}
	if len(s.Symbols) > 0 {
		table := make(signal.SymbolTable, len(s.Symbols))
		for k, v := range s.Symbols {
			table[strings.ToLower(k)] = strings.ToUpper(v)
		}
		tc.Symbols = table
	}
	return tc
}
