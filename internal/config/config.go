// Package config defines the top-level configuration for the paper-trading
// pipeline and provides validation helpers.
package config

import (
	"fmt"
	"math"
	"strings"
	"time"
)

// Config is the root configuration structure. Fields are populated from a TOML
// file and then optionally overridden by POLYPAPER_* environment variables.
type Config struct {
	Polymarket PolymarketConfig `toml:"polymarket"`
	Binance    BinanceConfig    `toml:"binance"`
	Filter     FilterConfig     `toml:"filter"`
	Signal     SignalConfig     `toml:"signal"`
	Risk       RiskConfig       `toml:"risk"`
	Estimator  EstimatorConfig  `toml:"estimator"`
	Ledger     LedgerConfig     `toml:"ledger"`
	Source     SourceConfig     `toml:"source"`
	Supabase   SupabaseConfig   `toml:"supabase"`
	Redis      RedisConfig      `toml:"redis"`
	S3         S3Config         `toml:"s3"`
	Notify     NotifyConfig     `toml:"notify"`
	Server     ServerConfig     `toml:"server"`
	Mode       string           `toml:"mode"`
	Interval   duration         `toml:"interval"`
	LogLevel   string           `toml:"log_level"`
}

// PolymarketConfig holds the Gamma events endpoint and paging limits.
type PolymarketConfig struct {
	GammaHost string `toml:"gamma_host"`
	PageSize  int    `toml:"page_size"`
	MaxPages  int    `toml:"max_pages"`
}

// BinanceConfig holds the klines endpoint used as the candle source.
type BinanceConfig struct {
	BaseURL     string   `toml:"base_url"`
	Interval    string   `toml:"interval"`
	Limit       int      `toml:"limit"`
	Timeout     duration `toml:"timeout"`
	Concurrency int      `toml:"concurrency"`
}

// FilterConfig holds the market filter thresholds.
type FilterConfig struct {
	MinLiquidity   float64  `toml:"min_liquidity"`
	MaxHorizonDays int      `toml:"max_horizon_days"`
	PriceFloor     float64  `toml:"price_floor"`
	PriceCeiling   float64  `toml:"price_ceiling"`
	BanKeywords    []string `toml:"ban_keywords"`
}

// SignalConfig holds RSI parameters and the keyword to trading-pair table.
type SignalConfig struct {
	RSIPeriod  int               `toml:"rsi_period"`
	Oversold   float64           `toml:"oversold"`
	Overbought float64           `toml:"overbought"`
	Symbols    map[string]string `toml:"symbols"`
}

// RiskConfig holds the scorer thresholds. Weights, when set, replace the
// built-in weight table and must cover every dimension and sum to 1.0; that
// check happens when the scorer is built.
type RiskConfig struct {
	VetoFloor  float64            `toml:"veto_floor"`
	Conviction float64            `toml:"conviction"`
	Standard   float64            `toml:"standard"`
	Minimum    float64            `toml:"minimum"`
	Weights    map[string]float64 `toml:"weights"`
}

// EstimatorConfig selects the score provider for markets the technical path
// cannot handle: "none", "random" (seeded mock), or "http".
type EstimatorConfig struct {
	Kind    string   `toml:"kind"`
	URL     string   `toml:"url"`
	Seed    uint64   `toml:"seed"`
	Timeout duration `toml:"timeout"`
}

// LedgerConfig selects where the paper-trade ledger is persisted.
type LedgerConfig struct {
	Backend          string  `toml:"backend"`
	Path             string  `toml:"path"`
	Key              string  `toml:"key"`
	PlaceholderPrice float64 `toml:"placeholder_price"`
}

// SourceConfig selects where candidates come from: the live Gamma API or the
// snapshot written by fetch mode.
type SourceConfig struct {
	Kind         string `toml:"kind"`
	SnapshotPath string `toml:"snapshot_path"`
}

// SupabaseConfig holds PostgreSQL / Supabase connection parameters.
type SupabaseConfig struct {
	Enabled       bool   `toml:"enabled"`
	DSN           string `toml:"dsn"`
	Host          string `toml:"host"`
	Port          int    `toml:"port"`
	Database      string `toml:"database"`
	User          string `toml:"user"`
	Password      string `toml:"password"`
	SSLMode       string `toml:"ssl_mode"`
	PoolMaxConns  int    `toml:"pool_max_conns"`
	PoolMinConns  int    `toml:"pool_min_conns"`
	RunMigrations bool   `toml:"run_migrations"`
}

// RedisConfig holds Redis connection parameters.
type RedisConfig struct {
	Enabled    bool     `toml:"enabled"`
	Addr       string   `toml:"addr"`
	Password   string   `toml:"password"`
	DB         int      `toml:"db"`
	PoolSize   int      `toml:"pool_size"`
	MaxRetries int      `toml:"max_retries"`
	TLSEnabled bool     `toml:"tls_enabled"`
	CandleTTL  duration `toml:"candle_ttl"`
	LockTTL    duration `toml:"lock_ttl"`
}

// S3Config holds S3-compatible object storage parameters.
type S3Config struct {
	Enabled        bool   `toml:"enabled"`
	Endpoint       string `toml:"endpoint"`
	Region         string `toml:"region"`
	Bucket         string `toml:"bucket"`
	AccessKey      string `toml:"access_key"`
	SecretKey      string `toml:"secret_key"`
	UseSSL         bool   `toml:"use_ssl"`
	ForcePathStyle bool   `toml:"force_path_style"`
}

// NotifyConfig holds notification channel credentials.
type NotifyConfig struct {
	TelegramToken     string   `toml:"telegram_token"`
	TelegramChatID    string   `toml:"telegram_chat_id"`
	DiscordWebhookURL string   `toml:"discord_webhook_url"`
	Events            []string `toml:"events"`
}

// ServerConfig controls the HTTP status API (health, status, ledger views,
// /metrics, pass trigger) served in loop mode.
type ServerConfig struct {
	Enabled     bool     `toml:"enabled"`
	Addr        string   `toml:"addr"`
	APIKey      string   `toml:"api_key"`
	CORSOrigins []string `toml:"cors_origins"`
}

// duration is a wrapper around time.Duration that supports TOML string decoding
// (e.g. "5m", "30s").
type duration struct {
	time.Duration
}

// UnmarshalText implements encoding.TextUnmarshaler so the TOML decoder can
// parse duration strings like "5m" or "30s".
func (d *duration) UnmarshalText(text []byte) error {
	var err error
	d.Duration, err = time.ParseDuration(string(text))
	return err
}

// MarshalText implements encoding.TextMarshaler for round-trip encoding.
func (d duration) MarshalText() ([]byte, error) {
	return []byte(d.Duration.String()), nil
}

// Defaults returns a Config populated with reasonable default values.
// These match the values in config.example.toml.
func Defaults() Config {
	return Config{
		Polymarket: PolymarketConfig{
			GammaHost: "https://gamma-api.polymarket.com",
			PageSize:  100,
			MaxPages:  5,
		},
		Binance: BinanceConfig{
			BaseURL:     "https://api.binance.com",
			Interval:    "1h",
			Limit:       20,
			Timeout:     duration{10 * time.Second},
			Concurrency: 4,
		},
		Filter: FilterConfig{
			MinLiquidity:   10000,
			MaxHorizonDays: 45,
			PriceFloor:     0.02,
			PriceCeiling:   0.98,
		},
		Signal: SignalConfig{
			RSIPeriod:  14,
			Oversold:   30,
			Overbought: 70,
		},
		Risk: RiskConfig{
			VetoFloor:  4,
			Conviction: 90,
			Standard:   85,
			Minimum:    80,
		},
		Estimator: EstimatorConfig{
			Kind:    "none",
			Timeout: duration{30 * time.Second},
		},
		Ledger: LedgerConfig{
			Backend:          "file",
			Path:             "data/pnl.json",
			Key:              "ledger/pnl.json",
			PlaceholderPrice: 0.5,
		},
		Source: SourceConfig{
			Kind:         "gamma",
			SnapshotPath: "data/markets.json",
		},
		Supabase: SupabaseConfig{
			Host:          "localhost",
			Port:          5432,
			Database:      "postgres",
			User:          "postgres",
			SSLMode:       "disable",
			PoolMaxConns:  10,
			PoolMinConns:  2,
			RunMigrations: true,
		},
		Redis: RedisConfig{
			Addr:       "localhost:6379",
			PoolSize:   20,
			MaxRetries: 3,
			CandleTTL:  duration{5 * time.Minute},
			LockTTL:    duration{10 * time.Minute},
		},
		S3: S3Config{
			Endpoint:       "http://localhost:9000",
			Region:         "us-east-1",
			Bucket:         "polypaper-data",
			ForcePathStyle: true,
		},
		Notify: NotifyConfig{
			Events: []string{"paper_trade"},
		},
		Server: ServerConfig{
			Enabled: true,
			Addr:    ":8000",
		},
		Mode:     "pass",
		Interval: duration{15 * time.Minute},
		LogLevel: "info",
	}
}

// PassInterval is the delay between passes in loop mode.
func (c *Config) PassInterval() time.Duration {
	return c.Interval.Duration
}

var validModes = map[string]bool{
	"pass":  true,
	"loop":  true,
	"fetch": true,
}

var validLogLevels = map[string]bool{
	"debug": true,
	"info":  true,
	"warn":  true,
	"error": true,
}

var (
	validEstimators = map[string]bool{"none": true, "random": true, "http": true}
	validBackends   = map[string]bool{"file": true, "postgres": true, "s3": true}
	validSources    = map[string]bool{"gamma": true, "file": true}
)

// Validate checks Config for obviously invalid or missing values and returns a
// combined error describing every problem found.
func (c *Config) Validate() error {
	var errs []string

	if !validModes[strings.ToLower(c.Mode)] {
		errs = append(errs, fmt.Sprintf("unknown mode %q (valid: pass, loop, fetch)", c.Mode))
	}
	if !validLogLevels[strings.ToLower(c.LogLevel)] {
		errs = append(errs, fmt.Sprintf("unknown log_level %q (valid: debug, info, warn, error)", c.LogLevel))
	}
	if strings.EqualFold(c.Mode, "loop") && c.Interval.Duration <= 0 {
		errs = append(errs, "interval must be > 0 in loop mode")
	}

	// Polymarket
	if c.Polymarket.GammaHost == "" {
		errs = append(errs, "polymarket: gamma_host must not be empty")
	}
	if c.Polymarket.PageSize < 1 {
		errs = append(errs, "polymarket: page_size must be >= 1")
	}
	if c.Polymarket.MaxPages < 0 {
		errs = append(errs, "polymarket: max_pages must be >= 0")
	}

	// Binance
	if c.Binance.BaseURL == "" {
		errs = append(errs, "binance: base_url must not be empty")
	}
	if c.Binance.Interval == "" {
		errs = append(errs, "binance: interval must not be empty")
	}
	if c.Binance.Limit < 1 || c.Binance.Limit > 1000 {
		errs = append(errs, fmt.Sprintf("binance: limit must be 1-1000, got %d", c.Binance.Limit))
	}

	// Filter
	if c.Filter.MinLiquidity < 0 {
		errs = append(errs, "filter: min_liquidity must be >= 0")
	}
	if c.Filter.MaxHorizonDays < 1 {
		errs = append(errs, "filter: max_horizon_days must be >= 1")
	}
	if c.Filter.PriceFloor < 0 || c.Filter.PriceCeiling > 1 || c.Filter.PriceFloor >= c.Filter.PriceCeiling {
		errs = append(errs, fmt.Sprintf("filter: need 0 <= price_floor < price_ceiling <= 1, got %g/%g",
			c.Filter.PriceFloor, c.Filter.PriceCeiling))
	}

	// Signal
	if c.Signal.RSIPeriod < 1 {
		errs = append(errs, "signal: rsi_period must be >= 1")
	}
	if c.Signal.Oversold < 0 || c.Signal.Overbought > 100 || c.Signal.Oversold >= c.Signal.Overbought {
		errs = append(errs, fmt.Sprintf("signal: need 0 <= oversold < overbought <= 100, got %g/%g",
			c.Signal.Oversold, c.Signal.Overbought))
	}
	if c.Binance.Limit < c.Signal.RSIPeriod+1 {
		errs = append(errs, fmt.Sprintf("binance: limit %d cannot cover rsi_period %d", c.Binance.Limit, c.Signal.RSIPeriod))
	}

	// Risk
	if !(c.Risk.Minimum <= c.Risk.Standard && c.Risk.Standard <= c.Risk.Conviction) {
		errs = append(errs, "risk: thresholds must satisfy minimum <= standard <= conviction")
	}
	if c.Risk.VetoFloor < 0 || c.Risk.VetoFloor > 10 {
		errs = append(errs, "risk: veto_floor must be within 0-10")
	}
	if len(c.Risk.Weights) > 0 {
		var sum float64
		for _, w := range c.Risk.Weights {
			sum += w
		}
		if math.Abs(sum-1) > 1e-9 {
			errs = append(errs, fmt.Sprintf("risk: weights must sum to 1.0, got %g", sum))
		}
	}

	// Estimator
	if !validEstimators[c.Estimator.Kind] {
		errs = append(errs, fmt.Sprintf("estimator: unknown kind %q (valid: none, random, http)", c.Estimator.Kind))
	}
	if c.Estimator.Kind == "http" && c.Estimator.URL == "" {
		errs = append(errs, "estimator: url is required for kind http")
	}

	// Ledger
	if !validBackends[c.Ledger.Backend] {
		errs = append(errs, fmt.Sprintf("ledger: unknown backend %q (valid: file, postgres, s3)", c.Ledger.Backend))
	}
	switch c.Ledger.Backend {
	case "file":
		if c.Ledger.Path == "" {
			errs = append(errs, "ledger: path is required for backend file")
		}
	case "postgres":
		if !c.Supabase.Enabled {
			errs = append(errs, "ledger: backend postgres requires supabase.enabled")
		}
	case "s3":
		if !c.S3.Enabled {
			errs = append(errs, "ledger: backend s3 requires s3.enabled")
		}
		if c.Ledger.Key == "" {
			errs = append(errs, "ledger: key is required for backend s3")
		}
	}
	if c.Ledger.PlaceholderPrice <= 0 || c.Ledger.PlaceholderPrice >= 1 {
		errs = append(errs, "ledger: placeholder_price must be within (0, 1)")
	}

	// Source
	if !validSources[c.Source.Kind] {
		errs = append(errs, fmt.Sprintf("source: unknown kind %q (valid: gamma, file)", c.Source.Kind))
	}
	if c.Source.SnapshotPath == "" && (c.Source.Kind == "file" || strings.EqualFold(c.Mode, "fetch")) {
		errs = append(errs, "source: snapshot_path must not be empty")
	}

	// Supabase
	if c.Supabase.Enabled {
		if strings.TrimSpace(c.Supabase.DSN) == "" {
			if c.Supabase.Host == "" {
				errs = append(errs, "supabase: host must not be empty (or set supabase.dsn)")
			}
			if c.Supabase.Port <= 0 || c.Supabase.Port > 65535 {
				errs = append(errs, fmt.Sprintf("supabase: port must be 1-65535, got %d", c.Supabase.Port))
			}
			if c.Supabase.Database == "" {
				errs = append(errs, "supabase: database must not be empty")
			}
		}
		if c.Supabase.PoolMaxConns < 1 {
			errs = append(errs, "supabase: pool_max_conns must be >= 1")
		}
		if c.Supabase.PoolMinConns < 0 {
			errs = append(errs, "supabase: pool_min_conns must be >= 0")
		}
		if c.Supabase.PoolMinConns > c.Supabase.PoolMaxConns {
			errs = append(errs, "supabase: pool_min_conns must not exceed pool_max_conns")
		}
	}

	// Redis
	if c.Redis.Enabled {
		if c.Redis.Addr == "" {
			errs = append(errs, "redis: addr must not be empty")
		}
		if c.Redis.PoolSize < 1 {
			errs = append(errs, "redis: pool_size must be >= 1")
		}
	}

	// S3
	if c.S3.Enabled {
		if c.S3.Bucket == "" {
			errs = append(errs, "s3: bucket must not be empty")
		}
		if c.S3.Region == "" {
			errs = append(errs, "s3: region must not be empty")
		}
	}

	// Server
	if c.Server.Enabled && c.Server.Addr == "" {
		errs = append(errs, "server: addr must not be empty when enabled")
	}

	if len(errs) > 0 {
		return fmt.Errorf("config validation failed:\n  - %s", strings.Join(errs, "\n  - "))
	}
	return nil
}
