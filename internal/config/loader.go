package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/joho/godotenv"
)

// Load reads a TOML configuration file at path, merges it on top of the
// built-in defaults, applies POLYPAPER_* environment variable overrides, and
// returns the final Config. The returned Config has NOT been validated; the
// caller should invoke Config.Validate() after Load.
func Load(path string) (*Config, error) {
	cfg := Defaults()

	if _, err := toml.DecodeFile(path, &cfg); err != nil {
		return nil, fmt.Errorf("config: decode %s: %w", path, err)
	}

	// Load .env file if present (silently ignore if missing).
	_ = godotenv.Load()

	applyEnvOverrides(&cfg)

	return &cfg, nil
}

// applyEnvOverrides reads well-known POLYPAPER_* environment variables and
// overwrites the corresponding Config fields when a variable is set (i.e. not
// empty). This lets operators inject secrets at deploy time without touching
// the TOML file.
func applyEnvOverrides(cfg *Config) {
	// ── Polymarket ──
	setStr(&cfg.Polymarket.GammaHost, "POLYPAPER_POLYMARKET_GAMMA_HOST")
	setInt(&cfg.Polymarket.PageSize, "POLYPAPER_POLYMARKET_PAGE_SIZE")
	setInt(&cfg.Polymarket.MaxPages, "POLYPAPER_POLYMARKET_MAX_PAGES")

	// ── Binance ──
	setStr(&cfg.Binance.BaseURL, "POLYPAPER_BINANCE_BASE_URL")
	setStr(&cfg.Binance.Interval, "POLYPAPER_BINANCE_INTERVAL")
	setInt(&cfg.Binance.Limit, "POLYPAPER_BINANCE_LIMIT")
	setDuration(&cfg.Binance.Timeout, "POLYPAPER_BINANCE_TIMEOUT")
	setInt(&cfg.Binance.Concurrency, "POLYPAPER_BINANCE_CONCURRENCY")

	// ── Filter ──
	setFloat64(&cfg.Filter.MinLiquidity, "POLYPAPER_FILTER_MIN_LIQUIDITY")
	setInt(&cfg.Filter.MaxHorizonDays, "POLYPAPER_FILTER_MAX_HORIZON_DAYS")
	setFloat64(&cfg.Filter.PriceFloor, "POLYPAPER_FILTER_PRICE_FLOOR")
	setFloat64(&cfg.Filter.PriceCeiling, "POLYPAPER_FILTER_PRICE_CEILING")
	setStringSlice(&cfg.Filter.BanKeywords, "POLYPAPER_FILTER_BAN_KEYWORDS")

	// ── Signal ──
	setInt(&cfg.Signal.RSIPeriod, "POLYPAPER_SIGNAL_RSI_PERIOD")
	setFloat64(&cfg.Signal.Oversold, "POLYPAPER_SIGNAL_OVERSOLD")
	setFloat64(&cfg.Signal.Overbought, "POLYPAPER_SIGNAL_OVERBOUGHT")

	// ── Risk ──
	setFloat64(&cfg.Risk.VetoFloor, "POLYPAPER_RISK_VETO_FLOOR")
	setFloat64(&cfg.Risk.Conviction, "POLYPAPER_RISK_CONVICTION")
	setFloat64(&cfg.Risk.Standard, "POLYPAPER_RISK_STANDARD")
	setFloat64(&cfg.Risk.Minimum, "POLYPAPER_RISK_MINIMUM")

	// ── Estimator ──
	setStr(&cfg.Estimator.Kind, "POLYPAPER_ESTIMATOR_KIND")
	setStr(&cfg.Estimator.URL, "POLYPAPER_ESTIMATOR_URL")
	setUint64(&cfg.Estimator.Seed, "POLYPAPER_ESTIMATOR_SEED")
	setDuration(&cfg.Estimator.Timeout, "POLYPAPER_ESTIMATOR_TIMEOUT")

	// ── Ledger ──
	setStr(&cfg.Ledger.Backend, "POLYPAPER_LEDGER_BACKEND")
	setStr(&cfg.Ledger.Path, "POLYPAPER_LEDGER_PATH")
	setStr(&cfg.Ledger.Key, "POLYPAPER_LEDGER_KEY")
	setFloat64(&cfg.Ledger.PlaceholderPrice, "POLYPAPER_LEDGER_PLACEHOLDER_PRICE")

	// ── Source ──
	setStr(&cfg.Source.Kind, "POLYPAPER_SOURCE_KIND")
	setStr(&cfg.Source.SnapshotPath, "POLYPAPER_SOURCE_SNAPSHOT_PATH")

	// ── Supabase ──
	setBool(&cfg.Supabase.Enabled, "POLYPAPER_SUPABASE_ENABLED")
	setStr(&cfg.Supabase.DSN, "POLYPAPER_SUPABASE_DSN")
	setStr(&cfg.Supabase.DSN, "POLYPAPER_SUPABASE_URL") // compatibility alias
	setStr(&cfg.Supabase.Host, "POLYPAPER_SUPABASE_HOST")
	setInt(&cfg.Supabase.Port, "POLYPAPER_SUPABASE_PORT")
	setStr(&cfg.Supabase.Database, "POLYPAPER_SUPABASE_DATABASE")
	setStr(&cfg.Supabase.User, "POLYPAPER_SUPABASE_USER")
	setStr(&cfg.Supabase.Password, "POLYPAPER_SUPABASE_PASSWORD")
	setStr(&cfg.Supabase.SSLMode, "POLYPAPER_SUPABASE_SSL_MODE")
	setInt(&cfg.Supabase.PoolMaxConns, "POLYPAPER_SUPABASE_POOL_MAX_CONNS")
	setInt(&cfg.Supabase.PoolMinConns, "POLYPAPER_SUPABASE_POOL_MIN_CONNS")
	setBool(&cfg.Supabase.RunMigrations, "POLYPAPER_SUPABASE_RUN_MIGRATIONS")

	// ── Redis ──
	setBool(&cfg.Redis.Enabled, "POLYPAPER_REDIS_ENABLED")
	setStr(&cfg.Redis.Addr, "POLYPAPER_REDIS_ADDR")
	setStr(&cfg.Redis.Password, "POLYPAPER_REDIS_PASSWORD")
	setInt(&cfg.Redis.DB, "POLYPAPER_REDIS_DB")
	setInt(&cfg.Redis.PoolSize, "POLYPAPER_REDIS_POOL_SIZE")
	setInt(&cfg.Redis.MaxRetries, "POLYPAPER_REDIS_MAX_RETRIES")
	setBool(&cfg.Redis.TLSEnabled, "POLYPAPER_REDIS_TLS_ENABLED")
	setDuration(&cfg.Redis.CandleTTL, "POLYPAPER_REDIS_CANDLE_TTL")
	setDuration(&cfg.Redis.LockTTL, "POLYPAPER_REDIS_LOCK_TTL")

	// ── S3 ──
	setBool(&cfg.S3.Enabled, "POLYPAPER_S3_ENABLED")
	setStr(&cfg.S3.Endpoint, "POLYPAPER_S3_ENDPOINT")
	setStr(&cfg.S3.Region, "POLYPAPER_S3_REGION")
	setStr(&cfg.S3.Bucket, "POLYPAPER_S3_BUCKET")
	setStr(&cfg.S3.AccessKey, "POLYPAPER_S3_ACCESS_KEY")
	setStr(&cfg.S3.SecretKey, "POLYPAPER_S3_SECRET_KEY")
	setBool(&cfg.S3.UseSSL, "POLYPAPER_S3_USE_SSL")
	setBool(&cfg.S3.ForcePathStyle, "POLYPAPER_S3_FORCE_PATH_STYLE")

	// ── Notify ──
	setStr(&cfg.Notify.TelegramToken, "POLYPAPER_NOTIFY_TELEGRAM_TOKEN")
	setStr(&cfg.Notify.TelegramChatID, "POLYPAPER_NOTIFY_TELEGRAM_CHAT_ID")
	setStr(&cfg.Notify.DiscordWebhookURL, "POLYPAPER_NOTIFY_DISCORD_WEBHOOK_URL")
	setStringSlice(&cfg.Notify.Events, "POLYPAPER_NOTIFY_EVENTS")

	// ── Server ──
	setBool(&cfg.Server.Enabled, "POLYPAPER_SERVER_ENABLED")
	setStr(&cfg.Server.Addr, "POLYPAPER_SERVER_ADDR")
	setStr(&cfg.Server.APIKey, "POLYPAPER_SERVER_API_KEY")
	setStringSlice(&cfg.Server.CORSOrigins, "POLYPAPER_SERVER_CORS_ORIGINS")

	// ── Top-level ──
	setStr(&cfg.Mode, "POLYPAPER_MODE")
	setDuration(&cfg.Interval, "POLYPAPER_INTERVAL")
	setStr(&cfg.LogLevel, "POLYPAPER_LOG_LEVEL")
}

// ---------------------------------------------------------------------------
// Typed env-var helpers. Each only mutates the target when the environment
// variable is present and non-empty.
// ---------------------------------------------------------------------------

func setStr(dst *string, key string) {
	if v := os.Getenv(key); v != "" {
		*dst = v
	}
}

func setInt(dst *int, key string) {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			*dst = n
		}
	}
}

func setUint64(dst *uint64, key string) {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.ParseUint(v, 10, 64); err == nil {
			*dst = n
		}
	}
}

func setFloat64(dst *float64, key string) {
	if v := os.Getenv(key); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			*dst = f
		}
	}
}

func setBool(dst *bool, key string) {
	if v := os.Getenv(key); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			*dst = b
		}
	}
}

func setDuration(dst *duration, key string) {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			dst.Duration = d
		}
	}
}

func setStringSlice(dst *[]string, key string) {
	if v := os.Getenv(key); v != "" {
		parts := strings.Split(v, ",")
		cleaned := make([]string, 0, len(parts))
		for _, p := range parts {
			p = strings.TrimSpace(p)
			if p != "" {
				cleaned = append(cleaned, p)
			}
		}
		if len(cleaned) > 0 {
			*dst = cleaned
		}
	}
}
