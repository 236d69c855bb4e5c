package config

// RedactedConfig returns a copy of cfg with sensitive fields replaced by the
// redaction placeholder "***". Use this when logging or printing the active
// configuration so secrets are never accidentally exposed.
func RedactedConfig(cfg *Config) Config {
	out := *cfg

	redact(&out.Supabase.DSN)
	redact(&out.Supabase.Password)
	redact(&out.Redis.Password)
	redact(&out.S3.AccessKey)
	redact(&out.S3.SecretKey)
	redact(&out.Notify.TelegramToken)
	redact(&out.Notify.DiscordWebhookURL)
	redact(&out.Server.APIKey)

	// Copy slices and maps so callers cannot mutate the original through the
	// redacted copy.
	out.Filter.BanKeywords = cloneStrings(cfg.Filter.BanKeywords)
	out.Notify.Events = cloneStrings(cfg.Notify.Events)
	out.Server.CORSOrigins = cloneStrings(cfg.Server.CORSOrigins)
	if cfg.Signal.Symbols != nil {
		out.Signal.Symbols = make(map[string]string, len(cfg.Signal.Symbols))
		for k, v := range cfg.Signal.Symbols {
			out.Signal.Symbols[k] = v
		}
	}
	if cfg.Risk.Weights != nil {
		out.Risk.Weights = make(map[string]float64, len(cfg.Risk.Weights))
		for k, v := range cfg.Risk.Weights {
			out.Risk.Weights[k] = v
		}
	}

	return out
}

const redacted = "***"

// redact replaces a non-empty string with the redacted placeholder.
func redact(s *string) {
	if *s != "" {
		*s = redacted
	}
}

func cloneStrings(in []string) []string {
	if in == nil {
		return nil
	}
	out := make([]string, len(in))
	copy(out, in)
	return out
}
