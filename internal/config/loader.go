package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"time"

	"go.uber.org/zap"
	"gopkg.in/yaml.v3"
)

// ErrInvalid wraps every validation failure.
var ErrInvalid = errors.New("invalid config")

// #region load
// Load builds the configuration: defaults, then the YAML file at path (skipped
// when path is empty), then environment overrides. The result is validated.
func Load(path string) (*Config, error) {
	cfg := DefaultConfig()

	if path != "" {
		if err := loadFromFile(cfg, path); err != nil {
			return nil, err
		}
	}

	loadFromEnv(cfg)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// loadFromFile overlays a YAML file. ${VAR} references are expanded first.
func loadFromFile(cfg *Config, path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config %s: %w", path, err)
	}
	expanded := os.ExpandEnv(string(data))
	if err := yaml.Unmarshal([]byte(expanded), cfg); err != nil {
		return fmt.Errorf("parse config %s: %w", path, err)
	}
	return nil
}
// #endregion load

// #region env
// loadFromEnv applies environment overrides. Feature switches accept any
// strconv.ParseBool form, so ARBITER_FOCUS_LATCH=false is the latch kill
// switch.
func loadFromEnv(cfg *Config) {
	cfg.Features.FocusLatch = envBool("ARBITER_FOCUS_LATCH", cfg.Features.FocusLatch)
	cfg.Features.SemanticAnswers = envBool("ARBITER_SEMANTIC_ANSWERS", cfg.Features.SemanticAnswers)
	cfg.Features.LLMFallback = envBool("ARBITER_LLM_FALLBACK", cfg.Features.LLMFallback)

	cfg.Storage.DBPath = envOr("ARBITER_DB", cfg.Storage.DBPath)
	cfg.Storage.RedisURL = envOr("REDIS_URL", cfg.Storage.RedisURL)
	cfg.Storage.SessionTTL = envDuration("ARBITER_SESSION_TTL", cfg.Storage.SessionTTL)
	cfg.Storage.MeiliURL = envOr("MEILI_URL", cfg.Storage.MeiliURL)
	cfg.Storage.MeiliKey = envOr("MEILI_MASTER_KEY", cfg.Storage.MeiliKey)
	cfg.Storage.DatabaseURL = envOr("DATABASE_URL", cfg.Storage.DatabaseURL)

	cfg.Codec.Addr = envOr("CODEC_ADDR", cfg.Codec.Addr)

	cfg.Log.Level = envOr("ARBITER_LOG_LEVEL", cfg.Log.Level)
	cfg.Log.Development = envBool("ARBITER_LOG_DEV", cfg.Log.Development)
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envBool(key string, fallback bool) bool {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return fallback
	}
	return b
}

func envDuration(key string, fallback time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return fallback
	}
	return d
}
// #endregion env

// #region validate
// Validate checks threshold ordering and that every window and bound is
// usable. All problems are reported together.
func (c *Config) Validate() error {
	var errs []error
	bad := func(format string, args ...any) {
		errs = append(errs, fmt.Errorf("%w: "+format, append([]any{ErrInvalid}, args...)...))
	}

	th := c.Thresholds
	if !(th.Confirm > 0 && th.Confirm <= th.Execute && th.Execute <= 1) {
		bad("thresholds must satisfy 0 < confirm (%.2f) <= execute (%.2f) <= 1", th.Confirm, th.Execute)
	}
	if th.Margin < 0 || th.Margin > 1 {
		bad("thresholds.margin %.2f outside [0, 1]", th.Margin)
	}

	if c.Trace.DedupeWindow <= 0 {
		bad("trace.dedupe_window must be positive")
	}
	if c.Trace.FreshnessIdentityWindow < 0 {
		bad("trace.freshness_identity_window must not be negative")
	}
	if c.Trace.MaxEntries <= 0 || c.Trace.MaxHistory <= 0 {
		bad("trace.max_entries and trace.max_history must be positive")
	}

	if c.Latch.PendingExpiryTurns < 1 {
		bad("latch.pending_expiry_turns must be at least 1")
	}
	if c.Clarification.MaxTurns < 1 {
		bad("clarification.max_turns must be at least 1")
	}
	if c.Clarification.TTL <= 0 {
		bad("clarification.ttl must be positive")
	}
	if c.Resolver.CausalMatchWindow <= 0 {
		bad("resolver.causal_match_window must be positive")
	}
	if c.Resolver.MaxSummaryItems < 1 {
		bad("resolver.max_summary_items must be at least 1")
	}
	if c.Snapshot.FreshnessThreshold <= 0 {
		bad("snapshot.freshness_threshold must be positive")
	}

	if c.Features.LLMFallback && c.Codec.Addr == "" {
		bad("features.llm_fallback requires codec.addr")
	}
	if _, err := zap.ParseAtomicLevel(c.Log.Level); err != nil {
		bad("log.level %q: %v", c.Log.Level, err)
	}

	return errors.Join(errs...)
}
// #endregion validate
