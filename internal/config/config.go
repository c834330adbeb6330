// Package config loads arbiter settings: defaults, then an optional YAML file,
// then environment overrides.
package config

import (
	"time"

	"github.com/danielpatrickdp/intent-arbiter/go-controller/internal/clarify"
	"github.com/danielpatrickdp/intent-arbiter/go-controller/internal/codec"
	"github.com/danielpatrickdp/intent-arbiter/go-controller/internal/latch"
	"github.com/danielpatrickdp/intent-arbiter/go-controller/internal/nouns"
	"github.com/danielpatrickdp/intent-arbiter/go-controller/internal/orchestrator"
	"github.com/danielpatrickdp/intent-arbiter/go-controller/internal/resolver"
	"github.com/danielpatrickdp/intent-arbiter/go-controller/internal/retrieval"
	"github.com/danielpatrickdp/intent-arbiter/go-controller/internal/session"
	"github.com/danielpatrickdp/intent-arbiter/go-controller/internal/snapshot"
	"github.com/danielpatrickdp/intent-arbiter/go-controller/internal/trace"
)

// #region config
// Config is the full arbiter configuration.
type Config struct {
	Features      orchestrator.Features `yaml:"features"`
	Thresholds    clarify.Thresholds    `yaml:"thresholds"`
	Trace         trace.Config          `yaml:"trace"`
	Latch         LatchConfig           `yaml:"latch"`
	Clarification ClarificationConfig   `yaml:"clarification"`
	Resolver      resolver.Config       `yaml:"resolver"`
	Snapshot      SnapshotConfig        `yaml:"snapshot"`
	Storage       StorageConfig         `yaml:"storage"`
	Docs          retrieval.Config      `yaml:"docs"`
	Corpus        retrieval.Config      `yaml:"corpus"`
	Codec         codec.Config          `yaml:"codec"`
	Nouns         []nouns.Noun          `yaml:"nouns"`
	Log           LogConfig             `yaml:"log"`
}

// LatchConfig sizes the focus latch.
type LatchConfig struct {
	PendingExpiryTurns int `yaml:"pending_expiry_turns"`
}

// ClarificationConfig bounds how long a shown list stays answerable.
type ClarificationConfig struct {
	MaxTurns int           `yaml:"max_turns"`
	TTL      time.Duration `yaml:"ttl"`
}

// SnapshotConfig controls turn snapshot trust.
type SnapshotConfig struct {
	FreshnessThreshold time.Duration `yaml:"freshness_threshold"`
}

// StorageConfig locates the backing stores. Empty URLs disable the store.
type StorageConfig struct {
	DBPath      string        `yaml:"db_path"`
	RedisURL    string        `yaml:"redis_url"`
	SessionTTL  time.Duration `yaml:"session_ttl"`
	MeiliURL    string        `yaml:"meili_url"`
	MeiliKey    string        `yaml:"meili_key"`
	MeiliIndex  string        `yaml:"meili_index"`
	DatabaseURL string        `yaml:"database_url"`
}

// LogConfig selects the zap logger.
type LogConfig struct {
	Level       string `yaml:"level"`
	Development bool   `yaml:"development"`
}
// #endregion config

// #region defaults
// DefaultConfig returns the stock settings. The model fallback is off until a
// codec address is configured and the flag is turned on.
func DefaultConfig() *Config {
	corpus := retrieval.DefaultConfig()
	corpus.MinScore = 0.05 // ts_rank scores run far below Meilisearch ranking scores
	corpus.AutoOpenScore = 0.5
	corpus.AutoOpenMargin = 0.2

	return &Config{
		Features: orchestrator.Features{
			FocusLatch:      true,
			SemanticAnswers: true,
			LLMFallback:     false,
		},
		Thresholds: clarify.DefaultThresholds(),
		Trace:      trace.DefaultConfig(),
		Latch:      LatchConfig{PendingExpiryTurns: latch.DefaultPendingExpiryTurns},
		Clarification: ClarificationConfig{
			MaxTurns: clarify.DefaultMaxTurns,
			TTL:      clarify.DefaultTTL,
		},
		Resolver: resolver.DefaultConfig(),
		Snapshot: SnapshotConfig{FreshnessThreshold: snapshot.DefaultFreshnessThreshold},
		Storage: StorageConfig{
			DBPath:     "arbiter.db",
			SessionTTL: session.DefaultTTL,
			MeiliIndex: retrieval.DefaultDocIndex,
		},
		Docs:   retrieval.DefaultConfig(),
		Corpus: corpus,
		Codec:  codec.DefaultConfig(),
		Log:    LogConfig{Level: "info"},
	}
}
// #endregion defaults

// #region derived
// OrchestratorConfig is the dispatcher policy slice.
func (c *Config) OrchestratorConfig() orchestrator.Config {
	return orchestrator.Config{
		Features:          c.Features,
		Thresholds:        c.Thresholds,
		SnapshotFreshness: c.Snapshot.FreshnessThreshold,
	}
}

// SessionConfig sizes new sessions.
func (c *Config) SessionConfig() orchestrator.SessionConfig {
	return orchestrator.SessionConfig{
		PendingExpiryTurns:    c.Latch.PendingExpiryTurns,
		ClarificationMaxTurns: c.Clarification.MaxTurns,
		ClarificationTTL:      c.Clarification.TTL,
		Trace:                 c.Trace,
	}
}

// ResolverConfig is the resolver slice with the semantic-answers flag taken
// from Features, which is authoritative.
func (c *Config) ResolverConfig() resolver.Config {
	rc := c.Resolver
	rc.SemanticAnswers = c.Features.SemanticAnswers
	return rc
}
// #endregion derived
