package main

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/danielpatrickdp/intent-arbiter/go-controller/internal/codec"
	"github.com/danielpatrickdp/intent-arbiter/go-controller/internal/config"
	"github.com/danielpatrickdp/intent-arbiter/go-controller/internal/logging"
	"github.com/danielpatrickdp/intent-arbiter/go-controller/internal/nouns"
	"github.com/danielpatrickdp/intent-arbiter/go-controller/internal/orchestrator"
	"github.com/danielpatrickdp/intent-arbiter/go-controller/internal/resolver"
	"github.com/danielpatrickdp/intent-arbiter/go-controller/internal/retrieval"
	"github.com/danielpatrickdp/intent-arbiter/go-controller/internal/session"
	"github.com/danielpatrickdp/intent-arbiter/go-controller/internal/snapshot"
	"github.com/danielpatrickdp/intent-arbiter/go-controller/internal/state"
)

// #region app

// app owns every long-lived resource of a chat run.
type app struct {
	cfg      *config.Config
	log      *zap.Logger
	store    *state.Store
	sessions *session.RedisStore // nil without REDIS_URL
	corpusDB *sql.DB             // nil without DATABASE_URL
	codec    *codec.CodecClient  // nil unless the model fallback is on
	orch     *orchestrator.Orchestrator
	sess     *orchestrator.Session
	reg      *snapshot.MemoryRegistry
}

// newApp loads config and wires the stores and collaborators. Optional
// backends are skipped when their address is not configured.
func newApp(ctx context.Context, cfgPath, sessionID string) (*app, error) {
	cfg, err := config.Load(cfgPath)
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	logger, err := logging.NewLogger(cfg.Log.Level, cfg.Log.Development)
	if err != nil {
		return nil, err
	}

	a := &app{cfg: cfg, log: logger}
	if err := a.wire(ctx, sessionID); err != nil {
		a.Close()
		return nil, err
	}
	return a, nil
}

func (a *app) wire(ctx context.Context, sessionID string) error {
	cfg := a.cfg

	store, err := state.NewStore(cfg.Storage.DBPath)
	if err != nil {
		return fmt.Errorf("open store: %w", err)
	}
	a.store = store

	deps := orchestrator.Deps{
		Nouns:     nouns.NewRouter(cfg.Nouns, a.log),
		Resolver:  resolver.New(cfg.ResolverConfig()),
		Decisions: store,
	}

	if cfg.Storage.MeiliURL != "" {
		m := retrieval.NewMeili(cfg.Storage.MeiliURL, cfg.Storage.MeiliKey, cfg.Storage.MeiliIndex, a.log)
		deps.Docs = retrieval.Docs{Retriever: retrieval.NewRetriever(m, cfg.Docs, "docs", a.log)}
	}
	if cfg.Storage.DatabaseURL != "" {
		db, err := retrieval.OpenPostgres(ctx, cfg.Storage.DatabaseURL)
		if err != nil {
			return fmt.Errorf("open corpus: %w", err)
		}
		a.corpusDB = db
		deps.Corpus = retrieval.Corpus{Retriever: retrieval.NewRetriever(retrieval.NewPgCorpus(db), cfg.Corpus, "corpus", a.log)}
	}
	if cfg.Features.LLMFallback {
		cc, err := codec.NewCodecClient(cfg.Codec, a.log)
		if err != nil {
			return fmt.Errorf("codec client: %w", err)
		}
		a.codec = cc
		if _, err := cc.Probe(ctx); err != nil {
			a.log.Warn("answer service probe failed", zap.String("addr", cfg.Codec.Addr), zap.Error(err))
		}
		deps.Clarification = cc
		deps.Grounding = cc
	}

	if cfg.Storage.RedisURL != "" {
		rs, err := session.NewRedisStore(cfg.Storage.RedisURL, cfg.Storage.SessionTTL)
		if err != nil {
			return fmt.Errorf("session store: %w", err)
		}
		a.sessions = rs
	}

	a.orch = orchestrator.New(cfg.OrchestratorConfig(), deps, a.log)
	return a.openSession(ctx, sessionID)
}

// openSession creates the session, rebuilding its ledger from SQLite and its
// latch and list from Redis when resuming.
func (a *app) openSession(ctx context.Context, id string) error {
	if id == "" {
		id = uuid.NewString()
	}
	sess := orchestrator.NewSession(id, a.cfg.SessionConfig(), a.store.SinkFor(id), a.log)

	ledger, err := a.store.LoadLedger(id, a.cfg.Trace, a.log)
	if err != nil {
		return fmt.Errorf("load ledger: %w", err)
	}
	sess.Ledger = ledger

	if a.sessions != nil {
		st, err := a.sessions.Load(ctx, id)
		switch {
		case err == nil:
			st.Apply(sess)
			a.log.Info("session resumed", zap.String("session", id), zap.Time("saved_at", st.SavedAt))
		case errors.Is(err, session.ErrNotFound):
		default:
			a.log.Warn("session load failed", zap.String("session", id), zap.Error(err))
		}
	}

	a.sess = sess
	a.reg = snapshot.NewMemoryRegistry(nil)
	a.reg.OnRegister(sess.Latch.OnWidgetRegistered)
	return nil
}

// saveSession persists latch and list state after a turn.
func (a *app) saveSession(ctx context.Context) {
	if a.sessions == nil {
		return
	}
	ctx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()
	if err := a.sessions.Save(ctx, a.sess.ID, session.Capture(a.sess)); err != nil {
		a.log.Warn("session save failed", zap.String("session", a.sess.ID), zap.Error(err))
	}
}

func (a *app) console(out io.Writer) *console {
	return &console{
		orch:      a.orch,
		sess:      a.sess,
		reg:       a.reg,
		out:       out,
		freshness: a.cfg.Snapshot.FreshnessThreshold,
		afterTurn: a.saveSession,
		info:      fmt.Sprintf("DB: %s | Session: %s", a.cfg.Storage.DBPath, a.sess.ID),
	}
}

// Close releases every resource that was opened. Safe on a partial app.
func (a *app) Close() {
	if a.codec != nil {
		a.codec.Close()
	}
	if a.sessions != nil {
		a.sessions.Close()
	}
	if a.corpusDB != nil {
		a.corpusDB.Close()
	}
	if a.store != nil {
		a.store.Close()
	}
	if a.log != nil {
		_ = a.log.Sync()
	}
}

// #endregion app
