// Package orchestrator is the routing dispatcher: it runs the fixed-priority
// tier pipeline over one chat input and returns a single terminal result.
package orchestrator

// #region imports
import (
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	oteltrace "go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	"github.com/danielpatrickdp/intent-arbiter/go-controller/internal/clarify"
	"github.com/danielpatrickdp/intent-arbiter/go-controller/internal/logging"
	"github.com/danielpatrickdp/intent-arbiter/go-controller/internal/resolver"
	"github.com/danielpatrickdp/intent-arbiter/go-controller/internal/snapshot"
	"github.com/danielpatrickdp/intent-arbiter/go-controller/internal/trace"
)

// #endregion

const tracerName = "github.com/danielpatrickdp/intent-arbiter/go-controller/internal/orchestrator"

// #region orchestrator-struct

// Config is the dispatcher policy.
type Config struct {
	Features   Features
	Thresholds clarify.Thresholds
	// SnapshotFreshness bounds how old a turn snapshot may be and still
	// upgrade a pending latch. Zero means snapshot.DefaultFreshnessThreshold.
	SnapshotFreshness time.Duration
}

// Orchestrator dispatches turns. It holds no per-conversation state; that
// lives in the Session carried by each RoutingContext.
type Orchestrator struct {
	cfg    Config
	deps   Deps
	log    *zap.Logger
	tracer oteltrace.Tracer
}

// turn is the per-dispatch working set shared by the tiers.
type turn struct {
	id    string
	rc    RoutingContext
	sess  *Session
	shape InputShape
}

type tierFunc func(ctx context.Context, t *turn) (Result, string)

// #endregion

// #region constructor

// New creates a dispatcher. A nil resolver gets the default one configured
// from cfg.Features; a nil logger is replaced by a no-op.
func New(cfg Config, deps Deps, logger *zap.Logger) *Orchestrator {
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.Thresholds == (clarify.Thresholds{}) {
		cfg.Thresholds = clarify.DefaultThresholds()
	}
	if cfg.SnapshotFreshness <= 0 {
		cfg.SnapshotFreshness = snapshot.DefaultFreshnessThreshold
	}
	if deps.Resolver == nil {
		rcfg := resolver.DefaultConfig()
		rcfg.SemanticAnswers = cfg.Features.SemanticAnswers
		deps.Resolver = resolver.New(rcfg)
	}
	return &Orchestrator{
		cfg:    cfg,
		deps:   deps,
		log:    logger.Named("orchestrator"),
		tracer: otel.Tracer(tracerName),
	}
}

// Features returns the active feature switches.
func (o *Orchestrator) Features() Features {
	return o.cfg.Features
}

// #endregion

// #region dispatch

// Dispatch runs the tier pipeline for one input. Tiers run in fixed priority
// order and the first claim wins. Turn bookkeeping (latch upgrade and
// advance, clarification expiry and advance) brackets the pipeline.
func (o *Orchestrator) Dispatch(ctx context.Context, rc RoutingContext) Result {
	start := time.Now()
	if rc.Session == nil {
		rc.Session = NewSession(uuid.New().String(), SessionConfig{}, nil, o.log)
	}
	if rc.NowMs == 0 {
		rc.NowMs = start.UnixMilli()
	}

	ctx, span := o.tracer.Start(ctx, "orchestrator.Dispatch",
		oteltrace.WithAttributes(attribute.String("arbiter.session_id", rc.Session.ID)))
	defer span.End()

	t := &turn{id: uuid.New().String(), rc: rc, sess: rc.Session}
	o.beginTurn(t)

	var options []clarify.Option
	if snap := t.sess.Clarification.Get(); snap != nil {
		options = snap.Options
	}
	t.shape = ClassifyInput(rc.Input, options)
	record := o.routingRecord(t, options)

	tiers := []struct {
		tier Tier
		run  tierFunc
	}{
		{TierExplicitCommand, o.tierExplicitCommand},
		{TierFocusLatch, o.tierFocusLatch},
		{TierStaleClarification, o.tierStaleClarification},
		{TierSemanticQuestion, o.tierSemanticQuestion},
		{TierRetrieval, o.tierRetrieval},
		{TierLLMFallback, o.tierLLMFallback},
	}

	var res Result
	var decisions []TierDecision
	for _, step := range tiers {
		r, reason := step.run(ctx, t)
		decisions = append(decisions, TierDecision{Tier: step.tier, Claimed: r.Handled, Reason: reason})
		span.AddEvent("tier", oteltrace.WithAttributes(
			attribute.String("arbiter.tier", step.tier.String()),
			attribute.Bool("arbiter.claimed", r.Handled),
			attribute.String("arbiter.reason", reason),
		))
		if r.Handled {
			r.HandledByTier = step.tier
			r.Reason = reason
			res = r
			break
		}
	}
	if !res.Handled {
		res = Result{HandledByTier: TierNone, Reason: "no tier claimed the turn", Message: unhandledPrompt(t.shape)}
	}
	res.TierLabel = res.HandledByTier.String()
	res.Decisions = decisions

	o.endTurn(t)

	span.SetAttributes(
		attribute.Bool("arbiter.handled", res.Handled),
		attribute.String("arbiter.tier_label", res.TierLabel),
	)
	fields := append([]zap.Field{
		zap.String("turn", t.id),
		zap.String("session", t.sess.ID),
		zap.String("tier", res.TierLabel),
		zap.Bool("handled", res.Handled),
		zap.String("reason", res.Reason),
		zap.Duration("elapsed", time.Since(start)),
	}, t.shape.Fields()...)
	o.log.Info("dispatch", fields...)

	o.logDecision(ctx, t, res, record)
	return res
}

// DismissClarification parks the list after the UI closed it. A stopped list
// no longer captures ordinals and expires on its own.
func (o *Orchestrator) DismissClarification(sess *Session) bool {
	return sess.Clarification.Pause(clarify.PauseStop)
}

// RecordUIAction commits an action the user took directly in the interface.
// The trace write comes first and the legacy mirror follows with the same
// timestamp, so the mirror is suppressed as an echo and history gains one
// entry. No reason is recorded; the user acted without a chat request.
func (o *Orchestrator) RecordUIAction(sess *Session, a GroundingAction, workspace string, nowMs int64) bool {
	e, committed := sess.Ledger.RecordExecutedAction(trace.Input{
		TsMs:             nowMs,
		ActionType:       a.Type,
		Target:           a.Target,
		Source:           trace.SourceDirectUI,
		ResolverPath:     "direct_ui",
		ReasonCode:       trace.ReasonUnknown,
		ScopeKind:        "workspace",
		ScopeInstanceID:  workspace,
		IsUserMeaningful: true,
		Outcome:          trace.OutcomeSuccess,
	})
	mirrored := sess.Ledger.SetLastAction(trace.LastAction{
		ActionType: a.Type,
		Target:     a.Target,
		TsMs:       nowMs,
		Source:     trace.SourceDirectUI,
		ReasonCode: trace.ReasonUnknown,
	})
	o.log.Debug("ui action recorded",
		zap.String("session", sess.ID), zap.String("action", a.Type),
		zap.String("target", a.Target.Identity()), zap.Int64("seq", e.Seq),
		zap.Bool("committed", committed), zap.Bool("mirrored", mirrored))
	return committed
}

// beginTurn upgrades a pending latch only from a fresh snapshot; a stale one
// may list a widget that has since closed.
func (o *Orchestrator) beginTurn(t *turn) {
	if o.cfg.Features.FocusLatch && t.rc.Snapshot.IsFresh(t.rc.NowMs, o.cfg.SnapshotFreshness) &&
		t.sess.Latch.Upgrade(t.rc.Snapshot) {
		o.log.Debug("latch upgraded", zap.String("session", t.sess.ID))
	}
	if t.sess.Clarification.Expire(t.rc.NowMs) {
		o.log.Debug("clarification expired", zap.String("session", t.sess.ID))
	}
}

func (o *Orchestrator) endTurn(t *turn) {
	t.sess.Latch.Advance()
	t.sess.Clarification.Advance(t.rc.NowMs)
}

func unhandledPrompt(s InputShape) string {
	switch {
	case s.Hesitation:
		return "Take your time. Tell me what you'd like to open."
	case s.Noise:
		return "I didn't catch that. Could you rephrase?"
	}
	return ""
}

// #endregion

// #region decision-log

func (o *Orchestrator) routingRecord(t *turn, options []clarify.Option) logging.RoutingRecord {
	rec := logging.RoutingRecord{
		TurnID:      t.id,
		Input:       t.rc.Input,
		NowMs:       t.rc.NowMs,
		OptionCount: len(options),
		Flags: logging.RoutingFlags{
			FocusLatch:      o.cfg.Features.FocusLatch,
			SemanticAnswers: o.cfg.Features.SemanticAnswers,
			LLMFallback:     o.cfg.Features.LLMFallback,
		},
	}
	if l := t.sess.Latch.Get(); l != nil {
		rec.LatchKind = string(l.Kind)
		rec.LatchWidgetID = l.TargetID()
		rec.LatchSuspended = l.Suspended
	}
	if snap := t.sess.Clarification.Get(); snap != nil {
		rec.ClarificationActive = snap.Active()
		rec.ClarificationPaused = string(snap.PausedReason)
	}
	return rec
}

func (o *Orchestrator) logDecision(ctx context.Context, t *turn, res Result, rec logging.RoutingRecord) {
	if o.deps.Decisions == nil {
		return
	}
	for _, d := range res.Decisions {
		rec.Tiers = append(rec.Tiers, logging.TierVerdict{
			Tier: int(d.Tier), Label: d.Tier.String(), Claimed: d.Claimed, Reason: d.Reason,
		})
	}
	entry := logging.DecisionEntry{
		SessionID: t.sess.ID,
		TurnID:    t.id,
		Input:     t.rc.Input,
		Tier:      int(res.HandledByTier),
		TierLabel: res.TierLabel,
		Handled:   res.Handled,
		Reason:    res.Reason,
	}
	if a := res.GroundingAction; a != nil {
		entry.ActionType = a.Type
		entry.TargetID = a.Target.Identity()
	}
	if raw, err := json.Marshal(rec); err == nil {
		entry.RoutingJSON = string(raw)
	}
	if err := o.deps.Decisions.LogDecision(ctx, entry); err != nil {
		o.log.Warn("decision log failed", zap.Error(err), zap.String("turn", t.id))
	}
}

// #endregion
