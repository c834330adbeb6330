package orchestrator

// #region imports
import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/danielpatrickdp/intent-arbiter/go-controller/internal/clarify"
	"github.com/danielpatrickdp/intent-arbiter/go-controller/internal/classify"
	"github.com/danielpatrickdp/intent-arbiter/go-controller/internal/latch"
	"github.com/danielpatrickdp/intent-arbiter/go-controller/internal/resolver"
	"github.com/danielpatrickdp/intent-arbiter/go-controller/internal/trace"
)

// #endregion

// #region tier-1-explicit-command

// tierExplicitCommand routes verb+target input straight to the known-noun
// router. The latch and any list are not consulted.
func (o *Orchestrator) tierExplicitCommand(ctx context.Context, t *turn) (Result, string) {
	if !t.shape.Command {
		return Result{}, "not an explicit command"
	}
	if o.deps.Nouns == nil {
		return Result{}, "no known-noun router"
	}
	rr, err := o.deps.Nouns.Route(ctx, o.routeRequest(t, false))
	if err != nil {
		o.log.Warn("known-noun router failed", zap.Error(err))
		return Result{}, "known-noun router error"
	}
	if !rr.Handled {
		return Result{}, "known-noun router declined"
	}
	if t.sess.activeClarification() != nil {
		t.sess.Clarification.Pause(clarify.PauseInterrupt)
	}
	return o.applyRoute(t, TierExplicitCommand, rr, trace.ReasonExplicitName), "command routed: " + labelOr(rr.TierLabel, "known_noun")
}

// #endregion

// #region tier-2-focus-latch

// tierFocusLatch resolves ordinals against the latched live widget.
func (o *Orchestrator) tierFocusLatch(_ context.Context, t *turn) (Result, string) {
	if !o.cfg.Features.FocusLatch {
		return Result{}, "focus latch disabled"
	}
	l := t.sess.Latch.Get()
	if !latch.BlocksStaleChat(true, l) {
		return Result{}, "no blocking latch"
	}
	if !t.shape.LooksLikeSelection {
		return Result{}, "not selection-like"
	}

	target := latch.ResolveActiveWidgetID(l, t.rc.Snapshot)
	if target.WidgetID == "" {
		return Result{Handled: true, Message: target.Message}, "pending latch, target not registered"
	}
	w, ok := t.rc.Snapshot.Widget(target.WidgetID)
	if !ok {
		if l.Kind == latch.KindResolved {
			t.sess.Latch.Clear()
			return Result{}, "latched widget no longer open"
		}
		return Result{}, "active widget missing from snapshot"
	}

	sel := classify.IsSelectionOnly(t.rc.Input, len(w.Items), w.ItemLabels(), classify.ModeEmbedded)
	if !sel.IsSelection {
		msg := fmt.Sprintf("%s only has %d items.", labelOr(w.Label, "That list"), len(w.Items))
		return Result{Handled: true, Message: msg}, "ordinal out of range for latched widget"
	}
	item := w.Items[sel.Index]
	action := GroundingAction{
		Type:      ActionSelectWidgetItem,
		Target:    trace.Target{Kind: "widget_item", ID: item.ID, Name: item.Label},
		WidgetID:  w.ID,
		ItemIndex: sel.Index,
	}
	o.commitAction(t, TierFocusLatch, action, trace.ReasonFocusLatch)
	return Result{
		Handled:         true,
		GroundingAction: &action,
		Message:         fmt.Sprintf("Opening %q.", item.Label),
	}, "ordinal resolved against latched widget"
}

// #endregion

// #region tier-3-stale-clarification

// tierStaleClarification answers the last disambiguation list. An active
// list handles every reply shape; an interrupt-paused list only captures
// ordinals through the legacy selection handler.
func (o *Orchestrator) tierStaleClarification(ctx context.Context, t *turn) (Result, string) {
	snap := t.sess.Clarification.Get()
	if snap == nil {
		return Result{}, "no clarification"
	}

	if !snap.Active() {
		if snap.PausedReason == clarify.PauseInterrupt && t.shape.Selection.IsSelection {
			return o.selectFromList(ctx, t, *snap, t.shape.Selection.Index, "paused list captured ordinal")
		}
		return Result{}, "clarification paused (" + string(snap.PausedReason) + ")"
	}

	s := t.shape
	switch {
	case s.Exit:
		o.closeClarification(t)
		return Result{Handled: true, Message: "Okay, never mind."}, "exit phrase"
	case s.Selection.IsSelection:
		return o.selectFromList(ctx, t, *snap, s.Selection.Index, "selection from list")
	case s.ListRejection:
		o.closeClarification(t)
		return Result{Handled: true, Message: "Okay, none of those. Tell me a bit more about what you're looking for."}, "list rejection"
	case s.Repair:
		return Result{Handled: true, Options: snap.Options,
			Message: "My mistake. Which one did you mean?" + formatOptions(snap.Options)}, "repair phrase"
	case s.Hesitation:
		return Result{Handled: true, Options: snap.Options,
			Message: "No rush. Here are the options again:" + formatOptions(snap.Options)}, "hesitation"
	case s.Noise:
		attempt := t.sess.Clarification.RecordAttempt()
		return Result{Handled: true, Options: snap.Options,
			Message: clarify.EscalationPrompt(attempt, snap.Options)}, fmt.Sprintf("noise, escalation %d", attempt)
	}

	fit := clarify.ClassifyResponseFit(t.rc.Input, snap.Options, o.cfg.Thresholds,
		clarify.FitContext{OriginalIntent: snap.OriginalIntent})
	switch fit.Kind {
	case clarify.FitSelect:
		return o.selectFromList(ctx, t, *snap, fit.Index, fmt.Sprintf("off-menu select (score %.2f)", fit.Score))
	case clarify.FitNewTopic:
		o.closeClarification(t)
		return Result{}, "new topic, clarification closed"
	}
	attempt := t.sess.Clarification.RecordAttempt()
	msg := fit.Prompt
	if attempt >= 2 {
		msg = clarify.EscalationPrompt(attempt, snap.Options)
	}
	return Result{Handled: true, Options: snap.Options, Message: msg},
		fmt.Sprintf("off-menu %s, attempt %d", fit.Kind, attempt)
}

func (o *Orchestrator) selectFromList(ctx context.Context, t *turn, snap clarify.Snapshot, idx int, reason string) (Result, string) {
	opt := snap.Options[idx]
	if o.deps.Selection != nil {
		ok, err := o.deps.Selection.HandleSelection(ctx, opt, idx)
		if err != nil {
			o.log.Warn("selection handler failed", zap.Error(err))
			return Result{}, "selection handler error"
		}
		if !ok {
			return Result{}, "selection handler declined"
		}
	}
	o.closeClarification(t)

	action := GroundingAction{
		Type:      ActionSelectOption,
		Target:    trace.Target{Kind: opt.Kind, ID: opt.ID, Name: opt.Label},
		ItemIndex: idx,
	}
	if opt.Kind == "widget" {
		action.WidgetID = opt.ID
	}
	o.commitAction(t, TierStaleClarification, action, trace.ReasonOrdinal)
	return Result{Handled: true, GroundingAction: &action, Message: fmt.Sprintf("Opening %q.", opt.Label)}, reason
}

// closeClarification clears the list and lets a deferred latch take over.
func (o *Orchestrator) closeClarification(t *turn) {
	t.sess.Clarification.Clear()
	if o.cfg.Features.FocusLatch {
		t.sess.Latch.Resume()
	}
}

// #endregion

// #region tier-4-semantic-question

// tierSemanticQuestion answers why/what-did-I-do questions from the trace.
func (o *Orchestrator) tierSemanticQuestion(_ context.Context, t *turn) (Result, string) {
	if !t.shape.SemanticQuestion {
		return Result{}, "not a semantic question"
	}
	if t.sess.activeClarification() != nil {
		return Result{}, "options active"
	}
	intent := resolver.Intent{Kind: semanticIntent(t.shape.Semantic)}
	res := o.resolve(intent, t)
	return Result{Handled: true, Resolution: &res, Message: res.Message}, "semantic " + string(intent.Kind)
}

func semanticIntent(k classify.SemanticKind) resolver.IntentKind {
	if k == classify.SemanticSummarizeRecentActivity {
		return resolver.IntentSummarizeRecentActivity
	}
	return resolver.IntentExplainLastAction
}

// resolve runs the injected resolver with the answer-only guard applied at
// this boundary too, so a misbehaving resolver cannot act.
func (o *Orchestrator) resolve(intent resolver.Intent, t *turn) resolver.Resolution {
	if !o.cfg.Features.SemanticAnswers {
		intent = resolver.RemapWhenDisabled(intent)
	}
	res := o.deps.Resolver.Resolve(intent, o.resolutionContext(t))
	return resolver.EnforceAnswerOnly(intent.Kind, res)
}

func (o *Orchestrator) resolutionContext(t *turn) resolver.Context {
	rctx := resolver.Context{
		CurrentWorkspace: t.rc.CurrentWorkspace,
		LastAction:       t.sess.Ledger.LastAction(),
		History:          t.sess.Ledger.History(),
		Trace:            t.sess.Ledger.Entries(),
		Workspaces:       t.rc.Workspaces,
		Panels:           t.rc.Panels,
		NowMs:            t.rc.NowMs,
	}
	if snap := t.sess.activeClarification(); snap != nil {
		rctx.Options = snap.Options
	}
	return rctx
}

// #endregion

// #region tier-5-retrieval

// tierRetrieval tries bare-noun lookup, then documents, then the wider
// corpus.
func (o *Orchestrator) tierRetrieval(ctx context.Context, t *turn) (Result, string) {
	if t.shape.Noise || t.shape.Hesitation {
		return Result{}, "unparseable input"
	}
	if t.shape.ContentTokens == 0 {
		return Result{}, "no content tokens"
	}

	if o.deps.Nouns != nil && !t.shape.Command && t.shape.ContentTokens <= 3 && !strings.Contains(t.rc.Input, "?") {
		rr, err := o.deps.Nouns.Route(ctx, o.routeRequest(t, true))
		if err != nil {
			o.log.Warn("bare-noun lookup failed", zap.Error(err))
		} else if rr.Handled {
			return o.applyRoute(t, TierRetrieval, rr, trace.ReasonKnownNoun), "bare noun: " + labelOr(rr.TierLabel, "known_noun")
		}
	}
	if o.deps.Docs != nil {
		rr, err := o.deps.Docs.RetrieveDocs(ctx, o.routeRequest(t, false))
		if err != nil {
			o.log.Warn("doc retrieval failed", zap.Error(err))
		} else if rr.Handled {
			return o.applyRoute(t, TierRetrieval, rr, trace.ReasonRetrieval), "doc retrieval: " + labelOr(rr.TierLabel, "docs")
		}
	}
	if o.deps.Corpus != nil {
		rr, err := o.deps.Corpus.RetrieveCrossCorpus(ctx, o.routeRequest(t, false))
		if err != nil {
			o.log.Warn("cross-corpus retrieval failed", zap.Error(err))
		} else if rr.Handled {
			return o.applyRoute(t, TierRetrieval, rr, trace.ReasonRetrieval), "cross-corpus retrieval: " + labelOr(rr.TierLabel, "corpus")
		}
	}
	return Result{}, "retrieval declined"
}

// #endregion

// #region tier-6-llm-fallback

// tierLLMFallback hands the turn to a model only when enabled and nothing
// deterministic matched.
func (o *Orchestrator) tierLLMFallback(ctx context.Context, t *turn) (Result, string) {
	if !o.cfg.Features.LLMFallback {
		return Result{}, "llm fallback disabled"
	}
	if t.shape.Noise {
		return Result{}, "unparseable input"
	}

	if snap := t.sess.activeClarification(); snap != nil {
		if o.deps.Clarification == nil || !o.deps.Clarification.ClarificationEnabled() {
			return Result{}, "clarification fallback unavailable"
		}
		fr, err := o.deps.Clarification.ResolveClarification(ctx, o.routeRequest(t, false))
		if err != nil {
			o.log.Warn("clarification fallback failed", zap.Error(err))
			return Result{}, "clarification fallback error"
		}
		if !fr.Success {
			return Result{}, "clarification fallback found no match"
		}
		if fr.Intent.Kind == resolver.IntentSelectOption &&
			fr.Intent.OptionIndex >= 0 && fr.Intent.OptionIndex < len(snap.Options) {
			return o.selectFromList(ctx, t, *snap, fr.Intent.OptionIndex, "clarification fallback selected option")
		}
		if fr.Message == "" {
			return Result{}, "clarification fallback gave no answer"
		}
		return Result{Handled: true, Options: snap.Options, Message: fr.Message}, "clarification fallback replied"
	}

	if o.deps.Grounding == nil || !o.deps.Grounding.GroundingEnabled() {
		return Result{}, "grounding fallback unavailable"
	}
	fr, err := o.deps.Grounding.Ground(ctx, o.routeRequest(t, false))
	if err != nil {
		o.log.Warn("grounding fallback failed", zap.Error(err))
		return Result{}, "grounding fallback error"
	}
	if !fr.Success {
		return Result{}, "grounding fallback found no match"
	}

	intent := fr.Intent
	if intent.Kind == "" {
		intent = resolver.Intent{Kind: resolver.IntentAnswerFromContext, Answer: fr.Message}
	}
	reason := "grounding fallback " + string(intent.Kind)
	if intent.Kind == resolver.IntentAnswerFromContext && t.sess.activeClarification() == nil &&
		t.sess.Ledger.LastAction() != nil {
		if mk := classify.DetectMetaQuestion(t.rc.Input); mk != classify.SemanticNone {
			intent = resolver.Intent{Kind: semanticIntent(mk)}
			reason = "misclassification guard: remapped to " + string(intent.Kind)
			o.log.Info("misclassification guard tripped", zap.String("turn", t.id), zap.String("kind", string(intent.Kind)))
		}
	}

	res := o.resolve(intent, t)
	out := Result{Handled: true, Resolution: &res, Message: res.Message}
	if res.Success && res.Target != nil {
		if typ, ok := groundedActions[res.Action]; ok {
			action := GroundingAction{Type: typ, Target: *res.Target}
			o.commitAction(t, TierLLMFallback, action, trace.ReasonUnknown)
			out.GroundingAction = &action
		}
	}
	return out, reason
}

var groundedActions = map[resolver.Action]string{
	resolver.ActionNavigateWorkspace: ActionNavigateWorkspace,
	resolver.ActionOpenPanel:         ActionOpenPanel,
	resolver.ActionSelectOption:      ActionSelectOption,
}

// #endregion

// #region helpers

func (o *Orchestrator) routeRequest(t *turn, bare bool) RouteRequest {
	req := RouteRequest{
		Input:            t.rc.Input,
		SessionID:        t.sess.ID,
		Bare:             bare,
		Snapshot:         t.rc.Snapshot,
		CurrentWorkspace: t.rc.CurrentWorkspace,
		Workspaces:       t.rc.Workspaces,
		Panels:           t.rc.Panels,
		NowMs:            t.rc.NowMs,
	}
	if snap := t.sess.activeClarification(); snap != nil {
		req.Options = snap.Options
	}
	return req
}

// applyRoute turns a collaborator's handled route into a result: options
// open a clarification, an action is committed, anything else is a reply.
func (o *Orchestrator) applyRoute(t *turn, tier Tier, rr RouteResult, reason trace.ReasonCode) Result {
	if len(rr.Options) > 0 {
		t.sess.Clarification.Set(rr.Options, t.rc.Input, tier.String(), t.rc.NowMs)
		if o.cfg.Features.FocusLatch {
			t.sess.Latch.Suspend()
		}
		msg := rr.Message
		if msg == "" {
			msg = "Which one did you mean?" + formatOptions(rr.Options)
		}
		return Result{Handled: true, Options: rr.Options, Message: msg}
	}
	if rr.Action != nil {
		action := *rr.Action
		o.commitAction(t, tier, action, reason)
		msg := rr.Message
		if msg == "" {
			msg = fmt.Sprintf("Opening %q.", action.Target.Identity())
		}
		return Result{Handled: true, GroundingAction: &action, Message: msg}
	}
	return Result{Handled: true, Message: rr.Message}
}

// commitAction records the executed action and re-anchors the latch when the
// action opened a widget.
func (o *Orchestrator) commitAction(t *turn, tier Tier, a GroundingAction, reason trace.ReasonCode) {
	t.sess.Ledger.RecordExecutedAction(trace.Input{
		TsMs:             t.rc.NowMs,
		ActionType:       a.Type,
		Target:           a.Target,
		Source:           trace.SourceChat,
		ResolverPath:     tier.String(),
		ReasonCode:       reason,
		ScopeKind:        "workspace",
		ScopeInstanceID:  t.rc.CurrentWorkspace,
		IsUserMeaningful: true,
		Outcome:          trace.OutcomeSuccess,
	})
	if o.cfg.Features.FocusLatch && a.WidgetID != "" && a.Type != ActionSelectWidgetItem {
		l := t.sess.Latch.Set(t.rc.Snapshot, a.WidgetID, a.Target.Name, t.rc.NowMs)
		o.log.Debug("latch set", zap.String("kind", string(l.Kind)), zap.String("widget", l.TargetID()))
	}
}

func formatOptions(options []clarify.Option) string {
	var b strings.Builder
	for i, opt := range options {
		fmt.Fprintf(&b, "\n%d. %s", i+1, opt.Label)
	}
	return b.String()
}

func labelOr(s, fallback string) string {
	if s == "" {
		return fallback
	}
	return s
}

// #endregion
