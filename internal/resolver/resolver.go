// Package resolver turns structured intents into resolutions, including
// deterministic answers to "why did you do that" and "what have I done".
package resolver

// #region imports
import (
	"fmt"
	"strings"
)

// #endregion

// SafeAnswerMessage replaces any non-informational result of a semantic intent.
const SafeAnswerMessage = "I can tell you about recent activity, but I can't take an action from that question."

// #region resolver

// Resolver is stateless apart from its configuration.
type Resolver struct {
	cfg Config
}

// New creates a resolver. Zero numeric settings fall back to defaults.
func New(cfg Config) *Resolver {
	def := DefaultConfig()
	if cfg.CausalMatchWindow <= 0 {
		cfg.CausalMatchWindow = def.CausalMatchWindow
	}
	if cfg.MaxSummaryItems <= 0 {
		cfg.MaxSummaryItems = def.MaxSummaryItems
	}
	return &Resolver{cfg: cfg}
}

// Config returns the effective configuration.
func (r *Resolver) Config() Config {
	return r.cfg
}

// Resolve maps an intent to a resolution. It never mutates ctx.
func (r *Resolver) Resolve(intent Intent, ctx Context) Resolution {
	if !r.cfg.SemanticAnswers {
		intent = RemapWhenDisabled(intent)
	}
	return EnforceAnswerOnly(intent.Kind, r.resolve(intent, ctx))
}

func (r *Resolver) resolve(intent Intent, ctx Context) Resolution {
	switch intent.Kind {
	case IntentNavigateWorkspace:
		return resolveCatalog(intent, ctx.Workspaces, ActionNavigateWorkspace, "workspace")
	case IntentOpenPanel:
		return resolveCatalog(intent, ctx.Panels, ActionOpenPanel, "panel")
	case IntentSelectOption:
		if intent.OptionIndex < 0 || intent.OptionIndex >= len(ctx.Options) {
			return Resolution{Action: ActionError, Message: "That option isn't in the list."}
		}
		o := ctx.Options[intent.OptionIndex]
		return Resolution{
			Success: true,
			Action:  ActionSelectOption,
			Message: fmt.Sprintf("Opening %q.", o.Label),
			Target:  targetPtr(o.Kind, o.ID, o.Label),
		}
	case IntentExplainLastAction:
		return ExplainLastAction(ctx, r.cfg.CausalMatchWindow.Milliseconds())
	case IntentSummarizeRecentActivity:
		return SummarizeRecentActivity(ctx, r.cfg.MaxSummaryItems)
	case IntentAnswerFromContext, IntentGeneralAnswer:
		if strings.TrimSpace(intent.Answer) == "" {
			return Resolution{Action: ActionError, Message: "I don't have an answer for that."}
		}
		action := ActionAnswerFromContext
		if intent.Kind == IntentGeneralAnswer {
			action = ActionGeneralAnswer
		}
		return Resolution{Success: true, Action: action, Message: intent.Answer}
	case IntentLastAction:
		return legacyLastAction(ctx)
	case IntentSessionStats:
		return legacySessionStats(ctx)
	default:
		return Resolution{Action: ActionError, Message: "I can't help with that yet."}
	}
}

func resolveCatalog(intent Intent, catalog []CatalogEntry, action Action, noun string) Resolution {
	for _, c := range catalog {
		if (intent.Target.ID != "" && c.ID == intent.Target.ID) ||
			(intent.Target.Name != "" && strings.EqualFold(c.Name, intent.Target.Name)) {
			return Resolution{
				Success: true,
				Action:  action,
				Message: fmt.Sprintf("Opening %s %q.", noun, c.Name),
				Target:  targetPtr(noun, c.ID, c.Name),
			}
		}
	}
	return Resolution{
		Action:  ActionError,
		Message: fmt.Sprintf("I couldn't find a %s called %q.", noun, intent.Target.Identity()),
	}
}

// #endregion

// #region guards

// IsSemantic reports whether kind is restricted to informational outcomes.
func IsSemantic(kind IntentKind) bool {
	switch kind {
	case IntentExplainLastAction, IntentSummarizeRecentActivity, IntentLastAction, IntentSessionStats:
		return true
	}
	return false
}

// RemapWhenDisabled degrades semantic intents to their legacy equivalents.
func RemapWhenDisabled(intent Intent) Intent {
	switch intent.Kind {
	case IntentExplainLastAction:
		intent.Kind = IntentLastAction
	case IntentSummarizeRecentActivity:
		intent.Kind = IntentSessionStats
	}
	return intent
}

// EnforceAnswerOnly rewrites any non-informational result of a semantic
// intent to a canned inform. Legacy kinds may only inform or error.
func EnforceAnswerOnly(kind IntentKind, res Resolution) Resolution {
	if !IsSemantic(kind) {
		return res
	}
	allowed := false
	switch res.Action {
	case ActionInform, ActionError:
		allowed = true
	case ActionAnswerFromContext, ActionGeneralAnswer:
		allowed = kind == IntentExplainLastAction || kind == IntentSummarizeRecentActivity
	}
	if allowed {
		return res
	}
	return Resolution{Success: true, Action: ActionInform, Message: SafeAnswerMessage}
}

// #endregion

// #region legacy

func legacyLastAction(ctx Context) Resolution {
	if ctx.LastAction == nil {
		return Resolution{Success: true, Action: ActionInform, Message: noRecentAction}
	}
	return Resolution{
		Success: true,
		Action:  ActionInform,
		Message: "Your last action: " + describe(*ctx.LastAction) + ".",
	}
}

func legacySessionStats(ctx Context) Resolution {
	if len(ctx.History) == 0 {
		return Resolution{Success: true, Action: ActionInform, Message: noActivity}
	}
	counts := make(map[string]int)
	var order []string
	for _, a := range ctx.History {
		if counts[a.ActionType] == 0 {
			order = append(order, a.ActionType)
		}
		counts[a.ActionType]++
	}
	parts := make([]string, len(order))
	for i, t := range order {
		parts[i] = fmt.Sprintf("%s: %d", t, counts[t])
	}
	return Resolution{
		Success: true,
		Action:  ActionInform,
		Message: fmt.Sprintf("Session actions: %d (%s).", len(ctx.History), strings.Join(parts, ", ")),
	}
}

// #endregion
