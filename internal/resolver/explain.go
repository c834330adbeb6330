package resolver

// #region imports
import (
	"fmt"
	"strings"

	"github.com/danielpatrickdp/intent-arbiter/go-controller/internal/trace"
)

// #endregion

const (
	noRecentAction = "I don't have a record of a recent action yet."
	noActivity     = "No activity recorded yet."
)

// pastTense maps action types to the verb used in explanations.
var pastTense = map[string]string{
	"open_panel":         "opened",
	"navigate_workspace": "switched to",
	"select_option":      "selected",
	"select_widget_item": "selected",
	"open_widget":        "opened",
	"create":             "created",
	"delete":             "deleted",
	"rename":             "renamed",
	"close":              "closed",
	"search":             "searched for",
}

// #region explain

// ExplainLastAction describes the last action and, when the trace supports
// it, why it happened. It reads stored data only.
func ExplainLastAction(ctx Context, windowMs int64) Resolution {
	if ctx.LastAction == nil {
		return Resolution{Success: true, Action: ActionInform, Message: noRecentAction}
	}
	la := *ctx.LastAction

	var b strings.Builder
	b.WriteString("I " + describe(la))
	if e, ok := findCause(la, ctx.Trace, windowMs); ok {
		b.WriteString(causalClause(e))
	}
	b.WriteString(".")

	if len(ctx.History) > 1 {
		b.WriteString(" Before that, I " + describe(ctx.History[1]) + ".")
	}
	return Resolution{Success: true, Action: ActionInform, Message: b.String()}
}

// findCause scans the trace newest first for the commit behind la.
func findCause(la trace.LastAction, entries []trace.Entry, windowMs int64) (trace.Entry, bool) {
	for _, e := range entries {
		if e.ActionType != la.ActionType || !sameTarget(e.Target, la.Target) {
			continue
		}
		d := la.TsMs - e.TsMs
		if d < 0 {
			d = -d
		}
		if d > windowMs {
			continue
		}
		if e.Outcome != trace.OutcomeSuccess || !e.IsUserMeaningful {
			continue
		}
		return e, true
	}
	return trace.Entry{}, false
}

func sameTarget(a, b trace.Target) bool {
	if a.ID != "" && b.ID != "" {
		return a.ID == b.ID
	}
	return a.Name != "" && strings.EqualFold(a.Name, b.Name)
}

func causalClause(e trace.Entry) string {
	if e.ReasonCode == trace.ReasonUnknown || e.ReasonCode == "" {
		if e.Source == trace.SourceChat {
			return " based on your chat request"
		}
		return ""
	}
	var why string
	switch e.ReasonCode {
	case trace.ReasonExplicitName, trace.ReasonKnownNoun:
		why = " because you asked for it by name"
	case trace.ReasonOrdinal:
		why = " because you selected it from the options"
	case trace.ReasonFocusLatch:
		why = " because you picked it from the item list you had open"
	case trace.ReasonRetrieval:
		why = " because it was the best match for your search"
	default:
		return ""
	}
	switch e.Source {
	case trace.SourceChat:
		why += " in chat"
	case trace.SourceWidget:
		why += " from a widget"
	case trace.SourceDirectUI:
		why += " in the interface"
	}
	return why
}

// #endregion

// #region summarize

type activityGroup struct {
	action trace.LastAction
	count  int
}

// SummarizeRecentActivity renders a bounded digest of the action history,
// collapsing consecutive repeats of the same action.
func SummarizeRecentActivity(ctx Context, maxItems int) Resolution {
	if len(ctx.History) == 0 {
		return Resolution{Success: true, Action: ActionInform, Message: noActivity}
	}

	var groups []activityGroup
	for _, a := range ctx.History {
		if n := len(groups); n > 0 {
			last := groups[n-1].action
			if last.ActionType == a.ActionType && last.Target.Identity() == a.Target.Identity() {
				groups[n-1].count++
				continue
			}
		}
		groups = append(groups, activityGroup{action: a, count: 1})
	}

	shown := groups
	if maxItems > 0 && len(shown) > maxItems {
		shown = shown[:maxItems]
	}
	parts := make([]string, len(shown))
	for i, g := range shown {
		parts[i] = describe(g.action)
		if g.count > 1 {
			parts[i] += fmt.Sprintf(" (%d times)", g.count)
		}
	}
	if rest := len(groups) - len(shown); rest > 0 {
		parts = append(parts, fmt.Sprintf("%d more", rest))
	}

	noun := "actions"
	if len(ctx.History) == 1 {
		noun = "action"
	}
	msg := fmt.Sprintf("You've taken %d %s recently. Most recent first: %s.",
		len(ctx.History), noun, joinList(parts))
	return Resolution{Success: true, Action: ActionInform, Message: msg}
}

// #endregion

// #region phrasing

func describe(a trace.LastAction) string {
	verb, ok := pastTense[a.ActionType]
	if !ok {
		verb = strings.ReplaceAll(a.ActionType, "_", " ")
	}
	name := a.Target.Name
	if name == "" {
		name = a.Target.ID
	}
	if name == "" {
		return verb
	}
	return fmt.Sprintf("%s %q", verb, name)
}

func joinList(parts []string) string {
	switch len(parts) {
	case 0:
		return ""
	case 1:
		return parts[0]
	case 2:
		return parts[0] + " and " + parts[1]
	}
	return strings.Join(parts[:len(parts)-1], ", ") + ", and " + parts[len(parts)-1]
}

func targetPtr(kind, id, name string) *trace.Target {
	return &trace.Target{Kind: kind, ID: id, Name: name}
}

// #endregion
