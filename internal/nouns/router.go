// Package nouns is the deterministic known-noun router: explicit commands and
// bare nouns that name a built-in destination, a workspace, a panel or an
// open widget.
package nouns

// #region imports
import (
	"context"
	"strings"

	"go.uber.org/zap"

	"github.com/danielpatrickdp/intent-arbiter/go-controller/internal/clarify"
	"github.com/danielpatrickdp/intent-arbiter/go-controller/internal/classify"
	"github.com/danielpatrickdp/intent-arbiter/go-controller/internal/orchestrator"
	"github.com/danielpatrickdp/intent-arbiter/go-controller/internal/resolver"
	"github.com/danielpatrickdp/intent-arbiter/go-controller/internal/trace"
)

// #endregion

// TierLabel tags routes produced here.
const TierLabel = "known_noun"

// #region nouns

// Noun is a built-in destination reachable by name.
type Noun struct {
	Name     string   `yaml:"name"`
	Aliases  []string `yaml:"aliases,omitempty"`
	Action   string   `yaml:"action"`
	Kind     string   `yaml:"kind"`
	ID       string   `yaml:"id"`
	WidgetID string   `yaml:"widget_id,omitempty"`
}

// DefaultNouns returns the stock destinations.
func DefaultNouns() []Noun {
	return []Noun{
		{Name: "Recent", Aliases: []string{"recent items", "recents", "recently opened"},
			Action: orchestrator.ActionOpenWidget, Kind: "widget", ID: "recent", WidgetID: "recent"},
		{Name: "Quick Links", Aliases: []string{"links", "shortcuts"},
			Action: orchestrator.ActionOpenWidget, Kind: "widget", ID: "quick-links", WidgetID: "quick-links"},
		{Name: "Dashboard", Aliases: []string{"home", "overview"},
			Action: orchestrator.ActionOpenPanel, Kind: "panel", ID: "dashboard"},
		{Name: "Settings", Aliases: []string{"preferences"},
			Action: orchestrator.ActionOpenPanel, Kind: "panel", ID: "settings"},
		{Name: "Trash", Aliases: []string{"bin", "deleted items"},
			Action: orchestrator.ActionOpenPanel, Kind: "panel", ID: "trash"},
	}
}

// navigationVerbs are the command verbs this router answers. Other verbs
// (create, delete, search) are left to later tiers.
var navigationVerbs = map[string]bool{
	"open": true, "show": true, "go to": true, "navigate to": true,
	"take me to": true, "switch to": true, "bring up": true,
}

var leadingArticles = []string{"the ", "my ", "a ", "an "}

// #endregion

// #region router

// Router implements orchestrator.KnownNounRouter.
type Router struct {
	nouns []Noun
	log   *zap.Logger
}

// NewRouter creates a router over nouns. nil nouns uses DefaultNouns.
func NewRouter(nouns []Noun, logger *zap.Logger) *Router {
	if nouns == nil {
		nouns = DefaultNouns()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Router{nouns: nouns, log: logger.Named("nouns")}
}

type candidate struct {
	action orchestrator.GroundingAction
	label  string
}

// Route resolves the request. Explicit commands accept exact and partial
// name matches; bare nouns accept exact matches only. Several matches come
// back as options.
func (r *Router) Route(_ context.Context, req orchestrator.RouteRequest) (orchestrator.RouteResult, error) {
	phrase, ok := r.phrase(req)
	if !ok {
		return orchestrator.RouteResult{}, nil
	}

	matches := r.collect(req, phrase, exactMatch)
	if len(matches) == 0 && !req.Bare {
		matches = r.collect(req, phrase, partialMatch)
	}

	r.log.Debug("route",
		zap.String("phrase", phrase), zap.Bool("bare", req.Bare), zap.Int("matches", len(matches)))

	switch len(matches) {
	case 0:
		return orchestrator.RouteResult{}, nil
	case 1:
		a := matches[0].action
		return orchestrator.RouteResult{Handled: true, TierLabel: TierLabel, Action: &a}, nil
	}

	opts := make([]clarify.Option, len(matches))
	for i, m := range matches {
		opts[i] = clarify.Option{ID: m.action.Target.ID, Label: m.label, Kind: m.action.Target.Kind}
	}
	return orchestrator.RouteResult{Handled: true, TierLabel: TierLabel, Options: opts}, nil
}

// phrase extracts the noun phrase to look up.
func (r *Router) phrase(req orchestrator.RouteRequest) (string, bool) {
	var p string
	if req.Bare {
		p = strings.TrimRight(classify.Normalize(req.Input), " .!")
	} else {
		cmd, ok := classify.ParseCommand(req.Input)
		if !ok || !navigationVerbs[cmd.Verb] {
			return "", false
		}
		p = cmd.Target
	}
	for _, a := range leadingArticles {
		p = strings.TrimPrefix(p, a)
	}
	p = strings.TrimSpace(p)
	return p, p != ""
}

type matchFunc func(phrase, name string) bool

func exactMatch(phrase, name string) bool {
	return phrase == classify.Normalize(name)
}

// partialMatch accepts a name that has a word starting with the phrase, e.g.
// "alpha" for "Project Alpha".
func partialMatch(phrase, name string) bool {
	n := classify.Normalize(name)
	if len(phrase) < 3 {
		return false
	}
	if strings.HasPrefix(n, phrase) {
		return true
	}
	return strings.Contains(n, " "+phrase)
}

// collect gathers distinct destinations in precedence order: built-in nouns,
// workspaces, panels, open widgets.
func (r *Router) collect(req orchestrator.RouteRequest, phrase string, match matchFunc) []candidate {
	var out []candidate
	seen := make(map[string]bool)
	add := func(c candidate) {
		key := c.action.Target.Kind + "\x00" + c.action.Target.ID
		if seen[key] {
			return
		}
		seen[key] = true
		out = append(out, c)
	}

	for _, n := range r.nouns {
		names := append([]string{n.Name}, n.Aliases...)
		for _, name := range names {
			if match(phrase, name) {
				add(candidate{label: n.Name, action: orchestrator.GroundingAction{
					Type:     n.Action,
					Target:   trace.Target{Kind: n.Kind, ID: n.ID, Name: n.Name},
					WidgetID: n.WidgetID,
				}})
				break
			}
		}
	}
	for _, ws := range req.Workspaces {
		if ws.ID != req.CurrentWorkspace && match(phrase, ws.Name) {
			add(catalogCandidate(orchestrator.ActionNavigateWorkspace, "workspace", ws))
		}
	}
	for _, p := range req.Panels {
		if match(phrase, p.Name) {
			add(catalogCandidate(orchestrator.ActionOpenPanel, "panel", p))
		}
	}
	for _, w := range req.Snapshot.OpenWidgets {
		if match(phrase, w.Label) {
			add(candidate{label: w.Label, action: orchestrator.GroundingAction{
				Type:     orchestrator.ActionOpenWidget,
				Target:   trace.Target{Kind: "widget", ID: w.ID, Name: w.Label},
				WidgetID: w.ID,
			}})
		}
	}
	return out
}

func catalogCandidate(action, kind string, e resolver.CatalogEntry) candidate {
	return candidate{label: e.Name, action: orchestrator.GroundingAction{
		Type:   action,
		Target: trace.Target{Kind: kind, ID: e.ID, Name: e.Name},
	}}
}

// #endregion
