package replay

import (
	"errors"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/danielpatrickdp/intent-arbiter/go-controller/internal/nouns"
	"github.com/danielpatrickdp/intent-arbiter/go-controller/internal/orchestrator"
	"github.com/danielpatrickdp/intent-arbiter/go-controller/internal/resolver"
	"github.com/danielpatrickdp/intent-arbiter/go-controller/internal/snapshot"
)

// #region fixture-types

// Fixture is a recorded conversation: the UI catalog it ran against and the
// ordered steps (chat turns and UI events) with optional expectations.
type Fixture struct {
	Description      string                  `yaml:"description"`
	Features         *orchestrator.Features  `yaml:"features,omitempty"`
	CurrentWorkspace string                  `yaml:"current_workspace,omitempty"`
	Workspaces       []resolver.CatalogEntry `yaml:"workspaces,omitempty"`
	Panels           []resolver.CatalogEntry `yaml:"panels,omitempty"`
	Nouns            []nouns.Noun            `yaml:"nouns,omitempty"`
	Documents        []Document              `yaml:"documents,omitempty"`
	Steps            []Step                  `yaml:"steps"`
}

// Document is an entry of the fixture's in-memory document index.
type Document struct {
	ID      string  `yaml:"id"`
	Kind    string  `yaml:"kind,omitempty"`
	Title   string  `yaml:"title"`
	Snippet string  `yaml:"snippet,omitempty"`
	Score   float64 `yaml:"score"`
}

// Step is exactly one of: a chat turn (Say), a widget registering, a widget
// closing, a widget gaining focus, the UI dismissing the open list, or an
// action the user took directly in the UI. AdvanceMs moves the clock before
// the step runs.
type Step struct {
	Say        string                        `yaml:"say,omitempty"`
	Register   *snapshot.Widget              `yaml:"register,omitempty"`
	Unregister string                        `yaml:"unregister,omitempty"`
	Activate   string                        `yaml:"activate,omitempty"`
	Dismiss    bool                          `yaml:"dismiss,omitempty"`
	UIAction   *orchestrator.GroundingAction `yaml:"ui_action,omitempty"`
	AdvanceMs  int64                         `yaml:"advance_ms,omitempty"`
	Expect     *Expectation                  `yaml:"expect,omitempty"`
}

// Expectation is what a chat turn should produce. Empty fields are not
// checked. History is the action-history length after the turn.
type Expectation struct {
	Tier            string   `yaml:"tier,omitempty"`
	Handled         *bool    `yaml:"handled,omitempty"`
	Action          string   `yaml:"action,omitempty"`
	Target          string   `yaml:"target,omitempty"`
	Options         *int     `yaml:"options,omitempty"`
	MessageContains string   `yaml:"message_contains,omitempty"`
	MessageExcludes []string `yaml:"message_excludes,omitempty"`
	History         *int     `yaml:"history,omitempty"`
}

// #endregion fixture-types

// #region fixture-loader

// LoadFixture reads and parses a YAML fixture file.
func LoadFixture(path string) (*Fixture, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read fixture %s: %w", path, err)
	}
	f, err := ParseFixture(data)
	if err != nil {
		return nil, fmt.Errorf("parse fixture %s: %w", path, err)
	}
	return f, nil
}

// ParseFixture decodes and validates a fixture document.
func ParseFixture(data []byte) (*Fixture, error) {
	var f Fixture
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, err
	}
	if err := f.Validate(); err != nil {
		return nil, err
	}
	return &f, nil
}

// Validate checks that every step names exactly one event and that
// expectations only sit on chat turns.
func (f *Fixture) Validate() error {
	var errs []error
	for i, s := range f.Steps {
		n := 0
		for _, set := range []bool{s.Say != "", s.Register != nil, s.Unregister != "", s.Activate != "", s.Dismiss, s.UIAction != nil} {
			if set {
				n++
			}
		}
		if n != 1 {
			errs = append(errs, fmt.Errorf("step %d: want exactly one event, got %d", i+1, n))
			continue
		}
		if s.Expect != nil && s.Say == "" {
			errs = append(errs, fmt.Errorf("step %d: expectations need a say step", i+1))
		}
		if s.Register != nil && s.Register.ID == "" {
			errs = append(errs, fmt.Errorf("step %d: registered widget needs an id", i+1))
		}
		if a := s.UIAction; a != nil && (a.Type == "" || a.Target.Identity() == "") {
			errs = append(errs, fmt.Errorf("step %d: ui action needs a type and a target", i+1))
		}
	}
	return errors.Join(errs...)
}

// Marshal renders the fixture as YAML.
func (f *Fixture) Marshal() ([]byte, error) {
	return yaml.Marshal(f)
}

// features returns the fixture's switches, defaulting to latch and semantic
// answers on with the model fallback off.
func (f *Fixture) features() orchestrator.Features {
	if f.Features != nil {
		return *f.Features
	}
	return orchestrator.Features{FocusLatch: true, SemanticAnswers: true}
}

// #endregion fixture-loader
