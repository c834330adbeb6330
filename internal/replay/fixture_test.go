package replay

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

// #region fixture-tests

// runFixture replays a testdata fixture and fails on every expectation miss.
func runFixture(t *testing.T, name string) []TurnResult {
	t.Helper()
	f, err := LoadFixture(filepath.Join("testdata", name))
	if err != nil {
		t.Fatalf("LoadFixture: %v", err)
	}
	results, err := Replay(context.Background(), f, Options{})
	if err != nil {
		t.Fatalf("Replay: %v", err)
	}
	for _, r := range results {
		for _, m := range r.Mismatches {
			t.Errorf("step %d (%q): %s (reason: %s)", r.Step, r.Input, m, r.Reason)
		}
	}
	return results
}

// TestFixture_LatchSession is the regression baseline for the focus latch:
// pending latch, upgrade on registration, ordinal against the live widget.
func TestFixture_LatchSession(t *testing.T) {
	results := runFixture(t, "latch_session.yaml")
	if len(results) != 4 {
		t.Fatalf("expected 4 turns, got %d", len(results))
	}
}

// TestFixture_ClarificationSession covers list selection, interrupt-paused
// capture and UI dismissal.
func TestFixture_ClarificationSession(t *testing.T) {
	results := runFixture(t, "clarification_session.yaml")
	s := Summarize(results)
	if s.TotalTurns != 7 {
		t.Fatalf("expected 7 turns, got %d", s.TotalTurns)
	}
	if s.ByTier["retrieval"] != 3 {
		t.Errorf("retrieval turns: got %d, want 3", s.ByTier["retrieval"])
	}
	if s.Unhandled != 1 {
		t.Errorf("unhandled turns: got %d, want 1", s.Unhandled)
	}
}

// TestFixture_UIActionSession checks that a direct UI action lands in the
// history once and is explained without a chat cause.
func TestFixture_UIActionSession(t *testing.T) {
	results := runFixture(t, "ui_action_session.yaml")
	if len(results) != 1 {
		t.Fatalf("expected 1 turn, got %d", len(results))
	}
	if results[0].Step != 2 {
		t.Errorf("step: got %d, want 2", results[0].Step)
	}
}

func TestLoadFixture_NotFound(t *testing.T) {
	_, err := LoadFixture("testdata/nonexistent.yaml")
	if err == nil {
		t.Fatal("expected error for missing file, got nil")
	}
}

func TestLoadFixture_Malformed(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "bad.yaml")
	if err := os.WriteFile(path, []byte("steps: [say: {"), 0644); err != nil {
		t.Fatalf("write temp file: %v", err)
	}

	_, err := LoadFixture(path)
	if err == nil {
		t.Fatal("expected error for malformed YAML, got nil")
	}
}

func TestParseFixture_InvalidSteps(t *testing.T) {
	tests := []struct {
		name string
		body string
		want string
	}{
		{"empty step", "steps:\n  - advance_ms: 10\n", "exactly one event"},
		{"two events", "steps:\n  - say: hi\n    dismiss: true\n", "exactly one event"},
		{"expect on ui event", "steps:\n  - dismiss: true\n    expect:\n      tier: none\n", "need a say step"},
		{"widget without id", "steps:\n  - register:\n      label: Recent\n", "needs an id"},
		{"ui action without target", "steps:\n  - ui_action:\n      type: open_panel\n", "needs a type and a target"},
		{"ui action with say", "steps:\n  - say: hi\n    ui_action:\n      type: open_panel\n      target: {kind: panel, id: p}\n", "exactly one event"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseFixture([]byte(tt.body))
			if err == nil {
				t.Fatal("expected validation error")
			}
			if !strings.Contains(err.Error(), tt.want) {
				t.Errorf("got %q, want it to mention %q", err, tt.want)
			}
		})
	}
}

func TestFixture_MarshalRoundTrip(t *testing.T) {
	f, err := LoadFixture(filepath.Join("testdata", "latch_session.yaml"))
	if err != nil {
		t.Fatalf("LoadFixture: %v", err)
	}
	data, err := f.Marshal()
	if err != nil {
		t.Fatalf("Marshal: %v", err)
	}
	back, err := ParseFixture(data)
	if err != nil {
		t.Fatalf("ParseFixture: %v", err)
	}
	if len(back.Steps) != len(f.Steps) || back.Steps[1].Register == nil || len(back.Steps[1].Register.Items) != 3 {
		t.Errorf("round trip lost steps: %+v", back.Steps)
	}
}

// #endregion fixture-tests
