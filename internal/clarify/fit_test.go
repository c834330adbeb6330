package clarify

import (
	"strings"
	"testing"
)

func TestClassifyResponseFit(t *testing.T) {
	th := DefaultThresholds()
	tests := []struct {
		name      string
		input     string
		options   []Option
		wantKind  FitKind
		wantIndex int
	}{
		{"ordinal", "the second one", testOptions, FitSelect, 1},
		{"exact label", "weekly report", testOptions, FitSelect, 2},
		{"distinctive token", "alpha", testOptions, FitSelect, 0},
		{"shared token is ambiguous", "project", testOptions, FitAskClarify, -1},
		{"unknown short hint", "zzz", testOptions, FitAskClarify, -1},
		{"only stopwords", "it is", testOptions, FitAskClarify, -1},
		{"unrelated request", "show me the weather forecast tomorrow", testOptions, FitNewTopic, -1},
		{"two weak matches", "marketing plan review", []Option{
			{Label: "Marketing Budget Summary Q3"},
			{Label: "Marketing Roadmap Summary Q4"},
		}, FitSoftReject, -1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ClassifyResponseFit(tt.input, tt.options, th, FitContext{})
			if got.Kind != tt.wantKind {
				t.Fatalf("kind: got %q, want %q (score %.2f)", got.Kind, tt.wantKind, got.Score)
			}
			if got.Index != tt.wantIndex {
				t.Errorf("index: got %d, want %d", got.Index, tt.wantIndex)
			}
		})
	}
}

func TestClassifyResponseFit_AmbiguousPromptNamesHint(t *testing.T) {
	got := ClassifyResponseFit("project", testOptions, DefaultThresholds(), FitContext{})
	if !strings.Contains(got.Prompt, `"project"`) {
		t.Errorf("prompt should reference the hinted token, got %q", got.Prompt)
	}
	if len(got.Candidates) != 2 {
		t.Errorf("candidates: got %v, want two", got.Candidates)
	}
}

func TestClassifyResponseFit_SoftRejectNamesTopTwo(t *testing.T) {
	opts := []Option{
		{Label: "Marketing Budget Summary Q3"},
		{Label: "Marketing Roadmap Summary Q4"},
	}
	got := ClassifyResponseFit("marketing plan review", opts, DefaultThresholds(), FitContext{})
	for _, o := range opts {
		if !strings.Contains(got.Prompt, o.Label) {
			t.Errorf("prompt %q should name %q", got.Prompt, o.Label)
		}
	}
}

func TestClassifyResponseFit_OriginalIntentDoesNotBlockNewTopic(t *testing.T) {
	opts := []Option{{ID: "a", Label: "Alpha plan"}, {ID: "b", Label: "Beta plan"}}
	for _, intent := range []string{"", "open notes"} {
		got := ClassifyResponseFit("meeting notes from monday", opts, DefaultThresholds(),
			FitContext{OriginalIntent: intent})
		if got.Kind != FitNewTopic {
			t.Errorf("intent %q: got %q, want %q", intent, got.Kind, FitNewTopic)
		}
	}
}

func TestClassifyResponseFit_ShortMissNamesOriginalIntent(t *testing.T) {
	got := ClassifyResponseFit("zebra", testOptions, DefaultThresholds(), FitContext{OriginalIntent: "open notes"})
	if got.Kind != FitAskClarify {
		t.Fatalf("got %q, want %q", got.Kind, FitAskClarify)
	}
	if !strings.Contains(got.Prompt, `"open notes"`) {
		t.Errorf("prompt should name the original request, got %q", got.Prompt)
	}
}

func TestClassifyResponseFit_NeverSelectsBelowConfirm(t *testing.T) {
	th := Thresholds{Execute: 0.99, Confirm: 0.98, Margin: 0.15}
	got := ClassifyResponseFit("alpha", testOptions, th, FitContext{})
	if got.Kind == FitSelect {
		t.Errorf("selected with score %.2f under execute threshold %.2f", got.Score, th.Execute)
	}
}

func TestEscalationPrompt(t *testing.T) {
	tests := []struct {
		attempt  int
		contains []string
		excludes []string
	}{
		{1, []string{"didn't catch that", "1. Project Alpha Notes"}, []string{"cancel"}},
		{2, []string{"none of these", "cancel", "3. Weekly Report"}, []string{"3-6 words"}},
		{3, []string{"3-6 words", "cancel"}, nil},
		{7, []string{"3-6 words"}, nil},
	}
	for _, tt := range tests {
		got := EscalationPrompt(tt.attempt, testOptions)
		for _, c := range tt.contains {
			if !strings.Contains(got, c) {
				t.Errorf("attempt %d: %q missing %q", tt.attempt, got, c)
			}
		}
		for _, c := range tt.excludes {
			if strings.Contains(got, c) {
				t.Errorf("attempt %d: %q should not contain %q", tt.attempt, got, c)
			}
		}
	}
}
