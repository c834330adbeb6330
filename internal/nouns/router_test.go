package nouns

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/danielpatrickdp/intent-arbiter/go-controller/internal/orchestrator"
	"github.com/danielpatrickdp/intent-arbiter/go-controller/internal/resolver"
	"github.com/danielpatrickdp/intent-arbiter/go-controller/internal/snapshot"
)

func request(input string, bare bool) orchestrator.RouteRequest {
	return orchestrator.RouteRequest{
		Input:            input,
		Bare:             bare,
		CurrentWorkspace: "ws-home",
		Workspaces: []resolver.CatalogEntry{
			{ID: "ws-home", Name: "Home Base"},
			{ID: "ws-alpha", Name: "Project Alpha"},
			{ID: "ws-alpine", Name: "Alpine Trip"},
		},
		Panels: []resolver.CatalogEntry{
			{ID: "p-notes", Name: "Notes"},
			{ID: "p-alpha", Name: "Alpha Notes"},
		},
		Snapshot: snapshot.TurnSnapshot{OpenWidgets: []snapshot.Widget{
			{ID: "recent", Label: "Recent"},
			{ID: "w-cal", Label: "Calendar"},
		}},
	}
}

func TestRoute_SingleMatch(t *testing.T) {
	r := NewRouter(nil, nil)
	tests := []struct {
		input      string
		bare       bool
		wantType   string
		wantID     string
		wantWidget string
	}{
		{"open recent", false, orchestrator.ActionOpenWidget, "recent", "recent"},
		{"show me the recent items", false, orchestrator.ActionOpenWidget, "recent", "recent"},
		{"go to settings please", false, orchestrator.ActionOpenPanel, "settings", ""},
		{"take me to project alpha", false, orchestrator.ActionNavigateWorkspace, "ws-alpha", ""},
		{"open notes", false, orchestrator.ActionOpenPanel, "p-notes", ""},
		{"open calendar", false, orchestrator.ActionOpenWidget, "w-cal", "w-cal"},
		{"open alpine", false, orchestrator.ActionNavigateWorkspace, "ws-alpine", ""},
		{"dashboard", true, orchestrator.ActionOpenPanel, "dashboard", ""},
		{"Quick Links!", true, orchestrator.ActionOpenWidget, "quick-links", "quick-links"},
		{"the calendar", true, orchestrator.ActionOpenWidget, "w-cal", "w-cal"},
	}
	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			res, err := r.Route(context.Background(), request(tt.input, tt.bare))
			require.NoError(t, err)
			require.True(t, res.Handled)
			require.NotNil(t, res.Action)
			assert.Equal(t, TierLabel, res.TierLabel)
			assert.Equal(t, tt.wantType, res.Action.Type)
			assert.Equal(t, tt.wantID, res.Action.Target.ID)
			assert.Equal(t, tt.wantWidget, res.Action.WidgetID)
		})
	}
}

func TestRoute_MultipleMatchesOfferOptions(t *testing.T) {
	r := NewRouter(nil, nil)
	res, err := r.Route(context.Background(), request("open alpha", false))
	require.NoError(t, err)
	require.True(t, res.Handled)
	assert.Nil(t, res.Action)
	require.Len(t, res.Options, 2)
	assert.Equal(t, "Project Alpha", res.Options[0].Label)
	assert.Equal(t, "workspace", res.Options[0].Kind)
	assert.Equal(t, "Alpha Notes", res.Options[1].Label)
	assert.Equal(t, "p-alpha", res.Options[1].ID)
}

func TestRoute_ExactBeatsPartial(t *testing.T) {
	r := NewRouter(nil, nil)
	// "notes" is exact for the Notes panel, partial for Alpha Notes.
	res, err := r.Route(context.Background(), request("open notes", false))
	require.NoError(t, err)
	require.NotNil(t, res.Action)
	assert.Equal(t, "p-notes", res.Action.Target.ID)
}

func TestRoute_Declines(t *testing.T) {
	r := NewRouter(nil, nil)
	tests := []struct {
		name  string
		input string
		bare  bool
	}{
		{"non-navigation verb", "delete recent", false},
		{"not a command", "what is recent", false},
		{"unknown target", "open the moon", false},
		{"bare partial", "alpha", true},
		{"current workspace", "go to home base", false},
		{"short partial", "open al", false},
		{"bare empty", "   ", true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res, err := r.Route(context.Background(), request(tt.input, tt.bare))
			require.NoError(t, err)
			assert.False(t, res.Handled)
		})
	}
}

func TestRoute_OpenWidgetDedupesWithBuiltin(t *testing.T) {
	r := NewRouter(nil, nil)
	// The Recent widget is both a built-in noun and open in the snapshot.
	res, err := r.Route(context.Background(), request("recent", true))
	require.NoError(t, err)
	require.NotNil(t, res.Action)
	assert.Empty(t, res.Options)
}

func TestRoute_CustomNouns(t *testing.T) {
	r := NewRouter([]Noun{{Name: "Inbox", Action: orchestrator.ActionOpenPanel, Kind: "panel", ID: "inbox"}}, nil)
	res, err := r.Route(context.Background(), orchestrator.RouteRequest{Input: "open inbox"})
	require.NoError(t, err)
	require.NotNil(t, res.Action)
	assert.Equal(t, "inbox", res.Action.Target.ID)

	res, err = r.Route(context.Background(), orchestrator.RouteRequest{Input: "open settings"})
	require.NoError(t, err)
	assert.False(t, res.Handled, "defaults are replaced, not merged")
}
