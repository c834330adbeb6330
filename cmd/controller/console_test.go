package main

import (
	"bytes"
	"context"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/danielpatrickdp/intent-arbiter/go-controller/internal/nouns"
	"github.com/danielpatrickdp/intent-arbiter/go-controller/internal/orchestrator"
	"github.com/danielpatrickdp/intent-arbiter/go-controller/internal/snapshot"
	"github.com/danielpatrickdp/intent-arbiter/go-controller/internal/trace"
)

func newTestConsole(t *testing.T) (*console, *bytes.Buffer, *int) {
	t.Helper()
	orch := orchestrator.New(orchestrator.Config{
		Features: orchestrator.Features{FocusLatch: true, SemanticAnswers: true},
	}, orchestrator.Deps{Nouns: nouns.NewRouter(nil, nil)}, nil)
	sess := orchestrator.NewSession("console-test", orchestrator.SessionConfig{}, nil, nil)
	reg := snapshot.NewMemoryRegistry(nil)
	reg.OnRegister(sess.Latch.OnWidgetRegistered)

	saves := 0
	var out bytes.Buffer
	return &console{
		orch:      orch,
		sess:      sess,
		reg:       reg,
		out:       &out,
		freshness: snapshot.DefaultFreshnessThreshold,
		afterTurn: func(context.Context) { saves++ },
	}, &out, &saves
}

func TestParseWidget(t *testing.T) {
	w, err := parseWidget("recent Recent items | Kickoff agenda |  | Design review")
	require.NoError(t, err)
	assert.Equal(t, "recent", w.ID)
	assert.Equal(t, "Recent items", w.Label)
	require.Len(t, w.Items, 2)
	assert.Equal(t, snapshot.Item{ID: "recent-2", Label: "Design review"}, w.Items[1])

	w, err = parseWidget("links")
	require.NoError(t, err)
	assert.Equal(t, "links", w.Label)
	assert.Empty(t, w.Items)

	_, err = parseWidget("   ")
	assert.Error(t, err)
}

func TestConsole_LatchFlow(t *testing.T) {
	c, out, saves := newTestConsole(t)
	in := strings.Join([]string{
		"open recent",
		"/register recent Recent | Kickoff agenda | Design review | Retro notes",
		"the second one",
		"/latch",
		"/trace",
		"/quit",
		"never reached",
	}, "\n")

	require.NoError(t, c.run(context.Background(), strings.NewReader(in)))

	text := out.String()
	assert.Contains(t, text, "[explicit_command] open_widget -> recent")
	assert.Contains(t, text, "registered recent (3 items)")
	assert.Contains(t, text, "[focus_latch] select_widget_item -> recent-2")
	assert.Contains(t, text, "latch: resolved recent")
	assert.Contains(t, text, "via focus_latch")
	assert.NotContains(t, text, "never reached")
	assert.Equal(t, 2, *saves, "one save per chat turn")
}

func TestConsole_DismissAndUnknown(t *testing.T) {
	c, out, saves := newTestConsole(t)
	ctx := context.Background()
	snap := c.reg.BuildTurnSnapshot()

	assert.False(t, c.handleLine(ctx, "/ui dismiss", snap))
	assert.Contains(t, out.String(), "no list to dismiss")

	c.sess.Clarification.Set(nil, "budget", "retrieval", 1)
	out.Reset()
	c.handleLine(ctx, "/ui dismiss", snap)
	assert.Contains(t, out.String(), "list dismissed")
	assert.Equal(t, 1, *saves)

	out.Reset()
	c.handleLine(ctx, "/bogus", snap)
	assert.Contains(t, out.String(), "unknown command /bogus")

	out.Reset()
	c.handleLine(ctx, "/open nothing", snap)
	assert.Contains(t, out.String(), `no open widget "nothing"`)
}

func TestConsole_StaleSnapshotRebuilt(t *testing.T) {
	c, out, _ := newTestConsole(t)
	c.now = func() time.Time { return time.Now().Add(time.Minute) }

	stale := c.reg.BuildTurnSnapshot()
	c.reg.Register(snapshot.Widget{ID: "notes", Label: "Notes"})

	c.handleLine(context.Background(), "open notes", stale)
	assert.Contains(t, out.String(), "open_widget -> notes",
		"the stale snapshot lacked the widget; the rebuilt one has it")
}

func TestConsole_UnhandledMessage(t *testing.T) {
	c, out, _ := newTestConsole(t)
	c.handleLine(context.Background(), "zzqx", c.reg.BuildTurnSnapshot())
	assert.Contains(t, out.String(), "[none]")
}

func TestConsole_UIOpenRecordsDirectAction(t *testing.T) {
	c, out, saves := newTestConsole(t)
	ctx := context.Background()

	c.handleLine(ctx, "/ui open budget", c.reg.BuildTurnSnapshot())
	assert.Contains(t, out.String(), "open_panel budget (direct)")
	assert.Equal(t, 1, *saves)
	require.Len(t, c.sess.Ledger.History(), 1)
	entries := c.sess.Ledger.Entries()
	require.Len(t, entries, 1)
	assert.Equal(t, trace.SourceDirectUI, entries[0].Source)

	out.Reset()
	c.handleLine(ctx, "why did you do that?", c.reg.BuildTurnSnapshot())
	assert.Contains(t, out.String(), `I opened "budget".`)
	assert.NotContains(t, out.String(), "because")

	c.reg.Register(snapshot.Widget{ID: "notes", Label: "Notes"})
	out.Reset()
	c.handleLine(ctx, "/ui open notes", c.reg.BuildTurnSnapshot())
	assert.Contains(t, out.String(), "open_widget notes (direct)")
	assert.Equal(t, "notes", c.reg.BuildTurnSnapshot().ActiveSnapshotWidgetID)

	out.Reset()
	c.handleLine(ctx, "/ui open", c.reg.BuildTurnSnapshot())
	assert.Contains(t, out.String(), "usage: /ui dismiss | /ui open <id>")
}
