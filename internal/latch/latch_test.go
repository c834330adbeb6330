package latch

import (
	"testing"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/danielpatrickdp/intent-arbiter/go-controller/internal/snapshot"
)

func snapWith(ids ...string) snapshot.TurnSnapshot {
	var ws []snapshot.Widget
	for _, id := range ids {
		ws = append(ws, snapshot.Widget{ID: id, Label: "label-" + id})
	}
	return snapshot.TurnSnapshot{OpenWidgets: ws}
}

func TestSet_ResolvedWhenTargetPresent(t *testing.T) {
	s := NewSlot(0)
	l := s.Set(snapWith("w1"), "w1", "", 100)

	assert.Equal(t, KindResolved, l.Kind)
	assert.Equal(t, "w1", l.WidgetID)
	assert.Equal(t, "label-w1", l.WidgetLabel)
	assert.Equal(t, int64(100), l.LatchedAtMs)
}

func TestSet_PendingWhenTargetMissing(t *testing.T) {
	s := NewSlot(0)
	l := s.Set(snapWith(), "w9", "Recent", 100)

	assert.Equal(t, KindPending, l.Kind)
	assert.Equal(t, "w9", l.PendingTargetID)
	assert.Empty(t, l.WidgetID)
}

func TestUpgrade_PreservesFields(t *testing.T) {
	s := NewSlot(0)
	s.Set(snapWith(), "w9", "Recent", 100)
	s.Advance() // set turn
	s.Advance() // one real turn

	require.False(t, s.Upgrade(snapWith("other")))
	require.True(t, s.Upgrade(snapWith("w9")))

	l := s.Get()
	require.NotNil(t, l)
	assert.Equal(t, KindResolved, l.Kind)
	assert.Equal(t, "w9", l.WidgetID)
	assert.Equal(t, "Recent", l.WidgetLabel)
	assert.Equal(t, int64(100), l.LatchedAtMs)
	assert.Equal(t, 1, l.TurnsSinceLatched)

	assert.False(t, s.Upgrade(snapWith("w9")), "resolved latch does not upgrade again")
}

func TestAdvance_PendingExpires(t *testing.T) {
	s := NewSlot(2)
	s.Set(snapWith(), "w9", "Recent", 0)

	s.Advance() // turn it was set on
	require.NotNil(t, s.Get())
	assert.Equal(t, 0, s.Get().TurnsSinceLatched)

	s.Advance()
	require.NotNil(t, s.Get())
	assert.Equal(t, 1, s.Get().TurnsSinceLatched)

	s.Advance()
	assert.Nil(t, s.Get(), "pending latch clears at 2 turns")
	assert.False(t, BlocksStaleChat(true, s.Get()))
}

func TestAdvance_ResolvedDoesNotExpire(t *testing.T) {
	s := NewSlot(2)
	s.Set(snapWith("w1"), "w1", "", 0)
	for i := 0; i < 5; i++ {
		s.Advance()
	}
	require.NotNil(t, s.Get())
	assert.Equal(t, 4, s.Get().TurnsSinceLatched)
}

func TestSuspendResume(t *testing.T) {
	s := NewSlot(0)
	assert.False(t, s.Suspend())

	s.Set(snapWith("w1"), "w1", "", 0)
	require.True(t, s.Suspend())
	assert.False(t, BlocksStaleChat(true, s.Get()))

	require.True(t, s.Resume())
	assert.True(t, BlocksStaleChat(true, s.Get()))
	assert.False(t, s.Resume())
}

func TestOnWidgetRegistered(t *testing.T) {
	reg := snapshot.NewMemoryRegistry(nil)
	s := NewSlot(0)
	reg.OnRegister(s.OnWidgetRegistered)

	s.Set(reg.BuildTurnSnapshot(), "w1", "Recent", 0)
	require.Equal(t, KindPending, s.Get().Kind)

	reg.Register(snapshot.Widget{ID: "w1", Label: "Recent"})
	assert.Equal(t, KindResolved, s.Get().Kind)
}

func TestResolveActiveWidgetID(t *testing.T) {
	resolved := &Latch{Kind: KindResolved, WidgetID: "w1"}
	got := ResolveActiveWidgetID(resolved, snapshot.TurnSnapshot{})
	assert.Equal(t, Target{WidgetID: "w1", Handled: true}, got)

	pending := &Latch{Kind: KindPending, PendingTargetID: "w9", WidgetLabel: "Recent"}
	got = ResolveActiveWidgetID(pending, snapshot.TurnSnapshot{
		OpenWidgets:            []snapshot.Widget{{ID: "w2", Label: "Files"}},
		ActiveSnapshotWidgetID: "w2",
	})
	assert.Equal(t, Target{WidgetID: "w2", Handled: true}, got)

	got = ResolveActiveWidgetID(pending, snapshot.TurnSnapshot{ActiveSnapshotWidgetID: "w-closed"})
	assert.Empty(t, got.WidgetID, "an active id with no open widget is not a fallback")
	assert.Equal(t, StillLoadingMessage("Recent"), got.Message)

	got = ResolveActiveWidgetID(pending, snapshot.TurnSnapshot{})
	assert.True(t, got.Handled)
	assert.Empty(t, got.WidgetID)
	assert.Equal(t, StillLoadingMessage("Recent"), got.Message)

	pending.TurnsSinceLatched = 1
	got = ResolveActiveWidgetID(pending, snapshot.TurnSnapshot{})
	assert.True(t, got.Handled)
	assert.Empty(t, got.Message, "still-loading message is only shown on the first turn")

	assert.Equal(t, Target{}, ResolveActiveWidgetID(nil, snapshot.TurnSnapshot{}))
}

func TestBlocksStaleChat_Property(t *testing.T) {
	params := gopter.DefaultTestParameters()
	params.MinSuccessfulTests = 200
	properties := gopter.NewProperties(params)

	properties.Property("blocks iff enabled, present and not suspended", prop.ForAll(
		func(enabled, present, suspended, pending bool) bool {
			var l *Latch
			if present {
				kind := KindResolved
				if pending {
					kind = KindPending
				}
				l = &Latch{Kind: kind, Suspended: suspended}
			}
			return BlocksStaleChat(enabled, l) == (enabled && present && !suspended)
		},
		gen.Bool(), gen.Bool(), gen.Bool(), gen.Bool(),
	))

	properties.TestingRun(t)
}
