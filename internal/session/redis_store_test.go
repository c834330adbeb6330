package session

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/danielpatrickdp/intent-arbiter/go-controller/internal/clarify"
	"github.com/danielpatrickdp/intent-arbiter/go-controller/internal/latch"
	"github.com/danielpatrickdp/intent-arbiter/go-controller/internal/orchestrator"
	"github.com/danielpatrickdp/intent-arbiter/go-controller/internal/snapshot"
)

func setupTestRedis(t *testing.T, ttl time.Duration) (*RedisStore, *miniredis.Miniredis) {
	t.Helper()
	s := miniredis.RunT(t)
	store, err := NewRedisStore("redis://"+s.Addr(), ttl)
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })
	return store, s
}

func TestNewRedisStore(t *testing.T) {
	store, _ := setupTestRedis(t, 0)
	assert.NoError(t, store.Ping(context.Background()))
	assert.Equal(t, DefaultTTL, store.ttl)
}

func TestNewRedisStore_BadURL(t *testing.T) {
	_, err := NewRedisStore("not a url", time.Minute)
	assert.Error(t, err)
}

func TestSaveAndLoad(t *testing.T) {
	store, _ := setupTestRedis(t, time.Minute)
	ctx := context.Background()

	want := State{
		Latch: &latch.Latch{
			Kind: latch.KindResolved, WidgetID: "w1", WidgetLabel: "Recent Items",
			LatchedAtMs: 1000, TurnsSinceLatched: 2,
		},
		Clarification: &clarify.Snapshot{
			Options:        []clarify.Option{{ID: "a", Label: "Alpha"}, {ID: "b", Label: "Beta"}},
			OriginalIntent: "open notes",
			TimestampMs:    900,
			Paused:         true,
			PausedReason:   clarify.PauseInterrupt,
			Attempts:       1,
		},
		SavedAt: time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC),
	}
	require.NoError(t, store.Save(ctx, "s1", want))

	got, err := store.Load(ctx, "s1")
	require.NoError(t, err)
	assert.Equal(t, want, got)
}

func TestLoad_Unknown(t *testing.T) {
	store, _ := setupTestRedis(t, time.Minute)
	_, err := store.Load(context.Background(), "nobody")
	assert.True(t, errors.Is(err, ErrNotFound), "got %v", err)
}

func TestLoad_Expired(t *testing.T) {
	store, mr := setupTestRedis(t, time.Minute)
	ctx := context.Background()
	require.NoError(t, store.Save(ctx, "s1", State{}))

	mr.FastForward(2 * time.Minute)

	_, err := store.Load(ctx, "s1")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestSave_RefreshesTTL(t *testing.T) {
	store, mr := setupTestRedis(t, time.Minute)
	ctx := context.Background()
	require.NoError(t, store.Save(ctx, "s1", State{}))

	mr.FastForward(40 * time.Second)
	require.NoError(t, store.Save(ctx, "s1", State{}))
	mr.FastForward(40 * time.Second)

	_, err := store.Load(ctx, "s1")
	assert.NoError(t, err)
	assert.Equal(t, time.Minute, mr.TTL(store.key("s1")))
}

func TestDelete(t *testing.T) {
	store, mr := setupTestRedis(t, time.Minute)
	ctx := context.Background()
	require.NoError(t, store.Save(ctx, "s1", State{}))
	require.True(t, mr.Exists("arbiter:session:s1"))

	require.NoError(t, store.Delete(ctx, "s1"))
	assert.False(t, mr.Exists("arbiter:session:s1"))
	assert.NoError(t, store.Delete(ctx, "s1"), "deleting twice is not an error")
}

func TestLoad_CorruptValue(t *testing.T) {
	store, mr := setupTestRedis(t, time.Minute)
	require.NoError(t, mr.Set("arbiter:session:s1", "{not json"))
	_, err := store.Load(context.Background(), "s1")
	assert.Error(t, err)
	assert.False(t, errors.Is(err, ErrNotFound))
}

func TestCaptureApply_RoundTrip(t *testing.T) {
	store, _ := setupTestRedis(t, time.Minute)
	ctx := context.Background()

	reg := snapshot.NewMemoryRegistry(nil)
	sess := orchestrator.NewSession("s1", orchestrator.SessionConfig{}, nil, nil)
	sess.Latch.Set(reg.BuildTurnSnapshot(), "w-pending", "Recent Items", 100)
	sess.Latch.Suspend()
	sess.Clarification.Set([]clarify.Option{{ID: "a", Label: "Alpha"}}, "open", "doc", 100)

	require.NoError(t, store.Save(ctx, "s1", Capture(sess)))

	st, err := store.Load(ctx, "s1")
	require.NoError(t, err)

	fresh := orchestrator.NewSession("s1", orchestrator.SessionConfig{}, nil, nil)
	st.Apply(fresh)

	assert.Equal(t, sess.Latch.Get(), fresh.Latch.Get())
	assert.Equal(t, sess.Clarification.Get(), fresh.Clarification.Get())

	l := fresh.Latch.Get()
	require.NotNil(t, l)
	assert.Equal(t, latch.KindPending, l.Kind)
	assert.True(t, l.Suspended)
}

func TestApply_EmptyStateClears(t *testing.T) {
	reg := snapshot.NewMemoryRegistry(nil)
	sess := orchestrator.NewSession("s1", orchestrator.SessionConfig{}, nil, nil)
	sess.Latch.Set(reg.BuildTurnSnapshot(), "w1", "", 0)
	sess.Clarification.Set([]clarify.Option{{ID: "a", Label: "Alpha"}}, "", "", 0)

	State{}.Apply(sess)

	assert.Nil(t, sess.Latch.Get())
	assert.Nil(t, sess.Clarification.Get())
}
