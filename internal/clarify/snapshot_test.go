package clarify

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testOptions = []Option{
	{ID: "o1", Label: "Project Alpha Notes"},
	{ID: "o2", Label: "Project Beta Notes"},
	{ID: "o3", Label: "Weekly Report"},
}

func TestSlot_SetGetClear(t *testing.T) {
	s := NewSlot(0, 0)
	assert.Nil(t, s.Get())

	s.Set(testOptions, "open notes", "panel", 1000)
	got := s.Get()
	require.NotNil(t, got)
	assert.Equal(t, []string{"Project Alpha Notes", "Project Beta Notes", "Weekly Report"}, got.Labels())
	assert.True(t, got.Active())

	got.Options[0].Label = "mutated"
	assert.Equal(t, "Project Alpha Notes", s.Get().Options[0].Label, "Get returns a copy")

	s.Clear()
	assert.Nil(t, s.Get())
}

func TestSlot_Pause(t *testing.T) {
	s := NewSlot(0, 0)
	assert.False(t, s.Pause(PauseInterrupt))

	s.Set(testOptions, "", "", 0)
	require.True(t, s.Pause(PauseInterrupt))
	got := s.Get()
	assert.False(t, got.Active())
	assert.Equal(t, PauseInterrupt, got.PausedReason)
}

func TestSlot_AdvanceExpiresByTurns(t *testing.T) {
	s := NewSlot(2, time.Hour)
	s.Set(testOptions, "", "", 0)

	s.Advance(10) // turn it was shown on
	assert.Equal(t, 0, s.Get().TurnsSinceSet)
	s.Advance(20)
	s.Advance(30)
	require.NotNil(t, s.Get())
	assert.Equal(t, 2, s.Get().TurnsSinceSet)

	s.Advance(40)
	assert.Nil(t, s.Get())
}

func TestSlot_ExpireByAge(t *testing.T) {
	s := NewSlot(10, time.Second)
	s.Set(testOptions, "", "", 1000)

	assert.False(t, s.Expire(1500))
	assert.NotNil(t, s.Get())
	assert.True(t, s.Expire(2001))
	assert.Nil(t, s.Get())
}

func TestSlot_RecordAttempt(t *testing.T) {
	s := NewSlot(0, 0)
	assert.Equal(t, 0, s.RecordAttempt())
	s.Set(testOptions, "", "", 0)
	assert.Equal(t, 1, s.RecordAttempt())
	assert.Equal(t, 2, s.RecordAttempt())
}

func TestSlot_Restore(t *testing.T) {
	s := NewSlot(0, 0)
	s.Restore(&Snapshot{Options: testOptions, Paused: true, PausedReason: PauseStop})
	got := s.Get()
	require.NotNil(t, got)
	assert.Equal(t, PauseStop, got.PausedReason)

	s.Restore(nil)
	assert.Nil(t, s.Get())
}
