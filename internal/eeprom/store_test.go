package eeprom

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testVersion = "NanoWatchdog v2.1.0"

func TestStore_EraseLeavesNullSlots(t *testing.T) {
	s := NewStore(NewRAMMemory())
	require.NoError(t, s.Erase())

	count, err := s.ResetEventCount()
	require.NoError(t, err)
	assert.Zero(t, count)

	for i := 0; i < MaxResetEvents; i++ {
		ev, err := s.ResetEvent(i)
		require.NoError(t, err)
		assert.True(t, ev.IsNull(), "slot %d", i)
	}
}

func TestStore_InitEvent(t *testing.T) {
	s := NewStore(NewRAMMemory())
	ev := NewEvent(testVersion, 1700000000, 0)
	ev.Ack = true
	require.NoError(t, s.SetInitEvent(ev))

	got, err := s.InitEvent()
	require.NoError(t, err)
	assert.Equal(t, ev, got)
}

func TestStore_PushOrdersMostRecentFirst(t *testing.T) {
	s := NewStore(NewRAMMemory())
	for i := 0; i < 3; i++ {
		ev := NewEvent(testVersion, int64(1000+i), 1)
		require.NoError(t, s.PushResetEvent(ev))
	}

	count, err := s.ResetEventCount()
	require.NoError(t, err)
	assert.Equal(t, 3, count)

	for slot, want := range []int64{1002, 1001, 1000} {
		ev, err := s.ResetEvent(slot)
		require.NoError(t, err)
		assert.Equal(t, want, ev.Time, "slot %d", slot)
	}
}

func TestStore_CountSaturatesAtTen(t *testing.T) {
	s := NewStore(NewRAMMemory())
	for i := 0; i < 11; i++ {
		require.NoError(t, s.PushResetEvent(NewEvent(testVersion, int64(2000+i), 1)))
	}

	count, err := s.ResetEventCount()
	require.NoError(t, err)
	assert.Equal(t, MaxResetEvents, count)

	// The eleventh push discarded the oldest record.
	newest, err := s.ResetEvent(0)
	require.NoError(t, err)
	assert.Equal(t, int64(2010), newest.Time)

	oldest, err := s.ResetEvent(MaxResetEvents - 1)
	require.NoError(t, err)
	assert.Equal(t, int64(2001), oldest.Time)
}

func TestStore_SlotIndexBounds(t *testing.T) {
	s := NewStore(NewRAMMemory())
	_, err := s.ResetEvent(-1)
	assert.Error(t, err)
	_, err = s.ResetEvent(MaxResetEvents)
	assert.Error(t, err)
}

func TestStore_WriteIsIdempotent(t *testing.T) {
	mem := NewRAMMemory()
	s := NewStore(mem)
	ev := NewEvent(testVersion, 1700000000, 22)

	require.NoError(t, s.SetResetEvent(ev, 0))
	var first [EventSize]byte
	require.NoError(t, mem.ReadAt(ResetEventAddr, first[:]))

	require.NoError(t, s.SetResetEvent(ev, 0))
	var second [EventSize]byte
	require.NoError(t, mem.ReadAt(ResetEventAddr, second[:]))

	assert.Equal(t, first, second)
}

func TestFileMemory_PersistsAcrossReopen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "eeprom.img")

	mem, err := OpenFileMemory(path)
	require.NoError(t, err)
	s := NewStore(mem)
	require.NoError(t, s.PushResetEvent(NewEvent(testVersion, 1700000060, 1)))

	reopened, err := OpenFileMemory(path)
	require.NoError(t, err)
	s2 := NewStore(reopened)

	count, err := s2.ResetEventCount()
	require.NoError(t, err)
	assert.Equal(t, 1, count)

	ev, err := s2.ResetEvent(0)
	require.NoError(t, err)
	assert.Equal(t, int64(1700000060), ev.Time)
	assert.Equal(t, 1, ev.Reason)
}

func TestMemory_Bounds(t *testing.T) {
	for name, mem := range map[string]Memory{
		"ram": NewRAMMemory(),
	} {
		t.Run(name, func(t *testing.T) {
			buf := make([]byte, 8)
			assert.Error(t, mem.ReadAt(-1, buf))
			assert.Error(t, mem.ReadAt(Size-4, buf))
			assert.Error(t, mem.WriteAt(Size, buf))
		})
	}
}
