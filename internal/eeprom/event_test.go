package eeprom

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEvent_RoundTrip(t *testing.T) {
	for _, code := range []int{0, 1, 16, 22, 127} {
		for _, ack := range []bool{false, true} {
			ev := Event{
				Version: "NanoWatchdog v2.1.0",
				Time:    1700000000,
				Reason:  code,
				Ack:     ack,
			}
			got := UnmarshalEvent(ev.Marshal())
			assert.Equal(t, ev, got, "reason %d ack %v", code, ack)
		}
	}
}

func TestEvent_MarshalIsDeterministic(t *testing.T) {
	ev := NewEvent("NanoWatchdog v2.1.0", 1700000060, 1)
	assert.Equal(t, ev.Marshal(), ev.Marshal())
}

func TestEvent_PackedByte(t *testing.T) {
	ev := Event{Version: "v", Time: 1, Reason: 22, Ack: true}
	buf := ev.Marshal()
	assert.Equal(t, byte(0x80|22), buf[EventSize-1])

	ev.Ack = false
	buf = ev.Marshal()
	assert.Equal(t, byte(22), buf[EventSize-1])
}

func TestEvent_VersionTruncation(t *testing.T) {
	long := "NanoWatchdog with an unreasonably long version banner"
	ev := Event{Version: long, Time: 42, Reason: 1}
	got := UnmarshalEvent(ev.Marshal())
	require.Len(t, got.Version, VersionSize-1)
	assert.Equal(t, long[:VersionSize-1], got.Version)
}

func TestEvent_IsNull(t *testing.T) {
	assert.True(t, Event{}.IsNull())
	assert.False(t, Event{Time: 1}.IsNull())
}

func TestEvent_Display(t *testing.T) {
	ev := Event{Version: "NanoWatchdog v2.1.0", Time: 1700000000, Reason: 22, Ack: false}
	out := ev.Display("    ")
	assert.Contains(t, out, "    reason: 22 (external command)\n")
	assert.Contains(t, out, "    acknowledged: no\n")
	assert.Contains(t, out, "    date: 2023-11-14 22:13:20 UTC\n")
}

func TestDateTimeString(t *testing.T) {
	assert.Equal(t, "1970-01-01 00:00:00 UTC", DateTimeString(0))
	assert.Equal(t, "2023-11-14 22:13:20 UTC", DateTimeString(1700000000))
}
