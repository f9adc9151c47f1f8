package eeprom

import (
	"encoding/binary"
	"fmt"
	"strings"
	"time"

	"github.com/nanowatch/nanowatchdog/internal/reason"
)

// VersionSize is the size of the serialized version string, including the
// null terminator.
const VersionSize = 32

// EventSize is the serialized size of one event record: 32 bytes of
// null-padded version string, 4 bytes little-endian signed epoch seconds,
// and one packed byte holding the acknowledgement flag in bit 7 and the
// reason code in bits 6..0.
const EventSize = VersionSize + 4 + 1

// Event is one persisted reset (or initialization) record.
type Event struct {
	Version string // firmware version that wrote the record
	Time    int64  // seconds since 1970-01-01 UTC, zero when unset
	Reason  int    // reason code, 0..127
	Ack     bool   // whether an operator has observed the event
}

// NewEvent builds an unacknowledged event stamped with the given firmware
// version and time.
func NewEvent(version string, t int64, code int) Event {
	return Event{
		Version: version,
		Time:    t,
		Reason:  code,
	}
}

// IsNull reports whether the event is unset. An erased slot reads back with
// a zero time.
func (e Event) IsNull() bool {
	return e.Time == 0
}

// Marshal serializes the event into its fixed 37-byte layout.
func (e Event) Marshal() [EventSize]byte {
	var buf [EventSize]byte
	copy(buf[:VersionSize-1], e.Version) // last byte stays the terminator
	binary.LittleEndian.PutUint32(buf[VersionSize:], uint32(int32(e.Time)))
	packed := byte(e.Reason) & 0x7f
	if e.Ack {
		packed |= 0x80
	}
	buf[EventSize-1] = packed
	return buf
}

// UnmarshalEvent deserializes a fixed 37-byte record.
func UnmarshalEvent(buf [EventSize]byte) Event {
	version := string(buf[:VersionSize])
	if i := strings.IndexByte(version, 0); i >= 0 {
		version = version[:i]
	}
	packed := buf[EventSize-1]
	return Event{
		Version: version,
		Time:    int64(int32(binary.LittleEndian.Uint32(buf[VersionSize:]))),
		Reason:  int(packed & 0x7f),
		Ack:     packed>>7 == 1,
	}
}

// Display renders the event block printed by STATUS and EEPROM DUMP, one
// line per field, each prefixed with prefix. The supervisor matches the
// "reason:" and "acknowledged:" labels, so they must not change.
func (e Event) Display(prefix string) string {
	var b strings.Builder
	fmt.Fprintf(&b, "%sversion: %s\n", prefix, e.Version)
	fmt.Fprintf(&b, "%sdate: %s\n", prefix, DateTimeString(e.Time))
	fmt.Fprintf(&b, "%sreason: %d (%s)\n", prefix, e.Reason, reason.String(e.Reason))
	ack := "no"
	if e.Ack {
		ack = "yes"
	}
	fmt.Fprintf(&b, "%sacknowledged: %s\n", prefix, ack)
	return b.String()
}

// DateTimeString formats epoch seconds as "yyyy-mm-dd hh:mi:ss UTC".
func DateTimeString(t int64) string {
	return time.Unix(t, 0).UTC().Format("2006-01-02 15:04:05") + " UTC"
}
