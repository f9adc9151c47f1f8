// Package eeprom implements the board's persistent event store: a fixed
// 1024-byte non-volatile region holding one initialization record, a
// saturating event counter, and a ten-slot ring of reset events ordered
// from most recent (slot 0) to oldest (slot 9).
package eeprom

import (
	"encoding/binary"
	"fmt"
)

// Region layout. The counter is a 2-byte little-endian signed integer, the
// width of the reference microcontroller's int, which is what places the
// ring at offset 39.
const (
	Size = 1024

	InitEventAddr  = 0
	ResetCountAddr = InitEventAddr + EventSize
	ResetEventAddr = ResetCountAddr + 2

	MaxResetEvents = 10
)

// Memory is the raw non-volatile backend. Implementations must persist
// writes before returning.
type Memory interface {
	ReadAt(addr int, buf []byte) error
	WriteAt(addr int, buf []byte) error
}

// Store reads and writes event records at their fixed offsets.
type Store struct {
	mem Memory
}

// NewStore wraps a raw memory backend.
func NewStore(mem Memory) *Store {
	return &Store{mem: mem}
}

// Erase zeroes the whole region. Every ring slot then reads as null.
func (s *Store) Erase() error {
	zero := make([]byte, Size)
	return s.mem.WriteAt(0, zero)
}

// InitEvent returns the initialization record at the head of the region.
func (s *Store) InitEvent() (Event, error) {
	return s.readEvent(InitEventAddr)
}

// SetInitEvent writes the initialization record.
func (s *Store) SetInitEvent(ev Event) error {
	return s.writeEvent(InitEventAddr, ev)
}

// ResetEventCount returns the persisted count of reset events, saturated
// at MaxResetEvents.
func (s *Store) ResetEventCount() (int, error) {
	var buf [2]byte
	if err := s.mem.ReadAt(ResetCountAddr, buf[:]); err != nil {
		return 0, err
	}
	return int(int16(binary.LittleEndian.Uint16(buf[:]))), nil
}

func (s *Store) setResetEventCount(count int) error {
	var buf [2]byte
	binary.LittleEndian.PutUint16(buf[:], uint16(int16(count)))
	return s.mem.WriteAt(ResetCountAddr, buf[:])
}

// ResetEvent returns the reset event at the given ring index; 0 is the
// most recent, MaxResetEvents-1 the oldest kept.
func (s *Store) ResetEvent(index int) (Event, error) {
	if index < 0 || index >= MaxResetEvents {
		return Event{}, fmt.Errorf("reset event index out of range: %d", index)
	}
	return s.readEvent(ResetEventAddr + index*EventSize)
}

// SetResetEvent updates the reset event at the given ring index in place.
func (s *Store) SetResetEvent(ev Event, index int) error {
	if index < 0 || index >= MaxResetEvents {
		return fmt.Errorf("reset event index out of range: %d", index)
	}
	return s.writeEvent(ResetEventAddr+index*EventSize, ev)
}

// PushResetEvent inserts ev as the most recent reset event, shifting the
// existing records one slot toward the oldest end. When the ring is full
// the oldest record is discarded; the counter saturates at MaxResetEvents.
func (s *Store) PushResetEvent(ev Event) error {
	count, err := s.ResetEventCount()
	if err != nil {
		return err
	}
	if count == MaxResetEvents {
		count--
	}
	for i := count; i > 0; i-- {
		prev, err := s.ResetEvent(i - 1)
		if err != nil {
			return err
		}
		if err := s.SetResetEvent(prev, i); err != nil {
			return err
		}
	}
	if err := s.SetResetEvent(ev, 0); err != nil {
		return err
	}
	return s.setResetEventCount(count + 1)
}

func (s *Store) readEvent(addr int) (Event, error) {
	var buf [EventSize]byte
	if err := s.mem.ReadAt(addr, buf[:]); err != nil {
		return Event{}, err
	}
	return UnmarshalEvent(buf), nil
}

func (s *Store) writeEvent(addr int, ev Event) error {
	buf := ev.Marshal()
	return s.mem.WriteAt(addr, buf[:])
}
