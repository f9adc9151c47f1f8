package board

import (
	"fmt"
	"strings"

	"github.com/nanowatch/nanowatchdog/internal/eeprom"
)

func onOff(v bool) string {
	if v {
		return "on"
	}
	return "off"
}

func yesNo(v bool) string {
	if v {
		return "yes"
	}
	return "no"
}

func (b *Board) helpText() string {
	return `Available commands:
  NOOP
  HELP
  PING
  START
  STOP
  REINIT
  SET DATE <epoch>
  SET DELAY <1..65535>
  SET TEST ON|OFF
  REBOOT <16..127>
  ACKNOWLEDGE <0..9>
  EEPROM INIT
  EEPROM DUMP
  STATUS
`
}

// statusText renders the multi-line STATUS report. The supervisor parses
// the "reason:" and "acknowledged:" labels of the event block by line
// prefix, so they must be preserved exactly.
func (b *Board) statusText() string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "[%s]\n", VersionString)
	fmt.Fprintf(&sb, "Current date: %s\n", eeprom.DateTimeString(b.Now()))
	fmt.Fprintf(&sb, "Date set: %s\n", yesNo(b.dateSet))
	fmt.Fprintf(&sb, "Delay: %d s\n", b.delay)
	fmt.Fprintf(&sb, "Test mode: %s\n", onOff(b.testMode))

	switch {
	case b.resetTime != 0:
		fmt.Fprintf(&sb, "Status: reset\n")
		fmt.Fprintf(&sb, "Reset on: %s\n", eeprom.DateTimeString(b.resetTime))
	case b.startTime != 0:
		fmt.Fprintf(&sb, "Status: started\n")
		fmt.Fprintf(&sb, "Started on: %s\n", eeprom.DateTimeString(b.startTime))
		fmt.Fprintf(&sb, "Last ping: %s\n", eeprom.DateTimeString(b.lastPing))
		left := b.lastPing + int64(b.delay) - b.Now()
		if left < 0 {
			left = 0
		}
		fmt.Fprintf(&sb, "Before reset: %d s\n", left)
	default:
		fmt.Fprintf(&sb, "Status: stopped\n")
	}

	ev, err := b.store.ResetEvent(0)
	if err != nil || ev.IsNull() {
		fmt.Fprintf(&sb, "Last reset: none\n")
	} else {
		fmt.Fprintf(&sb, "Last reset:\n")
		sb.WriteString(ev.Display("    "))
	}
	return sb.String()
}

// dumpText renders the EEPROM DUMP output: the initialization event, the
// reset event count, then every stored event.
func (b *Board) dumpText() string {
	var sb strings.Builder

	init, err := b.store.InitEvent()
	if err != nil {
		fmt.Fprintf(&sb, "Initialization event: unreadable\n")
	} else if init.IsNull() {
		fmt.Fprintf(&sb, "Initialization event: none\n")
	} else {
		fmt.Fprintf(&sb, "Initialization event:\n")
		sb.WriteString(init.Display("  "))
	}

	count, err := b.store.ResetEventCount()
	if err != nil {
		fmt.Fprintf(&sb, "Reset events count: unreadable\n")
		return sb.String()
	}
	fmt.Fprintf(&sb, "Reset events count: %d\n", count)

	for i := 0; i < count && i < eeprom.MaxResetEvents; i++ {
		ev, err := b.store.ResetEvent(i)
		if err != nil {
			fmt.Fprintf(&sb, "Reset event #%d: unreadable\n", i)
			continue
		}
		fmt.Fprintf(&sb, "Reset event #%d:\n", i)
		sb.WriteString(ev.Display("  "))
	}
	return sb.String()
}
