package board

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseCommand_Accepted(t *testing.T) {
	cases := []struct {
		line string
		want Command
	}{
		{"NOOP", Noop{}},
		{"HELP", Help{}},
		{"PING", Ping{}},
		{"START", Start{}},
		{"STOP", Stop{}},
		{"REINIT", Reinit{}},
		{"STATUS", Status{}},
		{"SET DATE 1700000000", SetDate{Value: 1700000000}},
		{"SET DATE 0", SetDate{Value: 0}},
		{"SET DELAY 1", SetDelay{Value: 1}},
		{"SET DELAY 65535", SetDelay{Value: 65535}},
		{"SET TEST ON", SetTest{On: true}},
		{"SET TEST OFF", SetTest{On: false}},
		{"REBOOT 16", Reboot{Reason: 16}},
		{"REBOOT 127", Reboot{Reason: 127}},
		{"ACKNOWLEDGE 0", Acknowledge{Slot: 0}},
		{"ACKNOWLEDGE 9", Acknowledge{Slot: 9}},
		{"EEPROM INIT", EepromInit{}},
		{"EEPROM DUMP", EepromDump{}},
	}
	for _, tc := range cases {
		got, ok := ParseCommand(tc.line)
		require.True(t, ok, "line %q", tc.line)
		assert.Equal(t, tc.want, got, "line %q", tc.line)
	}
}

func TestParseCommand_Rejected(t *testing.T) {
	lines := []string{
		"",
		"noop",
		"NOOP ",
		" NOOP",
		"NOOP extra",
		"PING PING",
		"SET",
		"SET DATE",
		"SET DATE x",
		"SET DATE -1",
		"SET DATE 4294967296",
		"SET  DATE 0",
		"SET DELAY 0",
		"SET DELAY 65536",
		"SET DELAY -5",
		"SET TEST on",
		"SET TEST MAYBE",
		"SET TEST ON ",
		"REBOOT",
		"REBOOT 15",
		"REBOOT 128",
		"REBOOT -1",
		"ACKNOWLEDGE -1",
		"ACKNOWLEDGE 10",
		"ACKNOWLEDGE",
		"EEPROM",
		"EEPROM INIT NOW",
		"EEPROM WIPE",
		"eeprom dump",
		"STATUS NOW",
	}
	for _, line := range lines {
		_, ok := ParseCommand(line)
		assert.False(t, ok, "line %q should be rejected", line)
	}
}
