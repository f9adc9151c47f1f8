package config

import (
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew_Defaults(t *testing.T) {
	c := New()
	assert.Equal(t, "/dev/ttyUSB0", c.Device)
	assert.Equal(t, 19200, c.Baudrate)
	assert.Equal(t, 10, c.OpenTimeout)
	assert.Equal(t, 5, c.ReadTimeout)
	assert.Equal(t, "127.0.0.1", c.IP)
	assert.Equal(t, 7777, c.PortSerial)
	assert.Equal(t, 7778, c.PortDaemon)
	assert.Equal(t, 60, c.Delay)
	assert.Equal(t, 10, c.Interval)
	assert.Equal(t, "never", c.SendMail)
	assert.Equal(t, 90, c.MaxTemperature)
	assert.True(t, c.NwPing)
	assert.True(t, c.Action)
	assert.True(t, c.Serial)
	assert.Equal(t, OriginDefault, c.Origin("delay"))
}

func TestConfig_SetTracksOrigin(t *testing.T) {
	c := New()
	require.NoError(t, c.Set("delay", "120", OriginConfigFile))
	assert.Equal(t, 120, c.Delay)
	assert.Equal(t, OriginConfigFile, c.Origin("delay"))

	require.NoError(t, c.Set("nwping", "false", OriginRuntime))
	assert.False(t, c.NwPing)
	assert.Equal(t, OriginRuntime, c.Origin("nwping"))
}

func TestConfig_Get(t *testing.T) {
	c := New()
	require.NoError(t, c.Set("nwping", "false", OriginRuntime))
	assert.Equal(t, "nwping=false", c.Get("nwping"))
	assert.Equal(t, "delay=60", c.Get("delay"))
	assert.Empty(t, c.Get("no-such-parameter"))
}

func TestConfig_SetRejectsBadValues(t *testing.T) {
	c := New()
	assert.Error(t, c.Set("delay", "soon", OriginConfigFile))
	assert.Error(t, c.Set("nwping", "perhaps", OriginRuntime))
	assert.Error(t, c.Set("send-mail", "sometimes", OriginConfigFile))
	assert.Error(t, c.Set("unknown", "1", OriginConfigFile))
}

func TestConfig_DumpParms(t *testing.T) {
	c := New()
	require.NoError(t, c.Set("delay", "90", OriginCommandLine))
	require.NoError(t, c.Set("nwping", "false", OriginRuntime))

	dump := c.DumpParms()
	assert.Contains(t, dump, "delay = 90 (command-line)\n")
	assert.Contains(t, dump, "nwping = false (runtime)\n")
	assert.Contains(t, dump, "device = /dev/ttyUSB0 (default)\n")
}

func TestConfig_Clamp(t *testing.T) {
	c := New()
	c.Delay = 0
	c.Interval = 300
	c.Clamp(zerolog.Nop())
	assert.Equal(t, 1, c.Delay)
	assert.Equal(t, 60, c.Interval)
}

func TestConfig_ClampSkippedWithForce(t *testing.T) {
	c := New()
	c.Force = true
	c.Interval = 300
	c.Clamp(zerolog.Nop())
	assert.Equal(t, 300, c.Interval)
}

func TestConfig_DeriveLoadDefaults(t *testing.T) {
	c := New()
	require.NoError(t, c.Set("max-load-1", "24", OriginConfigFile))
	c.DeriveLoadDefaults()
	assert.Equal(t, 18, c.MaxLoad5)
	assert.Equal(t, 12, c.MaxLoad15)
}

func TestConfig_DeriveLoadDefaultsKeepsExplicitValues(t *testing.T) {
	c := New()
	require.NoError(t, c.Set("max-load-1", "24", OriginConfigFile))
	require.NoError(t, c.Set("max-load-5", "20", OriginConfigFile))
	c.DeriveLoadDefaults()
	assert.Equal(t, 20, c.MaxLoad5)
	assert.Equal(t, 12, c.MaxLoad15)
}

func TestParseVerbose(t *testing.T) {
	for raw, want := range map[string]int{
		"0":     0,
		"3":     3,
		"0x10":  16,
		"0b101": 5,
	} {
		got, err := ParseVerbose(raw)
		require.NoError(t, err, raw)
		assert.Equal(t, want, got, raw)
	}

	_, err := ParseVerbose("many")
	assert.Error(t, err)
	_, err = ParseVerbose("-1")
	assert.Error(t, err)
}
