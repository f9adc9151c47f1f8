package board

import (
	"bytes"
	"io"
	"strings"
	"testing"
	"time"

	"github.com/nanowatch/nanowatchdog/internal/eeprom"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// scriptStream feeds scripted input and records output, behaving like a
// serial port with a read timeout: an exhausted script reads as io.EOF.
type scriptStream struct {
	in  *bytes.Buffer
	out bytes.Buffer
}

func (s *scriptStream) Read(p []byte) (int, error) {
	if s.in.Len() == 0 {
		return 0, io.EOF
	}
	return s.in.Read(p)
}

func (s *scriptStream) Write(p []byte) (int, error) {
	return s.out.Write(p)
}

func newRunnerFixture(t *testing.T, input string) (*Runner, *scriptStream) {
	t.Helper()
	b := New(eeprom.NewStore(eeprom.NewRAMMemory()), LogHardware(zerolog.Nop()), zerolog.Nop(),
		WithSleep(func(time.Duration) {}))
	stream := &scriptStream{in: bytes.NewBufferString(input)}
	return NewRunner(b, stream, zerolog.Nop()), stream
}

func TestRunner_DispatchesCompleteLines(t *testing.T) {
	r, stream := newRunnerFixture(t, "NOOP\nSTATUS\n")
	for i := 0; i < 4; i++ {
		require.NoError(t, r.Step())
	}

	out := stream.out.String()
	assert.Contains(t, out, "OK: NOOP\n")
	assert.Contains(t, out, "Status: stopped")
	assert.Contains(t, out, "OK: STATUS\n")
}

func TestRunner_StripsCarriageReturn(t *testing.T) {
	r, stream := newRunnerFixture(t, "NOOP\r\n")
	require.NoError(t, r.Step())
	assert.Equal(t, "OK: NOOP\n", stream.out.String())
}

func TestRunner_PartialLineWaits(t *testing.T) {
	r, stream := newRunnerFixture(t, "NO")
	require.NoError(t, r.Step())
	assert.Empty(t, stream.out.String())

	stream.in.WriteString("OP\n")
	require.NoError(t, r.Step())
	assert.Equal(t, "OK: NOOP\n", stream.out.String())
}

func TestRunner_OverlongLineIsRejected(t *testing.T) {
	r, stream := newRunnerFixture(t, strings.Repeat("A", MaxLineLen+50)+"\n")
	for i := 0; i < 8; i++ {
		require.NoError(t, r.Step())
	}
	assert.Contains(t, stream.out.String(), "Unknown or invalid command:")
}
