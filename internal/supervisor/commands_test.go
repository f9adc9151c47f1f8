package supervisor

import (
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/nanowatch/nanowatchdog/internal/checks"
	"github.com/nanowatch/nanowatchdog/internal/config"
	"github.com/nanowatch/nanowatchdog/pkg/file"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeTransport records every line sent and answers from a script.
type fakeTransport struct {
	sent    []string
	replies map[string]string
	err     error
}

func (f *fakeTransport) Send(line string) (string, error) {
	f.sent = append(f.sent, line)
	if f.err != nil {
		return "", f.err
	}
	if reply, ok := f.replies[line]; ok {
		return reply, nil
	}
	return "OK: " + line, nil
}

func (f *fakeTransport) Close() error { return nil }

// fakeMailer records every delivery.
type fakeMailer struct {
	from, to, subject, body string
	calls                   int
	err                     error
}

func (f *fakeMailer) Send(from, to, subject, body string) error {
	f.calls++
	f.from, f.to, f.subject, f.body = from, to, subject, body
	return f.err
}

func newTestSupervisor(t *testing.T, cfg *config.Config, transport *fakeTransport) *Supervisor {
	t.Helper()
	if cfg == nil {
		cfg = config.New()
	}
	if transport == nil {
		transport = &fakeTransport{}
	}
	return New(cfg, transport, checks.NewCustomPipeline(zerolog.Nop()),
		&fakeMailer{}, file.NewFileService(), zerolog.Nop(),
		WithSleep(func(time.Duration) {}))
}

func TestHandleDaemonCommand_PingToggle(t *testing.T) {
	s := newTestSupervisor(t, nil, nil)

	reply := s.HandleDaemonCommand("PING OFF")
	assert.True(t, strings.HasPrefix(reply, "OK: PING OFF"), reply)
	assert.False(t, s.cfg.NwPing)
	assert.Equal(t, config.OriginRuntime, s.cfg.Origin("nwping"))

	reply = s.HandleDaemonCommand("PING ON")
	assert.Equal(t, "OK: PING ON\n", reply)
	assert.True(t, s.cfg.NwPing)
}

func TestHandleDaemonCommand_Get(t *testing.T) {
	s := newTestSupervisor(t, nil, nil)
	s.HandleDaemonCommand("PING OFF")

	assert.Equal(t, "nwping=false\n", s.HandleDaemonCommand("GET nwping"))
	assert.Equal(t, "delay=60\n", s.HandleDaemonCommand("GET delay"))
	assert.Empty(t, s.HandleDaemonCommand("GET no-such-parameter"))
}

func TestHandleDaemonCommand_DumpParms(t *testing.T) {
	s := newTestSupervisor(t, nil, nil)
	s.HandleDaemonCommand("PING OFF")

	out := s.HandleDaemonCommand("DUMP PARMS")
	assert.Contains(t, out, "nwping = false (runtime)\n")
	assert.Contains(t, out, "delay = 60 (default)\n")
	assert.Contains(t, out, "OK: DUMP PARMS\n")

	// Deprecated alias.
	out = s.HandleDaemonCommand("DUMP OPTS")
	assert.Contains(t, out, "OK: DUMP OPTS\n")
}

func TestHandleDaemonCommand_SetVerbose(t *testing.T) {
	s := newTestSupervisor(t, nil, nil)

	assert.Equal(t, "OK: SET VERBOSE 0x3\n", s.HandleDaemonCommand("SET VERBOSE 0x3"))
	assert.Equal(t, 3, s.cfg.Verbose)
	assert.Equal(t, config.OriginRuntime, s.cfg.Origin("verbose"))

	assert.Equal(t, "OK: SET VERBOSE 0b10\n", s.HandleDaemonCommand("SET VERBOSE 0b10"))
	assert.Equal(t, 2, s.cfg.Verbose)
}

func TestHandleDaemonCommand_Quit(t *testing.T) {
	s := newTestSupervisor(t, nil, nil)
	assert.Equal(t, "OK: QUIT\n", s.HandleDaemonCommand("QUIT"))
	assert.True(t, s.quit)
	assert.Zero(t, s.exitCode)
}

func TestHandleDaemonCommand_WhitespaceTolerated(t *testing.T) {
	s := newTestSupervisor(t, nil, nil)
	assert.Equal(t, "OK: QUIT\n", s.HandleDaemonCommand("  QUIT  "))
}

func TestHandleDaemonCommand_Unknown(t *testing.T) {
	s := newTestSupervisor(t, nil, nil)
	assert.Equal(t, "unknown command: FROB\n", s.HandleDaemonCommand("FROB"))
	assert.Equal(t, "unknown command: ping off\n", s.HandleDaemonCommand("ping off"))
}

func TestHandleBoardCommand_ForwardsVerbatim(t *testing.T) {
	transport := &fakeTransport{replies: map[string]string{"STATUS": "Status: started"}}
	s := newTestSupervisor(t, nil, transport)

	assert.Equal(t, "Status: started\n", s.HandleBoardCommand("STATUS"))
	assert.Equal(t, []string{"STATUS"}, transport.sent)
}

func TestHandleBoardCommand_SerialError(t *testing.T) {
	transport := &fakeTransport{err: errors.New("device gone")}
	s := newTestSupervisor(t, nil, transport)

	reply := s.HandleBoardCommand("NOOP")
	assert.Contains(t, reply, "serial error:")
}

func TestReboot_ActionDisabledOnlyLogs(t *testing.T) {
	cfg := config.New()
	cfg.Action = false
	transport := &fakeTransport{}
	s := newTestSupervisor(t, cfg, transport)

	s.reboot(19, "memory")
	assert.Empty(t, transport.sent)
}

func TestReboot_SendsRebootCommand(t *testing.T) {
	transport := &fakeTransport{}
	s := newTestSupervisor(t, nil, transport)

	s.reboot(19, "memory")
	require.Equal(t, []string{"REBOOT 19"}, transport.sent)
}
