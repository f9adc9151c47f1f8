// Package supervisor implements the host-side watchdog daemon: a strictly
// single-threaded cooperative loop multiplexing the serial line to the
// board, two TCP listener endpoints, and the periodic health-check
// pipeline that decides whether the board keeps being pinged.
package supervisor

import (
	"context"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/nanowatch/nanowatchdog/internal/checks"
	"github.com/nanowatch/nanowatchdog/internal/config"
	"github.com/nanowatch/nanowatchdog/internal/telemetry"
	"github.com/nanowatch/nanowatchdog/pkg/file"
	"github.com/nanowatch/nanowatchdog/pkg/mailer"
	"github.com/nanowatch/nanowatchdog/pkg/serialport"
	"github.com/rs/zerolog"
	"github.com/shirou/gopsutil/process"
)

// Supervisor owns the daemon state. All of it is touched from the main
// loop only; the lone exceptions are the signal flags and the telemetry
// snapshot source, which are written through their own synchronization.
type Supervisor struct {
	cfg       *config.Config
	transport serialport.Transport
	pipeline  *checks.Pipeline
	mailer    mailer.Mailer
	files     file.FileOperations
	logger    zerolog.Logger

	signals *Signals
	source  *telemetry.Source

	boardLn  *Listener
	daemonLn *Listener

	tick     int // counts intervals, paces periodic log lines
	subtick  int // counts seconds inside one interval
	quit     bool
	exitCode int

	wrotePidFile bool
	lastStatus   string

	sleep func(time.Duration)
	now   func() time.Time
}

// Option adjusts a Supervisor at construction time.
type Option func(*Supervisor)

// WithSleep substitutes the one-second loop sleep, for tests.
func WithSleep(sleep func(time.Duration)) Option {
	return func(s *Supervisor) { s.sleep = sleep }
}

// WithClock substitutes the time source, for tests.
func WithClock(now func() time.Time) Option {
	return func(s *Supervisor) { s.now = now }
}

// WithSignals attaches the process signal flags.
func WithSignals(sig *Signals) Option {
	return func(s *Supervisor) { s.signals = sig }
}

// WithTelemetrySource attaches the snapshot handoff for the optional
// telemetry publisher.
func WithTelemetrySource(src *telemetry.Source) Option {
	return func(s *Supervisor) { s.source = src }
}

// New assembles a Supervisor over its injected collaborators.
func New(cfg *config.Config, transport serialport.Transport, pipeline *checks.Pipeline,
	m mailer.Mailer, files file.FileOperations, logger zerolog.Logger, opts ...Option) *Supervisor {

	s := &Supervisor{
		cfg:       cfg,
		transport: transport,
		pipeline:  pipeline,
		mailer:    m,
		files:     files,
		logger:    logger,
		signals:   &Signals{},
		sleep:     time.Sleep,
		now:       time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Start brings the daemon up: the already-running guard, the board
// handshake and configuration sequence, the boot notifier, the side
// files, and the two listeners. On failure everything already acquired is
// released before returning.
func (s *Supervisor) Start() error {
	if err := s.guardAlreadyRunning(); err != nil {
		return err
	}

	if s.cfg.Serial {
		if err := serialport.Handshake(s.transport, s.cfg.OpenTimeout, s.logger); err != nil {
			return err
		}
		status, err := serialport.CheckFirmware(s.transport, s.logger)
		if err != nil {
			return err
		}
		s.lastStatus = status
		s.NotifyBoot(status)
		if err := serialport.Configure(s.transport, !s.cfg.Action, s.cfg.Delay, s.now(), s.logger); err != nil {
			return err
		}
	}

	if err := s.writeSideFiles(); err != nil {
		return err
	}

	var err error
	s.boardLn, err = Listen(s.cfg.IP, s.cfg.PortSerial, s.logger)
	if err == nil {
		s.daemonLn, err = Listen(s.cfg.IP, s.cfg.PortDaemon, s.logger)
		if err != nil {
			s.boardLn.Close()
			s.boardLn = nil
		}
	}
	if err != nil {
		if s.wrotePidFile {
			os.Remove(s.cfg.PidFile)
			s.wrotePidFile = false
		}
		return err
	}

	s.logger.Info().Int("interval", s.cfg.Interval).Int("delay", s.cfg.Delay).Msg("supervisor started")
	return nil
}

// guardAlreadyRunning refuses to start when the configured pid-file names
// a live process. This replaces the reference daemon's process-list scan,
// which false-positived on homonym processes.
func (s *Supervisor) guardAlreadyRunning() error {
	if s.cfg.PidFile == "" {
		return nil
	}
	exists, err := s.files.IsFileExists(s.cfg.PidFile)
	if err != nil || !exists {
		return nil
	}
	raw, err := s.files.ReadFile(s.cfg.PidFile)
	if err != nil {
		return nil
	}
	pid, err := strconv.Atoi(strings.TrimSpace(raw))
	if err != nil {
		return nil
	}
	if alive, _ := process.PidExists(int32(pid)); alive {
		return fmt.Errorf("already running with pid %d", pid)
	}
	return nil
}

func (s *Supervisor) writeSideFiles() error {
	if s.cfg.PidFile != "" {
		if err := s.files.WriteFile(s.cfg.PidFile, strconv.Itoa(os.Getpid())+"\n"); err != nil {
			return fmt.Errorf("failed to write pid-file: %w", err)
		}
		s.wrotePidFile = true
	}
	if s.cfg.StatusFile != "" && s.lastStatus != "" {
		if err := s.files.WriteFile(s.cfg.StatusFile, s.lastStatus+"\n"); err != nil {
			s.logger.Warn().Err(err).Msg("failed to write status file")
		}
	}
	return nil
}

// Run is the cooperative main loop: one iteration per second, serving at
// most one connection per listener, then the interval work. It returns
// the process exit code.
func (s *Supervisor) Run() int {
	for {
		s.handleSignals()

		s.boardLn.ServeOne(s.HandleBoardCommand)
		s.daemonLn.ServeOne(s.HandleDaemonCommand)

		if s.quit {
			s.Shutdown()
			return s.exitCode
		}

		s.sleep(time.Second)

		s.subtick++
		if s.subtick > s.cfg.Interval {
			s.subtick = 0
			s.tick++
			s.intervalWork()
			if s.tick >= s.cfg.Logtick {
				s.tick = 0
				s.logger.Info().Bool("ping", s.cfg.NwPing).Msg("watchdog alive")
			}
		}
	}
}

// intervalWork pings the board while the host is healthy, then runs the
// check pipeline. A failing check commandeers the rest of the interval:
// the reboot path runs and the remaining checks are skipped.
func (s *Supervisor) intervalWork() {
	if s.cfg.NwPing {
		if _, err := s.transport.Send("PING"); err != nil {
			s.logger.Error().Err(err).Msg("failed to ping the board")
		}
	}

	ctx := context.Background()
	code, name, fired := s.pipeline.Run(ctx, s.cfg)
	if fired {
		s.reboot(code, name)
	}

	if s.source != nil {
		snap := telemetry.Snapshot{
			Timestamp:   s.now(),
			PingEnabled: s.cfg.NwPing,
			BoardStatus: s.lastStatus,
		}
		if fired {
			snap.LastCheck = name
			snap.LastReason = code
		}
		s.source.Update(snap)
	}
}

// reboot asks the board to close the reset relay. With action disabled
// only the intent is logged.
func (s *Supervisor) reboot(code int, name string) {
	if !s.cfg.Action {
		s.logger.Warn().Int("reason", code).Str("check", name).
			Msg("check failed, reboot suppressed (action disabled)")
		return
	}
	s.logger.Warn().Int("reason", code).Str("check", name).Msg("requesting hardware reboot")
	reply, err := s.transport.Send(fmt.Sprintf("REBOOT %d", code))
	if err != nil {
		s.logger.Error().Err(err).Msg("failed to send REBOOT")
		return
	}
	s.logger.Warn().Str("reply", reply).Msg("reboot requested")
}

func (s *Supervisor) handleSignals() {
	if s.signals.TakeInt() {
		s.exitCode = 1
		s.quit = true
	}
	if s.signals.TakeTerm() {
		s.quit = true
	}
	if s.quit {
		return
	}
	if s.signals.TakeHup() {
		s.cfg = s.cfg.Reload(s.logger)
		ApplyVerbosity(s.cfg.Verbose)
		s.logger.Info().Msg("configuration reloaded")
	}
	if s.signals.TakeUsr1() {
		s.restartBoard()
	}
}

// restartBoard stops the board watchdog and runs the startup
// configuration sequence again.
func (s *Supervisor) restartBoard() {
	if !s.cfg.Serial {
		return
	}
	if _, err := s.transport.Send("STOP"); err != nil {
		s.logger.Error().Err(err).Msg("failed to stop the board")
		return
	}
	s.sleep(time.Second)
	if err := serialport.Configure(s.transport, !s.cfg.Action, s.cfg.Delay, s.now(), s.logger); err != nil {
		s.logger.Error().Err(err).Msg("failed to reconfigure the board")
	}
}

// Shutdown releases everything, in this order: the board is stopped, the
// serial line closed, the listeners closed, the pid-file removed.
func (s *Supervisor) Shutdown() {
	if s.cfg.Serial {
		if _, err := s.transport.Send("STOP"); err != nil {
			s.logger.Warn().Err(err).Msg("failed to stop the board on shutdown")
		}
	}
	if err := s.transport.Close(); err != nil {
		s.logger.Warn().Err(err).Msg("failed to close the serial line")
	}
	if s.boardLn != nil {
		s.boardLn.Close()
	}
	if s.daemonLn != nil {
		s.daemonLn.Close()
	}
	if s.wrotePidFile {
		if err := os.Remove(s.cfg.PidFile); err != nil {
			s.logger.Warn().Err(err).Msg("failed to remove pid-file")
		}
	}
	s.logger.Info().Int("exit_code", s.exitCode).Msg("supervisor stopped")
}

// Config exposes the current configuration record; the HUP path swaps it.
func (s *Supervisor) Config() *config.Config { return s.cfg }
