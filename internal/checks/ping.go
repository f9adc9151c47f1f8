package checks

import (
	"context"
	"os/exec"
	"time"

	"github.com/nanowatch/nanowatchdog/internal/config"
	"github.com/nanowatch/nanowatchdog/internal/reason"
	"github.com/rs/zerolog"
)

// pingCeiling bounds the wall clock of one ping subprocess.
const pingCeiling = 10 * time.Second

// PingCheck fires when any configured host fails a single ICMP ping. The
// probe shells out to ping(8) rather than opening raw sockets, so the
// supervisor needs no extra capabilities.
type PingCheck struct {
	// RunPing sends one ping and reports success, substitutable in tests.
	RunPing func(ctx context.Context, host string) bool
	logger  zerolog.Logger
}

// NewPingCheck builds the probe over the system ping command.
func NewPingCheck(logger zerolog.Logger) *PingCheck {
	return &PingCheck{RunPing: runPingCommand, logger: logger}
}

func runPingCommand(ctx context.Context, host string) bool {
	cmd := exec.CommandContext(ctx, "ping", "-c1", host)
	return cmd.Run() == nil
}

func (p *PingCheck) Name() string { return "ping" }

func (p *PingCheck) Reason() int { return reason.Ping }

func (p *PingCheck) Enabled(cfg *config.Config) bool { return len(cfg.PingHosts) > 0 }

func (p *PingCheck) Check(ctx context.Context, cfg *config.Config) (bool, error) {
	for _, host := range cfg.PingHosts {
		probeCtx, cancel := context.WithTimeout(ctx, pingCeiling)
		ok := p.RunPing(probeCtx, host)
		cancel()
		if !ok {
			p.logger.Warn().Str("host", host).Msg("host does not answer ping")
			return true, nil
		}
	}
	return false, nil
}
