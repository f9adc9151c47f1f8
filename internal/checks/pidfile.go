package checks

import (
	"context"
	"os"
	"strconv"
	"strings"

	"github.com/nanowatch/nanowatchdog/internal/config"
	"github.com/nanowatch/nanowatchdog/internal/reason"
	"github.com/rs/zerolog"
	"github.com/shirou/gopsutil/process"
)

// PidFileCheck fires when any configured pid-file names a process that is
// no longer alive.
type PidFileCheck struct {
	// PidExists is the liveness source, substitutable in tests.
	PidExists func(pid int32) (bool, error)
	logger    zerolog.Logger
}

// NewPidFileCheck builds the probe over the process table.
func NewPidFileCheck(logger zerolog.Logger) *PidFileCheck {
	return &PidFileCheck{PidExists: process.PidExists, logger: logger}
}

func (p *PidFileCheck) Name() string { return "pidfile" }

func (p *PidFileCheck) Reason() int { return reason.PidFile }

func (p *PidFileCheck) Enabled(cfg *config.Config) bool { return len(cfg.PidFiles) > 0 }

func (p *PidFileCheck) Check(ctx context.Context, cfg *config.Config) (bool, error) {
	for _, path := range cfg.PidFiles {
		raw, err := os.ReadFile(path)
		if err != nil {
			p.logger.Warn().Err(err).Str("pidfile", path).Msg("pid-file unreadable")
			continue
		}
		pid, err := strconv.Atoi(strings.TrimSpace(string(raw)))
		if err != nil {
			p.logger.Warn().Str("pidfile", path).Msg("pid-file holds no pid")
			continue
		}
		alive, err := p.PidExists(int32(pid))
		if err != nil {
			p.logger.Warn().Err(err).Str("pidfile", path).Msg("pid liveness probe failed")
			continue
		}
		if !alive {
			p.logger.Warn().Int("pid", pid).Str("pidfile", path).Msg("watched process is gone")
			return true, nil
		}
	}
	return false, nil
}
