package checks

import (
	"context"
	"fmt"

	"github.com/nanowatch/nanowatchdog/internal/config"
	"github.com/nanowatch/nanowatchdog/internal/reason"
	"github.com/rs/zerolog"
	"github.com/shirou/gopsutil/load"
)

// LoadCheck fires when one of the load averages exceeds its configured
// threshold. One instance per window; the three run back to back in the
// pipeline so the 1-minute average is examined first.
type LoadCheck struct {
	window int // 1, 5 or 15
	// AvgFunc is the load average source, substitutable in tests.
	AvgFunc func() (*load.AvgStat, error)
	logger  zerolog.Logger
}

// NewLoadCheck builds the probe for the given averaging window.
func NewLoadCheck(window int, logger zerolog.Logger) *LoadCheck {
	return &LoadCheck{window: window, AvgFunc: load.Avg, logger: logger}
}

func (l *LoadCheck) Name() string { return fmt.Sprintf("load-%d", l.window) }

func (l *LoadCheck) Reason() int {
	switch l.window {
	case 5:
		return reason.MaxLoad5
	case 15:
		return reason.MaxLoad15
	default:
		return reason.MaxLoad1
	}
}

func (l *LoadCheck) threshold(cfg *config.Config) int {
	switch l.window {
	case 5:
		return cfg.MaxLoad5
	case 15:
		return cfg.MaxLoad15
	default:
		return cfg.MaxLoad1
	}
}

// Enabled reports true when the threshold is set; zero disables the
// window.
func (l *LoadCheck) Enabled(cfg *config.Config) bool { return l.threshold(cfg) > 0 }

func (l *LoadCheck) Check(ctx context.Context, cfg *config.Config) (bool, error) {
	avg, err := l.AvgFunc()
	if err != nil {
		return false, err
	}
	var current float64
	switch l.window {
	case 5:
		current = avg.Load5
	case 15:
		current = avg.Load15
	default:
		current = avg.Load1
	}
	max := float64(l.threshold(cfg))
	if current > max {
		l.logger.Warn().Float64("load", current).Float64("max", max).Int("window", l.window).
			Msg("load average over threshold")
		return true, nil
	}
	return false, nil
}
