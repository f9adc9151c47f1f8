package checks

import (
	"context"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/nanowatch/nanowatchdog/internal/config"
	"github.com/nanowatch/nanowatchdog/internal/reason"
	"github.com/rs/zerolog"
)

// TemperatureCheck fires when any readable thermal zone reports a
// temperature over max-temperature. Unlike the other probes it cannot be
// disabled, a deliberate divergence from the standard watchdog daemon.
type TemperatureCheck struct {
	// ThermalGlob matches the per-zone millidegree files.
	ThermalGlob string
	logger      zerolog.Logger
}

// NewTemperatureCheck builds the probe over /sys/class/thermal.
func NewTemperatureCheck(logger zerolog.Logger) *TemperatureCheck {
	return &TemperatureCheck{ThermalGlob: "/sys/class/thermal/*/temp", logger: logger}
}

func (t *TemperatureCheck) Name() string { return "temperature" }

func (t *TemperatureCheck) Reason() int { return reason.MaxTemperature }

func (t *TemperatureCheck) Enabled(cfg *config.Config) bool { return true }

func (t *TemperatureCheck) Check(ctx context.Context, cfg *config.Config) (bool, error) {
	paths, err := filepath.Glob(t.ThermalGlob)
	if err != nil {
		return false, err
	}
	for _, path := range paths {
		raw, err := os.ReadFile(path)
		if err != nil {
			continue // zones come and go
		}
		milli, err := strconv.Atoi(strings.TrimSpace(string(raw)))
		if err != nil {
			continue
		}
		degrees := milli / 1000
		if degrees > cfg.MaxTemperature {
			t.logger.Warn().Str("zone", path).Int("temperature", degrees).
				Int("max", cfg.MaxTemperature).Msg("temperature over threshold")
			return true, nil
		}
	}
	return false, nil
}
