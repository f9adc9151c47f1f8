// Package checks implements the supervisor's health-check pipeline: an
// ordered battery of probes whose first positive outcome requests a
// hardware reboot with that probe's reason code.
package checks

import (
	"context"

	"github.com/nanowatch/nanowatchdog/internal/config"
	"github.com/rs/zerolog"
)

// Checker is one liveness probe.
type Checker interface {
	// Name identifies the probe in logs.
	Name() string
	// Reason is the reset reason code reported when the probe fires.
	Reason() int
	// Enabled reports whether the probe participates, given the
	// configuration.
	Enabled(cfg *config.Config) bool
	// Check returns true when the probe requests a reboot. A probe whose
	// data source is unreadable returns an error; the pipeline logs it
	// and moves on.
	Check(ctx context.Context, cfg *config.Config) (bool, error)
}

// Pipeline evaluates its probes in order and short-circuits on the first
// one that fires.
type Pipeline struct {
	checkers []Checker
	logger   zerolog.Logger
}

// NewPipeline assembles the documented probe battery in its fixed order.
func NewPipeline(logger zerolog.Logger) *Pipeline {
	return &Pipeline{
		checkers: []Checker{
			NewMemoryCheck(logger),
			NewLoadCheck(1, logger),
			NewLoadCheck(5, logger),
			NewLoadCheck(15, logger),
			NewTemperatureCheck(logger),
			NewPidFileCheck(logger),
			NewPingCheck(logger),
			NewInterfaceCheck(logger),
			NewTestDirectoryCheck(),
		},
		logger: logger,
	}
}

// NewCustomPipeline builds a pipeline over an explicit probe list, for
// tests.
func NewCustomPipeline(logger zerolog.Logger, checkers ...Checker) *Pipeline {
	return &Pipeline{checkers: checkers, logger: logger}
}

// Run evaluates the enabled probes in order. It returns the reason code of
// the first probe that fires, or fired=false when the host looks healthy.
// Remaining probes are not invoked once one fires.
func (p *Pipeline) Run(ctx context.Context, cfg *config.Config) (code int, name string, fired bool) {
	for _, c := range p.checkers {
		if !c.Enabled(cfg) {
			continue
		}
		hit, err := c.Check(ctx, cfg)
		if err != nil {
			p.logger.Warn().Err(err).Str("check", c.Name()).Msg("check could not run")
			continue
		}
		if hit {
			p.logger.Warn().Str("check", c.Name()).Int("reason", c.Reason()).Msg("check requests reboot")
			return c.Reason(), c.Name(), true
		}
		p.logger.Debug().Str("check", c.Name()).Msg("check passed")
	}
	return 0, "", false
}
