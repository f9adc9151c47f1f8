package checks

import (
	"context"

	"github.com/nanowatch/nanowatchdog/internal/config"
	"github.com/nanowatch/nanowatchdog/internal/reason"
	"github.com/rs/zerolog"
	"github.com/shirou/gopsutil/net"
)

// InterfaceCheck fires when a configured network interface shows both its
// RX and TX packet counters at zero, the signature of a dead link.
type InterfaceCheck struct {
	// IOCounters is the counter source, substitutable in tests.
	IOCounters func(pernic bool) ([]net.IOCountersStat, error)
	logger     zerolog.Logger
}

// NewInterfaceCheck builds the probe over the kernel interface counters.
func NewInterfaceCheck(logger zerolog.Logger) *InterfaceCheck {
	return &InterfaceCheck{IOCounters: net.IOCounters, logger: logger}
}

func (i *InterfaceCheck) Name() string { return "interface" }

func (i *InterfaceCheck) Reason() int { return reason.Interface }

func (i *InterfaceCheck) Enabled(cfg *config.Config) bool { return len(cfg.Interfaces) > 0 }

func (i *InterfaceCheck) Check(ctx context.Context, cfg *config.Config) (bool, error) {
	stats, err := i.IOCounters(true)
	if err != nil {
		return false, err
	}
	byName := make(map[string]net.IOCountersStat, len(stats))
	for _, s := range stats {
		byName[s.Name] = s
	}
	for _, name := range cfg.Interfaces {
		s, ok := byName[name]
		if !ok {
			i.logger.Warn().Str("interface", name).Msg("interface not found")
			continue
		}
		if s.PacketsRecv == 0 && s.PacketsSent == 0 {
			i.logger.Warn().Str("interface", name).Msg("interface shows no traffic at all")
			return true, nil
		}
	}
	return false, nil
}
