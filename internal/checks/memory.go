package checks

import (
	"context"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/nanowatch/nanowatchdog/internal/config"
	"github.com/nanowatch/nanowatchdog/internal/reason"
	"github.com/rs/zerolog"
)

// MemoryCheck fires when the free swap drops under min-memory. The
// threshold is expressed in 4-KiB pages; SwapFree is reported by the
// kernel in kB and divided by four before the comparison, matching the
// reference daemon's arithmetic.
type MemoryCheck struct {
	MeminfoPath string
	logger      zerolog.Logger
}

// NewMemoryCheck builds the probe over /proc/meminfo.
func NewMemoryCheck(logger zerolog.Logger) *MemoryCheck {
	return &MemoryCheck{MeminfoPath: "/proc/meminfo", logger: logger}
}

func (m *MemoryCheck) Name() string { return "memory" }

func (m *MemoryCheck) Reason() int { return reason.MinMemory }

func (m *MemoryCheck) Enabled(cfg *config.Config) bool { return cfg.MinMemory > 0 }

func (m *MemoryCheck) Check(ctx context.Context, cfg *config.Config) (bool, error) {
	raw, err := os.ReadFile(m.MeminfoPath)
	if err != nil {
		return false, err
	}
	for _, line := range strings.Split(string(raw), "\n") {
		if !strings.HasPrefix(line, "SwapFree:") {
			continue
		}
		fields := strings.Fields(line)
		if len(fields) < 2 {
			return false, fmt.Errorf("malformed SwapFree line: %q", line)
		}
		kb, err := strconv.Atoi(fields[1])
		if err != nil {
			return false, fmt.Errorf("malformed SwapFree value: %q", fields[1])
		}
		pages := kb / 4
		if pages < cfg.MinMemory {
			m.logger.Warn().Int("swap_free_pages", pages).Int("min_memory", cfg.MinMemory).
				Msg("free swap under threshold")
			return true, nil
		}
		return false, nil
	}
	return false, fmt.Errorf("no SwapFree line in %s", m.MeminfoPath)
}
