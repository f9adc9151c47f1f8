package checks

import (
	"context"

	"github.com/nanowatch/nanowatchdog/internal/config"
)

// TestDirectoryCheck is the reserved last pipeline slot. The reference
// daemon never implemented it; it participates when a test-directory is
// configured and always passes.
type TestDirectoryCheck struct{}

// NewTestDirectoryCheck builds the reserved probe.
func NewTestDirectoryCheck() *TestDirectoryCheck {
	return &TestDirectoryCheck{}
}

func (t *TestDirectoryCheck) Name() string { return "test-directory" }

func (t *TestDirectoryCheck) Reason() int { return 0 }

func (t *TestDirectoryCheck) Enabled(cfg *config.Config) bool { return cfg.TestDirectory != "" }

func (t *TestDirectoryCheck) Check(ctx context.Context, cfg *config.Config) (bool, error) {
	return false, nil
}
