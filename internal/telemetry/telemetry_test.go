package telemetry

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/nanowatch/nanowatchdog/pkg/file"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadConfig(t *testing.T) {
	path := filepath.Join(t.TempDir(), "telemetry.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
broker: tcp://broker.example.org:1883
client_id: nw-test
topic: nanowatchdog/health
qos: 1
interval: 30
`), 0600))

	cfg, err := LoadConfig(path, file.NewFileService())
	require.NoError(t, err)
	assert.Equal(t, "tcp://broker.example.org:1883", cfg.Broker)
	assert.Equal(t, "nw-test", cfg.ClientID)
	assert.Equal(t, "nanowatchdog/health", cfg.Topic)
	assert.Equal(t, 1, cfg.QOS)
	assert.Equal(t, 30, cfg.Interval)
}

func TestLoadConfig_Defaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "telemetry.yaml")
	require.NoError(t, os.WriteFile(path, []byte("broker: tcp://localhost:1883\ntopic: t\n"), 0600))

	cfg, err := LoadConfig(path, file.NewFileService())
	require.NoError(t, err)
	assert.Equal(t, 60, cfg.Interval)
	assert.Equal(t, "nanowatchdog", cfg.ClientID)
}

func TestSource_UpdateAndCurrent(t *testing.T) {
	src := &Source{}
	assert.Zero(t, src.Current().LastReason)

	snap := Snapshot{
		Timestamp:   time.Unix(1700000000, 0),
		PingEnabled: true,
		LastCheck:   "memory",
		LastReason:  19,
	}
	src.Update(snap)
	assert.Equal(t, snap, src.Current())
}
