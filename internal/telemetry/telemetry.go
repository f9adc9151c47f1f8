// Package telemetry optionally publishes supervisor health snapshots to
// an MQTT broker. The watchdog itself never depends on it; a lost broker
// costs nothing but telemetry.
package telemetry

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/nanowatch/nanowatchdog/pkg/file"
	"github.com/nanowatch/nanowatchdog/pkg/mqtt"
	"github.com/rs/zerolog"
)

// Config is the shape of the telemetry sidecar YAML file.
type Config struct {
	Broker        string `yaml:"broker"`         // MQTT broker address
	ClientID      string `yaml:"client_id"`      // MQTT client ID prefix
	CACertificate string `yaml:"ca_certificate"` // Path to the CA certificate, empty for plain TCP
	Topic         string `yaml:"topic"`          // Publish topic
	QOS           int    `yaml:"qos"`            // MQTT QoS level
	Interval      int    `yaml:"interval"`       // Interval between snapshots (in seconds)
}

// LoadConfig reads the sidecar file.
func LoadConfig(path string, fileClient file.FileOperations) (*Config, error) {
	var cfg Config
	if err := fileClient.ReadYamlFile(path, &cfg); err != nil {
		return nil, err
	}
	if cfg.Interval <= 0 {
		cfg.Interval = 60
	}
	if cfg.ClientID == "" {
		cfg.ClientID = "nanowatchdog"
	}
	return &cfg, nil
}

// Snapshot is one published health record.
type Snapshot struct {
	Timestamp   time.Time `json:"timestamp"`
	PingEnabled bool      `json:"ping_enabled"`
	LastCheck   string    `json:"last_check,omitempty"`  // name of the last check that fired
	LastReason  int       `json:"last_reason,omitempty"` // its reason code
	BoardStatus string    `json:"board_status,omitempty"`
}

// Source is the snapshot handoff between the single-threaded main loop
// and the publisher goroutine.
type Source struct {
	mu   sync.Mutex
	snap Snapshot
}

// Update replaces the current snapshot.
func (s *Source) Update(snap Snapshot) {
	s.mu.Lock()
	s.snap = snap
	s.mu.Unlock()
}

// Current returns the latest snapshot.
func (s *Source) Current() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snap
}

// Service periodically publishes the current snapshot.
type Service struct {
	cfg        *Config
	source     *Source
	mqttClient *mqtt.MqttService
	fileClient file.FileOperations
	logger     zerolog.Logger

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// NewService builds the publisher over a snapshot source.
func NewService(cfg *Config, source *Source, fileClient file.FileOperations, logger zerolog.Logger) *Service {
	return &Service{
		cfg:        cfg,
		source:     source,
		fileClient: fileClient,
		logger:     logger,
	}
}

// Start connects to the broker and launches the publish loop.
func (t *Service) Start() error {
	if t.ctx != nil {
		t.logger.Warn().Msg("telemetry service is already running")
		return errors.New("telemetry service is already running")
	}

	t.mqttClient = mqtt.NewMqttService(t.fileClient)
	clientID := t.cfg.ClientID + "-" + uuid.New().String()
	if err := t.mqttClient.Initialize(t.cfg.Broker, clientID, t.cfg.CACertificate); err != nil {
		return err
	}

	t.ctx, t.cancel = context.WithCancel(context.Background())
	t.wg.Add(1)
	go func() {
		defer t.wg.Done()
		t.runPublishLoop()
	}()

	t.logger.Info().Str("topic", t.cfg.Topic).Str("client_id", clientID).Msg("telemetry service started")
	return nil
}

// Stop gracefully stops the publisher and disconnects from the broker.
func (t *Service) Stop() error {
	if t.ctx == nil {
		t.logger.Warn().Msg("telemetry service is not running")
		return errors.New("telemetry service is not running")
	}

	t.cancel()
	t.wg.Wait()
	t.mqttClient.Disconnect(250)

	t.ctx = nil
	t.cancel = nil

	t.logger.Info().Msg("telemetry service stopped")
	return nil
}

func (t *Service) runPublishLoop() {
	ticker := time.NewTicker(time.Duration(t.cfg.Interval) * time.Second)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			snap := t.source.Current()
			payload, err := json.Marshal(snap)
			if err != nil {
				t.logger.Error().Err(err).Msg("failed to serialize snapshot")
				continue
			}
			token := t.mqttClient.Publish(t.cfg.Topic, byte(t.cfg.QOS), false, payload)
			token.Wait()
			if err := token.Error(); err != nil {
				t.logger.Error().Err(err).Msg("failed to publish snapshot")
			} else {
				t.logger.Debug().Msg("snapshot published")
			}

		case <-t.ctx.Done():
			t.logger.Info().Msg("telemetry service stopping")
			return
		}
	}
}
