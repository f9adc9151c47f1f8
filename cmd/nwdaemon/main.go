package main

import (
	"fmt"
	"os"
	"time"

	"github.com/google/uuid"
	"github.com/nanowatch/nanowatchdog/internal/checks"
	"github.com/nanowatch/nanowatchdog/internal/config"
	"github.com/nanowatch/nanowatchdog/internal/supervisor"
	"github.com/nanowatch/nanowatchdog/internal/telemetry"
	"github.com/nanowatch/nanowatchdog/pkg/file"
	"github.com/nanowatch/nanowatchdog/pkg/mailer"
	"github.com/nanowatch/nanowatchdog/pkg/serialport"
	"github.com/rs/zerolog"
)

// Version is the supervisor release.
const Version = "2.1.0"

func main() {
	os.Exit(run())
}

func run() int {
	// Structured console logging, tagged with a per-run id
	logger := zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339}).
		With().Timestamp().Str("run_id", uuid.New().String()).Logger()

	cfg := config.New()
	req, err := cfg.ParseCLI(os.Args[1:], os.Stderr)
	if err != nil {
		fmt.Fprint(os.Stderr, config.Usage)
		return 1
	}
	if req.Help {
		fmt.Print(config.Usage)
		return 0
	}
	if req.Version {
		fmt.Printf("nwdaemon %s\n", Version)
		return 0
	}

	if cfg.ConfigPath != "" {
		if err := cfg.LoadFile(cfg.ConfigPath, logger); err != nil {
			logger.Warn().Err(err).Msg("configuration file skipped, continuing with defaults")
		}
	}
	cfg.Clamp(logger)
	cfg.DeriveLoadDefaults()
	supervisor.ApplyVerbosity(cfg.Verbose)

	if cfg.Daemon {
		logger.Info().Msg("daemonization is delegated to the init system, running in the foreground")
	}

	// Open the serial line to the board, or substitute the echo transport
	// when the serial layer is disabled for testing.
	var transport serialport.Transport
	if cfg.Serial {
		transport, err = serialport.Open(cfg.Device, cfg.Baudrate, cfg.ReadTimeout, logger)
		if err != nil {
			logger.Error().Err(err).Msg("failed to open the serial device")
			return 1
		}
	} else {
		logger.Warn().Msg("serial layer disabled, commands will be echoed")
		transport = serialport.Echo{}
	}

	files := file.NewFileService()
	mail := mailer.NewSMTP("", logger)
	pipeline := checks.NewPipeline(logger)
	signals := supervisor.Notify(logger)

	opts := []supervisor.Option{supervisor.WithSignals(signals)}

	// Optional MQTT telemetry sidecar.
	var telemetrySvc *telemetry.Service
	if cfg.TelemetryConfig != "" {
		tcfg, err := telemetry.LoadConfig(cfg.TelemetryConfig, files)
		if err != nil {
			logger.Warn().Err(err).Msg("telemetry configuration skipped")
		} else {
			source := &telemetry.Source{}
			telemetrySvc = telemetry.NewService(tcfg, source, files, logger)
			if err := telemetrySvc.Start(); err != nil {
				logger.Warn().Err(err).Msg("telemetry service failed to start")
				telemetrySvc = nil
			} else {
				opts = append(opts, supervisor.WithTelemetrySource(source))
			}
		}
	}

	sup := supervisor.New(cfg, transport, pipeline, mail, files, logger, opts...)
	if err := sup.Start(); err != nil {
		logger.Error().Err(err).Msg("startup failed")
		if closeErr := transport.Close(); closeErr != nil {
			logger.Warn().Err(closeErr).Msg("failed to close the serial line")
		}
		return 1
	}

	code := sup.Run()
	if telemetrySvc != nil {
		if err := telemetrySvc.Stop(); err != nil {
			logger.Warn().Err(err).Msg("telemetry service failed to stop")
		}
	}
	return code
}
