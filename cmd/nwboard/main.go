package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/nanowatch/nanowatchdog/internal/board"
	"github.com/nanowatch/nanowatchdog/internal/eeprom"
	"github.com/rs/zerolog"
	"github.com/tarm/serial"
)

func main() {
	os.Exit(run())
}

func run() int {
	device := flag.String("device", "/dev/ttyUSB0", "serial device to listen on")
	baud := flag.Int("baud", 19200, "serial baud rate")
	image := flag.String("eeprom", "", "path of the persistent eeprom image (volatile when empty)")
	debug := flag.Bool("debug", false, "enable debug logging")
	flag.Parse()

	logger := zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339}).
		With().Timestamp().Logger()
	if !*debug {
		logger = logger.Level(zerolog.InfoLevel)
	}

	// Persist the event history across restarts when an image path is
	// given, the way the on-board EEPROM survives resets.
	var mem eeprom.Memory
	if *image != "" {
		fm, err := eeprom.OpenFileMemory(*image)
		if err != nil {
			logger.Error().Err(err).Msg("failed to open eeprom image")
			return 1
		}
		mem = fm
	} else {
		mem = eeprom.NewRAMMemory()
	}

	port, err := serial.OpenPort(&serial.Config{
		Name:        *device,
		Baud:        *baud,
		ReadTimeout: 50 * time.Millisecond,
	})
	if err != nil {
		logger.Error().Err(err).Str("device", *device).Msg("failed to open serial device")
		return 1
	}
	defer port.Close()

	b := board.New(eeprom.NewStore(mem), board.LogHardware(logger), logger)
	runner := board.NewRunner(b, port, logger)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	logger.Info().Str("device", *device).Int("baud", *baud).Str("firmware", board.VersionString).
		Msg("board loop starting")
	if err := runner.Run(ctx); err != nil && ctx.Err() == nil {
		logger.Error().Err(err).Msg("board loop failed")
		return 1
	}
	return 0
}
