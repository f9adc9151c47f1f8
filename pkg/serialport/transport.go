// Package serialport provides the supervisor's framed request/reply
// transport over the serial line to the watchdog board.
package serialport

import (
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/tarm/serial"
)

// Transport sends one line to the board and returns the board's reply.
type Transport interface {
	Send(line string) (string, error)
	Close() error
}

// readUnit is the granularity of the bounded reply read: the port read
// timeout. The reply read gives up after read-timeout consecutive units
// with no byte.
const readUnit = 100 * time.Millisecond

// Serial is the tarm-backed Transport.
type Serial struct {
	port        *serial.Port
	readTimeout int
	logger      zerolog.Logger
}

// Open opens the serial device at the given baud rate, 8N1. readTimeout is
// the number of ~100 ms silent units after which a reply read gives up.
func Open(device string, baud, readTimeout int, logger zerolog.Logger) (*Serial, error) {
	port, err := serial.OpenPort(&serial.Config{
		Name:        device,
		Baud:        baud,
		ReadTimeout: readUnit,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to open serial device %s: %w", device, err)
	}
	logger.Info().Str("device", device).Int("baud", baud).Msg("serial device opened")
	return &Serial{port: port, readTimeout: readTimeout, logger: logger}, nil
}

// Send writes line followed by a newline, then concatenates everything the
// board replies until read-timeout units pass with no byte. One trailing
// CR/LF pair is trimmed. The call is synchronous and blocks the caller for
// at most read-timeout x 100 ms once the board goes silent.
func (s *Serial) Send(line string) (string, error) {
	if _, err := s.port.Write([]byte(line + "\n")); err != nil {
		return "", fmt.Errorf("serial write failed: %w", err)
	}

	var reply []byte
	silent := 0
	for silent < s.readTimeout {
		var chunk [256]byte
		n, err := s.port.Read(chunk[:])
		if n > 0 {
			reply = append(reply, chunk[:n]...)
			silent = 0
			continue
		}
		if err != nil && !isTimeout(err) {
			return "", fmt.Errorf("serial read failed: %w", err)
		}
		silent++
	}

	out := string(reply)
	out = strings.TrimSuffix(out, "\n")
	out = strings.TrimSuffix(out, "\r")
	s.logger.Debug().Str("command", line).Str("reply", out).Msg("serial exchange")
	return out, nil
}

// Close closes the underlying port.
func (s *Serial) Close() error {
	return s.port.Close()
}

// isTimeout reports whether the read error only signals an empty timed-out
// read. The tarm port surfaces those as io.EOF.
func isTimeout(err error) bool {
	return errors.Is(err, io.EOF)
}

// Echo is the Transport substituted when the serial layer is disabled for
// testing: it echoes the command back with a prefix.
type Echo struct{}

// Send returns the command prefixed, never touching any device.
func (Echo) Send(line string) (string, error) {
	return "echo: " + line, nil
}

// Close is a no-op.
func (Echo) Close() error { return nil }
