package board

import (
	"context"
	"io"

	"github.com/rs/zerolog"
)

// MaxLineLen bounds the input buffer; longer lines are truncated and will
// fail command matching.
const MaxLineLen = 128

// Runner drives a Board from a byte stream, typically a serial port opened
// with a short read timeout so that reads never park the loop. One Step
// per pass: dispatch a command if a complete line is buffered, then
// evaluate the watchdog condition.
type Runner struct {
	board  *Board
	rw     io.ReadWriter
	logger zerolog.Logger

	line []byte
}

// NewRunner builds a Runner over an opened stream.
func NewRunner(b *Board, rw io.ReadWriter, logger zerolog.Logger) *Runner {
	return &Runner{board: b, rw: rw, logger: logger}
}

// Run steps the loop until ctx is cancelled. The stream's own read timeout
// paces the loop.
func (r *Runner) Run(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}
		if err := r.Step(); err != nil {
			return err
		}
	}
}

// Step performs one loop iteration: consume whatever bytes are available,
// execute any completed lines, then tick the watchdog.
func (r *Runner) Step() error {
	var chunk [64]byte
	n, err := r.rw.Read(chunk[:])
	if err != nil && err != io.EOF {
		return err
	}
	for _, c := range chunk[:n] {
		if c == '\n' {
			r.execLine()
			continue
		}
		if len(r.line) < MaxLineLen {
			r.line = append(r.line, c)
		}
	}
	r.board.Tick()
	return nil
}

func (r *Runner) execLine() {
	line := string(r.line)
	r.line = r.line[:0]
	if n := len(line); n > 0 && line[n-1] == '\r' {
		line = line[:n-1]
	}
	reply := r.board.HandleLine(line)
	if _, err := io.WriteString(r.rw, reply+"\n"); err != nil {
		r.logger.Error().Err(err).Msg("failed to write reply")
	}
}
