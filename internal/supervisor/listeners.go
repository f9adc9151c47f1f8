package supervisor

import (
	"bytes"
	"fmt"
	"net"
	"time"

	"github.com/rs/zerolog"
)

// MaxRequestLen bounds one TCP request; longer requests are truncated.
const MaxRequestLen = 4096

// connDeadline bounds one whole client exchange.
const connDeadline = 5 * time.Second

// Listener is one of the supervisor's two single-shot TCP endpoints. The
// accept attempt never blocks: a deadline in the past makes Accept return
// immediately when no client is waiting.
type Listener struct {
	ln     *net.TCPListener
	logger zerolog.Logger
}

// Listen binds a TCP listener on addr:port.
func Listen(addr string, port int, logger zerolog.Logger) (*Listener, error) {
	tcpAddr, err := net.ResolveTCPAddr("tcp", fmt.Sprintf("%s:%d", addr, port))
	if err != nil {
		return nil, fmt.Errorf("bad listener address %s:%d: %w", addr, port, err)
	}
	ln, err := net.ListenTCP("tcp", tcpAddr)
	if err != nil {
		return nil, fmt.Errorf("failed to bind %s:%d: %w", addr, port, err)
	}
	logger.Info().Str("addr", tcpAddr.String()).Msg("listener bound")
	return &Listener{ln: ln, logger: logger}, nil
}

// Addr returns the bound address.
func (l *Listener) Addr() net.Addr { return l.ln.Addr() }

// Close closes the listener.
func (l *Listener) Close() error { return l.ln.Close() }

// ServeOne accepts at most one pending connection and services it to
// completion with the given handler. It returns immediately when no
// client is waiting. Errors on a single connection are logged and the
// connection dropped; the listener stays open.
func (l *Listener) ServeOne(handle func(request string) string) {
	if err := l.ln.SetDeadline(time.Now()); err != nil {
		l.logger.Error().Err(err).Msg("failed to arm accept deadline")
		return
	}
	conn, err := l.ln.AcceptTCP()
	if err != nil {
		if ne, ok := err.(net.Error); ok && ne.Timeout() {
			return // nobody waiting
		}
		l.logger.Warn().Err(err).Msg("accept failed")
		return
	}
	defer conn.Close()

	if err := conn.SetDeadline(time.Now().Add(connDeadline)); err != nil {
		l.logger.Warn().Err(err).Msg("failed to set connection deadline")
		return
	}

	request, err := readRequest(conn)
	if err != nil {
		l.logger.Warn().Err(err).Msg("failed to read request")
		return
	}

	reply := handle(request)
	if _, err := conn.Write([]byte(reply)); err != nil {
		l.logger.Warn().Err(err).Msg("failed to write reply")
		return
	}
	// Half-close so the client sees end of reply.
	if err := conn.CloseWrite(); err != nil {
		l.logger.Debug().Err(err).Msg("half-close failed")
	}
}

// readRequest reads up to MaxRequestLen bytes, stopping at the first
// newline. The trailing line terminator is stripped.
func readRequest(conn net.Conn) (string, error) {
	buf := make([]byte, 0, 256)
	chunk := make([]byte, 256)
	for len(buf) < MaxRequestLen {
		n, err := conn.Read(chunk)
		buf = append(buf, chunk[:n]...)
		if bytes.IndexByte(buf, '\n') >= 0 {
			break
		}
		if err != nil {
			if len(buf) == 0 {
				return "", err
			}
			break
		}
	}
	if len(buf) > MaxRequestLen {
		buf = buf[:MaxRequestLen]
	}
	if i := bytes.IndexByte(buf, '\n'); i >= 0 {
		buf = buf[:i]
	}
	buf = bytes.TrimSuffix(buf, []byte("\r"))
	return string(buf), nil
}
