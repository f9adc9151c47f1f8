package supervisor

import (
	"os"
	"os/signal"
	"sync/atomic"
	"syscall"

	"github.com/rs/zerolog"
)

// Signals collects the process signals as atomic flags. The handlers do no
// work themselves; the main loop observes the flags at the top of each
// iteration, keeping the supervisor strictly cooperative.
type Signals struct {
	hup  atomic.Bool
	usr1 atomic.Bool
	intr atomic.Bool
	term atomic.Bool
}

// Notify starts the signal receiver goroutine.
func Notify(logger zerolog.Logger) *Signals {
	s := &Signals{}
	ch := make(chan os.Signal, 4)
	signal.Notify(ch, syscall.SIGHUP, syscall.SIGINT, syscall.SIGTERM, syscall.SIGUSR1)
	go func() {
		for sig := range ch {
			logger.Info().Str("signal", sig.String()).Msg("signal received")
			switch sig {
			case syscall.SIGHUP:
				s.hup.Store(true)
			case syscall.SIGUSR1:
				s.usr1.Store(true)
			case syscall.SIGINT:
				s.intr.Store(true)
			case syscall.SIGTERM:
				s.term.Store(true)
			}
		}
	}()
	return s
}

// TakeHup consumes the pending HUP flag.
func (s *Signals) TakeHup() bool { return s.hup.Swap(false) }

// TakeUsr1 consumes the pending USR1 flag.
func (s *Signals) TakeUsr1() bool { return s.usr1.Swap(false) }

// TakeInt consumes the pending INT flag.
func (s *Signals) TakeInt() bool { return s.intr.Swap(false) }

// TakeTerm consumes the pending TERM flag.
func (s *Signals) TakeTerm() bool { return s.term.Swap(false) }
