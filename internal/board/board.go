// Package board implements the watchdog board firmware: the serial command
// interpreter, the watchdog timer, and the reset actuator. The development
// build runs the exact same state machine on a host against a serial
// device.
package board

import (
	"fmt"
	"time"

	"github.com/nanowatch/nanowatchdog/internal/eeprom"
	"github.com/nanowatch/nanowatchdog/internal/reason"
	"github.com/rs/zerolog"
)

// Version is the firmware version stamped into every persisted event.
const Version = "2.1.0"

// VersionString is the banner printed by STATUS, kept under the 32-byte
// serialized version field.
const VersionString = "NanoWatchdog v" + Version

// DefaultDelay is the permitted seconds between pings until SET DELAY.
const DefaultDelay = 60

// Board is the firmware state machine. It is driven from a single loop and
// is not safe for concurrent use.
type Board struct {
	store  *eeprom.Store
	hw     Hardware
	logger zerolog.Logger

	now   func() time.Time
	sleep func(time.Duration)

	// Board clock: epoch = host clock + dateOffset once SET DATE ran.
	dateOffset int64
	dateSet    bool

	testMode bool
	delay    uint16

	// Seconds-since-epoch timestamps, zero when unset. Reset is one-shot:
	// once resetTime is set, pings and further resets are ignored until
	// STOP or REINIT.
	startTime int64
	lastPing  int64
	resetTime int64
}

// Option adjusts a Board at construction time.
type Option func(*Board)

// WithClock substitutes the time source, for tests.
func WithClock(now func() time.Time) Option {
	return func(b *Board) { b.now = now }
}

// WithSleep substitutes the blocking sleep used for LED blinks and the
// relay pulse, for tests.
func WithSleep(sleep func(time.Duration)) Option {
	return func(b *Board) { b.sleep = sleep }
}

// New builds a Board over an event store and a set of output pins.
func New(store *eeprom.Store, hw Hardware, logger zerolog.Logger, opts ...Option) *Board {
	b := &Board{
		store:  store,
		hw:     hw,
		logger: logger,
		now:    time.Now,
		sleep:  time.Sleep,
		delay:  DefaultDelay,
	}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// Now returns the board clock as seconds since epoch, including the offset
// applied by SET DATE.
func (b *Board) Now() int64 {
	return b.now().Unix() + b.dateOffset
}

// HandleLine parses and executes one serial line and returns the full
// reply. Multi-line output precedes the acknowledgement line.
func (b *Board) HandleLine(line string) string {
	cmd, ok := ParseCommand(line)
	if !ok {
		return fmt.Sprintf("Unknown or invalid command: %s", line)
	}
	out := b.dispatch(cmd)
	return out + fmt.Sprintf("OK: %s", line)
}

// dispatch executes the command and returns any multi-line output,
// newline-terminated, to be emitted before the acknowledgement.
func (b *Board) dispatch(cmd Command) string {
	switch c := cmd.(type) {
	case Noop:
		return ""
	case Help:
		return b.helpText()
	case Ping:
		if b.startTime != 0 && b.resetTime == 0 {
			b.lastPing = b.Now()
			b.blink(b.hw.PingLED)
		}
		return ""
	case Start:
		if b.startTime == 0 {
			b.startTime = b.Now()
			b.lastPing = b.startTime
			b.hw.StartLED.Set(true)
			b.logger.Info().Int64("start_time", b.startTime).Msg("watchdog started")
		}
		return ""
	case Stop, Reinit:
		b.startTime = 0
		b.lastPing = 0
		b.resetTime = 0
		b.hw.StartLED.Set(false)
		b.hw.ResetLED.Set(false)
		b.logger.Info().Msg("watchdog stopped")
		return ""
	case SetDate:
		b.dateOffset = int64(c.Value) - b.now().Unix()
		b.dateSet = true
		return ""
	case SetDelay:
		b.delay = c.Value
		return ""
	case SetTest:
		b.testMode = c.On
		return ""
	case Reboot:
		b.execReset(c.Reason)
		return ""
	case Acknowledge:
		if err := b.acknowledge(c.Slot); err != nil {
			b.logger.Error().Err(err).Int("slot", c.Slot).Msg("acknowledge failed")
		}
		return ""
	case EepromInit:
		if err := b.eepromInit(); err != nil {
			b.logger.Error().Err(err).Msg("eeprom init failed")
		}
		return ""
	case EepromDump:
		return b.dumpText()
	case Status:
		return b.statusText()
	}
	return ""
}

// Tick evaluates the watchdog condition; the main loop calls it once per
// iteration. The watchdog fires when armed, not already fired, and the
// last ping is older than the configured delay.
func (b *Board) Tick() {
	if b.startTime == 0 || b.resetTime != 0 {
		return
	}
	if b.Now() > b.lastPing+int64(b.delay) {
		b.logger.Warn().Int64("last_ping", b.lastPing).Uint16("delay", b.delay).Msg("ping missed")
		b.execReset(reason.NoPing)
	}
}

// execReset fires the reset actuator. One-shot: a no-op when a reset was
// already fired. In test mode the relay stays open and no event is
// persisted; only the RESET LED lights.
func (b *Board) execReset(code int) {
	if b.resetTime != 0 {
		return
	}
	b.resetTime = b.Now()
	b.hw.ResetLED.Set(true)
	if b.testMode {
		b.logger.Info().Int("reason", code).Msg("reset suppressed in test mode")
		return
	}

	ev := eeprom.NewEvent(VersionString, b.resetTime, code)
	if err := b.store.PushResetEvent(ev); err != nil {
		b.logger.Error().Err(err).Msg("failed to persist reset event")
	}

	b.logger.Warn().Int("reason", code).Str("label", reason.String(code)).Msg("closing reset relay")
	b.hw.Relay.Set(true)
	b.sleep(BlinkDuration)
	b.hw.Relay.Set(false)
}

func (b *Board) acknowledge(slot int) error {
	ev, err := b.store.ResetEvent(slot)
	if err != nil {
		return err
	}
	ev.Ack = true
	return b.store.SetResetEvent(ev, slot)
}

func (b *Board) eepromInit() error {
	if err := b.store.Erase(); err != nil {
		return err
	}
	ev := eeprom.NewEvent(VersionString, b.Now(), reason.Init)
	ev.Ack = true
	return b.store.SetInitEvent(ev)
}

func (b *Board) blink(pin Pin) {
	pin.Set(true)
	b.sleep(BlinkDuration)
	pin.Set(false)
}
