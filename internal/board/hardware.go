package board

import (
	"time"

	"github.com/rs/zerolog"
)

// Pin is one digital output: a status LED or the reset relay.
type Pin interface {
	Set(high bool)
}

// Hardware bundles the board's outputs.
type Hardware struct {
	StartLED Pin
	PingLED  Pin
	ResetLED Pin
	Relay    Pin
}

// BlinkDuration is the on time for an LED blink and for the relay pulse
// that closes the motherboard RESET contact.
const BlinkDuration = 300 * time.Millisecond

// LogPin is a Pin that only logs transitions. The development build of the
// firmware has no GPIOs to drive.
type LogPin struct {
	Name   string
	Logger zerolog.Logger
}

func (p *LogPin) Set(high bool) {
	p.Logger.Debug().Str("pin", p.Name).Bool("high", high).Msg("pin transition")
}

// LogHardware returns a Hardware whose pins log through the given logger.
func LogHardware(logger zerolog.Logger) Hardware {
	return Hardware{
		StartLED: &LogPin{Name: "start-led", Logger: logger},
		PingLED:  &LogPin{Name: "ping-led", Logger: logger},
		ResetLED: &LogPin{Name: "reset-led", Logger: logger},
		Relay:    &LogPin{Name: "relay", Logger: logger},
	}
}
