// Package config holds the supervisor's configuration record: a single
// owned value assembled from defaults, the configuration file, the command
// line, and runtime commands, with per-parameter origin tracking backing
// the DUMP PARMS and GET endpoints.
package config

import (
	"fmt"
	"strconv"
	"strings"
)

// Origin records where a parameter's current value came from. HUP reload
// overwrites default and config-file values only.
type Origin int

const (
	OriginDefault Origin = iota
	OriginConfigFile
	OriginCommandLine
	OriginRuntime
)

func (o Origin) String() string {
	switch o {
	case OriginConfigFile:
		return "config-file"
	case OriginCommandLine:
		return "command-line"
	case OriginRuntime:
		return "runtime"
	default:
		return "default"
	}
}

// Config is the supervisor configuration record. It is owned by the main
// loop and never shared across goroutines.
type Config struct {
	// Serial line to the board.
	Device      string
	Baudrate    int
	OpenTimeout int // seconds to wait for the NOOP handshake
	ReadTimeout int // ~100 ms units of silence ending a reply read

	// TCP surfaces.
	IP         string
	PortSerial int // board-forwarding listener
	PortDaemon int // supervisor-command listener

	// Watchdog cadence.
	Delay    int // seconds the board waits for a ping
	Interval int // seconds between check+ping cycles
	Logtick  int // intervals between periodic log lines

	// Side files.
	PidFile    string
	StatusFile string

	// Boot notifier.
	SendMail string // never, auto or always
	SendFrom string
	Admin    string

	// Health checks.
	MaxLoad1       int
	MaxLoad5       int
	MaxLoad15      int
	MinMemory      int // 4-KiB pages of free swap
	MaxTemperature int
	PidFiles       []string
	PingHosts      []string
	Interfaces     []string
	TestDirectory  string

	// Optional telemetry sidecar configuration file.
	TelemetryConfig string

	// Daemon-level switches.
	Verbose int
	Daemon  bool
	Serial  bool // drive the real serial line; disabled for testing
	NwPing  bool // emit the periodic PING
	Action  bool // actually send REBOOT instead of only logging
	Force   bool // accept out-of-range values as-is

	ConfigPath string

	params  []*Param
	origins map[string]Origin
}

// Param describes one registered parameter: its name, its value accessors,
// and its clamping range when numeric.
type Param struct {
	Name     string
	Min, Max int  // clamping range; both zero means unclamped
	Runtime  bool // settable through the supervisor-command endpoint

	get func() string
	set func(string) error
}

// New returns a Config holding the documented defaults, with every
// parameter registered and marked origin default.
func New() *Config {
	c := &Config{
		Device:         "/dev/ttyUSB0",
		Baudrate:       19200,
		OpenTimeout:    10,
		ReadTimeout:    5,
		IP:             "127.0.0.1",
		PortSerial:     7777,
		PortDaemon:     7778,
		Delay:          60,
		Interval:       10,
		Logtick:        1,
		SendMail:       "never",
		SendFrom:       "nanowatchdog",
		MaxTemperature: 90,
		Verbose:        2,
		Serial:         true,
		NwPing:         true,
		Action:         true,
		origins:        make(map[string]Origin),
	}
	c.register()
	return c
}

func (c *Config) register() {
	c.params = []*Param{
		c.stringParam("device", &c.Device),
		c.intParam("baudrate", &c.Baudrate, 1200, 115200),
		c.intParam("open-timeout", &c.OpenTimeout, 1, 60),
		c.intParam("read-timeout", &c.ReadTimeout, 1, 50),
		c.stringParam("ip", &c.IP),
		c.intParam("port-serial", &c.PortSerial, 1, 65535),
		c.intParam("port-daemon", &c.PortDaemon, 1, 65535),
		c.intParam("delay", &c.Delay, 1, 65535),
		c.intParam("interval", &c.Interval, 5, 60),
		c.intParam("logtick", &c.Logtick, 1, 3600),
		c.stringParam("pid-file", &c.PidFile),
		c.stringParam("status-file", &c.StatusFile),
		c.enumParam("send-mail", &c.SendMail, "never", "auto", "always"),
		c.stringParam("send-from", &c.SendFrom),
		c.stringParam("admin", &c.Admin),
		c.intParam("max-load-1", &c.MaxLoad1, 0, 1000),
		c.intParam("max-load-5", &c.MaxLoad5, 0, 1000),
		c.intParam("max-load-15", &c.MaxLoad15, 0, 1000),
		c.intParam("min-memory", &c.MinMemory, 0, 1<<30),
		c.intParam("max-temperature", &c.MaxTemperature, 1, 256),
		c.listParam("pidfile", &c.PidFiles),
		c.listParam("ping", &c.PingHosts),
		c.listParam("interface", &c.Interfaces),
		c.stringParam("test-directory", &c.TestDirectory),
		c.stringParam("telemetry-config", &c.TelemetryConfig),
		c.runtimeParam(c.intParam("verbose", &c.Verbose, 0, 7)),
		c.boolParam("daemon", &c.Daemon),
		c.boolParam("serial", &c.Serial),
		c.runtimeParam(c.boolParam("nwping", &c.NwPing)),
		c.boolParam("action", &c.Action),
		c.boolParam("force", &c.Force),
	}
}

func (c *Config) stringParam(name string, v *string) *Param {
	return &Param{
		Name: name,
		get:  func() string { return *v },
		set:  func(s string) error { *v = s; return nil },
	}
}

func (c *Config) intParam(name string, v *int, min, max int) *Param {
	return &Param{
		Name: name,
		Min:  min,
		Max:  max,
		get:  func() string { return strconv.Itoa(*v) },
		set: func(s string) error {
			n, err := strconv.Atoi(s)
			if err != nil {
				return fmt.Errorf("%s: invalid integer %q", name, s)
			}
			*v = n
			return nil
		},
	}
}

func (c *Config) boolParam(name string, v *bool) *Param {
	return &Param{
		Name: name,
		get:  func() string { return strconv.FormatBool(*v) },
		set: func(s string) error {
			b, err := strconv.ParseBool(s)
			if err != nil {
				return fmt.Errorf("%s: invalid boolean %q", name, s)
			}
			*v = b
			return nil
		},
	}
}

func (c *Config) enumParam(name string, v *string, allowed ...string) *Param {
	return &Param{
		Name: name,
		get:  func() string { return *v },
		set: func(s string) error {
			for _, a := range allowed {
				if s == a {
					*v = s
					return nil
				}
			}
			return fmt.Errorf("%s: must be one of %s", name, strings.Join(allowed, ", "))
		},
	}
}

func (c *Config) listParam(name string, v *[]string) *Param {
	return &Param{
		Name: name,
		get:  func() string { return strings.Join(*v, ",") },
		set: func(s string) error {
			if s == "" {
				*v = nil
				return nil
			}
			*v = strings.Split(s, ",")
			return nil
		},
	}
}

func (c *Config) runtimeParam(p *Param) *Param {
	p.Runtime = true
	return p
}

// Param returns the registered parameter with the given name, or nil.
func (c *Config) Param(name string) *Param {
	for _, p := range c.params {
		if p.Name == name {
			return p
		}
	}
	return nil
}

// Get returns "name=value" for a known parameter and the empty string
// otherwise.
func (c *Config) Get(name string) string {
	p := c.Param(name)
	if p == nil {
		return ""
	}
	return p.Name + "=" + p.get()
}

// Origin returns where the named parameter's value came from.
func (c *Config) Origin(name string) Origin {
	return c.origins[name]
}

// Set updates one parameter from its string form and records its origin.
func (c *Config) Set(name, value string, origin Origin) error {
	p := c.Param(name)
	if p == nil {
		return fmt.Errorf("unknown parameter: %s", name)
	}
	if err := p.set(value); err != nil {
		return err
	}
	c.origins[name] = origin
	return nil
}

// DumpParms renders the tabular parameter dump served by DUMP PARMS, one
// "name = value (origin)" row per parameter in registration order.
func (c *Config) DumpParms() string {
	var sb strings.Builder
	for _, p := range c.params {
		fmt.Fprintf(&sb, "%s = %s (%s)\n", p.Name, p.get(), c.origins[p.Name])
	}
	return sb.String()
}

// DeriveLoadDefaults fills the unset load thresholds from max-load-1:
// max-load-5 is three quarters of it, max-load-15 half. A zero threshold
// disables that load check.
func (c *Config) DeriveLoadDefaults() {
	if c.MaxLoad1 <= 0 {
		return
	}
	if _, set := c.origins["max-load-5"]; !set {
		c.MaxLoad5 = c.MaxLoad1 * 3 / 4
	}
	if _, set := c.origins["max-load-15"]; !set {
		c.MaxLoad15 = c.MaxLoad1 / 2
	}
}

// ParseVerbose parses a verbosity value in decimal, 0x... hex or 0b...
// binary form.
func ParseVerbose(s string) (int, error) {
	n, err := strconv.ParseUint(s, 0, 16)
	if err != nil {
		return 0, fmt.Errorf("invalid verbosity %q", s)
	}
	return int(n), nil
}
