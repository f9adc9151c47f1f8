package config

import (
	"flag"
	"fmt"
	"io"
	"strconv"
)

// CLIRequest reports the immediate-exit switches of a parsed command line.
type CLIRequest struct {
	Help    bool
	Version bool
}

// cliToParam maps command-line flag names to registered parameter names
// where the two differ.
var cliToParam = map[string]string{
	"port-board": "port-serial",
	"ping":       "nwping",
}

// ParseCLI applies the command-line arguments on top of the current
// configuration. Long options only; every boolean flag has a --no<flag>
// negation. The sync and softboot flags are accepted and ignored. An
// invocation with no arguments at all requests the help text.
func (c *Config) ParseCLI(args []string, out io.Writer) (CLIRequest, error) {
	var req CLIRequest
	if len(args) == 0 {
		req.Help = true
		return req, nil
	}

	fs := flag.NewFlagSet("nwdaemon", flag.ContinueOnError)
	fs.SetOutput(out)

	fs.BoolVar(&req.Help, "help", false, "print this help and exit")
	fs.BoolVar(&req.Version, "version", false, "print the version and exit")

	verbose := fs.String("verbose", "", "verbosity level (decimal, 0x hex or 0b binary)")
	configPath := fs.String("config", "", "configuration file path")
	device := fs.String("device", "", "serial device path")
	ip := fs.String("ip", "", "listener bind address")
	portDaemon := fs.Int("port-daemon", 0, "supervisor-command listener port")
	portBoard := fs.Int("port-board", 0, "board-forwarding listener port")
	delay := fs.Int("delay", 0, "board watchdog delay in seconds")
	interval := fs.Int("interval", 0, "seconds between check cycles")

	bools := map[string]*boolFlag{}
	for _, name := range []string{"daemon", "serial", "ping", "action", "sync", "softboot", "force"} {
		b := &boolFlag{}
		fs.Var(&b.on, name, "enable "+name)
		fs.Var(&b.off, "no"+name, "disable "+name)
		bools[name] = b
	}

	if err := fs.Parse(args); err != nil {
		return req, err
	}
	if fs.NArg() > 0 {
		return req, fmt.Errorf("unexpected argument: %s", fs.Arg(0))
	}
	if req.Help || req.Version {
		return req, nil
	}

	set := map[string]bool{}
	fs.Visit(func(f *flag.Flag) { set[f.Name] = true })

	if set["verbose"] {
		n, err := ParseVerbose(*verbose)
		if err != nil {
			return req, err
		}
		c.Verbose = n
		c.origins["verbose"] = OriginCommandLine
	}
	if set["config"] {
		c.ConfigPath = *configPath
	}

	strs := map[string]string{"device": *device, "ip": *ip}
	ints := map[string]int{
		"port-daemon": *portDaemon,
		"port-board":  *portBoard,
		"delay":       *delay,
		"interval":    *interval,
	}
	for name, v := range strs {
		if set[name] {
			if err := c.setCLI(name, v); err != nil {
				return req, err
			}
		}
	}
	for name, v := range ints {
		if set[name] {
			if err := c.setCLI(name, strconv.Itoa(v)); err != nil {
				return req, err
			}
		}
	}
	for name, b := range bools {
		v, ok := b.value(set[name], set["no"+name])
		if !ok {
			continue
		}
		if name == "sync" || name == "softboot" {
			continue // recognized for compatibility, no effect
		}
		if err := c.setCLI(name, strconv.FormatBool(v)); err != nil {
			return req, err
		}
	}
	return req, nil
}

func (c *Config) setCLI(name, value string) error {
	if mapped, ok := cliToParam[name]; ok {
		name = mapped
	}
	return c.Set(name, value, OriginCommandLine)
}

// boolFlag pairs a flag with its --no negation; the negation wins when
// both appear.
type boolFlag struct {
	on, off presentFlag
}

func (b *boolFlag) value(onSet, offSet bool) (value, ok bool) {
	if offSet {
		return false, true
	}
	if onSet {
		return bool(b.on), true
	}
	return false, false
}

// presentFlag is a valueless boolean flag: --daemon rather than
// --daemon=true.
type presentFlag bool

func (p *presentFlag) String() string { return strconv.FormatBool(bool(*p)) }

func (p *presentFlag) Set(s string) error {
	v, err := strconv.ParseBool(s)
	if err != nil {
		return err
	}
	*p = presentFlag(v)
	return nil
}

func (p *presentFlag) IsBoolFlag() bool { return true }

// Usage is the help text printed for --help or an empty command line.
const Usage = `Usage: nwdaemon [options]

Options:
  --help                 print this help and exit
  --version              print the version and exit
  --verbose=<n>          verbosity level (decimal, 0x... or 0b...)
  --config=<path>        configuration file path
  --device=<path>        serial device of the watchdog board
  --ip=<addr>            bind address of the TCP listeners
  --port-board=<n>       board-forwarding listener port (default 7777)
  --port-daemon=<n>      supervisor-command listener port (default 7778)
  --delay=<s>            board watchdog delay in seconds (default 60)
  --interval=<s>         seconds between check cycles (default 10)
  --[no]daemon           run in the background
  --[no]serial           drive the serial line (disable for testing)
  --[no]ping             emit the periodic PING to the board
  --[no]action           send REBOOT on a failed check (else log only)
  --[no]sync             ignored, kept for compatibility
  --[no]softboot         ignored, kept for compatibility
  --[no]force            accept out-of-range parameter values as-is
`
