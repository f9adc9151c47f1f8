package config

import (
	"fmt"
	"strconv"

	"github.com/go-ini/ini"
	"github.com/rs/zerolog"
)

// fileKeys are the configuration file keys applied in order; repeatable
// keys accumulate through ini shadow values.
var fileKeys = []string{
	"device", "baudrate", "open-timeout", "read-timeout",
	"ip", "port-serial", "port-daemon",
	"delay", "interval", "logtick",
	"pid-file", "status-file",
	"send-mail", "send-from", "admin",
	"max-load-1", "max-load-5", "max-load-15",
	"min-memory", "max-temperature",
	"test-directory", "telemetry-config",
}

var repeatableKeys = []string{"pidfile", "ping", "interface"}

// LoadFile layers one configuration file over the current values. A single
// include key chains to a second file (notably /etc/watchdog.conf), loaded
// first so the including file wins. A load failure is reported to the
// caller, which logs and continues with what it already has.
func (c *Config) LoadFile(path string, logger zerolog.Logger) error {
	return c.loadFile(path, logger, true)
}

func (c *Config) loadFile(path string, logger zerolog.Logger, allowInclude bool) error {
	f, err := ini.LoadSources(ini.LoadOptions{
		AllowShadows:             true,
		SkipUnrecognizableLines:  true,
		SpaceBeforeInlineComment: true,
	}, path)
	if err != nil {
		return fmt.Errorf("failed to load configuration file %s: %w", path, err)
	}
	sec := f.Section("")

	if allowInclude && sec.HasKey("include") {
		included := sec.Key("include").String()
		if err := c.loadFile(included, logger, false); err != nil {
			logger.Warn().Err(err).Str("file", included).Msg("skipping included configuration file")
		}
	}

	for _, name := range fileKeys {
		if !sec.HasKey(name) {
			continue
		}
		// Command-line and runtime settings outrank the file.
		if o := c.origins[name]; o == OriginCommandLine || o == OriginRuntime {
			continue
		}
		value := sec.Key(name).String()
		if err := c.Set(name, value, OriginConfigFile); err != nil {
			logger.Warn().Err(err).Str("file", path).Msg("ignoring configuration value")
		}
	}

	for _, name := range repeatableKeys {
		if !sec.HasKey(name) {
			continue
		}
		values := sec.Key(name).ValueWithShadows()
		switch name {
		case "pidfile":
			c.PidFiles = append(c.PidFiles, values...)
		case "ping":
			c.PingHosts = append(c.PingHosts, values...)
		case "interface":
			c.Interfaces = append(c.Interfaces, values...)
		}
		c.origins[name] = OriginConfigFile
	}

	logger.Info().Str("file", path).Msg("configuration file loaded")
	return nil
}

// Clamp forces every numeric parameter into its documented range, logging
// each adjustment. A no-op when force is set.
func (c *Config) Clamp(logger zerolog.Logger) {
	if c.Force {
		return
	}
	for _, p := range c.params {
		if p.Min == 0 && p.Max == 0 {
			continue
		}
		n, err := strconv.Atoi(p.get())
		if err != nil {
			continue
		}
		clamped := n
		if clamped < p.Min {
			clamped = p.Min
		}
		if clamped > p.Max {
			clamped = p.Max
		}
		if clamped != n {
			logger.Warn().Str("parameter", p.Name).Int("value", n).Int("clamped", clamped).
				Msg("parameter out of range, clamped")
			_ = p.set(strconv.Itoa(clamped))
		}
	}
}

// Reload re-reads the configuration file into a fresh record, preserving
// every parameter whose origin is command-line or runtime, and returns the
// new record. The caller swaps it in at the top of the main loop.
func (c *Config) Reload(logger zerolog.Logger) *Config {
	fresh := New()
	fresh.ConfigPath = c.ConfigPath
	if c.ConfigPath != "" {
		if err := fresh.LoadFile(c.ConfigPath, logger); err != nil {
			logger.Warn().Err(err).Msg("reload failed, keeping defaults")
		}
	}
	for _, p := range c.params {
		origin := c.origins[p.Name]
		if origin != OriginCommandLine && origin != OriginRuntime {
			continue
		}
		if err := fresh.Set(p.Name, p.get(), origin); err != nil {
			logger.Warn().Err(err).Str("parameter", p.Name).Msg("failed to carry parameter over reload")
		}
	}
	fresh.Force = c.Force
	fresh.Clamp(logger)
	fresh.DeriveLoadDefaults()
	return fresh
}
