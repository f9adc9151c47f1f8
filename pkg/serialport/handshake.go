package serialport

import (
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/Masterminds/semver/v3"
	"github.com/codeGROOVE-dev/retry"
	"github.com/rs/zerolog"
)

// MinFirmware is the oldest board firmware the supervisor knows how to
// drive. Older boards answer commands this supervisor never sends.
const MinFirmware = "2.0.0"

var versionBanner = regexp.MustCompile(`\[NanoWatchdog v([0-9][^\]\s]*)\]`)

// Handshake verifies the board is alive by sending NOOP until it answers
// "OK: NOOP", retrying for up to openTimeout seconds. An empty reply means
// the board is not ready yet.
func Handshake(t Transport, openTimeout int, logger zerolog.Logger) error {
	attempts := uint(openTimeout)
	if attempts == 0 {
		attempts = 1
	}
	err := retry.Do(func() error {
		reply, err := t.Send("NOOP")
		if err != nil {
			return err
		}
		if reply != "OK: NOOP" {
			return fmt.Errorf("board not ready: %q", reply)
		}
		return nil
	}, retry.Attempts(attempts), retry.Delay(time.Second), retry.MaxDelay(time.Second))
	if err != nil {
		return fmt.Errorf("board never answered NOOP: %w", err)
	}
	logger.Info().Msg("board handshake succeeded")
	return nil
}

// CheckFirmware fetches STATUS and compares the firmware version banner
// against MinFirmware. An unparsable banner only logs a warning; boards in
// the field print banners this code has never seen.
func CheckFirmware(t Transport, logger zerolog.Logger) (string, error) {
	status, err := t.Send("STATUS")
	if err != nil {
		return "", err
	}
	m := versionBanner.FindStringSubmatch(status)
	if m == nil {
		logger.Warn().Msg("board did not report a recognizable firmware version")
		return status, nil
	}
	version, err := semver.NewVersion(m[1])
	if err != nil {
		logger.Warn().Str("version", m[1]).Msg("unparsable board firmware version")
		return status, nil
	}
	if version.LessThan(semver.MustParse(MinFirmware)) {
		return status, fmt.Errorf("board firmware %s is older than the minimum supported %s", version, MinFirmware)
	}
	logger.Info().Str("firmware", version.String()).Msg("board firmware accepted")
	return status, nil
}

// Configure runs the board configuration sequence: test mode, board clock,
// watchdog delay, then START. Each command must be positively acknowledged.
func Configure(t Transport, test bool, delay int, now time.Time, logger zerolog.Logger) error {
	mode := "OFF"
	if test {
		mode = "ON"
	}
	sequence := []string{
		"SET TEST " + mode,
		fmt.Sprintf("SET DATE %d", now.Unix()),
		fmt.Sprintf("SET DELAY %d", delay),
		"START",
	}
	for _, cmd := range sequence {
		reply, err := t.Send(cmd)
		if err != nil {
			return fmt.Errorf("%s: %w", cmd, err)
		}
		if !strings.HasSuffix(reply, "OK: "+cmd) {
			return fmt.Errorf("board rejected %q: %s", cmd, reply)
		}
		logger.Debug().Str("command", cmd).Msg("board configured")
	}
	return nil
}
