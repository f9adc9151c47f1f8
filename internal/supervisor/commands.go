package supervisor

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/nanowatch/nanowatchdog/internal/config"
	"github.com/rs/zerolog"
)

// Supervisor-command endpoint grammar. Case-sensitive keywords with
// leading and trailing whitespace tolerated.
var (
	reDumpParms  = regexp.MustCompile(`^\s*DUMP PARMS\s*$`)
	reDumpOpts   = regexp.MustCompile(`^\s*DUMP OPTS\s*$`)
	reGet        = regexp.MustCompile(`^\s*GET ([a-z0-9-]+)\s*$`)
	reHelp       = regexp.MustCompile(`^\s*HELP\s*$`)
	rePing       = regexp.MustCompile(`^\s*PING (ON|OFF)\s*$`)
	reSetVerbose = regexp.MustCompile(`^\s*SET VERBOSE ([0-9a-fA-FxXbB]+)\s*$`)
	reQuit       = regexp.MustCompile(`^\s*QUIT\s*$`)
)

const daemonHelpText = `Available commands:
  DUMP PARMS
  GET <parameter>
  HELP
  PING ON|OFF
  SET VERBOSE <n|0x..|0b..>
  QUIT
`

// HandleDaemonCommand interprets one line received on the
// supervisor-command endpoint and returns the reply. Multi-line output
// precedes the acknowledgement line; unknown commands get a negative
// single-line reply.
func (s *Supervisor) HandleDaemonCommand(request string) string {
	trimmed := strings.TrimSpace(request)
	switch {
	case reDumpParms.MatchString(request) || reDumpOpts.MatchString(request):
		// DUMP OPTS is the deprecated spelling.
		return s.cfg.DumpParms() + "OK: " + trimmed + "\n"

	case reGet.MatchString(request):
		name := reGet.FindStringSubmatch(request)[1]
		kv := s.cfg.Get(name)
		if kv == "" {
			return ""
		}
		return kv + "\n"

	case reHelp.MatchString(request):
		return daemonHelpText + "OK: " + trimmed + "\n"

	case rePing.MatchString(request):
		on := rePing.FindStringSubmatch(request)[1] == "ON"
		if err := s.cfg.Set("nwping", strconv.FormatBool(on), config.OriginRuntime); err != nil {
			s.logger.Error().Err(err).Msg("failed to toggle pinging")
		}
		s.logger.Info().Bool("ping", on).Msg("periodic pinging toggled")
		return "OK: " + trimmed + "\n"

	case reSetVerbose.MatchString(request):
		raw := reSetVerbose.FindStringSubmatch(request)[1]
		n, err := config.ParseVerbose(raw)
		if err != nil {
			return fmt.Sprintf("unknown command: %s\n", request)
		}
		if err := s.cfg.Set("verbose", strconv.Itoa(n), config.OriginRuntime); err != nil {
			s.logger.Error().Err(err).Msg("failed to set verbosity")
		}
		ApplyVerbosity(n)
		s.logger.Info().Int("verbose", n).Msg("verbosity updated")
		return "OK: " + trimmed + "\n"

	case reQuit.MatchString(request):
		s.quit = true
		s.exitCode = 0
		return "OK: " + trimmed + "\n"

	default:
		return fmt.Sprintf("unknown command: %s\n", request)
	}
}

// HandleBoardCommand forwards one line received on the board-forwarding
// endpoint to the serial transport and returns the board's reply verbatim.
func (s *Supervisor) HandleBoardCommand(request string) string {
	reply, err := s.transport.Send(request)
	if err != nil {
		s.logger.Error().Err(err).Str("command", request).Msg("serial forward failed")
		return fmt.Sprintf("serial error: %v\n", err)
	}
	return reply + "\n"
}

// ApplyVerbosity maps the numeric verbosity to the global zerolog level:
// 0 errors only, 1 warnings, 2 informational, 3 and above debug.
func ApplyVerbosity(n int) {
	switch {
	case n <= 0:
		zerolog.SetGlobalLevel(zerolog.ErrorLevel)
	case n == 1:
		zerolog.SetGlobalLevel(zerolog.WarnLevel)
	case n == 2:
		zerolog.SetGlobalLevel(zerolog.InfoLevel)
	default:
		zerolog.SetGlobalLevel(zerolog.DebugLevel)
	}
}
