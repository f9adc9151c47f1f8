package supervisor

import (
	"strings"
)

// statusAck extracts the acknowledgement flag of the last reset event from
// a STATUS reply, matching the "acknowledged:" label by trimmed line
// prefix. found is false when the report carries no event block.
func statusAck(status string) (acked, found bool) {
	for _, line := range strings.Split(status, "\n") {
		trimmed := strings.TrimSpace(line)
		if rest, ok := strings.CutPrefix(trimmed, "acknowledged:"); ok {
			return strings.TrimSpace(rest) == "yes", true
		}
	}
	return false, false
}

// statusReason extracts the reason line of the last reset event, e.g.
// "22 (external command)".
func statusReason(status string) string {
	for _, line := range strings.Split(status, "\n") {
		trimmed := strings.TrimSpace(line)
		if rest, ok := strings.CutPrefix(trimmed, "reason:"); ok {
			return strings.TrimSpace(rest)
		}
	}
	return ""
}

// NotifyBoot inspects the startup STATUS reply. When the last reset event
// is unacknowledged it mails the full report to the admin address and
// acknowledges slot 0 on the board, so the operator hears about each
// hardware reset exactly once.
func (s *Supervisor) NotifyBoot(status string) {
	if s.cfg.SendMail == "never" || s.cfg.Admin == "" {
		return
	}

	acked, found := statusAck(status)
	if found && !acked {
		subject := "NanoWatchdog: unacknowledged reset event"
		if r := statusReason(status); r != "" {
			subject += " (reason " + r + ")"
		}
		if err := s.mailer.Send(s.cfg.SendFrom, s.cfg.Admin, subject, status); err != nil {
			s.logger.Error().Err(err).Msg("failed to mail reset notification")
			return
		}
		reply, err := s.transport.Send("ACKNOWLEDGE 0")
		if err != nil {
			s.logger.Error().Err(err).Msg("failed to acknowledge reset event")
			return
		}
		s.logger.Info().Str("reply", reply).Msg("last reset event acknowledged")
		return
	}

	if s.cfg.SendMail == "always" {
		body := "No unacknowledged reset event.\n\n" + status
		if err := s.mailer.Send(s.cfg.SendFrom, s.cfg.Admin, "NanoWatchdog: start", body); err != nil {
			s.logger.Error().Err(err).Msg("failed to mail start notification")
		}
	}
}
