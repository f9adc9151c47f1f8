// Package mailer is the injected mail sink used by the boot notifier. The
// actual transport is out of the supervisor's hands; anything able to
// deliver a subject and a body to the admin address satisfies it.
package mailer

import (
	"fmt"
	"net/smtp"
	"strings"

	"github.com/rs/zerolog"
)

// Mailer delivers one message.
type Mailer interface {
	Send(from, to, subject, body string) error
}

// SMTP delivers through a local or configured SMTP relay.
type SMTP struct {
	Addr   string // host:port of the relay, default localhost:25
	logger zerolog.Logger
}

// NewSMTP builds a Mailer over the given relay address.
func NewSMTP(addr string, logger zerolog.Logger) *SMTP {
	if addr == "" {
		addr = "localhost:25"
	}
	return &SMTP{Addr: addr, logger: logger}
}

// Send composes a minimal RFC 5322 message and hands it to the relay.
func (s *SMTP) Send(from, to, subject, body string) error {
	var msg strings.Builder
	fmt.Fprintf(&msg, "From: %s\r\n", from)
	fmt.Fprintf(&msg, "To: %s\r\n", to)
	fmt.Fprintf(&msg, "Subject: %s\r\n", subject)
	msg.WriteString("\r\n")
	msg.WriteString(strings.ReplaceAll(body, "\n", "\r\n"))

	if err := smtp.SendMail(s.Addr, nil, from, []string{to}, []byte(msg.String())); err != nil {
		return fmt.Errorf("failed to send mail through %s: %w", s.Addr, err)
	}
	s.logger.Info().Str("to", to).Str("subject", subject).Msg("mail sent")
	return nil
}
