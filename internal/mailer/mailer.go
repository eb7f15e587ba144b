// Package mailer sends registration notification mail. Failures are logged
// and never bubble up to the request path.
package mailer

import (
	"errors"
	"fmt"
	"net/smtp"
	"strings"

	"github.com/rs/zerolog"
)

// Mailer sends plain-text notification mail over SMTP. A zero-configured
// mailer logs and drops messages, which keeps dev environments quiet.
type Mailer struct {
	addr     string // host:port
	from     string
	password string
	log      zerolog.Logger
}

// New creates a mailer. addr may be empty to disable sending.
func New(addr, from, password string, log zerolog.Logger) *Mailer {
	return &Mailer{addr: addr, from: from, password: password, log: log}
}

// SendRegistrationMail notifies a user about a registration state change.
// kind is "registered" or "cancelled".
func (m *Mailer) SendRegistrationMail(to, eventTitle, kind string) error {
	if m.addr == "" {
		m.log.Debug().Str("to", to).Str("kind", kind).Msg("smtp not configured, mail dropped")
		return nil
	}

	var subject, body string
	switch kind {
	case "registered":
		subject = "Registration confirmed: " + eventTitle
		body = fmt.Sprintf("You are registered for %q. See you there!", eventTitle)
	case "cancelled":
		subject = "Registration cancelled: " + eventTitle
		body = fmt.Sprintf("Your registration for %q has been cancelled.", eventTitle)
	default:
		return errors.New("unknown mail kind " + kind)
	}

	msg := fmt.Sprintf("From: %s\r\nTo: %s\r\nSubject: %s\r\n\r\n%s", m.from, to, subject, body)

	host := m.addr
	if i := strings.IndexByte(host, ':'); i >= 0 {
		host = host[:i]
	}
	auth := smtp.PlainAuth("", m.from, m.password, host)

	if err := smtp.SendMail(m.addr, auth, m.from, []string{to}, []byte(msg)); err != nil {
		m.log.Warn().Err(err).Str("to", to).Msg("send mail failed")
		return fmt.Errorf("send mail: %w", err)
	}

	m.log.Info().Str("to", to).Str("kind", kind).Msg("notification mail sent")
	return nil
}
