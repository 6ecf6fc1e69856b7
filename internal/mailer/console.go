package mailer

import (
	"context"
	"log/slog"
	"strings"
)

// consoleSender logs outgoing mail instead of sending it. Used in
// development when no SMTP host is configured, so the registration flow
// stays testable without a relay.
type consoleSender struct{}

// NewConsoleSender creates a MailSender that writes mail to the log.
func NewConsoleSender() MailSender {
	return consoleSender{}
}

func (consoleSender) IsConfigured() bool { return true }

func (consoleSender) SendMail(_ context.Context, to []string, subject, body string) error {
	slog.Info("mail (console transport)",
		slog.String("to", strings.Join(to, ", ")),
		slog.String("subject", subject),
		slog.String("body", body),
	)
	return nil
}
