// Package mailer sends transactional email. Account registrations notify the
// new user by mail; everything else in the application is mail-free.
package mailer

import "context"

// MailSender is the interface features use to send email.
// This is the cross-feature contract -- auth uses this for the account
// creation notification.
type MailSender interface {
	SendMail(ctx context.Context, to []string, subject, body string) error
	IsConfigured() bool
}
