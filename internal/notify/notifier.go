// Package notify delivers best-effort member notifications. Delivery sits
// outside every transaction boundary: a failed send is logged and swallowed,
// never rolled back against state that already committed.
package notify

import (
	"context"
	"fmt"
	"log"
	"net/smtp"
	"strings"
)

// Notifier sends member-facing notifications.
type Notifier interface {
	SendWelcome(ctx context.Context, email, firstName string) error
	SendPasswordReset(ctx context.Context, email, resetURL string) error
}

// SMTPNotifier delivers notifications through a plain SMTP relay.
type SMTPNotifier struct {
	addr string
	from string
}

// NewSMTPNotifier creates a notifier for the given relay address ("host:port")
// and sender.
func NewSMTPNotifier(addr, from string) *SMTPNotifier {
	return &SMTPNotifier{addr: addr, from: from}
}

// SendWelcome sends the post-registration welcome message.
func (n *SMTPNotifier) SendWelcome(_ context.Context, email, firstName string) error {
	body := fmt.Sprintf("Hello %s,\r\n\r\nWelcome aboard. Your membership account is ready.\r\n", firstName)
	return n.send(email, "Welcome", body)
}

// SendPasswordReset sends the reset link. The URL carries the one-time secret.
func (n *SMTPNotifier) SendPasswordReset(_ context.Context, email, resetURL string) error {
	body := fmt.Sprintf("A password reset was requested for your account.\r\n\r\nReset link (valid for 1 hour):\r\n%s\r\n\r\nIf you did not request this, ignore this message.\r\n", resetURL)
	return n.send(email, "Password reset", body)
}

func (n *SMTPNotifier) send(to, subject, body string) error {
	msg := strings.Join([]string{
		"From: " + n.from,
		"To: " + to,
		"Subject: " + subject,
		"",
		body,
	}, "\r\n")
	return smtp.SendMail(n.addr, nil, n.from, []string{to}, []byte(msg))
}

// LogNotifier logs instead of sending. Used when no SMTP relay is configured,
// typically in development.
type LogNotifier struct{}

// NewLogNotifier creates a log-only notifier.
func NewLogNotifier() *LogNotifier {
	return &LogNotifier{}
}

// SendWelcome logs the welcome notification.
func (n *LogNotifier) SendWelcome(_ context.Context, email, firstName string) error {
	log.Printf("notify: welcome email for %s (%s)", email, firstName)
	return nil
}

// SendPasswordReset logs the reset link.
func (n *LogNotifier) SendPasswordReset(_ context.Context, email, resetURL string) error {
	log.Printf("notify: password reset email for %s: %s", email, resetURL)
	return nil
}
