package email

import (
	"fmt"

	"gopkg.in/gomail.v2"

	"fintrack/internal/config"
)

// Mailer sends transactional email to users.
type Mailer interface {
	Send(to, subject, htmlBody string) error
}

// smtpMailer delivers mail over SMTP.
type smtpMailer struct {
	cfg config.SMTPConfig
}

// noopMailer is used when SMTP is not configured. Sends succeed silently so
// callers never need to care whether email is enabled.
type noopMailer struct{}

func (noopMailer) Send(string, string, string) error { return nil }

// NewMailer returns an SMTP-backed mailer, or a no-op mailer when the SMTP
// configuration is disabled.
func NewMailer(cfg config.SMTPConfig) Mailer {
	if !cfg.Enabled {
		return noopMailer{}
	}
	return &smtpMailer{cfg: cfg}
}

func (m *smtpMailer) Send(to, subject, htmlBody string) error {
	msg := gomail.NewMessage()
	msg.SetHeader("From", msg.FormatAddress(m.cfg.Username, m.cfg.From))
	msg.SetHeader("To", to)
	msg.SetHeader("Subject", subject)
	msg.SetBody("text/html", htmlBody)

	d := gomail.NewDialer(m.cfg.Host, m.cfg.Port, m.cfg.Username, m.cfg.Password)
	if err := d.DialAndSend(msg); err != nil {
		return fmt.Errorf("failed to send email: %w", err)
	}
	return nil
}
