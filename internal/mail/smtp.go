package mail

import (
	"context"
	"fmt"

	gomail "gopkg.in/gomail.v2"
)

type SMTPConfig struct {
	Host     string
	Port     int
	Username string
	Password string
	From     string
}

type SMTPMailer struct {
	dialer *gomail.Dialer
	from   string
}

func NewSMTPMailer(cfg SMTPConfig) *SMTPMailer {
	return &SMTPMailer{
		dialer: gomail.NewDialer(cfg.Host, cfg.Port, cfg.Username, cfg.Password),
		from:   cfg.From,
	}
}

func (m *SMTPMailer) SendAccountCredentials(ctx context.Context, subject, content, to string, data AccountCredentials) error {
	msg := gomail.NewMessage()
	msg.SetHeader("From", m.from)
	msg.SetHeader("To", to)
	msg.SetHeader("Subject", subject)
	msg.SetBody("text/html", renderCredentials(content, data))

	// gomail has no context support; DialAndSend is bounded by the
	// SMTP dial timeout, so just honour an already-cancelled context.
	if err := ctx.Err(); err != nil {
		return err
	}

	if err := m.dialer.DialAndSend(msg); err != nil {
		return fmt.Errorf("send mail to %s: %w", to, err)
	}

	return nil
}

func renderCredentials(content string, data AccountCredentials) string {
	return fmt.Sprintf(
		"<p>%s</p><p>Account: %s<br>Password: %s</p>",
		content, data.Email, data.Password,
	)
}
