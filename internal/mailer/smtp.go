package mailer

import (
	"context"
	"fmt"
	"net/smtp"

	"parfumerie/internal/config"
)

// SMTPSender delivers mail over a configured SMTP relay
type SMTPSender struct {
	host     string
	port     string
	username string
	password string
}

// NewSMTPSender builds a sender from the SMTP config section
func NewSMTPSender(cfg config.SMTPConfig) (*SMTPSender, error) {
	if cfg.Host == "" {
		return nil, fmt.Errorf("smtp host is not configured")
	}
	if cfg.Port == "" {
		return nil, fmt.Errorf("smtp port is not configured")
	}

	return &SMTPSender{
		host:     cfg.Host,
		port:     cfg.Port,
		username: cfg.Username,
		password: cfg.Password,
	}, nil
}

// Send delivers one HTML message
func (s *SMTPSender) Send(ctx context.Context, msg Message) error {
	addr := fmt.Sprintf("%s:%s", s.host, s.port)

	var auth smtp.Auth
	if s.username != "" {
		auth = smtp.PlainAuth("", s.username, s.password, s.host)
	}

	body := []byte(
		"From: " + msg.From + "\r\n" +
			"To: " + msg.To + "\r\n" +
			"Subject: " + msg.Subject + "\r\n" +
			"MIME-Version: 1.0\r\n" +
			"Content-Type: text/html; charset=UTF-8\r\n" +
			"\r\n" +
			msg.HTML,
	)

	if err := smtp.SendMail(addr, auth, msg.From, []string{msg.To}, body); err != nil {
		return fmt.Errorf("smtp send failed: %w", err)
	}

	return nil
}
