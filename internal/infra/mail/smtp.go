// Package mail implements the mail provider capability over SMTP.
package mail

import (
	"context"
	"fmt"
	"net/smtp"

	"github.com/google/uuid"

	"inbox-cleaner-api/internal/notify"
)

type Config struct {
	Host     string
	Port     string
	From     string
	Password string
}

type SMTPMailer struct {
	cfg Config
}

func NewSMTP(cfg Config) *SMTPMailer {
	return &SMTPMailer{cfg: cfg}
}

// Send transmits one HTML mail and returns a locally generated message id.
// SMTP gives no provider-side id back, so the id exists for log correlation.
func (m *SMTPMailer) Send(_ context.Context, msg notify.Message) (string, error) {
	from := msg.From
	if from == "" {
		from = m.cfg.From
	}
	replyTo := msg.ReplyTo
	if replyTo == "" {
		replyTo = from
	}

	messageID := uuid.NewString()
	body := []byte("Subject: " + msg.Subject + "\r\n" +
		"From: \"Inbox Cleaner Pro\" <" + from + ">\r\n" +
		"To: " + msg.To + "\r\n" +
		"Reply-To: " + replyTo + "\r\n" +
		"Message-ID: <" + messageID + "@inbox-cleaner-pro>\r\n" +
		"MIME-Version: 1.0\r\n" +
		"Content-Type: text/html; charset=UTF-8\r\n" +
		"\r\n" +
		msg.HTML + "\r\n")

	auth := smtp.PlainAuth("", m.cfg.From, m.cfg.Password, m.cfg.Host)
	if err := smtp.SendMail(m.cfg.Host+":"+m.cfg.Port, auth, from, []string{msg.To}, body); err != nil {
		return "", fmt.Errorf("smtp send: %w", err)
	}
	return messageID, nil
}
