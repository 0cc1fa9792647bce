// Package mailer sends notification mail for the auth flows. Sends are
// fire-and-forget with respect to the caller: a failed send never rolls back
// the state change that triggered it.
package mailer

import (
	"fmt"
	"log/slog"
	"net/smtp"
	"strings"

	"forum-server/internal/config"
)

type Mailer interface {
	// Send returns false when mail is not configured; the code is then only
	// visible in the logs, which keeps local development workable.
	Send(to, subject, text, html string) bool
}

type SMTPMailer struct {
	cfg config.SMTPConfig
	log *slog.Logger
}

func New(cfg config.SMTPConfig, log *slog.Logger) *SMTPMailer {
	if !cfg.Configured() {
		log.Warn("smtp not configured, email falls back to logging")
	}
	return &SMTPMailer{cfg: cfg, log: log}
}

func (m *SMTPMailer) Send(to, subject, text, html string) bool {
	if !m.cfg.Configured() {
		m.log.Info("email fallback", "to", to, "subject", subject, "text", text)
		return false
	}

	from := m.cfg.From
	if from == "" {
		from = m.cfg.User
	}

	body := text
	contentType := "text/plain"
	if html != "" {
		body = html
		contentType = "text/html"
	}
	msg := []byte(fmt.Sprintf("To: %s\r\nFrom: %s\r\nSubject: %s\r\n"+
		"MIME-version: 1.0;\r\nContent-Type: %s; charset=\"UTF-8\";\r\n\r\n%s",
		to, from, subject, contentType, body))

	go func() {
		auth := smtp.PlainAuth("", m.cfg.User, m.cfg.Pass, m.cfg.Host)
		addr := fmt.Sprintf("%s:%s", m.cfg.Host, m.cfg.Port)
		if err := smtp.SendMail(addr, auth, from, []string{to}, msg); err != nil {
			m.log.Error("failed to send email", "to", to, "subject", subject, "error", err)
		}
	}()
	return true
}

// OTPBody renders the plain-text body for a one-time-code mail.
func OTPBody(username, message, code string, expiresMinutes int, ip string) string {
	lines := []string{
		fmt.Sprintf("Hello %s,", displayName(username)),
		"",
		message,
		"",
		"Your code: " + code,
		fmt.Sprintf("This code will expire in %d minutes.", expiresMinutes),
		"",
		"IP-Address: " + ip,
		"",
		"Best regards,",
		"Forum Support",
	}
	return strings.Join(lines, "\n")
}

// PasswordChangedBody renders the notification sent after any password
// change or reset.
func PasswordChangedBody(username, ip string) string {
	lines := []string{
		fmt.Sprintf("Hello %s,", displayName(username)),
		"",
		"Your password has been successfully updated.",
		"If you did not initiate this change, please contact support immediately.",
		"",
		"IP-Address: " + ip,
		"",
		"Best regards,",
		"Forum Support",
	}
	return strings.Join(lines, "\n")
}

func displayName(username string) string {
	if username == "" {
		return "there"
	}
	return username
}
