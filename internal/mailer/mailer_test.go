package mailer

import (
	"io"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"

	"forum-server/internal/config"
)

func TestSendFallsBackToLoggingWhenUnconfigured(t *testing.T) {
	m := New(config.SMTPConfig{}, slog.New(slog.NewTextHandler(io.Discard, nil)))
	sent := m.Send("alice@example.com", "Hi", "body", "")
	assert.False(t, sent)
}

func TestOTPBody(t *testing.T) {
	body := OTPBody("alice", "Use this code.", "123456", 15, "10.0.0.1")
	assert.Contains(t, body, "Hello alice,")
	assert.Contains(t, body, "Your code: 123456")
	assert.Contains(t, body, "expire in 15 minutes")
	assert.Contains(t, body, "10.0.0.1")
}

func TestOTPBodyAnonymousGreeting(t *testing.T) {
	body := OTPBody("", "msg", "123456", 10, "10.0.0.1")
	assert.Contains(t, body, "Hello there,")
}

func TestPasswordChangedBody(t *testing.T) {
	body := PasswordChangedBody("alice", "10.0.0.1")
	assert.Contains(t, body, "successfully updated")
	assert.Contains(t, body, "10.0.0.1")
}
