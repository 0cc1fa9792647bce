package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type SMTPConfig struct {
	Host string
	Port string
	User string
	Pass string
	From string
}

// Configured reports whether enough is set to actually send mail; otherwise
// the mailer logs instead of sending.
func (s SMTPConfig) Configured() bool {
	return s.Host != "" && s.User != "" && s.Pass != ""
}

type Config struct {
	Env                string
	HTTPAddr           string
	DocumentPath       string
	JWTSecret          string
	TokenExpiry        time.Duration
	TempTokenExpiry    time.Duration
	AllowedOrigins     []string
	AdminIPs           []string
	RateLimitPerMinute int
	RequestTimeout     time.Duration
	SMTP               SMTPConfig
}

func Load() (*Config, error) {
	_ = godotenv.Load()

	cfg := &Config{
		Env:                getEnv("ENV", "dev"),
		HTTPAddr:           getEnv("HTTP_ADDR", ":3000"),
		DocumentPath:       getEnv("DB_PATH", "data/db.json"),
		JWTSecret:          getEnv("JWT_SECRET", ""),
		TokenExpiry:        getDurationEnv("TOKEN_EXPIRES_IN", 7*24*time.Hour),
		TempTokenExpiry:    getDurationEnv("TEMP_TOKEN_EXPIRES_IN", 10*time.Minute),
		AllowedOrigins:     splitCSV(getEnv("CORS_ALLOWED_ORIGINS", "http://localhost:5173,http://localhost:3000")),
		AdminIPs:           splitCSV(getEnv("ADMIN_IPS", "")),
		RateLimitPerMinute: getIntEnv("RATE_LIMIT_PER_MIN", 60),
		RequestTimeout:     getDurationEnv("REQUEST_TIMEOUT", 10*time.Second),
		SMTP: SMTPConfig{
			Host: getEnv("SMTP_HOST", ""),
			Port: getEnv("SMTP_PORT", "587"),
			User: getEnv("SMTP_USER", ""),
			Pass: getEnv("SMTP_PASS", ""),
			From: getEnv("SMTP_FROM", ""),
		},
	}

	if cfg.JWTSecret == "" {
		if cfg.Env == "prod" {
			return nil, fmt.Errorf("JWT_SECRET is required")
		}
		cfg.JWTSecret = "dev_secret"
	}

	return cfg, nil
}

// IsAdminIP reports whether the client IP is on the auto-elevation list.
func (c *Config) IsAdminIP(ip string) bool {
	for _, a := range c.AdminIPs {
		if a == ip {
			return true
		}
	}
	return false
}

func getEnv(key, fallback string) string {
	if val := strings.TrimSpace(os.Getenv(key)); val != "" {
		return val
	}
	return fallback
}

func getIntEnv(key string, fallback int) int {
	val := strings.TrimSpace(os.Getenv(key))
	if val == "" {
		return fallback
	}
	parsed, err := strconv.Atoi(val)
	if err != nil {
		return fallback
	}
	return parsed
}

func getDurationEnv(key string, fallback time.Duration) time.Duration {
	val := strings.TrimSpace(os.Getenv(key))
	if val == "" {
		return fallback
	}
	parsed, err := time.ParseDuration(val)
	if err != nil {
		return fallback
	}
	return parsed
}

func splitCSV(input string) []string {
	if strings.TrimSpace(input) == "" {
		return nil
	}
	parts := strings.Split(input, ",")
	var out []string
	for _, part := range parts {
		trimmed := strings.TrimSpace(part)
		if trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}
