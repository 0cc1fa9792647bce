package utils

import "regexp"

var (
	usernameRe = regexp.MustCompile(`^[a-zA-Z0-9_-]+$`)
	emailRe    = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)
	keyRe      = regexp.MustCompile(`^[a-zA-Z0-9]{4,}$`)
)

func ValidUsername(username string) bool {
	if len(username) < 3 || len(username) > 32 {
		return false
	}
	return usernameRe.MatchString(username)
}

func ValidEmail(email string) bool {
	return emailRe.MatchString(email)
}

func ValidPassword(password string) bool {
	return len(password) >= 8
}

// ValidInviteKey checks shape only; existence is the store's concern.
func ValidInviteKey(key string) bool {
	return keyRe.MatchString(key)
}
