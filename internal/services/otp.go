package services

import (
	"crypto/rand"
	"math/big"
	"net/http"
	"time"

	"golang.org/x/crypto/bcrypt"

	"forum-server/internal/models"
	"forum-server/internal/utils"
)

// One-time-code windows. The password-reset window is the single canonical
// policy; earlier deployments carried two divergent windows for the same
// flow.
const (
	twoFaCodeWindow  = 10 * time.Minute
	resetCodeWindow  = 15 * time.Minute
	resetCooldown    = time.Minute
	twoFaWindowLabel = 10
	resetWindowLabel = 15
)

// 2FA mode tags. A pending code of the wrong mode is treated as absent.
const (
	ModeEnable  = "enable"
	ModeDisable = "disable"
	ModeLogin   = "login"
)

// errInvalidCode is shared by the mismatch, expiry, wrong-mode, and missing
// cases so callers cannot distinguish which failure occurred.
func errInvalidCode() *utils.AppError {
	return utils.NewAppError(http.StatusUnauthorized, utils.CodeUnauth, "invalid or expired code", nil)
}

// generateSixDigitCode draws each digit from crypto/rand.
func generateSixDigitCode() (string, error) {
	max := big.NewInt(10)
	result := make([]byte, 6)
	for i := range result {
		n, err := rand.Int(rand.Reader, max)
		if err != nil {
			return "", err
		}
		result[i] = byte('0' + n.Int64())
	}
	return string(result), nil
}

// issuePendingCode mints a fresh code and the pending-code record holding
// only its hash. Issuing replaces any previous pending code for the purpose.
func issuePendingCode(now int64, window time.Duration) (string, models.PendingCode, error) {
	code, err := generateSixDigitCode()
	if err != nil {
		return "", models.PendingCode{}, err
	}
	hashBytes, err := bcrypt.GenerateFromPassword([]byte(code), bcrypt.DefaultCost)
	if err != nil {
		return "", models.PendingCode{}, err
	}
	hash := string(hashBytes)
	expiry := now + window.Milliseconds()
	return code, models.PendingCode{
		CodeHash:    &hash,
		CodeExpiry:  &expiry,
		RequestedAt: &now,
	}, nil
}

// pendingCodeMatches verifies a presented code against the stored pending
// record. Expiry fails exactly like a mismatch. It never mutates the record;
// consuming the code is the caller's transition.
func pendingCodeMatches(pc models.PendingCode, code string, now int64) bool {
	if pc.CodeHash == nil || pc.CodeExpiry == nil {
		return false
	}
	if now > *pc.CodeExpiry {
		return false
	}
	return bcrypt.CompareHashAndPassword([]byte(*pc.CodeHash), []byte(code)) == nil
}

// consumePendingCode clears the record; a verified code cannot be used twice.
func consumePendingCode(pc *models.PendingCode) {
	pc.CodeHash = nil
	pc.CodeExpiry = nil
	pc.RequestedAt = nil
}
