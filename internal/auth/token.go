package auth

import (
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"forum-server/internal/models"
)

// PurposeTwoFaLogin scopes the temporary token issued between password
// verification and the 2FA confirm step.
const PurposeTwoFaLogin = "2fa-login"

// Claims is the session token payload. What the SPA needs for gating rides
// along; the store remains authoritative for everything else.
type Claims struct {
	ID        string   `json:"id"`
	Username  string   `json:"username"`
	Role      string   `json:"role"`
	StaffRole *string  `json:"staffRole"`
	Roles     []string `json:"roles"`
	jwt.RegisteredClaims
}

// TempClaims is the short-lived, purpose-scoped token payload used by the
// 2FA login confirm flow. It never grants session access by itself.
type TempClaims struct {
	ID      string `json:"id"`
	Purpose string `json:"purpose"`
	jwt.RegisteredClaims
}

func GenerateToken(u *models.User, secret []byte, validity time.Duration) (string, error) {
	roles := u.Roles
	if roles == nil {
		roles = []string{}
	}
	claims := Claims{
		ID:        u.ID,
		Username:  u.Username,
		Role:      u.Role,
		StaffRole: u.StaffRole,
		Roles:     roles,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   u.ID,
			IssuedAt:  jwt.NewNumericDate(time.Now()),
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(validity)),
		},
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(secret)
}

func ParseToken(tokenStr string, secret []byte) (*Claims, error) {
	claims := &Claims{}
	token, err := jwt.ParseWithClaims(tokenStr, claims, func(t *jwt.Token) (interface{}, error) {
		return secret, nil
	})
	if err != nil {
		return nil, err
	}
	// Temp tokens carry no username; they must not pass as sessions.
	if !token.Valid || claims.Username == "" {
		return nil, fmt.Errorf("invalid token")
	}
	return claims, nil
}

func GenerateTempToken(userID, purpose string, secret []byte, validity time.Duration) (string, error) {
	claims := TempClaims{
		ID:      userID,
		Purpose: purpose,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   userID,
			IssuedAt:  jwt.NewNumericDate(time.Now()),
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(validity)),
		},
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(secret)
}

// ParseTempToken rejects tokens minted for a different purpose.
func ParseTempToken(tokenStr, purpose string, secret []byte) (*TempClaims, error) {
	claims := &TempClaims{}
	token, err := jwt.ParseWithClaims(tokenStr, claims, func(t *jwt.Token) (interface{}, error) {
		return secret, nil
	})
	if err != nil {
		return nil, err
	}
	if !token.Valid || claims.Purpose != purpose {
		return nil, fmt.Errorf("invalid token")
	}
	return claims, nil
}
