package services

import (
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"forum-server/internal/auth"
	"forum-server/internal/config"
	"forum-server/internal/mailer"
	"forum-server/internal/models"
	"forum-server/internal/policy"
	"forum-server/internal/store"
	"forum-server/internal/utils"
)

// Session policy constants. The failed-login lockout counter is independent
// of the per-(username, ip) request rate limit: the former counts wrong
// passwords, the latter counts attempts of any outcome.
const (
	registerLimit      = 3
	registerWindow     = time.Hour
	loginLimit         = 5
	loginWindow        = 15 * time.Minute
	lockoutMaxFailures = 5
	lockoutWindow      = 15 * time.Minute
	revocationTTL      = time.Hour
)

type AuthService struct {
	store  *store.Store
	policy policy.SessionPolicyStore
	mail   mailer.Mailer
	cfg    *config.Config
	log    *slog.Logger
}

func NewAuthService(st *store.Store, pol policy.SessionPolicyStore, mail mailer.Mailer, cfg *config.Config, log *slog.Logger) *AuthService {
	return &AuthService{store: st, policy: pol, mail: mail, cfg: cfg, log: log}
}

// UserPayload is the user shape returned to the SPA alongside tokens.
type UserPayload struct {
	ID            string   `json:"id"`
	UID           int      `json:"uid"`
	Username      string   `json:"username"`
	Email         string   `json:"email"`
	Role          string   `json:"role"`
	StaffRole     *string  `json:"staffRole"`
	Roles         []string `json:"roles"`
	AccessRevoked bool     `json:"accessRevoked"`
	TwoFaEnabled  bool     `json:"twoFaEnabled"`
}

type SessionResponse struct {
	Token string      `json:"token"`
	User  UserPayload `json:"user"`
}

// LoginResult is either a full session or a 2FA continuation.
type LoginResult struct {
	RequiresTwoFa bool             `json:"requiresTwoFa,omitempty"`
	TempToken     string           `json:"tempToken,omitempty"`
	Session       *SessionResponse `json:"-"`
}

type RegisterInput struct {
	Username  string
	Password  string
	Email     string
	InviteKey string
	ClientIP  string
}

func userPayload(u *models.User) UserPayload {
	roles := u.Roles
	if roles == nil {
		roles = []string{}
	}
	return UserPayload{
		ID:            u.ID,
		UID:           u.UID,
		Username:      u.Username,
		Email:         u.Email,
		Role:          u.Role,
		StaffRole:     u.StaffRole,
		Roles:         roles,
		AccessRevoked: u.AccessRevoked,
		TwoFaEnabled:  u.TwoFa.Enabled,
	}
}

// Register validates input, consumes one unused invite key atomically with
// user creation, and issues a session token. Key and user land in the same
// persistence cycle: either both commit or neither does.
func (s *AuthService) Register(in RegisterInput) (*SessionResponse, error) {
	if !utils.ValidUsername(in.Username) {
		return nil, utils.NewAppError(http.StatusBadRequest, utils.CodeValidation, "username must be 3-32 characters, alphanumeric with _ and -", nil)
	}
	if !utils.ValidEmail(in.Email) {
		return nil, utils.NewAppError(http.StatusBadRequest, utils.CodeValidation, "invalid email format", nil)
	}
	if !utils.ValidPassword(in.Password) {
		return nil, utils.NewAppError(http.StatusBadRequest, utils.CodeValidation, "password must be at least 8 characters", nil)
	}
	if !utils.ValidInviteKey(in.InviteKey) {
		return nil, utils.NewAppError(http.StatusBadRequest, utils.CodeValidation, "invitation key must be alphanumeric and at least 4 characters", nil)
	}

	// Successful or not, every attempt counts against the window.
	if retry, ok := s.policy.CheckAndIncrement("register_"+in.ClientIP, registerLimit, registerWindow); !ok {
		return nil, utils.NewRateLimitError("too many registration attempts", retry)
	}

	hashBytes, err := bcrypt.GenerateFromPassword([]byte(in.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, utils.NewAppError(http.StatusInternalServerError, utils.CodeInternal, "could not secure password", nil)
	}

	isAdmin := s.cfg.IsAdminIP(in.ClientIP)
	now := nowMillis()
	var created *models.User

	err = s.store.Update(func(d *models.Document) error {
		users := store.NewUserRepo(d)
		keys := store.NewKeyRepo(d)

		key := keys.Redeemable(in.InviteKey)
		if key == nil {
			return utils.NewAppError(http.StatusBadRequest, utils.CodeConflict, "invitation key not found or already used", nil)
		}
		if users.ByUsername(in.Username) != nil {
			return utils.NewAppError(http.StatusBadRequest, utils.CodeConflict, "username taken", nil)
		}
		if users.ByEmail(in.Email) != nil {
			return utils.NewAppError(http.StatusBadRequest, utils.CodeConflict, "email already registered", nil)
		}

		u := &models.User{
			ID:           uuid.NewString(),
			UID:          users.NextUID(),
			Username:     in.Username,
			Email:        in.Email,
			PasswordHash: string(hashBytes),
			Role:         models.RoleUser,
			Roles:        []string{"role_member"},
			InviteKeyID:  &key.ID,
			RegisteredIP: in.ClientIP,
			LastIP:       in.ClientIP,
			IPs:          []models.IPLog{{IP: in.ClientIP, Timestamp: now}},
			CreatedAt:    now,
		}
		if isAdmin {
			u.Role = models.RoleStaff
			u.StaffRole = strPtr(models.StaffRoleAdmin)
			u.Roles = []string{"role_admin"}
		}

		key.UsedBy = &u.ID
		key.UsedAt = int64Ptr(now)
		users.Add(u)

		d.AccountLogs = append(d.AccountLogs, &models.AccountLog{
			ID:          uuid.NewString(),
			Username:    u.Username,
			UID:         u.UID,
			IP:          in.ClientIP,
			StaffStatus: staffStatus(u),
			Banned:      false,
			Timestamp:   now,
		})

		created = u
		return nil
	})
	if err != nil {
		return nil, err
	}

	token, err := auth.GenerateToken(created, []byte(s.cfg.JWTSecret), s.cfg.TokenExpiry)
	if err != nil {
		return nil, utils.NewAppError(http.StatusInternalServerError, utils.CodeInternal, "could not generate token", nil)
	}
	s.log.Info("user registered", "username", created.Username, "uid", created.UID, "ip", in.ClientIP)
	return &SessionResponse{Token: token, User: userPayload(created)}, nil
}

// Login authenticates credentials under the rate limit and lockout gates.
// With 2FA enabled it does not issue a session: it emails a code and returns
// a purpose-scoped temporary token for the confirm step.
func (s *AuthService) Login(username, password, clientIP string) (*LoginResult, error) {
	limitKey := fmt.Sprintf("login_%s_%s", username, clientIP)
	if retry, ok := s.policy.CheckAndIncrement(limitKey, loginLimit, loginWindow); !ok {
		return nil, utils.NewRateLimitError("too many login attempts", retry)
	}

	lockKey := fmt.Sprintf("%s_%s", username, clientIP)
	if s.policy.IsLocked(lockKey) {
		return nil, utils.NewAppError(http.StatusTooManyRequests, utils.CodeLocked,
			"account temporarily locked due to failed login attempts. try again in 15 minutes", nil)
	}

	now := nowMillis()

	// Phase one: resolve the account and lazily expire a finished ban. The
	// cleared ban persists even when the credential check below fails.
	var (
		userID       string
		passwordHash string
		banned       bool
	)
	err := s.store.Update(func(d *models.Document) error {
		u := store.NewUserRepo(d).ByUsername(username)
		if u == nil {
			return nil
		}
		clearExpiredBan(u, now)
		userID = u.ID
		passwordHash = u.PasswordHash
		banned = u.Banned
		return nil
	})
	if err != nil {
		return nil, err
	}

	if userID == "" {
		s.policy.RecordFailure(lockKey, lockoutMaxFailures, lockoutWindow)
		return nil, utils.NewAppError(http.StatusUnauthorized, utils.CodeUnauth, "invalid credentials", nil)
	}
	if banned {
		return nil, utils.NewAppError(http.StatusForbidden, utils.CodeForbidden, "this account has been banned", nil)
	}
	if bcrypt.CompareHashAndPassword([]byte(passwordHash), []byte(password)) != nil {
		s.policy.RecordFailure(lockKey, lockoutMaxFailures, lockoutWindow)
		return nil, utils.NewAppError(http.StatusUnauthorized, utils.CodeUnauth, "invalid credentials", nil)
	}
	s.policy.ClearFailures(lockKey)

	isAdmin := s.cfg.IsAdminIP(clientIP)
	var (
		snapshot     *models.User
		twoFaPending bool
		email        string
		code         string
	)
	err = s.store.Update(func(d *models.Document) error {
		u := store.NewUserRepo(d).ByID(userID)
		if u == nil {
			return utils.NewAppError(http.StatusNotFound, utils.CodeNotFound, "user not found", nil)
		}

		if u.TwoFa.Enabled {
			c, pc, err := issuePendingCode(now, twoFaCodeWindow)
			if err != nil {
				return utils.NewAppError(http.StatusInternalServerError, utils.CodeInternal, "could not generate code", nil)
			}
			u.TwoFa.PendingCode = pc
			u.TwoFa.Mode = strPtr(ModeLogin)
			twoFaPending = true
			email = u.Email
			code = c
			return nil
		}

		u.LastIP = clientIP
		u.IPs = append(u.IPs, models.IPLog{IP: clientIP, Timestamp: now})
		if isAdmin {
			elevate(u)
		}
		copied := *u
		snapshot = &copied
		return nil
	})
	if err != nil {
		return nil, err
	}

	if twoFaPending {
		s.mail.Send(email, "Login Verification Code",
			mailer.OTPBody(username, "Use this code to finish logging in to your account.", code, twoFaWindowLabel, clientIP), "")
		tempToken, err := auth.GenerateTempToken(userID, auth.PurposeTwoFaLogin, []byte(s.cfg.JWTSecret), s.cfg.TempTokenExpiry)
		if err != nil {
			return nil, utils.NewAppError(http.StatusInternalServerError, utils.CodeInternal, "could not generate token", nil)
		}
		return &LoginResult{RequiresTwoFa: true, TempToken: tempToken}, nil
	}

	token, err := auth.GenerateToken(snapshot, []byte(s.cfg.JWTSecret), s.cfg.TokenExpiry)
	if err != nil {
		return nil, utils.NewAppError(http.StatusInternalServerError, utils.CodeInternal, "could not generate token", nil)
	}
	return &LoginResult{Session: &SessionResponse{Token: token, User: userPayload(snapshot)}}, nil
}

// ConfirmTwoFaLogin finishes a 2FA login. The guarded transition — issuing
// the session — commits in the same operation that consumes the code.
func (s *AuthService) ConfirmTwoFaLogin(tempToken, code string) (*SessionResponse, error) {
	claims, err := auth.ParseTempToken(tempToken, auth.PurposeTwoFaLogin, []byte(s.cfg.JWTSecret))
	if err != nil {
		return nil, utils.NewAppError(http.StatusUnauthorized, utils.CodeUnauth, "invalid token", nil)
	}

	now := nowMillis()
	var snapshot *models.User
	err = s.store.Update(func(d *models.Document) error {
		u := store.NewUserRepo(d).ByID(claims.ID)
		if u == nil {
			return utils.NewAppError(http.StatusNotFound, utils.CodeNotFound, "user not found", nil)
		}
		if u.TwoFa.Mode == nil || *u.TwoFa.Mode != ModeLogin {
			return errInvalidCode()
		}
		if !pendingCodeMatches(u.TwoFa.PendingCode, code, now) {
			return errInvalidCode()
		}
		consumePendingCode(&u.TwoFa.PendingCode)
		u.TwoFa.Mode = nil
		copied := *u
		snapshot = &copied
		return nil
	})
	if err != nil {
		return nil, err
	}

	token, err := auth.GenerateToken(snapshot, []byte(s.cfg.JWTSecret), s.cfg.TokenExpiry)
	if err != nil {
		return nil, utils.NewAppError(http.StatusInternalServerError, utils.CodeInternal, "could not generate token", nil)
	}
	return &SessionResponse{Token: token, User: userPayload(snapshot)}, nil
}

// Logout revokes the presented token. Revocation is memory-resident with a
// bounded entry lifetime; it does not survive a restart, which token natural
// expiry makes acceptable.
func (s *AuthService) Logout(token string) {
	s.policy.Revoke(token, revocationTTL)
}

// IsTokenRevoked is consulted by the auth middleware on every request.
func (s *AuthService) IsTokenRevoked(token string) bool {
	return s.policy.IsRevoked(token)
}

// RequestTwoFaChange issues a code authorizing enabling or disabling 2FA.
func (s *AuthService) RequestTwoFaChange(userID string, enable bool, clientIP string) error {
	now := nowMillis()
	var (
		email    string
		username string
		code     string
	)
	err := s.store.Update(func(d *models.Document) error {
		u := store.NewUserRepo(d).ByID(userID)
		if u == nil {
			return utils.NewAppError(http.StatusNotFound, utils.CodeNotFound, "user not found", nil)
		}
		if enable && u.TwoFa.Enabled {
			return utils.NewAppError(http.StatusBadRequest, utils.CodeValidation, "2fa already enabled", nil)
		}
		if !enable && !u.TwoFa.Enabled {
			return utils.NewAppError(http.StatusBadRequest, utils.CodeValidation, "2fa not enabled", nil)
		}

		c, pc, err := issuePendingCode(now, twoFaCodeWindow)
		if err != nil {
			return utils.NewAppError(http.StatusInternalServerError, utils.CodeInternal, "could not generate code", nil)
		}
		u.TwoFa.PendingCode = pc
		if enable {
			u.TwoFa.Mode = strPtr(ModeEnable)
		} else {
			u.TwoFa.Mode = strPtr(ModeDisable)
		}
		email = u.Email
		username = u.Username
		code = c
		return nil
	})
	if err != nil {
		return err
	}

	action := "enable"
	if !enable {
		action = "disable"
	}
	s.mail.Send(email, "Two-Factor Authentication Code",
		mailer.OTPBody(username, "Use this code to "+action+" two-factor authentication on your account.", code, twoFaWindowLabel, clientIP), "")
	return nil
}

// ConfirmTwoFaChange flips the 2FA flag in the same operation that consumes
// the pending code. The mode tag must match the transition being attempted.
func (s *AuthService) ConfirmTwoFaChange(userID string, enable bool, code string) error {
	wantMode := ModeEnable
	if !enable {
		wantMode = ModeDisable
	}
	now := nowMillis()
	return s.store.Update(func(d *models.Document) error {
		u := store.NewUserRepo(d).ByID(userID)
		if u == nil {
			return utils.NewAppError(http.StatusNotFound, utils.CodeNotFound, "user not found", nil)
		}
		if u.TwoFa.Mode == nil || *u.TwoFa.Mode != wantMode {
			return errInvalidCode()
		}
		if !pendingCodeMatches(u.TwoFa.PendingCode, code, now) {
			return errInvalidCode()
		}
		u.TwoFa.Enabled = enable
		consumePendingCode(&u.TwoFa.PendingCode)
		u.TwoFa.Mode = nil
		return nil
	})
}

// RequestPasswordReset issues a reset code. An unknown email is not an
// error: callers answer with the same generic message either way.
// ErrUnknownEmail signals the handler to do exactly that.
var ErrUnknownEmail = fmt.Errorf("unknown email")

func (s *AuthService) RequestPasswordReset(email, clientIP string) error {
	now := nowMillis()
	var (
		username string
		code     string
		to       string
	)
	err := s.store.Update(func(d *models.Document) error {
		u := store.NewUserRepo(d).ByEmail(email)
		if u == nil {
			return ErrUnknownEmail
		}
		if u.Reset.RequestedAt != nil && now-*u.Reset.RequestedAt < resetCooldown.Milliseconds() {
			return utils.NewRateLimitError("please wait before requesting another code", int(resetCooldown.Seconds()))
		}
		c, pc, err := issuePendingCode(now, resetCodeWindow)
		if err != nil {
			return utils.NewAppError(http.StatusInternalServerError, utils.CodeInternal, "could not generate code", nil)
		}
		u.Reset = pc
		username = u.Username
		to = u.Email
		code = c
		return nil
	})
	if err != nil {
		return err
	}

	s.mail.Send(to, "Password Reset Code",
		mailer.OTPBody(username, "Use this code to reset your password. If you did not request this, ignore this email.", code, resetWindowLabel, clientIP), "")
	return nil
}

// ConfirmPasswordReset sets the new password and consumes the reset code in
// one operation. The changed-password notification must not fail the change.
func (s *AuthService) ConfirmPasswordReset(email, code, newPassword, clientIP string) error {
	if !utils.ValidPassword(newPassword) {
		return utils.NewAppError(http.StatusBadRequest, utils.CodeValidation, "password must be at least 8 characters", nil)
	}
	hashBytes, err := bcrypt.GenerateFromPassword([]byte(newPassword), bcrypt.DefaultCost)
	if err != nil {
		return utils.NewAppError(http.StatusInternalServerError, utils.CodeInternal, "could not secure password", nil)
	}

	now := nowMillis()
	var (
		username string
		to       string
	)
	err = s.store.Update(func(d *models.Document) error {
		u := store.NewUserRepo(d).ByEmail(email)
		if u == nil {
			return errInvalidCode()
		}
		if !pendingCodeMatches(u.Reset, code, now) {
			return errInvalidCode()
		}
		u.PasswordHash = string(hashBytes)
		consumePendingCode(&u.Reset)
		username = u.Username
		to = u.Email
		return nil
	})
	if err != nil {
		return err
	}

	s.mail.Send(to, "Updated Password", mailer.PasswordChangedBody(username, clientIP), "")
	return nil
}

// ChangePassword verifies the current password before replacing it.
func (s *AuthService) ChangePassword(userID, currentPassword, newPassword, clientIP string) error {
	if !utils.ValidPassword(newPassword) {
		return utils.NewAppError(http.StatusBadRequest, utils.CodeValidation, "password must be at least 8 characters", nil)
	}
	hashBytes, err := bcrypt.GenerateFromPassword([]byte(newPassword), bcrypt.DefaultCost)
	if err != nil {
		return utils.NewAppError(http.StatusInternalServerError, utils.CodeInternal, "could not secure password", nil)
	}

	var (
		username string
		to       string
	)
	err = s.store.Update(func(d *models.Document) error {
		u := store.NewUserRepo(d).ByID(userID)
		if u == nil {
			return utils.NewAppError(http.StatusNotFound, utils.CodeNotFound, "user not found", nil)
		}
		if bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(currentPassword)) != nil {
			return utils.NewAppError(http.StatusBadRequest, utils.CodeValidation, "current password is incorrect", nil)
		}
		u.PasswordHash = string(hashBytes)
		username = u.Username
		to = u.Email
		return nil
	})
	if err != nil {
		return err
	}

	s.mail.Send(to, "Updated Password", mailer.PasswordChangedBody(username, clientIP), "")
	return nil
}

// EnsureForumAccess gates every forum route: ban and accessRevoked are
// independent checks, and an expired ban is cleared by this very read.
func (s *AuthService) EnsureForumAccess(userID string) error {
	now := nowMillis()
	var (
		found   bool
		banned  bool
		revoked bool
	)
	err := s.store.Update(func(d *models.Document) error {
		u := store.NewUserRepo(d).ByID(userID)
		if u == nil {
			return nil
		}
		clearExpiredBan(u, now)
		found = true
		banned = u.Banned
		revoked = u.AccessRevoked
		return nil
	})
	if err != nil {
		return err
	}
	switch {
	case !found:
		return utils.NewAppError(http.StatusNotFound, utils.CodeNotFound, "user not found", nil)
	case banned:
		return utils.NewAppError(http.StatusForbidden, utils.CodeForbidden, "account banned", nil)
	case revoked:
		return utils.NewAppError(http.StatusForbidden, utils.CodeForbidden, "forum access revoked. redeem a new key to continue", nil)
	}
	return nil
}

func staffStatus(u *models.User) string {
	if u.StaffRole != nil {
		return *u.StaffRole
	}
	return models.RoleUser
}

// elevate promotes a user logging in from a configured admin IP.
func elevate(u *models.User) {
	u.Role = models.RoleStaff
	u.StaffRole = strPtr(models.StaffRoleAdmin)
	for _, r := range u.Roles {
		if r == "role_admin" {
			return
		}
	}
	u.Roles = append(u.Roles, "role_admin")
}
