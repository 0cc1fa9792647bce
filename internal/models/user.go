package models

const (
	RoleUser  = "user"
	RoleStaff = "staff"

	StaffRoleAdmin   = "admin"
	StaffRoleManager = "manager"
)

// Timestamps across the document are unix milliseconds so that existing
// db.json files produced by earlier deployments keep loading unchanged.
type User struct {
	ID               string      `json:"id"`
	UID              int         `json:"uid"`
	Username         string      `json:"username"`
	Email            string      `json:"email"`
	PasswordHash     string      `json:"passwordHash"`
	Role             string      `json:"role"`
	StaffRole        *string     `json:"staffRole"`
	Roles            []string    `json:"roles"`
	Banned           bool        `json:"banned"`
	BanReason        *string     `json:"banReason"`
	BanIssuedAt      *int64      `json:"banIssuedAt"`
	BanExpiresAt     *int64      `json:"banExpiresAt"`
	BanDurationLabel *string     `json:"banDurationLabel"`
	AccessRevoked    bool        `json:"accessRevoked"`
	AccessRevokedAt  *int64      `json:"accessRevokedAt,omitempty"`
	InviteKeyID      *string     `json:"inviteKeyId"`
	TwoFa            TwoFa       `json:"twoFa"`
	Reset            PendingCode `json:"reset"`
	RegisteredIP     string      `json:"registeredIp"`
	LastIP           string      `json:"lastIp"`
	IPs              []IPLog     `json:"ips"`
	Profile          Profile     `json:"profile"`
	CreatedAt        int64       `json:"createdAt"`
}

// PendingCode is the hashed, time-boxed one-time code shared by the 2FA and
// password-reset flows. A nil CodeHash means no code is outstanding.
type PendingCode struct {
	CodeHash    *string `json:"codeHash"`
	CodeExpiry  *int64  `json:"codeExpiry"`
	RequestedAt *int64  `json:"requestedAt"`
}

type TwoFa struct {
	Enabled bool `json:"enabled"`
	PendingCode
	Mode *string `json:"mode,omitempty"`
}

type Profile struct {
	Pfp        *string `json:"pfp"`
	Banner     *string `json:"banner"`
	Background *string `json:"background"`
	Bio        *string `json:"bio,omitempty"`
	Signature  *string `json:"signature"`
	CustomRank *string `json:"customRank"`
}

type IPLog struct {
	IP        string `json:"ip"`
	Timestamp int64  `json:"timestamp"`
}

// IsStaff reports whether the user carries an elevated staff role. The coarse
// Role field is kept in sync but StaffRole is authoritative.
func (u *User) IsStaff() bool {
	return u.StaffRole != nil &&
		(*u.StaffRole == StaffRoleAdmin || *u.StaffRole == StaffRoleManager)
}

func (u *User) IsAdmin() bool {
	return u.StaffRole != nil && *u.StaffRole == StaffRoleAdmin
}
