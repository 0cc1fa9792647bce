package models

// InviteKey rows persist for audit after redemption or revocation; they are
// only ever deleted while still unused.
type InviteKey struct {
	ID          string  `json:"id"`
	Key         string  `json:"key"`
	GeneratedBy string  `json:"generatedBy"`
	GeneratedAt int64   `json:"generatedAt"`
	UsedBy      *string `json:"usedBy"`
	UsedAt      *int64  `json:"usedAt"`
	Revoked     bool    `json:"revoked"`
	RevokedAt   *int64  `json:"revokedAt"`
}

// Redeemable reports whether the key can still admit a user.
func (k *InviteKey) Redeemable() bool {
	return k.UsedBy == nil && !k.Revoked
}
