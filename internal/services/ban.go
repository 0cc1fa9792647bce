package services

import "forum-server/internal/models"

// clearExpiredBan lazily expires a time-boxed ban: if the ban has run out it
// resets all four ban fields and reports that it did. Ban expiry is enforced
// on the next access that observes it, not by a background sweep.
func clearExpiredBan(u *models.User, now int64) bool {
	if !u.Banned || u.BanExpiresAt == nil || now <= *u.BanExpiresAt {
		return false
	}
	u.Banned = false
	u.BanReason = nil
	u.BanIssuedAt = nil
	u.BanExpiresAt = nil
	u.BanDurationLabel = nil
	return true
}
