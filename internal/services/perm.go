package services

import "forum-server/internal/models"

// HasPermission resolves a fine-grained permission. Staff roles short-circuit
// to full access; otherwise the user's assigned rank is the sole source of
// granular permissions — the coarse roles list never participates here.
func HasPermission(u *models.User, rank *models.Rank, perm models.Permission) bool {
	if u != nil && u.IsStaff() {
		return true
	}
	if rank == nil || rank.Permissions == nil {
		return false
	}
	return rank.Permissions[perm]
}
