// Package services holds the domain logic. Services return *utils.AppError
// values that the HTTP handlers pass straight to utils.RespondError.
package services

import "time"

// Actor is what a handler knows about the caller from its token claims.
// Operations that need the full user record load it from the store.
type Actor struct {
	ID        string
	Role      string
	StaffRole *string
}

// IsStaff mirrors models.User.IsStaff for token-derived actors.
func (a Actor) IsStaff() bool {
	return a.StaffRole != nil && (*a.StaffRole == "admin" || *a.StaffRole == "manager")
}

func (a Actor) IsAdmin() bool {
	return a.StaffRole != nil && *a.StaffRole == "admin"
}

func nowMillis() int64 {
	return time.Now().UnixMilli()
}

func strPtr(s string) *string {
	return &s
}

func int64Ptr(v int64) *int64 {
	return &v
}
