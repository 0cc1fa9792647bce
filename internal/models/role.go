package models

// Permission names the fine-grained capabilities a rank may grant. Typed so a
// misspelled name fails to compile instead of silently defaulting to false.
type Permission string

const (
	PermGenerateInvites Permission = "generate_invites"
	PermViewTickets     Permission = "view_tickets"
	PermCreateTickets   Permission = "create_tickets"
)

// Role is the coarse capability bag attached to users via their Roles list.
// It drives is-staff style UI gating only; granular permission checks go
// through ranks.
type Role struct {
	ID          string              `json:"id"`
	Name        string              `json:"name"`
	Color       string              `json:"color"`
	Permissions map[Permission]bool `json:"permissions"`
	Position    int                 `json:"position"`
}

// Rank is a separate pool from roles: at most one per user, carried on
// Profile.CustomRank, and the sole source of granular non-staff permissions.
type Rank struct {
	ID          string              `json:"id"`
	Name        string              `json:"name"`
	Color       string              `json:"color"`
	Permissions map[Permission]bool `json:"permissions"`
	CreatedAt   int64               `json:"createdAt"`
}
