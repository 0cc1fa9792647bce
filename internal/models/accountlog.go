package models

// AccountLog is an append-only audit record written once at account creation.
// The staffStatus and banned fields are kept in sync by the admin operations
// that change them, matched on uid.
type AccountLog struct {
	ID          string `json:"id"`
	Username    string `json:"username"`
	UID         int    `json:"uid"`
	IP          string `json:"ip"`
	StaffStatus string `json:"staffStatus"`
	Banned      bool   `json:"banned"`
	Timestamp   int64  `json:"timestamp"`
}
