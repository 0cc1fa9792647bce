package models

const (
	TicketOpen     = "open"
	TicketAssigned = "assigned"
	TicketClosed   = "closed"
)

type Ticket struct {
	ID          string           `json:"id"`
	Subject     string           `json:"subject"`
	Description string           `json:"description"`
	Category    string           `json:"category"`
	Status      string           `json:"status"`
	CreatedBy   string           `json:"createdBy"`
	CreatedAt   int64            `json:"createdAt"`
	Responses   []TicketResponse `json:"responses"`
}

type TicketResponse struct {
	ID        string `json:"id"`
	Staff     bool   `json:"staff"`
	Message   string `json:"message"`
	StaffID   string `json:"staffId"`
	CreatedAt int64  `json:"createdAt"`
}
