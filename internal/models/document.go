package models

// Document is the whole persisted state: one JSON file, read fully and
// written back fully. Field names match the original db.json layout.
type Document struct {
	UIDCounter      int             `json:"uidCounter"`
	ForumStatus     ForumStatus     `json:"forumStatus"`
	Ranks           []*Rank         `json:"ranks"`
	Roles           []*Role         `json:"roles"`
	ForumCategories []*ForumCategory `json:"forumCategories"`
	Forums          []*Forum        `json:"forums"`
	Users           []*User         `json:"users"`
	Threads         []*Thread       `json:"threads"`
	Posts           []*Post         `json:"posts"`
	Keys            []*InviteKey    `json:"keys"`
	Tickets         []*Ticket       `json:"tickets"`
	Products        []*Product      `json:"products"`
	Orders          []*Order        `json:"orders"`
	AccountLogs     []*AccountLog   `json:"accountLogs"`
	TOS             *TOS            `json:"tos,omitempty"`
	PaymentConfig   *PaymentConfig  `json:"stripeConfig,omitempty"`
}
