package models

type Product struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description"`
	Price       int    `json:"price"`
	Currency    string `json:"currency"`
	CreatedAt   int64  `json:"createdAt"`
}

type Order struct {
	ID              string `json:"id"`
	ProductID       string `json:"productId"`
	ProductName     string `json:"productName"`
	Price           int    `json:"price"`
	Currency        string `json:"currency"`
	UserID          string `json:"userId"`
	PaymentIntentID string `json:"paymentIntentId"`
	Status          string `json:"status"`
	TOSAccepted     bool   `json:"tosAccepted"`
	TOSSignature    string `json:"tosSignature"`
	CreatedAt       int64  `json:"createdAt"`
}

type TOS struct {
	Title       string `json:"title"`
	Content     string `json:"content"`
	LastUpdated int64  `json:"lastUpdated,omitempty"`
}

// PaymentConfig keeps the original document's field name so previously
// written db.json files stay loadable.
type PaymentConfig struct {
	APIKey         string `json:"apiKey"`
	PublishableKey string `json:"publishableKey"`
}
