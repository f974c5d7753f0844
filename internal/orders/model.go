package orders

import "time"

// Order is a customer order as stored. Status holds the raw backend string;
// canonical status is derived, never persisted.
type Order struct {
	ID            string     `json:"id" db:"id"`
	Number        string     `json:"number" db:"number"`
	CustomerName  string     `json:"customer_name" db:"customer_name"`
	CustomerEmail string     `json:"customer_email" db:"customer_email"`
	Status        string     `json:"status" db:"status"`
	Currency      string     `json:"currency" db:"currency"`
	TotalAmount   float64    `json:"total_amount" db:"total_amount"`
	ItemCount     int        `json:"item_count" db:"item_count"`
	CancelReason  *string    `json:"cancel_reason,omitempty" db:"cancel_reason"`
	CancelledAt   *time.Time `json:"cancelled_at,omitempty" db:"cancelled_at"`
	CreatedAt     time.Time  `json:"created_at" db:"created_at"`
	UpdatedAt     time.Time  `json:"updated_at" db:"updated_at"`
}

// OrderView decorates an order with its canonical status, display metadata
// and the legal-action flags list pages need.
type OrderView struct {
	Order
	CanonicalStatus string `json:"canonical_status"`
	StatusLabel     string `json:"status_label"`
	StatusColor     string `json:"status_color"`
	CanCancel       bool   `json:"can_cancel"`
}
