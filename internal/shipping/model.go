package shipping

import "time"

// Shipment is one outbound delivery for an order. Status holds the raw
// backend string.
type Shipment struct {
	ID             string    `json:"id" db:"id"`
	OrderID        string    `json:"order_id" db:"order_id"`
	OrderNumber    string    `json:"order_number" db:"order_number"`
	Carrier        string    `json:"carrier" db:"carrier"`
	TrackingNumber *string   `json:"tracking_number,omitempty" db:"tracking_number"`
	RecipientName  string    `json:"recipient_name" db:"recipient_name"`
	Destination    string    `json:"destination" db:"destination"`
	Status         string    `json:"status" db:"status"`
	CreatedAt      time.Time `json:"created_at" db:"created_at"`
	UpdatedAt      time.Time `json:"updated_at" db:"updated_at"`
}

// ShipmentView decorates a shipment with canonical status metadata and the
// legal-action flags the shipping workflow needs.
type ShipmentView struct {
	Shipment
	CanonicalStatus   string `json:"canonical_status"`
	StatusLabel       string `json:"status_label"`
	StatusColor       string `json:"status_color"`
	CanUpdateTracking bool   `json:"can_update_tracking"`
	CanUpdateStatus   bool   `json:"can_update_status"`
}
