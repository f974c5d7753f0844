package shipping

// ListShipmentsRequest filters the shipment listing by canonical status key.
type ListShipmentsRequest struct {
	Status  string `json:"status" validate:"omitempty"`
	Search  string `json:"search" validate:"omitempty,max=100"`
	Page    int    `json:"page" validate:"gte=0"`
	PerPage int    `json:"per_page" validate:"gte=0,lte=200"`
}

// UpdateTrackingRequest replaces the tracking number of a shipment.
type UpdateTrackingRequest struct {
	Carrier        string `json:"carrier" validate:"required,max=50"`
	TrackingNumber string `json:"tracking_number" validate:"required,max=100"`
}

// UpdateStatusRequest moves a shipment to another status.
type UpdateStatusRequest struct {
	Status string `json:"status" validate:"required"`
}
