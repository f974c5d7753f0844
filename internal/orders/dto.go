package orders

import "time"

// ListOrdersRequest filters the order listing. Status is a canonical filter
// key; the repository translates it to the raw spellings the backend stores.
type ListOrdersRequest struct {
	Status   string     `json:"status" validate:"omitempty"`
	Search   string     `json:"search" validate:"omitempty,max=100"`
	DateFrom *time.Time `json:"date_from,omitempty"`
	DateTo   *time.Time `json:"date_to,omitempty"`
	Page     int        `json:"page" validate:"gte=0"`
	PerPage  int        `json:"per_page" validate:"gte=0,lte=200"`
}

// CancelOrderRequest carries the operator's cancellation reason.
type CancelOrderRequest struct {
	Reason string `json:"reason" validate:"required,max=500"`
}
