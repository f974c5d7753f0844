// Package orderstatus canonicalizes the status strings emitted by the order
// and shipping backends into a fixed vocabulary and derives which actions are
// legal for a given status. Normalization is a pure function over the raw
// string; nothing here is persisted.
package orderstatus

import "strings"

// Status is a canonical order/shipment status.
type Status string

const (
	PendingPayment   Status = "PENDING_PAYMENT"
	Paid             Status = "PAID"
	Processing       Status = "PROCESSING"
	Shipping         Status = "SHIPPING"
	Completed        Status = "COMPLETED"
	CancelledByUser  Status = "CANCELLED_BY_USER"
	CancelledByAdmin Status = "CANCELLED_BY_ADMIN"
	Expired          Status = "EXPIRED"
	Unknown          Status = "UNKNOWN"
)

// synonyms maps legacy backend spellings onto the canonical set.
var synonyms = map[string]Status{
	"PENDING":   PendingPayment,
	"SHIPPED":   Shipping,
	"DELIVERED": Completed,
	"CANCELLED": CancelledByAdmin,
}

var canonical = map[Status]struct{}{
	PendingPayment:   {},
	Paid:             {},
	Processing:       {},
	Shipping:         {},
	Completed:        {},
	CancelledByUser:  {},
	CancelledByAdmin: {},
	Expired:          {},
}

// Normalize upper-cases the raw status and applies the synonym table.
// Unrecognized or empty input maps to Unknown; it never fails.
func Normalize(raw string) Status {
	upper := strings.ToUpper(strings.TrimSpace(raw))
	if s, ok := synonyms[upper]; ok {
		return s
	}
	if _, ok := canonical[Status(upper)]; ok {
		return Status(upper)
	}
	return Unknown
}

// RawValues returns every raw spelling a backend may emit for a canonical
// status, the canonical spelling included. Used to translate canonical list
// filters into SQL predicates over the stored raw strings.
func RawValues(s Status) []string {
	values := []string{string(s)}
	for raw, canon := range synonyms {
		if canon == s {
			values = append(values, raw)
		}
	}
	return values
}

// FilterKeys returns the canonical statuses used as list-page filters, in
// display order.
func FilterKeys() []Status {
	return []Status{
		PendingPayment, Paid, Processing, Shipping, Completed,
		CancelledByUser, CancelledByAdmin, Expired,
	}
}

var labels = map[Status]string{
	PendingPayment:   "Pending Payment",
	Paid:             "Paid",
	Processing:       "Processing",
	Shipping:         "Shipping",
	Completed:        "Completed",
	CancelledByUser:  "Cancelled by Customer",
	CancelledByAdmin: "Cancelled by Admin",
	Expired:          "Expired",
}

// Label returns the display label for a status, "Unknown" for anything
// unmapped, so every record is always renderable.
func Label(s Status) string {
	if l, ok := labels[s]; ok {
		return l
	}
	return "Unknown"
}

var colors = map[Status]string{
	PendingPayment:   "orange",
	Paid:             "blue",
	Processing:       "purple",
	Shipping:         "teal",
	Completed:        "green",
	CancelledByUser:  "red",
	CancelledByAdmin: "red",
	Expired:          "gray",
}

// Color returns the badge color for a status, "gray" when unmapped.
func Color(s Status) string {
	if c, ok := colors[s]; ok {
		return c
	}
	return "gray"
}

// CanCancel reports whether a cancel action may be offered for the raw
// status. This predicate is the single source of truth for cancel gating;
// list pages must not re-derive it.
func CanCancel(raw string) bool {
	switch Normalize(raw) {
	case Paid, Shipping, Completed, Expired, CancelledByAdmin:
		return false
	}
	return true
}

// CanUpdateTracking reports whether a tracking-number update is legal: only
// while the shipment is moving or about to.
func CanUpdateTracking(raw string) bool {
	switch Normalize(raw) {
	case Processing, Shipping:
		return true
	}
	return false
}

// CanUpdateStatus reports whether an operator may still move the record to a
// different status. Terminal states are frozen.
func CanUpdateStatus(raw string) bool {
	switch Normalize(raw) {
	case Completed, CancelledByUser, CancelledByAdmin, Expired:
		return false
	}
	return true
}
