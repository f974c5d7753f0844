package orderstatus

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestNormalizeSynonyms(t *testing.T) {
	cases := map[string]Status{
		"PENDING":    PendingPayment,
		"pending":    PendingPayment,
		"SHIPPED":    Shipping,
		"DELIVERED":  Completed,
		"CANCELLED":  CancelledByAdmin,
		" shipped ":  Shipping,
		"SHIPPING":   Shipping,
		"PAID":       Paid,
		"paid":       Paid,
		"":           Unknown,
		"REFUNDED":   Unknown,
		"IN_TRANSIT": Unknown,
	}
	for raw, want := range cases {
		require.Equal(t, want, Normalize(raw), "raw %q", raw)
	}
}

func TestNormalizeIsIdempotent(t *testing.T) {
	for _, s := range FilterKeys() {
		require.Equal(t, s, Normalize(string(s)))
	}
	require.Equal(t, Unknown, Normalize(string(Unknown)))
}

func TestRawValuesCoverSynonyms(t *testing.T) {
	require.ElementsMatch(t, []string{"SHIPPING", "SHIPPED"}, RawValues(Shipping))
	require.ElementsMatch(t, []string{"PENDING_PAYMENT", "PENDING"}, RawValues(PendingPayment))
	require.ElementsMatch(t, []string{"COMPLETED", "DELIVERED"}, RawValues(Completed))
	require.ElementsMatch(t, []string{"CANCELLED_BY_ADMIN", "CANCELLED"}, RawValues(CancelledByAdmin))
	require.Equal(t, []string{"PAID"}, RawValues(Paid))
}

func TestLabelAndColorAreTotal(t *testing.T) {
	require.Equal(t, "Shipping", Label(Shipping))
	require.Equal(t, "teal", Color(Shipping))
	require.Equal(t, "Cancelled by Customer", Label(CancelledByUser))
	require.Equal(t, "red", Color(CancelledByUser))

	require.Equal(t, "Unknown", Label(Unknown))
	require.Equal(t, "gray", Color(Unknown))
	require.Equal(t, "Unknown", Label(Status("GARBAGE")))
	require.Equal(t, "gray", Color(Status("GARBAGE")))
}

func TestCanCancel(t *testing.T) {
	cancellable := []string{"PENDING", "PENDING_PAYMENT", "pending", "PROCESSING", "CANCELLED_BY_USER", "garbage"}
	for _, raw := range cancellable {
		require.True(t, CanCancel(raw), "raw %q", raw)
	}

	frozen := []string{"PAID", "SHIPPING", "SHIPPED", "COMPLETED", "DELIVERED", "EXPIRED", "CANCELLED", "CANCELLED_BY_ADMIN"}
	for _, raw := range frozen {
		require.False(t, CanCancel(raw), "raw %q", raw)
	}
}

func TestCanUpdateTracking(t *testing.T) {
	require.True(t, CanUpdateTracking("PROCESSING"))
	require.True(t, CanUpdateTracking("SHIPPED"))
	require.True(t, CanUpdateTracking("shipping"))

	require.False(t, CanUpdateTracking("PENDING"))
	require.False(t, CanUpdateTracking("DELIVERED"))
	require.False(t, CanUpdateTracking("whatever"))
}

func TestCanUpdateStatusFreezesTerminalStates(t *testing.T) {
	require.True(t, CanUpdateStatus("PENDING"))
	require.True(t, CanUpdateStatus("PAID"))
	require.True(t, CanUpdateStatus("SHIPPED"))

	require.False(t, CanUpdateStatus("COMPLETED"))
	require.False(t, CanUpdateStatus("DELIVERED"))
	require.False(t, CanUpdateStatus("CANCELLED"))
	require.False(t, CanUpdateStatus("CANCELLED_BY_USER"))
	require.False(t, CanUpdateStatus("EXPIRED"))
}

func TestFilterKeysExcludeUnknown(t *testing.T) {
	for _, s := range FilterKeys() {
		require.NotEqual(t, Unknown, s)
	}
	require.Len(t, FilterKeys(), 8)
}
