package model

import "time"

// OrphanReason explains why a ledger entry is not tied to an order.
type OrphanReason string

const (
	OrphanNoOrderID         OrphanReason = "no_order_id"
	OrphanOrderNotFound     OrphanReason = "order_not_found"
	OrphanPaymentNotPaid    OrphanReason = "payment_not_paid"
	OrphanSanityCheckFailed OrphanReason = "sanity_check_failed"
	OrphanUnknownEventType  OrphanReason = "unknown_event_type"
)

// Recoverable reports whether a later delivery of the same event may resolve it.
func (r OrphanReason) Recoverable() bool {
	switch r {
	case OrphanOrderNotFound, OrphanPaymentNotPaid, OrphanSanityCheckFailed:
		return true
	default:
		return false
	}
}

// PaymentEvent is one ledger entry, unique per provider event id.
type PaymentEvent struct {
	ID            int64
	StripeEventID string
	Type          string
	OrderID       *string
	Orphaned      bool
	OrphanReason  *OrphanReason
	Payload       Snapshot
	ReceivedAt    time.Time
}

// Snapshot is the minimal payload kept in the ledger. Each event kind fills
// only its own fields; customer data is never stored.
type Snapshot struct {
	StripeEventID   string `json:"stripeEventId"`
	Type            string `json:"type"`
	StripeSessionID string `json:"stripeSessionId,omitempty"`
	AmountTotal     *int64 `json:"amount_total,omitempty"`
	Currency        string `json:"currency,omitempty"`
	PaymentStatus   string `json:"payment_status,omitempty"`
	ChargeID        string `json:"chargeId,omitempty"`
	PaymentIntentID string `json:"paymentIntentId,omitempty"`
	Amount          *int64 `json:"amount,omitempty"`
	AmountRefunded  *int64 `json:"amount_refunded,omitempty"`
	AmountReceived  *int64 `json:"amount_received,omitempty"`
}
