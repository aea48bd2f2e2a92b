package model

import (
	"strings"
	"time"

	"github.com/oklog/ulid/v2"
)

// OrderStatus describes payment lifecycle of an order.
type OrderStatus string

const (
	OrderStatusPending  OrderStatus = "pending"
	OrderStatusPaid     OrderStatus = "paid"
	OrderStatusFailed   OrderStatus = "failed"
	OrderStatusRefunded OrderStatus = "refunded"
)

// Order describes a purchase intent created at checkout.
type Order struct {
	ID                string
	UserID            string
	ProductID         *string
	AmountCents       int64
	Currency          string
	Status            OrderStatus
	ExternalSessionID *string
	PaymentReference  *string
	PaidAt            *time.Time
	CreatedAt         time.Time
	UpdatedAt         time.Time
}

// OwnedBy reports whether the order belongs to the user.
func (o *Order) OwnedBy(userID string) bool {
	return o != nil && o.UserID == userID
}

// NewOrderID returns a sortable opaque order identifier.
func NewOrderID() string {
	return "ord_" + strings.ToLower(ulid.Make().String())
}

// Transition is a conditional status change. It applies only while the
// current status is one of From.
type Transition struct {
	From             []OrderStatus
	To               OrderStatus
	SessionID        string
	PaymentReference string
	PaidAt           *time.Time
}

// MarkPaid moves a pending order to paid and records provider references.
func MarkPaid(sessionID, paymentReference string, at time.Time) Transition {
	paidAt := at.UTC()
	return Transition{
		From:             []OrderStatus{OrderStatusPending},
		To:               OrderStatusPaid,
		SessionID:        sessionID,
		PaymentReference: paymentReference,
		PaidAt:           &paidAt,
	}
}

// MarkFailed moves a pending order to failed.
func MarkFailed() Transition {
	return Transition{From: []OrderStatus{OrderStatusPending}, To: OrderStatusFailed}
}

// MarkRefunded moves a paid order to refunded.
func MarkRefunded() Transition {
	return Transition{From: []OrderStatus{OrderStatusPaid}, To: OrderStatusRefunded}
}

// Allows reports whether the transition may start from status.
func (t Transition) Allows(status OrderStatus) bool {
	for _, from := range t.From {
		if from == status {
			return true
		}
	}
	return false
}

// FromStrings returns guard statuses as plain strings for SQL parameters.
func (t Transition) FromStrings() []string {
	out := make([]string, 0, len(t.From))
	for _, s := range t.From {
		out = append(out, string(s))
	}
	return out
}
