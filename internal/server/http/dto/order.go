package dto

import "time"

// OrderResponse is the buyer-facing order status.
type OrderResponse struct {
	ID          string     `json:"id"`
	Status      string     `json:"status"`
	AmountCents int64      `json:"amountCents"`
	Currency    string     `json:"currency"`
	PaidAt      *time.Time `json:"paidAt"`
}
