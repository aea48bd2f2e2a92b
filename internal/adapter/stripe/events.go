package stripe

import (
	"bytes"
	"encoding/json"
	"fmt"
	"time"
)

// Event types this service understands.
const (
	EventCheckoutSessionCompleted             = "checkout.session.completed"
	EventCheckoutSessionAsyncPaymentSucceeded = "checkout.session.async_payment_succeeded"
	EventCheckoutSessionAsyncPaymentFailed    = "checkout.session.async_payment_failed"
	EventCheckoutSessionExpired               = "checkout.session.expired"
	EventChargeRefunded                       = "charge.refunded"
	EventPaymentIntentRefunded                = "payment_intent.refunded"
	metadataOrderIDKey                        = "orderId"
	sessionModePayment                        = "payment"
	paymentStatusPaid                         = "paid"
)

// Event is the envelope of a provider webhook delivery.
type Event struct {
	ID      string    `json:"id"`
	Type    string    `json:"type"`
	Created int64     `json:"created"`
	Data    EventData `json:"data"`
}

type EventData struct {
	Object json.RawMessage `json:"object"`
}

// CreatedAt returns the event creation time, or the zero time when absent.
func (e *Event) CreatedAt() time.Time {
	if e == nil || e.Created <= 0 {
		return time.Time{}
	}
	return time.Unix(e.Created, 0).UTC()
}

// ObjectID returns data.object.id, if any.
func (e *Event) ObjectID() string {
	var obj struct {
		ID string `json:"id"`
	}
	if e == nil || len(e.Data.Object) == 0 {
		return ""
	}
	if err := json.Unmarshal(e.Data.Object, &obj); err != nil {
		return ""
	}
	return obj.ID
}

// Expandable holds the id of a field the API may return either as a string
// or as an expanded object.
type Expandable struct {
	ID string
}

func (x *Expandable) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		x.ID = ""
		return nil
	}
	if data[0] == '"' {
		return json.Unmarshal(data, &x.ID)
	}
	var obj struct {
		ID string `json:"id"`
	}
	if err := json.Unmarshal(data, &obj); err != nil {
		return err
	}
	x.ID = obj.ID
	return nil
}

// CheckoutSession is the subset of a checkout session the service reads.
type CheckoutSession struct {
	ID                string            `json:"id"`
	Mode              string            `json:"mode"`
	PaymentStatus     string            `json:"payment_status"`
	AmountTotal       *int64            `json:"amount_total"`
	Currency          string            `json:"currency"`
	ClientReferenceID string            `json:"client_reference_id"`
	Metadata          map[string]string `json:"metadata"`
	PaymentIntent     Expandable        `json:"payment_intent"`
	URL               string            `json:"url"`
	CustomerEmail     string            `json:"customer_email"`
}

// OrderReference prefers metadata.orderId and falls back to client_reference_id.
func (s *CheckoutSession) OrderReference() string {
	if s == nil {
		return ""
	}
	if ref := s.Metadata[metadataOrderIDKey]; ref != "" {
		return ref
	}
	return s.ClientReferenceID
}

func (s *CheckoutSession) IsOneTimePayment() bool {
	return s != nil && s.Mode == sessionModePayment
}

func (s *CheckoutSession) IsPaid() bool {
	return s != nil && s.PaymentStatus == paymentStatusPaid
}

// Charge is the subset of a charge read from refund events.
type Charge struct {
	ID             string     `json:"id"`
	PaymentIntent  Expandable `json:"payment_intent"`
	Amount         int64      `json:"amount"`
	AmountRefunded int64      `json:"amount_refunded"`
}

// FullyRefunded reports whether the whole captured amount was returned.
func (c *Charge) FullyRefunded() bool {
	return c != nil && c.Amount > 0 && c.AmountRefunded >= c.Amount
}

// PaymentIntent is the subset of a payment intent read from refund events.
type PaymentIntent struct {
	ID             string            `json:"id"`
	AmountReceived int64             `json:"amount_received"`
	AmountRefunded int64             `json:"amount_refunded"`
	Metadata       map[string]string `json:"metadata"`
}

func (p *PaymentIntent) OrderReference() string {
	if p == nil {
		return ""
	}
	return p.Metadata[metadataOrderIDKey]
}

func (p *PaymentIntent) FullyRefunded() bool {
	return p != nil && p.AmountReceived > 0 && p.AmountRefunded >= p.AmountReceived
}

func (e *Event) CheckoutSession() (*CheckoutSession, error) {
	return decodeObject[CheckoutSession](e)
}

func (e *Event) Charge() (*Charge, error) {
	return decodeObject[Charge](e)
}

func (e *Event) PaymentIntent() (*PaymentIntent, error) {
	return decodeObject[PaymentIntent](e)
}

func decodeObject[T any](e *Event) (*T, error) {
	if e == nil || len(e.Data.Object) == 0 {
		return nil, fmt.Errorf("%w: event has no data object", ErrInvalidPayload)
	}
	var obj T
	if err := json.Unmarshal(e.Data.Object, &obj); err != nil {
		return nil, fmt.Errorf("%w: decode %s object: %v", ErrInvalidPayload, e.Type, err)
	}
	return &obj, nil
}
