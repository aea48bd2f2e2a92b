package test

import (
	"context"
	"sync"

	"github.com/polkiloo/payledger/internal/adapter/stripe"
)

// StripeClientStub records checkout calls and returns configured sessions.
type StripeClientStub struct {
	mu sync.Mutex

	CreateFn   func(context.Context, stripe.CheckoutParams) (*stripe.CheckoutSession, error)
	RetrieveFn func(context.Context, string) (*stripe.CheckoutSession, error)
	Sessions   map[string]*stripe.CheckoutSession

	Created   []stripe.CheckoutParams
	Retrieved []string
}

// CreateCheckoutSession returns cs_<orderID> with a hosted URL by default.
func (s *StripeClientStub) CreateCheckoutSession(ctx context.Context, p stripe.CheckoutParams) (*stripe.CheckoutSession, error) {
	s.mu.Lock()
	s.Created = append(s.Created, p)
	s.mu.Unlock()
	if s.CreateFn != nil {
		return s.CreateFn(ctx, p)
	}
	amount := p.AmountCents
	return &stripe.CheckoutSession{
		ID:                "cs_" + p.OrderID,
		Mode:              "payment",
		PaymentStatus:     "unpaid",
		AmountTotal:       &amount,
		Currency:          p.Currency,
		ClientReferenceID: p.OrderID,
		Metadata:          map[string]string{"orderId": p.OrderID},
		URL:               "https://checkout.stripe.test/" + p.OrderID,
	}, nil
}

// RetrieveCheckoutSession serves from Sessions unless RetrieveFn is set.
func (s *StripeClientStub) RetrieveCheckoutSession(ctx context.Context, id string) (*stripe.CheckoutSession, error) {
	s.mu.Lock()
	s.Retrieved = append(s.Retrieved, id)
	session, ok := s.Sessions[id]
	s.mu.Unlock()
	if s.RetrieveFn != nil {
		return s.RetrieveFn(ctx, id)
	}
	if !ok {
		return nil, &stripe.APIError{StatusCode: 404, Type: "invalid_request_error", Code: "resource_missing", Message: "No such checkout session"}
	}
	return session, nil
}

// RetrieveCount returns the number of retrieve calls.
func (s *StripeClientStub) RetrieveCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.Retrieved)
}

var _ stripe.Client = (*StripeClientStub)(nil)
