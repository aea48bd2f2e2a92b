package test

import (
	"context"
	"sync"

	domainErrors "github.com/polkiloo/payledger/internal/domain/errors"
	"github.com/polkiloo/payledger/internal/domain/model"
	"github.com/polkiloo/payledger/internal/webhook"
)

// AuthFacadeStub provides controllable behaviour for auth endpoints.
type AuthFacadeStub struct {
	RegisterFn     func(context.Context, string, string) (string, error)
	AuthenticateFn func(context.Context, string, string) (string, error)
	ParseFn        func(string) (model.Principal, error)
}

// Register returns "token" unless RegisterFn is set.
func (s AuthFacadeStub) Register(ctx context.Context, login, password string) (string, error) {
	if s.RegisterFn != nil {
		return s.RegisterFn(ctx, login, password)
	}
	return "token", nil
}

// Authenticate returns "token" unless AuthenticateFn is set.
func (s AuthFacadeStub) Authenticate(ctx context.Context, login, password string) (string, error) {
	if s.AuthenticateFn != nil {
		return s.AuthenticateFn(ctx, login, password)
	}
	return "token", nil
}

// ParseToken resolves any token to usr_1 by default.
func (s AuthFacadeStub) ParseToken(token string) (model.Principal, error) {
	if s.ParseFn != nil {
		return s.ParseFn(token)
	}
	return model.Principal{ID: "usr_1", Role: model.RoleUser}, nil
}

// CheckoutFacadeStub simulates checkout session creation.
type CheckoutFacadeStub struct {
	StartFn func(context.Context, model.Principal, string) (*model.Checkout, error)
}

// StartCheckout returns a checkout for ord_1 by default.
func (s CheckoutFacadeStub) StartCheckout(ctx context.Context, buyer model.Principal, productID string) (*model.Checkout, error) {
	if s.StartFn != nil {
		return s.StartFn(ctx, buyer, productID)
	}
	return &model.Checkout{OrderID: "ord_1", SessionID: "cs_ord_1", CheckoutURL: "https://checkout.stripe.test/ord_1"}, nil
}

// OrderFacadeStub serves orders from a map, enforcing ownership.
type OrderFacadeStub struct {
	Orders  map[string]model.Order
	OrderFn func(context.Context, model.Principal, string) (*model.Order, error)
}

// Order returns the stored order for its owner or an admin.
func (s OrderFacadeStub) Order(ctx context.Context, caller model.Principal, id string) (*model.Order, error) {
	if s.OrderFn != nil {
		return s.OrderFn(ctx, caller, id)
	}
	order, ok := s.Orders[id]
	if !ok || (!order.OwnedBy(caller.ID) && !caller.IsAdmin()) {
		return nil, domainErrors.ErrNotFound
	}
	return &order, nil
}

// ProductFacadeStub returns a fixed catalog.
type ProductFacadeStub struct {
	Items []model.Product
	Err   error
}

// Products returns Items or Err.
func (s ProductFacadeStub) Products(context.Context) ([]model.Product, error) {
	if s.Err != nil {
		return nil, s.Err
	}
	return s.Items, nil
}

// WebhookFacadeStub records deliveries and replies with Result.
type WebhookFacadeStub struct {
	Result webhook.Result

	mu         sync.Mutex
	Payloads   [][]byte
	Signatures []string
}

// HandleWebhook records the delivery.
func (s *WebhookFacadeStub) HandleWebhook(_ context.Context, payload []byte, signature string) webhook.Result {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.Payloads = append(s.Payloads, payload)
	s.Signatures = append(s.Signatures, signature)
	return s.Result
}

// Deliveries returns the number of recorded deliveries.
func (s *WebhookFacadeStub) Deliveries() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.Payloads)
}

// HealthFacadeStub reports Err as the storage state.
type HealthFacadeStub struct {
	Err error
}

// Health returns Err.
func (s HealthFacadeStub) Health(context.Context) error {
	return s.Err
}

// PaymentsFacadeStub combines every handler facade stub.
type PaymentsFacadeStub struct {
	AuthFacadeStub
	CheckoutFacadeStub
	OrderFacadeStub
	ProductFacadeStub
	*WebhookFacadeStub
	HealthFacadeStub
}
