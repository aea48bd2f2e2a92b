package handlers

import (
	"context"

	"github.com/polkiloo/payledger/internal/domain/model"
	"github.com/polkiloo/payledger/internal/webhook"
)

// AuthFacade describes authentication capabilities required by handlers.
type AuthFacade interface {
	Register(ctx context.Context, login, password string) (string, error)
	Authenticate(ctx context.Context, login, password string) (string, error)
	ParseToken(token string) (model.Principal, error)
}

// CheckoutFacade opens provider checkout sessions.
type CheckoutFacade interface {
	StartCheckout(ctx context.Context, buyer model.Principal, productID string) (*model.Checkout, error)
}

// OrderFacade exposes order status to its owner.
type OrderFacade interface {
	Order(ctx context.Context, caller model.Principal, id string) (*model.Order, error)
}

type ProductFacade interface {
	Products(ctx context.Context) ([]model.Product, error)
}

// WebhookFacade runs a raw provider delivery through the reconciliation engine.
type WebhookFacade interface {
	HandleWebhook(ctx context.Context, payload []byte, signature string) webhook.Result
}

type HealthFacade interface {
	Health(ctx context.Context) error
}

// PaymentsFacade aggregates the full set of operations used across handlers.
type PaymentsFacade interface {
	AuthFacade
	CheckoutFacade
	OrderFacade
	ProductFacade
	WebhookFacade
	HealthFacade
}
