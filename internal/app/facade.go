package app

import (
	"context"
	"time"

	"go.uber.org/fx"

	"github.com/polkiloo/payledger/internal/domain/model"
	"github.com/polkiloo/payledger/internal/usecase"
	"github.com/polkiloo/payledger/internal/webhook"
)

// WebhookProcessor handles one raw provider delivery.
type WebhookProcessor interface {
	Process(ctx context.Context, payload []byte, signature string) webhook.Result
}

// HealthChecker reports readiness of backing storage.
type HealthChecker interface {
	HealthCheck(ctx context.Context) error
}

// FacadeParams lists the services behind PaymentsFacade.
type FacadeParams struct {
	fx.In

	Auth      *usecase.AuthUseCase
	Orders    *usecase.OrderUseCase
	Products  *usecase.ProductUseCase
	Checkout  *usecase.CheckoutUseCase
	Reconcile *usecase.ReconcileUseCase
	Webhooks  WebhookProcessor
	Health    HealthChecker
}

// PaymentsFacade is the single entry point used by transport and workers.
type PaymentsFacade struct {
	auth      *usecase.AuthUseCase
	orders    *usecase.OrderUseCase
	products  *usecase.ProductUseCase
	checkout  *usecase.CheckoutUseCase
	reconcile *usecase.ReconcileUseCase
	webhooks  WebhookProcessor
	health    HealthChecker
}

func NewPaymentsFacade(p FacadeParams) *PaymentsFacade {
	return &PaymentsFacade{
		auth:      p.Auth,
		orders:    p.Orders,
		products:  p.Products,
		checkout:  p.Checkout,
		reconcile: p.Reconcile,
		webhooks:  p.Webhooks,
		health:    p.Health,
	}
}

func (f *PaymentsFacade) Register(ctx context.Context, login, password string) (string, error) {
	_, token, err := f.auth.Register(ctx, login, password)
	return token, err
}

func (f *PaymentsFacade) Authenticate(ctx context.Context, login, password string) (string, error) {
	_, token, err := f.auth.Authenticate(ctx, login, password)
	return token, err
}

func (f *PaymentsFacade) ParseToken(token string) (model.Principal, error) {
	return f.auth.ParseToken(token)
}

func (f *PaymentsFacade) StartCheckout(ctx context.Context, buyer model.Principal, productID string) (*model.Checkout, error) {
	return f.checkout.Start(ctx, buyer, productID)
}

func (f *PaymentsFacade) Order(ctx context.Context, caller model.Principal, id string) (*model.Order, error) {
	return f.orders.Get(ctx, caller, id)
}

func (f *PaymentsFacade) Products(ctx context.Context) ([]model.Product, error) {
	return f.products.ListActive(ctx)
}

func (f *PaymentsFacade) HandleWebhook(ctx context.Context, payload []byte, signature string) webhook.Result {
	return f.webhooks.Process(ctx, payload, signature)
}

func (f *PaymentsFacade) ReconcileOrder(ctx context.Context, orderID string) (usecase.ReconcileOutcome, error) {
	return f.reconcile.Reconcile(ctx, orderID)
}

func (f *PaymentsFacade) PendingForReconcile(ctx context.Context, olderThan time.Time, limit int) ([]model.Order, error) {
	return f.orders.PendingWithSession(ctx, olderThan, limit)
}

// Health returns nil when storage answers.
func (f *PaymentsFacade) Health(ctx context.Context) error {
	if f.health == nil {
		return nil
	}
	return f.health.HealthCheck(ctx)
}
