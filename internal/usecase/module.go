package usecase

import (
	"go.uber.org/fx"
	"go.uber.org/zap"

	"github.com/polkiloo/payledger/internal/adapter/stripe"
	"github.com/polkiloo/payledger/internal/clock"
	"github.com/polkiloo/payledger/internal/config"
	"github.com/polkiloo/payledger/internal/domain/repository"
)

// Module provides core business use cases to the fx container.
var Module = fx.Provide(
	NewAuthUseCase,
	NewOrderUseCase,
	NewProductUseCase,
	newCheckoutUseCase,
	newReconcileUseCase,
	newPurgeUseCase,
)

type checkoutParams struct {
	fx.In

	Config   *config.Config
	Logger   *zap.Logger
	Products repository.ProductRepository
	Orders   repository.OrderRepository
	Client   stripe.Client
}

func newCheckoutUseCase(p checkoutParams) *CheckoutUseCase {
	urls := CheckoutSettings{
		Success:    p.Config.StripeSuccessURL,
		Cancel:     p.Config.StripeCancelURL,
		Production: p.Config.IsProduction(),
	}
	return NewCheckoutUseCase(p.Products, p.Orders, p.Client, urls, p.Logger.Named("checkout"))
}

type reconcileParams struct {
	fx.In

	Logger *zap.Logger
	Clock  clock.Clock
	Orders repository.OrderRepository
	Client stripe.Client
}

func newReconcileUseCase(p reconcileParams) *ReconcileUseCase {
	return NewReconcileUseCase(p.Orders, p.Client, p.Clock, p.Logger.Named("reconcile"))
}

type purgeParams struct {
	fx.In

	Config *config.Config
	Logger *zap.Logger
	Clock  clock.Clock
	Events repository.PaymentEventRepository
}

func newPurgeUseCase(p purgeParams) *PurgeUseCase {
	return NewPurgeUseCase(p.Events, p.Clock, p.Config.RetentionDays, p.Config.RetentionMode, p.Logger.Named("purge"))
}
