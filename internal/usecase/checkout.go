package usecase

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/polkiloo/payledger/internal/adapter/stripe"
	domainErrors "github.com/polkiloo/payledger/internal/domain/errors"
	"github.com/polkiloo/payledger/internal/domain/model"
	"github.com/polkiloo/payledger/internal/domain/repository"
	"github.com/polkiloo/payledger/internal/logger"
)

// CheckoutSettings are the provider redirect targets. Production keeps raw
// provider errors out of the logs.
type CheckoutSettings struct {
	Success    string
	Cancel     string
	Production bool
}

// CheckoutUseCase prices a product on the server, records a pending order
// and opens a provider checkout session for it.
type CheckoutUseCase struct {
	products repository.ProductRepository
	orders   repository.OrderRepository
	client   stripe.Client
	urls     CheckoutSettings
	logger   *zap.Logger
}

func NewCheckoutUseCase(
	products repository.ProductRepository,
	orders repository.OrderRepository,
	client stripe.Client,
	urls CheckoutSettings,
	log *zap.Logger,
) *CheckoutUseCase {
	if log == nil {
		log = zap.NewNop()
	}
	return &CheckoutUseCase{products: products, orders: orders, client: client, urls: urls, logger: log}
}

// Start creates the order and its checkout session. A provider failure
// fails the order and is reported as ErrProviderUnavailable wrapping the
// provider error.
func (u *CheckoutUseCase) Start(ctx context.Context, buyer model.Principal, productID string) (*model.Checkout, error) {
	log := logger.WithContext(ctx, logger.Payment(u.logger))

	productID = strings.TrimSpace(productID)
	if productID == "" {
		return nil, domainErrors.ErrInvalidProduct
	}
	product, err := u.products.GetByID(ctx, productID)
	if err != nil {
		if errors.Is(err, domainErrors.ErrNotFound) {
			return nil, domainErrors.ErrInvalidProduct
		}
		return nil, err
	}
	if !product.Active || product.AmountCents <= 0 {
		return nil, domainErrors.ErrInvalidProduct
	}

	order, err := u.orders.CreatePending(ctx, &model.Order{
		ID:          model.NewOrderID(),
		UserID:      buyer.ID,
		ProductID:   &product.ID,
		AmountCents: product.AmountCents,
		Currency:    strings.ToLower(product.Currency),
	})
	if err != nil {
		return nil, fmt.Errorf("create order: %w", err)
	}
	log = log.With(zap.String("order_id", order.ID), zap.String("user_id", buyer.ID))

	session, err := u.client.CreateCheckoutSession(ctx, stripe.CheckoutParams{
		OrderID:     order.ID,
		AmountCents: order.AmountCents,
		Currency:    order.Currency,
		SuccessURL:  u.urls.Success,
		CancelURL:   u.urls.Cancel,
	})
	if err != nil {
		log.Warn("checkout session creation failed", logger.Failure("provider_unavailable", err, u.urls.Production)...)
		if _, ferr := u.orders.Transition(ctx, order.ID, model.MarkFailed()); ferr != nil {
			log.Error("failed to mark order failed", logger.Failure("order_fail_transition", ferr, u.urls.Production)...)
		}
		return nil, fmt.Errorf("%w: %w", domainErrors.ErrProviderUnavailable, err)
	}

	if err := u.orders.AttachSession(ctx, order.ID, session.ID); err != nil {
		return nil, fmt.Errorf("attach session: %w", err)
	}

	log.Info("checkout session created", zap.String("stripe_session_id", session.ID))
	return &model.Checkout{OrderID: order.ID, SessionID: session.ID, CheckoutURL: session.URL}, nil
}
