package usecase

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/polkiloo/payledger/internal/adapter/stripe"
	"github.com/polkiloo/payledger/internal/clock"
	domainErrors "github.com/polkiloo/payledger/internal/domain/errors"
	"github.com/polkiloo/payledger/internal/domain/model"
	"github.com/polkiloo/payledger/internal/domain/repository"
	"github.com/polkiloo/payledger/internal/logger"
)

// ReconcileOutcome reports what a manual reconciliation did.
type ReconcileOutcome string

const (
	ReconcileNotPaid        ReconcileOutcome = "not_paid"
	ReconcileAmountMismatch ReconcileOutcome = "amount_mismatch"
	ReconcileUpdated        ReconcileOutcome = "updated"
	ReconcileNoop           ReconcileOutcome = "noop"
)

// ReconcileUseCase asks the provider for the truth about an order's
// checkout session and applies the paid transition when it is due.
type ReconcileUseCase struct {
	orders repository.OrderRepository
	client stripe.Client
	clock  clock.Clock
	logger *zap.Logger
}

func NewReconcileUseCase(orders repository.OrderRepository, client stripe.Client, clk clock.Clock, log *zap.Logger) *ReconcileUseCase {
	if clk == nil {
		clk = clock.System{}
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &ReconcileUseCase{orders: orders, client: client, clock: clk, logger: log}
}

// Reconcile never downgrades: only a pending order can become paid. Provider
// errors are returned wrapped, so stripe.TooManyRequestsError stays
// detectable with errors.As.
func (u *ReconcileUseCase) Reconcile(ctx context.Context, orderID string) (ReconcileOutcome, error) {
	orderID = strings.TrimSpace(orderID)
	if orderID == "" {
		return "", fmt.Errorf("%w: order id is required", domainErrors.ErrValidation)
	}
	log := logger.WithContext(ctx, logger.Payment(u.logger)).With(zap.String("order_id", orderID))

	order, err := u.orders.GetByID(ctx, orderID)
	if err != nil {
		if errors.Is(err, domainErrors.ErrNotFound) {
			return "", domainErrors.ErrNotFound
		}
		return "", fmt.Errorf("load order: %w", err)
	}
	if order.ExternalSessionID == nil || *order.ExternalSessionID == "" {
		return "", domainErrors.ErrOrderNotReconcilable
	}

	session, err := u.client.RetrieveCheckoutSession(ctx, *order.ExternalSessionID)
	if err != nil {
		return "", fmt.Errorf("retrieve checkout session: %w", err)
	}
	log = log.With(zap.String("stripe_session_id", session.ID), zap.String("payment_status", session.PaymentStatus))

	if !session.IsPaid() {
		log.Info("reconcile finished", zap.String("outcome", string(ReconcileNotPaid)))
		return ReconcileNotPaid, nil
	}
	if session.AmountTotal == nil || *session.AmountTotal < order.AmountCents ||
		!strings.EqualFold(session.Currency, order.Currency) {
		log.Warn("reconcile finished",
			zap.String("outcome", string(ReconcileAmountMismatch)),
			zap.Int64p("session_amount", session.AmountTotal),
			zap.String("session_currency", session.Currency),
			zap.Int64("order_amount_cents", order.AmountCents),
			zap.String("order_currency", order.Currency),
		)
		return ReconcileAmountMismatch, nil
	}

	changed, err := u.orders.Transition(ctx, order.ID, model.MarkPaid(session.ID, session.PaymentIntent.ID, u.clock.Now()))
	if err != nil {
		return "", fmt.Errorf("mark order paid: %w", err)
	}
	outcome := ReconcileNoop
	if changed > 0 {
		outcome = ReconcileUpdated
	}
	log.Info("reconcile finished", zap.String("outcome", string(outcome)))
	return outcome, nil
}
