package usecase

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/polkiloo/payledger/internal/adapter/stripe"
	"github.com/polkiloo/payledger/internal/clock"
	domainErrors "github.com/polkiloo/payledger/internal/domain/errors"
	"github.com/polkiloo/payledger/internal/domain/model"
	testhelpers "github.com/polkiloo/payledger/internal/test"
)

var reconcileNow = time.Date(2025, 2, 1, 9, 30, 0, 0, time.UTC)

func reconcileFixture(status model.OrderStatus, session *stripe.CheckoutSession) (*testhelpers.MemoryStore, *ReconcileUseCase) {
	store := testhelpers.NewMemoryStore()
	sessionID := "cs_1"
	store.PutOrder(model.Order{
		ID:                "ord_1",
		UserID:            "usr_1",
		AmountCents:       1000,
		Currency:          "usd",
		Status:            status,
		ExternalSessionID: &sessionID,
	})
	client := &testhelpers.StripeClientStub{Sessions: map[string]*stripe.CheckoutSession{}}
	if session != nil {
		client.Sessions[session.ID] = session
	}
	return store, NewReconcileUseCase(store.Orders(), client, clock.NewFakeClock(reconcileNow), nil)
}

func providerSession(status string, amount int64, currency string) *stripe.CheckoutSession {
	return &stripe.CheckoutSession{
		ID:            "cs_1",
		Mode:          "payment",
		PaymentStatus: status,
		AmountTotal:   &amount,
		Currency:      currency,
		PaymentIntent: stripe.Expandable{ID: "pi_1"},
	}
}

func TestReconcileOutcomes(t *testing.T) {
	cases := []struct {
		name    string
		status  model.OrderStatus
		session *stripe.CheckoutSession
		want    ReconcileOutcome
		final   model.OrderStatus
	}{
		{"paid session", model.OrderStatusPending, providerSession("paid", 1000, "usd"), ReconcileUpdated, model.OrderStatusPaid},
		{"overpaid session", model.OrderStatusPending, providerSession("paid", 1200, "usd"), ReconcileUpdated, model.OrderStatusPaid},
		{"unpaid session", model.OrderStatusPending, providerSession("unpaid", 1000, "usd"), ReconcileNotPaid, model.OrderStatusPending},
		{"short amount", model.OrderStatusPending, providerSession("paid", 999, "usd"), ReconcileAmountMismatch, model.OrderStatusPending},
		{"currency", model.OrderStatusPending, providerSession("paid", 1000, "eur"), ReconcileAmountMismatch, model.OrderStatusPending},
		{"already paid", model.OrderStatusPaid, providerSession("paid", 1000, "usd"), ReconcileNoop, model.OrderStatusPaid},
		{"refunded stays", model.OrderStatusRefunded, providerSession("paid", 1000, "usd"), ReconcileNoop, model.OrderStatusRefunded},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			store, uc := reconcileFixture(tc.status, tc.session)

			got, err := uc.Reconcile(context.Background(), "ord_1")
			if err != nil {
				t.Fatalf("reconcile returned error: %v", err)
			}
			if got != tc.want {
				t.Fatalf("expected %s, got %s", tc.want, got)
			}
			order, _ := store.Order("ord_1")
			if order.Status != tc.final {
				t.Fatalf("expected status %s, got %s", tc.final, order.Status)
			}
			if tc.want == ReconcileUpdated {
				if order.PaymentReference == nil || *order.PaymentReference != "pi_1" {
					t.Fatalf("expected payment reference pi_1, got %v", order.PaymentReference)
				}
				if order.PaidAt == nil || !order.PaidAt.Equal(reconcileNow) {
					t.Fatalf("expected paid at %v, got %v", reconcileNow, order.PaidAt)
				}
			}
		})
	}
}

func TestReconcileErrors(t *testing.T) {
	store, uc := reconcileFixture(model.OrderStatusPending, nil)

	if _, err := uc.Reconcile(context.Background(), ""); !errors.Is(err, domainErrors.ErrValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
	if _, err := uc.Reconcile(context.Background(), "ord_missing"); !errors.Is(err, domainErrors.ErrNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}

	var apiErr *stripe.APIError
	if _, err := uc.Reconcile(context.Background(), "ord_1"); !errors.As(err, &apiErr) {
		t.Fatalf("expected provider error, got %v", err)
	}

	store.PutOrder(model.Order{ID: "ord_nosession", Status: model.OrderStatusPending})
	if _, err := uc.Reconcile(context.Background(), "ord_nosession"); !errors.Is(err, domainErrors.ErrOrderNotReconcilable) {
		t.Fatalf("expected not reconcilable, got %v", err)
	}
}

func TestReconcileKeepsRateLimitDetectable(t *testing.T) {
	store := testhelpers.NewMemoryStore()
	sessionID := "cs_1"
	store.PutOrder(model.Order{ID: "ord_1", Status: model.OrderStatusPending, ExternalSessionID: &sessionID})
	client := &testhelpers.StripeClientStub{RetrieveFn: func(context.Context, string) (*stripe.CheckoutSession, error) {
		return nil, stripe.TooManyRequestsError{RetryAfter: 3 * time.Second}
	}}
	uc := NewReconcileUseCase(store.Orders(), client, nil, nil)

	_, err := uc.Reconcile(context.Background(), "ord_1")
	var tooMany stripe.TooManyRequestsError
	if !errors.As(err, &tooMany) || tooMany.RetryAfter != 3*time.Second {
		t.Fatalf("expected rate limit error, got %v", err)
	}
}
