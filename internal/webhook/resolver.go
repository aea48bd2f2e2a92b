package webhook

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/polkiloo/payledger/internal/adapter/stripe"
	"github.com/polkiloo/payledger/internal/clock"
	"github.com/polkiloo/payledger/internal/config"
	domainErrors "github.com/polkiloo/payledger/internal/domain/errors"
	"github.com/polkiloo/payledger/internal/domain/model"
)

// OrderReader is the read side of the order repository used for correlation.
type OrderReader interface {
	GetByID(ctx context.Context, id string) (*model.Order, error)
	GetByPaymentReference(ctx context.Context, reference string) (*model.Order, error)
}

// Intent is what an event asks for, independent of any stored order.
type Intent struct {
	Kind       Kind
	Reference  string
	ByPayment  string
	Transition *model.Transition
	Snapshot   model.Snapshot
	Fields     []zap.Field

	session *stripe.CheckoutSession
}

// Resolution is the outcome of correlating an intent with an order.
type Resolution struct {
	OrderID string
	Reason  model.OrphanReason
	Fields  []zap.Field
}

func (r Resolution) Orphaned() bool {
	return r.Reason != ""
}

// Resolver extracts order references from events and checks coherence
// before any mutation is allowed.
type Resolver struct {
	orders OrderReader
	mode   config.PricingMode
	clock  clock.Clock
}

func NewResolver(orders OrderReader, mode config.PricingMode, clk clock.Clock) *Resolver {
	if mode == "" {
		mode = config.PricingStrict
	}
	if clk == nil {
		clk = clock.System{}
	}
	return &Resolver{orders: orders, mode: mode, clock: clk}
}

// Intent decodes the event object into a closed snapshot and the transition
// it would cause. It does not touch storage.
func (r *Resolver) Intent(event *stripe.Event, kind Kind) (*Intent, error) {
	base := model.Snapshot{StripeEventID: event.ID, Type: event.Type}

	switch kind {
	case KindCheckoutPaid, KindCheckoutFailed:
		session, err := event.CheckoutSession()
		if err != nil {
			return nil, err
		}
		snap := base
		snap.StripeSessionID = session.ID
		intent := &Intent{Kind: kind, Reference: session.OrderReference(), session: session}
		intent.Fields = []zap.Field{zap.String("stripe_session_id", session.ID)}

		if kind == KindCheckoutPaid {
			snap.AmountTotal = session.AmountTotal
			snap.Currency = session.Currency
			snap.PaymentStatus = session.PaymentStatus
			t := model.MarkPaid(session.ID, session.PaymentIntent.ID, r.clock.Now())
			intent.Transition = &t
			intent.Fields = append(intent.Fields,
				zap.String("payment_status", session.PaymentStatus),
				zap.Bool("has_customer_email", session.CustomerEmail != ""),
			)
		} else {
			t := model.MarkFailed()
			intent.Transition = &t
		}
		intent.Snapshot = snap
		return intent, nil

	case KindChargeRefunded:
		charge, err := event.Charge()
		if err != nil {
			return nil, err
		}
		snap := base
		snap.ChargeID = charge.ID
		snap.PaymentIntentID = charge.PaymentIntent.ID
		snap.Amount = int64Ptr(charge.Amount)
		snap.AmountRefunded = int64Ptr(charge.AmountRefunded)

		intent := &Intent{Kind: kind, ByPayment: charge.PaymentIntent.ID, Snapshot: snap}
		if charge.FullyRefunded() {
			t := model.MarkRefunded()
			intent.Transition = &t
		}
		intent.Fields = []zap.Field{
			zap.String("charge_id", charge.ID),
			zap.String("payment_intent_id", charge.PaymentIntent.ID),
			zap.Int64("amount", charge.Amount),
			zap.Int64("amount_refunded", charge.AmountRefunded),
		}
		return intent, nil

	case KindPaymentIntentRefunded:
		pi, err := event.PaymentIntent()
		if err != nil {
			return nil, err
		}
		snap := base
		snap.PaymentIntentID = pi.ID
		snap.AmountReceived = int64Ptr(pi.AmountReceived)
		snap.AmountRefunded = int64Ptr(pi.AmountRefunded)

		intent := &Intent{Kind: kind, Reference: pi.OrderReference(), ByPayment: pi.ID, Snapshot: snap}
		if pi.FullyRefunded() {
			t := model.MarkRefunded()
			intent.Transition = &t
		}
		intent.Fields = []zap.Field{
			zap.String("payment_intent_id", pi.ID),
			zap.Int64("amount_received", pi.AmountReceived),
			zap.Int64("amount_refunded", pi.AmountRefunded),
		}
		return intent, nil

	default:
		snap := base
		snap.StripeSessionID = event.ObjectID()
		return &Intent{Kind: KindUnsupported, Snapshot: snap}, nil
	}
}

// Resolve correlates intent with a stored order. Storage failures other than
// not-found are returned as errors; every other outcome is a Resolution.
func (r *Resolver) Resolve(ctx context.Context, intent *Intent) (Resolution, error) {
	switch intent.Kind {
	case KindCheckoutPaid:
		return r.resolveCheckoutPaid(ctx, intent)
	case KindCheckoutFailed:
		return r.resolveCheckoutFailed(ctx, intent)
	case KindChargeRefunded, KindPaymentIntentRefunded:
		return r.resolveRefund(ctx, intent)
	default:
		return Resolution{Reason: model.OrphanUnknownEventType}, nil
	}
}

func (r *Resolver) resolveCheckoutPaid(ctx context.Context, intent *Intent) (Resolution, error) {
	session := intent.session
	if intent.Reference == "" {
		return Resolution{Reason: model.OrphanNoOrderID}, nil
	}
	if !session.IsPaid() {
		return Resolution{OrderID: intent.Reference, Reason: model.OrphanPaymentNotPaid}, nil
	}

	order, err := r.lookup(ctx, intent.Reference)
	if err != nil {
		return Resolution{}, err
	}
	if order == nil {
		return Resolution{Reason: model.OrphanOrderNotFound}, nil
	}

	if !r.coherent(session, intent.Reference, order) {
		return Resolution{
			OrderID: order.ID,
			Reason:  model.OrphanSanityCheckFailed,
			Fields: []zap.Field{
				zap.String("pricing_mode", string(r.mode)),
				zap.String("session_mode", session.Mode),
				zap.Int64p("session_amount", session.AmountTotal),
				zap.String("session_currency", session.Currency),
				zap.Int64("order_amount_cents", order.AmountCents),
				zap.String("order_currency", order.Currency),
			},
		}, nil
	}
	return Resolution{OrderID: order.ID}, nil
}

func (r *Resolver) resolveCheckoutFailed(ctx context.Context, intent *Intent) (Resolution, error) {
	if intent.Reference == "" {
		return Resolution{Reason: model.OrphanNoOrderID}, nil
	}
	order, err := r.lookup(ctx, intent.Reference)
	if err != nil {
		return Resolution{}, err
	}
	if order == nil {
		return Resolution{Reason: model.OrphanOrderNotFound}, nil
	}
	if !intent.session.IsOneTimePayment() {
		return Resolution{
			OrderID: order.ID,
			Reason:  model.OrphanSanityCheckFailed,
			Fields:  []zap.Field{zap.String("session_mode", intent.session.Mode)},
		}, nil
	}
	return Resolution{OrderID: order.ID}, nil
}

// resolveRefund looks the order up by metadata first when present, then by
// the payment reference stored at payment time.
func (r *Resolver) resolveRefund(ctx context.Context, intent *Intent) (Resolution, error) {
	if intent.Reference == "" && intent.ByPayment == "" {
		return Resolution{Reason: model.OrphanNoOrderID}, nil
	}

	if intent.Reference != "" {
		order, err := r.lookup(ctx, intent.Reference)
		if err != nil {
			return Resolution{}, err
		}
		if order != nil {
			return Resolution{OrderID: order.ID}, nil
		}
	}

	if intent.ByPayment != "" {
		order, err := r.orders.GetByPaymentReference(ctx, intent.ByPayment)
		switch {
		case err == nil:
			return Resolution{OrderID: order.ID}, nil
		case !errors.Is(err, domainErrors.ErrNotFound):
			return Resolution{}, fmt.Errorf("find order by payment reference: %w", err)
		}
	}
	return Resolution{Reason: model.OrphanOrderNotFound}, nil
}

func (r *Resolver) lookup(ctx context.Context, id string) (*model.Order, error) {
	order, err := r.orders.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, domainErrors.ErrNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("find order: %w", err)
	}
	return order, nil
}

// coherent is the gate in front of any paid transition. In strict mode the
// session total must equal the order amount; flex accepts a larger total.
func (r *Resolver) coherent(session *stripe.CheckoutSession, reference string, order *model.Order) bool {
	if !session.IsOneTimePayment() {
		return false
	}
	if reference != order.ID {
		return false
	}
	if !strings.EqualFold(session.Currency, order.Currency) {
		return false
	}
	if session.AmountTotal == nil {
		return false
	}

	total := *session.AmountTotal
	switch r.mode {
	case config.PricingFlex:
		return total >= order.AmountCents && session.IsPaid()
	default:
		return total == order.AmountCents
	}
}

func int64Ptr(v int64) *int64 {
	return &v
}
