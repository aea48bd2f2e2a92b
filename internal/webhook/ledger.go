package webhook

import (
	"context"
	"fmt"

	"github.com/polkiloo/payledger/internal/adapter/stripe"
	"github.com/polkiloo/payledger/internal/clock"
	"github.com/polkiloo/payledger/internal/domain/model"
	"github.com/polkiloo/payledger/internal/domain/repository"
)

// Ledger writes one durable entry per provider event before any mutation.
type Ledger struct {
	events  repository.PaymentEventRepository
	clock   clock.Clock
	metrics Recorder
}

func NewLedger(events repository.PaymentEventRepository, clk clock.Clock, metrics Recorder) *Ledger {
	if clk == nil {
		clk = clock.System{}
	}
	if metrics == nil {
		metrics = NopRecorder{}
	}
	return &Ledger{events: events, clock: clk, metrics: metrics}
}

// Record inserts the entry for event. Uniqueness of the provider event id is
// the only arbiter between concurrent deliveries.
func (l *Ledger) Record(ctx context.Context, event *stripe.Event, intent *Intent, res Resolution) (repository.InsertOutcome, error) {
	entry := &model.PaymentEvent{
		StripeEventID: event.ID,
		Type:          event.Type,
		Orphaned:      res.Orphaned(),
		Payload:       intent.Snapshot,
		ReceivedAt:    l.clock.Now(),
	}
	if res.OrderID != "" {
		orderID := res.OrderID
		entry.OrderID = &orderID
	}
	if res.Orphaned() {
		reason := res.Reason
		entry.OrphanReason = &reason
	}

	outcome, err := l.events.CreateIfAbsent(ctx, entry)
	if err != nil {
		return repository.InsertFailed, fmt.Errorf("persist payment event: %w", err)
	}
	return outcome, nil
}

// Existing loads the entry that won the insert for event.
func (l *Ledger) Existing(ctx context.Context, eventID string) (*model.PaymentEvent, error) {
	existing, err := l.events.GetByEventID(ctx, eventID)
	if err != nil {
		return nil, fmt.Errorf("load payment event: %w", err)
	}
	return existing, nil
}

// Repair ties an orphaned entry to orderID and applies t in one transaction.
func (l *Ledger) Repair(ctx context.Context, eventID, orderID string, t *model.Transition) (bool, error) {
	changed, err := l.events.MarkRepaired(ctx, eventID, orderID, t)
	if err != nil {
		return false, fmt.Errorf("repair payment event: %w", err)
	}
	if t != nil {
		l.metrics.Transition(t.To, changed > 0)
	}
	return changed > 0, nil
}
