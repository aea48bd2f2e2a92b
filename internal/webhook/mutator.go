package webhook

import (
	"context"
	"fmt"

	"github.com/polkiloo/payledger/internal/domain/model"
)

// OrderTransitioner is the write side of the order repository.
type OrderTransitioner interface {
	Transition(ctx context.Context, id string, t model.Transition) (int64, error)
}

// Mutator applies guarded order transitions. A transition whose guard does
// not match the current status changes nothing and is not an error.
type Mutator struct {
	orders  OrderTransitioner
	metrics Recorder
}

func NewMutator(orders OrderTransitioner, metrics Recorder) *Mutator {
	if metrics == nil {
		metrics = NopRecorder{}
	}
	return &Mutator{orders: orders, metrics: metrics}
}

// Apply runs t against orderID and reports whether the status changed.
// A nil transition is a no-op.
func (m *Mutator) Apply(ctx context.Context, orderID string, t *model.Transition) (bool, error) {
	if t == nil || orderID == "" {
		return false, nil
	}
	changed, err := m.orders.Transition(ctx, orderID, *t)
	if err != nil {
		return false, fmt.Errorf("transition order to %s: %w", t.To, err)
	}
	m.metrics.Transition(t.To, changed > 0)
	return changed > 0, nil
}
