package repository

import (
	"context"
	"time"

	"github.com/polkiloo/payledger/internal/domain/model"
)

// InsertOutcome tags the result of a ledger insert.
type InsertOutcome int

const (
	InsertFailed InsertOutcome = iota
	InsertCreated
	InsertDuplicate
)

func (o InsertOutcome) String() string {
	switch o {
	case InsertCreated:
		return "created"
	case InsertDuplicate:
		return "duplicate"
	default:
		return "failed"
	}
}

// PaymentEventRepository stores the webhook ledger.
type PaymentEventRepository interface {
	// CreateIfAbsent inserts the event unless its provider id is already
	// recorded. A non-nil error always comes with InsertFailed.
	CreateIfAbsent(ctx context.Context, event *model.PaymentEvent) (InsertOutcome, error)
	GetByEventID(ctx context.Context, eventID string) (*model.PaymentEvent, error)
	// MarkRepaired ties an orphaned entry to orderID and applies t to the
	// order in one transaction. It returns the number of orders changed.
	MarkRepaired(ctx context.Context, eventID, orderID string, t *model.Transition) (int64, error)
	DeleteReceivedBefore(ctx context.Context, cutoff time.Time) (int64, error)
	DeleteByUser(ctx context.Context, userID string) (int64, error)
}
