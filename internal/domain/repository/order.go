package repository

import (
	"context"
	"time"

	"github.com/polkiloo/payledger/internal/domain/model"
)

// OrderRepository describes persistence operations with orders.
type OrderRepository interface {
	CreatePending(ctx context.Context, order *model.Order) (*model.Order, error)
	GetByID(ctx context.Context, id string) (*model.Order, error)
	GetByPaymentReference(ctx context.Context, reference string) (*model.Order, error)
	AttachSession(ctx context.Context, id, sessionID string) error
	// Transition applies t only when the current status satisfies its guard.
	// It returns the number of rows changed (0 or 1).
	Transition(ctx context.Context, id string, t model.Transition) (int64, error)
	ListPendingWithSession(ctx context.Context, olderThan time.Time, limit int) ([]model.Order, error)
}
