package usecase

import (
	"context"
	"errors"
	"strings"
	"time"

	domainErrors "github.com/polkiloo/payledger/internal/domain/errors"
	"github.com/polkiloo/payledger/internal/domain/model"
	"github.com/polkiloo/payledger/internal/domain/repository"
)

// OrderUseCase answers order status queries.
type OrderUseCase struct {
	orders repository.OrderRepository
}

// NewOrderUseCase constructs OrderUseCase.
func NewOrderUseCase(orders repository.OrderRepository) *OrderUseCase {
	return &OrderUseCase{orders: orders}
}

// Get returns the order when the caller owns it or is an admin. Any other
// caller gets ErrNotFound so order ids cannot be probed.
func (u *OrderUseCase) Get(ctx context.Context, caller model.Principal, id string) (*model.Order, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return nil, domainErrors.ErrNotFound
	}

	order, err := u.orders.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if !caller.IsAdmin() && !order.OwnedBy(caller.ID) {
		return nil, domainErrors.ErrNotFound
	}
	return order, nil
}

// PendingWithSession returns pending orders with a checkout session created
// before olderThan, oldest first.
func (u *OrderUseCase) PendingWithSession(ctx context.Context, olderThan time.Time, limit int) ([]model.Order, error) {
	orders, err := u.orders.ListPendingWithSession(ctx, olderThan, limit)
	if err != nil && !errors.Is(err, domainErrors.ErrNotFound) {
		return nil, err
	}
	return orders, nil
}
