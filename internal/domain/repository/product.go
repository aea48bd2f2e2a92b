package repository

import (
	"context"

	"github.com/polkiloo/payledger/internal/domain/model"
)

// ProductRepository reads the checkout catalog.
type ProductRepository interface {
	GetByID(ctx context.Context, id string) (*model.Product, error)
	ListActive(ctx context.Context) ([]model.Product, error)
	Upsert(ctx context.Context, product *model.Product) error
}
