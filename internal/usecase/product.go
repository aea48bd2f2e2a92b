package usecase

import (
	"context"
	"strings"

	"github.com/polkiloo/payledger/internal/domain/model"
	"github.com/polkiloo/payledger/internal/domain/repository"
)

// ProductUseCase reads and maintains the checkout catalog.
type ProductUseCase struct {
	products repository.ProductRepository
}

func NewProductUseCase(products repository.ProductRepository) *ProductUseCase {
	return &ProductUseCase{products: products}
}

func (u *ProductUseCase) ListActive(ctx context.Context) ([]model.Product, error) {
	products, err := u.products.ListActive(ctx)
	if err != nil {
		return nil, err
	}
	if products == nil {
		products = []model.Product{}
	}
	return products, nil
}

// Upsert validates in and stores it with a lowercase currency.
func (u *ProductUseCase) Upsert(ctx context.Context, in ProductInput) (*model.Product, error) {
	in.ID = strings.TrimSpace(in.ID)
	in.Name = strings.TrimSpace(in.Name)
	if err := Validate(in); err != nil {
		return nil, err
	}
	product := &model.Product{
		ID:          in.ID,
		Name:        in.Name,
		AmountCents: in.AmountCents,
		Currency:    strings.ToLower(in.Currency),
		Active:      in.Active,
	}
	if err := u.products.Upsert(ctx, product); err != nil {
		return nil, err
	}
	return product, nil
}
