package usecase

import (
	"context"
	"errors"
	"testing"

	domainErrors "github.com/polkiloo/payledger/internal/domain/errors"
	"github.com/polkiloo/payledger/internal/domain/model"
	testhelpers "github.com/polkiloo/payledger/internal/test"
)

func TestProductUseCaseListActive(t *testing.T) {
	store := testhelpers.NewMemoryStore()
	uc := NewProductUseCase(store.Products())

	products, err := uc.ListActive(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if products == nil || len(products) != 0 {
		t.Fatalf("expected empty non-nil slice, got %#v", products)
	}

	store.PutProduct(model.Product{ID: "p1", Name: "Book", AmountCents: 1000, Currency: "usd", Active: true})
	store.PutProduct(model.Product{ID: "p2", Name: "Retired", AmountCents: 1000, Currency: "usd"})

	products, err = uc.ListActive(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(products) != 1 || products[0].ID != "p1" {
		t.Fatalf("expected only active product, got %+v", products)
	}
}

func TestProductUseCaseUpsert(t *testing.T) {
	store := testhelpers.NewMemoryStore()
	uc := NewProductUseCase(store.Products())

	product, err := uc.Upsert(context.Background(), ProductInput{ID: " p1 ", Name: "Book", AmountCents: 1500, Currency: "EUR", Active: true})
	if err != nil {
		t.Fatalf("upsert returned error: %v", err)
	}
	if product.ID != "p1" || product.Currency != "eur" {
		t.Fatalf("unexpected product %+v", product)
	}

	stored, err := store.Products().GetByID(context.Background(), "p1")
	if err != nil {
		t.Fatalf("expected stored product: %v", err)
	}
	if stored.AmountCents != 1500 || !stored.Active {
		t.Fatalf("unexpected stored product %+v", stored)
	}

	if _, err := uc.Upsert(context.Background(), ProductInput{ID: "p2", Name: "Bad", AmountCents: -1, Currency: "usd"}); !errors.Is(err, domainErrors.ErrValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
}
