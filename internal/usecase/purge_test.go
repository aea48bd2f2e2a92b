package usecase

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/polkiloo/payledger/internal/clock"
	"github.com/polkiloo/payledger/internal/config"
	domainErrors "github.com/polkiloo/payledger/internal/domain/errors"
	"github.com/polkiloo/payledger/internal/domain/model"
	testhelpers "github.com/polkiloo/payledger/internal/test"
)

var purgeNow = time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)

func seedLedger(t *testing.T, store *testhelpers.MemoryStore) {
	t.Helper()
	store.PutOrder(model.Order{ID: "ord_a", UserID: "usr_a", Status: model.OrderStatusPaid})
	store.PutOrder(model.Order{ID: "ord_b", UserID: "usr_b", Status: model.OrderStatusPaid})

	orderA, orderB := "ord_a", "ord_b"
	entries := []model.PaymentEvent{
		{StripeEventID: "evt_old", OrderID: &orderA, ReceivedAt: purgeNow.AddDate(0, 0, -40)},
		{StripeEventID: "evt_recent", OrderID: &orderA, ReceivedAt: purgeNow.AddDate(0, 0, -5)},
		{StripeEventID: "evt_other", OrderID: &orderB, ReceivedAt: purgeNow.AddDate(0, 0, -40)},
		{StripeEventID: "evt_orphan", Orphaned: true, ReceivedAt: purgeNow.AddDate(0, 0, -1)},
	}
	for i := range entries {
		if _, err := store.PaymentEvents().CreateIfAbsent(context.Background(), &entries[i]); err != nil {
			t.Fatalf("seed: %v", err)
		}
	}
}

func TestPurgeRetain(t *testing.T) {
	store := testhelpers.NewMemoryStore()
	seedLedger(t, store)
	uc := NewPurgeUseCase(store.PaymentEvents(), clock.NewFakeClock(purgeNow), 30, config.RetentionRetain, nil)

	deleted, err := uc.Run(context.Background(), PurgeRequest{})
	if err != nil {
		t.Fatalf("run returned error: %v", err)
	}
	if deleted != 2 {
		t.Fatalf("expected 2 deleted, got %d", deleted)
	}
	if _, ok := store.Event("evt_recent"); !ok {
		t.Fatal("recent event must survive")
	}
}

func TestPurgeErase(t *testing.T) {
	store := testhelpers.NewMemoryStore()
	seedLedger(t, store)
	uc := NewPurgeUseCase(store.PaymentEvents(), clock.NewFakeClock(purgeNow), 30, config.RetentionRetain, nil)

	if _, err := uc.Run(context.Background(), PurgeRequest{Mode: config.RetentionErase, UserID: "usr_a"}); !errors.Is(err, domainErrors.ErrEraseNotConfirmed) {
		t.Fatalf("expected confirmation error, got %v", err)
	}
	if _, err := uc.Run(context.Background(), PurgeRequest{Mode: config.RetentionErase, Confirm: "yes", UserID: "usr_a"}); !errors.Is(err, domainErrors.ErrEraseNotConfirmed) {
		t.Fatalf("confirmation must be exact, got %v", err)
	}
	if _, err := uc.Run(context.Background(), PurgeRequest{Mode: config.RetentionErase, Confirm: PurgeConfirmation}); !errors.Is(err, domainErrors.ErrValidation) {
		t.Fatalf("expected validation error for empty user, got %v", err)
	}
	if store.EventCount() != 4 {
		t.Fatalf("nothing may be deleted before confirmation, have %d", store.EventCount())
	}

	deleted, err := uc.Run(context.Background(), PurgeRequest{Mode: config.RetentionErase, Confirm: PurgeConfirmation, UserID: "usr_a"})
	if err != nil {
		t.Fatalf("erase returned error: %v", err)
	}
	if deleted != 2 {
		t.Fatalf("expected 2 deleted, got %d", deleted)
	}
	if _, ok := store.Event("evt_other"); !ok {
		t.Fatal("other user's event must survive")
	}
	if _, ok := store.Event("evt_orphan"); !ok {
		t.Fatal("orphan without order must survive")
	}
}

func TestPurgeUnknownMode(t *testing.T) {
	uc := NewPurgeUseCase(testhelpers.NewMemoryStore().PaymentEvents(), nil, 30, "", nil)
	if _, err := uc.Run(context.Background(), PurgeRequest{Mode: "shred"}); !errors.Is(err, domainErrors.ErrValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}

	uc = NewPurgeUseCase(testhelpers.NewMemoryStore().PaymentEvents(), nil, 0, "", nil)
	if _, err := uc.Retain(context.Background()); !errors.Is(err, domainErrors.ErrValidation) {
		t.Fatalf("expected validation error for zero retention, got %v", err)
	}
}
