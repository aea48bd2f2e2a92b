package postgres

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	pgxmockv3 "github.com/pashagolub/pgxmock/v3"

	domainErrors "github.com/polkiloo/payledger/internal/domain/errors"
	"github.com/polkiloo/payledger/internal/domain/model"
	"github.com/polkiloo/payledger/internal/domain/repository"
)

func TestPaymentEventCreateIfAbsent(t *testing.T) {
	storage, mock := newMockStorage(t)
	defer mock.Close()
	repo := &paymentEventRepository{storage: storage}
	ctx := context.Background()

	receivedAt := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	reason := model.OrphanOrderNotFound
	event := &model.PaymentEvent{
		StripeEventID: "evt_1",
		Type:          "checkout.session.completed",
		Orphaned:      true,
		OrphanReason:  &reason,
		Payload:       model.Snapshot{StripeEventID: "evt_1", Type: "checkout.session.completed"},
		ReceivedAt:    receivedAt,
	}

	mock.ExpectQuery("INSERT INTO payment_events").
		WithArgs("evt_1", "checkout.session.completed", pgxmockv3.AnyArg(), true, ptr("order_not_found"), pgxmockv3.AnyArg(), receivedAt).
		WillReturnRows(pgxmockv3.NewRows([]string{"id"}).AddRow(int64(7)))
	outcome, err := repo.CreateIfAbsent(ctx, event)
	if err != nil || outcome != repository.InsertCreated || event.ID != 7 {
		t.Fatalf("expected created, got %v id=%d err=%v", outcome, event.ID, err)
	}

	mock.ExpectQuery("INSERT INTO payment_events").WillReturnError(pgx.ErrNoRows)
	outcome, err = repo.CreateIfAbsent(ctx, event)
	if err != nil || outcome != repository.InsertDuplicate {
		t.Fatalf("expected duplicate on conflict, got %v err=%v", outcome, err)
	}

	mock.ExpectQuery("INSERT INTO payment_events").WillReturnError(&pgconn.PgError{Code: "23505"})
	outcome, err = repo.CreateIfAbsent(ctx, event)
	if err != nil || outcome != repository.InsertDuplicate {
		t.Fatalf("expected duplicate on unique violation, got %v err=%v", outcome, err)
	}

	mock.ExpectQuery("INSERT INTO payment_events").WillReturnError(errors.New("connection reset"))
	outcome, err = repo.CreateIfAbsent(ctx, event)
	if err == nil || outcome != repository.InsertFailed {
		t.Fatalf("expected failed outcome, got %v err=%v", outcome, err)
	}

	fresh := &model.PaymentEvent{StripeEventID: "evt_2", Type: "charge.refunded", OrderID: ptr("ord_1")}
	mock.ExpectQuery("INSERT INTO payment_events").
		WithArgs("evt_2", "charge.refunded", ptr("ord_1"), false, pgxmockv3.AnyArg(), pgxmockv3.AnyArg(), pgxmockv3.AnyArg()).
		WillReturnRows(pgxmockv3.NewRows([]string{"id"}).AddRow(int64(8)))
	if _, err := repo.CreateIfAbsent(ctx, fresh); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if fresh.ReceivedAt.IsZero() {
		t.Fatal("expected received_at to default to now")
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("expectations not met: %v", err)
	}
}

func TestPaymentEventGetByEventID(t *testing.T) {
	storage, mock := newMockStorage(t)
	defer mock.Close()
	repo := &paymentEventRepository{storage: storage}
	ctx := context.Background()

	cols := []string{"id", "stripe_event_id", "type", "order_id", "orphaned", "orphan_reason", "payload", "received_at"}
	now := time.Now()
	payload := []byte(`{"stripeEventId":"evt_1","type":"checkout.session.completed","amount_total":1500,"currency":"usd"}`)

	mock.ExpectQuery("FROM payment_events WHERE stripe_event_id=").WithArgs("evt_1").WillReturnRows(
		pgxmockv3.NewRows(cols).AddRow(int64(1), "evt_1", "checkout.session.completed", nil, true, ptr("payment_not_paid"), payload, now))
	event, err := repo.GetByEventID(ctx, "evt_1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !event.Orphaned || event.OrphanReason == nil || *event.OrphanReason != model.OrphanPaymentNotPaid {
		t.Fatalf("unexpected orphan state: %+v", event)
	}
	if event.Payload.AmountTotal == nil || *event.Payload.AmountTotal != 1500 {
		t.Fatalf("unexpected payload: %+v", event.Payload)
	}

	mock.ExpectQuery("FROM payment_events WHERE stripe_event_id=").WithArgs("evt_x").WillReturnError(pgx.ErrNoRows)
	if _, err := repo.GetByEventID(ctx, "evt_x"); !errors.Is(err, domainErrors.ErrNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}

	mock.ExpectQuery("FROM payment_events WHERE stripe_event_id=").WithArgs("evt_bad").WillReturnRows(
		pgxmockv3.NewRows(cols).AddRow(int64(2), "evt_bad", "x", nil, false, nil, []byte("{"), now))
	if _, err := repo.GetByEventID(ctx, "evt_bad"); err == nil {
		t.Fatal("expected decode error")
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("expectations not met: %v", err)
	}
}

func TestPaymentEventMarkRepaired(t *testing.T) {
	storage, mock := newMockStorage(t)
	defer mock.Close()
	repo := &paymentEventRepository{storage: storage}
	ctx := context.Background()

	paid := model.MarkPaid("cs_1", "pi_1", time.Now())

	t.Run("repairs and transitions atomically", func(t *testing.T) {
		mock.ExpectBegin()
		mock.ExpectExec("UPDATE payment_events").WithArgs("evt_1", "ord_1").WillReturnResult(pgxmockv3.NewResult("UPDATE", 1))
		mock.ExpectExec("UPDATE orders").
			WithArgs("ord_1", "paid", "cs_1", "pi_1", paid.PaidAt, []string{"pending"}).
			WillReturnResult(pgxmockv3.NewResult("UPDATE", 1))
		mock.ExpectCommit()

		changed, err := repo.MarkRepaired(ctx, "evt_1", "ord_1", &paid)
		if err != nil || changed != 1 {
			t.Fatalf("expected one order changed, got %d err=%v", changed, err)
		}
	})

	t.Run("without transition", func(t *testing.T) {
		mock.ExpectBegin()
		mock.ExpectExec("UPDATE payment_events").WithArgs("evt_2", "ord_2").WillReturnResult(pgxmockv3.NewResult("UPDATE", 1))
		mock.ExpectCommit()

		changed, err := repo.MarkRepaired(ctx, "evt_2", "ord_2", nil)
		if err != nil || changed != 0 {
			t.Fatalf("expected no order change, got %d err=%v", changed, err)
		}
	})

	t.Run("missing entry rolls back", func(t *testing.T) {
		mock.ExpectBegin()
		mock.ExpectExec("UPDATE payment_events").WithArgs("evt_3", "ord_3").WillReturnResult(pgxmockv3.NewResult("UPDATE", 0))
		mock.ExpectRollback()

		if _, err := repo.MarkRepaired(ctx, "evt_3", "ord_3", &paid); !errors.Is(err, domainErrors.ErrNotFound) {
			t.Fatalf("expected not found, got %v", err)
		}
	})

	t.Run("order update failure rolls back", func(t *testing.T) {
		mock.ExpectBegin()
		mock.ExpectExec("UPDATE payment_events").WithArgs("evt_4", "ord_4").WillReturnResult(pgxmockv3.NewResult("UPDATE", 1))
		mock.ExpectExec("UPDATE orders").WillReturnError(errors.New("deadlock"))
		mock.ExpectRollback()

		if _, err := repo.MarkRepaired(ctx, "evt_4", "ord_4", &paid); err == nil {
			t.Fatal("expected error")
		}
	})

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("expectations not met: %v", err)
	}
}

func TestPaymentEventPurge(t *testing.T) {
	storage, mock := newMockStorage(t)
	defer mock.Close()
	repo := &paymentEventRepository{storage: storage}
	ctx := context.Background()

	cutoff := time.Now().Add(-30 * 24 * time.Hour)
	mock.ExpectExec("DELETE FROM payment_events WHERE received_at").WithArgs(cutoff).WillReturnResult(pgxmockv3.NewResult("DELETE", 12))
	deleted, err := repo.DeleteReceivedBefore(ctx, cutoff)
	if err != nil || deleted != 12 {
		t.Fatalf("expected 12 deleted, got %d err=%v", deleted, err)
	}

	mock.ExpectExec("DELETE FROM payment_events WHERE received_at").WillReturnError(errors.New("exec"))
	if _, err := repo.DeleteReceivedBefore(ctx, cutoff); err == nil {
		t.Fatal("expected error")
	}

	mock.ExpectExec("DELETE FROM payment_events").WithArgs("usr_1").WillReturnResult(pgxmockv3.NewResult("DELETE", 3))
	deleted, err = repo.DeleteByUser(ctx, "usr_1")
	if err != nil || deleted != 3 {
		t.Fatalf("expected 3 deleted, got %d err=%v", deleted, err)
	}

	mock.ExpectExec("DELETE FROM payment_events").WithArgs("usr_2").WillReturnError(errors.New("exec"))
	if _, err := repo.DeleteByUser(ctx, "usr_2"); err == nil {
		t.Fatal("expected error")
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("expectations not met: %v", err)
	}
}
