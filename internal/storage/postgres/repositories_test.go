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
)

var orderColumnNames = []string{
	"id", "user_id", "product_id", "amount_cents", "currency", "status",
	"stripe_session_id", "stripe_payment_intent_id", "paid_at", "created_at", "updated_at",
}

func TestUserRepository(t *testing.T) {
	storage, mock := newMockStorage(t)
	defer mock.Close()
	repo := &userRepository{storage: storage}
	ctx := context.Background()

	createdAt := time.Now()
	mock.ExpectQuery("INSERT INTO users").WithArgs("usr_1", "user", "hash", "user").WillReturnRows(
		pgxmockv3.NewRows([]string{"created_at"}).AddRow(createdAt),
	)
	user, err := repo.Create(ctx, &model.User{ID: "usr_1", Login: "user", PasswordHash: "hash"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if user.ID != "usr_1" || user.Role != model.RoleUser || !user.CreatedAt.Equal(createdAt) {
		t.Fatalf("unexpected user: %+v", user)
	}

	mock.ExpectQuery("INSERT INTO users").WithArgs(pgxmockv3.AnyArg(), "new", "hash", "admin").WillReturnRows(
		pgxmockv3.NewRows([]string{"created_at"}).AddRow(createdAt),
	)
	user, err = repo.Create(ctx, &model.User{Login: "new", PasswordHash: "hash", Role: model.RoleAdmin})
	if err != nil || user.ID == "" {
		t.Fatalf("expected generated id, got %+v err=%v", user, err)
	}

	mock.ExpectQuery("INSERT INTO users").WithArgs("usr_1", "user", "hash", "user").WillReturnError(&pgconn.PgError{Code: "23505"})
	if _, err := repo.Create(ctx, &model.User{ID: "usr_1", Login: "user", PasswordHash: "hash"}); !errors.Is(err, domainErrors.ErrAlreadyExists) {
		t.Fatalf("expected already exists error, got %v", err)
	}

	mock.ExpectQuery("INSERT INTO users").WillReturnError(errors.New("other"))
	if _, err := repo.Create(ctx, &model.User{ID: "usr_1", Login: "user", PasswordHash: "hash"}); err == nil {
		t.Fatal("expected error")
	}

	cols := []string{"id", "login", "password_hash", "role", "created_at"}
	mock.ExpectQuery("FROM users WHERE login=").WithArgs("user").WillReturnRows(
		pgxmockv3.NewRows(cols).AddRow("usr_1", "user", "hash", "admin", createdAt))
	user, err = repo.GetByLogin(ctx, "user")
	if err != nil || user.Role != model.RoleAdmin {
		t.Fatalf("unexpected result: %+v err=%v", user, err)
	}

	mock.ExpectQuery("FROM users WHERE login=").WithArgs("missing").WillReturnError(pgx.ErrNoRows)
	if _, err := repo.GetByLogin(ctx, "missing"); !errors.Is(err, domainErrors.ErrNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}

	mock.ExpectQuery("FROM users WHERE id=").WithArgs("usr_1").WillReturnRows(
		pgxmockv3.NewRows(cols).AddRow("usr_1", "user", "hash", "user", createdAt))
	if _, err := repo.GetByID(ctx, "usr_1"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	mock.ExpectQuery("FROM users WHERE id=").WithArgs("usr_3").WillReturnError(errors.New("boom"))
	if _, err := repo.GetByID(ctx, "usr_3"); err == nil || errors.Is(err, domainErrors.ErrNotFound) {
		t.Fatalf("expected raw error, got %v", err)
	}

	mock.ExpectExec("UPDATE users SET role").WithArgs("user", "admin").WillReturnResult(pgxmockv3.NewResult("UPDATE", 1))
	if err := repo.SetRole(ctx, "user", model.RoleAdmin); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	mock.ExpectExec("UPDATE users SET role").WithArgs("ghost", "admin").WillReturnResult(pgxmockv3.NewResult("UPDATE", 0))
	if err := repo.SetRole(ctx, "ghost", model.RoleAdmin); !errors.Is(err, domainErrors.ErrNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}

	mock.ExpectExec("UPDATE users SET role").WillReturnError(errors.New("down"))
	if err := repo.SetRole(ctx, "user", model.RoleUser); err == nil {
		t.Fatal("expected error")
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("expectations not met: %v", err)
	}
}

func TestProductRepository(t *testing.T) {
	storage, mock := newMockStorage(t)
	defer mock.Close()
	repo := &productRepository{storage: storage}
	ctx := context.Background()

	cols := []string{"id", "name", "amount_cents", "currency", "active"}
	mock.ExpectQuery("FROM products WHERE id=").WithArgs("prod_1").WillReturnRows(
		pgxmockv3.NewRows(cols).AddRow("prod_1", "Course", int64(1500), "usd", true))
	product, err := repo.GetByID(ctx, "prod_1")
	if err != nil || product.AmountCents != 1500 || !product.Active {
		t.Fatalf("unexpected product: %+v err=%v", product, err)
	}

	mock.ExpectQuery("FROM products WHERE id=").WithArgs("nope").WillReturnError(pgx.ErrNoRows)
	if _, err := repo.GetByID(ctx, "nope"); !errors.Is(err, domainErrors.ErrNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}

	mock.ExpectQuery("FROM products WHERE active").WillReturnRows(
		pgxmockv3.NewRows(cols).
			AddRow("prod_1", "Course", int64(1500), "usd", true).
			AddRow("prod_2", "Ebook", int64(900), "eur", true))
	products, err := repo.ListActive(ctx)
	if err != nil || len(products) != 2 {
		t.Fatalf("unexpected products: %v err=%v", products, err)
	}

	mock.ExpectQuery("FROM products WHERE active").WillReturnError(errors.New("query"))
	if _, err := repo.ListActive(ctx); err == nil {
		t.Fatal("expected error")
	}

	mock.ExpectQuery("FROM products WHERE active").WillReturnRows(
		pgxmockv3.NewRows(cols).AddRow("prod_1", "Course", int64(1500), "usd", true).RowError(0, errors.New("row err")))
	if _, err := repo.ListActive(ctx); err == nil {
		t.Fatal("expected row error")
	}

	mock.ExpectExec("INSERT INTO products").WithArgs("prod_3", "Talk", int64(2000), "gbp", false).
		WillReturnResult(pgxmockv3.NewResult("INSERT", 1))
	if err := repo.Upsert(ctx, &model.Product{ID: "prod_3", Name: "Talk", AmountCents: 2000, Currency: "GBP"}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("expectations not met: %v", err)
	}
}

func TestOrderRepositoryCreatePending(t *testing.T) {
	storage, mock := newMockStorage(t)
	defer mock.Close()
	repo := &orderRepository{storage: storage}
	ctx := context.Background()

	now := time.Now()
	mock.ExpectQuery("INSERT INTO orders").
		WithArgs("ord_1", "usr_1", pgxmockv3.AnyArg(), int64(1500), "usd", "pending").
		WillReturnRows(pgxmockv3.NewRows([]string{"created_at", "updated_at"}).AddRow(now, now))
	order, err := repo.CreatePending(ctx, &model.Order{
		ID: "ord_1", UserID: "usr_1", ProductID: ptr("prod_1"), AmountCents: 1500, Currency: "USD", Status: model.OrderStatusPaid,
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if order.Status != model.OrderStatusPending || order.Currency != "usd" {
		t.Fatalf("expected pending lowercase order, got %+v", order)
	}

	mock.ExpectQuery("INSERT INTO orders").WillReturnError(&pgconn.PgError{Code: "23505"})
	if _, err := repo.CreatePending(ctx, &model.Order{UserID: "usr_1", AmountCents: 1, Currency: "usd"}); !errors.Is(err, domainErrors.ErrAlreadyExists) {
		t.Fatalf("expected already exists, got %v", err)
	}

	mock.ExpectQuery("INSERT INTO orders").WillReturnError(errors.New("insert"))
	if _, err := repo.CreatePending(ctx, &model.Order{UserID: "usr_1", AmountCents: 1, Currency: "usd"}); err == nil {
		t.Fatal("expected error")
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("expectations not met: %v", err)
	}
}

func TestOrderRepositoryGet(t *testing.T) {
	storage, mock := newMockStorage(t)
	defer mock.Close()
	repo := &orderRepository{storage: storage}
	ctx := context.Background()

	now := time.Now()
	mock.ExpectQuery("FROM orders WHERE id=").WithArgs("ord_1").WillReturnRows(
		pgxmockv3.NewRows(orderColumnNames).AddRow(
			"ord_1", "usr_1", ptr("prod_1"), int64(1500), "usd", "paid",
			ptr("cs_1"), ptr("pi_1"), &now, now, now))
	order, err := repo.GetByID(ctx, "ord_1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if order.Status != model.OrderStatusPaid || order.PaymentReference == nil || *order.PaymentReference != "pi_1" {
		t.Fatalf("unexpected order: %+v", order)
	}

	mock.ExpectQuery("FROM orders WHERE id=").WithArgs("missing").WillReturnError(pgx.ErrNoRows)
	if _, err := repo.GetByID(ctx, "missing"); !errors.Is(err, domainErrors.ErrNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}

	mock.ExpectQuery("FROM orders WHERE stripe_payment_intent_id=").WithArgs("pi_1").WillReturnRows(
		pgxmockv3.NewRows(orderColumnNames).AddRow(
			"ord_1", "usr_1", nil, int64(1500), "usd", "paid",
			ptr("cs_1"), ptr("pi_1"), &now, now, now))
	order, err = repo.GetByPaymentReference(ctx, "pi_1")
	if err != nil || order.ID != "ord_1" || order.ProductID != nil {
		t.Fatalf("unexpected order: %+v err=%v", order, err)
	}

	mock.ExpectQuery("FROM orders WHERE stripe_payment_intent_id=").WithArgs("pi_x").WillReturnError(errors.New("fail"))
	if _, err := repo.GetByPaymentReference(ctx, "pi_x"); err == nil {
		t.Fatal("expected error")
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("expectations not met: %v", err)
	}
}

func TestOrderRepositoryAttachSession(t *testing.T) {
	storage, mock := newMockStorage(t)
	defer mock.Close()
	repo := &orderRepository{storage: storage}
	ctx := context.Background()

	mock.ExpectExec("UPDATE orders SET stripe_session_id").WithArgs("ord_1", "cs_1").WillReturnResult(pgxmockv3.NewResult("UPDATE", 1))
	if err := repo.AttachSession(ctx, "ord_1", "cs_1"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	mock.ExpectExec("UPDATE orders SET stripe_session_id").WithArgs("ord_2", "cs_2").WillReturnResult(pgxmockv3.NewResult("UPDATE", 0))
	if err := repo.AttachSession(ctx, "ord_2", "cs_2"); !errors.Is(err, domainErrors.ErrNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}

	mock.ExpectExec("UPDATE orders SET stripe_session_id").WillReturnError(errors.New("exec"))
	if err := repo.AttachSession(ctx, "ord_3", "cs_3"); err == nil {
		t.Fatal("expected error")
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("expectations not met: %v", err)
	}
}

func TestOrderRepositoryTransition(t *testing.T) {
	storage, mock := newMockStorage(t)
	defer mock.Close()
	repo := &orderRepository{storage: storage}
	ctx := context.Background()

	paidAt := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
	paid := model.MarkPaid("cs_1", "pi_1", paidAt)

	mock.ExpectExec("UPDATE orders").
		WithArgs("ord_1", "paid", "cs_1", "pi_1", paid.PaidAt, []string{"pending"}).
		WillReturnResult(pgxmockv3.NewResult("UPDATE", 1))
	changed, err := repo.Transition(ctx, "ord_1", paid)
	if err != nil || changed != 1 {
		t.Fatalf("expected one row changed, got %d err=%v", changed, err)
	}

	mock.ExpectExec("UPDATE orders").
		WithArgs("ord_1", "paid", "cs_1", "pi_1", paid.PaidAt, []string{"pending"}).
		WillReturnResult(pgxmockv3.NewResult("UPDATE", 0))
	changed, err = repo.Transition(ctx, "ord_1", paid)
	if err != nil || changed != 0 {
		t.Fatalf("expected guarded no-op, got %d err=%v", changed, err)
	}

	mock.ExpectExec("UPDATE orders").
		WithArgs("ord_1", "refunded", "", "", pgxmockv3.AnyArg(), []string{"paid"}).
		WillReturnError(errors.New("exec"))
	if _, err := repo.Transition(ctx, "ord_1", model.MarkRefunded()); err == nil {
		t.Fatal("expected error")
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("expectations not met: %v", err)
	}
}

func TestOrderRepositoryListPendingWithSession(t *testing.T) {
	storage, mock := newMockStorage(t)
	defer mock.Close()
	repo := &orderRepository{storage: storage}
	ctx := context.Background()

	now := time.Now()
	cutoff := now.Add(-time.Hour)

	mock.ExpectQuery("FROM orders").WithArgs(cutoff, 10).WillReturnRows(
		pgxmockv3.NewRows(orderColumnNames).
			AddRow("ord_1", "usr_1", nil, int64(100), "usd", "pending", ptr("cs_1"), nil, nil, now, now).
			AddRow("ord_2", "usr_2", nil, int64(200), "usd", "pending", ptr("cs_2"), nil, nil, now, now))
	orders, err := repo.ListPendingWithSession(ctx, cutoff, 10)
	if err != nil || len(orders) != 2 || *orders[1].ExternalSessionID != "cs_2" {
		t.Fatalf("unexpected orders: %v err=%v", orders, err)
	}

	mock.ExpectQuery("FROM orders").WithArgs(cutoff, 10).WillReturnError(errors.New("query"))
	if _, err := repo.ListPendingWithSession(ctx, cutoff, 10); err == nil {
		t.Fatal("expected error")
	}

	mock.ExpectQuery("FROM orders").WithArgs(cutoff, 10).WillReturnRows(
		pgxmockv3.NewRows(orderColumnNames).
			AddRow("ord_1", "usr_1", nil, int64(100), "usd", "pending", ptr("cs_1"), nil, nil, now, now).
			RowError(0, errors.New("row err")))
	if _, err := repo.ListPendingWithSession(ctx, cutoff, 10); err == nil {
		t.Fatal("expected row error")
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("expectations not met: %v", err)
	}
}

func TestOrderRepositoryListRowsError(t *testing.T) {
	storage := &Storage{pool: &rowsErrorPool{rows: &errorRows{err: errors.New("rows err")}}}
	repo := &orderRepository{storage: storage}

	if _, err := repo.ListPendingWithSession(context.Background(), time.Now(), 1); err == nil || err.Error() != "rows err" {
		t.Fatalf("expected rows err, got %v", err)
	}
}
