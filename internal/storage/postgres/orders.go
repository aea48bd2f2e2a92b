package postgres

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	domainErrors "github.com/polkiloo/payledger/internal/domain/errors"
	"github.com/polkiloo/payledger/internal/domain/model"
)

const orderColumns = `id, user_id, product_id, amount_cents, currency, status,
                      stripe_session_id, stripe_payment_intent_id, paid_at, created_at, updated_at`

// transitionQuery applies a status change only while the current status is
// listed in the guard. Empty references leave stored values untouched.
const transitionQuery = `UPDATE orders
                         SET status = $2,
                             stripe_session_id = COALESCE(NULLIF($3, ''), stripe_session_id),
                             stripe_payment_intent_id = COALESCE(NULLIF($4, ''), stripe_payment_intent_id),
                             paid_at = COALESCE($5, paid_at),
                             updated_at = NOW()
                         WHERE id = $1 AND status = ANY($6)`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanOrder(row rowScanner) (*model.Order, error) {
	var (
		o      model.Order
		status string
	)
	if err := row.Scan(&o.ID, &o.UserID, &o.ProductID, &o.AmountCents, &o.Currency, &status,
		&o.ExternalSessionID, &o.PaymentReference, &o.PaidAt, &o.CreatedAt, &o.UpdatedAt); err != nil {
		return nil, err
	}
	o.Status = model.OrderStatus(status)
	return &o, nil
}

func (r *orderRepository) CreatePending(ctx context.Context, order *model.Order) (*model.Order, error) {
	const query = `INSERT INTO orders (id, user_id, product_id, amount_cents, currency, status)
                   VALUES ($1, $2, $3, $4, $5, $6)
                   RETURNING created_at, updated_at`

	o := *order
	if o.ID == "" {
		o.ID = model.NewOrderID()
	}
	o.Currency = strings.ToLower(o.Currency)
	o.Status = model.OrderStatusPending

	err := r.storage.pool.QueryRow(ctx, query,
		o.ID, o.UserID, o.ProductID, o.AmountCents, o.Currency, string(o.Status),
	).Scan(&o.CreatedAt, &o.UpdatedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return nil, domainErrors.ErrAlreadyExists
		}
		return nil, err
	}
	return &o, nil
}

func (r *orderRepository) GetByID(ctx context.Context, id string) (*model.Order, error) {
	return r.getOne(ctx, `SELECT `+orderColumns+` FROM orders WHERE id=$1`, id)
}

func (r *orderRepository) GetByPaymentReference(ctx context.Context, reference string) (*model.Order, error) {
	return r.getOne(ctx, `SELECT `+orderColumns+` FROM orders WHERE stripe_payment_intent_id=$1`, reference)
}

func (r *orderRepository) getOne(ctx context.Context, query, arg string) (*model.Order, error) {
	order, err := scanOrder(r.storage.pool.QueryRow(ctx, query, arg))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domainErrors.ErrNotFound
		}
		return nil, err
	}
	return order, nil
}

// AttachSession records the provider checkout session on a pending order.
func (r *orderRepository) AttachSession(ctx context.Context, id, sessionID string) error {
	const query = `UPDATE orders SET stripe_session_id=$2, updated_at=NOW() WHERE id=$1 AND status='pending'`
	tag, err := r.storage.pool.Exec(ctx, query, id, sessionID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return domainErrors.ErrNotFound
	}
	return nil
}

func (r *orderRepository) Transition(ctx context.Context, id string, t model.Transition) (int64, error) {
	return applyTransition(ctx, r.storage.pool, id, t)
}

type execer interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
}

func applyTransition(ctx context.Context, db execer, id string, t model.Transition) (int64, error) {
	tag, err := db.Exec(ctx, transitionQuery,
		id, string(t.To), t.SessionID, t.PaymentReference, t.PaidAt, t.FromStrings())
	if err != nil {
		return 0, err
	}
	return tag.RowsAffected(), nil
}

func (r *orderRepository) ListPendingWithSession(ctx context.Context, olderThan time.Time, limit int) ([]model.Order, error) {
	const query = `SELECT ` + orderColumns + `
                   FROM orders
                   WHERE status = 'pending' AND stripe_session_id IS NOT NULL AND created_at < $1
                   ORDER BY created_at
                   LIMIT $2`
	rows, err := r.storage.pool.Query(ctx, query, olderThan, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []model.Order
	for rows.Next() {
		o, err := scanOrder(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, *o)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return result, nil
}
