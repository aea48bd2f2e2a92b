package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	domainErrors "github.com/polkiloo/payledger/internal/domain/errors"
	"github.com/polkiloo/payledger/internal/domain/model"
	"github.com/polkiloo/payledger/internal/domain/repository"
)

const paymentEventColumns = `id, stripe_event_id, type, order_id, orphaned, orphan_reason, payload, received_at`

// CreateIfAbsent relies on the unique stripe_event_id index: a conflicting
// insert returns no row and is reported as a duplicate.
func (r *paymentEventRepository) CreateIfAbsent(ctx context.Context, event *model.PaymentEvent) (repository.InsertOutcome, error) {
	const query = `INSERT INTO payment_events (stripe_event_id, type, order_id, orphaned, orphan_reason, payload, received_at)
                   VALUES ($1, $2, $3, $4, $5, $6, $7)
                   ON CONFLICT (stripe_event_id) DO NOTHING
                   RETURNING id`

	payload, err := json.Marshal(event.Payload)
	if err != nil {
		return repository.InsertFailed, fmt.Errorf("encode payload: %w", err)
	}

	receivedAt := event.ReceivedAt
	if receivedAt.IsZero() {
		receivedAt = time.Now().UTC()
	}

	var reason *string
	if event.OrphanReason != nil {
		v := string(*event.OrphanReason)
		reason = &v
	}

	var id int64
	err = r.storage.pool.QueryRow(ctx, query,
		event.StripeEventID, event.Type, event.OrderID, event.Orphaned, reason, payload, receivedAt,
	).Scan(&id)
	switch {
	case err == nil:
		event.ID = id
		event.ReceivedAt = receivedAt
		return repository.InsertCreated, nil
	case errors.Is(err, pgx.ErrNoRows), isUniqueViolation(err):
		return repository.InsertDuplicate, nil
	default:
		return repository.InsertFailed, err
	}
}

func (r *paymentEventRepository) GetByEventID(ctx context.Context, eventID string) (*model.PaymentEvent, error) {
	const query = `SELECT ` + paymentEventColumns + ` FROM payment_events WHERE stripe_event_id=$1`

	var (
		e       model.PaymentEvent
		reason  *string
		payload []byte
	)
	err := r.storage.pool.QueryRow(ctx, query, eventID).Scan(
		&e.ID, &e.StripeEventID, &e.Type, &e.OrderID, &e.Orphaned, &reason, &payload, &e.ReceivedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domainErrors.ErrNotFound
		}
		return nil, err
	}
	if reason != nil {
		v := model.OrphanReason(*reason)
		e.OrphanReason = &v
	}
	if len(payload) > 0 {
		if err := json.Unmarshal(payload, &e.Payload); err != nil {
			return nil, fmt.Errorf("decode payload: %w", err)
		}
	}
	return &e, nil
}

// MarkRepaired links an orphaned entry to its order and applies t in the
// same transaction, so a repaired entry never points at an unmutated order.
func (r *paymentEventRepository) MarkRepaired(ctx context.Context, eventID, orderID string, t *model.Transition) (int64, error) {
	const repair = `UPDATE payment_events
                    SET order_id = $2, orphaned = FALSE, orphan_reason = NULL
                    WHERE stripe_event_id = $1`

	var changed int64
	err := r.storage.WithinTransaction(ctx, func(tx pgx.Tx) error {
		tag, err := tx.Exec(ctx, repair, eventID, orderID)
		if err != nil {
			return err
		}
		if tag.RowsAffected() == 0 {
			return domainErrors.ErrNotFound
		}
		if t == nil {
			return nil
		}
		changed, err = applyTransition(ctx, tx, orderID, *t)
		return err
	})
	if err != nil {
		return 0, err
	}
	return changed, nil
}

func (r *paymentEventRepository) DeleteReceivedBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	tag, err := r.storage.pool.Exec(ctx, `DELETE FROM payment_events WHERE received_at < $1`, cutoff)
	if err != nil {
		return 0, err
	}
	return tag.RowsAffected(), nil
}

func (r *paymentEventRepository) DeleteByUser(ctx context.Context, userID string) (int64, error) {
	const query = `DELETE FROM payment_events
                   WHERE order_id IN (SELECT id FROM orders WHERE user_id = $1)`
	tag, err := r.storage.pool.Exec(ctx, query, userID)
	if err != nil {
		return 0, err
	}
	return tag.RowsAffected(), nil
}
