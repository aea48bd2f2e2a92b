package postgres

import (
	"context"
	"errors"
	"strings"

	"github.com/jackc/pgx/v5"

	domainErrors "github.com/polkiloo/payledger/internal/domain/errors"
	"github.com/polkiloo/payledger/internal/domain/model"
)

const productColumns = `id, name, amount_cents, currency, active`

func (r *productRepository) GetByID(ctx context.Context, id string) (*model.Product, error) {
	const query = `SELECT ` + productColumns + ` FROM products WHERE id=$1`
	var p model.Product
	err := r.storage.pool.QueryRow(ctx, query, id).Scan(&p.ID, &p.Name, &p.AmountCents, &p.Currency, &p.Active)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domainErrors.ErrNotFound
		}
		return nil, err
	}
	return &p, nil
}

func (r *productRepository) ListActive(ctx context.Context) ([]model.Product, error) {
	const query = `SELECT ` + productColumns + ` FROM products WHERE active ORDER BY name, id`
	rows, err := r.storage.pool.Query(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []model.Product
	for rows.Next() {
		var p model.Product
		if err := rows.Scan(&p.ID, &p.Name, &p.AmountCents, &p.Currency, &p.Active); err != nil {
			return nil, err
		}
		result = append(result, p)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return result, nil
}

func (r *productRepository) Upsert(ctx context.Context, product *model.Product) error {
	const query = `INSERT INTO products (id, name, amount_cents, currency, active)
                   VALUES ($1, $2, $3, $4, $5)
                   ON CONFLICT (id) DO UPDATE
                   SET name = EXCLUDED.name,
                       amount_cents = EXCLUDED.amount_cents,
                       currency = EXCLUDED.currency,
                       active = EXCLUDED.active,
                       updated_at = NOW()`
	_, err := r.storage.pool.Exec(ctx, query,
		product.ID, product.Name, product.AmountCents, strings.ToLower(product.Currency), product.Active)
	return err
}
