package postgres

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"

	domainErrors "github.com/polkiloo/payledger/internal/domain/errors"
	"github.com/polkiloo/payledger/internal/domain/model"
)

const userColumns = `id, login, password_hash, role, created_at`

func (r *userRepository) Create(ctx context.Context, user *model.User) (*model.User, error) {
	const query = `INSERT INTO users (id, login, password_hash, role) VALUES ($1, $2, $3, $4) RETURNING created_at`

	u := *user
	if u.ID == "" {
		u.ID = model.NewUserID()
	}
	if u.Role == "" {
		u.Role = model.RoleUser
	}

	err := r.storage.pool.QueryRow(ctx, query, u.ID, u.Login, u.PasswordHash, string(u.Role)).Scan(&u.CreatedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return nil, domainErrors.ErrAlreadyExists
		}
		return nil, err
	}
	return &u, nil
}

func (r *userRepository) GetByLogin(ctx context.Context, login string) (*model.User, error) {
	return r.getOne(ctx, `SELECT `+userColumns+` FROM users WHERE login=$1`, login)
}

func (r *userRepository) GetByID(ctx context.Context, id string) (*model.User, error) {
	return r.getOne(ctx, `SELECT `+userColumns+` FROM users WHERE id=$1`, id)
}

func (r *userRepository) SetRole(ctx context.Context, login string, role model.Role) error {
	tag, err := r.storage.pool.Exec(ctx, `UPDATE users SET role=$2 WHERE login=$1`, login, string(role))
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return domainErrors.ErrNotFound
	}
	return nil
}

func (r *userRepository) getOne(ctx context.Context, query string, arg string) (*model.User, error) {
	var (
		u    model.User
		role string
	)
	err := r.storage.pool.QueryRow(ctx, query, arg).Scan(&u.ID, &u.Login, &u.PasswordHash, &role, &u.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domainErrors.ErrNotFound
		}
		return nil, err
	}
	u.Role = model.Role(role)
	return &u, nil
}
