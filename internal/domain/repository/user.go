package repository

import (
	"context"

	"github.com/polkiloo/payledger/internal/domain/model"
)

// UserRepository describes persistence operations for users.
type UserRepository interface {
	Create(ctx context.Context, user *model.User) (*model.User, error)
	GetByLogin(ctx context.Context, login string) (*model.User, error)
	GetByID(ctx context.Context, id string) (*model.User, error)
	// SetRole changes the role of the user with login. It returns ErrNotFound
	// when no such user exists.
	SetRole(ctx context.Context, login string, role model.Role) error
}
