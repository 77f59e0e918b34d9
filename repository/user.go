package repository

import (
	"context"

	"github.com/taskhub/backend/domain"
)

type UserFilter struct {
	Query  string
	Limit  int
	Offset int
}

type UserRepository interface {
	GetByID(ctx context.Context, id string) (*domain.User, error)
	GetByEmail(ctx context.Context, email string) (*domain.User, error)
	List(ctx context.Context, filter UserFilter) ([]domain.User, error)
	// Create persists a new user. Email uniqueness is enforced by the store;
	// a duplicate surfaces as a CONFLICT domain error.
	Create(ctx context.Context, user *domain.User) error
	UpdateRole(ctx context.Context, id string, role domain.Role) (*domain.User, error)
	Delete(ctx context.Context, id string) error
}
