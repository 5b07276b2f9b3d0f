package identity

import (
	"context"

	"github.com/castellan-io/castellan/internal/domain"
)

// Repository defines the user-record store collaborator. The store owns
// persistence and uniqueness enforcement (email is unique case-insensitively);
// the identity core only reads and writes through this interface.
type Repository interface {
	CreateUser(ctx context.Context, user *domain.User) error
	GetUserByID(ctx context.Context, id string) (*domain.User, error)
	GetUserByEmail(ctx context.Context, email string) (*domain.User, error)
	ListUsers(ctx context.Context, filter UserFilter) ([]domain.User, error)
	UpdateUser(ctx context.Context, user *domain.User) error
	DeleteUser(ctx context.Context, id string) error
}

// UserFilter represents filter criteria for listing users.
type UserFilter struct {
	Role *domain.Role
}
