package repository

import (
	"context"

	"github.com/account-kit/user-service/internal/domain/entity"
)

// UserRepository is the persistence contract the use case consumes.
// Lookups return (nil, nil) when no row matches; errors are reserved for
// collaborator failures. The users.email unique constraint is the
// authoritative guard against duplicate registration.
type UserRepository interface {
	CreateUser(ctx context.Context, u *entity.User) error
	GetUserByID(ctx context.Context, id int64) (*entity.User, error)
	GetUserByEmail(ctx context.Context, email string) (*entity.User, error)
	UpdateUser(ctx context.Context, id int64, patch entity.UserPatch) error
	DeleteUser(ctx context.Context, id int64) error
}
