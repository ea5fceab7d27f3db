package interfaces

import (
	"context"
	"errors"

	"github.com/haguru/notedly/internal/models"
)

// ErrDuplicateUser is returned (wrapped) by AddUser when the username or email is taken.
var ErrDuplicateUser = errors.New("username or email already exists")

// UserRepository defines the contract for storing and retrieving User data.
// Lookups return (nil, nil) when no user matches.
type UserRepository interface {
	AddUser(ctx context.Context, user models.User) (string, error)
	GetUserByID(ctx context.Context, id string) (*models.User, error)
	GetUserByUsername(ctx context.Context, username string) (*models.User, error)
	GetUserByEmail(ctx context.Context, email string) (*models.User, error)
	GetUsersByIDs(ctx context.Context, ids []string) ([]*models.User, error)
	ListUsers(ctx context.Context) ([]*models.User, error)
	EnsureIndices(ctx context.Context) error
	Close(ctx context.Context) error
}
