package interfaces

import (
	"context"

	"github.com/haguru/notedly/internal/models"
	"github.com/haguru/notedly/internal/models/dto"
)

// UserService covers account creation, sign-in and user lookups.
type UserService interface {
	SignUp(ctx context.Context, input dto.SignUpInput) (string, error)
	SignIn(ctx context.Context, input dto.SignInInput) (string, error)
	GetUser(ctx context.Context, id string) (*models.User, error)
	GetUserByUsername(ctx context.Context, username string) (*models.User, error)
	GetUsersByIDs(ctx context.Context, ids []string) ([]*models.User, error)
	ListUsers(ctx context.Context) ([]*models.User, error)
}

// NoteService covers note CRUD and favorites. callerID is the authenticated
// user id, empty for anonymous callers.
type NoteService interface {
	CreateNote(ctx context.Context, callerID string, input dto.NewNoteInput) (*models.Note, error)
	UpdateNote(ctx context.Context, callerID string, input dto.UpdateNoteInput) (*models.Note, error)
	DeleteNote(ctx context.Context, callerID, noteID string) (bool, error)
	ToggleFavorite(ctx context.Context, callerID, noteID string) (*models.Note, error)
	GetNote(ctx context.Context, id string) (*models.Note, error)
	ListNotes(ctx context.Context) ([]*models.Note, error)
	NoteFeed(ctx context.Context, cursor string) (*models.NoteFeed, error)
	ListNotesByAuthor(ctx context.Context, authorID string) ([]*models.Note, error)
	ListFavoritesByUser(ctx context.Context, userID string) ([]*models.Note, error)
}

// TokenManager issues and verifies identity tokens.
type TokenManager interface {
	CreateToken(userID string) (string, error)
	VerifyToken(token string) (userID string, err error)
}
