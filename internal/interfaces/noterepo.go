package interfaces

import (
	"context"

	"github.com/haguru/notedly/internal/models"
)

// NoteRepository defines the contract for storing and retrieving notes.
// Lookups return (nil, nil) when no note matches. Listings are newest first.
type NoteRepository interface {
	CreateNote(ctx context.Context, note models.Note) (*models.Note, error)
	GetNoteByID(ctx context.Context, id string) (*models.Note, error)
	ListNotes(ctx context.Context, limit int) ([]*models.Note, error)
	// ListNotesBefore returns up to limit notes older than the note with id
	// cursor; an empty cursor starts from the newest note.
	ListNotesBefore(ctx context.Context, cursor string, limit int) ([]*models.Note, error)
	ListNotesByAuthor(ctx context.Context, authorID string) ([]*models.Note, error)
	ListFavoritesByUser(ctx context.Context, userID string) ([]*models.Note, error)
	UpdateNoteContent(ctx context.Context, id, content string) (*models.Note, error)
	DeleteNote(ctx context.Context, id string) (bool, error)
	// AddFavorite adds userID to favoritedBy and increments favoriteCount in
	// one atomic step, only if userID is not already a member. applied is false
	// when the condition did not hold; note is then the current state (nil when
	// the note does not exist).
	AddFavorite(ctx context.Context, noteID, userID string) (note *models.Note, applied bool, err error)
	// RemoveFavorite is the inverse of AddFavorite.
	RemoveFavorite(ctx context.Context, noteID, userID string) (note *models.Note, applied bool, err error)
	EnsureIndices(ctx context.Context) error
	Close(ctx context.Context) error
}
