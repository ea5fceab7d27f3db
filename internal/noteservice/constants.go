package noteservice

const (
	// Client-facing messages.
	ErrSignInToCreate       = "You must be signed in to create a note"
	ErrSignInToUpdate       = "You must be signed in to update a note"
	ErrSignInToDelete       = "You must be signed in to delete a note"
	ErrSignInToFavorite     = "You must be signed in to favorite a note"
	ErrNoPermissionToUpdate = "You don't have permissions to update the note"
	ErrNoPermissionToDelete = "You don't have permissions to delete the note"
	ErrNoteNotFound         = "Note not found"
	ErrInvalidNote          = "Invalid note"
	ErrFavoriteConflict     = "favorite state changed concurrently"

	// Log messages.
	ErrRetrievingNote = "error retrieving note"
	ErrStoringNote    = "error storing note"
	ErrDeletingNote   = "error deleting note"

	DefaultNotesLimit   = 100
	DefaultFeedPageSize = 10

	actionAdded   = "added"
	actionRemoved = "removed"
)
