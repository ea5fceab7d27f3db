package noteservice

import (
	"context"

	"github.com/go-playground/validator/v10"

	"github.com/haguru/notedly/internal/apperrors"
	"github.com/haguru/notedly/internal/interfaces"
	"github.com/haguru/notedly/internal/metrics"
	"github.com/haguru/notedly/internal/models"
	"github.com/haguru/notedly/internal/models/dto"
	"github.com/haguru/notedly/pkg/helper"
)

type NoteService struct {
	NoteRepo     interfaces.NoteRepository
	Logger       interfaces.Logger
	Metrics      interfaces.Metrics
	NotesLimit   int
	FeedPageSize int
	validate     *validator.Validate
}

// NewNoteService creates a NoteService. Non-positive limits fall back to the defaults.
func NewNoteService(repo interfaces.NoteRepository, logger interfaces.Logger, m interfaces.Metrics, notesLimit, feedPageSize int) *NoteService {
	if notesLimit <= 0 {
		notesLimit = DefaultNotesLimit
	}
	if feedPageSize <= 0 {
		feedPageSize = DefaultFeedPageSize
	}
	return &NoteService{
		NoteRepo:     repo,
		Logger:       logger,
		Metrics:      m,
		NotesLimit:   notesLimit,
		FeedPageSize: feedPageSize,
		validate:     validator.New(),
	}
}

// CreateNote stores a note authored by the caller.
func (s *NoteService) CreateNote(ctx context.Context, callerID string, input dto.NewNoteInput) (*models.Note, error) {
	funcName := helper.GetFuncName()
	s.Logger.Debug("Entering function", "func", funcName, "caller", callerID)
	defer s.Logger.Debug("Exiting function", "func", funcName, "caller", callerID)

	if callerID == "" {
		return nil, apperrors.Unauthenticated(ErrSignInToCreate)
	}
	if err := s.validate.Struct(input); err != nil {
		return nil, apperrors.InvalidInput(ErrInvalidNote, err)
	}

	note, err := s.NoteRepo.CreateNote(ctx, *models.NewNote(input.Content, callerID))
	if err != nil {
		s.Logger.Error(ErrStoringNote, "func", funcName, "caller", callerID, "error", err)
		return nil, apperrors.Internal(ErrStoringNote, err)
	}

	s.Metrics.IncCounter(metrics.NotesCreated)
	s.Logger.Info("Note created", "func", funcName, "caller", callerID, "note", note.ID)
	return note, nil
}

// UpdateNote replaces the content of a note the caller owns.
func (s *NoteService) UpdateNote(ctx context.Context, callerID string, input dto.UpdateNoteInput) (*models.Note, error) {
	funcName := helper.GetFuncName()
	s.Logger.Debug("Entering function", "func", funcName, "caller", callerID, "note", input.ID)
	defer s.Logger.Debug("Exiting function", "func", funcName, "caller", callerID, "note", input.ID)

	if callerID == "" {
		return nil, apperrors.Unauthenticated(ErrSignInToUpdate)
	}
	if err := s.validate.Struct(input); err != nil {
		return nil, apperrors.InvalidInput(ErrInvalidNote, err)
	}

	note, err := s.loadNote(ctx, input.ID)
	if err != nil {
		return nil, err
	}
	if !note.IsOwnedBy(callerID) {
		s.Logger.Warn("Update refused", "func", funcName, "caller", callerID, "note", input.ID)
		return nil, apperrors.Forbidden(ErrNoPermissionToUpdate)
	}

	updated, err := s.NoteRepo.UpdateNoteContent(ctx, input.ID, input.Content)
	if err != nil {
		s.Logger.Error(ErrStoringNote, "func", funcName, "note", input.ID, "error", err)
		return nil, apperrors.Internal(ErrStoringNote, err)
	}
	if updated == nil {
		return nil, apperrors.NotFound(ErrNoteNotFound)
	}

	s.Metrics.IncCounter(metrics.NotesUpdated)
	s.Logger.Info("Note updated", "func", funcName, "caller", callerID, "note", input.ID)
	return updated, nil
}

// DeleteNote removes a note the caller owns. A missing note and storage
// failures both report false.
func (s *NoteService) DeleteNote(ctx context.Context, callerID, noteID string) (bool, error) {
	funcName := helper.GetFuncName()
	s.Logger.Debug("Entering function", "func", funcName, "caller", callerID, "note", noteID)
	defer s.Logger.Debug("Exiting function", "func", funcName, "caller", callerID, "note", noteID)

	if callerID == "" {
		return false, apperrors.Unauthenticated(ErrSignInToDelete)
	}

	note, err := s.loadNote(ctx, noteID)
	if err != nil {
		return false, nil
	}
	if !note.IsOwnedBy(callerID) {
		s.Logger.Warn("Delete refused", "func", funcName, "caller", callerID, "note", noteID)
		return false, apperrors.Forbidden(ErrNoPermissionToDelete)
	}

	deleted, err := s.NoteRepo.DeleteNote(ctx, noteID)
	if err != nil {
		s.Logger.Error(ErrDeletingNote, "func", funcName, "note", noteID, "error", err)
		return false, nil
	}
	if deleted {
		s.Metrics.IncCounter(metrics.NotesDeleted)
		s.Logger.Info("Note deleted", "func", funcName, "caller", callerID, "note", noteID)
	}
	return deleted, nil
}

// ToggleFavorite adds the caller to the note's favoritedBy set, or removes
// them if already present. Membership and count change in one conditional
// update; if another request flips membership in between, the toggle is
// retried once against the state the store returned.
func (s *NoteService) ToggleFavorite(ctx context.Context, callerID, noteID string) (*models.Note, error) {
	funcName := helper.GetFuncName()
	s.Logger.Debug("Entering function", "func", funcName, "caller", callerID, "note", noteID)
	defer s.Logger.Debug("Exiting function", "func", funcName, "caller", callerID, "note", noteID)

	if callerID == "" {
		return nil, apperrors.Unauthenticated(ErrSignInToFavorite)
	}

	note, err := s.loadNote(ctx, noteID)
	if err != nil {
		return nil, err
	}

	for attempt := 0; attempt < 2; attempt++ {
		remove := note.IsFavoritedBy(callerID)
		var (
			updated *models.Note
			applied bool
		)
		if remove {
			updated, applied, err = s.NoteRepo.RemoveFavorite(ctx, noteID, callerID)
		} else {
			updated, applied, err = s.NoteRepo.AddFavorite(ctx, noteID, callerID)
		}
		if err != nil {
			s.Logger.Error(ErrStoringNote, "func", funcName, "note", noteID, "error", err)
			return nil, apperrors.Internal(ErrStoringNote, err)
		}
		if updated == nil {
			return nil, apperrors.NotFound(ErrNoteNotFound)
		}
		if applied {
			action := actionAdded
			if remove {
				action = actionRemoved
			}
			s.Metrics.IncCounterVec(metrics.FavoritesToggled, action)
			s.Logger.Info("Favorite toggled", "func", funcName, "caller", callerID, "note", noteID, "action", action)
			return updated, nil
		}
		note = updated
	}

	s.Logger.Error(ErrFavoriteConflict, "func", funcName, "caller", callerID, "note", noteID)
	return nil, apperrors.Internal(ErrFavoriteConflict, nil)
}

func (s *NoteService) GetNote(ctx context.Context, id string) (*models.Note, error) {
	return s.loadNote(ctx, id)
}

// ListNotes returns the newest notes, capped at NotesLimit.
func (s *NoteService) ListNotes(ctx context.Context) ([]*models.Note, error) {
	notes, err := s.NoteRepo.ListNotes(ctx, s.NotesLimit)
	if err != nil {
		s.Logger.Error(ErrRetrievingNote, "func", helper.GetFuncName(), "error", err)
		return nil, apperrors.Internal(ErrRetrievingNote, err)
	}
	return notes, nil
}

// NoteFeed returns one page of notes older than cursor. It reads one extra
// note to learn whether another page exists.
func (s *NoteService) NoteFeed(ctx context.Context, cursor string) (*models.NoteFeed, error) {
	notes, err := s.NoteRepo.ListNotesBefore(ctx, cursor, s.FeedPageSize+1)
	if err != nil {
		s.Logger.Error(ErrRetrievingNote, "func", helper.GetFuncName(), "cursor", cursor, "error", err)
		return nil, apperrors.Internal(ErrRetrievingNote, err)
	}

	feed := &models.NoteFeed{Notes: notes}
	if len(notes) > s.FeedPageSize {
		feed.HasNextPage = true
		feed.Notes = notes[:s.FeedPageSize]
	}
	if len(feed.Notes) > 0 {
		feed.Cursor = feed.Notes[len(feed.Notes)-1].ID
	}
	return feed, nil
}

func (s *NoteService) ListNotesByAuthor(ctx context.Context, authorID string) ([]*models.Note, error) {
	notes, err := s.NoteRepo.ListNotesByAuthor(ctx, authorID)
	if err != nil {
		s.Logger.Error(ErrRetrievingNote, "func", helper.GetFuncName(), "author", authorID, "error", err)
		return nil, apperrors.Internal(ErrRetrievingNote, err)
	}
	return notes, nil
}

func (s *NoteService) ListFavoritesByUser(ctx context.Context, userID string) ([]*models.Note, error) {
	notes, err := s.NoteRepo.ListFavoritesByUser(ctx, userID)
	if err != nil {
		s.Logger.Error(ErrRetrievingNote, "func", helper.GetFuncName(), "user", userID, "error", err)
		return nil, apperrors.Internal(ErrRetrievingNote, err)
	}
	return notes, nil
}

// loadNote returns the note or a NOT_FOUND error.
func (s *NoteService) loadNote(ctx context.Context, id string) (*models.Note, error) {
	note, err := s.NoteRepo.GetNoteByID(ctx, id)
	if err != nil {
		s.Logger.Error(ErrRetrievingNote, "func", helper.GetFuncName(), "note", id, "error", err)
		return nil, apperrors.Internal(ErrRetrievingNote, err)
	}
	if note == nil {
		return nil, apperrors.NotFound(ErrNoteNotFound)
	}
	return note, nil
}
