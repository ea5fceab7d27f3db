package noteservice

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/haguru/notedly/internal/apperrors"
	"github.com/haguru/notedly/internal/interfaces"
	"github.com/haguru/notedly/internal/interfaces/mocks"
	"github.com/haguru/notedly/internal/metrics"
	"github.com/haguru/notedly/internal/models"
	"github.com/haguru/notedly/internal/models/dto"
	"github.com/haguru/notedly/internal/repository/memory"
	pkgmetrics "github.com/haguru/notedly/pkg/metrics"
	"github.com/haguru/notedly/pkg/zerolog"
)

func newTestService(repo interfaces.NoteRepository, feedPageSize int) *NoteService {
	m := pkgmetrics.NewMetrics("notedly")
	metrics.Register(m)
	return NewNoteService(repo, zerolog.NewZerologLoggerWithWriter("test", io.Discard), m, 0, feedPageSize)
}

func newMemoryService(feedPageSize int) *NoteService {
	return newTestService(memory.NewNoteRepository(memory.NewStore()), feedPageSize)
}

func TestNewNoteService_Defaults(t *testing.T) {
	svc := newMemoryService(0)
	assert.Equal(t, DefaultNotesLimit, svc.NotesLimit)
	assert.Equal(t, DefaultFeedPageSize, svc.FeedPageSize)
}

func TestNoteService_RequiresSignIn(t *testing.T) {
	svc := newMemoryService(10)
	ctx := context.Background()

	_, err := svc.CreateNote(ctx, "", dto.NewNoteInput{Content: "hello"})
	assert.ErrorIs(t, err, apperrors.ErrUnauthenticated)
	assert.Equal(t, ErrSignInToCreate, apperrors.PublicMessage(err))

	_, err = svc.UpdateNote(ctx, "", dto.UpdateNoteInput{ID: "n1", Content: "x"})
	assert.ErrorIs(t, err, apperrors.ErrUnauthenticated)

	_, err = svc.DeleteNote(ctx, "", "n1")
	assert.ErrorIs(t, err, apperrors.ErrUnauthenticated)

	_, err = svc.ToggleFavorite(ctx, "", "n1")
	assert.ErrorIs(t, err, apperrors.ErrUnauthenticated)
	assert.Equal(t, ErrSignInToFavorite, apperrors.PublicMessage(err))
}

func TestNoteService_CreateNote(t *testing.T) {
	svc := newMemoryService(10)
	ctx := context.Background()

	note, err := svc.CreateNote(ctx, "u1", dto.NewNoteInput{Content: "hello"})
	require.NoError(t, err)
	assert.NotEmpty(t, note.ID)
	assert.Equal(t, "u1", note.AuthorID)
	assert.Zero(t, note.FavoriteCount)
	assert.Empty(t, note.FavoritedBy)

	_, err = svc.CreateNote(ctx, "u1", dto.NewNoteInput{})
	assert.ErrorIs(t, err, apperrors.ErrInvalidInput)

	_, err = svc.CreateNote(ctx, "u1", dto.NewNoteInput{Content: strings.Repeat("x", 10001)})
	assert.ErrorIs(t, err, apperrors.ErrInvalidInput)

	expected := `
# HELP notedly_notes_created_total Total number of notes created
# TYPE notedly_notes_created_total counter
notedly_notes_created_total 1
`
	require.NoError(t, testutil.GatherAndCompare(svc.Metrics.GetRegistry(), strings.NewReader(expected), "notedly_notes_created_total"))
}

func TestNoteService_UpdateNote(t *testing.T) {
	svc := newMemoryService(10)
	ctx := context.Background()
	note, err := svc.CreateNote(ctx, "u1", dto.NewNoteInput{Content: "hello"})
	require.NoError(t, err)

	tests := []struct {
		name     string
		caller   string
		id       string
		wantErr  error
		wantText string
	}{
		{name: "owner", caller: "u1", id: note.ID, wantText: "changed"},
		{name: "someone else", caller: "u2", id: note.ID, wantErr: apperrors.ErrForbidden},
		{name: "missing note", caller: "u1", id: "missing", wantErr: apperrors.ErrNotFound},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := svc.UpdateNote(ctx, tt.caller, dto.UpdateNoteInput{ID: tt.id, Content: "changed"})
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				assert.Nil(t, got)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.wantText, got.Content)
			assert.False(t, got.UpdatedAt.Before(note.UpdatedAt))
		})
	}
}

func TestNoteService_DeleteNote(t *testing.T) {
	svc := newMemoryService(10)
	ctx := context.Background()
	note, err := svc.CreateNote(ctx, "u1", dto.NewNoteInput{Content: "hello"})
	require.NoError(t, err)

	deleted, err := svc.DeleteNote(ctx, "u2", note.ID)
	assert.ErrorIs(t, err, apperrors.ErrForbidden)
	assert.False(t, deleted)

	deleted, err = svc.DeleteNote(ctx, "u1", note.ID)
	require.NoError(t, err)
	assert.True(t, deleted)

	deleted, err = svc.DeleteNote(ctx, "u1", note.ID)
	require.NoError(t, err)
	assert.False(t, deleted)

	got, err := svc.GetNote(ctx, note.ID)
	assert.ErrorIs(t, err, apperrors.ErrNotFound)
	assert.Nil(t, got)
}

func TestNoteService_DeleteNoteStorageFailure(t *testing.T) {
	repo := mocks.NewMockNoteRepository(t)
	svc := newTestService(repo, 10)
	note := &models.Note{ID: "n1", AuthorID: "u1", FavoritedBy: []string{}}

	repo.On("GetNoteByID", mock.Anything, "n1").Return(note, nil)
	repo.On("DeleteNote", mock.Anything, "n1").Return(false, errors.New("db down"))

	deleted, err := svc.DeleteNote(context.Background(), "u1", "n1")
	require.NoError(t, err)
	assert.False(t, deleted)
}

func TestNoteService_ToggleFavoriteRoundTrip(t *testing.T) {
	svc := newMemoryService(10)
	ctx := context.Background()
	note, err := svc.CreateNote(ctx, "u1", dto.NewNoteInput{Content: "hello"})
	require.NoError(t, err)

	got, err := svc.ToggleFavorite(ctx, "u2", note.ID)
	require.NoError(t, err)
	assert.Equal(t, []string{"u2"}, got.FavoritedBy)
	assert.Equal(t, 1, got.FavoriteCount)

	got, err = svc.ToggleFavorite(ctx, "u3", note.ID)
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"u2", "u3"}, got.FavoritedBy)
	assert.Equal(t, 2, got.FavoriteCount)

	got, err = svc.ToggleFavorite(ctx, "u2", note.ID)
	require.NoError(t, err)
	assert.Equal(t, []string{"u3"}, got.FavoritedBy)
	assert.Equal(t, 1, got.FavoriteCount)

	// favoriting never touches updatedAt
	assert.Equal(t, note.UpdatedAt, got.UpdatedAt)

	_, err = svc.ToggleFavorite(ctx, "u2", "missing")
	assert.ErrorIs(t, err, apperrors.ErrNotFound)

	expected := `
# HELP notedly_favorites_toggled_total Total number of favorite toggles
# TYPE notedly_favorites_toggled_total counter
notedly_favorites_toggled_total{action="added"} 2
notedly_favorites_toggled_total{action="removed"} 1
`
	require.NoError(t, testutil.GatherAndCompare(svc.Metrics.GetRegistry(), strings.NewReader(expected), "notedly_favorites_toggled_total"))
}

func TestNoteService_ToggleFavoriteRetries(t *testing.T) {
	unfavorited := &models.Note{ID: "n1", AuthorID: "u1", FavoritedBy: []string{}}
	favorited := &models.Note{ID: "n1", AuthorID: "u1", FavoritedBy: []string{"u2"}, FavoriteCount: 1}

	tests := []struct {
		name     string
		setup    func(repo *mocks.MockNoteRepository)
		want     *models.Note
		wantKind apperrors.Kind
	}{
		{
			name: "membership flipped between read and write",
			setup: func(repo *mocks.MockNoteRepository) {
				repo.On("GetNoteByID", mock.Anything, "n1").Return(unfavorited, nil)
				repo.On("AddFavorite", mock.Anything, "n1", "u2").Return(favorited, false, nil).Once()
				repo.On("RemoveFavorite", mock.Anything, "n1", "u2").Return(unfavorited, true, nil).Once()
			},
			want: unfavorited,
		},
		{
			name: "flipped twice",
			setup: func(repo *mocks.MockNoteRepository) {
				repo.On("GetNoteByID", mock.Anything, "n1").Return(unfavorited, nil)
				repo.On("AddFavorite", mock.Anything, "n1", "u2").Return(favorited, false, nil).Once()
				repo.On("RemoveFavorite", mock.Anything, "n1", "u2").Return(unfavorited, false, nil).Once()
			},
			wantKind: apperrors.KindInternal,
		},
		{
			name: "deleted between read and write",
			setup: func(repo *mocks.MockNoteRepository) {
				repo.On("GetNoteByID", mock.Anything, "n1").Return(unfavorited, nil)
				repo.On("AddFavorite", mock.Anything, "n1", "u2").Return(nil, false, nil).Once()
			},
			wantKind: apperrors.KindNotFound,
		},
		{
			name: "storage failure",
			setup: func(repo *mocks.MockNoteRepository) {
				repo.On("GetNoteByID", mock.Anything, "n1").Return(favorited, nil)
				repo.On("RemoveFavorite", mock.Anything, "n1", "u2").Return(nil, false, errors.New("db down")).Once()
			},
			wantKind: apperrors.KindInternal,
		},
		{
			name: "lookup failure",
			setup: func(repo *mocks.MockNoteRepository) {
				repo.On("GetNoteByID", mock.Anything, "n1").Return(nil, errors.New("db down"))
			},
			wantKind: apperrors.KindInternal,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo := mocks.NewMockNoteRepository(t)
			tt.setup(repo)
			svc := newTestService(repo, 10)

			got, err := svc.ToggleFavorite(context.Background(), "u2", "n1")
			if tt.wantKind != "" {
				require.Error(t, err)
				assert.Equal(t, tt.wantKind, apperrors.KindOf(err))
				assert.Nil(t, got)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestNoteService_NoteFeed(t *testing.T) {
	svc := newMemoryService(3)
	ctx := context.Background()

	ids := make([]string, 0, 7)
	for _, content := range []string{"a", "b", "c", "d", "e", "f", "g"} {
		note, err := svc.CreateNote(ctx, "u1", dto.NewNoteInput{Content: content})
		require.NoError(t, err)
		ids = append(ids, note.ID)
	}

	page, err := svc.NoteFeed(ctx, "")
	require.NoError(t, err)
	require.Len(t, page.Notes, 3)
	assert.True(t, page.HasNextPage)
	assert.Equal(t, ids[6], page.Notes[0].ID)
	assert.Equal(t, ids[4], page.Cursor)

	page, err = svc.NoteFeed(ctx, page.Cursor)
	require.NoError(t, err)
	require.Len(t, page.Notes, 3)
	assert.True(t, page.HasNextPage)
	assert.Equal(t, ids[1], page.Cursor)

	page, err = svc.NoteFeed(ctx, page.Cursor)
	require.NoError(t, err)
	require.Len(t, page.Notes, 1)
	assert.False(t, page.HasNextPage)
	assert.Equal(t, ids[0], page.Cursor)

	page, err = svc.NoteFeed(ctx, page.Cursor)
	require.NoError(t, err)
	assert.Empty(t, page.Notes)
	assert.False(t, page.HasNextPage)
	assert.Empty(t, page.Cursor)

	page, err = svc.NoteFeed(ctx, "not-a-note")
	require.NoError(t, err)
	assert.Empty(t, page.Notes)
	assert.Empty(t, page.Cursor)
}

func TestNoteService_NoteFeedAfterCursorDeleted(t *testing.T) {
	svc := newMemoryService(10)
	ctx := context.Background()
	for i := 0; i < 15; i++ {
		_, err := svc.CreateNote(ctx, "u1", dto.NewNoteInput{Content: fmt.Sprintf("note %d", i)})
		require.NoError(t, err)
	}

	first, err := svc.NoteFeed(ctx, "")
	require.NoError(t, err)
	require.Len(t, first.Notes, 10)
	require.True(t, first.HasNextPage)

	deleted, err := svc.DeleteNote(ctx, "u1", first.Cursor)
	require.NoError(t, err)
	require.True(t, deleted)

	second, err := svc.NoteFeed(ctx, first.Cursor)
	require.NoError(t, err)
	require.Len(t, second.Notes, 5)
	assert.False(t, second.HasNextPage)
	assert.Equal(t, "note 4", second.Notes[0].Content)
	assert.Equal(t, "note 0", second.Notes[4].Content)
}

func TestNoteService_Listings(t *testing.T) {
	svc := newMemoryService(10)
	svc.NotesLimit = 2
	ctx := context.Background()

	first, _ := svc.CreateNote(ctx, "u1", dto.NewNoteInput{Content: "a"})
	_, _ = svc.CreateNote(ctx, "u2", dto.NewNoteInput{Content: "b"})
	_, _ = svc.CreateNote(ctx, "u1", dto.NewNoteInput{Content: "c"})
	_, err := svc.ToggleFavorite(ctx, "u2", first.ID)
	require.NoError(t, err)

	notes, err := svc.ListNotes(ctx)
	require.NoError(t, err)
	assert.Len(t, notes, 2)

	notes, err = svc.ListNotesByAuthor(ctx, "u1")
	require.NoError(t, err)
	require.Len(t, notes, 2)
	assert.Equal(t, "c", notes[0].Content)

	notes, err = svc.ListFavoritesByUser(ctx, "u2")
	require.NoError(t, err)
	require.Len(t, notes, 1)
	assert.Equal(t, first.ID, notes[0].ID)

	notes, err = svc.ListFavoritesByUser(ctx, "nobody")
	require.NoError(t, err)
	assert.Empty(t, notes)
}
