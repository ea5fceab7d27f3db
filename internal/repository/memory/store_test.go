package memory

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"testing"

	"github.com/haguru/notedly/internal/interfaces"
	"github.com/haguru/notedly/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var (
	_ interfaces.UserRepository = (*UserRepository)(nil)
	_ interfaces.NoteRepository = (*NoteRepository)(nil)
)

func TestUserRepository(t *testing.T) {
	ctx := context.Background()
	repo := NewUserRepository(NewStore())

	id, err := repo.AddUser(ctx, *models.NewUser("alice", "alice@example.com", "hash", "av"))
	require.NoError(t, err)
	assert.Len(t, id, 24)

	_, err = repo.AddUser(ctx, *models.NewUser("alice", "other@example.com", "hash", "av"))
	assert.ErrorIs(t, err, interfaces.ErrDuplicateUser)
	_, err = repo.AddUser(ctx, *models.NewUser("other", "alice@example.com", "hash", "av"))
	assert.ErrorIs(t, err, interfaces.ErrDuplicateUser)

	bobID, err := repo.AddUser(ctx, *models.NewUser("bob", "bob@example.com", "hash", "av"))
	require.NoError(t, err)

	user, err := repo.GetUserByID(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, "alice", user.Username)
	assert.False(t, user.CreatedAt.IsZero())

	user, err = repo.GetUserByEmail(ctx, "bob@example.com")
	require.NoError(t, err)
	assert.Equal(t, bobID, user.ID)

	user, err = repo.GetUserByUsername(ctx, "nobody")
	require.NoError(t, err)
	assert.Nil(t, user)

	users, err := repo.GetUsersByIDs(ctx, []string{bobID, "missing"})
	require.NoError(t, err)
	require.Len(t, users, 1)
	assert.Equal(t, "bob", users[0].Username)

	users, err = repo.ListUsers(ctx)
	require.NoError(t, err)
	assert.Len(t, users, 2)

	// returned values are copies
	users[0].Username = "mallory"
	user, _ = repo.GetUserByID(ctx, id)
	assert.Equal(t, "alice", user.Username)
}

func seedNotes(t *testing.T, repo *NoteRepository, n int, author string) []*models.Note {
	t.Helper()
	notes := make([]*models.Note, 0, n)
	for i := 0; i < n; i++ {
		note, err := repo.CreateNote(context.Background(), *models.NewNote(fmt.Sprintf("note %d", i), author))
		require.NoError(t, err)
		notes = append(notes, note)
	}
	return notes
}

func TestNoteRepository_Listing(t *testing.T) {
	ctx := context.Background()
	repo := NewNoteRepository(NewStore())
	notes := seedNotes(t, repo, 5, "u1")
	seedNotes(t, repo, 1, "u2")

	all, err := repo.ListNotes(ctx, 3)
	require.NoError(t, err)
	require.Len(t, all, 3)
	assert.Equal(t, "u2", all[0].AuthorID)
	assert.Equal(t, notes[4].ID, all[1].ID)

	before, err := repo.ListNotesBefore(ctx, notes[3].ID, 10)
	require.NoError(t, err)
	require.Len(t, before, 3)
	assert.Equal(t, notes[2].ID, before[0].ID)
	assert.Equal(t, notes[0].ID, before[2].ID)

	malformed, err := repo.ListNotesBefore(ctx, "missing", 10)
	require.NoError(t, err)
	assert.Empty(t, malformed)

	// a deleted cursor note still marks the position
	deleted, err := repo.DeleteNote(ctx, notes[3].ID)
	require.NoError(t, err)
	require.True(t, deleted)
	before, err = repo.ListNotesBefore(ctx, notes[3].ID, 10)
	require.NoError(t, err)
	require.Len(t, before, 3)
	assert.Equal(t, notes[2].ID, before[0].ID)

	before, err = repo.ListNotesBefore(ctx, strings.ToUpper(notes[3].ID), 10)
	require.NoError(t, err)
	assert.Len(t, before, 3)

	byAuthor, err := repo.ListNotesByAuthor(ctx, "u1")
	require.NoError(t, err)
	assert.Len(t, byAuthor, 4)
	assert.Equal(t, notes[4].ID, byAuthor[0].ID)
}

func TestNoteRepository_UpdateAndDelete(t *testing.T) {
	ctx := context.Background()
	repo := NewNoteRepository(NewStore())
	note := seedNotes(t, repo, 1, "u1")[0]

	updated, err := repo.UpdateNoteContent(ctx, note.ID, "changed")
	require.NoError(t, err)
	assert.Equal(t, "changed", updated.Content)
	assert.False(t, updated.UpdatedAt.Before(note.UpdatedAt))

	missing, err := repo.UpdateNoteContent(ctx, "missing", "x")
	require.NoError(t, err)
	assert.Nil(t, missing)

	deleted, err := repo.DeleteNote(ctx, note.ID)
	require.NoError(t, err)
	assert.True(t, deleted)

	deleted, err = repo.DeleteNote(ctx, note.ID)
	require.NoError(t, err)
	assert.False(t, deleted)
}

func TestNoteRepository_Favorites(t *testing.T) {
	ctx := context.Background()
	repo := NewNoteRepository(NewStore())
	note := seedNotes(t, repo, 1, "u1")[0]

	got, applied, err := repo.AddFavorite(ctx, note.ID, "u2")
	require.NoError(t, err)
	assert.True(t, applied)
	assert.Equal(t, []string{"u2"}, got.FavoritedBy)
	assert.Equal(t, 1, got.FavoriteCount)

	got, applied, err = repo.AddFavorite(ctx, note.ID, "u2")
	require.NoError(t, err)
	assert.False(t, applied)
	assert.Equal(t, 1, got.FavoriteCount)

	favorites, err := repo.ListFavoritesByUser(ctx, "u2")
	require.NoError(t, err)
	assert.Len(t, favorites, 1)

	got, applied, err = repo.RemoveFavorite(ctx, note.ID, "u2")
	require.NoError(t, err)
	assert.True(t, applied)
	assert.Empty(t, got.FavoritedBy)
	assert.Zero(t, got.FavoriteCount)

	_, applied, err = repo.RemoveFavorite(ctx, note.ID, "u2")
	require.NoError(t, err)
	assert.False(t, applied)

	got, applied, err = repo.AddFavorite(ctx, "missing", "u2")
	require.NoError(t, err)
	assert.False(t, applied)
	assert.Nil(t, got)
}

func TestNoteRepository_ConcurrentFavorites(t *testing.T) {
	ctx := context.Background()
	repo := NewNoteRepository(NewStore())
	note := seedNotes(t, repo, 1, "u1")[0]

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func(user string) {
			defer wg.Done()
			_, _, _ = repo.AddFavorite(ctx, note.ID, user)
			_, _, _ = repo.AddFavorite(ctx, note.ID, user)
			if len(user)%2 == 0 {
				_, _, _ = repo.RemoveFavorite(ctx, note.ID, user)
			}
		}(fmt.Sprintf("user-%d", i))
	}
	wg.Wait()

	got, err := repo.GetNoteByID(ctx, note.ID)
	require.NoError(t, err)
	assert.Equal(t, len(got.FavoritedBy), got.FavoriteCount)
}
