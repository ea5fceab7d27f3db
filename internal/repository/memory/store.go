// Package memory is a mutex-guarded, process-local store for development and tests.
package memory

import (
	"context"
	"slices"
	"sync"
	"time"

	"github.com/haguru/notedly/internal/interfaces"
	"github.com/haguru/notedly/internal/models"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Store holds users and notes. Repositories built from the same Store share data.
type Store struct {
	mu    sync.RWMutex
	users []*models.User
	notes []*models.Note // insertion order, oldest first
}

func NewStore() *Store {
	return &Store{}
}

func newID() string {
	return primitive.NewObjectID().Hex()
}

func cloneUser(u *models.User) *models.User {
	c := *u
	return &c
}

func cloneNote(n *models.Note) *models.Note {
	c := *n
	c.FavoritedBy = slices.Clone(n.FavoritedBy)
	if c.FavoritedBy == nil {
		c.FavoritedBy = []string{}
	}
	return &c
}

// UserRepository implements interfaces.UserRepository over a Store.
type UserRepository struct {
	store *Store
}

func NewUserRepository(store *Store) *UserRepository {
	return &UserRepository{store: store}
}

func (r *UserRepository) AddUser(_ context.Context, user models.User) (string, error) {
	s := r.store
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, u := range s.users {
		if u.Username == user.Username || u.Email == user.Email {
			return "", interfaces.ErrDuplicateUser
		}
	}
	now := time.Now().UTC()
	user.ID = newID()
	user.CreatedAt = now
	user.UpdatedAt = now
	s.users = append(s.users, &user)
	return user.ID, nil
}

func (r *UserRepository) find(match func(*models.User) bool) *models.User {
	s := r.store
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, u := range s.users {
		if match(u) {
			return cloneUser(u)
		}
	}
	return nil
}

func (r *UserRepository) GetUserByID(_ context.Context, id string) (*models.User, error) {
	return r.find(func(u *models.User) bool { return u.ID == id }), nil
}

func (r *UserRepository) GetUserByUsername(_ context.Context, username string) (*models.User, error) {
	return r.find(func(u *models.User) bool { return u.Username == username }), nil
}

func (r *UserRepository) GetUserByEmail(_ context.Context, email string) (*models.User, error) {
	if email == "" {
		return nil, nil
	}
	return r.find(func(u *models.User) bool { return u.Email == email }), nil
}

func (r *UserRepository) GetUsersByIDs(_ context.Context, ids []string) ([]*models.User, error) {
	s := r.store
	s.mu.RLock()
	defer s.mu.RUnlock()
	users := []*models.User{}
	for _, u := range s.users {
		if slices.Contains(ids, u.ID) {
			users = append(users, cloneUser(u))
		}
	}
	return users, nil
}

func (r *UserRepository) ListUsers(_ context.Context) ([]*models.User, error) {
	s := r.store
	s.mu.RLock()
	defer s.mu.RUnlock()
	users := make([]*models.User, 0, len(s.users))
	for _, u := range s.users {
		users = append(users, cloneUser(u))
	}
	return users, nil
}

func (r *UserRepository) EnsureIndices(context.Context) error { return nil }
func (r *UserRepository) Close(context.Context) error         { return nil }

// NoteRepository implements interfaces.NoteRepository over a Store.
type NoteRepository struct {
	store *Store
}

func NewNoteRepository(store *Store) *NoteRepository {
	return &NoteRepository{store: store}
}

func (r *NoteRepository) CreateNote(_ context.Context, note models.Note) (*models.Note, error) {
	s := r.store
	s.mu.Lock()
	defer s.mu.Unlock()

	now := time.Now().UTC()
	stored := &models.Note{
		ID:          newID(),
		Content:     note.Content,
		AuthorID:    note.AuthorID,
		FavoritedBy: []string{},
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	s.notes = append(s.notes, stored)
	return cloneNote(stored), nil
}

// indexOf must be called with the lock held.
func (s *Store) indexOf(id string) int {
	return slices.IndexFunc(s.notes, func(n *models.Note) bool { return n.ID == id })
}

func (r *NoteRepository) GetNoteByID(_ context.Context, id string) (*models.Note, error) {
	s := r.store
	s.mu.RLock()
	defer s.mu.RUnlock()
	if i := s.indexOf(id); i >= 0 {
		return cloneNote(s.notes[i]), nil
	}
	return nil, nil
}

// newest walks notes newest first from index start, collecting matches up to limit (0 = all).
func (s *Store) newest(start, limit int, match func(*models.Note) bool) []*models.Note {
	notes := []*models.Note{}
	for i := start; i >= 0; i-- {
		if limit > 0 && len(notes) == limit {
			break
		}
		if match == nil || match(s.notes[i]) {
			notes = append(notes, cloneNote(s.notes[i]))
		}
	}
	return notes
}

func (r *NoteRepository) ListNotes(_ context.Context, limit int) ([]*models.Note, error) {
	s := r.store
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.newest(len(s.notes)-1, limit, nil), nil
}

// ListNotesBefore returns notes whose id sorts below cursor. Ids grow with
// insertion order, so a cursor whose note was deleted still pages correctly.
// A malformed cursor matches nothing.
func (r *NoteRepository) ListNotesBefore(ctx context.Context, cursor string, limit int) ([]*models.Note, error) {
	if cursor == "" {
		return r.ListNotes(ctx, limit)
	}
	objID, err := primitive.ObjectIDFromHex(cursor)
	if err != nil {
		return []*models.Note{}, nil
	}
	cursor = objID.Hex()

	s := r.store
	s.mu.RLock()
	defer s.mu.RUnlock()
	i := len(s.notes) - 1
	for i >= 0 && s.notes[i].ID >= cursor {
		i--
	}
	return s.newest(i, limit, nil), nil
}

func (r *NoteRepository) ListNotesByAuthor(_ context.Context, authorID string) ([]*models.Note, error) {
	s := r.store
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.newest(len(s.notes)-1, 0, func(n *models.Note) bool { return n.AuthorID == authorID }), nil
}

func (r *NoteRepository) ListFavoritesByUser(_ context.Context, userID string) ([]*models.Note, error) {
	s := r.store
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.newest(len(s.notes)-1, 0, func(n *models.Note) bool { return n.IsFavoritedBy(userID) }), nil
}

func (r *NoteRepository) UpdateNoteContent(_ context.Context, id, content string) (*models.Note, error) {
	s := r.store
	s.mu.Lock()
	defer s.mu.Unlock()
	i := s.indexOf(id)
	if i < 0 {
		return nil, nil
	}
	s.notes[i].Content = content
	s.notes[i].UpdatedAt = time.Now().UTC()
	return cloneNote(s.notes[i]), nil
}

func (r *NoteRepository) DeleteNote(_ context.Context, id string) (bool, error) {
	s := r.store
	s.mu.Lock()
	defer s.mu.Unlock()
	i := s.indexOf(id)
	if i < 0 {
		return false, nil
	}
	s.notes = slices.Delete(s.notes, i, i+1)
	return true, nil
}

func (r *NoteRepository) AddFavorite(_ context.Context, noteID, userID string) (*models.Note, bool, error) {
	s := r.store
	s.mu.Lock()
	defer s.mu.Unlock()
	i := s.indexOf(noteID)
	if i < 0 {
		return nil, false, nil
	}
	n := s.notes[i]
	if n.IsFavoritedBy(userID) {
		return cloneNote(n), false, nil
	}
	n.FavoritedBy = append(n.FavoritedBy, userID)
	n.FavoriteCount++
	return cloneNote(n), true, nil
}

func (r *NoteRepository) RemoveFavorite(_ context.Context, noteID, userID string) (*models.Note, bool, error) {
	s := r.store
	s.mu.Lock()
	defer s.mu.Unlock()
	i := s.indexOf(noteID)
	if i < 0 {
		return nil, false, nil
	}
	n := s.notes[i]
	j := slices.Index(n.FavoritedBy, userID)
	if j < 0 {
		return cloneNote(n), false, nil
	}
	n.FavoritedBy = slices.Delete(n.FavoritedBy, j, j+1)
	n.FavoriteCount--
	return cloneNote(n), true, nil
}

func (r *NoteRepository) EnsureIndices(context.Context) error { return nil }
func (r *NoteRepository) Close(context.Context) error         { return nil }
