package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"

	"github.com/haguru/notedly/internal/interfaces"
	"github.com/haguru/notedly/internal/models"
	"github.com/haguru/notedly/internal/repository/constants"
)

const (
	addFavoriteSQL = `UPDATE notes
SET favorited_by = array_append(favorited_by, $2::text), favorite_count = favorite_count + 1
WHERE id = $1 AND NOT ($2::text = ANY(favorited_by))
RETURNING ` + noteColumns

	removeFavoriteSQL = `UPDATE notes
SET favorited_by = array_remove(favorited_by, $2::text), favorite_count = favorite_count - 1
WHERE id = $1 AND $2::text = ANY(favorited_by)
RETURNING ` + noteColumns
)

// PostgresNoteRepository implements NoteRepository for PostgreSQL databases.
type PostgresNoteRepository struct {
	dbClient interfaces.SQLClient
}

func NewPostgresNoteRepository(dbClient interfaces.SQLClient) (*PostgresNoteRepository, error) {
	if dbClient == nil {
		return nil, fmt.Errorf("dbClient cannot be nil")
	}
	return &PostgresNoteRepository{dbClient: dbClient}, nil
}

func (r *PostgresNoteRepository) CreateNote(ctx context.Context, note models.Note) (*models.Note, error) {
	noteID, err := uuid.NewV7()
	if err != nil {
		return nil, fmt.Errorf("failed to generate note id: %w", err)
	}
	now := time.Now().UTC().Truncate(time.Microsecond)
	doc := map[string]interface{}{
		"id":             noteID.String(),
		"content":        note.Content,
		"author":         note.AuthorID,
		"favorited_by":   pq.Array([]string{}),
		"favorite_count": 0,
		"created_at":     now,
		"updated_at":     now,
	}

	insertedID, err := r.dbClient.InsertOne(ctx, constants.NotesCollection, doc)
	if err != nil {
		return nil, fmt.Errorf("failed to add note to PostgreSQL: %w", err)
	}
	id, ok := insertedID.(string)
	if !ok {
		return nil, fmt.Errorf("failed to assert inserted ID to string (expected UUID)")
	}

	return &models.Note{
		ID:          id,
		Content:     note.Content,
		AuthorID:    note.AuthorID,
		FavoritedBy: []string{},
		CreatedAt:   now,
		UpdatedAt:   now,
	}, nil
}

func (r *PostgresNoteRepository) GetNoteByID(ctx context.Context, id string) (*models.Note, error) {
	return r.queryOne(ctx, `SELECT `+noteColumns+` FROM notes WHERE id = $1`, id)
}

func (r *PostgresNoteRepository) ListNotes(ctx context.Context, limit int) ([]*models.Note, error) {
	return r.queryMany(ctx, `SELECT `+noteColumns+` FROM notes `+newestFirst+` LIMIT $1`, limit)
}

// ListNotesBefore pages by id order. The cursor note need not exist any more.
// A cursor that is not a uuid matches nothing.
func (r *PostgresNoteRepository) ListNotesBefore(ctx context.Context, cursor string, limit int) ([]*models.Note, error) {
	if cursor == "" {
		return r.ListNotes(ctx, limit)
	}
	id, err := uuid.Parse(cursor)
	if err != nil {
		return []*models.Note{}, nil
	}
	return r.queryMany(ctx, `SELECT `+noteColumns+` FROM notes
WHERE id COLLATE "C" < $1 `+newestFirst+` LIMIT $2`, id.String(), limit)
}

func (r *PostgresNoteRepository) ListNotesByAuthor(ctx context.Context, authorID string) ([]*models.Note, error) {
	return r.queryMany(ctx, `SELECT `+noteColumns+` FROM notes WHERE author = $1 `+newestFirst, authorID)
}

func (r *PostgresNoteRepository) ListFavoritesByUser(ctx context.Context, userID string) ([]*models.Note, error) {
	return r.queryMany(ctx, `SELECT `+noteColumns+` FROM notes WHERE $1::text = ANY(favorited_by) `+newestFirst, userID)
}

func (r *PostgresNoteRepository) UpdateNoteContent(ctx context.Context, id, content string) (*models.Note, error) {
	return r.queryOne(ctx, `UPDATE notes SET content = $2, updated_at = now() WHERE id = $1 RETURNING `+noteColumns, id, content)
}

func (r *PostgresNoteRepository) DeleteNote(ctx context.Context, id string) (bool, error) {
	res, err := r.dbClient.ExecContext(ctx, `DELETE FROM notes WHERE id = $1`, id)
	if err != nil {
		return false, fmt.Errorf("failed to delete note from PostgreSQL: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return affected > 0, nil
}

func (r *PostgresNoteRepository) AddFavorite(ctx context.Context, noteID, userID string) (*models.Note, bool, error) {
	return r.toggle(ctx, addFavoriteSQL, noteID, userID)
}

func (r *PostgresNoteRepository) RemoveFavorite(ctx context.Context, noteID, userID string) (*models.Note, bool, error) {
	return r.toggle(ctx, removeFavoriteSQL, noteID, userID)
}

// toggle runs a conditional UPDATE ... RETURNING. No returned row means the
// membership condition did not hold or the note is gone.
func (r *PostgresNoteRepository) toggle(ctx context.Context, query, noteID, userID string) (*models.Note, bool, error) {
	note, err := r.queryOne(ctx, query, noteID, userID)
	if err != nil {
		return nil, false, err
	}
	if note != nil {
		return note, true, nil
	}

	current, err := r.GetNoteByID(ctx, noteID)
	if err != nil {
		return nil, false, err
	}
	return current, false, nil
}

func (r *PostgresNoteRepository) queryOne(ctx context.Context, query string, args ...interface{}) (*models.Note, error) {
	note, err := scanNote(r.dbClient.QueryRowContext(ctx, query, args...))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to query note in PostgreSQL: %w", err)
	}
	return note, nil
}

func (r *PostgresNoteRepository) queryMany(ctx context.Context, query string, args ...interface{}) ([]*models.Note, error) {
	rows, err := r.dbClient.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list notes from PostgreSQL: %w", err)
	}
	defer rows.Close()

	notes := []*models.Note{}
	for rows.Next() {
		note, err := scanNote(rows)
		if err != nil {
			return nil, err
		}
		notes = append(notes, note)
	}
	return notes, rows.Err()
}

func scanNote(row scanner) (*models.Note, error) {
	var note models.Note
	var favoritedBy pq.StringArray
	err := row.Scan(&note.ID, &note.Content, &note.AuthorID, &favoritedBy, &note.FavoriteCount, &note.CreatedAt, &note.UpdatedAt)
	if err != nil {
		return nil, err
	}
	note.FavoritedBy = []string(favoritedBy)
	if note.FavoritedBy == nil {
		note.FavoritedBy = []string{}
	}
	return &note, nil
}

// EnsureIndices creates the notes table and its indexes.
func (r *PostgresNoteRepository) EnsureIndices(ctx context.Context) error {
	return r.dbClient.EnsureSchema(ctx, constants.NotesCollection, notesTableDDL)
}

// Close closes the PostgreSQL database connection.
func (r *PostgresNoteRepository) Close(ctx context.Context) error {
	return r.dbClient.Disconnect(ctx)
}
