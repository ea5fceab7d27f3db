package mongo

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/haguru/notedly/internal/interfaces"
	"github.com/haguru/notedly/internal/models"
	"github.com/haguru/notedly/internal/repository/constants"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	mongosdk "go.mongodb.org/mongo-driver/mongo"
)

// noteDocument is the BSON shape of a note. Author and favoritedBy hold user id hex strings.
type noteDocument struct {
	ID            primitive.ObjectID `bson:"_id,omitempty"`
	Content       string             `bson:"content"`
	Author        string             `bson:"author"`
	FavoritedBy   []string           `bson:"favoritedBy"`
	FavoriteCount int                `bson:"favoriteCount"`
	CreatedAt     time.Time          `bson:"createdAt"`
	UpdatedAt     time.Time          `bson:"updatedAt"`
}

func (d *noteDocument) toModel() *models.Note {
	favoritedBy := d.FavoritedBy
	if favoritedBy == nil {
		favoritedBy = []string{}
	}
	return &models.Note{
		ID:            d.ID.Hex(),
		Content:       d.Content,
		AuthorID:      d.Author,
		FavoritedBy:   favoritedBy,
		FavoriteCount: d.FavoriteCount,
		CreatedAt:     d.CreatedAt,
		UpdatedAt:     d.UpdatedAt,
	}
}

var newestFirst = bson.D{{Key: "_id", Value: -1}}

// MongoNoteRepository implements NoteRepository on top of a DocumentClient.
type MongoNoteRepository struct {
	dbClient interfaces.DocumentClient
}

func NewMongoNoteRepository(dbClient interfaces.DocumentClient) (*MongoNoteRepository, error) {
	if dbClient == nil {
		return nil, fmt.Errorf("dbClient cannot be nil")
	}
	return &MongoNoteRepository{dbClient: dbClient}, nil
}

// CreateNote inserts note with a fresh ObjectID and returns the stored note.
func (r *MongoNoteRepository) CreateNote(ctx context.Context, note models.Note) (*models.Note, error) {
	now := time.Now().UTC().Truncate(time.Millisecond)
	doc := noteDocument{
		ID:            primitive.NewObjectID(),
		Content:       note.Content,
		Author:        note.AuthorID,
		FavoritedBy:   []string{},
		FavoriteCount: 0,
		CreatedAt:     now,
		UpdatedAt:     now,
	}

	if _, err := r.dbClient.InsertOne(ctx, constants.NotesCollection, doc); err != nil {
		return nil, fmt.Errorf("failed to add note to MongoDB: %w", err)
	}
	return doc.toModel(), nil
}

func (r *MongoNoteRepository) GetNoteByID(ctx context.Context, id string) (*models.Note, error) {
	objID, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, nil
	}

	var doc noteDocument
	err = r.dbClient.FindOne(ctx, constants.NotesCollection, bson.M{"_id": objID}, &doc)
	if err != nil {
		if errors.Is(err, interfaces.ErrDocumentNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get note from MongoDB: %w", err)
	}
	return doc.toModel(), nil
}

func (r *MongoNoteRepository) ListNotes(ctx context.Context, limit int) ([]*models.Note, error) {
	return r.findMany(ctx, bson.M{}, limit)
}

// ListNotesBefore relies on ObjectIDs growing with insertion time. An unknown
// or malformed cursor matches nothing.
func (r *MongoNoteRepository) ListNotesBefore(ctx context.Context, cursor string, limit int) ([]*models.Note, error) {
	if cursor == "" {
		return r.findMany(ctx, bson.M{}, limit)
	}
	objID, err := primitive.ObjectIDFromHex(cursor)
	if err != nil {
		return []*models.Note{}, nil
	}
	return r.findMany(ctx, bson.M{"_id": bson.M{"$lt": objID}}, limit)
}

func (r *MongoNoteRepository) ListNotesByAuthor(ctx context.Context, authorID string) ([]*models.Note, error) {
	return r.findMany(ctx, bson.M{"author": authorID}, 0)
}

// ListFavoritesByUser matches notes whose favoritedBy array contains userID.
func (r *MongoNoteRepository) ListFavoritesByUser(ctx context.Context, userID string) ([]*models.Note, error) {
	return r.findMany(ctx, bson.M{"favoritedBy": userID}, 0)
}

func (r *MongoNoteRepository) findMany(ctx context.Context, filter bson.M, limit int) ([]*models.Note, error) {
	var docs []noteDocument
	opts := interfaces.FindOptions{Sort: newestFirst, Limit: int64(limit)}
	if err := r.dbClient.FindMany(ctx, constants.NotesCollection, filter, opts, &docs); err != nil {
		return nil, fmt.Errorf("failed to list notes from MongoDB: %w", err)
	}
	notes := make([]*models.Note, 0, len(docs))
	for i := range docs {
		notes = append(notes, docs[i].toModel())
	}
	return notes, nil
}

// UpdateNoteContent replaces the content and returns the updated note, or nil when it does not exist.
func (r *MongoNoteRepository) UpdateNoteContent(ctx context.Context, id, content string) (*models.Note, error) {
	objID, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, nil
	}
	update := bson.M{"$set": bson.M{"content": content, "updatedAt": time.Now().UTC()}}
	return r.findOneAndUpdate(ctx, bson.M{"_id": objID}, update)
}

func (r *MongoNoteRepository) DeleteNote(ctx context.Context, id string) (bool, error) {
	objID, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return false, nil
	}
	deleted, err := r.dbClient.DeleteOne(ctx, constants.NotesCollection, bson.M{"_id": objID})
	if err != nil {
		return false, fmt.Errorf("failed to delete note from MongoDB: %w", err)
	}
	return deleted > 0, nil
}

// AddFavorite pushes userID and increments the count only while userID is not a member.
func (r *MongoNoteRepository) AddFavorite(ctx context.Context, noteID, userID string) (*models.Note, bool, error) {
	objID, err := primitive.ObjectIDFromHex(noteID)
	if err != nil {
		return nil, false, nil
	}
	filter := bson.M{"_id": objID, "favoritedBy": bson.M{"$ne": userID}}
	update := bson.M{
		"$addToSet": bson.M{"favoritedBy": userID},
		"$inc":      bson.M{"favoriteCount": 1},
	}
	return r.toggle(ctx, objID, filter, update)
}

// RemoveFavorite pulls userID and decrements the count only while userID is a member.
func (r *MongoNoteRepository) RemoveFavorite(ctx context.Context, noteID, userID string) (*models.Note, bool, error) {
	objID, err := primitive.ObjectIDFromHex(noteID)
	if err != nil {
		return nil, false, nil
	}
	filter := bson.M{"_id": objID, "favoritedBy": userID}
	update := bson.M{
		"$pull": bson.M{"favoritedBy": userID},
		"$inc":  bson.M{"favoriteCount": -1},
	}
	return r.toggle(ctx, objID, filter, update)
}

// toggle applies a conditional update. When the condition does not hold the
// current note is returned with applied=false.
func (r *MongoNoteRepository) toggle(ctx context.Context, objID primitive.ObjectID, filter, update bson.M) (*models.Note, bool, error) {
	note, err := r.findOneAndUpdate(ctx, filter, update)
	if err != nil {
		return nil, false, err
	}
	if note != nil {
		return note, true, nil
	}

	current, err := r.GetNoteByID(ctx, objID.Hex())
	if err != nil {
		return nil, false, err
	}
	return current, false, nil
}

func (r *MongoNoteRepository) findOneAndUpdate(ctx context.Context, filter, update bson.M) (*models.Note, error) {
	var doc noteDocument
	err := r.dbClient.FindOneAndUpdate(ctx, constants.NotesCollection, filter, update, &doc)
	if err != nil {
		if errors.Is(err, interfaces.ErrDocumentNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to update note in MongoDB: %w", err)
	}
	return doc.toModel(), nil
}

// EnsureIndices indexes notes by author and by favoritedBy.
func (r *MongoNoteRepository) EnsureIndices(ctx context.Context) error {
	indexModels := []mongosdk.IndexModel{
		{Keys: bson.D{{Key: "author", Value: 1}}},
		{Keys: bson.D{{Key: "favoritedBy", Value: 1}}},
	}
	return r.dbClient.EnsureSchema(ctx, constants.NotesCollection, indexModels)
}

// Close disconnects the MongoDB client.
func (r *MongoNoteRepository) Close(ctx context.Context) error {
	return r.dbClient.Disconnect(ctx)
}
