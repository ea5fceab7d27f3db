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
	"go.mongodb.org/mongo-driver/mongo/options"
)

// userDocument is the BSON shape of a user.
type userDocument struct {
	ID        primitive.ObjectID `bson:"_id,omitempty"`
	Username  string             `bson:"username"`
	Email     string             `bson:"email"`
	Password  string             `bson:"password"`
	Avatar    string             `bson:"avatar"`
	CreatedAt time.Time          `bson:"createdAt"`
	UpdatedAt time.Time          `bson:"updatedAt"`
}

func (d *userDocument) toModel() *models.User {
	return &models.User{
		ID:             d.ID.Hex(),
		Username:       d.Username,
		Email:          d.Email,
		HashedPassword: d.Password,
		Avatar:         d.Avatar,
		CreatedAt:      d.CreatedAt,
		UpdatedAt:      d.UpdatedAt,
	}
}

// MongoUserRepository implements UserRepository on top of a DocumentClient.
type MongoUserRepository struct {
	dbClient interfaces.DocumentClient
}

// NewMongoUserRepository creates a new MongoDB repository instance.
func NewMongoUserRepository(dbClient interfaces.DocumentClient) (*MongoUserRepository, error) {
	if dbClient == nil {
		return nil, fmt.Errorf("dbClient cannot be nil")
	}
	return &MongoUserRepository{dbClient: dbClient}, nil
}

// AddUser saves a new user and returns its ObjectID hex.
func (r *MongoUserRepository) AddUser(ctx context.Context, user models.User) (string, error) {
	now := time.Now().UTC()
	doc := userDocument{
		ID:        primitive.NewObjectID(),
		Username:  user.Username,
		Email:     user.Email,
		Password:  user.HashedPassword,
		Avatar:    user.Avatar,
		CreatedAt: now,
		UpdatedAt: now,
	}

	insertedID, err := r.dbClient.InsertOne(ctx, constants.UsersCollection, doc)
	if err != nil {
		if mongosdk.IsDuplicateKeyError(err) {
			return "", fmt.Errorf("user %q: %w", user.Username, interfaces.ErrDuplicateUser)
		}
		return "", fmt.Errorf("failed to add user to MongoDB: %w", err)
	}

	objID, ok := insertedID.(primitive.ObjectID)
	if !ok {
		return "", fmt.Errorf("failed to assert inserted ID to ObjectID")
	}
	return objID.Hex(), nil
}

func (r *MongoUserRepository) GetUserByID(ctx context.Context, id string) (*models.User, error) {
	objID, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, nil
	}
	return r.findOne(ctx, bson.M{"_id": objID})
}

// GetUserByUsername retrieves a user by exact username.
func (r *MongoUserRepository) GetUserByUsername(ctx context.Context, username string) (*models.User, error) {
	if len(username) == 0 || len(username) > constants.MaxLengthUsername {
		return nil, fmt.Errorf("invalid username: must be between 1 and %d characters", constants.MaxLengthUsername)
	}
	return r.findOne(ctx, bson.M{"username": username})
}

// GetUserByEmail expects an already normalized email.
func (r *MongoUserRepository) GetUserByEmail(ctx context.Context, email string) (*models.User, error) {
	if email == "" {
		return nil, nil
	}
	return r.findOne(ctx, bson.M{"email": email})
}

func (r *MongoUserRepository) findOne(ctx context.Context, filter bson.M) (*models.User, error) {
	var doc userDocument
	err := r.dbClient.FindOne(ctx, constants.UsersCollection, filter, &doc)
	if err != nil {
		if errors.Is(err, interfaces.ErrDocumentNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get user from MongoDB: %w", err)
	}
	return doc.toModel(), nil
}

// GetUsersByIDs returns the users that exist among ids. Malformed ids are skipped.
func (r *MongoUserRepository) GetUsersByIDs(ctx context.Context, ids []string) ([]*models.User, error) {
	objIDs := make([]primitive.ObjectID, 0, len(ids))
	for _, id := range ids {
		if objID, err := primitive.ObjectIDFromHex(id); err == nil {
			objIDs = append(objIDs, objID)
		}
	}
	if len(objIDs) == 0 {
		return []*models.User{}, nil
	}
	return r.findMany(ctx, bson.M{"_id": bson.M{"$in": objIDs}})
}

// ListUsers returns every user in creation order.
func (r *MongoUserRepository) ListUsers(ctx context.Context) ([]*models.User, error) {
	return r.findMany(ctx, bson.M{})
}

func (r *MongoUserRepository) findMany(ctx context.Context, filter bson.M) ([]*models.User, error) {
	var docs []userDocument
	opts := interfaces.FindOptions{Sort: bson.D{{Key: "_id", Value: 1}}}
	if err := r.dbClient.FindMany(ctx, constants.UsersCollection, filter, opts, &docs); err != nil {
		return nil, fmt.Errorf("failed to list users from MongoDB: %w", err)
	}
	users := make([]*models.User, 0, len(docs))
	for i := range docs {
		users = append(users, docs[i].toModel())
	}
	return users, nil
}

// EnsureIndices creates the unique username and email indexes.
func (r *MongoUserRepository) EnsureIndices(ctx context.Context) error {
	indexModels := []mongosdk.IndexModel{
		{
			Keys:    bson.D{{Key: "username", Value: 1}},
			Options: options.Index().SetUnique(true),
		},
		{
			Keys:    bson.D{{Key: "email", Value: 1}},
			Options: options.Index().SetUnique(true),
		},
	}
	return r.dbClient.EnsureSchema(ctx, constants.UsersCollection, indexModels)
}

// Close disconnects the MongoDB client.
func (r *MongoUserRepository) Close(ctx context.Context) error {
	return r.dbClient.Disconnect(ctx)
}
