package mongo

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/haguru/notedly/internal/interfaces"
	"github.com/haguru/notedly/internal/interfaces/mocks"
	"github.com/haguru/notedly/internal/models"
	"github.com/haguru/notedly/internal/repository/constants"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	mongosdk "go.mongodb.org/mongo-driver/mongo"
)

func TestMongoUserRepository_AddUser(t *testing.T) {
	user := models.NewUser("alice", "Alice@Example.com", "hash", "avatar")
	id := primitive.NewObjectID()

	tests := []struct {
		name      string
		insertID  interface{}
		insertErr error
		want      string
		wantErr   error
	}{
		{name: "inserted", insertID: id, want: id.Hex()},
		{
			name:      "duplicate",
			insertErr: mongosdk.WriteException{WriteErrors: []mongosdk.WriteError{{Code: 11000, Message: "E11000 duplicate key error"}}},
			wantErr:   interfaces.ErrDuplicateUser,
		},
		{name: "driver failure", insertErr: errors.New("boom")},
		{name: "unexpected id type", insertID: "string-id"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			client := mocks.NewMockDocumentClient(t)
			repo, err := NewMongoUserRepository(client)
			require.NoError(t, err)

			client.On("InsertOne", mock.Anything, constants.UsersCollection, mock.MatchedBy(func(doc userDocument) bool {
				return doc.Username == "alice" && doc.Email == "alice@example.com" && doc.Password == "hash" && !doc.CreatedAt.IsZero()
			})).Return(tt.insertID, tt.insertErr)

			got, err := repo.AddUser(context.Background(), *user)
			if tt.want == "" {
				require.Error(t, err)
				if tt.wantErr != nil {
					assert.ErrorIs(t, err, tt.wantErr)
				}
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestMongoUserRepository_GetUserByUsername(t *testing.T) {
	id := primitive.NewObjectID()

	t.Run("invalid username", func(t *testing.T) {
		repo, _ := NewMongoUserRepository(mocks.NewMockDocumentClient(t))
		_, err := repo.GetUserByUsername(context.Background(), "")
		assert.Error(t, err)
		_, err = repo.GetUserByUsername(context.Background(), strings.Repeat("a", constants.MaxLengthUsername+1))
		assert.Error(t, err)
	})

	t.Run("found", func(t *testing.T) {
		client := mocks.NewMockDocumentClient(t)
		repo, _ := NewMongoUserRepository(client)
		client.On("FindOne", mock.Anything, constants.UsersCollection, bson.M{"username": "alice"}, mock.Anything).
			Run(func(args mock.Arguments) {
				doc := args.Get(3).(*userDocument)
				*doc = userDocument{ID: id, Username: "alice", Email: "a@example.com", Password: "hash"}
			}).
			Return(nil)

		user, err := repo.GetUserByUsername(context.Background(), "alice")
		require.NoError(t, err)
		assert.Equal(t, id.Hex(), user.ID)
		assert.Equal(t, "hash", user.HashedPassword)
	})

	t.Run("not found", func(t *testing.T) {
		client := mocks.NewMockDocumentClient(t)
		repo, _ := NewMongoUserRepository(client)
		client.On("FindOne", mock.Anything, constants.UsersCollection, bson.M{"username": "bob"}, mock.Anything).
			Return(fmt.Errorf("wrapped: %w", interfaces.ErrDocumentNotFound))

		user, err := repo.GetUserByUsername(context.Background(), "bob")
		require.NoError(t, err)
		assert.Nil(t, user)
	})
}

func TestMongoUserRepository_GetUserByID(t *testing.T) {
	client := mocks.NewMockDocumentClient(t)
	repo, _ := NewMongoUserRepository(client)

	user, err := repo.GetUserByID(context.Background(), "not-hex")
	require.NoError(t, err)
	assert.Nil(t, user)

	user, err = repo.GetUserByEmail(context.Background(), "")
	require.NoError(t, err)
	assert.Nil(t, user)
}

func TestMongoUserRepository_GetUsersByIDs(t *testing.T) {
	a, b := primitive.NewObjectID(), primitive.NewObjectID()
	client := mocks.NewMockDocumentClient(t)
	repo, _ := NewMongoUserRepository(client)

	client.On("FindMany", mock.Anything, constants.UsersCollection,
		bson.M{"_id": bson.M{"$in": []primitive.ObjectID{a, b}}}, mock.Anything, mock.Anything).
		Run(func(args mock.Arguments) {
			docs := args.Get(4).(*[]userDocument)
			*docs = []userDocument{{ID: a, Username: "a"}, {ID: b, Username: "b"}}
		}).
		Return(nil)

	users, err := repo.GetUsersByIDs(context.Background(), []string{a.Hex(), "junk", b.Hex()})
	require.NoError(t, err)
	require.Len(t, users, 2)
	assert.Equal(t, "a", users[0].Username)

	users, err = repo.GetUsersByIDs(context.Background(), []string{"junk"})
	require.NoError(t, err)
	assert.Empty(t, users)
}

func TestMongoUserRepository_EnsureIndices(t *testing.T) {
	client := mocks.NewMockDocumentClient(t)
	repo, _ := NewMongoUserRepository(client)
	client.On("EnsureSchema", mock.Anything, constants.UsersCollection, mock.MatchedBy(func(idx []mongosdk.IndexModel) bool {
		return len(idx) == 2
	})).Return(nil)

	assert.NoError(t, repo.EnsureIndices(context.Background()))
}
