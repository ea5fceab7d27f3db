package models

import (
	"slices"
	"time"
)

// Note is a piece of text owned by a user and favorited by any number of users.
// FavoriteCount mirrors len(FavoritedBy).
type Note struct {
	ID            string    `mapstructure:"id" db:"id"`
	Content       string    `mapstructure:"content" db:"content"`
	AuthorID      string    `mapstructure:"author" db:"author"`
	FavoritedBy   []string  `mapstructure:"favoritedBy" db:"favorited_by"`
	FavoriteCount int       `mapstructure:"favoriteCount" db:"favorite_count"`
	CreatedAt     time.Time `mapstructure:"createdAt" db:"created_at"`
	UpdatedAt     time.Time `mapstructure:"updatedAt" db:"updated_at"`
}

// NewNote creates an unfavorited note owned by authorID.
func NewNote(content, authorID string) *Note {
	return &Note{
		Content:     content,
		AuthorID:    authorID,
		FavoritedBy: []string{},
	}
}

// IsOwnedBy reports whether userID authored the note.
func (n *Note) IsOwnedBy(userID string) bool {
	return userID != "" && n.AuthorID == userID
}

// IsFavoritedBy reports whether userID is in the note's favoritedBy set.
func (n *Note) IsFavoritedBy(userID string) bool {
	return slices.Contains(n.FavoritedBy, userID)
}

// NoteFeed is one page of the note feed, newest first.
type NoteFeed struct {
	Notes       []*Note
	Cursor      string
	HasNextPage bool
}
