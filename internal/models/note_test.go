package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNewNote(t *testing.T) {
	note := NewNote("hello", "author-1")

	assert.Equal(t, "hello", note.Content)
	assert.Equal(t, "author-1", note.AuthorID)
	assert.NotNil(t, note.FavoritedBy)
	assert.Empty(t, note.FavoritedBy)
	assert.Zero(t, note.FavoriteCount)
}

func TestNote_IsOwnedBy(t *testing.T) {
	note := &Note{AuthorID: "u1"}

	assert.True(t, note.IsOwnedBy("u1"))
	assert.False(t, note.IsOwnedBy("u2"))
	assert.False(t, note.IsOwnedBy(""))
	assert.False(t, (&Note{}).IsOwnedBy(""))
}

func TestNote_IsFavoritedBy(t *testing.T) {
	note := &Note{FavoritedBy: []string{"u1", "u3"}, FavoriteCount: 2}

	assert.True(t, note.IsFavoritedBy("u1"))
	assert.True(t, note.IsFavoritedBy("u3"))
	assert.False(t, note.IsFavoritedBy("u2"))
}
