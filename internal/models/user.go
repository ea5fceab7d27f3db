package models

import (
	"strings"
	"time"
)

// User represents an internal user model for the application/database.
type User struct {
	ID             string    `bson:"-" mapstructure:"id" db:"id"`
	Username       string    `bson:"username" mapstructure:"username" db:"username"`
	Email          string    `bson:"email" mapstructure:"email" db:"email"`
	HashedPassword string    `bson:"password" mapstructure:"password" db:"password"`
	Avatar         string    `bson:"avatar" mapstructure:"avatar" db:"avatar"`
	CreatedAt      time.Time `bson:"createdAt" mapstructure:"createdAt" db:"created_at"`
	UpdatedAt      time.Time `bson:"updatedAt" mapstructure:"updatedAt" db:"updated_at"`
}

// NewUser creates a new User instance. The email is normalized; no other
// validation is performed here.
func NewUser(username, email, hashedPassword, avatar string) *User {
	return &User{
		Username:       username,
		Email:          NormalizeEmail(email),
		HashedPassword: hashedPassword,
		Avatar:         avatar,
	}
}

// NormalizeEmail trims surrounding whitespace and lower-cases the address.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
