package constants

const (
	UsersCollection = "users"
	NotesCollection = "notes"

	// MaxLengthUsername bounds username lookups before they reach a store.
	MaxLengthUsername = 64
)
