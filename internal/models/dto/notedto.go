package dto

// NewNoteInput carries the newNote mutation arguments.
type NewNoteInput struct {
	Content string `mapstructure:"content" validate:"required,max=10000"`
}

// UpdateNoteInput carries the updateNote mutation arguments.
type UpdateNoteInput struct {
	ID      string `mapstructure:"id" validate:"required"`
	Content string `mapstructure:"content" validate:"required,max=10000"`
}

// NoteIDInput carries the arguments of operations addressing a single note.
type NoteIDInput struct {
	ID string `mapstructure:"id" validate:"required"`
}

// NoteFeedInput carries the noteFeed query arguments.
type NoteFeedInput struct {
	Cursor string `mapstructure:"cursor"`
}
