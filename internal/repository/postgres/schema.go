package postgres

const usersTableDDL = `
CREATE TABLE IF NOT EXISTS users (
	id         TEXT PRIMARY KEY,
	username   TEXT NOT NULL UNIQUE,
	email      TEXT NOT NULL UNIQUE,
	password   TEXT NOT NULL,
	avatar     TEXT NOT NULL DEFAULT '',
	created_at TIMESTAMPTZ NOT NULL DEFAULT now(),
	updated_at TIMESTAMPTZ NOT NULL DEFAULT now()
)`

// Note ids are version 7 uuids, so byte order (COLLATE "C") is creation order.
const notesTableDDL = `
CREATE TABLE IF NOT EXISTS notes (
	id             TEXT PRIMARY KEY,
	content        TEXT NOT NULL,
	author         TEXT NOT NULL REFERENCES users(id) ON DELETE CASCADE,
	favorited_by   TEXT[] NOT NULL DEFAULT '{}',
	favorite_count INT NOT NULL DEFAULT 0 CHECK (favorite_count >= 0),
	created_at     TIMESTAMPTZ NOT NULL DEFAULT now(),
	updated_at     TIMESTAMPTZ NOT NULL DEFAULT now()
);
CREATE INDEX IF NOT EXISTS notes_order_idx ON notes (id COLLATE "C");
CREATE INDEX IF NOT EXISTS notes_author_idx ON notes (author);
CREATE INDEX IF NOT EXISTS notes_favorited_by_idx ON notes USING GIN (favorited_by)`

const (
	userColumns = `id, username, email, password, avatar, created_at, updated_at`
	noteColumns = `id, content, author, favorited_by, favorite_count, created_at, updated_at`

	newestFirst = `ORDER BY id COLLATE "C" DESC`
)
