package interfaces

import (
	"context"
	"database/sql"
	"errors"
)

// ErrDocumentNotFound is returned (wrapped) by DocumentClient lookups that match nothing.
var ErrDocumentNotFound = errors.New("document not found")

// Document is a generic interface to represent data that can be stored
// and retrieved from the database. It could be a struct, a map[string]interface{},
// or any type that can be marshaled/unmarshaled by the specific database driver.
type Document interface{}

// FindOptions narrows a FindMany call.
type FindOptions struct {
	// Sort is a driver specific ordering document, e.g. bson.D{{Key: "_id", Value: -1}}.
	Sort Document
	// Limit caps the number of documents returned. Zero means no limit.
	Limit int64
}

// DBClient defines the lifecycle shared by every database client.
type DBClient interface {
	// Connect establishes a connection to the database.
	// It takes a context for cancellation and timeouts, and a DSN (Data Source Name) string.
	// Returns an error if the connection fails.
	Connect(ctx context.Context, dsn string) error

	// Disconnect closes the database connection.
	// Returns an error if the disconnection fails.
	Disconnect(ctx context.Context) error

	// Ping checks the health of the database connection.
	// Returns an error if the database is unreachable or unhealthy.
	Ping(ctx context.Context) error

	// EnsureSchema creates indexes (document stores) or tables (SQL) for a collection/table.
	EnsureSchema(ctx context.Context, collectionName string, schema Document) error
}

// DocumentClient abstracts document store operations (MongoDB).
type DocumentClient interface {
	DBClient

	// InsertOne inserts a single document into the specified collection.
	// Returns the ID of the inserted document.
	InsertOne(ctx context.Context, collectionName string, document Document) (interface{}, error)

	// FindOne decodes the first document matching filter into result.
	// Returns an error wrapping ErrDocumentNotFound when nothing matches.
	FindOne(ctx context.Context, collectionName string, filter Document, result Document) error

	// FindMany decodes every document matching filter into results, which must
	// be a pointer to a slice.
	FindMany(ctx context.Context, collectionName string, filter Document, opts FindOptions, results Document) error

	// FindOneAndUpdate atomically applies update to the first document matching
	// filter and decodes the updated document into result.
	// Returns an error wrapping ErrDocumentNotFound when nothing matches.
	FindOneAndUpdate(ctx context.Context, collectionName string, filter Document, update Document, result Document) error

	// DeleteOne deletes a single document matching filter.
	// Returns the count of deleted documents and an error.
	DeleteOne(ctx context.Context, collectionName string, filter Document) (int64, error)
}

// SQLClient abstracts the relational operations the PostgreSQL repositories need.
type SQLClient interface {
	DBClient

	// InsertOne inserts a row built from a column/value map and returns its id.
	InsertOne(ctx context.Context, tableName string, document Document) (interface{}, error)

	ExecContext(ctx context.Context, query string, args ...interface{}) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...interface{}) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...interface{}) *sql.Row
}
