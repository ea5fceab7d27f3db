package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"regexp"
	"sort"
	"strings"
	"time"

	"github.com/haguru/notedly/config"
	"github.com/haguru/notedly/internal/interfaces"

	"github.com/google/uuid"
	_ "github.com/lib/pq" // registers the "postgres" driver
)

const (
	// DefaultMaxOpenConns is the default maximum number of open connections to the database.
	DefaultMaxOpenConns = 10
	// DefaultMaxIdleConns is the default maximum number of idle connections to the database.
	DefaultMaxIdleConns = 5
	// DefaultConnMaxLifetime is the default maximum amount of time a connection may be reused.
	DefaultConnMaxLifetime = 30 * time.Second
)

var identifierPattern = regexp.MustCompile(`^[a-z_][a-z0-9_]*$`)

// PostgresDatabaseClient implements interfaces.SQLClient for PostgreSQL databases.
type PostgresDatabaseClient struct {
	db              *sql.DB
	MaxOpenConns    int           // MaxOpenConns is the maximum number of open connections to the database
	MaxIdleConns    int           // MaxIdleConns is the maximum number of idle connections to the database
	ConnMaxLifetime time.Duration // ConnMaxLifetime is the maximum amount of time a connection may be reused
	logger          interfaces.Logger
}

// NewPostgresDatabaseClient builds a client from the pool options, falling back
// to the package defaults for zero values.
func NewPostgresDatabaseClient(opts config.PostgresServerOptions, logger interfaces.Logger) *PostgresDatabaseClient {
	p := &PostgresDatabaseClient{
		MaxOpenConns:    opts.MaxOpenConns,
		MaxIdleConns:    opts.MaxIdleConns,
		ConnMaxLifetime: opts.ConnMaxLifetime,
		logger:          logger,
	}
	if p.MaxOpenConns <= 0 {
		p.MaxOpenConns = DefaultMaxOpenConns
	}
	if p.MaxIdleConns <= 0 {
		p.MaxIdleConns = DefaultMaxIdleConns
	}
	if p.ConnMaxLifetime <= 0 {
		p.ConnMaxLifetime = DefaultConnMaxLifetime
	}
	return p
}

// Connect establishes a connection to a PostgreSQL database.
func (p *PostgresDatabaseClient) Connect(ctx context.Context, dsn string) error {
	if dsn == "" {
		return fmt.Errorf("PostgresDatabaseClient: DSN is empty")
	}

	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return fmt.Errorf("failed to open PostgreSQL database: %w", err)
	}

	db.SetMaxOpenConns(p.MaxOpenConns)
	db.SetMaxIdleConns(p.MaxIdleConns)
	db.SetConnMaxLifetime(p.ConnMaxLifetime)
	p.db = db

	if err := p.Ping(ctx); err != nil {
		_ = db.Close()
		p.db = nil
		return fmt.Errorf("failed to reach PostgreSQL: %w", err)
	}
	p.logger.Info("PostgresDatabaseClient: connected")
	return nil
}

// Disconnect closes the PostgreSQL database connection.
func (p *PostgresDatabaseClient) Disconnect(ctx context.Context) error {
	if p.db == nil {
		return nil
	}
	p.logger.Info("PostgresDatabaseClient: disconnecting")
	err := p.db.Close()
	p.db = nil
	return err
}

// Ping checks the health of the PostgreSQL connection.
func (p *PostgresDatabaseClient) Ping(ctx context.Context) error {
	if p.db == nil {
		return fmt.Errorf("PostgresDatabaseClient is not connected to a database")
	}
	return p.db.PingContext(ctx)
}

// InsertOne inserts a single row built from a map[string]interface{} and
// returns its id. A uuid is generated when the document has no "id".
func (p *PostgresDatabaseClient) InsertOne(ctx context.Context, tableName string, document interfaces.Document) (interface{}, error) {
	if p.db == nil {
		return nil, fmt.Errorf("PostgresDatabaseClient is not connected to a database")
	}
	docMap, ok := document.(map[string]interface{})
	if !ok {
		return nil, fmt.Errorf("PostgreSQL InsertOne expects document to be map[string]interface{}")
	}
	if !identifierPattern.MatchString(tableName) {
		return nil, fmt.Errorf("PostgreSQL InsertOne: invalid table name %q", tableName)
	}

	row := make(map[string]interface{}, len(docMap)+1)
	for col, val := range docMap {
		row[col] = val
	}
	if _, exists := row["id"]; !exists {
		row["id"] = uuid.New().String()
	}

	query, values, err := buildInsert(tableName, row)
	if err != nil {
		return nil, err
	}

	var insertedID string
	if err := p.db.QueryRowContext(ctx, query, values...).Scan(&insertedID); err != nil {
		return nil, err
	}
	return insertedID, nil
}

// buildInsert renders an INSERT statement with columns in a stable order.
func buildInsert(tableName string, row map[string]interface{}) (string, []interface{}, error) {
	columns := make([]string, 0, len(row))
	for col := range row {
		if !identifierPattern.MatchString(col) {
			return "", nil, fmt.Errorf("PostgreSQL InsertOne: invalid column name %q", col)
		}
		columns = append(columns, col)
	}
	sort.Strings(columns)

	placeholders := make([]string, len(columns))
	values := make([]interface{}, len(columns))
	for i, col := range columns {
		placeholders[i] = fmt.Sprintf("$%d", i+1)
		values[i] = row[col]
	}

	// Table and column names are checked against identifierPattern above.
	query := fmt.Sprintf("INSERT INTO %s (%s) VALUES (%s) RETURNING id",
		tableName,
		strings.Join(columns, ", "),
		strings.Join(placeholders, ", "),
	) // #nosec G201
	return query, values, nil
}

func (p *PostgresDatabaseClient) ExecContext(ctx context.Context, query string, args ...interface{}) (sql.Result, error) {
	if p.db == nil {
		return nil, fmt.Errorf("PostgresDatabaseClient is not connected to a database")
	}
	return p.db.ExecContext(ctx, query, args...)
}

func (p *PostgresDatabaseClient) QueryContext(ctx context.Context, query string, args ...interface{}) (*sql.Rows, error) {
	if p.db == nil {
		return nil, fmt.Errorf("PostgresDatabaseClient is not connected to a database")
	}
	return p.db.QueryContext(ctx, query, args...)
}

// QueryRowContext must only be called on a connected client.
func (p *PostgresDatabaseClient) QueryRowContext(ctx context.Context, query string, args ...interface{}) *sql.Row {
	return p.db.QueryRowContext(ctx, query, args...)
}

// EnsureSchema runs schema, a DDL string, for tableName. Statements must be
// idempotent (CREATE ... IF NOT EXISTS).
func (p *PostgresDatabaseClient) EnsureSchema(ctx context.Context, tableName string, schema interfaces.Document) error {
	if p.db == nil {
		return fmt.Errorf("PostgresDatabaseClient is not connected to a database")
	}

	createStmt, ok := schema.(string)
	if !ok || createStmt == "" {
		return fmt.Errorf("EnsureSchema expects schema to be a DDL statement string for table %s", tableName)
	}
	p.logger.Debug("PostgresDatabaseClient: ensuring schema", "table", tableName)
	_, err := p.db.ExecContext(ctx, createStmt)
	return err
}
