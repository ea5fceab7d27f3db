package mongo

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/haguru/notedly/config"
	"github.com/haguru/notedly/internal/interfaces"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"
)

const (
	MAXPOOLSIZE = 20
	IDFIELD     = "_id"
)

// validOperators lists the query and update operators callers may use.
var validOperators = map[string]bool{
	"$set":      true,
	"$inc":      true,
	"$addToSet": true,
	"$pull":     true,
	"$ne":       true,
	"$lt":       true,
	"$in":       true,
}

// MongoDBClient implements interfaces.DocumentClient for MongoDB.
type MongoDBClient struct {
	ServerOpts       *options.ServerAPIOptions
	client           *mongo.Client
	db               *mongo.Database
	databaseName     string
	timeout          time.Duration
	validCollections map[string]bool // A map to validate collection names
	validFields      map[string]bool // A map to validate field names
	logger           interfaces.Logger
}

// NewMongoDB returns a document client configured from dbConfig. Connect must
// be called before use.
func NewMongoDB(dbConfig *config.MongoDBConfig, logger interfaces.Logger) (*MongoDBClient, error) {
	if dbConfig == nil {
		return nil, fmt.Errorf("MongoDBClient: config cannot be nil")
	}
	if len(dbConfig.ValidCollections) == 0 {
		return nil, fmt.Errorf("MongoDBClient: at least one valid collection is required")
	}

	db := &MongoDBClient{
		timeout:          dbConfig.Timeout,
		databaseName:     dbConfig.DatabaseName,
		validCollections: config.ListToMap(dbConfig.ValidCollections),
		validFields:      config.ListToMap(dbConfig.ValidFields),
		logger:           logger,
	}
	if dbConfig.Options.APIVersion != "" {
		db.ServerOpts = config.BuildServerAPIOptions(dbConfig.Options)
	}

	return db, nil
}

// Connect establishes a connection to the MongoDB database using the provided DSN (Data Source Name).
// The DSN should be in the format "mongodb://<host>:<port>/<database>". The
// configured database name wins over the one in the DSN path.
func (m *MongoDBClient) Connect(ctx context.Context, dsn string) error {
	if dsn == "" {
		return fmt.Errorf("MongoDBClient: DSN is empty")
	}
	if !strings.HasPrefix(dsn, "mongodb://") && !strings.HasPrefix(dsn, "mongodb+srv://") {
		return fmt.Errorf("MongoDBClient: Invalid DSN format, expected 'mongodb://' or 'mongodb+srv://'")
	}

	databaseName := m.databaseName
	if databaseName == "" {
		var err error
		databaseName, err = m.getDBNameFromMongoDSN(dsn)
		if err != nil {
			return fmt.Errorf("MongoDBClient: Failed to extract database name from datasource name(dsn): %v", err)
		}
	}

	if m.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, m.timeout)
		defer cancel()
	}
	clientOptions := options.Client().ApplyURI(dsn)

	if m.ServerOpts != nil {
		clientOptions.SetServerAPIOptions(m.ServerOpts)
	}
	clientOptions.SetMaxPoolSize(MAXPOOLSIZE)
	clientOptions.SetReadPreference(readpref.PrimaryPreferred())

	m.logger.Info("MongoDBClient: connecting", "database", databaseName)
	client, err := mongo.Connect(ctx, clientOptions)
	if err != nil {
		return err
	}

	if err = client.Ping(ctx, readpref.Primary()); err != nil {
		_ = client.Disconnect(context.Background())
		return fmt.Errorf("MongoDBClient: Failed to connect to MongoDB server: %v", err)
	}
	m.logger.Info("MongoDBClient: connected", "database", databaseName)

	m.client = client
	m.databaseName = databaseName
	m.db = client.Database(databaseName)
	return nil
}

// Disconnect closes the connection to the MongoDB database.
func (m *MongoDBClient) Disconnect(ctx context.Context) error {
	if m.client == nil {
		return nil
	}
	m.logger.Info("MongoDBClient: disconnecting")
	err := m.client.Disconnect(ctx)
	m.client = nil
	m.db = nil
	return err
}

// Ping verifies the MongoDB connection health using a ping command.
func (m *MongoDBClient) Ping(ctx context.Context) error {
	if m.client == nil {
		return fmt.Errorf("MongoDBClient is not connected")
	}
	return m.client.Ping(ctx, nil)
}

// collection validates the name against the whitelist and returns the handle.
func (m *MongoDBClient) collection(collectionName string) (*mongo.Collection, error) {
	if collectionName == "" {
		return nil, fmt.Errorf("MongoDBClient: Collection name cannot be empty")
	}
	if !m.validCollections[collectionName] {
		return nil, fmt.Errorf("MongoDBClient: Invalid collection name: %s", collectionName)
	}
	if m.db == nil {
		return nil, fmt.Errorf("MongoDBClient is not connected to a database")
	}
	return m.db.Collection(collectionName), nil
}

// InsertOne inserts a document and returns its ID.
func (m *MongoDBClient) InsertOne(ctx context.Context, collectionName string, document interfaces.Document) (interface{}, error) {
	coll, err := m.collection(collectionName)
	if err != nil {
		return nil, err
	}

	sanitizedDocument, err := m.sanitizeDocument(document)
	if err != nil {
		return nil, err
	}
	m.logger.Debug("MongoDBClient: inserting one", "collection", collectionName)

	res, err := coll.InsertOne(ctx, sanitizedDocument)
	if err != nil {
		return nil, fmt.Errorf("MongoDBClient: Failed to insert one into %s: %w", collectionName, err)
	}

	return res.InsertedID, nil
}

// FindOne retrieves a single document from the specified collection using a filter.
// It decodes the result into the provided variable.
func (m *MongoDBClient) FindOne(ctx context.Context, collectionName string, filter interfaces.Document, result interfaces.Document) error {
	coll, err := m.collection(collectionName)
	if err != nil {
		return err
	}

	sanitizedFilter, err := m.sanitizeDocument(filter)
	if err != nil {
		return err
	}
	m.logger.Debug("MongoDBClient: finding one", "collection", collectionName, "filter", sanitizedFilter)

	err = coll.FindOne(ctx, sanitizedFilter).Decode(result)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return fmt.Errorf("MongoDBClient: no document in %s: %w", collectionName, interfaces.ErrDocumentNotFound)
		}
		return fmt.Errorf("MongoDBClient: Failed to find one in %s: %w", collectionName, err)
	}

	return nil
}

// FindMany decodes every matching document into results (a pointer to a slice).
func (m *MongoDBClient) FindMany(ctx context.Context, collectionName string, filter interfaces.Document, opts interfaces.FindOptions, results interfaces.Document) error {
	coll, err := m.collection(collectionName)
	if err != nil {
		return err
	}

	sanitizedFilter, err := m.sanitizeDocument(filter)
	if err != nil {
		return err
	}
	m.logger.Debug("MongoDBClient: finding many", "collection", collectionName, "filter", sanitizedFilter)

	findOptions := options.Find()
	if opts.Sort != nil {
		findOptions.SetSort(opts.Sort)
	}
	if opts.Limit > 0 {
		findOptions.SetLimit(opts.Limit)
	}

	cursor, err := coll.Find(ctx, sanitizedFilter, findOptions)
	if err != nil {
		return fmt.Errorf("MongoDBClient: Finding many in %s failed: %w", collectionName, err)
	}

	// All closes the cursor.
	if err := cursor.All(ctx, results); err != nil {
		return fmt.Errorf("MongoDBClient: Failed to decode cursor: %w", err)
	}

	return nil
}

// FindOneAndUpdate applies update atomically and decodes the updated document into result.
func (m *MongoDBClient) FindOneAndUpdate(ctx context.Context, collectionName string, filter interfaces.Document, update interfaces.Document, result interfaces.Document) error {
	coll, err := m.collection(collectionName)
	if err != nil {
		return err
	}

	sanitizedFilter, err := m.sanitizeDocument(filter)
	if err != nil {
		return err
	}
	sanitizedUpdate, err := m.sanitizeUpdate(update)
	if err != nil {
		return err
	}
	m.logger.Debug("MongoDBClient: find one and update", "collection", collectionName, "filter", sanitizedFilter, "update", sanitizedUpdate)

	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)
	err = coll.FindOneAndUpdate(ctx, sanitizedFilter, sanitizedUpdate, opts).Decode(result)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return fmt.Errorf("MongoDBClient: no document in %s: %w", collectionName, interfaces.ErrDocumentNotFound)
		}
		return fmt.Errorf("MongoDBClient: Failed find one and update in %s: %w", collectionName, err)
	}
	return nil
}

// DeleteOne removes a single document from the specified collection using a filter.
// Returns the count of deleted documents and an error if the operation fails.
func (m *MongoDBClient) DeleteOne(ctx context.Context, collectionName string, filter interfaces.Document) (int64, error) {
	coll, err := m.collection(collectionName)
	if err != nil {
		return 0, err
	}

	sanitizedFilter, err := m.sanitizeDocument(filter)
	if err != nil {
		return 0, err
	}
	if len(sanitizedFilter) == 0 {
		return 0, fmt.Errorf("MongoDBClient: DeleteOne requires a non-empty filter")
	}

	res, err := coll.DeleteOne(ctx, sanitizedFilter)
	if err != nil {
		return 0, fmt.Errorf("MongoDBClient: Failed deleting one from %s: %w", collectionName, err)
	}

	return res.DeletedCount, nil
}

// EnsureSchema creates indexes on the specified collection. schema must be a
// mongo.IndexModel or a []mongo.IndexModel.
func (m *MongoDBClient) EnsureSchema(ctx context.Context, collectionName string, schema interfaces.Document) error {
	coll, err := m.collection(collectionName)
	if err != nil {
		return err
	}

	var models []mongo.IndexModel
	switch s := schema.(type) {
	case mongo.IndexModel:
		models = []mongo.IndexModel{s}
	case []mongo.IndexModel:
		models = s
	default:
		return fmt.Errorf("EnsureSchema: expected mongo.IndexModel for MongoDB, got %T", schema)
	}
	if len(models) == 0 {
		return nil
	}

	_, err = coll.Indexes().CreateMany(ctx, models)
	return err
}

// getDBNameFromMongoDSN extracts the database name from a MongoDB DSN.
func (m *MongoDBClient) getDBNameFromMongoDSN(dsn string) (string, error) {
	u, err := url.Parse(dsn)
	if err != nil {
		return "", fmt.Errorf("failed to parse MongoDB DSN: %w", err)
	}

	dbName := strings.TrimPrefix(u.Path, "/")
	if dbName == "" {
		return "", fmt.Errorf("no database name found in MongoDB DSN path: %s", dsn)
	}

	if idx := strings.Index(dbName, "/"); idx != -1 {
		dbName = dbName[:idx]
	}

	return dbName, nil
}

// toBSONMap converts maps and structs into a bson.M so keys can be inspected.
func toBSONMap(document interfaces.Document) (bson.M, error) {
	switch doc := document.(type) {
	case nil:
		return bson.M{}, nil
	case bson.M:
		return doc, nil
	case map[string]interface{}:
		return bson.M(doc), nil
	case bson.D:
		return doc.Map(), nil
	default:
		raw, err := bson.Marshal(doc)
		if err != nil {
			return nil, fmt.Errorf("MongoDBClient: cannot encode document of type %T: %w", document, err)
		}
		out := bson.M{}
		if err := bson.Unmarshal(raw, &out); err != nil {
			return nil, fmt.Errorf("MongoDBClient: cannot decode document of type %T: %w", document, err)
		}
		return out, nil
	}
}

// sanitizeDocument rejects documents and filters that reference fields outside
// the whitelist, unknown operators, or keys that could be used for NoSQL
// injection. The _id field is allowed at the top level.
func (m *MongoDBClient) sanitizeDocument(document interfaces.Document) (bson.M, error) {
	docMap, err := toBSONMap(document)
	if err != nil {
		return nil, err
	}

	sanitized := bson.M{}
	for key, value := range docMap {
		if key != IDFIELD {
			if err := m.checkField(key); err != nil {
				return nil, err
			}
		}
		clean, err := m.sanitizeValue(value)
		if err != nil {
			return nil, err
		}
		sanitized[key] = clean
	}
	return sanitized, nil
}

// sanitizeUpdate accepts only operator documents ({"$set": {...}, "$inc": {...}})
// whose target fields are whitelisted. _id can never be updated.
func (m *MongoDBClient) sanitizeUpdate(update interfaces.Document) (bson.M, error) {
	updateMap, err := toBSONMap(update)
	if err != nil {
		return nil, err
	}
	if len(updateMap) == 0 {
		return nil, fmt.Errorf("MongoDBClient: update document is empty")
	}

	sanitized := bson.M{}
	for operator, fields := range updateMap {
		if !validOperators[operator] {
			return nil, fmt.Errorf("MongoDBClient: unsupported update operator: %s", operator)
		}
		fieldMap, err := toBSONMap(fields)
		if err != nil {
			return nil, err
		}
		cleanFields := bson.M{}
		for field, value := range fieldMap {
			if err := m.checkField(field); err != nil {
				return nil, err
			}
			clean, err := m.sanitizeValue(value)
			if err != nil {
				return nil, err
			}
			cleanFields[field] = clean
		}
		sanitized[operator] = cleanFields
	}
	return sanitized, nil
}

// sanitizeValue checks nested operator expressions such as {"$ne": id}.
func (m *MongoDBClient) sanitizeValue(value interface{}) (interface{}, error) {
	var nested bson.M
	switch v := value.(type) {
	case bson.M:
		nested = v
	case map[string]interface{}:
		nested = bson.M(v)
	default:
		return value, nil
	}

	clean := bson.M{}
	for key, inner := range nested {
		if !validOperators[key] {
			return nil, fmt.Errorf("MongoDBClient: unsupported operator or nested key: %s", key)
		}
		c, err := m.sanitizeValue(inner)
		if err != nil {
			return nil, err
		}
		clean[key] = c
	}
	return clean, nil
}

func (m *MongoDBClient) checkField(key string) error {
	if strings.ContainsAny(key, "$.") {
		return fmt.Errorf("MongoDBClient: unsafe field name: %s", key)
	}
	if !m.validFields[key] {
		return fmt.Errorf("MongoDBClient: invalid field name: %s", key)
	}
	return nil
}
