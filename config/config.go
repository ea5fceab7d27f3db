package config

import (
	"errors"
	"io/fs"
	"os"
	"time"

	"github.com/joho/godotenv"
	"go.mongodb.org/mongo-driver/mongo/options"
	"gopkg.in/yaml.v3"
)

const (
	CONFIG_PATH = "./res/config.yaml"
	ENV_PATH    = ".env"

	// Environment variables understood on top of the YAML file.
	EnvPort      = "PORT"
	EnvDBHost    = "DB_HOST"
	EnvJWTSecret = "JWT_SECRET"
	EnvLogLevel  = "LOG_LEVEL"

	DatabaseTypeMongo    = "mongo"
	DatabaseTypePostgres = "postgres"
	DatabaseTypeMemory   = "memory"
)

// ServiceConfig holds the configuration for the service.
type ServiceConfig struct {
	ServiceName string          `yaml:"service_name" validate:"required"`
	LogLevel    string          `yaml:"loglevel" validate:"required"`
	Host        string          `yaml:"host"`
	Port        string          `yaml:"port" validate:"required"`
	Auth        AuthConfig      `yaml:"auth"`
	GraphQL     GraphQLConfig   `yaml:"graphql"`
	CORS        CORSConfig      `yaml:"cors"`
	RateLimit   RateLimitConfig `yaml:"rate_limit"`
	Database    Database        `yaml:"database"`
}

// AuthConfig controls how identity tokens are signed.
// Either a shared secret (HS256) or an EC private key (ES256) must be set.
type AuthConfig struct {
	JWTSecret      string        `yaml:"jwt_secret" validate:"required_without=PrivateKeyPath"`
	PrivateKeyPath string        `yaml:"private_key_path"`
	Issuer         string        `yaml:"issuer" validate:"required"`
	TokenTTL       time.Duration `yaml:"token_ttl" validate:"gte=0"`
}

type GraphQLConfig struct {
	Path             string `yaml:"path" validate:"required,startswith=/"`
	MaxDepth         int    `yaml:"max_depth" validate:"gt=0"`
	MaxComplexity    int    `yaml:"max_complexity" validate:"gt=0"`
	NotesLimit       int    `yaml:"notes_limit" validate:"gt=0"`
	FeedPageSize     int    `yaml:"feed_page_size" validate:"gt=0"`
	EnablePlayground bool   `yaml:"enable_playground"`
}

type CORSConfig struct {
	AllowedOrigins []string `yaml:"allowed_origins"`
}

type RateLimitConfig struct {
	RequestsPerSecond float64       `yaml:"requests_per_second" validate:"gte=0"`
	Burst             int           `yaml:"burst" validate:"gte=0"`
	RedisAddr         string        `yaml:"redis_addr"`
	RedisPassword     string        `yaml:"redis_password"`
	RedisDB           int           `yaml:"redis_db"`
	Window            time.Duration `yaml:"window"`
	Limit             int           `yaml:"limit" validate:"gte=0"`
}

type Database struct {
	Type string `yaml:"type" validate:"required,oneof=mongo postgres memory"`
	// For MongoDB
	MongoDB MongoDBConfig `yaml:"mongodb_config"`
	// For PostgreSQL
	Postgres PostgresConfig `yaml:"postgres_config"`
}

// MongoDBConfig holds the MongoDB connection settings.
type MongoDBConfig struct {
	DSN              string             `yaml:"dsn"`
	DatabaseName     string             `yaml:"database_name"`
	Timeout          time.Duration      `yaml:"timeout"`
	Options          MongoServerOptions `yaml:"mongo_server_options"`
	ValidCollections []string           `yaml:"valid_collections"`
	ValidFields      []string           `yaml:"valid_fields"`
}

type PostgresConfig struct {
	DSN     string                `yaml:"dsn"`
	Options PostgresServerOptions `yaml:"postgres_server_options"`
}

type MongoServerOptions struct {
	APIVersion           string `yaml:"api_version"`
	SetStrict            bool   `yaml:"set_strict"`
	SetDeprecationErrors bool   `yaml:"set_deprecation_errors"`
}

type PostgresServerOptions struct {
	MaxOpenConns    int           `yaml:"max_open_conns"`
	MaxIdleConns    int           `yaml:"max_idle_conns"`
	ConnMaxLifetime time.Duration `yaml:"conn_max_lifetime"`
}

// ReadLocalConfig reads the service configuration from a YAML file at the specified path.
// It unmarshals the YAML content into a ServiceConfig struct and returns it.
// If there is an error reading the file or unmarshaling the content, it returns an error.
func ReadLocalConfig(configPath string) (*ServiceConfig, error) {
	config := &ServiceConfig{}

	yamlFile, err := os.ReadFile(configPath)
	if err != nil {
		return nil, err
	}

	err = yaml.Unmarshal(yamlFile, config)
	if err != nil {
		return nil, err
	}

	return config, nil
}

// LoadDotEnv loads variables from a .env file into the process environment.
// A missing file is not an error; variables already set are left untouched.
func LoadDotEnv(path string) error {
	err := godotenv.Load(path)
	if err != nil && !errors.Is(err, fs.ErrNotExist) {
		return err
	}
	return nil
}

// ApplyEnvOverrides replaces file settings with PORT, DB_HOST, JWT_SECRET and
// LOG_LEVEL when they are present in the environment. DB_HOST is the
// connection string of whichever database type is configured.
func ApplyEnvOverrides(cfg *ServiceConfig) {
	if port := os.Getenv(EnvPort); port != "" {
		cfg.Port = port
	}
	if secret := os.Getenv(EnvJWTSecret); secret != "" {
		cfg.Auth.JWTSecret = secret
	}
	if level := os.Getenv(EnvLogLevel); level != "" {
		cfg.LogLevel = level
	}
	if dsn := os.Getenv(EnvDBHost); dsn != "" {
		switch cfg.Database.Type {
		case DatabaseTypeMongo:
			cfg.Database.MongoDB.DSN = dsn
		case DatabaseTypePostgres:
			cfg.Database.Postgres.DSN = dsn
		}
	}
}

func BuildServerAPIOptions(cfg MongoServerOptions) *options.ServerAPIOptions {
	opts := options.ServerAPI(options.ServerAPIVersion(cfg.APIVersion))
	opts.SetStrict(cfg.SetStrict)
	opts.SetDeprecationErrors(cfg.SetDeprecationErrors)

	return opts
}

func ListToMap(list []string) map[string]bool {
	result := make(map[string]bool)
	for _, item := range list {
		result[item] = true
	}
	return result
}
