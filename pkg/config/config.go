package config

import (
	"fmt"
	"strings"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
)

// Store drivers understood by cmd/httpserver and cmd/movieseed.
const (
	DriverMongoDB  = "mongodb"
	DriverPostgres = "postgres"
	DriverDynamoDB = "dynamodb"
)

var Empty = new(Config)

type Config struct {
	AppEnv       string `envconfig:"APP_ENV"`
	Port         int    `envconfig:"PORT" default:"3000"`
	SentryDSN    string `envconfig:"SENTRY_DSN"`
	AllowOrigins string `envconfig:"ALLOW_ORIGINS" default:"*"`

	// StoreDriver picks the movie.Repository implementation.
	StoreDriver string `envconfig:"STORE_DRIVER" default:"mongodb"`

	// StrictClientErrors answers malformed ids and paging with 400 instead
	// of collapsing them into 500.
	StrictClientErrors bool `envconfig:"STRICT_CLIENT_ERRORS"`

	MongoDB struct {
		URI        string `envconfig:"MONGODB_URI"`
		Database   string `envconfig:"MONGODB_DATABASE" default:"sample_mflix"`
		Collection string `envconfig:"MONGODB_COLLECTION" default:"movies"`
	}
	DB struct {
		Name      string `envconfig:"DB_NAME"`
		Host      string `envconfig:"DB_HOST"`
		Port      int    `envconfig:"DB_PORT"`
		User      string `envconfig:"DB_USER"`
		Pass      string `envconfig:"DB_PASS"`
		EnableSSL bool   `envconfig:"ENABLE_SSL"`
	}
	DynamoDB struct {
		Region       string `envconfig:"DDB_REGION"`
		Endpoint     string `envconfig:"DDB_ENDPOINT"`
		AccessKey    string `envconfig:"DDB_ACCESS_KEY"`
		SecretKey    string `envconfig:"DDB_SECRET_KEY"`
		SessionToken string `envconfig:"DDB_SESSION_TOKEN"`
		MoviesTable  string `envconfig:"DDB_MOVIES_TABLE" default:"movies"`
	}
	Otel struct {
		Endpoint    string `envconfig:"OTEL_EXPORTER_OTLP_ENDPOINT"`
		ServiceName string `envconfig:"OTEL_SERVICE_NAME" default:"movies"`
	}
}

func LoadConfig() (*Config, error) {
	// load default .env file, ignore the error
	_ = godotenv.Load()

	cfg := new(Config)
	err := envconfig.Process("", cfg)
	if err != nil {
		return nil, fmt.Errorf("load config error: %v", err)
	}

	switch cfg.StoreDriver {
	case DriverMongoDB, DriverPostgres, DriverDynamoDB:
	default:
		return nil, fmt.Errorf("load config error: unknown store driver %q", cfg.StoreDriver)
	}

	return cfg, nil
}

// Origins splits AllowOrigins into the list the CORS middleware expects.
func (c *Config) Origins() []string {
	var origins []string
	for _, o := range strings.Split(c.AllowOrigins, ",") {
		if o = strings.TrimSpace(o); o != "" {
			origins = append(origins, o)
		}
	}
	return origins
}
