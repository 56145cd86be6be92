package store

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"
	"time"

	"mflix/dynamodb"
	"mflix/mongodb"
	"mflix/movie"
	"mflix/pkg/config"
	"mflix/postgres"

	_ "github.com/lib/pq"
)

const connectTimeout = 10 * time.Second

// Close releases the connections held by a repository.
type Close func(ctx context.Context) error

// Open builds the movie.Repository selected by cfg.StoreDriver. A failed
// initial MongoDB ping is logged and not returned: the driver keeps
// retrying and requests fail with 500 until the server is reachable.
func Open(ctx context.Context, cfg *config.Config, logger *slog.Logger) (movie.Repository, Close, error) {
	switch cfg.StoreDriver {
	case config.DriverMongoDB:
		return openMongoDB(ctx, cfg, logger)
	case config.DriverPostgres:
		return openPostgres(cfg, logger)
	case config.DriverDynamoDB:
		return openDynamoDB(ctx, cfg, logger)
	}
	return nil, nil, fmt.Errorf("store: unknown driver %q", cfg.StoreDriver)
}

func openMongoDB(ctx context.Context, cfg *config.Config, logger *slog.Logger) (movie.Repository, Close, error) {
	client, err := mongodb.NewClient(mongodb.Options{URI: cfg.MongoDB.URI, ConnectTimeout: connectTimeout})
	if err != nil {
		return nil, nil, fmt.Errorf("store: mongodb client: %w", err)
	}

	pingCtx, cancel := context.WithTimeout(ctx, connectTimeout)
	defer cancel()
	if err := mongodb.Ping(pingCtx, client); err != nil {
		logger.Error("cannot connect to mongodb", "error", err)
	} else {
		logger.Info("connected to mongodb", "database", cfg.MongoDB.Database)
	}

	repo := mongodb.NewMovieRepository(client.Database(cfg.MongoDB.Database), cfg.MongoDB.Collection)
	return repo, client.Disconnect, nil
}

func openPostgres(cfg *config.Config, logger *slog.Logger) (movie.Repository, Close, error) {
	db, err := postgres.NewConnection(postgres.Options{
		DBName:   cfg.DB.Name,
		DBUser:   cfg.DB.User,
		Password: cfg.DB.Pass,
		Host:     cfg.DB.Host,
		Port:     strconv.Itoa(cfg.DB.Port),
		SSLMode:  cfg.DB.EnableSSL,
	})
	if err != nil {
		return nil, nil, fmt.Errorf("store: postgres connection: %w", err)
	}
	sqlDB, err := db.DB()
	if err != nil {
		return nil, nil, fmt.Errorf("store: postgres handle: %w", err)
	}
	logger.Info("connected to postgres", "host", cfg.DB.Host, "database", cfg.DB.Name)

	return postgres.NewMovieRepository(db), func(context.Context) error { return sqlDB.Close() }, nil
}

func openDynamoDB(ctx context.Context, cfg *config.Config, logger *slog.Logger) (movie.Repository, Close, error) {
	client, err := dynamodb.NewClient(ctx, dynamodb.Options{
		Region:       cfg.DynamoDB.Region,
		Endpoint:     cfg.DynamoDB.Endpoint,
		AccessKey:    cfg.DynamoDB.AccessKey,
		SecretKey:    cfg.DynamoDB.SecretKey,
		SessionToken: cfg.DynamoDB.SessionToken,
	})
	if err != nil {
		return nil, nil, fmt.Errorf("store: %w", err)
	}
	repo := dynamodb.NewMovieRepository(client, cfg.DynamoDB.MoviesTable)
	logger.Info("using dynamodb", "region", cfg.DynamoDB.Region, "table", cfg.DynamoDB.MoviesTable)

	return repo, func(context.Context) error { return nil }, nil
}
