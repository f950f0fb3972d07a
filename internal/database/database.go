package database

import (
	"context"
	"database/sql"
	"fmt"
	"log"
	"time"

	"go-confops/internal/config"

	_ "github.com/lib/pq"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.uber.org/fx"
)

// Store holds the connection for whichever backend is configured. Exactly one
// of SQL and Mongo is set.
type Store struct {
	Backend string
	SQL     *sql.DB
	Mongo   *mongo.Database
}

// Open connects to the configured backend and verifies the connection.
func Open(ctx context.Context, cfg *config.Config) (*Store, error) {
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	switch cfg.StoreBackend {
	case config.BackendPostgres:
		db, err := sql.Open("postgres", cfg.DatabaseURL)
		if err != nil {
			return nil, fmt.Errorf("failed to open postgres: %w", err)
		}
		if err := db.PingContext(ctx); err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("failed to ping postgres: %w", err)
		}
		db.SetMaxOpenConns(10)
		db.SetMaxIdleConns(5)
		log.Println("Connected to Postgres!")
		return &Store{Backend: config.BackendPostgres, SQL: db}, nil

	case config.BackendMongoDB:
		client, err := mongo.Connect(ctx, options.Client().ApplyURI(cfg.MongoURI))
		if err != nil {
			return nil, fmt.Errorf("failed to connect to mongodb: %w", err)
		}
		if err := client.Ping(ctx, nil); err != nil {
			_ = client.Disconnect(context.Background())
			return nil, fmt.Errorf("failed to ping mongodb: %w", err)
		}
		log.Println("Connected to MongoDB!")
		return &Store{Backend: config.BackendMongoDB, Mongo: client.Database(cfg.DBName)}, nil
	}

	return nil, fmt.Errorf("unsupported store backend: %s", cfg.StoreBackend)
}

// Close releases the underlying connection.
func (s *Store) Close(ctx context.Context) error {
	if s.SQL != nil {
		return s.SQL.Close()
	}
	if s.Mongo != nil {
		return s.Mongo.Client().Disconnect(ctx)
	}
	return nil
}

// Ping checks the connection is still usable.
func (s *Store) Ping(ctx context.Context) error {
	if s.SQL != nil {
		return s.SQL.PingContext(ctx)
	}
	if s.Mongo != nil {
		return s.Mongo.Client().Ping(ctx, nil)
	}
	return fmt.Errorf("no store configured")
}

// Migrate brings the schema (postgres) or indexes (mongodb) up to date.
func (s *Store) Migrate(ctx context.Context) error {
	if s.SQL != nil {
		return migratePostgres(ctx, s.SQL)
	}
	if s.Mongo != nil {
		return ensureMongoIndexes(ctx, s.Mongo)
	}
	return nil
}

// NewDatabase creates the store connection with lifecycle management
func NewDatabase(lc fx.Lifecycle, cfg *config.Config) (*Store, error) {
	store, err := Open(context.Background(), cfg)
	if err != nil {
		return nil, err
	}

	lc.Append(fx.Hook{
		OnStop: func(ctx context.Context) error {
			log.Printf("Disconnecting from %s...", store.Backend)
			return store.Close(ctx)
		},
	})

	return store, nil
}
