package testhelpers

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"testing"
	"time"

	"go-confops/internal/config"
	"go-confops/internal/database"
)

// PostgresStore returns a migrated, empty Postgres store. The test is skipped
// unless TEST_DATABASE_URL is set.
func PostgresStore(t *testing.T) *database.Store {
	t.Helper()

	dsn := os.Getenv("TEST_DATABASE_URL")
	if dsn == "" {
		t.Skip("TEST_DATABASE_URL not set")
	}

	store := open(t, &config.Config{StoreBackend: config.BackendPostgres, DatabaseURL: dsn})
	for _, table := range []string{database.ContactsTable, database.SyncLogTable, database.AppLogsTable} {
		if _, err := store.SQL.Exec(fmt.Sprintf("TRUNCATE TABLE %s", table)); err != nil {
			t.Fatalf("truncate %s: %v", table, err)
		}
	}
	return store
}

// MongoStore returns a store backed by a fresh, uniquely named database. The
// test is skipped unless TEST_MONGO_URI is set.
func MongoStore(t *testing.T) *database.Store {
	t.Helper()

	uri := os.Getenv("TEST_MONGO_URI")
	if uri == "" {
		t.Skip("TEST_MONGO_URI not set")
	}

	name := fmt.Sprintf("confops_test_%d", time.Now().UnixNano())
	store := open(t, &config.Config{StoreBackend: config.BackendMongoDB, MongoURI: uri, DBName: name})
	t.Cleanup(func() {
		_ = store.Mongo.Drop(context.Background())
	})
	return store
}

func open(t *testing.T, cfg *config.Config) *database.Store {
	t.Helper()
	ctx := context.Background()

	store, err := database.Open(ctx, cfg)
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	t.Cleanup(func() {
		_ = store.Close(context.Background())
	})

	if err := store.Migrate(ctx); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	return store
}

// NullString is a small helper for asserting on nullable text columns.
func NullString(t *testing.T, db *sql.DB, query string, args ...any) sql.NullString {
	t.Helper()
	var v sql.NullString
	if err := db.QueryRow(query, args...).Scan(&v); err != nil {
		t.Fatalf("query %q: %v", query, err)
	}
	return v
}
