package database

import (
	"context"
	"database/sql"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// Collection / table names shared by both backends.
const (
	ContactsTable = "contacts"
	SyncLogTable  = "sync_log"
	AppLogsTable  = "app_logs"
)

// migrations are applied in order; index+1 is the version.
var migrations = [][]string{
	{
		`CREATE TABLE IF NOT EXISTS contacts (
			id BIGSERIAL PRIMARY KEY,
			notion_id TEXT NOT NULL UNIQUE,
			name TEXT,
			first_name TEXT,
			last_name TEXT,
			email TEXT,
			phone TEXT,
			title TEXT,
			affiliation TEXT,
			department TEXT,
			member_status TEXT,
			birthdate TEXT,
			sport TEXT[],
			sport_role TEXT[],
			governance_group TEXT[],
			liaison_compliance TEXT[],
			liaison_championships TEXT[],
			liaison_officiating TEXT[],
			liaison_student_welfare TEXT[],
			liaison_communications TEXT[],
			additional_properties JSONB NOT NULL DEFAULT '{}'::jsonb,
			notion_created_time TIMESTAMPTZ,
			notion_last_edited_time TIMESTAMPTZ,
			notion_url TEXT,
			sync_status TEXT NOT NULL DEFAULT 'synced' CHECK (sync_status IN ('synced', 'deleted')),
			created_at TIMESTAMPTZ NOT NULL DEFAULT now(),
			updated_at TIMESTAMPTZ NOT NULL DEFAULT now()
		)`,
		`CREATE INDEX IF NOT EXISTS idx_contacts_sync_status ON contacts (sync_status)`,
		`CREATE TABLE IF NOT EXISTS sync_log (
			id UUID PRIMARY KEY,
			sync_type TEXT NOT NULL CHECK (sync_type IN ('full', 'incremental', 'manual')),
			status TEXT NOT NULL CHECK (status IN ('running', 'completed', 'failed')),
			started_at TIMESTAMPTZ NOT NULL,
			completed_at TIMESTAMPTZ,
			records_processed INTEGER NOT NULL DEFAULT 0,
			records_created INTEGER NOT NULL DEFAULT 0,
			records_updated INTEGER NOT NULL DEFAULT 0,
			records_deleted INTEGER NOT NULL DEFAULT 0,
			error_message TEXT,
			sync_details JSONB NOT NULL DEFAULT '{}'::jsonb
		)`,
		`CREATE INDEX IF NOT EXISTS idx_sync_log_started_at ON sync_log (started_at DESC)`,
	},
	{
		`CREATE TABLE IF NOT EXISTS app_logs (
			id BIGSERIAL PRIMARY KEY,
			app_id TEXT NOT NULL,
			level TEXT NOT NULL,
			message TEXT NOT NULL,
			caller TEXT,
			fields JSONB NOT NULL DEFAULT '{}'::jsonb,
			created_at TIMESTAMPTZ NOT NULL DEFAULT now()
		)`,
	},
}

func migratePostgres(ctx context.Context, db *sql.DB) error {
	if _, err := db.ExecContext(ctx, `CREATE TABLE IF NOT EXISTS schema_migrations (
		version INTEGER PRIMARY KEY,
		applied_at TIMESTAMPTZ NOT NULL DEFAULT now()
	)`); err != nil {
		return fmt.Errorf("create schema_migrations: %w", err)
	}

	for i, stmts := range migrations {
		version := i + 1

		var exists int
		if err := db.QueryRowContext(ctx, "SELECT COUNT(*) FROM schema_migrations WHERE version = $1", version).Scan(&exists); err != nil {
			return fmt.Errorf("check migration %d: %w", version, err)
		}
		if exists > 0 {
			continue
		}

		tx, err := db.BeginTx(ctx, nil)
		if err != nil {
			return fmt.Errorf("begin migration %d: %w", version, err)
		}
		for _, stmt := range stmts {
			if _, err := tx.ExecContext(ctx, stmt); err != nil {
				_ = tx.Rollback()
				return fmt.Errorf("migration %d: %w", version, err)
			}
		}
		if _, err := tx.ExecContext(ctx, "INSERT INTO schema_migrations (version) VALUES ($1)", version); err != nil {
			_ = tx.Rollback()
			return fmt.Errorf("record migration %d: %w", version, err)
		}
		if err := tx.Commit(); err != nil {
			return fmt.Errorf("commit migration %d: %w", version, err)
		}
	}
	return nil
}

func ensureMongoIndexes(ctx context.Context, db *mongo.Database) error {
	if _, err := db.Collection(ContactsTable).Indexes().CreateMany(ctx, []mongo.IndexModel{
		{Keys: bson.D{{Key: "notion_id", Value: 1}}, Options: options.Index().SetUnique(true)},
		{Keys: bson.D{{Key: "sync_status", Value: 1}}},
	}); err != nil {
		return fmt.Errorf("contacts indexes: %w", err)
	}
	if _, err := db.Collection(SyncLogTable).Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys: bson.D{{Key: "started_at", Value: -1}},
	}); err != nil {
		return fmt.Errorf("sync_log indexes: %w", err)
	}
	return nil
}
