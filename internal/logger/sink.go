package logger

import (
	"context"
	"database/sql"
	"encoding/json"

	"go-confops/internal/database"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
)

// NewLogSink writes to the app_logs table or collection of the store.
func NewLogSink(store *database.Store) LogSink {
	if store.Mongo != nil {
		return &MongoLogSink{collection: store.Mongo.Collection(database.AppLogsTable)}
	}
	return &PostgresLogSink{db: store.SQL}
}

type PostgresLogSink struct {
	db *sql.DB
}

func (s *PostgresLogSink) WriteLog(ctx context.Context, entry LogEntry) error {
	fields := entry.Fields
	if fields == nil {
		fields = map[string]any{}
	}
	if entry.Logger != "" {
		fields["logger"] = entry.Logger
	}
	raw, err := json.Marshal(fields)
	if err != nil {
		return err
	}
	_, err = s.db.ExecContext(ctx,
		"INSERT INTO app_logs (app_id, level, message, caller, fields, created_at) VALUES ($1, $2, $3, $4, $5, $6)",
		entry.AppID, entry.Level.String(), entry.Message, entry.Caller, string(raw), entry.Time.UTC())
	return err
}

type MongoLogSink struct {
	collection *mongo.Collection
}

func (s *MongoLogSink) WriteLog(ctx context.Context, entry LogEntry) error {
	_, err := s.collection.InsertOne(ctx, bson.M{
		"app_id":     entry.AppID,
		"level":      entry.Level.String(),
		"logger":     entry.Logger,
		"message":    entry.Message,
		"caller":     entry.Caller,
		"fields":     entry.Fields,
		"created_at": entry.Time.UTC(),
	})
	return err
}
