package sync

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	"go-confops/internal/database"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type SyncLogRepository interface {
	// Upsert writes the whole entry keyed by its ID, assigning a new ID when
	// empty, and returns the ID.
	Upsert(ctx context.Context, log *SyncLog) (string, error)
	ListRecent(ctx context.Context, limit int) ([]SyncLog, error)
}

func NewSyncLogRepository(store *database.Store) SyncLogRepository {
	if store.Mongo != nil {
		return &MongoSyncLogRepository{collection: store.Mongo.Collection(database.SyncLogTable)}
	}
	return &PostgresSyncLogRepository{db: store.SQL}
}

type PostgresSyncLogRepository struct {
	db *sql.DB
}

func (r *PostgresSyncLogRepository) Upsert(ctx context.Context, log *SyncLog) (string, error) {
	if log.ID == "" {
		log.ID = uuid.NewString()
	}
	details := log.SyncDetails
	if details == nil {
		details = map[string]any{}
	}
	raw, err := json.Marshal(details)
	if err != nil {
		return "", fmt.Errorf("encode sync_details: %w", err)
	}

	query := `INSERT INTO sync_log (id, sync_type, status, started_at, completed_at, records_processed,
		records_created, records_updated, records_deleted, error_message, sync_details)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
		ON CONFLICT (id) DO UPDATE SET
			status = EXCLUDED.status,
			completed_at = EXCLUDED.completed_at,
			records_processed = EXCLUDED.records_processed,
			records_created = EXCLUDED.records_created,
			records_updated = EXCLUDED.records_updated,
			records_deleted = EXCLUDED.records_deleted,
			error_message = EXCLUDED.error_message,
			sync_details = EXCLUDED.sync_details`

	_, err = r.db.ExecContext(ctx, query,
		log.ID, string(log.SyncType), string(log.Status), log.StartedAt, log.CompletedAt,
		log.RecordsProcessed, log.RecordsCreated, log.RecordsUpdated, log.RecordsDeleted,
		log.ErrorMessage, string(raw))
	if err != nil {
		return "", fmt.Errorf("upsert sync log %s: %w", log.ID, err)
	}
	return log.ID, nil
}

func (r *PostgresSyncLogRepository) ListRecent(ctx context.Context, limit int) ([]SyncLog, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT id, sync_type, status, started_at, completed_at,
		records_processed, records_created, records_updated, records_deleted, error_message, sync_details
		FROM sync_log ORDER BY started_at DESC LIMIT $1`, limit)
	if err != nil {
		return nil, fmt.Errorf("query sync logs: %w", err)
	}
	defer rows.Close()

	logs := []SyncLog{}
	for rows.Next() {
		var l SyncLog
		var syncType, status string
		var completed sql.NullTime
		var errMsg sql.NullString
		var raw []byte
		if err := rows.Scan(&l.ID, &syncType, &status, &l.StartedAt, &completed,
			&l.RecordsProcessed, &l.RecordsCreated, &l.RecordsUpdated, &l.RecordsDeleted,
			&errMsg, &raw); err != nil {
			return nil, fmt.Errorf("scan sync log: %w", err)
		}
		l.SyncType, l.Status = SyncType(syncType), LogStatus(status)
		if completed.Valid {
			t := completed.Time
			l.CompletedAt = &t
		}
		if errMsg.Valid {
			msg := errMsg.String
			l.ErrorMessage = &msg
		}
		l.SyncDetails = map[string]any{}
		if len(raw) > 0 {
			if err := json.Unmarshal(raw, &l.SyncDetails); err != nil {
				return nil, fmt.Errorf("decode sync_details: %w", err)
			}
		}
		logs = append(logs, l)
	}
	return logs, rows.Err()
}

type MongoSyncLogRepository struct {
	collection *mongo.Collection
}

func (r *MongoSyncLogRepository) Upsert(ctx context.Context, log *SyncLog) (string, error) {
	if log.ID == "" {
		log.ID = uuid.NewString()
	}
	_, err := r.collection.ReplaceOne(ctx, bson.M{"_id": log.ID}, log, options.Replace().SetUpsert(true))
	if err != nil {
		return "", fmt.Errorf("upsert sync log %s: %w", log.ID, err)
	}
	return log.ID, nil
}

func (r *MongoSyncLogRepository) ListRecent(ctx context.Context, limit int) ([]SyncLog, error) {
	opts := options.Find().SetSort(bson.D{{Key: "started_at", Value: -1}}).SetLimit(int64(limit))
	cursor, err := r.collection.Find(ctx, bson.M{}, opts)
	if err != nil {
		return nil, fmt.Errorf("query sync logs: %w", err)
	}
	defer cursor.Close(ctx)

	logs := []SyncLog{}
	if err := cursor.All(ctx, &logs); err != nil {
		return nil, fmt.Errorf("decode sync logs: %w", err)
	}
	return logs, nil
}
