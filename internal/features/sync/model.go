package sync

import (
	"errors"
	"time"

	"go-confops/internal/features/contact"
)

type SyncType string

const (
	SyncTypeFull        SyncType = "full"
	SyncTypeIncremental SyncType = "incremental"
	SyncTypeManual      SyncType = "manual"
)

type LogStatus string

const (
	LogStatusRunning   LogStatus = "running"
	LogStatusCompleted LogStatus = "completed"
	LogStatusFailed    LogStatus = "failed"
)

// Trigger records what started a run. Stored under sync_details.trigger.
type Trigger string

const (
	TriggerAPI  Trigger = "api"
	TriggerCron Trigger = "cron"
	TriggerCLI  Trigger = "cli"
)

var (
	ErrSyncInProgress    = errors.New("a sync run is already in progress")
	ErrSourceUnavailable = errors.New("notion source unavailable")
)

type SyncLog struct {
	ID               string         `json:"id" bson:"_id"`
	SyncType         SyncType       `json:"sync_type" bson:"sync_type"`
	Status           LogStatus      `json:"status" bson:"status"`
	StartedAt        time.Time      `json:"started_at" bson:"started_at"`
	CompletedAt      *time.Time     `json:"completed_at" bson:"completed_at"`
	RecordsProcessed int            `json:"records_processed" bson:"records_processed"`
	RecordsCreated   int            `json:"records_created" bson:"records_created"`
	RecordsUpdated   int            `json:"records_updated" bson:"records_updated"`
	RecordsDeleted   int            `json:"records_deleted" bson:"records_deleted"`
	ErrorMessage     *string        `json:"error_message" bson:"error_message"`
	SyncDetails      map[string]any `json:"sync_details" bson:"sync_details"`
}

// Result is the summary returned to the caller of a run.
type Result struct {
	Success          bool     `json:"success"`
	LogID            string   `json:"log_id"`
	RecordsProcessed int      `json:"records_processed"`
	RecordsCreated   int      `json:"records_created"`
	RecordsUpdated   int      `json:"records_updated"`
	RecordsDeleted   int      `json:"records_deleted"`
	Errors           []string `json:"errors"`
}

type StatusReport struct {
	RecentLogs   []SyncLog                    `json:"recent_logs"`
	ContactStats map[contact.SyncStatus]int64 `json:"contact_stats"`
	LastSyncTime *time.Time                   `json:"last_sync_time"`
}

const (
	EventSyncStarted  = "sync.started"
	EventSyncFinished = "sync.finished"
)

type SyncEvent struct {
	Type     string    `json:"type"`
	LogID    string    `json:"log_id"`
	SyncType SyncType  `json:"sync_type"`
	Status   LogStatus `json:"status"`
	Result   *Result   `json:"result,omitempty"`
	At       time.Time `json:"at"`
}
