package cron_feature

import (
	"time"

	sync_feature "go-confops/internal/features/sync"
)

const (
	JobIncrementalSync = "incremental-sync"
	JobFullSync        = "full-sync"
)

// ScheduledJob is the listing view of one registered sync schedule.
type ScheduledJob struct {
	Name      string                `json:"name"`
	Schedule  string                `json:"schedule"`
	SyncType  sync_feature.SyncType `json:"sync_type"`
	Active    bool                  `json:"active"`
	NextRun   *time.Time            `json:"next_run,omitempty"`
	PrevRun   *time.Time            `json:"prev_run,omitempty"`
	LastLogID string                `json:"last_log_id,omitempty"`
	LastError string                `json:"last_error,omitempty"`
}
