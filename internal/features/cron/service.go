package cron_feature

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"go-confops/internal/config"
	sync_feature "go-confops/internal/features/sync"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"
)

var ErrJobNotFound = errors.New("scheduled job not found")

type CronService interface {
	InitializeScheduler(ctx context.Context) error
	StopScheduler() error
	ListJobs() []ScheduledJob
	ExecuteJob(ctx context.Context, name string) (*sync_feature.Result, error)
}

type syncJob struct {
	name     string
	schedule string
	syncType sync_feature.SyncType
	run      func(ctx context.Context) (*sync_feature.Result, error)

	entryID   cron.EntryID
	lastLogID string
	lastError string
}

type CronServiceImpl struct {
	syncService sync_feature.SyncService
	logger      *zap.Logger

	scheduler *cron.Cron
	jobs      []*syncJob
	mu        sync.RWMutex
}

func NewCronService(syncService sync_feature.SyncService, cfg *config.Config, logger *zap.Logger) CronService {
	s := &CronServiceImpl{
		syncService: syncService,
		logger:      logger.Named("cron"),
	}
	s.jobs = []*syncJob{
		{
			name:     JobIncrementalSync,
			schedule: cfg.IncrementalSchedule,
			syncType: sync_feature.SyncTypeIncremental,
			run: func(ctx context.Context) (*sync_feature.Result, error) {
				return syncService.IncrementalSync(ctx, nil, sync_feature.TriggerCron)
			},
		},
		{
			name:     JobFullSync,
			schedule: cfg.FullSchedule,
			syncType: sync_feature.SyncTypeFull,
			run: func(ctx context.Context) (*sync_feature.Result, error) {
				return syncService.FullSync(ctx, sync_feature.TriggerCron)
			},
		},
	}
	return s
}

// InitializeScheduler registers every job with a non-empty schedule and
// starts the scheduler. An unparsable schedule fails startup.
func (s *CronServiceImpl) InitializeScheduler(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.logger.Info("Initializing cron scheduler...")
	s.scheduler = cron.New(cron.WithLogger(cron.PrintfLogger(zap.NewStdLog(s.logger))))

	for _, job := range s.jobs {
		if job.schedule == "" {
			s.logger.Info("Schedule disabled", zap.String("job", job.name))
			continue
		}
		if _, err := cron.ParseStandard(job.schedule); err != nil {
			return fmt.Errorf("invalid schedule %q for %s: %w", job.schedule, job.name, err)
		}

		entryID, err := s.scheduler.AddFunc(job.schedule, func() {
			s.execute(context.Background(), job)
		})
		if err != nil {
			return fmt.Errorf("failed to add %s to scheduler: %w", job.name, err)
		}
		job.entryID = entryID
		s.logger.Info("Registered sync schedule", zap.String("job", job.name), zap.String("schedule", job.schedule))
	}

	s.scheduler.Start()
	return nil
}

func (s *CronServiceImpl) StopScheduler() error {
	s.mu.RLock()
	scheduler := s.scheduler
	s.mu.RUnlock()

	if scheduler != nil {
		ctx := scheduler.Stop()
		<-ctx.Done()
	}
	return nil
}

func (s *CronServiceImpl) execute(ctx context.Context, job *syncJob) (*sync_feature.Result, error) {
	result, err := job.run(ctx)

	s.mu.Lock()
	defer s.mu.Unlock()
	switch {
	case errors.Is(err, sync_feature.ErrSyncInProgress):
		s.logger.Info("Skipping scheduled sync, another run is in progress", zap.String("job", job.name))
	case err != nil:
		job.lastError = err.Error()
		s.logger.Error("Scheduled sync failed", zap.String("job", job.name), zap.Error(err))
	default:
		job.lastLogID = result.LogID
		job.lastError = ""
		if !result.Success {
			job.lastError = fmt.Sprintf("%d record errors", len(result.Errors))
		}
	}
	return result, err
}

// ExecuteJob runs the named job immediately, outside its schedule.
func (s *CronServiceImpl) ExecuteJob(ctx context.Context, name string) (*sync_feature.Result, error) {
	for _, job := range s.jobs {
		if job.name == name {
			return s.execute(ctx, job)
		}
	}
	return nil, ErrJobNotFound
}

func (s *CronServiceImpl) ListJobs() []ScheduledJob {
	s.mu.RLock()
	defer s.mu.RUnlock()

	jobs := make([]ScheduledJob, 0, len(s.jobs))
	for _, job := range s.jobs {
		view := ScheduledJob{
			Name:      job.name,
			Schedule:  job.schedule,
			SyncType:  job.syncType,
			LastLogID: job.lastLogID,
			LastError: job.lastError,
		}
		if s.scheduler != nil && job.entryID != 0 {
			entry := s.scheduler.Entry(job.entryID)
			view.Active = entry.Valid()
			view.NextRun = timePtr(entry.Next)
			view.PrevRun = timePtr(entry.Prev)
		}
		jobs = append(jobs, view)
	}
	sort.Slice(jobs, func(i, j int) bool { return jobs[i].Name < jobs[j].Name })
	return jobs
}

func timePtr(t time.Time) *time.Time {
	if t.IsZero() {
		return nil
	}
	return &t
}
