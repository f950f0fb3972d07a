package sync

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync/atomic"
	"time"

	"go-confops/internal/config"
	"go-confops/internal/connectors"
	"go-confops/internal/features/contact"

	"go.uber.org/zap"
)

const (
	fullSyncPageSize = 100
	recentLogLimit   = 10
	sourceSystem     = "notion"
)

type SyncService interface {
	FullSync(ctx context.Context, trigger Trigger) (*Result, error)
	IncrementalSync(ctx context.Context, since *time.Time, trigger Trigger) (*Result, error)
	SyncRecord(ctx context.Context, notionID string, trigger Trigger) (*Result, error)
	Status(ctx context.Context) (*StatusReport, error)
	ListLogs(ctx context.Context, limit int) ([]SyncLog, error)
}

type SyncServiceImpl struct {
	Source   connectors.Source
	Contacts contact.ContactRepository
	LogRepo  SyncLogRepository
	Events   *EventHub
	Metrics  *Metrics
	Logger   *zap.Logger

	PageSize int
	Window   time.Duration
	Now      func() time.Time

	running atomic.Bool
}

func NewSyncService(source connectors.Source, contacts contact.ContactRepository, logRepo SyncLogRepository,
	events *EventHub, metrics *Metrics, cfg *config.Config, logger *zap.Logger) SyncService {
	return &SyncServiceImpl{
		Source:   source,
		Contacts: contacts,
		LogRepo:  logRepo,
		Events:   events,
		Metrics:  metrics,
		Logger:   logger.Named("sync"),
		PageSize: cfg.IncrementalPageSize,
		Window:   cfg.IncrementalWindow,
		Now:      time.Now,
	}
}

// run is the bookkeeping for one open sync log entry.
type run struct {
	log    *SyncLog
	errors []string
}

func (r *run) fail(format string, args ...any) {
	r.errors = append(r.errors, fmt.Sprintf(format, args...))
}

func (s *SyncServiceImpl) now() time.Time {
	if s.Now != nil {
		return s.Now().UTC()
	}
	return time.Now().UTC()
}

func (s *SyncServiceImpl) details(trigger Trigger) map[string]any {
	return map[string]any{
		"system":     sourceSystem,
		"source":     s.Source.SourceID(),
		"invoked_at": s.now().Format(time.RFC3339),
		"trigger":    string(trigger),
	}
}

// begin takes the run lock and opens a running log entry.
func (s *SyncServiceImpl) begin(ctx context.Context, syncType SyncType, details map[string]any) (*run, error) {
	if !s.running.CompareAndSwap(false, true) {
		return nil, ErrSyncInProgress
	}

	log := &SyncLog{
		SyncType:    syncType,
		Status:      LogStatusRunning,
		StartedAt:   s.now(),
		SyncDetails: details,
	}
	if _, err := s.LogRepo.Upsert(ctx, log); err != nil {
		s.running.Store(false)
		return nil, fmt.Errorf("open sync log: %w", err)
	}

	s.Logger.Info("Sync started", zap.String("log_id", log.ID), zap.String("sync_type", string(syncType)))
	s.Events.Publish(SyncEvent{Type: EventSyncStarted, LogID: log.ID, SyncType: syncType, Status: LogStatusRunning, At: log.StartedAt})
	return &run{log: log}, nil
}

// finish finalizes the log entry and releases the run lock. abortErr is set
// when the run stopped before processing records.
func (s *SyncServiceImpl) finish(ctx context.Context, r *run, abortErr error) *Result {
	defer s.running.Store(false)

	completed := s.now()
	r.log.CompletedAt = &completed
	r.log.Status = LogStatusCompleted

	messages := r.errors
	if abortErr != nil {
		messages = append([]string{abortErr.Error()}, messages...)
	}
	if len(messages) > 0 {
		r.log.Status = LogStatusFailed
		msg := strings.Join(messages, "; ")
		r.log.ErrorMessage = &msg
	}

	// The caller's context may already be cancelled; the entry must still close.
	if _, err := s.LogRepo.Upsert(context.WithoutCancel(ctx), r.log); err != nil {
		s.Logger.Error("Failed to finalize sync log", zap.String("log_id", r.log.ID), zap.Error(err))
	}

	result := &Result{
		Success:          r.log.Status == LogStatusCompleted,
		LogID:            r.log.ID,
		RecordsProcessed: r.log.RecordsProcessed,
		RecordsCreated:   r.log.RecordsCreated,
		RecordsUpdated:   r.log.RecordsUpdated,
		RecordsDeleted:   r.log.RecordsDeleted,
		Errors:           append([]string{}, r.errors...),
	}

	fields := []zap.Field{
		zap.String("log_id", r.log.ID),
		zap.String("sync_type", string(r.log.SyncType)),
		zap.Int("processed", result.RecordsProcessed),
		zap.Int("created", result.RecordsCreated),
		zap.Int("updated", result.RecordsUpdated),
		zap.Int("deleted", result.RecordsDeleted),
		zap.Duration("elapsed", completed.Sub(r.log.StartedAt)),
	}
	if result.Success {
		s.Logger.Info("Sync completed", fields...)
	} else {
		s.Logger.Warn("Sync failed", append(fields, zap.Int("errors", len(messages)), zap.String("error", *r.log.ErrorMessage))...)
	}

	s.Metrics.Observe(r.log)
	s.Events.Publish(SyncEvent{Type: EventSyncFinished, LogID: r.log.ID, SyncType: r.log.SyncType, Status: r.log.Status, Result: result, At: completed})
	return result
}

// FullSync reconciles the whole database and soft-deletes contacts that no
// longer appear in it.
func (s *SyncServiceImpl) FullSync(ctx context.Context, trigger Trigger) (*Result, error) {
	r, err := s.begin(ctx, SyncTypeFull, s.details(trigger))
	if err != nil {
		return nil, err
	}

	pages, err := s.fetchAll(ctx)
	if err != nil {
		err = fmt.Errorf("%w: %w", ErrSourceUnavailable, err)
		s.finish(ctx, r, err)
		return nil, err
	}
	r.log.RecordsProcessed = len(pages)

	keys, err := s.Contacts.ListSyncKeys(ctx)
	if err != nil {
		err = fmt.Errorf("list local contacts: %w", err)
		s.finish(ctx, r, err)
		return nil, err
	}
	local := make(map[string]contact.SyncKey, len(keys))
	for _, key := range keys {
		local[key.NotionID] = key
	}

	seen := make(map[string]struct{}, len(pages))
	for _, page := range pages {
		seen[page.ID] = struct{}{}
		draft := Transcode(page)

		existing, ok := local[page.ID]
		switch {
		case !ok:
			if err := s.Contacts.Insert(ctx, draft); err != nil {
				r.fail("insert %s: %v", page.ID, err)
				continue
			}
			r.log.RecordsCreated++

		case draft.NotionLastEditedTime.After(existing.NotionLastEditedTime):
			if err := s.Contacts.Update(ctx, draft); err != nil {
				r.fail("update %s: %v", page.ID, err)
				continue
			}
			if existing.SyncStatus == contact.SyncStatusDeleted && !s.restore(ctx, r, page.ID) {
				continue
			}
			r.log.RecordsUpdated++

		case existing.SyncStatus == contact.SyncStatusDeleted:
			if s.restore(ctx, r, page.ID) {
				r.log.RecordsUpdated++
			}
		}
	}

	var missing []string
	for id, key := range local {
		if _, ok := seen[id]; !ok && key.SyncStatus != contact.SyncStatusDeleted {
			missing = append(missing, id)
		}
	}
	sort.Strings(missing)
	if len(missing) > 0 {
		n, err := s.Contacts.SetStatus(ctx, missing, contact.SyncStatusDeleted)
		if err != nil {
			r.fail("mark %d contacts deleted: %v", len(missing), err)
		} else {
			r.log.RecordsDeleted = int(n)
		}
	}

	return s.finish(ctx, r, nil), nil
}

func (s *SyncServiceImpl) restore(ctx context.Context, r *run, notionID string) bool {
	if _, err := s.Contacts.SetStatus(ctx, []string{notionID}, contact.SyncStatusSynced); err != nil {
		r.fail("restore %s: %v", notionID, err)
		return false
	}
	return true
}

// fetchAll walks every cursor page. A page id seen twice (rows edited while
// paginating can move between cursor pages) is kept once, using the most
// recently edited copy.
func (s *SyncServiceImpl) fetchAll(ctx context.Context) ([]connectors.Page, error) {
	var pages []connectors.Page
	index := map[string]int{}
	req := connectors.QueryRequest{PageSize: fullSyncPageSize}
	for {
		resp, err := s.Source.QueryDatabase(ctx, req)
		if err != nil {
			return nil, err
		}
		for _, page := range resp.Results {
			i, dup := index[page.ID]
			switch {
			case !dup:
				index[page.ID] = len(pages)
				pages = append(pages, page)
			case page.LastEditedTime.After(pages[i].LastEditedTime):
				pages[i] = page
			}
		}
		cursor := resp.Cursor()
		if !resp.HasMore || cursor == "" {
			return pages, nil
		}
		req.StartCursor = cursor
	}
}

// IncrementalSync upserts pages edited after since (default now minus the
// configured window). It reads a single page of results and never changes
// sync_status of existing contacts.
func (s *SyncServiceImpl) IncrementalSync(ctx context.Context, since *time.Time, trigger Trigger) (*Result, error) {
	lower := s.now().Add(-s.window())
	if since != nil {
		lower = since.UTC()
	}

	details := s.details(trigger)
	details["since"] = lower.Format(time.RFC3339)
	r, err := s.begin(ctx, SyncTypeIncremental, details)
	if err != nil {
		return nil, err
	}

	resp, err := s.Source.QueryDatabase(ctx, connectors.QueryRequest{PageSize: s.pageSize(), EditedAfter: &lower})
	if err != nil {
		err = fmt.Errorf("%w: %w", ErrSourceUnavailable, err)
		s.finish(ctx, r, err)
		return nil, err
	}
	r.log.RecordsProcessed = len(resp.Results)
	if resp.HasMore {
		s.Logger.Warn("Incremental window exceeds one page; remaining edits wait for the next run",
			zap.String("log_id", r.log.ID), zap.Int("page_size", s.pageSize()))
	}

	for _, page := range resp.Results {
		s.upsert(ctx, r, page)
	}
	return s.finish(ctx, r, nil), nil
}

// upsert inserts or overwrites one contact without touching sync_status. It
// returns the local row as it was before the write, nil for an insert.
func (s *SyncServiceImpl) upsert(ctx context.Context, r *run, page connectors.Page) (*contact.Contact, bool) {
	draft := Transcode(page)

	existing, err := s.Contacts.FindByNotionID(ctx, page.ID)
	switch {
	case errors.Is(err, contact.ErrNotFound):
		if err := s.Contacts.Insert(ctx, draft); err != nil {
			r.fail("insert %s: %v", page.ID, err)
			return nil, false
		}
		r.log.RecordsCreated++
		return nil, true
	case err != nil:
		r.fail("lookup %s: %v", page.ID, err)
		return nil, false
	}

	if err := s.Contacts.Update(ctx, draft); err != nil {
		r.fail("update %s: %v", page.ID, err)
		return existing, false
	}
	r.log.RecordsUpdated++
	return existing, true
}

// SyncRecord re-reads a single page. Archived or trashed pages, and pages the
// integration can no longer see, are soft-deleted.
func (s *SyncServiceImpl) SyncRecord(ctx context.Context, notionID string, trigger Trigger) (*Result, error) {
	details := s.details(trigger)
	details["notion_id"] = notionID
	r, err := s.begin(ctx, SyncTypeManual, details)
	if err != nil {
		return nil, err
	}

	page, err := s.Source.RetrievePage(ctx, notionID)
	switch {
	case connectors.IsNotFound(err):
		s.markDeleted(ctx, r, notionID)
		return s.finish(ctx, r, nil), nil
	case err != nil:
		err = fmt.Errorf("%w: %w", ErrSourceUnavailable, err)
		s.finish(ctx, r, err)
		return nil, err
	}
	r.log.RecordsProcessed = 1

	if !page.InDatabase(s.Source.SourceID()) {
		r.fail("page %s is not in database %s", notionID, s.Source.SourceID())
		return s.finish(ctx, r, nil), nil
	}
	if page.Archived || page.InTrash {
		s.markDeleted(ctx, r, page.ID)
		return s.finish(ctx, r, nil), nil
	}

	if existing, ok := s.upsert(ctx, r, *page); ok && existing != nil && existing.SyncStatus == contact.SyncStatusDeleted {
		s.restore(ctx, r, page.ID)
	}
	return s.finish(ctx, r, nil), nil
}

func (s *SyncServiceImpl) markDeleted(ctx context.Context, r *run, notionID string) {
	existing, err := s.Contacts.FindByNotionID(ctx, notionID)
	if errors.Is(err, contact.ErrNotFound) {
		return
	}
	if err != nil {
		r.fail("lookup %s: %v", notionID, err)
		return
	}
	if existing.SyncStatus == contact.SyncStatusDeleted {
		return
	}
	n, err := s.Contacts.SetStatus(ctx, []string{notionID}, contact.SyncStatusDeleted)
	if err != nil {
		r.fail("mark %s deleted: %v", notionID, err)
		return
	}
	r.log.RecordsDeleted = int(n)
}

// Status reports the ten most recent runs and contact counts by status.
func (s *SyncServiceImpl) Status(ctx context.Context) (*StatusReport, error) {
	logs, err := s.LogRepo.ListRecent(ctx, recentLogLimit)
	if err != nil {
		return nil, fmt.Errorf("list sync logs: %w", err)
	}
	counts, err := s.Contacts.CountByStatus(ctx)
	if err != nil {
		return nil, fmt.Errorf("contact stats: %w", err)
	}

	stats := map[contact.SyncStatus]int64{
		contact.SyncStatusSynced:  0,
		contact.SyncStatusDeleted: 0,
	}
	for status, n := range counts {
		stats[status] = n
	}

	report := &StatusReport{RecentLogs: logs, ContactStats: stats}
	if len(logs) > 0 {
		report.LastSyncTime = logs[0].CompletedAt
	}
	return report, nil
}

func (s *SyncServiceImpl) ListLogs(ctx context.Context, limit int) ([]SyncLog, error) {
	switch {
	case limit <= 0:
		limit = 20
	case limit > 100:
		limit = 100
	}
	return s.LogRepo.ListRecent(ctx, limit)
}

func (s *SyncServiceImpl) pageSize() int {
	if s.PageSize <= 0 || s.PageSize > 100 {
		return 100
	}
	return s.PageSize
}

func (s *SyncServiceImpl) window() time.Duration {
	if s.Window <= 0 {
		return 24 * time.Hour
	}
	return s.Window
}
