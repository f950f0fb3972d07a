package sync

import (
	"context"
	"sort"
	"strconv"
	"sync"
	"testing"
	"time"

	"go-confops/internal/connectors"
	"go-confops/internal/features/contact/contacttest"

	"go.uber.org/zap/zaptest"
)

const testDatabaseID = "db-1"

// fakeSource serves a fixed set of pages, pageSize at a time, with cursors
// being result offsets.
type fakeSource struct {
	mu       sync.Mutex
	pages    []connectors.Page
	pageSize int
	queryErr error
	// failAfter fails every query once this many have succeeded; <0 disables.
	failAfter int
	queries   []connectors.QueryRequest
	// gate blocks QueryDatabase until closed, when set.
	gate    chan struct{}
	entered chan struct{}
}

func newFakeSource(pages ...connectors.Page) *fakeSource {
	return &fakeSource{pages: pages, failAfter: -1}
}

func (f *fakeSource) SourceID() string { return testDatabaseID }

func (f *fakeSource) QueryDatabase(ctx context.Context, req connectors.QueryRequest) (*connectors.QueryResponse, error) {
	if f.entered != nil {
		f.entered <- struct{}{}
	}
	if f.gate != nil {
		<-f.gate
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	f.queries = append(f.queries, req)
	if f.queryErr != nil {
		return nil, f.queryErr
	}
	if f.failAfter >= 0 && len(f.queries) > f.failAfter {
		return nil, &connectors.APIError{Status: 502, Code: "bad_gateway", Message: "upstream"}
	}

	var matched []connectors.Page
	for _, p := range f.pages {
		if req.EditedAfter != nil && !p.LastEditedTime.After(*req.EditedAfter) {
			continue
		}
		matched = append(matched, p)
	}

	start := 0
	if req.StartCursor != "" {
		start, _ = strconv.Atoi(req.StartCursor)
	}
	size := req.PageSize
	if f.pageSize > 0 && f.pageSize < size {
		size = f.pageSize
	}
	end := start + size
	if end > len(matched) {
		end = len(matched)
	}

	resp := &connectors.QueryResponse{Results: append([]connectors.Page(nil), matched[start:end]...)}
	if end < len(matched) {
		next := strconv.Itoa(end)
		resp.HasMore = true
		resp.NextCursor = &next
	}
	return resp, nil
}

func (f *fakeSource) RetrievePage(ctx context.Context, id string) (*connectors.Page, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.queryErr != nil {
		return nil, f.queryErr
	}
	for _, p := range f.pages {
		if p.ID == id {
			out := p
			return &out, nil
		}
	}
	return nil, &connectors.APIError{Status: 404, Code: "object_not_found", Message: "not found"}
}

func (f *fakeSource) setPages(pages ...connectors.Page) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.pages = pages
}

// memoryLogRepository keeps every version of every entry it is given.
type memoryLogRepository struct {
	mu       sync.Mutex
	entries  map[string]SyncLog
	history  []SyncLog
	upsertFn func(log *SyncLog) error
	listErr  error
	nextID   int
}

func newMemoryLogRepository() *memoryLogRepository {
	return &memoryLogRepository{entries: map[string]SyncLog{}}
}

func (r *memoryLogRepository) Upsert(ctx context.Context, log *SyncLog) (string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.upsertFn != nil {
		if err := r.upsertFn(log); err != nil {
			return "", err
		}
	}
	if log.ID == "" {
		r.nextID++
		log.ID = "log-" + strconv.Itoa(r.nextID)
	}
	r.entries[log.ID] = *log
	r.history = append(r.history, *log)
	return log.ID, nil
}

func (r *memoryLogRepository) ListRecent(ctx context.Context, limit int) ([]SyncLog, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.listErr != nil {
		return nil, r.listErr
	}
	logs := make([]SyncLog, 0, len(r.entries))
	for _, l := range r.entries {
		logs = append(logs, l)
	}
	sort.Slice(logs, func(i, j int) bool { return logs[i].StartedAt.After(logs[j].StartedAt) })
	if len(logs) > limit {
		logs = logs[:limit]
	}
	return logs, nil
}

func (r *memoryLogRepository) get(id string) SyncLog {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.entries[id]
}

type harness struct {
	svc      *SyncServiceImpl
	source   *fakeSource
	contacts *contacttest.MemoryRepository
	logs     *memoryLogRepository

	clockMu sync.Mutex
	clock   time.Time
}

func newHarness(t *testing.T, source *fakeSource, contacts *contacttest.MemoryRepository) *harness {
	t.Helper()
	h := &harness{
		source:   source,
		contacts: contacts,
		logs:     newMemoryLogRepository(),
		clock:    time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC),
	}
	h.svc = &SyncServiceImpl{
		Source:   source,
		Contacts: contacts,
		LogRepo:  h.logs,
		Events:   NewEventHub(),
		Logger:   zaptest.NewLogger(t),
		PageSize: 100,
		Window:   24 * time.Hour,
		Now:      h.tick,
	}
	return h
}

// tick advances the fake clock one second per reading.
func (h *harness) tick() time.Time {
	h.clockMu.Lock()
	defer h.clockMu.Unlock()
	h.clock = h.clock.Add(time.Second)
	return h.clock
}

func ts(s string) time.Time {
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		panic(err)
	}
	return t
}

func titleProp(text string) connectors.PropertyValue {
	return connectors.PropertyValue{Type: "title", Title: []connectors.RichText{{PlainText: text}}}
}

func contactPage(id, name, edited string) connectors.Page {
	return connectors.Page{
		ID:             id,
		CreatedTime:    ts("2024-01-01T00:00:00Z"),
		LastEditedTime: ts(edited),
		URL:            "https://www.notion.so/" + id,
		Parent:         connectors.Parent{Type: "database_id", DatabaseID: testDatabaseID},
		Properties: map[string]connectors.PropertyValue{
			"Name": titleProp(name),
		},
	}
}
