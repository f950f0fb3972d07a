// Package contacttest provides an in-memory ContactRepository for tests.
package contacttest

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"

	"go-confops/internal/features/contact"
)

// MemoryRepository keeps contacts in a map keyed by notion_id. The Fail*
// fields inject errors for specific calls.
type MemoryRepository struct {
	mu   sync.Mutex
	rows map[string]contact.Contact

	FailInsert    map[string]error
	FailUpdate    map[string]error
	FailFind      map[string]error
	FailSetStatus error
	FailListKeys  error
	FailCount     error

	Inserts  int
	Updates  int
	SetCalls [][]string
}

var _ contact.ContactRepository = (*MemoryRepository)(nil)

func NewMemoryRepository(seed ...contact.Contact) *MemoryRepository {
	r := &MemoryRepository{
		rows:       map[string]contact.Contact{},
		FailInsert: map[string]error{},
		FailUpdate: map[string]error{},
		FailFind:   map[string]error{},
	}
	for _, c := range seed {
		if c.SyncStatus == "" {
			c.SyncStatus = contact.SyncStatusSynced
		}
		r.rows[c.NotionID] = clone(c)
	}
	return r
}

func clone(c contact.Contact) contact.Contact {
	out := c
	for _, col := range []string{"sport", "sport_role", "governance_group", "liaison_compliance",
		"liaison_championships", "liaison_officiating", "liaison_student_welfare", "liaison_communications"} {
		src := c.ListField(col)
		if *src != nil {
			*out.ListField(col) = append([]string(nil), (*src)...)
		}
	}
	if c.AdditionalProperties != nil {
		out.AdditionalProperties = make(map[string]any, len(c.AdditionalProperties))
		for k, v := range c.AdditionalProperties {
			out.AdditionalProperties[k] = v
		}
	}
	return out
}

// Get returns a copy of the stored row.
func (r *MemoryRepository) Get(notionID string) (contact.Contact, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	c, ok := r.rows[notionID]
	return clone(c), ok
}

// Len returns the number of stored rows, whatever their status.
func (r *MemoryRepository) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.rows)
}

func (r *MemoryRepository) Insert(ctx context.Context, c *contact.Contact) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if err := r.FailInsert[c.NotionID]; err != nil {
		return err
	}
	if _, exists := r.rows[c.NotionID]; exists {
		return fmt.Errorf("contact %s already exists", c.NotionID)
	}
	row := clone(*c)
	if row.SyncStatus == "" {
		row.SyncStatus = contact.SyncStatusSynced
	}
	r.rows[c.NotionID] = row
	r.Inserts++
	return nil
}

func (r *MemoryRepository) Update(ctx context.Context, c *contact.Contact) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if err := r.FailUpdate[c.NotionID]; err != nil {
		return err
	}
	existing, ok := r.rows[c.NotionID]
	if !ok {
		return contact.ErrNotFound
	}
	row := clone(*c)
	row.SyncStatus = existing.SyncStatus
	r.rows[c.NotionID] = row
	r.Updates++
	return nil
}

func (r *MemoryRepository) FindByNotionID(ctx context.Context, notionID string) (*contact.Contact, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if err := r.FailFind[notionID]; err != nil {
		return nil, err
	}
	c, ok := r.rows[notionID]
	if !ok {
		return nil, contact.ErrNotFound
	}
	out := clone(c)
	return &out, nil
}

func (r *MemoryRepository) ListSyncKeys(ctx context.Context) ([]contact.SyncKey, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.FailListKeys != nil {
		return nil, r.FailListKeys
	}
	keys := make([]contact.SyncKey, 0, len(r.rows))
	for _, c := range r.rows {
		keys = append(keys, contact.SyncKey{
			NotionID:             c.NotionID,
			NotionLastEditedTime: c.NotionLastEditedTime,
			SyncStatus:           c.SyncStatus,
		})
	}
	sort.Slice(keys, func(i, j int) bool { return keys[i].NotionID < keys[j].NotionID })
	return keys, nil
}

func (r *MemoryRepository) SetStatus(ctx context.Context, notionIDs []string, status contact.SyncStatus) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if len(notionIDs) == 0 {
		return 0, nil
	}
	r.SetCalls = append(r.SetCalls, append([]string(nil), notionIDs...))
	if r.FailSetStatus != nil {
		return 0, r.FailSetStatus
	}
	var n int64
	for _, id := range notionIDs {
		if c, ok := r.rows[id]; ok {
			c.SyncStatus = status
			r.rows[id] = c
			n++
		}
	}
	return n, nil
}

func (r *MemoryRepository) CountByStatus(ctx context.Context) (map[contact.SyncStatus]int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.FailCount != nil {
		return nil, r.FailCount
	}
	counts := map[contact.SyncStatus]int64{}
	for _, c := range r.rows {
		counts[c.SyncStatus]++
	}
	return counts, nil
}

func (r *MemoryRepository) List(ctx context.Context, filter contact.ContactFilter) ([]contact.Contact, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	var out []contact.Contact
	for _, c := range r.rows {
		if filter.Status != "" && c.SyncStatus != filter.Status {
			continue
		}
		if filter.Sport != "" && !contains(c.Sport, filter.Sport) {
			continue
		}
		if q := strings.ToLower(filter.Search); q != "" &&
			!strings.Contains(strings.ToLower(c.Name), q) && !strings.Contains(strings.ToLower(c.Email), q) {
			continue
		}
		out = append(out, clone(c))
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Name != out[j].Name {
			return out[i].Name < out[j].Name
		}
		return out[i].NotionID < out[j].NotionID
	})

	if filter.Offset > 0 {
		if filter.Offset >= int64(len(out)) {
			return nil, nil
		}
		out = out[filter.Offset:]
	}
	if filter.Limit > 0 && int64(len(out)) > filter.Limit {
		out = out[:filter.Limit]
	}
	return out, nil
}

func contains(list []string, v string) bool {
	for _, item := range list {
		if item == v {
			return true
		}
	}
	return false
}
