package contact

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"go-confops/internal/database"

	"github.com/lib/pq"
)

type ContactRepository interface {
	Insert(ctx context.Context, c *Contact) error
	// Update overwrites every derived column of the row keyed by c.NotionID.
	// It never touches sync_status.
	Update(ctx context.Context, c *Contact) error
	FindByNotionID(ctx context.Context, notionID string) (*Contact, error)
	ListSyncKeys(ctx context.Context) ([]SyncKey, error)
	SetStatus(ctx context.Context, notionIDs []string, status SyncStatus) (int64, error)
	CountByStatus(ctx context.Context) (map[SyncStatus]int64, error)
	List(ctx context.Context, filter ContactFilter) ([]Contact, error)
}

// NewContactRepository picks the implementation for the configured backend.
func NewContactRepository(store *database.Store) ContactRepository {
	if store.Mongo != nil {
		return NewMongoContactRepository(store.Mongo)
	}
	return NewPostgresContactRepository(store.SQL)
}

const contactColumns = `notion_id, name, first_name, last_name, email, phone, title, affiliation,
	department, member_status, birthdate, sport, sport_role, governance_group, liaison_compliance,
	liaison_championships, liaison_officiating, liaison_student_welfare, liaison_communications,
	additional_properties, notion_created_time, notion_last_edited_time, notion_url, sync_status`

type PostgresContactRepository struct {
	db *sql.DB
}

func NewPostgresContactRepository(db *sql.DB) *PostgresContactRepository {
	return &PostgresContactRepository{db: db}
}

// derivedArgs returns the column values after notion_id, up to notion_url.
func derivedArgs(c *Contact) ([]any, error) {
	props := c.AdditionalProperties
	if props == nil {
		props = map[string]any{}
	}
	extra, err := json.Marshal(props)
	if err != nil {
		return nil, fmt.Errorf("encode additional_properties: %w", err)
	}

	return []any{
		nullString(c.Name), nullString(c.FirstName), nullString(c.LastName), nullString(c.Email),
		nullString(c.Phone), nullString(c.Title), nullString(c.Affiliation), nullString(c.Department),
		nullString(c.MemberStatus), nullString(c.Birthdate),
		pq.Array(c.Sport), pq.Array(c.SportRole), pq.Array(c.GovernanceGroup),
		pq.Array(c.LiaisonCompliance), pq.Array(c.LiaisonChampionships), pq.Array(c.LiaisonOfficiating),
		pq.Array(c.LiaisonStudentWelfare), pq.Array(c.LiaisonCommunications),
		string(extra), nullTime(c.NotionCreatedTime), nullTime(c.NotionLastEditedTime), nullString(c.NotionURL),
	}, nil
}

func (r *PostgresContactRepository) Insert(ctx context.Context, c *Contact) error {
	args, err := derivedArgs(c)
	if err != nil {
		return err
	}
	status := c.SyncStatus
	if status == "" {
		status = SyncStatusSynced
	}
	args = append([]any{c.NotionID}, args...)
	args = append(args, string(status))

	placeholders := make([]string, len(args))
	for i := range args {
		placeholders[i] = fmt.Sprintf("$%d", i+1)
	}

	query := fmt.Sprintf("INSERT INTO contacts (%s) VALUES (%s)", contactColumns, strings.Join(placeholders, ", "))
	if _, err := r.db.ExecContext(ctx, query, args...); err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code == "23505" {
			return fmt.Errorf("contact %s already exists: %w", c.NotionID, err)
		}
		return fmt.Errorf("insert contact %s: %w", c.NotionID, err)
	}
	return nil
}

func (r *PostgresContactRepository) Update(ctx context.Context, c *Contact) error {
	args, err := derivedArgs(c)
	if err != nil {
		return err
	}

	query := `UPDATE contacts SET
		name = $2, first_name = $3, last_name = $4, email = $5, phone = $6, title = $7,
		affiliation = $8, department = $9, member_status = $10, birthdate = $11,
		sport = $12, sport_role = $13, governance_group = $14, liaison_compliance = $15,
		liaison_championships = $16, liaison_officiating = $17, liaison_student_welfare = $18,
		liaison_communications = $19, additional_properties = $20, notion_created_time = $21,
		notion_last_edited_time = $22, notion_url = $23, updated_at = now()
		WHERE notion_id = $1`

	res, err := r.db.ExecContext(ctx, query, append([]any{c.NotionID}, args...)...)
	if err != nil {
		return fmt.Errorf("update contact %s: %w", c.NotionID, err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *PostgresContactRepository) FindByNotionID(ctx context.Context, notionID string) (*Contact, error) {
	row := r.db.QueryRowContext(ctx, "SELECT "+contactColumns+" FROM contacts WHERE notion_id = $1", notionID)
	c, err := scanContact(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("find contact %s: %w", notionID, err)
	}
	return c, nil
}

func (r *PostgresContactRepository) ListSyncKeys(ctx context.Context) ([]SyncKey, error) {
	rows, err := r.db.QueryContext(ctx, "SELECT notion_id, notion_last_edited_time, sync_status FROM contacts")
	if err != nil {
		return nil, fmt.Errorf("list sync keys: %w", err)
	}
	defer rows.Close()

	var keys []SyncKey
	for rows.Next() {
		var key SyncKey
		var edited sql.NullTime
		var status string
		if err := rows.Scan(&key.NotionID, &edited, &status); err != nil {
			return nil, fmt.Errorf("scan sync key: %w", err)
		}
		key.NotionLastEditedTime = edited.Time
		key.SyncStatus = SyncStatus(status)
		keys = append(keys, key)
	}
	return keys, rows.Err()
}

func (r *PostgresContactRepository) SetStatus(ctx context.Context, notionIDs []string, status SyncStatus) (int64, error) {
	if len(notionIDs) == 0 {
		return 0, nil
	}
	res, err := r.db.ExecContext(ctx,
		"UPDATE contacts SET sync_status = $1, updated_at = now() WHERE notion_id = ANY($2)",
		string(status), pq.Array(notionIDs))
	if err != nil {
		return 0, fmt.Errorf("set sync_status=%s: %w", status, err)
	}
	return res.RowsAffected()
}

func (r *PostgresContactRepository) CountByStatus(ctx context.Context) (map[SyncStatus]int64, error) {
	rows, err := r.db.QueryContext(ctx, "SELECT sync_status, COUNT(*) FROM contacts GROUP BY sync_status")
	if err != nil {
		return nil, fmt.Errorf("count contacts: %w", err)
	}
	defer rows.Close()

	counts := map[SyncStatus]int64{}
	for rows.Next() {
		var status string
		var n int64
		if err := rows.Scan(&status, &n); err != nil {
			return nil, fmt.Errorf("scan count: %w", err)
		}
		counts[SyncStatus(status)] = n
	}
	return counts, rows.Err()
}

func (r *PostgresContactRepository) List(ctx context.Context, filter ContactFilter) ([]Contact, error) {
	var where []string
	var args []any
	if filter.Status != "" {
		args = append(args, string(filter.Status))
		where = append(where, fmt.Sprintf("sync_status = $%d", len(args)))
	}
	if filter.Sport != "" {
		args = append(args, filter.Sport)
		where = append(where, fmt.Sprintf("$%d = ANY(sport)", len(args)))
	}
	if filter.Search != "" {
		args = append(args, "%"+filter.Search+"%")
		where = append(where, fmt.Sprintf("(name ILIKE $%d OR email ILIKE $%d)", len(args), len(args)))
	}

	query := "SELECT " + contactColumns + " FROM contacts"
	if len(where) > 0 {
		query += " WHERE " + strings.Join(where, " AND ")
	}
	query += " ORDER BY name NULLS LAST, notion_id"
	if filter.Limit > 0 {
		args = append(args, filter.Limit)
		query += fmt.Sprintf(" LIMIT $%d", len(args))
	}
	if filter.Offset > 0 {
		args = append(args, filter.Offset)
		query += fmt.Sprintf(" OFFSET $%d", len(args))
	}

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list contacts: %w", err)
	}
	defer rows.Close()

	var contacts []Contact
	for rows.Next() {
		c, err := scanContact(rows)
		if err != nil {
			return nil, fmt.Errorf("scan contact: %w", err)
		}
		contacts = append(contacts, *c)
	}
	return contacts, rows.Err()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanContact(row rowScanner) (*Contact, error) {
	var c Contact
	var name, first, last, email, phone, title, affiliation, department, member, birthdate, url sql.NullString
	var created, edited sql.NullTime
	var extra []byte
	var status string

	err := row.Scan(&c.NotionID, &name, &first, &last, &email, &phone, &title, &affiliation,
		&department, &member, &birthdate,
		pq.Array(&c.Sport), pq.Array(&c.SportRole), pq.Array(&c.GovernanceGroup),
		pq.Array(&c.LiaisonCompliance), pq.Array(&c.LiaisonChampionships), pq.Array(&c.LiaisonOfficiating),
		pq.Array(&c.LiaisonStudentWelfare), pq.Array(&c.LiaisonCommunications),
		&extra, &created, &edited, &url, &status)
	if err != nil {
		return nil, err
	}

	c.Name, c.FirstName, c.LastName = name.String, first.String, last.String
	c.Email, c.Phone, c.Title = email.String, phone.String, title.String
	c.Affiliation, c.Department, c.MemberStatus = affiliation.String, department.String, member.String
	c.Birthdate, c.NotionURL = birthdate.String, url.String
	c.NotionCreatedTime, c.NotionLastEditedTime = created.Time, edited.Time
	c.SyncStatus = SyncStatus(status)

	c.AdditionalProperties = map[string]any{}
	if len(extra) > 0 {
		if err := json.Unmarshal(extra, &c.AdditionalProperties); err != nil {
			return nil, fmt.Errorf("decode additional_properties: %w", err)
		}
	}
	return &c, nil
}

func nullString(s string) any {
	if s == "" {
		return nil
	}
	return s
}

func nullTime(t time.Time) any {
	if t.IsZero() {
		return nil
	}
	return t
}
