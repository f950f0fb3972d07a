package connectors

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"
)

// Page is one row of a Notion database.
type Page struct {
	ID             string                   `json:"id"`
	CreatedTime    time.Time                `json:"created_time"`
	LastEditedTime time.Time                `json:"last_edited_time"`
	URL            string                   `json:"url"`
	Archived       bool                     `json:"archived"`
	InTrash        bool                     `json:"in_trash"`
	Parent         Parent                   `json:"parent"`
	Properties     map[string]PropertyValue `json:"properties"`
}

type Parent struct {
	Type       string `json:"type"`
	DatabaseID string `json:"database_id,omitempty"`
}

// InDatabase reports whether the page's parent is the given database. Notion
// ids compare equal with or without dashes.
func (p *Page) InDatabase(databaseID string) bool {
	return p.Parent.Type == "database_id" && normalizeID(p.Parent.DatabaseID) == normalizeID(databaseID)
}

func normalizeID(id string) string {
	return strings.ToLower(strings.ReplaceAll(id, "-", ""))
}

// PropertyValue is a tagged property value; Type names which field is set.
type PropertyValue struct {
	ID             string     `json:"id,omitempty"`
	Type           string     `json:"type"`
	Title          []RichText `json:"title,omitempty"`
	RichText       []RichText `json:"rich_text,omitempty"`
	Select         *Option    `json:"select,omitempty"`
	Status         *Option    `json:"status,omitempty"`
	MultiSelect    []Option   `json:"multi_select,omitempty"`
	People         []User     `json:"people,omitempty"`
	Relation       []Relation `json:"relation,omitempty"`
	Date           *DateValue `json:"date,omitempty"`
	Checkbox       *bool      `json:"checkbox,omitempty"`
	Number         *float64   `json:"number,omitempty"`
	Email          *string    `json:"email,omitempty"`
	PhoneNumber    *string    `json:"phone_number,omitempty"`
	URL            *string    `json:"url,omitempty"`
	Formula        *Formula   `json:"formula,omitempty"`
	UniqueID       *UniqueID  `json:"unique_id,omitempty"`
	CreatedTime    *string    `json:"created_time,omitempty"`
	LastEditedTime *string    `json:"last_edited_time,omitempty"`
}

type RichText struct {
	Type      string `json:"type,omitempty"`
	PlainText string `json:"plain_text"`
	Href      string `json:"href,omitempty"`
}

type Option struct {
	ID    string `json:"id,omitempty"`
	Name  string `json:"name"`
	Color string `json:"color,omitempty"`
}

type User struct {
	ID   string `json:"id"`
	Name string `json:"name,omitempty"`
}

type Relation struct {
	ID string `json:"id"`
}

type DateValue struct {
	Start    string  `json:"start"`
	End      *string `json:"end,omitempty"`
	TimeZone *string `json:"time_zone,omitempty"`
}

type Formula struct {
	Type    string     `json:"type"`
	String  *string    `json:"string,omitempty"`
	Number  *float64   `json:"number,omitempty"`
	Boolean *bool      `json:"boolean,omitempty"`
	Date    *DateValue `json:"date,omitempty"`
}

type UniqueID struct {
	Prefix *string `json:"prefix,omitempty"`
	Number *int64  `json:"number,omitempty"`
}

// QueryRequest is one page request against a database.
type QueryRequest struct {
	StartCursor string
	PageSize    int
	EditedAfter *time.Time // server-side last_edited_time filter
}

// QueryResponse is one page of database results.
type QueryResponse struct {
	Results    []Page  `json:"results"`
	HasMore    bool    `json:"has_more"`
	NextCursor *string `json:"next_cursor"`
}

// Cursor returns the next cursor or "" when there is none.
func (r *QueryResponse) Cursor() string {
	if r.NextCursor == nil {
		return ""
	}
	return *r.NextCursor
}

// Source is a paginated record source keyed by opaque page IDs.
type Source interface {
	QueryDatabase(ctx context.Context, req QueryRequest) (*QueryResponse, error)
	RetrievePage(ctx context.Context, pageID string) (*Page, error)
	SourceID() string
}

// APIError is the error body Notion returns with non-2xx responses.
type APIError struct {
	Status  int    `json:"status"`
	Code    string `json:"code"`
	Message string `json:"message"`
}

func (e *APIError) Error() string {
	return fmt.Sprintf("notion api: %d %s: %s", e.Status, e.Code, e.Message)
}

// IsNotFound reports whether err is a Notion 404.
func IsNotFound(err error) bool {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr.Status == http.StatusNotFound || apiErr.Code == "object_not_found"
	}
	return false
}
