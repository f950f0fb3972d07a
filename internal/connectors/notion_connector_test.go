package connectors

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

const samplePage = `{
  "object": "page",
  "id": "A1",
  "created_time": "2024-03-01T10:00:00.000Z",
  "last_edited_time": "2024-03-02T11:30:00.000Z",
  "url": "https://www.notion.so/A1",
  "archived": false,
  "properties": {
    "Name": {"id": "title", "type": "title", "title": [{"type": "text", "plain_text": "Ada "}, {"type": "text", "plain_text": "Lovelace"}]},
    "Sport": {"id": "s1", "type": "multi_select", "multi_select": [{"name": "Soccer"}, {"name": "Tennis"}]},
    "Member Status": {"id": "m1", "type": "select", "select": null},
    "Active": {"id": "c1", "type": "checkbox", "checkbox": false}
  }
}`

func newTestConnector(t *testing.T, handler http.HandlerFunc) *NotionConnector {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return NewNotionConnector(NotionConfig{
		BaseURL:    srv.URL,
		Token:      "secret_test",
		Version:    "2022-06-28",
		DatabaseID: "db-1",
		RateLimit:  1000,
	}, zap.NewNop())
}

func TestQueryDatabaseSendsCursorAndFilter(t *testing.T) {
	since := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)

	c := newTestConnector(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/v1/databases/db-1/query", r.URL.Path)
		assert.Equal(t, "Bearer secret_test", r.Header.Get("Authorization"))
		assert.Equal(t, "2022-06-28", r.Header.Get("Notion-Version"))

		var body map[string]any
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, "cur-1", body["start_cursor"])
		assert.Equal(t, float64(100), body["page_size"])
		filter := body["filter"].(map[string]any)
		assert.Equal(t, "last_edited_time", filter["timestamp"])
		assert.Equal(t, "2024-03-01T00:00:00Z", filter["last_edited_time"].(map[string]any)["after"])

		_, _ = w.Write([]byte(`{"object":"list","results":[` + samplePage + `],"has_more":true,"next_cursor":"cur-2"}`))
	})

	resp, err := c.QueryDatabase(context.Background(), QueryRequest{StartCursor: "cur-1", PageSize: 500, EditedAfter: &since})
	require.NoError(t, err)
	require.Len(t, resp.Results, 1)
	assert.True(t, resp.HasMore)
	assert.Equal(t, "cur-2", resp.Cursor())

	page := resp.Results[0]
	assert.Equal(t, "A1", page.ID)
	assert.Equal(t, time.Date(2024, 3, 2, 11, 30, 0, 0, time.UTC), page.LastEditedTime.UTC())
	assert.Equal(t, "title", page.Properties["Name"].Type)
	assert.Len(t, page.Properties["Name"].Title, 2)
	assert.Nil(t, page.Properties["Member Status"].Select)
	require.NotNil(t, page.Properties["Active"].Checkbox)
	assert.False(t, *page.Properties["Active"].Checkbox)
}

func TestQueryDatabaseLastPageHasNoCursor(t *testing.T) {
	c := newTestConnector(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"object":"list","results":[],"has_more":false,"next_cursor":null}`))
	})

	resp, err := c.QueryDatabase(context.Background(), QueryRequest{})
	require.NoError(t, err)
	assert.False(t, resp.HasMore)
	assert.Empty(t, resp.Cursor())
}

func TestAPIErrorDecoding(t *testing.T) {
	c := newTestConnector(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		_, _ = w.Write([]byte(`{"object":"error","status":404,"code":"object_not_found","message":"Could not find page"}`))
	})

	_, err := c.RetrievePage(context.Background(), "missing")
	require.Error(t, err)
	assert.True(t, IsNotFound(err))

	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, "object_not_found", apiErr.Code)
}

func TestRateLimitedRequestIsRetried(t *testing.T) {
	var calls int32
	c := newTestConnector(t, func(w http.ResponseWriter, r *http.Request) {
		if atomic.AddInt32(&calls, 1) == 1 {
			w.Header().Set("Retry-After", "0")
			w.WriteHeader(http.StatusTooManyRequests)
			_, _ = w.Write([]byte(`{"object":"error","status":429,"code":"rate_limited","message":"slow down"}`))
			return
		}
		_, _ = w.Write([]byte(samplePage))
	})

	page, err := c.RetrievePage(context.Background(), "A1")
	require.NoError(t, err)
	assert.Equal(t, "A1", page.ID)
	assert.Equal(t, int32(2), atomic.LoadInt32(&calls))
}

func TestUnauthorizedIsNotRetried(t *testing.T) {
	var calls int32
	c := newTestConnector(t, func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		w.WriteHeader(http.StatusUnauthorized)
		_, _ = w.Write([]byte(`not json`))
	})

	_, err := c.QueryDatabase(context.Background(), QueryRequest{})
	require.Error(t, err)
	assert.False(t, IsNotFound(err))
	assert.Contains(t, err.Error(), "not json")
	assert.Equal(t, int32(1), atomic.LoadInt32(&calls))
}
