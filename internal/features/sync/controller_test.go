package sync

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"go-confops/internal/config"
	"go-confops/internal/features/contact/contacttest"
	"go-confops/pkg/utils"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

// stubService records the arguments it was called with.
type stubService struct {
	err       error
	since     *time.Time
	notionID  string
	trigger   Trigger
	incrCalls int
}

func (s *stubService) result() (*Result, error) {
	if s.err != nil {
		return nil, s.err
	}
	return &Result{Success: true, LogID: "log-1", Errors: []string{}}, nil
}

func (s *stubService) FullSync(ctx context.Context, trigger Trigger) (*Result, error) {
	s.trigger = trigger
	return s.result()
}

func (s *stubService) IncrementalSync(ctx context.Context, since *time.Time, trigger Trigger) (*Result, error) {
	s.since, s.trigger = since, trigger
	s.incrCalls++
	return s.result()
}

func (s *stubService) SyncRecord(ctx context.Context, notionID string, trigger Trigger) (*Result, error) {
	s.notionID, s.trigger = notionID, trigger
	return s.result()
}

func (s *stubService) Status(ctx context.Context) (*StatusReport, error) {
	if s.err != nil {
		return nil, s.err
	}
	return &StatusReport{RecentLogs: []SyncLog{}}, nil
}

func (s *stubService) ListLogs(ctx context.Context, limit int) ([]SyncLog, error) {
	return []SyncLog{{ID: fmt.Sprintf("limit-%d", limit)}}, nil
}

func newSyncApp(t *testing.T, svc SyncService) *fiber.App {
	t.Helper()
	app := fiber.New()
	ctrl := NewSyncController(svc, NewEventHub(), zaptest.NewLogger(t))
	NewSyncApi(ctrl, &config.Config{SkipAuth: true}).Setup(app)
	return app
}

func TestTriggerRoutes(t *testing.T) {
	stub := &stubService{}
	app := newSyncApp(t, stub)

	resp, err := app.Test(httptest.NewRequest(http.MethodPost, "/api/sync/full", nil))
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)
	assert.Equal(t, TriggerAPI, stub.trigger)

	var res Result
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&res))
	assert.True(t, res.Success)
	assert.Equal(t, "log-1", res.LogID)

	resp, err = app.Test(httptest.NewRequest(http.MethodPost, "/api/sync/contacts/abc123", nil))
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)
	assert.Equal(t, "abc123", stub.notionID)
}

func TestIncrementalRouteParsesSince(t *testing.T) {
	stub := &stubService{}
	app := newSyncApp(t, stub)

	resp, err := app.Test(httptest.NewRequest(http.MethodPost, "/api/sync/incremental?since=2024-02-01T00:00:00Z", nil))
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)
	require.NotNil(t, stub.since)
	assert.Equal(t, ts("2024-02-01T00:00:00Z"), stub.since.UTC())

	req := httptest.NewRequest(http.MethodPost, "/api/sync/incremental", strings.NewReader(`{"since":"2024-03-01T08:30:00Z"}`))
	req.Header.Set("Content-Type", "application/json")
	resp, err = app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)
	require.NotNil(t, stub.since)
	assert.Equal(t, ts("2024-03-01T08:30:00Z"), stub.since.UTC())

	resp, err = app.Test(httptest.NewRequest(http.MethodPost, "/api/sync/incremental", nil))
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)
	assert.Nil(t, stub.since, "no since means the default window")

	calls := stub.incrCalls
	resp, err = app.Test(httptest.NewRequest(http.MethodPost, "/api/sync/incremental?since=yesterday", nil))
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusBadRequest, resp.StatusCode)
	assert.Equal(t, calls, stub.incrCalls)
}

func TestRunErrorsMapToStatusCodes(t *testing.T) {
	cases := []struct {
		err  error
		code int
	}{
		{ErrSyncInProgress, fiber.StatusConflict},
		{fmt.Errorf("%w: %w", ErrSourceUnavailable, errors.New("timeout")), fiber.StatusBadGateway},
		{errors.New("open sync log: disk full"), fiber.StatusInternalServerError},
	}
	for _, tc := range cases {
		app := newSyncApp(t, &stubService{err: tc.err})
		resp, err := app.Test(httptest.NewRequest(http.MethodPost, "/api/sync/full", nil))
		require.NoError(t, err)
		assert.Equal(t, tc.code, resp.StatusCode, tc.err.Error())

		var body map[string]string
		require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
		assert.Equal(t, tc.err.Error(), body["error"])
	}
}

func TestStatusAndLogsRoutes(t *testing.T) {
	app := newSyncApp(t, &stubService{})

	resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/api/sync/logs?limit=5", nil))
	require.NoError(t, err)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	var logs struct {
		Data []SyncLog `json:"data"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&logs))
	require.Len(t, logs.Data, 1)
	assert.Equal(t, "limit-5", logs.Data[0].ID)

	resp, err = app.Test(httptest.NewRequest(http.MethodGet, "/api/sync/status", nil))
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)

	app = newSyncApp(t, &stubService{err: errors.New("contact stats: boom")})
	resp, err = app.Test(httptest.NewRequest(http.MethodGet, "/api/sync/status", nil))
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusInternalServerError, resp.StatusCode)
}

func TestWebsocketRouteRequiresUpgrade(t *testing.T) {
	app := newSyncApp(t, &stubService{})

	resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/api/sync/ws", nil))
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusUpgradeRequired, resp.StatusCode)
}

func TestWebsocketTokenTravelsInSubprotocol(t *testing.T) {
	utils.SetSecret("ws-test-secret")
	t.Cleanup(func() { utils.SetSecret(config.DefaultJWTSecret) })
	token, err := utils.GenerateToken("viewer-1", []string{"viewer"}, time.Hour)
	require.NoError(t, err)

	app := fiber.New()
	ctrl := NewSyncController(&stubService{}, NewEventHub(), zaptest.NewLogger(t))
	NewSyncApi(ctrl, &config.Config{}).Setup(app)

	req := httptest.NewRequest(http.MethodGet, "/api/sync/ws", nil)
	req.Header.Set(fiber.HeaderSecWebSocketProtocol, "bearer, "+token)
	resp, err := app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusUpgradeRequired, resp.StatusCode, "authenticated, then rejected for not upgrading")

	resp, err = app.Test(httptest.NewRequest(http.MethodGet, "/api/sync/ws?token="+token, nil))
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusUnauthorized, resp.StatusCode, "query string tokens are not accepted")

	resp, err = app.Test(httptest.NewRequest(http.MethodGet, "/api/sync/ws", nil))
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusUnauthorized, resp.StatusCode)
}

func TestFullSyncOverHTTPWithRealService(t *testing.T) {
	h := newHarness(t, newFakeSource(contactPage("A1", "Ada", "2024-02-01T00:00:00Z")), contacttest.NewMemoryRepository())
	app := newSyncApp(t, h.svc)

	resp, err := app.Test(httptest.NewRequest(http.MethodPost, "/api/sync/full", nil))
	require.NoError(t, err)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)

	var res Result
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&res))
	assert.Equal(t, 1, res.RecordsCreated)
	assert.Equal(t, []string{}, res.Errors)
}
