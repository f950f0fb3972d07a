package contact_test

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"go-confops/internal/config"
	"go-confops/internal/features/contact"
	"go-confops/internal/features/contact/contacttest"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newContactApp(t *testing.T) *fiber.App {
	t.Helper()
	svc := contact.NewContactService(contacttest.NewMemoryRepository(seedContacts()...))
	app := fiber.New()
	contact.NewContactApi(contact.NewContactController(svc), &config.Config{SkipAuth: true}).Setup(app)
	return app
}

func TestGetContactRoutes(t *testing.T) {
	app := newContactApp(t)

	resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/api/contacts/A1", nil))
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)

	var got contact.Contact
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&got))
	assert.Equal(t, "Ada Lovelace", got.Name)

	resp, err = app.Test(httptest.NewRequest(http.MethodGet, "/api/contacts/missing", nil))
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusNotFound, resp.StatusCode)
}

func TestListAndStatsRoutes(t *testing.T) {
	app := newContactApp(t)

	resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/api/contacts?status=synced&limit=1", nil))
	require.NoError(t, err)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)

	var list struct {
		Data []contact.Contact `json:"data"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&list))
	assert.Len(t, list.Data, 1)

	resp, err = app.Test(httptest.NewRequest(http.MethodGet, "/api/contacts/stats", nil))
	require.NoError(t, err)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)

	var stats struct {
		Data map[string]int64 `json:"data"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&stats))
	assert.Equal(t, int64(2), stats.Data["synced"])
}

func TestExportRouteSetsAttachment(t *testing.T) {
	app := newContactApp(t)

	resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/api/contacts/export?status=deleted", nil))
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)
	assert.Contains(t, resp.Header.Get(fiber.HeaderContentDisposition), "contacts-deleted-")
	assert.Contains(t, resp.Header.Get(fiber.HeaderContentType), "spreadsheetml")
}
