package contact_test

import (
	"bytes"
	"context"
	"testing"
	"time"

	"go-confops/internal/features/contact"
	"go-confops/internal/features/contact/contacttest"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
)

func seedContacts() []contact.Contact {
	edited := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	return []contact.Contact{
		{NotionID: "A1", Name: "Ada Lovelace", Email: "ada@example.edu", Sport: []string{"Soccer", "Tennis"}, NotionLastEditedTime: edited},
		{NotionID: "B2", Name: "Grace Hopper", Email: "grace@example.edu", Sport: []string{"Rowing"}, NotionLastEditedTime: edited},
		{NotionID: "C3", Name: "Alan Turing", Email: "alan@example.edu", SyncStatus: contact.SyncStatusDeleted, NotionLastEditedTime: edited},
	}
}

func TestListAppliesFilters(t *testing.T) {
	svc := contact.NewContactService(contacttest.NewMemoryRepository(seedContacts()...))
	ctx := context.Background()

	all, err := svc.List(ctx, contact.ContactFilter{})
	require.NoError(t, err)
	assert.Len(t, all, 3)

	soccer, err := svc.List(ctx, contact.ContactFilter{Sport: "Soccer"})
	require.NoError(t, err)
	require.Len(t, soccer, 1)
	assert.Equal(t, "A1", soccer[0].NotionID)

	deleted, err := svc.List(ctx, contact.ContactFilter{Status: contact.SyncStatusDeleted})
	require.NoError(t, err)
	require.Len(t, deleted, 1)
	assert.Equal(t, "C3", deleted[0].NotionID)

	search, err := svc.List(ctx, contact.ContactFilter{Search: "GRACE"})
	require.NoError(t, err)
	require.Len(t, search, 1)
	assert.Equal(t, "B2", search[0].NotionID)
}

func TestStatsCountsByStatus(t *testing.T) {
	svc := contact.NewContactService(contacttest.NewMemoryRepository(seedContacts()...))

	stats, err := svc.Stats(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int64(2), stats[contact.SyncStatusSynced])
	assert.Equal(t, int64(1), stats[contact.SyncStatusDeleted])
}

func TestExportXLSX(t *testing.T) {
	svc := contact.NewContactService(contacttest.NewMemoryRepository(seedContacts()...))

	var buf bytes.Buffer
	n, err := svc.ExportXLSX(context.Background(), contact.ContactFilter{Status: contact.SyncStatusSynced}, &buf)
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	f, err := excelize.OpenReader(&buf)
	require.NoError(t, err)
	defer f.Close()

	rows, err := f.GetRows("Contacts")
	require.NoError(t, err)
	require.Len(t, rows, 3)
	assert.Equal(t, "Notion ID", rows[0][0])
	assert.Equal(t, "A1", rows[1][0])
	assert.Equal(t, "Ada Lovelace", rows[1][1])
	assert.Contains(t, rows[1], "Soccer, Tennis")
	assert.Equal(t, "B2", rows[2][0])
}
