package contact_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"go-confops/internal/database"
	"go-confops/internal/features/contact"
	"go-confops/internal/testhelpers"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPostgresContactRepository(t *testing.T) {
	exerciseRepository(t, testhelpers.PostgresStore(t))
}

func TestMongoContactRepository(t *testing.T) {
	exerciseRepository(t, testhelpers.MongoStore(t))
}

func exerciseRepository(t *testing.T, store *database.Store) {
	repo := contact.NewContactRepository(store)
	ctx := context.Background()
	edited := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)

	ada := &contact.Contact{
		NotionID:             "A1",
		Name:                 "Ada Lovelace",
		Email:                "ada@example.edu",
		Sport:                []string{"Soccer", "Tennis"},
		AdditionalProperties: map[string]any{"Pronouns": "she/her"},
		NotionCreatedTime:    edited.Add(-time.Hour),
		NotionLastEditedTime: edited,
		NotionURL:            "https://www.notion.so/A1",
		SyncStatus:           contact.SyncStatusSynced,
	}
	require.NoError(t, repo.Insert(ctx, ada))
	assert.Error(t, repo.Insert(ctx, ada), "duplicate notion_id must fail")

	got, err := repo.FindByNotionID(ctx, "A1")
	require.NoError(t, err)
	assert.Equal(t, "Ada Lovelace", got.Name)
	assert.Equal(t, []string{"Soccer", "Tennis"}, got.Sport)
	assert.Equal(t, "she/her", got.AdditionalProperties["Pronouns"])
	assert.True(t, edited.Equal(got.NotionLastEditedTime))

	_, err = repo.FindByNotionID(ctx, "missing")
	assert.True(t, errors.Is(err, contact.ErrNotFound))

	// Update overwrites derived fields, clears removed ones, and leaves status alone.
	_, err = repo.SetStatus(ctx, []string{"A1"}, contact.SyncStatusDeleted)
	require.NoError(t, err)
	ada.Email = ""
	ada.Sport = []string{"Rowing"}
	ada.NotionLastEditedTime = edited.Add(time.Hour)
	require.NoError(t, repo.Update(ctx, ada))

	got, err = repo.FindByNotionID(ctx, "A1")
	require.NoError(t, err)
	assert.Empty(t, got.Email)
	assert.Equal(t, []string{"Rowing"}, got.Sport)
	assert.Equal(t, contact.SyncStatusDeleted, got.SyncStatus)

	err = repo.Update(ctx, &contact.Contact{NotionID: "missing"})
	assert.True(t, errors.Is(err, contact.ErrNotFound))

	require.NoError(t, repo.Insert(ctx, &contact.Contact{NotionID: "B2", Name: "Grace Hopper", NotionLastEditedTime: edited}))

	keys, err := repo.ListSyncKeys(ctx)
	require.NoError(t, err)
	assert.Len(t, keys, 2)

	n, err := repo.SetStatus(ctx, []string{"A1", "B2", "nope"}, contact.SyncStatusSynced)
	require.NoError(t, err)
	assert.Equal(t, int64(2), n)

	counts, err := repo.CountByStatus(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(2), counts[contact.SyncStatusSynced])

	list, err := repo.List(ctx, contact.ContactFilter{Sport: "Rowing"})
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, "A1", list[0].NotionID)
}
