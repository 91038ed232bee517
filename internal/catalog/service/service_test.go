package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"attribune/internal/catalog/models"
	"attribune/internal/catalog/store"
	id "attribune/pkg/domain"
	dErrors "attribune/pkg/domain-errors"
)

func seed(t *testing.T, svc *Service, workID, title, artist, holder string) {
	t.Helper()
	work, err := models.NewWork(id.WorkID(workID), title, artist, id.RightsHolderID(holder))
	require.NoError(t, err)
	require.NoError(t, svc.Register(context.Background(), work))
}

func TestLookupCachesEntries(t *testing.T) {
	backing := store.NewInMemoryStore()
	svc := New(backing, time.Minute)
	seed(t, svc, "work-1", "Neon Tide", "The Harbors", "holder-a")

	first, err := svc.Lookup(context.Background(), "work-1")
	require.NoError(t, err)
	assert.Equal(t, "Neon Tide", first.Title)

	// Served from cache even after the backing row changes.
	updated, err := models.NewWork("work-1", "Renamed", "The Harbors", "holder-a")
	require.NoError(t, err)
	require.NoError(t, backing.Upsert(context.Background(), updated))

	cached, err := svc.Lookup(context.Background(), "work-1")
	require.NoError(t, err)
	assert.Equal(t, "Neon Tide", cached.Title)
}

func TestRegisterInvalidatesCache(t *testing.T) {
	svc := New(store.NewInMemoryStore(), time.Minute)
	seed(t, svc, "work-1", "Neon Tide", "The Harbors", "holder-a")

	_, err := svc.Lookup(context.Background(), "work-1")
	require.NoError(t, err)

	seed(t, svc, "work-1", "Renamed", "The Harbors", "holder-a")
	fresh, err := svc.Lookup(context.Background(), "work-1")
	require.NoError(t, err)
	assert.Equal(t, "Renamed", fresh.Title)
}

func TestResolveSeparatesMissingWorks(t *testing.T) {
	svc := New(store.NewInMemoryStore(), time.Minute)
	seed(t, svc, "work-b", "Known", "Artist", "holder-a")

	resolved, missing, err := svc.Resolve(context.Background(), []id.WorkID{"work-z", "work-b", "work-a"})
	require.NoError(t, err)
	require.Len(t, resolved, 1)
	assert.Equal(t, id.RightsHolderID("holder-a"), resolved["work-b"].RightsHolderID)
	assert.Equal(t, []id.WorkID{"work-a", "work-z"}, missing, "missing works come back sorted")
}

func TestLookupUnknownWork(t *testing.T) {
	svc := New(store.NewInMemoryStore(), time.Minute)

	_, err := svc.Lookup(context.Background(), "work-nope")
	require.Error(t, err)
	assert.True(t, dErrors.HasCode(err, dErrors.CodeNotFound))
}
