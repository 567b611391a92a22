package offlinecache

import (
	"bytes"
	"errors"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ssatama/rescue-dog-aggregator-sub012/cache"
)

// brokenDeleteStore refuses deletes, as a read-only medium would.
type brokenDeleteStore struct {
	cache.Store
}

func (b brokenDeleteStore) Delete(partition, key string) error {
	return errors.New("read-only store")
}

func TestLookupPurgesCorruptEntries(t *testing.T) {
	store := cache.NewMemStore()
	require.NoError(t, store.Put("api-v1", "GET:/api/dogs", []byte("not a response")))
	be := testBackend(store, nil)

	_, hit := be.lookup("api-v1", "GET:/api/dogs")
	assert.False(t, hit, "a corrupt entry reads as a miss")

	_, stored, err := store.Get("api-v1", "GET:/api/dogs")
	require.NoError(t, err)
	assert.False(t, stored, "the corrupt entry is purged")
}

func TestLookupLogsFailedPurge(t *testing.T) {
	store := brokenDeleteStore{cache.NewMemStore()}
	require.NoError(t, store.Put("api-v1", "GET:/api/dogs", []byte("not a response")))
	var buf bytes.Buffer
	be := backend{store: store, log: zerolog.New(&buf)}

	_, hit := be.lookup("api-v1", "GET:/api/dogs")
	assert.False(t, hit, "the entry still reads as a miss")
	assert.Contains(t, buf.String(), "Could not purge corrupted entry")
	assert.Contains(t, buf.String(), "read-only store")
}
