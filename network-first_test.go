package offlinecache

import (
	"errors"
	"net/http"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ssatama/rescue-dog-aggregator-sub012/cache"
)

func TestNetworkFirstStoresAndServesOffline(t *testing.T) {
	store := cache.NewMemStore()
	var online atomic.Bool
	online.Store(true)
	fetch := func(r *http.Request) (*http.Response, error) {
		if !online.Load() {
			return nil, errors.New("network unavailable")
		}
		return textResponse(http.StatusOK, "dogs v1"), nil
	}
	s := &NetworkFirst{backend: testBackend(store, fetch), timeout: time.Second}

	res, cs, err := s.Serve(getRequest(t, "/api/dogs"), "api-v1", "GET:/api/dogs")
	require.NoError(t, err)
	assert.Equal(t, "dogs v1", readBody(t, res))
	assert.Equal(t, "Offline-Cache; fwd=uri-miss", cs.String())

	online.Store(false)
	res, cs, err = s.Serve(getRequest(t, "/api/dogs"), "api-v1", "GET:/api/dogs")
	require.NoError(t, err)
	assert.Equal(t, "dogs v1", readBody(t, res), "cached content must be byte-identical")
	assert.Equal(t, "Offline-Cache; hit", cs.String())
}

func TestNetworkFirstTimeoutServesCache(t *testing.T) {
	store := cache.NewMemStore()
	seedEntry(t, store, "api-v1", "GET:/api/dogs", "stale dogs")
	fetch := func(r *http.Request) (*http.Response, error) {
		time.Sleep(200 * time.Millisecond)
		return textResponse(http.StatusOK, "fresh dogs"), nil
	}
	s := &NetworkFirst{backend: testBackend(store, fetch), timeout: 30 * time.Millisecond}

	start := time.Now()
	res, cs, err := s.Serve(getRequest(t, "/api/dogs"), "api-v1", "GET:/api/dogs")
	elapsed := time.Since(start)

	require.NoError(t, err)
	assert.Equal(t, "stale dogs", readBody(t, res))
	assert.Equal(t, "Offline-Cache; hit", cs.String())
	assert.Less(t, elapsed, 150*time.Millisecond, "response time must be bounded by the timeout")

	// the late network result is discarded, not stored
	time.Sleep(300 * time.Millisecond)
	body, hit := entryBody(t, store, "api-v1", "GET:/api/dogs")
	require.True(t, hit)
	assert.Equal(t, "stale dogs", body)
}

func TestNetworkFirstFailurePropagatesWithoutCache(t *testing.T) {
	store := cache.NewMemStore()
	cause := errors.New("connection refused")
	fetch := func(r *http.Request) (*http.Response, error) { return nil, cause }
	s := &NetworkFirst{backend: testBackend(store, fetch), timeout: time.Second}

	_, _, err := s.Serve(getRequest(t, "/api/dogs"), "api-v1", "GET:/api/dogs")
	assert.ErrorIs(t, err, cause)
}

func TestNetworkFirstNavigationFallback(t *testing.T) {
	store := cache.NewMemStore()
	fetch := func(r *http.Request) (*http.Response, error) { return nil, errors.New("offline") }
	fallback := func(r *http.Request) (*http.Response, CacheStatus) {
		cs := CacheStatus{}
		cs.Forward(fwdMiss)
		cs.Detail("offline")
		return textResponse(http.StatusServiceUnavailable, "offline page"), cs
	}
	s := &NetworkFirst{backend: testBackend(store, fetch), timeout: time.Second, fallback: fallback}

	res, cs, err := s.Serve(getRequest(t, "/dogs/bella"), "dynamic-v1", "GET:/dogs/bella")
	require.NoError(t, err)
	assert.Equal(t, http.StatusServiceUnavailable, res.StatusCode)
	assert.Equal(t, "offline page", readBody(t, res))
	assert.Equal(t, "Offline-Cache; fwd=miss; detail=offline", cs.String())
}

func TestNetworkFirstDoesNotStoreErrors(t *testing.T) {
	store := cache.NewMemStore()
	fetch := func(r *http.Request) (*http.Response, error) {
		return textResponse(http.StatusNotFound, "no such dog"), nil
	}
	s := &NetworkFirst{backend: testBackend(store, fetch), timeout: time.Second}

	res, cs, err := s.Serve(getRequest(t, "/api/dogs/999"), "api-v1", "GET:/api/dogs/999")
	require.NoError(t, err)
	assert.Equal(t, http.StatusNotFound, res.StatusCode)
	assert.Equal(t, "no such dog", readBody(t, res), "the error response is returned to the caller untouched")
	assert.Equal(t, "Offline-Cache; fwd=miss", cs.String(), "an unstored response does not report uri-miss")

	_, hit := entryBody(t, store, "api-v1", "GET:/api/dogs/999")
	assert.False(t, hit, "error responses are never cached")
}

func TestNetworkFirstServesDespiteStoreFailure(t *testing.T) {
	store := failingStore{cache.NewMemStore()}
	fetch := func(r *http.Request) (*http.Response, error) {
		return textResponse(http.StatusOK, "dogs v1"), nil
	}
	s := &NetworkFirst{backend: testBackend(store, fetch), timeout: time.Second}

	res, _, err := s.Serve(getRequest(t, "/api/dogs"), "api-v1", "GET:/api/dogs")
	require.NoError(t, err, "a failed cache write must not fail the in-flight response")
	assert.Equal(t, "dogs v1", readBody(t, res))
}
