package offlinecache

import (
	"io"
	"net/http"

	"github.com/rs/zerolog"

	"github.com/ssatama/rescue-dog-aggregator-sub012/cache"
	serializer "github.com/ssatama/rescue-dog-aggregator-sub012/pkg/response-serializer"
)

// FetchFunc issues a network request and returns the origin's response.
// Implementations must not tie the outbound call to the lifetime of any
// incoming request, since fetches may outlive the request that spawned them.
type FetchFunc func(*http.Request) (*http.Response, error)

// Strategy combines cache lookup and network fetch in a specific order
// with specific fallback rules. Strategies only ever see GET requests;
// everything else bypasses the cache before dispatch.
type Strategy interface {
	Serve(r *http.Request, partition, key string) (*http.Response, CacheStatus, error)
}

type fetchResult struct {
	res *http.Response
	err error
}

// backend bundles what every strategy needs: the partition store,
// the origin fetcher, and a logger.
type backend struct {
	store cache.Store
	fetch FetchFunc
	log   zerolog.Logger
}

// detach runs fn on its own goroutine. The task's lifetime is not tied to
// the request that spawned it, and its error, if any, is logged and
// swallowed rather than propagated to any caller.
func (b backend) detach(task string, fn func() error) {
	go func() {
		if err := fn(); err != nil {
			b.log.Debug().Err(err).Str("task", task).Msg("Detached task failed")
		}
	}()
}

// lookup returns the cached response for the key, if present.
// A corrupted entry is deleted and treated as a miss.
func (b backend) lookup(partition, key string) (*http.Response, bool) {
	entry, hit, err := b.store.Get(partition, key)
	if err != nil {
		b.log.Error().Err(err).Str("key", key).Msg("Could not retrieve from cache")
		return nil, false
	}
	if !hit {
		return nil, false
	}
	res, err := serializer.BytesToResponse(entry.Bytes)
	if err != nil {
		b.log.Error().Err(err).Str("key", key).Msg("Could not read from cache")
		if err := b.store.Delete(partition, key); err != nil {
			b.log.Error().Err(err).Str("key", key).Msg("Could not purge corrupted entry")
		}
		return nil, false
	}
	return res, true
}

// storeResponse persists a response and restores its body so the caller can
// still send it. A store failure is logged and reported, but callers on the
// request path must not let it fail the in-flight response.
func (b backend) storeResponse(partition, key string, res *http.Response) error {
	bts, err := serializer.ResponseToBytes(res)
	if err != nil {
		b.log.Error().Err(err).Str("key", key).Msg("Could not serialize response")
		return err
	}
	if err := b.store.Put(partition, key, bts); err != nil {
		b.log.Error().Err(err).Str("key", key).Str("partition", partition).Msg("Could not write to cache")
		return err
	}
	b.log.Trace().Str("key", key).Str("partition", partition).Msg("Cache write")
	return nil
}

// refresh fetches the resource and overwrites the cache entry on success.
// Intended to run detached: the originating request never observes its outcome.
func (b backend) refresh(r *http.Request, partition, key string) error {
	res, err := b.fetch(r)
	if err != nil {
		return err
	}
	if !isSuccess(res.StatusCode) {
		drain(res)
		return nil
	}
	err = b.storeResponse(partition, key, res)
	res.Body.Close()
	return err
}

// isSuccess reports whether a response is ok to store.
// Error responses are never cached.
func isSuccess(statusCode int) bool {
	return statusCode >= 200 && statusCode < 300
}

// drain consumes and closes a response body so the connection can be reused.
func drain(res *http.Response) {
	io.Copy(io.Discard, res.Body)
	res.Body.Close()
}
