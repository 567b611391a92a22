package offlinecache

import (
	"errors"
	"net/http"
	"time"
)

// ErrOriginTimeout is returned when the origin does not respond within a
// strategy's timeout and no cached fallback exists.
var ErrOriginTimeout = errors.New("origin request timed out")

// FallbackFunc synthesizes a response when both network and cache miss.
// Used for navigations, which must always get a page back.
type FallbackFunc func(r *http.Request) (*http.Response, CacheStatus)

// NetworkFirst prefers fresh network data but falls back to the cache
// after a bounded wait. Successful responses are stored for later offline use.
type NetworkFirst struct {
	backend
	timeout time.Duration
	// fallback, when non-nil, produces the offline response for requests
	// that miss both network and cache.
	fallback FallbackFunc
}

func (s *NetworkFirst) Serve(r *http.Request, partition, key string) (*http.Response, CacheStatus, error) {
	results := make(chan fetchResult, 1)
	go func() {
		res, err := s.fetch(r)
		results <- fetchResult{res: res, err: err}
	}()

	timer := time.NewTimer(s.timeout)
	defer timer.Stop()

	select {
	case fr := <-results:
		if fr.err != nil {
			return s.fromCache(r, partition, key, fr.err)
		}
		cs := CacheStatus{}
		if isSuccess(fr.res.StatusCode) {
			s.storeResponse(partition, key, fr.res)
			cs.Forward(fwdUriMiss)
		} else {
			cs.Forward(fwdMiss)
		}
		return fr.res, cs, nil
	case <-timer.C:
		// The losing fetch is not cancelled; it runs to completion on its
		// own and its result is drained and discarded.
		s.detach("drain "+key, func() error {
			fr := <-results
			if fr.res != nil {
				drain(fr.res)
			}
			return fr.err
		})
		return s.fromCache(r, partition, key, ErrOriginTimeout)
	}
}

// fromCache serves the cached entry, or the offline fallback for
// navigations. Without either, the network failure propagates to the caller.
func (s *NetworkFirst) fromCache(r *http.Request, partition, key string, cause error) (*http.Response, CacheStatus, error) {
	cs := CacheStatus{}
	if res, hit := s.lookup(partition, key); hit {
		cs.Hit()
		return res, cs, nil
	}
	if s.fallback != nil {
		res, cs := s.fallback(r)
		return res, cs, nil
	}
	cs.Forward(fwdMiss)
	return nil, cs, cause
}
