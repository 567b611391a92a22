package offlinecache

import "net/http"

// StaleWhileRevalidate always serves cached content first, if present,
// and updates the cache asynchronously. A cold miss blocks on the network;
// if that fetch fails, the cache is checked once more in case a concurrent
// request stored the entry in the meantime.
type StaleWhileRevalidate struct {
	backend
}

func (s *StaleWhileRevalidate) Serve(r *http.Request, partition, key string) (*http.Response, CacheStatus, error) {
	cs := CacheStatus{}
	if res, hit := s.lookup(partition, key); hit {
		s.detach("revalidate "+key, func() error {
			return s.refresh(r, partition, key)
		})
		cs.Hit()
		return res, cs, nil
	}

	res, err := s.fetch(r)
	if err != nil {
		if cached, hit := s.lookup(partition, key); hit {
			cs.Hit()
			cs.Detail("stale")
			return cached, cs, nil
		}
		cs.Forward(fwdMiss)
		return nil, cs, err
	}
	if isSuccess(res.StatusCode) {
		s.storeResponse(partition, key, res)
		cs.Forward(fwdUriMiss)
	} else {
		cs.Forward(fwdMiss)
	}
	return res, cs, nil
}
