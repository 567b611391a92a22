package offlinecache

import "net/http"

// CacheFirst serves cached content immediately and opportunistically
// refreshes it in the background without blocking the response.
// Only a cold miss waits for the network.
type CacheFirst struct {
	backend
}

func (s *CacheFirst) Serve(r *http.Request, partition, key string) (*http.Response, CacheStatus, error) {
	cs := CacheStatus{}
	if res, hit := s.lookup(partition, key); hit {
		s.detach("refresh "+key, func() error {
			return s.refresh(r, partition, key)
		})
		cs.Hit()
		return res, cs, nil
	}

	res, err := s.fetch(r)
	if err != nil {
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
