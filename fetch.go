package offlinecache

import (
	"io"
	"net/http"
)

// fetch issues the outbound request for r: against the configured origin
// for same-origin paths, or directly for allow-listed absolute URLs.
// The outbound request carries its own context, so fetches spawned by
// detached refresh tasks are not cancelled when the client goes away.
func (o *OfflineCache) fetch(r *http.Request) (*http.Response, error) {
	target := r.URL.String()
	if r.URL.Host == "" {
		target = o.originURL.String() + r.URL.RequestURI()
	}
	req, err := http.NewRequest(r.Method, target, r.Body)
	if err != nil {
		return nil, err
	}
	copyHeader(req.Header, r.Header)
	return o.client.Do(req)
}

// bypass pipes the original request through to the origin and immediately
// responds to the client. Nothing is ever stored on this path.
func (o *OfflineCache) bypass(w http.ResponseWriter, r *http.Request) error {
	res, err := o.fetch(r)
	if err != nil {
		return err
	}
	return send(w, res)
}

func send(w http.ResponseWriter, res *http.Response) error {
	defer res.Body.Close()
	copyHeader(w.Header(), res.Header)
	w.WriteHeader(res.StatusCode)
	_, err := io.Copy(w, res.Body)
	return err
}

func sendResponse(w http.ResponseWriter, res *http.Response, cs CacheStatus) {
	w.Header().Add("Cache-Status", cs.String())
	send(w, res)
}

func copyHeader(dst, src http.Header) {
	for k, vv := range src {
		for _, v := range vv {
			dst.Add(k, v)
		}
	}
}
