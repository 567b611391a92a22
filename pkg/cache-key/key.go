package cachekey

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/zeebo/xxh3"
)

const (
	methodSeparator = ":"
	varySeparator   = "\t"
)

// ForRequest returns the cache key for a request: the method plus the
// request URI. Absolute URLs (allow-listed cross-origin image hosts)
// include the host so different hosts never share a key.
func ForRequest(r *http.Request) string {
	uri := r.URL.RequestURI()
	if r.URL.Host != "" {
		uri = r.URL.Host + uri
	}
	return r.Method + methodSeparator + uri
}

// ForGet returns the cache key a plain GET of the given path would produce.
// Useful for looking up pre-cached entries without a live request.
func ForGet(path string) string {
	return http.MethodGet + methodSeparator + path
}

// WithVary extends a key with a digest of the named request headers,
// so variants selected by those headers are stored separately.
func WithVary(key string, r *http.Request, names ...string) string {
	b := strings.Builder{}
	for _, name := range names {
		b.WriteString(strings.ToLower(name))
		b.WriteString(": ")
		b.WriteString(r.Header.Get(name))
		b.WriteString("\n")
	}
	return key + varySeparator + strconv.FormatUint(xxh3.HashString(b.String()), 16)
}
