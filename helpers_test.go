package offlinecache

import (
	"errors"
	"io"
	"net/http"
	"strings"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"github.com/ssatama/rescue-dog-aggregator-sub012/cache"
	serializer "github.com/ssatama/rescue-dog-aggregator-sub012/pkg/response-serializer"
)

func nopLogger() *zerolog.Logger {
	logger := zerolog.Nop()
	return &logger
}

func testBackend(store cache.Store, fetch FetchFunc) backend {
	return backend{store: store, fetch: fetch, log: zerolog.Nop()}
}

// failingStore delegates to an underlying store but refuses all writes.
type failingStore struct {
	cache.Store
}

func (f failingStore) Put(partition, key string, bytes []byte) error {
	return errors.New("disk full")
}

func textResponse(status int, body string) *http.Response {
	return &http.Response{
		Status:        http.StatusText(status),
		StatusCode:    status,
		Proto:         "HTTP/1.1",
		ProtoMajor:    1,
		ProtoMinor:    1,
		Header:        http.Header{"Content-Type": []string{"text/plain; charset=utf-8"}},
		Body:          io.NopCloser(strings.NewReader(body)),
		ContentLength: int64(len(body)),
	}
}

func getRequest(t *testing.T, target string) *http.Request {
	t.Helper()
	req, err := http.NewRequest(http.MethodGet, target, nil)
	require.NoError(t, err)
	return req
}

func readBody(t *testing.T, res *http.Response) string {
	t.Helper()
	body, err := io.ReadAll(res.Body)
	require.NoError(t, err)
	res.Body.Close()
	return string(body)
}

func seedEntry(t *testing.T, store cache.Store, partition, key, body string) {
	t.Helper()
	bts, err := serializer.ResponseToBytes(textResponse(http.StatusOK, body))
	require.NoError(t, err)
	require.NoError(t, store.Put(partition, key, bts))
}

// entryBody returns the body of a stored entry, or false if absent.
func entryBody(t *testing.T, store cache.Store, partition, key string) (string, bool) {
	t.Helper()
	entry, hit, err := store.Get(partition, key)
	require.NoError(t, err)
	if !hit {
		return "", false
	}
	res, err := serializer.BytesToResponse(entry.Bytes)
	require.NoError(t, err)
	return readBody(t, res), true
}
