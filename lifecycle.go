package offlinecache

import (
	"context"
	"fmt"
	"net/http"

	"github.com/rs/zerolog"

	"github.com/ssatama/rescue-dog-aggregator-sub012/cache"
	cachekey "github.com/ssatama/rescue-dog-aggregator-sub012/pkg/cache-key"
	serializer "github.com/ssatama/rescue-dog-aggregator-sub012/pkg/response-serializer"
)

// Lifecycle handles the two-phase version transition: Install pre-populates
// the app-shell partition for the new version, Activate garbage-collects
// partitions left over from other versions.
type Lifecycle struct {
	store    cache.Store
	registry cache.Registry
	fetch    FetchFunc
	precache []string
	log      zerolog.Logger
}

// Install fetches every pre-cache manifest path and stores it in the
// app-shell partition of the current version. Every path must resolve to a
// 2xx response; any failure aborts the install, leaving the version not
// yet promotable. Previously active versions are untouched.
func (l *Lifecycle) Install(ctx context.Context) error {
	partition := l.registry.Name(cache.FamilyShell)
	for _, path := range l.precache {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, path, nil)
		if err != nil {
			return fmt.Errorf("precache %s: %w", path, err)
		}
		res, err := l.fetch(req)
		if err != nil {
			return fmt.Errorf("precache %s: %w", path, err)
		}
		if !isSuccess(res.StatusCode) {
			drain(res)
			return fmt.Errorf("precache %s: unexpected status %d", path, res.StatusCode)
		}
		bts, err := serializer.ResponseToBytes(res)
		res.Body.Close()
		if err != nil {
			return fmt.Errorf("precache %s: %w", path, err)
		}
		if err := l.store.Put(partition, cachekey.ForRequest(req), bts); err != nil {
			return fmt.Errorf("precache %s: %w", path, err)
		}
		l.log.Trace().Str("path", path).Str("partition", partition).Msg("Precached")
	}
	l.log.Debug().Int("paths", len(l.precache)).Str("version", l.registry.Version).Msg("Install complete")
	return nil
}

// Activate deletes every partition that belongs to a known family but not
// to the current version. Partitions outside the known families are left
// alone. After Activate returns, the version serves all requests.
func (l *Lifecycle) Activate(ctx context.Context) error {
	names, err := l.store.Partitions()
	if err != nil {
		return err
	}
	for _, name := range names {
		if !l.registry.Stale(name) {
			continue
		}
		if err := l.store.DeletePartition(name); err != nil {
			return fmt.Errorf("delete partition %s: %w", name, err)
		}
		l.log.Debug().Str("partition", name).Msg("Deleted stale partition")
	}
	l.log.Debug().Str("version", l.registry.Version).Msg("Activate complete")
	return nil
}
