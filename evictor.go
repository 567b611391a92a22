package offlinecache

import (
	"fmt"

	"github.com/rs/zerolog"

	"github.com/ssatama/rescue-dog-aggregator-sub012/cache"
)

// imageEntryLimit bounds the image partition to the most recently stored entries.
const imageEntryLimit = 50

// Evictor bounds storage growth on demand: it is only ever invoked through
// the cleanup command, never automatically.
type Evictor struct {
	store    cache.Store
	registry cache.Registry
	limit    int
	log      zerolog.Logger
}

// Cleanup deletes every dynamic-family partition outright and prunes the
// current image partition down to the limit most recently stored entries.
// It is idempotent: running it twice in a row is a no-op the second time.
func (e *Evictor) Cleanup() error {
	names, err := e.store.Partitions()
	if err != nil {
		return err
	}
	for _, name := range names {
		if family, known := e.registry.FamilyOf(name); known && family == cache.FamilyDynamic {
			if err := e.store.DeletePartition(name); err != nil {
				return fmt.Errorf("purge partition %s: %w", name, err)
			}
			e.log.Debug().Str("partition", name).Msg("Purged dynamic partition")
		}
	}
	return e.pruneImages()
}

// pruneImages removes the oldest image entries until the partition holds at
// most the configured limit. Keys are ordered by their StoredAt stamp, so
// "most recent" does not depend on the store's enumeration guarantees.
func (e *Evictor) pruneImages() error {
	partition := e.registry.Name(cache.FamilyImage)
	keys, err := e.store.Keys(partition)
	if err != nil {
		return err
	}
	if len(keys) <= e.limit {
		return nil
	}
	excess := keys[:len(keys)-e.limit]
	for _, key := range excess {
		if err := e.store.Delete(partition, key); err != nil {
			return fmt.Errorf("prune %s: %w", key, err)
		}
	}
	e.log.Debug().Int("deleted", len(excess)).Str("partition", partition).Msg("Pruned image partition")
	return nil
}
