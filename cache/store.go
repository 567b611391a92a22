package cache

import "strings"

// Family is one of the fixed partition families.
type Family string

const (
	FamilyShell   Family = "shell"
	FamilyAPI     Family = "api"
	FamilyImage   Family = "image"
	FamilyDynamic Family = "dynamic"
)

// Families returns all known partition families.
func Families() []Family {
	return []Family{FamilyShell, FamilyAPI, FamilyImage, FamilyDynamic}
}

// PartitionName composes the external name of a partition: <family>-<version>.
func PartitionName(family Family, version string) string {
	return string(family) + "-" + version
}

// Registry resolves partition names for a single cache version.
// It is the authority on which partitions belong to which family,
// so version cleanup never has to guess based on name patterns alone.
type Registry struct {
	Version string
}

// Name returns the partition name for the given family under this version.
func (r Registry) Name(family Family) string {
	return PartitionName(family, r.Version)
}

// FamilyOf reports the family a partition name belongs to, if any.
// A name belongs to a family when the segment before the first dash
// is exactly one of the known family names.
func (r Registry) FamilyOf(name string) (Family, bool) {
	prefix, _, found := strings.Cut(name, "-")
	if !found {
		return "", false
	}
	for _, family := range Families() {
		if Family(prefix) == family {
			return family, true
		}
	}
	return "", false
}

// Stale reports whether the named partition belongs to a known family
// but not to this registry's version.
func (r Registry) Stale(name string) bool {
	family, known := r.FamilyOf(name)
	return known && name != r.Name(family)
}

// Entry is a single stored response.
// Bytes holds the HTTP/1.1 wire representation of the response.
// StoredAt is a store-wide monotonic counter stamped on every write,
// so "most recently stored" is well defined regardless of backend.
type Entry struct {
	Key      string
	Bytes    []byte
	StoredAt int64
}

// Store is the persistence abstraction for cache partitions.
// Partitions are created lazily on first write.
//
// Implementations must be thread-safe: per-key Get/Put/Delete must be
// atomic under concurrent access from multiple in-flight requests.
type Store interface {
	// Get returns the entry stored under key in the named partition,
	// along with a boolean indicating whether the entry exists.
	Get(partition, key string) (Entry, bool, error)
	// Put stores the given bytes under key, stamping a fresh StoredAt.
	// Overwriting an existing key re-stamps it.
	Put(partition, key string, bytes []byte) error
	// Delete removes a single entry. Deleting a missing entry is not an error.
	Delete(partition, key string) error
	// Keys lists the keys of a partition ordered by StoredAt, oldest first.
	Keys(partition string) ([]string, error)
	// Partitions lists the names of all existing partitions.
	Partitions() ([]string, error)
	// DeletePartition removes a partition and all of its entries.
	DeletePartition(partition string) error
}
