package cache

import (
	"sort"
	"sync"
)

// MemStore is an in-memory Store. Entries do not survive a restart,
// so every cold start behaves like a fresh cache version.
type MemStore struct {
	mutex *sync.RWMutex
	seq   int64
	parts map[string]map[string]Entry
}

func NewMemStore() *MemStore {
	return &MemStore{
		mutex: &sync.RWMutex{},
		parts: make(map[string]map[string]Entry),
	}
}

func (m *MemStore) Get(partition, key string) (Entry, bool, error) {
	m.mutex.RLock()
	defer m.mutex.RUnlock()
	entry, ok := m.parts[partition][key]
	return entry, ok, nil
}

func (m *MemStore) Put(partition, key string, bytes []byte) error {
	m.mutex.Lock()
	defer m.mutex.Unlock()
	part, ok := m.parts[partition]
	if !ok {
		part = make(map[string]Entry)
		m.parts[partition] = part
	}
	m.seq++
	part[key] = Entry{Key: key, Bytes: bytes, StoredAt: m.seq}
	return nil
}

func (m *MemStore) Delete(partition, key string) error {
	m.mutex.Lock()
	defer m.mutex.Unlock()
	delete(m.parts[partition], key)
	return nil
}

func (m *MemStore) Keys(partition string) ([]string, error) {
	m.mutex.RLock()
	defer m.mutex.RUnlock()
	entries := make([]Entry, 0, len(m.parts[partition]))
	for _, entry := range m.parts[partition] {
		entries = append(entries, entry)
	}
	sort.Slice(entries, func(i, j int) bool {
		return entries[i].StoredAt < entries[j].StoredAt
	})
	keys := make([]string, len(entries))
	for i, entry := range entries {
		keys[i] = entry.Key
	}
	return keys, nil
}

func (m *MemStore) Partitions() ([]string, error) {
	m.mutex.RLock()
	defer m.mutex.RUnlock()
	names := make([]string, 0, len(m.parts))
	for name := range m.parts {
		names = append(names, name)
	}
	sort.Strings(names)
	return names, nil
}

func (m *MemStore) DeletePartition(partition string) error {
	m.mutex.Lock()
	defer m.mutex.Unlock()
	delete(m.parts, partition)
	return nil
}
