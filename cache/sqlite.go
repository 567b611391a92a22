package cache

import (
	"database/sql"

	_ "github.com/glebarez/go-sqlite"
)

// SQLiteStore is a Store backed by a SQLite database, so cached
// responses survive restarts. Use "file::memory:?cache=shared" as the
// filename for a throwaway database.
type SQLiteStore struct {
	db *sql.DB
}

func NewSQLiteStore(filename string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", filename)
	if err != nil {
		return nil, err
	}
	_, err = db.Exec(`CREATE TABLE IF NOT EXISTS entries (
		partition TEXT NOT NULL,
		key TEXT NOT NULL,
		stored_at INTEGER NOT NULL,
		bytes BLOB NOT NULL,
		PRIMARY KEY (partition, key))`)
	if err != nil {
		return nil, err
	}
	_, err = db.Exec("CREATE INDEX IF NOT EXISTS stored_at_idx ON entries (partition, stored_at)")
	if err != nil {
		return nil, err
	}
	return &SQLiteStore{db: db}, nil
}

func (s *SQLiteStore) Get(partition, key string) (Entry, bool, error) {
	entry := Entry{Key: key}
	err := s.db.QueryRow(
		"SELECT stored_at, bytes FROM entries WHERE partition = ? AND key = ?",
		partition, key,
	).Scan(&entry.StoredAt, &entry.Bytes)
	if err == sql.ErrNoRows {
		return entry, false, nil
	}
	if err != nil {
		return entry, false, err
	}
	return entry, true, nil
}

func (s *SQLiteStore) Put(partition, key string, bytes []byte) error {
	// stored_at is stamped from a store-wide sequence inside the statement,
	// keeping the write atomic under concurrent puts
	_, err := s.db.Exec(
		`INSERT OR REPLACE INTO entries (partition, key, stored_at, bytes)
		 VALUES (?, ?, (SELECT COALESCE(MAX(stored_at), 0) + 1 FROM entries), ?)`,
		partition, key, bytes,
	)
	return err
}

func (s *SQLiteStore) Delete(partition, key string) error {
	_, err := s.db.Exec("DELETE FROM entries WHERE partition = ? AND key = ?", partition, key)
	return err
}

func (s *SQLiteStore) Keys(partition string) ([]string, error) {
	rows, err := s.db.Query(
		"SELECT key FROM entries WHERE partition = ? ORDER BY stored_at ASC",
		partition,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var keys []string
	for rows.Next() {
		var key string
		if err := rows.Scan(&key); err != nil {
			return nil, err
		}
		keys = append(keys, key)
	}
	return keys, rows.Err()
}

func (s *SQLiteStore) Partitions() ([]string, error) {
	rows, err := s.db.Query("SELECT DISTINCT partition FROM entries ORDER BY partition")
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var names []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, err
		}
		names = append(names, name)
	}
	return names, rows.Err()
}

func (s *SQLiteStore) DeletePartition(partition string) error {
	_, err := s.db.Exec("DELETE FROM entries WHERE partition = ?", partition)
	return err
}

// Close closes the underlying database.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}
