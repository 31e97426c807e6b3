package storage

import (
	"wallet-session-api/internal/db"
)

// PostgresStore keeps the count in the local_storage table of DATABASE_URL.
type PostgresStore struct{}

func NewPostgresStore() (*PostgresStore, error) {
	if err := db.InitDB(); err != nil {
		return nil, err
	}
	return &PostgresStore{}, nil
}

func (s *PostgresStore) LoadCount() (int64, bool, error) {
	raw, ok, err := db.GetItem(CountKey)
	if err != nil || !ok {
		return 0, false, err
	}
	count, err := decodeCount(raw)
	if err != nil {
		return 0, false, err
	}
	return count, true, nil
}

func (s *PostgresStore) SaveCount(count int64) error {
	return db.SetItem(CountKey, encodeCount(count))
}

func (s *PostgresStore) Close() error {
	return db.CloseDB()
}

var _ CountStore = (*PostgresStore)(nil)
