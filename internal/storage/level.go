package storage

import (
	"errors"

	"github.com/syndtr/goleveldb/leveldb"
	lvlstorage "github.com/syndtr/goleveldb/leveldb/storage"
)

// LevelStore keeps local storage items in a LevelDB directory.
type LevelStore struct {
	db *leveldb.DB
}

func NewLevelStore(path string) (*LevelStore, error) {
	db, err := leveldb.OpenFile(path, nil)
	if err != nil {
		return nil, err
	}
	return &LevelStore{db: db}, nil
}

// NewMemoryStore returns a LevelStore that lives only in memory.
func NewMemoryStore() (*LevelStore, error) {
	db, err := leveldb.Open(lvlstorage.NewMemStorage(), nil)
	if err != nil {
		return nil, err
	}
	return &LevelStore{db: db}, nil
}

func (s *LevelStore) GetItem(key string) (string, bool, error) {
	value, err := s.db.Get([]byte(key), nil)
	if err != nil {
		if errors.Is(err, leveldb.ErrNotFound) {
			return "", false, nil
		}
		return "", false, err
	}
	return string(value), true, nil
}

func (s *LevelStore) SetItem(key, value string) error {
	return s.db.Put([]byte(key), []byte(value), nil)
}

func (s *LevelStore) LoadCount() (int64, bool, error) {
	raw, ok, err := s.GetItem(CountKey)
	if err != nil || !ok {
		return 0, false, err
	}
	count, err := decodeCount(raw)
	if err != nil {
		return 0, false, err
	}
	return count, true, nil
}

func (s *LevelStore) SaveCount(count int64) error {
	return s.SetItem(CountKey, encodeCount(count))
}

func (s *LevelStore) Close() error {
	return s.db.Close()
}

var _ CountStore = (*LevelStore)(nil)
