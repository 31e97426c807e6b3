package storage

import "fmt"

const (
	BackendLevelDB  = "leveldb"
	BackendPostgres = "postgres"
)

// Open returns the CountStore for the named backend.
func Open(backend, path string) (CountStore, error) {
	switch backend {
	case "", BackendLevelDB:
		return NewLevelStore(path)
	case BackendPostgres:
		return NewPostgresStore()
	default:
		return nil, fmt.Errorf("unknown storage backend %q", backend)
	}
}
