package snapshot

import (
	"time"

	"github.com/starford/pocketnotes/internal/collection"
)

// Store defines the snapshot operations the library depends on.
// Consumers should depend on this interface rather than the concrete *DB type.
type Store interface {
	Save(coll *collection.Collection) error
	Load() (*collection.Collection, error)
	SavedAt() (time.Time, error)
	NoteChecksums() (map[string]string, error)
	Search(query string, limit int) ([]Hit, error)
	Close() error
}

// Verify *DB satisfies Store at compile time.
var _ Store = (*DB)(nil)
