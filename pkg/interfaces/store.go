package interfaces

import (
	"github.com/riverclinic/ubscare/pkg/types"
)

// Store is the persistence facade every component reads and writes through:
// named record collections with upsert-merge semantics.
//
// Save upserts each record by its "id" field. An existing record is shallow
// merged: fields present in the incoming record overwrite, absent fields are
// preserved. Records missing an id are skipped with a warning. A rejected
// write returns a storage error and leaves the collection at its last
// committed state.
//
// Get returns every record in the collection, restricted to those matching
// an exact-match conjunction over filters when provided. A collection that
// has never been written reads as empty, never as an error.
//
// Delete removes the matching record and is a no-op when absent.
type Store interface {
	Save(collection string, records ...types.Record) error
	Delete(collection, id string) error
	Get(collection string, filters map[string]interface{}) ([]types.Record, error)
}

// ChangeBus broadcasts collection change notifications to active views.
// Delivery is at-least-once with no ordering guarantee; views reconcile by
// re-reading, backed by the periodic refresh contract.
type ChangeBus interface {
	Publish(collection string)
	Subscribe(collections ...string) (<-chan types.ChangeEvent, func())
}
