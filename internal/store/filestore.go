package store

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"reflect"
	"sync"

	"github.com/riverclinic/ubscare/pkg/interfaces"
	"github.com/riverclinic/ubscare/pkg/logger"
	"github.com/riverclinic/ubscare/pkg/monitoring"
	"github.com/riverclinic/ubscare/pkg/types"
)

// FileStore is the offline-first persistence backend: one JSON document per
// collection under a data directory. Reads are served from an in-memory
// snapshot; writes merge into a copy, commit to disk with a temp-file
// rename, and only then replace the snapshot, so a rejected write leaves the
// collection at its last committed state.
type FileStore struct {
	dir     string
	logger  *logger.Logger
	bus     *Bus
	metrics *monitoring.MetricsCollector

	mu          sync.RWMutex
	collections map[string][]types.Record
}

// NewFileStore opens (creating if needed) the data directory and returns the
// file-backed store.
func NewFileStore(dir string, log *logger.Logger, bus *Bus, metrics *monitoring.MetricsCollector) (*FileStore, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create data directory: %w", err)
	}

	return &FileStore{
		dir:         dir,
		logger:      log,
		bus:         bus,
		metrics:     metrics,
		collections: make(map[string][]types.Record),
	}, nil
}

var _ interfaces.Store = (*FileStore)(nil)

// Save upserts records by id with shallow-merge semantics and broadcasts a
// change notification on success.
func (s *FileStore) Save(collection string, records ...types.Record) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	existing, err := s.loadLocked(collection)
	if err != nil {
		return err
	}

	updated := make([]types.Record, len(existing))
	copy(updated, existing)

	changed := false
	for _, rec := range records {
		if rec == nil || rec.ID() == "" {
			s.logger.WithComponent("store").
				WithField("collection", collection).
				Warn("Save called with record missing id, skipping")
			continue
		}
		updated = upsertMerge(updated, rec)
		changed = true
	}

	if !changed {
		return nil
	}

	if err := s.writeCollection(collection, updated); err != nil {
		if s.metrics != nil {
			s.metrics.RecordStorageWrite(collection, false)
		}
		return types.NewStorageError(
			fmt.Sprintf("não foi possível salvar os dados de %q", collection), err)
	}

	s.collections[collection] = updated
	if s.metrics != nil {
		s.metrics.RecordStorageWrite(collection, true)
	}
	if s.bus != nil {
		s.bus.Publish(collection)
	}
	return nil
}

// Delete removes the matching record. Absent ids are a no-op and do not
// trigger a change notification.
func (s *FileStore) Delete(collection, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	existing, err := s.loadLocked(collection)
	if err != nil {
		return err
	}

	updated := make([]types.Record, 0, len(existing))
	for _, rec := range existing {
		if rec.ID() != id {
			updated = append(updated, rec)
		}
	}

	// Absent id: nothing to commit, nothing to announce.
	if len(updated) == len(existing) {
		return nil
	}

	if err := s.writeCollection(collection, updated); err != nil {
		if s.metrics != nil {
			s.metrics.RecordStorageWrite(collection, false)
		}
		return types.NewStorageError(
			fmt.Sprintf("não foi possível excluir o registro de %q", collection), err)
	}

	s.collections[collection] = updated
	if s.metrics != nil {
		s.metrics.RecordStorageWrite(collection, true)
	}
	if s.bus != nil {
		s.bus.Publish(collection)
	}
	return nil
}

// Get returns the collection's records, optionally restricted to an
// exact-match conjunction over filters. Unknown collections read as empty.
func (s *FileStore) Get(collection string, filters map[string]interface{}) ([]types.Record, error) {
	s.mu.Lock()
	records, err := s.loadLocked(collection)
	s.mu.Unlock()
	if err != nil {
		return nil, err
	}

	if s.metrics != nil {
		s.metrics.RecordStorageRead(collection)
	}

	out := make([]types.Record, 0, len(records))
	for _, rec := range records {
		if matchesFilters(rec, filters) {
			out = append(out, rec.Clone())
		}
	}
	return out, nil
}

// loadLocked returns the cached snapshot, reading the collection file on
// first access. Caller holds s.mu.
func (s *FileStore) loadLocked(collection string) ([]types.Record, error) {
	if records, ok := s.collections[collection]; ok {
		return records, nil
	}

	raw, err := os.ReadFile(s.collectionPath(collection))
	if err != nil {
		if os.IsNotExist(err) {
			s.collections[collection] = []types.Record{}
			return nil, nil
		}
		return nil, types.NewStorageError(
			fmt.Sprintf("não foi possível ler os dados de %q", collection), err)
	}

	var records []types.Record
	if err := json.Unmarshal(raw, &records); err != nil {
		return nil, types.NewStorageError(
			fmt.Sprintf("dados corrompidos na coleção %q", collection), err)
	}

	s.collections[collection] = records
	return records, nil
}

func (s *FileStore) collectionPath(collection string) string {
	return filepath.Join(s.dir, collection+".json")
}

// writeCollection commits the full collection atomically.
func (s *FileStore) writeCollection(collection string, records []types.Record) error {
	raw, err := json.MarshalIndent(records, "", "  ")
	if err != nil {
		return err
	}

	path := s.collectionPath(collection)
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, raw, 0o644); err != nil {
		return err
	}
	return os.Rename(tmp, path)
}

// upsertMerge applies one record to the slice: shallow merge onto an
// existing record with the same id, append otherwise.
func upsertMerge(records []types.Record, incoming types.Record) []types.Record {
	for i, existing := range records {
		if existing.ID() == incoming.ID() {
			merged := existing.Clone()
			for key, value := range incoming {
				merged[key] = value
			}
			records[i] = merged
			return records
		}
	}
	return append(records, incoming.Clone())
}

// matchesFilters reports whether every filter key/value pair matches the
// record exactly. Values are compared through their JSON encoding so typed
// filter values match decoded records.
func matchesFilters(rec types.Record, filters map[string]interface{}) bool {
	for key, want := range filters {
		got, ok := rec[key]
		if !ok {
			return false
		}
		if !jsonEqual(got, want) {
			return false
		}
	}
	return true
}

func jsonEqual(a, b interface{}) bool {
	if reflect.DeepEqual(a, b) {
		return true
	}
	rawA, errA := json.Marshal(a)
	rawB, errB := json.Marshal(b)
	if errA != nil || errB != nil {
		return false
	}
	return string(rawA) == string(rawB)
}
