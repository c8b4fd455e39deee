package store

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	_ "github.com/lib/pq"

	"github.com/riverclinic/ubscare/pkg/config"
	"github.com/riverclinic/ubscare/pkg/interfaces"
	"github.com/riverclinic/ubscare/pkg/logger"
	"github.com/riverclinic/ubscare/pkg/monitoring"
	"github.com/riverclinic/ubscare/pkg/types"
)

// PgStore is the Postgres-backed persistence backend for clinics with a
// shared on-site database. Records live as JSONB documents keyed by
// (collection, id); the facade's shallow-merge semantics map onto the jsonb
// concatenation operator, so partial updates from concurrent writers
// preserve each other's fields exactly as the file backend does.
type PgStore struct {
	db      *sql.DB
	logger  *logger.Logger
	bus     *Bus
	metrics *monitoring.MetricsCollector
}

const pgSchema = `
CREATE TABLE IF NOT EXISTS records (
	collection TEXT NOT NULL,
	id         TEXT NOT NULL,
	doc        JSONB NOT NULL,
	updated_at TIMESTAMPTZ NOT NULL DEFAULT now(),
	PRIMARY KEY (collection, id)
)`

// NewPgStore connects to Postgres and ensures the records table exists.
func NewPgStore(cfg *config.PostgresConfig, log *logger.Logger, bus *Bus, metrics *monitoring.MetricsCollector) (*PgStore, error) {
	db, err := sql.Open("postgres", cfg.DSN())
	if err != nil {
		return nil, fmt.Errorf("failed to open database connection: %w", err)
	}

	db.SetMaxOpenConns(cfg.MaxOpenConns)
	db.SetMaxIdleConns(cfg.MaxIdleConns)
	db.SetConnMaxLifetime(time.Duration(cfg.ConnMaxLifetime) * time.Second)

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	if _, err := db.Exec(pgSchema); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ensure records table: %w", err)
	}

	log.WithComponent("store").Info("Postgres store ready")
	return &PgStore{db: db, logger: log, bus: bus, metrics: metrics}, nil
}

var _ interfaces.Store = (*PgStore)(nil)

// Close releases the underlying connection pool.
func (s *PgStore) Close() error {
	return s.db.Close()
}

// Ping reports connectivity, for health probes.
func (s *PgStore) Ping() error {
	return s.db.Ping()
}

// Save upserts records by id. The jsonb || operator overlays only the
// incoming fields onto the stored document.
func (s *PgStore) Save(collection string, records ...types.Record) error {
	changed := false
	for _, rec := range records {
		if rec == nil || rec.ID() == "" {
			s.logger.WithComponent("store").
				WithField("collection", collection).
				Warn("Save called with record missing id, skipping")
			continue
		}

		raw, err := json.Marshal(rec)
		if err != nil {
			return types.NewStorageError("registro não serializável", err)
		}

		query := `
			INSERT INTO records (collection, id, doc, updated_at)
			VALUES ($1, $2, $3::jsonb, now())
			ON CONFLICT (collection, id)
			DO UPDATE SET doc = records.doc || EXCLUDED.doc, updated_at = now()`

		if _, err := s.db.Exec(query, collection, rec.ID(), string(raw)); err != nil {
			if s.metrics != nil {
				s.metrics.RecordStorageWrite(collection, false)
			}
			return types.NewStorageError(
				fmt.Sprintf("não foi possível salvar os dados de %q", collection), err)
		}
		changed = true
	}

	if !changed {
		return nil
	}

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
func (s *PgStore) Delete(collection, id string) error {
	res, err := s.db.Exec(`DELETE FROM records WHERE collection = $1 AND id = $2`, collection, id)
	if err != nil {
		if s.metrics != nil {
			s.metrics.RecordStorageWrite(collection, false)
		}
		return types.NewStorageError(
			fmt.Sprintf("não foi possível excluir o registro de %q", collection), err)
	}

	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return nil
	}

	if s.metrics != nil {
		s.metrics.RecordStorageWrite(collection, true)
	}
	if s.bus != nil {
		s.bus.Publish(collection)
	}
	return nil
}

// Get returns the collection's records, filtered server-side with the jsonb
// containment operator when filters are provided.
func (s *PgStore) Get(collection string, filters map[string]interface{}) ([]types.Record, error) {
	query := `SELECT doc FROM records WHERE collection = $1`
	args := []interface{}{collection}

	if len(filters) > 0 {
		rawFilter, err := json.Marshal(filters)
		if err != nil {
			return nil, types.NewStorageError("filtro não serializável", err)
		}
		query += ` AND doc @> $2::jsonb`
		args = append(args, string(rawFilter))
	}

	rows, err := s.db.Query(query, args...)
	if err != nil {
		return nil, types.NewStorageError(
			fmt.Sprintf("não foi possível ler os dados de %q", collection), err)
	}
	defer rows.Close()

	if s.metrics != nil {
		s.metrics.RecordStorageRead(collection)
	}

	out := []types.Record{}
	for rows.Next() {
		var raw []byte
		if err := rows.Scan(&raw); err != nil {
			return nil, types.NewStorageError("registro ilegível", err)
		}
		var rec types.Record
		if err := json.Unmarshal(raw, &rec); err != nil {
			return nil, types.NewStorageError("registro corrompido", err)
		}
		out = append(out, rec)
	}
	return out, rows.Err()
}
