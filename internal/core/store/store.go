// Package store persists routing programs and merchant connector
// snapshots. Programs are stored as their YAML definitions and decoded
// on read, so the store never lags behind the program schema. Snapshots
// feed graph seeding: a process loads the latest snapshot at startup and
// seeds its routing session from it.
package store

import (
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/meridianpay/switchyard/internal/ast"
	"github.com/meridianpay/switchyard/internal/core/db"
	"github.com/meridianpay/switchyard/internal/kgraph"
	"github.com/meridianpay/switchyard/internal/types"
)

// ErrNotFound marks lookups for records that do not exist.
var ErrNotFound = errors.New("record not found")

// ProgramRecord is one stored routing program.
type ProgramRecord struct {
	ID         types.ProgramID `db:"program_id"`
	Name       string          `db:"name"`
	Definition string          `db:"definition"`
	CreatedAt  string          `db:"created_at"`
	UpdatedAt  string          `db:"updated_at"`
}

// Program decodes the record's YAML definition.
func (r ProgramRecord) Program() (ast.Program[ast.ConnectorSelection], error) {
	return ast.ParseProgramYAML([]byte(r.Definition))
}

// SnapshotRecord is one stored merchant connector snapshot.
type SnapshotRecord struct {
	ID         types.SnapshotID `db:"snapshot_id"`
	Definition string           `db:"definition"`
	CreatedAt  string           `db:"created_at"`
}

// Snapshot decodes the record's YAML definition.
func (r SnapshotRecord) Snapshot() ([]kgraph.MerchantConnector, kgraph.FilterSet, error) {
	return kgraph.ParseSnapshotYAML([]byte(r.Definition))
}

// Store is the policy store facade over the named-query layer.
type Store struct {
	queries *db.Queries
}

// New wraps a loaded query set.
func New(queries *db.Queries) *Store {
	return &Store{queries: queries}
}

// SaveProgram validates and persists a program under a name, replacing
// any existing program with that name. The program is round-tripped
// through the YAML codec before writing so the store only ever holds
// definitions it can read back.
func (s *Store) SaveProgram(name string, program ast.Program[ast.ConnectorSelection]) (types.ProgramID, error) {
	if name == "" {
		return "", fmt.Errorf("saving program: empty name")
	}
	definition, err := ast.MarshalProgramYAML(program)
	if err != nil {
		return "", fmt.Errorf("encoding program %q: %w", name, err)
	}
	if _, err := ast.ParseProgramYAML(definition); err != nil {
		return "", fmt.Errorf("program %q does not round-trip: %w", name, err)
	}

	id := types.NewProgramID()
	now := time.Now().UTC().Format(time.RFC3339)
	if _, err := s.queries.Exec("save-program", string(id), name, string(definition), now, now); err != nil {
		return "", fmt.Errorf("saving program %q: %w", name, err)
	}
	return id, nil
}

// GetProgram loads a stored program by name.
func (s *Store) GetProgram(name string) (ProgramRecord, error) {
	var record ProgramRecord
	err := s.queries.Get("get-program", &record, name)
	if errors.Is(err, sql.ErrNoRows) {
		return ProgramRecord{}, fmt.Errorf("program %q: %w", name, ErrNotFound)
	}
	if err != nil {
		return ProgramRecord{}, fmt.Errorf("loading program %q: %w", name, err)
	}
	return record, nil
}

// ListPrograms returns every stored program ordered by name.
func (s *Store) ListPrograms() ([]ProgramRecord, error) {
	var records []ProgramRecord
	if err := s.queries.Select("list-programs", &records); err != nil {
		return nil, fmt.Errorf("listing programs: %w", err)
	}
	return records, nil
}

// DeleteProgram removes a stored program by name.
func (s *Store) DeleteProgram(name string) error {
	result, err := s.queries.Exec("delete-program", name)
	if err != nil {
		return fmt.Errorf("deleting program %q: %w", name, err)
	}
	if n, err := result.RowsAffected(); err == nil && n == 0 {
		return fmt.Errorf("program %q: %w", name, ErrNotFound)
	}
	return nil
}

// SaveSnapshot persists a merchant connector snapshot.
func (s *Store) SaveSnapshot(connectors []kgraph.MerchantConnector, filters kgraph.FilterSet) (types.SnapshotID, error) {
	definition, err := kgraph.MarshalSnapshotYAML(connectors, filters)
	if err != nil {
		return "", fmt.Errorf("encoding snapshot: %w", err)
	}

	id := types.NewSnapshotID()
	now := time.Now().UTC().Format(time.RFC3339)
	if _, err := s.queries.Exec("save-snapshot", string(id), string(definition), now); err != nil {
		return "", fmt.Errorf("saving snapshot: %w", err)
	}
	return id, nil
}

// GetSnapshot loads one snapshot by ID.
func (s *Store) GetSnapshot(id types.SnapshotID) (SnapshotRecord, error) {
	var record SnapshotRecord
	err := s.queries.Get("get-snapshot", &record, string(id))
	if errors.Is(err, sql.ErrNoRows) {
		return SnapshotRecord{}, fmt.Errorf("snapshot %s: %w", id, ErrNotFound)
	}
	if err != nil {
		return SnapshotRecord{}, fmt.Errorf("loading snapshot %s: %w", id, err)
	}
	return record, nil
}

// LatestSnapshot loads the most recent snapshot. Snapshot IDs are
// UUIDv7, so lexical order is creation order.
func (s *Store) LatestSnapshot() (SnapshotRecord, error) {
	var record SnapshotRecord
	err := s.queries.Get("latest-snapshot", &record)
	if errors.Is(err, sql.ErrNoRows) {
		return SnapshotRecord{}, fmt.Errorf("no connector snapshots: %w", ErrNotFound)
	}
	if err != nil {
		return SnapshotRecord{}, fmt.Errorf("loading latest snapshot: %w", err)
	}
	return record, nil
}
