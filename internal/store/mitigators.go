package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/gadial/qiskit-ignis/internal/model"
)

// ErrNotFound is returned when no mitigator record matches the requested ID.
var ErrNotFound = errors.New("store: mitigator not found")

// Record describes one stored mitigator without its payload.
type Record struct {
	ID          string
	Fingerprint string
	Method      model.Method
	UnitCount   int
	CreatedAt   string
}

// Save persists a fitted mitigator and returns its record ID.
// Saving is idempotent on the content fingerprint: an identical model
// returns the existing ID.
func (s *Store) Save(ctx context.Context, m *model.Mitigator) (string, error) {
	if err := m.Validate(); err != nil {
		return "", fmt.Errorf("store: save: %w", err)
	}
	fingerprint, err := m.Fingerprint()
	if err != nil {
		return "", fmt.Errorf("store: save: %w", err)
	}

	var existing string
	err = s.db.QueryRowContext(ctx,
		"SELECT id FROM mitigators WHERE fingerprint = ?", fingerprint).Scan(&existing)
	if err == nil {
		return existing, nil
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return "", fmt.Errorf("store: save: %w", err)
	}

	payload, err := json.Marshal(m)
	if err != nil {
		return "", fmt.Errorf("store: save: %w", err)
	}
	id := uuid.NewString()
	_, err = s.db.ExecContext(ctx,
		`INSERT INTO mitigators (id, fingerprint, method, unit_count, schema_version, payload)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		id, fingerprint, string(m.Method), m.NumUnits, model.SchemaVersion, string(payload))
	if err != nil {
		return "", fmt.Errorf("store: save: %w", err)
	}
	return id, nil
}

// Load reconstructs a stored mitigator by record ID.
func (s *Store) Load(ctx context.Context, id string) (*model.Mitigator, error) {
	var payload string
	err := s.db.QueryRowContext(ctx,
		"SELECT payload FROM mitigators WHERE id = ?", id).Scan(&payload)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	if err != nil {
		return nil, fmt.Errorf("store: load: %w", err)
	}
	var m model.Mitigator
	if err := json.Unmarshal([]byte(payload), &m); err != nil {
		return nil, fmt.Errorf("store: load %s: %w", id, err)
	}
	return &m, nil
}

// List returns the stored records, newest first.
func (s *Store) List(ctx context.Context) ([]Record, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, fingerprint, method, unit_count, created_at
		 FROM mitigators ORDER BY created_at DESC, id`)
	if err != nil {
		return nil, fmt.Errorf("store: list: %w", err)
	}
	defer rows.Close()

	var records []Record
	for rows.Next() {
		var r Record
		var method string
		if err := rows.Scan(&r.ID, &r.Fingerprint, &method, &r.UnitCount, &r.CreatedAt); err != nil {
			return nil, fmt.Errorf("store: list: %w", err)
		}
		r.Method = model.Method(method)
		records = append(records, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("store: list: %w", err)
	}
	return records, nil
}

// Delete removes a stored mitigator. Deleting an unknown ID returns
// ErrNotFound.
func (s *Store) Delete(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx, "DELETE FROM mitigators WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("store: delete: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("store: delete: %w", err)
	}
	if affected == 0 {
		return fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	return nil
}
