package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/facetrack/facetrack/internal/store"
	"github.com/pgvector/pgvector-go"
)

// RosterRepository provides PostgreSQL-backed roster storage.
type RosterRepository struct {
	pool *Pool
}

// NewRosterRepository creates a new PostgreSQL roster repository.
func NewRosterRepository(pool *Pool) *RosterRepository {
	return &RosterRepository{pool: pool}
}

const rosterColumns = `id, enrollment_no, full_name, gender, year, semester, password, signature, created_at`

func scanRosterEntry(row interface{ Scan(...any) error }) (*store.RosterEntry, error) {
	var e store.RosterEntry
	var vec pgvector.Vector
	err := row.Scan(&e.ID, &e.EnrollmentNo, &e.FullName, &e.Gender, &e.Year, &e.Semester, &e.Password, &vec, &e.CreatedAt)
	if err != nil {
		return nil, err
	}
	e.Signature = vec.Slice()
	return &e, nil
}

// GetByEnrollmentNo retrieves one roster entry.
func (r *RosterRepository) GetByEnrollmentNo(ctx context.Context, enrollmentNo string) (*store.RosterEntry, error) {
	row := r.pool.QueryRow(ctx,
		"SELECT "+rosterColumns+" FROM roster WHERE enrollment_no = $1", enrollmentNo)

	e, err := scanRosterEntry(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, store.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("query roster entry: %w", err)
	}
	return e, nil
}

// FindByName retrieves one roster entry by display name. Comparison runs
// on the normalized form on both sides (lowercase, no diacritics, dashes
// to spaces) so "jan-novak" matches "Jan Novák".
func (r *RosterRepository) FindByName(ctx context.Context, name string) (*store.RosterEntry, error) {
	row := r.pool.QueryRow(ctx, `
		SELECT `+rosterColumns+`
		FROM roster
		WHERE LOWER(REPLACE(unaccent(full_name), '-', ' ')) = $1
		ORDER BY id
		LIMIT 1
	`, store.NormalizeName(name))

	e, err := scanRosterEntry(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, store.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("query roster entry by name: %w", err)
	}
	return e, nil
}

// ListByCohort returns all entries for a cohort ordered by enrollment
// number. The ordering is the matcher's traversal order.
func (r *RosterRepository) ListByCohort(ctx context.Context, year, semester string) ([]store.RosterEntry, error) {
	rows, err := r.pool.Query(ctx,
		"SELECT "+rosterColumns+" FROM roster WHERE year = $1 AND semester = $2 ORDER BY enrollment_no",
		year, semester)
	if err != nil {
		return nil, fmt.Errorf("query cohort: %w", err)
	}
	defer rows.Close()

	return scanRosterEntries(rows)
}

// ListAll returns every roster entry ordered by enrollment number.
func (r *RosterRepository) ListAll(ctx context.Context) ([]store.RosterEntry, error) {
	rows, err := r.pool.Query(ctx,
		"SELECT "+rosterColumns+" FROM roster ORDER BY enrollment_no")
	if err != nil {
		return nil, fmt.Errorf("query roster: %w", err)
	}
	defer rows.Close()

	return scanRosterEntries(rows)
}

func scanRosterEntries(rows *sql.Rows) ([]store.RosterEntry, error) {
	var entries []store.RosterEntry
	for rows.Next() {
		e, err := scanRosterEntry(rows)
		if err != nil {
			return nil, fmt.Errorf("scan roster entry: %w", err)
		}
		entries = append(entries, *e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate roster entries: %w", err)
	}
	return entries, nil
}

// Create inserts a fully-enrolled entry and sets its ID.
func (r *RosterRepository) Create(ctx context.Context, entry *store.RosterEntry) error {
	err := r.pool.QueryRow(ctx, `
		INSERT INTO roster (enrollment_no, full_name, gender, year, semester, password, signature)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING id, created_at
	`, entry.EnrollmentNo, entry.FullName, entry.Gender, entry.Year, entry.Semester,
		entry.Password, pgvector.NewVector(entry.Signature),
	).Scan(&entry.ID, &entry.CreatedAt)
	if err != nil {
		return fmt.Errorf("insert roster entry: %w", err)
	}
	return nil
}

// UpdateSignature replaces the reference signature for re-enrollment.
func (r *RosterRepository) UpdateSignature(ctx context.Context, enrollmentNo string, signature []float32) error {
	result, err := r.pool.Exec(ctx,
		"UPDATE roster SET signature = $1 WHERE enrollment_no = $2",
		pgvector.NewVector(signature), enrollmentNo)
	if err != nil {
		return fmt.Errorf("update signature: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("update signature rows affected: %w", err)
	}
	if affected == 0 {
		return store.ErrNotFound
	}
	return nil
}

// Verify interface compliance
var _ store.RosterWriter = (*RosterRepository)(nil)
