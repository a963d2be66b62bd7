package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/facetrack/facetrack/internal/store"
)

// InstructorRepository provides PostgreSQL-backed instructor storage.
type InstructorRepository struct {
	pool *Pool
}

// NewInstructorRepository creates a new PostgreSQL instructor repository.
func NewInstructorRepository(pool *Pool) *InstructorRepository {
	return &InstructorRepository{pool: pool}
}

// GetByEmail retrieves one instructor.
func (r *InstructorRepository) GetByEmail(ctx context.Context, email string) (*store.Instructor, error) {
	var i store.Instructor
	err := r.pool.QueryRow(ctx, `
		SELECT id, full_name, email, password, subject, year, semester
		FROM instructors
		WHERE email = $1
	`, email).Scan(&i.ID, &i.FullName, &i.Email, &i.Password, &i.Subject, &i.Year, &i.Semester)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, store.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("query instructor: %w", err)
	}
	return &i, nil
}

// Create inserts an instructor and sets their ID.
func (r *InstructorRepository) Create(ctx context.Context, instructor *store.Instructor) error {
	err := r.pool.QueryRow(ctx, `
		INSERT INTO instructors (full_name, email, password, subject, year, semester)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id
	`, instructor.FullName, instructor.Email, instructor.Password,
		instructor.Subject, instructor.Year, instructor.Semester,
	).Scan(&instructor.ID)
	if err != nil {
		return fmt.Errorf("insert instructor: %w", err)
	}
	return nil
}

// SubjectsByEmail returns the distinct subjects an instructor teaches.
func (r *InstructorRepository) SubjectsByEmail(ctx context.Context, email string) ([]string, error) {
	rows, err := r.pool.Query(ctx,
		"SELECT DISTINCT subject FROM instructors WHERE email = $1 ORDER BY subject", email)
	if err != nil {
		return nil, fmt.Errorf("query instructor subjects: %w", err)
	}
	defer rows.Close()

	var subjects []string
	for rows.Next() {
		var s string
		if err := rows.Scan(&s); err != nil {
			return nil, fmt.Errorf("scan subject: %w", err)
		}
		subjects = append(subjects, s)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate subjects: %w", err)
	}
	return subjects, nil
}

// Verify interface compliance
var _ store.InstructorRepository = (*InstructorRepository)(nil)
