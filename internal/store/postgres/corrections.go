package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/facetrack/facetrack/internal/store"
)

// CorrectionRepository provides PostgreSQL-backed correction storage.
type CorrectionRepository struct {
	pool *Pool
}

// NewCorrectionRepository creates a new PostgreSQL correction repository.
func NewCorrectionRepository(pool *Pool) *CorrectionRepository {
	return &CorrectionRepository{pool: pool}
}

// GetCorrection retrieves one correction request.
func (r *CorrectionRepository) GetCorrection(ctx context.Context, id int64) (*store.CorrectionRequest, error) {
	var c store.CorrectionRequest
	err := r.pool.QueryRow(ctx, `
		SELECT id, record_id, enrollment_no, reason, status, created_at
		FROM corrections
		WHERE id = $1
	`, id).Scan(&c.ID, &c.RecordID, &c.EnrollmentNo, &c.Reason, &c.Status, &c.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, store.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("query correction: %w", err)
	}
	return &c, nil
}

// PendingForOwner returns pending requests whose record belongs to a
// session owned by the given instructor, joined for review.
func (r *CorrectionRepository) PendingForOwner(ctx context.Context, ownerEmail string) ([]store.PendingCorrection, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT c.id, c.record_id, c.enrollment_no, c.reason, c.status, c.created_at,
		       r.id, r.session_id, r.enrollment_no, r.student_name, r.status,
		       s.id, s.subject, s.date, s.year, s.semester, s.instructor_email, s.created_at
		FROM corrections c
		JOIN presence_records r ON r.id = c.record_id
		JOIN sessions s ON s.id = r.session_id
		WHERE c.status = $1 AND s.instructor_email = $2
		ORDER BY c.id
	`, store.CorrectionPending, ownerEmail)
	if err != nil {
		return nil, fmt.Errorf("query pending corrections: %w", err)
	}
	defer rows.Close()

	var pending []store.PendingCorrection
	for rows.Next() {
		var p store.PendingCorrection
		err := rows.Scan(
			&p.Request.ID, &p.Request.RecordID, &p.Request.EnrollmentNo, &p.Request.Reason,
			&p.Request.Status, &p.Request.CreatedAt,
			&p.Record.ID, &p.Record.SessionID, &p.Record.EnrollmentNo, &p.Record.StudentName, &p.Record.Status,
			&p.Session.ID, &p.Session.Subject, &p.Session.Date, &p.Session.Year, &p.Session.Semester,
			&p.Session.InstructorEmail, &p.Session.CreatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("scan pending correction: %w", err)
		}
		pending = append(pending, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate pending corrections: %w", err)
	}
	return pending, nil
}

// CreateCorrection inserts a request and sets its ID.
func (r *CorrectionRepository) CreateCorrection(ctx context.Context, req *store.CorrectionRequest) error {
	err := r.pool.QueryRow(ctx, `
		INSERT INTO corrections (record_id, enrollment_no, reason, status)
		VALUES ($1, $2, $3, $4)
		RETURNING id, created_at
	`, req.RecordID, req.EnrollmentNo, req.Reason, req.Status,
	).Scan(&req.ID, &req.CreatedAt)
	if err != nil {
		return fmt.Errorf("insert correction: %w", err)
	}
	return nil
}

// UpdateCorrectionStatus overwrites a request's status.
func (r *CorrectionRepository) UpdateCorrectionStatus(ctx context.Context, id int64, status store.CorrectionStatus) error {
	result, err := r.pool.Exec(ctx,
		"UPDATE corrections SET status = $1 WHERE id = $2", status, id)
	if err != nil {
		return fmt.Errorf("update correction status: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("update correction status rows affected: %w", err)
	}
	if affected == 0 {
		return store.ErrNotFound
	}
	return nil
}

// ResolveCorrection finalizes a request and flips its record in one
// transaction. On any failure both rows roll back.
func (r *CorrectionRepository) ResolveCorrection(ctx context.Context, id int64, status store.CorrectionStatus, recordID int64, recordStatus store.PresenceStatus) error {
	tx, err := r.pool.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	result, err := tx.ExecContext(ctx,
		"UPDATE corrections SET status = $1 WHERE id = $2", status, id)
	if err != nil {
		return fmt.Errorf("update correction status: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("update correction status rows affected: %w", err)
	}
	if affected == 0 {
		return store.ErrNotFound
	}

	result, err = tx.ExecContext(ctx,
		"UPDATE presence_records SET status = $1 WHERE id = $2", recordStatus, recordID)
	if err != nil {
		return fmt.Errorf("update record status: %w", err)
	}
	affected, err = result.RowsAffected()
	if err != nil {
		return fmt.Errorf("update record status rows affected: %w", err)
	}
	if affected == 0 {
		return store.ErrNotFound
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit correction resolution: %w", err)
	}
	return nil
}

// Verify interface compliance
var _ store.CorrectionRepository = (*CorrectionRepository)(nil)
