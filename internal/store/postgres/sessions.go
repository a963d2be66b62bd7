package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/facetrack/facetrack/internal/store"
)

// SessionRepository provides PostgreSQL-backed session and presence
// record storage. Both live in one repository because session creation
// writes them in a single transaction.
type SessionRepository struct {
	pool *Pool
}

// NewSessionRepository creates a new PostgreSQL session repository.
func NewSessionRepository(pool *Pool) *SessionRepository {
	return &SessionRepository{pool: pool}
}

const sessionColumns = `id, subject, date, year, semester, instructor_email, created_at`

func scanSession(row interface{ Scan(...any) error }) (*store.Session, error) {
	var s store.Session
	err := row.Scan(&s.ID, &s.Subject, &s.Date, &s.Year, &s.Semester, &s.InstructorEmail, &s.CreatedAt)
	if err != nil {
		return nil, err
	}
	return &s, nil
}

// Get retrieves one session.
func (r *SessionRepository) Get(ctx context.Context, id int64) (*store.Session, error) {
	row := r.pool.QueryRow(ctx, "SELECT "+sessionColumns+" FROM sessions WHERE id = $1", id)
	s, err := scanSession(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, store.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("query session: %w", err)
	}
	return s, nil
}

// ListByCourse returns an owner's sessions for a course ordered by date.
// The ordering defines report column order; same-date sessions keep
// insertion order.
func (r *SessionRepository) ListByCourse(ctx context.Context, subject, year, semester, ownerEmail string) ([]store.Session, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT `+sessionColumns+`
		FROM sessions
		WHERE subject = $1 AND year = $2 AND semester = $3 AND instructor_email = $4
		ORDER BY date, id
	`, subject, year, semester, ownerEmail)
	if err != nil {
		return nil, fmt.Errorf("query sessions by course: %w", err)
	}
	defer rows.Close()

	var sessions []store.Session
	for rows.Next() {
		s, err := scanSession(rows)
		if err != nil {
			return nil, fmt.Errorf("scan session: %w", err)
		}
		sessions = append(sessions, *s)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate sessions: %w", err)
	}
	return sessions, nil
}

// ListCourses returns the distinct courses an owner has sessions for.
func (r *SessionRepository) ListCourses(ctx context.Context, ownerEmail string) ([]store.Course, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT DISTINCT subject, year, semester
		FROM sessions
		WHERE instructor_email = $1
		ORDER BY subject, year, semester
	`, ownerEmail)
	if err != nil {
		return nil, fmt.Errorf("query courses: %w", err)
	}
	defer rows.Close()

	var courses []store.Course
	for rows.Next() {
		var c store.Course
		if err := rows.Scan(&c.Subject, &c.Year, &c.Semester); err != nil {
			return nil, fmt.Errorf("scan course: %w", err)
		}
		courses = append(courses, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate courses: %w", err)
	}
	return courses, nil
}

// FindByDate returns the owner's earliest session for a subject and date.
func (r *SessionRepository) FindByDate(ctx context.Context, subject, date, ownerEmail string) (*store.Session, error) {
	row := r.pool.QueryRow(ctx, `
		SELECT `+sessionColumns+`
		FROM sessions
		WHERE subject = $1 AND date = $2 AND instructor_email = $3
		ORDER BY id
		LIMIT 1
	`, subject, date, ownerEmail)

	s, err := scanSession(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, store.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("query session by date: %w", err)
	}
	return s, nil
}

// CreateWithRecords inserts a session and all of its presence records in
// one transaction. On any failure the transaction rolls back, so a
// session with a partial record set never exists.
func (r *SessionRepository) CreateWithRecords(ctx context.Context, session *store.Session, records []store.PresenceRecord) error {
	tx, err := r.pool.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	err = tx.QueryRowContext(ctx, `
		INSERT INTO sessions (subject, date, year, semester, instructor_email)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id, created_at
	`, session.Subject, session.Date, session.Year, session.Semester, session.InstructorEmail,
	).Scan(&session.ID, &session.CreatedAt)
	if err != nil {
		return fmt.Errorf("insert session: %w", err)
	}

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO presence_records (session_id, enrollment_no, student_name, status)
		VALUES ($1, $2, $3, $4)
		RETURNING id
	`)
	if err != nil {
		return fmt.Errorf("prepare record insert: %w", err)
	}
	defer stmt.Close()

	for i := range records {
		records[i].SessionID = session.ID
		err := stmt.QueryRowContext(ctx,
			session.ID, records[i].EnrollmentNo, records[i].StudentName, records[i].Status,
		).Scan(&records[i].ID)
		if err != nil {
			return fmt.Errorf("insert presence record: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit session: %w", err)
	}
	return nil
}

// GetRecord retrieves one presence record.
func (r *SessionRepository) GetRecord(ctx context.Context, id int64) (*store.PresenceRecord, error) {
	var rec store.PresenceRecord
	err := r.pool.QueryRow(ctx, `
		SELECT id, session_id, enrollment_no, student_name, status
		FROM presence_records
		WHERE id = $1
	`, id).Scan(&rec.ID, &rec.SessionID, &rec.EnrollmentNo, &rec.StudentName, &rec.Status)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, store.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("query presence record: %w", err)
	}
	return &rec, nil
}

// RecordsBySession returns all records for a session ordered by
// enrollment number.
func (r *SessionRepository) RecordsBySession(ctx context.Context, sessionID int64) ([]store.PresenceRecord, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT id, session_id, enrollment_no, student_name, status
		FROM presence_records
		WHERE session_id = $1
		ORDER BY enrollment_no
	`, sessionID)
	if err != nil {
		return nil, fmt.Errorf("query session records: %w", err)
	}
	defer rows.Close()

	var records []store.PresenceRecord
	for rows.Next() {
		var rec store.PresenceRecord
		if err := rows.Scan(&rec.ID, &rec.SessionID, &rec.EnrollmentNo, &rec.StudentName, &rec.Status); err != nil {
			return nil, fmt.Errorf("scan presence record: %w", err)
		}
		records = append(records, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate presence records: %w", err)
	}
	return records, nil
}

// RecordFor returns the record for one student in one session.
func (r *SessionRepository) RecordFor(ctx context.Context, sessionID int64, enrollmentNo string) (*store.PresenceRecord, error) {
	var rec store.PresenceRecord
	err := r.pool.QueryRow(ctx, `
		SELECT id, session_id, enrollment_no, student_name, status
		FROM presence_records
		WHERE session_id = $1 AND enrollment_no = $2
	`, sessionID, enrollmentNo).Scan(&rec.ID, &rec.SessionID, &rec.EnrollmentNo, &rec.StudentName, &rec.Status)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, store.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("query record for student: %w", err)
	}
	return &rec, nil
}

// HistoryByStudent returns all of a student's records joined with their
// sessions, ordered by session date.
func (r *SessionRepository) HistoryByStudent(ctx context.Context, enrollmentNo string) ([]store.HistoryEntry, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT r.id, r.session_id, r.enrollment_no, r.student_name, r.status,
		       s.id, s.subject, s.date, s.year, s.semester, s.instructor_email, s.created_at
		FROM presence_records r
		JOIN sessions s ON s.id = r.session_id
		WHERE r.enrollment_no = $1
		ORDER BY s.date, s.id
	`, enrollmentNo)
	if err != nil {
		return nil, fmt.Errorf("query student history: %w", err)
	}
	defer rows.Close()

	var history []store.HistoryEntry
	for rows.Next() {
		var h store.HistoryEntry
		err := rows.Scan(
			&h.Record.ID, &h.Record.SessionID, &h.Record.EnrollmentNo, &h.Record.StudentName, &h.Record.Status,
			&h.Session.ID, &h.Session.Subject, &h.Session.Date, &h.Session.Year, &h.Session.Semester,
			&h.Session.InstructorEmail, &h.Session.CreatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("scan history entry: %w", err)
		}
		history = append(history, h)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate history: %w", err)
	}
	return history, nil
}

// UpdateRecordStatus overwrites a record's status. Last writer wins.
func (r *SessionRepository) UpdateRecordStatus(ctx context.Context, id int64, status store.PresenceStatus) error {
	result, err := r.pool.Exec(ctx,
		"UPDATE presence_records SET status = $1 WHERE id = $2", status, id)
	if err != nil {
		return fmt.Errorf("update record status: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("update record status rows affected: %w", err)
	}
	if affected == 0 {
		return store.ErrNotFound
	}
	return nil
}

// Verify interface compliance
var _ store.SessionWriter = (*SessionRepository)(nil)
var _ store.RecordWriter = (*SessionRepository)(nil)
