package store

import (
	"context"
	"errors"
)

// ErrNotFound is returned by Get-style lookups when no row matches.
var ErrNotFound = errors.New("not found")

// RosterReader provides read access to enrolled students.
type RosterReader interface {
	// GetByEnrollmentNo retrieves one roster entry, ErrNotFound if absent.
	GetByEnrollmentNo(ctx context.Context, enrollmentNo string) (*RosterEntry, error)
	// FindByName retrieves one roster entry by display name. Names are
	// normalized (lowercase, no diacritics, dashes to spaces) before
	// comparison so "jan-novak" matches "Jan Novák".
	FindByName(ctx context.Context, name string) (*RosterEntry, error)
	// ListByCohort returns all entries for a (year, semester) cohort,
	// ordered by enrollment number. This ordering is the matcher's
	// traversal order and must be stable across calls.
	ListByCohort(ctx context.Context, year, semester string) ([]RosterEntry, error)
	// ListAll returns every roster entry, used to rebuild the signature index.
	ListAll(ctx context.Context) ([]RosterEntry, error)
}

// RosterWriter provides write access to enrolled students.
type RosterWriter interface {
	RosterReader

	// Create inserts a fully-enrolled entry (signature included) and sets ID.
	Create(ctx context.Context, entry *RosterEntry) error
	// UpdateSignature replaces the reference signature (re-enrollment).
	UpdateSignature(ctx context.Context, enrollmentNo string, signature []float32) error
}

// InstructorRepository handles instructor accounts.
type InstructorRepository interface {
	GetByEmail(ctx context.Context, email string) (*Instructor, error)
	Create(ctx context.Context, instructor *Instructor) error
	// SubjectsByEmail returns the distinct subjects an instructor teaches.
	SubjectsByEmail(ctx context.Context, email string) ([]string, error)
}

// SessionReader provides read access to attendance sessions.
type SessionReader interface {
	Get(ctx context.Context, id int64) (*Session, error)
	// ListByCourse returns an owner's sessions for a course ordered by date.
	// The ordering defines report column order.
	ListByCourse(ctx context.Context, subject, year, semester, ownerEmail string) ([]Session, error)
	// ListCourses returns the distinct courses an owner has sessions for.
	ListCourses(ctx context.Context, ownerEmail string) ([]Course, error)
	// FindByDate returns the owner's earliest session for a subject/date,
	// ErrNotFound if none exists. Used by manual overrides.
	FindByDate(ctx context.Context, subject, date, ownerEmail string) (*Session, error)
}

// SessionWriter provides write access to sessions.
type SessionWriter interface {
	SessionReader

	// CreateWithRecords inserts a session and all of its presence records
	// in one transaction. On failure nothing is persisted: a session with
	// a partial record set must never exist.
	CreateWithRecords(ctx context.Context, session *Session, records []PresenceRecord) error
}

// RecordReader provides read access to presence records.
type RecordReader interface {
	GetRecord(ctx context.Context, id int64) (*PresenceRecord, error)
	RecordsBySession(ctx context.Context, sessionID int64) ([]PresenceRecord, error)
	// RecordFor returns the record for one student in one session,
	// ErrNotFound if the student was not covered by that session.
	RecordFor(ctx context.Context, sessionID int64, enrollmentNo string) (*PresenceRecord, error)
	// HistoryByStudent returns all of a student's records joined with
	// their sessions, ordered by session date.
	HistoryByStudent(ctx context.Context, enrollmentNo string) ([]HistoryEntry, error)
}

// RecordWriter provides write access to presence records. Updates are
// last-writer-wins; concurrent overrides of the same record are not locked.
type RecordWriter interface {
	RecordReader

	UpdateRecordStatus(ctx context.Context, id int64, status PresenceStatus) error
}

// CorrectionRepository handles correction requests.
type CorrectionRepository interface {
	GetCorrection(ctx context.Context, id int64) (*CorrectionRequest, error)
	// PendingForOwner returns pending requests whose record belongs to a
	// session owned by the given instructor, joined for review.
	PendingForOwner(ctx context.Context, ownerEmail string) ([]PendingCorrection, error)
	CreateCorrection(ctx context.Context, req *CorrectionRequest) error
	UpdateCorrectionStatus(ctx context.Context, id int64, status CorrectionStatus) error
	// ResolveCorrection finalizes a request and flips its record in one
	// transaction, so a resolved request can never coexist with an
	// unflipped record.
	ResolveCorrection(ctx context.Context, id int64, status CorrectionStatus, recordID int64, recordStatus PresenceStatus) error
}
