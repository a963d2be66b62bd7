package store

import (
	"time"
)

// RosterEntry is an enrolled student eligible for matching. An entry only
// exists once enrollment produced a reference signature; there is no
// partially-enrolled state.
type RosterEntry struct {
	ID           int64
	EnrollmentNo string // unique, immutable identity key
	FullName     string
	Gender       string
	Year         string
	Semester     string
	Password     string
	Signature    []float32 // unit-normalized reference embedding
	CreatedAt    time.Time
}

// Instructor owns sessions for a subject and resolves correction requests.
type Instructor struct {
	ID       int64
	FullName string
	Email    string
	Password string
	Subject  string
	Year     string
	Semester string
}

// Session is a single attendance capture event. Captures are never merged:
// two uploads for the same subject and date create two sessions.
type Session struct {
	ID              int64
	Subject         string
	Date            string // YYYY-MM-DD
	Year            string
	Semester        string
	InstructorEmail string
	CreatedAt       time.Time
}

// PresenceStatus is the outcome recorded for one student in one session.
type PresenceStatus string

const (
	StatusPresent PresenceStatus = "Present"
	StatusAbsent  PresenceStatus = "Absent"
)

// PresenceRecord is the per-(session, student) attendance outcome. Exactly
// one exists per cohort member for every completed session.
type PresenceRecord struct {
	ID           int64
	SessionID    int64
	EnrollmentNo string
	StudentName  string
	Status       PresenceStatus
}

// CorrectionStatus is the lifecycle state of a correction request.
type CorrectionStatus string

const (
	CorrectionPending  CorrectionStatus = "Pending"
	CorrectionResolved CorrectionStatus = "Resolved"
	CorrectionRejected CorrectionStatus = "Rejected"
)

// CorrectionRequest is a student's dispute over a presence record.
// Resolved and Rejected are terminal.
type CorrectionRequest struct {
	ID           int64
	RecordID     int64
	EnrollmentNo string // requesting student
	Reason       string
	Status       CorrectionStatus
	CreatedAt    time.Time
}

// PendingCorrection joins a request with its record and session so an
// instructor can review it in one read.
type PendingCorrection struct {
	Request CorrectionRequest
	Record  PresenceRecord
	Session Session
}

// HistoryEntry joins a presence record with its session for a student's
// attendance history view.
type HistoryEntry struct {
	Record  PresenceRecord
	Session Session
}

// Course identifies a distinct (subject, year, semester) an instructor has
// captured sessions for.
type Course struct {
	Subject  string
	Year     string
	Semester string
}
