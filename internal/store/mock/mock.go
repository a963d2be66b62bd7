// Package mock provides in-memory implementations of the store
// interfaces for testing.
package mock

import (
	"context"
	"sort"
	"sync"

	"github.com/facetrack/facetrack/internal/store"
)

// MockRoster is an in-memory implementation of store.RosterWriter.
type MockRoster struct {
	mu      sync.RWMutex
	entries map[string]*store.RosterEntry // keyed by enrollment number
	counter int64

	// Error injection
	GetError             error
	FindByNameError      error
	ListByCohortError    error
	ListAllError         error
	CreateError          error
	UpdateSignatureError error
}

// NewMockRoster creates an empty mock roster.
func NewMockRoster() *MockRoster {
	return &MockRoster{entries: make(map[string]*store.RosterEntry)}
}

// AddEntry seeds the roster without going through Create.
func (m *MockRoster) AddEntry(entry store.RosterEntry) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if entry.ID == 0 {
		m.counter++
		entry.ID = m.counter
	}
	m.entries[entry.EnrollmentNo] = &entry
}

func (m *MockRoster) GetByEnrollmentNo(ctx context.Context, enrollmentNo string) (*store.RosterEntry, error) {
	if m.GetError != nil {
		return nil, m.GetError
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	e, ok := m.entries[enrollmentNo]
	if !ok {
		return nil, store.ErrNotFound
	}
	copied := *e
	return &copied, nil
}

func (m *MockRoster) FindByName(ctx context.Context, name string) (*store.RosterEntry, error) {
	if m.FindByNameError != nil {
		return nil, m.FindByNameError
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	want := store.NormalizeName(name)
	for _, e := range m.entries {
		if store.NormalizeName(e.FullName) == want {
			copied := *e
			return &copied, nil
		}
	}
	return nil, store.ErrNotFound
}

func (m *MockRoster) ListByCohort(ctx context.Context, year, semester string) ([]store.RosterEntry, error) {
	if m.ListByCohortError != nil {
		return nil, m.ListByCohortError
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	var result []store.RosterEntry
	for _, e := range m.entries {
		if e.Year == year && e.Semester == semester {
			result = append(result, *e)
		}
	}
	sort.Slice(result, func(i, j int) bool {
		return result[i].EnrollmentNo < result[j].EnrollmentNo
	})
	return result, nil
}

func (m *MockRoster) ListAll(ctx context.Context) ([]store.RosterEntry, error) {
	if m.ListAllError != nil {
		return nil, m.ListAllError
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	var result []store.RosterEntry
	for _, e := range m.entries {
		result = append(result, *e)
	}
	sort.Slice(result, func(i, j int) bool {
		return result[i].EnrollmentNo < result[j].EnrollmentNo
	})
	return result, nil
}

func (m *MockRoster) Create(ctx context.Context, entry *store.RosterEntry) error {
	if m.CreateError != nil {
		return m.CreateError
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.counter++
	entry.ID = m.counter
	copied := *entry
	m.entries[entry.EnrollmentNo] = &copied
	return nil
}

func (m *MockRoster) UpdateSignature(ctx context.Context, enrollmentNo string, signature []float32) error {
	if m.UpdateSignatureError != nil {
		return m.UpdateSignatureError
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	e, ok := m.entries[enrollmentNo]
	if !ok {
		return store.ErrNotFound
	}
	e.Signature = signature
	return nil
}

// MockInstructors is an in-memory implementation of store.InstructorRepository.
type MockInstructors struct {
	mu          sync.RWMutex
	instructors map[string]*store.Instructor // keyed by email
	counter     int64

	// Error injection
	GetError    error
	CreateError error
}

// NewMockInstructors creates an empty mock instructor repository.
func NewMockInstructors() *MockInstructors {
	return &MockInstructors{instructors: make(map[string]*store.Instructor)}
}

// AddInstructor seeds an instructor without going through Create.
func (m *MockInstructors) AddInstructor(instructor store.Instructor) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if instructor.ID == 0 {
		m.counter++
		instructor.ID = m.counter
	}
	m.instructors[instructor.Email] = &instructor
}

func (m *MockInstructors) GetByEmail(ctx context.Context, email string) (*store.Instructor, error) {
	if m.GetError != nil {
		return nil, m.GetError
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	i, ok := m.instructors[email]
	if !ok {
		return nil, store.ErrNotFound
	}
	copied := *i
	return &copied, nil
}

func (m *MockInstructors) Create(ctx context.Context, instructor *store.Instructor) error {
	if m.CreateError != nil {
		return m.CreateError
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.counter++
	instructor.ID = m.counter
	copied := *instructor
	m.instructors[instructor.Email] = &copied
	return nil
}

func (m *MockInstructors) SubjectsByEmail(ctx context.Context, email string) ([]string, error) {
	if m.GetError != nil {
		return nil, m.GetError
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	i, ok := m.instructors[email]
	if !ok {
		return nil, nil
	}
	return []string{i.Subject}, nil
}

// MockAttendance is an in-memory implementation of store.SessionWriter,
// store.RecordWriter and store.CorrectionRepository. Sessions, records
// and corrections live in one mock because the real queries join them.
type MockAttendance struct {
	mu          sync.RWMutex
	sessions    map[int64]*store.Session
	records     map[int64]*store.PresenceRecord
	corrections map[int64]*store.CorrectionRequest

	sessionCounter    int64
	recordCounter     int64
	correctionCounter int64

	// Error injection
	GetSessionError             error
	ListByCourseError           error
	ListCoursesError            error
	FindByDateError             error
	CreateWithRecordsError      error
	GetRecordError              error
	RecordsBySessionError       error
	RecordForError              error
	HistoryByStudentError       error
	UpdateRecordStatusError     error
	GetCorrectionError          error
	PendingForOwnerError        error
	CreateCorrectionError       error
	UpdateCorrectionStatusError error
	ResolveCorrectionError      error
}

// NewMockAttendance creates an empty mock attendance store.
func NewMockAttendance() *MockAttendance {
	return &MockAttendance{
		sessions:    make(map[int64]*store.Session),
		records:     make(map[int64]*store.PresenceRecord),
		corrections: make(map[int64]*store.CorrectionRequest),
	}
}

func (m *MockAttendance) Get(ctx context.Context, id int64) (*store.Session, error) {
	if m.GetSessionError != nil {
		return nil, m.GetSessionError
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	s, ok := m.sessions[id]
	if !ok {
		return nil, store.ErrNotFound
	}
	copied := *s
	return &copied, nil
}

func (m *MockAttendance) ListByCourse(ctx context.Context, subject, year, semester, ownerEmail string) ([]store.Session, error) {
	if m.ListByCourseError != nil {
		return nil, m.ListByCourseError
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	var result []store.Session
	for _, s := range m.sessions {
		if s.Subject == subject && s.Year == year && s.Semester == semester && s.InstructorEmail == ownerEmail {
			result = append(result, *s)
		}
	}
	sort.Slice(result, func(i, j int) bool {
		if result[i].Date != result[j].Date {
			return result[i].Date < result[j].Date
		}
		return result[i].ID < result[j].ID
	})
	return result, nil
}

func (m *MockAttendance) ListCourses(ctx context.Context, ownerEmail string) ([]store.Course, error) {
	if m.ListCoursesError != nil {
		return nil, m.ListCoursesError
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	seen := make(map[store.Course]bool)
	var result []store.Course
	for _, s := range m.sessions {
		if s.InstructorEmail != ownerEmail {
			continue
		}
		c := store.Course{Subject: s.Subject, Year: s.Year, Semester: s.Semester}
		if !seen[c] {
			seen[c] = true
			result = append(result, c)
		}
	}
	sort.Slice(result, func(i, j int) bool {
		return result[i].Subject < result[j].Subject
	})
	return result, nil
}

func (m *MockAttendance) FindByDate(ctx context.Context, subject, date, ownerEmail string) (*store.Session, error) {
	if m.FindByDateError != nil {
		return nil, m.FindByDateError
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	var earliest *store.Session
	for _, s := range m.sessions {
		if s.Subject != subject || s.Date != date || s.InstructorEmail != ownerEmail {
			continue
		}
		if earliest == nil || s.ID < earliest.ID {
			earliest = s
		}
	}
	if earliest == nil {
		return nil, store.ErrNotFound
	}
	copied := *earliest
	return &copied, nil
}

func (m *MockAttendance) CreateWithRecords(ctx context.Context, session *store.Session, records []store.PresenceRecord) error {
	if m.CreateWithRecordsError != nil {
		return m.CreateWithRecordsError
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sessionCounter++
	session.ID = m.sessionCounter
	copied := *session
	m.sessions[session.ID] = &copied
	for i := range records {
		m.recordCounter++
		records[i].ID = m.recordCounter
		records[i].SessionID = session.ID
		r := records[i]
		m.records[r.ID] = &r
	}
	return nil
}

func (m *MockAttendance) GetRecord(ctx context.Context, id int64) (*store.PresenceRecord, error) {
	if m.GetRecordError != nil {
		return nil, m.GetRecordError
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	r, ok := m.records[id]
	if !ok {
		return nil, store.ErrNotFound
	}
	copied := *r
	return &copied, nil
}

func (m *MockAttendance) RecordsBySession(ctx context.Context, sessionID int64) ([]store.PresenceRecord, error) {
	if m.RecordsBySessionError != nil {
		return nil, m.RecordsBySessionError
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	var result []store.PresenceRecord
	for _, r := range m.records {
		if r.SessionID == sessionID {
			result = append(result, *r)
		}
	}
	sort.Slice(result, func(i, j int) bool {
		return result[i].EnrollmentNo < result[j].EnrollmentNo
	})
	return result, nil
}

func (m *MockAttendance) RecordFor(ctx context.Context, sessionID int64, enrollmentNo string) (*store.PresenceRecord, error) {
	if m.RecordForError != nil {
		return nil, m.RecordForError
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	for _, r := range m.records {
		if r.SessionID == sessionID && r.EnrollmentNo == enrollmentNo {
			copied := *r
			return &copied, nil
		}
	}
	return nil, store.ErrNotFound
}

func (m *MockAttendance) HistoryByStudent(ctx context.Context, enrollmentNo string) ([]store.HistoryEntry, error) {
	if m.HistoryByStudentError != nil {
		return nil, m.HistoryByStudentError
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	var result []store.HistoryEntry
	for _, r := range m.records {
		if r.EnrollmentNo != enrollmentNo {
			continue
		}
		s, ok := m.sessions[r.SessionID]
		if !ok {
			continue
		}
		result = append(result, store.HistoryEntry{Record: *r, Session: *s})
	}
	sort.Slice(result, func(i, j int) bool {
		if result[i].Session.Date != result[j].Session.Date {
			return result[i].Session.Date < result[j].Session.Date
		}
		return result[i].Session.ID < result[j].Session.ID
	})
	return result, nil
}

func (m *MockAttendance) UpdateRecordStatus(ctx context.Context, id int64, status store.PresenceStatus) error {
	if m.UpdateRecordStatusError != nil {
		return m.UpdateRecordStatusError
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	r, ok := m.records[id]
	if !ok {
		return store.ErrNotFound
	}
	r.Status = status
	return nil
}

func (m *MockAttendance) GetCorrection(ctx context.Context, id int64) (*store.CorrectionRequest, error) {
	if m.GetCorrectionError != nil {
		return nil, m.GetCorrectionError
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	c, ok := m.corrections[id]
	if !ok {
		return nil, store.ErrNotFound
	}
	copied := *c
	return &copied, nil
}

func (m *MockAttendance) PendingForOwner(ctx context.Context, ownerEmail string) ([]store.PendingCorrection, error) {
	if m.PendingForOwnerError != nil {
		return nil, m.PendingForOwnerError
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	var result []store.PendingCorrection
	for _, c := range m.corrections {
		if c.Status != store.CorrectionPending {
			continue
		}
		r, ok := m.records[c.RecordID]
		if !ok {
			continue
		}
		s, ok := m.sessions[r.SessionID]
		if !ok || s.InstructorEmail != ownerEmail {
			continue
		}
		result = append(result, store.PendingCorrection{Request: *c, Record: *r, Session: *s})
	}
	sort.Slice(result, func(i, j int) bool {
		return result[i].Request.ID < result[j].Request.ID
	})
	return result, nil
}

func (m *MockAttendance) CreateCorrection(ctx context.Context, req *store.CorrectionRequest) error {
	if m.CreateCorrectionError != nil {
		return m.CreateCorrectionError
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.correctionCounter++
	req.ID = m.correctionCounter
	copied := *req
	m.corrections[req.ID] = &copied
	return nil
}

func (m *MockAttendance) UpdateCorrectionStatus(ctx context.Context, id int64, status store.CorrectionStatus) error {
	if m.UpdateCorrectionStatusError != nil {
		return m.UpdateCorrectionStatusError
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	c, ok := m.corrections[id]
	if !ok {
		return store.ErrNotFound
	}
	c.Status = status
	return nil
}

func (m *MockAttendance) ResolveCorrection(ctx context.Context, id int64, status store.CorrectionStatus, recordID int64, recordStatus store.PresenceStatus) error {
	if m.ResolveCorrectionError != nil {
		return m.ResolveCorrectionError
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	c, ok := m.corrections[id]
	if !ok {
		return store.ErrNotFound
	}
	r, ok := m.records[recordID]
	if !ok {
		return store.ErrNotFound
	}
	c.Status = status
	r.Status = recordStatus
	return nil
}

// Verify interface compliance
var _ store.RosterWriter = (*MockRoster)(nil)
var _ store.InstructorRepository = (*MockInstructors)(nil)
var _ store.SessionWriter = (*MockAttendance)(nil)
var _ store.RecordWriter = (*MockAttendance)(nil)
var _ store.CorrectionRepository = (*MockAttendance)(nil)
