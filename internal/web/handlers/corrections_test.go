package handlers

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strconv"
	"testing"

	"github.com/facetrack/facetrack/internal/store"
	"github.com/facetrack/facetrack/internal/store/mock"
)

// correctionsFixture seeds one session owned by smith with Alice marked
// absent and returns her record.
func correctionsFixture(t *testing.T) (*CorrectionsHandler, *mock.MockAttendance, store.PresenceRecord) {
	t.Helper()

	roster := mock.NewMockRoster()
	roster.AddEntry(store.RosterEntry{EnrollmentNo: "EN-001", FullName: "Jan Novák", Year: "2", Semester: "4"})

	att := mock.NewMockAttendance()
	session := &store.Session{Subject: "Algorithms", Date: "2026-01-05", Year: "2", Semester: "4", InstructorEmail: "smith@example.edu"}
	records := []store.PresenceRecord{{EnrollmentNo: "EN-001", StudentName: "Jan Novák", Status: store.StatusAbsent}}
	if err := att.CreateWithRecords(context.Background(), session, records); err != nil {
		t.Fatalf("failed to seed session: %v", err)
	}

	stored, err := att.RecordsBySession(context.Background(), session.ID)
	if err != nil || len(stored) != 1 {
		t.Fatalf("failed to load seeded record: %v", err)
	}

	return NewCorrectionsHandler(roster, att, att, att), att, stored[0]
}

func createCorrection(t *testing.T, handler *CorrectionsHandler, att *mock.MockAttendance, record store.PresenceRecord) store.CorrectionRequest {
	t.Helper()

	req := jsonRequest(t, http.MethodPost, "/api/v1/records/1/corrections", map[string]string{"reason": "I was in class"})
	req = studentSession(req, record.EnrollmentNo, record.StudentName)
	req = requestWithChiParams(req, map[string]string{"id": strconv.FormatInt(record.ID, 10)})
	rec := httptest.NewRecorder()
	handler.Create(rec, req)

	assertStatusCode(t, rec, http.StatusCreated)

	var resp struct {
		ID int64 `json:"id"`
	}
	parseJSONResponse(t, rec, &resp)

	correction, err := att.GetCorrection(context.Background(), resp.ID)
	if err != nil {
		t.Fatalf("failed to load created correction: %v", err)
	}
	return *correction
}

func TestCorrectionCreate(t *testing.T) {
	handler, att, record := correctionsFixture(t)

	correction := createCorrection(t, handler, att, record)
	if correction.Status != store.CorrectionPending {
		t.Errorf("expected Pending, got %q", correction.Status)
	}
	if correction.RecordID != record.ID {
		t.Errorf("expected record id %d, got %d", record.ID, correction.RecordID)
	}
}

func TestCorrectionCreate_OtherStudentsRecord(t *testing.T) {
	handler, _, record := correctionsFixture(t)

	req := jsonRequest(t, http.MethodPost, "/api/v1/records/1/corrections", map[string]string{"reason": "not mine"})
	req = studentSession(req, "EN-999", "Somebody Else")
	req = requestWithChiParams(req, map[string]string{"id": strconv.FormatInt(record.ID, 10)})
	rec := httptest.NewRecorder()
	handler.Create(rec, req)

	assertStatusCode(t, rec, http.StatusForbidden)
}

func TestCorrectionCreate_EmptyReason(t *testing.T) {
	handler, _, record := correctionsFixture(t)

	req := jsonRequest(t, http.MethodPost, "/api/v1/records/1/corrections", map[string]string{"reason": "  "})
	req = studentSession(req, record.EnrollmentNo, record.StudentName)
	req = requestWithChiParams(req, map[string]string{"id": strconv.FormatInt(record.ID, 10)})
	rec := httptest.NewRecorder()
	handler.Create(rec, req)

	assertStatusCode(t, rec, http.StatusBadRequest)
}

func TestCorrectionApprove_FlipsRecord(t *testing.T) {
	handler, att, record := correctionsFixture(t)
	correction := createCorrection(t, handler, att, record)

	req := jsonRequest(t, http.MethodPost, "/api/v1/corrections/1/approve", nil)
	req = instructorSession(req, "smith@example.edu", "Dr. Smith")
	req = requestWithChiParams(req, map[string]string{"id": strconv.FormatInt(correction.ID, 10)})
	rec := httptest.NewRecorder()
	handler.Approve(rec, req)

	assertStatusCode(t, rec, http.StatusOK)

	updated, err := att.GetRecord(context.Background(), record.ID)
	if err != nil {
		t.Fatalf("failed to reload record: %v", err)
	}
	if updated.Status != store.StatusPresent {
		t.Errorf("expected record flipped to Present, got %q", updated.Status)
	}

	stored, err := att.GetCorrection(context.Background(), correction.ID)
	if err != nil {
		t.Fatalf("failed to reload correction: %v", err)
	}
	if stored.Status != store.CorrectionResolved {
		t.Errorf("expected Resolved, got %q", stored.Status)
	}
}

func TestCorrectionApprove_StorageFailureLeavesBothUntouched(t *testing.T) {
	handler, att, record := correctionsFixture(t)
	correction := createCorrection(t, handler, att, record)

	att.ResolveCorrectionError = errors.New("connection reset")

	req := jsonRequest(t, http.MethodPost, "/api/v1/corrections/1/approve", nil)
	req = instructorSession(req, "smith@example.edu", "Dr. Smith")
	req = requestWithChiParams(req, map[string]string{"id": strconv.FormatInt(correction.ID, 10)})
	rec := httptest.NewRecorder()
	handler.Approve(rec, req)

	assertStatusCode(t, rec, http.StatusInternalServerError)

	// neither side of the resolution may land on its own
	stored, err := att.GetCorrection(context.Background(), correction.ID)
	if err != nil {
		t.Fatalf("failed to reload correction: %v", err)
	}
	if stored.Status != store.CorrectionPending {
		t.Errorf("expected correction to stay Pending, got %q", stored.Status)
	}

	updated, err := att.GetRecord(context.Background(), record.ID)
	if err != nil {
		t.Fatalf("failed to reload record: %v", err)
	}
	if updated.Status != store.StatusAbsent {
		t.Errorf("expected record to stay Absent, got %q", updated.Status)
	}
}

func TestCorrectionReject_KeepsRecord(t *testing.T) {
	handler, att, record := correctionsFixture(t)
	correction := createCorrection(t, handler, att, record)

	req := jsonRequest(t, http.MethodPost, "/api/v1/corrections/1/reject", nil)
	req = instructorSession(req, "smith@example.edu", "Dr. Smith")
	req = requestWithChiParams(req, map[string]string{"id": strconv.FormatInt(correction.ID, 10)})
	rec := httptest.NewRecorder()
	handler.Reject(rec, req)

	assertStatusCode(t, rec, http.StatusOK)

	updated, err := att.GetRecord(context.Background(), record.ID)
	if err != nil {
		t.Fatalf("failed to reload record: %v", err)
	}
	if updated.Status != store.StatusAbsent {
		t.Errorf("expected record to stay Absent, got %q", updated.Status)
	}
}

func TestCorrectionDecide_AlreadyFinalized(t *testing.T) {
	handler, att, record := correctionsFixture(t)
	correction := createCorrection(t, handler, att, record)

	decide := func(action func(http.ResponseWriter, *http.Request)) *httptest.ResponseRecorder {
		req := jsonRequest(t, http.MethodPost, "/api/v1/corrections/1/approve", nil)
		req = instructorSession(req, "smith@example.edu", "Dr. Smith")
		req = requestWithChiParams(req, map[string]string{"id": strconv.FormatInt(correction.ID, 10)})
		rec := httptest.NewRecorder()
		action(rec, req)
		return rec
	}

	assertStatusCode(t, decide(handler.Reject), http.StatusOK)
	assertStatusCode(t, decide(handler.Approve), http.StatusConflict)
}

func TestCorrectionDecide_OtherInstructor(t *testing.T) {
	handler, att, record := correctionsFixture(t)
	correction := createCorrection(t, handler, att, record)

	req := jsonRequest(t, http.MethodPost, "/api/v1/corrections/1/approve", nil)
	req = instructorSession(req, "other@example.edu", "Dr. Other")
	req = requestWithChiParams(req, map[string]string{"id": strconv.FormatInt(correction.ID, 10)})
	rec := httptest.NewRecorder()
	handler.Approve(rec, req)

	assertStatusCode(t, rec, http.StatusForbidden)
}

func TestCorrectionListPending_ScopedToOwner(t *testing.T) {
	handler, att, record := correctionsFixture(t)
	createCorrection(t, handler, att, record)

	list := func(email string) []store.PendingCorrection {
		req := httptest.NewRequest(http.MethodGet, "/api/v1/corrections", nil)
		req = instructorSession(req, email, "Instructor")
		rec := httptest.NewRecorder()
		handler.ListPending(rec, req)
		assertStatusCode(t, rec, http.StatusOK)

		var resp struct {
			Corrections []store.PendingCorrection `json:"corrections"`
		}
		parseJSONResponse(t, rec, &resp)
		return resp.Corrections
	}

	if got := list("smith@example.edu"); len(got) != 1 {
		t.Errorf("expected 1 pending correction for owner, got %d", len(got))
	}
	if got := list("other@example.edu"); len(got) != 0 {
		t.Errorf("expected no pending corrections for other instructor, got %d", len(got))
	}
}

func TestManualFix_ByEnrollmentNo(t *testing.T) {
	handler, att, record := correctionsFixture(t)

	req := jsonRequest(t, http.MethodPost, "/api/v1/records/manual-fix", map[string]string{
		"subject":       "Algorithms",
		"date":          "2026-01-05",
		"enrollment_no": "EN-001",
		"status":        "Present",
	})
	req = instructorSession(req, "smith@example.edu", "Dr. Smith")
	rec := httptest.NewRecorder()
	handler.ManualFix(rec, req)

	assertStatusCode(t, rec, http.StatusOK)

	updated, err := att.GetRecord(context.Background(), record.ID)
	if err != nil {
		t.Fatalf("failed to reload record: %v", err)
	}
	if updated.Status != store.StatusPresent {
		t.Errorf("expected Present after fix, got %q", updated.Status)
	}
}

func TestManualFix_ByNormalizedName(t *testing.T) {
	handler, att, record := correctionsFixture(t)

	req := jsonRequest(t, http.MethodPost, "/api/v1/records/manual-fix", map[string]string{
		"subject":      "Algorithms",
		"date":         "2026-01-05",
		"student_name": "jan-novak",
		"status":       "Present",
	})
	req = instructorSession(req, "smith@example.edu", "Dr. Smith")
	rec := httptest.NewRecorder()
	handler.ManualFix(rec, req)

	assertStatusCode(t, rec, http.StatusOK)

	updated, err := att.GetRecord(context.Background(), record.ID)
	if err != nil {
		t.Fatalf("failed to reload record: %v", err)
	}
	if updated.Status != store.StatusPresent {
		t.Errorf("expected Present after fix, got %q", updated.Status)
	}
}

func TestManualFix_InvalidStatus(t *testing.T) {
	handler, _, _ := correctionsFixture(t)

	req := jsonRequest(t, http.MethodPost, "/api/v1/records/manual-fix", map[string]string{
		"subject":       "Algorithms",
		"date":          "2026-01-05",
		"enrollment_no": "EN-001",
		"status":        "Late",
	})
	req = instructorSession(req, "smith@example.edu", "Dr. Smith")
	rec := httptest.NewRecorder()
	handler.ManualFix(rec, req)

	assertStatusCode(t, rec, http.StatusBadRequest)
}

func TestManualFix_NoSessionForDate(t *testing.T) {
	handler, _, _ := correctionsFixture(t)

	req := jsonRequest(t, http.MethodPost, "/api/v1/records/manual-fix", map[string]string{
		"subject":       "Algorithms",
		"date":          "2026-02-01",
		"enrollment_no": "EN-001",
		"status":        "Present",
	})
	req = instructorSession(req, "smith@example.edu", "Dr. Smith")
	rec := httptest.NewRecorder()
	handler.ManualFix(rec, req)

	assertStatusCode(t, rec, http.StatusNotFound)
}
