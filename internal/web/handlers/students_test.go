package handlers

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/facetrack/facetrack/internal/recognition"
	"github.com/facetrack/facetrack/internal/store"
	"github.com/facetrack/facetrack/internal/store/mock"
)

func enrollFields(enrollmentNo string) map[string]string {
	return map[string]string{
		"enrollment_no": enrollmentNo,
		"full_name":     "Alice Novak",
		"password":      "alice-pass",
		"gender":        "F",
		"year":          "2",
		"semester":      "4",
	}
}

func TestEnroll_CreatesRosterEntry(t *testing.T) {
	roster := mock.NewMockRoster()
	index := store.NewSignatureIndex()
	detector := detectorFunc(func(ctx context.Context, imageData []byte) ([]recognition.Detection, error) {
		return []recognition.Detection{faceDetection(0, []float64{10, 10, 50, 50})}, nil
	})
	handler := NewStudentsHandler(roster, mock.NewMockAttendance(), recognition.NewEnroller(detector, 3), index)

	photos := [][]byte{[]byte("p1"), []byte("p2"), []byte("p3")}
	req := multipartRequest(t, "/api/v1/students", enrollFields("EN-001"), photos)
	rec := httptest.NewRecorder()
	handler.Enroll(rec, req)

	assertStatusCode(t, rec, http.StatusCreated)

	entry, err := roster.GetByEnrollmentNo(context.Background(), "EN-001")
	if err != nil {
		t.Fatalf("expected roster entry after enrollment: %v", err)
	}
	if len(entry.Signature) == 0 {
		t.Error("expected a reference signature to be stored")
	}
	if entry.Year != "2" || entry.Semester != "4" {
		t.Errorf("cohort fields not stored: year=%q semester=%q", entry.Year, entry.Semester)
	}
	if index.Len() != 1 {
		t.Errorf("expected 1 indexed signature, got %d", index.Len())
	}

	var resp map[string]any
	parseJSONResponse(t, rec, &resp)
	if resp["photos_used"].(float64) != 3 {
		t.Errorf("expected photos_used 3, got %v", resp["photos_used"])
	}
}

func TestEnroll_InsufficientSamples(t *testing.T) {
	roster := mock.NewMockRoster()
	detector := detectorFunc(func(ctx context.Context, imageData []byte) ([]recognition.Detection, error) {
		// no face found in any photo
		return nil, nil
	})
	handler := NewStudentsHandler(roster, mock.NewMockAttendance(), recognition.NewEnroller(detector, 3), store.NewSignatureIndex())

	photos := [][]byte{[]byte("p1"), []byte("p2"), []byte("p3")}
	req := multipartRequest(t, "/api/v1/students", enrollFields("EN-001"), photos)
	rec := httptest.NewRecorder()
	handler.Enroll(rec, req)

	assertStatusCode(t, rec, http.StatusUnprocessableEntity)

	if _, err := roster.GetByEnrollmentNo(context.Background(), "EN-001"); err == nil {
		t.Error("expected no roster entry after failed enrollment")
	}
}

func TestEnroll_DuplicateEnrollmentNo(t *testing.T) {
	roster := mock.NewMockRoster()
	roster.AddEntry(store.RosterEntry{EnrollmentNo: "EN-001", FullName: "Alice Novak"})
	detector := detectorFunc(func(ctx context.Context, imageData []byte) ([]recognition.Detection, error) {
		return []recognition.Detection{faceDetection(0, []float64{10, 10, 50, 50})}, nil
	})
	handler := NewStudentsHandler(roster, mock.NewMockAttendance(), recognition.NewEnroller(detector, 3), store.NewSignatureIndex())

	photos := [][]byte{[]byte("p1"), []byte("p2"), []byte("p3")}
	req := multipartRequest(t, "/api/v1/students", enrollFields("EN-001"), photos)
	rec := httptest.NewRecorder()
	handler.Enroll(rec, req)

	assertStatusCode(t, rec, http.StatusConflict)
}

func TestEnroll_MissingFields(t *testing.T) {
	handler := NewStudentsHandler(mock.NewMockRoster(), mock.NewMockAttendance(), recognition.NewEnroller(nil, 3), store.NewSignatureIndex())

	req := multipartRequest(t, "/api/v1/students", map[string]string{"enrollment_no": "EN-001"}, nil)
	rec := httptest.NewRecorder()
	handler.Enroll(rec, req)

	assertStatusCode(t, rec, http.StatusBadRequest)
}

func TestMyAttendance_GroupsBySubject(t *testing.T) {
	attendance := mock.NewMockAttendance()
	ctx := context.Background()

	seed := []struct {
		subject string
		date    string
		status  store.PresenceStatus
	}{
		{"Algorithms", "2026-01-05", store.StatusPresent},
		{"Algorithms", "2026-01-12", store.StatusAbsent},
		{"Databases", "2026-01-06", store.StatusPresent},
		{"Algorithms", "2026-01-19", store.StatusPresent},
	}
	for _, s := range seed {
		session := &store.Session{Subject: s.subject, Date: s.date, Year: "2", Semester: "4", InstructorEmail: "smith@example.edu"}
		records := []store.PresenceRecord{{EnrollmentNo: "EN-001", StudentName: "Alice Novak", Status: s.status}}
		if err := attendance.CreateWithRecords(ctx, session, records); err != nil {
			t.Fatalf("failed to seed session: %v", err)
		}
	}

	handler := NewStudentsHandler(mock.NewMockRoster(), attendance, nil, store.NewSignatureIndex())

	req := studentSession(httptest.NewRequest(http.MethodGet, "/api/v1/me/attendance", nil), "EN-001", "Alice Novak")
	rec := httptest.NewRecorder()
	handler.MyAttendance(rec, req)

	assertStatusCode(t, rec, http.StatusOK)

	var resp struct {
		EnrollmentNo string           `json:"enrollment_no"`
		Subjects     []subjectSummary `json:"subjects"`
	}
	parseJSONResponse(t, rec, &resp)

	if len(resp.Subjects) != 2 {
		t.Fatalf("expected 2 subjects, got %d", len(resp.Subjects))
	}

	bySubject := make(map[string]subjectSummary)
	for _, s := range resp.Subjects {
		bySubject[s.Subject] = s
	}

	algo := bySubject["Algorithms"]
	if algo.Present != 2 || algo.Total != 3 {
		t.Errorf("expected Algorithms 2/3, got %d/%d", algo.Present, algo.Total)
	}
	if algo.Percentage != 66.7 {
		t.Errorf("expected Algorithms percentage 66.7, got %v", algo.Percentage)
	}

	db := bySubject["Databases"]
	if db.Percentage != 100.0 {
		t.Errorf("expected Databases percentage 100, got %v", db.Percentage)
	}
}

func TestMyAttendance_RequiresStudentRole(t *testing.T) {
	handler := NewStudentsHandler(mock.NewMockRoster(), mock.NewMockAttendance(), nil, store.NewSignatureIndex())

	req := instructorSession(httptest.NewRequest(http.MethodGet, "/api/v1/me/attendance", nil), "smith@example.edu", "Dr. Smith")
	rec := httptest.NewRecorder()
	handler.MyAttendance(rec, req)

	assertStatusCode(t, rec, http.StatusForbidden)
}
