package handlers

import (
	"fmt"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/facetrack/facetrack/internal/attendance"
	"github.com/facetrack/facetrack/internal/store"
	"github.com/facetrack/facetrack/internal/web/middleware"
)

// ReportsHandler serves multi-session attendance reports.
type ReportsHandler struct {
	roster   store.RosterReader
	sessions store.SessionReader
	records  store.RecordReader
}

// NewReportsHandler creates a new reports handler
func NewReportsHandler(roster store.RosterReader, sessions store.SessionReader, records store.RecordReader) *ReportsHandler {
	return &ReportsHandler{
		roster:   roster,
		sessions: sessions,
		records:  records,
	}
}

// ListCourses returns the distinct courses the instructor has captured
// sessions for.
func (h *ReportsHandler) ListCourses(w http.ResponseWriter, r *http.Request) {
	session := middleware.GetSessionFromContext(r.Context())

	courses, err := h.sessions.ListCourses(r.Context(), session.Email)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "failed to list courses")
		return
	}

	respondJSON(w, http.StatusOK, map[string]any{"courses": courses})
}

// Get returns the attendance report for one course as JSON.
func (h *ReportsHandler) Get(w http.ResponseWriter, r *http.Request) {
	report, status, err := h.buildReport(r)
	if err != nil {
		respondError(w, status, err.Error())
		return
	}

	respondJSON(w, http.StatusOK, report)
}

// Export returns the report as a downloadable CSV file.
func (h *ReportsHandler) Export(w http.ResponseWriter, r *http.Request) {
	report, status, err := h.buildReport(r)
	if err != nil {
		respondError(w, status, err.Error())
		return
	}

	filename := fmt.Sprintf("attendance_%s_%s_%s.csv", report.Subject, report.Year, report.Semester)
	w.Header().Set("Content-Type", "text/csv")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
	w.WriteHeader(http.StatusOK)

	if err := attendance.WriteCSV(w, report); err != nil {
		// headers are already out; nothing useful left to send
		return
	}
}

func (h *ReportsHandler) buildReport(r *http.Request) (attendance.Report, int, error) {
	session := middleware.GetSessionFromContext(r.Context())

	course := store.Course{
		Subject:  chi.URLParam(r, "subject"),
		Year:     chi.URLParam(r, "year"),
		Semester: chi.URLParam(r, "semester"),
	}

	sessions, err := h.sessions.ListByCourse(r.Context(), course.Subject, course.Year, course.Semester, session.Email)
	if err != nil {
		return attendance.Report{}, http.StatusInternalServerError, fmt.Errorf("failed to load sessions")
	}
	if len(sessions) == 0 {
		return attendance.Report{}, http.StatusNotFound, fmt.Errorf("no sessions for this course")
	}

	roster, err := h.roster.ListByCohort(r.Context(), course.Year, course.Semester)
	if err != nil {
		return attendance.Report{}, http.StatusInternalServerError, fmt.Errorf("failed to load roster")
	}

	var records []store.PresenceRecord
	for _, s := range sessions {
		rs, err := h.records.RecordsBySession(r.Context(), s.ID)
		if err != nil {
			return attendance.Report{}, http.StatusInternalServerError, fmt.Errorf("failed to load records")
		}
		records = append(records, rs...)
	}

	return attendance.Build(course, sessions, roster, records), http.StatusOK, nil
}
