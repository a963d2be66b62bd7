package handlers

import (
	"errors"
	"io"
	"log"
	"net/http"

	"github.com/facetrack/facetrack/internal/recognition"
	"github.com/facetrack/facetrack/internal/store"
	"github.com/facetrack/facetrack/internal/web/middleware"
)

// maxEnrollmentUpload bounds the multipart form kept in memory.
const maxEnrollmentUpload = 64 << 20

// StudentsHandler handles student enrollment and the student dashboard.
type StudentsHandler struct {
	roster   store.RosterWriter
	records  store.RecordReader
	enroller *recognition.Enroller
	index    *store.SignatureIndex
}

// NewStudentsHandler creates a new students handler
func NewStudentsHandler(roster store.RosterWriter, records store.RecordReader, enroller *recognition.Enroller, index *store.SignatureIndex) *StudentsHandler {
	return &StudentsHandler{
		roster:   roster,
		records:  records,
		enroller: enroller,
		index:    index,
	}
}

// Enroll registers a student from a multipart form with profile fields
// and enrollment photos. The reference signature is computed before
// anything is stored, so a failed enrollment leaves no partial entry.
func (h *StudentsHandler) Enroll(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseMultipartForm(maxEnrollmentUpload); err != nil {
		respondError(w, http.StatusBadRequest, "invalid multipart form")
		return
	}

	enrollmentNo := r.FormValue("enrollment_no")
	fullName := r.FormValue("full_name")
	password := r.FormValue("password")
	if enrollmentNo == "" || fullName == "" || password == "" {
		respondError(w, http.StatusBadRequest, "enrollment_no, full_name and password are required")
		return
	}

	if _, err := h.roster.GetByEnrollmentNo(r.Context(), enrollmentNo); err == nil {
		respondError(w, http.StatusConflict, "student already enrolled")
		return
	} else if !errors.Is(err, store.ErrNotFound) {
		respondError(w, http.StatusInternalServerError, "failed to check enrollment")
		return
	}

	files := r.MultipartForm.File["photos"]
	photos := make([][]byte, 0, len(files))
	for _, fh := range files {
		f, err := fh.Open()
		if err != nil {
			respondError(w, http.StatusBadRequest, "failed to read photo upload")
			return
		}
		data, err := io.ReadAll(f)
		f.Close()
		if err != nil {
			respondError(w, http.StatusBadRequest, "failed to read photo upload")
			return
		}
		photos = append(photos, data)
	}

	signature, err := h.enroller.Enroll(r.Context(), photos, nil)
	if err != nil {
		var insufficientErr *recognition.InsufficientSamplesError
		if errors.As(err, &insufficientErr) {
			respondError(w, http.StatusUnprocessableEntity, insufficientErr.Error())
			return
		}
		log.Printf("enrollment failed for %s: %v", sanitizeForLog(enrollmentNo), err)
		respondError(w, http.StatusInternalServerError, "enrollment failed")
		return
	}

	entry := &store.RosterEntry{
		EnrollmentNo: enrollmentNo,
		FullName:     fullName,
		Gender:       r.FormValue("gender"),
		Year:         r.FormValue("year"),
		Semester:     r.FormValue("semester"),
		Password:     password,
		Signature:    signature,
	}
	if err := h.roster.Create(r.Context(), entry); err != nil {
		log.Printf("failed to store roster entry %s: %v", sanitizeForLog(enrollmentNo), err)
		respondError(w, http.StatusInternalServerError, "failed to store enrollment")
		return
	}

	h.index.Add(entry)

	respondJSON(w, http.StatusCreated, map[string]any{
		"id":            entry.ID,
		"enrollment_no": entry.EnrollmentNo,
		"full_name":     entry.FullName,
		"photos_used":   len(photos),
	})
}

// subjectSummary is one course block on the student dashboard.
type subjectSummary struct {
	Subject    string         `json:"subject"`
	Entries    []historyEntry `json:"entries"`
	Present    int            `json:"present"`
	Total      int            `json:"total"`
	Percentage float64        `json:"percentage"`
}

type historyEntry struct {
	Date   string `json:"date"`
	Status string `json:"status"`
}

// MyAttendance returns the calling student's history grouped by subject
// with a per-subject percentage.
func (h *StudentsHandler) MyAttendance(w http.ResponseWriter, r *http.Request) {
	session := middleware.GetSessionFromContext(r.Context())
	if session == nil || session.Role != middleware.RoleStudent {
		respondError(w, http.StatusForbidden, "student access required")
		return
	}

	history, err := h.records.HistoryByStudent(r.Context(), session.EnrollmentNo)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "failed to load attendance history")
		return
	}

	bySubject := make(map[string]*subjectSummary)
	var order []string
	for _, entry := range history {
		subject := entry.Session.Subject
		summary, ok := bySubject[subject]
		if !ok {
			summary = &subjectSummary{Subject: subject}
			bySubject[subject] = summary
			order = append(order, subject)
		}
		summary.Entries = append(summary.Entries, historyEntry{
			Date:   entry.Session.Date,
			Status: string(entry.Record.Status),
		})
		summary.Total++
		if entry.Record.Status == store.StatusPresent {
			summary.Present++
		}
	}

	summaries := make([]subjectSummary, 0, len(order))
	for _, subject := range order {
		s := bySubject[subject]
		if s.Total > 0 {
			s.Percentage = roundPercentage(float64(s.Present) / float64(s.Total) * 100)
		}
		summaries = append(summaries, *s)
	}

	respondJSON(w, http.StatusOK, map[string]any{
		"enrollment_no": session.EnrollmentNo,
		"subjects":      summaries,
	})
}
