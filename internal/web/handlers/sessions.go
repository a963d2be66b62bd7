package handlers

import (
	"errors"
	"io"
	"log"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/facetrack/facetrack/internal/attendance"
	"github.com/facetrack/facetrack/internal/gallery"
	"github.com/facetrack/facetrack/internal/recognition"
	"github.com/facetrack/facetrack/internal/store"
	"github.com/facetrack/facetrack/internal/web/middleware"
)

const maxCaptureUpload = 128 << 20

// SessionsHandler handles capture and per-session report endpoints.
type SessionsHandler struct {
	roster     store.RosterReader
	sessions   store.SessionWriter
	records    store.RecordReader
	recognizer *recognition.Recognizer
	gallery    *gallery.Gallery
}

// NewSessionsHandler creates a new sessions handler
func NewSessionsHandler(roster store.RosterReader, sessions store.SessionWriter, records store.RecordReader, recognizer *recognition.Recognizer, g *gallery.Gallery) *SessionsHandler {
	return &SessionsHandler{
		roster:     roster,
		sessions:   sessions,
		records:    records,
		recognizer: recognizer,
		gallery:    g,
	}
}

// Capture runs recognition over uploaded class photos and persists the
// session with one presence record per cohort member. The session and
// all records are written in one transaction; a storage failure leaves
// nothing behind.
func (h *SessionsHandler) Capture(w http.ResponseWriter, r *http.Request) {
	session := middleware.GetSessionFromContext(r.Context())

	if err := r.ParseMultipartForm(maxCaptureUpload); err != nil {
		respondError(w, http.StatusBadRequest, "invalid multipart form")
		return
	}

	subject := r.FormValue("subject")
	date := r.FormValue("date")
	year := r.FormValue("year")
	semester := r.FormValue("semester")
	if subject == "" || date == "" || year == "" || semester == "" {
		respondError(w, http.StatusBadRequest, "subject, date, year and semester are required")
		return
	}

	files := r.MultipartForm.File["photos"]
	if len(files) == 0 {
		respondError(w, http.StatusBadRequest, "at least one class photo is required")
		return
	}

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

	cohort, err := h.roster.ListByCohort(r.Context(), year, semester)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "failed to load cohort roster")
		return
	}

	candidates := make([]recognition.Candidate, 0, len(cohort))
	for _, member := range cohort {
		candidates = append(candidates, recognition.Candidate{
			EnrollmentNo: member.EnrollmentNo,
			FullName:     member.FullName,
			Signature:    member.Signature,
		})
	}

	result, err := h.recognizer.Recognize(r.Context(), photos, candidates)
	if err != nil {
		log.Printf("recognition failed for %s %s: %v", sanitizeForLog(subject), sanitizeForLog(date), err)
		respondError(w, http.StatusInternalServerError, "recognition failed")
		return
	}

	newSession := &store.Session{
		Subject:         subject,
		Date:            date,
		Year:            year,
		Semester:        semester,
		InstructorEmail: session.Email,
	}
	records := attendance.BuildRecords(0, cohort, result.Found)

	if err := h.sessions.CreateWithRecords(r.Context(), newSession, records); err != nil {
		log.Printf("failed to persist session %s %s: %v", sanitizeForLog(subject), sanitizeForLog(date), err)
		respondError(w, http.StatusInternalServerError, "failed to persist session")
		return
	}

	var images []string
	for _, annotated := range result.Images {
		name, err := h.gallery.Save(newSession.ID, annotated.PhotoIndex, annotated.JPEG)
		if err != nil {
			// the session is already committed; keep going without this image
			log.Printf("failed to save annotated photo for session %d: %v", newSession.ID, err)
			continue
		}
		images = append(images, name)
	}

	respondJSON(w, http.StatusCreated, map[string]any{
		"session": sessionResponse(newSession),
		"present": len(result.Found),
		"absent":  len(cohort) - len(result.Found),
		"images":  images,
	})
}

// Get returns one session's daily report: its records and the annotated
// image names.
func (h *SessionsHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		respondError(w, http.StatusBadRequest, "invalid session id")
		return
	}

	s, err := h.sessions.Get(r.Context(), id)
	if errors.Is(err, store.ErrNotFound) {
		respondError(w, http.StatusNotFound, "session not found")
		return
	}
	if err != nil {
		respondError(w, http.StatusInternalServerError, "failed to load session")
		return
	}

	records, err := h.records.RecordsBySession(r.Context(), id)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "failed to load records")
		return
	}

	images, err := h.gallery.List(id)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "failed to list session images")
		return
	}

	respondJSON(w, http.StatusOK, map[string]any{
		"session": sessionResponse(s),
		"records": records,
		"images":  images,
	})
}

// Image serves one annotated session photo.
func (h *SessionsHandler) Image(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "name")
	data, err := h.gallery.Open(name)
	if err != nil {
		respondError(w, http.StatusNotFound, "image not found")
		return
	}

	w.Header().Set("Content-Type", "image/jpeg")
	w.WriteHeader(http.StatusOK)
	w.Write(data)
}

func sessionResponse(s *store.Session) map[string]any {
	return map[string]any{
		"id":         s.ID,
		"subject":    s.Subject,
		"date":       s.Date,
		"year":       s.Year,
		"semester":   s.Semester,
		"instructor": s.InstructorEmail,
	}
}
