package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/facetrack/facetrack/internal/attendance"
	"github.com/facetrack/facetrack/internal/store"
	"github.com/facetrack/facetrack/internal/web/middleware"
)

// CorrectionsHandler handles the correction request workflow and manual
// record overrides.
type CorrectionsHandler struct {
	roster      store.RosterReader
	sessions    store.SessionReader
	records     store.RecordWriter
	corrections store.CorrectionRepository
}

// NewCorrectionsHandler creates a new corrections handler
func NewCorrectionsHandler(roster store.RosterReader, sessions store.SessionReader, records store.RecordWriter, corrections store.CorrectionRepository) *CorrectionsHandler {
	return &CorrectionsHandler{
		roster:      roster,
		sessions:    sessions,
		records:     records,
		corrections: corrections,
	}
}

func callerIdentity(s *middleware.Session) attendance.Identity {
	return attendance.Identity{
		Role:         s.Role,
		Email:        s.Email,
		EnrollmentNo: s.EnrollmentNo,
	}
}

// Create opens a correction request against one presence record. Only
// the student the record belongs to may dispute it.
func (h *CorrectionsHandler) Create(w http.ResponseWriter, r *http.Request) {
	session := middleware.GetSessionFromContext(r.Context())

	recordID, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		respondError(w, http.StatusBadRequest, "invalid record id")
		return
	}

	var req struct {
		Reason string `json:"reason"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, errInvalidRequestBody)
		return
	}
	if strings.TrimSpace(req.Reason) == "" {
		respondError(w, http.StatusBadRequest, "reason is required")
		return
	}

	record, err := h.records.GetRecord(r.Context(), recordID)
	if errors.Is(err, store.ErrNotFound) {
		respondError(w, http.StatusNotFound, "record not found")
		return
	}
	if err != nil {
		respondError(w, http.StatusInternalServerError, "failed to load record")
		return
	}

	correction, err := attendance.Create(callerIdentity(session), *record, req.Reason)
	if errors.Is(err, attendance.ErrNotOwner) {
		respondError(w, http.StatusForbidden, "record belongs to another student")
		return
	}
	if err != nil {
		respondError(w, http.StatusInternalServerError, "failed to create correction request")
		return
	}

	if err := h.corrections.CreateCorrection(r.Context(), &correction); err != nil {
		respondError(w, http.StatusInternalServerError, "failed to save correction request")
		return
	}

	respondJSON(w, http.StatusCreated, map[string]any{
		"id":     correction.ID,
		"status": correction.Status,
	})
}

// ListPending returns the pending requests awaiting the instructor's
// decision, scoped to sessions they own.
func (h *CorrectionsHandler) ListPending(w http.ResponseWriter, r *http.Request) {
	session := middleware.GetSessionFromContext(r.Context())

	pending, err := h.corrections.PendingForOwner(r.Context(), session.Email)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "failed to list correction requests")
		return
	}

	respondJSON(w, http.StatusOK, map[string]any{"corrections": pending})
}

// Approve resolves a pending request and flips its record to Present.
func (h *CorrectionsHandler) Approve(w http.ResponseWriter, r *http.Request) {
	h.decide(w, r, true)
}

// Reject finalizes a pending request without touching the record.
func (h *CorrectionsHandler) Reject(w http.ResponseWriter, r *http.Request) {
	h.decide(w, r, false)
}

func (h *CorrectionsHandler) decide(w http.ResponseWriter, r *http.Request, approve bool) {
	session := middleware.GetSessionFromContext(r.Context())

	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		respondError(w, http.StatusBadRequest, "invalid correction id")
		return
	}

	req, err := h.corrections.GetCorrection(r.Context(), id)
	if errors.Is(err, store.ErrNotFound) {
		respondError(w, http.StatusNotFound, "correction request not found")
		return
	}
	if err != nil {
		respondError(w, http.StatusInternalServerError, "failed to load correction request")
		return
	}

	record, err := h.records.GetRecord(r.Context(), req.RecordID)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "failed to load record")
		return
	}

	owningSession, err := h.sessions.Get(r.Context(), record.SessionID)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "failed to load session")
		return
	}

	caller := callerIdentity(session)
	if approve {
		err = attendance.Approve(caller, req, record, *owningSession)
	} else {
		err = attendance.Reject(caller, req, *owningSession)
	}
	switch {
	case errors.Is(err, attendance.ErrNotOwner):
		respondError(w, http.StatusForbidden, "correction belongs to another instructor's session")
		return
	case errors.Is(err, attendance.ErrAlreadyFinalized):
		respondError(w, http.StatusConflict, "correction request already finalized")
		return
	case err != nil:
		respondError(w, http.StatusInternalServerError, "failed to decide correction request")
		return
	}

	// Approval writes the request and its record together so neither
	// can land without the other.
	if approve {
		err = h.corrections.ResolveCorrection(r.Context(), req.ID, req.Status, record.ID, record.Status)
	} else {
		err = h.corrections.UpdateCorrectionStatus(r.Context(), req.ID, req.Status)
	}
	if err != nil {
		respondError(w, http.StatusInternalServerError, "failed to save correction decision")
		return
	}

	respondJSON(w, http.StatusOK, map[string]any{
		"id":     req.ID,
		"status": req.Status,
		"record": record,
	})
}

type manualFixRequest struct {
	Subject      string `json:"subject"`
	Date         string `json:"date"`
	EnrollmentNo string `json:"enrollment_no"`
	StudentName  string `json:"student_name"`
	Status       string `json:"status"`
}

// ManualFix lets an instructor override one record directly, identified
// by subject, date and either enrollment number or student name. Names
// are normalized so "jan-novak" finds "Jan Novák".
func (h *CorrectionsHandler) ManualFix(w http.ResponseWriter, r *http.Request) {
	session := middleware.GetSessionFromContext(r.Context())

	var req manualFixRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, errInvalidRequestBody)
		return
	}
	if req.Subject == "" || req.Date == "" {
		respondError(w, http.StatusBadRequest, "subject and date are required")
		return
	}

	status := store.PresenceStatus(req.Status)
	if status != store.StatusPresent && status != store.StatusAbsent {
		respondError(w, http.StatusBadRequest, "status must be Present or Absent")
		return
	}

	enrollmentNo := req.EnrollmentNo
	if enrollmentNo == "" {
		if req.StudentName == "" {
			respondError(w, http.StatusBadRequest, "enrollment_no or student_name is required")
			return
		}
		entry, err := h.roster.FindByName(r.Context(), req.StudentName)
		if errors.Is(err, store.ErrNotFound) {
			respondError(w, http.StatusNotFound, "student not found")
			return
		}
		if err != nil {
			respondError(w, http.StatusInternalServerError, "failed to look up student")
			return
		}
		enrollmentNo = entry.EnrollmentNo
	}

	owningSession, err := h.sessions.FindByDate(r.Context(), req.Subject, req.Date, session.Email)
	if errors.Is(err, store.ErrNotFound) {
		respondError(w, http.StatusNotFound, "no session for that subject and date")
		return
	}
	if err != nil {
		respondError(w, http.StatusInternalServerError, "failed to look up session")
		return
	}

	record, err := h.records.RecordFor(r.Context(), owningSession.ID, enrollmentNo)
	if errors.Is(err, store.ErrNotFound) {
		respondError(w, http.StatusNotFound, "no record for that student in the session")
		return
	}
	if err != nil {
		respondError(w, http.StatusInternalServerError, "failed to look up record")
		return
	}

	if err := h.records.UpdateRecordStatus(r.Context(), record.ID, status); err != nil {
		respondError(w, http.StatusInternalServerError, "failed to update record")
		return
	}
	record.Status = status

	respondJSON(w, http.StatusOK, map[string]any{"record": record})
}
