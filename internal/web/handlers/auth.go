package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/facetrack/facetrack/internal/store"
	"github.com/facetrack/facetrack/internal/web/middleware"
)

// AuthHandler handles authentication endpoints for both roles. Students
// log in with their enrollment number, instructors with their email.
type AuthHandler struct {
	roster         store.RosterReader
	instructors    store.InstructorRepository
	sessionManager *middleware.SessionManager
}

// NewAuthHandler creates a new auth handler
func NewAuthHandler(roster store.RosterReader, instructors store.InstructorRepository, sm *middleware.SessionManager) *AuthHandler {
	return &AuthHandler{
		roster:         roster,
		instructors:    instructors,
		sessionManager: sm,
	}
}

// loginRequest represents a login request
type loginRequest struct {
	role       string
	identifier string
	password   string
}

func (l *loginRequest) UnmarshalJSON(data []byte) error {
	var raw map[string]string
	if err := json.Unmarshal(data, &raw); err != nil {
		return fmt.Errorf("unmarshal login request: %w", err)
	}
	l.role = raw["role"]
	l.identifier = raw["identifier"]
	l.password = raw["password"]
	return nil
}

// LoginResponse represents a login response
type LoginResponse struct {
	Success   bool   `json:"success"`
	SessionID string `json:"session_id,omitempty"`
	Role      string `json:"role,omitempty"`
	Name      string `json:"name,omitempty"`
	ExpiresAt string `json:"expires_at,omitempty"`
	Error     string `json:"error,omitempty"`
}

// Login authenticates a student or instructor and opens a session.
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, errInvalidRequestBody)
		return
	}

	if req.identifier == "" || req.password == "" {
		respondError(w, http.StatusBadRequest, "identifier and password are required")
		return
	}

	var session *middleware.Session
	switch req.role {
	case middleware.RoleStudent:
		entry, err := h.roster.GetByEnrollmentNo(r.Context(), req.identifier)
		if err != nil || entry.Password != req.password {
			respondJSON(w, http.StatusUnauthorized, LoginResponse{Success: false, Error: "invalid credentials"})
			return
		}
		session = h.sessionManager.CreateSession(middleware.RoleStudent, "", entry.EnrollmentNo, entry.FullName)

	case middleware.RoleInstructor:
		instructor, err := h.instructors.GetByEmail(r.Context(), req.identifier)
		if err != nil || instructor.Password != req.password {
			respondJSON(w, http.StatusUnauthorized, LoginResponse{Success: false, Error: "invalid credentials"})
			return
		}
		session = h.sessionManager.CreateSession(middleware.RoleInstructor, instructor.Email, "", instructor.FullName)

	default:
		respondError(w, http.StatusBadRequest, "role must be student or instructor")
		return
	}

	h.sessionManager.SetSessionCookie(w, session)

	respondJSON(w, http.StatusOK, LoginResponse{
		Success:   true,
		SessionID: session.ID,
		Role:      session.Role,
		Name:      session.DisplayName,
		ExpiresAt: session.ExpiresAt.Format("2006-01-02T15:04:05Z"),
	})
}

// Logout handles user logout
func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	session := h.sessionManager.GetSessionFromRequest(r)
	if session != nil {
		h.sessionManager.DeleteSession(session.ID)
	}

	h.sessionManager.ClearSessionCookie(w)
	respondJSON(w, http.StatusOK, map[string]bool{"success": true})
}

// StatusResponse represents the auth status response
type StatusResponse struct {
	Authenticated bool   `json:"authenticated"`
	Role          string `json:"role,omitempty"`
	Name          string `json:"name,omitempty"`
	ExpiresAt     string `json:"expires_at,omitempty"`
}

// Status checks if the user is authenticated by validating the session.
func (h *AuthHandler) Status(w http.ResponseWriter, r *http.Request) {
	session := h.sessionManager.GetSessionFromRequest(r)
	if session == nil {
		respondJSON(w, http.StatusOK, StatusResponse{Authenticated: false})
		return
	}

	respondJSON(w, http.StatusOK, StatusResponse{
		Authenticated: true,
		Role:          session.Role,
		Name:          session.DisplayName,
		ExpiresAt:     session.ExpiresAt.Format("2006-01-02T15:04:05Z"),
	})
}

// InstructorHandler handles instructor registration.
type InstructorHandler struct {
	instructors store.InstructorRepository
}

// NewInstructorHandler creates a new instructor handler
func NewInstructorHandler(instructors store.InstructorRepository) *InstructorHandler {
	return &InstructorHandler{instructors: instructors}
}

type registerInstructorRequest struct {
	FullName string `json:"full_name"`
	Email    string `json:"email"`
	Password string `json:"password"`
	Subject  string `json:"subject"`
	Year     string `json:"year"`
	Semester string `json:"semester"`
}

// Register creates an instructor account.
func (h *InstructorHandler) Register(w http.ResponseWriter, r *http.Request) {
	var req registerInstructorRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, errInvalidRequestBody)
		return
	}

	if req.Email == "" || req.Password == "" || req.FullName == "" {
		respondError(w, http.StatusBadRequest, "full_name, email and password are required")
		return
	}

	if _, err := h.instructors.GetByEmail(r.Context(), req.Email); err == nil {
		respondError(w, http.StatusConflict, "instructor already registered")
		return
	} else if !errors.Is(err, store.ErrNotFound) {
		respondError(w, http.StatusInternalServerError, "failed to check instructor")
		return
	}

	instructor := &store.Instructor{
		FullName: req.FullName,
		Email:    req.Email,
		Password: req.Password,
		Subject:  req.Subject,
		Year:     req.Year,
		Semester: req.Semester,
	}
	if err := h.instructors.Create(r.Context(), instructor); err != nil {
		respondError(w, http.StatusInternalServerError, "failed to create instructor")
		return
	}

	respondJSON(w, http.StatusCreated, map[string]any{
		"id":    instructor.ID,
		"email": instructor.Email,
	})
}
