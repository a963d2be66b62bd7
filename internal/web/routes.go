package web

import (
	"github.com/go-chi/chi/v5"

	"github.com/facetrack/facetrack/internal/recognition"
	"github.com/facetrack/facetrack/internal/web/handlers"
	"github.com/facetrack/facetrack/internal/web/middleware"
)

func (s *Server) setupRoutes(sessionManager *middleware.SessionManager) {
	// Recognition pipeline built from policy config
	matcher := recognition.NewMatcher(s.config.Policy.MatchThreshold, s.config.Policy.MatchPolicy)
	enroller := recognition.NewEnroller(s.deps.Detector, s.config.Policy.EnrollMinPhotos)
	recognizer := recognition.NewRecognizer(s.deps.Detector, matcher, s.config.Policy.ResolutionFloor, s.config.Policy.UpscaleFactor)

	// Create handlers
	authHandler := handlers.NewAuthHandler(s.deps.Roster, s.deps.Instructors, sessionManager)
	instructorHandler := handlers.NewInstructorHandler(s.deps.Instructors)
	studentsHandler := handlers.NewStudentsHandler(s.deps.Roster, s.deps.Records, enroller, s.deps.Index)
	sessionsHandler := handlers.NewSessionsHandler(s.deps.Roster, s.deps.Sessions, s.deps.Records, recognizer, s.deps.Gallery)
	reportsHandler := handlers.NewReportsHandler(s.deps.Roster, s.deps.Sessions, s.deps.Records)
	correctionsHandler := handlers.NewCorrectionsHandler(s.deps.Roster, s.deps.Sessions, s.deps.Records, s.deps.Corrections)
	identifyHandler := handlers.NewIdentifyHandler(s.deps.Index)

	// Health check (no auth required)
	s.router.Get("/api/v1/health", handlers.HealthCheck)

	// API routes
	s.router.Route("/api/v1", func(r chi.Router) {
		// Auth and signup routes
		r.Post("/auth/login", authHandler.Login)
		r.Post("/auth/logout", authHandler.Logout)
		r.Get("/auth/status", authHandler.Status)
		r.Post("/students", studentsHandler.Enroll)
		r.Post("/instructors", instructorHandler.Register)

		// All other routes require authentication
		r.Group(func(r chi.Router) {
			r.Use(middleware.RequireAuth(sessionManager))

			// Students
			r.Get("/students/me/attendance", studentsHandler.MyAttendance)
			r.Post("/records/{id}/corrections", correctionsHandler.Create)

			// Instructor-only routes
			r.Group(func(r chi.Router) {
				r.Use(middleware.RequireInstructor)

				// Capture sessions
				r.Post("/sessions", sessionsHandler.Capture)
				r.Get("/sessions/{id}", sessionsHandler.Get)
				r.Get("/sessions/{id}/images/{name}", sessionsHandler.Image)

				// Reports
				r.Get("/reports", reportsHandler.ListCourses)
				r.Get("/reports/{subject}/{year}/{semester}", reportsHandler.Get)
				r.Get("/reports/{subject}/{year}/{semester}/export", reportsHandler.Export)

				// Corrections
				r.Get("/corrections", correctionsHandler.ListPending)
				r.Post("/corrections/{id}/approve", correctionsHandler.Approve)
				r.Post("/corrections/{id}/reject", correctionsHandler.Reject)
				r.Post("/records/manual-fix", correctionsHandler.ManualFix)

				// Roster lookup by probe embedding
				r.Post("/roster/identify", identifyHandler.Identify)
			})
		})
	})
}
