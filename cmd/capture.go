package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"
	"sort"

	"github.com/spf13/cobra"

	"github.com/facetrack/facetrack/internal/attendance"
	"github.com/facetrack/facetrack/internal/config"
	"github.com/facetrack/facetrack/internal/gallery"
	"github.com/facetrack/facetrack/internal/recognition"
	"github.com/facetrack/facetrack/internal/store"
	"github.com/facetrack/facetrack/internal/store/postgres"
)

var captureCmd = &cobra.Command{
	Use:   "capture <class-photo> [class-photo...]",
	Short: "Record an attendance session from class photos",
	Long: `Run face recognition over one or more class photos and record a new
attendance session. Every student in the (year, semester) cohort gets
exactly one record: Present when a face matched their reference
signature, Absent otherwise. Annotated copies of the photos are saved
to the gallery directory.

Example:
  facetrack capture --subject Algorithms --date 2026-01-05 --year 2 --semester 4 \
      --instructor smith@example.edu class1.jpg class2.jpg`,
	Args: cobra.MinimumNArgs(1),
	RunE: runCapture,
}

func init() {
	rootCmd.AddCommand(captureCmd)

	captureCmd.Flags().String("subject", "", "Subject name (required)")
	captureCmd.Flags().String("date", "", "Session date, YYYY-MM-DD (required)")
	captureCmd.Flags().String("year", "", "Cohort year (required)")
	captureCmd.Flags().String("semester", "", "Cohort semester (required)")
	captureCmd.Flags().String("instructor", "", "Owning instructor email (required)")
}

func runCapture(cmd *cobra.Command, args []string) error {
	subject := mustGetString(cmd, "subject")
	date := mustGetString(cmd, "date")
	year := mustGetString(cmd, "year")
	semester := mustGetString(cmd, "semester")
	instructor := mustGetString(cmd, "instructor")
	if subject == "" || date == "" || year == "" || semester == "" || instructor == "" {
		return errors.New("--subject, --date, --year, --semester and --instructor are required")
	}

	cfg := config.Load()
	if cfg.Database.URL == "" {
		return errors.New("DATABASE_URL environment variable is required")
	}

	photos := make([][]byte, 0, len(args))
	for _, path := range args {
		data, err := os.ReadFile(path)
		if err != nil {
			return fmt.Errorf("cannot read %s: %w", path, err)
		}
		photos = append(photos, data)
	}

	pool, err := postgres.Initialize(&cfg.Database)
	if err != nil {
		return fmt.Errorf("failed to initialize PostgreSQL: %w", err)
	}
	defer pool.Close()

	roster := postgres.NewRosterRepository(pool)
	sessions := postgres.NewSessionRepository(pool)
	ctx := context.Background()

	cohort, err := roster.ListByCohort(ctx, year, semester)
	if err != nil {
		return fmt.Errorf("failed to load cohort roster: %w", err)
	}
	if len(cohort) == 0 {
		return fmt.Errorf("no enrolled students for year %s semester %s", year, semester)
	}

	candidates := make([]recognition.Candidate, 0, len(cohort))
	for _, member := range cohort {
		candidates = append(candidates, recognition.Candidate{
			EnrollmentNo: member.EnrollmentNo,
			FullName:     member.FullName,
			Signature:    member.Signature,
		})
	}

	detector := recognition.NewClient(cfg.Detector.URL, cfg.Detector.Dim, cfg.Detector.Timeout)
	matcher := recognition.NewMatcher(cfg.Policy.MatchThreshold, cfg.Policy.MatchPolicy)
	recognizer := recognition.NewRecognizer(detector, matcher, cfg.Policy.ResolutionFloor, cfg.Policy.UpscaleFactor)

	fmt.Printf("Matching %d class photos against %d students...\n", len(photos), len(cohort))
	result, err := recognizer.Recognize(ctx, photos, candidates)
	if err != nil {
		return fmt.Errorf("recognition failed: %w", err)
	}

	session := &store.Session{
		Subject:         subject,
		Date:            date,
		Year:            year,
		Semester:        semester,
		InstructorEmail: instructor,
	}
	records := attendance.BuildRecords(0, cohort, result.Found)
	if err := sessions.CreateWithRecords(ctx, session, records); err != nil {
		return fmt.Errorf("failed to persist session: %w", err)
	}

	g, err := gallery.New(cfg.Gallery.Dir)
	if err != nil {
		return fmt.Errorf("failed to prepare gallery directory: %w", err)
	}
	for _, annotated := range result.Images {
		name, err := g.Save(session.ID, annotated.PhotoIndex, annotated.JPEG)
		if err != nil {
			fmt.Printf("Warning: failed to save annotated photo: %v\n", err)
			continue
		}
		fmt.Printf("Saved %s\n", name)
	}

	present := make([]string, 0, len(result.Found))
	for no := range result.Found {
		present = append(present, no)
	}
	sort.Strings(present)

	fmt.Printf("\nSession %d recorded: %s on %s\n", session.ID, subject, date)
	fmt.Printf("Present %d / %d\n", len(present), len(cohort))
	for _, member := range cohort {
		status := "Absent"
		if result.Found[member.EnrollmentNo] {
			status = "Present"
		}
		fmt.Printf("  %-12s %-25s %s\n", member.EnrollmentNo, member.FullName, status)
	}
	return nil
}
