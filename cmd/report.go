package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/facetrack/facetrack/internal/attendance"
	"github.com/facetrack/facetrack/internal/config"
	"github.com/facetrack/facetrack/internal/store"
	"github.com/facetrack/facetrack/internal/store/postgres"
)

var reportCmd = &cobra.Command{
	Use:   "report",
	Short: "Print or export a course attendance report",
	Long: `Build the multi-session attendance report for one course. Without
--csv the report is printed as a table; with --csv it is written to the
given file in the export format.

Example:
  facetrack report --subject Algorithms --year 2 --semester 4 --instructor smith@example.edu
  facetrack report --subject Algorithms --year 2 --semester 4 --instructor smith@example.edu --csv report.csv`,
	RunE: runReport,
}

func init() {
	rootCmd.AddCommand(reportCmd)

	reportCmd.Flags().String("subject", "", "Subject name (required)")
	reportCmd.Flags().String("year", "", "Cohort year (required)")
	reportCmd.Flags().String("semester", "", "Cohort semester (required)")
	reportCmd.Flags().String("instructor", "", "Owning instructor email (required)")
	reportCmd.Flags().String("csv", "", "Write the report to this CSV file instead of printing")
}

func runReport(cmd *cobra.Command, args []string) error {
	course := store.Course{
		Subject:  mustGetString(cmd, "subject"),
		Year:     mustGetString(cmd, "year"),
		Semester: mustGetString(cmd, "semester"),
	}
	instructor := mustGetString(cmd, "instructor")
	if course.Subject == "" || course.Year == "" || course.Semester == "" || instructor == "" {
		return errors.New("--subject, --year, --semester and --instructor are required")
	}

	cfg := config.Load()
	if cfg.Database.URL == "" {
		return errors.New("DATABASE_URL environment variable is required")
	}

	pool, err := postgres.Initialize(&cfg.Database)
	if err != nil {
		return fmt.Errorf("failed to initialize PostgreSQL: %w", err)
	}
	defer pool.Close()

	roster := postgres.NewRosterRepository(pool)
	sessionRepo := postgres.NewSessionRepository(pool)
	ctx := context.Background()

	sessions, err := sessionRepo.ListByCourse(ctx, course.Subject, course.Year, course.Semester, instructor)
	if err != nil {
		return fmt.Errorf("failed to load sessions: %w", err)
	}
	if len(sessions) == 0 {
		return fmt.Errorf("no sessions found for %s (year %s, semester %s)", course.Subject, course.Year, course.Semester)
	}

	cohort, err := roster.ListByCohort(ctx, course.Year, course.Semester)
	if err != nil {
		return fmt.Errorf("failed to load roster: %w", err)
	}

	var records []store.PresenceRecord
	for _, s := range sessions {
		rs, err := sessionRepo.RecordsBySession(ctx, s.ID)
		if err != nil {
			return fmt.Errorf("failed to load records: %w", err)
		}
		records = append(records, rs...)
	}

	report := attendance.Build(course, sessions, cohort, records)

	if path := mustGetString(cmd, "csv"); path != "" {
		f, err := os.Create(path)
		if err != nil {
			return fmt.Errorf("cannot create %s: %w", path, err)
		}
		defer f.Close()

		if err := attendance.WriteCSV(f, report); err != nil {
			return fmt.Errorf("failed to write csv: %w", err)
		}
		fmt.Printf("Report written to %s\n", path)
		return nil
	}

	fmt.Printf("%s (year %s, semester %s), %d sessions\n\n", report.Subject, report.Year, report.Semester, len(report.Dates))
	fmt.Printf("%-12s %-25s", "Enrollment", "Student")
	for _, date := range report.Dates {
		fmt.Printf(" %-10s", date)
	}
	fmt.Printf(" %s\n", "Pct")
	for _, row := range report.Rows {
		fmt.Printf("%-12s %-25s", row.EnrollmentNo, row.StudentName)
		for _, status := range row.Statuses {
			fmt.Printf(" %-10s", status)
		}
		fmt.Printf(" %.1f%%\n", row.Percentage)
	}
	return nil
}
