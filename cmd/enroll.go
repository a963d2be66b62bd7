package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/schollz/progressbar/v3"
	"github.com/spf13/cobra"

	"github.com/facetrack/facetrack/internal/config"
	"github.com/facetrack/facetrack/internal/recognition"
	"github.com/facetrack/facetrack/internal/store"
	"github.com/facetrack/facetrack/internal/store/postgres"
)

var enrollCmd = &cobra.Command{
	Use:   "enroll <photo-dir>",
	Short: "Enroll a student from a directory of face photos",
	Long: `Enroll a student into the attendance roster. Every image in the
directory is sent through face detection; the largest face per photo
contributes to the reference signature. Enrollment fails when fewer
usable photos are found than the configured minimum.

Example:
  facetrack enroll --no EN-001 --name "Jan Novak" --year 2 --semester 4 ./photos/jan`,
	Args: cobra.ExactArgs(1),
	RunE: runEnroll,
}

func init() {
	rootCmd.AddCommand(enrollCmd)

	enrollCmd.Flags().String("no", "", "Enrollment number (required)")
	enrollCmd.Flags().String("name", "", "Student full name (required)")
	enrollCmd.Flags().String("password", "", "Login password (required unless updating)")
	enrollCmd.Flags().String("gender", "", "Gender")
	enrollCmd.Flags().String("year", "", "Cohort year")
	enrollCmd.Flags().String("semester", "", "Cohort semester")
}

// isPhotoFile checks if a file has a supported image extension
func isPhotoFile(name string) bool {
	switch strings.ToLower(filepath.Ext(name)) {
	case ".jpg", ".jpeg", ".png", ".gif", ".webp":
		return true
	}
	return false
}

func readPhotoDir(dir string) ([][]byte, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("cannot read photo directory %s: %w", dir, err)
	}

	var photos [][]byte
	for _, entry := range entries {
		if entry.IsDir() || !isPhotoFile(entry.Name()) {
			continue
		}
		data, err := os.ReadFile(filepath.Join(dir, entry.Name()))
		if err != nil {
			return nil, fmt.Errorf("cannot read %s: %w", entry.Name(), err)
		}
		photos = append(photos, data)
	}
	return photos, nil
}

func runEnroll(cmd *cobra.Command, args []string) error {
	enrollmentNo := mustGetString(cmd, "no")
	fullName := mustGetString(cmd, "name")
	if enrollmentNo == "" || fullName == "" {
		return errors.New("--no and --name are required")
	}

	cfg := config.Load()
	if cfg.Database.URL == "" {
		return errors.New("DATABASE_URL environment variable is required")
	}

	photos, err := readPhotoDir(args[0])
	if err != nil {
		return err
	}
	if len(photos) == 0 {
		return fmt.Errorf("no photos found in %s", args[0])
	}

	pool, err := postgres.Initialize(&cfg.Database)
	if err != nil {
		return fmt.Errorf("failed to initialize PostgreSQL: %w", err)
	}
	defer pool.Close()

	roster := postgres.NewRosterRepository(pool)
	ctx := context.Background()

	existing, err := roster.GetByEnrollmentNo(ctx, enrollmentNo)
	if err != nil && !errors.Is(err, store.ErrNotFound) {
		return fmt.Errorf("failed to check enrollment: %w", err)
	}

	detector := recognition.NewClient(cfg.Detector.URL, cfg.Detector.Dim, cfg.Detector.Timeout)
	enroller := recognition.NewEnroller(detector, cfg.Policy.EnrollMinPhotos)

	bar := progressbar.NewOptions(len(photos),
		progressbar.OptionSetDescription("Detecting faces"),
		progressbar.OptionShowCount(),
		progressbar.OptionShowIts(),
		progressbar.OptionSetItsString("photos"),
		progressbar.OptionShowElapsedTimeOnFinish(),
		progressbar.OptionSetPredictTime(true),
		progressbar.OptionFullWidth(),
	)

	signature, err := enroller.Enroll(ctx, photos, func(done int) {
		bar.Set(done)
	})
	fmt.Println()
	if err != nil {
		var insufficientErr *recognition.InsufficientSamplesError
		if errors.As(err, &insufficientErr) {
			return fmt.Errorf("enrollment needs at least %d usable photos, got %d", insufficientErr.Required, insufficientErr.Got)
		}
		return fmt.Errorf("enrollment failed: %w", err)
	}

	if existing != nil {
		if err := roster.UpdateSignature(ctx, enrollmentNo, signature); err != nil {
			return fmt.Errorf("failed to update signature: %w", err)
		}
		fmt.Printf("Updated reference signature for %s (%s)\n", fullName, enrollmentNo)
		return nil
	}

	password := mustGetString(cmd, "password")
	if password == "" {
		return errors.New("--password is required for a new enrollment")
	}

	entry := &store.RosterEntry{
		EnrollmentNo: enrollmentNo,
		FullName:     fullName,
		Gender:       mustGetString(cmd, "gender"),
		Year:         mustGetString(cmd, "year"),
		Semester:     mustGetString(cmd, "semester"),
		Password:     password,
		Signature:    signature,
	}
	if err := roster.Create(ctx, entry); err != nil {
		return fmt.Errorf("failed to store roster entry: %w", err)
	}

	fmt.Printf("Enrolled %s (%s) from %d photos\n", fullName, enrollmentNo, len(photos))
	return nil
}
