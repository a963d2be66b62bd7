package attendance

import (
	"encoding/csv"
	"fmt"
	"io"
	"math"

	"github.com/facetrack/facetrack/internal/store"
)

// Status codes used in report cells. NotRecorded marks a roster member
// with no record for a session (enrolled after the capture, or the
// record was lost); it is distinct from Absent but still counts against
// the percentage denominator.
const (
	CodePresent     = "P"
	CodeAbsent      = "A"
	CodeNotRecorded = "-"
)

// Report is a multi-session attendance table for one course.
type Report struct {
	Subject  string
	Year     string
	Semester string
	Dates    []string // session dates in capture order, one column each
	Rows     []Row
}

// Row is one roster member's line in the report.
type Row struct {
	EnrollmentNo string
	StudentName  string
	Statuses     []string // aligned with Report.Dates
	Percentage   float64  // one decimal
}

// Build assembles the report from date-ordered sessions, the cohort
// roster and all presence records for those sessions. Percentage is
// present sessions over total sessions, rounded to one decimal; a
// member with zero sessions scores 0.
func Build(course store.Course, sessions []store.Session, roster []store.RosterEntry, records []store.PresenceRecord) Report {
	byKey := make(map[int64]map[string]store.PresenceStatus, len(sessions))
	for _, r := range records {
		if byKey[r.SessionID] == nil {
			byKey[r.SessionID] = make(map[string]store.PresenceStatus)
		}
		byKey[r.SessionID][r.EnrollmentNo] = r.Status
	}

	report := Report{
		Subject:  course.Subject,
		Year:     course.Year,
		Semester: course.Semester,
		Dates:    make([]string, 0, len(sessions)),
		Rows:     make([]Row, 0, len(roster)),
	}
	for _, s := range sessions {
		report.Dates = append(report.Dates, s.Date)
	}

	for _, member := range roster {
		row := Row{
			EnrollmentNo: member.EnrollmentNo,
			StudentName:  member.FullName,
			Statuses:     make([]string, 0, len(sessions)),
		}

		present := 0
		for _, s := range sessions {
			status, ok := byKey[s.ID][member.EnrollmentNo]
			switch {
			case !ok:
				row.Statuses = append(row.Statuses, CodeNotRecorded)
			case status == store.StatusPresent:
				row.Statuses = append(row.Statuses, CodePresent)
				present++
			default:
				row.Statuses = append(row.Statuses, CodeAbsent)
			}
		}

		if len(sessions) > 0 {
			pct := float64(present) / float64(len(sessions)) * 100
			row.Percentage = math.Round(pct*10) / 10
		}

		report.Rows = append(report.Rows, row)
	}

	return report
}

// WriteCSV renders the report as CSV: a metadata preamble, a blank
// line, the header row and one data row per roster member. Column order
// follows the session date order exactly.
func WriteCSV(w io.Writer, r Report) error {
	cw := csv.NewWriter(w)

	preamble := [][]string{
		{"Subject:", r.Subject},
		{"Year:", r.Year},
		{"Semester:", r.Semester},
		{},
	}
	for _, row := range preamble {
		if err := cw.Write(row); err != nil {
			return fmt.Errorf("failed to write csv preamble: %w", err)
		}
	}

	header := append([]string{"Enrollment No", "Student Name"}, r.Dates...)
	header = append(header, "Percentage")
	if err := cw.Write(header); err != nil {
		return fmt.Errorf("failed to write csv header: %w", err)
	}

	for _, row := range r.Rows {
		record := append([]string{row.EnrollmentNo, row.StudentName}, row.Statuses...)
		record = append(record, fmt.Sprintf("%.1f%%", row.Percentage))
		if err := cw.Write(record); err != nil {
			return fmt.Errorf("failed to write csv row: %w", err)
		}
	}

	cw.Flush()
	return cw.Error()
}
