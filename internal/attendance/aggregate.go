// Package attendance turns recognition results into presence records,
// multi-session reports and correction decisions.
package attendance

import (
	"github.com/facetrack/facetrack/internal/store"
)

// BuildRecords produces exactly one presence record per roster member
// for a session. A member is Present iff their enrollment number is in
// the found set; everyone else is Absent. The roster passed in defines
// the session total, so late enrollments never rewrite history.
func BuildRecords(sessionID int64, roster []store.RosterEntry, found map[string]bool) []store.PresenceRecord {
	records := make([]store.PresenceRecord, 0, len(roster))
	for _, member := range roster {
		status := store.StatusAbsent
		if found[member.EnrollmentNo] {
			status = store.StatusPresent
		}
		records = append(records, store.PresenceRecord{
			SessionID:    sessionID,
			EnrollmentNo: member.EnrollmentNo,
			StudentName:  member.FullName,
			Status:       status,
		})
	}
	return records
}
