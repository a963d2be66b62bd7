package attendance

import (
	"errors"

	"github.com/facetrack/facetrack/internal/store"
)

var (
	// ErrAlreadyFinalized means a correction request was already resolved
	// or rejected; both states are terminal.
	ErrAlreadyFinalized = errors.New("correction request already finalized")

	// ErrNotOwner means the caller is not allowed to act on the target:
	// only the instructor owning the linked session may decide a request,
	// and only the record's subject may open one.
	ErrNotOwner = errors.New("caller does not own the target")
)

// Identity is the authenticated caller of a correction operation. It is
// always passed explicitly; the workflow never reaches into ambient
// request state.
type Identity struct {
	Role         string // "student" or "instructor"
	Email        string // set for instructors
	EnrollmentNo string // set for students
}

// Create opens a correction request against a presence record. Only the
// student the record belongs to may dispute it. The request starts
// Pending; persistence is the caller's job.
func Create(caller Identity, record store.PresenceRecord, reason string) (store.CorrectionRequest, error) {
	if caller.EnrollmentNo == "" || caller.EnrollmentNo != record.EnrollmentNo {
		return store.CorrectionRequest{}, ErrNotOwner
	}
	return store.CorrectionRequest{
		RecordID:     record.ID,
		EnrollmentNo: caller.EnrollmentNo,
		Reason:       reason,
		Status:       store.CorrectionPending,
	}, nil
}

// Approve transitions a pending request to Resolved and flips the
// disputed record to Present. The caller must be the instructor who
// owns the session the record belongs to.
func Approve(caller Identity, req *store.CorrectionRequest, record *store.PresenceRecord, session store.Session) error {
	if err := checkDecision(caller, req, session); err != nil {
		return err
	}
	req.Status = store.CorrectionResolved
	record.Status = store.StatusPresent
	return nil
}

// Reject transitions a pending request to Rejected. The disputed record
// keeps its status.
func Reject(caller Identity, req *store.CorrectionRequest, session store.Session) error {
	if err := checkDecision(caller, req, session); err != nil {
		return err
	}
	req.Status = store.CorrectionRejected
	return nil
}

func checkDecision(caller Identity, req *store.CorrectionRequest, session store.Session) error {
	if caller.Email == "" || caller.Email != session.InstructorEmail {
		return ErrNotOwner
	}
	if req.Status != store.CorrectionPending {
		return ErrAlreadyFinalized
	}
	return nil
}
