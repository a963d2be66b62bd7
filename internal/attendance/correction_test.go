package attendance

import (
	"errors"
	"testing"

	"github.com/facetrack/facetrack/internal/store"
)

var (
	owner    = Identity{Role: "instructor", Email: "smith@example.edu"}
	stranger = Identity{Role: "instructor", Email: "jones@example.edu"}
	student  = Identity{Role: "student", EnrollmentNo: "2021001"}
)

func pendingFixture() (store.CorrectionRequest, store.PresenceRecord, store.Session) {
	record := store.PresenceRecord{ID: 11, SessionID: 5, EnrollmentNo: "2021001", Status: store.StatusAbsent}
	req := store.CorrectionRequest{ID: 3, RecordID: 11, EnrollmentNo: "2021001", Status: store.CorrectionPending}
	session := store.Session{ID: 5, Subject: "Physics", InstructorEmail: "smith@example.edu"}
	return req, record, session
}

func TestCreate(t *testing.T) {
	_, record, _ := pendingFixture()

	req, err := Create(student, record, "I was in the back row")
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}
	if req.Status != store.CorrectionPending {
		t.Errorf("new request status = %s; want Pending", req.Status)
	}
	if req.RecordID != record.ID {
		t.Errorf("new request RecordID = %d; want %d", req.RecordID, record.ID)
	}
}

func TestCreateWrongStudent(t *testing.T) {
	_, record, _ := pendingFixture()
	other := Identity{Role: "student", EnrollmentNo: "2021002"}

	if _, err := Create(other, record, "reason"); !errors.Is(err, ErrNotOwner) {
		t.Errorf("got error %v; want ErrNotOwner", err)
	}
}

func TestApprove(t *testing.T) {
	req, record, session := pendingFixture()

	if err := Approve(owner, &req, &record, session); err != nil {
		t.Fatalf("Approve failed: %v", err)
	}
	if req.Status != store.CorrectionResolved {
		t.Errorf("request status = %s; want Resolved", req.Status)
	}
	if record.Status != store.StatusPresent {
		t.Errorf("record status = %s; approval must flip it to Present", record.Status)
	}
}

func TestReject(t *testing.T) {
	req, record, session := pendingFixture()

	if err := Reject(owner, &req, session); err != nil {
		t.Fatalf("Reject failed: %v", err)
	}
	if req.Status != store.CorrectionRejected {
		t.Errorf("request status = %s; want Rejected", req.Status)
	}
	if record.Status != store.StatusAbsent {
		t.Errorf("record status = %s; rejection must not touch the record", record.Status)
	}
}

func TestDecisionsAreTerminal(t *testing.T) {
	t.Run("approve twice", func(t *testing.T) {
		req, record, session := pendingFixture()
		if err := Approve(owner, &req, &record, session); err != nil {
			t.Fatalf("first Approve failed: %v", err)
		}
		if err := Approve(owner, &req, &record, session); !errors.Is(err, ErrAlreadyFinalized) {
			t.Errorf("got error %v; want ErrAlreadyFinalized", err)
		}
	})

	t.Run("reject then approve", func(t *testing.T) {
		req, record, session := pendingFixture()
		if err := Reject(owner, &req, session); err != nil {
			t.Fatalf("Reject failed: %v", err)
		}
		if err := Approve(owner, &req, &record, session); !errors.Is(err, ErrAlreadyFinalized) {
			t.Errorf("got error %v; want ErrAlreadyFinalized", err)
		}
		if record.Status != store.StatusAbsent {
			t.Errorf("record status = %s; a failed approve must not modify it", record.Status)
		}
	})
}

func TestDecisionOwnership(t *testing.T) {
	req, record, session := pendingFixture()

	if err := Approve(stranger, &req, &record, session); !errors.Is(err, ErrNotOwner) {
		t.Errorf("Approve by non-owner: got %v; want ErrNotOwner", err)
	}
	if err := Reject(stranger, &req, session); !errors.Is(err, ErrNotOwner) {
		t.Errorf("Reject by non-owner: got %v; want ErrNotOwner", err)
	}
	if req.Status != store.CorrectionPending {
		t.Errorf("request status = %s; denied calls must not transition it", req.Status)
	}
}
