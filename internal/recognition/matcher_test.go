package recognition

import (
	"math"
	"testing"
)

func testRoster() []Candidate {
	return []Candidate{
		{EnrollmentNo: "2021001", FullName: "Alice Adams", Signature: unitAt(0)},
		{EnrollmentNo: "2021002", FullName: "Bob Brown", Signature: unitAt(1)},
		{EnrollmentNo: "2021003", FullName: "Cara Cole", Signature: unitAt(2)},
	}
}

func TestMatchFirstPicksFirstAboveThreshold(t *testing.T) {
	m := NewMatcher(0.3, "first")

	// equally close to the first two candidates; list order decides
	face := Signature{float32(1 / math.Sqrt2), float32(1 / math.Sqrt2), 0, 0}

	got := m.Match(face, testRoster())
	if got == nil {
		t.Fatal("expected a match, got nil")
	}
	if got.EnrollmentNo != "2021001" {
		t.Errorf("first policy matched %s; want 2021001", got.EnrollmentNo)
	}
}

func TestMatchFirstOrderBeatsSimilarity(t *testing.T) {
	m := NewMatcher(0.3, "first")

	// leans toward the second candidate, yet both clear the threshold;
	// list order wins over the higher similarity
	face := Signature{0.4, 0.9, 0, 0}.Normalized()

	got := m.Match(face, testRoster())
	if got == nil {
		t.Fatal("expected a match, got nil")
	}
	if got.EnrollmentNo != "2021001" {
		t.Errorf("first policy matched %s; want 2021001", got.EnrollmentNo)
	}
}

func TestMatchBestPicksHighestSimilarity(t *testing.T) {
	m := NewMatcher(0.3, "best")

	// leans toward the second candidate
	face := Signature{0.4, 0.9, 0, 0}.Normalized()

	got := m.Match(face, testRoster())
	if got == nil {
		t.Fatal("expected a match, got nil")
	}
	if got.EnrollmentNo != "2021002" {
		t.Errorf("best policy matched %s; want 2021002", got.EnrollmentNo)
	}
}

func TestMatchBelowThreshold(t *testing.T) {
	for _, policy := range []string{"first", "best"} {
		t.Run(policy, func(t *testing.T) {
			m := NewMatcher(0.3, policy)
			face := unitAt(3) // orthogonal to every candidate
			if got := m.Match(face, testRoster()); got != nil {
				t.Errorf("matched %s for an orthogonal face; want nil", got.EnrollmentNo)
			}
		})
	}
}

func TestMatchThresholdIsStrict(t *testing.T) {
	roster := []Candidate{
		{EnrollmentNo: "2021001", FullName: "Alice Adams", Signature: unitAt(0)},
	}
	// exactly at the threshold must not match
	m := NewMatcher(1.0, "first")
	if got := m.Match(unitAt(0), roster); got != nil {
		t.Errorf("similarity equal to threshold matched %s; want nil", got.EnrollmentNo)
	}
}

func TestMatchIsStateless(t *testing.T) {
	m := NewMatcher(0.3, "first")
	face := Signature{float32(1 / math.Sqrt2), float32(1 / math.Sqrt2), 0, 0}

	// the same face matched twice resolves to the same candidate; an
	// earlier match never makes a later face fall through to the next
	// entry in the list
	first := m.Match(face, testRoster())
	second := m.Match(face, testRoster())
	if first == nil || second == nil {
		t.Fatal("expected matches, got nil")
	}
	if first.EnrollmentNo != second.EnrollmentNo {
		t.Errorf("repeated query matched %s then %s; want identical results", first.EnrollmentNo, second.EnrollmentNo)
	}
	if second.EnrollmentNo != "2021001" {
		t.Errorf("second query matched %s; want 2021001", second.EnrollmentNo)
	}
}

func TestMatchSkipsEmptySignatures(t *testing.T) {
	roster := []Candidate{
		{EnrollmentNo: "2021001", FullName: "Alice Adams"},
		{EnrollmentNo: "2021002", FullName: "Bob Brown", Signature: unitAt(0)},
	}
	m := NewMatcher(0.3, "first")
	got := m.Match(unitAt(0), roster)
	if got == nil {
		t.Fatal("expected a match, got nil")
	}
	if got.EnrollmentNo != "2021002" {
		t.Errorf("matched %s; want 2021002", got.EnrollmentNo)
	}
}

// unitAt builds a 4-dimensional unit vector pointing along one axis.
func unitAt(dim int) Signature {
	sig := make(Signature, 4)
	sig[dim] = 1
	return sig
}
