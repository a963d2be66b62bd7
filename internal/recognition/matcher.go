package recognition

// Candidate is a roster member eligible for matching in a session.
type Candidate struct {
	EnrollmentNo string
	FullName     string
	Signature    Signature
}

// Match is the outcome of comparing one detected face against the roster.
type Match struct {
	EnrollmentNo string
	FullName     string
	Similarity   float64
}

// Matcher assigns detected faces to roster candidates by cosine
// similarity against stored signatures.
type Matcher struct {
	threshold float64
	policy    string
}

// NewMatcher creates a matcher with the given similarity threshold and
// policy. Policy "best" scans the whole candidate list and keeps the
// highest similarity; anything else selects the first candidate above
// the threshold in list order.
func NewMatcher(threshold float64, policy string) *Matcher {
	return &Matcher{threshold: threshold, policy: policy}
}

// Match compares a face signature against candidates and returns the
// selected match, or nil when no candidate clears the threshold. The
// scan is stateless: a candidate already matched by an earlier face
// stays eligible, so the outcome for each face depends only on the
// query and the candidate list.
func (m *Matcher) Match(sig Signature, candidates []Candidate) *Match {
	if m.policy == "best" {
		return m.matchBest(sig, candidates)
	}
	return m.matchFirst(sig, candidates)
}

func (m *Matcher) matchFirst(sig Signature, candidates []Candidate) *Match {
	for _, c := range candidates {
		if len(c.Signature) == 0 {
			continue
		}
		sim := Similarity(sig, c.Signature)
		if sim > m.threshold {
			return &Match{EnrollmentNo: c.EnrollmentNo, FullName: c.FullName, Similarity: sim}
		}
	}
	return nil
}

func (m *Matcher) matchBest(sig Signature, candidates []Candidate) *Match {
	var best *Match
	for _, c := range candidates {
		if len(c.Signature) == 0 {
			continue
		}
		sim := Similarity(sig, c.Signature)
		if sim <= m.threshold {
			continue
		}
		if best == nil || sim > best.Similarity {
			best = &Match{EnrollmentNo: c.EnrollmentNo, FullName: c.FullName, Similarity: sim}
		}
	}
	return best
}
