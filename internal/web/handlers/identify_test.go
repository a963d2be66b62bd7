package handlers

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/facetrack/facetrack/internal/store"
)

func identifyFixture() *IdentifyHandler {
	index := store.NewSignatureIndex()
	index.Rebuild([]store.RosterEntry{
		{EnrollmentNo: "EN-001", FullName: "Alice Novak", Signature: unitSignature(0)},
		{EnrollmentNo: "EN-002", FullName: "Bob Dvorak", Signature: unitSignature(1)},
		{EnrollmentNo: "EN-003", FullName: "Carol Svoboda", Signature: unitSignature(2)},
	})
	return NewIdentifyHandler(index)
}

func TestIdentify_NearestFirst(t *testing.T) {
	handler := identifyFixture()

	// probe leaning toward Bob's axis, raw (unnormalized) embedding
	req := jsonRequest(t, http.MethodPost, "/api/v1/roster/identify", map[string]any{
		"embedding": []float32{0.5, 4, 0, 0},
		"limit":     2,
	})
	rec := httptest.NewRecorder()
	handler.Identify(rec, req)

	assertStatusCode(t, rec, http.StatusOK)

	var resp struct {
		Matches []store.Neighbor `json:"matches"`
	}
	parseJSONResponse(t, rec, &resp)

	if len(resp.Matches) != 2 {
		t.Fatalf("expected 2 matches, got %d", len(resp.Matches))
	}
	if resp.Matches[0].EnrollmentNo != "EN-002" {
		t.Errorf("expected EN-002 nearest, got %q", resp.Matches[0].EnrollmentNo)
	}
	if resp.Matches[0].Distance >= resp.Matches[1].Distance {
		t.Error("expected results ordered nearest first")
	}
}

func TestIdentify_EmptyEmbedding(t *testing.T) {
	handler := identifyFixture()

	req := jsonRequest(t, http.MethodPost, "/api/v1/roster/identify", map[string]any{
		"embedding": []float32{},
	})
	rec := httptest.NewRecorder()
	handler.Identify(rec, req)

	assertStatusCode(t, rec, http.StatusBadRequest)
}

func TestIdentify_EmptyIndex(t *testing.T) {
	handler := NewIdentifyHandler(store.NewSignatureIndex())

	req := jsonRequest(t, http.MethodPost, "/api/v1/roster/identify", map[string]any{
		"embedding": []float32{1, 0, 0, 0},
	})
	rec := httptest.NewRecorder()
	handler.Identify(rec, req)

	assertStatusCode(t, rec, http.StatusOK)

	var resp struct {
		Matches []store.Neighbor `json:"matches"`
	}
	parseJSONResponse(t, rec, &resp)
	if len(resp.Matches) != 0 {
		t.Errorf("expected no matches from empty index, got %d", len(resp.Matches))
	}
}
