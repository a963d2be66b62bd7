package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"image"
	"image/color"
	"image/jpeg"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"

	"github.com/facetrack/facetrack/internal/recognition"
	"github.com/facetrack/facetrack/internal/web/middleware"
)

// detectorFunc adapts a function to the recognition.Detector interface.
type detectorFunc func(ctx context.Context, imageData []byte) ([]recognition.Detection, error)

func (f detectorFunc) Detect(ctx context.Context, imageData []byte) ([]recognition.Detection, error) {
	return f(ctx, imageData)
}

// unitSignature returns a 4-dim unit vector pointing along one axis.
func unitSignature(axis int) []float32 {
	sig := make([]float32, 4)
	sig[axis] = 1
	return sig
}

// faceDetection builds a detection whose signature is a unit vector.
func faceDetection(axis int, bbox []float64) recognition.Detection {
	return recognition.Detection{
		FaceIndex:       0,
		BBox:            bbox,
		NormedEmbedding: unitSignature(axis),
		DetScore:        0.99,
	}
}

// encodeTestJPEG produces a decodable JPEG of the given size.
func encodeTestJPEG(t *testing.T, w, h int) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.Set(x, y, color.RGBA{R: 120, G: 120, B: 120, A: 255})
		}
	}
	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, img, nil); err != nil {
		t.Fatalf("failed to encode test jpeg: %v", err)
	}
	return buf.Bytes()
}

// studentSession puts a student session into the request context.
func studentSession(r *http.Request, enrollmentNo, name string) *http.Request {
	s := &middleware.Session{
		ID:           "test-session",
		Role:         middleware.RoleStudent,
		EnrollmentNo: enrollmentNo,
		DisplayName:  name,
	}
	return r.WithContext(middleware.SetSessionInContext(r.Context(), s))
}

// instructorSession puts an instructor session into the request context.
func instructorSession(r *http.Request, email, name string) *http.Request {
	s := &middleware.Session{
		ID:          "test-session",
		Role:        middleware.RoleInstructor,
		Email:       email,
		DisplayName: name,
	}
	return r.WithContext(middleware.SetSessionInContext(r.Context(), s))
}

// requestWithChiParams creates a request with chi URL parameters
func requestWithChiParams(r *http.Request, params map[string]string) *http.Request {
	rctx := chi.NewRouteContext()
	for key, value := range params {
		rctx.URLParams.Add(key, value)
	}
	return r.WithContext(context.WithValue(r.Context(), chi.RouteCtxKey, rctx))
}

// multipartRequest builds a multipart POST with form fields and photo files.
func multipartRequest(t *testing.T, path string, fields map[string]string, photos [][]byte) *http.Request {
	t.Helper()

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	for key, value := range fields {
		if err := mw.WriteField(key, value); err != nil {
			t.Fatalf("failed to write form field: %v", err)
		}
	}
	for i, photo := range photos {
		fw, err := mw.CreateFormFile("photos", "photo.jpg")
		if err != nil {
			t.Fatalf("failed to create form file %d: %v", i, err)
		}
		if _, err := fw.Write(photo); err != nil {
			t.Fatalf("failed to write photo %d: %v", i, err)
		}
	}
	if err := mw.Close(); err != nil {
		t.Fatalf("failed to close multipart writer: %v", err)
	}

	req := httptest.NewRequest(http.MethodPost, path, &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	return req
}

// jsonRequest builds a request with a JSON body.
func jsonRequest(t *testing.T, method, path string, body any) *http.Request {
	t.Helper()
	data, err := json.Marshal(body)
	if err != nil {
		t.Fatalf("failed to marshal request body: %v", err)
	}
	req := httptest.NewRequest(method, path, bytes.NewReader(data))
	req.Header.Set("Content-Type", "application/json")
	return req
}

// parseJSONResponse parses a JSON response body into the target type
func parseJSONResponse(t *testing.T, recorder *httptest.ResponseRecorder, target any) {
	t.Helper()
	if err := json.Unmarshal(recorder.Body.Bytes(), target); err != nil {
		t.Fatalf("failed to parse JSON response: %v\nBody: %s", err, recorder.Body.String())
	}
}

// assertStatusCode checks if the response has the expected status code
func assertStatusCode(t *testing.T, recorder *httptest.ResponseRecorder, expected int) {
	t.Helper()
	if recorder.Code != expected {
		t.Errorf("expected status %d, got %d\nBody: %s", expected, recorder.Code, recorder.Body.String())
	}
}

// assertJSONError checks if the response is a JSON error with the expected message
func assertJSONError(t *testing.T, recorder *httptest.ResponseRecorder, expectedMessage string) {
	t.Helper()
	var result map[string]string
	if err := json.Unmarshal(recorder.Body.Bytes(), &result); err != nil {
		t.Fatalf("failed to parse error response: %v\nBody: %s", err, recorder.Body.String())
	}
	if result["error"] != expectedMessage {
		t.Errorf("expected error '%s', got '%s'", expectedMessage, result["error"])
	}
}
