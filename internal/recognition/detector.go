package recognition

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"strings"
	"sync"
	"time"
)

const defaultDetectorURL = "http://localhost:8000"

// Detection is a single face found by the detection service.
type Detection struct {
	FaceIndex       int       `json:"face_index"`
	BBox            []float64 `json:"bbox"` // [x1, y1, x2, y2] in pixels
	Embedding       []float32 `json:"embedding"`
	NormedEmbedding []float32 `json:"normed_embedding,omitempty"`
	DetScore        float64   `json:"det_score"`
}

// Signature returns the unit-normalized embedding for the detection.
// Some service builds return a pre-normalized vector, some only the raw
// one; callers get a unit vector either way and never branch on which
// field the service populated.
func (d *Detection) Signature() Signature {
	if len(d.NormedEmbedding) > 0 {
		return Signature(d.NormedEmbedding)
	}
	return Signature(d.Embedding).Normalized()
}

// BBoxArea returns the bounding box area in square pixels, 0 for a
// malformed box.
func (d *Detection) BBoxArea() float64 {
	if len(d.BBox) != 4 {
		return 0
	}
	w := d.BBox[2] - d.BBox[0]
	h := d.BBox[3] - d.BBox[1]
	if w <= 0 || h <= 0 {
		return 0
	}
	return w * h
}

// detectResponse represents the response from the detection endpoint.
type detectResponse struct {
	FacesCount int         `json:"faces_count"`
	Faces      []Detection `json:"faces"`
	Model      string      `json:"model"`
}

// Detector finds faces and their embeddings in an image. Implementations
// are safe for concurrent use by multiple goroutines.
type Detector interface {
	Detect(ctx context.Context, imageData []byte) ([]Detection, error)
}

// Client talks to the face detection/embedding service. The model server
// runs inference on shared state and is not safe for concurrent calls, so
// the client holds a mutex across each request: one inference in flight at
// a time, regardless of how many goroutines feed it.
type Client struct {
	baseURL string
	dim     int
	timeout time.Duration
	client  *http.Client

	mu sync.Mutex // serializes inference calls
}

// NewClient creates a detection service client. An empty baseURL falls
// back to the local development default. dim is the embedding length the
// configured model produces; a non-zero value makes Detect reject faces
// whose embeddings have a different length, which catches a model/config
// mismatch before bad vectors reach storage. Zero disables the check.
func NewClient(baseURL string, dim int, timeout time.Duration) *Client {
	if baseURL == "" {
		baseURL = defaultDetectorURL
	}
	return &Client{
		baseURL: strings.TrimSuffix(baseURL, "/"),
		dim:     dim,
		timeout: timeout,
		client:  &http.Client{},
	}
}

// Detect posts an image to the service and returns all detected faces.
// The call is bounded by the configured timeout; an expired deadline
// surfaces as an error the caller treats as a per-photo failure.
func (c *Client) Detect(ctx context.Context, imageData []byte) ([]Detection, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.timeout)
		defer cancel()
	}

	body, err := c.postMultipartImage(ctx, "/detect", imageData)
	if err != nil {
		return nil, err
	}

	var resp detectResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, fmt.Errorf("failed to parse response: %w", err)
	}

	if c.dim > 0 {
		for _, face := range resp.Faces {
			if got := len(face.Signature()); got != c.dim {
				return nil, fmt.Errorf("service returned %d-dimensional embedding, expected %d; model does not match configuration", got, c.dim)
			}
		}
	}

	return resp.Faces, nil
}

// postMultipartImage constructs a multipart form with the image data and
// posts it to the given endpoint. The part carries an explicit
// Content-Type header based on magic byte detection.
func (c *Client) postMultipartImage(ctx context.Context, endpoint string, imageData []byte) ([]byte, error) {
	var buf bytes.Buffer
	writer := multipart.NewWriter(&buf)

	h := make(textproto.MIMEHeader)
	h.Set("Content-Disposition", `form-data; name="file"; filename="image.jpg"`)
	h.Set("Content-Type", detectMIMEType(imageData))
	part, err := writer.CreatePart(h)
	if err != nil {
		return nil, fmt.Errorf("failed to create form file: %w", err)
	}

	if _, err := part.Write(imageData); err != nil {
		return nil, fmt.Errorf("failed to write image data: %w", err)
	}

	if err := writer.Close(); err != nil {
		return nil, fmt.Errorf("failed to close multipart writer: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+endpoint, &buf)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", writer.FormDataContentType())

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("API error (status %d): %s", resp.StatusCode, string(body))
	}

	return body, nil
}

// detectMIMEType detects the MIME type from image data.
func detectMIMEType(data []byte) string {
	if len(data) < 8 {
		return "application/octet-stream"
	}
	// JPEG: FF D8 FF
	if data[0] == 0xFF && data[1] == 0xD8 && data[2] == 0xFF {
		return "image/jpeg"
	}
	// PNG: 89 50 4E 47 0D 0A 1A 0A
	if data[0] == 0x89 && data[1] == 0x50 && data[2] == 0x4E && data[3] == 0x47 {
		return "image/png"
	}
	// GIF: 47 49 46 38
	if data[0] == 0x47 && data[1] == 0x49 && data[2] == 0x46 && data[3] == 0x38 {
		return "image/gif"
	}
	// WebP: 52 49 46 46 ... 57 45 42 50
	if len(data) >= 12 && data[0] == 0x52 && data[1] == 0x49 && data[2] == 0x46 && data[3] == 0x46 &&
		data[8] == 0x57 && data[9] == 0x45 && data[10] == 0x42 && data[11] == 0x50 {
		return "image/webp"
	}
	return "application/octet-stream"
}
