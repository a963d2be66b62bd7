package recognition

import (
	"bytes"
	"context"
	"image"
	"image/jpeg"
	_ "image/png"
	"log"
	"sort"
	"sync"

	_ "golang.org/x/image/bmp"
	"golang.org/x/image/draw"
)

const recognizeWorkers = 4

// AnnotatedImage is one processed session photo with boxes and labels
// drawn over the detected faces.
type AnnotatedImage struct {
	PhotoIndex int
	JPEG       []byte
}

// BatchResult aggregates recognition over a whole batch of session
// photos. Found holds the enrollment numbers matched anywhere in the
// batch; Images holds per-photo annotated JPEGs for the photos that
// survived decode and detection, ordered by photo index.
type BatchResult struct {
	Found  map[string]bool
	Images []AnnotatedImage
}

// Recognizer runs face detection and roster matching over session
// photos.
type Recognizer struct {
	detector        Detector
	matcher         *Matcher
	resolutionFloor int
	upscaleFactor   int
}

// NewRecognizer creates a recognizer. Photos narrower than
// resolutionFloor pixels are upscaled by upscaleFactor before detection
// so small faces stay detectable.
func NewRecognizer(detector Detector, matcher *Matcher, resolutionFloor, upscaleFactor int) *Recognizer {
	return &Recognizer{
		detector:        detector,
		matcher:         matcher,
		resolutionFloor: resolutionFloor,
		upscaleFactor:   upscaleFactor,
	}
}

// Recognize processes all photos and returns the batch result. Photos
// are decoded, upscaled and annotated concurrently; the detector client
// serializes the actual inference calls. A photo that fails to decode
// or detect is logged and dropped, never failing the batch.
// Cancellation is honored between photos: faces already sent to the
// detector finish their match.
func (r *Recognizer) Recognize(ctx context.Context, photos [][]byte, roster []Candidate) (*BatchResult, error) {
	result := &BatchResult{Found: make(map[string]bool)}

	var mu sync.Mutex
	var wg sync.WaitGroup
	jobs := make(chan int)

	workers := recognizeWorkers
	if len(photos) < workers {
		workers = len(photos)
	}

	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for idx := range jobs {
				annotated := r.processPhoto(ctx, photos[idx], idx, roster, result, &mu)
				if annotated != nil {
					mu.Lock()
					result.Images = append(result.Images, *annotated)
					mu.Unlock()
				}
			}
		}()
	}

	var err error
	for i := range photos {
		if ctxErr := ctx.Err(); ctxErr != nil {
			err = ctxErr
			break
		}
		jobs <- i
	}
	close(jobs)
	wg.Wait()

	if err != nil {
		return nil, err
	}

	sort.Slice(result.Images, func(i, j int) bool {
		return result.Images[i].PhotoIndex < result.Images[j].PhotoIndex
	})

	return result, nil
}

func (r *Recognizer) processPhoto(ctx context.Context, data []byte, idx int, roster []Candidate, result *BatchResult, mu *sync.Mutex) *AnnotatedImage {
	img, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		log.Printf("photo %d: decode failed: %v", idx, err)
		return nil
	}

	payload := data
	if upscaled := r.upscale(img); upscaled != img {
		img = upscaled
		// re-encode so detection sees the same pixels we annotate
		var buf bytes.Buffer
		if err := jpeg.Encode(&buf, img, nil); err != nil {
			log.Printf("photo %d: encode failed: %v", idx, err)
			return nil
		}
		payload = buf.Bytes()
	}

	faces, err := r.detector.Detect(ctx, payload)
	if err != nil {
		log.Printf("photo %d: detection failed: %v", idx, err)
		return nil
	}

	labels := make([]FaceLabel, 0, len(faces))
	for _, face := range faces {
		label := FaceLabel{BBox: face.BBox}
		if m := r.matcher.Match(face.Signature(), roster); m != nil {
			mu.Lock()
			result.Found[m.EnrollmentNo] = true
			mu.Unlock()
			label.Name = m.FullName
		}
		labels = append(labels, label)
	}

	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, Annotate(img, labels), nil); err != nil {
		log.Printf("photo %d: annotate encode failed: %v", idx, err)
		return nil
	}

	return &AnnotatedImage{PhotoIndex: idx, JPEG: buf.Bytes()}
}

// upscale enlarges images below the resolution floor so faces shot from
// the back of the room keep enough pixels for the detector.
func (r *Recognizer) upscale(img image.Image) image.Image {
	bounds := img.Bounds()
	if r.resolutionFloor <= 0 || r.upscaleFactor <= 1 || bounds.Dx() >= r.resolutionFloor {
		return img
	}

	newWidth := bounds.Dx() * r.upscaleFactor
	newHeight := bounds.Dy() * r.upscaleFactor
	dst := image.NewRGBA(image.Rect(0, 0, newWidth, newHeight))
	draw.CatmullRom.Scale(dst, dst.Bounds(), img, bounds, draw.Over, nil)
	return dst
}
