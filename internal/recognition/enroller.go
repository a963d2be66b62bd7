package recognition

import (
	"context"
	"fmt"
)

// InsufficientSamplesError reports an enrollment attempt that yielded
// fewer usable face samples than policy requires.
type InsufficientSamplesError struct {
	Got      int
	Required int
}

func (e *InsufficientSamplesError) Error() string {
	return fmt.Sprintf("insufficient face samples: got %d, need %d", e.Got, e.Required)
}

// Enroller turns a set of enrollment photos into a single identity
// signature.
type Enroller struct {
	detector   Detector
	minSamples int
}

// NewEnroller creates an enroller that requires at least minSamples
// usable photos before producing a signature.
func NewEnroller(detector Detector, minSamples int) *Enroller {
	return &Enroller{detector: detector, minSamples: minSamples}
}

// Enroll runs detection over each photo, keeps the largest face per
// photo, and returns the renormalized mean of the collected signatures.
// Photos where detection fails or finds no face are skipped; the
// enrollment fails only when the usable count ends up below the
// configured minimum. The optional progress callback fires after each
// photo with the number processed so far.
func (e *Enroller) Enroll(ctx context.Context, photos [][]byte, progress func(done int)) (Signature, error) {
	var samples []Signature

	for i, photo := range photos {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		faces, err := e.detector.Detect(ctx, photo)
		if err == nil {
			if face := largestFace(faces); face != nil {
				samples = append(samples, face.Signature())
			}
		}

		if progress != nil {
			progress(i + 1)
		}
	}

	if len(samples) < e.minSamples {
		return nil, &InsufficientSamplesError{Got: len(samples), Required: e.minSamples}
	}

	sig := MeanSignature(samples)
	if sig == nil {
		return nil, fmt.Errorf("enrollment photos produced inconsistent embedding dimensions")
	}
	return sig, nil
}

// largestFace picks the detection with the biggest bounding box, the
// subject of the enrollment photo rather than a bystander.
func largestFace(faces []Detection) *Detection {
	var best *Detection
	var bestArea float64
	for i := range faces {
		area := faces[i].BBoxArea()
		if best == nil || area > bestArea {
			best = &faces[i]
			bestArea = area
		}
	}
	return best
}
