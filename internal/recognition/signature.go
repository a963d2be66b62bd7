// Package recognition implements the face identity pipeline: talking to
// the detection/embedding service, building reference signatures from
// enrollment photos, and matching detected faces against a roster.
package recognition

import "math"

// Signature is a face embedding vector. Stored reference signatures are
// always unit-normalized; detector output is normalized on the way in.
type Signature []float32

// Norm returns the L2 norm of the signature.
func (s Signature) Norm() float64 {
	var sum float64
	for _, v := range s {
		sum += float64(v) * float64(v)
	}
	return math.Sqrt(sum)
}

// Normalized returns a unit-length copy of the signature. A zero vector is
// returned unchanged.
func (s Signature) Normalized() Signature {
	norm := s.Norm()
	if norm == 0 {
		return s
	}
	out := make(Signature, len(s))
	for i, v := range s {
		out[i] = float32(float64(v) / norm)
	}
	return out
}

// Similarity computes the cosine similarity between two signatures.
// For unit vectors this equals the dot product (1 - cosine distance).
// Returns 0 for mismatched lengths or zero vectors.
func Similarity(a, b Signature) float64 {
	if len(a) != len(b) || len(a) == 0 {
		return 0
	}

	var dotProduct, normA, normB float64
	for i := range a {
		dotProduct += float64(a[i]) * float64(b[i])
		normA += float64(a[i]) * float64(a[i])
		normB += float64(b[i]) * float64(b[i])
	}

	if normA == 0 || normB == 0 {
		return 0
	}

	return dotProduct / (math.Sqrt(normA) * math.Sqrt(normB))
}

// MeanSignature averages the given signatures componentwise and
// re-normalizes the mean to unit length. Averaging unit vectors and
// re-normalizing approximates their centroid direction on the unit
// hypersphere. Returns nil for empty input or mismatched dimensions.
func MeanSignature(signatures []Signature) Signature {
	if len(signatures) == 0 {
		return nil
	}

	dim := len(signatures[0])
	sum := make([]float64, dim)
	for _, sig := range signatures {
		if len(sig) != dim {
			return nil
		}
		for i, v := range sig {
			sum[i] += float64(v)
		}
	}

	mean := make(Signature, dim)
	for i, v := range sum {
		mean[i] = float32(v / float64(len(signatures)))
	}
	return mean.Normalized()
}
