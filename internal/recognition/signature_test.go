package recognition

import (
	"math"
	"testing"
)

func TestNormalized(t *testing.T) {
	tests := []struct {
		name string
		in   Signature
		want Signature
	}{
		{"already unit", Signature{1, 0, 0}, Signature{1, 0, 0}},
		{"scaled", Signature{3, 4}, Signature{0.6, 0.8}},
		{"zero vector unchanged", Signature{0, 0, 0}, Signature{0, 0, 0}},
		{"empty", Signature{}, Signature{}},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got := tc.in.Normalized()
			if len(got) != len(tc.want) {
				t.Fatalf("Normalized(%v) has length %d; want %d", tc.in, len(got), len(tc.want))
			}
			for i := range got {
				if math.Abs(float64(got[i]-tc.want[i])) > 0.001 {
					t.Errorf("Normalized(%v)[%d] = %f; want %f", tc.in, i, got[i], tc.want[i])
				}
			}
		})
	}
}

func TestNormalizedUnitLength(t *testing.T) {
	sig := Signature{2, -7, 3.5, 0.1}
	norm := sig.Normalized().Norm()
	if math.Abs(norm-1.0) > 0.0001 {
		t.Errorf("normalized vector has norm %f; want 1.0", norm)
	}
}

func TestSimilarity(t *testing.T) {
	tests := []struct {
		name     string
		a        Signature
		b        Signature
		expected float64
		delta    float64
	}{
		{"identical vectors", Signature{1, 0, 0}, Signature{1, 0, 0}, 1.0, 0.001},
		{"opposite vectors", Signature{1, 0, 0}, Signature{-1, 0, 0}, -1.0, 0.001},
		{"orthogonal vectors", Signature{1, 0, 0}, Signature{0, 1, 0}, 0.0, 0.001},
		{"similar vectors", Signature{1, 1, 0}, Signature{1, 0, 0}, 0.707, 0.01},
		{"unnormalized inputs", Signature{2, 2, 0}, Signature{5, 0, 0}, 0.707, 0.01},
		{"different lengths", Signature{1, 0}, Signature{1, 0, 0}, 0.0, 0.001},
		{"zero vector", Signature{0, 0, 0}, Signature{1, 0, 0}, 0.0, 0.001},
		{"empty vectors", Signature{}, Signature{}, 0.0, 0.001},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			result := Similarity(tc.a, tc.b)
			if result < tc.expected-tc.delta || result > tc.expected+tc.delta {
				t.Errorf("Similarity(%v, %v) = %f; want %f (±%f)",
					tc.a, tc.b, result, tc.expected, tc.delta)
			}
		})
	}
}

func TestMeanSignature(t *testing.T) {
	samples := []Signature{
		{1, 0},
		{0, 1},
	}

	mean := MeanSignature(samples)
	if mean == nil {
		t.Fatal("MeanSignature returned nil for valid samples")
	}

	// componentwise mean is (0.5, 0.5); renormalized it lands on the diagonal
	want := float32(1 / math.Sqrt(2))
	for i, v := range mean {
		if math.Abs(float64(v-want)) > 0.001 {
			t.Errorf("mean[%d] = %f; want %f", i, v, want)
		}
	}

	if norm := mean.Norm(); math.Abs(norm-1.0) > 0.0001 {
		t.Errorf("mean signature has norm %f; want 1.0", norm)
	}
}

func TestMeanSignatureSingleSample(t *testing.T) {
	sig := Signature{0.6, 0.8}
	mean := MeanSignature([]Signature{sig})
	for i := range sig {
		if math.Abs(float64(mean[i]-sig[i])) > 0.001 {
			t.Errorf("mean of one sample differs at %d: %f vs %f", i, mean[i], sig[i])
		}
	}
}

func TestMeanSignatureInvalid(t *testing.T) {
	if got := MeanSignature(nil); got != nil {
		t.Errorf("MeanSignature(nil) = %v; want nil", got)
	}
	if got := MeanSignature([]Signature{}); got != nil {
		t.Errorf("MeanSignature(empty) = %v; want nil", got)
	}
	mixed := []Signature{{1, 0}, {1, 0, 0}}
	if got := MeanSignature(mixed); got != nil {
		t.Errorf("MeanSignature with mixed dimensions = %v; want nil", got)
	}
}
