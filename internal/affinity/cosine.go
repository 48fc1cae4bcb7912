package affinity

import "math"

// Cosine returns the cosine similarity of a and b rescaled from [-1,1] to
// [0,1]. Empty vectors, unequal lengths, and zero-norm vectors score 0.
func Cosine(a, b []float64) float64 {
	if len(a) == 0 || len(a) != len(b) {
		return 0
	}

	var dot, normA, normB float64
	for i := range a {
		dot += a[i] * b[i]
		normA += a[i] * a[i]
		normB += b[i] * b[i]
	}
	if normA == 0 || normB == 0 {
		return 0
	}

	cos := dot / (math.Sqrt(normA) * math.Sqrt(normB))
	scaled := (cos + 1) / 2
	return math.Min(1, math.Max(0, scaled))
}
