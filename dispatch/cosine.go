package dispatch

import "math"

// CosineSimilarity returns the normalized dot product of two vectors:
// dot(a,b) / (|a|*|b|). It is defined as 0.0 when either vector has zero
// norm (or the lengths differ), so callers never hit a division by zero.
func CosineSimilarity(a, b []float64) float64 {
	if len(a) != len(b) || len(a) == 0 {
		return 0.0
	}
	var dot, normA, normB float64
	for i := range a {
		dot += a[i] * b[i]
		normA += a[i] * a[i]
		normB += b[i] * b[i]
	}
	if normA == 0 || normB == 0 {
		return 0.0
	}
	return dot / (math.Sqrt(normA) * math.Sqrt(normB))
}
