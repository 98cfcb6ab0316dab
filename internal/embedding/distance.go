package embedding

import (
	"math"

	"github.com/kozaktomas/facecheck/internal/constants"
)

// Metric names the distance function an encoder's descriptors are compared with.
type Metric string

const (
	// MetricEuclidean is dlib's face distance (threshold 0.6).
	MetricEuclidean Metric = "euclidean"
	// MetricCosine is 1 - cosine similarity, used for the embedding service (threshold 0.5).
	MetricCosine Metric = "cosine"
)

// Distance returns the distance between two descriptors under m.
// Unknown metrics fall back to Euclidean.
func (m Metric) Distance(a, b Descriptor) float64 {
	if m == MetricCosine {
		return CosineDistance(a, b)
	}
	return EuclideanDistance(a, b)
}

// DefaultTolerance returns the customary match threshold for m.
func (m Metric) DefaultTolerance() float64 {
	if m == MetricCosine {
		return constants.DefaultCosineTolerance
	}
	return constants.DefaultEuclideanTolerance
}

// EuclideanDistance returns the Euclidean distance between two descriptors.
// Descriptors of different length are never close: the result is +Inf.
func EuclideanDistance(a, b Descriptor) float64 {
	if len(a) != len(b) || len(a) == 0 {
		return math.Inf(1)
	}

	var sum float64
	for i := range a {
		d := float64(a[i]) - float64(b[i])
		sum += d * d
	}
	return math.Sqrt(sum)
}

// CosineDistance computes the cosine distance between two descriptors.
// Returns a value between 0 (identical) and 2 (opposite).
func CosineDistance(a, b Descriptor) float64 {
	if len(a) != len(b) || len(a) == 0 {
		return 2.0 // Maximum distance for invalid input
	}

	var dotProduct, normA, normB float64
	for i := range a {
		dotProduct += float64(a[i]) * float64(b[i])
		normA += float64(a[i]) * float64(a[i])
		normB += float64(b[i]) * float64(b[i])
	}

	if normA == 0 || normB == 0 {
		return 2.0 // Maximum distance for zero vectors
	}

	similarity := dotProduct / (math.Sqrt(normA) * math.Sqrt(normB))
	// Clamp to [-1, 1] to handle floating point errors
	similarity = max(-1, min(1, similarity))

	return 1 - similarity
}

// Distances returns the distance from candidate to every known descriptor.
func (m Metric) Distances(known []Descriptor, candidate Descriptor) []float64 {
	out := make([]float64, len(known))
	for i, k := range known {
		out[i] = m.Distance(k, candidate)
	}
	return out
}

// CompareAll reports, per known descriptor, whether candidate lies within tolerance.
func (m Metric) CompareAll(known []Descriptor, candidate Descriptor, tolerance float64) []bool {
	out := make([]bool, len(known))
	for i, d := range m.Distances(known, candidate) {
		out[i] = d <= tolerance
	}
	return out
}

// BestMatch returns the index and distance of the closest known descriptor within
// tolerance. Ties go to the lowest index. ok is false when nothing is within tolerance.
func (m Metric) BestMatch(known []Descriptor, candidate Descriptor, tolerance float64) (index int, distance float64, ok bool) {
	index = -1
	distance = math.Inf(1)
	for i, d := range m.Distances(known, candidate) {
		if d <= tolerance && d < distance {
			index, distance = i, d
		}
	}
	return index, distance, index >= 0
}
