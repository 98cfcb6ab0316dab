package embedding

import (
	"math"
	"testing"
)

func TestEuclideanDistance(t *testing.T) {
	tests := []struct {
		name     string
		a        Descriptor
		b        Descriptor
		expected float64
	}{
		{
			name:     "identical",
			a:        Descriptor{0.1, 0.2, 0.3},
			b:        Descriptor{0.1, 0.2, 0.3},
			expected: 0,
		},
		{
			name:     "3-4-5 triangle",
			a:        Descriptor{0, 0},
			b:        Descriptor{3, 4},
			expected: 5,
		},
		{
			name:     "length mismatch",
			a:        Descriptor{1, 2},
			b:        Descriptor{1, 2, 3},
			expected: math.Inf(1),
		},
		{
			name:     "empty",
			a:        Descriptor{},
			b:        Descriptor{},
			expected: math.Inf(1),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := EuclideanDistance(tt.a, tt.b)
			if math.IsInf(tt.expected, 1) {
				if !math.IsInf(result, 1) {
					t.Errorf("EuclideanDistance(%v, %v) = %v, want +Inf", tt.a, tt.b, result)
				}
				return
			}
			if math.Abs(result-tt.expected) > 1e-6 {
				t.Errorf("EuclideanDistance(%v, %v) = %v, want %v", tt.a, tt.b, result, tt.expected)
			}
		})
	}
}

func TestCompareAll(t *testing.T) {
	known := []Descriptor{
		{0, 0},
		{0.5, 0},
		{1, 0},
		{0, 0, 0},
	}

	result := MetricEuclidean.CompareAll(known, Descriptor{0, 0}, 0.6)
	expected := []bool{true, true, false, false}

	if len(result) != len(expected) {
		t.Fatalf("expected %d results, got %d", len(expected), len(result))
	}
	for i := range expected {
		if result[i] != expected[i] {
			t.Errorf("index %d: expected %v, got %v", i, expected[i], result[i])
		}
	}
}

func TestCompareAll_Empty(t *testing.T) {
	result := MetricEuclidean.CompareAll(nil, Descriptor{1, 2}, 0.6)
	if len(result) != 0 {
		t.Errorf("expected empty result for empty gallery, got %v", result)
	}
}

func TestCompareAll_ToleranceIsInclusive(t *testing.T) {
	result := MetricEuclidean.CompareAll([]Descriptor{{0.5}}, Descriptor{0}, 0.5)
	if !result[0] {
		t.Error("expected a distance equal to the tolerance to match")
	}
}

func TestBestMatch(t *testing.T) {
	tests := []struct {
		name          string
		known         []Descriptor
		candidate     Descriptor
		expectedIndex int
		expectedOK    bool
	}{
		{
			name:          "closest wins",
			known:         []Descriptor{{0.5, 0}, {0.1, 0}, {0.3, 0}},
			candidate:     Descriptor{0, 0},
			expectedIndex: 1,
			expectedOK:    true,
		},
		{
			name:          "tie goes to first",
			known:         []Descriptor{{2, 0}, {0.2, 0}, {0, 0.2}},
			candidate:     Descriptor{0, 0},
			expectedIndex: 1,
			expectedOK:    true,
		},
		{
			name:          "nothing within tolerance",
			known:         []Descriptor{{1, 0}, {0, 1}},
			candidate:     Descriptor{0, 0},
			expectedIndex: -1,
			expectedOK:    false,
		},
		{
			name:          "empty gallery",
			known:         nil,
			candidate:     Descriptor{0, 0},
			expectedIndex: -1,
			expectedOK:    false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			index, _, ok := MetricEuclidean.BestMatch(tt.known, tt.candidate, 0.6)
			if index != tt.expectedIndex || ok != tt.expectedOK {
				t.Errorf("BestMatch() = (%d, %v), want (%d, %v)", index, ok, tt.expectedIndex, tt.expectedOK)
			}
		})
	}
}

func TestCosineDistance(t *testing.T) {
	tests := []struct {
		name     string
		a        Descriptor
		b        Descriptor
		expected float64
	}{
		{"identical", Descriptor{1, 2, 3}, Descriptor{1, 2, 3}, 0},
		{"scaled", Descriptor{1, 0}, Descriptor{5, 0}, 0},
		{"orthogonal", Descriptor{1, 0}, Descriptor{0, 1}, 1},
		{"opposite", Descriptor{1, 0}, Descriptor{-1, 0}, 2},
		{"length mismatch", Descriptor{1, 2}, Descriptor{1, 2, 3}, 2},
		{"zero vector", Descriptor{0, 0}, Descriptor{1, 0}, 2},
		{"empty", Descriptor{}, Descriptor{}, 2},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := CosineDistance(tt.a, tt.b)
			if math.Abs(result-tt.expected) > 1e-6 {
				t.Errorf("CosineDistance(%v, %v) = %v, want %v", tt.a, tt.b, result, tt.expected)
			}
		})
	}
}

func TestMetric_Distance(t *testing.T) {
	a, b := Descriptor{3, 0}, Descriptor{0, 4}

	if d := MetricEuclidean.Distance(a, b); math.Abs(d-5) > 1e-6 {
		t.Errorf("euclidean distance = %v, want 5", d)
	}
	if d := MetricCosine.Distance(a, b); math.Abs(d-1) > 1e-6 {
		t.Errorf("cosine distance = %v, want 1", d)
	}
	if d := Metric("unknown").Distance(a, b); math.Abs(d-5) > 1e-6 {
		t.Errorf("unknown metric should fall back to euclidean, got %v", d)
	}
}

func TestMetric_DefaultTolerance(t *testing.T) {
	if tol := MetricEuclidean.DefaultTolerance(); tol != 0.6 {
		t.Errorf("euclidean default tolerance = %v, want 0.6", tol)
	}
	if tol := MetricCosine.DefaultTolerance(); tol != 0.5 {
		t.Errorf("cosine default tolerance = %v, want 0.5", tol)
	}
}

func TestMetric_BestMatchCosine(t *testing.T) {
	// Direction matters, magnitude does not: {10, 1} is closest to {1, 0} by angle
	// even though {1.5, 1.5} is closer in Euclidean terms.
	known := []Descriptor{{1.5, 1.5}, {10, 1}}

	index, dist, ok := MetricCosine.BestMatch(known, Descriptor{1, 0}, 0.5)
	if !ok || index != 1 {
		t.Fatalf("BestMatch() = (%d, %v), want (1, true)", index, ok)
	}
	if dist > 0.01 {
		t.Errorf("expected a small cosine distance, got %v", dist)
	}

	index, _, _ = MetricEuclidean.BestMatch(known, Descriptor{1, 0}, 100)
	if index != 0 {
		t.Errorf("expected euclidean to prefer index 0, got %d", index)
	}
}
