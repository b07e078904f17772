package model

import (
	"errors"
	"math"
	"testing"
)

const tolerance = 1e-9

func TestStandardizerRoundTrip(t *testing.T) {
	t.Parallel()

	vectors := [][]float64{
		{1, 10, -5},
		{2, 20, 0},
		{3, 30, 5},
		{4, 40, 10},
	}

	s := NewStandardizer()
	if err := s.Fit(vectors); err != nil {
		t.Fatalf("Fit returned error: %v", err)
	}

	scaled, err := s.TransformAll(vectors)
	if err != nil {
		t.Fatalf("TransformAll returned error: %v", err)
	}

	// Across the fitting set, each dimension must come out with mean 0
	// and population std 1.
	dim := len(vectors[0])
	for d := 0; d < dim; d++ {
		var sum float64
		for _, vec := range scaled {
			sum += vec[d]
		}
		mean := sum / float64(len(scaled))
		if math.Abs(mean) > tolerance {
			t.Errorf("dimension %d: scaled mean %f, want 0", d, mean)
		}

		var variance float64
		for _, vec := range scaled {
			diff := vec[d] - mean
			variance += diff * diff
		}
		std := math.Sqrt(variance / float64(len(scaled)))
		if math.Abs(std-1.0) > tolerance {
			t.Errorf("dimension %d: scaled std %f, want 1", d, std)
		}
	}
}

func TestStandardizerTransformIsIdempotent(t *testing.T) {
	t.Parallel()

	s := NewStandardizer()
	if err := s.Fit([][]float64{{1, 2}, {3, 4}, {5, 6}}); err != nil {
		t.Fatalf("Fit returned error: %v", err)
	}

	input := []float64{2, 3}
	first, err := s.Transform(input)
	if err != nil {
		t.Fatalf("Transform returned error: %v", err)
	}
	second, err := s.Transform(input)
	if err != nil {
		t.Fatalf("Transform returned error: %v", err)
	}

	for i := range first {
		if first[i] != second[i] {
			t.Fatalf("transform mutated hidden state: %v vs %v", first, second)
		}
	}
	if input[0] != 2 || input[1] != 3 {
		t.Fatalf("transform mutated its input: %v", input)
	}
}

func TestStandardizerZeroVarianceClampsToOne(t *testing.T) {
	t.Parallel()

	// Dimension 0 is constant; its scale clamps to 1.0 so transformed
	// values are centred but otherwise unchanged.
	s := NewStandardizer()
	if err := s.Fit([][]float64{{5, 1}, {5, 2}, {5, 3}}); err != nil {
		t.Fatalf("Fit returned error: %v", err)
	}

	if s.Stddev[0] != 1.0 {
		t.Fatalf("expected clamped stddev 1.0 for constant dimension, got %f", s.Stddev[0])
	}

	scaled, err := s.Transform([]float64{5, 2})
	if err != nil {
		t.Fatalf("Transform returned error: %v", err)
	}
	if scaled[0] != 0 {
		t.Errorf("expected centred constant dimension 0, got %f", scaled[0])
	}
	if math.IsInf(scaled[0], 0) || math.IsNaN(scaled[0]) {
		t.Errorf("division artifact leaked into scaled vector: %f", scaled[0])
	}
}

func TestStandardizerFitExactlyOnce(t *testing.T) {
	t.Parallel()

	s := NewStandardizer()
	if err := s.Fit([][]float64{{1}, {2}}); err != nil {
		t.Fatalf("first Fit returned error: %v", err)
	}
	if err := s.Fit([][]float64{{3}, {4}}); !errors.Is(err, ErrAlreadyFitted) {
		t.Fatalf("expected ErrAlreadyFitted on refit, got %v", err)
	}
}

func TestStandardizerTransformBeforeFit(t *testing.T) {
	t.Parallel()

	s := NewStandardizer()
	if _, err := s.Transform([]float64{1, 2}); !errors.Is(err, ErrNotFitted) {
		t.Fatalf("expected ErrNotFitted, got %v", err)
	}
}

func TestStandardizerDimensionMismatch(t *testing.T) {
	t.Parallel()

	s := NewStandardizer()
	if err := s.Fit([][]float64{{1, 2}, {3, 4}}); err != nil {
		t.Fatalf("Fit returned error: %v", err)
	}
	if _, err := s.Transform([]float64{1, 2, 3}); !errors.Is(err, ErrDimensionMismatch) {
		t.Fatalf("expected ErrDimensionMismatch, got %v", err)
	}
}
