package model

// Feature Standardization
//
// A Standardizer holds per-dimension centering and scaling parameters fitted
// once on a training set of feature vectors, and applies them unchanged to
// every later vector. Streaming windows are standardized with the same
// parameters as the batch baseline; the parameters are never refit online.
// Without this step, large-magnitude dimensions (RMS, std) dominate the
// classifier's gradient and the small-magnitude moments contribute nothing.

import (
	"fmt"
	"math"
)

// Standardizer applies z-score standardization: each dimension is transformed
// to mean=0, std=1 as measured on the fitting set.
type Standardizer struct {
	Mean   []float64 `json:"mean"`
	Stddev []float64 `json:"stddev"`
}

// NewStandardizer returns an unfitted Standardizer.
func NewStandardizer() *Standardizer {
	return &Standardizer{}
}

// Fitted reports whether parameters have been established.
func (s *Standardizer) Fitted() bool {
	return len(s.Mean) > 0
}

// Fit computes per-dimension mean and population standard deviation across
// the given vectors. Fit may run exactly once; the parameters are immutable
// afterwards. A dimension with (near) zero spread gets its scale clamped to
// 1.0 so that constant features pass through centred instead of producing
// division artifacts.
func (s *Standardizer) Fit(vectors [][]float64) error {
	if s.Fitted() {
		return ErrAlreadyFitted
	}
	if len(vectors) == 0 {
		return fmt.Errorf("no vectors provided to fit")
	}

	dim := len(vectors[0])
	if dim == 0 {
		return fmt.Errorf("vectors have no features")
	}

	mean := make([]float64, dim)
	for _, vec := range vectors {
		if len(vec) != dim {
			return fmt.Errorf("inconsistent width %d (expected %d): %w", len(vec), dim, ErrDimensionMismatch)
		}
		for i, val := range vec {
			mean[i] += val
		}
	}
	for i := range mean {
		mean[i] /= float64(len(vectors))
	}

	stddev := make([]float64, dim)
	for _, vec := range vectors {
		for i, val := range vec {
			diff := val - mean[i]
			stddev[i] += diff * diff
		}
	}
	for i := range stddev {
		stddev[i] = math.Sqrt(stddev[i] / float64(len(vectors)))
		// Prevent division by zero for constant dimensions
		if stddev[i] < 1e-10 {
			stddev[i] = 1.0
		}
	}

	s.Mean = mean
	s.Stddev = stddev
	return nil
}

// Transform returns (value - mean) / stddev per dimension using the stored
// parameters. Pure; the input vector is not modified.
func (s *Standardizer) Transform(vec []float64) ([]float64, error) {
	if !s.Fitted() {
		return nil, ErrNotFitted
	}
	if len(vec) != len(s.Mean) {
		return nil, fmt.Errorf("got width %d, fitted width %d: %w", len(vec), len(s.Mean), ErrDimensionMismatch)
	}

	scaled := make([]float64, len(vec))
	for i, val := range vec {
		scaled[i] = (val - s.Mean[i]) / s.Stddev[i]
	}
	return scaled, nil
}

// TransformAll applies Transform to every vector in order.
func (s *Standardizer) TransformAll(vectors [][]float64) ([][]float64, error) {
	scaled := make([][]float64, len(vectors))
	for i, vec := range vectors {
		out, err := s.Transform(vec)
		if err != nil {
			return nil, err
		}
		scaled[i] = out
	}
	return scaled, nil
}
