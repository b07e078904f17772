package signal

// Feature Extraction
//
// This package turns a raw structural-sensor window into a compact statistical
// descriptor. The system extracts 5 temporal features from each window:
//
//   - Mean: sample average, captures static offset / drift
//   - Std: population standard deviation, captures vibration spread
//   - RMS: root mean square amplitude, measures overall signal energy
//   - Kurtosis: excess kurtosis (fourth standardized moment - 3), indicates
//     impulsive content such as impacts or crack events
//   - Skewness: third standardized moment, indicates asymmetric loading
//
// Extraction is a pure function of the window: the same samples always yield
// the same descriptor. Higher moments use the population definitions, matching
// the population variance used for Std. A constant window has zero variance;
// kurtosis and skewness are reported as 0 in that case rather than dividing
// by zero.

import (
	"errors"
	"math"
)

// ErrEmptyWindow is returned when a window with no samples is passed to the
// extractor. Callers are expected to guarantee non-empty windows.
var ErrEmptyWindow = errors.New("signal window is empty")

// FeatureNames lists the descriptor dimensions in vector order.
var FeatureNames = []string{"mean", "std", "rms", "kurtosis", "skewness"}

// FeatureCount is the fixed dimensionality of every extracted descriptor.
const FeatureCount = 5

// Features is the full descriptor of one window. Every field is always
// populated; extraction never produces a partial descriptor.
type Features struct {
	Mean     float64 `json:"mean"`
	Std      float64 `json:"std"`
	RMS      float64 `json:"rms"`
	Kurtosis float64 `json:"kurtosis"`
	Skewness float64 `json:"skewness"`
}

// Vector returns the descriptor in the fixed order given by FeatureNames.
func (f Features) Vector() []float64 {
	return []float64{f.Mean, f.Std, f.RMS, f.Kurtosis, f.Skewness}
}

// Extract derives the five-feature descriptor for a window of raw samples.
func Extract(samples []float64) (Features, error) {
	if len(samples) == 0 {
		return Features{}, ErrEmptyWindow
	}

	n := float64(len(samples))

	var sum float64
	for _, v := range samples {
		sum += v
	}
	mean := sum / n

	var m2, m3, m4 float64
	for _, v := range samples {
		diff := v - mean
		sq := diff * diff
		m2 += sq
		m3 += sq * diff
		m4 += sq * sq
	}
	m2 /= n
	m3 /= n
	m4 /= n

	std := math.Sqrt(m2)

	var skewness, kurtosis float64
	if std > 0 {
		skewness = m3 / (std * std * std)
		kurtosis = m4/(m2*m2) - 3.0
	}

	return Features{
		Mean:     mean,
		Std:      std,
		RMS:      RMS(samples),
		Kurtosis: kurtosis,
		Skewness: skewness,
	}, nil
}

// RMS returns the root mean square amplitude of the window. Zero for an
// empty window.
func RMS(samples []float64) float64 {
	if len(samples) == 0 {
		return 0
	}
	var sum float64
	for _, v := range samples {
		sum += v * v
	}
	return math.Sqrt(sum / float64(len(samples)))
}
