package signal

import (
	"math/rand"
)

// Synthetic window generation for harness tooling and tests. The streaming
// core never generates signals itself; cmd tools and tests use this package
// to stand in for the external sensor source.

// SynthConfig controls the separation between the two synthetic classes.
type SynthConfig struct {
	WindowSize int     // samples per window
	HealthyStd float64 // baseline vibration amplitude
	DamagedStd float64 // amplified vibration amplitude for damaged structures
	SpikeProb  float64 // per-sample probability of an impact spike in damaged windows
	SpikeScale float64 // spike amplitude multiplier relative to DamagedStd
}

// DefaultSynthConfig mirrors the reference configuration: 100-sample windows
// with damaged windows well above the 2.5 RMS gate and healthy ones below it.
func DefaultSynthConfig() SynthConfig {
	return SynthConfig{
		WindowSize: 100,
		HealthyStd: 1.0,
		DamagedStd: 4.0,
		SpikeProb:  0.05,
		SpikeScale: 2.0,
	}
}

// Window produces one synthetic window for the given class label
// (0 healthy, 1 damaged).
func (c SynthConfig) Window(rng *rand.Rand, damaged bool) []float64 {
	samples := make([]float64, c.WindowSize)
	std := c.HealthyStd
	if damaged {
		std = c.DamagedStd
	}
	for i := range samples {
		samples[i] = rng.NormFloat64() * std
		if damaged && rng.Float64() < c.SpikeProb {
			samples[i] += c.SpikeScale * std * sign(rng)
		}
	}
	return samples
}

// Dataset produces count windows with the requested damaged ratio, returning
// windows and their ground-truth labels in generation order.
func (c SynthConfig) Dataset(rng *rand.Rand, count int, damagedRatio float64) ([][]float64, []int) {
	windows := make([][]float64, count)
	labels := make([]int, count)
	for i := range windows {
		damaged := rng.Float64() < damagedRatio
		windows[i] = c.Window(rng, damaged)
		if damaged {
			labels[i] = 1
		}
	}
	return windows, labels
}

func sign(rng *rand.Rand) float64 {
	if rng.Float64() < 0.5 {
		return -1
	}
	return 1
}

// ConstantWindow returns a window of n identical samples. Used by tests to
// exercise the degenerate zero-variance case.
func ConstantWindow(n int, value float64) []float64 {
	samples := make([]float64, n)
	for i := range samples {
		samples[i] = value
	}
	return samples
}

// AlternatingWindow returns a window of n samples alternating +amp/-amp.
// Mean and skewness are zero and RMS equals amp, which makes gate behaviour
// easy to pin down in tests.
func AlternatingWindow(n int, amp float64) []float64 {
	samples := make([]float64, n)
	for i := range samples {
		if i%2 == 0 {
			samples[i] = amp
		} else {
			samples[i] = -amp
		}
	}
	return samples
}
