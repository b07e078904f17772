package signal

// DefaultEventThreshold is the RMS level above which a window is treated as
// an event worth classifying.
const DefaultEventThreshold = 2.5

// IsEvent reports whether the window carries enough energy to warrant
// inference. A window is an event iff its RMS strictly exceeds threshold;
// RMS exactly at the threshold is not an event. The gate is a cheap
// pre-filter with no model involvement.
func IsEvent(samples []float64, threshold float64) bool {
	return RMS(samples) > threshold
}
