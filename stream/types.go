package stream

// Placeholder values for windows that did not pass the event gate.
const (
	PredictedNoAction   = "no action"
	ActualNotApplicable = "not applicable"
)

// EventRecord describes the outcome for one incoming window. Created once
// per window, never mutated after creation.
type EventRecord struct {
	Seq       int     `json:"seq"`
	RMS       float64 `json:"rms"`
	Predicted string  `json:"predicted"`
	Actual    string  `json:"actual"`
	Scored    bool    `json:"scored"`
}

// AccuracyPoint captures running accuracy after one scored event. Points are
// appended only for windows that passed the gate, so their sequence ids are
// a subset of the EventRecord sequence ids.
type AccuracyPoint struct {
	Seq      int     `json:"seq"`
	Accuracy float64 `json:"accuracy"`
}

// Summary is the evaluator's running tally.
type Summary struct {
	Windows  int     `json:"windows"`
	Correct  int     `json:"correct"`
	Total    int     `json:"total"`
	Accuracy float64 `json:"accuracy"`
}

// Oracle supplies the ground-truth label for a window. In production this is
// the upstream labeler; harness code injects a rule over the generated data.
// The evaluator never derives labels itself.
type Oracle interface {
	TrueLabel(window []float64) (int, error)
}

// OracleFunc adapts a plain function to the Oracle interface.
type OracleFunc func(window []float64) (int, error)

// TrueLabel implements Oracle.
func (f OracleFunc) TrueLabel(window []float64) (int, error) {
	return f(window)
}
