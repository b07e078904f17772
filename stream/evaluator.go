package stream

// Streaming Inference-and-Adaptation Loop
//
// The Evaluator owns the mutable shared state of the streaming phase: the
// classifier (updated after every scored event), the accuracy counters and
// the append-only record/trend sequences. The standardizer is shared
// read-only state; its parameters were fixed by the batch fit and are reused
// verbatim for every streaming window, keeping streaming predictions
// consistent with the batch baseline.
//
// Per window, in strict arrival order:
//
//	gate -> extract -> standardize -> predict -> resolve true label ->
//	update counters and trend -> append record -> one PartialFit step
//
// Prediction always sees the model exactly as left by the previous event;
// updates are never reordered or batched. A mutex serializes Process so
// that multiple feeds (socket clients, the MQTT collector) still observe
// the single-writer contract.

import (
	"fmt"
	"sync"

	"shm-monitor/model"
	"shm-monitor/signal"
)

// Evaluator runs the streaming loop over a fitted classifier/standardizer
// pair produced by the batch warm start.
type Evaluator struct {
	mu           sync.Mutex
	classifier   *model.OnlineClassifier
	standardizer *model.Standardizer
	threshold    float64

	seq     int
	correct int
	total   int
	records []EventRecord
	trend   []AccuracyPoint
}

// NewEvaluator wires the shared state into a fresh evaluator. The classifier
// must be initially fitted and the standardizer fitted; threshold <= 0
// selects the default RMS gate.
func NewEvaluator(classifier *model.OnlineClassifier, standardizer *model.Standardizer, threshold float64) (*Evaluator, error) {
	if classifier == nil || classifier.Dim() == 0 {
		return nil, fmt.Errorf("evaluator needs an initially fitted classifier: %w", model.ErrNotFitted)
	}
	if standardizer == nil || !standardizer.Fitted() {
		return nil, fmt.Errorf("evaluator needs a fitted standardizer: %w", model.ErrNotFitted)
	}
	if threshold <= 0 {
		threshold = signal.DefaultEventThreshold
	}
	return &Evaluator{
		classifier:   classifier,
		standardizer: standardizer,
		threshold:    threshold,
	}, nil
}

// Threshold returns the configured RMS gate level.
func (e *Evaluator) Threshold() float64 {
	return e.threshold
}

// Process handles one incoming window. Quiet windows produce a "no action"
// record and touch nothing else. Gated windows are classified, scored
// against the oracle's label, and immediately folded back into the model.
// An oracle failure surfaces before any counter mutation; the sequence id
// is consumed but the evaluator state is otherwise untouched.
func (e *Evaluator) Process(window []float64, oracle Oracle) (EventRecord, error) {
	if len(window) == 0 {
		return EventRecord{}, signal.ErrEmptyWindow
	}
	if oracle == nil {
		return EventRecord{}, fmt.Errorf("no oracle provided")
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	e.seq++
	seq := e.seq
	rms := signal.RMS(window)

	if !signal.IsEvent(window, e.threshold) {
		record := EventRecord{
			Seq:       seq,
			RMS:       rms,
			Predicted: PredictedNoAction,
			Actual:    ActualNotApplicable,
		}
		e.records = append(e.records, record)
		return record, nil
	}

	features, err := signal.Extract(window)
	if err != nil {
		return EventRecord{}, fmt.Errorf("extract window %d: %w", seq, err)
	}
	scaled, err := e.standardizer.Transform(features.Vector())
	if err != nil {
		return EventRecord{}, fmt.Errorf("standardize window %d: %w", seq, err)
	}
	predicted, err := e.classifier.Predict(scaled)
	if err != nil {
		return EventRecord{}, fmt.Errorf("predict window %d: %w", seq, err)
	}
	trueLabel, err := oracle.TrueLabel(window)
	if err != nil {
		return EventRecord{}, fmt.Errorf("resolve label for window %d: %w", seq, err)
	}
	if trueLabel != model.LabelHealthy && trueLabel != model.LabelDamaged {
		return EventRecord{}, fmt.Errorf("oracle label %d for window %d is outside the binary label space", trueLabel, seq)
	}

	e.total++
	if predicted == trueLabel {
		e.correct++
	}
	e.trend = append(e.trend, AccuracyPoint{
		Seq:      seq,
		Accuracy: float64(e.correct) / float64(e.total),
	})

	record := EventRecord{
		Seq:       seq,
		RMS:       rms,
		Predicted: model.ClassNames[predicted],
		Actual:    model.ClassNames[trueLabel],
		Scored:    true,
	}
	e.records = append(e.records, record)

	// The update must complete (or visibly fail) before the next window.
	if err := e.classifier.PartialFit(scaled, trueLabel); err != nil {
		return record, fmt.Errorf("online update for window %d: %w", seq, err)
	}
	return record, nil
}

// ProcessAll feeds windows through Process in order, stopping at the first
// failure.
func (e *Evaluator) ProcessAll(windows [][]float64, oracle Oracle) ([]EventRecord, error) {
	records := make([]EventRecord, 0, len(windows))
	for _, window := range windows {
		record, err := e.Process(window, oracle)
		if err != nil {
			return records, err
		}
		records = append(records, record)
	}
	return records, nil
}

// Records returns a copy of the append-only event record sequence.
func (e *Evaluator) Records() []EventRecord {
	e.mu.Lock()
	defer e.mu.Unlock()
	return append([]EventRecord(nil), e.records...)
}

// PointForSeq returns the accuracy point recorded for the given sequence id.
// Callers persisting or emitting a scored event use this instead of reading
// the trend tail, which may already belong to a later event when multiple
// feeds share the evaluator.
func (e *Evaluator) PointForSeq(seq int) (AccuracyPoint, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	for i := len(e.trend) - 1; i >= 0; i-- {
		if e.trend[i].Seq == seq {
			return e.trend[i], true
		}
		if e.trend[i].Seq < seq {
			break
		}
	}
	return AccuracyPoint{}, false
}

// Trend returns a copy of the append-only accuracy trend.
func (e *Evaluator) Trend() []AccuracyPoint {
	e.mu.Lock()
	defer e.mu.Unlock()
	return append([]AccuracyPoint(nil), e.trend...)
}

// Summary returns the current running tally.
func (e *Evaluator) Summary() Summary {
	e.mu.Lock()
	defer e.mu.Unlock()

	summary := Summary{
		Windows: e.seq,
		Correct: e.correct,
		Total:   e.total,
	}
	if e.total > 0 {
		summary.Accuracy = float64(e.correct) / float64(e.total)
	}
	return summary
}
