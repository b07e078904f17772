package stream

import (
	"errors"
	"fmt"
	"math"
	"testing"

	"shm-monitor/model"
	"shm-monitor/signal"
)

// newTestEvaluator warm-starts shared state from hand-built windows whose
// classes are cleanly separated in amplitude: healthy around RMS 1, damaged
// around RMS 4.
func newTestEvaluator(t *testing.T, threshold float64) *Evaluator {
	t.Helper()

	amps := []float64{0.8, 1.0, 1.2, 3.5, 4.0, 4.5}
	labels := []int{0, 0, 0, 1, 1, 1}

	vectors := make([][]float64, len(amps))
	for i, amp := range amps {
		features, err := signal.Extract(signal.AlternatingWindow(100, amp))
		if err != nil {
			t.Fatalf("failed to extract training features: %v", err)
		}
		vectors[i] = features.Vector()
	}

	standardizer := model.NewStandardizer()
	if err := standardizer.Fit(vectors); err != nil {
		t.Fatalf("failed to fit standardizer: %v", err)
	}
	scaled, err := standardizer.TransformAll(vectors)
	if err != nil {
		t.Fatalf("failed to transform training set: %v", err)
	}

	classifier := model.NewOnlineClassifier(0.5)
	if err := classifier.InitialFit(scaled, labels, []int{model.LabelHealthy, model.LabelDamaged}); err != nil {
		t.Fatalf("failed to fit classifier: %v", err)
	}

	evaluator, err := NewEvaluator(classifier, standardizer, threshold)
	if err != nil {
		t.Fatalf("failed to build evaluator: %v", err)
	}
	return evaluator
}

func constOracle(label int) Oracle {
	return OracleFunc(func([]float64) (int, error) {
		return label, nil
	})
}

func TestQuietWindowIsNotScored(t *testing.T) {
	t.Parallel()

	evaluator := newTestEvaluator(t, 2.5)

	record, err := evaluator.Process(signal.ConstantWindow(100, 0.0), constOracle(0))
	if err != nil {
		t.Fatalf("Process returned error: %v", err)
	}

	if record.Predicted != PredictedNoAction || record.Actual != ActualNotApplicable {
		t.Fatalf("unexpected record for quiet window: %+v", record)
	}
	if record.Scored {
		t.Error("quiet window must not be scored")
	}
	if record.RMS != 0 {
		t.Errorf("expected rms 0, got %f", record.RMS)
	}

	summary := evaluator.Summary()
	if summary.Total != 0 || summary.Correct != 0 {
		t.Errorf("quiet window moved counters: %+v", summary)
	}
	if len(evaluator.Trend()) != 0 {
		t.Error("quiet window appended to the accuracy trend")
	}
	if len(evaluator.Records()) != 1 {
		t.Error("quiet window must still produce an event record")
	}
}

func TestScoredEventUpdatesCountersAndModel(t *testing.T) {
	t.Parallel()

	evaluator := newTestEvaluator(t, 2.5)

	// RMS 4.0 > 2.5: gated, predicted damaged by the warm-started model,
	// oracle confirms damaged.
	window := signal.AlternatingWindow(100, 4.0)
	if got := signal.RMS(window); math.Abs(got-4.0) > 1e-9 {
		t.Fatalf("fixture rms %f, want 4.0", got)
	}

	record, err := evaluator.Process(window, constOracle(model.LabelDamaged))
	if err != nil {
		t.Fatalf("Process returned error: %v", err)
	}

	if !record.Scored {
		t.Fatal("expected a scored event")
	}
	if record.Predicted != "damaged" {
		t.Fatalf("expected the warm-started model to predict damaged, got %s", record.Predicted)
	}
	if record.Actual != "damaged" {
		t.Fatalf("expected actual damaged, got %s", record.Actual)
	}

	summary := evaluator.Summary()
	if summary.Total != 1 || summary.Correct != 1 {
		t.Fatalf("expected correct=1 total=1, got %+v", summary)
	}

	trend := evaluator.Trend()
	if len(trend) != 1 {
		t.Fatalf("expected one accuracy point, got %d", len(trend))
	}
	if trend[0].Accuracy != 1.0 {
		t.Errorf("running accuracy %f, want 1.0", trend[0].Accuracy)
	}
	if trend[0].Seq != record.Seq {
		t.Errorf("accuracy point seq %d, want %d", trend[0].Seq, record.Seq)
	}
}

func TestScoredEventTriggersOnlineUpdate(t *testing.T) {
	t.Parallel()

	evaluator := newTestEvaluator(t, 2.5)

	before, biasBefore := evaluator.classifier.Weights()
	if _, err := evaluator.Process(signal.AlternatingWindow(100, 4.0), constOracle(model.LabelDamaged)); err != nil {
		t.Fatalf("Process returned error: %v", err)
	}
	after, biasAfter := evaluator.classifier.Weights()

	changed := biasBefore != biasAfter
	for i := range before {
		if before[i] != after[i] {
			changed = true
		}
	}
	if !changed {
		t.Fatal("scored event did not fold back into the classifier")
	}
}

func TestRunningAccuracyFormula(t *testing.T) {
	t.Parallel()

	evaluator := newTestEvaluator(t, 2.5)

	// All windows pass the gate; the oracle disagrees with the model on
	// some of them so correct < total.
	oracleLabels := []int{1, 0, 1, 1, 0, 1}
	for i, label := range oracleLabels {
		window := signal.AlternatingWindow(100, 3.0+0.2*float64(i))
		if _, err := evaluator.Process(window, constOracle(label)); err != nil {
			t.Fatalf("Process returned error at window %d: %v", i, err)
		}
	}

	summary := evaluator.Summary()
	if summary.Total != len(oracleLabels) {
		t.Fatalf("total %d, want %d", summary.Total, len(oracleLabels))
	}
	if summary.Correct < 0 || summary.Correct > summary.Total {
		t.Fatalf("correct %d outside [0, %d]", summary.Correct, summary.Total)
	}

	trend := evaluator.Trend()
	if len(trend) != len(oracleLabels) {
		t.Fatalf("trend has %d points, want %d", len(trend), len(oracleLabels))
	}

	// Recompute correct_i/i from the records and compare point by point.
	records := evaluator.Records()
	correct := 0
	for i, record := range records {
		if !record.Scored {
			t.Fatalf("record %d unexpectedly unscored", i)
		}
		if record.Predicted == record.Actual {
			correct++
		}
		want := float64(correct) / float64(i+1)
		if math.Abs(trend[i].Accuracy-want) > 1e-12 {
			t.Errorf("trend point %d: accuracy %f, want %f", i, trend[i].Accuracy, want)
		}
	}
	if summary.Correct != correct {
		t.Errorf("summary correct %d disagrees with records (%d)", summary.Correct, correct)
	}
}

func TestGateExcludesWindowsFromScoring(t *testing.T) {
	t.Parallel()

	evaluator := newTestEvaluator(t, 2.5)

	windows := [][]float64{
		signal.AlternatingWindow(100, 1.0), // quiet
		signal.AlternatingWindow(100, 4.0), // gated
		signal.AlternatingWindow(100, 0.5), // quiet
		signal.AlternatingWindow(100, 3.5), // gated
	}
	records, err := evaluator.ProcessAll(windows, constOracle(model.LabelDamaged))
	if err != nil {
		t.Fatalf("ProcessAll returned error: %v", err)
	}
	if len(records) != len(windows) {
		t.Fatalf("got %d records, want %d", len(records), len(windows))
	}

	summary := evaluator.Summary()
	if summary.Windows != 4 {
		t.Errorf("windows %d, want 4", summary.Windows)
	}
	if summary.Total != 2 {
		t.Errorf("total %d, want 2 (only gated windows are scored)", summary.Total)
	}
	if len(evaluator.Trend()) != 2 {
		t.Errorf("trend has %d points, want 2", len(evaluator.Trend()))
	}

	// Sequence ids stay dense across quiet and gated windows.
	for i, record := range records {
		if record.Seq != i+1 {
			t.Errorf("record %d has seq %d, want %d", i, record.Seq, i+1)
		}
	}
}

func TestOracleFailureLeavesCountersUntouched(t *testing.T) {
	t.Parallel()

	evaluator := newTestEvaluator(t, 2.5)

	failing := OracleFunc(func([]float64) (int, error) {
		return 0, fmt.Errorf("label feed unavailable")
	})
	if _, err := evaluator.Process(signal.AlternatingWindow(100, 4.0), failing); err == nil {
		t.Fatal("expected oracle failure to surface")
	}

	summary := evaluator.Summary()
	if summary.Total != 0 || summary.Correct != 0 {
		t.Errorf("failed event moved counters: %+v", summary)
	}
	if len(evaluator.Records()) != 0 || len(evaluator.Trend()) != 0 {
		t.Error("failed event appended records")
	}

	// The sequence id was consumed; the next window continues after it.
	record, err := evaluator.Process(signal.AlternatingWindow(100, 4.0), constOracle(1))
	if err != nil {
		t.Fatalf("Process returned error: %v", err)
	}
	if record.Seq != 2 {
		t.Errorf("next record seq %d, want 2", record.Seq)
	}
}

func TestOrderDependentButIndividuallyConsistent(t *testing.T) {
	t.Parallel()

	windows := [][]float64{
		signal.AlternatingWindow(100, 3.0),
		signal.AlternatingWindow(100, 4.5),
		signal.AlternatingWindow(100, 2.8),
		signal.AlternatingWindow(100, 5.0),
	}
	labels := []int{1, 0, 1, 1}

	run := func(order []int) *Evaluator {
		evaluator := newTestEvaluator(t, 2.5)
		for _, idx := range order {
			if _, err := evaluator.Process(windows[idx], constOracle(labels[idx])); err != nil {
				t.Fatalf("Process returned error: %v", err)
			}
		}
		return evaluator
	}

	forward := run([]int{0, 1, 2, 3})
	backward := run([]int{3, 2, 1, 0})

	// Final states may differ between orders; the required property is
	// that each run's trend obeys the running-accuracy formula.
	for _, evaluator := range []*Evaluator{forward, backward} {
		records := evaluator.Records()
		trend := evaluator.Trend()
		correct := 0
		for i, record := range records {
			if record.Predicted == record.Actual {
				correct++
			}
			want := float64(correct) / float64(i+1)
			if math.Abs(trend[i].Accuracy-want) > 1e-12 {
				t.Errorf("trend point %d: accuracy %f, want %f", i, trend[i].Accuracy, want)
			}
		}
	}
}

func TestPointForSeqReturnsEventOwnPoint(t *testing.T) {
	t.Parallel()

	evaluator := newTestEvaluator(t, 2.5)

	windows := [][]float64{
		signal.AlternatingWindow(100, 4.0), // gated, seq 1
		signal.AlternatingWindow(100, 1.0), // quiet, seq 2
		signal.AlternatingWindow(100, 3.5), // gated, seq 3
	}
	labels := []int{1, 0, 0}

	records := make([]EventRecord, 0, len(windows))
	for i, window := range windows {
		record, err := evaluator.Process(window, constOracle(labels[i]))
		if err != nil {
			t.Fatalf("Process returned error at window %d: %v", i, err)
		}
		records = append(records, record)
	}

	// A caller emitting or persisting the first event may only get around to
	// it after later events were scored; it must still see the first event's
	// own accuracy, not the trend tail.
	trend := evaluator.Trend()
	if len(trend) != 2 {
		t.Fatalf("trend has %d points, want 2", len(trend))
	}
	point, ok := evaluator.PointForSeq(records[0].Seq)
	if !ok {
		t.Fatalf("no accuracy point for seq %d", records[0].Seq)
	}
	if point != trend[0] {
		t.Errorf("got %+v, want the event's own point %+v", point, trend[0])
	}
	if point.Accuracy == trend[1].Accuracy {
		t.Errorf("first and second points coincide (%f); fixture no longer distinguishes them", point.Accuracy)
	}

	// Quiet windows and unknown sequence ids have no accuracy point.
	if _, ok := evaluator.PointForSeq(records[1].Seq); ok {
		t.Error("quiet window has an accuracy point")
	}
	if _, ok := evaluator.PointForSeq(99); ok {
		t.Error("unknown seq has an accuracy point")
	}
}

func TestProcessEmptyWindow(t *testing.T) {
	t.Parallel()

	evaluator := newTestEvaluator(t, 2.5)
	if _, err := evaluator.Process(nil, constOracle(0)); !errors.Is(err, signal.ErrEmptyWindow) {
		t.Fatalf("expected ErrEmptyWindow, got %v", err)
	}
	if evaluator.Summary().Windows != 0 {
		t.Error("empty window consumed a sequence id")
	}
}

func TestOracleLabelOutsideSpace(t *testing.T) {
	t.Parallel()

	evaluator := newTestEvaluator(t, 2.5)
	if _, err := evaluator.Process(signal.AlternatingWindow(100, 4.0), constOracle(3)); err == nil {
		t.Fatal("expected error for an out-of-space oracle label")
	}
	if evaluator.Summary().Total != 0 {
		t.Error("invalid label moved counters")
	}
}

func TestNewEvaluatorRequiresFittedState(t *testing.T) {
	t.Parallel()

	if _, err := NewEvaluator(model.NewOnlineClassifier(0.1), model.NewStandardizer(), 2.5); !errors.Is(err, model.ErrNotFitted) {
		t.Fatalf("expected ErrNotFitted, got %v", err)
	}
	if _, err := NewEvaluator(nil, nil, 2.5); err == nil {
		t.Fatal("expected error for nil shared state")
	}
}

func TestDefaultThreshold(t *testing.T) {
	t.Parallel()

	evaluator := newTestEvaluator(t, 0)
	if evaluator.Threshold() != signal.DefaultEventThreshold {
		t.Errorf("threshold %f, want default %f", evaluator.Threshold(), signal.DefaultEventThreshold)
	}
}
