package model

import (
	"errors"
	"testing"
)

func separableTrainingSet() ([][]float64, []int) {
	vectors := [][]float64{
		{-1.0, -1.0},
		{-0.8, -1.2},
		{-1.2, -0.9},
		{1.0, 1.0},
		{0.9, 1.1},
		{1.2, 0.8},
	}
	labels := []int{0, 0, 0, 1, 1, 1}
	return vectors, labels
}

func TestInitialFitSeparatesClasses(t *testing.T) {
	t.Parallel()

	vectors, labels := separableTrainingSet()
	c := NewOnlineClassifier(0.5)
	if err := c.InitialFit(vectors, labels, []int{LabelHealthy, LabelDamaged}); err != nil {
		t.Fatalf("InitialFit returned error: %v", err)
	}

	for i, vec := range vectors {
		predicted, err := c.Predict(vec)
		if err != nil {
			t.Fatalf("Predict returned error: %v", err)
		}
		if predicted != labels[i] {
			t.Errorf("vector %d: predicted %d, want %d", i, predicted, labels[i])
		}
	}

	// Fresh points on either side of the boundary.
	if predicted, _ := c.Predict([]float64{-1.1, -1.1}); predicted != LabelHealthy {
		t.Errorf("expected healthy for (-1.1,-1.1), got %d", predicted)
	}
	if predicted, _ := c.Predict([]float64{1.1, 1.1}); predicted != LabelDamaged {
		t.Errorf("expected damaged for (1.1,1.1), got %d", predicted)
	}
}

func TestInitialFitIsDeterministic(t *testing.T) {
	t.Parallel()

	vectors, labels := separableTrainingSet()

	a := NewOnlineClassifier(0.5)
	b := NewOnlineClassifier(0.5)
	if err := a.InitialFit(vectors, labels, []int{0, 1}); err != nil {
		t.Fatalf("InitialFit returned error: %v", err)
	}
	if err := b.InitialFit(vectors, labels, []int{0, 1}); err != nil {
		t.Fatalf("InitialFit returned error: %v", err)
	}

	weightsA, biasA := a.Weights()
	weightsB, biasB := b.Weights()
	if biasA != biasB {
		t.Fatalf("bias differs across identical fits: %f vs %f", biasA, biasB)
	}
	for i := range weightsA {
		if weightsA[i] != weightsB[i] {
			t.Fatalf("weight %d differs across identical fits: %f vs %f", i, weightsA[i], weightsB[i])
		}
	}
}

func TestPartialFitAdaptsDecision(t *testing.T) {
	t.Parallel()

	vectors, labels := separableTrainingSet()
	c := NewOnlineClassifier(0.5)
	if err := c.InitialFit(vectors, labels, []int{0, 1}); err != nil {
		t.Fatalf("InitialFit returned error: %v", err)
	}

	// Repeated single-sample updates on an ambiguous point pull the
	// decision towards the observed label.
	point := []float64{0, 0}
	for i := 0; i < 100; i++ {
		if err := c.PartialFit(point, LabelDamaged); err != nil {
			t.Fatalf("PartialFit returned error: %v", err)
		}
	}

	predicted, err := c.Predict(point)
	if err != nil {
		t.Fatalf("Predict returned error: %v", err)
	}
	if predicted != LabelDamaged {
		t.Fatalf("expected the adapted model to predict damaged, got %d", predicted)
	}
}

func TestPartialFitMutatesStateInPlace(t *testing.T) {
	t.Parallel()

	vectors, labels := separableTrainingSet()
	c := NewOnlineClassifier(0.5)
	if err := c.InitialFit(vectors, labels, []int{0, 1}); err != nil {
		t.Fatalf("InitialFit returned error: %v", err)
	}

	before, biasBefore := c.Weights()
	if err := c.PartialFit([]float64{0.5, 0.5}, LabelHealthy); err != nil {
		t.Fatalf("PartialFit returned error: %v", err)
	}
	after, biasAfter := c.Weights()

	changed := biasBefore != biasAfter
	for i := range before {
		if before[i] != after[i] {
			changed = true
		}
	}
	if !changed {
		t.Fatal("PartialFit did not change the classifier state")
	}
}

func TestClassifierPreconditionErrors(t *testing.T) {
	t.Parallel()

	c := NewOnlineClassifier(0)
	if _, err := c.Predict([]float64{1, 2}); !errors.Is(err, ErrNotFitted) {
		t.Errorf("Predict before fit: expected ErrNotFitted, got %v", err)
	}
	if err := c.PartialFit([]float64{1, 2}, 0); !errors.Is(err, ErrNotFitted) {
		t.Errorf("PartialFit before fit: expected ErrNotFitted, got %v", err)
	}

	vectors, labels := separableTrainingSet()
	if err := c.InitialFit(vectors, labels, []int{0, 1}); err != nil {
		t.Fatalf("InitialFit returned error: %v", err)
	}

	if _, err := c.Predict([]float64{1}); !errors.Is(err, ErrDimensionMismatch) {
		t.Errorf("Predict with wrong width: expected ErrDimensionMismatch, got %v", err)
	}
	if err := c.PartialFit([]float64{1, 2, 3}, 1); !errors.Is(err, ErrDimensionMismatch) {
		t.Errorf("PartialFit with wrong width: expected ErrDimensionMismatch, got %v", err)
	}
	if err := c.PartialFit([]float64{1, 2}, 7); err == nil {
		t.Error("PartialFit with out-of-space label: expected error")
	}
}

func TestInitialFitLabelSpaceValidation(t *testing.T) {
	t.Parallel()

	vectors := [][]float64{{1, 1}, {2, 2}}
	labels := []int{1, 1}

	c := NewOnlineClassifier(0.1)
	if err := c.InitialFit(vectors, labels, []int{1}); err == nil {
		t.Error("expected error for incomplete label space")
	}
	if err := c.InitialFit(vectors, labels, []int{1, 2}); err == nil {
		t.Error("expected error for unknown class in label space")
	}

	// A single-class batch is fine as long as the label space declares
	// both classes.
	if err := c.InitialFit(vectors, labels, []int{0, 1}); err != nil {
		t.Errorf("single-class batch with full label space: unexpected error %v", err)
	}
}
