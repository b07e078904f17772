package model

// Online Binary Classifier
//
// Logistic regression over standardized feature vectors with two training
// modes:
//
//  1. InitialFit: a bulk gradient fit over the historical split that
//     establishes the weight vector and bias (the warm start).
//  2. PartialFit: exactly one gradient step against a single labelled
//     observation, mutating the weights in place. This is the streaming
//     adaptation mechanism; no historical data is revisited.
//
// Prediction thresholds the sigmoid of the linear score at 0.5. The label
// space is fixed to {0 = healthy, 1 = damaged} and must be declared in full
// at InitialFit time so that later incremental updates never encounter an
// unseen class.
//
// The classifier itself is not synchronized; a strict single-writer ordering
// across updates is the caller's contract (the streaming evaluator serializes
// all access).

import (
	"fmt"
	"math"
)

// Binary label space for the structural condition.
const (
	LabelHealthy = 0
	LabelDamaged = 1
)

const (
	defaultLearningRate = 0.1
	initialFitEpochs    = 200
)

// OnlineClassifier is a binary linear classifier trainable by incremental
// gradient updates.
type OnlineClassifier struct {
	weights []float64
	bias    float64
	lr      float64
}

// NewOnlineClassifier returns an untrained classifier. A non-positive
// learning rate selects the default.
func NewOnlineClassifier(learningRate float64) *OnlineClassifier {
	if learningRate <= 0 {
		learningRate = defaultLearningRate
	}
	return &OnlineClassifier{lr: learningRate}
}

// Dim returns the fitted feature dimensionality, 0 before InitialFit.
func (c *OnlineClassifier) Dim() int {
	return len(c.weights)
}

// Weights returns a copy of the current weight vector and the bias.
func (c *OnlineClassifier) Weights() ([]float64, float64) {
	return append([]float64(nil), c.weights...), c.bias
}

// InitialFit performs a bulk gradient fit over the standardized training set
// against the binary log-loss objective. labelSpace must name both classes
// even if one is absent from the batch. Samples are visited in their given
// order each epoch, so the fit is deterministic.
func (c *OnlineClassifier) InitialFit(vectors [][]float64, labels []int, labelSpace []int) error {
	if len(vectors) == 0 {
		return fmt.Errorf("no training vectors provided")
	}
	if len(vectors) != len(labels) {
		return fmt.Errorf("got %d vectors and %d labels", len(vectors), len(labels))
	}
	if err := validateLabelSpace(labelSpace); err != nil {
		return err
	}

	dim := len(vectors[0])
	if dim == 0 {
		return fmt.Errorf("training vectors have no features")
	}
	for i, vec := range vectors {
		if len(vec) != dim {
			return fmt.Errorf("vector %d has width %d (expected %d): %w", i, len(vec), dim, ErrDimensionMismatch)
		}
		if labels[i] != LabelHealthy && labels[i] != LabelDamaged {
			return fmt.Errorf("label %d at index %d is outside the binary label space", labels[i], i)
		}
	}

	c.weights = make([]float64, dim)
	c.bias = 0

	for epoch := 0; epoch < initialFitEpochs; epoch++ {
		for i, vec := range vectors {
			c.step(vec, labels[i])
		}
	}
	return nil
}

// Predict returns the binary label decision for a standardized vector by
// thresholding the sigmoid of the linear score at 0.5. Pure read.
func (c *OnlineClassifier) Predict(vec []float64) (int, error) {
	p, err := c.Probability(vec)
	if err != nil {
		return 0, err
	}
	if p >= 0.5 {
		return LabelDamaged, nil
	}
	return LabelHealthy, nil
}

// Probability returns the model's damaged-class probability for a
// standardized vector.
func (c *OnlineClassifier) Probability(vec []float64) (float64, error) {
	if len(c.weights) == 0 {
		return 0, ErrNotFitted
	}
	if len(vec) != len(c.weights) {
		return 0, fmt.Errorf("got width %d, fitted width %d: %w", len(vec), len(c.weights), ErrDimensionMismatch)
	}
	return sigmoid(c.score(vec)), nil
}

// PartialFit performs exactly one gradient step against the single
// (vector, label) pair, mutating the classifier state in place.
func (c *OnlineClassifier) PartialFit(vec []float64, label int) error {
	if len(c.weights) == 0 {
		return ErrNotFitted
	}
	if len(vec) != len(c.weights) {
		return fmt.Errorf("got width %d, fitted width %d: %w", len(vec), len(c.weights), ErrDimensionMismatch)
	}
	if label != LabelHealthy && label != LabelDamaged {
		return fmt.Errorf("label %d is outside the binary label space", label)
	}
	c.step(vec, label)
	return nil
}

// step applies one log-loss gradient update for a single sample.
func (c *OnlineClassifier) step(vec []float64, label int) {
	grad := sigmoid(c.score(vec)) - float64(label)
	for i, v := range vec {
		c.weights[i] -= c.lr * grad * v
	}
	c.bias -= c.lr * grad
}

func (c *OnlineClassifier) score(vec []float64) float64 {
	score := c.bias
	for i, v := range vec {
		score += c.weights[i] * v
	}
	return score
}

func sigmoid(x float64) float64 {
	return 1.0 / (1.0 + math.Exp(-x))
}

func validateLabelSpace(labelSpace []int) error {
	if len(labelSpace) != 2 {
		return fmt.Errorf("label space must name both classes, got %v", labelSpace)
	}
	seenHealthy := false
	seenDamaged := false
	for _, label := range labelSpace {
		switch label {
		case LabelHealthy:
			seenHealthy = true
		case LabelDamaged:
			seenDamaged = true
		default:
			return fmt.Errorf("label space contains unknown class %d", label)
		}
	}
	if !seenHealthy || !seenDamaged {
		return fmt.Errorf("label space must contain both 0 and 1, got %v", labelSpace)
	}
	return nil
}
