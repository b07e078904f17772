package model

import "fmt"

// Batch warm start: fit the standardizer and classifier on the historical
// training split, then evaluate the held-out split without mutating either.
// The resulting shared state is handed to the streaming evaluator, which
// keeps mutating the same classifier.

// Baseline bundles the fitted shared state with the held-out evaluation.
type Baseline struct {
	Standardizer *Standardizer
	Classifier   *OnlineClassifier
	Report       Report
	Predictions  []int
}

// TrainBaseline fits on (trainVecs, trainLabels) and evaluates on
// (testVecs, testLabels). The test pass only calls Predict; classifier state
// after TrainBaseline reflects the initial fit alone.
func TrainBaseline(trainVecs [][]float64, trainLabels []int, testVecs [][]float64, testLabels []int, learningRate float64) (*Baseline, error) {
	standardizer := NewStandardizer()
	if err := standardizer.Fit(trainVecs); err != nil {
		return nil, fmt.Errorf("fit standardizer: %w", err)
	}

	scaledTrain, err := standardizer.TransformAll(trainVecs)
	if err != nil {
		return nil, fmt.Errorf("transform training split: %w", err)
	}

	classifier := NewOnlineClassifier(learningRate)
	if err := classifier.InitialFit(scaledTrain, trainLabels, []int{LabelHealthy, LabelDamaged}); err != nil {
		return nil, fmt.Errorf("initial fit: %w", err)
	}

	predictions := make([]int, len(testVecs))
	for i, vec := range testVecs {
		scaled, err := standardizer.Transform(vec)
		if err != nil {
			return nil, fmt.Errorf("transform test vector %d: %w", i, err)
		}
		predicted, err := classifier.Predict(scaled)
		if err != nil {
			return nil, fmt.Errorf("predict test vector %d: %w", i, err)
		}
		predictions[i] = predicted
	}

	report, err := BuildReport(testLabels, predictions)
	if err != nil {
		return nil, fmt.Errorf("build report: %w", err)
	}

	return &Baseline{
		Standardizer: standardizer,
		Classifier:   classifier,
		Report:       report,
		Predictions:  predictions,
	}, nil
}

// Split partitions parallel vector/label sequences into train and test
// portions at the given ratio, preserving order. The one-time split that
// seeds the batch baseline.
func Split(vectors [][]float64, labels []int, trainRatio float64) (trainVecs [][]float64, trainLabels []int, testVecs [][]float64, testLabels []int, err error) {
	if len(vectors) != len(labels) {
		return nil, nil, nil, nil, fmt.Errorf("got %d vectors and %d labels", len(vectors), len(labels))
	}
	if trainRatio <= 0 || trainRatio >= 1 {
		return nil, nil, nil, nil, fmt.Errorf("train ratio %.2f must be in (0, 1)", trainRatio)
	}
	cut := int(float64(len(vectors)) * trainRatio)
	if cut == 0 || cut == len(vectors) {
		return nil, nil, nil, nil, fmt.Errorf("split ratio %.2f leaves an empty side for %d samples", trainRatio, len(vectors))
	}
	return vectors[:cut], labels[:cut], vectors[cut:], labels[cut:], nil
}
