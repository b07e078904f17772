package model

import "fmt"

// ClassNames maps the binary labels to their display names, indexed by label.
var ClassNames = [2]string{"healthy", "damaged"}

// ClassReport summarises baseline quality for one class.
type ClassReport struct {
	Label     string  `json:"label"`
	Precision float64 `json:"precision"`
	Recall    float64 `json:"recall"`
	F1        float64 `json:"f1"`
	Support   int     `json:"support"`
}

// Report is the baseline evaluation handed to presentation collaborators:
// per-class precision/recall/F1, the confusion matrix and overall accuracy.
type Report struct {
	Classes   []ClassReport `json:"classes"`
	Confusion [2][2]int     `json:"confusion"` // [actual][predicted]
	Accuracy  float64       `json:"accuracy"`
	Total     int           `json:"total"`
}

// BuildReport computes the baseline report from parallel true/predicted
// label sequences.
func BuildReport(yTrue, yPred []int) (Report, error) {
	if len(yTrue) == 0 {
		return Report{}, fmt.Errorf("no labels to report on")
	}
	if len(yTrue) != len(yPred) {
		return Report{}, fmt.Errorf("got %d true labels and %d predictions", len(yTrue), len(yPred))
	}

	var report Report
	correct := 0
	for i := range yTrue {
		actual, predicted := yTrue[i], yPred[i]
		if actual < 0 || actual > 1 || predicted < 0 || predicted > 1 {
			return Report{}, fmt.Errorf("label outside binary label space at index %d", i)
		}
		report.Confusion[actual][predicted]++
		if actual == predicted {
			correct++
		}
	}

	report.Total = len(yTrue)
	report.Accuracy = float64(correct) / float64(len(yTrue))

	for label := 0; label < 2; label++ {
		tp := report.Confusion[label][label]
		predictedAs := report.Confusion[0][label] + report.Confusion[1][label]
		support := report.Confusion[label][0] + report.Confusion[label][1]

		var precision, recall, f1 float64
		if predictedAs > 0 {
			precision = float64(tp) / float64(predictedAs)
		}
		if support > 0 {
			recall = float64(tp) / float64(support)
		}
		if precision+recall > 0 {
			f1 = 2 * precision * recall / (precision + recall)
		}

		report.Classes = append(report.Classes, ClassReport{
			Label:     ClassNames[label],
			Precision: precision,
			Recall:    recall,
			F1:        f1,
			Support:   support,
		})
	}

	return report, nil
}
