package main

// batch_eval runs the one-shot baseline: generate a historical dataset, fit
// the standardizer and classifier on the training split, evaluate the
// held-out split and print the classification report.

import (
	"flag"
	"fmt"
	"log"
	"math/rand"

	"github.com/joho/godotenv"

	"shm-monitor/model"
	"shm-monitor/signal"
	"shm-monitor/utils"
)

func main() {
	_ = godotenv.Load()

	samples := flag.Int("n", utils.GetEnvInt("BASELINE_SAMPLES", 200), "Number of historical windows to generate")
	windowSize := flag.Int("window", utils.GetEnvInt("WINDOW_SIZE", 100), "Samples per window")
	ratio := flag.Float64("ratio", utils.GetEnvFloat("TRAIN_SPLIT_RATIO", 0.7), "Train split ratio")
	learningRate := flag.Float64("lr", utils.GetEnvFloat("LEARNING_RATE", 0.1), "SGD learning rate")
	damagedStd := flag.Float64("damaged-std", utils.GetEnvFloat("DAMAGED_STD", 4.0), "Damaged class amplitude")
	seed := flag.Int64("seed", 42, "Random seed for the synthetic dataset")
	flag.Parse()

	synth := signal.DefaultSynthConfig()
	synth.WindowSize = *windowSize
	synth.DamagedStd = *damagedStd

	rng := rand.New(rand.NewSource(*seed))
	windows, labels := synth.Dataset(rng, *samples, 0.5)

	vectors := make([][]float64, len(windows))
	for i, window := range windows {
		features, err := signal.Extract(window)
		if err != nil {
			log.Fatalf("failed to extract features for window %d: %v", i, err)
		}
		vectors[i] = features.Vector()
	}

	trainVecs, trainLabels, testVecs, testLabels, err := model.Split(vectors, labels, *ratio)
	if err != nil {
		log.Fatalf("failed to split dataset: %v", err)
	}

	baseline, err := model.TrainBaseline(trainVecs, trainLabels, testVecs, testLabels, *learningRate)
	if err != nil {
		log.Fatalf("baseline training failed: %v", err)
	}

	fmt.Printf("Baseline over %d train / %d test windows (window=%d, lr=%.3f)\n\n",
		len(trainVecs), len(testVecs), *windowSize, *learningRate)
	printReport(baseline.Report)
}

func printReport(report model.Report) {
	fmt.Printf("%-10s %10s %10s %10s %10s\n", "class", "precision", "recall", "f1", "support")
	for _, class := range report.Classes {
		fmt.Printf("%-10s %10.3f %10.3f %10.3f %10d\n",
			class.Label, class.Precision, class.Recall, class.F1, class.Support)
	}

	fmt.Printf("\nConfusion matrix (rows=actual, cols=predicted):\n")
	fmt.Printf("%-10s %10s %10s\n", "", model.ClassNames[0], model.ClassNames[1])
	for actual := 0; actual < 2; actual++ {
		fmt.Printf("%-10s %10d %10d\n",
			model.ClassNames[actual], report.Confusion[actual][0], report.Confusion[actual][1])
	}

	fmt.Printf("\nOverall accuracy: %.3f (%d windows)\n", report.Accuracy, report.Total)
}
