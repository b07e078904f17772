package main

// stream_sim warm-starts the model on a synthetic historical split, then
// simulates the streaming loop over a fresh window sequence: gating,
// classification, online adaptation and running-accuracy tracking. Optionally
// persists the run through the configured event store.

import (
	"flag"
	"fmt"
	"log"
	"math/rand"

	"github.com/joho/godotenv"

	"shm-monitor/db"
	"shm-monitor/model"
	"shm-monitor/signal"
	"shm-monitor/stream"
	"shm-monitor/utils"
)

func main() {
	_ = godotenv.Load()

	baselineSamples := flag.Int("baseline", utils.GetEnvInt("BASELINE_SAMPLES", 200), "Historical windows for the warm start")
	streamSamples := flag.Int("n", 50, "Streaming windows to simulate")
	windowSize := flag.Int("window", utils.GetEnvInt("WINDOW_SIZE", 100), "Samples per window")
	threshold := flag.Float64("threshold", utils.GetEnvFloat("EVENT_RMS_THRESHOLD", signal.DefaultEventThreshold), "RMS event gate")
	learningRate := flag.Float64("lr", utils.GetEnvFloat("LEARNING_RATE", 0.1), "SGD learning rate")
	seed := flag.Int64("seed", 42, "Random seed")
	persist := flag.Bool("persist", false, "Persist the run through the event store")
	flag.Parse()

	synth := signal.DefaultSynthConfig()
	synth.WindowSize = *windowSize

	rng := rand.New(rand.NewSource(*seed))
	evaluator, baseline, err := warmStart(synth, rng, *baselineSamples, *learningRate, *threshold)
	if err != nil {
		log.Fatalf("warm start failed: %v", err)
	}
	fmt.Printf("Baseline accuracy: %.3f over %d held-out windows\n\n", baseline.Accuracy, baseline.Total)

	var store db.EventStore
	runID := utils.GenerateRunID()
	if *persist {
		store, err = db.NewEventStore()
		if err != nil {
			log.Fatalf("failed to open event store: %v", err)
		}
		defer store.Close()
		fmt.Printf("Persisting run %s\n\n", runID)
	}

	windows, labels := synth.Dataset(rng, *streamSamples, 0.5)

	fmt.Printf("%5s %8s %-12s %-14s %8s\n", "seq", "rms", "predicted", "actual", "accuracy")
	for i, window := range windows {
		label := labels[i]
		oracle := stream.OracleFunc(func([]float64) (int, error) {
			return label, nil
		})

		record, err := evaluator.Process(window, oracle)
		if err != nil {
			log.Fatalf("streaming failed at window %d: %v", i, err)
		}

		accuracy := "-"
		if record.Scored {
			if point, ok := evaluator.PointForSeq(record.Seq); ok {
				accuracy = fmt.Sprintf("%.3f", point.Accuracy)
			}
		}
		fmt.Printf("%5d %8.3f %-12s %-14s %8s\n",
			record.Seq, record.RMS, record.Predicted, record.Actual, accuracy)

		if store != nil {
			if err := store.StoreEvent(runID, record); err != nil {
				log.Fatalf("failed to persist event: %v", err)
			}
			if record.Scored {
				if point, ok := evaluator.PointForSeq(record.Seq); ok {
					if err := store.StoreAccuracyPoint(runID, point); err != nil {
						log.Fatalf("failed to persist accuracy point: %v", err)
					}
				}
			}
		}
	}

	summary := evaluator.Summary()
	fmt.Printf("\nWindows: %d, scored events: %d, correct: %d, final accuracy: %.3f\n",
		summary.Windows, summary.Total, summary.Correct, summary.Accuracy)
}

func warmStart(synth signal.SynthConfig, rng *rand.Rand, samples int, learningRate, threshold float64) (*stream.Evaluator, model.Report, error) {
	windows, labels := synth.Dataset(rng, samples, 0.5)

	vectors := make([][]float64, len(windows))
	for i, window := range windows {
		features, err := signal.Extract(window)
		if err != nil {
			return nil, model.Report{}, err
		}
		vectors[i] = features.Vector()
	}

	trainVecs, trainLabels, testVecs, testLabels, err := model.Split(vectors, labels, utils.GetEnvFloat("TRAIN_SPLIT_RATIO", 0.7))
	if err != nil {
		return nil, model.Report{}, err
	}

	baseline, err := model.TrainBaseline(trainVecs, trainLabels, testVecs, testLabels, learningRate)
	if err != nil {
		return nil, model.Report{}, err
	}

	evaluator, err := stream.NewEvaluator(baseline.Classifier, baseline.Standardizer, threshold)
	if err != nil {
		return nil, model.Report{}, err
	}
	return evaluator, baseline.Report, nil
}
