package main

import (
	"crypto/tls"
	"encoding/json"
	"log"
	"math/rand"
	"net/http"
	"strings"
	"time"

	socketio "github.com/googollee/go-socket.io"
	"github.com/googollee/go-socket.io/engineio"
	"github.com/googollee/go-socket.io/engineio/transport"
	"github.com/googollee/go-socket.io/engineio/transport/polling"
	"github.com/googollee/go-socket.io/engineio/transport/websocket"

	"shm-monitor/db"
	"shm-monitor/ingest"
	"shm-monitor/model"
	"shm-monitor/signal"
	"shm-monitor/stream"
	"shm-monitor/utils"
)

// warmStart seeds the shared classifier/standardizer state from a synthetic
// historical split. Real deployments would feed recorded windows here; the
// streaming evaluator takes over the same state either way.
func warmStart() (*stream.Evaluator, model.Report, error) {
	synth := signal.DefaultSynthConfig()
	synth.WindowSize = utils.GetEnvInt("WINDOW_SIZE", synth.WindowSize)
	synth.DamagedStd = utils.GetEnvFloat("DAMAGED_STD", synth.DamagedStd)

	rng := rand.New(rand.NewSource(int64(utils.GetEnvInt("SEED", 42))))
	windows, labels := synth.Dataset(rng, utils.GetEnvInt("BASELINE_SAMPLES", 200), 0.5)

	vectors := make([][]float64, len(windows))
	for i, window := range windows {
		features, err := signal.Extract(window)
		if err != nil {
			return nil, model.Report{}, err
		}
		vectors[i] = features.Vector()
	}

	ratio := utils.GetEnvFloat("TRAIN_SPLIT_RATIO", 0.7)
	trainVecs, trainLabels, testVecs, testLabels, err := model.Split(vectors, labels, ratio)
	if err != nil {
		return nil, model.Report{}, err
	}

	learningRate := utils.GetEnvFloat("LEARNING_RATE", 0.1)
	baseline, err := model.TrainBaseline(trainVecs, trainLabels, testVecs, testLabels, learningRate)
	if err != nil {
		return nil, model.Report{}, err
	}

	threshold := utils.GetEnvFloat("EVENT_RMS_THRESHOLD", signal.DefaultEventThreshold)
	evaluator, err := stream.NewEvaluator(baseline.Classifier, baseline.Standardizer, threshold)
	if err != nil {
		return nil, model.Report{}, err
	}
	return evaluator, baseline.Report, nil
}

func serve(protocol, port string) {
	protocol = strings.ToLower(protocol)
	var allowOriginFunc = func(r *http.Request) bool {
		return true
	}

	evaluator, baseline, err := warmStart()
	if err != nil {
		log.Fatalf("failed to warm start model: %v", err)
	}
	log.Printf("Baseline accuracy: %.3f over %d held-out windows", baseline.Accuracy, baseline.Total)

	store, err := db.NewEventStore()
	if err != nil {
		log.Fatalf("failed to open event store: %v", err)
	}
	defer store.Close()

	runID := utils.GenerateRunID()
	log.Printf("Monitoring run %s", runID)

	controller := newSocketController(evaluator, store, runID)
	controller.baseline = baseline

	if strings.EqualFold(utils.GetEnv("MQTT_ENABLED", "false"), "true") {
		collector := ingest.NewCollector(ingest.ConfigFromEnv(), evaluator, store, runID)
		if err := collector.Start(); err != nil {
			log.Fatalf("failed to start MQTT collector: %v", err)
		}
		defer collector.Stop()
	}

	server := socketio.NewServer(&engineio.Options{
		PingTimeout:  60 * time.Second,
		PingInterval: 25 * time.Second,
		Transports: []transport.Transport{
			&websocket.Transport{
				CheckOrigin: allowOriginFunc,
			},
			&polling.Transport{
				CheckOrigin: allowOriginFunc,
			},
		},
	})

	server.OnConnect("/", func(socket socketio.Conn) error {
		socket.SetContext("")
		log.Printf("CONNECTED: %s, remote addr: %s\n", socket.ID(), socket.RemoteAddr())
		controller.emitSummary(socket)
		return nil
	})

	server.OnEvent("/", "requestSummary", func(socket socketio.Conn) {
		controller.handleRequestSummary(socket)
	})

	server.OnEvent("/", "requestTrend", func(socket socketio.Conn) {
		controller.handleRequestTrend(socket)
	})

	server.OnEvent("/", "requestBaseline", func(socket socketio.Conn) {
		controller.handleRequestBaseline(socket)
	})

	server.OnEvent("/", "newWindow", func(socket socketio.Conn, msg string) {
		controller.handleNewWindow(socket, msg)
	})

	server.OnError("/", func(s socketio.Conn, e error) {
		log.Println("meet error:", e)
	})

	server.OnDisconnect("/", func(s socketio.Conn, reason string) {
		log.Printf("Socket disconnected - ID: %s, Reason: %s\n", s.ID(), reason)
	})

	go func() {
		if err := server.Serve(); err != nil {
			log.Fatalf("socketio listen error: %s\n", err)
		}
	}()
	defer server.Close()

	mux := http.NewServeMux()
	mux.Handle("/socket.io/", server)
	mux.HandleFunc("/api/events", newEventsHandler(store, runID))
	mux.HandleFunc("/api/trend", newTrendHandler(store, runID))
	mux.HandleFunc("/api/summary", newSummaryHandler(evaluator))

	serveHTTP(protocol == "https", port, mux)
}

func newEventsHandler(store db.EventStore, runID string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		records, err := store.EventsForRun(runID)
		if err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}
		writeJSON(w, records)
	}
}

func newTrendHandler(store db.EventStore, runID string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		points, err := store.TrendForRun(runID)
		if err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}
		writeJSON(w, points)
	}
}

func newSummaryHandler(evaluator *stream.Evaluator) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, evaluator.Summary())
	}
}

func writeJSON(w http.ResponseWriter, value any) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(value); err != nil {
		log.Printf("failed to encode response: %v", err)
	}
}

func serveHTTP(serveHTTPS bool, port string, handler http.Handler) {
	if serveHTTPS {
		httpsAddr := ":" + port
		httpsServer := &http.Server{
			Addr: httpsAddr,
			TLSConfig: &tls.Config{
				MinVersion: tls.VersionTLS12,
			},
			Handler: handler,
		}

		certKey := utils.GetEnv("CERT_KEY", "")
		certFile := utils.GetEnv("CERT_FILE", "")
		if certKey == "" || certFile == "" {
			log.Fatal("Missing cert")
		}

		log.Printf("Starting HTTPS server on %s\n", httpsAddr)
		if err := httpsServer.ListenAndServeTLS(certFile, certKey); err != nil {
			log.Fatalf("HTTPS server ListenAndServeTLS: %v", err)
		}
	}

	log.Printf("Starting HTTP server on port %v", port)
	if err := http.ListenAndServe(":"+port, handler); err != nil {
		log.Fatalf("HTTP server ListenAndServe: %v", err)
	}
}
