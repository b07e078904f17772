package ingest

// MQTT window collector. Field deployments publish raw sensor windows to a
// broker topic; the collector decodes each payload and feeds it through the
// streaming evaluator in arrival order. A single worker goroutine drains the
// payload channel, so the evaluator's strict sequential contract is kept even
// though the MQTT client delivers messages on its own goroutines.

import (
	"crypto/tls"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"
	"github.com/mdobak/go-xerrors"

	"shm-monitor/db"
	"shm-monitor/stream"
	"shm-monitor/utils"
)

// Config holds the broker connection settings.
type Config struct {
	Broker          string
	Port            int
	Topic           string
	Username        string
	Password        string
	UseTLS          bool
	InsecureSkipTLS bool
	QueueSize       int
}

// ConfigFromEnv reads the MQTT settings with the usual defaults.
func ConfigFromEnv() Config {
	return Config{
		Broker:    utils.GetEnv("MQTT_BROKER", "localhost"),
		Port:      utils.GetEnvInt("MQTT_PORT", 1883),
		Topic:     utils.GetEnv("MQTT_TOPIC", "shm/windows"),
		Username:  utils.GetEnv("MQTT_USERNAME", ""),
		Password:  utils.GetEnv("MQTT_PASSWORD", ""),
		QueueSize: utils.GetEnvInt("MQTT_QUEUE_SIZE", 256),
	}
}

// WindowPayload is the wire format for one published window. Label carries
// the ground truth resolved by the upstream labeler; a gated window without
// a label is a contract violation and is surfaced, not guessed.
type WindowPayload struct {
	SensorID string    `json:"sensorId"`
	Samples  []float64 `json:"samples"`
	Label    *int      `json:"label,omitempty"`
}

// Collector subscribes to the window topic and drives the evaluator.
type Collector struct {
	config    Config
	client    mqtt.Client
	evaluator *stream.Evaluator
	store     db.EventStore // may be nil; persistence is optional
	runID     string
	payloads  chan WindowPayload
	done      chan struct{}
}

// NewCollector wires a collector to the shared evaluator. store may be nil.
func NewCollector(config Config, evaluator *stream.Evaluator, store db.EventStore, runID string) *Collector {
	if config.QueueSize <= 0 {
		config.QueueSize = 256
	}
	return &Collector{
		config:    config,
		evaluator: evaluator,
		store:     store,
		runID:     runID,
		payloads:  make(chan WindowPayload, config.QueueSize),
		done:      make(chan struct{}),
	}
}

// Start connects to the broker, subscribes, and begins processing.
func (c *Collector) Start() error {
	logger := utils.GetLogger()

	opts := mqtt.NewClientOptions()
	protocol := "tcp"
	if c.config.UseTLS {
		protocol = "tls"
	}
	opts.AddBroker(fmt.Sprintf("%s://%s:%d", protocol, c.config.Broker, c.config.Port))
	opts.SetClientID(fmt.Sprintf("shm-collector-%d", time.Now().Unix()))

	if c.config.Username != "" {
		opts.SetUsername(c.config.Username)
		opts.SetPassword(c.config.Password)
	}
	if c.config.UseTLS {
		opts.SetTLSConfig(&tls.Config{InsecureSkipVerify: c.config.InsecureSkipTLS})
	}

	opts.SetKeepAlive(60 * time.Second)
	opts.SetPingTimeout(10 * time.Second)
	opts.SetConnectTimeout(10 * time.Second)
	opts.SetAutoReconnect(true)
	opts.SetMaxReconnectInterval(30 * time.Second)

	opts.OnConnect = func(client mqtt.Client) {
		logger.Info("mqtt connected, subscribing",
			slog.String("broker", c.config.Broker),
			slog.String("topic", c.config.Topic))
		token := client.Subscribe(c.config.Topic, 1, c.onMessage)
		token.Wait()
		if err := token.Error(); err != nil {
			logger.Error("mqtt subscribe failed", slog.Any("error", xerrors.New(err)))
		}
	}
	opts.OnConnectionLost = func(_ mqtt.Client, err error) {
		logger.Warn("mqtt connection lost", slog.Any("error", xerrors.New(err)))
	}

	c.client = mqtt.NewClient(opts)
	token := c.client.Connect()
	token.Wait()
	if err := token.Error(); err != nil {
		return fmt.Errorf("mqtt connect: %w", err)
	}

	go c.processLoop()
	return nil
}

// Stop unsubscribes and shuts the processing loop down.
func (c *Collector) Stop() {
	close(c.done)
	if c.client != nil && c.client.IsConnected() {
		c.client.Unsubscribe(c.config.Topic)
		c.client.Disconnect(250)
	}
}

func (c *Collector) onMessage(_ mqtt.Client, msg mqtt.Message) {
	payload, err := DecodePayload(msg.Payload())
	if err != nil {
		utils.GetLogger().Warn("dropping malformed window payload",
			slog.String("topic", msg.Topic()),
			slog.Any("error", xerrors.New(err)))
		return
	}
	select {
	case c.payloads <- payload:
	case <-c.done:
	}
}

func (c *Collector) processLoop() {
	logger := utils.GetLogger()
	for {
		select {
		case <-c.done:
			return
		case payload := <-c.payloads:
			record, err := c.evaluator.Process(payload.Samples, oracleFor(payload))
			if err != nil {
				logger.Warn("window rejected",
					slog.String("sensorId", payload.SensorID),
					slog.Any("error", xerrors.New(err)))
				continue
			}
			logger.Info("window processed",
				slog.String("sensorId", payload.SensorID),
				slog.Int("seq", record.Seq),
				slog.Float64("rms", record.RMS),
				slog.String("predicted", record.Predicted),
				slog.String("actual", record.Actual))
			c.persist(record)
		}
	}
}

func (c *Collector) persist(record stream.EventRecord) {
	if c.store == nil {
		return
	}
	logger := utils.GetLogger()
	if err := c.store.StoreEvent(c.runID, record); err != nil {
		logger.Error("failed to persist event", slog.Any("error", xerrors.New(err)))
	}
	if !record.Scored {
		return
	}
	point, ok := c.evaluator.PointForSeq(record.Seq)
	if !ok {
		return
	}
	if err := c.store.StoreAccuracyPoint(c.runID, point); err != nil {
		logger.Error("failed to persist accuracy point", slog.Any("error", xerrors.New(err)))
	}
}

// DecodePayload parses and validates one published window.
func DecodePayload(data []byte) (WindowPayload, error) {
	var payload WindowPayload
	if err := json.Unmarshal(data, &payload); err != nil {
		return WindowPayload{}, fmt.Errorf("unable to parse window payload: %w", err)
	}
	if len(payload.Samples) == 0 {
		return WindowPayload{}, fmt.Errorf("window payload has no samples")
	}
	return payload, nil
}

// oracleFor exposes the payload's resolved label as the evaluator's oracle.
func oracleFor(payload WindowPayload) stream.Oracle {
	return stream.OracleFunc(func([]float64) (int, error) {
		if payload.Label == nil {
			return 0, fmt.Errorf("sensor %s published a gated window without a label", payload.SensorID)
		}
		return *payload.Label, nil
	})
}
