package main

// publish_windows stands in for a field sensor: it publishes labelled
// synthetic windows to the MQTT topic the ingest collector subscribes to.

import (
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"math/rand"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"
	"github.com/joho/godotenv"

	"shm-monitor/ingest"
	"shm-monitor/signal"
	"shm-monitor/utils"
)

func main() {
	_ = godotenv.Load()

	broker := flag.String("broker", utils.GetEnv("MQTT_BROKER", "localhost"), "MQTT broker host")
	port := flag.Int("port", utils.GetEnvInt("MQTT_PORT", 1883), "MQTT broker port")
	topic := flag.String("topic", utils.GetEnv("MQTT_TOPIC", "shm/windows"), "Topic to publish windows on")
	count := flag.Int("n", 20, "Number of windows to publish")
	interval := flag.Duration("interval", 500*time.Millisecond, "Delay between windows")
	sensorID := flag.String("sensor", "sensor-1", "Sensor id to stamp on payloads")
	seed := flag.Int64("seed", time.Now().UnixNano(), "Random seed")
	flag.Parse()

	opts := mqtt.NewClientOptions()
	opts.AddBroker(fmt.Sprintf("tcp://%s:%d", *broker, *port))
	opts.SetClientID(fmt.Sprintf("shm-publisher-%d", time.Now().Unix()))
	opts.SetConnectTimeout(10 * time.Second)

	client := mqtt.NewClient(opts)
	token := client.Connect()
	token.Wait()
	if err := token.Error(); err != nil {
		log.Fatalf("failed to connect to broker: %v", err)
	}
	defer client.Disconnect(250)

	synth := signal.DefaultSynthConfig()
	synth.WindowSize = utils.GetEnvInt("WINDOW_SIZE", synth.WindowSize)
	rng := rand.New(rand.NewSource(*seed))

	for i := 0; i < *count; i++ {
		damaged := rng.Float64() < 0.5
		label := 0
		if damaged {
			label = 1
		}

		payload := ingest.WindowPayload{
			SensorID: *sensorID,
			Samples:  synth.Window(rng, damaged),
			Label:    &label,
		}
		data, err := json.Marshal(payload)
		if err != nil {
			log.Fatalf("failed to marshal payload: %v", err)
		}

		token := client.Publish(*topic, 1, false, data)
		token.Wait()
		if err := token.Error(); err != nil {
			log.Fatalf("failed to publish window %d: %v", i, err)
		}
		fmt.Printf("published window %d (label=%d, rms=%.3f)\n", i+1, label, signal.RMS(payload.Samples))

		time.Sleep(*interval)
	}
}
