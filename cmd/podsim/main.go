// Command podsim publishes synthetic pod telemetry to Kafka for local
// development: frames on every tick, specimens and weather at lower rates,
// and a pod state heartbeat.
package main

import (
	"context"
	"encoding/json"
	"log"
	"math/rand"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/segmentio/kafka-go"

	"github.com/florasense/podserver/internal/model"
)

const (
	kafkaBroker = "localhost:9092"
	topic       = "pod-telemetry"
)

var (
	podIDs = []string{"pod-alpha", "pod-bravo", "pod-charlie"}
	taxa   = []struct {
		id, name string
	}{
		{"47219", "Apis mellifera"},
		{"52775", "Bombus terrestris"},
		{"54327", "Episyrphus balteatus"},
		{"47157", "Vanessa atalanta"},
	}
	locations = []string{"north-meadow", "orchard", "hedge-row"}
)

type envelope struct {
	Kind    string `json:"kind"`
	Payload any    `json:"payload"`
}

func main() {
	writer := &kafka.Writer{
		Addr:     kafka.TCP(kafkaBroker),
		Topic:    topic,
		Balancer: &kafka.LeastBytes{},
	}
	defer func() {
		if err := writer.Close(); err != nil {
			log.Fatalf("Error closing kafka writer: %v", err)
		}
	}()
	log.Printf("Starting pod simulator for topic: %s on broker: %s", topic, kafkaBroker)

	ctx, cancel := context.WithCancel(context.Background())
	signals := make(chan os.Signal, 1)
	signal.Notify(signals, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		<-signals
		log.Println("Shutdown signal received, stopping simulator...")
		cancel()
	}()

	ticker := time.NewTicker(1 * time.Second)
	defer ticker.Stop()

	rng := rand.New(rand.NewSource(time.Now().UnixNano()))
	frameCounts := make(map[string]int64)
	specimenCounts := make(map[string]int64)

	for {
		select {
		case <-ticker.C:
			for _, env := range generateTick(rng, frameCounts, specimenCounts) {
				msgBytes, err := json.Marshal(env)
				if err != nil {
					log.Printf("Error marshalling message: %v", err)
					continue
				}
				if err := writer.WriteMessages(ctx, kafka.Message{Value: msgBytes}); err != nil {
					if ctx.Err() != nil {
						log.Println("Context cancelled, exiting message loop.")
						return
					}
					log.Printf("Error writing message: %v", err)
				}
			}

		case <-ctx.Done():
			log.Println("Simulator loop stopped.")
			return
		}
	}
}

// generateTick emits one frame per pod, plus a specimen roughly every
// third frame, a weather sample roughly once a minute, and a pod state
// heartbeat.
func generateTick(rng *rand.Rand, frameCounts, specimenCounts map[string]int64) []envelope {
	now := time.Now().UTC()
	ts := model.FormatTimestamp(now)
	var out []envelope

	for _, podID := range podIDs {
		loc := locations[rng.Intn(len(locations))]
		base := map[string]any{
			"timestamp":  ts,
			"pod_id":     podID,
			"swarm_name": "swarm-demo",
			"run_name":   "run-2026",
			"loc_name":   loc,
		}
		out = append(out, envelope{Kind: "frame", Payload: base})
		frameCounts[podID]++

		if rng.Float64() < 0.33 {
			taxon := taxa[rng.Intn(len(taxa))]
			rank := "L10"
			if rng.Float64() < 0.2 { // some classifications stop at genus
				rank = "L20"
			}
			specimen := map[string]any{
				"timestamp":          ts,
				"pod_id":             podID,
				"swarm_name":         "swarm-demo",
				"run_name":           "run-2026",
				"loc_name":           loc,
				"detection_class":    "insect",
				"detection_score":    0.5 + rng.Float64()*0.5,
				"taxon_id":           taxon.id,
				"taxon_name":         taxon.name,
				"taxon_score":        0.4 + rng.Float64()*0.6,
				"taxon_rank":         rank,
				"plausibility_score": rng.Float64(),
			}
			if rng.Float64() > 0.1 { // ~90% of specimens carry coordinates
				specimen["latitude"] = 52.0 + rng.Float64()*0.05
				specimen["longitude"] = 4.3 + rng.Float64()*0.05
			}
			out = append(out, envelope{Kind: "specimen", Payload: specimen})
			specimenCounts[podID]++
		}

		rssi := -40 - rng.Intn(40)
		state := map[string]any{
			"pod_id":            podID,
			"connection_status": "connected",
			"rssi":              rssi,
			"stream_type":       "rtsp",
			"loc_name":          loc,
			"queue_length":      rng.Intn(5),
			"total_frames":      frameCounts[podID],
			"total_specimens":   specimenCounts[podID],
			"last_seen":         ts,
		}
		out = append(out, envelope{Kind: "pod_state", Payload: state})
	}

	if rng.Float64() < 0.017 {
		temp := 12.0 + rng.Float64()*15.0
		humidity := 40.0 + rng.Float64()*50.0
		weather := map[string]any{
			"timestamp":   ts,
			"swarm_name":  "swarm-demo",
			"run_name":    "run-2026",
			"loc_name":    locations[rng.Intn(len(locations))],
			"temperature": temp,
			"humidity":    humidity,
			"wind_speed":  rng.Float64() * 8.0,
			"status":      "Clouds",
		}
		out = append(out, envelope{Kind: "weather", Payload: weather})
	}

	return out
}
