package ingest

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/florasense/podserver/internal/model"
)

// Envelope is the wire shape pods publish: a kind discriminator plus the
// kind-specific payload. Timestamps arrive in the dashboard wire layout.
type Envelope struct {
	Kind    string          `json:"kind"`
	Payload json.RawMessage `json:"payload"`
}

const (
	KindFrame    = "frame"
	KindSpecimen = "specimen"
	KindWeather  = "weather"
	KindPodState = "pod_state"
)

type framePayload struct {
	Timestamp string `json:"timestamp"`
	PodID     string `json:"pod_id"`
	SwarmName string `json:"swarm_name"`
	RunName   string `json:"run_name"`
	LocName   string `json:"loc_name"`
}

type specimenPayload struct {
	framePayload
	Latitude          *float64 `json:"latitude"`
	Longitude         *float64 `json:"longitude"`
	DetectionClass    string   `json:"detection_class"`
	DetectionScore    float64  `json:"detection_score"`
	TaxonID           string   `json:"taxon_id"`
	TaxonName         string   `json:"taxon_name"`
	TaxonScore        float64  `json:"taxon_score"`
	TaxonRank         string   `json:"taxon_rank"`
	PlausibilityScore float64  `json:"plausibility_score"`
}

type weatherPayload struct {
	Timestamp      string   `json:"timestamp"`
	SwarmName      string   `json:"swarm_name"`
	RunName        string   `json:"run_name"`
	LocName        string   `json:"loc_name"`
	Latitude       *float64 `json:"latitude"`
	Longitude      *float64 `json:"longitude"`
	Temperature    *float64 `json:"temperature"`
	Humidity       *float64 `json:"humidity"`
	Pressure       *float64 `json:"pressure"`
	WindSpeed      *float64 `json:"wind_speed"`
	WindDegree     *float64 `json:"wind_degree"`
	CloudCoverage  *float64 `json:"cloud_coverage"`
	RainLast3h     *float64 `json:"rain_last_3h"`
	SnowLast3h     *float64 `json:"snow_last_3h"`
	Status         *string  `json:"status"`
	DetailedStatus *string  `json:"detailed_status"`
}

type podStatePayload struct {
	PodID              string   `json:"pod_id"`
	ConnectionStatus   *string  `json:"connection_status"`
	RSSI               *int     `json:"rssi"`
	StreamType         *string  `json:"stream_type"`
	LocName            *string  `json:"loc_name"`
	Latitude           *float64 `json:"latitude"`
	Longitude          *float64 `json:"longitude"`
	QueueLength        *int     `json:"queue_length"`
	TotalFrames        *int64   `json:"total_frames"`
	LastDetectionClass *string  `json:"last_detection_class"`
	LastTaxonClass     *string  `json:"last_taxon_class"`
	TotalSpecimens     *int64   `json:"total_specimens"`
	LastSpecimenAt     *string  `json:"last_specimen_at"`
	LastSeen           *string  `json:"last_seen"`
}

// ParseEnvelope decodes a raw Kafka record into an Envelope.
func ParseEnvelope(data []byte) (Envelope, error) {
	var env Envelope
	if err := json.Unmarshal(data, &env); err != nil {
		return Envelope{}, fmt.Errorf("%w: %w", ErrDecodeFailed, err)
	}
	switch env.Kind {
	case KindFrame, KindSpecimen, KindWeather, KindPodState:
		return env, nil
	default:
		return Envelope{}, fmt.Errorf("%w: unknown kind %q", ErrDecodeFailed, env.Kind)
	}
}

func parseWireTime(s string) (time.Time, error) {
	// The fixed-width layout parses values both with and without the
	// fractional part.
	t, err := time.ParseInLocation("2006-01-02T15:04:05", s, time.UTC)
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: timestamp %q: %w", ErrDecodeFailed, s, err)
	}
	return t, nil
}

func (e Envelope) frame() (model.FrameEvent, error) {
	var p framePayload
	if err := json.Unmarshal(e.Payload, &p); err != nil {
		return model.FrameEvent{}, fmt.Errorf("%w: %w", ErrDecodeFailed, err)
	}
	ts, err := parseWireTime(p.Timestamp)
	if err != nil {
		return model.FrameEvent{}, err
	}
	return model.FrameEvent{
		Timestamp: ts,
		PodID:     p.PodID,
		SwarmName: p.SwarmName,
		RunName:   p.RunName,
		LocName:   p.LocName,
	}, nil
}

func (e Envelope) specimen() (model.SpecimenEvent, error) {
	var p specimenPayload
	if err := json.Unmarshal(e.Payload, &p); err != nil {
		return model.SpecimenEvent{}, fmt.Errorf("%w: %w", ErrDecodeFailed, err)
	}
	ts, err := parseWireTime(p.Timestamp)
	if err != nil {
		return model.SpecimenEvent{}, err
	}
	return model.SpecimenEvent{
		Timestamp:         ts,
		PodID:             p.PodID,
		SwarmName:         p.SwarmName,
		RunName:           p.RunName,
		LocName:           p.LocName,
		Latitude:          p.Latitude,
		Longitude:         p.Longitude,
		DetectionClass:    p.DetectionClass,
		DetectionScore:    p.DetectionScore,
		TaxonID:           p.TaxonID,
		TaxonName:         p.TaxonName,
		TaxonScore:        p.TaxonScore,
		TaxonRank:         p.TaxonRank,
		PlausibilityScore: p.PlausibilityScore,
	}, nil
}

func (e Envelope) weather() (model.WeatherSample, error) {
	var p weatherPayload
	if err := json.Unmarshal(e.Payload, &p); err != nil {
		return model.WeatherSample{}, fmt.Errorf("%w: %w", ErrDecodeFailed, err)
	}
	ts, err := parseWireTime(p.Timestamp)
	if err != nil {
		return model.WeatherSample{}, err
	}
	return model.WeatherSample{
		Timestamp:      ts,
		SwarmName:      p.SwarmName,
		RunName:        p.RunName,
		LocName:        p.LocName,
		Latitude:       p.Latitude,
		Longitude:      p.Longitude,
		Temperature:    p.Temperature,
		Humidity:       p.Humidity,
		Pressure:       p.Pressure,
		WindSpeed:      p.WindSpeed,
		WindDegree:     p.WindDegree,
		CloudCoverage:  p.CloudCoverage,
		RainLast3h:     p.RainLast3h,
		SnowLast3h:     p.SnowLast3h,
		Status:         p.Status,
		DetailedStatus: p.DetailedStatus,
	}, nil
}

func (e Envelope) podState() (model.PodState, error) {
	var p podStatePayload
	if err := json.Unmarshal(e.Payload, &p); err != nil {
		return model.PodState{}, fmt.Errorf("%w: %w", ErrDecodeFailed, err)
	}
	state := model.PodState{
		PodID:              p.PodID,
		ConnectionStatus:   p.ConnectionStatus,
		RSSI:               p.RSSI,
		StreamType:         p.StreamType,
		LocName:            p.LocName,
		Latitude:           p.Latitude,
		Longitude:          p.Longitude,
		QueueLength:        p.QueueLength,
		TotalFrames:        p.TotalFrames,
		LastDetectionClass: p.LastDetectionClass,
		LastTaxonClass:     p.LastTaxonClass,
		TotalSpecimens:     p.TotalSpecimens,
	}
	if p.LastSpecimenAt != nil {
		ts, err := parseWireTime(*p.LastSpecimenAt)
		if err != nil {
			return model.PodState{}, err
		}
		state.LastSpecimenAt = &ts
	}
	if p.LastSeen != nil {
		ts, err := parseWireTime(*p.LastSeen)
		if err != nil {
			return model.PodState{}, err
		}
		state.LastSeen = &ts
	}
	return state, nil
}
