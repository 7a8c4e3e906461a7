// Package model defines the typed records the pod dashboard operates on.
// All records are read views: the engine never mutates them.
package model

import "time"

// TimestampLayout is the wire format for full timestamps, in both
// directions (query parameters and JSON output).
const TimestampLayout = "2006-01-02T15:04:05.000000"

// DateLayout is the wire format for date-only query parameters.
const DateLayout = "2006-01-02"

// FormatTimestamp renders t in the fixed wire layout (UTC).
func FormatTimestamp(t time.Time) string {
	return t.UTC().Format(TimestampLayout)
}

// FrameEvent records a single frame ingested from a pod.
type FrameEvent struct {
	Timestamp time.Time
	PodID     string
	SwarmName string
	RunName   string
	LocName   string
}

// SpecimenEvent records a detected-and-classified organism instance
// derived from a frame.
type SpecimenEvent struct {
	Timestamp time.Time
	PodID     string
	SwarmName string
	RunName   string
	LocName   string
	Latitude  *float64
	Longitude *float64

	// Stage 1: detection
	DetectionClass string
	DetectionScore float64

	// Stage 2: classification
	TaxonID    string
	TaxonName  string
	TaxonScore float64
	TaxonRank  string

	// Plausibility / anomaly score for the classification.
	PlausibilityScore float64
}

// WeatherSample is a sparse, irregularly spaced weather reading keyed by
// swarm. Nil fields were not reported by the upstream provider.
type WeatherSample struct {
	Timestamp time.Time
	SwarmName string
	RunName   string
	LocName   string
	Latitude  *float64
	Longitude *float64

	Temperature    *float64
	Humidity       *float64
	Pressure       *float64
	WindSpeed      *float64
	WindDegree     *float64
	CloudCoverage  *float64
	RainLast3h     *float64
	SnowLast3h     *float64
	Status         *string
	DetailedStatus *string
}

// FieldMap projects the sample's measurement fields to a name→value map,
// dropping nil fields.
func (s WeatherSample) FieldMap() map[string]any {
	m := make(map[string]any)
	put := func(name string, v *float64) {
		if v != nil {
			m[name] = *v
		}
	}
	put("temperature", s.Temperature)
	put("humidity", s.Humidity)
	put("pressure", s.Pressure)
	put("wind_speed", s.WindSpeed)
	put("wind_degree", s.WindDegree)
	put("cloud_coverage", s.CloudCoverage)
	put("rain_last_3h", s.RainLast3h)
	put("snow_last_3h", s.SnowLast3h)
	if s.Status != nil {
		m["status"] = *s.Status
	}
	if s.DetailedStatus != nil {
		m["detailed_status"] = *s.DetailedStatus
	}
	return m
}

// PodState is the latest known snapshot for one pod, as written by the
// ingestion side. Counters may lag the event tables; the engine recomputes
// the ones it does not trust.
type PodState struct {
	PodID              string
	ConnectionStatus   *string
	RSSI               *int
	StreamType         *string
	LocName            *string
	Latitude           *float64
	Longitude          *float64
	QueueLength        *int
	TotalFrames        *int64
	LastDetectionClass *string
	LastTaxonClass     *string
	TotalSpecimens     *int64
	LastSpecimenAt     *time.Time
	LastSeen           *time.Time
}

// Location is a resolved lat/lon pair.
type Location struct {
	Latitude  float64
	Longitude float64
}

// StatusSnapshot is the per-pod status object served to the dashboard.
// Every field is nullable: an empty pod population yields one snapshot
// with all fields null, a convention existing consumers rely on.
type StatusSnapshot struct {
	PodID                   *string  `json:"pod_id"`
	ConnectionStatus        *string  `json:"connection_status"`
	RSSI                    *int     `json:"rssi"`
	StreamType              *string  `json:"stream_type"`
	LocName                 *string  `json:"loc_name"`
	LocLat                  *float64 `json:"loc_lat"`
	LocLon                  *float64 `json:"loc_lon"`
	QueueLength             *int     `json:"queue_length"`
	TotalFrames             *int64   `json:"total_frames"`
	LastDetectionClass      *string  `json:"last_detection_class"`
	LastTaxonClass          *string  `json:"last_taxon_class"`
	TotalSpecimens          *int64   `json:"total_specimens"`
	LastSpecimenCreatedTime *string  `json:"last_specimen_created_time"`
	LastSeen                *string  `json:"last_seen"`
	TimeSinceLastSeen       *float64 `json:"time_since_last_seen"`
	TimeSinceLastSpecimen   *float64 `json:"time_since_last_specimen"`
}
