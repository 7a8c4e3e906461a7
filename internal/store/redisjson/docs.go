package redisjson

import (
	"github.com/florasense/podserver/internal/model"
)

// Document shapes stored as RedisJSON values. Timestamps are integer
// unix microseconds so the numeric index supports range queries and
// aggregate bucketing directly. has_location is a tag field because
// RediSearch cannot express "latitude is present" as a query.

type frameDoc struct {
	TS        int64  `json:"ts"`
	PodID     string `json:"pod_id"`
	SwarmName string `json:"swarm_name"`
	RunName   string `json:"run_name"`
	LocName   string `json:"loc_name"`
}

type specimenDoc struct {
	TS                int64    `json:"ts"`
	PodID             string   `json:"pod_id"`
	SwarmName         string   `json:"swarm_name"`
	RunName           string   `json:"run_name"`
	LocName           string   `json:"loc_name"`
	Latitude          *float64 `json:"lat,omitempty"`
	Longitude         *float64 `json:"lon,omitempty"`
	HasLocation       string   `json:"has_location"`
	DetectionClass    string   `json:"detection_class"`
	DetectionScore    float64  `json:"detection_score"`
	TaxonID           string   `json:"taxon_id"`
	TaxonName         string   `json:"taxon_name"`
	TaxonScore        float64  `json:"taxon_score"`
	TaxonRank         string   `json:"taxon_rank"`
	PlausibilityScore float64  `json:"plausibility_score"`
}

type weatherDoc struct {
	TS             int64    `json:"ts"`
	SwarmName      string   `json:"swarm_name"`
	RunName        string   `json:"run_name"`
	LocName        string   `json:"loc_name"`
	Latitude       *float64 `json:"lat,omitempty"`
	Longitude      *float64 `json:"lon,omitempty"`
	Temperature    *float64 `json:"temperature,omitempty"`
	Humidity       *float64 `json:"humidity,omitempty"`
	Pressure       *float64 `json:"pressure,omitempty"`
	WindSpeed      *float64 `json:"wind_speed,omitempty"`
	WindDegree     *float64 `json:"wind_degree,omitempty"`
	CloudCoverage  *float64 `json:"cloud_coverage,omitempty"`
	RainLast3h     *float64 `json:"rain_last_3h,omitempty"`
	SnowLast3h     *float64 `json:"snow_last_3h,omitempty"`
	Status         *string  `json:"status,omitempty"`
	DetailedStatus *string  `json:"detailed_status,omitempty"`
}

type podDoc struct {
	PodID              string   `json:"pod_id"`
	ConnectionStatus   *string  `json:"connection_status,omitempty"`
	RSSI               *int     `json:"rssi,omitempty"`
	StreamType         *string  `json:"stream_type,omitempty"`
	LocName            *string  `json:"loc_name,omitempty"`
	Latitude           *float64 `json:"lat,omitempty"`
	Longitude          *float64 `json:"lon,omitempty"`
	QueueLength        *int     `json:"queue_length,omitempty"`
	TotalFrames        *int64   `json:"total_frames,omitempty"`
	LastDetectionClass *string  `json:"last_detection_class,omitempty"`
	LastTaxonClass     *string  `json:"last_taxon_class,omitempty"`
	TotalSpecimens     *int64   `json:"total_specimens,omitempty"`
	LastSpecimenAt     *int64   `json:"last_specimen_at,omitempty"`
	LastSeen           *int64   `json:"last_seen,omitempty"`
}

func newSpecimenDoc(ev model.SpecimenEvent) specimenDoc {
	hasLoc := "0"
	if ev.Latitude != nil && ev.Longitude != nil {
		hasLoc = "1"
	}
	return specimenDoc{
		TS:                ev.Timestamp.UnixMicro(),
		PodID:             ev.PodID,
		SwarmName:         ev.SwarmName,
		RunName:           ev.RunName,
		LocName:           ev.LocName,
		Latitude:          ev.Latitude,
		Longitude:         ev.Longitude,
		HasLocation:       hasLoc,
		DetectionClass:    ev.DetectionClass,
		DetectionScore:    ev.DetectionScore,
		TaxonID:           ev.TaxonID,
		TaxonName:         ev.TaxonName,
		TaxonScore:        ev.TaxonScore,
		TaxonRank:         ev.TaxonRank,
		PlausibilityScore: ev.PlausibilityScore,
	}
}

func (d specimenDoc) event() model.SpecimenEvent {
	return model.SpecimenEvent{
		Timestamp:         fromMicros(d.TS),
		PodID:             d.PodID,
		SwarmName:         d.SwarmName,
		RunName:           d.RunName,
		LocName:           d.LocName,
		Latitude:          d.Latitude,
		Longitude:         d.Longitude,
		DetectionClass:    d.DetectionClass,
		DetectionScore:    d.DetectionScore,
		TaxonID:           d.TaxonID,
		TaxonName:         d.TaxonName,
		TaxonScore:        d.TaxonScore,
		TaxonRank:         d.TaxonRank,
		PlausibilityScore: d.PlausibilityScore,
	}
}

func newWeatherDoc(w model.WeatherSample) weatherDoc {
	return weatherDoc{
		TS:             w.Timestamp.UnixMicro(),
		SwarmName:      w.SwarmName,
		RunName:        w.RunName,
		LocName:        w.LocName,
		Latitude:       w.Latitude,
		Longitude:      w.Longitude,
		Temperature:    w.Temperature,
		Humidity:       w.Humidity,
		Pressure:       w.Pressure,
		WindSpeed:      w.WindSpeed,
		WindDegree:     w.WindDegree,
		CloudCoverage:  w.CloudCoverage,
		RainLast3h:     w.RainLast3h,
		SnowLast3h:     w.SnowLast3h,
		Status:         w.Status,
		DetailedStatus: w.DetailedStatus,
	}
}

func (d weatherDoc) sample() model.WeatherSample {
	return model.WeatherSample{
		Timestamp:      fromMicros(d.TS),
		SwarmName:      d.SwarmName,
		RunName:        d.RunName,
		LocName:        d.LocName,
		Latitude:       d.Latitude,
		Longitude:      d.Longitude,
		Temperature:    d.Temperature,
		Humidity:       d.Humidity,
		Pressure:       d.Pressure,
		WindSpeed:      d.WindSpeed,
		WindDegree:     d.WindDegree,
		CloudCoverage:  d.CloudCoverage,
		RainLast3h:     d.RainLast3h,
		SnowLast3h:     d.SnowLast3h,
		Status:         d.Status,
		DetailedStatus: d.DetailedStatus,
	}
}

func newPodDoc(p model.PodState) podDoc {
	return podDoc{
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
		LastSpecimenAt:     microsPtr(p.LastSpecimenAt),
		LastSeen:           microsPtr(p.LastSeen),
	}
}

func (d podDoc) state() model.PodState {
	return model.PodState{
		PodID:              d.PodID,
		ConnectionStatus:   d.ConnectionStatus,
		RSSI:               d.RSSI,
		StreamType:         d.StreamType,
		LocName:            d.LocName,
		Latitude:           d.Latitude,
		Longitude:          d.Longitude,
		QueueLength:        d.QueueLength,
		TotalFrames:        d.TotalFrames,
		LastDetectionClass: d.LastDetectionClass,
		LastTaxonClass:     d.LastTaxonClass,
		TotalSpecimens:     d.TotalSpecimens,
		LastSpecimenAt:     timePtr(d.LastSpecimenAt),
		LastSeen:           timePtr(d.LastSeen),
	}
}
