package sqlite

import (
	"context"

	"github.com/florasense/podserver/internal/model"
	"github.com/florasense/podserver/internal/store"
)

func (s *Store) InsertFrame(ctx context.Context, ev model.FrameEvent) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, err := s.db.ExecContext(ctx,
		`INSERT INTO frame_log (timestamp, pod_id, swarm_name, run_name, loc_name)
		 VALUES (?, ?, ?, ?, ?)`,
		micros(ev.Timestamp), ev.PodID, ev.SwarmName, ev.RunName, ev.LocName)
	return store.Unavailable("insert frame", err)
}

func (s *Store) InsertSpecimen(ctx context.Context, ev model.SpecimenEvent) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, err := s.db.ExecContext(ctx,
		`INSERT INTO specimen_records (timestamp, pod_id, swarm_name, run_name, loc_name,
			latitude, longitude, detection_class, detection_score,
			taxon_id, taxon_name, taxon_score, taxon_rank, plausibility_score)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		micros(ev.Timestamp), ev.PodID, ev.SwarmName, ev.RunName, ev.LocName,
		floatOrNull(ev.Latitude), floatOrNull(ev.Longitude),
		ev.DetectionClass, ev.DetectionScore,
		ev.TaxonID, ev.TaxonName, ev.TaxonScore, ev.TaxonRank, ev.PlausibilityScore)
	return store.Unavailable("insert specimen", err)
}

func (s *Store) InsertWeather(ctx context.Context, w model.WeatherSample) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, err := s.db.ExecContext(ctx,
		`INSERT INTO weather_records (timestamp, swarm_name, run_name, loc_name,
			latitude, longitude, temperature, humidity, pressure,
			wind_speed, wind_degree, cloud_coverage, rain_last_3h, snow_last_3h,
			status, detailed_status)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		micros(w.Timestamp), w.SwarmName, w.RunName, w.LocName,
		floatOrNull(w.Latitude), floatOrNull(w.Longitude),
		floatOrNull(w.Temperature), floatOrNull(w.Humidity), floatOrNull(w.Pressure),
		floatOrNull(w.WindSpeed), floatOrNull(w.WindDegree), floatOrNull(w.CloudCoverage),
		floatOrNull(w.RainLast3h), floatOrNull(w.SnowLast3h),
		stringOrNull(w.Status), stringOrNull(w.DetailedStatus))
	return store.Unavailable("insert weather", err)
}

func (s *Store) UpsertPodState(ctx context.Context, p model.PodState) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, err := s.db.ExecContext(ctx,
		`INSERT OR REPLACE INTO pod_records (pod_id, connection_status, rssi, stream_type,
			loc_name, latitude, longitude, queue_length, total_frames,
			last_detection_class, last_taxon_class, total_specimens,
			last_specimen_at, last_seen)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		p.PodID, stringOrNull(p.ConnectionStatus), intOrNull(p.RSSI), stringOrNull(p.StreamType),
		stringOrNull(p.LocName), floatOrNull(p.Latitude), floatOrNull(p.Longitude),
		intOrNull(p.QueueLength), int64OrNull(p.TotalFrames),
		stringOrNull(p.LastDetectionClass), stringOrNull(p.LastTaxonClass), int64OrNull(p.TotalSpecimens),
		microsOrNull(p.LastSpecimenAt), microsOrNull(p.LastSeen))
	return store.Unavailable("upsert pod state", err)
}

func floatOrNull(v *float64) any {
	if v == nil {
		return nil
	}
	return *v
}

func stringOrNull(v *string) any {
	if v == nil {
		return nil
	}
	return *v
}

func intOrNull(v *int) any {
	if v == nil {
		return nil
	}
	return *v
}

func int64OrNull(v *int64) any {
	if v == nil {
		return nil
	}
	return *v
}
