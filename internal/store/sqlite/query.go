package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/florasense/podserver/internal/metrics"
	"github.com/florasense/podserver/internal/model"
	"github.com/florasense/podserver/internal/store"
)

const specimenColumns = `timestamp, pod_id, swarm_name, run_name, loc_name,
	latitude, longitude, detection_class, detection_score,
	taxon_id, taxon_name, taxon_score, taxon_rank, plausibility_score`

func (s *Store) ScanSpecimens(ctx context.Context, pred store.PredicateSet, limit int) ([]model.SpecimenEvent, error) {
	defer metrics.ObserveQuery("scan_specimens", time.Now())
	s.mu.RLock()
	defer s.mu.RUnlock()

	where, args, err := compile(pred, specimenFields)
	if err != nil {
		return nil, err
	}
	query := "SELECT " + specimenColumns + " FROM specimen_records WHERE " + where + " ORDER BY timestamp ASC"
	if limit > 0 {
		query += " LIMIT ?"
		args = append(args, limit)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, store.Unavailable("scan specimens", err)
	}
	defer rows.Close()

	var out []model.SpecimenEvent
	for rows.Next() {
		var ev model.SpecimenEvent
		var ts int64
		var lat, lon sql.NullFloat64
		err := rows.Scan(&ts, &ev.PodID, &ev.SwarmName, &ev.RunName, &ev.LocName,
			&lat, &lon, &ev.DetectionClass, &ev.DetectionScore,
			&ev.TaxonID, &ev.TaxonName, &ev.TaxonScore, &ev.TaxonRank, &ev.PlausibilityScore)
		if err != nil {
			return nil, store.Unavailable("scan specimens", err)
		}
		ev.Timestamp = fromMicros(ts)
		if lat.Valid {
			ev.Latitude = &lat.Float64
		}
		if lon.Valid {
			ev.Longitude = &lon.Float64
		}
		out = append(out, ev)
	}
	return out, store.Unavailable("scan specimens", rows.Err())
}

const weatherColumns = `timestamp, swarm_name, run_name, loc_name, latitude, longitude,
	temperature, humidity, pressure, wind_speed, wind_degree,
	cloud_coverage, rain_last_3h, snow_last_3h, status, detailed_status`

func (s *Store) ScanWeather(ctx context.Context, pred store.PredicateSet, limit int) ([]model.WeatherSample, error) {
	defer metrics.ObserveQuery("scan_weather", time.Now())
	s.mu.RLock()
	defer s.mu.RUnlock()

	where, args, err := compile(pred, weatherFields)
	if err != nil {
		return nil, err
	}
	query := "SELECT " + weatherColumns + " FROM weather_records WHERE " + where + " ORDER BY timestamp ASC"
	if limit > 0 {
		query += " LIMIT ?"
		args = append(args, limit)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, store.Unavailable("scan weather", err)
	}
	defer rows.Close()

	var out []model.WeatherSample
	for rows.Next() {
		var w model.WeatherSample
		var ts int64
		var lat, lon, temp, hum, pres, wspd, wdeg, cloud, rain, snow sql.NullFloat64
		var status, detail sql.NullString
		err := rows.Scan(&ts, &w.SwarmName, &w.RunName, &w.LocName, &lat, &lon,
			&temp, &hum, &pres, &wspd, &wdeg, &cloud, &rain, &snow, &status, &detail)
		if err != nil {
			return nil, store.Unavailable("scan weather", err)
		}
		w.Timestamp = fromMicros(ts)
		w.Latitude = nullFloat(lat)
		w.Longitude = nullFloat(lon)
		w.Temperature = nullFloat(temp)
		w.Humidity = nullFloat(hum)
		w.Pressure = nullFloat(pres)
		w.WindSpeed = nullFloat(wspd)
		w.WindDegree = nullFloat(wdeg)
		w.CloudCoverage = nullFloat(cloud)
		w.RainLast3h = nullFloat(rain)
		w.SnowLast3h = nullFloat(snow)
		w.Status = nullString(status)
		w.DetailedStatus = nullString(detail)
		out = append(out, w)
	}
	return out, store.Unavailable("scan weather", rows.Err())
}

func (s *Store) Count(ctx context.Context, kind store.Kind, pred store.PredicateSet) (int64, error) {
	defer metrics.ObserveQuery("count", time.Now())
	s.mu.RLock()
	defer s.mu.RUnlock()

	t := tables[kind]
	where, args, err := compile(pred, t.cols)
	if err != nil {
		return 0, err
	}

	var n int64
	err = s.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM "+t.name+" WHERE "+where, args...).Scan(&n)
	if err != nil {
		return 0, store.Unavailable("count", err)
	}
	return n, nil
}

func (s *Store) GroupedCount(ctx context.Context, kind store.Kind, groupBy store.Field, pred store.PredicateSet) (map[string]int64, error) {
	defer metrics.ObserveQuery("grouped_count", time.Now())
	s.mu.RLock()
	defer s.mu.RUnlock()

	t := tables[kind]
	col, ok := t.cols[groupBy]
	if !ok {
		return nil, errUnknownField(groupBy, kind)
	}
	where, args, err := compile(pred, t.cols)
	if err != nil {
		return nil, err
	}

	query := "SELECT " + col + ", COUNT(*) FROM " + t.name +
		" WHERE " + where + " AND " + col + " != '' GROUP BY " + col
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, store.Unavailable("grouped count", err)
	}
	defer rows.Close()

	counts := make(map[string]int64)
	for rows.Next() {
		var g string
		var n int64
		if err := rows.Scan(&g, &n); err != nil {
			return nil, store.Unavailable("grouped count", err)
		}
		counts[g] = n
	}
	return counts, store.Unavailable("grouped count", rows.Err())
}

func (s *Store) GroupedBinnedCount(ctx context.Context, kind store.Kind, groupBy store.Field, grid model.BinGrid, pred store.PredicateSet) (map[string]map[int]int64, error) {
	defer metrics.ObserveQuery("grouped_binned_count", time.Now())
	s.mu.RLock()
	defer s.mu.RUnlock()

	t := tables[kind]
	col, ok := t.cols[groupBy]
	if !ok {
		return nil, errUnknownField(groupBy, kind)
	}
	where, args, err := compile(pred, t.cols)
	if err != nil {
		return nil, err
	}

	// The grid bounds are part of the query so the integer division below
	// never sees a negative timestamp delta.
	query := "SELECT " + col + ", (timestamp - ?) / ? AS bin, COUNT(*) FROM " + t.name +
		" WHERE " + where + " AND " + col + " != ''" +
		" AND timestamp >= ? AND timestamp < ?" +
		" GROUP BY " + col + ", bin"
	startUs := micros(grid.Start)
	widthUs := int64(grid.Width / time.Microsecond)
	endUs := micros(grid.End())
	full := append([]any{startUs, widthUs}, args...)
	full = append(full, startUs, endUs)

	rows, err := s.db.QueryContext(ctx, query, full...)
	if err != nil {
		return nil, store.Unavailable("grouped binned count", err)
	}
	defer rows.Close()

	counts := make(map[string]map[int]int64)
	for rows.Next() {
		var g string
		var bin int
		var n int64
		if err := rows.Scan(&g, &bin, &n); err != nil {
			return nil, store.Unavailable("grouped binned count", err)
		}
		if bin < 0 || bin >= grid.N {
			continue
		}
		if counts[g] == nil {
			counts[g] = make(map[int]int64)
		}
		counts[g][bin] += n
	}
	return counts, store.Unavailable("grouped binned count", rows.Err())
}

func (s *Store) DistinctValues(ctx context.Context, kind store.Kind, field store.Field) ([]string, error) {
	defer metrics.ObserveQuery("distinct_values", time.Now())
	s.mu.RLock()
	defer s.mu.RUnlock()

	t := tables[kind]
	col, ok := t.cols[field]
	if !ok {
		return nil, errUnknownField(field, kind)
	}

	query := "SELECT DISTINCT " + col + " FROM " + t.name + " WHERE " + col + " != '' ORDER BY " + col
	rows, err := s.db.QueryContext(ctx, query)
	if err != nil {
		return nil, store.Unavailable("distinct values", err)
	}
	defer rows.Close()

	var out []string
	for rows.Next() {
		var v string
		if err := rows.Scan(&v); err != nil {
			return nil, store.Unavailable("distinct values", err)
		}
		out = append(out, v)
	}
	return out, store.Unavailable("distinct values", rows.Err())
}

func (s *Store) DistinctDates(ctx context.Context, kind store.Kind) ([]string, error) {
	defer metrics.ObserveQuery("distinct_dates", time.Now())
	s.mu.RLock()
	defer s.mu.RUnlock()

	t := tables[kind]
	query := "SELECT DISTINCT date(timestamp / 1000000, 'unixepoch') FROM " + t.name + " ORDER BY 1"
	rows, err := s.db.QueryContext(ctx, query)
	if err != nil {
		return nil, store.Unavailable("distinct dates", err)
	}
	defer rows.Close()

	var out []string
	for rows.Next() {
		var v string
		if err := rows.Scan(&v); err != nil {
			return nil, store.Unavailable("distinct dates", err)
		}
		out = append(out, v)
	}
	return out, store.Unavailable("distinct dates", rows.Err())
}

func (s *Store) RecentLocation(ctx context.Context, podID string) (*model.Location, error) {
	defer metrics.ObserveQuery("recent_location", time.Now())
	s.mu.RLock()
	defer s.mu.RUnlock()

	query := `SELECT latitude, longitude FROM specimen_records
		WHERE pod_id = ? AND latitude IS NOT NULL AND longitude IS NOT NULL
		ORDER BY timestamp DESC LIMIT 1`
	var loc model.Location
	err := s.db.QueryRowContext(ctx, query, podID).Scan(&loc.Latitude, &loc.Longitude)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, store.Unavailable("recent location", err)
	}
	return &loc, nil
}

func (s *Store) ActivePods(ctx context.Context, cutoff time.Time) ([]model.PodState, error) {
	defer metrics.ObserveQuery("active_pods", time.Now())
	s.mu.RLock()
	defer s.mu.RUnlock()

	query := `SELECT pod_id, connection_status, rssi, stream_type, loc_name,
		latitude, longitude, queue_length, total_frames,
		last_detection_class, last_taxon_class, total_specimens,
		last_specimen_at, last_seen
		FROM pod_records
		WHERE last_seen IS NOT NULL AND last_seen >= ?
		ORDER BY pod_id`
	rows, err := s.db.QueryContext(ctx, query, micros(cutoff))
	if err != nil {
		return nil, store.Unavailable("active pods", err)
	}
	defer rows.Close()

	var out []model.PodState
	for rows.Next() {
		var p model.PodState
		var connStatus, streamType, locName, lastDet, lastTaxon sql.NullString
		var rssi, queueLen sql.NullInt64
		var lat, lon sql.NullFloat64
		var totalFrames, totalSpecimens, lastSpecimenAt, lastSeen sql.NullInt64
		err := rows.Scan(&p.PodID, &connStatus, &rssi, &streamType, &locName,
			&lat, &lon, &queueLen, &totalFrames,
			&lastDet, &lastTaxon, &totalSpecimens,
			&lastSpecimenAt, &lastSeen)
		if err != nil {
			return nil, store.Unavailable("active pods", err)
		}
		p.ConnectionStatus = nullString(connStatus)
		p.StreamType = nullString(streamType)
		p.LocName = nullString(locName)
		p.LastDetectionClass = nullString(lastDet)
		p.LastTaxonClass = nullString(lastTaxon)
		p.Latitude = nullFloat(lat)
		p.Longitude = nullFloat(lon)
		p.RSSI = nullIntAsInt(rssi)
		p.QueueLength = nullIntAsInt(queueLen)
		p.TotalFrames = nullInt(totalFrames)
		p.TotalSpecimens = nullInt(totalSpecimens)
		p.LastSpecimenAt = nullTime(lastSpecimenAt)
		p.LastSeen = nullTime(lastSeen)
		out = append(out, p)
	}
	return out, store.Unavailable("active pods", rows.Err())
}

func errUnknownField(f store.Field, kind store.Kind) error {
	return fmt.Errorf("field %q not present on kind %q", f, kind)
}

func nullFloat(v sql.NullFloat64) *float64 {
	if !v.Valid {
		return nil
	}
	f := v.Float64
	return &f
}

func nullString(v sql.NullString) *string {
	if !v.Valid {
		return nil
	}
	s := v.String
	return &s
}

func nullInt(v sql.NullInt64) *int64 {
	if !v.Valid {
		return nil
	}
	n := v.Int64
	return &n
}

func nullIntAsInt(v sql.NullInt64) *int {
	if !v.Valid {
		return nil
	}
	n := int(v.Int64)
	return &n
}

func nullTime(v sql.NullInt64) *time.Time {
	if !v.Valid {
		return nil
	}
	t := fromMicros(v.Int64)
	return &t
}
