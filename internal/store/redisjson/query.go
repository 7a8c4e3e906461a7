package redisjson

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"strconv"
	"time"

	"github.com/florasense/podserver/internal/metrics"
	"github.com/florasense/podserver/internal/model"
	"github.com/florasense/podserver/internal/store"
)

func (s *Store) ScanSpecimens(ctx context.Context, pred store.PredicateSet, limit int) ([]model.SpecimenEvent, error) {
	defer metrics.ObserveQuery("scan_specimens", time.Now())
	docs, err := searchDocs[specimenDoc](ctx, s, store.KindSpecimens, pred, limit, "ASC")
	if err != nil {
		return nil, err
	}
	out := make([]model.SpecimenEvent, len(docs))
	for i, d := range docs {
		out[i] = d.event()
	}
	return out, nil
}

func (s *Store) ScanWeather(ctx context.Context, pred store.PredicateSet, limit int) ([]model.WeatherSample, error) {
	defer metrics.ObserveQuery("scan_weather", time.Now())
	docs, err := searchDocs[weatherDoc](ctx, s, store.KindWeather, pred, limit, "ASC")
	if err != nil {
		return nil, err
	}
	out := make([]model.WeatherSample, len(docs))
	for i, d := range docs {
		out[i] = d.sample()
	}
	return out, nil
}

func (s *Store) Count(ctx context.Context, kind store.Kind, pred store.PredicateSet) (int64, error) {
	defer metrics.ObserveQuery("count", time.Now())
	query, none, err := compile(pred, queryFieldsByKind[kind])
	if err != nil {
		return 0, err
	}
	if none {
		return 0, nil
	}

	reply, err := s.rdb.Do(ctx, "FT.SEARCH", indexByKind[kind], query, "LIMIT", 0, 0).Result()
	if err != nil {
		return 0, store.Unavailable("count", err)
	}
	arr, ok := reply.([]any)
	if !ok || len(arr) == 0 {
		return 0, store.Unavailable("count", fmt.Errorf("unexpected reply shape %T", reply))
	}
	return toInt64(arr[0])
}

func (s *Store) GroupedCount(ctx context.Context, kind store.Kind, groupBy store.Field, pred store.PredicateSet) (map[string]int64, error) {
	defer metrics.ObserveQuery("grouped_count", time.Now())
	query, none, err := compile(pred, queryFieldsByKind[kind])
	if err != nil {
		return nil, err
	}
	if none {
		return map[string]int64{}, nil
	}

	rows, err := s.aggregate(ctx, indexByKind[kind], query,
		"GROUPBY", 1, "@"+fieldAlias(groupBy),
		"REDUCE", "COUNT", 0, "AS", "count",
		"LIMIT", 0, maxResults)
	if err != nil {
		return nil, store.Unavailable("grouped count", err)
	}

	out := make(map[string]int64, len(rows))
	for _, row := range rows {
		group := row[fieldAlias(groupBy)]
		if group == "" {
			continue
		}
		n, err := strconv.ParseInt(row["count"], 10, 64)
		if err != nil {
			return nil, store.Unavailable("grouped count", fmt.Errorf("parse count %q: %w", row["count"], err))
		}
		out[group] = n
	}
	return out, nil
}

func (s *Store) GroupedBinnedCount(ctx context.Context, kind store.Kind, groupBy store.Field, grid model.BinGrid, pred store.PredicateSet) (map[string]map[int]int64, error) {
	defer metrics.ObserveQuery("grouped_binned_count", time.Now())
	query, none, err := compile(pred, queryFieldsByKind[kind])
	if err != nil {
		return nil, err
	}
	if none {
		return map[string]map[int]int64{}, nil
	}

	// Clamp to the grid inside the query so the APPLY expression never
	// sees timestamps outside [start, end).
	query += fmt.Sprintf(" @ts:[%d (%d]", grid.Start.UnixMicro(), grid.End().UnixMicro())

	binExpr := fmt.Sprintf("floor((@ts - %d) / %d)", grid.Start.UnixMicro(), grid.Width.Microseconds())
	rows, err := s.aggregate(ctx, indexByKind[kind], query,
		"APPLY", binExpr, "AS", "bin",
		"GROUPBY", 2, "@"+fieldAlias(groupBy), "@bin",
		"REDUCE", "COUNT", 0, "AS", "count",
		"LIMIT", 0, maxResults)
	if err != nil {
		return nil, store.Unavailable("grouped binned count", err)
	}

	out := make(map[string]map[int]int64)
	for _, row := range rows {
		group := row[fieldAlias(groupBy)]
		if group == "" {
			continue
		}
		bin, err := strconv.ParseFloat(row["bin"], 64)
		if err != nil {
			return nil, store.Unavailable("grouped binned count", fmt.Errorf("parse bin %q: %w", row["bin"], err))
		}
		idx := int(bin)
		if idx < 0 || idx >= grid.N {
			continue
		}
		n, err := strconv.ParseInt(row["count"], 10, 64)
		if err != nil {
			return nil, store.Unavailable("grouped binned count", fmt.Errorf("parse count %q: %w", row["count"], err))
		}
		if out[group] == nil {
			out[group] = make(map[int]int64)
		}
		out[group][idx] += n
	}
	return out, nil
}

func (s *Store) DistinctValues(ctx context.Context, kind store.Kind, field store.Field) ([]string, error) {
	defer metrics.ObserveQuery("distinct_values", time.Now())
	rows, err := s.aggregate(ctx, indexByKind[kind], "*",
		"GROUPBY", 1, "@"+fieldAlias(field),
		"REDUCE", "COUNT", 0, "AS", "count",
		"LIMIT", 0, maxResults)
	if err != nil {
		return nil, store.Unavailable("distinct values", err)
	}

	var out []string
	for _, row := range rows {
		if v := row[fieldAlias(field)]; v != "" {
			out = append(out, v)
		}
	}
	sort.Strings(out)
	return out, nil
}

func (s *Store) DistinctDates(ctx context.Context, kind store.Kind) ([]string, error) {
	defer metrics.ObserveQuery("distinct_dates", time.Now())
	// Microseconds per UTC day; the day ordinal maps back to a date in Go.
	const dayMicros = 86400 * 1e6
	rows, err := s.aggregate(ctx, indexByKind[kind], "*",
		"APPLY", fmt.Sprintf("floor(@ts / %d)", int64(dayMicros)), "AS", "day",
		"GROUPBY", 1, "@day",
		"REDUCE", "COUNT", 0, "AS", "count",
		"LIMIT", 0, maxResults)
	if err != nil {
		return nil, store.Unavailable("distinct dates", err)
	}

	var out []string
	for _, row := range rows {
		day, err := strconv.ParseFloat(row["day"], 64)
		if err != nil {
			return nil, store.Unavailable("distinct dates", fmt.Errorf("parse day %q: %w", row["day"], err))
		}
		t := time.Unix(int64(day)*86400, 0).UTC()
		out = append(out, t.Format(model.DateLayout))
	}
	sort.Strings(out)
	return out, nil
}

func (s *Store) RecentLocation(ctx context.Context, podID string) (*model.Location, error) {
	defer metrics.ObserveQuery("recent_location", time.Now())
	query := fmt.Sprintf("@pod_id:{%s} @has_location:{1}", escapeTag(podID))
	reply, err := s.rdb.Do(ctx, "FT.SEARCH", specimenIndex, query,
		"SORTBY", "ts", "DESC", "LIMIT", 0, 1, "RETURN", 1, "$").Result()
	if err != nil {
		return nil, store.Unavailable("recent location", err)
	}
	docs, err := parseSearchDocs[specimenDoc](reply)
	if err != nil {
		return nil, store.Unavailable("recent location", err)
	}
	if len(docs) == 0 {
		return nil, nil
	}
	d := docs[0]
	if d.Latitude == nil || d.Longitude == nil {
		return nil, nil
	}
	return &model.Location{Latitude: *d.Latitude, Longitude: *d.Longitude}, nil
}

func (s *Store) ActivePods(ctx context.Context, cutoff time.Time) ([]model.PodState, error) {
	defer metrics.ObserveQuery("active_pods", time.Now())
	query := fmt.Sprintf("@last_seen:[%d +inf]", cutoff.UnixMicro())
	reply, err := s.rdb.Do(ctx, "FT.SEARCH", podIndex, query,
		"SORTBY", "pod_id", "ASC", "LIMIT", 0, maxResults, "RETURN", 1, "$").Result()
	if err != nil {
		return nil, store.Unavailable("active pods", err)
	}
	docs, err := parseSearchDocs[podDoc](reply)
	if err != nil {
		return nil, store.Unavailable("active pods", err)
	}
	out := make([]model.PodState, len(docs))
	for i, d := range docs {
		out[i] = d.state()
	}
	return out, nil
}

// searchDocs runs a predicate-compiled FT.SEARCH ordered by timestamp and
// decodes the JSON documents.
func searchDocs[T any](ctx context.Context, s *Store, kind store.Kind, pred store.PredicateSet, limit int, order string) ([]T, error) {
	query, none, err := compile(pred, queryFieldsByKind[kind])
	if err != nil {
		return nil, err
	}
	if none {
		return nil, nil
	}
	if limit <= 0 || limit > maxResults {
		limit = maxResults
	}

	reply, err := s.rdb.Do(ctx, "FT.SEARCH", indexByKind[kind], query,
		"SORTBY", "ts", order, "LIMIT", 0, limit, "RETURN", 1, "$").Result()
	if err != nil {
		return nil, store.Unavailable("search", err)
	}
	docs, err := parseSearchDocs[T](reply)
	if err != nil {
		return nil, store.Unavailable("search", err)
	}
	return docs, nil
}

// parseSearchDocs decodes a RESP2 FT.SEARCH reply: total, then alternating
// key / field-value array, where the single requested field "$" carries the
// whole document as JSON.
func parseSearchDocs[T any](reply any) ([]T, error) {
	arr, ok := reply.([]any)
	if !ok || len(arr) == 0 {
		return nil, fmt.Errorf("unexpected search reply shape %T", reply)
	}

	var out []T
	for i := 1; i+1 < len(arr); i += 2 {
		fields, ok := arr[i+1].([]any)
		if !ok {
			return nil, fmt.Errorf("unexpected document entry shape %T", arr[i+1])
		}
		raw := ""
		for j := 0; j+1 < len(fields); j += 2 {
			if name, _ := toString(fields[j]); name == "$" {
				raw, _ = toString(fields[j+1])
				break
			}
		}
		if raw == "" {
			continue
		}
		var doc T
		if err := json.Unmarshal([]byte(raw), &doc); err != nil {
			return nil, fmt.Errorf("decode document: %w", err)
		}
		out = append(out, doc)
	}
	return out, nil
}

// aggregate runs FT.AGGREGATE and flattens each result row's alternating
// name/value pairs into a string map. Rows with nil values (documents
// missing the grouped field) are dropped.
func (s *Store) aggregate(ctx context.Context, index, query string, args ...any) ([]map[string]string, error) {
	cmd := append([]any{"FT.AGGREGATE", index, query}, args...)
	reply, err := s.rdb.Do(ctx, cmd...).Result()
	if err != nil {
		return nil, err
	}
	arr, ok := reply.([]any)
	if !ok || len(arr) == 0 {
		return nil, fmt.Errorf("unexpected aggregate reply shape %T", reply)
	}

	var rows []map[string]string
	for _, entry := range arr[1:] {
		pairs, ok := entry.([]any)
		if !ok {
			return nil, fmt.Errorf("unexpected aggregate row shape %T", entry)
		}
		row := make(map[string]string, len(pairs)/2)
		skip := false
		for j := 0; j+1 < len(pairs); j += 2 {
			name, _ := toString(pairs[j])
			if pairs[j+1] == nil {
				skip = true
				break
			}
			val, err := toString(pairs[j+1])
			if err != nil {
				return nil, err
			}
			row[name] = val
		}
		if !skip {
			rows = append(rows, row)
		}
	}
	return rows, nil
}

func toString(v any) (string, error) {
	switch x := v.(type) {
	case string:
		return x, nil
	case []byte:
		return string(x), nil
	case int64:
		return strconv.FormatInt(x, 10), nil
	case float64:
		return strconv.FormatFloat(x, 'f', -1, 64), nil
	default:
		return "", fmt.Errorf("unexpected reply value %T", v)
	}
}

func toInt64(v any) (int64, error) {
	switch x := v.(type) {
	case int64:
		return x, nil
	case string:
		n, err := strconv.ParseInt(x, 10, 64)
		if err != nil {
			return 0, fmt.Errorf("parse integer reply %q: %w", x, err)
		}
		return n, nil
	default:
		return 0, fmt.Errorf("unexpected integer reply %T", v)
	}
}
