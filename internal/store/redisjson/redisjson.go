// Package redisjson is the document store adapter: records live as
// RedisJSON documents and queries run through RediSearch indexes
// (FT.SEARCH / FT.AGGREGATE). The client is pinned to RESP2 so reply
// shapes stay the classic arrays the parsers below expect.
package redisjson

import (
	"context"
	"fmt"
	"strings"

	"github.com/redis/go-redis/v9"

	"github.com/florasense/podserver/internal/store"
)

const (
	specimenPrefix = "spec:"
	framePrefix    = "frame:"
	weatherPrefix  = "weather:"
	podPrefix      = "pod:"
	seqKey         = "podserver:seq"

	specimenIndex = "idx:specimens"
	frameIndex    = "idx:frames"
	weatherIndex  = "idx:weather"
	podIndex      = "idx:pods"

	// maxResults caps FT.SEARCH/FT.AGGREGATE result pages. Large enough
	// for every dashboard query in scope.
	maxResults = 10000
)

// Store implements store.Querier and store.Writer over a Redis instance
// with the ReJSON and RediSearch modules loaded.
type Store struct {
	rdb *redis.Client
}

// Open connects to Redis at addr and ensures the search indexes exist.
func Open(ctx context.Context, addr string) (*Store, error) {
	rdb := redis.NewClient(&redis.Options{
		Addr:     addr,
		Protocol: 2,
	})
	if err := rdb.Ping(ctx).Err(); err != nil {
		rdb.Close()
		return nil, fmt.Errorf("ping redis: %w", err)
	}

	s := &Store{rdb: rdb}
	if err := s.createIndexes(ctx); err != nil {
		rdb.Close()
		return nil, fmt.Errorf("create indexes: %w", err)
	}
	return s, nil
}

func (s *Store) createIndexes(ctx context.Context) error {
	type index struct {
		name   string
		prefix string
		schema []any
	}

	eventSchema := []any{
		"$.ts", "AS", "ts", "NUMERIC", "SORTABLE",
		"$.pod_id", "AS", "pod_id", "TAG",
		"$.swarm_name", "AS", "swarm_name", "TAG",
		"$.run_name", "AS", "run_name", "TAG",
		"$.loc_name", "AS", "loc_name", "TAG",
	}
	weatherSchema := []any{
		"$.ts", "AS", "ts", "NUMERIC", "SORTABLE",
		"$.swarm_name", "AS", "swarm_name", "TAG",
		"$.run_name", "AS", "run_name", "TAG",
		"$.loc_name", "AS", "loc_name", "TAG",
	}
	specimenSchema := append(append([]any{}, eventSchema...),
		"$.detection_class", "AS", "detection_class", "TAG",
		"$.detection_score", "AS", "detection_score", "NUMERIC",
		"$.taxon_id", "AS", "taxon_id", "TAG",
		"$.taxon_name", "AS", "taxon_name", "TAG",
		"$.taxon_score", "AS", "taxon_score", "NUMERIC",
		"$.taxon_rank", "AS", "taxon_rank", "TAG",
		"$.plausibility_score", "AS", "plausibility_score", "NUMERIC",
		"$.has_location", "AS", "has_location", "TAG",
	)
	podSchema := []any{
		"$.pod_id", "AS", "pod_id", "TAG", "SORTABLE",
		"$.last_seen", "AS", "last_seen", "NUMERIC", "SORTABLE",
	}

	indexes := []index{
		{specimenIndex, specimenPrefix, specimenSchema},
		{frameIndex, framePrefix, eventSchema},
		{weatherIndex, weatherPrefix, weatherSchema},
		{podIndex, podPrefix, podSchema},
	}

	for _, idx := range indexes {
		args := []any{"FT.CREATE", idx.name, "ON", "JSON",
			"PREFIX", "1", idx.prefix, "SCHEMA"}
		args = append(args, idx.schema...)
		err := s.rdb.Do(ctx, args...).Err()
		if err != nil && !strings.Contains(err.Error(), "Index already exists") {
			return fmt.Errorf("create %s: %w", idx.name, err)
		}
	}
	return nil
}

// Close releases the client connection pool.
func (s *Store) Close() error { return s.rdb.Close() }

// Ping verifies connectivity.
func (s *Store) Ping(ctx context.Context) error {
	return store.Unavailable("ping", s.rdb.Ping(ctx).Err())
}

var (
	_ store.Querier = (*Store)(nil)
	_ store.Writer  = (*Store)(nil)
)
