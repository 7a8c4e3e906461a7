package redisjson

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/florasense/podserver/internal/model"
	"github.com/florasense/podserver/internal/store"
)

func (s *Store) InsertFrame(ctx context.Context, ev model.FrameEvent) error {
	doc := frameDoc{
		TS:        ev.Timestamp.UnixMicro(),
		PodID:     ev.PodID,
		SwarmName: ev.SwarmName,
		RunName:   ev.RunName,
		LocName:   ev.LocName,
	}
	return store.Unavailable("insert frame", s.setDoc(ctx, framePrefix, doc))
}

func (s *Store) InsertSpecimen(ctx context.Context, ev model.SpecimenEvent) error {
	return store.Unavailable("insert specimen", s.setDoc(ctx, specimenPrefix, newSpecimenDoc(ev)))
}

func (s *Store) InsertWeather(ctx context.Context, w model.WeatherSample) error {
	return store.Unavailable("insert weather", s.setDoc(ctx, weatherPrefix, newWeatherDoc(w)))
}

func (s *Store) UpsertPodState(ctx context.Context, p model.PodState) error {
	raw, err := json.Marshal(newPodDoc(p))
	if err != nil {
		return fmt.Errorf("encode pod document: %w", err)
	}
	err = s.rdb.Do(ctx, "JSON.SET", podPrefix+p.PodID, "$", string(raw)).Err()
	return store.Unavailable("upsert pod state", err)
}

// setDoc stores doc under the next sequence-numbered key for the prefix.
func (s *Store) setDoc(ctx context.Context, prefix string, doc any) error {
	raw, err := json.Marshal(doc)
	if err != nil {
		return fmt.Errorf("encode document: %w", err)
	}
	seq, err := s.rdb.Incr(ctx, seqKey).Result()
	if err != nil {
		return err
	}
	key := fmt.Sprintf("%s%d", prefix, seq)
	return s.rdb.Do(ctx, "JSON.SET", key, "$", string(raw)).Err()
}
