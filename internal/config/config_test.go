package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestLoadAppliesDefaults(t *testing.T) {
	path := writeConfig(t, `
store:
  backend: sqlite
  sqlitePath: test.db
`)

	cfg, err := Load(path)
	require.NoError(t, err)

	require.Equal(t, ":8000", cfg.Server.Addr)
	require.Equal(t, "sqlite", cfg.Store.Backend)
	require.Equal(t, 10000, cfg.Engine.LivenessThresholdMinutes)
	require.Equal(t, 24*time.Hour, cfg.Engine.FrameLookback)
	require.Equal(t, 25, cfg.Engine.PopularityMinCount)
	require.Equal(t, 5000, cfg.Engine.ScanLimit)
	require.Equal(t, 48, cfg.Engine.DefaultBins)
	require.Equal(t, "info", cfg.Log.Level)
	require.False(t, cfg.Ingest.Enabled)
}

func TestLoadFullConfig(t *testing.T) {
	path := writeConfig(t, `
server:
  addr: ":9090"
  rateLimitPerSec: 5
  allowedOrigins:
    - https://dashboard.example.org
store:
  backend: redis
  redisAddr: redis:6379
ingest:
  enabled: true
  brokers:
    - kafka-1:9092
  topic: pod-telemetry
engine:
  livenessThresholdMinutes: 120
  defaultBins: 24
log:
  level: debug
`)

	cfg, err := Load(path)
	require.NoError(t, err)

	require.Equal(t, ":9090", cfg.Server.Addr)
	require.Equal(t, []string{"https://dashboard.example.org"}, cfg.Server.AllowedOrigins)
	require.Equal(t, "redis", cfg.Store.Backend)
	require.Equal(t, "redis:6379", cfg.Store.RedisAddr)
	require.True(t, cfg.Ingest.Enabled)
	require.Equal(t, "podserver-ingest", cfg.Ingest.GroupID, "default group id")
	require.Equal(t, 120, cfg.Engine.LivenessThresholdMinutes)
	require.Equal(t, 24, cfg.Engine.DefaultBins)
	require.Equal(t, "debug", cfg.Log.Level)
}

func TestLoadValidation(t *testing.T) {
	tests := []struct {
		name    string
		content string
		wantErr error
	}{
		{
			"unknown backend",
			"store:\n  backend: mongo\n",
			ErrUnknownStoreBackend,
		},
		{
			"redis without addr",
			"store:\n  backend: redis\n  redisAddr: \"\"\n",
			ErrEmptyRedisAddr,
		},
		{
			"ingest enabled without brokers",
			"ingest:\n  enabled: true\n  topic: t\n",
			ErrEmptyIngestBrokers,
		},
		{
			"ingest enabled without topic",
			"ingest:\n  enabled: true\n  brokers: [k:9092]\n",
			ErrEmptyIngestTopic,
		},
		{
			"bad liveness threshold",
			"engine:\n  livenessThresholdMinutes: -1\n",
			ErrInvalidLivenessThreshold,
		},
		{
			"bad bin count",
			"engine:\n  defaultBins: 0\n",
			ErrInvalidDefaultBins,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Load(writeConfig(t, tt.content))
			require.ErrorIs(t, err, tt.wantErr)
		})
	}
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	require.Error(t, err)
}
