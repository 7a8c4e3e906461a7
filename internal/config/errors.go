package config

import "errors"

var (
	ErrReadingConfigFile        = errors.New("failed to read config file")
	ErrUnmarshallingConfig      = errors.New("failed to unmarshal config")
	ErrConfigFileMissing        = errors.New("config file not found")
	ErrUnknownStoreBackend      = errors.New("unknown store backend")
	ErrEmptySQLitePath          = errors.New("store sqlitePath cannot be empty")
	ErrEmptyRedisAddr           = errors.New("store redisAddr cannot be empty")
	ErrEmptyIngestBrokers       = errors.New("ingest brokers list cannot be empty")
	ErrEmptyIngestTopic         = errors.New("ingest topic cannot be empty")
	ErrEmptyIngestGroupID       = errors.New("ingest groupID cannot be empty")
	ErrInvalidLivenessThreshold = errors.New("engine livenessThresholdMinutes must be positive")
	ErrInvalidDefaultBins       = errors.New("engine defaultBins must be at least 1")
)
