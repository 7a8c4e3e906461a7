package ingest

import "errors"

var (
	ErrInvalidKafkaConfig = errors.New("invalid Kafka configuration provided")
	ErrKafkaFetchFailed   = errors.New("failed to fetch message from Kafka")
	ErrDecodeFailed       = errors.New("failed to decode telemetry envelope")
)
