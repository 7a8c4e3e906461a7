// Package ingest consumes pod telemetry from Kafka and writes it to the
// configured store. It is the write side of the system; the query engine
// never writes.
package ingest

import (
	"context"
	"errors"
	"fmt"

	"github.com/segmentio/kafka-go"
	"go.uber.org/zap"

	"github.com/florasense/podserver/internal/config"
	"github.com/florasense/podserver/internal/metrics"
	"github.com/florasense/podserver/internal/store"
)

type kafkaZapLogger struct {
	log *zap.Logger
}

func (l kafkaZapLogger) Printf(msg string, args ...interface{}) {
	l.log.Info(fmt.Sprintf(msg, args...))
}

type kafkaZapErrorLogger struct {
	log *zap.Logger
}

func (l kafkaZapErrorLogger) Printf(msg string, args ...interface{}) {
	l.log.Error(fmt.Sprintf(msg, args...))
}

// Consumer reads telemetry envelopes from a Kafka topic and persists them.
type Consumer struct {
	reader *kafka.Reader
	writer store.Writer
	cfg    config.IngestConfig
	logger *zap.Logger
}

// NewConsumer creates and configures a new Kafka consumer instance.
func NewConsumer(cfg config.IngestConfig, w store.Writer, logger *zap.Logger) (*Consumer, error) {
	if len(cfg.Brokers) == 0 || cfg.Topic == "" || cfg.GroupID == "" {
		logger.Error("Kafka configuration validation failed",
			zap.Strings("brokers", cfg.Brokers),
			zap.String("topic", cfg.Topic),
			zap.String("group_id", cfg.GroupID),
		)
		return nil, ErrInvalidKafkaConfig
	}

	readerCfg := kafka.ReaderConfig{
		Brokers:     cfg.Brokers,
		GroupID:     cfg.GroupID,
		Topic:       cfg.Topic,
		Logger:      kafkaZapLogger{logger.Named("kafka-reader").WithOptions(zap.AddCallerSkip(1))},
		ErrorLogger: kafkaZapErrorLogger{logger.Named("kafka-reader-error").WithOptions(zap.AddCallerSkip(1))},
	}
	r := kafka.NewReader(readerCfg)

	logger.Info("Kafka consumer created",
		zap.String("topic", cfg.Topic),
		zap.String("group_id", cfg.GroupID),
		zap.Strings("brokers", cfg.Brokers),
	)

	return &Consumer{
		reader: r,
		writer: w,
		cfg:    cfg,
		logger: logger,
	}, nil
}

// Run starts the consume-decode-write loop. It blocks until the context is
// cancelled or an unrecoverable error occurs. Undecodable records are
// logged, counted, and committed so they are not redelivered forever;
// store write failures are not committed and abort the loop.
func (c *Consumer) Run(ctx context.Context) error {
	sugar := c.logger.Sugar()
	sugar.Info("Starting ingest consumer loop...")

	defer func() {
		sugar.Info("Closing Kafka consumer reader...")
		if err := c.reader.Close(); err != nil {
			sugar.Errorw("Failed to close Kafka reader cleanly", zap.Error(err))
		}
		sugar.Info("Ingest consumer loop stopped.")
	}()

	for {
		m, err := c.reader.FetchMessage(ctx)
		if err != nil {
			if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
				c.logger.Debug("Context cancelled, stopping ingest fetch loop.", zap.Error(err))
				return context.Canceled
			}
			c.logger.Error("Error fetching message from Kafka", zap.Error(err))
			return fmt.Errorf("%w: %w", ErrKafkaFetchFailed, err)
		}

		if err := c.handle(ctx, m.Value); err != nil {
			if errors.Is(err, ErrDecodeFailed) {
				metrics.IngestErrors.WithLabelValues("decode").Inc()
				c.logger.Warn("Dropping undecodable telemetry record",
					zap.Error(err),
					zap.Int64("offset", m.Offset),
					zap.Int("partition", m.Partition),
				)
			} else {
				metrics.IngestErrors.WithLabelValues("write").Inc()
				c.logger.Error("Failed to persist telemetry record", zap.Error(err))
				return err
			}
		}

		if err := c.reader.CommitMessages(ctx, m); err != nil {
			if errors.Is(err, context.Canceled) {
				return context.Canceled
			}
			c.logger.Error("Failed to commit Kafka offset", zap.Error(err))
			return fmt.Errorf("%w: %w", ErrKafkaFetchFailed, err)
		}
	}
}

func (c *Consumer) handle(ctx context.Context, raw []byte) error {
	env, err := ParseEnvelope(raw)
	if err != nil {
		return err
	}

	switch env.Kind {
	case KindFrame:
		ev, err := env.frame()
		if err != nil {
			return err
		}
		if err := c.writer.InsertFrame(ctx, ev); err != nil {
			return err
		}
	case KindSpecimen:
		ev, err := env.specimen()
		if err != nil {
			return err
		}
		if err := c.writer.InsertSpecimen(ctx, ev); err != nil {
			return err
		}
	case KindWeather:
		w, err := env.weather()
		if err != nil {
			return err
		}
		if err := c.writer.InsertWeather(ctx, w); err != nil {
			return err
		}
	case KindPodState:
		p, err := env.podState()
		if err != nil {
			return err
		}
		if err := c.writer.UpsertPodState(ctx, p); err != nil {
			return err
		}
	}

	metrics.IngestRecords.WithLabelValues(env.Kind).Inc()
	return nil
}
