package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/florasense/podserver/internal/api"
	"github.com/florasense/podserver/internal/config"
	"github.com/florasense/podserver/internal/engine"
	"github.com/florasense/podserver/internal/ingest"
	"github.com/florasense/podserver/internal/logging"
	"github.com/florasense/podserver/internal/store"
	"github.com/florasense/podserver/internal/store/redisjson"
	"github.com/florasense/podserver/internal/store/sqlite"
)

const shutdownGrace = 10 * time.Second

var (
	configFile = flag.String("config", "configs/config.dev.yaml", "Path to the configuration file")
	logger     *zap.Logger
)

// backend bundles the two store capabilities plus cleanup.
type backend struct {
	querier store.Querier
	writer  store.Writer
	close   func() error
}

func main() {
	flag.Parse()

	cfg, err := config.Load(*configFile)
	if err != nil {
		fmt.Fprintf(os.Stderr, "FATAL: Failed to load configuration from %s: %v\n", *configFile, err)
		os.Exit(1)
	}

	var logErr error
	logger, logErr = logging.NewLogger(cfg.Log)
	if logErr != nil {
		fmt.Fprintf(os.Stderr, "FATAL: Failed to initialize logger: %v\n", logErr)
		os.Exit(1)
	}
	defer func() {
		_ = logger.Sync() // Flush buffered logs on exit
	}()

	sugar := logger.Sugar()
	sugar.Infow("Configuration loaded successfully", "path", *configFile)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	signals := make(chan os.Signal, 1)
	signal.Notify(signals, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-signals
		sugar.Infow("Received signal, initiating shutdown...", "signal", sig.String())
		cancel()
	}()

	be, err := openBackend(ctx, cfg.Store)
	if err != nil {
		sugar.Fatalw("Failed to open store backend", "backend", cfg.Store.Backend, "error", err)
	}
	defer func() {
		if err := be.close(); err != nil {
			sugar.Errorw("Failed to close store backend", "error", err)
		}
	}()
	sugar.Infow("Store backend ready", "backend", cfg.Store.Backend)

	eng := engine.New(be.querier, engine.Options{
		LivenessThreshold:  time.Duration(cfg.Engine.LivenessThresholdMinutes) * time.Minute,
		FrameLookback:      cfg.Engine.FrameLookback,
		PopularityMinCount: int64(cfg.Engine.PopularityMinCount),
		ScanLimit:          cfg.Engine.ScanLimit,
	})

	server := api.NewServer(eng, be.querier, cfg.Engine.DefaultBins, logger.Named("api"))
	httpServer := &http.Server{
		Addr:    cfg.Server.Addr,
		Handler: server.Handler(cfg.Server),
	}

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		sugar.Infow("HTTP server listening", "addr", cfg.Server.Addr)
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	})

	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), shutdownGrace)
		defer shutdownCancel()
		return httpServer.Shutdown(shutdownCtx)
	})

	if cfg.Ingest.Enabled {
		consumer, err := ingest.NewConsumer(cfg.Ingest, be.writer, logger.Named("ingest"))
		if err != nil {
			sugar.Fatalw("Failed to initialize ingest consumer", "error", err)
		}
		g.Go(func() error {
			return consumer.Run(gctx)
		})
	}

	runErr := g.Wait()
	switch {
	case runErr == nil:
		sugar.Info("Shutdown complete.")
	case errors.Is(runErr, context.Canceled):
		sugar.Info("Shutdown complete (cancelled).")
	default:
		sugar.Errorw("Stopped unexpectedly", zap.Error(runErr))
		_ = logger.Sync()
		os.Exit(1)
	}
}

func openBackend(ctx context.Context, cfg config.StoreConfig) (backend, error) {
	switch cfg.Backend {
	case "sqlite":
		s, err := sqlite.Open(cfg.SQLitePath)
		if err != nil {
			return backend{}, err
		}
		return backend{querier: s, writer: s, close: s.Close}, nil
	case "redis":
		s, err := redisjson.Open(ctx, cfg.RedisAddr)
		if err != nil {
			return backend{}, err
		}
		return backend{querier: s, writer: s, close: s.Close}, nil
	default:
		return backend{}, fmt.Errorf("unknown store backend %q", cfg.Backend)
	}
}
