package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/health-risk-inference-server/internal/api"
	"github.com/health-risk-inference-server/internal/audit"
	"github.com/health-risk-inference-server/internal/backend"
	"github.com/health-risk-inference-server/internal/config"
	"github.com/health-risk-inference-server/internal/coordinator"
	"github.com/health-risk-inference-server/internal/domain"
	"github.com/health-risk-inference-server/internal/ensemble"
	"github.com/health-risk-inference-server/internal/explain"
	"github.com/health-risk-inference-server/internal/features"
	"github.com/health-risk-inference-server/internal/predictor"
	"github.com/health-risk-inference-server/internal/recommend"
	"github.com/health-risk-inference-server/internal/registry"
	"github.com/health-risk-inference-server/internal/status"
)

func main() {
	// Load configuration
	configManager, err := config.NewManager()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}
	if err := configManager.Validate(); err != nil {
		log.Fatalf("Configuration validation failed: %v", err)
	}
	cfg := configManager.GetConfig()

	logger := newLogger(cfg.Logging)
	logger.WithFields(logrus.Fields{
		"host": cfg.Server.Host,
		"port": cfg.Server.Port,
	}).Info("Starting health risk inference server")

	// Status store: redis, with optional in-memory fallback.
	statusStore := newStatusStore(logger, cfg.Status)

	// Model backends.
	var loader domain.ModelLoader
	if cfg.Models.NativeWeightDir != "" {
		loader = backend.NewFileModelLoader(logger, cfg.Models.NativeWeightDir)
	}
	var external domain.ExternalModelClient
	if cfg.Runtime.BaseURL != "" {
		external = backend.NewRuntimeClient(logger, backend.RuntimeClientConfig{
			BaseURL:        cfg.Runtime.BaseURL,
			DefaultTimeout: cfg.Runtime.DefaultTimeout,
			BreakerMaxReqs: cfg.Runtime.BreakerMaxReqs,
			BreakerTimeout: cfg.Runtime.BreakerTimeout,
		})
	}

	reg, err := registry.New(logger, registry.Options{
		Loader:          loader,
		External:        external,
		PingTimeout:     2 * time.Second,
		EnsembleWeights: ensembleWeights(cfg.Models.EnsembleWeights),
		Diseases:        diseaseKeys(cfg.Models.Diseases),
	})
	if err != nil {
		logger.WithError(err).Fatal("Model registry initialization failed")
	}

	coord := coordinator.New(logger, coordinator.Config{
		TickInterval: cfg.Scheduler.TickInterval,
		BatchSize:    cfg.Scheduler.BatchSize,
		TTL: status.TTLPolicy{
			Active:    cfg.Status.ActiveTTL,
			Completed: cfg.Status.CompletedTTL,
			Failed:    cfg.Status.FailedTTL,
		},
		DefaultExternalTimeout: cfg.Runtime.DefaultTimeout,
	}, coordinator.Deps{
		Features:    features.NewPipeline(logger),
		Predictor:   predictor.New(logger, reg, external, cfg.Runtime.DefaultTimeout),
		Aggregator:  ensemble.NewAggregator(logger),
		Explainer:   explain.NewEngine(),
		Recommender: recommend.NewEngine(),
		Registry:    reg,
		StatusStore: statusStore,
		AuditSink:   audit.NewLogSink(logger),
	})

	server := api.NewServer(logger, cfg.Server, coord, reg, configManager.IsDevelopment())

	// Setup graceful shutdown
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		<-sigChan
		logger.Info("Shutdown signal received, gracefully shutting down")
		cancel()
	}()

	coord.Start(ctx)
	defer coord.Stop()

	if err := server.Start(ctx); err != nil {
		logger.WithError(err).Fatal("Server failed")
	}

	logger.Info("Server stopped")
}

func newLogger(cfg domain.LoggingConfig) *logrus.Logger {
	logger := logrus.New()

	level, err := logrus.ParseLevel(strings.ToLower(cfg.Level))
	if err != nil {
		level = logrus.InfoLevel
	}
	logger.SetLevel(level)

	if strings.ToLower(cfg.Format) == "text" {
		logger.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	} else {
		logger.SetFormatter(&logrus.JSONFormatter{})
	}

	if cfg.Output == "stderr" {
		logger.SetOutput(os.Stderr)
	} else {
		logger.SetOutput(os.Stdout)
	}
	return logger
}

// newStatusStore connects to redis, falling back to the in-memory store
// when configured to.
func newStatusStore(logger *logrus.Logger, cfg domain.StatusConfig) domain.StatusStore {
	if cfg.RedisURL != "" {
		store, err := status.NewRedisStore(logger, cfg.RedisURL)
		if err == nil {
			pingCtx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
			defer cancel()
			if pingErr := store.Ping(pingCtx); pingErr == nil {
				logger.Info("Using redis status store")
				return store
			} else {
				err = pingErr
			}
		}
		if !cfg.MemoryFallback {
			logger.WithError(err).Fatal("Redis status store unavailable")
		}
		logger.WithError(err).Warn("Redis unavailable, falling back to in-memory status store")
	}

	memStore, err := status.NewMemoryStore(cfg.MemoryMaxSize)
	if err != nil {
		logger.WithError(err).Fatal("In-memory status store initialization failed")
	}
	return memStore
}

func ensembleWeights(raw map[string]float64) map[domain.DiseaseKey]float64 {
	if len(raw) == 0 {
		return nil
	}
	weights := make(map[domain.DiseaseKey]float64, len(raw))
	for name, w := range raw {
		weights[domain.DiseaseKey(name)] = w
	}
	return weights
}

func diseaseKeys(names []string) []domain.DiseaseKey {
	keys := make([]domain.DiseaseKey, 0, len(names))
	for _, name := range names {
		keys = append(keys, domain.DiseaseKey(name))
	}
	return keys
}
