package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"kcas/spotprice/internal/config"
	"kcas/spotprice/internal/httpapi"
	"kcas/spotprice/internal/metrics"
	"kcas/spotprice/internal/pricing"
	"kcas/spotprice/internal/publish"
	"kcas/spotprice/internal/sensor"
	"kcas/spotprice/pkg/providers"
)

func newLogger(level string) (*zap.Logger, error) {
	lvl, err := zapcore.ParseLevel(level)
	if err != nil {
		lvl = zapcore.InfoLevel
	}
	cfg := zap.NewProductionConfig()
	cfg.Level = zap.NewAtomicLevelAt(lvl)
	return cfg.Build()
}

func main() {
	cfg, err := config.Load()
	if err != nil {
		zap.NewExample().Sugar().Fatalf("Failed to load config: %v", err)
	}

	base, err := newLogger(cfg.LogLevel)
	if err != nil {
		zap.NewExample().Sugar().Fatalf("Failed to create logger: %v", err)
	}
	defer base.Sync()
	logger := base.Sugar()
	logger.Info("Starting spot price sensor...")

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Create and configure provider using factory
	factory := providers.NewProviderFactory(logger)
	if err := factory.ValidateProviderConfig(cfg); err != nil {
		logger.Fatalf("Invalid provider configuration: %v", err)
	}
	provider, err := factory.CreateProvider(cfg)
	if err != nil {
		logger.Fatalf("Failed to create provider: %v", err)
	}
	logger.Infof("Configured data provider: %s", provider.GetName())

	opts, transformCfg, err := sensor.OptionsFromConfig(cfg)
	if err != nil {
		logger.Fatalf("Invalid sensor configuration: %v", err)
	}

	registry := prometheus.NewRegistry()
	m := metrics.New(registry)

	var publishers []sensor.Publisher
	if cfg.NodeName != "" {
		p, err := publish.NewInClusterAnnotationPublisher(cfg.NodeName)
		if err != nil {
			logger.Fatalf("Failed to create node annotation publisher: %v", err)
		}
		publishers = append(publishers, p)
		logger.Infof("Publishing to annotations of node %s", cfg.NodeName)
	}
	if len(cfg.KafkaBrokers) > 0 {
		p := publish.NewKafkaPublisher(cfg.KafkaBrokers, cfg.KafkaTopic)
		defer p.Close()
		publishers = append(publishers, p)
		logger.Infof("Publishing to Kafka topic %s", cfg.KafkaTopic)
	}

	s := sensor.New(opts, pricing.NewTransformer(transformCfg), provider, logger, m, publishers...)

	srv := &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           httpapi.NewRouter(s, registry),
		ReadHeaderTimeout: 5 * time.Second,
	}
	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Errorf("HTTP server failed: %v", err)
			stop()
		}
	}()

	scheduler := sensor.NewScheduler(cfg.TickInterval, opts.Location, s, logger)
	if err := s.Run(ctx, scheduler.Run(ctx)); err != nil {
		logger.Errorf("Sensor stopped: %v", err)
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Warnf("HTTP shutdown: %v", err)
	}
}
