package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"wallet-settlement-go/internal/assets"
	"wallet-settlement-go/internal/common"
	"wallet-settlement-go/internal/config"
	"wallet-settlement-go/internal/handlers"
	"wallet-settlement-go/internal/models"
	"wallet-settlement-go/internal/notify"
	"wallet-settlement-go/internal/pricing"
	"wallet-settlement-go/internal/settlement"
	"wallet-settlement-go/internal/stats"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

const shutdownTimeout = 10 * time.Second

func main() {
	cfg, err := config.Load()
	if err != nil {
		_, _ = zap.NewProduction()
		zap.L().Fatal("Failed to load configuration", zap.Error(err))
	}

	_, loggerCleanup := common.InitializeLogger(cfg.Log)
	defer loggerCleanup()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	zap.L().Info("Starting wallet settlement server")

	registry, err := assets.Load(cfg.Server.AssetsFile)
	if err != nil {
		zap.L().Fatal("Failed to load asset registry",
			zap.String("file", cfg.Server.AssetsFile),
			zap.Error(err))
	}
	zap.L().Info("Asset registry loaded", zap.Strings("symbols", registry.Symbols()))

	dbService, err := common.InitializeDatabase(ctx, cfg)
	if err != nil {
		zap.L().Fatal("Failed to initialize database", zap.Error(err))
	}
	defer dbService.Close()

	prices := pricing.NewCache()
	prices.Load(registry.SeedPrices())

	sink, sinkCleanup := buildSink(cfg.Notify)
	defer sinkCleanup()

	statsSvc := stats.NewService(dbService, prices)
	engine := settlement.NewEngine(dbService, registry, prices, statsSvc, sink, notify.ZapEmailSink{})

	if cfg.Stats.RefreshInterval > 0 {
		go runStatsSweep(ctx, statsSvc, cfg.Stats.RefreshInterval)
	}

	router := gin.New()
	router.Use(gin.Recovery())
	handler := handlers.NewHandler(engine, statsSvc, dbService, prices)
	handler.RegisterRoutes(router)

	server := &http.Server{
		Addr:    ":" + cfg.Server.Port,
		Handler: router,
	}

	go func() {
		zap.L().Info("HTTP server listening", zap.String("port", cfg.Server.Port))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			zap.L().Fatal("HTTP server failed", zap.Error(err))
		}
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	sig := <-sigCh
	zap.L().Info("Shutdown signal received", zap.String("signal", sig.String()))

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer shutdownCancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		zap.L().Error("HTTP server shutdown failed", zap.Error(err))
	}
	zap.L().Info("Server stopped")
}

// buildSink picks the notification transport. Without a NATS URL events
// go to the structured log only, which is enough for local development.
func buildSink(cfg models.NotifyConfig) (notify.Sink, func()) {
	if cfg.NatsUrl == "" {
		zap.L().Info("No NATS_URL configured, logging events locally")
		return notify.ZapSink{}, func() {}
	}

	natsSink, err := notify.NewNATSSink(cfg.NatsUrl, cfg.SubjectPrefix)
	if err != nil {
		zap.L().Warn("Failed to connect to NATS, falling back to log sink",
			zap.String("url", cfg.NatsUrl),
			zap.Error(err))
		return notify.ZapSink{}, func() {}
	}

	zap.L().Info("Publishing events to NATS",
		zap.String("url", cfg.NatsUrl),
		zap.String("subject_prefix", cfg.SubjectPrefix))
	return natsSink, natsSink.Close
}

func runStatsSweep(ctx context.Context, statsSvc *stats.Service, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	zap.L().Info("Periodic stats sweep enabled", zap.Duration("interval", interval))

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			refreshed, err := statsSvc.RefreshAll(ctx)
			if err != nil {
				zap.L().Error("Stats sweep failed", zap.Error(err))
				continue
			}
			zap.L().Debug("Stats sweep completed", zap.Int("users", refreshed))
		}
	}
}
