package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/rawblock/ringwatch-engine/internal/api"
	"github.com/rawblock/ringwatch-engine/internal/config"
	"github.com/rawblock/ringwatch-engine/internal/db"
	"github.com/rawblock/ringwatch-engine/internal/heuristics"
	"github.com/rawblock/ringwatch-engine/internal/logger"
	"github.com/rawblock/ringwatch-engine/internal/metrics"
	"github.com/rawblock/ringwatch-engine/internal/service"
	"github.com/rawblock/ringwatch-engine/internal/store"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		logrus.Fatalf("Failed to load configuration: %v", err)
	}
	logger.Init(cfg.Logging)
	gin.SetMode(cfg.Server.GinMode)

	logrus.WithFields(logrus.Fields{
		"port":             cfg.Server.Port,
		"max_cycle_length": cfg.Detection.MaxCycleLength,
		"max_cycles":       cfg.Detection.MaxCycles,
	}).Info("Starting RingWatch fraud ring detection engine")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// ─── Optional Ledger Database ───────────────────────────────────────
	// Without DATABASE_URL the engine still serves uploads and JSON input;
	// only /analyze/ledger answers 503.
	// ────────────────────────────────────────────────────────────────────

	var ledger service.LedgerSource
	if cfg.Database.URL != "" {
		ledgerStore, err := db.Connect(ctx, cfg.Database.URL, cfg.Database.LedgerTable)
		if err != nil {
			logrus.WithError(err).Warn("Failed to connect to PostgreSQL, ledger ingestion disabled")
		} else {
			defer ledgerStore.Close()
			if cfg.Database.InitSchema {
				if err := ledgerStore.InitSchema(ctx); err != nil {
					logrus.WithError(err).Warn("DB schema init failed")
				}
			}
			ledger = ledgerStore
		}
	}

	reg := metrics.NewRegistry()

	// Setup WebSocket Hub
	wsHub := api.NewHub(cfg.Server.AllowedOrigins, reg.StreamClients)
	go wsHub.Run()

	detCfg := heuristics.DefaultConfig()
	detCfg.MaxCycleLength = cfg.Detection.MaxCycleLength
	detCfg.MaxCycles = cfg.Detection.MaxCycles
	analyzer := service.NewAnalyzer(heuristics.NewDetector(detCfg), store.NewResultStore(), reg, wsHub)

	limiter := api.NewRateLimiter(cfg.RateLimit.PerMinute, cfg.RateLimit.Burst)
	defer limiter.Stop()

	// Setup the Gin Router
	r := api.SetupRouter(api.RouterConfig{
		AllowedOrigins:  cfg.Server.AllowedOrigins,
		MaxUploadBytes:  cfg.Server.MaxUploadBytes,
		LedgerLoadLimit: cfg.Database.LoadLimit,
		RateLimiter:     limiter,
	}, analyzer, ledger, wsHub, reg)

	server := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      r,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	go func() {
		logrus.WithField("address", server.Addr).Info("Engine listening")
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logrus.Fatalf("Failed to start server: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logrus.Info("Shutting down server...")
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), cfg.Server.GracefulTimeout)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		logrus.Errorf("Server forced to shutdown: %v", err)
	}
	wsHub.Close()
	cancel()

	logrus.Info("Server exited")
}
