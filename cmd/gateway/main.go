// cmd/gateway/main.go
package main

import (
	"context"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"siem-anomaly-gateway/internal/alerting"
	"siem-anomaly-gateway/internal/anomaly"
	"siem-anomaly-gateway/internal/api"
	"siem-anomaly-gateway/internal/auth"
	"siem-anomaly-gateway/internal/config"
	"siem-anomaly-gateway/internal/loader"
	"siem-anomaly-gateway/internal/logging"
	"siem-anomaly-gateway/internal/query"
	"siem-anomaly-gateway/internal/refresh"
	"siem-anomaly-gateway/internal/storage"
	"siem-anomaly-gateway/internal/websocket"
)

func main() {
	configPath := flag.String("config", ".", "Path to the configuration file directory")
	hashPassword := flag.String("hash-password", "", "Print a bcrypt hash for the given dashboard password and exit")
	flag.Parse()

	if *hashPassword != "" {
		hash, err := auth.HashPassword(*hashPassword)
		if err != nil {
			fmt.Fprintf(os.Stderr, "hashing password: %v\n", err)
			os.Exit(1)
		}
		fmt.Println(hash)
		return
	}

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "loading config: %v\n", err)
		os.Exit(1)
	}

	log := logging.New(logging.Options{
		Level:      cfg.Logging.Level,
		File:       cfg.Logging.File,
		MaxSizeMB:  cfg.Logging.MaxSizeMB,
		MaxBackups: cfg.Logging.MaxBackups,
		MaxAgeDays: cfg.Logging.MaxAgeDays,
	})
	defer log.Sync()

	if cfg.Alerts.SeedSample {
		if err := loader.SeedSampleData(cfg.Alerts.LogPath); err != nil {
			log.Warn("seeding sample data", zap.Error(err))
		}
	}

	classifier, err := anomaly.NewClassifier(cfg.Severity.Thresholds)
	if err != nil {
		log.Fatal("building classifier", zap.Error(err))
	}

	store := storage.NewEventStore()
	engine := query.NewEngine(classifier)
	hub := websocket.NewHub(log.Named("hub"))
	alerter := alerting.NewAlerter(hub, classifier, log.Named("alerting"))
	ld := loader.New(cfg.Alerts.LogPath, log.Named("loader"))

	defaultSpec := func(now time.Time) query.Spec {
		cutoff, _ := query.ResolveRange(query.RangeHour, now)
		spec, _ := query.NewSpec(cutoff, cfg.Score.DefaultMin, cfg.Score.DefaultMax, nil, query.LabelAll)
		return spec
	}
	scheduler := refresh.NewScheduler(refresh.Options{
		Interval:    cfg.Refresh.Interval,
		LogPath:     cfg.Alerts.LogPath,
		DefaultSpec: defaultSpec,
	}, ld, store, engine, alerter, hub, log.Named("refresh"))

	authMgr := auth.NewManager(auth.Config{
		APIKeys:               cfg.Auth.APIKeys,
		JWTSecret:             cfg.Auth.JWTSecret,
		JWTExpirationMinutes:  cfg.Auth.JWTExpirationMinutes,
		DashboardPasswordHash: cfg.Auth.DashboardPasswordHash,
	})

	handler := api.NewHandler(store, engine, scheduler, hub, authMgr,
		api.ScoreDefaults{Min: cfg.Score.DefaultMin, Max: cfg.Score.DefaultMax},
		log.Named("api"))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	go hub.Run(ctx)
	go func() {
		if err := scheduler.Run(ctx); err != nil {
			log.Error("scheduler stopped", zap.Error(err))
		}
	}()

	queryServer := &http.Server{
		Addr:    fmt.Sprintf(":%d", cfg.Server.APIPort),
		Handler: api.SetupQueryRouter(handler),
	}
	dashboardServer := &http.Server{
		Addr:    fmt.Sprintf(":%d", cfg.Server.DashboardPort),
		Handler: api.SetupDashboardRouter(handler),
	}

	go func() {
		log.Info("query API listening", zap.Int("port", cfg.Server.APIPort))
		if err := queryServer.ListenAndServe(); err != http.ErrServerClosed {
			log.Fatal("query server error", zap.Error(err))
		}
	}()
	go func() {
		log.Info("dashboard seam listening", zap.Int("port", cfg.Server.DashboardPort))
		if err := dashboardServer.ListenAndServe(); err != http.ErrServerClosed {
			log.Fatal("dashboard server error", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info("shutting down")

	cancel() // stop the scheduler after the in-flight cycle drains

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	if err := queryServer.Shutdown(shutdownCtx); err != nil {
		log.Warn("query server shutdown", zap.Error(err))
	}
	if err := dashboardServer.Shutdown(shutdownCtx); err != nil {
		log.Warn("dashboard server shutdown", zap.Error(err))
	}

	log.Info("stopped")
}
