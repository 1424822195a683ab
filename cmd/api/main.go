package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gorilla/mux"
	"github.com/joho/godotenv"
	"github.com/robfig/cron/v3"

	"github.com/hamitcf1/aetherius/internal/config"
	"github.com/hamitcf1/aetherius/internal/events"
	"github.com/hamitcf1/aetherius/internal/handlers"
	"github.com/hamitcf1/aetherius/internal/logger"
	"github.com/hamitcf1/aetherius/internal/middleware"
	"github.com/hamitcf1/aetherius/internal/persist"
	"github.com/hamitcf1/aetherius/internal/storage"
	"github.com/hamitcf1/aetherius/pkg/combat"
	"github.com/hamitcf1/aetherius/pkg/engine"
)

func main() {
	// .env is optional; real deployments set the environment directly.
	_ = godotenv.Load()

	cfg := config.Load()
	log := logger.Setup(cfg)

	log.Info("Starting Aetherius API",
		"port", cfg.Port,
		"environment", cfg.Environment,
		"data_dir", cfg.DataDir)

	store := storage.NewRedisStore(cfg.RedisURL, cfg.DataDir, log)

	storageCtx, storageCancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer storageCancel()
	if err := store.WaitForConnection(storageCtx); err != nil {
		log.Error("Failed to connect to storage", "error", err)
		os.Exit(1)
	}
	log.Info("Storage connection established successfully")

	eng := engine.New(store, log)
	if err := eng.LoadPerks(storageCtx); err != nil {
		log.Error("Failed to load perk definitions", "error", err)
		os.Exit(1)
	}

	flusher := persist.New(store, eng, cfg.FlushInterval, log)
	broadcaster := events.NewBroadcaster(store.Client(), log)
	eng.WithSaver(flusher).WithNotifier(broadcaster)

	manager := combat.NewManager(store, log)

	flushCtx, flushCancel := context.WithCancel(context.Background())
	go flusher.Run(flushCtx)

	// Stale combat sessions resolve as fled once they pass the TTL.
	reaper := cron.New()
	if _, err := reaper.AddFunc("@every 1m", func() {
		if n := manager.Reap(cfg.SessionTTL); n > 0 {
			log.Info("Reaped idle combat sessions", "count", n)
		}
	}); err != nil {
		log.Error("Failed to schedule session reaper", "error", err)
		os.Exit(1)
	}
	reaper.Start()

	r := mux.NewRouter()
	r.Handle("/health", handlers.NewHealthHandler(store, log)).Methods(http.MethodGet)

	v1 := r.PathPrefix("/v1").Subrouter()
	handlers.NewCharacterHandler(eng, store, log).Register(v1)
	handlers.NewApplyHandler(eng, manager, broadcaster, log).Register(v1)
	handlers.NewCombatHandler(eng, manager, broadcaster, log).Register(v1)
	handlers.NewEnemiesHandler(store, log).Register(v1)

	server := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      middleware.Logger(r),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		log.Info("Server starting", "addr", server.Addr)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Error("Server failed to start", "error", err)
			os.Exit(1)
		}
	}()

	// Wait for interrupt signal to gracefully shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("Server is shutting down...")

	reaper.Stop()

	// Cancelling the flusher triggers its final flush.
	flushCancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error("Server forced to shutdown", "error", err)
	}

	if err := store.Close(); err != nil {
		log.Error("Error closing storage connection", "error", err)
	}

	log.Info("Server exited")
}
