/**
 * MRZ Scanner API - Main Entry Point
 *
 * HTTP front end for the scan engine: synchronous scan endpoints plus
 * an async path that enqueues jobs for the queue worker. Auth and rate
 * limiting switch on when API keys are configured; the async endpoints
 * switch on when Redis is reachable.
 */

package main

import (
	"context"
	"log"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/veridoc/mrzscan/internal/config"
	"github.com/veridoc/mrzscan/internal/logging"
	"github.com/veridoc/mrzscan/internal/queue"
	"github.com/veridoc/mrzscan/internal/scanner"
	"github.com/veridoc/mrzscan/internal/server"
)

func main() {
	if err := godotenv.Load(); err != nil {
		log.Printf("Warning: .env not found, using system environment variables")
	}

	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	logger := logging.NewLogger("server")
	logger.Info("MRZ scanner API starting",
		"addr", cfg.ListenAddr,
		"auth", len(cfg.APIKeys) > 0,
		"rate_limit_per_hour", cfg.RateLimitPerHour,
	)

	sc := scanner.NewScanner(cfg, logging.NewLogger("scanner"))

	// Async scanning is optional; the API degrades to sync-only when
	// Redis is unavailable.
	var enqueuer *queue.Enqueuer
	var status *queue.StatusStore
	status, err = queue.NewStatusStore(cfg.RedisURL, cfg.QueueName, time.Duration(cfg.ResultTTLHours)*time.Hour)
	if err != nil {
		logger.Warn("status store unavailable, async endpoints disabled", "error", err)
		status = nil
	} else {
		defer status.Close()
		enqueuer, err = queue.NewEnqueuer(cfg.RedisURL, cfg.QueueName, status)
		if err != nil {
			logger.Warn("enqueuer unavailable, async endpoints disabled", "error", err)
			enqueuer = nil
		} else {
			defer enqueuer.Close()
		}
	}

	srv := server.NewServer(cfg, sc, enqueuer, status, logger)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGTERM, syscall.SIGINT)
	defer stop()

	if err := srv.ListenAndServe(ctx); err != nil {
		log.Fatalf("HTTP server error: %v", err)
	}
	logger.Info("shutdown complete")
}
