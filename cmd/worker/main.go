/**
 * MRZ Scan Worker - Main Entry Point
 *
 * Consumes scan jobs from the Redis-backed queue, runs the page/rotation
 * search engine against Tesseract, and publishes results to the job
 * status store.
 */

package main

import (
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/veridoc/mrzscan/internal/config"
	"github.com/veridoc/mrzscan/internal/logging"
	"github.com/veridoc/mrzscan/internal/queue"
	"github.com/veridoc/mrzscan/internal/scanner"
)

func main() {
	if err := godotenv.Load(); err != nil {
		log.Printf("Warning: .env not found, using system environment variables")
	}

	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	logger := logging.NewLogger("worker")
	logger.Info("MRZ scan worker starting",
		"redis", cfg.RedisURL,
		"queue", cfg.QueueName,
		"concurrency", cfg.WorkerConcurrency,
	)

	status, err := queue.NewStatusStore(cfg.RedisURL, cfg.QueueName, time.Duration(cfg.ResultTTLHours)*time.Hour)
	if err != nil {
		log.Fatalf("Failed to connect to status store: %v", err)
	}
	defer status.Close()

	sc := scanner.NewScanner(cfg, logging.NewLogger("scanner"))

	consumer, err := queue.NewConsumer(&queue.ConsumerConfig{
		RedisURL:    cfg.RedisURL,
		QueueName:   cfg.QueueName,
		Concurrency: cfg.WorkerConcurrency,
		ScanTimeout: int64(cfg.ScanTimeout),
	}, sc, status, logging.NewLogger("queue"))
	if err != nil {
		log.Fatalf("Failed to initialize queue consumer: %v", err)
	}

	if err := consumer.Start(); err != nil {
		log.Fatalf("Failed to start queue consumer: %v", err)
	}

	logger.Info("worker ready, waiting for jobs")

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM, syscall.SIGINT)
	sig := <-sigChan
	logger.Info("shutdown signal received", "signal", sig)

	if err := consumer.Stop(); err != nil {
		logger.Error("error stopping queue consumer", "error", err)
	}
	logger.Info("shutdown complete")
}
