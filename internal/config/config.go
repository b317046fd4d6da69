/**
 * Configuration for the MRZ scan worker
 *
 * Loads configuration from environment variables matching .env
 */

package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
)

// Config holds scanner configuration. It is passed explicitly into the
// components that consume it; nothing reads the environment after Load.
type Config struct {
	// Render resolution per quality tier
	PDFDPI     int
	PDFDPIFast int

	// Tesseract page segmentation mode per quality tier
	OCRPSMMode     int
	OCRPSMModeFast int

	// OCR language pack used for MRZ recognition
	OCRLanguage string

	// Images larger than this on either axis are downscaled before OCR
	MaxImageDimension int

	// Default page cap for PDFs; 0 means all pages
	MaxPagesDefault int

	// Ordered rotation set tried for every page, in degrees
	Rotations []int

	// Page count at which the executor switches to parallel dispatch
	ParallelThreshold int

	// Upper bound on concurrent page workers
	MaxWorkers int

	// Redis configuration for the async job queue
	RedisURL  string
	QueueName string

	// Queue worker configuration
	WorkerConcurrency int
	ScanTimeout       int // milliseconds
	ResultTTLHours    int

	// HTTP API configuration
	ListenAddr       string
	APIKeys          []string
	RateLimitPerHour int
	MaxUploadSize    int64

	// Temporary directory for render fallbacks
	TempDir string
}

// LoadConfig loads configuration from environment variables
func LoadConfig() (*Config, error) {
	cfg := &Config{
		PDFDPI:            getEnvAsIntOrDefault("PDF_DPI", 300),
		PDFDPIFast:        getEnvAsIntOrDefault("PDF_DPI_FAST", 200),
		OCRPSMMode:        getEnvAsIntOrDefault("OCR_PSM_MODE", 6),
		OCRPSMModeFast:    getEnvAsIntOrDefault("OCR_PSM_MODE_FAST", 11),
		OCRLanguage:       getEnvOrDefault("OCR_LANGUAGE", "mrz"),
		MaxImageDimension: getEnvAsIntOrDefault("MAX_IMAGE_DIMENSION", 4000),
		MaxPagesDefault:   getEnvAsIntOrDefault("MAX_PAGES_DEFAULT", 0),
		Rotations:         getEnvAsIntListOrDefault("ROTATIONS", []int{0, -90, 90}),
		ParallelThreshold: getEnvAsIntOrDefault("PARALLEL_THRESHOLD", 3),
		MaxWorkers:        getEnvAsIntOrDefault("MAX_WORKERS", 4),
		RedisURL:          getEnvOrDefault("REDIS_URL", "redis://localhost:6379"),
		QueueName:         getEnvOrDefault("QUEUE_NAME", "mrzscan:jobs"),
		WorkerConcurrency: getEnvAsIntOrDefault("WORKER_CONCURRENCY", 4),
		ScanTimeout:       getEnvAsIntOrDefault("SCAN_TIMEOUT", 300000), // 5 minutes
		ResultTTLHours:    getEnvAsIntOrDefault("RESULT_TTL_HOURS", 24),
		ListenAddr:        getEnvOrDefault("LISTEN_ADDR", ":8080"),
		APIKeys:           getEnvAsKeyListOrDefault("API_KEYS", nil),
		RateLimitPerHour:  getEnvAsIntOrDefault("RATE_LIMIT_PER_HOUR", 100),
		MaxUploadSize:     getEnvAsInt64OrDefault("MAX_UPLOAD_SIZE", 52428800), // 50MB
		TempDir:           getEnvOrDefault("TEMP_DIR", os.TempDir()),
	}

	// Single API_KEY is accepted as a one-element key list
	if len(cfg.APIKeys) == 0 {
		if key := strings.TrimSpace(os.Getenv("API_KEY")); key != "" {
			cfg.APIKeys = []string{key}
		}
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return cfg, nil
}

// Validate checks if configuration is valid
func (c *Config) Validate() error {
	if c.PDFDPI < 72 || c.PDFDPI > 1200 {
		return fmt.Errorf("PDF_DPI must be between 72 and 1200, got %d", c.PDFDPI)
	}

	if c.PDFDPIFast < 72 || c.PDFDPIFast > c.PDFDPI {
		return fmt.Errorf("PDF_DPI_FAST must be between 72 and PDF_DPI (%d), got %d", c.PDFDPI, c.PDFDPIFast)
	}

	if c.OCRPSMMode < 0 || c.OCRPSMMode > 13 {
		return fmt.Errorf("OCR_PSM_MODE must be a valid Tesseract PSM (0-13), got %d", c.OCRPSMMode)
	}

	if c.OCRPSMModeFast < 0 || c.OCRPSMModeFast > 13 {
		return fmt.Errorf("OCR_PSM_MODE_FAST must be a valid Tesseract PSM (0-13), got %d", c.OCRPSMModeFast)
	}

	if c.MaxImageDimension < 500 {
		return fmt.Errorf("MAX_IMAGE_DIMENSION must be at least 500, got %d", c.MaxImageDimension)
	}

	if c.MaxPagesDefault < 0 {
		return fmt.Errorf("MAX_PAGES_DEFAULT must not be negative, got %d", c.MaxPagesDefault)
	}

	if len(c.Rotations) == 0 {
		return fmt.Errorf("ROTATIONS must list at least one rotation")
	}
	for _, r := range c.Rotations {
		switch r {
		case 0, 90, -90, 180:
		default:
			return fmt.Errorf("ROTATIONS entries must be one of 0, 90, -90, 180, got %d", r)
		}
	}

	if c.ParallelThreshold < 1 {
		return fmt.Errorf("PARALLEL_THRESHOLD must be at least 1, got %d", c.ParallelThreshold)
	}

	if c.MaxWorkers < 1 || c.MaxWorkers > 64 {
		return fmt.Errorf("MAX_WORKERS must be between 1 and 64, got %d", c.MaxWorkers)
	}

	if c.WorkerConcurrency < 1 || c.WorkerConcurrency > 100 {
		return fmt.Errorf("WORKER_CONCURRENCY must be between 1 and 100, got %d", c.WorkerConcurrency)
	}

	if c.RedisURL == "" {
		return fmt.Errorf("REDIS_URL is required")
	}

	return nil
}

// getEnvOrDefault gets environment variable or returns default
func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getEnvAsIntOrDefault gets environment variable as int or returns default
func getEnvAsIntOrDefault(key string, defaultValue int) int {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}

	value, err := strconv.Atoi(valueStr)
	if err != nil {
		return defaultValue
	}

	return value
}

// getEnvAsInt64OrDefault gets environment variable as int64 or returns default
func getEnvAsInt64OrDefault(key string, defaultValue int64) int64 {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}

	value, err := strconv.ParseInt(valueStr, 10, 64)
	if err != nil {
		return defaultValue
	}

	return value
}

// getEnvAsIntListOrDefault parses a comma-separated list of integers
func getEnvAsIntListOrDefault(key string, defaultValue []int) []int {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}

	parts := strings.Split(valueStr, ",")
	values := make([]int, 0, len(parts))
	for _, p := range parts {
		v, err := strconv.Atoi(strings.TrimSpace(p))
		if err != nil {
			return defaultValue
		}
		values = append(values, v)
	}
	if len(values) == 0 {
		return defaultValue
	}
	return values
}

// getEnvAsKeyListOrDefault parses comma- or space-separated API keys
func getEnvAsKeyListOrDefault(key string, defaultValue []string) []string {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}

	var keys []string
	for _, part := range strings.Split(valueStr, ",") {
		for _, k := range strings.Fields(part) {
			keys = append(keys, k)
		}
	}
	if len(keys) == 0 {
		return defaultValue
	}
	return keys
}
