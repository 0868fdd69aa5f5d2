package config

import (
	"fmt"
	"os"
	"strconv"
	"time"
)

type Config struct {
	Port string

	// Auth
	APIKey string

	// Worker pool
	WorkerCount  int
	MaxQueueSize int

	// Request limits
	MaxBodyBytes int64

	// Job state
	JobTTL time.Duration

	// Remote artifact store; empty URL keeps artifacts in memory.
	ArtifactStoreURL    string
	ArtifactStoreAPIKey string

	// Page geometry
	LayoutConfigPath string
	Layout           Layout

	// Artifact output
	PreviewPxPerMM float64
	PDFCompress    bool

	layoutErr error
}

func Load() Config {
	cfg := Config{
		Port: envOr("PORT", "8091"),

		APIKey: os.Getenv("EXAMPRESS_API_KEY"),

		WorkerCount:  envInt("WORKER_COUNT", 2),
		MaxQueueSize: envInt("MAX_QUEUE_SIZE", 50),

		MaxBodyBytes: envInt64("MAX_BODY_BYTES", 33554432), // 32MB, images are inline

		JobTTL: envDuration("JOB_TTL", 1*time.Hour),

		ArtifactStoreURL:    os.Getenv("ARTIFACT_STORE_URL"),
		ArtifactStoreAPIKey: os.Getenv("ARTIFACT_STORE_API_KEY"),

		LayoutConfigPath: os.Getenv("LAYOUT_CONFIG"),

		PreviewPxPerMM: envFloat("PREVIEW_PX_PER_MM", 4),
		PDFCompress:    envBool("PDF_COMPRESS", true),
	}

	if cfg.WorkerCount <= 0 {
		cfg.WorkerCount = 2
	}
	if cfg.MaxQueueSize <= 0 {
		cfg.MaxQueueSize = 50
	}
	if cfg.MaxBodyBytes <= 0 {
		cfg.MaxBodyBytes = 33554432
	}
	if cfg.JobTTL <= 0 {
		cfg.JobTTL = 1 * time.Hour
	}
	if cfg.PreviewPxPerMM <= 0 {
		cfg.PreviewPxPerMM = 4
	}

	cfg.Layout = DefaultLayout()
	if cfg.LayoutConfigPath != "" {
		cfg.Layout, cfg.layoutErr = LoadLayout(cfg.LayoutConfigPath)
	}

	return cfg
}

func (c Config) Validate() error {
	if c.APIKey == "" {
		return fmt.Errorf("EXAMPRESS_API_KEY is required")
	}
	if c.layoutErr != nil {
		return fmt.Errorf("LAYOUT_CONFIG: %w", c.layoutErr)
	}
	if err := c.Layout.Validate(); err != nil {
		return fmt.Errorf("layout: %w", err)
	}
	return nil
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return fallback
}

func envInt64(key string, fallback int64) int64 {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.ParseInt(v, 10, 64); err == nil {
			return n
		}
	}
	return fallback
}

func envFloat(key string, fallback float64) float64 {
	if v := os.Getenv(key); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			return f
		}
	}
	return fallback
}

func envBool(key string, fallback bool) bool {
	if v := os.Getenv(key); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			return b
		}
	}
	return fallback
}

func envDuration(key string, fallback time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return fallback
}
