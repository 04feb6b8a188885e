package config

import (
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// LLM providers supported by the generate command.
const (
	ProviderOllama  = "ollama"
	ProviderBedrock = "bedrock"
)

// Backends a run can be submitted to.
const (
	BackendVertex = "vertex"
	BackendDocker = "docker"
)

// Config holds all configuration values.
type Config struct {
	// Workspace identity
	Project       string
	Location      string
	StagingBucket string

	// Job submission
	Backend      string
	DefaultImage string
	PollInterval time.Duration

	// Logging
	LogFile  string
	LogLevel slog.Level

	// Run context inside the training container
	OutputDir      string
	MetricsURI     string
	TrainerCommand string

	// Sampling
	LLMProvider string
	LLMModel    string
	OllamaHost  string
}

// Load reads configuration from environment variables, after loading an
// optional .env file from the working directory.
func Load() Config {
	// Missing .env is fine; the process environment still applies.
	_ = godotenv.Load()

	return Config{
		Project:       getEnv("JAKETUNE_PROJECT", ""),
		Location:      getEnv("JAKETUNE_LOCATION", "us-central1"),
		StagingBucket: getEnv("JAKETUNE_STAGING_BUCKET", ""),

		Backend:      getEnv("JAKETUNE_BACKEND", BackendVertex),
		DefaultImage: getEnv("JAKETUNE_DEFAULT_IMAGE", "us-docker.pkg.dev/vertex-ai/training/pytorch-gpu.2-2.py310:latest"),
		PollInterval: parseDuration(getEnv("JAKETUNE_POLL_INTERVAL", "60s"), 60*time.Second),

		LogFile:  getEnv("JAKETUNE_LOG_FILE", "/tmp/jaketune.log"),
		LogLevel: parseLogLevel(getEnv("JAKETUNE_LOG_LEVEL", "INFO")),

		OutputDir:      getEnv("JAKETUNE_OUTPUT_DIR", "./outputs"),
		MetricsURI:     getEnv("JAKETUNE_METRICS_URI", ""),
		TrainerCommand: getEnv("JAKETUNE_TRAINER_COMMAND", "python3 -m jake_trainer"),

		LLMProvider: getEnv("JAKETUNE_LLM_PROVIDER", ProviderOllama),
		LLMModel:    getEnv("JAKETUNE_LLM_MODEL", "jake-yi34b"),
		OllamaHost:  getEnv("OLLAMA_HOST", "http://localhost:11434"),
	}
}

func getEnv(key, defaultVal string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return defaultVal
}

func parseDuration(s string, fallback time.Duration) time.Duration {
	d, err := time.ParseDuration(s)
	if err != nil || d <= 0 {
		return fallback
	}
	return d
}

func parseLogLevel(s string) slog.Level {
	switch strings.ToUpper(s) {
	case "DEBUG":
		return slog.LevelDebug
	case "INFO":
		return slog.LevelInfo
	case "WARN", "WARNING":
		return slog.LevelWarn
	case "ERROR":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
