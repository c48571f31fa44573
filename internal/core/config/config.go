package config

import (
	"time"

	redisclient "github.com/vietddude/genpost/internal/infra/redis"
	"github.com/vietddude/genpost/internal/infra/objectstore"
	"github.com/vietddude/genpost/internal/infra/storage/postgres"
)

// AppConfig represents the top-level configuration.
type AppConfig struct {
	Server     ServerConfig       `yaml:"server"`
	Logging    LoggingConfig      `yaml:"logging"`
	Generation GenerationConfig   `yaml:"generation"`
	Retry      RetryConfig        `yaml:"retry"`
	Staging    StagingConfig      `yaml:"staging"`
	Media      MediaConfig        `yaml:"media"`
	Publish    PublishConfig      `yaml:"publish"`
	Database   postgres.Config    `yaml:"database"`
	Redis      redisclient.Config `yaml:"redis"`
	Replay     ReplayConfig       `yaml:"replay"`
	Batch      BatchConfig        `yaml:"batch"`
	Prompt     PromptConfig       `yaml:"prompt"`
}

// ServerConfig holds HTTP server settings. Port 0 disables the server.
type ServerConfig struct {
	Port int `yaml:"port"`
}

// LoggingConfig holds logging configuration.
type LoggingConfig struct {
	Level string `yaml:"level"` // debug, info, warn, error
}

// Generation providers.
const (
	ProviderOpenAI = "openai"
	ProviderGemini = "gemini"
	ProviderFake   = "fake"
)

// GenerationConfig selects and configures the generation service.
type GenerationConfig struct {
	Provider    string `yaml:"provider"`
	APIKey      string `yaml:"api_key"`
	BaseURL     string `yaml:"base_url"`
	Model       string `yaml:"model"`
	Size        string `yaml:"size"`         // openai
	Quality     string `yaml:"quality"`      // openai
	AspectRatio string `yaml:"aspect_ratio"` // gemini
	FailFirst   int    `yaml:"fail_first"`   // fake
}

// RetryConfig configures the generation retry controller.
type RetryConfig struct {
	MaxAttempts    int           `yaml:"max_attempts"`
	BaseDelay      time.Duration `yaml:"base_delay"`
	Multiplier     float64       `yaml:"multiplier"`
	Jitter         time.Duration `yaml:"jitter"`
	AttemptTimeout time.Duration `yaml:"attempt_timeout"`
}

// StagingConfig configures local artifact storage.
type StagingConfig struct {
	Dir             string        `yaml:"dir"`
	DownloadTimeout time.Duration `yaml:"download_timeout"`
	MaxAge          time.Duration `yaml:"max_age"` // 0 disables the sweeper
}

// MediaConfig configures the media bucket. An empty endpoint keeps media in memory.
type MediaConfig struct {
	objectstore.S3Config `yaml:",inline"`
}

// PublishConfig bounds the publishing calls.
type PublishConfig struct {
	UploadTimeout time.Duration `yaml:"upload_timeout"`
	RecordTimeout time.Duration `yaml:"record_timeout"`
}

// ReplayConfig configures dead-letter replays.
type ReplayConfig struct {
	InitialDelay time.Duration `yaml:"initial_delay"`
	MaxDelay     time.Duration `yaml:"max_delay"`
	MaxAttempts  int           `yaml:"max_attempts"`
}

// BatchConfig configures batch mode.
type BatchConfig struct {
	Concurrency int `yaml:"concurrency"`
}

// PromptConfig locates prompt presets.
type PromptConfig struct {
	Path    string `yaml:"path"`
	Preset  string `yaml:"preset"`
	Caption string `yaml:"caption"`
}
