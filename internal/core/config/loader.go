package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v2"
)

// Load reads configuration from a YAML file.
func Load(path string) (*AppConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}
	return Parse(data)
}

// Parse decodes YAML content, expanding environment variables first.
func Parse(data []byte) (*AppConfig, error) {
	var cfg AppConfig
	expandedData := os.ExpandEnv(string(data))
	if err := yaml.Unmarshal([]byte(expandedData), &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	cfg.ApplyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Default returns a configuration with every default applied.
func Default() *AppConfig {
	var cfg AppConfig
	cfg.ApplyDefaults()
	return &cfg
}

// ApplyDefaults fills zero values.
func (c *AppConfig) ApplyDefaults() {
	if c.Logging.Level == "" {
		c.Logging.Level = "info"
	}
	if c.Generation.Provider == "" {
		c.Generation.Provider = ProviderOpenAI
	}

	if c.Retry.MaxAttempts == 0 {
		c.Retry.MaxAttempts = 3
	}
	if c.Retry.BaseDelay == 0 {
		c.Retry.BaseDelay = 5 * time.Second
	}
	if c.Retry.Multiplier == 0 {
		c.Retry.Multiplier = 2
	}
	if c.Retry.Jitter == 0 {
		c.Retry.Jitter = time.Second
	}
	if c.Retry.AttemptTimeout == 0 {
		c.Retry.AttemptTimeout = 120 * time.Second
	}

	if c.Staging.Dir == "" {
		c.Staging.Dir = "generated_images"
	}
	if c.Staging.DownloadTimeout == 0 {
		c.Staging.DownloadTimeout = 60 * time.Second
	}

	if c.Media.Bucket == "" {
		c.Media.Bucket = "genpost-media"
	}
	if c.Media.Region == "" {
		c.Media.Region = "us-east-1"
	}

	if c.Publish.UploadTimeout == 0 {
		c.Publish.UploadTimeout = 60 * time.Second
	}
	if c.Publish.RecordTimeout == 0 {
		c.Publish.RecordTimeout = 30 * time.Second
	}

	if c.Replay.InitialDelay == 0 {
		c.Replay.InitialDelay = time.Minute
	}
	if c.Replay.MaxDelay == 0 {
		c.Replay.MaxDelay = time.Hour
	}
	if c.Replay.MaxAttempts == 0 {
		c.Replay.MaxAttempts = 5
	}

	if c.Batch.Concurrency == 0 {
		c.Batch.Concurrency = 4
	}
	if c.Server.Port == 0 {
		c.Server.Port = 9090
	}
	if c.Prompt.Preset == "" {
		c.Prompt.Preset = "default"
	}
}

// Validate rejects settings the pipeline cannot run with.
func (c *AppConfig) Validate() error {
	switch c.Generation.Provider {
	case ProviderOpenAI, ProviderGemini, ProviderFake:
	default:
		return fmt.Errorf("unknown generation provider %q", c.Generation.Provider)
	}
	if c.Retry.MaxAttempts < 1 {
		return fmt.Errorf("retry.max_attempts must be positive, got %d", c.Retry.MaxAttempts)
	}
	if c.Retry.Multiplier < 1 {
		return fmt.Errorf("retry.multiplier must be at least 1, got %v", c.Retry.Multiplier)
	}
	if c.Retry.BaseDelay < 0 || c.Retry.Jitter < 0 || c.Retry.AttemptTimeout < 0 {
		return fmt.Errorf("retry durations must not be negative")
	}
	if c.Batch.Concurrency < 1 {
		return fmt.Errorf("batch.concurrency must be positive, got %d", c.Batch.Concurrency)
	}
	if c.Server.Port < 0 {
		return fmt.Errorf("server.port must not be negative")
	}
	return nil
}
