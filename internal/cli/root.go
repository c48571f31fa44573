package cli

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/lmittmann/tint"
	"github.com/spf13/cobra"
	"github.com/vietddude/stylelog"

	"github.com/vietddude/genpost/internal/control"
	"github.com/vietddude/genpost/internal/core/config"
)

var (
	cfgPath string
	isDebug bool
)

var rootCmd = &cobra.Command{
	Use:   "genpost",
	Short: "Generate images and publish them as posts",
	Long: `genpost asks an image generation service for an image, retries transient
failures with exponential backoff, stages the result locally and publishes it
with a caption. Failed runs are kept for replay.`,
	SilenceUsage: true,
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgPath, "config", "config.yaml", "config file (default is config.yaml)")
	rootCmd.PersistentFlags().BoolVar(&isDebug, "debug", false, "enable debug logging")
}

// loadConfig reads .env and the config file, then initializes logging.
// A missing config file falls back to defaults.
func loadConfig() (*config.AppConfig, error) {
	_ = godotenv.Load()

	var cfg *config.AppConfig
	if _, err := os.Stat(cfgPath); os.IsNotExist(err) {
		cfg = config.Default()
		if err := cfg.Validate(); err != nil {
			return nil, err
		}
	} else {
		cfg, err = config.Load(cfgPath)
		if err != nil {
			stylelog.InitDefault()
			slog.Error("Failed to load config", "error", err)
			return nil, err
		}
	}

	if cfg.Generation.APIKey == "" {
		switch cfg.Generation.Provider {
		case config.ProviderOpenAI:
			cfg.Generation.APIKey = os.Getenv("OPENAI_API_KEY")
		case config.ProviderGemini:
			cfg.Generation.APIKey = os.Getenv("GEMINI_API_KEY")
		}
	}

	slogLevel := slog.LevelInfo
	if isDebug || cfg.Logging.Level == "debug" {
		slogLevel = slog.LevelDebug
	}
	stylelog.InitDefault(&tint.Options{
		Level:      slogLevel,
		TimeFormat: time.RFC3339,
	})
	return cfg, nil
}

// newApp loads configuration and builds the app under a signal-aware context.
func newApp() (*control.App, *config.AppConfig, context.Context, context.CancelFunc, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, nil, nil, nil, err
	}

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)

	app, err := control.NewApp(ctx, cfg, slog.Default())
	if err != nil {
		cancel()
		slog.Error("Failed to initialize app", "error", err)
		return nil, nil, nil, nil, err
	}
	return app, cfg, ctx, cancel, nil
}

func stopApp(app *control.App) {
	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := app.Stop(ctx); err != nil {
		slog.Error("Error during shutdown", "error", err)
	}
}
