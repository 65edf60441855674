package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/ossi-voice/ossi/internal/config"
	"github.com/ossi-voice/ossi/internal/logging"
	"github.com/ossi-voice/ossi/internal/model"
	"github.com/ossi-voice/ossi/internal/notifier"
	"github.com/ossi-voice/ossi/internal/orchestrator"
	"github.com/ossi-voice/ossi/internal/prompts"
	"github.com/ossi-voice/ossi/internal/ratelimit"
	"github.com/ossi-voice/ossi/internal/retry"
	"github.com/ossi-voice/ossi/internal/store"
	"github.com/ossi-voice/ossi/internal/transport"
)

var (
	cfgPath string
	debug   bool
)

var rootCmd = &cobra.Command{
	Use:          "ossi",
	Short:        "LLM orchestration core for the voice front end",
	Long:         "Ossi classifies caller utterances into receptionist, triage or escalation intents and runs chat completions against the messages API.",
	SilenceUsage: true,
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&cfgPath, "config", "c", "", "path to config file (default: OSSI_CONFIG env var or ./config.yaml)")
	rootCmd.PersistentFlags().BoolVar(&debug, "debug", false, "enable debug logging")
}

// loadConfig resolves the config path and parses it.
// Priority: explicit path arg > OSSI_CONFIG env var > "./config.yaml"
func loadConfig(path string) (*config.Config, error) {
	if path == "" {
		if env := os.Getenv("OSSI_CONFIG"); env != "" {
			path = env
		} else {
			path = "config.yaml"
		}
	}
	return config.Load(path)
}

// setupLogger writes to stderr so command output on stdout stays clean.
func setupLogger(cfg *config.Config, dbg bool) (*slog.Logger, error) {
	level := cfg.Log.Level
	if dbg {
		level = "debug"
	}
	return logging.New(level, cfg.Log.Format, os.Stderr)
}

// bootstrap loads config and builds the logger every command starts from.
func bootstrap() (*config.Config, *slog.Logger, error) {
	cfg, err := loadConfig(cfgPath)
	if err != nil {
		return nil, nil, fmt.Errorf("load config: %w", err)
	}
	logger, err := setupLogger(cfg, debug)
	if err != nil {
		return nil, nil, err
	}
	return cfg, logger, nil
}

// buildTransport stacks the messages client, optional request spacing and retry.
// Retry is outermost so every attempt is spaced.
func buildTransport(cfg *config.Config, logger *slog.Logger) model.Transport {
	httpClient := &http.Client{Timeout: cfg.LLM.Timeout}

	var t model.Transport = transport.NewClient(cfg.LLM.BaseURL, cfg.LLM.APIKey, cfg.LLM.APIVersion, httpClient)
	if cfg.RateLimit.MinDelay > 0 {
		logger.Debug("request spacing enabled", "min_delay", cfg.RateLimit.MinDelay.String())
		t = ratelimit.NewTransport(t, ratelimit.NewLimiter(cfg.RateLimit.MinDelay), limiterKey(cfg))
	}
	return retry.NewTransport(t, cfg.LLM.MaxRetries, cfg.LLM.BackoffBase, logger)
}

// limiterKey scopes request spacing to one endpoint and model.
func limiterKey(cfg *config.Config) string {
	return cfg.LLM.BaseURL + "|" + cfg.LLM.Model
}

// promptSource picks Redis when configured, otherwise the prompts directory.
func promptSource(cfg *config.Config) (prompts.Source, func(), error) {
	if cfg.Prompts.RedisURL != "" {
		src, err := prompts.NewRedisSource(cfg.Prompts.RedisURL, cfg.Prompts.RedisKey)
		if err != nil {
			return nil, nil, err
		}
		return src, func() { src.Close() }, nil
	}
	return prompts.NewDirSource(cfg.Prompts.Dir), func() {}, nil
}

func loadCatalog(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*prompts.Catalog, error) {
	src, closeSrc, err := promptSource(cfg)
	if err != nil {
		return nil, err
	}
	defer closeSrc()
	return prompts.Load(ctx, src, logger), nil
}

func setupNotifier(cfg *config.Config, logger *slog.Logger) model.EscalationNotifier {
	switch cfg.Notification.Type {
	case "slack":
		logger.Debug("using slack notifier")
		return notifier.NewSlackNotifier(cfg.Notification.WebhookURL, &http.Client{Timeout: 10 * time.Second}, logger)
	case "none":
		return nil
	default:
		return notifier.NewLogNotifier(logger)
	}
}

func openStore(ctx context.Context, cfg *config.Config) (*store.SQLiteStore, error) {
	if cfg.Store.Path == "" {
		return nil, fmt.Errorf("store.path is not configured")
	}
	return store.NewSQLiteStore(ctx, cfg.Store.Path)
}

// buildOrchestrator wires the full stack. The returned cleanup waits for
// pending escalation notifications and closes the classification log.
func buildOrchestrator(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*orchestrator.Orchestrator, *prompts.Catalog, func(), error) {
	catalog, err := loadCatalog(ctx, cfg, logger)
	if err != nil {
		return nil, nil, nil, err
	}

	o := orchestrator.New(orchestrator.Config{
		Model:          cfg.LLM.Model,
		MaxTokens:      cfg.LLM.MaxTokens,
		CostPerMillion: cfg.LLM.CostPerMillion,
	}, buildTransport(cfg, logger), catalog, logger)

	if n := setupNotifier(cfg, logger); n != nil {
		o.SetNotifier(n)
	}

	var st *store.SQLiteStore
	if cfg.Store.Path != "" {
		st, err = openStore(ctx, cfg)
		if err != nil {
			return nil, nil, nil, fmt.Errorf("open classification log: %w", err)
		}
		o.SetClassificationLog(st)
	} else {
		o.SetClassificationLog(store.NewNopStore())
	}

	cleanup := func() {
		o.Wait()
		if st != nil {
			st.Close()
		}
	}
	return o, catalog, cleanup, nil
}
