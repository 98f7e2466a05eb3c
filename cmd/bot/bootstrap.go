package main

import (
	"context"
	"fmt"
	"os"

	"github.com/joho/godotenv"

	"tw-stock-advisor/internal/engine"
	"tw-stock-advisor/internal/engine/engineobs"
	"tw-stock-advisor/internal/indicator"
	"tw-stock-advisor/internal/interfaces"
	"tw-stock-advisor/internal/llm"
	"tw-stock-advisor/internal/logger"
	"tw-stock-advisor/internal/narrative"
	"tw-stock-advisor/internal/news"
	"tw-stock-advisor/internal/notifier"
	"tw-stock-advisor/internal/pipeline"
	"tw-stock-advisor/internal/quote"
	"tw-stock-advisor/internal/store"
	"tw-stock-advisor/internal/trace"
	"tw-stock-advisor/internal/webhook"
)

// initializeSystem loads .env and starts the logger and tracer
func initializeSystem() error {
	_ = godotenv.Load()

	if err := logger.Init(); err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}

	if err := trace.Init(version); err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize tracer: %v\n", err)
	}
	return nil
}

func loadConfig(ctx context.Context) (*store.Config, error) {
	cfg, err := store.LoadConfig(configPath)
	if err != nil {
		logger.ErrorWithErr(ctx, "Failed to load config", err, "path", configPath)
		return nil, err
	}
	return cfg, nil
}

// initializePipeline wires the data sources into the coordinator and the
// configured generation backends into the narrative stage.
func initializePipeline(ctx context.Context, cfg *store.Config) (*pipeline.Coordinator, *narrative.Generator) {
	quotes := quote.NewTWSEFetcher(cfg.Quote.BaseURL, cfg.Timeouts.Quote)
	bars := indicator.NewYahooBars(cfg.Bars.BaseURL, cfg.Bars.Range, cfg.Bars.Interval)
	indicators := indicator.NewService(bars, cfg.Bars.Suffixes, cfg.Timeouts.Bars)
	feeds := news.NewAggregatorFromConfig(cfg)

	coord := pipeline.NewCoordinator(
		quotes,
		indicators,
		feeds.Domestic,
		feeds.International,
		cfg.Timeouts.Task,
		cfg.Timeouts.Aggregate,
	)

	backends := llm.NewBackends(ctx, cfg)
	names := make([]string, 0, len(backends))
	for _, b := range backends {
		names = append(names, b.Name())
	}
	logger.Info(ctx, "Generation backends ready", "backends", names)

	return coord, narrative.NewGenerator(backends, cfg.Timeouts.Narrative, cfg.Timeouts.BackendCall)
}

// initializeNotifier returns the Telegram client, or a log-only stand-in when
// no bot token is set.
func initializeNotifier(ctx context.Context, cfg *store.Config) interfaces.Notifier {
	if cfg.Secrets.TelegramToken == "" {
		logger.Warn(ctx, "TG_BOT_TOKEN not set - replies will only be logged")
		return notifier.LogOnly{}
	}
	return notifier.NewTelegram(
		cfg.Bot.APIBase,
		cfg.Secrets.TelegramToken,
		cfg.Bot.ParseMode,
		cfg.Bot.RatePerSecond,
		cfg.Timeouts.Delivery,
	)
}

func initializeEngine(agg interfaces.Aggregator, narrator interfaces.Narrator, out interfaces.Notifier, ack bool) interfaces.Engine {
	eng := engine.New(agg, narrator, out, ack)

	// Wrap with observability middleware
	return engineobs.Wrap(eng)
}

func initializeServer(cfg *store.Config, eng interfaces.Engine, out interfaces.Notifier) *webhook.Server {
	h := webhook.NewHandler(eng, out, webhook.Options{
		UsageHint: cfg.Bot.UsageHint,
		Async:     cfg.Server.Async,
	})
	return webhook.NewServer(webhook.ServerConfig{
		Addr:         cfg.Server.Addr,
		WebhookPath:  cfg.Server.WebhookPath,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}, h)
}
