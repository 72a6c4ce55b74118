// Command tribunal runs the transcript evaluation pipeline: it discovers
// recorded games under the configured input directory, has an LLM judge rank
// every player per criterion, and writes per-game and aggregate artifacts.
package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"go.opentelemetry.io/otel"
	"golang.org/x/time/rate"

	"github.com/ahrav/go-tribunal/infrastructure/gamelog"
	"github.com/ahrav/go-tribunal/infrastructure/llm"
	"github.com/ahrav/go-tribunal/infrastructure/middleware"
	"github.com/ahrav/go-tribunal/infrastructure/output"
	"github.com/ahrav/go-tribunal/internal/application"
	"github.com/ahrav/go-tribunal/internal/domain"
	"github.com/ahrav/go-tribunal/internal/ports"
)

// defaultRequestTimeout bounds a single judge call end to end.
const defaultRequestTimeout = 5 * time.Minute

func main() {
	var (
		configPath = flag.String("config", "", "Path to the settings YAML file (required)")
		debug      = flag.Bool("debug", false, "Enable debug logging")
		regenerate = flag.Bool("regenerate-aggregation", false,
			"Rebuild the aggregate artifacts from persisted game results without calling the LLM")
	)
	flag.Parse()

	level := slog.LevelInfo
	if *debug {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))

	if *configPath == "" {
		fmt.Fprintln(os.Stderr, "usage: tribunal --config <path> [--debug] [--regenerate-aggregation]")
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, *configPath, *regenerate, logger); err != nil {
		logger.Error("run failed", "error", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, configPath string, regenerate bool, logger *slog.Logger) error {
	cfg, err := application.LoadConfig(configPath, logger)
	if err != nil {
		return err
	}

	criteria, err := application.LoadCriteria(cfg.Path.EvaluationCriteria)
	if err != nil {
		return err
	}

	writer, err := output.NewWriter(cfg.Path.OutputDir, logger)
	if err != nil {
		return err
	}

	if regenerate {
		store, err := output.NewStore(cfg.Path.OutputDir, logger)
		if err != nil {
			return err
		}
		return application.RegenerateAggregation(ctx, store, writer, criteria, logger)
	}

	if cfg.Path.Env != "" {
		if err := godotenv.Load(cfg.Path.Env); err != nil {
			logger.Warn("could not load env file", "path", cfg.Path.Env, "error", err)
		}
	}

	metrics := middleware.NewPrometheusMetrics()

	judge, err := buildJudge(cfg, metrics, logger)
	if err != nil {
		return err
	}

	evaluator, err := application.NewGameEvaluator(
		judge,
		criteria,
		application.DefaultRetryPolicy(*cfg.Processing.MaxRetries),
		cfg.Processing.EvaluationWorkers,
		logger,
		metrics,
	)
	if err != nil {
		return err
	}

	format, err := domain.ParseGameFormat(cfg.Game.Format)
	if err != nil {
		return err
	}
	loader, err := gamelog.NewLoader(format, cfg.Game.PlayerCount, logger)
	if err != nil {
		return err
	}

	pipeline, err := application.NewGamePipeline(loader, evaluator, writer, logger)
	if err != nil {
		return err
	}

	source, err := gamelog.NewSource(cfg.Path.InputDir, logger)
	if err != nil {
		return err
	}

	batch, err := application.NewBatchProcessor(
		source, pipeline, writer, criteria,
		cfg.Processing.MaxWorkers, logger, metrics)
	if err != nil {
		return err
	}

	_, err = batch.ProcessAllGames(ctx)
	return err
}

// buildJudge assembles the provider, middleware chain, and ranking judge
// from configuration.
func buildJudge(cfg *application.Config, metrics ports.MetricsCollector, logger *slog.Logger) (ports.Judge, error) {
	apiKey, err := providerAPIKey(cfg.LLM.Provider)
	if err != nil {
		return nil, err
	}

	core, err := llm.NewCoreLLM(llm.ClientConfig{
		Provider: cfg.LLM.Provider,
		APIKey:   apiKey,
		Model:    cfg.LLM.Model,
	})
	if err != nil {
		return nil, err
	}

	middlewares := []llm.Middleware{
		llm.MetricsMiddleware(metrics),
		llm.TimeoutMiddleware(defaultRequestTimeout),
	}
	if cfg.LLM.RequestsPerSecond > 0 {
		middlewares = append([]llm.Middleware{
			llm.RateLimitMiddleware(rate.Limit(cfg.LLM.RequestsPerSecond), 1),
		}, middlewares...)
	}

	prompts, err := llm.LoadPrompts(cfg.LLM.PromptFile)
	if err != nil {
		return nil, err
	}

	return llm.NewRankingJudge(
		llm.NewClient(llm.Chain(core, middlewares...)),
		prompts,
		llm.JudgeConfig{
			Temperature: cfg.LLM.Temperature,
			MaxTokens:   cfg.LLM.MaxTokens,
		},
		otel.Tracer("tribunal/judge"),
		logger,
	)
}

// providerAPIKey resolves the credential environment variable for the
// configured provider.
func providerAPIKey(provider string) (string, error) {
	envVars := map[string]string{
		"openai":    "OPENAI_API_KEY",
		"anthropic": "ANTHROPIC_API_KEY",
		"google":    "GOOGLE_API_KEY",
	}
	envVar, ok := envVars[provider]
	if !ok {
		return "", fmt.Errorf("no API key variable known for provider %q", provider)
	}
	key := os.Getenv(envVar)
	if key == "" {
		return "", fmt.Errorf("%s is not set", envVar)
	}
	return key, nil
}
