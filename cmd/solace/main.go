// Package main provides the entry point for the Solace companion bot.
package main

import (
	"context"
	_ "embed"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/bwmarrin/discordgo"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"golang.org/x/sync/errgroup"

	"github.com/solacebot/solace/internal/completion"
	"github.com/solacebot/solace/internal/config"
	"github.com/solacebot/solace/internal/conversation"
	"github.com/solacebot/solace/internal/crisis"
	"github.com/solacebot/solace/internal/discord"
	"github.com/solacebot/solace/internal/dispatch"
	"github.com/solacebot/solace/internal/messaging"
	"github.com/solacebot/solace/internal/metrics"
	"github.com/solacebot/solace/internal/session"
)

// shutdownTimeout bounds graceful shutdown of the metrics server.
const shutdownTimeout = 10 * time.Second

//go:embed system-prompt.md
var embeddedPersonaPrompt string

func main() {
	var configPath string

	rootCmd := &cobra.Command{
		Use:   "solace",
		Short: "Solace — a quiet listener bot for Discord",
		Long: `Solace opens private-feeling conversation threads on Discord,
listens, and relays what it hears to a completion service while keeping
a crisis gate in front of every message.`,
		SilenceUsage: true,
		RunE: func(_ *cobra.Command, _ []string) error {
			return runMain(configPath)
		},
	}
	rootCmd.Flags().StringVarP(&configPath, "config", "c", "", "path to YAML config file")

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func runMain(configPath string) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}

	logger, err := buildLogger(cfg.Logging.Level)
	if err != nil {
		return err
	}
	defer func() { _ = logger.Sync() }()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, logger); err != nil {
		logger.Error("solace exited with error", zap.Error(err))
		return err
	}
	return nil
}

func buildLogger(level string) (*zap.Logger, error) {
	zapCfg := zap.NewProductionConfig()
	if level != "" {
		parsed, err := zapcore.ParseLevel(level)
		if err != nil {
			return nil, fmt.Errorf("invalid log level %q: %w", level, err)
		}
		zapCfg.Level = zap.NewAtomicLevelAt(parsed)
	}
	logger, err := zapCfg.Build()
	if err != nil {
		return nil, fmt.Errorf("failed to initialize logger: %w", err)
	}
	return logger, nil
}

func run(ctx context.Context, cfg *config.Config, logger *zap.Logger) error {
	logger.Info("solace starting")

	persona, err := cfg.LoadPersonaPrompt(embeddedPersonaPrompt)
	if err != nil {
		return err
	}

	client, err := completion.NewHTTPClient(completion.Config{
		BaseURL:     cfg.Completion.BaseURL,
		APIKey:      cfg.Completion.APIKey,
		Model:       cfg.Completion.Model,
		Temperature: cfg.Completion.Temperature,
		TopP:        cfg.Completion.TopP,
		MaxTokens:   cfg.Completion.MaxTokens,
		Timeout:     time.Duration(cfg.Completion.Timeout),
	})
	if err != nil {
		return fmt.Errorf("failed to create completion client: %w", err)
	}

	discordSession, err := discordgo.New("Bot " + cfg.Discord.Token)
	if err != nil {
		return fmt.Errorf("failed to create discord session: %w", err)
	}

	adapter, err := discord.NewAdapter(discordSession, logger)
	if err != nil {
		return err
	}

	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	engineMetrics := metrics.New(registry)

	engine, err := session.NewEngine(
		session.Config{
			PersonaPrompt: persona,
			PersonaName:   cfg.Session.PersonaName,
		},
		conversation.NewStore(),
		crisis.NewDetector(cfg.Session.CrisisPhrases),
		client,
		adapter,
		session.WithLogger(logger),
		session.WithMetrics(engineMetrics),
	)
	if err != nil {
		return fmt.Errorf("failed to create session engine: %w", err)
	}

	dispatcher := dispatch.NewManager(logger)
	pool, err := dispatch.NewWorkerPool(cfg.Dispatch.Workers, dispatcher, engine, adapter, logger)
	if err != nil {
		return fmt.Errorf("failed to create worker pool: %w", err)
	}

	bot, err := discord.NewBot(discordSession, engine, dispatcher, adapter, cfg.Discord.GuildID, logger)
	if err != nil {
		return fmt.Errorf("failed to create discord bot: %w", err)
	}

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		return pool.Start(gctx)
	})

	g.Go(func() error {
		defer dispatcher.Stop()
		return bot.Start(gctx)
	})

	if cfg.Metrics.Addr != "" {
		g.Go(func() error {
			return serveMetrics(gctx, cfg.Metrics.Addr, registry, logger)
		})
	}

	logger.Info("solace started, listening for messages",
		zap.Int("workers", cfg.Dispatch.Workers))

	if err := g.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		return err
	}

	logger.Info("solace shut down cleanly")
	return nil
}

// serveMetrics exposes the Prometheus registry until the context ends.
func serveMetrics(ctx context.Context, addr string, registry *prometheus.Registry, logger *zap.Logger) error {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(registry, promhttp.HandlerOpts{}))

	server := &http.Server{
		Addr:              addr,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		errCh <- server.ListenAndServe()
	}()
	logger.Info("metrics endpoint up", zap.String("addr", addr))

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("failed to shut down metrics server: %w", err)
		}
		<-errCh
		return nil
	case err := <-errCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("metrics server failed: %w", err)
		}
		return nil
	}
}

// compile-time interface checks
var (
	_ messaging.Messenger = (*discord.Adapter)(nil)
	_ dispatch.Handler    = (*session.Engine)(nil)
	_ completion.Client   = (*completion.HTTPClient)(nil)
)
