// streamer polls Questrade quotes for the configured subscriptions and fans
// changed quotes out to TimescaleDB, Redis, Kafka and websocket clients.
// Usage: go run ./cmd/streamer -config configs/streamer.local.yaml
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rickgao/questrade-data/internal/api"
	"github.com/rickgao/questrade-data/internal/auth"
	"github.com/rickgao/questrade-data/internal/config"
	"github.com/rickgao/questrade-data/internal/model"
	"github.com/rickgao/questrade-data/internal/poller"
	"github.com/rickgao/questrade-data/internal/router"
	"github.com/rickgao/questrade-data/internal/supervisor"
	"github.com/rickgao/questrade-data/internal/version"
)

func main() {
	configPath := flag.String("config", "configs/streamer.local.yaml", "path to config file")
	envPath := flag.String("env", ".env", "optional env file loaded before the config")
	logLevel := flag.String("log-level", "info", "debug, info, warn or error")
	printBatches := flag.Bool("print", false, "print every batch to stdout")
	flag.Parse()

	var level slog.Level
	if err := level.UnmarshalText([]byte(*logLevel)); err != nil {
		fmt.Fprintf(os.Stderr, "invalid -log-level %q: %v\n", *logLevel, err)
		os.Exit(2)
	}

	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
		Level: level,
	}))
	slog.SetDefault(logger)

	logger.Info("starting streamer", append(version.Get().LogAttrs(), "config", *configPath)...)

	if err := config.LoadDotEnv(*envPath); err != nil {
		logger.Error("failed to load env file", "error", err)
		os.Exit(1)
	}

	cfg, err := config.LoadAndValidate(*configPath)
	if err != nil {
		logger.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	logger.Info("configuration loaded",
		"instance_id", cfg.Instance.ID,
		"subscriptions", len(cfg.Poller.Subscriptions),
		"credentials", cfg.Credentials.Path,
	)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigCh
		logger.Info("received shutdown signal", "signal", sig)
		cancel()
	}()

	if err := run(ctx, cfg, *printBatches, logger); err != nil {
		logger.Error("streamer failed", "error", err)
		os.Exit(1)
	}

	logger.Info("streamer stopped")
}

func run(ctx context.Context, cfg *config.Config, printBatches bool, logger *slog.Logger) error {
	store := auth.NewSectionStore(cfg.Credentials.Path, cfg.Credentials.Section)
	prompt := &auth.ConsolePrompter{In: os.Stdin, Out: os.Stderr}

	sup := supervisor.New(supervisor.Config{
		SessionOptions: []auth.SessionOption{
			auth.WithAuthURL(cfg.API.AuthURL),
		},
		ClientOptions: []api.ClientOption{
			api.WithTimeout(cfg.API.Timeout),
			api.WithRetries(cfg.API.MaxRetries, cfg.API.RetryBackoff),
		},
		Subscriptions: subscriptions(cfg),
	}, store, prompt, logger)

	if err := sup.Open(ctx); err != nil {
		return fmt.Errorf("open session: %w", err)
	}

	buf, err := newBuffer(cfg.Output)
	if err != nil {
		return err
	}

	dispatcher := router.NewDispatcher(buf, logger)
	dispatcher.SetWriteTimeout(cfg.Output.WriteTimeout)

	sinks, err := openSinks(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer sinks.Close()

	for _, s := range sinks.named {
		dispatcher.Add(s.name, s.sink)
	}
	if printBatches {
		dispatcher.Add("stdout", router.SinkFunc(printBatch))
	}

	mux := http.NewServeMux()
	mux.Handle(cfg.Health.Path, newHealthHandler(cfg, sup.Session(), buf, dispatcher, sinks))
	if sinks.hub != nil {
		mux.Handle(cfg.Stream.Path, sinks.hub)
	}

	server := &http.Server{
		Addr:    fmt.Sprintf(":%d", cfg.Health.Port),
		Handler: mux,
	}

	go func() {
		logger.Info("starting http server", "port", cfg.Health.Port)
		if err := server.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
			logger.Error("http server error", "error", err)
		}
	}()
	defer func() {
		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer shutdownCancel()
		server.Shutdown(shutdownCtx)
	}()

	logger.Info("streamer running",
		"instance_id", cfg.Instance.ID,
		"sinks", len(sinks.named),
		"health_url", fmt.Sprintf("http://localhost:%d%s", cfg.Health.Port, cfg.Health.Path),
	)

	return sup.Run(ctx, buf, dispatcher.Run)
}

// subscriptions maps configured subscriptions onto poller configs.
func subscriptions(cfg *config.Config) []poller.Config {
	subs := make([]poller.Config, 0, len(cfg.Poller.Subscriptions))
	for _, s := range cfg.Poller.Subscriptions {
		rate := s.Rate
		if rate <= 0 {
			rate = cfg.Poller.Rate
		}
		subs = append(subs, poller.Config{
			Name:    s.Name,
			Symbols: s.Symbols,
			Rate:    rate,
			Diff:    s.DiffEnabled(),
		})
	}
	return subs
}

// newBuffer builds the poller output buffer from the output section.
func newBuffer(cfg config.OutputConfig) (*router.Buffer[model.QuoteBatch], error) {
	if cfg.Overflow == config.OverflowGrow {
		return router.NewBuffer[model.QuoteBatch](cfg.BufferSize), nil
	}

	policy, err := router.ParseOverflow(cfg.Overflow)
	if err != nil {
		return nil, fmt.Errorf("output overflow: %w", err)
	}
	return router.NewBoundedBuffer[model.QuoteBatch](cfg.BufferSize, cfg.MaxBuffer, policy), nil
}
