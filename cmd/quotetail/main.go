// quotetail connects to a streamer's websocket endpoint and prints every
// quote batch it receives.
// Usage: go run ./cmd/quotetail -url ws://localhost:8080/stream
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/rickgao/questrade-data/internal/model"
	"github.com/rickgao/questrade-data/internal/stream"
)

func main() {
	url := flag.String("url", "ws://localhost:8080/stream", "streamer websocket URL")
	verbose := flag.Bool("verbose", false, "print full batch JSON")
	symbols := flag.String("symbols", "", "comma separated tickers to show (default all)")
	flag.Parse()

	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigCh
		logger.Info("received shutdown signal")
		cancel()
	}()

	cfg := stream.DefaultSubscriberConfig()
	cfg.URL = *url
	sub := stream.NewSubscriber(cfg, logger)

	if err := sub.Connect(ctx); err != nil {
		logger.Error("failed to connect", "url", *url, "error", err)
		os.Exit(1)
	}
	defer sub.Close()

	logger.Info("streaming started - press Ctrl+C to stop", "url", *url)

	filter := newFilter(*symbols)
	var batches, quotes int

	statsTicker := time.NewTicker(10 * time.Second)
	defer statsTicker.Stop()

	for {
		select {
		case <-ctx.Done():
			logger.Info("shutdown complete", "batches", batches, "quotes", quotes)
			return

		case err := <-sub.Errors():
			logger.Error("stream closed", "error", err)
			os.Exit(1)

		case <-statsTicker.C:
			logger.Info("stats", "batches", batches, "quotes", quotes)

		case batch := <-sub.Batches():
			batches++
			quotes += printBatch(os.Stdout, batch, filter, *verbose)
		}
	}
}

// newFilter returns the set of tickers to show, or nil for all.
func newFilter(list string) map[string]bool {
	if strings.TrimSpace(list) == "" {
		return nil
	}
	filter := make(map[string]bool)
	for _, s := range strings.Split(list, ",") {
		if s = strings.TrimSpace(s); s != "" {
			filter[strings.ToUpper(s)] = true
		}
	}
	return filter
}

// printBatch prints the batch's quotes that pass filter and returns how many
// were printed.
func printBatch(w io.Writer, batch model.QuoteBatch, filter map[string]bool, verbose bool) int {
	printed := 0
	for _, q := range batch.Quotes {
		if filter != nil && !filter[strings.ToUpper(q.Symbol)] {
			continue
		}
		printed++

		if verbose {
			data, _ := json.MarshalIndent(q, "", "  ")
			fmt.Fprintf(w, "[%s] %s\n", batch.Subscription, data)
			continue
		}

		fmt.Fprintf(w, "[%s] %s %-10s bid=%.4f x %d ask=%.4f x %d last=%.4f vol=%d",
			batch.PolledAt.Format("15:04:05.000"),
			batch.Subscription,
			q.Symbol,
			q.BidPrice, q.BidSize,
			q.AskPrice, q.AskSize,
			q.LastTradePrice,
			q.Volume,
		)
		if q.Delayed() {
			fmt.Fprintf(w, " delay=%dm", q.Delay)
		}
		if q.IsHalted {
			fmt.Fprint(w, " HALTED")
		}
		fmt.Fprintln(w)
	}
	return printed
}
