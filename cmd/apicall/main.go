// apicall runs one Questrade API command and prints the response as JSON.
//
// Usage:
//
//	go run ./cmd/apicall -cmd quotes ids=8049,27426
//	go run ./cmd/apicall -cmd candles id=8049 start=2024-01-02T09:30:00-05:00 end=2024-01-02T16:00:00-05:00 interval=OneHour
//	go run ./cmd/apicall -quote AAPL,MSFT
//	go run ./cmd/apicall -revoke
package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/rickgao/questrade-data/internal/api"
	"github.com/rickgao/questrade-data/internal/auth"
	"github.com/rickgao/questrade-data/internal/config"
	"github.com/rickgao/questrade-data/internal/supervisor"
)

func main() {
	credentials := flag.String("credentials", config.DefaultCredentialsPath, "credential file")
	section := flag.String("section", config.DefaultCredentialSection, "credential file section")
	authURL := flag.String("auth-url", config.DefaultAuthURL, "Questrade login host")
	envPath := flag.String("env", ".env", "optional env file")
	command := flag.String("cmd", "", "command: "+strings.Join(api.Commands(), ", "))
	quote := flag.String("quote", "", "comma separated tickers to quote")
	revoke := flag.Bool("revoke", false, "revoke the stored refresh token")
	logLevel := flag.String("log-level", "warn", "debug, info, warn or error")
	flag.Parse()

	var level slog.Level
	if err := level.UnmarshalText([]byte(*logLevel)); err != nil {
		fmt.Fprintf(os.Stderr, "invalid -log-level %q: %v\n", *logLevel, err)
		os.Exit(2)
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))

	if *command == "" && *quote == "" && !*revoke {
		flag.Usage()
		os.Exit(2)
	}

	args, err := parseArgs(flag.Args())
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(2)
	}

	if err := config.LoadDotEnv(*envPath); err != nil {
		logger.Error("failed to load env file", "error", err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	store := auth.NewSectionStore(*credentials, *section)
	prompt := &auth.ConsolePrompter{In: os.Stdin, Out: os.Stderr}
	sup := supervisor.New(supervisor.Config{
		SessionOptions: []auth.SessionOption{auth.WithAuthURL(*authURL)},
	}, store, prompt, logger)

	if err := sup.Open(ctx); err != nil {
		logger.Error("failed to open session", "error", err)
		os.Exit(1)
	}
	defer sup.Session().Persist()

	if err := run(ctx, sup, *command, *quote, *revoke, args); err != nil {
		logger.Error("command failed", "error", err)
		var httpErr *api.HTTPError
		if errors.As(err, &httpErr) {
			fmt.Fprintln(os.Stderr, string(httpErr.Body))
		}
		sup.Session().Persist()
		os.Exit(1)
	}
}

func run(ctx context.Context, sup *supervisor.Supervisor, command, quote string, revoke bool, args api.Args) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")

	if command != "" {
		resp, err := sup.Client().Call(ctx, command, args)
		if err != nil {
			return err
		}
		if err := enc.Encode(resp); err != nil {
			return err
		}
	}

	if quote != "" {
		quotes, err := sup.Client().QuoteTickers(ctx, strings.Split(quote, ","))
		if err != nil {
			return err
		}
		for _, q := range quotes {
			if err := enc.Encode(q.ToModel()); err != nil {
				return err
			}
		}
	}

	if revoke {
		sup.Session().Revoke(ctx)
	}
	return nil
}

// parseArgs turns key=value pairs into command arguments.
func parseArgs(pairs []string) (api.Args, error) {
	args := make(api.Args, len(pairs))
	for _, p := range pairs {
		key, value, ok := strings.Cut(p, "=")
		if !ok || key == "" {
			return nil, fmt.Errorf("argument %q is not key=value", p)
		}
		args[key] = value
	}
	return args, nil
}
