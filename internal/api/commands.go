package api

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strconv"
	"strings"
	"time"
)

var (
	// ErrUnknownCommand is returned by Call for a name not in the command table.
	ErrUnknownCommand = errors.New("unknown command")

	// ErrMissingArgument is returned by Call when a required argument is absent.
	ErrMissingArgument = errors.New("missing argument")
)

// Args are the named string arguments of a command.
type Args map[string]string

func (a Args) require(name string) (string, error) {
	v := strings.TrimSpace(a[name])
	if v == "" {
		return "", fmt.Errorf("%w: %s", ErrMissingArgument, name)
	}
	return v, nil
}

type commandFunc func(ctx context.Context, c *Client, args Args) (any, error)

// commands is the closed set of endpoints reachable by name.
var commands = map[string]commandFunc{
	"accounts": func(ctx context.Context, c *Client, _ Args) (any, error) {
		return c.Accounts(ctx)
	},
	"time": func(ctx context.Context, c *Client, _ Args) (any, error) {
		return c.Time(ctx)
	},
	"markets": func(ctx context.Context, c *Client, _ Args) (any, error) {
		return c.Markets(ctx)
	},
	"search": func(ctx context.Context, c *Client, args Args) (any, error) {
		prefix, err := args.require("prefix")
		if err != nil {
			return nil, err
		}
		return c.SearchSymbols(ctx, prefix)
	},
	"symbols": func(ctx context.Context, c *Client, args Args) (any, error) {
		if names := strings.TrimSpace(args["names"]); names != "" {
			return c.SymbolsByName(ctx, splitList(names))
		}
		ids, err := args.ids("ids")
		if err != nil {
			return nil, err
		}
		return c.SymbolsByID(ctx, ids)
	},
	"quotes": func(ctx context.Context, c *Client, args Args) (any, error) {
		ids, err := args.ids("ids")
		if err != nil {
			return nil, err
		}
		return c.Quotes(ctx, ids)
	},
	"candles": func(ctx context.Context, c *Client, args Args) (any, error) {
		raw, err := args.require("id")
		if err != nil {
			return nil, err
		}
		id, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("parse id %q: %w", raw, err)
		}

		var opts CandlesOptions
		if opts.Start, err = args.time("start"); err != nil {
			return nil, err
		}
		if opts.End, err = args.time("end"); err != nil {
			return nil, err
		}
		opts.Interval = args["interval"]
		return c.Candles(ctx, id, opts)
	},
	"balances": func(ctx context.Context, c *Client, args Args) (any, error) {
		account, err := args.require("account")
		if err != nil {
			return nil, err
		}
		return c.Balances(ctx, account)
	},
	"positions": func(ctx context.Context, c *Client, args Args) (any, error) {
		account, err := args.require("account")
		if err != nil {
			return nil, err
		}
		return c.Positions(ctx, account)
	},
}

// Commands returns the names accepted by Call, sorted.
func Commands() []string {
	names := make([]string, 0, len(commands))
	for name := range commands {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Call invokes the endpoint registered under name. The result is the typed
// response pointer for that endpoint.
func (c *Client) Call(ctx context.Context, name string, args Args) (any, error) {
	fn, ok := commands[name]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownCommand, name)
	}
	return fn(ctx, c, args)
}

func (a Args) ids(name string) ([]int64, error) {
	raw, err := a.require(name)
	if err != nil {
		return nil, err
	}

	parts := splitList(raw)
	ids := make([]int64, 0, len(parts))
	for _, p := range parts {
		id, err := strconv.ParseInt(p, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("parse %s %q: %w", name, p, err)
		}
		ids = append(ids, id)
	}
	return ids, nil
}

// time parses an optional RFC 3339 argument.
func (a Args) time(name string) (time.Time, error) {
	raw := strings.TrimSpace(a[name])
	if raw == "" {
		return time.Time{}, nil
	}
	t, err := time.Parse(time.RFC3339, raw)
	if err != nil {
		return time.Time{}, fmt.Errorf("parse %s %q: %w", name, raw, err)
	}
	return t, nil
}

func splitList(s string) []string {
	var out []string
	for _, p := range strings.Split(s, ",") {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
