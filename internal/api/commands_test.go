package api

import (
	"context"
	"errors"
	"net/http"
	"reflect"
	"testing"
)

func TestCommands(t *testing.T) {
	want := []string{"accounts", "balances", "candles", "markets", "positions", "quotes", "search", "symbols", "time"}
	if got := Commands(); !reflect.DeepEqual(got, want) {
		t.Errorf("Commands() = %v, want %v", got, want)
	}
}

func TestCall(t *testing.T) {
	c, _ := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/v1/time":
			w.Write([]byte(`{"time":"2014-10-24T12:14:42.730000-04:00"}`))
		case "/v1/symbols":
			w.Write([]byte(`{"symbols":[{"symbol":"AAPL","symbolId":8049}]}`))
		case "/v1/markets/candles/8049":
			if r.URL.Query().Get("interval") != "OneHour" {
				t.Errorf("interval = %q", r.URL.Query().Get("interval"))
			}
			w.Write([]byte(`{"candles":[]}`))
		case "/v1/accounts/123/positions":
			w.Write([]byte(`{"positions":[]}`))
		default:
			t.Errorf("unexpected path %q", r.URL.Path)
			w.WriteHeader(http.StatusNotFound)
		}
	})

	t.Run("dispatches typed endpoint", func(t *testing.T) {
		got, err := c.Call(context.Background(), "time", nil)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if _, ok := got.(*TimeResponse); !ok {
			t.Errorf("result type = %T, want *TimeResponse", got)
		}
	})

	t.Run("arguments", func(t *testing.T) {
		tests := []struct {
			name string
			cmd  string
			args Args
			want any
		}{
			{"symbols by name", "symbols", Args{"names": "AAPL"}, &SymbolsResponse{}},
			{"symbols by id", "symbols", Args{"ids": "8049"}, &SymbolsResponse{}},
			{"candles", "candles", Args{"id": "8049", "interval": "OneHour", "start": "2024-01-02T09:30:00Z"}, &CandlesResponse{}},
			{"positions", "positions", Args{"account": "123"}, &PositionsResponse{}},
		}
		for _, tt := range tests {
			t.Run(tt.name, func(t *testing.T) {
				got, err := c.Call(context.Background(), tt.cmd, tt.args)
				if err != nil {
					t.Fatalf("unexpected error: %v", err)
				}
				if reflect.TypeOf(got) != reflect.TypeOf(tt.want) {
					t.Errorf("result type = %T, want %T", got, tt.want)
				}
			})
		}
	})

	t.Run("unknown command", func(t *testing.T) {
		_, err := c.Call(context.Background(), "orders", nil)
		if !errors.Is(err, ErrUnknownCommand) {
			t.Errorf("err = %v, want ErrUnknownCommand", err)
		}
	})

	t.Run("missing argument", func(t *testing.T) {
		for _, cmd := range []string{"search", "symbols", "quotes", "candles", "balances", "positions"} {
			_, err := c.Call(context.Background(), cmd, Args{})
			if !errors.Is(err, ErrMissingArgument) {
				t.Errorf("%s: err = %v, want ErrMissingArgument", cmd, err)
			}
		}
	})

	t.Run("malformed argument", func(t *testing.T) {
		tests := []struct {
			cmd  string
			args Args
		}{
			{"quotes", Args{"ids": "8049,abc"}},
			{"candles", Args{"id": "x"}},
			{"candles", Args{"id": "8049", "start": "yesterday"}},
		}
		for _, tt := range tests {
			_, err := c.Call(context.Background(), tt.cmd, tt.args)
			if err == nil {
				t.Errorf("%s %v: expected error", tt.cmd, tt.args)
			}
			if errors.Is(err, ErrMissingArgument) {
				t.Errorf("%s %v: got ErrMissingArgument, want parse error", tt.cmd, tt.args)
			}
		}
	})
}

func TestSplitList(t *testing.T) {
	got := splitList(" AAPL, ,MSFT,")
	want := []string{"AAPL", "MSFT"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("splitList = %v, want %v", got, want)
	}
}
