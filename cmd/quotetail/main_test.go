package main

import (
	"bytes"
	"strings"
	"testing"
	"time"

	"github.com/rickgao/questrade-data/internal/model"
)

func TestPrintBatch(t *testing.T) {
	batch := model.NewQuoteBatch("tech", time.Date(2024, 1, 2, 14, 30, 0, 0, time.UTC), []model.Quote{
		{Symbol: "AAPL", BidPrice: 189.1, AskPrice: 189.12},
		{Symbol: "MSFT", BidPrice: 402.5, Delay: 15, IsHalted: true},
	})

	tests := []struct {
		name      string
		filter    string
		wantCount int
		contains  []string
		excludes  []string
	}{
		{"all", "", 2, []string{"AAPL", "MSFT", "delay=15m", "HALTED", "14:30:00.000"}, nil},
		{"filtered", "aapl", 1, []string{"AAPL"}, []string{"MSFT"}},
		{"no match", "SHOP.TO", 0, nil, []string{"AAPL", "MSFT"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			n := printBatch(&buf, batch, newFilter(tt.filter), false)

			if n != tt.wantCount {
				t.Errorf("printed = %d, want %d", n, tt.wantCount)
			}
			out := buf.String()
			for _, s := range tt.contains {
				if !strings.Contains(out, s) {
					t.Errorf("output missing %q:\n%s", s, out)
				}
			}
			for _, s := range tt.excludes {
				if strings.Contains(out, s) {
					t.Errorf("output contains %q:\n%s", s, out)
				}
			}
		})
	}
}

func TestPrintBatch_Verbose(t *testing.T) {
	batch := model.NewQuoteBatch("tech", time.Now(), []model.Quote{{Symbol: "AAPL", SymbolID: 8049}})

	var buf bytes.Buffer
	printBatch(&buf, batch, nil, true)

	if !strings.Contains(buf.String(), `"symbol_id": 8049`) {
		t.Errorf("verbose output missing json fields:\n%s", buf.String())
	}
}
