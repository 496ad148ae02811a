package pnl

import (
	"sync"
	"testing"
)

func TestStatsAfterTwoTrades(t *testing.T) {
	tr := NewTracker()

	tr.Record(Trade{Side: Buy, PnL: 10, Notional: 1000, ExecutionProb: 0.7})
	tr.Record(Trade{Side: Sell, PnL: -4, Notional: 1000, ExecutionProb: 0.7})

	stats := tr.Stats()
	if stats.TotalPnL != 6 {
		t.Fatalf("total pnl = %f, want 6", stats.TotalPnL)
	}
	if stats.TotalTrades != 2 {
		t.Fatalf("total trades = %d, want 2", stats.TotalTrades)
	}
	if stats.BuyPnL != 10 || stats.SellPnL != -4 {
		t.Fatalf("per-side pnl = %f/%f, want 10/-4", stats.BuyPnL, stats.SellPnL)
	}
	if stats.BuyTrades != 1 || stats.SellTrades != 1 {
		t.Fatalf("per-side counts = %d/%d, want 1/1", stats.BuyTrades, stats.SellTrades)
	}
	if stats.TotalNotional != 2000 {
		t.Fatalf("total notional = %f, want 2000", stats.TotalNotional)
	}
}

func TestRollingAverageExecutionProb(t *testing.T) {
	tr := NewTracker()

	tr.Record(Trade{Side: Buy, ExecutionProb: 0.8})
	tr.Record(Trade{Side: Buy, ExecutionProb: 0.4})

	if got := tr.Stats().AvgExecutionProb; got < 0.5999 || got > 0.6001 {
		t.Fatalf("avg execution prob = %f, want 0.6", got)
	}
}

func TestRecentTrades(t *testing.T) {
	tr := NewTracker()

	if got := tr.RecentTrades(5); len(got) != 0 {
		t.Fatalf("empty ledger returned %d trades", len(got))
	}

	tr.Record(Trade{ID: "a", Side: Buy, PnL: 1})
	tr.Record(Trade{ID: "b", Side: Sell, PnL: 2})

	got := tr.RecentTrades(5)
	if len(got) != 2 {
		t.Fatalf("expected 2 trades, got %d", len(got))
	}
	if got[0].ID != "a" || got[1].ID != "b" {
		t.Fatalf("trades out of insertion order: %v", got)
	}

	for i := 0; i < 10; i++ {
		tr.Record(Trade{ID: "x", Side: Buy})
	}
	if got := tr.RecentTrades(3); len(got) != 3 {
		t.Fatalf("expected 3 trades, got %d", len(got))
	}
}

func TestRecentTradesDoesNotExposeLedger(t *testing.T) {
	tr := NewTracker()
	tr.Record(Trade{ID: "a", PnL: 1})

	got := tr.RecentTrades(1)
	got[0].PnL = 999

	if tr.RecentTrades(1)[0].PnL != 1 {
		t.Fatal("mutating returned slice changed the ledger")
	}
}

func TestAvgPnLPerTradeAndBps(t *testing.T) {
	tr := NewTracker()
	if tr.Stats().AvgPnLPerTrade() != 0 {
		t.Fatal("avg pnl per trade should be 0 with no trades")
	}
	if tr.Stats().PnLPerNotionalBps() != 0 {
		t.Fatal("pnl per notional should be 0 with no notional")
	}

	tr.Record(Trade{Side: Buy, PnL: 10, Notional: 100_000})
	tr.Record(Trade{Side: Buy, PnL: 20, Notional: 100_000})

	stats := tr.Stats()
	if got := stats.AvgPnLPerTrade(); got != 15 {
		t.Fatalf("avg pnl per trade = %f, want 15", got)
	}
	// 30 / 200000 * 10000 = 1.5 bps
	if got := stats.PnLPerNotionalBps(); got < 1.4999 || got > 1.5001 {
		t.Fatalf("pnl per notional = %f bps, want 1.5", got)
	}
}

// TestConcurrentReadersDuringWrites 写入期间并发读取不得出现撕裂统计
func TestConcurrentReadersDuringWrites(t *testing.T) {
	tr := NewTracker()

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		for i := 0; i < 500; i++ {
			tr.Record(Trade{Side: Buy, PnL: 1, Notional: 10, ExecutionProb: 0.5})
		}
	}()

	for i := 0; i < 4; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 500; j++ {
				stats := tr.Stats()
				// 每笔 pnl=1，总 pnl 必须等于笔数
				if stats.TotalPnL != float64(stats.TotalTrades) {
					t.Errorf("torn stats: pnl=%f trades=%d", stats.TotalPnL, stats.TotalTrades)
					return
				}
				_ = tr.RecentTrades(5)
			}
		}()
	}
	wg.Wait()

	if got := tr.Stats().TotalTrades; got != 500 {
		t.Fatalf("total trades = %d, want 500", got)
	}
}
