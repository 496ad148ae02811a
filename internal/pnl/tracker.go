// Package pnl keeps the trade ledger and running PnL statistics.
package pnl

import (
	"sync"

	"mm-simulator-go/metrics"
)

// Stats is the running aggregate over all recorded trades. Every field is
// maintained incrementally on Record; nothing is ever recomputed from the
// full ledger.
type Stats struct {
	TotalPnL         float64
	TotalTrades      int
	BuyTrades        int
	SellTrades       int
	BuyPnL           float64
	SellPnL          float64
	TotalNotional    float64
	AvgExecutionProb float64
}

// AvgPnLPerTrade returns mean PnL per trade, 0 when no trades exist.
func (s Stats) AvgPnLPerTrade() float64 {
	if s.TotalTrades == 0 {
		return 0
	}
	return s.TotalPnL / float64(s.TotalTrades)
}

// PnLPerNotionalBps returns total PnL relative to traded notional in bps.
func (s Stats) PnLPerNotionalBps() float64 {
	if s.TotalNotional <= 0 {
		return 0
	}
	return s.TotalPnL / s.TotalNotional * 10000
}

// Tracker owns the append-only ledger and its aggregate stats. Writes come
// from the single decision loop; reads (reporting, metrics page) may happen
// concurrently, so both paths take the lock and readers get copies.
type Tracker struct {
	mu     sync.RWMutex
	stats  Stats
	trades []Trade
}

func NewTracker() *Tracker {
	return &Tracker{}
}

// Record appends the trade to the ledger and folds it into the stats in
// O(1). The rolling average execution probability uses the post-increment
// trade count.
func (t *Tracker) Record(trade Trade) {
	t.mu.Lock()
	t.stats.TotalPnL += trade.PnL
	t.stats.TotalTrades++
	t.stats.TotalNotional += trade.Notional

	switch trade.Side {
	case Buy:
		t.stats.BuyTrades++
		t.stats.BuyPnL += trade.PnL
	case Sell:
		t.stats.SellTrades++
		t.stats.SellPnL += trade.PnL
	}

	n := float64(t.stats.TotalTrades)
	t.stats.AvgExecutionProb = (t.stats.AvgExecutionProb*(n-1) + trade.ExecutionProb) / n

	t.trades = append(t.trades, trade)
	totalPnl := t.stats.TotalPnL
	totalNotional := t.stats.TotalNotional
	t.mu.Unlock()

	metrics.UpdatePnL(totalPnl, totalNotional)
}

// Stats returns a point-in-time copy of the aggregate stats.
func (t *Tracker) Stats() Stats {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.stats
}

// RecentTrades returns the last n ledger entries in insertion order
// (fewer if the ledger is shorter). The returned slice is a copy.
func (t *Tracker) RecentTrades(n int) []Trade {
	t.mu.RLock()
	defer t.mu.RUnlock()
	if n < 0 {
		n = 0
	}
	start := len(t.trades) - n
	if start < 0 {
		start = 0
	}
	out := make([]Trade, len(t.trades)-start)
	copy(out, t.trades[start:])
	return out
}
