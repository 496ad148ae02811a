package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"math/rand"
	"time"

	"mm-simulator-go/gateway"
	"mm-simulator-go/infrastructure/logger"
	"mm-simulator-go/internal/engine"
	"mm-simulator-go/internal/loop"
	"mm-simulator-go/internal/pnl"
	"mm-simulator-go/internal/store"
	"mm-simulator-go/market"
)

// 一个极简的离线模拟：合成 venue 随机游走报价，驱动完整的
// 快照 -> 共识 -> 成交 -> 记账链路。不连接任何真实行情源。
func main() {
	cycles := flag.Int("cycles", 20, "number of decision cycles")
	intervalMs := flag.Int("intervalMs", 250, "decision interval in ms")
	notional := flag.Float64("notional", 100_000, "notional per trade")
	advanced := flag.Bool("advanced", false, "use the advanced execution model")
	venues := flag.Int("venues", 3, "number of synthetic venues (1-3)")
	seed := flag.Int64("seed", 42, "rng seed")
	basePrice := flag.Float64("basePrice", 2500, "starting mid price")
	flag.Parse()

	lg, err := logger.New(logger.Config{Level: "warn", Outputs: []string{"stdout"}, Format: "console"})
	if err != nil {
		log.Fatalf("logger: %v", err)
	}
	defer func() { _ = lg.Close() }()

	st := store.New(nil)
	interval := time.Duration(*intervalMs) * time.Millisecond
	duration := interval * time.Duration(*cycles+1)

	ctx, cancel := context.WithTimeout(context.Background(), duration+2*time.Second)
	defer cancel()

	n := *venues
	if n < 1 {
		n = 1
	}
	if n > len(market.Venues()) {
		n = len(market.Venues())
	}
	for i, v := range market.Venues()[:n] {
		stub := gateway.NewStubVenue(v, *basePrice, *seed+int64(i), st)
		stub.Interval = interval / 4
		go func() { _ = stub.Run(ctx) }()
	}

	eng, err := engine.New(engine.Config{
		NotionalPerTrade: *notional,
		UseAdvancedModel: *advanced,
	}, rand.New(rand.NewSource(*seed)), lg)
	if err != nil {
		log.Fatalf("engine: %v", err)
	}

	tracker := pnl.NewTracker()
	runner, err := loop.NewRunner(loop.Config{
		Symbol:     "SIM",
		Interval:   interval,
		Duration:   duration,
		StatsEvery: 10,
		Warmup:     interval,
	}, st, eng, tracker, lg)
	if err != nil {
		log.Fatalf("loop: %v", err)
	}

	if err := runner.Run(ctx); err != nil && ctx.Err() == nil {
		log.Fatalf("run: %v", err)
	}

	stats := tracker.Stats()
	rs := runner.Statistics()
	fmt.Printf("cycles=%d fills=%d skips=%d\n", rs.TotalCycles, rs.TotalFills, rs.TotalSkips)
	fmt.Printf("trades=%d buy=%d sell=%d\n", stats.TotalTrades, stats.BuyTrades, stats.SellTrades)
	fmt.Printf("pnl=%.2f avg/trade=%.2f notional=%.0f pnl/notional=%.2fbps avgProb=%.2f\n",
		stats.TotalPnL, stats.AvgPnLPerTrade(), stats.TotalNotional, stats.PnLPerNotionalBps(), stats.AvgExecutionProb)
	for _, t := range tracker.RecentTrades(5) {
		fmt.Printf("  %s price=%.2f amount=%.4f pnl=%.2f\n", t.Side, t.Price, t.Amount, t.PnL)
	}
}
