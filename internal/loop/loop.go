// Package loop 驱动决策循环：按固定节奏取快照、生成共识、尝试成交并记账。
package loop

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"mm-simulator-go/infrastructure/logger"
	"mm-simulator-go/internal/engine"
	"mm-simulator-go/internal/pnl"
	"mm-simulator-go/internal/store"
	"mm-simulator-go/market"
	"mm-simulator-go/metrics"
)

// Config 循环配置
type Config struct {
	Symbol     string        // 交易标的（仅用于展示）
	Interval   time.Duration // 决策周期
	Duration   time.Duration // 会话时长；0 表示只受 ctx 控制
	StatsEvery int           // 每 N 个周期输出一次运行统计
	Warmup     time.Duration // 启动后等待初始行情的时间
}

// Statistics 循环运行统计
type Statistics struct {
	StartTime     time.Time
	TotalCycles   int64
	TotalFills    int64
	TotalSkips    int64
	LastCycleTime time.Time
}

// Runner 将 store -> 共识 -> engine -> tracker 串成一个会话。
// 只有这一个 goroutine 写 tracker；它从不直接碰网络 I/O。
type Runner struct {
	cfg     Config
	store   *store.Store
	engine  *engine.Engine
	tracker *pnl.Tracker
	log     *logger.Logger

	mu    sync.RWMutex
	stats Statistics
}

// NewRunner 创建循环。
func NewRunner(cfg Config, st *store.Store, eng *engine.Engine, tr *pnl.Tracker, log *logger.Logger) (*Runner, error) {
	if st == nil || eng == nil || tr == nil || log == nil {
		return nil, errors.New("store, engine, tracker and logger are required")
	}
	if cfg.Interval <= 0 {
		cfg.Interval = 5 * time.Second
	}
	if cfg.StatsEvery <= 0 {
		cfg.StatsEvery = 10
	}
	return &Runner{cfg: cfg, store: st, engine: eng, tracker: tr, log: log}, nil
}

// Run 执行会话直到时长耗尽或 ctx 取消，结束时输出最终报告。
func (r *Runner) Run(ctx context.Context) error {
	if r.cfg.Warmup > 0 {
		r.log.Info("waiting for initial price data",
			zap.Duration("warmup", r.cfg.Warmup))
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(r.cfg.Warmup):
		}
	}

	r.mu.Lock()
	r.stats.StartTime = time.Now()
	r.mu.Unlock()

	r.log.Info("market making session starting",
		zap.String("symbol", r.cfg.Symbol),
		zap.Duration("interval", r.cfg.Interval),
		zap.Duration("duration", r.cfg.Duration))

	ticker := time.NewTicker(r.cfg.Interval)
	defer ticker.Stop()

	start := time.Now()
	for {
		select {
		case <-ctx.Done():
			r.log.Info("context done, ending session")
			r.report()
			return ctx.Err()
		case <-ticker.C:
			if r.cfg.Duration > 0 && time.Since(start) >= r.cfg.Duration {
				r.log.Info("session duration reached")
				r.report()
				return nil
			}
			r.onCycle(time.Since(start))
		}
	}
}

// onCycle 执行一个决策周期。任何数据不足都只是跳过，绝不中止会话。
func (r *Runner) onCycle(elapsed time.Duration) {
	metrics.DecisionCyclesTotal.Inc()

	r.mu.Lock()
	r.stats.TotalCycles++
	r.stats.LastCycleTime = time.Now()
	cycle := r.stats.TotalCycles
	r.mu.Unlock()

	snap := r.store.Snapshot()

	if sum, ok := r.engine.MarketSummary(snap); ok {
		r.log.Info("market",
			zap.Int64("cycle", cycle),
			zap.Duration("elapsed", elapsed.Round(time.Second)),
			zap.Float64("median_mid", sum.MedianMid),
			zap.Float64("spread_bps", sum.SpreadBps),
			zap.Float64("best_bid", sum.BestBid),
			zap.Float64("best_ask", sum.BestAsk),
			zap.String("venues", r.venueStatus(snap)))
	} else {
		r.log.Warn("no consensus view, skipping cycle",
			zap.Int64("cycle", cycle),
			zap.Int("venues_present", snap.Present()))
	}

	r.attempt(snap, pnl.Buy)
	r.attempt(snap, pnl.Sell)

	if cycle%int64(r.cfg.StatsEvery) == 0 {
		stats := r.tracker.Stats()
		r.log.Info("running stats",
			zap.Int("total_trades", stats.TotalTrades),
			zap.Float64("total_pnl", stats.TotalPnL),
			zap.Float64("avg_pnl_per_trade", stats.AvgPnLPerTrade()))
	}
}

func (r *Runner) attempt(snap market.Snapshot, side pnl.Side) {
	trade, ok := r.engine.AttemptTrade(snap, side)
	if !ok {
		r.mu.Lock()
		r.stats.TotalSkips++
		r.mu.Unlock()
		r.log.Debug("trade skipped", zap.String("side", side.String()))
		return
	}
	r.tracker.Record(*trade)

	r.mu.Lock()
	r.stats.TotalFills++
	r.mu.Unlock()

	stats := r.tracker.Stats()
	r.log.LogTrade("trade_executed", map[string]interface{}{
		"trade_id":    trade.ID,
		"side":        trade.Side.String(),
		"price":       trade.Price,
		"amount":      trade.Amount,
		"probability": trade.ExecutionProb,
		"pnl":         trade.PnL,
		"total_pnl":   stats.TotalPnL,
	})
}

// report 输出会话总结与最近成交。
func (r *Runner) report() {
	stats := r.tracker.Stats()
	r.log.Info("session summary",
		zap.Int("total_trades", stats.TotalTrades),
		zap.Int("buy_trades", stats.BuyTrades),
		zap.Int("sell_trades", stats.SellTrades),
		zap.Float64("total_pnl", stats.TotalPnL),
		zap.Float64("buy_pnl", stats.BuyPnL),
		zap.Float64("sell_pnl", stats.SellPnL),
		zap.Float64("avg_pnl_per_trade", stats.AvgPnLPerTrade()),
		zap.Float64("total_notional", stats.TotalNotional),
		zap.Float64("pnl_per_notional_bps", stats.PnLPerNotionalBps()),
		zap.Float64("avg_execution_prob", stats.AvgExecutionProb))

	for _, t := range r.tracker.RecentTrades(5) {
		r.log.Info("recent trade",
			zap.String("side", t.Side.String()),
			zap.Float64("price", t.Price),
			zap.Float64("amount", t.Amount),
			zap.Float64("pnl", t.PnL))
	}
}

// venueStatus 形如 "binance=ok jupiter=down cowswap=ok"。
func (r *Runner) venueStatus(snap market.Snapshot) string {
	out := ""
	for i, v := range market.Venues() {
		if i > 0 {
			out += " "
		}
		state := "down"
		if snap.Has(v) {
			state = "ok"
		}
		out += fmt.Sprintf("%s=%s", v, state)
	}
	return out
}

// Statistics 返回统计副本。
func (r *Runner) Statistics() Statistics {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.stats
}
