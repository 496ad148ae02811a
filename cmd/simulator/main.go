package main

import (
	"context"
	"errors"
	"flag"
	"log"
	"math/rand"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"mm-simulator-go/config"
	"mm-simulator-go/gateway"
	"mm-simulator-go/infrastructure/logger"
	"mm-simulator-go/internal/engine"
	"mm-simulator-go/internal/loop"
	"mm-simulator-go/internal/pnl"
	"mm-simulator-go/internal/store"
	"mm-simulator-go/metrics"
)

func main() {
	cfgPath := flag.String("config", "configs/config.yaml", "配置文件路径")
	advanced := flag.Bool("advanced", false, "覆盖配置，启用高级概率模型")
	notional := flag.Float64("notional", 0, "覆盖配置的单次名义金额（0 表示使用配置值）")
	durationSec := flag.Int("duration", 0, "覆盖配置的会话时长（秒，0 表示使用配置值）")
	metricsAddr := flag.String("metricsAddr", ":9100", "Prometheus metrics 监听地址，留空则关闭")
	seed := flag.Int64("seed", 0, "随机种子（0 表示时间种子）")
	flag.Parse()

	cfg, err := config.LoadWithEnvOverrides(*cfgPath)
	if err != nil {
		log.Fatalf("加载配置失败: %v", err)
	}
	if *advanced {
		cfg.Engine.Model = config.ModelAdvanced
	}
	if *notional > 0 {
		cfg.Engine.NotionalPerTrade = *notional
	}
	if *durationSec > 0 {
		cfg.Session.DurationSec = *durationSec
	}

	lg, err := logger.New(cfg.Logging)
	if err != nil {
		log.Fatalf("初始化日志失败: %v", err)
	}
	defer func() { _ = lg.Close() }()

	if *metricsAddr != "" {
		metrics.StartMetricsServer(*metricsAddr)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go func() {
		sig := make(chan os.Signal, 1)
		signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)
		s := <-sig
		lg.Info("signal received, shutting down", zap.String("signal", s.String()))
		cancel()
	}()

	st := store.New(func(event string, fields map[string]interface{}) {
		lg.Debug(event, zap.Any("fields", fields))
	})

	startAdapters(ctx, cfg, st, lg)

	var rng engine.RandSource
	if *seed != 0 {
		rng = rand.New(rand.NewSource(*seed))
	}
	eng, err := engine.New(engine.Config{
		NotionalPerTrade: cfg.Engine.NotionalPerTrade,
		UseAdvancedModel: cfg.Engine.UseAdvancedModel(),
	}, rng, lg)
	if err != nil {
		lg.Fatal("初始化引擎失败", zap.Error(err))
	}

	// 配置热更新：仅引擎参数在会话中途可变
	go func() {
		w := config.Watcher{Path: *cfgPath, Cooldown: 5 * time.Second}
		err := w.Start(ctx, func(updated config.AppConfig) {
			if err := eng.ApplyParams(engine.Config{
				NotionalPerTrade: updated.Engine.NotionalPerTrade,
				UseAdvancedModel: updated.Engine.UseAdvancedModel(),
			}); err != nil {
				lg.Warn("hot reload rejected", zap.Error(err))
			}
		})
		if err != nil && !errors.Is(err, context.Canceled) {
			lg.Warn("config watcher stopped", zap.Error(err))
		}
	}()

	tracker := pnl.NewTracker()
	runner, err := loop.NewRunner(loop.Config{
		Symbol:     cfg.Symbol,
		Interval:   time.Duration(cfg.Session.IntervalSec) * time.Second,
		Duration:   time.Duration(cfg.Session.DurationSec) * time.Second,
		StatsEvery: cfg.Session.StatsEvery,
		Warmup:     time.Duration(cfg.Session.WarmupSec) * time.Second,
	}, st, eng, tracker, lg)
	if err != nil {
		lg.Fatal("初始化决策循环失败", zap.Error(err))
	}

	lg.Info("simulator starting",
		zap.String("env", cfg.Env),
		zap.String("symbol", cfg.Symbol),
		zap.String("model", cfg.Engine.Model),
		zap.Float64("notional_per_trade", cfg.Engine.NotionalPerTrade))

	if err := runner.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		lg.Error("session ended with error", zap.Error(err))
	}
}

// startAdapters 启动所有启用的 venue adapter，各自独立重试，互不影响。
func startAdapters(ctx context.Context, cfg config.AppConfig, st *store.Store, lg *logger.Logger) {
	run := func(name string, fn func(context.Context) error) {
		go func() {
			if err := fn(ctx); err != nil && !errors.Is(err, context.Canceled) {
				lg.Error("adapter exited", zap.String("venue", name), zap.Error(err))
			}
		}()
	}
	venueLog := func(name string) *logger.Logger {
		return lg.WithFields(map[string]interface{}{"venue": name})
	}

	if cfg.Venues.Binance.Enabled {
		ws := gateway.NewBinanceWS(cfg.Symbol, st, venueLog("binance"))
		if cfg.Venues.Binance.Endpoint != "" {
			ws.Endpoint = cfg.Venues.Binance.Endpoint
		}
		run("binance", ws.Run)
	}
	if cfg.Venues.Jupiter.Enabled {
		jp := gateway.NewJupiterPoller(cfg.Venues.Jupiter.TokenID, st, venueLog("jupiter"))
		if cfg.Venues.Jupiter.BaseURL != "" {
			jp.BaseURL = cfg.Venues.Jupiter.BaseURL
		}
		if cfg.Venues.Jupiter.PollIntervalMs > 0 {
			jp.Interval = time.Duration(cfg.Venues.Jupiter.PollIntervalMs) * time.Millisecond
		}
		if cfg.Venues.Jupiter.SpreadBps > 0 {
			jp.SpreadBps = cfg.Venues.Jupiter.SpreadBps
		}
		run("jupiter", jp.Run)
	}
	if cfg.Venues.CowSwap.Enabled {
		cs := gateway.NewCowSwapPoller(st, venueLog("cowswap"))
		if cfg.Venues.CowSwap.BaseURL != "" {
			cs.BaseURL = cfg.Venues.CowSwap.BaseURL
		}
		if cfg.Venues.CowSwap.PollIntervalMs > 0 {
			cs.Interval = time.Duration(cfg.Venues.CowSwap.PollIntervalMs) * time.Millisecond
		}
		if cfg.Venues.CowSwap.SpreadBps > 0 {
			cs.SpreadBps = cfg.Venues.CowSwap.SpreadBps
		}
		run("cowswap", cs.Run)
	}
}
