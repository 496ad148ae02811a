// Package engine 实现模拟做市的成交决策：基于共识视图报价、
// 按配置的概率模型判定成交，并对成交做 mark-to-market 计价。
package engine

import (
	"errors"
	"fmt"
	"math/rand"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"mm-simulator-go/infrastructure/logger"
	"mm-simulator-go/internal/consensus"
	"mm-simulator-go/internal/pnl"
	"mm-simulator-go/market"
	"mm-simulator-go/metrics"
)

// 概率模型常数。
const (
	basicProb = 0.70 // 基础模型：固定概率
	floorProb = 0.20 // 高级模型：报价不优于中值时的下限
	ceilProb  = 0.90 // 高级模型：报价达到最优价时的上限
)

// RandSource 注入的随机源。真实运行用 math/rand，测试注入固定值。
type RandSource interface {
	Float64() float64
}

// Config 引擎配置
type Config struct {
	NotionalPerTrade float64 // 每次尝试的名义金额（quote 货币）
	UseAdvancedModel bool    // true 使用 20%-90% 线性插值模型
}

// Engine 成交决策引擎。对共享数据无状态：每次 AttemptTrade 独立，
// 引擎自身只持有配置和随机源，从不修改快照或账本。
type Engine struct {
	mu  sync.RWMutex
	cfg Config

	rng RandSource
	log *logger.Logger
}

// New 创建引擎。rng 为 nil 时使用时间种子的默认源。
func New(cfg Config, rng RandSource, log *logger.Logger) (*Engine, error) {
	if err := validateConfig(cfg); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	if log == nil {
		return nil, errors.New("logger is required")
	}
	if rng == nil {
		rng = rand.New(rand.NewSource(time.Now().UnixNano()))
	}
	return &Engine{cfg: cfg, rng: rng, log: log}, nil
}

// Config 返回当前配置副本。
func (e *Engine) Config() Config {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.cfg
}

// ApplyParams 热更新引擎参数（配置热加载场景），原子生效。
func (e *Engine) ApplyParams(cfg Config) error {
	if err := validateConfig(cfg); err != nil {
		return fmt.Errorf("invalid params: %w", err)
	}
	e.mu.Lock()
	old := e.cfg
	e.cfg = cfg
	e.mu.Unlock()

	e.log.Info("engine params applied",
		zap.Float64("notional", cfg.NotionalPerTrade),
		zap.Bool("advanced_model", cfg.UseAdvancedModel),
		zap.Float64("prev_notional", old.NotionalPerTrade),
		zap.Bool("prev_advanced_model", old.UseAdvancedModel))
	return nil
}

// AttemptTrade 基于快照尝试一笔 side 方向的模拟成交。
// 数据不足（无任何 venue 报价）或概率未命中都返回 (nil, false)，绝不报错。
func (e *Engine) AttemptTrade(snap market.Snapshot, side pnl.Side) (*pnl.Trade, bool) {
	medianQuote, ok := consensus.MedianQuote(snap)
	if !ok {
		return nil, false
	}
	bestQuote, ok := consensus.BestQuote(snap)
	if !ok {
		return nil, false
	}

	e.mu.RLock()
	cfg := e.cfg
	e.mu.RUnlock()

	// 买单挂中值 bid、以最优 bid 计价；卖单挂中值 ask、以最优 ask 计价。
	// 挂单价取中值保证自身报价永远不比当前共识更激进。
	var ourPrice, marketPrice float64
	switch side {
	case pnl.Buy:
		ourPrice = medianQuote.Bid
		marketPrice = bestQuote.Bid
	case pnl.Sell:
		ourPrice = medianQuote.Ask
		marketPrice = bestQuote.Ask
	default:
		return nil, false
	}
	if ourPrice == 0 {
		return nil, false
	}

	amount := cfg.NotionalPerTrade / ourPrice
	prob := e.executionProbability(cfg, ourPrice, ourPrice, marketPrice, side)

	if draw := e.rng.Float64(); draw >= prob {
		metrics.RecordSkip(side.String())
		e.log.Debug("trade not executed",
			zap.String("side", side.String()),
			zap.Float64("price", ourPrice),
			zap.Float64("probability", prob),
			zap.Float64("draw", draw))
		return nil, false
	}

	trade := &pnl.Trade{
		ID:            uuid.NewString(),
		Side:          side,
		Price:         ourPrice,
		Amount:        amount,
		Notional:      cfg.NotionalPerTrade,
		PnL:           markToMarket(side, ourPrice, marketPrice, amount),
		Timestamp:     time.Now().UnixMilli(),
		ExecutionProb: prob,
	}
	metrics.RecordTrade(side.String(), prob)
	return trade, true
}

// executionProbability 计算成交概率。
// 基础模型恒为 0.70；高级模型在中值（0.20）与最优价（0.90）之间按方向插值。
func (e *Engine) executionProbability(cfg Config, ourPrice, medianPrice, bestPrice float64, side pnl.Side) float64 {
	if !cfg.UseAdvancedModel {
		return basicProb
	}

	switch side {
	case pnl.Buy:
		// 买方：价越高越容易成交，最优价 = 市场最高 bid
		if ourPrice >= bestPrice {
			return ceilProb
		}
		if ourPrice <= medianPrice {
			return floorProb
		}
		rng := bestPrice - medianPrice
		if rng <= 0 {
			// 退化行情：落回下限，避免除零
			return floorProb
		}
		return floorProb + (ceilProb-floorProb)*(ourPrice-medianPrice)/rng
	default: // Sell
		// 卖方：价越低越容易成交，最优价 = 市场最低 ask
		if ourPrice <= bestPrice {
			return ceilProb
		}
		if ourPrice >= medianPrice {
			return floorProb
		}
		rng := medianPrice - bestPrice
		if rng <= 0 {
			return floorProb
		}
		return floorProb + (ceilProb-floorProb)*(medianPrice-ourPrice)/rng
	}
}

// markToMarket 按对应方向的市场最优价对成交计价。
// 买入按最优 bid 估值（假设立即以其卖出），卖出按最优 ask 估值（假设回补）。
func markToMarket(side pnl.Side, ourPrice, marketPrice, amount float64) float64 {
	if side == pnl.Buy {
		return (marketPrice - ourPrice) * amount
	}
	return (ourPrice - marketPrice) * amount
}

// Summary 市场概览，供展示层使用。
type Summary struct {
	MedianBid float64
	MedianAsk float64
	MedianMid float64
	BestBid   float64
	BestAsk   float64
	SpreadBps float64
}

// MarketSummary 由快照生成市场概览；任一共识量缺失时返回 false。
func (e *Engine) MarketSummary(snap market.Snapshot) (Summary, bool) {
	medianQuote, ok := consensus.MedianQuote(snap)
	if !ok {
		return Summary{}, false
	}
	bestQuote, ok := consensus.BestQuote(snap)
	if !ok {
		return Summary{}, false
	}
	medianMid, ok := consensus.MedianMid(snap)
	if !ok {
		return Summary{}, false
	}

	sum := Summary{
		MedianBid: medianQuote.Bid,
		MedianAsk: medianQuote.Ask,
		MedianMid: medianMid,
		BestBid:   bestQuote.Bid,
		BestAsk:   bestQuote.Ask,
	}
	if medianMid != 0 {
		sum.SpreadBps = (medianQuote.Ask - medianQuote.Bid) / medianMid * 10000
	}
	metrics.UpdateConsensus(sum.MedianMid, sum.SpreadBps)
	return sum, true
}

// validateConfig 验证配置
func validateConfig(cfg Config) error {
	if cfg.NotionalPerTrade <= 0 {
		return errors.New("notional_per_trade must be > 0")
	}
	return nil
}
