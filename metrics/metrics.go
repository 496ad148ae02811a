// Package metrics provides Prometheus metrics for the simulator
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// 行情指标
	VenueUpdatesTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "mmsim",
		Name:      "venue_updates_total",
		Help:      "各 venue 报价更新总数",
	}, []string{"venue"})
	VenueBid = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Namespace: "mmsim",
		Name:      "venue_bid",
		Help:      "各 venue 最新 bid",
	}, []string{"venue"})
	VenueAsk = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Namespace: "mmsim",
		Name:      "venue_ask",
		Help:      "各 venue 最新 ask",
	}, []string{"venue"})

	// 共识指标
	ConsensusMedianMid = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: "mmsim",
		Name:      "consensus_median_mid",
		Help:      "当前共识中值价",
	})
	ConsensusSpreadBps = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: "mmsim",
		Name:      "consensus_spread_bps",
		Help:      "当前共识价差（bps）",
	})

	// 交易指标
	TradesTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "mmsim",
		Name:      "trades_total",
		Help:      "模拟成交总数",
	}, []string{"side"})
	TradesSkippedTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "mmsim",
		Name:      "trades_skipped_total",
		Help:      "未成交（概率未命中或数据不足）总数",
	}, []string{"side"})
	ExecutionProbability = promauto.NewHistogram(prometheus.HistogramOpts{
		Namespace: "mmsim",
		Name:      "execution_probability",
		Help:      "成交尝试的执行概率分布",
		Buckets:   prometheus.LinearBuckets(0.1, 0.1, 9),
	})

	// PnL 指标
	TotalPnL = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: "mmsim",
		Name:      "total_pnl",
		Help:      "累计 PnL（quote 货币）",
	})
	TotalNotional = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: "mmsim",
		Name:      "total_notional",
		Help:      "累计成交名义金额",
	})

	// 系统指标
	DecisionCyclesTotal = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "mmsim",
		Name:      "decision_cycles_total",
		Help:      "决策循环执行次数",
	})
	WSReconnectsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "mmsim",
		Name:      "ws_reconnects_total",
		Help:      "WebSocket 重连次数",
	})
	PollErrorsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "mmsim",
		Name:      "poll_errors_total",
		Help:      "HTTP 轮询失败次数",
	}, []string{"venue"})
)

// UpdateVenueQuote 更新某 venue 的行情指标。
func UpdateVenueQuote(venue string, bid, ask float64) {
	VenueUpdatesTotal.WithLabelValues(venue).Inc()
	VenueBid.WithLabelValues(venue).Set(bid)
	VenueAsk.WithLabelValues(venue).Set(ask)
}

// UpdateConsensus 更新共识视图指标。
func UpdateConsensus(medianMid, spreadBps float64) {
	ConsensusMedianMid.Set(medianMid)
	ConsensusSpreadBps.Set(spreadBps)
}

// RecordTrade 记录一笔模拟成交。
func RecordTrade(side string, executionProb float64) {
	TradesTotal.WithLabelValues(side).Inc()
	ExecutionProbability.Observe(executionProb)
}

// RecordSkip 记录一次未成交的尝试。
func RecordSkip(side string) {
	TradesSkippedTotal.WithLabelValues(side).Inc()
}

// UpdatePnL 更新累计 PnL 指标。
func UpdatePnL(totalPnl, totalNotional float64) {
	TotalPnL.Set(totalPnl)
	TotalNotional.Set(totalNotional)
}

// StartMetricsServer 启动Prometheus指标服务器
func StartMetricsServer(addr string) {
	http.Handle("/metrics", promhttp.Handler())
	go func() {
		_ = http.ListenAndServe(addr, nil)
	}()
}
