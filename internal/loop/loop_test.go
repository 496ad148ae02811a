package loop

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"mm-simulator-go/infrastructure/logger"
	"mm-simulator-go/internal/engine"
	"mm-simulator-go/internal/pnl"
	"mm-simulator-go/internal/store"
	"mm-simulator-go/market"
)

type alwaysFill struct{}

func (alwaysFill) Float64() float64 { return 0 }

type neverFill struct{}

func (neverFill) Float64() float64 { return 0.9999 }

func newTestLogger(t *testing.T) *logger.Logger {
	t.Helper()
	lg, err := logger.New(logger.Config{Level: "error", Outputs: nil, Format: "json"})
	require.NoError(t, err)
	return lg
}

func newRunner(t *testing.T, st *store.Store, rng engine.RandSource, cfg Config) (*Runner, *pnl.Tracker) {
	t.Helper()
	eng, err := engine.New(engine.Config{NotionalPerTrade: 1000}, rng, newTestLogger(t))
	require.NoError(t, err)
	tracker := pnl.NewTracker()
	runner, err := NewRunner(cfg, st, eng, tracker, newTestLogger(t))
	require.NoError(t, err)
	return runner, tracker
}

func TestNewRunnerRequiresComponents(t *testing.T) {
	_, err := NewRunner(Config{}, nil, nil, nil, nil)
	assert.Error(t, err)
}

func TestSessionRecordsTradesAndEnds(t *testing.T) {
	st := store.New(nil)
	st.Update(market.VenueBinance, market.Quote{Bid: 100, Ask: 101, Timestamp: 1})
	st.Update(market.VenueJupiter, market.Quote{Bid: 99, Ask: 102, Timestamp: 2})

	runner, tracker := newRunner(t, st, alwaysFill{}, Config{
		Symbol:     "TEST",
		Interval:   5 * time.Millisecond,
		Duration:   60 * time.Millisecond,
		StatsEvery: 3,
	})

	err := runner.Run(context.Background())
	require.NoError(t, err)

	rs := runner.Statistics()
	assert.Greater(t, rs.TotalCycles, int64(0))

	stats := tracker.Stats()
	// draw=0 保证每个周期买卖各一笔
	assert.Equal(t, int64(stats.TotalTrades), rs.TotalFills)
	assert.Equal(t, stats.BuyTrades, stats.SellTrades)
	assert.Greater(t, stats.TotalTrades, 0)
}

func TestSessionDegradesToZeroVenues(t *testing.T) {
	// 空 store：每个周期都应跳过成交而不报错
	runner, tracker := newRunner(t, store.New(nil), alwaysFill{}, Config{
		Interval: 5 * time.Millisecond,
		Duration: 40 * time.Millisecond,
	})

	err := runner.Run(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 0, tracker.Stats().TotalTrades)
	assert.Greater(t, runner.Statistics().TotalSkips, int64(0))
}

func TestSessionStopsOnContextCancel(t *testing.T) {
	st := store.New(nil)
	st.Update(market.VenueBinance, market.Quote{Bid: 100, Ask: 101, Timestamp: 1})

	runner, _ := newRunner(t, st, neverFill{}, Config{
		Interval: 5 * time.Millisecond,
		// Duration 0：只受 ctx 控制
	})

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Millisecond)
	defer cancel()

	err := runner.Run(ctx)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestProbabilityMissProducesNoTrades(t *testing.T) {
	st := store.New(nil)
	st.Update(market.VenueBinance, market.Quote{Bid: 100, Ask: 101, Timestamp: 1})

	runner, tracker := newRunner(t, st, neverFill{}, Config{
		Interval: 5 * time.Millisecond,
		Duration: 40 * time.Millisecond,
	})

	err := runner.Run(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 0, tracker.Stats().TotalTrades)
	assert.Equal(t, int64(0), runner.Statistics().TotalFills)
}
