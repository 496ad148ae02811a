package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestUpdateVenueQuote(t *testing.T) {
	VenueBid.WithLabelValues("binance").Set(0)
	VenueAsk.WithLabelValues("binance").Set(0)

	UpdateVenueQuote("binance", 2500.5, 2501.0)

	if got := testutil.ToFloat64(VenueBid.WithLabelValues("binance")); got != 2500.5 {
		t.Errorf("VenueBid = %f, want 2500.5", got)
	}
	if got := testutil.ToFloat64(VenueAsk.WithLabelValues("binance")); got != 2501.0 {
		t.Errorf("VenueAsk = %f, want 2501.0", got)
	}
	if got := testutil.ToFloat64(VenueUpdatesTotal.WithLabelValues("binance")); got < 1 {
		t.Errorf("VenueUpdatesTotal = %f, want >= 1", got)
	}
}

func TestUpdateConsensus(t *testing.T) {
	UpdateConsensus(2500.25, 4.2)

	if got := testutil.ToFloat64(ConsensusMedianMid); got != 2500.25 {
		t.Errorf("ConsensusMedianMid = %f, want 2500.25", got)
	}
	if got := testutil.ToFloat64(ConsensusSpreadBps); got != 4.2 {
		t.Errorf("ConsensusSpreadBps = %f, want 4.2", got)
	}
}

func TestUpdatePnL(t *testing.T) {
	UpdatePnL(123.45, 200000)

	if got := testutil.ToFloat64(TotalPnL); got != 123.45 {
		t.Errorf("TotalPnL = %f, want 123.45", got)
	}
	if got := testutil.ToFloat64(TotalNotional); got != 200000.0 {
		t.Errorf("TotalNotional = %f, want 200000", got)
	}
}

func TestRecordTradeAndSkip(t *testing.T) {
	before := testutil.ToFloat64(TradesTotal.WithLabelValues("BUY"))
	RecordTrade("BUY", 0.7)
	if got := testutil.ToFloat64(TradesTotal.WithLabelValues("BUY")); got != before+1 {
		t.Errorf("TradesTotal = %f, want %f", got, before+1)
	}

	beforeSkip := testutil.ToFloat64(TradesSkippedTotal.WithLabelValues("SELL"))
	RecordSkip("SELL")
	if got := testutil.ToFloat64(TradesSkippedTotal.WithLabelValues("SELL")); got != beforeSkip+1 {
		t.Errorf("TradesSkippedTotal = %f, want %f", got, beforeSkip+1)
	}
}
