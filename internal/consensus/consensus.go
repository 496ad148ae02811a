// Package consensus derives aggregate price views from a venue snapshot.
// All functions are pure: they never mutate the snapshot and hold no state.
package consensus

import (
	"sort"

	"mm-simulator-go/market"
)

// MedianQuote returns the floor-median (element at index count/2 of the
// sorted values) bid and ask across present venues.
// Bids and asks are sorted independently, so the two medians may come from
// different venues. The timestamp is the latest seen across venues.
// Returns false iff no venue has a quote.
func MedianQuote(snap market.Snapshot) (market.Quote, bool) {
	if len(snap) == 0 {
		return market.Quote{}, false
	}

	bids := make([]float64, 0, len(snap))
	asks := make([]float64, 0, len(snap))
	var latest int64
	for _, q := range snap {
		bids = append(bids, q.Bid)
		asks = append(asks, q.Ask)
		if q.Timestamp > latest {
			latest = q.Timestamp
		}
	}
	sort.Float64s(bids)
	sort.Float64s(asks)

	// Floor-based selection: element at index count/2 of the sorted slice,
	// never an average of the two middle values.
	return market.Quote{
		Bid:       bids[len(bids)/2],
		Ask:       asks[len(asks)/2],
		Timestamp: latest,
	}, true
}

// BestQuote returns the highest bid and lowest ask across present venues,
// each chosen independently. When venues disagree sharply the pair can be
// crossed (bid above ask); downstream PnL math relies on exactly this
// policy, so it is kept rather than normalized away.
// Returns false iff no venue has a quote.
func BestQuote(snap market.Snapshot) (market.Quote, bool) {
	if len(snap) == 0 {
		return market.Quote{}, false
	}

	first := true
	var best market.Quote
	for _, q := range snap {
		if first {
			best = q
			first = false
			continue
		}
		if q.Bid > best.Bid {
			best.Bid = q.Bid
		}
		if q.Ask < best.Ask {
			best.Ask = q.Ask
		}
		if q.Timestamp > best.Timestamp {
			best.Timestamp = q.Timestamp
		}
	}
	return best, true
}

// MedianMid returns the floor-median of per-venue mid prices. This is a
// median over (bid+ask)/2 values, which is not the same number as
// (medianBid+medianAsk)/2.
// Returns false iff no venue has a quote.
func MedianMid(snap market.Snapshot) (float64, bool) {
	if len(snap) == 0 {
		return 0, false
	}

	mids := make([]float64, 0, len(snap))
	for _, q := range snap {
		mids = append(mids, q.Mid())
	}
	sort.Float64s(mids)
	return mids[len(mids)/2], true
}

// SpreadBps returns the median spread in basis points relative to the
// median mid. Defined only when the median mid exists and is nonzero.
func SpreadBps(snap market.Snapshot) (float64, bool) {
	mid, ok := MedianMid(snap)
	if !ok || mid == 0 {
		return 0, false
	}
	med, ok := MedianQuote(snap)
	if !ok {
		return 0, false
	}
	return (med.Ask - med.Bid) / mid * 10000, true
}
