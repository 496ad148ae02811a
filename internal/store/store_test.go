package store

import (
	"testing"

	"mm-simulator-go/market"
)

func TestUpdateReplacesVenueQuote(t *testing.T) {
	st := New(nil)

	st.Update(market.VenueBinance, market.Quote{Bid: 100, Ask: 101, Timestamp: 1_000})
	st.Update(market.VenueBinance, market.Quote{Bid: 100.5, Ask: 101.5, Timestamp: 2_000})

	q, ok := st.Quote(market.VenueBinance)
	if !ok {
		t.Fatal("expected binance quote present")
	}
	if q.Bid != 100.5 || q.Ask != 101.5 || q.Timestamp != 2_000 {
		t.Fatalf("unexpected quote after replace: %+v", q)
	}
}

func TestSnapshotOmitsAbsentVenues(t *testing.T) {
	st := New(nil)
	st.Update(market.VenueJupiter, market.Quote{Bid: 99, Ask: 100, Timestamp: 1})

	snap := st.Snapshot()
	if snap.Present() != 1 {
		t.Fatalf("expected 1 venue present, got %d", snap.Present())
	}
	if !snap.Has(market.VenueJupiter) {
		t.Fatal("jupiter missing from snapshot")
	}
	if snap.Has(market.VenueBinance) || snap.Has(market.VenueCowSwap) {
		t.Fatal("absent venues must not appear in snapshot")
	}
}

func TestSnapshotIsDetachedCopy(t *testing.T) {
	st := New(nil)
	st.Update(market.VenueBinance, market.Quote{Bid: 100, Ask: 101, Timestamp: 1})

	snap := st.Snapshot()
	st.Update(market.VenueBinance, market.Quote{Bid: 200, Ask: 201, Timestamp: 2})

	if q := snap[market.VenueBinance]; q.Bid != 100 {
		t.Fatalf("snapshot mutated by later write: %+v", q)
	}
}

func TestStalenessUnknownVenue(t *testing.T) {
	st := New(nil)
	if _, ok := st.Staleness(market.VenueCowSwap); ok {
		t.Fatal("staleness should be unknown before first update")
	}

	st.Update(market.VenueCowSwap, market.Quote{Bid: 1, Ask: 2, Timestamp: 1})
	d, ok := st.Staleness(market.VenueCowSwap)
	if !ok {
		t.Fatal("staleness should be known after update")
	}
	if d < 0 {
		t.Fatalf("negative staleness %v", d)
	}
}

func TestEventSinkReceivesUpdates(t *testing.T) {
	var events []string
	st := New(func(event string, fields map[string]interface{}) {
		events = append(events, event)
		if fields["venue"] != "binance" {
			t.Fatalf("unexpected venue field %v", fields["venue"])
		}
	})

	st.Update(market.VenueBinance, market.Quote{Bid: 1, Ask: 2, Timestamp: 3})
	if len(events) != 1 || events[0] != "quote_update" {
		t.Fatalf("unexpected events %v", events)
	}
}
