package gateway

import (
	"context"
	"math/rand"
	"time"

	"mm-simulator-go/market"
)

// StubVenue emits a synthetic random-walk quote stream. Useful for offline
// simulation and tests where no network venues are available.
type StubVenue struct {
	Venue     market.Venue
	Start     float64 // initial mid price
	Step      float64 // per-tick gaussian step size
	SpreadBps float64
	Interval  time.Duration

	rng    *rand.Rand
	writer QuoteWriter
}

func NewStubVenue(v market.Venue, start float64, seed int64, writer QuoteWriter) *StubVenue {
	return &StubVenue{
		Venue:     v,
		Start:     start,
		Step:      start * 0.0002,
		SpreadBps: 8,
		Interval:  200 * time.Millisecond,
		rng:       rand.New(rand.NewSource(seed)),
		writer:    writer,
	}
}

// Run walks the price until ctx is canceled.
func (s *StubVenue) Run(ctx context.Context) error {
	interval := s.Interval
	if interval <= 0 {
		interval = 200 * time.Millisecond
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	mid := s.Start
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			mid += s.rng.NormFloat64() * s.Step
			if mid <= 0 {
				mid = s.Start
			}
			spread := mid * s.SpreadBps / 10000
			s.writer.Update(s.Venue, market.Quote{
				Bid:       mid - spread,
				Ask:       mid + spread,
				Timestamp: time.Now().UnixMilli(),
			})
		}
	}
}
