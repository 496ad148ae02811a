package gateway

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/sony/gobreaker"

	"mm-simulator-go/infrastructure/logger"
	"mm-simulator-go/market"
	"mm-simulator-go/metrics"
)

const (
	defaultJupiterBaseURL  = "https://lite-api.jup.ag/price/v3"
	defaultJupiterInterval = 2 * time.Second
	defaultJupiterSpread   = 5.0 // bps, synthetic spread around the USD price
)

// JupiterPoller polls the Jupiter price API on a fixed cadence. The API
// returns a single USD price, so a small synthetic spread is applied to
// produce a bid/ask pair.
type JupiterPoller struct {
	BaseURL   string
	TokenID   string
	Interval  time.Duration
	SpreadBps float64

	client  *http.Client
	limiter *TokenBucketLimiter
	breaker *gobreaker.CircuitBreaker
	writer  QuoteWriter
	log     *logger.Logger
}

func NewJupiterPoller(tokenID string, writer QuoteWriter, log *logger.Logger) *JupiterPoller {
	return &JupiterPoller{
		BaseURL:   defaultJupiterBaseURL,
		TokenID:   tokenID,
		Interval:  defaultJupiterInterval,
		SpreadBps: defaultJupiterSpread,
		client:    &http.Client{Timeout: 10 * time.Second},
		limiter:   NewTokenBucketLimiter(2, 4),
		breaker:   newPollerBreaker("jupiter"),
		writer:    writer,
		log:       log,
	}
}

// Run polls until ctx is canceled. Fetch failures are recorded and logged;
// the venue simply stays stale until the next successful poll.
func (p *JupiterPoller) Run(ctx context.Context) error {
	if p.TokenID == "" {
		return fmt.Errorf("token id required")
	}
	interval := p.Interval
	if interval <= 0 {
		interval = defaultJupiterInterval
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			if err := p.limiter.Wait(ctx); err != nil {
				return err
			}
			quote, err := p.poll(ctx)
			if err != nil {
				metrics.PollErrorsTotal.WithLabelValues(string(market.VenueJupiter)).Inc()
				p.log.LogError(err, map[string]interface{}{
					"venue": string(market.VenueJupiter),
					"op":    "poll",
				})
				continue
			}
			p.writer.Update(market.VenueJupiter, quote)
		}
	}
}

func (p *JupiterPoller) poll(ctx context.Context) (market.Quote, error) {
	res, err := p.breaker.Execute(func() (interface{}, error) {
		return p.fetchPrice(ctx)
	})
	if err != nil {
		return market.Quote{}, err
	}
	price := res.(float64)
	if price <= 0 {
		return market.Quote{}, fmt.Errorf("non-positive price %f", price)
	}

	spread := price * p.SpreadBps / 10000
	return market.Quote{
		Bid:       price - spread,
		Ask:       price + spread,
		Timestamp: time.Now().UnixMilli(),
	}, nil
}

func (p *JupiterPoller) fetchPrice(ctx context.Context) (float64, error) {
	url := fmt.Sprintf("%s?ids=%s", p.BaseURL, p.TokenID)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return 0, err
	}
	resp, err := p.client.Do(req)
	if err != nil {
		return 0, fmt.Errorf("fetch: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return 0, fmt.Errorf("unexpected status %d", resp.StatusCode)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return 0, fmt.Errorf("read body: %w", err)
	}

	var payload map[string]struct {
		UsdPrice float64 `json:"usdPrice"`
	}
	if err := json.Unmarshal(body, &payload); err != nil {
		return 0, fmt.Errorf("decode: %w", err)
	}
	entry, ok := payload[p.TokenID]
	if !ok {
		return 0, fmt.Errorf("token %s missing from response", p.TokenID)
	}
	return entry.UsdPrice, nil
}

// newPollerBreaker 轮询用断路器：连续失败过多时快速失败，给上游喘息时间。
func newPollerBreaker(name string) *gobreaker.CircuitBreaker {
	return gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        name,
		MaxRequests: 1,
		Timeout:     30 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= 5
		},
	})
}
