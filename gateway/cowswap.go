package gateway

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"math"
	"net/http"
	"strconv"
	"time"

	"github.com/sony/gobreaker"

	"mm-simulator-go/infrastructure/logger"
	"mm-simulator-go/market"
	"mm-simulator-go/metrics"
)

const (
	defaultCowSwapBaseURL  = "https://api.cow.fi/mainnet/api/v1"
	defaultCowSwapInterval = 3 * time.Second
	defaultCowSwapSpread   = 10.0 // bps

	// Mainnet token addresses for the ETH/USDC pair.
	ethAddress  = "0xEeeeeEeeeEeEeeEeEeEeeEEEeeeeEeeeeeeeEEeE"
	usdcAddress = "0xA0b86991c6218b36c1d19D4a2e9Eb0cE3606eB48"
	zeroAddress = "0x0000000000000000000000000000000000000000"
)

type cowQuoteRequest struct {
	SellToken           string `json:"sellToken"`
	BuyToken            string `json:"buyToken"`
	SellAmountBeforeFee string `json:"sellAmountBeforeFee"`
	Kind                string `json:"kind"`
	From                string `json:"from"`
}

type cowQuoteResponse struct {
	Quote struct {
		SellAmount string `json:"sellAmount"`
		BuyAmount  string `json:"buyAmount"`
	} `json:"quote"`
}

// CowSwapPoller polls the CoW Protocol quote endpoint. The implied fill
// price of a reference sell order is taken as the venue price, with a
// synthetic spread applied around it.
type CowSwapPoller struct {
	BaseURL   string
	Interval  time.Duration
	SpreadBps float64

	// Reference order: sell 1000 USDC for ETH.
	SellToken    string
	BuyToken     string
	SellAmount   string
	SellDecimals int
	BuyDecimals  int

	client  *http.Client
	limiter *TokenBucketLimiter
	breaker *gobreaker.CircuitBreaker
	writer  QuoteWriter
	log     *logger.Logger
}

func NewCowSwapPoller(writer QuoteWriter, log *logger.Logger) *CowSwapPoller {
	return &CowSwapPoller{
		BaseURL:      defaultCowSwapBaseURL,
		Interval:     defaultCowSwapInterval,
		SpreadBps:    defaultCowSwapSpread,
		SellToken:    usdcAddress,
		BuyToken:     ethAddress,
		SellAmount:   "1000000000", // 1000 USDC at 6 decimals
		SellDecimals: 6,
		BuyDecimals:  18,
		client:       &http.Client{Timeout: 10 * time.Second},
		limiter:      NewTokenBucketLimiter(1, 2),
		breaker:      newPollerBreaker("cowswap"),
		writer:       writer,
		log:          log,
	}
}

// Run polls until ctx is canceled; failures only leave the venue stale.
func (p *CowSwapPoller) Run(ctx context.Context) error {
	interval := p.Interval
	if interval <= 0 {
		interval = defaultCowSwapInterval
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
				metrics.PollErrorsTotal.WithLabelValues(string(market.VenueCowSwap)).Inc()
				p.log.LogError(err, map[string]interface{}{
					"venue": string(market.VenueCowSwap),
					"op":    "poll",
				})
				continue
			}
			p.writer.Update(market.VenueCowSwap, quote)
		}
	}
}

func (p *CowSwapPoller) poll(ctx context.Context) (market.Quote, error) {
	res, err := p.breaker.Execute(func() (interface{}, error) {
		return p.fetchQuote(ctx)
	})
	if err != nil {
		return market.Quote{}, err
	}
	price := res.(float64)
	if price <= 0 || math.IsInf(price, 0) || math.IsNaN(price) {
		return market.Quote{}, fmt.Errorf("bad implied price %f", price)
	}

	spread := price * p.SpreadBps / 10000
	return market.Quote{
		Bid:       price - spread,
		Ask:       price + spread,
		Timestamp: time.Now().UnixMilli(),
	}, nil
}

func (p *CowSwapPoller) fetchQuote(ctx context.Context) (float64, error) {
	payload, err := json.Marshal(cowQuoteRequest{
		SellToken:           p.SellToken,
		BuyToken:            p.BuyToken,
		SellAmountBeforeFee: p.SellAmount,
		Kind:                "sell",
		From:                zeroAddress,
	})
	if err != nil {
		return 0, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.BaseURL+"/quote", bytes.NewReader(payload))
	if err != nil {
		return 0, err
	}
	req.Header.Set("Content-Type", "application/json")

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

	var out cowQuoteResponse
	if err := json.Unmarshal(body, &out); err != nil {
		return 0, fmt.Errorf("decode: %w", err)
	}
	return impliedPrice(out.Quote.SellAmount, out.Quote.BuyAmount, p.SellDecimals, p.BuyDecimals)
}

// impliedPrice converts raw token amounts to a quote-per-base price.
func impliedPrice(sellAmount, buyAmount string, sellDecimals, buyDecimals int) (float64, error) {
	sell, err := strconv.ParseFloat(sellAmount, 64)
	if err != nil {
		return 0, fmt.Errorf("sell amount %q: %w", sellAmount, err)
	}
	buy, err := strconv.ParseFloat(buyAmount, 64)
	if err != nil {
		return 0, fmt.Errorf("buy amount %q: %w", buyAmount, err)
	}
	if buy == 0 {
		return 0, fmt.Errorf("zero buy amount")
	}
	return (sell / math.Pow10(sellDecimals)) / (buy / math.Pow10(buyDecimals)), nil
}
