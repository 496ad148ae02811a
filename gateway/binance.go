package gateway

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"mm-simulator-go/infrastructure/logger"
	"mm-simulator-go/market"
	"mm-simulator-go/metrics"
)

const (
	// BinanceWSEndpoint 现货公共行情流
	BinanceWSEndpoint = "wss://stream.binance.com:9443"

	defaultReconnectDelay = 5 * time.Second
	readDeadline          = 30 * time.Second
	pingInterval          = 15 * time.Second
)

// bookTicker 消息：价格字段是字符串。
type bookTickerMsg struct {
	Symbol   string `json:"s"`
	BidPrice string `json:"b"`
	BidQty   string `json:"B"`
	AskPrice string `json:"a"`
	AskQty   string `json:"A"`
}

// BinanceWS 订阅 <symbol>@bookTicker 流并持续写入最新报价。
// 断线后按固定间隔无限重连，绝不放弃也绝不退出进程。
type BinanceWS struct {
	Endpoint       string
	Symbol         string
	ReconnectDelay time.Duration

	dialer *websocket.Dialer
	writer QuoteWriter
	log    *logger.Logger
}

func NewBinanceWS(symbol string, writer QuoteWriter, log *logger.Logger) *BinanceWS {
	return &BinanceWS{
		Endpoint:       BinanceWSEndpoint,
		Symbol:         strings.ToUpper(symbol),
		ReconnectDelay: defaultReconnectDelay,
		dialer:         &websocket.Dialer{HandshakeTimeout: 10 * time.Second},
		writer:         writer,
		log:            log,
	}
}

// Run 连接并读取，直到 ctx 取消。连接失败或读错误时固定退避后重试。
func (b *BinanceWS) Run(ctx context.Context) error {
	if b.Symbol == "" {
		return fmt.Errorf("symbol required")
	}
	delay := b.ReconnectDelay
	if delay <= 0 {
		delay = defaultReconnectDelay
	}

	for {
		if err := b.consume(ctx); err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			metrics.WSReconnectsTotal.Inc()
			b.log.Warn("binance stream disconnected, retrying",
				zap.Error(err),
				zap.Duration("delay", delay))
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(delay):
		}
	}
}

func (b *BinanceWS) consume(ctx context.Context) error {
	url := fmt.Sprintf("%s/ws/%s@bookTicker", b.Endpoint, strings.ToLower(b.Symbol))
	conn, _, err := b.dialer.DialContext(ctx, url, nil)
	if err != nil {
		return fmt.Errorf("dial: %w", err)
	}
	defer conn.Close()

	b.log.Info("connected to binance stream",
		zap.String("symbol", b.Symbol))

	conn.SetReadLimit(1 << 20)
	_ = conn.SetReadDeadline(time.Now().Add(readDeadline))
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(readDeadline))
	})

	// 定期 ping 保活
	pingCtx, cancel := context.WithCancel(ctx)
	defer cancel()
	go func() {
		ticker := time.NewTicker(pingInterval)
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				_ = conn.SetWriteDeadline(time.Now().Add(5 * time.Second))
				if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
					return
				}
			case <-pingCtx.Done():
				return
			}
		}
	}()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}
		_, message, err := conn.ReadMessage()
		if err != nil {
			return fmt.Errorf("read: %w", err)
		}
		quote, err := parseBookTicker(message)
		if err != nil {
			// 解析失败只记录，不断开
			b.log.Warn("bad binance message", zap.Error(err))
			continue
		}
		b.writer.Update(market.VenueBinance, quote)
	}
}

// parseBookTicker 解析 bookTicker 消息为报价。
func parseBookTicker(raw []byte) (market.Quote, error) {
	var msg bookTickerMsg
	if err := json.Unmarshal(raw, &msg); err != nil {
		return market.Quote{}, fmt.Errorf("decode: %w", err)
	}
	bid, err := strconv.ParseFloat(msg.BidPrice, 64)
	if err != nil {
		return market.Quote{}, fmt.Errorf("bid price %q: %w", msg.BidPrice, err)
	}
	ask, err := strconv.ParseFloat(msg.AskPrice, 64)
	if err != nil {
		return market.Quote{}, fmt.Errorf("ask price %q: %w", msg.AskPrice, err)
	}
	return market.Quote{
		Bid:       bid,
		Ask:       ask,
		Timestamp: time.Now().UnixMilli(),
	}, nil
}
