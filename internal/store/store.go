// Package store 维护各 venue 的最新报价，供决策循环以快照方式读取。
package store

import (
	"sync"
	"time"

	"mm-simulator-go/market"
	"mm-simulator-go/metrics"
)

// EventSink 可选的事件回调，用于结构化日志等旁路消费。
type EventSink func(event string, fields map[string]interface{})

// Store 是唯一被多个 goroutine 并发写入的共享状态：
// 每个 venue adapter 独立调用 Update，决策循环调用 Snapshot。
// 每个 venue 槽位整体替换（last-writer-wins），venue 之间不保证顺序。
type Store struct {
	mu      sync.RWMutex
	quotes  map[market.Venue]market.Quote
	updated map[market.Venue]time.Time

	sink EventSink
}

func New(sink EventSink) *Store {
	return &Store{
		quotes:  make(map[market.Venue]market.Quote, len(market.Venues())),
		updated: make(map[market.Venue]time.Time, len(market.Venues())),
		sink:    sink,
	}
}

// Update 无条件替换 venue 的报价。可被任意数量的生产者并发调用。
func (s *Store) Update(v market.Venue, q market.Quote) {
	s.mu.Lock()
	s.quotes[v] = q
	s.updated[v] = time.Now()
	s.mu.Unlock()

	metrics.UpdateVenueQuote(string(v), q.Bid, q.Ask)
	s.logEvent("quote_update", map[string]interface{}{
		"venue":     string(v),
		"bid":       q.Bid,
		"ask":       q.Ask,
		"timestamp": q.Timestamp,
	})
}

// Snapshot 返回所有 venue 报价的一致性拷贝。
// 拷贝完成后与 Store 完全脱钩，调用方可任意持有。
func (s *Store) Snapshot() market.Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	snap := make(market.Snapshot, len(s.quotes))
	for v, q := range s.quotes {
		snap[v] = q
	}
	return snap
}

// Quote 返回单个 venue 的报价（若存在）。
func (s *Store) Quote(v market.Venue) (market.Quote, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	q, ok := s.quotes[v]
	return q, ok
}

// Staleness 返回距离 venue 上次更新的时间；从未更新过返回 false。
func (s *Store) Staleness(v market.Venue) (time.Duration, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	ts, ok := s.updated[v]
	if !ok {
		return 0, false
	}
	return time.Since(ts), true
}

func (s *Store) logEvent(event string, fields map[string]interface{}) {
	if s == nil || s.sink == nil {
		return
	}
	s.sink(event, fields)
}
