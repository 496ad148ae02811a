// Package market 定义跨组件共享的行情数据类型（venue、报价、快照）。
package market

// Venue 报价来源。系统支持的来源是一个封闭集合。
type Venue string

const (
	VenueBinance Venue = "binance"
	VenueJupiter Venue = "jupiter"
	VenueCowSwap Venue = "cowswap"
)

// Venues 返回全部已知 venue（固定顺序，便于展示和遍历）。
func Venues() []Venue {
	return []Venue{VenueBinance, VenueJupiter, VenueCowSwap}
}

// Quote 单一 venue 的最新买卖报价。
// 预期 Bid <= Ask，但不强制：venue 数据异常时只容忍、不崩溃。
type Quote struct {
	Bid       float64
	Ask       float64
	Timestamp int64 // Unix 毫秒，观测时间
}

// Mid 返回报价中值。
func (q Quote) Mid() float64 {
	return (q.Bid + q.Ask) / 2
}

// Snapshot venue -> 最新报价的点时刻拷贝。缺席的 venue 不出现在 map 中。
// 快照是值语义：生成之后绝不被修改，各 venue 的条目来自某一瞬间的完整写入，
// 但不同 venue 之间不保证取自同一时刻。
type Snapshot map[Venue]Quote

// Present 返回快照中存在报价的 venue 数量。
func (s Snapshot) Present() int {
	return len(s)
}

// Has 判断某 venue 是否有报价。
func (s Snapshot) Has(v Venue) bool {
	_, ok := s[v]
	return ok
}
