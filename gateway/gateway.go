// Package gateway 实现各 venue 的行情接入 adapter。
// 每个 adapter 独立运行，把最新报价写入共享 store；
// 任何传输/解析错误都只影响自身（该 venue 变陈旧），不影响进程。
package gateway

import (
	"mm-simulator-go/market"
)

// QuoteWriter 是 adapter 对核心的唯一接口：整体替换某 venue 的报价。
type QuoteWriter interface {
	Update(v market.Venue, q market.Quote)
}
