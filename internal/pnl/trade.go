package pnl

// Side identifies the direction of a simulated trade.
type Side int

const (
	Buy Side = iota
	Sell
)

// String returns the side name.
func (s Side) String() string {
	switch s {
	case Buy:
		return "BUY"
	case Sell:
		return "SELL"
	default:
		return "UNKNOWN"
	}
}

// Trade is one executed simulated order. It is immutable once created and
// appended to the ledger exactly once.
type Trade struct {
	ID            string
	Side          Side
	Price         float64 // quoted price the order filled at
	Amount        float64 // base units (notional / price)
	Notional      float64 // quote-currency size
	PnL           float64 // mark-to-market against the opposing best price
	Timestamp     int64   // Unix millis
	ExecutionProb float64 // probability the fill was drawn against
}
