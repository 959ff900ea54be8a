package domain

import "time"

// TradeAction represents the side of a recorded trade (BUY or SELL).
type TradeAction string

const (
	Buy  TradeAction = "BUY"
	Sell TradeAction = "SELL"
)

// IsValid reports whether the action is one of the recognized trade sides.
func (a TradeAction) IsValid() bool {
	return a == Buy || a == Sell
}

// TradeRecord is a single entry in the append-only trade ledger.
// Once written, a record is never mutated or deleted; all position state
// is recomputed from the full ordered history on every query.
type TradeRecord struct {
	UserID    string      `bson:"user_id" json:"user_id"`
	Ticker    string      `bson:"ticker" json:"ticker"`         // normalized to uppercase on write
	Action    TradeAction `bson:"action" json:"action"`         // normalized to uppercase on write
	Quantity  float64     `bson:"quantity" json:"quantity"`     // shares traded
	Price     float64     `bson:"price" json:"price"`           // per-share execution price
	Fee       float64     `bson:"fee" json:"fee"`               // transaction cost, default 0
	TradeDate time.Time   `bson:"trade_date" json:"trade_date"` // assigned at record time (UTC), not caller-supplied
}
