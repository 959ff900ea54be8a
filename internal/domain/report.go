package domain

// TickerReport is the valuation summary for a single ticker.
// Price-dependent fields (CurrentPrice, MarketValue, UnrealizedPL,
// UnrealizedPct) are zero when the position holds no shares; no live
// price is fetched in that case.
type TickerReport struct {
	Ticker        string  `json:"ticker"`
	Shares        float64 `json:"shares"`
	AvgCost       float64 `json:"avg_cost"`
	CurrentPrice  float64 `json:"current_price"`
	MarketValue   float64 `json:"market_value"`
	RealizedPL    float64 `json:"realized_pl"`
	UnrealizedPL  float64 `json:"unrealized_pl"`
	UnrealizedPct float64 `json:"unrealized_pct"`
	TotalPL       float64 `json:"total_pl"`
}

// PortfolioReport aggregates valuation across every ticker a user has traded.
type PortfolioReport struct {
	ByTicker        map[string]*TickerReport `json:"by_ticker"`
	TotalRealized   float64                  `json:"total_realized"`
	TotalUnrealized float64                  `json:"total_unrealized"`
	TotalPL         float64                  `json:"total_pl"`
}
