package domain

// Position is the derived per-ticker state produced by folding a trade
// history with the average-cost method. Positions are transient values:
// recomputed on every query, never persisted.
type Position struct {
	Shares     float64 // running net share count (may go negative on oversell)
	AvgCost    float64 // average cost basis per share; meaningful only while Shares > 0
	RealizedPL float64 // cumulative profit/loss locked in by SELL actions
}
