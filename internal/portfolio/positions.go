package portfolio

import (
	"strings"

	"portfoliobot/internal/domain"
)

// ComputePositions folds an ordered trade history into per-ticker positions
// using the average-cost method. It is a pure function of the input
// sequence: no I/O, deterministic, order-sensitive once SELLs are
// interleaved with BUYs.
//
// A BUY recomputes the average cost as the weighted average of the prior
// holding and the new lot (fees included in cost basis). A SELL realizes
// P/L against the current average cost and never changes it; when the
// share count returns to exactly zero the average cost resets to zero.
// Oversell is permitted and drives the share count negative.
//
// Records with an unrecognized action are skipped. New writes are
// validated at the ledger boundary; the fold stays tolerant so that
// legacy rows cannot poison a report.
func ComputePositions(trades []*domain.TradeRecord) map[string]*domain.Position {
	positions := make(map[string]*domain.Position)

	for _, tr := range trades {
		ticker := strings.ToUpper(tr.Ticker)
		p := positions[ticker]
		if p == nil {
			p = &domain.Position{}
			positions[ticker] = p
		}

		switch domain.TradeAction(strings.ToUpper(string(tr.Action))) {
		case domain.Buy:
			totalCost := p.Shares*p.AvgCost + tr.Quantity*tr.Price + tr.Fee
			newShares := p.Shares + tr.Quantity
			if newShares != 0 {
				p.AvgCost = totalCost / newShares
			} else {
				p.AvgCost = 0
			}
			p.Shares = newShares

		case domain.Sell:
			p.RealizedPL += (tr.Price-p.AvgCost)*tr.Quantity - tr.Fee
			p.Shares -= tr.Quantity
			if p.Shares == 0 {
				p.AvgCost = 0
			}
		}
	}

	return positions
}
