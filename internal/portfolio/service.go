package portfolio

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"portfoliobot/internal/domain"
	"portfoliobot/internal/ports"
)

// Service is the portfolio valuation engine. It combines the append-only
// trade ledger with a live quote source to produce realized and
// unrealized P/L reports. All derived state is recomputed from the full
// trade history on every call; the service itself holds no mutable state.
type Service struct {
	ledger ports.TradeLedger
	quotes ports.QuoteSource
	logger ports.Logger
}

// NewService creates a new portfolio engine instance.
func NewService(ledger ports.TradeLedger, quotes ports.QuoteSource, logger ports.Logger) (*Service, error) {
	if ledger == nil || quotes == nil || logger == nil {
		return nil, fmt.Errorf("missing required dependencies for portfolio service")
	}
	return &Service{ledger: ledger, quotes: quotes, logger: logger}, nil
}

// RecordTrade validates and normalizes a trade, stamps it with the current
// UTC time, and appends it to the ledger. Ticker and action are uppercased;
// actions other than BUY and SELL are rejected with ports.ErrInvalidAction.
// Re-invoking with identical arguments produces a distinct record.
func (s *Service) RecordTrade(ctx context.Context, userID, ticker, action string, quantity, price, fee float64) (*domain.TradeRecord, error) {
	if strings.TrimSpace(userID) == "" {
		return nil, fmt.Errorf("user id must not be empty: %w", ports.ErrInvalidRequest)
	}
	ticker = strings.ToUpper(strings.TrimSpace(ticker))
	if ticker == "" {
		return nil, fmt.Errorf("ticker must not be empty: %w", ports.ErrInvalidRequest)
	}
	if quantity < 0 {
		return nil, fmt.Errorf("quantity must not be negative: %w", ports.ErrInvalidRequest)
	}

	act := domain.TradeAction(strings.ToUpper(strings.TrimSpace(action)))
	if !act.IsValid() {
		return nil, fmt.Errorf("%w: %q", ports.ErrInvalidAction, action)
	}

	rec := &domain.TradeRecord{
		UserID:    userID,
		Ticker:    ticker,
		Action:    act,
		Quantity:  quantity,
		Price:     price,
		Fee:       fee,
		TradeDate: time.Now().UTC(),
	}

	if err := s.ledger.Append(ctx, rec); err != nil {
		return nil, fmt.Errorf("failed to record trade for %s: %w", ticker, err)
	}
	s.logger.Info(ctx, "Trade recorded", map[string]interface{}{
		"userID":   userID,
		"ticker":   ticker,
		"action":   string(act),
		"quantity": quantity,
		"price":    price,
	})
	return rec, nil
}

// ProfitForTicker computes the realized and unrealized P/L for a single
// ticker. The ticker match against the stored history is case-insensitive.
// Returns (nil, nil) when the user has never traded the ticker; that is a
// structured "no data" outcome, not a failure.
func (s *Service) ProfitForTicker(ctx context.Context, userID, ticker string) (*domain.TickerReport, error) {
	ticker = strings.ToUpper(strings.TrimSpace(ticker))

	trades, err := s.ledger.FindByUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to load trade history for user %s: %w", userID, err)
	}

	matched := make([]*domain.TradeRecord, 0, len(trades))
	for _, tr := range trades {
		if strings.ToUpper(tr.Ticker) == ticker {
			matched = append(matched, tr)
		}
	}
	if len(matched) == 0 {
		s.logger.Debug(ctx, "No transactions found for ticker", map[string]interface{}{"userID": userID, "ticker": ticker})
		return nil, nil
	}

	pos := ComputePositions(matched)[ticker]
	return s.valueTicker(ctx, ticker, pos)
}

// TotalProfit computes positions for every ticker the user has traded and
// aggregates realized and unrealized P/L across the whole portfolio.
// Price lookups are issued serially, one per held ticker; the first quote
// failure aborts the entire report (no partial results).
func (s *Service) TotalProfit(ctx context.Context, userID string) (*domain.PortfolioReport, error) {
	trades, err := s.ledger.FindByUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to load trade history for user %s: %w", userID, err)
	}

	positions := ComputePositions(trades)

	report := &domain.PortfolioReport{
		ByTicker: make(map[string]*domain.TickerReport, len(positions)),
	}

	// Iterate in sorted order so serial price lookups and logs are stable.
	tickers := make([]string, 0, len(positions))
	for ticker := range positions {
		tickers = append(tickers, ticker)
	}
	sort.Strings(tickers)

	for _, ticker := range tickers {
		tr, err := s.valueTicker(ctx, ticker, positions[ticker])
		if err != nil {
			return nil, err
		}
		report.ByTicker[ticker] = tr
		report.TotalRealized += tr.RealizedPL
		report.TotalUnrealized += tr.UnrealizedPL
	}
	report.TotalPL = report.TotalRealized + report.TotalUnrealized
	return report, nil
}

// valueTicker builds the valuation summary for one position. A live price
// is fetched only while shares are held; flat or negative positions report
// zeroed price fields. The percentage guard covers cost_basis <= 0.
func (s *Service) valueTicker(ctx context.Context, ticker string, pos *domain.Position) (*domain.TickerReport, error) {
	report := &domain.TickerReport{
		Ticker:     ticker,
		Shares:     pos.Shares,
		AvgCost:    pos.AvgCost,
		RealizedPL: pos.RealizedPL,
	}

	if pos.Shares > 0 {
		price, err := s.quotes.LatestClose(ctx, ticker)
		if err != nil {
			return nil, fmt.Errorf("failed to fetch price for %s: %w", ticker, err)
		}
		report.CurrentPrice = price
		report.MarketValue = pos.Shares * price
		costBasis := pos.Shares * pos.AvgCost
		report.UnrealizedPL = report.MarketValue - costBasis
		if costBasis > 0 {
			report.UnrealizedPct = report.UnrealizedPL / costBasis * 100
		}
	}

	report.TotalPL = report.RealizedPL + report.UnrealizedPL
	return report, nil
}
