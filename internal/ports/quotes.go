package ports

import "context"

// QuoteSource provides the most recent price for a tradable instrument.
type QuoteSource interface {
	// LatestClose returns the most recent daily closing price for the ticker.
	// Returns an error wrapping ErrPriceUnavailable when the source has no
	// recent data for the symbol.
	LatestClose(ctx context.Context, ticker string) (float64, error)
}
