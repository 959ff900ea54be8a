package ports

import (
	"context"

	"portfoliobot/internal/domain"
)

// TradeLedger defines the interface for the append-only trade log.
// Records are immutable once appended; there is no update or delete.
type TradeLedger interface {
	// Append durably stores a new trade record.
	Append(ctx context.Context, rec *domain.TradeRecord) error
	// FindByUser retrieves all records for a user in insertion order.
	// Returns an empty slice (not an error) when the user has no trades.
	FindByUser(ctx context.Context, userID string) ([]*domain.TradeRecord, error)
	// Close releases the underlying store connection.
	Close(ctx context.Context) error
}
