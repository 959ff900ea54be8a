package mongoledger

import (
	"context"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"

	"portfoliobot/internal/domain"
	"portfoliobot/internal/ports"
)

const collectionName = "transactions"

// Ledger implements the ports.TradeLedger interface using MongoDB.
// Trade records live in a single collection, queried by exact user_id
// match and returned in natural (insertion) order.
type Ledger struct {
	client *mongo.Client
	coll   *mongo.Collection
	logger ports.Logger
}

// Config holds configuration for the MongoDB ledger.
type Config struct {
	URI      string
	Database string
	Logger   ports.Logger
}

// NewLedger connects to MongoDB, verifies the connection with a ping, and
// returns a ledger handle. The caller owns the lifecycle and must call
// Close at shutdown.
func NewLedger(ctx context.Context, cfg Config) (*Ledger, error) {
	if cfg.Logger == nil {
		return nil, fmt.Errorf("logger is required for MongoDB ledger")
	}
	if cfg.URI == "" {
		return nil, fmt.Errorf("MongoDB URI is required: %w", ports.ErrConfiguration)
	}
	if cfg.Database == "" {
		cfg.Database = "portfolio_db"
	}

	client, err := mongo.Connect(ctx, options.Client().ApplyURI(cfg.URI))
	if err != nil {
		err = fmt.Errorf("failed to connect to MongoDB at '%s': %w: %w", cfg.URI, ports.ErrDBConnection, err)
		cfg.Logger.Error(ctx, err, "MongoDB ledger initialization failed")
		return nil, err
	}

	// Force a real connection attempt before accepting writes.
	if err := client.Ping(ctx, readpref.Primary()); err != nil {
		_ = client.Disconnect(ctx)
		err = fmt.Errorf("failed to ping MongoDB at '%s': %w: %w", cfg.URI, ports.ErrDBConnection, err)
		cfg.Logger.Error(ctx, err, "MongoDB ledger initialization failed")
		return nil, err
	}
	cfg.Logger.Info(ctx, "MongoDB connection established", map[string]interface{}{"database": cfg.Database})

	return &Ledger{
		client: client,
		coll:   client.Database(cfg.Database).Collection(collectionName),
		logger: cfg.Logger,
	}, nil
}

// Append durably stores a new trade record.
func (l *Ledger) Append(ctx context.Context, rec *domain.TradeRecord) error {
	if _, err := l.coll.InsertOne(ctx, rec); err != nil {
		return fmt.Errorf("failed to insert trade for user %s: %w: %w", rec.UserID, ports.ErrStorage, err)
	}
	l.logger.Debug(ctx, "Trade appended", map[string]interface{}{
		"userID": rec.UserID,
		"ticker": rec.Ticker,
		"action": string(rec.Action),
	})
	return nil
}

// FindByUser retrieves all records for a user in insertion order.
func (l *Ledger) FindByUser(ctx context.Context, userID string) ([]*domain.TradeRecord, error) {
	cursor, err := l.coll.Find(ctx, bson.M{"user_id": userID})
	if err != nil {
		return nil, fmt.Errorf("failed to query trades for user %s: %w: %w", userID, ports.ErrQueryFailed, err)
	}
	defer cursor.Close(ctx)

	trades := make([]*domain.TradeRecord, 0)
	for cursor.Next(ctx) {
		rec := &domain.TradeRecord{}
		if err := cursor.Decode(rec); err != nil {
			return nil, fmt.Errorf("failed to decode trade for user %s: %w: %w", userID, ports.ErrQueryFailed, err)
		}
		trades = append(trades, rec)
	}
	if err := cursor.Err(); err != nil {
		return nil, fmt.Errorf("error iterating trades for user %s: %w: %w", userID, ports.ErrQueryFailed, err)
	}
	return trades, nil
}

// Close disconnects from MongoDB.
func (l *Ledger) Close(ctx context.Context) error {
	l.logger.Info(ctx, "Closing MongoDB connection")
	if err := l.client.Disconnect(ctx); err != nil {
		return fmt.Errorf("failed to disconnect from MongoDB: %w", err)
	}
	return nil
}
