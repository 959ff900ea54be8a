package sqliteledger

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"portfoliobot/internal/domain"
	"portfoliobot/internal/ports"

	_ "github.com/mattn/go-sqlite3" // SQLite driver
)

// Ledger implements the ports.TradeLedger interface using SQLite.
// It backs the local/offline deployment where no MongoDB is available;
// the table is append-only and reads come back in insertion order.
type Ledger struct {
	db     *sql.DB
	logger ports.Logger
}

// Config holds configuration for the SQLite ledger.
type Config struct {
	DBPath string
	Logger ports.Logger
}

// NewLedger creates a new SQLite ledger instance.
func NewLedger(cfg Config) (*Ledger, error) {
	if cfg.Logger == nil {
		return nil, fmt.Errorf("logger is required for SQLite ledger")
	}
	dbPath := cfg.DBPath
	if dbPath == "" {
		dbPath = "./data/portfolio.db" // Default path
	}

	// Create data directory if it doesn't exist
	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		err = fmt.Errorf("failed to create data directory '%s': %w", filepath.Dir(dbPath), err)
		cfg.Logger.Error(context.Background(), err, "SQLite ledger initialization failed")
		return nil, err
	}

	db, err := sql.Open("sqlite3", dbPath+"?_journal_mode=WAL&_busy_timeout=5000") // WAL mode for better concurrency
	if err != nil {
		err = fmt.Errorf("failed to open database at '%s': %w: %w", dbPath, ports.ErrDBConnection, err)
		cfg.Logger.Error(context.Background(), err, "SQLite ledger initialization failed")
		return nil, err
	}

	if err := db.Ping(); err != nil {
		db.Close()
		err = fmt.Errorf("failed to ping database at '%s': %w: %w", dbPath, ports.ErrDBConnection, err)
		cfg.Logger.Error(context.Background(), err, "SQLite ledger initialization failed")
		return nil, err
	}

	// SQLite handles concurrency internally; the Go driver benefits from limiting connections
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(time.Hour)

	cfg.Logger.Info(context.Background(), "SQLite database connection established", map[string]interface{}{"path": dbPath})

	ledger := &Ledger{db: db, logger: cfg.Logger}

	if err := ledger.initializeSchema(context.Background()); err != nil {
		db.Close()
		err = fmt.Errorf("failed to initialize database schema: %w", err)
		cfg.Logger.Error(context.Background(), err, "SQLite ledger initialization failed")
		return nil, err
	}

	return ledger, nil
}

// initializeSchema creates the transactions table if it doesn't exist.
func (l *Ledger) initializeSchema(ctx context.Context) error {
	const schema = `
	CREATE TABLE IF NOT EXISTS transactions (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		user_id TEXT NOT NULL,
		ticker TEXT NOT NULL,
		action TEXT NOT NULL,
		quantity REAL NOT NULL,
		price REAL NOT NULL,
		fee REAL NOT NULL DEFAULT 0,
		trade_date TIMESTAMP NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_transactions_user_id ON transactions (user_id);
	`
	if _, err := l.db.ExecContext(ctx, schema); err != nil {
		return fmt.Errorf("failed to execute schema initialization: %w", err)
	}
	return nil
}

// Append durably stores a new trade record.
func (l *Ledger) Append(ctx context.Context, rec *domain.TradeRecord) error {
	const query = `
	INSERT INTO transactions (user_id, ticker, action, quantity, price, fee, trade_date)
	VALUES (?, ?, ?, ?, ?, ?, ?)`

	_, err := l.db.ExecContext(ctx, query,
		rec.UserID, rec.Ticker, string(rec.Action), rec.Quantity, rec.Price, rec.Fee, rec.TradeDate)
	if err != nil {
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
	const query = `
	SELECT user_id, ticker, action, quantity, price, fee, trade_date
	FROM transactions
	WHERE user_id = ?
	ORDER BY id ASC`

	rows, err := l.db.QueryContext(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to query trades for user %s: %w: %w", userID, ports.ErrQueryFailed, err)
	}
	defer rows.Close()

	trades := make([]*domain.TradeRecord, 0)
	for rows.Next() {
		rec := &domain.TradeRecord{}
		var action string
		if err := rows.Scan(&rec.UserID, &rec.Ticker, &action, &rec.Quantity, &rec.Price, &rec.Fee, &rec.TradeDate); err != nil {
			return nil, fmt.Errorf("failed to scan trade for user %s: %w: %w", userID, ports.ErrQueryFailed, err)
		}
		rec.Action = domain.TradeAction(action)
		trades = append(trades, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating trade rows for user %s: %w: %w", userID, ports.ErrQueryFailed, err)
	}
	return trades, nil
}

// Close closes the database connection.
func (l *Ledger) Close(ctx context.Context) error {
	if l.db != nil {
		l.logger.Info(ctx, "Closing SQLite database connection")
		return l.db.Close()
	}
	return nil
}
