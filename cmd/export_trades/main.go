package main

import (
	"context"
	"flag"
	"fmt"
	"log"

	"portfoliobot/config"
	"portfoliobot/internal/adapters/logger"
	"portfoliobot/internal/adapters/mongoledger"
	"portfoliobot/internal/adapters/sqliteledger"
	"portfoliobot/internal/ports"
	"portfoliobot/internal/utils"
)

// export_trades dumps a user's full trade history to a CSV file.
// Useful for backups and for importing into spreadsheet tooling.
func main() {
	userID := flag.String("user", "default", "user whose trade history to export")
	output := flag.String("out", "trades.csv", "output CSV file path")
	flag.Parse()

	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("FATAL: Failed to load configuration: %v", err)
	}

	appLogger := logger.NewStdLogger(cfg.LogLevel)
	ctx := context.Background()

	var ledger ports.TradeLedger
	switch cfg.LedgerStore {
	case config.LedgerStoreSQLite:
		ledger, err = sqliteledger.NewLedger(sqliteledger.Config{DBPath: cfg.DBPath, Logger: appLogger})
	default:
		ledger, err = mongoledger.NewLedger(ctx, mongoledger.Config{
			URI:      cfg.MongoURI,
			Database: cfg.MongoDatabase,
			Logger:   appLogger,
		})
	}
	if err != nil {
		log.Fatalf("FATAL: Failed to initialize trade ledger: %v", err)
	}
	defer ledger.Close(ctx)

	trades, err := ledger.FindByUser(ctx, *userID)
	if err != nil {
		log.Fatalf("FATAL: Failed to load trades for user %s: %v", *userID, err)
	}

	if err := utils.WriteTradesToCSV(trades, *output); err != nil {
		log.Fatalf("FATAL: Failed to write CSV: %v", err)
	}
	fmt.Printf("Exported %d trades for user %s to %s\n", len(trades), *userID, *output)
}
