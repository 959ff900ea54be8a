package main

import (
	"context"
	"log" // Use standard log only for initial fatal errors before logger is set up
	"os"

	"portfoliobot/config"
	"portfoliobot/internal/adapters/binanceclient"
	"portfoliobot/internal/adapters/logger"
	"portfoliobot/internal/adapters/mongoledger"
	"portfoliobot/internal/adapters/sqliteledger"
	"portfoliobot/internal/adapters/yahoo"
	"portfoliobot/internal/agent"
	"portfoliobot/internal/agent/openai"
	"portfoliobot/internal/app"
	"portfoliobot/internal/portfolio"
	"portfoliobot/internal/ports"
)

func main() {
	ctx := context.Background()

	// 1. Load Configuration
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("FATAL: Failed to load configuration: %v", err) // Use standard log before logger is ready
	}

	// 2. Initialize Logger
	var appLogger ports.Logger
	if cfg.LogFormat == "json" {
		zapLogger, err := logger.NewZapLogger(cfg.LogLevel)
		if err != nil {
			log.Fatalf("FATAL: Failed to initialize logger: %v", err)
		}
		defer zapLogger.Sync()
		appLogger = zapLogger
	} else {
		appLogger = logger.NewStdLogger(cfg.LogLevel)
	}
	appLogger.Info(ctx, "Logger initialized", map[string]interface{}{"level": cfg.LogLevel.String(), "format": cfg.LogFormat})

	// 3. Initialize Trade Ledger (Store Adapter)
	var ledger ports.TradeLedger
	switch cfg.LedgerStore {
	case config.LedgerStoreSQLite:
		ledger, err = sqliteledger.NewLedger(sqliteledger.Config{
			DBPath: cfg.DBPath,
			Logger: appLogger,
		})
	default:
		ledger, err = mongoledger.NewLedger(ctx, mongoledger.Config{
			URI:      cfg.MongoURI,
			Database: cfg.MongoDatabase,
			Logger:   appLogger,
		})
	}
	if err != nil {
		appLogger.Error(ctx, err, "FATAL: Failed to initialize trade ledger")
		log.Fatalf("FATAL: Failed to initialize trade ledger: %v", err)
	}
	defer func() {
		if err := ledger.Close(ctx); err != nil {
			appLogger.Error(ctx, err, "Error closing trade ledger")
		}
	}()
	appLogger.Info(ctx, "Trade ledger initialized", map[string]interface{}{"store": cfg.LedgerStore})

	// 4. Initialize Quote Source
	var quotes ports.QuoteSource
	switch cfg.QuoteSource {
	case config.QuoteSourceBinance:
		quotes, err = binanceclient.New(binanceclient.Config{
			APIKey:    cfg.BinanceAPIKey,
			SecretKey: cfg.BinanceSecretKey,
			Logger:    appLogger,
		})
	default:
		quotes, err = yahoo.New(yahoo.Config{
			Timeout: cfg.HTTPTimeout,
			Logger:  appLogger,
		})
	}
	if err != nil {
		appLogger.Error(ctx, err, "FATAL: Failed to initialize quote source")
		log.Fatalf("FATAL: Failed to initialize quote source: %v", err)
	}
	appLogger.Info(ctx, "Quote source initialized", map[string]interface{}{"source": cfg.QuoteSource})

	// 5. Initialize Portfolio Engine
	engine, err := portfolio.NewService(ledger, quotes, appLogger)
	if err != nil {
		appLogger.Error(ctx, err, "FATAL: Failed to initialize portfolio engine")
		log.Fatalf("FATAL: Failed to initialize portfolio engine: %v", err)
	}

	// 6. Login and bind the session's toolset to the user
	userID := app.Login(os.Stdin, os.Stdout)
	toolset, err := agent.NewToolset(userID, engine, appLogger)
	if err != nil {
		appLogger.Error(ctx, err, "FATAL: Failed to initialize toolset")
		log.Fatalf("FATAL: Failed to initialize toolset: %v", err)
	}

	// 7. Initialize the Assistant (OpenAI Adapter)
	assistant, err := openai.New(openai.Config{
		APIKey:  cfg.OpenAIAPIKey,
		Model:   cfg.OpenAIModel,
		Timeout: cfg.HTTPTimeout,
		Tools:   toolset.Specs(),
		Logger:  appLogger,
	})
	if err != nil {
		appLogger.Error(ctx, err, "FATAL: Failed to initialize OpenAI assistant")
		log.Fatalf("FATAL: Failed to initialize OpenAI assistant: %v", err)
	}

	conversation, err := agent.New(assistant, toolset, appLogger)
	if err != nil {
		appLogger.Error(ctx, err, "FATAL: Failed to initialize conversation agent")
		log.Fatalf("FATAL: Failed to initialize conversation agent: %v", err)
	}

	// 8. Run the chat session
	session, err := app.NewChatSession(userID, conversation, appLogger, os.Stdin, os.Stdout)
	if err != nil {
		appLogger.Error(ctx, err, "FATAL: Failed to initialize chat session")
		log.Fatalf("FATAL: Failed to initialize chat session: %v", err)
	}
	if err := session.Run(ctx); err != nil {
		appLogger.Error(ctx, err, "Chat session exited with error")
		log.Fatalf("FATAL: Chat session exited with error: %v", err)
	}

	appLogger.Info(ctx, "Session finished gracefully.")
}
