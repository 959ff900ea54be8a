package agent

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"portfoliobot/internal/portfolio"
	"portfoliobot/internal/ports"
)

// The closed intent schema exposed to the language model. Exactly three
// operations exist; anything else the model asks for is rejected.
const (
	ToolRecordTrade     = "record_trade"
	ToolProfitForTicker = "get_profit_for_ticker"
	ToolTotalProfit     = "get_total_profit"
)

type recordTradeArgs struct {
	Ticker   string  `json:"ticker"`
	Action   string  `json:"action"`
	Quantity float64 `json:"quantity"`
	Price    float64 `json:"price"`
	Fee      float64 `json:"fee"`
}

type profitForTickerArgs struct {
	Ticker string `json:"ticker"`
}

// recordTradeResult is the structured acknowledgement handed back to the
// model after a successful write.
type recordTradeResult struct {
	Status    string  `json:"status"`
	Ticker    string  `json:"ticker"`
	Action    string  `json:"action"`
	Quantity  float64 `json:"quantity"`
	Price     float64 `json:"price"`
	Fee       float64 `json:"fee"`
	TradeDate string  `json:"trade_date"`
}

// Toolset binds the engine's operations to a single user for the duration
// of a chat session. Every dispatched intent is implicitly scoped to that
// user; the model never sees or supplies a user id.
type Toolset struct {
	userID  string
	service *portfolio.Service
	logger  ports.Logger
}

// NewToolset creates a toolset bound to the given user.
func NewToolset(userID string, service *portfolio.Service, logger ports.Logger) (*Toolset, error) {
	if userID == "" {
		return nil, fmt.Errorf("user id is required for toolset")
	}
	if service == nil || logger == nil {
		return nil, fmt.Errorf("missing required dependencies for toolset")
	}
	return &Toolset{userID: userID, service: service, logger: logger}, nil
}

// Specs returns the tool declarations advertised to the language model.
func (t *Toolset) Specs() []ports.ToolSpec {
	return []ports.ToolSpec{
		{
			Name:        ToolRecordTrade,
			Description: "Record a BUY or SELL trade for this user.",
			Parameters: json.RawMessage(`{
				"type": "object",
				"properties": {
					"ticker": {"type": "string", "description": "Stock ticker symbol, e.g. NVDA"},
					"action": {"type": "string", "enum": ["BUY", "SELL"]},
					"quantity": {"type": "number", "description": "Number of shares traded"},
					"price": {"type": "number", "description": "Per-share execution price"},
					"fee": {"type": "number", "description": "Transaction fee, defaults to 0"}
				},
				"required": ["ticker", "action", "quantity", "price"]
			}`),
		},
		{
			Name:        ToolProfitForTicker,
			Description: "Get the profit summary for a single ticker.",
			Parameters: json.RawMessage(`{
				"type": "object",
				"properties": {
					"ticker": {"type": "string", "description": "Stock ticker symbol, e.g. NVDA"}
				},
				"required": ["ticker"]
			}`),
		},
		{
			Name:        ToolTotalProfit,
			Description: "Get the total profit across all tickers in the portfolio.",
			Parameters:  json.RawMessage(`{"type": "object", "properties": {}}`),
		},
	}
}

// Dispatch executes one tool call against the engine and returns the
// structured result as a JSON string for the model to render. Engine
// failures are returned as errors and surface to the session loop.
func (t *Toolset) Dispatch(ctx context.Context, call ports.ToolCall) (string, error) {
	t.logger.Debug(ctx, "Dispatching tool call", map[string]interface{}{
		"tool":   call.Name,
		"userID": t.userID,
	})

	switch call.Name {
	case ToolRecordTrade:
		var args recordTradeArgs
		if err := json.Unmarshal(call.Args, &args); err != nil {
			return "", fmt.Errorf("invalid arguments for %s: %w: %w", call.Name, ports.ErrInvalidRequest, err)
		}
		rec, err := t.service.RecordTrade(ctx, t.userID, args.Ticker, args.Action, args.Quantity, args.Price, args.Fee)
		if err != nil {
			return "", err
		}
		return marshalResult(recordTradeResult{
			Status:    "ok",
			Ticker:    rec.Ticker,
			Action:    string(rec.Action),
			Quantity:  rec.Quantity,
			Price:     rec.Price,
			Fee:       rec.Fee,
			TradeDate: rec.TradeDate.Format(time.RFC3339),
		})

	case ToolProfitForTicker:
		var args profitForTickerArgs
		if err := json.Unmarshal(call.Args, &args); err != nil {
			return "", fmt.Errorf("invalid arguments for %s: %w: %w", call.Name, ports.ErrInvalidRequest, err)
		}
		report, err := t.service.ProfitForTicker(ctx, t.userID, args.Ticker)
		if err != nil {
			return "", err
		}
		if report == nil {
			// "No data" is a structured outcome for the model to relay,
			// not a failure of the session.
			return marshalResult(map[string]string{
				"error": fmt.Sprintf("No transactions found for %s.", normalizeTicker(args.Ticker)),
			})
		}
		return marshalResult(report)

	case ToolTotalProfit:
		report, err := t.service.TotalProfit(ctx, t.userID)
		if err != nil {
			return "", err
		}
		return marshalResult(report)

	default:
		return "", fmt.Errorf("unknown tool %q: %w", call.Name, ports.ErrInvalidRequest)
	}
}

func marshalResult(v interface{}) (string, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return "", fmt.Errorf("failed to marshal tool result: %w", err)
	}
	return string(data), nil
}

func normalizeTicker(ticker string) string {
	return strings.ToUpper(strings.TrimSpace(ticker))
}
