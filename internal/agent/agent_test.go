package agent

import (
	"context"
	"encoding/json"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"portfoliobot/internal/domain"
	"portfoliobot/internal/portfolio"
	"portfoliobot/internal/ports"
)

// Mock implementations

type mockLogger struct{}

func (m *mockLogger) Debug(ctx context.Context, msg string, fields ...map[string]interface{}) {}
func (m *mockLogger) Info(ctx context.Context, msg string, fields ...map[string]interface{})  {}
func (m *mockLogger) Warn(ctx context.Context, msg string, fields ...map[string]interface{})  {}
func (m *mockLogger) Error(ctx context.Context, err error, msg string, fields ...map[string]interface{}) {
}

type mockLedger struct {
	trades []*domain.TradeRecord
}

func (m *mockLedger) Append(ctx context.Context, rec *domain.TradeRecord) error {
	m.trades = append(m.trades, rec)
	return nil
}

func (m *mockLedger) FindByUser(ctx context.Context, userID string) ([]*domain.TradeRecord, error) {
	out := make([]*domain.TradeRecord, 0, len(m.trades))
	for _, tr := range m.trades {
		if tr.UserID == userID {
			out = append(out, tr)
		}
	}
	return out, nil
}

func (m *mockLedger) Close(ctx context.Context) error { return nil }

type mockQuotes struct {
	prices map[string]float64
}

func (m *mockQuotes) LatestClose(ctx context.Context, ticker string) (float64, error) {
	price, ok := m.prices[ticker]
	if !ok {
		return 0, fmt.Errorf("%w: %s", ports.ErrPriceUnavailable, ticker)
	}
	return price, nil
}

// scriptedAssistant replays a fixed sequence of turns and records the
// tool results it receives.
type scriptedAssistant struct {
	turns   []*ports.AssistantTurn
	results [][]ports.ToolResult
	sendErr error
}

func (s *scriptedAssistant) next() (*ports.AssistantTurn, error) {
	if len(s.turns) == 0 {
		return nil, fmt.Errorf("scripted assistant exhausted")
	}
	turn := s.turns[0]
	s.turns = s.turns[1:]
	return turn, nil
}

func (s *scriptedAssistant) Send(ctx context.Context, input string) (*ports.AssistantTurn, error) {
	if s.sendErr != nil {
		return nil, s.sendErr
	}
	return s.next()
}

func (s *scriptedAssistant) Resume(ctx context.Context, results []ports.ToolResult) (*ports.AssistantTurn, error) {
	s.results = append(s.results, results)
	return s.next()
}

func newTestToolset(t *testing.T, ledger *mockLedger, quotes *mockQuotes) *Toolset {
	t.Helper()
	svc, err := portfolio.NewService(ledger, quotes, &mockLogger{})
	require.NoError(t, err)
	toolset, err := NewToolset("alice", svc, &mockLogger{})
	require.NoError(t, err)
	return toolset
}

func TestToolset_Dispatch_RecordTrade(t *testing.T) {
	ledger := &mockLedger{}
	toolset := newTestToolset(t, ledger, &mockQuotes{})

	content, err := toolset.Dispatch(context.Background(), ports.ToolCall{
		ID:   "call_1",
		Name: ToolRecordTrade,
		Args: json.RawMessage(`{"ticker":"nvda","action":"buy","quantity":10,"price":120}`),
	})
	require.NoError(t, err)

	var result map[string]interface{}
	require.NoError(t, json.Unmarshal([]byte(content), &result))
	assert.Equal(t, "ok", result["status"])
	assert.Equal(t, "NVDA", result["ticker"])
	assert.Equal(t, "BUY", result["action"])
	assert.NotEmpty(t, result["trade_date"])

	// The write is implicitly scoped to the bound user.
	require.Len(t, ledger.trades, 1)
	assert.Equal(t, "alice", ledger.trades[0].UserID)
}

func TestToolset_Dispatch_RecordTrade_InvalidAction(t *testing.T) {
	toolset := newTestToolset(t, &mockLedger{}, &mockQuotes{})

	_, err := toolset.Dispatch(context.Background(), ports.ToolCall{
		Name: ToolRecordTrade,
		Args: json.RawMessage(`{"ticker":"NVDA","action":"SHORT","quantity":1,"price":1}`),
	})
	require.Error(t, err)
	assert.ErrorIs(t, err, ports.ErrInvalidAction)
}

func TestToolset_Dispatch_ProfitForTicker_NoData(t *testing.T) {
	toolset := newTestToolset(t, &mockLedger{}, &mockQuotes{})

	content, err := toolset.Dispatch(context.Background(), ports.ToolCall{
		Name: ToolProfitForTicker,
		Args: json.RawMessage(`{"ticker":"tsla"}`),
	})
	require.NoError(t, err)
	assert.JSONEq(t, `{"error":"No transactions found for TSLA."}`, content)
}

func TestToolset_Dispatch_TotalProfit(t *testing.T) {
	ledger := &mockLedger{trades: []*domain.TradeRecord{
		{UserID: "alice", Ticker: "NVDA", Action: domain.Buy, Quantity: 10, Price: 100},
	}}
	toolset := newTestToolset(t, ledger, &mockQuotes{prices: map[string]float64{"NVDA": 120}})

	content, err := toolset.Dispatch(context.Background(), ports.ToolCall{
		Name: ToolTotalProfit,
		Args: json.RawMessage(`{}`),
	})
	require.NoError(t, err)

	var report domain.PortfolioReport
	require.NoError(t, json.Unmarshal([]byte(content), &report))
	assert.InDelta(t, 200, report.TotalUnrealized, 1e-9)
	assert.InDelta(t, 200, report.TotalPL, 1e-9)
}

func TestToolset_Dispatch_UnknownTool(t *testing.T) {
	toolset := newTestToolset(t, &mockLedger{}, &mockQuotes{})

	_, err := toolset.Dispatch(context.Background(), ports.ToolCall{Name: "delete_everything"})
	require.Error(t, err)
	assert.ErrorIs(t, err, ports.ErrInvalidRequest)
}

func TestToolset_Specs_CoversAllTools(t *testing.T) {
	toolset := newTestToolset(t, &mockLedger{}, &mockQuotes{})

	specs := toolset.Specs()
	require.Len(t, specs, 3)
	names := []string{specs[0].Name, specs[1].Name, specs[2].Name}
	assert.ElementsMatch(t, []string{ToolRecordTrade, ToolProfitForTicker, ToolTotalProfit}, names)
	for _, spec := range specs {
		assert.True(t, json.Valid(spec.Parameters), "parameters schema for %s must be valid JSON", spec.Name)
	}
}

func TestAgent_Handle_ToolRoundTrip(t *testing.T) {
	ledger := &mockLedger{}
	toolset := newTestToolset(t, ledger, &mockQuotes{})

	assistant := &scriptedAssistant{turns: []*ports.AssistantTurn{
		{ToolCalls: []ports.ToolCall{{
			ID:   "call_1",
			Name: ToolRecordTrade,
			Args: json.RawMessage(`{"ticker":"NVDA","action":"BUY","quantity":10,"price":120}`),
		}}},
		{Text: "Recorded: bought 10 NVDA at 120."},
	}}

	ag, err := New(assistant, toolset, &mockLogger{})
	require.NoError(t, err)

	reply, err := ag.Handle(context.Background(), "I bought 10 NVDA at 120")
	require.NoError(t, err)
	assert.Equal(t, "Recorded: bought 10 NVDA at 120.", reply)

	require.Len(t, assistant.results, 1)
	require.Len(t, assistant.results[0], 1)
	assert.Equal(t, "call_1", assistant.results[0][0].CallID)
	assert.Contains(t, assistant.results[0][0].Content, `"status":"ok"`)

	assert.Len(t, ledger.trades, 1)
}

func TestAgent_Handle_DirectReply(t *testing.T) {
	toolset := newTestToolset(t, &mockLedger{}, &mockQuotes{})
	assistant := &scriptedAssistant{turns: []*ports.AssistantTurn{{Text: "Hello!"}}}

	ag, err := New(assistant, toolset, &mockLogger{})
	require.NoError(t, err)

	reply, err := ag.Handle(context.Background(), "hi")
	require.NoError(t, err)
	assert.Equal(t, "Hello!", reply)
}

func TestAgent_Handle_AssistantErrorPropagates(t *testing.T) {
	toolset := newTestToolset(t, &mockLedger{}, &mockQuotes{})
	assistant := &scriptedAssistant{sendErr: fmt.Errorf("%w", ports.ErrRateLimited)}

	ag, err := New(assistant, toolset, &mockLogger{})
	require.NoError(t, err)

	_, err = ag.Handle(context.Background(), "hi")
	require.Error(t, err)
	assert.ErrorIs(t, err, ports.ErrRateLimited)
}

func TestAgent_Handle_BoundsToolRounds(t *testing.T) {
	toolset := newTestToolset(t, &mockLedger{}, &mockQuotes{})

	// An assistant that keeps asking for the same tool forever.
	turns := make([]*ports.AssistantTurn, 0, maxToolRounds+2)
	for i := 0; i < maxToolRounds+2; i++ {
		turns = append(turns, &ports.AssistantTurn{ToolCalls: []ports.ToolCall{{
			ID:   fmt.Sprintf("call_%d", i),
			Name: ToolTotalProfit,
			Args: json.RawMessage(`{}`),
		}}})
	}
	assistant := &scriptedAssistant{turns: turns}

	ag, err := New(assistant, toolset, &mockLogger{})
	require.NoError(t, err)

	_, err = ag.Handle(context.Background(), "loop forever")
	assert.Error(t, err)
}
