package openai

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"portfoliobot/internal/ports"
)

type mockLogger struct{}

func (m *mockLogger) Debug(ctx context.Context, msg string, fields ...map[string]interface{}) {}
func (m *mockLogger) Info(ctx context.Context, msg string, fields ...map[string]interface{})  {}
func (m *mockLogger) Warn(ctx context.Context, msg string, fields ...map[string]interface{})  {}
func (m *mockLogger) Error(ctx context.Context, err error, msg string, fields ...map[string]interface{}) {
}

func newTestClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	client, err := New(Config{
		APIKey:  "test-key",
		BaseURL: server.URL,
		Logger:  &mockLogger{},
	})
	require.NoError(t, err)
	return client
}

func TestSend_FinalTextReply(t *testing.T) {
	var captured chatRequest
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/chat/completions", r.URL.Path)
		assert.Equal(t, "Bearer test-key", r.Header.Get("Authorization"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&captured))
		fmt.Fprint(w, `{"choices":[{"message":{"role":"assistant","content":"Hello!"}}]}`)
	})

	turn, err := client.Send(context.Background(), "hi")
	require.NoError(t, err)
	assert.Equal(t, "Hello!", turn.Text)
	assert.Empty(t, turn.ToolCalls)

	// System prompt plus the user message went over the wire.
	require.Len(t, captured.Messages, 2)
	assert.Equal(t, "system", captured.Messages[0].Role)
	assert.Equal(t, "user", captured.Messages[1].Role)
	assert.Equal(t, "hi", captured.Messages[1].Content)
	assert.Zero(t, captured.Temperature)
}

func TestSend_ToolCallReply(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"choices":[{"message":{"role":"assistant","tool_calls":[
			{"id":"call_1","type":"function","function":{"name":"record_trade",
			"arguments":"{\"ticker\":\"NVDA\",\"action\":\"BUY\",\"quantity\":10,\"price\":120}"}}]}}]}`)
	})

	turn, err := client.Send(context.Background(), "I bought 10 NVDA at 120")
	require.NoError(t, err)
	assert.Empty(t, turn.Text)
	require.Len(t, turn.ToolCalls, 1)
	assert.Equal(t, "call_1", turn.ToolCalls[0].ID)
	assert.Equal(t, "record_trade", turn.ToolCalls[0].Name)

	var args map[string]interface{}
	require.NoError(t, json.Unmarshal(turn.ToolCalls[0].Args, &args))
	assert.Equal(t, "NVDA", args["ticker"])
}

func TestResume_AppendsToolResults(t *testing.T) {
	var captured chatRequest
	requests := 0
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		requests++
		if requests == 1 {
			fmt.Fprint(w, `{"choices":[{"message":{"role":"assistant","tool_calls":[
				{"id":"call_1","type":"function","function":{"name":"get_total_profit","arguments":"{}"}}]}}]}`)
			return
		}
		require.NoError(t, json.NewDecoder(r.Body).Decode(&captured))
		fmt.Fprint(w, `{"choices":[{"message":{"role":"assistant","content":"Your total P/L is $240."}}]}`)
	})

	_, err := client.Send(context.Background(), "what's my total profit?")
	require.NoError(t, err)

	turn, err := client.Resume(context.Background(), []ports.ToolResult{
		{CallID: "call_1", Content: `{"total_pl":240}`},
	})
	require.NoError(t, err)
	assert.Equal(t, "Your total P/L is $240.", turn.Text)

	// History now carries system, user, assistant tool request, tool result.
	require.Len(t, captured.Messages, 4)
	last := captured.Messages[3]
	assert.Equal(t, "tool", last.Role)
	assert.Equal(t, "call_1", last.ToolCallID)
	assert.Equal(t, `{"total_pl":240}`, last.Content)
}

func TestComplete_ErrorStatuses(t *testing.T) {
	tests := []struct {
		name    string
		status  int
		wantErr error
	}{
		{name: "unauthorized", status: http.StatusUnauthorized, wantErr: ports.ErrAuthenticationFailed},
		{name: "rate limited", status: http.StatusTooManyRequests, wantErr: ports.ErrRateLimited},
		{name: "server error", status: http.StatusInternalServerError, wantErr: ports.ErrUnavailable},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
			})

			_, err := client.Send(context.Background(), "hi")
			require.Error(t, err)
			assert.ErrorIs(t, err, tt.wantErr)
		})
	}
}

func TestNew_RequiresAPIKey(t *testing.T) {
	_, err := New(Config{Logger: &mockLogger{}})
	require.Error(t, err)
	assert.ErrorIs(t, err, ports.ErrConfiguration)
}
