package openai

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"portfoliobot/internal/ports"
)

const defaultBaseURL = "https://api.openai.com/v1"

const systemPrompt = `You are a stock portfolio assistant.
You can:
- record BUY and SELL trades for the user
- show profit for a specific stock
- show total profit across all stocks

When the user describes a trade (e.g. "I bought 10 NVDA at 120"),
call the trade-recording tool with the correct arguments.

When the user asks about profit for a ticker, use the ticker profit tool.

When the user asks about overall profit or portfolio performance,
use the total profit tool.

Always respond with clear numbers (shares, average cost, current price, P/L).`

// Client implements the ports.Assistant interface against the OpenAI
// chat-completions API with function calling. It holds the conversation
// history for one session; it is not safe for concurrent use, matching
// the single-threaded session model.
type Client struct {
	apiKey     string
	model      string
	baseURL    string
	httpClient *http.Client
	logger     ports.Logger

	tools    []toolPayload
	messages []chatMessage
}

// Config holds configuration for the OpenAI assistant.
type Config struct {
	APIKey     string
	Model      string           // defaults to gpt-4.1-mini
	BaseURL    string           // override for tests
	Timeout    time.Duration    // per-request timeout; defaults to 60s
	HTTPClient *http.Client     // optional
	Tools      []ports.ToolSpec // tool declarations advertised to the model
	Logger     ports.Logger
}

// New creates a new OpenAI assistant client.
func New(cfg Config) (*Client, error) {
	if cfg.Logger == nil {
		return nil, fmt.Errorf("logger is required for OpenAI client")
	}
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("OpenAI API key is required: %w", ports.ErrConfiguration)
	}
	model := cfg.Model
	if model == "" {
		model = "gpt-4.1-mini"
	}
	baseURL := cfg.BaseURL
	if baseURL == "" {
		baseURL = defaultBaseURL
	}
	httpClient := cfg.HTTPClient
	if httpClient == nil {
		timeout := cfg.Timeout
		if timeout <= 0 {
			timeout = 60 * time.Second
		}
		httpClient = &http.Client{Timeout: timeout}
	}

	tools := make([]toolPayload, 0, len(cfg.Tools))
	for _, spec := range cfg.Tools {
		tools = append(tools, toolPayload{
			Type: "function",
			Function: functionPayload{
				Name:        spec.Name,
				Description: spec.Description,
				Parameters:  spec.Parameters,
			},
		})
	}

	return &Client{
		apiKey:     cfg.APIKey,
		model:      model,
		baseURL:    baseURL,
		httpClient: httpClient,
		logger:     cfg.Logger,
		tools:      tools,
		messages:   []chatMessage{{Role: "system", Content: systemPrompt}},
	}, nil
}

// --- Wire types ---

type chatMessage struct {
	Role       string            `json:"role"`
	Content    string            `json:"content,omitempty"`
	ToolCalls  []toolCallPayload `json:"tool_calls,omitempty"`
	ToolCallID string            `json:"tool_call_id,omitempty"`
}

type toolCallPayload struct {
	ID       string              `json:"id"`
	Type     string              `json:"type"`
	Function functionCallPayload `json:"function"`
}

type functionCallPayload struct {
	Name      string `json:"name"`
	Arguments string `json:"arguments"`
}

type toolPayload struct {
	Type     string          `json:"type"`
	Function functionPayload `json:"function"`
}

type functionPayload struct {
	Name        string          `json:"name"`
	Description string          `json:"description"`
	Parameters  json.RawMessage `json:"parameters"`
}

type chatRequest struct {
	Model       string        `json:"model"`
	Messages    []chatMessage `json:"messages"`
	Tools       []toolPayload `json:"tools,omitempty"`
	ToolChoice  string        `json:"tool_choice,omitempty"`
	Temperature float64       `json:"temperature"`
}

type chatResponse struct {
	Choices []struct {
		Message chatMessage `json:"message"`
	} `json:"choices"`
	Error *struct {
		Message string `json:"message"`
		Type    string `json:"type"`
	} `json:"error"`
}

// Send forwards one user utterance to the model.
func (c *Client) Send(ctx context.Context, input string) (*ports.AssistantTurn, error) {
	c.messages = append(c.messages, chatMessage{Role: "user", Content: input})
	return c.complete(ctx)
}

// Resume continues the conversation after tool execution.
func (c *Client) Resume(ctx context.Context, results []ports.ToolResult) (*ports.AssistantTurn, error) {
	for _, res := range results {
		c.messages = append(c.messages, chatMessage{
			Role:       "tool",
			ToolCallID: res.CallID,
			Content:    res.Content,
		})
	}
	return c.complete(ctx)
}

// complete issues one chat-completions request over the accumulated
// history and records the assistant's reply in it.
func (c *Client) complete(ctx context.Context) (*ports.AssistantTurn, error) {
	op := "complete"

	body, err := json.Marshal(chatRequest{
		Model:       c.model,
		Messages:    c.messages,
		Tools:       c.tools,
		ToolChoice:  "auto",
		Temperature: 0,
	})
	if err != nil {
		return nil, fmt.Errorf("%s: failed to encode request: %w", op, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/chat/completions", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("%s: failed to build request: %w", op, err)
	}
	req.Header.Set("Authorization", "Bearer "+c.apiKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%s: request failed: %w: %w", op, ports.ErrUnavailable, err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusUnauthorized:
		return nil, fmt.Errorf("%s: %w", op, ports.ErrAuthenticationFailed)
	case resp.StatusCode == http.StatusTooManyRequests:
		return nil, fmt.Errorf("%s: %w", op, ports.ErrRateLimited)
	case resp.StatusCode >= 500:
		return nil, fmt.Errorf("%s: %w: http %d", op, ports.ErrUnavailable, resp.StatusCode)
	}

	var payload chatResponse
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return nil, fmt.Errorf("%s: failed to decode response: %w", op, err)
	}
	if payload.Error != nil {
		return nil, fmt.Errorf("%s: API error (%s): %s", op, payload.Error.Type, payload.Error.Message)
	}
	if len(payload.Choices) == 0 {
		return nil, fmt.Errorf("%s: response contained no choices", op)
	}

	msg := payload.Choices[0].Message
	c.messages = append(c.messages, msg)

	turn := &ports.AssistantTurn{Text: msg.Content}
	for _, tc := range msg.ToolCalls {
		turn.ToolCalls = append(turn.ToolCalls, ports.ToolCall{
			ID:   tc.ID,
			Name: tc.Function.Name,
			Args: json.RawMessage(tc.Function.Arguments),
		})
	}

	c.logger.Debug(ctx, "Assistant turn completed", map[string]interface{}{
		"toolCalls": len(turn.ToolCalls),
		"history":   len(c.messages),
	})
	return turn, nil
}
