package ports

import (
	"context"
	"encoding/json"
)

// ToolSpec describes one operation the assistant may invoke: a name, a
// human-readable description, and a JSON Schema for its arguments.
type ToolSpec struct {
	Name        string
	Description string
	Parameters  json.RawMessage
}

// ToolCall is a single tool invocation requested by the language model.
// Args is the raw JSON argument object as produced by the model.
type ToolCall struct {
	ID   string
	Name string
	Args json.RawMessage
}

// ToolResult carries the outcome of an executed tool call back to the model.
type ToolResult struct {
	CallID  string
	Content string
}

// AssistantTurn is one reply from the assistant: either final text for the
// user, or a set of tool calls that must be executed before the
// conversation can continue.
type AssistantTurn struct {
	Text      string
	ToolCalls []ToolCall
}

// Assistant is the natural-language-to-intent translator: a stateful chat
// collaborator that maps free-text user input onto calls from a closed set
// of tools and renders structured tool results back into plain language.
// Implementations keep the conversation history across turns.
type Assistant interface {
	// Send forwards one user utterance to the model.
	Send(ctx context.Context, input string) (*AssistantTurn, error)
	// Resume continues the conversation after the requested tool calls
	// have been executed.
	Resume(ctx context.Context, results []ToolResult) (*AssistantTurn, error)
}
