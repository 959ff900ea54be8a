package agent

import (
	"context"
	"fmt"

	"portfoliobot/internal/ports"
)

// maxToolRounds bounds the dispatch loop so a misbehaving model cannot
// spin the session forever.
const maxToolRounds = 8

// Agent drives one user's conversation: it forwards free-text input to
// the assistant, executes whatever tool calls the assistant requests,
// feeds the structured results back, and returns the assistant's final
// natural-language reply.
type Agent struct {
	assistant ports.Assistant
	toolset   *Toolset
	logger    ports.Logger
}

// New creates a new conversation agent.
func New(assistant ports.Assistant, toolset *Toolset, logger ports.Logger) (*Agent, error) {
	if assistant == nil || toolset == nil || logger == nil {
		return nil, fmt.Errorf("missing required dependencies for agent")
	}
	return &Agent{assistant: assistant, toolset: toolset, logger: logger}, nil
}

// Handle processes a single user utterance and returns the reply text.
// Any error escaping the engine or the assistant propagates to the caller
// unhandled; converting it into a user-visible message is the session
// loop's job.
func (a *Agent) Handle(ctx context.Context, input string) (string, error) {
	turn, err := a.assistant.Send(ctx, input)
	if err != nil {
		return "", fmt.Errorf("assistant request failed: %w", err)
	}

	for round := 0; len(turn.ToolCalls) > 0; round++ {
		if round >= maxToolRounds {
			return "", fmt.Errorf("assistant exceeded %d tool rounds without a final reply", maxToolRounds)
		}

		results := make([]ports.ToolResult, 0, len(turn.ToolCalls))
		for _, call := range turn.ToolCalls {
			content, err := a.toolset.Dispatch(ctx, call)
			if err != nil {
				return "", err
			}
			results = append(results, ports.ToolResult{CallID: call.ID, Content: content})
		}

		turn, err = a.assistant.Resume(ctx, results)
		if err != nil {
			return "", fmt.Errorf("assistant request failed: %w", err)
		}
	}

	return turn.Text, nil
}
