package app

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"strings"

	"portfoliobot/internal/ports"
)

// Responder handles one user utterance and returns the reply text.
// Satisfied by the conversation agent.
type Responder interface {
	Handle(ctx context.Context, input string) (string, error)
}

// ChatSession runs the interactive chat loop for one logged-in user.
// It is the only layer that converts errors escaping the engine or the
// assistant into user-visible messages; the loop itself never crashes on
// a failed request.
type ChatSession struct {
	userID    string
	responder Responder
	logger    ports.Logger
	in        *bufio.Reader
	out       io.Writer
}

// NewChatSession creates a session bound to a user.
func NewChatSession(userID string, responder Responder, logger ports.Logger, in io.Reader, out io.Writer) (*ChatSession, error) {
	if userID == "" {
		return nil, fmt.Errorf("user id is required for chat session")
	}
	if responder == nil || logger == nil || in == nil || out == nil {
		return nil, fmt.Errorf("missing required dependencies for chat session")
	}
	return &ChatSession{
		userID:    userID,
		responder: responder,
		logger:    logger,
		in:        bufio.NewReader(in),
		out:       out,
	}, nil
}

// Login prompts for a username on the given reader/writer pair.
// A blank entry falls back to "default".
func Login(in io.Reader, out io.Writer) string {
	fmt.Fprintln(out, "=== Portfolio Bot Login ===")
	fmt.Fprint(out, "Enter a username: ")

	reader := bufio.NewReader(in)
	line, err := reader.ReadString('\n')
	if err != nil && line == "" {
		return "default"
	}
	username := strings.TrimSpace(line)
	if username == "" {
		return "default"
	}
	return username
}

// Run executes the read-eval-print loop until the user types "quit" or
// "exit", or input reaches EOF.
func (s *ChatSession) Run(ctx context.Context) error {
	fmt.Fprintf(s.out, "\nPortfolio chatbot ready for user: %s\n", s.userID)
	fmt.Fprintln(s.out, "Examples:")
	fmt.Fprintln(s.out, "  - I bought 10 NVDA at 120")
	fmt.Fprintln(s.out, "  - I sold 3 NVDA at 150")
	fmt.Fprintln(s.out, "  - What's my profit on NVDA?")
	fmt.Fprintln(s.out, "  - What's my total profit?")
	fmt.Fprintln(s.out, "Type 'quit' to exit.")
	fmt.Fprintln(s.out)

	for {
		fmt.Fprint(s.out, "> ")

		line, err := s.in.ReadString('\n')
		if err != nil {
			if err == io.EOF {
				return nil // Clean exit on Ctrl+D
			}
			return fmt.Errorf("failed to read input: %w", err)
		}

		input := strings.TrimSpace(line)
		if input == "" {
			continue
		}
		switch strings.ToLower(input) {
		case "quit", "exit":
			return nil
		}

		response, err := s.responder.Handle(ctx, input)
		if err != nil {
			s.logger.Error(ctx, err, "Request failed", map[string]interface{}{"userID": s.userID})
			fmt.Fprintf(s.out, "[Error] %v\n", err)
			continue
		}
		fmt.Fprintln(s.out, response)
	}
}
