package generation

import (
	"context"
	"errors"

	"google.golang.org/genai"
)

// ErrNoStructuredOutput is returned when the model produced nothing that
// conforms to the requested schema (empty, blocked or non-JSON output).
var ErrNoStructuredOutput = errors.New("model produced no schema-conforming output")

// Role identifies the author of a conversation message.
type Role string

// Conversation roles.
const (
	RoleUser  Role = "user"
	RoleModel Role = "model"
	RoleTool  Role = "tool"
)

// Message is one entry of the conversation context.
type Message struct {
	Role Role
	Text string
}

// UserMessage returns a user message.
func UserMessage(text string) Message {
	return Message{Role: RoleUser, Text: text}
}

// ModelMessage returns a model message.
func ModelMessage(text string) Message {
	return Message{Role: RoleModel, Text: text}
}

// ToolMessage returns a tool result message.
func ToolMessage(text string) Message {
	return Message{Role: RoleTool, Text: text}
}

// Request is one schema-constrained generation call.
type Request struct {
	// Purpose labels the call in logs and metrics (e.g. "action", "ranking").
	Purpose      string
	SystemPrompt string
	Messages     []Message
	Schema       *genai.Schema
}

// Generator produces a JSON object conforming to Request.Schema.
type Generator interface {
	Generate(ctx context.Context, req Request) ([]byte, error)
}

// GeneratorFunc adapts a function to the Generator interface.
type GeneratorFunc func(ctx context.Context, req Request) ([]byte, error)

// Generate calls f.
func (f GeneratorFunc) Generate(ctx context.Context, req Request) ([]byte, error) {
	return f(ctx, req)
}
