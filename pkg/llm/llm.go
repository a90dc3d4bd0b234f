// Package llm abstracts the language model backend behind a provider
// interface: chat with optional tool definitions, single-prompt generation,
// and text embedding.
package llm

import "context"

// Chat message roles.
const (
	RoleSystem    = "system"
	RoleUser      = "user"
	RoleAssistant = "assistant"
	RoleTool      = "tool"
)

// Message is one provider-agnostic chat message.
type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// ToolDef describes a callable tool advertised to the model.
type ToolDef struct {
	Type     string      `json:"type"`
	Function ToolDefSpec `json:"function"`
}

// ToolDefSpec carries the function name, description, and JSON schema of a
// tool's parameters.
type ToolDefSpec struct {
	Name        string         `json:"name"`
	Description string         `json:"description"`
	Parameters  map[string]any `json:"parameters"`
}

// FunctionTool wraps a ToolDefSpec in the wire envelope providers expect.
func FunctionTool(spec ToolDefSpec) ToolDef {
	return ToolDef{Type: "function", Function: spec}
}

// ToolCall is a structured tool invocation returned by the model.
type ToolCall struct {
	Function ToolCallSpec `json:"function"`
}

// ToolCallSpec names the requested tool and its argument map.
type ToolCallSpec struct {
	Name      string         `json:"name"`
	Arguments map[string]any `json:"arguments"`
}

// ChatResponse is the model's reply to a chat exchange. ToolCalls is non-empty
// when the model elected to invoke a tool instead of answering directly.
type ChatResponse struct {
	Model     string
	Content   string
	ToolCalls []ToolCall
}

// Provider is the contract for a language model backend.
type Provider interface {
	// Chat sends a conversation to the model and returns its reply.
	Chat(ctx context.Context, messages []Message, options ...Option) (*ChatResponse, error)

	// Generate sends a single prompt and returns the completion text.
	Generate(ctx context.Context, prompt string, options ...Option) (string, error)

	// Embed returns the embedding vector for input.
	Embed(ctx context.Context, input string) ([]float32, error)
}

// Options collects per-call overrides. Values are seeded from provider
// configuration before option functions apply.
type Options struct {
	Model       string
	Temperature float64
	MaxTokens   int
	JSON        bool
	Tools       []ToolDef
}

// Option mutates per-call Options.
type Option func(*Options)

// WithModel overrides the configured model for one call.
func WithModel(model string) Option {
	return func(o *Options) {
		o.Model = model
	}
}

// WithTemperature overrides the sampling temperature for one call.
func WithTemperature(temperature float64) Option {
	return func(o *Options) {
		o.Temperature = temperature
	}
}

// WithMaxTokens caps the completion length for one call.
func WithMaxTokens(n int) Option {
	return func(o *Options) {
		o.MaxTokens = n
	}
}

// WithJSON constrains the model to emit a JSON object.
func WithJSON() Option {
	return func(o *Options) {
		o.JSON = true
	}
}

// WithTools advertises tool definitions for one call.
func WithTools(tools []ToolDef) Option {
	return func(o *Options) {
		o.Tools = tools
	}
}
