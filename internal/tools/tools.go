// Package tools provides the auxiliary capabilities the drafting stage may
// invoke: negotiation guidance, reserve prediction, and document skimming.
// A Registry holds the active set, renders the prompt block advertising them,
// and dispatches invocations by wire name.
package tools

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strconv"
	"strings"

	"github.com/JaimeStill/adjuster/pkg/llm"
)

// Wire names the model uses to request each tool.
const (
	ToolNegotiationTip    = "negotiation_tip"
	ToolReservePrediction = "reserve_prediction"
	ToolDocumentSkim      = "document_skim"
)

// Tool is one named capability available to the drafting stage.
type Tool interface {
	// Name is the wire identifier the model uses to request the tool.
	Name() string

	// Description tells the model when the tool is appropriate.
	Description() string

	// Parameters is the JSON Schema of the tool's argument object.
	Parameters() map[string]any

	// Invoke executes the tool against an argument map recovered from model
	// output. The returned text is fed back to the model verbatim. An error
	// means the arguments violated the tool's contract or a collaborator
	// failed; callers surface it as a tool result rather than failing the run.
	Invoke(ctx context.Context, args map[string]any) (string, error)
}

// Registry is an ordered, name-keyed set of tools. Registration order is
// preserved in Describe and Definitions output. A Registry is immutable after
// construction and safe for concurrent use.
type Registry struct {
	logger *slog.Logger
	order  []string
	tools  map[string]Tool
}

// NewRegistry builds a registry from the given tools. Duplicate wire names
// are rejected.
func NewRegistry(logger *slog.Logger, tools ...Tool) (*Registry, error) {
	r := &Registry{
		logger: logger.With("system", "tools"),
		tools:  make(map[string]Tool, len(tools)),
	}

	for _, t := range tools {
		name := t.Name()
		if _, ok := r.tools[name]; ok {
			return nil, fmt.Errorf("%w: %s", ErrDuplicateTool, name)
		}

		r.order = append(r.order, name)
		r.tools[name] = t
	}

	return r, nil
}

// Names returns the registered wire names in registration order.
func (r *Registry) Names() []string {
	names := make([]string, len(r.order))
	copy(names, r.order)
	return names
}

// Invoke executes the named tool. Unknown names return ErrUnknownTool.
func (r *Registry) Invoke(ctx context.Context, name string, args map[string]any) (string, error) {
	t, ok := r.tools[name]
	if !ok {
		return "", fmt.Errorf("%w: %s", ErrUnknownTool, name)
	}

	r.logger.DebugContext(ctx, "invoking tool", "tool", name)

	result, err := t.Invoke(ctx, args)
	if err != nil {
		return "", fmt.Errorf("tool %s: %w", name, err)
	}

	return result, nil
}

// Describe renders every registered tool into the prompt block advertised to
// the model: name, description, and argument schema, separated by rules.
func (r *Registry) Describe() string {
	blocks := make([]string, 0, len(r.order))

	for _, name := range r.order {
		t := r.tools[name]

		schema, err := json.MarshalIndent(t.Parameters(), "", "  ")
		if err != nil {
			schema = []byte("{}")
		}

		blocks = append(blocks, fmt.Sprintf(
			"Tool Name: %s\nTool Description: %s\nTool Arguments (JSON Schema): %s",
			name, t.Description(), schema,
		))
	}

	return strings.Join(blocks, "\n\n---\n\n")
}

// Definitions returns the registered tools as structured definitions for
// model backends with native tool calling.
func (r *Registry) Definitions() []llm.ToolDef {
	defs := make([]llm.ToolDef, 0, len(r.order))

	for _, name := range r.order {
		t := r.tools[name]
		defs = append(defs, llm.FunctionTool(llm.ToolDefSpec{
			Name:        name,
			Description: t.Description(),
			Parameters:  t.Parameters(),
		}))
	}

	return defs
}

// stringArg returns the named argument as a string.
func stringArg(args map[string]any, key string) (string, error) {
	v, ok := args[key]
	if !ok {
		return "", fmt.Errorf("%w: %s", ErrMissingArgument, key)
	}

	s, ok := v.(string)
	if !ok {
		return "", fmt.Errorf("%w: %s must be a string", ErrInvalidArgument, key)
	}

	return s, nil
}

// floatArg returns the named argument as a float64. Models quote numbers
// often enough that numeric strings are accepted too.
func floatArg(args map[string]any, key string) (float64, error) {
	v, ok := args[key]
	if !ok {
		return 0, fmt.Errorf("%w: %s", ErrMissingArgument, key)
	}

	switch n := v.(type) {
	case float64:
		return n, nil
	case string:
		f, err := strconv.ParseFloat(strings.TrimSpace(n), 64)
		if err != nil {
			return 0, fmt.Errorf("%w: %s is not numeric", ErrInvalidArgument, key)
		}
		return f, nil
	default:
		return 0, fmt.Errorf("%w: %s is not numeric", ErrInvalidArgument, key)
	}
}
