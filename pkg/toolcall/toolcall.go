// Package toolcall recovers structured tool invocations from free-form model
// output. Models asked to emit a tool request produce either a bare JSON
// object, a JSON array of objects, or the same wrapped in a markdown code
// fence; Parse normalizes all of these into Call records. The heuristics live
// here, isolated from the workflow engine, so they can be hardened without
// touching control flow.
package toolcall

import (
	"encoding/json"
	"errors"
	"fmt"
	"regexp"
	"strings"

	"github.com/google/uuid"
)

// ErrNoToolCall is returned when content holds no recoverable tool call:
// no JSON payload, malformed JSON, or a shape without a tool_name field.
var ErrNoToolCall = errors.New("no tool call found")

// Call is a normalized tool invocation request. ID is generated fresh for
// every parsed call.
type Call struct {
	ID   string         `json:"id"`
	Name string         `json:"tool_name"`
	Args map[string]any `json:"tool_args"`
}

// New builds a Call with a generated id, normalizing nil args.
func New(name string, args map[string]any) Call {
	if args == nil {
		args = make(map[string]any)
	}

	return Call{
		ID:   uuid.NewString(),
		Name: name,
		Args: args,
	}
}

// envelope is the wire shape a model emits for one tool request.
type envelope struct {
	ToolName string         `json:"tool_name"`
	ToolArgs map[string]any `json:"tool_args"`
}

var fenceRegex = regexp.MustCompile(`(?s)^` + "```" + `(?:json)?\s*\n?(.*?)\n?` + "```" + `$`)

// Parse extracts tool calls from model output. It strips a surrounding code
// fence, locates the JSON payload (the whole text when it is wholly an object
// or array, otherwise the span from the first '{' to the last '}'), and
// accepts a single {"tool_name": ..., "tool_args": {...}} object or an array
// of them. Array entries without a tool_name are skipped. Returns ErrNoToolCall
// when nothing conforming can be recovered; callers treat that as "no tool
// requested" and proceed with the raw text.
func Parse(content string) ([]Call, error) {
	trimmed := strings.TrimSpace(content)
	if trimmed == "" {
		return nil, fmt.Errorf("%w: empty content", ErrNoToolCall)
	}

	if m := fenceRegex.FindStringSubmatch(trimmed); len(m) >= 2 {
		trimmed = strings.TrimSpace(m[1])
	}

	payload, ok := extract(trimmed)
	if !ok {
		return nil, fmt.Errorf("%w: no JSON payload in content", ErrNoToolCall)
	}

	envelopes, err := decode(payload)
	if err != nil {
		return nil, fmt.Errorf("%w: %s", ErrNoToolCall, err)
	}

	calls := make([]Call, 0, len(envelopes))
	for _, env := range envelopes {
		if env.ToolName == "" {
			continue
		}

		calls = append(calls, New(env.ToolName, env.ToolArgs))
	}

	if len(calls) == 0 {
		return nil, fmt.Errorf("%w: payload carries no tool_name", ErrNoToolCall)
	}

	return calls, nil
}

// extract returns the JSON payload candidate within text. Text that is
// wholly an object or array is taken as-is; otherwise the substring from the
// first '{' to the last '}' is used.
func extract(text string) (string, bool) {
	wholeObject := strings.HasPrefix(text, "{") && strings.HasSuffix(text, "}")
	wholeArray := strings.HasPrefix(text, "[") && strings.HasSuffix(text, "]")

	if wholeObject || wholeArray {
		return text, true
	}

	start := strings.Index(text, "{")
	end := strings.LastIndex(text, "}")
	if start == -1 || end == -1 || end < start {
		return "", false
	}

	return text[start : end+1], true
}

func decode(payload string) ([]envelope, error) {
	if strings.HasPrefix(payload, "[") {
		var envelopes []envelope
		if err := json.Unmarshal([]byte(payload), &envelopes); err != nil {
			return nil, fmt.Errorf("unmarshal array: %w", err)
		}

		return envelopes, nil
	}

	var env envelope
	if err := json.Unmarshal([]byte(payload), &env); err != nil {
		return nil, fmt.Errorf("unmarshal object: %w", err)
	}

	return []envelope{env}, nil
}
