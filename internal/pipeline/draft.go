package pipeline

import (
	"context"
	"fmt"
	"strings"

	"github.com/JaimeStill/adjuster/internal/prompts"
	"github.com/JaimeStill/adjuster/pkg/graph"
	"github.com/JaimeStill/adjuster/pkg/llm"
	"github.com/JaimeStill/adjuster/pkg/toolcall"
)

// DraftNode generates the strategy note, or requests tool calls on the way
// there. Tool calls are discovered through two paths: the model client's
// structured tool call list, and a fallback parse of the response text for
// models that emit the call as JSON prose. Once the tool round budget is
// spent the model is invoked without tool definitions and its response is
// taken as the final draft regardless of shape. A completed draft is
// rendered to storage best-effort; render failures never change the draft
// status.
func DraftNode(rt *Runtime) graph.Node[*State] {
	return func(ctx context.Context, s *State) (*State, error) {
		system, err := draftSystemPrompt(ctx, rt)
		if err != nil {
			s.fail("draft: compose prompt: %s", err)
			s.DraftNote = fmt.Sprintf("Error: Failed to generate draft. Details: %s", err)
			s.DraftStatus = DraftComplete
			return s, nil
		}

		if !hasDialogue(s.Conversation) {
			s.Conversation = append(s.Conversation, Message{
				Role:    llm.RoleUser,
				Content: initialContext(s),
			})
		}

		allowTools := s.ToolRounds < rt.Pipeline.MaxToolRounds
		if !allowTools {
			rt.Logger.WarnContext(
				ctx, "draft: tool round budget spent, forcing final draft",
				"session", s.SessionID,
				"rounds", s.ToolRounds,
			)
		}

		var opts []llm.Option
		if allowTools {
			opts = append(opts, llm.WithTools(rt.Tools.Definitions()))
		}

		mctx, cancel := withTimeout(ctx, rt.Pipeline.ModelTimeoutDuration())
		defer cancel()

		resp, err := rt.Model.Chat(mctx, chatMessages(system, s.Conversation), opts...)
		if err != nil {
			rt.Logger.ErrorContext(
				ctx, "draft: generation failed",
				"session", s.SessionID,
				"error", err,
			)
			s.fail("draft: error during draft generation: %s", err)
			s.DraftNote = fmt.Sprintf("Error: Failed to generate draft. Details: %s", err)
			s.DraftStatus = DraftComplete
			return s, nil
		}

		var calls []toolcall.Call
		if allowTools {
			calls = structuredCalls(resp)
			if len(calls) == 0 && resp.Content != "" {
				parsed, perr := toolcall.Parse(resp.Content)
				if perr != nil {
					rt.Logger.DebugContext(ctx, "draft: no tool call in content", "reason", perr)
				} else {
					calls = parsed
				}
			}
		}

		if len(calls) > 0 {
			names := make([]string, len(calls))
			for i, call := range calls {
				names[i] = call.Name
			}

			s.Conversation = append(s.Conversation, Message{
				Role:    llm.RoleAssistant,
				Content: resp.Content,
				Calls:   calls,
			})
			s.DraftStatus = DraftToolCallRequested
			s.LastActivity = "draft: tool call requested"

			rt.Logger.InfoContext(
				ctx, "draft requested tools",
				"session", s.SessionID,
				"tools", strings.Join(names, ","),
			)

			return s, nil
		}

		s.Conversation = append(s.Conversation, Message{
			Role:    llm.RoleAssistant,
			Content: resp.Content,
		})
		s.DraftNote = resp.Content
		s.DraftStatus = DraftComplete
		s.LastActivity = "draft: complete"

		if path, err := rt.Drafting.Render(ctx, s.SessionID, s.DraftNote, s.Filename); err != nil {
			rt.Logger.ErrorContext(
				ctx, "draft: render failed",
				"session", s.SessionID,
				"error", err,
			)
		} else {
			s.DraftFile = path
		}

		rt.Logger.InfoContext(
			ctx, "draft complete",
			"session", s.SessionID,
			"file", s.DraftFile,
		)

		return s, nil
	}
}

// draftSystemPrompt layers the drafting instructions, the registered tool
// descriptions, and the tool call contract into the system message.
func draftSystemPrompt(ctx context.Context, rt *Runtime) (string, error) {
	instructions, err := rt.Prompts.Instructions(ctx, prompts.StageDraft)
	if err != nil {
		return "", fmt.Errorf("load instructions for %s: %w", prompts.StageDraft, err)
	}

	spec, err := rt.Prompts.Spec(ctx, prompts.StageDraft)
	if err != nil {
		return "", fmt.Errorf("load spec for %s: %w", prompts.StageDraft, err)
	}

	var sb strings.Builder
	sb.WriteString(instructions)
	sb.WriteString("\n\nYou have access to the following tools:\n")
	sb.WriteString(rt.Tools.Describe())
	sb.WriteString("\n\n")
	sb.WriteString(spec)

	return sb.String(), nil
}

// initialContext composes the opening user message from the run's request,
// summary, retained Q&A exchanges, and any drafting criteria.
func initialContext(s *State) string {
	var parts []string

	if s.Request != "" {
		parts = append(parts, fmt.Sprintf("The initial request was: %s", s.Request))
	}

	context := s.Summary
	if s.Override != "" {
		context = s.Override
	}
	if context == "" {
		context = "No summary available."
	}
	parts = append(parts, fmt.Sprintf("Here is the available context/summary:\n%s", context))

	if history := s.HistoryText(); history != "" {
		parts = append(parts, fmt.Sprintf("Here are some relevant Q&A pairs:\n%s", history))
	} else {
		parts = append(parts, "No Q&A pairs were generated or provided.")
	}

	if s.UserCriteria != "" {
		parts = append(parts, fmt.Sprintf("Specific criteria for this draft: %s", s.UserCriteria))
	}

	parts = append(parts, "Based on all the above, please draft the strategy note. If you need to use a tool first, please do so.")

	return strings.Join(parts, "\n\n")
}

// hasDialogue reports whether the conversation already holds a user or
// assistant turn; until it does, the draft stage owes the model its opening
// context message.
func hasDialogue(conversation []Message) bool {
	for _, m := range conversation {
		if m.Role == llm.RoleUser || m.Role == llm.RoleAssistant {
			return true
		}
	}

	return false
}

// chatMessages flattens the system prompt and conversation into the model
// client's message format.
func chatMessages(system string, conversation []Message) []llm.Message {
	messages := make([]llm.Message, 0, len(conversation)+1)
	messages = append(messages, llm.Message{Role: llm.RoleSystem, Content: system})

	for _, m := range conversation {
		messages = append(messages, llm.Message{Role: m.Role, Content: m.Content})
	}

	return messages
}

// structuredCalls normalizes the model client's native tool call list.
func structuredCalls(resp *llm.ChatResponse) []toolcall.Call {
	calls := make([]toolcall.Call, 0, len(resp.ToolCalls))

	for _, tc := range resp.ToolCalls {
		if tc.Function.Name == "" {
			continue
		}

		calls = append(calls, toolcall.New(tc.Function.Name, tc.Function.Arguments))
	}

	return calls
}
