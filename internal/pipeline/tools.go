package pipeline

import (
	"context"
	"fmt"

	"github.com/JaimeStill/adjuster/internal/tools"
	"github.com/JaimeStill/adjuster/pkg/graph"
	"github.com/JaimeStill/adjuster/pkg/llm"
	"github.com/JaimeStill/adjuster/pkg/toolcall"
)

// ToolsNode executes every tool call carried by the most recent assistant
// message. Each result, including a lookup or execution failure rendered as
// an "Error: ..." string, is appended as a tool message tagged with the call
// id it answers, so the drafting stage can react to failures instead of the
// run dying on them. Negotiation and reserve results are mirrored into their
// dedicated state fields for the publication payload.
func ToolsNode(rt *Runtime) graph.Node[*State] {
	return func(ctx context.Context, s *State) (*State, error) {
		calls := pendingCalls(s.Conversation)
		if len(calls) == 0 {
			rt.Logger.WarnContext(
				ctx, "tools: no pending calls in conversation",
				"session", s.SessionID,
			)
			s.DraftStatus = DraftPending
			return s, nil
		}

		for _, call := range calls {
			result, err := invokeTool(ctx, rt, call.Name, call.Args)
			if err != nil {
				rt.Logger.ErrorContext(
					ctx, "tools: invocation failed",
					"session", s.SessionID,
					"tool", call.Name,
					"error", err,
				)
				result = fmt.Sprintf("Error: %s", err)
			} else {
				switch call.Name {
				case tools.ToolNegotiationTip:
					s.NegotiationAdvice = result
				case tools.ToolReservePrediction:
					s.ReservePrediction = result
				}
			}

			s.Conversation = append(s.Conversation, Message{
				Role:    llm.RoleTool,
				Content: result,
				CallID:  call.ID,
			})
		}

		s.ToolRounds++
		s.DraftStatus = DraftPending
		s.LastActivity = fmt.Sprintf("tools: executed %d calls", len(calls))

		rt.Logger.InfoContext(
			ctx, "tools complete",
			"session", s.SessionID,
			"calls", len(calls),
			"round", s.ToolRounds,
		)

		return s, nil
	}
}

func invokeTool(ctx context.Context, rt *Runtime, name string, args map[string]any) (string, error) {
	tctx, cancel := withTimeout(ctx, rt.Pipeline.ToolTimeoutDuration())
	defer cancel()

	return rt.Tools.Invoke(tctx, name, args)
}

// pendingCalls returns the tool calls of the latest assistant message that
// carries any.
func pendingCalls(conversation []Message) []toolcall.Call {
	for i := len(conversation) - 1; i >= 0; i-- {
		m := conversation[i]
		if m.Role == llm.RoleAssistant && len(m.Calls) > 0 {
			return m.Calls
		}
	}

	return nil
}
