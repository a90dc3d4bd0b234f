package pipeline

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/JaimeStill/adjuster/internal/prompts"
	"github.com/JaimeStill/adjuster/pkg/graph"
)

// SummarizeNode produces the claim summary from override text or the indexed
// document content. Every failure is captured as a state error plus a
// human-readable placeholder summary; the node itself never errors, and the
// routing after it sends errored runs to the terminal node.
func SummarizeNode(rt *Runtime) graph.Node[*State] {
	return func(ctx context.Context, s *State) (*State, error) {
		if s.SessionID == uuid.Nil {
			s.fail("summarize: session id missing")
			return s, nil
		}

		if s.DocumentID == uuid.Nil && s.Override == "" {
			rt.Logger.WarnContext(
				ctx, "summarize: no document or override text",
				"session", s.SessionID,
			)
			s.fail("summarize: no document or content to summarise")
			s.Summary = "Error: No document or content provided for summarisation."
			return s, nil
		}

		text := s.Override
		if text == "" {
			content, err := rt.Retrieval.Content(ctx, s.DocumentID)
			if err != nil {
				rt.Logger.ErrorContext(
					ctx, "summarize: content retrieval failed",
					"session", s.SessionID,
					"document", s.DocumentID,
					"error", err,
				)
				s.fail("summarize: error retrieving document %s", s.DocumentID)
				s.Summary = fmt.Sprintf("Error: Could not retrieve document %s for summarisation.", s.DocumentID)
				return s, nil
			}

			text = content
		}

		if strings.TrimSpace(text) == "" {
			s.fail("summarize: content to summarise is empty")
			s.Summary = "Error: Content for summarisation is empty or whitespace."
			return s, nil
		}

		prompt, err := summaryPrompt(ctx, rt, text)
		if err != nil {
			s.fail("summarize: compose prompt: %s", err)
			s.Summary = fmt.Sprintf("Error: Failed to generate summary. Details: %s", err)
			return s, nil
		}

		mctx, cancel := withTimeout(ctx, rt.Pipeline.ModelTimeoutDuration())
		defer cancel()

		summary, err := rt.Model.Generate(mctx, prompt)
		if err != nil {
			rt.Logger.ErrorContext(
				ctx, "summarize: generation failed",
				"session", s.SessionID,
				"error", err,
			)
			s.fail("summarize: error during summary generation: %s", err)
			s.Summary = fmt.Sprintf("Error: Failed to generate summary. Details: %s", err)
			return s, nil
		}

		s.Summary = summary
		s.LastActivity = "summarize: success"
		s.ErrorMessage = ""

		rt.Logger.InfoContext(
			ctx, "summarize complete",
			"session", s.SessionID,
			"length", len(summary),
		)

		return s, nil
	}
}

func summaryPrompt(ctx context.Context, rt *Runtime, text string) (string, error) {
	system, err := stagePrompt(ctx, rt.Prompts, prompts.StageSummarize)
	if err != nil {
		return "", err
	}

	var sb strings.Builder
	sb.WriteString(system)
	sb.WriteString("\n\nText to summarise:\n---BEGIN TEXT---\n")
	sb.WriteString(text)
	sb.WriteString("\n---END TEXT---\n\nConcise Summary:")

	return sb.String(), nil
}
