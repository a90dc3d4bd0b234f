package pipeline

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/JaimeStill/adjuster/internal/prompts"
	"github.com/JaimeStill/adjuster/internal/retrieval"
	"github.com/JaimeStill/adjuster/pkg/graph"
)

// QANode answers the run's question through the retrieval collaborator,
// clamping the reported confidence into the valid range and retaining the
// exchange for drafting context. Collaborator failures become a fallback
// answer with confidence 0 and a state error, which the routing after this
// node sends to the terminal node ahead of any retry consideration.
func QANode(rt *Runtime) graph.Node[*State] {
	return func(ctx context.Context, s *State) (*State, error) {
		if s.SessionID == uuid.Nil {
			s.fail("qa: session id missing")
			return s, nil
		}

		if strings.TrimSpace(s.Question) == "" {
			rt.Logger.WarnContext(ctx, "qa: no question provided", "session", s.SessionID)
			s.fail("qa: no query provided or query is empty")
			s.Answer = "Error: Please provide a question."
			s.Sources = []retrieval.Source{}
			s.Confidence = 0
			return s, nil
		}

		opts := make([]retrieval.AnswerOption, 0, 1)
		if directive, err := rt.Prompts.Instructions(ctx, prompts.StageQA); err != nil {
			rt.Logger.WarnContext(ctx, "qa: directive lookup failed, using default", "error", err)
		} else {
			opts = append(opts, retrieval.WithDirective(directive))
		}

		mctx, cancel := withTimeout(ctx, rt.Pipeline.ModelTimeoutDuration())
		defer cancel()

		answer, err := rt.Retrieval.Answer(mctx, s.Question, s.Collection, opts...)
		if err != nil {
			rt.Logger.ErrorContext(
				ctx, "qa: retrieval query failed",
				"session", s.SessionID,
				"error", err,
			)
			s.fail("qa: error during retrieval query: %s", err)
			s.Answer = fmt.Sprintf("Error: Could not answer question. Details: %s", err)
			s.Sources = []retrieval.Source{}
			s.Confidence = 0
			return s, nil
		}

		s.Answer = answer.Text
		s.Sources = answer.Sources
		s.Confidence = ClampConfidence(answer.Confidence)
		s.SubAttempts = answer.SubAttempts
		s.History = append(s.History, Exchange{Question: s.Question, Answer: answer.Text})
		s.LastActivity = "qa: success"
		s.ErrorMessage = ""

		rt.Logger.InfoContext(
			ctx, "qa complete",
			"session", s.SessionID,
			"confidence", s.Confidence,
			"sources", len(s.Sources),
			"sub_attempts", s.SubAttempts,
		)

		return s, nil
	}
}
