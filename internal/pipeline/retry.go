package pipeline

import (
	"context"

	"github.com/JaimeStill/adjuster/pkg/graph"
)

// RetryNode prepares a fresh QA attempt after a low-confidence answer:
// it advances the retry counter and discards the prior attempt's answer,
// sources, confidence, and retained exchange. Only the final attempt's
// answer survives into drafting.
func RetryNode(rt *Runtime) graph.Node[*State] {
	return func(ctx context.Context, s *State) (*State, error) {
		s.QARetries++
		s.step("retry: attempt %d", s.QARetries)

		s.Answer = ""
		s.Sources = nil
		s.Confidence = 0
		s.ErrorMessage = ""
		s.PublishError = ""

		if len(s.History) > 0 {
			s.History = s.History[:len(s.History)-1]
		}

		rt.Logger.InfoContext(
			ctx, "retrying qa",
			"session", s.SessionID,
			"attempt", s.QARetries,
		)

		return s, nil
	}
}
