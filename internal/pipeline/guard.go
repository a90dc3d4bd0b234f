package pipeline

import (
	"context"

	"github.com/google/uuid"

	"github.com/JaimeStill/adjuster/pkg/graph"
)

// GuardNode validates run preconditions and initializes the audit trail. A
// missing session id records a failure but does not halt the graph; the
// summarize stage re-checks and its error routes the run to the terminal
// node. Missing document, question, and override text together mark the run
// blocked while still letting downstream stages report what they could not
// do.
func GuardNode(rt *Runtime) graph.Node[*State] {
	return func(ctx context.Context, s *State) (*State, error) {
		if s.SessionID == uuid.Nil {
			rt.Logger.ErrorContext(ctx, "guard: session id missing at run start")
			s.fail("guard: session id missing, cannot proceed")
			s.Status = StatusFailed
			return s, nil
		}

		s.step("guard: initialized")
		s.Status = StatusProcessing
		s.LastActivity = "guard: ready"
		s.ErrorMessage = ""

		if s.DocumentID == uuid.Nil && s.Question == "" && s.Override == "" {
			rt.Logger.WarnContext(
				ctx, "guard: no document, question, or override text provided",
				"session", s.SessionID,
			)
			s.Status = StatusBlocked
		}

		rt.Logger.InfoContext(
			ctx, "guard complete",
			"session", s.SessionID,
			"status", s.Status,
		)

		return s, nil
	}
}
