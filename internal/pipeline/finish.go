package pipeline

import (
	"context"

	"github.com/JaimeStill/adjuster/pkg/graph"
)

// FinishNode is the terminal bookkeeping stage. A recorded stage error marks
// the run failed; an error-free run that was processing completes. A failed
// publication alone does not fail the run.
func FinishNode(rt *Runtime) graph.Node[*State] {
	return func(ctx context.Context, s *State) (*State, error) {
		switch {
		case s.ErrorMessage != "":
			s.Status = StatusFailed
		case s.Status == StatusProcessing:
			s.Status = StatusComplete
		}

		s.step("finish: status %s", s.Status)
		s.LastActivity = "finish: terminal"

		rt.Logger.InfoContext(
			ctx, "run finished",
			"session", s.SessionID,
			"status", s.Status,
			"draft_status", s.DraftStatus,
			"publish_status", s.PublishStatus,
			"error", s.ErrorMessage,
		)

		return s, nil
	}
}
