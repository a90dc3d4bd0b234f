// Package pipeline implements the claim processing run: a directed, cyclic
// graph of stages sharing one typed session record. A run moves through
// guard, summarize, and QA stages, loops QA through a bounded
// confidence-driven retry, loops drafting through a bounded tool-invocation
// cycle, publishes the final payload best-effort, and always reaches the
// terminal node. Failures are captured into the state record rather than
// raised; callers inspect the returned State.
package pipeline

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/JaimeStill/adjuster/internal/prompts"
	"github.com/JaimeStill/adjuster/pkg/graph"
)

// Node names, used in routing and audit entries.
const (
	nodeGuard     = "guard"
	nodeSummarize = "summarize"
	nodeQA        = "qa"
	nodeRetry     = "retry"
	nodeDraft     = "draft"
	nodeTools     = "tools"
	nodePublish   = "publish"
	nodeFinish    = "finish"
)

// Execute runs the full claim processing graph over s. The returned State is
// always s itself, mutated in place by whichever stages ran; an error means
// the engine could not complete the walk (step limit, cancellation, broken
// routing), not that a stage failed. Stage failures land in
// State.ErrorMessage and the run still terminates normally.
func Execute(ctx context.Context, rt *Runtime, s *State) (*State, error) {
	g, err := buildGraph(rt)
	if err != nil {
		return s, fmt.Errorf("build graph: %w", err)
	}

	final, err := g.Execute(ctx, s)
	if err != nil {
		return final, fmt.Errorf("execute graph: %w", err)
	}

	return final, nil
}

func buildGraph(rt *Runtime) (*graph.Graph[*State], error) {
	g := graph.New[*State](graph.Config{
		Name:     "claim-run",
		MaxSteps: rt.Pipeline.MaxSteps,
		Logger:   rt.Logger,
	})

	if err := g.AddNode(nodeGuard, GuardNode(rt)); err != nil {
		return nil, err
	}

	if err := g.AddNode(nodeSummarize, SummarizeNode(rt)); err != nil {
		return nil, err
	}

	if err := g.AddNode(nodeQA, QANode(rt)); err != nil {
		return nil, err
	}

	if err := g.AddNode(nodeRetry, RetryNode(rt)); err != nil {
		return nil, err
	}

	if err := g.AddNode(nodeDraft, DraftNode(rt)); err != nil {
		return nil, err
	}

	if err := g.AddNode(nodeTools, ToolsNode(rt)); err != nil {
		return nil, err
	}

	if err := g.AddNode(nodePublish, PublishNode(rt)); err != nil {
		return nil, err
	}

	if err := g.AddNode(nodeFinish, FinishNode(rt)); err != nil {
		return nil, err
	}

	// guard → summarize (unconditional)
	if err := g.AddEdge(nodeGuard, nodeSummarize, nil); err != nil {
		return nil, err
	}

	// summarize → finish (stage error short-circuits), else → qa
	if err := g.AddEdge(nodeSummarize, nodeFinish, hasError); err != nil {
		return nil, err
	}

	if err := g.AddEdge(nodeSummarize, nodeQA, nil); err != nil {
		return nil, err
	}

	// qa → finish (error wins over retry), → retry (low confidence within
	// budget), else → draft
	if err := g.AddEdge(nodeQA, nodeFinish, hasError); err != nil {
		return nil, err
	}

	if err := g.AddEdge(nodeQA, nodeRetry, shouldRetry(rt)); err != nil {
		return nil, err
	}

	if err := g.AddEdge(nodeQA, nodeDraft, nil); err != nil {
		return nil, err
	}

	// retry → qa (unconditional loop back)
	if err := g.AddEdge(nodeRetry, nodeQA, nil); err != nil {
		return nil, err
	}

	// draft → tools (tool call requested), else → publish; the unconditional
	// fallback also covers an unrecognized draft status
	if err := g.AddEdge(nodeDraft, nodeTools, toolCallRequested); err != nil {
		return nil, err
	}

	if err := g.AddEdge(nodeDraft, nodePublish, nil); err != nil {
		return nil, err
	}

	// tools → draft (unconditional loop back)
	if err := g.AddEdge(nodeTools, nodeDraft, nil); err != nil {
		return nil, err
	}

	// publish → finish (unconditional; publish failure is non-fatal)
	if err := g.AddEdge(nodePublish, nodeFinish, nil); err != nil {
		return nil, err
	}

	if err := g.SetEntryPoint(nodeGuard); err != nil {
		return nil, err
	}

	if err := g.SetExitPoint(nodeFinish); err != nil {
		return nil, err
	}

	return g, nil
}

func hasError(s *State) bool {
	return s.ErrorMessage != ""
}

// shouldRetry routes QA back through the retry stage while confidence sits
// below the threshold and the retry budget is not exhausted.
func shouldRetry(rt *Runtime) graph.Predicate[*State] {
	return func(s *State) bool {
		return s.Confidence < rt.Pipeline.ConfidenceThreshold &&
			s.QARetries < rt.Pipeline.MaxQARetries
	}
}

func toolCallRequested(s *State) bool {
	return s.DraftStatus == DraftToolCallRequested
}

// stagePrompt combines a stage's tunable instructions with its immutable
// specification.
func stagePrompt(ctx context.Context, ps prompts.Resolver, stage prompts.Stage) (string, error) {
	instructions, err := ps.Instructions(ctx, stage)
	if err != nil {
		return "", fmt.Errorf("load instructions for %s: %w", stage, err)
	}

	spec, err := ps.Spec(ctx, stage)
	if err != nil {
		return "", fmt.Errorf("load spec for %s: %w", stage, err)
	}

	var sb strings.Builder
	sb.WriteString(instructions)
	sb.WriteString("\n\n")
	sb.WriteString(spec)

	return sb.String(), nil
}

// withTimeout bounds ctx by d when d is positive; otherwise it passes ctx
// through unbounded.
func withTimeout(ctx context.Context, d time.Duration) (context.Context, context.CancelFunc) {
	if d <= 0 {
		return context.WithCancel(ctx)
	}

	return context.WithTimeout(ctx, d)
}
