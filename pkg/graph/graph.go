// Package graph provides a generic directed state graph executor. Nodes
// transform a shared state value; edges select the next node through optional
// predicates evaluated against the state a node returns. Cycles are permitted
// and bounded by a global step limit.
package graph

import (
	"context"
	"fmt"
	"log/slog"
)

// DefaultMaxSteps bounds a single Execute call when Config.MaxSteps is unset.
const DefaultMaxSteps = 50

// Node is a unit of work. It receives the current state and returns the next
// state. Returning an error aborts the run.
type Node[S any] func(ctx context.Context, s S) (S, error)

// Predicate gates a conditional edge. A nil Predicate matches unconditionally.
type Predicate[S any] func(s S) bool

// Not inverts a predicate.
func Not[S any](p Predicate[S]) Predicate[S] {
	return func(s S) bool {
		return !p(s)
	}
}

type edge[S any] struct {
	to   string
	when Predicate[S]
}

// Graph is a directed, possibly cyclic graph of named nodes. Build it with
// AddNode/AddEdge, mark the entry and exit nodes, then call Execute. A Graph
// is not safe for concurrent mutation but Execute may be called concurrently
// once construction is complete.
type Graph[S any] struct {
	name     string
	maxSteps int
	logger   *slog.Logger
	nodes    map[string]Node[S]
	edges    map[string][]edge[S]
	entry    string
	exit     string
}

// Config carries graph construction options.
type Config struct {
	Name     string
	MaxSteps int
	Logger   *slog.Logger
}

// New creates an empty graph from cfg, applying defaults for unset fields.
func New[S any](cfg Config) *Graph[S] {
	if cfg.MaxSteps <= 0 {
		cfg.MaxSteps = DefaultMaxSteps
	}

	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	return &Graph[S]{
		name:     cfg.Name,
		maxSteps: cfg.MaxSteps,
		logger:   logger.With("graph", cfg.Name),
		nodes:    make(map[string]Node[S]),
		edges:    make(map[string][]edge[S]),
	}
}

// AddNode registers a named node. Names must be unique.
func (g *Graph[S]) AddNode(name string, node Node[S]) error {
	if node == nil {
		return fmt.Errorf("%w: %s", ErrNilNode, name)
	}

	if _, ok := g.nodes[name]; ok {
		return fmt.Errorf("%w: %s", ErrDuplicateNode, name)
	}

	g.nodes[name] = node
	return nil
}

// AddEdge registers a directed edge. Both endpoints must already be
// registered. Edges from the same node are evaluated in registration order;
// the first whose predicate is nil or returns true is taken.
func (g *Graph[S]) AddEdge(from, to string, when Predicate[S]) error {
	if _, ok := g.nodes[from]; !ok {
		return fmt.Errorf("%w: edge source %s", ErrUnknownNode, from)
	}

	if _, ok := g.nodes[to]; !ok {
		return fmt.Errorf("%w: edge target %s", ErrUnknownNode, to)
	}

	g.edges[from] = append(g.edges[from], edge[S]{to: to, when: when})
	return nil
}

// SetEntryPoint marks the node Execute starts from.
func (g *Graph[S]) SetEntryPoint(name string) error {
	if _, ok := g.nodes[name]; !ok {
		return fmt.Errorf("%w: entry point %s", ErrUnknownNode, name)
	}

	g.entry = name
	return nil
}

// SetExitPoint marks the terminal node. Execute returns after running it.
func (g *Graph[S]) SetExitPoint(name string) error {
	if _, ok := g.nodes[name]; !ok {
		return fmt.Errorf("%w: exit point %s", ErrUnknownNode, name)
	}

	g.exit = name
	return nil
}

// Execute runs the graph from the entry point until the exit node completes,
// the step limit trips, an edge fails to match, the context is canceled, or a
// node errors. The state threaded through the nodes is returned alongside any
// error so callers can inspect partial progress.
func (g *Graph[S]) Execute(ctx context.Context, s S) (S, error) {
	if g.entry == "" {
		return s, ErrNoEntryPoint
	}

	if g.exit == "" {
		return s, ErrNoExitPoint
	}

	current := g.entry

	for step := 1; ; step++ {
		if step > g.maxSteps {
			return s, fmt.Errorf("%w: %d nodes executed", ErrStepLimit, g.maxSteps)
		}

		if err := ctx.Err(); err != nil {
			return s, err
		}

		next, err := g.run(ctx, current, s)
		s = next
		if err != nil {
			return s, err
		}

		g.logger.DebugContext(ctx, "node complete", "node", current, "step", step)

		if current == g.exit {
			return s, nil
		}

		current, err = g.route(current, s)
		if err != nil {
			return s, err
		}
	}
}

// run executes one node, converting a panic into an error so a misbehaving
// node cannot take down the caller.
func (g *Graph[S]) run(ctx context.Context, name string, s S) (out S, err error) {
	defer func() {
		if r := recover(); r != nil {
			out = s
			err = fmt.Errorf("node %s: %w: %v", name, ErrNodePanic, r)
		}
	}()

	out, err = g.nodes[name](ctx, s)
	if err != nil {
		return out, fmt.Errorf("node %s: %w", name, err)
	}

	return out, nil
}

func (g *Graph[S]) route(from string, s S) (string, error) {
	for _, e := range g.edges[from] {
		if e.when == nil || e.when(s) {
			return e.to, nil
		}
	}

	return "", fmt.Errorf("%w: leaving %s", ErrNoRoute, from)
}
