package tools

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/google/uuid"

	"github.com/JaimeStill/adjuster/internal/retrieval"
)

// DocumentSkimTool scores a document's indexed chunks against a query and
// returns the most relevant pages as JSON.
type DocumentSkimTool struct {
	retrieval retrieval.System
	logger    *slog.Logger
}

// NewDocumentSkim builds the tool over the knowledge base.
func NewDocumentSkim(kb retrieval.System, logger *slog.Logger) *DocumentSkimTool {
	return &DocumentSkimTool{
		retrieval: kb,
		logger:    logger.With("tool", ToolDocumentSkim),
	}
}

func (t *DocumentSkimTool) Name() string {
	return ToolDocumentSkim
}

func (t *DocumentSkimTool) Description() string {
	return "Scores document chunks (pages) based on embedding similarity to a query and returns the top N most relevant chunks. Use this to find key sections in a document related to a specific topic before drafting, if the initial summary and Q&A are insufficient. Requires a document_id and a query string."
}

func (t *DocumentSkimTool) Parameters() map[string]any {
	return map[string]any{
		"type": "object",
		"properties": map[string]any{
			"document_id": map[string]any{
				"type":        "string",
				"description": "The ID of the document to skim.",
			},
			"query": map[string]any{
				"type":        "string",
				"description": "The topic or question to score pages against.",
			},
			"top_n": map[string]any{
				"type":        "integer",
				"description": "Number of top pages to return.",
				"default":     retrieval.DefaultSkimResults,
			},
		},
		"required": []string{"document_id", "query"},
	}
}

func (t *DocumentSkimTool) Invoke(ctx context.Context, args map[string]any) (string, error) {
	rawID, err := stringArg(args, "document_id")
	if err != nil {
		return "", err
	}

	documentID, err := uuid.Parse(rawID)
	if err != nil {
		return "", fmt.Errorf("%w: document_id is not a valid id", ErrInvalidArgument)
	}

	q, err := stringArg(args, "query")
	if err != nil {
		return "", err
	}

	topN := retrieval.DefaultSkimResults
	if _, ok := args["top_n"]; ok {
		n, err := floatArg(args, "top_n")
		if err != nil {
			return "", err
		}
		topN = int(n)
	}

	results, err := t.retrieval.Skim(ctx, documentID, q, topN)
	if err != nil {
		return "", fmt.Errorf("skim document: %w", err)
	}

	if len(results) == 0 {
		return "", fmt.Errorf("document %s: %w", documentID, retrieval.ErrNotFound)
	}

	payload, err := json.Marshal(results)
	if err != nil {
		return "", fmt.Errorf("encode skim results: %w", err)
	}

	t.logger.DebugContext(ctx, "document skimmed", "document_id", documentID, "pages", len(results))

	return string(payload), nil
}
