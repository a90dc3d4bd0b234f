package retrieval

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"runtime"
	"strings"

	"github.com/google/uuid"
	"github.com/pgvector/pgvector-go"
	"golang.org/x/sync/errgroup"

	"github.com/JaimeStill/adjuster/pkg/llm"
	"github.com/JaimeStill/adjuster/pkg/query"
	"github.com/JaimeStill/adjuster/pkg/repository"
)

// Options tunes the answer flow. Zero values fall back to the package
// defaults; SelfHealAttempts of zero disables revision.
type Options struct {
	Sources             int
	ConfidenceThreshold int
	SelfHealAttempts    int
}

func (o *Options) normalize() {
	if o.Sources <= 0 {
		o.Sources = 3
	}
	if o.ConfidenceThreshold <= 0 {
		o.ConfidenceThreshold = DefaultConfidence
	}
	if o.SelfHealAttempts < 0 {
		o.SelfHealAttempts = 0
	}
}

type repo struct {
	db     *sql.DB
	model  llm.Provider
	logger *slog.Logger
	opts   Options
}

// New creates a knowledge base repository implementing the System interface.
func New(db *sql.DB, model llm.Provider, logger *slog.Logger, opts Options) System {
	opts.normalize()
	return &repo{
		db:     db,
		model:  model,
		logger: logger.With("system", "retrieval"),
		opts:   opts,
	}
}

func (r *repo) Index(ctx context.Context, req IndexRequest) (int, error) {
	if strings.TrimSpace(req.Text) == "" {
		return 0, nil
	}

	collection := req.Collection
	if collection == "" {
		collection = DefaultCollection
	}

	chunks := SplitText(req.Text)
	embeddings := make([][]float32, len(chunks))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(embedWorkerCount(len(chunks)))

	for i, chunk := range chunks {
		g.Go(func() error {
			if gctx.Err() != nil {
				return gctx.Err()
			}

			vec, err := r.model.Embed(gctx, chunk)
			if err != nil {
				return fmt.Errorf("embed chunk %d: %w", i, err)
			}

			embeddings[i] = vec
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return 0, err
	}

	_, err := repository.WithTx(ctx, r.db, func(tx *sql.Tx) (struct{}, error) {
		if _, err := tx.ExecContext(
			ctx,
			"DELETE FROM chunks WHERE document_id = $1 AND collection = $2",
			req.DocumentID, collection,
		); err != nil {
			return struct{}{}, fmt.Errorf("clear existing chunks: %w", err)
		}

		for i, chunk := range chunks {
			if _, err := tx.ExecContext(
				ctx,
				"INSERT INTO chunks(id, document_id, collection, seq, content, embedding) VALUES ($1, $2, $3, $4, $5, $6)",
				uuid.New(), req.DocumentID, collection, i, chunk, pgvector.NewVector(embeddings[i]),
			); err != nil {
				return struct{}{}, fmt.Errorf("insert chunk %d: %w", i, err)
			}
		}

		return struct{}{}, nil
	})
	if err != nil {
		return 0, err
	}

	r.logger.Info(
		"document indexed",
		"document_id", req.DocumentID,
		"collection", collection,
		"chunks", len(chunks),
	)
	return len(chunks), nil
}

func (r *repo) Remove(ctx context.Context, documentID uuid.UUID) error {
	if _, err := r.db.ExecContext(
		ctx,
		"DELETE FROM chunks WHERE document_id = $1",
		documentID,
	); err != nil {
		return fmt.Errorf("delete chunks: %w", err)
	}

	r.logger.Info("document chunks removed", "document_id", documentID)
	return nil
}

func (r *repo) Content(ctx context.Context, documentID uuid.UUID) (string, error) {
	q, args := query.
		NewBuilder(projection, seqSort).
		WhereEquals("DocumentID", documentID).
		Build()

	rows, err := repository.QueryMany(ctx, r.db, q, args, scanChunk)
	if err != nil {
		return "", fmt.Errorf("query chunks: %w", err)
	}

	if len(rows) == 0 {
		return "", ErrNotFound
	}

	chunks := make([]string, len(rows))
	for i, row := range rows {
		chunks[i] = row.content
	}

	return MergeText(chunks), nil
}

func (r *repo) Skim(ctx context.Context, documentID uuid.UUID, text string, topN int) ([]SkimResult, error) {
	if topN <= 0 {
		topN = DefaultSkimResults
	}

	vec, err := r.model.Embed(ctx, text)
	if err != nil {
		return nil, fmt.Errorf("embed query: %w", err)
	}

	q, args := query.
		NewBuilder(projection).
		WhereEquals("DocumentID", documentID).
		BuildNearest("embedding", pgvector.NewVector(vec), topN)

	rows, err := repository.QueryMany(ctx, r.db, q, args, scanScoredChunk)
	if err != nil {
		return nil, fmt.Errorf("query chunks: %w", err)
	}

	results := make([]SkimResult, len(rows))
	for i, row := range rows {
		results[i] = SkimResult{
			Page:    row.seq + 1,
			Score:   1 - row.distance,
			Preview: Preview(row.content),
		}
	}

	return results, nil
}

func embedWorkerCount(chunkCount int) int {
	return max(min(runtime.NumCPU(), chunkCount), 1)
}
