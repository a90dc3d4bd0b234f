package precedents

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"

	"github.com/google/uuid"
	"github.com/pgvector/pgvector-go"

	"github.com/JaimeStill/adjuster/pkg/llm"
	"github.com/JaimeStill/adjuster/pkg/pagination"
	"github.com/JaimeStill/adjuster/pkg/query"
	"github.com/JaimeStill/adjuster/pkg/repository"
)

type repo struct {
	db         *sql.DB
	model      llm.Provider
	logger     *slog.Logger
	pagination pagination.Config
}

// New creates a precedent repository implementing the System interface.
func New(
	db *sql.DB,
	model llm.Provider,
	logger *slog.Logger,
	pagination pagination.Config,
) System {
	return &repo{
		db:         db,
		model:      model,
		logger:     logger.With("system", "precedents"),
		pagination: pagination,
	}
}

func (r *repo) Handler() *Handler {
	return NewHandler(r, r.logger, r.pagination)
}

func (r *repo) List(
	ctx context.Context,
	page pagination.PageRequest,
	filters Filters,
) (*pagination.PageResult[Precedent], error) {
	page.Normalize(r.pagination)

	qb := query.
		NewBuilder(projection, defaultSort).
		WhereSearch(page.Search, "Summary", "ClaimID")

	filters.Apply(qb)

	if len(page.Sort) > 0 {
		qb.OrderByFields(page.Sort)
	}

	countSQL, countArgs := qb.BuildCount()
	var total int
	if err := r.db.QueryRowContext(ctx, countSQL, countArgs...).Scan(&total); err != nil {
		return nil, fmt.Errorf("count precedents: %w", err)
	}

	pageSQL, pageArgs := qb.BuildPage(page.Page, page.PageSize)
	items, err := repository.QueryMany(ctx, r.db, pageSQL, pageArgs, scanPrecedent)
	if err != nil {
		return nil, fmt.Errorf("query precedents: %w", err)
	}

	result := pagination.NewPageResult(items, total, page.Page, page.PageSize)
	return &result, nil
}

func (r *repo) Find(ctx context.Context, id uuid.UUID) (*Precedent, error) {
	q, args := query.NewBuilder(projection).BuildSingle("ID", id)

	p, err := repository.QueryOne(ctx, r.db, q, args, scanPrecedent)
	if err != nil {
		return nil, repository.MapError(err, ErrNotFound, ErrDuplicate)
	}
	return &p, nil
}

func (r *repo) Create(ctx context.Context, cmd CreateCommand) (*Precedent, error) {
	if strings.TrimSpace(cmd.Summary) == "" {
		return nil, ErrEmptySummary
	}

	vec, err := r.model.Embed(ctx, cmd.Summary)
	if err != nil {
		return nil, fmt.Errorf("embed summary: %w", err)
	}

	keywords := cmd.Keywords
	if keywords == nil {
		keywords = []string{}
	}

	keywordsJSON, err := json.Marshal(keywords)
	if err != nil {
		return nil, fmt.Errorf("marshal keywords: %w", err)
	}

	insertQ := `
		INSERT INTO precedents(id, claim_id, summary, outcome, keywords, embedding)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id, claim_id, summary, outcome, keywords, created_at`

	insertArgs := []any{
		uuid.New(),
		cmd.ClaimID,
		cmd.Summary,
		cmd.Outcome,
		keywordsJSON,
		pgvector.NewVector(vec),
	}

	p, err := repository.WithTx(ctx, r.db, func(tx *sql.Tx) (Precedent, error) {
		return repository.QueryOne(ctx, tx, insertQ, insertArgs, scanPrecedent)
	})

	if err != nil {
		return nil, repository.MapError(err, ErrNotFound, ErrDuplicate)
	}

	r.logger.Info("precedent created", "id", p.ID, "claim_id", p.ClaimID, "outcome", p.Outcome)
	return &p, nil
}

// Match embeds the query text and returns the closest precedents by cosine
// similarity, best first.
func (r *repo) Match(ctx context.Context, cmd MatchCommand) ([]Match, error) {
	if strings.TrimSpace(cmd.Query) == "" {
		return nil, ErrEmptyQuery
	}

	topK := cmd.TopK
	if topK <= 0 {
		topK = DefaultMatches
	}

	vec, err := r.model.Embed(ctx, cmd.Query)
	if err != nil {
		return nil, fmt.Errorf("embed query: %w", err)
	}

	q, args := query.
		NewBuilder(projection).
		BuildNearest("embedding", pgvector.NewVector(vec), topK)

	rows, err := repository.QueryMany(ctx, r.db, q, args, scanMatchRow)
	if err != nil {
		return nil, fmt.Errorf("query precedents: %w", err)
	}

	matches := make([]Match, len(rows))
	for i, row := range rows {
		matches[i] = Match{
			Precedent: row.precedent,
			Score:     1 - row.distance,
		}
	}

	return matches, nil
}

func (r *repo) Delete(ctx context.Context, id uuid.UUID) error {
	_, err := repository.WithTx(ctx, r.db, func(tx *sql.Tx) (struct{}, error) {
		if err := repository.ExecExpectOne(
			ctx, tx,
			"DELETE FROM precedents WHERE id = $1",
			id,
		); err != nil {
			return struct{}{}, err
		}
		return struct{}{}, nil
	})

	if err != nil {
		return repository.MapError(err, ErrNotFound, ErrDuplicate)
	}

	r.logger.Info("precedent deleted", "id", id)
	return nil
}
