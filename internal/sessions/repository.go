package sessions

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/google/uuid"

	"github.com/JaimeStill/adjuster/internal/pipeline"
	"github.com/JaimeStill/adjuster/internal/retrieval"
	"github.com/JaimeStill/adjuster/pkg/pagination"
	"github.com/JaimeStill/adjuster/pkg/query"
	"github.com/JaimeStill/adjuster/pkg/repository"
)

const returning = `id, document_id, collection, request, question, user_criteria,
		  status, summary, answer, confidence, qa_retries, tool_rounds,
		  draft_file, publish_status, error_message, steps, payload,
		  created_at, completed_at`

type repo struct {
	db         *sql.DB
	rt         *pipeline.Runtime
	logger     *slog.Logger
	pagination pagination.Config
}

// New creates a session repository implementing the System interface.
// The pipeline runtime carries the collaborators each run drives: model,
// knowledge base, tool registry, draft renderer, broker, and prompts.
func New(
	db *sql.DB,
	rt *pipeline.Runtime,
	logger *slog.Logger,
	pagination pagination.Config,
) System {
	return &repo{
		db:         db,
		rt:         rt,
		logger:     logger.With("system", "sessions"),
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
) (*pagination.PageResult[Session], error) {
	page.Normalize(r.pagination)

	qb := query.
		NewBuilder(projection, defaultSort).
		WhereSearch(page.Search, "Question", "Summary")

	filters.Apply(qb)

	if len(page.Sort) > 0 {
		qb.OrderByFields(page.Sort)
	}

	countSQL, countArgs := qb.BuildCount()
	var total int
	if err := r.db.QueryRowContext(ctx, countSQL, countArgs...).Scan(&total); err != nil {
		return nil, fmt.Errorf("count sessions: %w", err)
	}

	pageSQL, pageArgs := qb.BuildPage(page.Page, page.PageSize)
	items, err := repository.QueryMany(ctx, r.db, pageSQL, pageArgs, scanSession)
	if err != nil {
		return nil, fmt.Errorf("query sessions: %w", err)
	}

	result := pagination.NewPageResult(items, total, page.Page, page.PageSize)
	return &result, nil
}

func (r *repo) Find(ctx context.Context, id uuid.UUID) (*Session, error) {
	q, args := query.NewBuilder(projection).BuildSingle("ID", id)

	s, err := repository.QueryOne(ctx, r.db, q, args, scanSession)
	if err != nil {
		return nil, repository.MapError(err, ErrNotFound, ErrDuplicate)
	}
	return &s, nil
}

// Run registers a new session, drives the pipeline graph to its terminal
// node, and persists the outcome. The graph is executed synchronously
// within the caller's request; stage failures are recorded on the session
// rather than returned as errors.
func (r *repo) Run(ctx context.Context, cmd RunCommand) (*Session, error) {
	id := uuid.New()

	collection := cmd.Collection
	if collection == "" {
		collection = retrieval.DefaultCollection
	}

	insertQ := `
		INSERT INTO sessions(id, document_id, collection, request, question, user_criteria, status)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING ` + returning

	insertArgs := []any{
		id,
		cmd.DocumentID,
		collection,
		cmd.Request,
		cmd.Question,
		cmd.UserCriteria,
		string(pipeline.StatusPending),
	}

	if _, err := repository.WithTx(ctx, r.db, func(tx *sql.Tx) (Session, error) {
		return repository.QueryOne(ctx, tx, insertQ, insertArgs, scanSession)
	}); err != nil {
		return nil, repository.MapError(err, ErrNotFound, ErrDuplicate)
	}

	state := pipeline.NewState(id)
	if cmd.DocumentID != nil {
		state.DocumentID = *cmd.DocumentID
	}
	state.Collection = collection
	state.Request = cmd.Request
	state.Question = cmd.Question
	state.Override = cmd.Override
	state.UserCriteria = cmd.UserCriteria
	state.Filename = cmd.Filename

	final, err := pipeline.Execute(ctx, r.rt, state)
	if err != nil {
		// Build faults, step limit, and node panics surface here; stage
		// failures are already recorded on the state.
		r.logger.ErrorContext(ctx, "pipeline execution aborted",
			"session", id,
			"error", err,
		)

		final = state
		final.Status = pipeline.StatusFailed
		if final.ErrorMessage == "" {
			final.ErrorMessage = err.Error()
		}
	}

	s, err := r.persistOutcome(ctx, id, final)
	if err != nil {
		return nil, err
	}

	r.logger.Info("session run complete",
		"id", s.ID,
		"status", s.Status,
		"confidence", s.Confidence,
		"qa_retries", s.QARetries,
		"tool_rounds", s.ToolRounds,
		"publish_status", s.PublishStatus,
	)
	return s, nil
}

func (r *repo) Delete(ctx context.Context, id uuid.UUID) error {
	_, err := repository.WithTx(ctx, r.db, func(tx *sql.Tx) (struct{}, error) {
		if err := repository.ExecExpectOne(
			ctx, tx,
			"DELETE FROM sessions WHERE id = $1",
			id,
		); err != nil {
			return struct{}{}, err
		}
		return struct{}{}, nil
	})

	if err != nil {
		return repository.MapError(err, ErrNotFound, ErrDuplicate)
	}

	r.logger.Info("session deleted", "id", id)
	return nil
}

func (r *repo) persistOutcome(ctx context.Context, id uuid.UUID, final *pipeline.State) (*Session, error) {
	steps := final.Steps
	if steps == nil {
		steps = []string{}
	}

	stepsJSON, err := json.Marshal(steps)
	if err != nil {
		return nil, fmt.Errorf("marshal steps: %w", err)
	}

	updateQ := `
		UPDATE sessions
		SET status = $1, summary = $2, answer = $3, confidence = $4,
			qa_retries = $5, tool_rounds = $6, draft_file = $7,
			publish_status = $8, error_message = $9, steps = $10,
			payload = $11, completed_at = NOW()
		WHERE id = $12
		RETURNING ` + returning

	updateArgs := []any{
		string(final.Status),
		final.Summary,
		final.Answer,
		final.Confidence,
		final.QARetries,
		final.ToolRounds,
		final.DraftFile,
		string(final.PublishStatus),
		final.ErrorMessage,
		stepsJSON,
		final.Payload,
		id,
	}

	s, err := repository.WithTx(ctx, r.db, func(tx *sql.Tx) (Session, error) {
		return repository.QueryOne(ctx, tx, updateQ, updateArgs, scanSession)
	})

	if err != nil {
		return nil, repository.MapError(err, ErrNotFound, ErrDuplicate)
	}

	return &s, nil
}
