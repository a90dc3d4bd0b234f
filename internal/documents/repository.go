package documents

import (
	"bytes"
	"context"
	"database/sql"
	"fmt"
	"io"
	"log/slog"
	"net/url"
	"path/filepath"
	"strings"

	"github.com/google/uuid"

	"github.com/JaimeStill/adjuster/internal/retrieval"
	"github.com/JaimeStill/adjuster/pkg/pagination"
	"github.com/JaimeStill/adjuster/pkg/query"
	"github.com/JaimeStill/adjuster/pkg/repository"
	"github.com/JaimeStill/adjuster/pkg/storage"
)

type repo struct {
	db         *sql.DB
	storage    storage.System
	retrieval  retrieval.System
	logger     *slog.Logger
	pagination pagination.Config
}

// New creates a document repository implementing the System interface.
func New(
	db *sql.DB,
	store storage.System,
	kb retrieval.System,
	logger *slog.Logger,
	pagination pagination.Config,
) System {
	return &repo{
		db:         db,
		storage:    store,
		retrieval:  kb,
		logger:     logger.With("system", "documents"),
		pagination: pagination,
	}
}

func (r *repo) Handler(maxUploadSize int64) *Handler {
	return NewHandler(r, r.logger, r.pagination, maxUploadSize)
}

func (r *repo) List(
	ctx context.Context,
	page pagination.PageRequest,
	filters Filters,
) (*pagination.PageResult[Document], error) {
	page.Normalize(r.pagination)

	qb := query.
		NewBuilder(projection, defaultSort).
		WhereSearch(page.Search, "Filename", "ContentType")

	filters.Apply(qb)

	if len(page.Sort) > 0 {
		qb.OrderByFields(page.Sort)
	}

	countSQL, countArgs := qb.BuildCount()
	var total int
	if err := r.db.QueryRowContext(ctx, countSQL, countArgs...).Scan(&total); err != nil {
		return nil, fmt.Errorf("count documents: %w", err)
	}

	pageSQL, pageArgs := qb.BuildPage(page.Page, page.PageSize)
	docs, err := repository.QueryMany(ctx, r.db, pageSQL, pageArgs, scanDocument)
	if err != nil {
		return nil, fmt.Errorf("query documents: %w", err)
	}

	result := pagination.NewPageResult(docs, total, page.Page, page.PageSize)
	return &result, nil
}

func (r *repo) Find(ctx context.Context, id uuid.UUID) (*Document, error) {
	q, args := query.NewBuilder(projection).BuildSingle("ID", id)

	d, err := repository.QueryOne(ctx, r.db, q, args, scanDocument)
	if err != nil {
		return nil, repository.MapError(err, ErrNotFound, ErrDuplicate)
	}
	return &d, nil
}

func (r *repo) Create(ctx context.Context, cmd CreateCommand) (*Document, error) {
	if len(cmd.Data) == 0 {
		return nil, ErrInvalidFile
	}

	id := uuid.New()
	key := buildStorageKey(id, sanitizeFilename(cmd.Filename))

	if err := r.storage.Upload(ctx, key, bytes.NewReader(cmd.Data), cmd.ContentType); err != nil {
		return nil, fmt.Errorf("upload document blob: %w", err)
	}

	var textKey *string
	if strings.TrimSpace(cmd.Text) != "" {
		tk := buildTextKey(id)
		if err := r.storage.Upload(ctx, tk, strings.NewReader(cmd.Text), "text/plain"); err != nil {
			r.cleanupBlobs(ctx, key, nil)
			return nil, fmt.Errorf("upload text sidecar: %w", err)
		}
		textKey = &tk
	}

	q := `
		INSERT INTO documents(id, filename, content_type, size_bytes, page_count, storage_key, text_key)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING id, filename, content_type, size_bytes, page_count, storage_key, text_key, status, uploaded_at, updated_at`

	insertArgs := []any{
		id,
		cmd.Filename,
		cmd.ContentType,
		int64(len(cmd.Data)),
		cmd.PageCount,
		key,
		textKey,
	}

	d, err := repository.WithTx(ctx, r.db, func(tx *sql.Tx) (Document, error) {
		return repository.QueryOne(ctx, tx, q, insertArgs, scanDocument)
	})

	if err != nil {
		r.cleanupBlobs(ctx, key, textKey)
		return nil, repository.MapError(err, ErrNotFound, ErrDuplicate)
	}

	if strings.TrimSpace(cmd.Text) != "" {
		if err := r.indexDocument(ctx, &d, cmd.Text); err != nil {
			r.logger.Warn("document indexing failed", "id", d.ID, "error", err)
		}
	}

	r.logger.Info("document created", "id", d.ID, "filename", d.Filename, "status", d.Status)
	return &d, nil
}

func (r *repo) CreateBatch(ctx context.Context, cmds []CreateCommand) []BatchResult {
	results := make([]BatchResult, len(cmds))

	for i, cmd := range cmds {
		results[i] = BatchResult{Filename: cmd.Filename}

		doc, err := r.Create(ctx, cmd)
		if err != nil {
			results[i].Error = err.Error()
			continue
		}

		results[i].Document = doc
	}

	return results
}

func (r *repo) Download(ctx context.Context, id uuid.UUID) (io.ReadCloser, *Document, error) {
	doc, err := r.Find(ctx, id)
	if err != nil {
		return nil, nil, err
	}

	result, err := r.storage.Download(ctx, doc.StorageKey)
	if err != nil {
		return nil, nil, fmt.Errorf("download document blob: %w", err)
	}

	return result.Body, doc, nil
}

func (r *repo) Delete(ctx context.Context, id uuid.UUID) error {
	doc, err := r.Find(ctx, id)
	if err != nil {
		return err
	}

	// Chunks cascade with the document row.
	_, err = repository.WithTx(ctx, r.db, func(tx *sql.Tx) (struct{}, error) {
		if err := repository.ExecExpectOne(
			ctx, tx,
			"DELETE FROM documents WHERE id = $1",
			id,
		); err != nil {
			return struct{}{}, err
		}
		return struct{}{}, nil
	})

	if err != nil {
		return repository.MapError(err, ErrNotFound, ErrDuplicate)
	}

	r.cleanupBlobs(ctx, doc.StorageKey, doc.TextKey)

	r.logger.Info("document deleted", "id", id)
	return nil
}

// indexDocument pushes extracted text into the knowledge base and marks
// the document indexed. Indexing failures leave the document uploaded.
func (r *repo) indexDocument(ctx context.Context, d *Document, text string) error {
	if _, err := r.retrieval.Index(ctx, retrieval.IndexRequest{
		DocumentID: d.ID,
		Filename:   d.Filename,
		Text:       text,
	}); err != nil {
		return err
	}

	if err := repository.ExecExpectOne(
		ctx, r.db,
		"UPDATE documents SET status = $1, updated_at = now() WHERE id = $2",
		StatusIndexed, d.ID,
	); err != nil {
		return fmt.Errorf("mark indexed: %w", err)
	}

	d.Status = StatusIndexed
	return nil
}

func (r *repo) cleanupBlobs(ctx context.Context, key string, textKey *string) {
	if err := r.storage.Delete(ctx, key); err != nil {
		r.logger.Warn("blob delete failed", "key", key, "error", err)
	}

	if textKey != nil {
		if err := r.storage.Delete(ctx, *textKey); err != nil {
			r.logger.Warn("blob delete failed", "key", *textKey, "error", err)
		}
	}
}

func buildStorageKey(id uuid.UUID, filename string) string {
	return fmt.Sprintf("documents/%s/%s", id, filename)
}

func buildTextKey(id uuid.UUID) string {
	return fmt.Sprintf("documents/%s/text", id)
}

func sanitizeFilename(name string) string {
	name = filepath.Base(name)
	if name == "." || name == "" {
		name = "document"
	}
	return url.PathEscape(name)
}
