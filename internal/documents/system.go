package documents

import (
	"context"
	"io"

	"github.com/google/uuid"

	"github.com/JaimeStill/adjuster/pkg/pagination"
)

// System defines the public contract for document domain operations.
//
// Create stores the blob and metadata row, records the PDF page count, and
// indexes extracted text into the knowledge base when a sidecar is provided.
// CreateBatch reports per-file outcomes instead of failing wholesale. Delete
// removes the blob, the indexed chunks, and the row.
type System interface {
	Handler(maxUploadSize int64) *Handler

	List(
		ctx context.Context,
		page pagination.PageRequest,
		filters Filters,
	) (*pagination.PageResult[Document], error)

	Find(ctx context.Context, id uuid.UUID) (*Document, error)
	Create(ctx context.Context, cmd CreateCommand) (*Document, error)
	CreateBatch(ctx context.Context, cmds []CreateCommand) []BatchResult
	Download(ctx context.Context, id uuid.UUID) (io.ReadCloser, *Document, error)
	Delete(ctx context.Context, id uuid.UUID) error
}
