package retrieval

import (
	"context"

	"github.com/google/uuid"
)

// System defines the public contract for knowledge base operations.
// Index replaces any existing chunks for the document and returns the
// number written. Content reassembles a document's indexed text and
// returns ErrNotFound when nothing is indexed. Answer runs the grounded
// question-answering flow; Skim scores one document's chunks against a
// query and returns the top matches.
type System interface {
	Index(ctx context.Context, req IndexRequest) (int, error)
	Remove(ctx context.Context, documentID uuid.UUID) error
	Content(ctx context.Context, documentID uuid.UUID) (string, error)
	Answer(ctx context.Context, question, collection string, opts ...AnswerOption) (*Answer, error)
	Skim(ctx context.Context, documentID uuid.UUID, query string, topN int) ([]SkimResult, error)
}
