package precedents

import (
	"context"

	"github.com/google/uuid"

	"github.com/JaimeStill/adjuster/pkg/pagination"
)

// System defines the public contract for precedent domain operations.
type System interface {
	Handler() *Handler

	List(
		ctx context.Context,
		page pagination.PageRequest,
		filters Filters,
	) (*pagination.PageResult[Precedent], error)

	Find(ctx context.Context, id uuid.UUID) (*Precedent, error)
	Create(ctx context.Context, cmd CreateCommand) (*Precedent, error)
	Match(ctx context.Context, cmd MatchCommand) ([]Match, error)
	Delete(ctx context.Context, id uuid.UUID) error
}
