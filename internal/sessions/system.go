package sessions

import (
	"context"

	"github.com/google/uuid"

	"github.com/JaimeStill/adjuster/pkg/pagination"
)

// System defines the public contract for session domain operations.
type System interface {
	Handler() *Handler

	List(
		ctx context.Context,
		page pagination.PageRequest,
		filters Filters,
	) (*pagination.PageResult[Session], error)

	Find(ctx context.Context, id uuid.UUID) (*Session, error)
	Run(ctx context.Context, cmd RunCommand) (*Session, error)
	Delete(ctx context.Context, id uuid.UUID) error
}
