package prompts

import (
	"context"

	"github.com/google/uuid"

	"github.com/JaimeStill/adjuster/pkg/pagination"
)

// Resolver is the narrow read surface pipeline stages depend on.
// Instructions resolves the active override for a stage, falling back to
// the hardcoded default; Spec always returns the hardcoded specification.
type Resolver interface {
	Instructions(ctx context.Context, stage Stage) (string, error)
	Spec(ctx context.Context, stage Stage) (string, error)
}

// System defines the public contract for prompt domain operations: the
// Resolver surface plus registry management. Activate swaps the single
// active prompt for the target's stage in one transaction. Delete returns
// ErrActiveLocked for active prompts.
type System interface {
	Resolver

	Handler() *Handler

	List(
		ctx context.Context,
		page pagination.PageRequest,
		filters Filters,
	) (*pagination.PageResult[Prompt], error)

	Find(ctx context.Context, id uuid.UUID) (*Prompt, error)
	Create(ctx context.Context, cmd CreateCommand) (*Prompt, error)
	Update(ctx context.Context, id uuid.UUID, cmd UpdateCommand) (*Prompt, error)
	Delete(ctx context.Context, id uuid.UUID) error
	Activate(ctx context.Context, id uuid.UUID) (*Prompt, error)
	Deactivate(ctx context.Context, id uuid.UUID) (*Prompt, error)
}
