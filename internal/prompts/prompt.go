// Package prompts implements the stage prompt registry: hardcoded default
// instructions and output specifications per pipeline stage, with named
// DB-backed instruction overrides and single-active-per-stage activation.
package prompts

import (
	"time"

	"github.com/google/uuid"
)

// Prompt represents a named instruction override for a pipeline stage.
// UpdatedAt tracks every mutation, activation included, so prompt changes
// can be correlated with shifts in run quality.
type Prompt struct {
	ID           uuid.UUID `json:"id"`
	Name         string    `json:"name"`
	Stage        Stage     `json:"stage"`
	Instructions string    `json:"instructions"`
	Description  *string   `json:"description"`
	Active       bool      `json:"active"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// CreateCommand carries the data needed to create a new prompt override.
type CreateCommand struct {
	Name         string  `json:"name"`
	Stage        Stage   `json:"stage"`
	Instructions string  `json:"instructions"`
	Description  *string `json:"description"`
}

// UpdateCommand carries the data needed to update an existing prompt override.
type UpdateCommand struct {
	Name         string  `json:"name"`
	Stage        Stage   `json:"stage"`
	Instructions string  `json:"instructions"`
	Description  *string `json:"description"`
}
