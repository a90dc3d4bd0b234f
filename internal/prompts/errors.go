package prompts

import (
	"errors"
	"net/http"
)

// Domain errors for prompt operations.
var (
	ErrNotFound     = errors.New("prompt not found")
	ErrDuplicate    = errors.New("prompt name already exists")
	ErrInvalidStage = errors.New("stage must be summarize, qa, or draft")
	ErrActiveLocked = errors.New("prompt is active; deactivate it before deleting")
)

// MapHTTPStatus maps prompt domain errors to appropriate HTTP status codes.
func MapHTTPStatus(err error) int {
	switch {
	case errors.Is(err, ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, ErrDuplicate), errors.Is(err, ErrActiveLocked):
		return http.StatusConflict
	case errors.Is(err, ErrInvalidStage):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}
