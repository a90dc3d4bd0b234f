package retrieval

import "errors"

// ErrNotFound indicates a document has no indexed chunks.
var ErrNotFound = errors.New("no indexed content for document")
