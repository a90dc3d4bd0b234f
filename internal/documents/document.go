// Package documents implements the claim document registry: metadata rows
// in PostgreSQL, file blobs in object storage, and knowledge base indexing
// of extracted text.
package documents

import (
	"time"

	"github.com/google/uuid"
)

// Document status lifecycle. Uploaded documents become indexed once their
// extracted text lands in the knowledge base.
const (
	StatusUploaded = "uploaded"
	StatusIndexed  = "indexed"
)

// Document represents a registered claim document with its metadata and
// blob storage references. TextKey points at the extracted-text sidecar
// blob when one was provided at upload.
type Document struct {
	ID          uuid.UUID `json:"id"`
	Filename    string    `json:"filename"`
	ContentType string    `json:"content_type"`
	SizeBytes   int64     `json:"size_bytes"`
	PageCount   *int      `json:"page_count"`
	StorageKey  string    `json:"storage_key"`
	TextKey     *string   `json:"text_key"`
	Status      string    `json:"status"`
	UploadedAt  time.Time `json:"uploaded_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// CreateCommand carries the data needed to upload and register a new
// document. Data holds the raw file bytes. Text is the caller-extracted
// document text; when non-empty it is stored as a sidecar blob and
// indexed into the knowledge base. PageCount is optional and may be
// extracted by the caller via pdfcpu; nil values are stored as NULL.
type CreateCommand struct {
	Data        []byte
	Filename    string
	ContentType string
	PageCount   *int
	Text        string
}

// BatchResult reports the outcome of a single file within a batch upload.
// On success, Document is populated and Error is empty.
// On failure, Error describes the problem and Document is nil.
type BatchResult struct {
	Document *Document `json:"document,omitempty"`
	Filename string    `json:"filename"`
	Error    string    `json:"error,omitempty"`
}
