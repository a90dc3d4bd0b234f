// Package sessions implements the claim processing run registry. Each run
// creates a session row, drives the pipeline graph to completion, and
// persists the outcome: terminal status, summary, grounded answer, draft
// reference, publish result, and the audit trail.
package sessions

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// Session represents a recorded pipeline run. It mirrors the sessions table
// schema: inputs captured at submission, outcome fields written once the
// graph reaches its terminal node. Payload holds the serialized fact
// snapshot published to the broker, when the run got that far.
type Session struct {
	ID            uuid.UUID       `json:"id"`
	DocumentID    *uuid.UUID      `json:"document_id"`
	Collection    string          `json:"collection"`
	Request       string          `json:"request"`
	Question      string          `json:"question"`
	UserCriteria  string          `json:"user_criteria"`
	Status        string          `json:"status"`
	Summary       string          `json:"summary"`
	Answer        string          `json:"answer"`
	Confidence    int             `json:"confidence"`
	QARetries     int             `json:"qa_retries"`
	ToolRounds    int             `json:"tool_rounds"`
	DraftFile     string          `json:"draft_file"`
	PublishStatus string          `json:"publish_status"`
	ErrorMessage  string          `json:"error_message"`
	Steps         []string        `json:"steps"`
	Payload       json.RawMessage `json:"payload,omitempty"`
	CreatedAt     time.Time       `json:"created_at"`
	CompletedAt   *time.Time      `json:"completed_at"`
}

// RunCommand carries the inputs for a new pipeline run. DocumentID selects
// an indexed document for summarisation; Override supplies raw text in its
// place. Question drives the grounded QA stage. Filename suggests a name
// for the rendered strategy note.
type RunCommand struct {
	DocumentID   *uuid.UUID `json:"document_id,omitempty"`
	Collection   string     `json:"collection,omitempty"`
	Request      string     `json:"request,omitempty"`
	Question     string     `json:"question,omitempty"`
	Override     string     `json:"text_content_override,omitempty"`
	UserCriteria string     `json:"user_criteria,omitempty"`
	Filename     string     `json:"filename,omitempty"`
}
