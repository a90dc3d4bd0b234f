package sessions

import (
	"encoding/json"
	"fmt"
	"net/url"

	"github.com/google/uuid"

	"github.com/JaimeStill/adjuster/pkg/query"
	"github.com/JaimeStill/adjuster/pkg/repository"
)

var projection = query.
	NewProjectionMap("public", "sessions", "s").
	Project("id", "ID").
	Project("document_id", "DocumentID").
	Project("collection", "Collection").
	Project("request", "Request").
	Project("question", "Question").
	Project("user_criteria", "UserCriteria").
	Project("status", "Status").
	Project("summary", "Summary").
	Project("answer", "Answer").
	Project("confidence", "Confidence").
	Project("qa_retries", "QARetries").
	Project("tool_rounds", "ToolRounds").
	Project("draft_file", "DraftFile").
	Project("publish_status", "PublishStatus").
	Project("error_message", "ErrorMessage").
	Project("steps", "Steps").
	Project("payload", "Payload").
	Project("created_at", "CreatedAt").
	Project("completed_at", "CompletedAt")

var defaultSort = query.SortField{
	Field:      "CreatedAt",
	Descending: true,
}

// Filters contains optional filtering criteria for session queries.
// Nil fields are ignored. All fields use exact matching.
type Filters struct {
	Status        *string    `json:"status,omitempty"`
	PublishStatus *string    `json:"publish_status,omitempty"`
	DocumentID    *uuid.UUID `json:"document_id,omitempty"`
	Collection    *string    `json:"collection,omitempty"`
}

// Apply adds filter conditions to a query builder.
func (f Filters) Apply(b *query.Builder) *query.Builder {
	return b.
		WhereEquals("Status", f.Status).
		WhereEquals("PublishStatus", f.PublishStatus).
		WhereEquals("DocumentID", f.DocumentID).
		WhereEquals("Collection", f.Collection)
}

// FiltersFromQuery extracts filter values from URL query parameters.
func FiltersFromQuery(values url.Values) Filters {
	var f Filters

	if s := values.Get("status"); s != "" {
		f.Status = &s
	}

	if p := values.Get("publish_status"); p != "" {
		f.PublishStatus = &p
	}

	if d := values.Get("document_id"); d != "" {
		if id, err := uuid.Parse(d); err == nil {
			f.DocumentID = &id
		}
	}

	if c := values.Get("collection"); c != "" {
		f.Collection = &c
	}

	return f
}

func scanSession(s repository.Scanner) (Session, error) {
	var sess Session
	var stepsRaw []byte
	var payloadRaw []byte

	err := s.Scan(
		&sess.ID,
		&sess.DocumentID,
		&sess.Collection,
		&sess.Request,
		&sess.Question,
		&sess.UserCriteria,
		&sess.Status,
		&sess.Summary,
		&sess.Answer,
		&sess.Confidence,
		&sess.QARetries,
		&sess.ToolRounds,
		&sess.DraftFile,
		&sess.PublishStatus,
		&sess.ErrorMessage,
		&stepsRaw,
		&payloadRaw,
		&sess.CreatedAt,
		&sess.CompletedAt,
	)

	if err != nil {
		return sess, err
	}

	if len(stepsRaw) > 0 {
		if err := json.Unmarshal(stepsRaw, &sess.Steps); err != nil {
			return sess, fmt.Errorf("unmarshal steps: %w", err)
		}
	}

	if sess.Steps == nil {
		sess.Steps = []string{}
	}

	if len(payloadRaw) > 0 {
		sess.Payload = json.RawMessage(payloadRaw)
	}

	return sess, nil
}
