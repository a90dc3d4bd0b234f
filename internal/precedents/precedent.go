// Package precedents implements the past-claim reference library: settled
// claims stored with an embedding of their summary, searchable by semantic
// similarity so adjusters can pull comparable outcomes while negotiating.
package precedents

import (
	"time"

	"github.com/google/uuid"
)

// DefaultMatches bounds similarity search results when no limit is given.
const DefaultMatches = 5

// Precedent represents a settled claim record. The summary's embedding is
// stored alongside but never serialized.
type Precedent struct {
	ID        uuid.UUID `json:"id"`
	ClaimID   string    `json:"claim_id"`
	Summary   string    `json:"summary"`
	Outcome   string    `json:"outcome"`
	Keywords  []string  `json:"keywords"`
	CreatedAt time.Time `json:"created_at"`
}

// CreateCommand carries the data needed to register a precedent. The summary
// is embedded at creation time.
type CreateCommand struct {
	ClaimID  string   `json:"claim_id"`
	Summary  string   `json:"summary"`
	Outcome  string   `json:"outcome"`
	Keywords []string `json:"keywords"`
}

// MatchCommand carries a similarity search. TopK defaults to DefaultMatches.
type MatchCommand struct {
	Query string `json:"query"`
	TopK  int    `json:"top_k"`
}

// Match pairs a precedent with its similarity score against the query,
// where 1 is an exact semantic match.
type Match struct {
	Precedent
	Score float64 `json:"score"`
}
