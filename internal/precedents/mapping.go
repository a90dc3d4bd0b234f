package precedents

import (
	"encoding/json"
	"fmt"
	"net/url"

	"github.com/JaimeStill/adjuster/pkg/query"
	"github.com/JaimeStill/adjuster/pkg/repository"
)

var projection = query.
	NewProjectionMap("public", "precedents", "p").
	Project("id", "ID").
	Project("claim_id", "ClaimID").
	Project("summary", "Summary").
	Project("outcome", "Outcome").
	Project("keywords", "Keywords").
	Project("created_at", "CreatedAt")

var defaultSort = query.SortField{
	Field:      "CreatedAt",
	Descending: true,
}

// Filters contains optional filtering criteria for precedent queries.
// Nil fields are ignored. Outcome uses exact matching; ClaimID uses
// case-insensitive contains matching.
type Filters struct {
	Outcome *string `json:"outcome,omitempty"`
	ClaimID *string `json:"claim_id,omitempty"`
}

// Apply adds filter conditions to a query builder.
func (f Filters) Apply(b *query.Builder) *query.Builder {
	return b.
		WhereEquals("Outcome", f.Outcome).
		WhereContains("ClaimID", f.ClaimID)
}

// FiltersFromQuery extracts filter values from URL query parameters.
func FiltersFromQuery(values url.Values) Filters {
	var f Filters

	if o := values.Get("outcome"); o != "" {
		f.Outcome = &o
	}

	if c := values.Get("claim_id"); c != "" {
		f.ClaimID = &c
	}

	return f
}

func scanPrecedent(s repository.Scanner) (Precedent, error) {
	var p Precedent
	var keywordsRaw []byte

	err := s.Scan(
		&p.ID,
		&p.ClaimID,
		&p.Summary,
		&p.Outcome,
		&keywordsRaw,
		&p.CreatedAt,
	)

	if err != nil {
		return p, err
	}

	if err := decodeKeywords(keywordsRaw, &p); err != nil {
		return p, err
	}

	return p, nil
}

type matchRow struct {
	precedent Precedent
	distance  float64
}

func scanMatchRow(s repository.Scanner) (matchRow, error) {
	var row matchRow
	var keywordsRaw []byte

	err := s.Scan(
		&row.precedent.ID,
		&row.precedent.ClaimID,
		&row.precedent.Summary,
		&row.precedent.Outcome,
		&keywordsRaw,
		&row.precedent.CreatedAt,
		&row.distance,
	)

	if err != nil {
		return row, err
	}

	if err := decodeKeywords(keywordsRaw, &row.precedent); err != nil {
		return row, err
	}

	return row, nil
}

func decodeKeywords(raw []byte, p *Precedent) error {
	if len(raw) > 0 {
		if err := json.Unmarshal(raw, &p.Keywords); err != nil {
			return fmt.Errorf("unmarshal keywords: %w", err)
		}
	}

	if p.Keywords == nil {
		p.Keywords = []string{}
	}

	return nil
}
