package retrieval

import (
	"github.com/google/uuid"

	"github.com/JaimeStill/adjuster/pkg/query"
	"github.com/JaimeStill/adjuster/pkg/repository"
)

var projection = query.
	NewProjectionMap("public", "chunks", "c").
	Project("document_id", "DocumentID").
	Project("collection", "Collection").
	Project("seq", "Seq").
	Project("content", "Content").
	Join("public", "documents", "d", "LEFT JOIN", "c.document_id = d.id").
	Project("filename", "Filename")

var seqSort = query.SortField{Field: "Seq"}

type chunkRow struct {
	documentID uuid.UUID
	collection string
	seq        int
	content    string
	filename   string
	distance   float64
}

func scanChunk(s repository.Scanner) (chunkRow, error) {
	var row chunkRow
	err := s.Scan(
		&row.documentID,
		&row.collection,
		&row.seq,
		&row.content,
		&row.filename,
	)
	return row, err
}

func scanScoredChunk(s repository.Scanner) (chunkRow, error) {
	var row chunkRow
	err := s.Scan(
		&row.documentID,
		&row.collection,
		&row.seq,
		&row.content,
		&row.filename,
		&row.distance,
	)
	return row, err
}
