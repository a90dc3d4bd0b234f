// Package retrieval implements the claims knowledge base: document text
// split into overlapping chunks, embedded, and stored in pgvector for
// similarity search, grounded question answering, and document skimming.
package retrieval

import (
	"strings"

	"github.com/google/uuid"
)

// DefaultCollection groups chunks belonging to the shared claims corpus.
const DefaultCollection = "claims"

// Chunking parameters. Stride is ChunkSize - ChunkOverlap, so MergeText
// can reassemble the original text exactly from SplitText output.
const (
	ChunkSize    = 1000
	ChunkOverlap = 200
)

// Skim presentation parameters.
const (
	DefaultSkimResults = 5
	PreviewLength      = 200
)

// IndexRequest carries a document's extracted text into the knowledge base.
// An empty Collection falls back to DefaultCollection.
type IndexRequest struct {
	DocumentID uuid.UUID
	Filename   string
	Collection string
	Text       string
}

// Source is one retrieved chunk backing an answer. Score is the cosine
// distance between the chunk and the question; lower is closer.
type Source struct {
	DocumentID uuid.UUID `json:"document_id"`
	ChunkID    string    `json:"chunk_id"`
	Content    string    `json:"chunk_content"`
	Filename   string    `json:"file_name"`
	Score      float64   `json:"score"`
}

// Answer is the outcome of a grounded question-answering pass.
// SubAttempts counts revision rounds spent raising a low-confidence answer.
type Answer struct {
	Text        string   `json:"text"`
	Sources     []Source `json:"sources"`
	Confidence  int      `json:"confidence"`
	SubAttempts int      `json:"sub_attempts"`
}

// SkimResult is one scored passage from a single document. Page is the
// 1-indexed chunk sequence; Score is cosine similarity, higher is closer.
type SkimResult struct {
	Page    int     `json:"page_number"`
	Score   float64 `json:"score"`
	Preview string  `json:"preview"`
}

// SplitText splits text into ChunkSize-rune chunks overlapping by
// ChunkOverlap runes. Returns nil for empty input.
func SplitText(text string) []string {
	runes := []rune(text)
	n := len(runes)
	if n == 0 {
		return nil
	}

	stride := ChunkSize - ChunkOverlap
	chunks := make([]string, 0, n/stride+1)

	for start := 0; start < n; start += stride {
		end := min(start+ChunkSize, n)
		chunks = append(chunks, string(runes[start:end]))
		if end == n {
			break
		}
	}

	return chunks
}

// MergeText reassembles the original text from SplitText output by
// dropping each subsequent chunk's leading overlap.
func MergeText(chunks []string) string {
	if len(chunks) == 0 {
		return ""
	}

	var sb strings.Builder
	sb.WriteString(chunks[0])

	for _, chunk := range chunks[1:] {
		runes := []rune(chunk)
		if len(runes) > ChunkOverlap {
			sb.WriteString(string(runes[ChunkOverlap:]))
		}
	}

	return sb.String()
}

// Preview truncates chunk content to PreviewLength runes for skim output.
func Preview(content string) string {
	runes := []rune(content)
	if len(runes) <= PreviewLength {
		return content
	}
	return string(runes[:PreviewLength]) + "..."
}
