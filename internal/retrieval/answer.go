package retrieval

import (
	"context"
	"fmt"
	"math"
	"regexp"
	"strconv"
	"strings"

	"github.com/pgvector/pgvector-go"

	"github.com/JaimeStill/adjuster/pkg/query"
	"github.com/JaimeStill/adjuster/pkg/repository"
)

// Canned answers for questions the model never sees.
const (
	emptyQuestionAnswer = "Please provide a query."
	noSourcesAnswer     = "I don't have enough specific information from your documents to answer this question confidently. Try rephrasing or asking about a topic covered in your documents."
	placeholderContent  = "Unfortunately, I couldn't find specific text passages that answer your question directly. Would you like to try rephrasing your question or exploring a different topic?"
)

const (
	answerPrompt     = "Query: %s\n\nContext:\n%s\n\n%s"
	confidencePrompt = "Rate confidence from 1-5: %s (based on context: %s). Return ONLY a number."
	revisePrompt     = "Query: %s\n\nContext:\n%s\n\nPrevious answer: %s\n\nPlease revise the previous answer using ONLY information from the context above."

	defaultDirective = "Answer the query using ONLY information from the context above. If the answer is not in the context, say 'I don't know based on the provided documents.'"
)

// DefaultConfidence is assigned when a rating cannot be parsed from
// model output.
const DefaultConfidence = 3

var confidencePattern = regexp.MustCompile(`\d+`)

// AnswerOption adjusts a single Answer call.
type AnswerOption func(*answerConfig)

type answerConfig struct {
	directive string
}

// WithDirective replaces the grounding directive appended after the
// retrieved context. Whitespace-only values keep the default.
func WithDirective(directive string) AnswerOption {
	return func(c *answerConfig) {
		if strings.TrimSpace(directive) != "" {
			c.directive = directive
		}
	}
}

func (r *repo) Answer(ctx context.Context, question, collection string, opts ...AnswerOption) (*Answer, error) {
	cfg := answerConfig{directive: defaultDirective}
	for _, opt := range opts {
		opt(&cfg)
	}

	if strings.TrimSpace(question) == "" {
		return &Answer{
			Text:       emptyQuestionAnswer,
			Sources:    []Source{},
			Confidence: DefaultConfidence,
		}, nil
	}

	if collection == "" {
		collection = DefaultCollection
	}

	vec, err := r.model.Embed(ctx, question)
	if err != nil {
		return nil, fmt.Errorf("embed question: %w", err)
	}

	q, args := query.
		NewBuilder(projection).
		WhereEquals("Collection", collection).
		BuildNearest("embedding", pgvector.NewVector(vec), r.opts.Sources)

	rows, err := repository.QueryMany(ctx, r.db, q, args, scanScoredChunk)
	if err != nil {
		return nil, fmt.Errorf("query chunks: %w", err)
	}

	if len(rows) == 0 {
		return &Answer{
			Text: noSourcesAnswer,
			Sources: []Source{{
				ChunkID:  "placeholder_chunk",
				Content:  placeholderContent,
				Filename: "placeholder_document.txt",
				Score:    0.5,
			}},
			Confidence: 2,
		}, nil
	}

	sources := make([]Source, len(rows))
	var contextBlock strings.Builder

	for i, row := range rows {
		sources[i] = Source{
			DocumentID: row.documentID,
			ChunkID:    fmt.Sprintf("chunk_%d", row.seq),
			Content:    row.content,
			Filename:   row.filename,
			Score:      math.Round(row.distance*100) / 100,
		}

		fmt.Fprintf(
			&contextBlock,
			"Source %d (Document: %s, Chunk: %s):\n%s\n\n",
			i+1, sources[i].Filename, sources[i].ChunkID, sources[i].Content,
		)
	}

	grounding := contextBlock.String()

	answer, err := r.model.Generate(ctx, fmt.Sprintf(answerPrompt, question, grounding, cfg.directive))
	if err != nil {
		return nil, fmt.Errorf("generate answer: %w", err)
	}

	confidence, err := r.scoreConfidence(ctx, answer, grounding)
	if err != nil {
		return nil, err
	}

	attempts := 0
	for confidence < r.opts.ConfidenceThreshold && attempts < r.opts.SelfHealAttempts {
		attempts++
		r.logger.Info(
			"revising low confidence answer",
			"confidence", confidence,
			"threshold", r.opts.ConfidenceThreshold,
			"attempt", attempts,
		)

		revised, err := r.model.Generate(ctx, fmt.Sprintf(revisePrompt, question, grounding, answer))
		if err != nil {
			return nil, fmt.Errorf("revise answer: %w", err)
		}
		answer = revised

		confidence, err = r.scoreConfidence(ctx, answer, grounding)
		if err != nil {
			return nil, err
		}
	}

	return &Answer{
		Text:        answer,
		Sources:     sources,
		Confidence:  confidence,
		SubAttempts: attempts,
	}, nil
}

func (r *repo) scoreConfidence(ctx context.Context, answer, grounding string) (int, error) {
	rating, err := r.model.Generate(ctx, fmt.Sprintf(confidencePrompt, answer, grounding))
	if err != nil {
		return 0, fmt.Errorf("score confidence: %w", err)
	}
	return ParseConfidence(rating), nil
}

// ParseConfidence extracts a 1-5 rating from model output. The first
// integer found is used when in range; anything else yields
// DefaultConfidence.
func ParseConfidence(s string) int {
	match := confidencePattern.FindString(s)
	if match == "" {
		return DefaultConfidence
	}

	n, err := strconv.Atoi(match)
	if err != nil || n < 1 || n > 5 {
		return DefaultConfidence
	}

	return n
}
