// Package drafting renders completed strategy note drafts into markdown
// documents and stores them in blob storage under the originating session.
package drafting

import (
	"context"
	"fmt"
	"log/slog"
	"path"
	"regexp"
	"strings"

	"github.com/google/uuid"

	"github.com/JaimeStill/adjuster/pkg/storage"
)

const (
	// DraftExtension is forced on every rendered note.
	DraftExtension = ".md"

	defaultSuggestion = "strategy_note" + DraftExtension
	maxFilenameLength = 250
)

// Renderer persists draft strategy notes and returns their storage keys.
type Renderer interface {
	// Render writes text as a markdown strategy note named from
	// filenameSuggestion and returns the blob key it was stored under.
	Render(ctx context.Context, sessionID uuid.UUID, text, filenameSuggestion string) (string, error)
}

type renderer struct {
	storage storage.System
	logger  *slog.Logger
}

// New creates a Renderer backed by blob storage.
func New(store storage.System, logger *slog.Logger) Renderer {
	return &renderer{
		storage: store,
		logger:  logger.With("system", "drafting"),
	}
}

func (r *renderer) Render(ctx context.Context, sessionID uuid.UUID, text, filenameSuggestion string) (string, error) {
	filename := SafeFilename(filenameSuggestion)
	key := buildDraftKey(sessionID, filename)
	note := RenderNote(text)

	if err := r.storage.Upload(ctx, key, strings.NewReader(note), "text/markdown"); err != nil {
		return "", fmt.Errorf("upload draft: %w", err)
	}

	r.logger.Info("draft strategy note stored", "session_id", sessionID, "key", key)

	return key, nil
}

// RenderNote formats draft text as a markdown document: a fixed heading
// followed by the draft's paragraphs, trimmed, with empty blocks dropped.
func RenderNote(text string) string {
	var b strings.Builder
	b.WriteString("# Claim Strategy Note\n")

	for _, paragraph := range strings.Split(text, "\n\n") {
		if trimmed := strings.TrimSpace(paragraph); trimmed != "" {
			b.WriteString("\n")
			b.WriteString(trimmed)
			b.WriteString("\n")
		}
	}

	return b.String()
}

var (
	unsafeChars  = regexp.MustCompile(`[^\w\-]+`)
	separatorRun = regexp.MustCompile(`[_\-]+`)
)

// SafeFilename derives a storage-safe markdown filename from a caller
// suggestion. Path components and unsafe characters are stripped, separator
// runs collapse to single underscores, and the extension is forced to
// DraftExtension. A suggestion that sanitizes to nothing, or to just an
// extension name, falls back to a generated name.
func SafeFilename(suggestion string) string {
	if suggestion == "" {
		suggestion = defaultSuggestion
	}

	cleaned := path.Base(strings.ReplaceAll(suggestion, "\\", "/"))
	ext := path.Ext(cleaned)
	base := strings.TrimSuffix(cleaned, ext)

	base = unsafeChars.ReplaceAllString(base, "_")
	base = separatorRun.ReplaceAllString(base, "_")
	base = strings.Trim(base, "_")

	if base == "" || strings.EqualFold(base, strings.TrimPrefix(DraftExtension, ".")) {
		base = generatedBase()
	}

	filename := base + DraftExtension

	if len(filename) > maxFilenameLength {
		base = base[:maxFilenameLength-len(DraftExtension)]
		base = strings.Trim(base, "_")
		if base == "" {
			base = generatedBase()
		}
		filename = base + DraftExtension
	}

	return filename
}

func generatedBase() string {
	return "strategy_note_" + uuid.NewString()[:8]
}

func buildDraftKey(sessionID uuid.UUID, filename string) string {
	return fmt.Sprintf("drafts/%s/%s", sessionID, filename)
}
