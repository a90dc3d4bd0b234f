package documents_test

import (
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"testing"

	"github.com/JaimeStill/adjuster/internal/documents"
	"github.com/JaimeStill/adjuster/pkg/query"
)

func ptr[T any](v T) *T { return &v }

func TestMapHTTPStatus(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want int
	}{
		{"not found", documents.ErrNotFound, http.StatusNotFound},
		{"duplicate", documents.ErrDuplicate, http.StatusConflict},
		{"file too large", documents.ErrFileTooLarge, http.StatusRequestEntityTooLarge},
		{"invalid file", documents.ErrInvalidFile, http.StatusBadRequest},
		{"unsupported type", documents.ErrUnsupportedType, http.StatusBadRequest},
		{"unknown error", errors.New("something else"), http.StatusInternalServerError},
		{"wrapped not found", fmt.Errorf("find failed: %w", documents.ErrNotFound), http.StatusNotFound},
		{"wrapped unsupported type", fmt.Errorf("%w: image/png", documents.ErrUnsupportedType), http.StatusBadRequest},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := documents.MapHTTPStatus(tt.err)
			if got != tt.want {
				t.Errorf("MapHTTPStatus(%v) = %d, want %d", tt.err, got, tt.want)
			}
		})
	}
}

func TestFiltersFromQuery(t *testing.T) {
	t.Run("all params present", func(t *testing.T) {
		values := url.Values{
			"status":       {"indexed"},
			"filename":     {"claim"},
			"content_type": {"application/pdf"},
			"storage_key":  {"documents/abc"},
		}

		f := documents.FiltersFromQuery(values)

		if f.Status == nil || *f.Status != "indexed" {
			t.Errorf("Status = %v, want indexed", f.Status)
		}
		if f.Filename == nil || *f.Filename != "claim" {
			t.Errorf("Filename = %v, want claim", f.Filename)
		}
		if f.ContentType == nil || *f.ContentType != "application/pdf" {
			t.Errorf("ContentType = %v, want application/pdf", f.ContentType)
		}
		if f.StorageKey == nil || *f.StorageKey != "documents/abc" {
			t.Errorf("StorageKey = %v, want documents/abc", f.StorageKey)
		}
	})

	t.Run("empty params yield nil fields", func(t *testing.T) {
		f := documents.FiltersFromQuery(url.Values{})

		if f.Status != nil {
			t.Errorf("Status = %v, want nil", f.Status)
		}
		if f.Filename != nil {
			t.Errorf("Filename = %v, want nil", f.Filename)
		}
		if f.ContentType != nil {
			t.Errorf("ContentType = %v, want nil", f.ContentType)
		}
		if f.StorageKey != nil {
			t.Errorf("StorageKey = %v, want nil", f.StorageKey)
		}
	})

	t.Run("partial params", func(t *testing.T) {
		values := url.Values{
			"status":   {"uploaded"},
			"filename": {"witness"},
		}

		f := documents.FiltersFromQuery(values)

		if f.Status == nil || *f.Status != "uploaded" {
			t.Errorf("Status = %v, want uploaded", f.Status)
		}
		if f.Filename == nil || *f.Filename != "witness" {
			t.Errorf("Filename = %v, want witness", f.Filename)
		}
		if f.ContentType != nil {
			t.Errorf("ContentType = %v, want nil", f.ContentType)
		}
	})
}

func TestFiltersApply(t *testing.T) {
	projection := query.
		NewProjectionMap("public", "documents", "d").
		Project("status", "Status").
		Project("filename", "Filename").
		Project("content_type", "ContentType").
		Project("storage_key", "StorageKey")

	t.Run("no filters produces no WHERE clause", func(t *testing.T) {
		b := query.NewBuilder(projection)
		f := documents.Filters{}
		f.Apply(b)
		sql, args := b.Build()

		wantSQL := "SELECT d.status, d.filename, d.content_type, d.storage_key FROM public.documents d"
		if sql != wantSQL {
			t.Errorf("sql = %q, want %q", sql, wantSQL)
		}
		if len(args) != 0 {
			t.Errorf("args = %v, want empty", args)
		}
	})

	t.Run("status equals filter", func(t *testing.T) {
		b := query.NewBuilder(projection)
		f := documents.Filters{Status: ptr("uploaded")}
		f.Apply(b)
		_, args := b.Build()

		if len(args) != 1 {
			t.Fatalf("args length = %d, want 1", len(args))
		}
		if v, ok := args[0].(*string); !ok || *v != "uploaded" {
			t.Errorf("args[0] = %v, want *uploaded", args[0])
		}
	})

	t.Run("filename contains filter", func(t *testing.T) {
		b := query.NewBuilder(projection)
		f := documents.Filters{Filename: ptr("claim")}
		f.Apply(b)
		_, args := b.Build()

		if len(args) != 1 || args[0] != "%claim%" {
			t.Errorf("args = %v, want [%%claim%%]", args)
		}
	})

	t.Run("storage key contains filter", func(t *testing.T) {
		b := query.NewBuilder(projection)
		f := documents.Filters{StorageKey: ptr("documents/abc")}
		f.Apply(b)
		_, args := b.Build()

		if len(args) != 1 || args[0] != "%documents/abc%" {
			t.Errorf("args = %v, want [%%documents/abc%%]", args)
		}
	})

	t.Run("multiple filters combine with AND", func(t *testing.T) {
		b := query.NewBuilder(projection)
		f := documents.Filters{
			Status:      ptr("indexed"),
			Filename:    ptr("claim"),
			ContentType: ptr("application/pdf"),
		}
		f.Apply(b)
		_, args := b.Build()

		if len(args) != 3 {
			t.Errorf("args length = %d, want 3", len(args))
		}
	})
}
