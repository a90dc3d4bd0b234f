package api

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/JaimeStill/adjuster/pkg/lifecycle"
	"github.com/JaimeStill/adjuster/pkg/routes"
	"github.com/JaimeStill/adjuster/pkg/storage"
)

type stubStore struct {
	listResult  *storage.ListResult
	listErr     error
	findMeta    *storage.Metadata
	findErr     error
	download    *storage.DownloadResult
	downloadErr error

	gotPrefix string
	gotMarker string
	gotMax    int32
	gotKey    string
}

func (s *stubStore) Start(lc *lifecycle.Coordinator) error { return nil }

func (s *stubStore) Upload(ctx context.Context, key string, reader io.Reader, contentType string) error {
	return nil
}

func (s *stubStore) Download(ctx context.Context, key string) (*storage.DownloadResult, error) {
	s.gotKey = key
	return s.download, s.downloadErr
}

func (s *stubStore) List(ctx context.Context, prefix, marker string, maxResults int32) (*storage.ListResult, error) {
	s.gotPrefix = prefix
	s.gotMarker = marker
	s.gotMax = maxResults
	return s.listResult, s.listErr
}

func (s *stubStore) Find(ctx context.Context, key string) (*storage.Metadata, error) {
	s.gotKey = key
	return s.findMeta, s.findErr
}

func (s *stubStore) Delete(ctx context.Context, key string) error { return nil }

func (s *stubStore) Exists(ctx context.Context, key string) (bool, error) { return false, nil }

func storageMux(store *stubStore, maxListSize int32) *http.ServeMux {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	handler := newStorageHandler(store, logger, maxListSize)

	mux := http.NewServeMux()
	routes.Register(mux, handler.routes())
	return mux
}

func TestStorageList(t *testing.T) {
	t.Run("forwards query parameters", func(t *testing.T) {
		store := &stubStore{
			listResult: &storage.ListResult{
				Items: []storage.Metadata{
					{Key: "drafts/abc/strategy_note.md", ContentType: "text/markdown", ContentLength: 42},
				},
				NextMarker: "drafts/abc/strategy_note.md",
			},
		}
		mux := storageMux(store, 50)

		req := httptest.NewRequest(http.MethodGet, "/storage?prefix=drafts/&marker=m1&max_results=10", nil)
		rec := httptest.NewRecorder()
		mux.ServeHTTP(rec, req)

		if rec.Code != http.StatusOK {
			t.Fatalf("status: got %d, want %d", rec.Code, http.StatusOK)
		}
		if store.gotPrefix != "drafts/" {
			t.Errorf("prefix: got %q, want drafts/", store.gotPrefix)
		}
		if store.gotMarker != "m1" {
			t.Errorf("marker: got %q, want m1", store.gotMarker)
		}
		if store.gotMax != 10 {
			t.Errorf("max results: got %d, want 10", store.gotMax)
		}

		var result storage.ListResult
		if err := json.NewDecoder(rec.Body).Decode(&result); err != nil {
			t.Fatalf("decode body: %v", err)
		}
		if len(result.Items) != 1 || result.Items[0].Key != "drafts/abc/strategy_note.md" {
			t.Errorf("unexpected items: %+v", result.Items)
		}
		if result.NextMarker != "drafts/abc/strategy_note.md" {
			t.Errorf("next marker: got %q", result.NextMarker)
		}
	})

	t.Run("defaults max results", func(t *testing.T) {
		store := &stubStore{listResult: &storage.ListResult{}}
		mux := storageMux(store, 50)

		req := httptest.NewRequest(http.MethodGet, "/storage", nil)
		rec := httptest.NewRecorder()
		mux.ServeHTTP(rec, req)

		if rec.Code != http.StatusOK {
			t.Fatalf("status: got %d, want %d", rec.Code, http.StatusOK)
		}
		if store.gotMax != 50 {
			t.Errorf("max results: got %d, want 50", store.gotMax)
		}
	})

	t.Run("rejects invalid max results", func(t *testing.T) {
		store := &stubStore{listResult: &storage.ListResult{}}
		mux := storageMux(store, 50)

		for _, raw := range []string{"0", "-3", "abc"} {
			req := httptest.NewRequest(http.MethodGet, "/storage?max_results="+raw, nil)
			rec := httptest.NewRecorder()
			mux.ServeHTTP(rec, req)

			if rec.Code != http.StatusBadRequest {
				t.Errorf("max_results=%s: got %d, want %d", raw, rec.Code, http.StatusBadRequest)
			}
		}
	})
}

func TestStorageFind(t *testing.T) {
	t.Run("returns metadata", func(t *testing.T) {
		modified := time.Date(2026, 3, 14, 9, 30, 0, 0, time.UTC)
		store := &stubStore{
			findMeta: &storage.Metadata{
				Key:           "documents/xyz/claim_scan.pdf",
				ContentType:   "application/pdf",
				ContentLength: 2048,
				LastModified:  modified,
				ETag:          "0x1F",
			},
		}
		mux := storageMux(store, 50)

		req := httptest.NewRequest(http.MethodGet, "/storage/documents/xyz/claim_scan.pdf", nil)
		rec := httptest.NewRecorder()
		mux.ServeHTTP(rec, req)

		if rec.Code != http.StatusOK {
			t.Fatalf("status: got %d, want %d", rec.Code, http.StatusOK)
		}
		if store.gotKey != "documents/xyz/claim_scan.pdf" {
			t.Errorf("key: got %q", store.gotKey)
		}

		var meta storage.Metadata
		if err := json.NewDecoder(rec.Body).Decode(&meta); err != nil {
			t.Fatalf("decode body: %v", err)
		}
		if meta.ContentType != "application/pdf" || meta.ContentLength != 2048 {
			t.Errorf("unexpected metadata: %+v", meta)
		}
	})

	t.Run("missing blob returns 404", func(t *testing.T) {
		store := &stubStore{findErr: storage.ErrNotFound}
		mux := storageMux(store, 50)

		req := httptest.NewRequest(http.MethodGet, "/storage/documents/missing.pdf", nil)
		rec := httptest.NewRecorder()
		mux.ServeHTTP(rec, req)

		if rec.Code != http.StatusNotFound {
			t.Errorf("status: got %d, want %d", rec.Code, http.StatusNotFound)
		}
	})
}

func TestStorageDownload(t *testing.T) {
	t.Run("streams blob with headers", func(t *testing.T) {
		store := &stubStore{
			download: &storage.DownloadResult{
				Body:          io.NopCloser(strings.NewReader("# Strategy Note")),
				ContentType:   "text/markdown",
				ContentLength: 15,
			},
		}
		mux := storageMux(store, 50)

		req := httptest.NewRequest(http.MethodGet, "/storage/download/drafts/abc/strategy_note.md", nil)
		rec := httptest.NewRecorder()
		mux.ServeHTTP(rec, req)

		if rec.Code != http.StatusOK {
			t.Fatalf("status: got %d, want %d", rec.Code, http.StatusOK)
		}
		if got := rec.Header().Get("Content-Type"); got != "text/markdown" {
			t.Errorf("content type: got %q, want text/markdown", got)
		}
		if got := rec.Header().Get("Content-Length"); got != "15" {
			t.Errorf("content length: got %q, want 15", got)
		}
		if got := rec.Header().Get("Content-Disposition"); got != `attachment; filename="strategy_note.md"` {
			t.Errorf("content disposition: got %q", got)
		}
		if rec.Body.String() != "# Strategy Note" {
			t.Errorf("body: got %q", rec.Body.String())
		}
	})

	t.Run("missing blob returns 404", func(t *testing.T) {
		store := &stubStore{downloadErr: storage.ErrNotFound}
		mux := storageMux(store, 50)

		req := httptest.NewRequest(http.MethodGet, "/storage/download/drafts/missing.md", nil)
		rec := httptest.NewRecorder()
		mux.ServeHTTP(rec, req)

		if rec.Code != http.StatusNotFound {
			t.Errorf("status: got %d, want %d", rec.Code, http.StatusNotFound)
		}
	})
}
