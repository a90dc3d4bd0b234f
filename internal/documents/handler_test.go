package documents_test

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/textproto"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/JaimeStill/adjuster/internal/documents"
	"github.com/JaimeStill/adjuster/pkg/pagination"
)

type mockSystem struct {
	listFn        func(ctx context.Context, page pagination.PageRequest, filters documents.Filters) (*pagination.PageResult[documents.Document], error)
	findFn        func(ctx context.Context, id uuid.UUID) (*documents.Document, error)
	createFn      func(ctx context.Context, cmd documents.CreateCommand) (*documents.Document, error)
	createBatchFn func(ctx context.Context, cmds []documents.CreateCommand) []documents.BatchResult
	downloadFn    func(ctx context.Context, id uuid.UUID) (io.ReadCloser, *documents.Document, error)
	deleteFn      func(ctx context.Context, id uuid.UUID) error
}

func (m *mockSystem) Handler(maxUploadSize int64) *documents.Handler {
	return documents.NewHandler(
		m,
		slog.New(slog.NewTextHandler(io.Discard, nil)),
		pagination.Config{DefaultPageSize: 20, MaxPageSize: 100},
		maxUploadSize,
	)
}

func (m *mockSystem) List(ctx context.Context, page pagination.PageRequest, filters documents.Filters) (*pagination.PageResult[documents.Document], error) {
	return m.listFn(ctx, page, filters)
}

func (m *mockSystem) Find(ctx context.Context, id uuid.UUID) (*documents.Document, error) {
	return m.findFn(ctx, id)
}

func (m *mockSystem) Create(ctx context.Context, cmd documents.CreateCommand) (*documents.Document, error) {
	return m.createFn(ctx, cmd)
}

func (m *mockSystem) CreateBatch(ctx context.Context, cmds []documents.CreateCommand) []documents.BatchResult {
	return m.createBatchFn(ctx, cmds)
}

func (m *mockSystem) Download(ctx context.Context, id uuid.UUID) (io.ReadCloser, *documents.Document, error) {
	return m.downloadFn(ctx, id)
}

func (m *mockSystem) Delete(ctx context.Context, id uuid.UUID) error {
	return m.deleteFn(ctx, id)
}

func setupMux(sys *mockSystem) *http.ServeMux {
	mux := http.NewServeMux()
	group := sys.Handler(50 * 1024 * 1024).Routes()
	for _, route := range group.Routes {
		mux.HandleFunc(route.Method+" "+group.Prefix+route.Pattern, route.Handler)
	}
	return mux
}

func sampleDoc() documents.Document {
	return documents.Document{
		ID:          uuid.MustParse("550e8400-e29b-41d4-a716-446655440000"),
		Filename:    "claim_scan.pdf",
		ContentType: "application/pdf",
		SizeBytes:   1024,
		PageCount:   ptr(5),
		StorageKey:  "documents/550e8400-e29b-41d4-a716-446655440000/claim_scan.pdf",
		Status:      documents.StatusUploaded,
		UploadedAt:  time.Date(2026, 1, 15, 10, 0, 0, 0, time.UTC),
		UpdatedAt:   time.Date(2026, 1, 15, 10, 0, 0, 0, time.UTC),
	}
}

// pdfBytes carries the magic prefix http.DetectContentType sniffs as
// application/pdf, so parts created without an explicit Content-Type
// still pass validation.
var pdfBytes = []byte("%PDF-1.7 fake body for tests")

func addFormFile(t *testing.T, w *multipart.Writer, field, filename, contentType string, data []byte) {
	t.Helper()

	h := make(textproto.MIMEHeader)
	h.Set("Content-Disposition", `form-data; name="`+field+`"; filename="`+filename+`"`)
	h.Set("Content-Type", contentType)

	part, err := w.CreatePart(h)
	if err != nil {
		t.Fatalf("CreatePart() error = %v", err)
	}
	if _, err := part.Write(data); err != nil {
		t.Fatalf("part.Write() error = %v", err)
	}
}

func TestDocumentList(t *testing.T) {
	t.Run("returns paginated documents", func(t *testing.T) {
		var gotPage pagination.PageRequest
		sys := &mockSystem{
			listFn: func(_ context.Context, page pagination.PageRequest, _ documents.Filters) (*pagination.PageResult[documents.Document], error) {
				gotPage = page
				result := pagination.NewPageResult([]documents.Document{sampleDoc()}, 1, page.Page, page.PageSize)
				return &result, nil
			},
		}
		mux := setupMux(sys)

		rec := httptest.NewRecorder()
		mux.ServeHTTP(rec, httptest.NewRequest("GET", "/documents?page=2&page_size=10", nil))

		if rec.Code != http.StatusOK {
			t.Fatalf("status = %d, want %d", rec.Code, http.StatusOK)
		}
		if gotPage.Page != 2 || gotPage.PageSize != 10 {
			t.Errorf("page request = %+v, want page 2 size 10", gotPage)
		}

		var result pagination.PageResult[documents.Document]
		if err := json.NewDecoder(rec.Body).Decode(&result); err != nil {
			t.Fatalf("decode response: %v", err)
		}
		if result.Total != 1 || len(result.Data) != 1 {
			t.Errorf("result = %+v, want 1 document", result)
		}
		if result.Data[0].Filename != "claim_scan.pdf" {
			t.Errorf("filename = %q, want claim_scan.pdf", result.Data[0].Filename)
		}
	})

	t.Run("forwards query filters", func(t *testing.T) {
		var gotFilters documents.Filters
		sys := &mockSystem{
			listFn: func(_ context.Context, page pagination.PageRequest, filters documents.Filters) (*pagination.PageResult[documents.Document], error) {
				gotFilters = filters
				result := pagination.NewPageResult([]documents.Document{}, 0, page.Page, page.PageSize)
				return &result, nil
			},
		}
		mux := setupMux(sys)

		rec := httptest.NewRecorder()
		mux.ServeHTTP(rec, httptest.NewRequest("GET", "/documents?status=indexed&filename=claim", nil))

		if rec.Code != http.StatusOK {
			t.Fatalf("status = %d, want %d", rec.Code, http.StatusOK)
		}
		if gotFilters.Status == nil || *gotFilters.Status != "indexed" {
			t.Errorf("status filter = %v, want indexed", gotFilters.Status)
		}
		if gotFilters.Filename == nil || *gotFilters.Filename != "claim" {
			t.Errorf("filename filter = %v, want claim", gotFilters.Filename)
		}
	})
}

func TestDocumentFind(t *testing.T) {
	t.Run("returns document", func(t *testing.T) {
		doc := sampleDoc()
		sys := &mockSystem{
			findFn: func(_ context.Context, id uuid.UUID) (*documents.Document, error) {
				if id != doc.ID {
					t.Errorf("id = %s, want %s", id, doc.ID)
				}
				return &doc, nil
			},
		}
		mux := setupMux(sys)

		rec := httptest.NewRecorder()
		mux.ServeHTTP(rec, httptest.NewRequest("GET", "/documents/"+doc.ID.String(), nil))

		if rec.Code != http.StatusOK {
			t.Fatalf("status = %d, want %d", rec.Code, http.StatusOK)
		}

		var got documents.Document
		if err := json.NewDecoder(rec.Body).Decode(&got); err != nil {
			t.Fatalf("decode response: %v", err)
		}
		if got.ID != doc.ID || got.Status != documents.StatusUploaded {
			t.Errorf("document = %+v, want %+v", got, doc)
		}
	})

	t.Run("rejects malformed id", func(t *testing.T) {
		mux := setupMux(&mockSystem{})

		rec := httptest.NewRecorder()
		mux.ServeHTTP(rec, httptest.NewRequest("GET", "/documents/not-a-uuid", nil))

		if rec.Code != http.StatusBadRequest {
			t.Fatalf("status = %d, want %d", rec.Code, http.StatusBadRequest)
		}
	})

	t.Run("maps not found", func(t *testing.T) {
		sys := &mockSystem{
			findFn: func(_ context.Context, _ uuid.UUID) (*documents.Document, error) {
				return nil, documents.ErrNotFound
			},
		}
		mux := setupMux(sys)

		rec := httptest.NewRecorder()
		mux.ServeHTTP(rec, httptest.NewRequest("GET", "/documents/"+uuid.NewString(), nil))

		if rec.Code != http.StatusNotFound {
			t.Fatalf("status = %d, want %d", rec.Code, http.StatusNotFound)
		}
	})
}

func TestDocumentSearch(t *testing.T) {
	t.Run("normalizes pagination from body", func(t *testing.T) {
		var gotPage pagination.PageRequest
		var gotFilters documents.Filters
		sys := &mockSystem{
			listFn: func(_ context.Context, page pagination.PageRequest, filters documents.Filters) (*pagination.PageResult[documents.Document], error) {
				gotPage = page
				gotFilters = filters
				result := pagination.NewPageResult([]documents.Document{}, 0, page.Page, page.PageSize)
				return &result, nil
			},
		}
		mux := setupMux(sys)

		body := `{"page": 0, "page_size": 500, "status": "uploaded"}`
		rec := httptest.NewRecorder()
		mux.ServeHTTP(rec, httptest.NewRequest("POST", "/documents/search", strings.NewReader(body)))

		if rec.Code != http.StatusOK {
			t.Fatalf("status = %d, want %d", rec.Code, http.StatusOK)
		}
		if gotPage.Page != 1 {
			t.Errorf("page = %d, want normalized to 1", gotPage.Page)
		}
		if gotPage.PageSize != 100 {
			t.Errorf("page size = %d, want capped at 100", gotPage.PageSize)
		}
		if gotFilters.Status == nil || *gotFilters.Status != "uploaded" {
			t.Errorf("status filter = %v, want uploaded", gotFilters.Status)
		}
	})

	t.Run("rejects malformed body", func(t *testing.T) {
		mux := setupMux(&mockSystem{})

		rec := httptest.NewRecorder()
		mux.ServeHTTP(rec, httptest.NewRequest("POST", "/documents/search", strings.NewReader("{not json")))

		if rec.Code != http.StatusBadRequest {
			t.Fatalf("status = %d, want %d", rec.Code, http.StatusBadRequest)
		}
	})
}

func TestDocumentUpload(t *testing.T) {
	t.Run("creates document from multipart form", func(t *testing.T) {
		var gotCmd documents.CreateCommand
		doc := sampleDoc()
		sys := &mockSystem{
			createFn: func(_ context.Context, cmd documents.CreateCommand) (*documents.Document, error) {
				gotCmd = cmd
				return &doc, nil
			},
		}
		mux := setupMux(sys)

		var buf bytes.Buffer
		w := multipart.NewWriter(&buf)
		addFormFile(t, w, "file", "claim_scan.pdf", "application/pdf", pdfBytes)
		if err := w.WriteField("text", "extracted claim text"); err != nil {
			t.Fatalf("WriteField() error = %v", err)
		}
		w.Close()

		req := httptest.NewRequest("POST", "/documents", &buf)
		req.Header.Set("Content-Type", w.FormDataContentType())
		rec := httptest.NewRecorder()
		mux.ServeHTTP(rec, req)

		if rec.Code != http.StatusCreated {
			t.Fatalf("status = %d, want %d: %s", rec.Code, http.StatusCreated, rec.Body.String())
		}
		if gotCmd.Filename != "claim_scan.pdf" {
			t.Errorf("filename = %q, want claim_scan.pdf", gotCmd.Filename)
		}
		if gotCmd.ContentType != "application/pdf" {
			t.Errorf("content type = %q, want application/pdf", gotCmd.ContentType)
		}
		if !bytes.Equal(gotCmd.Data, pdfBytes) {
			t.Errorf("data = %q, want original file bytes", gotCmd.Data)
		}
		if gotCmd.Text != "extracted claim text" {
			t.Errorf("text = %q, want extracted claim text", gotCmd.Text)
		}
	})

	t.Run("sniffs content type when part header is generic", func(t *testing.T) {
		var gotCmd documents.CreateCommand
		doc := sampleDoc()
		sys := &mockSystem{
			createFn: func(_ context.Context, cmd documents.CreateCommand) (*documents.Document, error) {
				gotCmd = cmd
				return &doc, nil
			},
		}
		mux := setupMux(sys)

		var buf bytes.Buffer
		w := multipart.NewWriter(&buf)
		// CreateFormFile labels the part application/octet-stream, forcing
		// the handler to sniff the payload.
		part, err := w.CreateFormFile("file", "claim_scan.pdf")
		if err != nil {
			t.Fatalf("CreateFormFile() error = %v", err)
		}
		part.Write(pdfBytes)
		w.Close()

		req := httptest.NewRequest("POST", "/documents", &buf)
		req.Header.Set("Content-Type", w.FormDataContentType())
		rec := httptest.NewRecorder()
		mux.ServeHTTP(rec, req)

		if rec.Code != http.StatusCreated {
			t.Fatalf("status = %d, want %d: %s", rec.Code, http.StatusCreated, rec.Body.String())
		}
		if gotCmd.ContentType != "application/pdf" {
			t.Errorf("content type = %q, want sniffed application/pdf", gotCmd.ContentType)
		}
	})

	t.Run("rejects missing file field", func(t *testing.T) {
		mux := setupMux(&mockSystem{})

		var buf bytes.Buffer
		w := multipart.NewWriter(&buf)
		w.WriteField("text", "no file attached")
		w.Close()

		req := httptest.NewRequest("POST", "/documents", &buf)
		req.Header.Set("Content-Type", w.FormDataContentType())
		rec := httptest.NewRecorder()
		mux.ServeHTTP(rec, req)

		if rec.Code != http.StatusBadRequest {
			t.Fatalf("status = %d, want %d", rec.Code, http.StatusBadRequest)
		}
	})

	t.Run("rejects unsupported content type", func(t *testing.T) {
		mux := setupMux(&mockSystem{})

		var buf bytes.Buffer
		w := multipart.NewWriter(&buf)
		addFormFile(t, w, "file", "notes.txt", "text/plain", []byte("plain text, not a claim scan"))
		w.Close()

		req := httptest.NewRequest("POST", "/documents", &buf)
		req.Header.Set("Content-Type", w.FormDataContentType())
		rec := httptest.NewRecorder()
		mux.ServeHTTP(rec, req)

		if rec.Code != http.StatusBadRequest {
			t.Fatalf("status = %d, want %d", rec.Code, http.StatusBadRequest)
		}

		var body map[string]string
		if err := json.NewDecoder(rec.Body).Decode(&body); err != nil {
			t.Fatalf("decode response: %v", err)
		}
		if !strings.Contains(body["error"], "unsupported content type") {
			t.Errorf("error = %q, want unsupported content type", body["error"])
		}
	})
}

func TestDocumentUploadBatch(t *testing.T) {
	t.Run("creates documents from files field", func(t *testing.T) {
		var gotCmds []documents.CreateCommand
		sys := &mockSystem{
			createBatchFn: func(_ context.Context, cmds []documents.CreateCommand) []documents.BatchResult {
				gotCmds = cmds
				results := make([]documents.BatchResult, len(cmds))
				for i, cmd := range cmds {
					doc := sampleDoc()
					doc.Filename = cmd.Filename
					results[i] = documents.BatchResult{Document: &doc, Filename: cmd.Filename}
				}
				return results
			},
		}
		mux := setupMux(sys)

		var buf bytes.Buffer
		w := multipart.NewWriter(&buf)
		addFormFile(t, w, "files", "scan_a.pdf", "application/pdf", pdfBytes)
		addFormFile(t, w, "files", "scan_b.pdf", "application/pdf", pdfBytes)
		w.Close()

		req := httptest.NewRequest("POST", "/documents/batch", &buf)
		req.Header.Set("Content-Type", w.FormDataContentType())
		rec := httptest.NewRecorder()
		mux.ServeHTTP(rec, req)

		if rec.Code != http.StatusOK {
			t.Fatalf("status = %d, want %d: %s", rec.Code, http.StatusOK, rec.Body.String())
		}
		if len(gotCmds) != 2 {
			t.Fatalf("commands = %d, want 2", len(gotCmds))
		}
		if gotCmds[0].Filename != "scan_a.pdf" || gotCmds[1].Filename != "scan_b.pdf" {
			t.Errorf("filenames = %q, %q", gotCmds[0].Filename, gotCmds[1].Filename)
		}

		var results []documents.BatchResult
		if err := json.NewDecoder(rec.Body).Decode(&results); err != nil {
			t.Fatalf("decode response: %v", err)
		}
		if len(results) != 2 {
			t.Fatalf("results = %d, want 2", len(results))
		}
		if results[0].Error != "" || results[0].Document == nil {
			t.Errorf("result[0] = %+v, want success", results[0])
		}
	})

	t.Run("rejects empty batch", func(t *testing.T) {
		mux := setupMux(&mockSystem{})

		var buf bytes.Buffer
		w := multipart.NewWriter(&buf)
		w.WriteField("text", "no files here")
		w.Close()

		req := httptest.NewRequest("POST", "/documents/batch", &buf)
		req.Header.Set("Content-Type", w.FormDataContentType())
		rec := httptest.NewRecorder()
		mux.ServeHTTP(rec, req)

		if rec.Code != http.StatusBadRequest {
			t.Fatalf("status = %d, want %d", rec.Code, http.StatusBadRequest)
		}
	})

	t.Run("rejects batch containing unsupported type", func(t *testing.T) {
		mux := setupMux(&mockSystem{})

		var buf bytes.Buffer
		w := multipart.NewWriter(&buf)
		addFormFile(t, w, "files", "scan_a.pdf", "application/pdf", pdfBytes)
		addFormFile(t, w, "files", "notes.txt", "text/plain", []byte("not allowed"))
		w.Close()

		req := httptest.NewRequest("POST", "/documents/batch", &buf)
		req.Header.Set("Content-Type", w.FormDataContentType())
		rec := httptest.NewRecorder()
		mux.ServeHTTP(rec, req)

		if rec.Code != http.StatusBadRequest {
			t.Fatalf("status = %d, want %d", rec.Code, http.StatusBadRequest)
		}
	})
}

func TestDocumentDownload(t *testing.T) {
	t.Run("streams blob with attachment headers", func(t *testing.T) {
		doc := sampleDoc()
		sys := &mockSystem{
			downloadFn: func(_ context.Context, id uuid.UUID) (io.ReadCloser, *documents.Document, error) {
				if id != doc.ID {
					t.Errorf("id = %s, want %s", id, doc.ID)
				}
				return io.NopCloser(bytes.NewReader(pdfBytes)), &doc, nil
			},
		}
		mux := setupMux(sys)

		rec := httptest.NewRecorder()
		mux.ServeHTTP(rec, httptest.NewRequest("GET", "/documents/"+doc.ID.String()+"/download", nil))

		if rec.Code != http.StatusOK {
			t.Fatalf("status = %d, want %d", rec.Code, http.StatusOK)
		}
		if got := rec.Header().Get("Content-Type"); got != "application/pdf" {
			t.Errorf("Content-Type = %q, want application/pdf", got)
		}
		if got := rec.Header().Get("Content-Disposition"); got != `attachment; filename="claim_scan.pdf"` {
			t.Errorf("Content-Disposition = %q", got)
		}
		if !bytes.Equal(rec.Body.Bytes(), pdfBytes) {
			t.Errorf("body = %q, want blob bytes", rec.Body.Bytes())
		}
	})

	t.Run("maps not found", func(t *testing.T) {
		sys := &mockSystem{
			downloadFn: func(_ context.Context, _ uuid.UUID) (io.ReadCloser, *documents.Document, error) {
				return nil, nil, documents.ErrNotFound
			},
		}
		mux := setupMux(sys)

		rec := httptest.NewRecorder()
		mux.ServeHTTP(rec, httptest.NewRequest("GET", "/documents/"+uuid.NewString()+"/download", nil))

		if rec.Code != http.StatusNotFound {
			t.Fatalf("status = %d, want %d", rec.Code, http.StatusNotFound)
		}
	})
}

func TestDocumentDelete(t *testing.T) {
	t.Run("deletes document", func(t *testing.T) {
		var gotID uuid.UUID
		sys := &mockSystem{
			deleteFn: func(_ context.Context, id uuid.UUID) error {
				gotID = id
				return nil
			},
		}
		mux := setupMux(sys)

		id := uuid.MustParse("550e8400-e29b-41d4-a716-446655440000")
		rec := httptest.NewRecorder()
		mux.ServeHTTP(rec, httptest.NewRequest("DELETE", "/documents/"+id.String(), nil))

		if rec.Code != http.StatusNoContent {
			t.Fatalf("status = %d, want %d", rec.Code, http.StatusNoContent)
		}
		if gotID != id {
			t.Errorf("id = %s, want %s", gotID, id)
		}
	})

	t.Run("rejects malformed id", func(t *testing.T) {
		mux := setupMux(&mockSystem{})

		rec := httptest.NewRecorder()
		mux.ServeHTTP(rec, httptest.NewRequest("DELETE", "/documents/nope", nil))

		if rec.Code != http.StatusBadRequest {
			t.Fatalf("status = %d, want %d", rec.Code, http.StatusBadRequest)
		}
	})

	t.Run("maps not found", func(t *testing.T) {
		sys := &mockSystem{
			deleteFn: func(_ context.Context, _ uuid.UUID) error {
				return documents.ErrNotFound
			},
		}
		mux := setupMux(sys)

		rec := httptest.NewRecorder()
		mux.ServeHTTP(rec, httptest.NewRequest("DELETE", "/documents/"+uuid.NewString(), nil))

		if rec.Code != http.StatusNotFound {
			t.Fatalf("status = %d, want %d", rec.Code, http.StatusNotFound)
		}
	})
}

func TestDocumentRoutes(t *testing.T) {
	group := (&mockSystem{}).Handler(1024).Routes()

	if group.Prefix != "/documents" {
		t.Errorf("prefix = %q, want /documents", group.Prefix)
	}

	want := []struct {
		method  string
		pattern string
	}{
		{"GET", ""},
		{"GET", "/{id}"},
		{"GET", "/{id}/download"},
		{"POST", ""},
		{"POST", "/batch"},
		{"POST", "/search"},
		{"DELETE", "/{id}"},
	}

	if len(group.Routes) != len(want) {
		t.Fatalf("routes = %d, want %d", len(group.Routes), len(want))
	}
	for i, w := range want {
		if group.Routes[i].Method != w.method || group.Routes[i].Pattern != w.pattern {
			t.Errorf("route[%d] = %s %q, want %s %q",
				i, group.Routes[i].Method, group.Routes[i].Pattern, w.method, w.pattern)
		}
	}
}
