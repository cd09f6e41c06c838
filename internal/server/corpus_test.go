package server

import (
	"encoding/json"
	"io"
	"log"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/labstack/echo/v4"

	"github.com/counterpointai/counterpoint/internal/corpus"
)

func newCorpusHandler(t *testing.T) *CorpusHandler {
	t.Helper()
	idx, err := corpus.NewIndex(t.TempDir(), 400, 40)
	if err != nil {
		t.Fatalf("NewIndex: %v", err)
	}
	return &CorpusHandler{Index: idx, Logger: log.New(io.Discard, "", 0)}
}

func TestAddDocumentHandler(t *testing.T) {
	e := echo.New()
	h := newCorpusHandler(t)

	req := httptest.NewRequest(http.MethodPost, "/api/corpus/documents", strings.NewReader(`{"text":"Nuclear fission releases energy."}`))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()
	if err := h.addDocument(e.NewContext(req, rec)); err != nil {
		t.Fatalf("addDocument: %v", err)
	}
	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", rec.Code, rec.Body.String())
	}
	var resp map[string]string
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if !strings.HasPrefix(resp["filename"], "doc-") || !strings.HasSuffix(resp["filename"], ".txt") {
		t.Fatalf("unexpected filename: %q", resp["filename"])
	}
	if h.Index.Size() == 0 {
		t.Fatal("expected document to be indexed immediately")
	}
}

func TestAddDocumentHandlerRejectsEmpty(t *testing.T) {
	e := echo.New()
	h := newCorpusHandler(t)

	req := httptest.NewRequest(http.MethodPost, "/api/corpus/documents", strings.NewReader(`{"text":"   "}`))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()
	err := h.addDocument(e.NewContext(req, rec))
	he, ok := err.(*echo.HTTPError)
	if !ok || he.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %v", err)
	}
}

func TestRefreshHandlerReportsChunkCount(t *testing.T) {
	e := echo.New()
	h := newCorpusHandler(t)

	req := httptest.NewRequest(http.MethodPost, "/api/corpus/documents", strings.NewReader(`{"text":"Solar panels convert sunlight."}`))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()
	if err := h.addDocument(e.NewContext(req, rec)); err != nil {
		t.Fatalf("addDocument: %v", err)
	}

	req = httptest.NewRequest(http.MethodPost, "/api/corpus/refresh", nil)
	rec = httptest.NewRecorder()
	if err := h.refresh(e.NewContext(req, rec)); err != nil {
		t.Fatalf("refresh: %v", err)
	}
	var resp map[string]int
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if resp["chunks"] != 1 {
		t.Fatalf("expected 1 chunk, got %d", resp["chunks"])
	}
}

func TestClearHandler(t *testing.T) {
	e := echo.New()
	h := newCorpusHandler(t)

	req := httptest.NewRequest(http.MethodPost, "/api/corpus/documents", strings.NewReader(`{"text":"Wind turbines."}`))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()
	if err := h.addDocument(e.NewContext(req, rec)); err != nil {
		t.Fatalf("addDocument: %v", err)
	}

	req = httptest.NewRequest(http.MethodDelete, "/api/corpus", nil)
	rec = httptest.NewRecorder()
	if err := h.clear(e.NewContext(req, rec)); err != nil {
		t.Fatalf("clear: %v", err)
	}
	if rec.Code != http.StatusNoContent {
		t.Fatalf("expected 204, got %d", rec.Code)
	}
	if h.Index.Size() != 0 {
		t.Fatalf("expected empty index, got %d chunks", h.Index.Size())
	}
}
