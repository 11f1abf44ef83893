package api

import (
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/richmontato/eznews2/internal/model"
)

func TestExportTXT(t *testing.T) {
	s := newTestServer(t)
	cat := createCategory(t, s, "Politik", "politik")
	article := createArticle(t, s, "Berita untuk diunduh", cat.ID, time.Now())
	user := createUser(t, s, "reader@eznews.com", model.RoleUser)

	w := doRequest(t, s, http.MethodGet,
		fmt.Sprintf("/api/articles/%d/export?format=txt", article.ID), tokenFor(t, user), nil)
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", w.Code, w.Body.String())
	}
	if ct := w.Header().Get("Content-Type"); !strings.HasPrefix(ct, "text/plain") {
		t.Fatalf("unexpected content type %q", ct)
	}
	if cd := w.Header().Get("Content-Disposition"); !strings.Contains(cd, "Berita untuk diunduh.txt") {
		t.Fatalf("unexpected disposition %q", cd)
	}
	if !strings.Contains(w.Body.String(), "Penulis: Budi Santoso") {
		t.Fatalf("txt body missing metadata:\n%s", w.Body.String())
	}
}

func TestExportPDFWithSummary(t *testing.T) {
	s := newTestServer(t)
	cat := createCategory(t, s, "Politik", "politik")
	article := createArticle(t, s, "Berita dengan ringkasan", cat.ID, time.Now())
	user := createUser(t, s, "reader@eznews.com", model.RoleUser)

	summaryJSON := url.QueryEscape(`{"who":"Presiden.","what":"Peresmian."}`)
	path := fmt.Sprintf("/api/articles/%d/export?format=pdf&include_summary=true&summary=%s", article.ID, summaryJSON)
	w := doRequest(t, s, http.MethodGet, path, tokenFor(t, user), nil)
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", w.Code, w.Body.String())
	}
	if ct := w.Header().Get("Content-Type"); ct != "application/pdf" {
		t.Fatalf("unexpected content type %q", ct)
	}
	if !strings.HasPrefix(w.Body.String(), "%PDF") {
		t.Fatalf("expected PDF payload")
	}
}

func TestExportValidation(t *testing.T) {
	s := newTestServer(t)
	cat := createCategory(t, s, "Politik", "politik")
	article := createArticle(t, s, "Berita untuk validasi", cat.ID, time.Now())
	user := createUser(t, s, "reader@eznews.com", model.RoleUser)
	token := tokenFor(t, user)

	// 导出需要登录
	w := doRequest(t, s, http.MethodGet, fmt.Sprintf("/api/articles/%d/export", article.ID), "", nil)
	if w.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", w.Code)
	}

	w = doRequest(t, s, http.MethodGet,
		fmt.Sprintf("/api/articles/%d/export?format=docx", article.ID), token, nil)
	if w.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for unknown format, got %d", w.Code)
	}

	w = doRequest(t, s, http.MethodGet,
		fmt.Sprintf("/api/articles/%d/export?format=txt&include_summary=true&summary=not-json", article.ID), token, nil)
	if w.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for malformed summary, got %d", w.Code)
	}

	w = doRequest(t, s, http.MethodGet, "/api/articles/9999/export?format=txt", token, nil)
	if w.Code != http.StatusNotFound {
		t.Fatalf("expected 404 for missing article, got %d", w.Code)
	}
}
