package api

import (
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/richmontato/eznews2/internal/config"
	"github.com/richmontato/eznews2/internal/model"
	"github.com/richmontato/eznews2/internal/pkg/summary"
)

func pointSummarizerAt(s *Server, endpoint string) {
	cfg := &config.SummaryConfig{Endpoint: endpoint, Language: "id", Timeout: 2 * time.Second}
	s.summarizer = summary.NewClient(cfg, slog.New(slog.NewTextHandler(io.Discard, nil)))
}

func TestSummarizeArticle(t *testing.T) {
	s := newTestServer(t)
	cat := createCategory(t, s, "Politik", "politik")
	article := createArticle(t, s, "Berita untuk diringkas", cat.ID, time.Now())
	user := createUser(t, s, "reader@eznews.com", model.RoleUser)

	backend := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]string{
			"who":  "Presiden Republik Indonesia.",
			"what": "Peresmian jembatan.",
		})
	}))
	defer backend.Close()
	pointSummarizerAt(s, backend.URL)

	w := doRequest(t, s, http.MethodPost, "/api/summarize", tokenFor(t, user), map[string]interface{}{
		"article_id": article.ID,
		"filters":    []string{"who", "what"},
	})
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", w.Code, w.Body.String())
	}
	body := decodeBody(t, w)
	if body["degraded"].(bool) {
		t.Fatalf("expected clean summary")
	}
	result := body["summary"].(map[string]interface{})
	if len(result) != 2 || result["who"] == "" {
		t.Fatalf("unexpected summary %v", result)
	}
}

func TestSummarizeDegradesWhenBackendDown(t *testing.T) {
	s := newTestServer(t)
	user := createUser(t, s, "reader@eznews.com", model.RoleUser)
	// endpoint 未配置，走降级路径

	w := doRequest(t, s, http.MethodPost, "/api/summarize", tokenFor(t, user), map[string]interface{}{
		"content": "Teks bebas yang ingin diringkas oleh pembaca.",
	})
	if w.Code != http.StatusOK {
		t.Fatalf("degradation must not fail the request, got %d: %s", w.Code, w.Body.String())
	}
	body := decodeBody(t, w)
	if !body["degraded"].(bool) {
		t.Fatalf("expected degraded flag")
	}
	result := body["summary"].(map[string]interface{})
	if len(result) != len(summary.Facets) {
		t.Fatalf("expected all six facets by default, got %v", result)
	}
	for facet, value := range result {
		if value != summary.Placeholder {
			t.Fatalf("facet %s must carry the placeholder, got %v", facet, value)
		}
	}
}

func TestSummarizeValidation(t *testing.T) {
	s := newTestServer(t)
	user := createUser(t, s, "reader@eznews.com", model.RoleUser)
	token := tokenFor(t, user)

	w := doRequest(t, s, http.MethodPost, "/api/summarize", token, map[string]interface{}{})
	if w.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 without input, got %d", w.Code)
	}

	w = doRequest(t, s, http.MethodPost, "/api/summarize", token, map[string]interface{}{
		"content": "Teks bebas.",
		"filters": []string{"siapa"},
	})
	if w.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for unknown filter, got %d", w.Code)
	}

	w = doRequest(t, s, http.MethodPost, "/api/summarize", token, map[string]interface{}{
		"content": "Teks bebas.",
		"length":  "raksasa",
	})
	if w.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for unknown length, got %d", w.Code)
	}

	w = doRequest(t, s, http.MethodPost, "/api/summarize", token, map[string]interface{}{
		"article_id": 9999,
	})
	if w.Code != http.StatusNotFound {
		t.Fatalf("expected 404 for unknown article, got %d", w.Code)
	}

	w = doRequest(t, s, http.MethodPost, "/api/summarize", "", map[string]interface{}{
		"content": "Teks bebas.",
	})
	if w.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 without token, got %d", w.Code)
	}
}
