package geonetwork

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/terralab/georag/internal/domain/record"
)

func hit(uuid, title, abstract string, tags ...string) map[string]any {
	src := map[string]any{
		"uuid":                   uuid,
		"resourceTitleObject":    map[string]any{"default": title},
		"resourceAbstractObject": map[string]any{"default": abstract},
	}
	if len(tags) > 0 {
		var tagObjs []any
		for _, tag := range tags {
			tagObjs = append(tagObjs, map[string]any{"default": tag})
		}
		src["tag"] = tagObjs
	}
	return map[string]any{"_source": src}
}

func searchHandler(t *testing.T, pages map[int][]map[string]any, total int) http.HandlerFunc {
	t.Helper()
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			t.Errorf("unexpected method %s", r.Method)
		}
		var req struct {
			From int `json:"from"`
			Size int `json:"size"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Fatalf("decode request: %v", err)
		}

		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]any{
			"hits": map[string]any{
				"total": map[string]any{"value": total},
				"hits":  pages[req.From],
			},
		})
	}
}

func newTestClient(url string, batch int) *Client {
	return New(Config{
		BaseURL:        url,
		SearchEndpoint: "/srv/api/search/records/_search",
		BatchSize:      batch,
		RequestsPerSec: 1000, // no pacing in tests
		UserAgent:      "georag-test",
		Timeout:        5 * time.Second,
	})
}

func TestFetch_ParsesRecords(t *testing.T) {
	pages := map[int][]map[string]any{
		0: {
			hit("uuid-1", "Baltic bathymetry", "Depth soundings.", "bathymetry", "baltic"),
			hit("uuid-2", "Coastal erosion", "Shoreline change."),
		},
	}
	server := httptest.NewServer(searchHandler(t, pages, 2))
	defer server.Close()

	page, err := newTestClient(server.URL, 50).Fetch(context.Background(), 0)
	if err != nil {
		t.Fatalf("Fetch failed: %v", err)
	}
	if page.Total != 2 {
		t.Errorf("Total = %d, expected 2", page.Total)
	}
	if len(page.Records) != 2 {
		t.Fatalf("expected 2 records, got %d", len(page.Records))
	}

	rec := page.Records[0]
	if rec.ID() != "uuid-1" || rec.Title() != "Baltic bathymetry" {
		t.Errorf("unexpected record: %s / %s", rec.ID(), rec.Title())
	}
	if len(rec.Keywords()) != 2 || rec.Keywords()[0] != "bathymetry" {
		t.Errorf("unexpected keywords: %v", rec.Keywords())
	}
}

func TestFetch_SkipsHitsWithoutContentOrID(t *testing.T) {
	pages := map[int][]map[string]any{
		0: {
			hit("", "No id", "abstract"),
			hit("uuid-1", "", ""),
			hit("uuid-2", "Valid", "abstract"),
		},
	}
	server := httptest.NewServer(searchHandler(t, pages, 3))
	defer server.Close()

	page, err := newTestClient(server.URL, 50).Fetch(context.Background(), 0)
	if err != nil {
		t.Fatalf("Fetch failed: %v", err)
	}
	if len(page.Records) != 1 || page.Records[0].ID() != "uuid-2" {
		t.Errorf("expected only uuid-2, got %v", page.Records)
	}
	if page.Skipped != 2 {
		t.Errorf("Skipped = %d, expected 2", page.Skipped)
	}
}

func TestFetch_LegacyTotalShape(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]any{
			"hits": map[string]any{
				"total": 7, // pre-ES7 plain number
				"hits":  []any{hit("uuid-1", "Title", "Abstract")},
			},
		})
	}))
	defer server.Close()

	page, err := newTestClient(server.URL, 50).Fetch(context.Background(), 0)
	if err != nil {
		t.Fatalf("Fetch failed: %v", err)
	}
	if page.Total != 7 {
		t.Errorf("Total = %d, expected 7", page.Total)
	}
}

func TestFetch_HTTPError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer server.Close()

	if _, err := newTestClient(server.URL, 50).Fetch(context.Background(), 0); err == nil {
		t.Fatal("expected error for 502 response")
	}
}

func TestCrawl_PagesThroughCatalog(t *testing.T) {
	pages := map[int][]map[string]any{
		0: {hit("uuid-1", "One", "a"), hit("uuid-2", "Two", "b")},
		2: {hit("uuid-3", "Three", "c")},
	}
	server := httptest.NewServer(searchHandler(t, pages, 3))
	defer server.Close()

	var seen []string
	n, err := newTestClient(server.URL, 2).Crawl(context.Background(),
		func(_ context.Context, rec record.Record) error {
			seen = append(seen, rec.ID())
			return nil
		})
	if err != nil {
		t.Fatalf("Crawl failed: %v", err)
	}
	if n != 3 {
		t.Errorf("processed = %d, expected 3", n)
	}
	want := []string{"uuid-1", "uuid-2", "uuid-3"}
	for i, id := range want {
		if seen[i] != id {
			t.Errorf("seen[%d] = %s, expected %s", i, seen[i], id)
		}
	}
}

func TestCrawl_CallbackErrorAborts(t *testing.T) {
	pages := map[int][]map[string]any{
		0: {hit("uuid-1", "One", "a"), hit("uuid-2", "Two", "b")},
	}
	server := httptest.NewServer(searchHandler(t, pages, 2))
	defer server.Close()

	n, err := newTestClient(server.URL, 2).Crawl(context.Background(),
		func(_ context.Context, rec record.Record) error {
			if rec.ID() == "uuid-2" {
				return context.Canceled
			}
			return nil
		})
	if err == nil {
		t.Fatal("expected error from callback")
	}
	if n != 1 {
		t.Errorf("processed = %d, expected 1 before abort", n)
	}
}

func TestExtractString_DottedPath(t *testing.T) {
	src := map[string]any{
		"resourceTitleObject": map[string]any{"default": "  Title  "},
	}
	if got := extractString(src, "resourceTitleObject.default"); got != "Title" {
		t.Errorf("got %q", got)
	}
	if got := extractString(src, "missing.path"); got != "" {
		t.Errorf("expected empty for missing path, got %q", got)
	}
}
