// Package geonetwork crawls an upstream GeoNetwork catalog through its
// Elasticsearch-style search endpoint.
package geonetwork

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/terralab/georag/internal/domain/record"
	"github.com/terralab/georag/internal/logger"
)

// FieldMapping names the _source fields a record is built from. Paths are
// dot-separated; GeoNetwork nests localized values one level deep
// (e.g. "resourceTitleObject.default").
type FieldMapping struct {
	UUID     string `yaml:"uuid"`
	Title    string `yaml:"title"`
	Abstract string `yaml:"abstract"`
	Keywords string `yaml:"keywords"`
}

// DefaultFieldMapping matches the GeoNetwork 4.x index schema.
func DefaultFieldMapping() FieldMapping {
	return FieldMapping{
		UUID:     "uuid",
		Title:    "resourceTitleObject.default",
		Abstract: "resourceAbstractObject.default",
		Keywords: "tag.default",
	}
}

// Config holds catalog client settings.
type Config struct {
	BaseURL        string
	SearchEndpoint string
	BatchSize      int
	RequestsPerSec float64
	UserAgent      string
	Timeout        time.Duration
	Fields         FieldMapping
}

// Client pages through a catalog. Requests are rate limited so a full crawl
// does not hammer the upstream server.
type Client struct {
	httpc   *http.Client
	url     string
	batch   int
	agent   string
	fields  FieldMapping
	limiter *rate.Limiter
}

// New creates a catalog client.
func New(cfg Config) *Client {
	if cfg.BatchSize <= 0 {
		cfg.BatchSize = 50
	}
	if cfg.RequestsPerSec <= 0 {
		cfg.RequestsPerSec = 2
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 30 * time.Second
	}
	if cfg.Fields == (FieldMapping{}) {
		cfg.Fields = DefaultFieldMapping()
	}

	return &Client{
		httpc:   &http.Client{Timeout: cfg.Timeout},
		url:     strings.TrimRight(cfg.BaseURL, "/") + cfg.SearchEndpoint,
		batch:   cfg.BatchSize,
		agent:   cfg.UserAgent,
		fields:  cfg.Fields,
		limiter: rate.NewLimiter(rate.Limit(cfg.RequestsPerSec), 1),
	}
}

// Page is one batch of catalog records.
type Page struct {
	Records []record.Record
	Total   int
	// Skipped counts hits dropped for missing uuid or text content.
	Skipped int
}

// Fetch retrieves one page of records starting at offset from.
func (c *Client) Fetch(ctx context.Context, from int) (Page, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return Page{}, fmt.Errorf("rate limit wait: %w", err)
	}

	body, err := json.Marshal(map[string]any{
		"from":  from,
		"size":  c.batch,
		"query": map[string]any{"match_all": map[string]any{}},
	})
	if err != nil {
		return Page{}, fmt.Errorf("marshal query: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.url, bytes.NewReader(body))
	if err != nil {
		return Page{}, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if c.agent != "" {
		req.Header.Set("User-Agent", c.agent)
	}

	resp, err := c.httpc.Do(req)
	if err != nil {
		return Page{}, fmt.Errorf("catalog request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		io.Copy(io.Discard, resp.Body)
		return Page{}, fmt.Errorf("catalog returned %d", resp.StatusCode)
	}

	var parsed searchResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return Page{}, fmt.Errorf("decode response: %w", err)
	}

	return c.toPage(ctx, &parsed), nil
}

// Crawl pages through the whole catalog, calling fn once per record.
// An fn error aborts the crawl.
func (c *Client) Crawl(ctx context.Context, fn func(context.Context, record.Record) error) (int, error) {
	log := logger.FromContext(ctx)

	var processed int
	for from := 0; ; from += c.batch {
		page, err := c.Fetch(ctx, from)
		if err != nil {
			return processed, fmt.Errorf("fetch from=%d: %w", from, err)
		}
		if len(page.Records)+page.Skipped == 0 {
			break
		}

		for _, rec := range page.Records {
			if err := fn(ctx, rec); err != nil {
				return processed, fmt.Errorf("record %s: %w", rec.ID(), err)
			}
			processed++
		}

		log.Info("catalog batch processed",
			zap.Int("from", from),
			zap.Int("records", len(page.Records)),
			zap.Int("skipped", page.Skipped),
			zap.Int("total", page.Total))

		if from+c.batch >= page.Total {
			break
		}
	}
	return processed, nil
}

type searchResponse struct {
	Hits struct {
		Total json.RawMessage `json:"total"`
		Hits  []struct {
			Source map[string]any `json:"_source"`
		} `json:"hits"`
	} `json:"hits"`
}

func (c *Client) toPage(ctx context.Context, resp *searchResponse) Page {
	log := logger.FromContext(ctx)
	page := Page{Total: parseTotal(resp.Hits.Total)}

	for _, hit := range resp.Hits.Hits {
		uuid := extractString(hit.Source, c.fields.UUID)
		title := extractString(hit.Source, c.fields.Title)
		abstract := extractString(hit.Source, c.fields.Abstract)

		if uuid == "" || (title == "" && abstract == "") {
			page.Skipped++
			continue
		}

		rec, err := record.New(uuid, title, abstract, extractStrings(hit.Source, c.fields.Keywords), nil)
		if err != nil {
			log.Warn("catalog hit dropped", zap.String("uuid", uuid), zap.Error(err))
			page.Skipped++
			continue
		}
		page.Records = append(page.Records, rec)
	}
	return page
}

// parseTotal handles both ES7 ({"value": N}) and legacy (plain N) shapes.
func parseTotal(raw json.RawMessage) int {
	var obj struct {
		Value int `json:"value"`
	}
	if json.Unmarshal(raw, &obj) == nil && obj.Value > 0 {
		return obj.Value
	}
	var n int
	if json.Unmarshal(raw, &n) == nil {
		return n
	}
	return 0
}

// extractString walks a dot-separated path through nested objects.
func extractString(src map[string]any, path string) string {
	if path == "" {
		return ""
	}
	var cur any = src
	for _, part := range strings.Split(path, ".") {
		m, ok := cur.(map[string]any)
		if !ok {
			return ""
		}
		cur = m[part]
	}
	s, _ := cur.(string)
	return strings.TrimSpace(s)
}

// extractStrings resolves a path whose intermediate step is an array of
// objects, collecting the leaf value from each element (GeoNetwork tags).
func extractStrings(src map[string]any, path string) []string {
	if path == "" {
		return nil
	}
	parts := strings.Split(path, ".")

	var cur any = src
	for i, part := range parts {
		switch v := cur.(type) {
		case map[string]any:
			cur = v[part]
		case []any:
			leaf := strings.Join(parts[i:], ".")
			var out []string
			for _, item := range v {
				if m, ok := item.(map[string]any); ok {
					if s := extractString(m, leaf); s != "" {
						out = append(out, s)
					}
				} else if s, ok := item.(string); ok {
					out = append(out, s)
				}
			}
			return out
		default:
			return nil
		}
	}

	switch v := cur.(type) {
	case []any:
		var out []string
		for _, item := range v {
			if s, ok := item.(string); ok {
				out = append(out, s)
			}
		}
		return out
	case string:
		if v == "" {
			return nil
		}
		return []string{v}
	}
	return nil
}
