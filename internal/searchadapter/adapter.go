// Package searchadapter implements the Search Adapter (spec.md §4.1): it
// invokes the upstream news search port and normalizes whatever shape it
// returns into a uniform []types.RawArticle, grounded in the HTTP-client
// and rate-limiting style of the retrieval pack's search providers
// (e.g. a SerpAPI-style provider) and the teacher's suspension-point error
// wrapping.
package searchadapter

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/sjq0098/news-mosaic-go/internal/logger"
	"github.com/sjq0098/news-mosaic-go/internal/types"
	"github.com/sjq0098/news-mosaic-go/internal/types/interfaces"
)

// Config configures the upstream news search client.
type Config struct {
	APIKey  string
	BaseURL string
	Timeout time.Duration
}

// Adapter implements interfaces.SearchPort against an upstream news search
// endpoint invoked with {engine, tbm=news, q, num, hl, gl, tbs} (spec.md §6).
type Adapter struct {
	apiKey  string
	baseURL string
	client  *http.Client
}

// New creates a Search Adapter. An empty APIKey is valid here; Search
// reports UpstreamError at call time so the caller sees the configured
// request fail rather than silently skipping ingestion (spec.md §4.1).
func New(config Config) *Adapter {
	timeout := config.Timeout
	if timeout == 0 {
		timeout = 30 * time.Second
	}
	baseURL := config.BaseURL
	if baseURL == "" {
		baseURL = "https://serpapi.com/search"
	}
	return &Adapter{
		apiKey:  config.APIKey,
		baseURL: baseURL,
		client:  &http.Client{Timeout: timeout},
	}
}

// UpstreamError wraps a failure to invoke or interpret the upstream search
// provider (spec.md §4.1, §7 ErrUpstreamUnavailable).
func UpstreamError(cause error) *types.Error {
	return types.NewError(types.ErrUpstreamUnavailable, "search_adapter", cause)
}

// Search invokes the upstream news search provider and normalizes its
// response into a uniform []types.RawArticle (spec.md §4.1).
func (a *Adapter) Search(ctx context.Context, req types.SearchRequest) ([]types.RawArticle, error) {
	if a.apiKey == "" {
		return nil, UpstreamError(fmt.Errorf("search adapter is not configured: missing API key"))
	}
	if len(req.Keywords) == 0 {
		return nil, types.NewError(types.ErrConfigMissing, "search_adapter", fmt.Errorf("empty keyword list"))
	}

	req.ClampCount()

	params := url.Values{}
	params.Set("engine", "google")
	params.Set("tbm", "news")
	params.Set("q", strings.Join(req.Keywords, " "))
	params.Set("num", strconv.Itoa(req.Count))
	params.Set("api_key", a.apiKey)
	if req.Language != "" {
		params.Set("hl", req.Language)
	}
	if req.Country != "" {
		params.Set("gl", req.Country)
	}
	params.Set("tbs", req.Window.UpstreamTBS())

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, a.baseURL+"?"+params.Encode(), nil)
	if err != nil {
		return nil, UpstreamError(err)
	}

	logger.GetLogger(ctx).Infof("searching upstream for %v (window=%s)", req.Keywords, req.Window)

	resp, err := a.client.Do(httpReq)
	if err != nil {
		return nil, UpstreamError(err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, UpstreamError(fmt.Errorf("upstream search returned status %d", resp.StatusCode))
	}

	var raw interface{}
	if err := json.NewDecoder(resp.Body).Decode(&raw); err != nil {
		// Parse failures on an otherwise-successful call are non-fatal
		// (spec.md §4.1 "returns [] on parse-failure of a non-fatal kind").
		logger.Warnf(ctx, "failed to decode upstream search response: %v", err)
		return []types.RawArticle{}, nil
	}

	return normalize(raw), nil
}

// normalize tolerates the three upstream response shapes spec.md §4.1
// documents: a line-oriented string, a list-of-maps, or a map holding a
// "news_results" list. Records lacking a title or URL are dropped.
func normalize(raw interface{}) []types.RawArticle {
	switch v := raw.(type) {
	case string:
		return normalizeLines(v)
	case []interface{}:
		return normalizeList(v)
	case map[string]interface{}:
		if results, ok := v["news_results"].([]interface{}); ok {
			return normalizeList(results)
		}
		return nil
	default:
		return nil
	}
}

// normalizeLines parses a line-oriented response: one record per line,
// fields separated by '|' in the order title|url|source|date.
func normalizeLines(text string) []types.RawArticle {
	out := make([]types.RawArticle, 0)
	for _, line := range strings.Split(text, "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		fields := strings.Split(line, "|")
		for i := range fields {
			fields[i] = strings.TrimSpace(fields[i])
		}
		record := types.RawArticle{}
		if len(fields) > 0 {
			record.Title = fields[0]
		}
		if len(fields) > 1 {
			record.URL = fields[1]
		}
		if len(fields) > 2 {
			record.Source = fields[2]
		}
		if len(fields) > 3 {
			record.Date = fields[3]
		}
		if record.Title == "" || record.URL == "" {
			continue
		}
		out = append(out, record)
	}
	return out
}

func normalizeList(items []interface{}) []types.RawArticle {
	out := make([]types.RawArticle, 0, len(items))
	for _, item := range items {
		m, ok := item.(map[string]interface{})
		if !ok {
			continue
		}
		record := types.RawArticle{
			Title:   firstString(m, "title"),
			URL:     firstString(m, "link", "url"),
			Source:  firstString(m, "source"),
			Snippet: firstString(m, "snippet", "description"),
			Date:    firstString(m, "date", "published_date"),
		}
		if record.Title == "" || record.URL == "" {
			continue
		}
		out = append(out, record)
	}
	return out
}

func firstString(m map[string]interface{}, keys ...string) string {
	for _, k := range keys {
		if v, ok := m[k]; ok {
			if s, ok := v.(string); ok && s != "" {
				return s
			}
			// A nested {"link": "..."} source shape, e.g. {"source": {"name": "..."}}.
			if nested, ok := v.(map[string]interface{}); ok {
				if name, ok := nested["name"].(string); ok {
					return name
				}
			}
		}
	}
	return ""
}

var _ interfaces.SearchPort = (*Adapter)(nil)
