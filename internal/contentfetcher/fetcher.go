// Package contentfetcher implements the Content Fetcher (spec.md §4.2):
// fetch article HTML, strip chrome, extract and bound body text. Grounded
// in the retrieval pack's goquery-based HTML cleanup (selector list,
// boilerplate removal, paragraph concatenation fallback).
package contentfetcher

import (
	"context"
	"net/http"
	"regexp"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"

	"github.com/sjq0098/news-mosaic-go/internal/logger"
	"github.com/sjq0098/news-mosaic-go/internal/types"
	"github.com/sjq0098/news-mosaic-go/internal/types/interfaces"
	"github.com/sjq0098/news-mosaic-go/internal/utils"
)

const (
	userAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 " +
		"(KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36"
	fetchTimeout = 30 * time.Second

	// structuralMatchThreshold is the minimum text length a structural
	// selector match must clear to be accepted (spec.md §4.2).
	structuralMatchThreshold = 200
	// paragraphMinLength is the per-element minimum length used by the
	// paragraph-concatenation fallback (spec.md §4.2).
	paragraphMinLength = 20
)

// structuralSelectors are tried in order; the first match whose text length
// exceeds structuralMatchThreshold wins (spec.md §4.2).
var structuralSelectors = []string{
	"article",
	"main",
	"[role=main]",
	".article-body",
	".article-content",
	".post-content",
	".post-body",
	".entry-content",
	"#content",
	".content",
}

// chromeSelectors are removed before any extraction is attempted
// (spec.md §4.2).
const chromeSelectors = "script, style, nav, header, footer, aside, " +
	".ad, .ads, .advertisement, .advert"

// blockSelectors are the paragraph/block-level elements concatenated by the
// fallback extraction path (spec.md §4.2).
const blockSelectors = "p, h1, h2, h3, h4, h5, h6, li, blockquote, pre"

var whitespaceRun = regexp.MustCompile(`\s+`)

// disallowedPunctuation strips everything except word characters,
// whitespace, and a kept set of CJK/Latin sentence punctuation
// (spec.md §4.2).
var disallowedPunctuation = regexp.MustCompile(
	"[^\\p{L}\\p{N}\\s.,!?;:'\"()\\-，。！？；：“”‘’、…《》]",
)

// Fetcher implements interfaces.ContentFetchPort (spec.md §4.2).
type Fetcher struct {
	client *http.Client
}

// New creates a Content Fetcher with a browser-like user agent and a
// 30-second timeout.
func New() *Fetcher {
	return &Fetcher{client: &http.Client{Timeout: fetchTimeout}}
}

// Fetch retrieves url and extracts bounded body text. It never returns an
// error to the caller: any failure surfaces as "" (spec.md §4.2).
func (f *Fetcher) Fetch(ctx context.Context, url string) string {
	logURL := utils.SanitizeForLog(url)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		logger.Debugf(ctx, "content fetch: bad request for %s: %v", logURL, err)
		return ""
	}
	req.Header.Set("User-Agent", userAgent)

	resp, err := f.client.Do(req)
	if err != nil {
		logger.Debugf(ctx, "content fetch: request failed for %s: %v", logURL, err)
		return ""
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		logger.Debugf(ctx, "content fetch: status %d for %s", resp.StatusCode, logURL)
		return ""
	}

	doc, err := goquery.NewDocumentFromReader(resp.Body)
	if err != nil {
		logger.Debugf(ctx, "content fetch: parse failed for %s: %v", logURL, err)
		return ""
	}

	doc.Find(chromeSelectors).Remove()

	body := extractStructural(doc)
	if body == "" {
		body = extractParagraphs(doc)
	}

	body = cleanText(body)
	body = utils.SanitizeHTML(body)
	return truncateWithEllipsis(body, types.MaxBodyLength)
}

// truncateWithEllipsis bounds text to max runes, appending an ellipsis when
// truncation occurs (spec.md §4.2).
func truncateWithEllipsis(text string, max int) string {
	r := []rune(text)
	if len(r) <= max {
		return text
	}
	return string(r[:max]) + "…"
}

func extractStructural(doc *goquery.Document) string {
	for _, selector := range structuralSelectors {
		sel := doc.Find(selector).First()
		if sel.Length() == 0 {
			continue
		}
		text := strings.TrimSpace(sel.Text())
		if len([]rune(text)) > structuralMatchThreshold {
			return text
		}
	}
	return ""
}

func extractParagraphs(doc *goquery.Document) string {
	var b strings.Builder
	doc.Find(blockSelectors).Each(func(_ int, s *goquery.Selection) {
		text := strings.TrimSpace(s.Text())
		if len([]rune(text)) > paragraphMinLength {
			b.WriteString(text)
			b.WriteString("\n\n")
		}
	})
	return strings.TrimSpace(b.String())
}

func cleanText(text string) string {
	text = disallowedPunctuation.ReplaceAllString(text, "")
	text = whitespaceRun.ReplaceAllString(text, " ")
	return strings.TrimSpace(text)
}

var _ interfaces.ContentFetchPort = (*Fetcher)(nil)
