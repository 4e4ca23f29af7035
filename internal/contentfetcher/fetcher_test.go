package contentfetcher

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFetch_StructuralMatch(t *testing.T) {
	longText := strings.Repeat("This is a long paragraph of article text. ", 10)
	html := `<html><head><title>t</title></head><body>
		<nav>menu</nav>
		<article><p>` + longText + `</p></article>
		<footer>copyright</footer>
	</body></html>`

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(html))
	}))
	defer srv.Close()

	f := New()
	got := f.Fetch(context.Background(), srv.URL)
	assert.Contains(t, got, "long paragraph")
	assert.NotContains(t, got, "menu")
	assert.NotContains(t, got, "copyright")
}

func TestFetch_ParagraphFallback(t *testing.T) {
	html := `<html><body>
		<div class="unrecognized">
			<p>This paragraph is definitely longer than twenty characters.</p>
			<p>short</p>
		</div>
	</body></html>`

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(html))
	}))
	defer srv.Close()

	f := New()
	got := f.Fetch(context.Background(), srv.URL)
	assert.Contains(t, got, "definitely longer")
	assert.NotContains(t, got, "short")
}

func TestFetch_ErrorReturnsEmptyString(t *testing.T) {
	f := New()
	got := f.Fetch(context.Background(), "http://127.0.0.1:1")
	assert.Equal(t, "", got)
}

func TestFetch_NotFoundReturnsEmptyString(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	defer srv.Close()

	f := New()
	got := f.Fetch(context.Background(), srv.URL)
	assert.Equal(t, "", got)
}

func TestTruncateWithEllipsis(t *testing.T) {
	short := "hello"
	assert.Equal(t, short, truncateWithEllipsis(short, 10))

	long := strings.Repeat("a", 20)
	got := truncateWithEllipsis(long, 10)
	assert.Equal(t, strings.Repeat("a", 10)+"…", got)
}
