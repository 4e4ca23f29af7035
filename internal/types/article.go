package types

import (
	"crypto/md5"
	"encoding/hex"
	"sort"
	"strings"
	"time"
)

const (
	// MaxBodyLength bounds stored article body text (spec.md §3 invariant iv).
	MaxBodyLength = 20000
	// DateLayout is the canonical normalized date format (spec.md §3).
	DateLayout = "2006-01-02"
)

// Article is the core news record owned by its Scope (session), per
// spec.md §3. Within a Scope, (Title, URL) is unique.
type Article struct {
	ID        string    `bson:"_id" json:"id"`
	Scope     string    `bson:"scope" json:"scope"`
	Title     string    `bson:"title" json:"title"`
	URL       string    `bson:"url" json:"url"`
	Source    string    `bson:"source" json:"source"`
	Date      string    `bson:"date" json:"date"` // YYYY-MM-DD, never empty
	Body      string    `bson:"body" json:"body"`
	Keywords  []string  `bson:"keywords" json:"keywords"`
	Embedded  bool      `bson:"embedded" json:"embedded"`
	Category  string    `bson:"category,omitempty" json:"category,omitempty"`
	Sentiment string    `bson:"sentiment,omitempty" json:"sentiment,omitempty"`
	CreatedAt time.Time `bson:"created_at" json:"created_at"`
	UpdatedAt time.Time `bson:"updated_at" json:"updated_at"`
}

// NormalizeTitle collapses internal whitespace and trims, per the ingest
// algorithm's normalization step (spec.md §4.3 step 3a).
func NormalizeTitle(title string) string {
	fields := strings.Fields(title)
	return strings.TrimSpace(strings.Join(fields, " "))
}

// NormalizeURL trims a raw URL, per spec.md §4.3 step 3a.
func NormalizeURL(url string) string {
	return strings.TrimSpace(url)
}

// ArticleID mints the deterministic, process-independent article ID defined
// in spec.md §4.3 step 3d: md5(title + "_" + url + "_" + scope).
func ArticleID(title, url, scope string) string {
	h := md5.Sum([]byte(title + "_" + url + "_" + scope))
	return hex.EncodeToString(h[:])
}

// BoundBody truncates body to MaxBodyLength characters (rune-safe), per
// spec.md §3 invariant iv.
func BoundBody(body string) string {
	r := []rune(body)
	if len(r) <= MaxBodyLength {
		return body
	}
	return string(r[:MaxBodyLength])
}

// MergeKeywords returns the union of existing and incoming, de-duplicated,
// satisfying the keyword-union invariant of spec.md §3/§8: the result always
// contains existing ∪ incoming.
func MergeKeywords(existing, incoming []string) []string {
	seen := make(map[string]struct{}, len(existing)+len(incoming))
	out := make([]string, 0, len(existing)+len(incoming))
	for _, k := range existing {
		if _, ok := seen[k]; !ok {
			seen[k] = struct{}{}
			out = append(out, k)
		}
	}
	for _, k := range incoming {
		if _, ok := seen[k]; !ok {
			seen[k] = struct{}{}
			out = append(out, k)
		}
	}
	return out
}

// KeywordSetsEqual reports whether a and b contain the same keywords
// regardless of order, used to detect whether a merge actually grew the set.
func KeywordSetsEqual(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	sa := append([]string(nil), a...)
	sb := append([]string(nil), b...)
	sort.Strings(sa)
	sort.Strings(sb)
	for i := range sa {
		if sa[i] != sb[i] {
			return false
		}
	}
	return true
}

// relativeTimeMarkers are substrings (lowercased) that indicate a
// relative/unparseable timestamp; their presence means "today" per
// spec.md §4.3 date normalization step 1.
var relativeTimeMarkers = []string{
	"hours ago", "hour ago", "minutes ago", "minute ago", "seconds ago",
	"just now", "today", "天前", "小时前", "分钟前", "刚刚", "今天",
}

// dateLayouts is the fixed ordered list of formats tried during date
// normalization (spec.md §4.3 step 2).
var dateLayouts = []string{
	"2006-01-02",
	"2006/01/02",
	"01/02/2006",
	"Jan 2, 2006",
	"January 2, 2006",
	"2 Jan 2006",
	"2006年01月02日",
	"2006年1月2日",
	time.RFC3339,
	time.RFC1123,
}

// NormalizeDate normalizes a raw date string to YYYY-MM-DD following
// spec.md §4.3: relative-time keywords and unparseable strings fall back to
// today; the result is idempotent (normalizing an already-normalized date
// returns it unchanged, since "2006-01-02" is first in dateLayouts).
func NormalizeDate(raw string, now time.Time) string {
	lower := strings.ToLower(strings.TrimSpace(raw))
	if lower == "" {
		return now.Format(DateLayout)
	}
	for _, marker := range relativeTimeMarkers {
		if strings.Contains(lower, marker) {
			return now.Format(DateLayout)
		}
	}
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, strings.TrimSpace(raw)); err == nil {
			return t.Format(DateLayout)
		}
	}
	return now.Format(DateLayout)
}
