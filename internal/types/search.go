package types

import "time"

// MaxSearchResults is the clamp applied to a requested result count
// (spec.md §3, §8 boundary behaviour).
const MaxSearchResults = 50

// SearchRequest is the input to the Search Adapter / Ingestion Engine
// (spec.md §3).
type SearchRequest struct {
	Scope      string
	Keywords   []string
	Count      int
	Language   string
	Country    string
	Window     TimeWindow
	ExpireDays int
}

// ClampCount clamps Count into (0, MaxSearchResults], per spec.md §8
// "num_results > 50 is clamped to 50".
func (r *SearchRequest) ClampCount() {
	if r.Count <= 0 {
		r.Count = 10
	}
	if r.Count > MaxSearchResults {
		r.Count = MaxSearchResults
	}
}

// RawArticle is the uniform shape the Search Adapter normalizes every
// upstream result into (spec.md §4.1).
type RawArticle struct {
	Title   string
	URL     string
	Source  string
	Snippet string
	Date    string
}

// IngestResult is the outcome of one Ingestion Engine run (spec.md §3, §4.3).
type IngestResult struct {
	Found     int
	Saved     int
	Updated   int
	SavedIDs  []string
	UpdatedIDs []string
	Elapsed   time.Duration
	Status    string
}
