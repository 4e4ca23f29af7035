package ingestion

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sjq0098/news-mosaic-go/internal/store/memstore"
	"github.com/sjq0098/news-mosaic-go/internal/types"
)

type fakeSearch struct {
	results []types.RawArticle
	err     error
	calls   int
	lastReq types.SearchRequest
}

func (f *fakeSearch) Search(_ context.Context, req types.SearchRequest) ([]types.RawArticle, error) {
	f.calls++
	f.lastReq = req
	if f.err != nil {
		return nil, f.err
	}
	return f.results, nil
}

type fakeFetch struct {
	bodies map[string]string
}

func (f *fakeFetch) Fetch(_ context.Context, url string) string {
	return f.bodies[url]
}

func fixedNow(e *Engine, t time.Time) {
	e.now = func() time.Time { return t }
}

func TestIngest_NewArticleSaved(t *testing.T) {
	store := memstore.New()
	search := &fakeSearch{results: []types.RawArticle{
		{Title: " Big  News ", URL: "http://a.com/1", Source: "a", Date: "2024-01-01"},
	}}
	fetch := &fakeFetch{bodies: map[string]string{"http://a.com/1": "full article body text"}}

	e := New(store, search, fetch, Config{})
	fixedNow(e, time.Date(2024, 1, 10, 0, 0, 0, 0, time.UTC))

	result, err := e.Ingest(context.Background(), types.SearchRequest{Scope: "s1", Keywords: []string{"ai"}})
	require.NoError(t, err)
	assert.Equal(t, 1, result.Found)
	assert.Equal(t, 1, result.Saved)
	assert.Equal(t, 0, result.Updated)
	require.Len(t, result.SavedIDs, 1)

	var stored types.Article
	err = store.FindOne(context.Background(), CollectionNews, map[string]interface{}{"_id": result.SavedIDs[0]}, &stored)
	require.NoError(t, err)
	assert.Equal(t, "Big News", stored.Title)
	assert.Equal(t, []string{"ai"}, stored.Keywords)
	assert.Equal(t, "2024-01-01", stored.Date)
}

func TestIngest_EmptyBodySkipped(t *testing.T) {
	store := memstore.New()
	search := &fakeSearch{results: []types.RawArticle{
		{Title: "No Body", URL: "http://a.com/2"},
	}}
	fetch := &fakeFetch{bodies: map[string]string{}}

	e := New(store, search, fetch, Config{})
	result, err := e.Ingest(context.Background(), types.SearchRequest{Scope: "s1", Keywords: []string{"x"}})
	require.NoError(t, err)
	assert.Equal(t, 1, result.Found)
	assert.Equal(t, 0, result.Saved)
	assert.Empty(t, result.SavedIDs)
}

func TestIngest_DuplicateMergesKeywords(t *testing.T) {
	store := memstore.New()
	fetch := &fakeFetch{bodies: map[string]string{"http://a.com/3": "body text here"}}

	search1 := &fakeSearch{results: []types.RawArticle{
		{Title: "Same Title", URL: "http://a.com/3", Date: "2024-01-09"},
	}}
	e := New(store, search1, fetch, Config{})
	fixedNow(e, time.Date(2024, 1, 10, 0, 0, 0, 0, time.UTC))
	_, err := e.Ingest(context.Background(), types.SearchRequest{Scope: "s1", Keywords: []string{"ai"}})
	require.NoError(t, err)

	search2 := &fakeSearch{results: []types.RawArticle{
		{Title: "Same Title", URL: "http://a.com/3", Date: "2024-01-09"},
	}}
	e.search = search2
	result2, err := e.Ingest(context.Background(), types.SearchRequest{Scope: "s1", Keywords: []string{"ml"}})
	require.NoError(t, err)
	assert.Equal(t, 0, result2.Saved)
	assert.Equal(t, 1, result2.Updated)

	var stored types.Article
	err = store.FindOne(context.Background(), CollectionNews,
		map[string]interface{}{"scope": "s1", "title": "Same Title", "url": "http://a.com/3"}, &stored)
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"ai", "ml"}, stored.Keywords)
}

func TestIngest_DuplicateNoOpWhenKeywordsAlreadyPresent(t *testing.T) {
	store := memstore.New()
	fetch := &fakeFetch{bodies: map[string]string{"http://a.com/4": "body text here"}}
	search := &fakeSearch{results: []types.RawArticle{
		{Title: "T", URL: "http://a.com/4", Date: "2024-01-09"},
	}}
	e := New(store, search, fetch, Config{})
	fixedNow(e, time.Date(2024, 1, 10, 0, 0, 0, 0, time.UTC))
	_, err := e.Ingest(context.Background(), types.SearchRequest{Scope: "s1", Keywords: []string{"ai"}})
	require.NoError(t, err)

	result2, err := e.Ingest(context.Background(), types.SearchRequest{Scope: "s1", Keywords: []string{"ai"}})
	require.NoError(t, err)
	assert.Equal(t, 0, result2.Updated)
	assert.Empty(t, result2.UpdatedIDs)
}

func TestEvictExpired_DeletesOldArticles(t *testing.T) {
	store := memstore.New()
	now := time.Date(2024, 1, 10, 0, 0, 0, 0, time.UTC)

	old := types.Article{ID: "old1", Scope: "s1", Title: "Old", URL: "http://a.com/old", Date: "2024-01-01", CreatedAt: now, UpdatedAt: now}
	fresh := types.Article{ID: "new1", Scope: "s1", Title: "Fresh", URL: "http://a.com/new", Date: "2024-01-09", CreatedAt: now, UpdatedAt: now}
	require.NoError(t, store.InsertOne(context.Background(), CollectionNews, old))
	require.NoError(t, store.InsertOne(context.Background(), CollectionNews, fresh))

	e := New(store, &fakeSearch{}, &fakeFetch{}, Config{})
	fixedNow(e, now)

	err := e.EvictExpired(context.Background(), "s1", 3)
	require.NoError(t, err)

	var remaining []types.Article
	err = store.FindMany(context.Background(), CollectionNews, map[string]interface{}{"scope": "s1"}, nil, 0, &remaining)
	require.NoError(t, err)
	require.Len(t, remaining, 1)
	assert.Equal(t, "new1", remaining[0].ID)
}

func TestIngest_EvictsExpiredBeforeSearching(t *testing.T) {
	store := memstore.New()
	now := time.Date(2024, 1, 10, 0, 0, 0, 0, time.UTC)
	old := types.Article{ID: "old1", Scope: "s1", Title: "Old", URL: "http://a.com/old", Date: "2024-01-01", CreatedAt: now, UpdatedAt: now}
	require.NoError(t, store.InsertOne(context.Background(), CollectionNews, old))

	search := &fakeSearch{results: []types.RawArticle{}}
	e := New(store, search, &fakeFetch{}, Config{DefaultExpireDays: 3})
	fixedNow(e, now)

	_, err := e.Ingest(context.Background(), types.SearchRequest{Scope: "s1", Keywords: []string{"x"}})
	require.NoError(t, err)

	var remaining []types.Article
	err = store.FindMany(context.Background(), CollectionNews, map[string]interface{}{"scope": "s1"}, nil, 0, &remaining)
	require.NoError(t, err)
	assert.Empty(t, remaining)
}

func TestIngest_SearchErrorPropagates(t *testing.T) {
	store := memstore.New()
	search := &fakeSearch{err: assert.AnError}
	e := New(store, search, &fakeFetch{}, Config{})

	_, err := e.Ingest(context.Background(), types.SearchRequest{Scope: "s1", Keywords: []string{"x"}})
	assert.Error(t, err)
}

func TestRefresh_BatchesKeywordsAndCapsBatches(t *testing.T) {
	store := memstore.New()
	now := time.Date(2024, 1, 10, 0, 0, 0, 0, time.UTC)

	keywords := make([]string, 0, 20)
	for i := 0; i < 20; i++ {
		keywords = append(keywords, "kw")
		keywords[i] = keywords[i] + string(rune('a'+i))
	}
	old := types.Article{
		ID: "old1", Scope: "s1", Title: "Old", URL: "http://a.com/old",
		Date: "2024-01-01", Keywords: keywords, CreatedAt: now, UpdatedAt: now,
	}
	require.NoError(t, store.InsertOne(context.Background(), CollectionNews, old))

	search := &fakeSearch{results: []types.RawArticle{}}
	e := New(store, search, &fakeFetch{}, Config{})
	fixedNow(e, now)

	results, err := e.Refresh(context.Background(), "s1", 3)
	require.NoError(t, err)
	assert.LessOrEqual(t, len(results), refreshMaxBatches)
	assert.LessOrEqual(t, search.calls, refreshMaxBatches)
	for _, r := range results {
		assert.NotNil(t, r)
	}

	var remaining []types.Article
	err = store.FindMany(context.Background(), CollectionNews, map[string]interface{}{"scope": "s1"}, nil, 0, &remaining)
	require.NoError(t, err)
	for _, a := range remaining {
		assert.NotEqual(t, "old1", a.ID)
	}
}

func TestRefresh_NoExpiredArticlesNoOp(t *testing.T) {
	store := memstore.New()
	now := time.Date(2024, 1, 10, 0, 0, 0, 0, time.UTC)
	fresh := types.Article{ID: "new1", Scope: "s1", Title: "Fresh", URL: "http://a.com/new", Date: "2024-01-09", CreatedAt: now, UpdatedAt: now}
	require.NoError(t, store.InsertOne(context.Background(), CollectionNews, fresh))

	search := &fakeSearch{}
	e := New(store, search, &fakeFetch{}, Config{})
	fixedNow(e, now)

	results, err := e.Refresh(context.Background(), "s1", 3)
	require.NoError(t, err)
	assert.Empty(t, results)
	assert.Equal(t, 0, search.calls)
}
