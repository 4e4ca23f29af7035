package orchestrator

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sjq0098/news-mosaic-go/internal/audit"
	"github.com/sjq0098/news-mosaic-go/internal/ingestion"
	"github.com/sjq0098/news-mosaic-go/internal/interest"
	"github.com/sjq0098/news-mosaic-go/internal/sessionmemory"
	"github.com/sjq0098/news-mosaic-go/internal/store/memstore"
	"github.com/sjq0098/news-mosaic-go/internal/types"
	"github.com/sjq0098/news-mosaic-go/internal/types/interfaces"
)

// fakeChat replies with a scripted response keyed by a substring of the
// system prompt, so a single fake can drive every node in one test.
type fakeChat struct {
	responses map[string]string // systemPromptSubstring -> response
	calls     []string
}

func (f *fakeChat) Chat(_ context.Context, messages []interfaces.ChatMessage, _ interfaces.ChatOptions) (*interfaces.ChatResponse, error) {
	system := messages[0].Content
	f.calls = append(f.calls, system)
	for substr, resp := range f.responses {
		if strings.Contains(system, substr) {
			return &interfaces.ChatResponse{Content: resp}, nil
		}
	}
	return &interfaces.ChatResponse{Content: ""}, nil
}

type fakeSearch struct{}

func (fakeSearch) Search(_ context.Context, req types.SearchRequest) ([]types.RawArticle, error) {
	return []types.RawArticle{
		{Title: "Subway expansion announced", URL: "http://example.com/a", Source: "wire", Date: "2026-07-30"},
	}, nil
}

type fakeFetch struct{}

func (fakeFetch) Fetch(_ context.Context, _ string) string { return "full article body text" }

func newTestOrchestrator(chat *fakeChat) *Orchestrator {
	docs := memstore.New()
	ingestionEngine := ingestion.New(docs, fakeSearch{}, fakeFetch{}, ingestion.Config{})
	interestStore := interest.New(docs, nil)
	sessions := sessionmemory.New(docs, nil)
	return New(chat, ingestionEngine, interestStore, sessions, nil, nil, nil, nil)
}

func TestRun_PreciseSearchRoutesThroughIngestionAndSavesMemory(t *testing.T) {
	chat := &fakeChat{responses: map[string]string{
		"Classify the user's message": "准确搜索",
		"Extract up to 3":             "地铁,轨道交通|1w",
	}}
	o := newTestOrchestrator(chat)

	result, err := o.Run(context.Background(), Request{User: "u1", Session: "s1", Message: "search for subway news"})
	require.NoError(t, err)

	assert.Equal(t, types.IntentPreciseSearch, result.Intent)
	require.NotNil(t, result.IngestResult)
	assert.Equal(t, 1, result.IngestResult.Saved)
	assert.True(t, result.MemorySaved)

	mem, ok := o.sessions.Get(context.Background(), "s1")
	require.True(t, ok)
	require.Len(t, mem.ConversationHistory, 1)
}

func TestRun_InterestAdjustDoesNotWriteMemory(t *testing.T) {
	chat := &fakeChat{responses: map[string]string{
		"Classify the user's message": "兴趣调整",
		"You manage the user's interest tags": "ADD:地铁,足球",
	}}
	o := newTestOrchestrator(chat)

	result, err := o.Run(context.Background(), Request{User: "u1", Session: "s1", Message: "add subway and soccer to my interests"})
	require.NoError(t, err)

	assert.Equal(t, types.IntentInterestAdjust, result.Intent)
	assert.False(t, result.MemorySaved)
	require.Len(t, result.Operations, 1)
	assert.True(t, result.Operations[0].Success)

	_, ok := o.sessions.Get(context.Background(), "s1")
	assert.False(t, ok)
}

func TestRun_UnrecognizedIntentDefaultsToOther(t *testing.T) {
	chat := &fakeChat{responses: map[string]string{
		"Classify the user's message": "garbage output",
		"Reply helpfully":             "Here's a generic reply.",
	}}
	o := newTestOrchestrator(chat)

	result, err := o.Run(context.Background(), Request{User: "u1", Session: "s1", Message: "what's the weather"})
	require.NoError(t, err)

	assert.Equal(t, types.IntentOther, result.Intent)
	assert.Equal(t, "Here's a generic reply.", result.Reply)
	assert.True(t, result.MemorySaved)
}

func TestManageInterests_QueryRelatedEnqueuesPhase2Remove(t *testing.T) {
	chat := &fakeChat{responses: map[string]string{
		"You manage the user's interest tags": "QUERY_RELATED:轨道交通",
	}}
	o := newTestOrchestrator(chat)
	ctx := context.Background()

	_, err := o.interests.Add(ctx, "u1", []string{"地铁", "高铁", "足球"})
	require.NoError(t, err)

	outcomes := o.manageInterests(ctx, "u1", "remove anything related to rail transit")
	require.Len(t, outcomes, 2) // QUERY_RELATED line + the phase-2 REMOVE outcome
	assert.Equal(t, "REMOVE (phase 2)", outcomes[1].Line)

	remaining, err := o.interests.Get(ctx, "u1")
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"足球"}, remaining)
}

func TestRun_PreciseSearchRecordsAuditEntry(t *testing.T) {
	chat := &fakeChat{responses: map[string]string{
		"Classify the user's message": "准确搜索",
		"Extract up to 3":             "地铁|1w",
	}}
	docs := memstore.New()
	ingestionEngine := ingestion.New(docs, fakeSearch{}, fakeFetch{}, ingestion.Config{})
	interestStore := interest.New(docs, nil)
	sessions := sessionmemory.New(docs, nil)
	rec := audit.New(docs)
	o := New(chat, ingestionEngine, interestStore, sessions, rec, nil, nil, nil)

	_, err := o.Run(context.Background(), Request{User: "u1", Session: "s1", Message: "search for subway news"})
	require.NoError(t, err)

	var entries []audit.SearchHistoryEntry
	require.NoError(t, docs.FindMany(context.Background(), audit.CollectionSearchHistory, interfaces.DocFilter{}, nil, 0, &entries))
	require.Len(t, entries, 1)
	assert.Equal(t, "u1", entries[0].UserID)
}
