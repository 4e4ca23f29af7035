package pipeline

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sjq0098/news-mosaic-go/internal/audit"
	"github.com/sjq0098/news-mosaic-go/internal/convcontext"
	"github.com/sjq0098/news-mosaic-go/internal/enrichment"
	"github.com/sjq0098/news-mosaic-go/internal/ingestion"
	"github.com/sjq0098/news-mosaic-go/internal/interest"
	"github.com/sjq0098/news-mosaic-go/internal/orchestrator"
	"github.com/sjq0098/news-mosaic-go/internal/sessionmemory"
	"github.com/sjq0098/news-mosaic-go/internal/store/memstore"
	"github.com/sjq0098/news-mosaic-go/internal/types"
	"github.com/sjq0098/news-mosaic-go/internal/types/interfaces"
)

// fakeChat always answers with a fixed reply regardless of the prompt, which
// is enough to drive every coordinator mode without a real language model.
type fakeChat struct{ reply string }

func (f fakeChat) Chat(_ context.Context, _ []interfaces.ChatMessage, _ interfaces.ChatOptions) (*interfaces.ChatResponse, error) {
	return &interfaces.ChatResponse{Content: f.reply}, nil
}

// fakeEmbed returns a fixed-dimension vector for any text.
type fakeEmbed struct{}

func (fakeEmbed) EmbedBatch(_ context.Context, texts []string) ([][]float32, error) {
	out := make([][]float32, len(texts))
	for i := range texts {
		out[i] = []float32{1, 0, 0}
	}
	return out, nil
}
func (fakeEmbed) Dimension() int    { return 3 }
func (fakeEmbed) ModelName() string { return "fake-embed" }

// fakeIndex returns one fixed hit for any query.
type fakeIndex struct{ hit types.ScoredArticle }

func (fakeIndex) Upsert(_ context.Context, _ []types.EmbeddingResult) error { return nil }
func (f fakeIndex) Query(_ context.Context, _ []float32, topK int) ([]types.ScoredArticle, error) {
	return []types.ScoredArticle{f.hit}, nil
}

type fakeSearch struct{}

func (fakeSearch) Search(_ context.Context, _ types.SearchRequest) ([]types.RawArticle, error) {
	return nil, nil
}

type fakeFetch struct{}

func (fakeFetch) Fetch(_ context.Context, _ string) string { return "" }

func newTestCoordinator(t *testing.T, chatReply string) (*Coordinator, interfaces.DocStore) {
	t.Helper()
	docs := memstore.New()
	chat := fakeChat{reply: chatReply}

	ingestionEngine := ingestion.New(docs, fakeSearch{}, fakeFetch{}, ingestion.Config{})
	interestStore := interest.New(docs, nil)
	sessions := sessionmemory.New(docs, nil)
	orch := orchestrator.New(chat, ingestionEngine, interestStore, sessions, nil, nil, nil, nil)
	convCtx := convcontext.New(docs, fakeEmbed{}, sessions, 90, 500)
	enrich := enrichment.New(chat, fakeEmbed{}, fakeIndex{})

	require.NoError(t, docs.InsertOne(context.Background(), ingestion.CollectionNews, types.Article{ID: "a1", Title: "Subway news", Body: "full body"}))

	index := fakeIndex{hit: types.ScoredArticle{ArticleID: "a1", Score: 0.9}}
	return New(orch, convCtx, enrich, fakeEmbed{}, index, chat, docs, nil), docs
}

func TestRun_RAGAnalysisRetrievesAndAnswers(t *testing.T) {
	c, _ := newTestCoordinator(t, "here is your answer")

	resp, err := c.Run(context.Background(), Request{User: "u1", Session: "s1", Message: "subway?", Mode: types.ModeRAGAnalysis})
	require.NoError(t, err)

	assert.True(t, resp.RAG.Enabled)
	assert.True(t, resp.RAG.Success)
	assert.Equal(t, 1, resp.NewsRetrieved)
	assert.Equal(t, "here is your answer", resp.Reply)
	assert.False(t, resp.Chat.Enabled)
	assert.False(t, resp.Cards.Enabled)
}

func TestRun_CardGenerationProducesCards(t *testing.T) {
	c, _ := newTestCoordinator(t, "ignored")

	resp, err := c.Run(context.Background(), Request{User: "u1", Session: "s1", Message: "subway?", Mode: types.ModeCardGeneration})
	require.NoError(t, err)

	assert.True(t, resp.RAG.Success)
	assert.True(t, resp.Cards.Success)
	require.Len(t, resp.GeneratedCards, 1)
	assert.Equal(t, "a1", resp.GeneratedCards[0].ArticleID)
}

func TestRun_CustomModeRunsSelectedFlagsConcurrently(t *testing.T) {
	c, _ := newTestCoordinator(t, "chat reply")

	resp, err := c.Run(context.Background(), Request{
		User: "u1", Session: "s1", Message: "subway?",
		Mode:  types.ModeCustom,
		Flags: Flags{Chat: true, Cards: true},
	})
	require.NoError(t, err)

	assert.True(t, resp.Chat.Success)
	assert.Equal(t, "chat reply", resp.Reply)
	assert.False(t, resp.RAG.Enabled) // RAG flag was not requested, only Cards
	assert.True(t, resp.Cards.Success)
	require.Len(t, resp.GeneratedCards, 1)
}

func TestRunStream_YieldsStartContentAndComplete(t *testing.T) {
	c, _ := newTestCoordinator(t, "a reply long enough to span more than one chunk of streamed content")

	var types_ []StreamEventType
	var final *Response
	for ev := range c.RunStream(context.Background(), Request{User: "u1", Session: "s1", Message: "hi", Mode: types.ModeRAGAnalysis}) {
		types_ = append(types_, ev.Type)
		if ev.Type == StreamComplete {
			final = ev.Final
		}
	}

	require.NotEmpty(t, types_)
	assert.Equal(t, StreamStart, types_[0])
	assert.Equal(t, StreamComplete, types_[len(types_)-1])
	require.NotNil(t, final)
}

func TestRun_RecordsAPILogEntryWhenAuditWired(t *testing.T) {
	docs := memstore.New()
	chat := fakeChat{reply: "answer"}
	ingestionEngine := ingestion.New(docs, fakeSearch{}, fakeFetch{}, ingestion.Config{})
	interestStore := interest.New(docs, nil)
	sessions := sessionmemory.New(docs, nil)
	orch := orchestrator.New(chat, ingestionEngine, interestStore, sessions, nil, nil, nil, nil)
	convCtx := convcontext.New(docs, fakeEmbed{}, sessions, 90, 500)
	enrich := enrichment.New(chat, fakeEmbed{}, fakeIndex{})
	rec := audit.New(docs)
	index := fakeIndex{hit: types.ScoredArticle{ArticleID: "a1", Score: 0.9}}
	c := New(orch, convCtx, enrich, fakeEmbed{}, index, chat, docs, rec)

	_, err := c.Run(context.Background(), Request{User: "u1", Session: "s1", Message: "subway?", Mode: types.ModeRAGAnalysis})
	require.NoError(t, err)

	var entries []audit.APILogEntry
	require.NoError(t, docs.FindMany(context.Background(), audit.CollectionAPILogs, interfaces.DocFilter{}, nil, 0, &entries))
	require.Len(t, entries, 1)
	assert.Equal(t, "rag_analysis", entries[0].Operation)
	assert.Equal(t, "u1", entries[0].UserID)
}
