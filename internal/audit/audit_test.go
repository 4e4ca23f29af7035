package audit

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sjq0098/news-mosaic-go/internal/store/memstore"
	"github.com/sjq0098/news-mosaic-go/internal/types"
	"github.com/sjq0098/news-mosaic-go/internal/types/interfaces"
)

func TestRecordSearch_FallsBackToDemoUser(t *testing.T) {
	docs := memstore.New()
	r := New(docs)

	r.RecordSearch(context.Background(), "", types.SearchRequest{Scope: "user:u1", Keywords: []string{"subway"}, Window: types.Window1Week}, 5)

	var entries []SearchHistoryEntry
	require.NoError(t, docs.FindMany(context.Background(), CollectionSearchHistory, interfaces.DocFilter{}, nil, 0, &entries))
	require.Len(t, entries, 1)
	assert.Equal(t, DemoUserID, entries[0].UserID)
	assert.Equal(t, 5, entries[0].ResultsHit)
	assert.Equal(t, []string{"subway"}, entries[0].Keywords)
}

func TestRecordSearch_KeepsRealUser(t *testing.T) {
	docs := memstore.New()
	r := New(docs)

	r.RecordSearch(context.Background(), "u1", types.SearchRequest{Scope: "user:u1"}, 0)

	var entries []SearchHistoryEntry
	require.NoError(t, docs.FindMany(context.Background(), CollectionSearchHistory, interfaces.DocFilter{}, nil, 0, &entries))
	require.Len(t, entries, 1)
	assert.Equal(t, "u1", entries[0].UserID)
}

func TestRecordAPICall_AppendsEntry(t *testing.T) {
	docs := memstore.New()
	r := New(docs)

	r.RecordAPICall(context.Background(), "u1", "enhanced_chat", true, 120*time.Millisecond, "")

	var entries []APILogEntry
	require.NoError(t, docs.FindMany(context.Background(), CollectionAPILogs, interfaces.DocFilter{}, nil, 0, &entries))
	require.Len(t, entries, 1)
	assert.Equal(t, "enhanced_chat", entries[0].Operation)
	assert.True(t, entries[0].Success)
	assert.Equal(t, int64(120), entries[0].DurationMS)
}
