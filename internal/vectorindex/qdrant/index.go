// Package qdrant implements the Vector Index port (spec.md §4.5) over a
// Qdrant collection, grounded in the teacher's
// internal/application/repository/retriever/qdrant package (point/payload
// shape) and the Qdrant client usage shown across the retrieval pack.
package qdrant

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/google/uuid"
	"github.com/qdrant/go-client/qdrant"

	"github.com/sjq0098/news-mosaic-go/internal/logger"
	"github.com/sjq0098/news-mosaic-go/internal/types"
	"github.com/sjq0098/news-mosaic-go/internal/types/interfaces"
)

// pointNamespace is the fixed UUID namespace used to derive deterministic,
// content-addressed point IDs from (article_id, chunk_index) pairs.
var pointNamespace = uuid.MustParse("6f0a7c9e-2f3a-4d1b-9e4e-9a3f2b9c7e11")

// Config configures the Qdrant-backed vector index.
type Config struct {
	Host           string
	Port           int
	APIKey         string
	UseTLS         bool
	CollectionName string
	Distance       string
}

// Index implements interfaces.VectorIndexPort against a single Qdrant
// collection, content-addressed by (article_id, chunk_index).
type Index struct {
	client         *qdrant.Client
	collectionName string
	distance       qdrant.Distance

	mu          sync.Mutex
	initialized bool
}

// New connects to Qdrant and returns an Index. The backing collection is
// created lazily on the first Upsert, once the embedding dimension is known.
func New(config Config) (*Index, error) {
	if config.CollectionName == "" {
		return nil, fmt.Errorf("qdrant collection name is required")
	}

	clientConfig := &qdrant.Config{
		Host:   config.Host,
		Port:   config.Port,
		APIKey: config.APIKey,
		UseTLS: config.UseTLS,
	}

	client, err := qdrant.NewClient(clientConfig)
	if err != nil {
		return nil, fmt.Errorf("failed to create qdrant client: %w", err)
	}

	distance := qdrant.Distance_Cosine
	switch config.Distance {
	case "euclidean":
		distance = qdrant.Distance_Euclid
	case "dot":
		distance = qdrant.Distance_Dot
	}

	return &Index{
		client:         client,
		collectionName: config.CollectionName,
		distance:       distance,
	}, nil
}

func pointID(articleID string, chunkIndex int) string {
	return uuid.NewSHA1(pointNamespace, []byte(fmt.Sprintf("%s:%d", articleID, chunkIndex))).String()
}

func (idx *Index) ensureCollection(ctx context.Context, dimension int) error {
	idx.mu.Lock()
	defer idx.mu.Unlock()
	if idx.initialized {
		return nil
	}

	exists, err := idx.client.CollectionExists(ctx, idx.collectionName)
	if err != nil {
		return fmt.Errorf("failed to check qdrant collection: %w", err)
	}
	if !exists {
		err = idx.client.CreateCollection(ctx, &qdrant.CreateCollection{
			CollectionName: idx.collectionName,
			VectorsConfig: qdrant.NewVectorsConfig(&qdrant.VectorParams{
				Size:     uint64(dimension),
				Distance: idx.distance,
			}),
		})
		if err != nil {
			return fmt.Errorf("failed to create qdrant collection: %w", err)
		}
	}
	idx.initialized = true
	return nil
}

// Upsert writes embedding results into the index, content-addressed by
// (article_id, chunk_index); re-upserting the same pair overwrites it
// (spec.md §4.5).
func (idx *Index) Upsert(ctx context.Context, records []types.EmbeddingResult) error {
	if len(records) == 0 {
		return nil
	}

	if err := idx.ensureCollection(ctx, records[0].Dimension); err != nil {
		return err
	}

	logger.GetLogger(ctx).Infof("upserting %d vector(s) into qdrant collection %s", len(records), idx.collectionName)

	points := make([]*qdrant.PointStruct, len(records))
	for i, r := range records {
		articleID, _ := r.Chunk.Metadata["article_id"].(string)
		if articleID == "" {
			articleID = r.Chunk.SourceID
		}

		payload := map[string]*qdrant.Value{
			"article_id":  qdrant.NewValueString(articleID),
			"chunk_index": qdrant.NewValueInt(int64(r.Chunk.Index)),
			"text":        qdrant.NewValueString(r.Chunk.Text),
			"model_name":  qdrant.NewValueString(r.ModelName),
		}
		for k, v := range r.Chunk.Metadata {
			payload[k] = toQdrantValue(v)
		}

		points[i] = &qdrant.PointStruct{
			Id:      qdrant.NewID(pointID(articleID, r.Chunk.Index)),
			Vectors: qdrant.NewVectors(r.Vector...),
			Payload: payload,
		}
	}

	_, err := idx.client.Upsert(ctx, &qdrant.UpsertPoints{
		CollectionName: idx.collectionName,
		Points:         points,
	})
	if err != nil {
		return fmt.Errorf("qdrant upsert failed: %w", err)
	}
	return nil
}

// Query returns the top-K nearest neighbours by cosine similarity
// (spec.md §4.5); scores are preserved end-to-end.
func (idx *Index) Query(ctx context.Context, vector []float32, topK int) ([]types.ScoredArticle, error) {
	if topK <= 0 {
		topK = 10
	}

	idx.mu.Lock()
	initialized := idx.initialized
	idx.mu.Unlock()
	if !initialized {
		return nil, nil
	}

	limit := uint64(topK)
	results, err := idx.client.Query(ctx, &qdrant.QueryPoints{
		CollectionName: idx.collectionName,
		Query:          qdrant.NewQuery(vector...),
		Limit:          &limit,
		WithPayload:    qdrant.NewWithPayload(true),
	})
	if err != nil {
		return nil, fmt.Errorf("qdrant query failed: %w", err)
	}

	out := make([]types.ScoredArticle, 0, len(results))
	for _, point := range results {
		metadata := make(map[string]interface{})
		var articleID string
		for k, v := range point.Payload {
			if k == "article_id" {
				articleID = v.GetStringValue()
				continue
			}
			metadata[k] = fromQdrantValue(v)
		}
		out = append(out, types.ScoredArticle{
			ArticleID: articleID,
			Score:     float64(point.Score),
			Metadata:  metadata,
		})
	}

	sort.SliceStable(out, func(i, j int) bool { return out[i].Score > out[j].Score })
	return out, nil
}

func toQdrantValue(v interface{}) *qdrant.Value {
	switch val := v.(type) {
	case string:
		return qdrant.NewValueString(val)
	case int:
		return qdrant.NewValueInt(int64(val))
	case int64:
		return qdrant.NewValueInt(val)
	case float64:
		return qdrant.NewValueDouble(val)
	case float32:
		return qdrant.NewValueDouble(float64(val))
	case bool:
		return qdrant.NewValueBool(val)
	default:
		return qdrant.NewValueString(fmt.Sprintf("%v", v))
	}
}

func fromQdrantValue(v *qdrant.Value) interface{} {
	if v == nil {
		return nil
	}
	if s := v.GetStringValue(); s != "" {
		return s
	}
	if n := v.GetIntegerValue(); n != 0 {
		return n
	}
	if d := v.GetDoubleValue(); d != 0 {
		return d
	}
	if v.GetBoolValue() {
		return true
	}
	return nil
}

var _ interfaces.VectorIndexPort = (*Index)(nil)
