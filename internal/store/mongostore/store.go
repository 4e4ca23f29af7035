// Package mongostore implements the document datastore port (spec.md §6)
// on top of the MongoDB Go driver, grounded in the connection/pooling
// pattern the retrieval pack's sentinel-x client uses.
package mongostore

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/sjq0098/news-mosaic-go/internal/types/interfaces"
)

// Store wraps a *mongo.Database and implements interfaces.DocStore.
type Store struct {
	client   *mongo.Client
	database *mongo.Database
}

// New connects to uri and selects dbName, verifying the connection with a
// ping, mirroring the teacher pack's mongodb client constructor.
func New(ctx context.Context, uri, dbName string) (*Store, error) {
	if uri == "" {
		return nil, fmt.Errorf("mongostore: DB_URL is required")
	}
	if dbName == "" {
		return nil, fmt.Errorf("mongostore: DB_NAME is required")
	}

	connectCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	client, err := mongo.Connect(connectCtx, options.Client().ApplyURI(uri))
	if err != nil {
		return nil, fmt.Errorf("mongostore: connect: %w", err)
	}
	if err := client.Ping(connectCtx, nil); err != nil {
		_ = client.Disconnect(connectCtx)
		return nil, fmt.Errorf("mongostore: ping: %w", err)
	}

	return &Store{client: client, database: client.Database(dbName)}, nil
}

// Close disconnects the underlying client. Safe to call once during process
// teardown (spec.md §9 "Scoped resources").
func (s *Store) Close(ctx context.Context) error {
	if s.client == nil {
		return nil
	}
	closeCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	return s.client.Disconnect(closeCtx)
}

func toBSON(filter interfaces.DocFilter) bson.M {
	out := bson.M{}
	for k, v := range filter {
		out[k] = v
	}
	return out
}

// InsertOne implements interfaces.DocStore.
func (s *Store) InsertOne(ctx context.Context, collection string, doc interface{}) error {
	_, err := s.database.Collection(collection).InsertOne(ctx, doc)
	if err != nil {
		return fmt.Errorf("mongostore: insert into %s: %w", collection, err)
	}
	return nil
}

// FindOne implements interfaces.DocStore.
func (s *Store) FindOne(ctx context.Context, collection string, filter interfaces.DocFilter, out interface{}) error {
	err := s.database.Collection(collection).FindOne(ctx, toBSON(filter)).Decode(out)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			return fmt.Errorf("mongostore: %s: %w", collection, mongo.ErrNoDocuments)
		}
		return fmt.Errorf("mongostore: find one in %s: %w", collection, err)
	}
	return nil
}

// FindMany implements interfaces.DocStore.
func (s *Store) FindMany(
	ctx context.Context, collection string, filter interfaces.DocFilter,
	sort interfaces.DocSort, limit int, out interface{},
) error {
	opts := options.Find()
	if len(sort) > 0 {
		sortDoc := bson.D{}
		for k, v := range sort {
			sortDoc = append(sortDoc, bson.E{Key: k, Value: v})
		}
		opts.SetSort(sortDoc)
	}
	if limit > 0 {
		opts.SetLimit(int64(limit))
	}

	cursor, err := s.database.Collection(collection).Find(ctx, toBSON(filter), opts)
	if err != nil {
		return fmt.Errorf("mongostore: find many in %s: %w", collection, err)
	}
	defer cursor.Close(ctx)
	if err := cursor.All(ctx, out); err != nil {
		return fmt.Errorf("mongostore: decode cursor from %s: %w", collection, err)
	}
	return nil
}

// UpdateOne implements interfaces.DocStore. It upserts: the ingestion
// engine's merge-on-conflict path and the session/memory save paths all
// depend on insert-if-absent, update-if-present semantics.
func (s *Store) UpdateOne(ctx context.Context, collection string, filter interfaces.DocFilter, update interface{}) error {
	opts := options.Update().SetUpsert(true)
	_, err := s.database.Collection(collection).UpdateOne(ctx, toBSON(filter), bson.M{"$set": update}, opts)
	if err != nil {
		return fmt.Errorf("mongostore: update one in %s: %w", collection, err)
	}
	return nil
}

// DeleteOne implements interfaces.DocStore.
func (s *Store) DeleteOne(ctx context.Context, collection string, filter interfaces.DocFilter) error {
	_, err := s.database.Collection(collection).DeleteOne(ctx, toBSON(filter))
	if err != nil {
		return fmt.Errorf("mongostore: delete one in %s: %w", collection, err)
	}
	return nil
}

// DeleteMany implements interfaces.DocStore.
func (s *Store) DeleteMany(ctx context.Context, collection string, filter interfaces.DocFilter) (int64, error) {
	res, err := s.database.Collection(collection).DeleteMany(ctx, toBSON(filter))
	if err != nil {
		return 0, fmt.Errorf("mongostore: delete many in %s: %w", collection, err)
	}
	return res.DeletedCount, nil
}

// Count implements interfaces.DocStore.
func (s *Store) Count(ctx context.Context, collection string, filter interfaces.DocFilter) (int64, error) {
	n, err := s.database.Collection(collection).CountDocuments(ctx, toBSON(filter))
	if err != nil {
		return 0, fmt.Errorf("mongostore: count in %s: %w", collection, err)
	}
	return n, nil
}

var _ interfaces.DocStore = (*Store)(nil)
