// Package memstore is an in-memory interfaces.DocStore used by unit tests
// and local development when DB_URL is not configured. It round-trips
// documents through the mongo driver's bson codec so callers observe the
// same (un)marshaling behaviour they would against mongostore.
package memstore

import (
	"context"
	"sort"
	"sync"

	"go.mongodb.org/mongo-driver/bson"

	"github.com/sjq0098/news-mosaic-go/internal/types/interfaces"
)

// Store is a goroutine-safe, process-local DocStore.
type Store struct {
	mu          sync.Mutex
	collections map[string][]bson.M
}

// New creates an empty in-memory store.
func New() *Store {
	return &Store{collections: make(map[string][]bson.M)}
}

func toDoc(v interface{}) (bson.M, error) {
	raw, err := bson.Marshal(v)
	if err != nil {
		return nil, err
	}
	var doc bson.M
	if err := bson.Unmarshal(raw, &doc); err != nil {
		return nil, err
	}
	return doc, nil
}

func matches(doc bson.M, filter interfaces.DocFilter) bool {
	for k, want := range filter {
		got, ok := doc[k]
		if !ok {
			return false
		}
		if !equalValue(got, want) {
			return false
		}
	}
	return true
}

func equalValue(a, b interface{}) bool {
	// bson round-tripping can turn []string into bson.A of interface{};
	// compare via a second marshal pass so both sides normalize the same way.
	ab, _ := bson.Marshal(bson.M{"v": a})
	bb, _ := bson.Marshal(bson.M{"v": b})
	return string(ab) == string(bb)
}

func decodeInto(docs []bson.M, out interface{}) error {
	raw, err := bson.Marshal(bson.M{"items": docs})
	if err != nil {
		return err
	}
	var wrapper struct {
		Items bson.Raw `bson:"items"`
	}
	if err := bson.Unmarshal(raw, &wrapper); err != nil {
		return err
	}
	return bson.Unmarshal(wrapper.Items, out)
}

// InsertOne implements interfaces.DocStore.
func (s *Store) InsertOne(_ context.Context, collection string, doc interface{}) error {
	d, err := toDoc(doc)
	if err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.collections[collection] = append(s.collections[collection], d)
	return nil
}

// FindOne implements interfaces.DocStore.
func (s *Store) FindOne(_ context.Context, collection string, filter interfaces.DocFilter, out interface{}) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, d := range s.collections[collection] {
		if matches(d, filter) {
			raw, err := bson.Marshal(d)
			if err != nil {
				return err
			}
			return bson.Unmarshal(raw, out)
		}
	}
	return errNotFound(collection)
}

// FindMany implements interfaces.DocStore.
func (s *Store) FindMany(
	_ context.Context, collection string, filter interfaces.DocFilter,
	sortSpec interfaces.DocSort, limit int, out interface{},
) error {
	s.mu.Lock()
	matched := make([]bson.M, 0)
	for _, d := range s.collections[collection] {
		if matches(d, filter) {
			matched = append(matched, d)
		}
	}
	s.mu.Unlock()

	if len(sortSpec) > 0 {
		for field, dir := range sortSpec {
			sort.SliceStable(matched, func(i, j int) bool {
				less := lessValue(matched[i][field], matched[j][field])
				if dir < 0 {
					return !less
				}
				return less
			})
			break // only single-key sort is exercised by this system
		}
	}
	if limit > 0 && len(matched) > limit {
		matched = matched[:limit]
	}
	return decodeInto(matched, out)
}

func lessValue(a, b interface{}) bool {
	as, aok := a.(string)
	bs, bok := b.(string)
	if aok && bok {
		return as < bs
	}
	return false
}

// UpdateOne implements interfaces.DocStore with upsert semantics.
func (s *Store) UpdateOne(_ context.Context, collection string, filter interfaces.DocFilter, update interface{}) error {
	upd, err := toDoc(update)
	if err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	docs := s.collections[collection]
	for i, d := range docs {
		if matches(d, filter) {
			for k, v := range upd {
				d[k] = v
			}
			docs[i] = d
			s.collections[collection] = docs
			return nil
		}
	}
	merged := bson.M{}
	for k, v := range filter {
		merged[k] = v
	}
	for k, v := range upd {
		merged[k] = v
	}
	s.collections[collection] = append(docs, merged)
	return nil
}

// DeleteOne implements interfaces.DocStore.
func (s *Store) DeleteOne(_ context.Context, collection string, filter interfaces.DocFilter) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	docs := s.collections[collection]
	for i, d := range docs {
		if matches(d, filter) {
			s.collections[collection] = append(docs[:i], docs[i+1:]...)
			return nil
		}
	}
	return nil
}

// DeleteMany implements interfaces.DocStore.
func (s *Store) DeleteMany(_ context.Context, collection string, filter interfaces.DocFilter) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	docs := s.collections[collection]
	kept := make([]bson.M, 0, len(docs))
	var deleted int64
	for _, d := range docs {
		if matches(d, filter) {
			deleted++
			continue
		}
		kept = append(kept, d)
	}
	s.collections[collection] = kept
	return deleted, nil
}

// Count implements interfaces.DocStore.
func (s *Store) Count(_ context.Context, collection string, filter interfaces.DocFilter) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var n int64
	for _, d := range s.collections[collection] {
		if matches(d, filter) {
			n++
		}
	}
	return n, nil
}

type notFoundError string

func (e notFoundError) Error() string { return string(e) }

func errNotFound(collection string) error {
	return notFoundError("memstore: no document found in " + collection)
}

var _ interfaces.DocStore = (*Store)(nil)
