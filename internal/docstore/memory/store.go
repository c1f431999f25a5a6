// Package memory provides an in-memory implementation of the document store
// used for tests and ephemeral environments.
package memory

import (
	"context"
	"fmt"
	"reflect"
	"sort"
	"sync"

	"equiphouse/internal/docstore"
)

var _ docstore.Store = (*Store)(nil)

type record struct {
	data map[string]any
	seq  uint64
}

type docKey struct {
	collection string
	id         string
}

// Store keeps documents per collection. Queries return documents in insertion
// order. Stored data is normalized to its JSON form so reads never alias
// caller owned maps.
type Store struct {
	mu          sync.RWMutex
	collections map[string]map[string]record
	seq         uint64
}

func NewStore() *Store {
	return &Store{collections: make(map[string]map[string]record)}
}

func (s *Store) Get(ctx context.Context, collection, id string) (docstore.Document, error) {
	if err := ctx.Err(); err != nil {
		return docstore.Document{}, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	rec, ok := s.collections[collection][id]
	if !ok {
		return docstore.Document{}, fmt.Errorf("%s/%s: %w", collection, id, docstore.ErrNotFound)
	}

	return docstore.Document{ID: id, Data: cloneMap(rec.data)}, nil
}

func (s *Store) Query(ctx context.Context, collection string, filters ...docstore.Filter) ([]docstore.Document, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	normalized := make([]docstore.Filter, 0, len(filters))
	for _, f := range filters {
		value, err := docstore.Normalize(f.Value)
		if err != nil {
			return nil, fmt.Errorf("invalid filter value for %s: %w", f.Field, err)
		}
		normalized = append(normalized, docstore.Filter{Field: f.Field, Op: f.Op, Value: value})
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	type match struct {
		id  string
		rec record
	}
	var matches []match
	for id, rec := range s.collections[collection] {
		ok, err := matchesAll(rec.data, normalized)
		if err != nil {
			return nil, err
		}
		if ok {
			matches = append(matches, match{id: id, rec: rec})
		}
	}

	sort.Slice(matches, func(i, j int) bool { return matches[i].rec.seq < matches[j].rec.seq })

	docs := make([]docstore.Document, 0, len(matches))
	for _, m := range matches {
		docs = append(docs, docstore.Document{ID: m.id, Data: cloneMap(m.rec.data)})
	}

	return docs, nil
}

func (s *Store) Create(ctx context.Context, collection string, data map[string]any) (string, error) {
	id := docstore.NewID()
	if err := s.Commit(ctx, docstore.NewBatch().Create(collection, id, data)); err != nil {
		return "", err
	}

	return id, nil
}

func (s *Store) Update(ctx context.Context, collection, id string, fields map[string]any) error {
	return s.Commit(ctx, docstore.NewBatch().Update(collection, id, fields))
}

func (s *Store) Delete(ctx context.Context, collection, id string) error {
	return s.Commit(ctx, docstore.NewBatch().Delete(collection, id))
}

// Commit applies every write of the batch or none of them.
func (s *Store) Commit(ctx context.Context, batch *docstore.Batch) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if batch.Len() > docstore.MaxBatchSize {
		return docstore.ErrBatchTooLarge
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	// Stage writes on top of the committed state; nil marks a deletion.
	staged := make(map[docKey]*record)
	lookup := func(k docKey) (*record, bool) {
		if rec, ok := staged[k]; ok {
			return rec, rec != nil
		}
		rec, ok := s.collections[k.collection][k.id]
		if !ok {
			return nil, false
		}
		return &rec, true
	}

	seq := s.seq
	for _, w := range batch.Writes() {
		k := docKey{collection: w.Collection, id: w.ID}
		if w.ID == "" {
			return fmt.Errorf("%s write to %s without document id", w.Kind, w.Collection)
		}

		switch w.Kind {
		case docstore.WriteCreate:
			if _, exists := lookup(k); exists {
				return fmt.Errorf("%s/%s: %w", w.Collection, w.ID, docstore.ErrConflict)
			}
			data, err := normalizeMap(w.Data)
			if err != nil {
				return err
			}
			seq++
			staged[k] = &record{data: data, seq: seq}
		case docstore.WriteUpdate:
			current, exists := lookup(k)
			if !exists {
				return fmt.Errorf("%s/%s: %w", w.Collection, w.ID, docstore.ErrNotFound)
			}
			fields, err := normalizeMap(w.Data)
			if err != nil {
				return err
			}
			merged := cloneMap(current.data)
			for field, value := range fields {
				merged[field] = value
			}
			staged[k] = &record{data: merged, seq: current.seq}
		case docstore.WriteDelete:
			staged[k] = nil
		default:
			return fmt.Errorf("unsupported write kind %d", w.Kind)
		}
	}

	for k, rec := range staged {
		docs, ok := s.collections[k.collection]
		if !ok {
			docs = make(map[string]record)
			s.collections[k.collection] = docs
		}
		if rec == nil {
			delete(docs, k.id)
			continue
		}
		docs[k.id] = *rec
	}
	s.seq = seq

	return nil
}

// Count reports the number of documents in a collection.
func (s *Store) Count(collection string) int {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return len(s.collections[collection])
}

func matchesAll(data map[string]any, filters []docstore.Filter) (bool, error) {
	for _, f := range filters {
		value, present := data[f.Field]
		if !present {
			return false, nil
		}

		switch f.Op {
		case docstore.OpEqual:
			if !reflect.DeepEqual(value, f.Value) {
				return false, nil
			}
		case docstore.OpIn:
			candidates, ok := f.Value.([]any)
			if !ok {
				return false, fmt.Errorf("filter %s: in requires a list value", f.Field)
			}
			found := false
			for _, c := range candidates {
				if reflect.DeepEqual(value, c) {
					found = true
					break
				}
			}
			if !found {
				return false, nil
			}
		case docstore.OpGreaterOrEqual, docstore.OpLessOrEqual:
			cmp, ok := compare(value, f.Value)
			if !ok {
				return false, nil
			}
			if f.Op == docstore.OpGreaterOrEqual && cmp < 0 {
				return false, nil
			}
			if f.Op == docstore.OpLessOrEqual && cmp > 0 {
				return false, nil
			}
		default:
			return false, fmt.Errorf("filter %s: unsupported operator %q", f.Field, f.Op)
		}
	}

	return true, nil
}

func compare(a, b any) (int, bool) {
	switch av := a.(type) {
	case float64:
		bv, ok := b.(float64)
		if !ok {
			return 0, false
		}
		switch {
		case av < bv:
			return -1, true
		case av > bv:
			return 1, true
		}
		return 0, true
	case string:
		bv, ok := b.(string)
		if !ok {
			return 0, false
		}
		switch {
		case av < bv:
			return -1, true
		case av > bv:
			return 1, true
		}
		return 0, true
	}

	return 0, false
}

func normalizeMap(data map[string]any) (map[string]any, error) {
	if data == nil {
		return map[string]any{}, nil
	}
	normalized, err := docstore.Normalize(data)
	if err != nil {
		return nil, fmt.Errorf("invalid document data: %w", err)
	}
	m, ok := normalized.(map[string]any)
	if !ok {
		return nil, fmt.Errorf("invalid document data: not an object")
	}
	delete(m, "id")

	return m, nil
}

// cloneMap deep copies normalized JSON data.
func cloneMap(data map[string]any) map[string]any {
	out := make(map[string]any, len(data))
	for k, v := range data {
		out[k] = cloneValue(v)
	}
	return out
}

func cloneValue(v any) any {
	switch t := v.(type) {
	case map[string]any:
		return cloneMap(t)
	case []any:
		out := make([]any, len(t))
		for i, item := range t {
			out[i] = cloneValue(item)
		}
		return out
	default:
		return t
	}
}
