// Package memory is an in-process document store. Transactions hold the store
// lock for their whole duration, so they are serializable.
package memory

import (
	"context"
	"sort"
	"sync"

	"eventbudget/internal/storage"
)

type Store struct {
	mu   sync.Mutex
	docs map[string][]byte

	// commitErr, when set, makes every commit fail. Used to simulate store
	// outages.
	commitErr error
}

var _ storage.Store = (*Store)(nil)

func New() *Store {
	return &Store{docs: make(map[string][]byte)}
}

// FailCommits makes subsequent commits return err until called with nil.
func (s *Store) FailCommits(err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.commitErr = err
}

func (s *Store) Get(_ context.Context, path string) ([]byte, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return get(s.docs, nil, path)
}

func (s *Store) List(_ context.Context, collection string) ([]storage.Document, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return list(s.docs, nil, collection), nil
}

func (s *Store) RunTransaction(ctx context.Context, fn func(ctx context.Context, tx storage.Tx) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	t := &tx{base: s.docs, writes: make(map[string]write)}
	if err := fn(ctx, t); err != nil {
		return err
	}
	if s.commitErr != nil {
		return s.commitErr
	}
	for path, w := range t.writes {
		if w.deleted {
			delete(s.docs, path)
			continue
		}
		s.docs[path] = w.data
	}
	return nil
}

func (s *Store) Close() error {
	return nil
}

// Len returns the number of stored documents.
func (s *Store) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.docs)
}

type write struct {
	data    []byte
	deleted bool
}

type tx struct {
	base   map[string][]byte
	writes map[string]write
}

func (t *tx) Get(_ context.Context, path string) ([]byte, error) {
	return get(t.base, t.writes, path)
}

func (t *tx) List(_ context.Context, collection string) ([]storage.Document, error) {
	return list(t.base, t.writes, collection), nil
}

func (t *tx) Set(_ context.Context, path string, data []byte) error {
	t.writes[path] = write{data: append([]byte(nil), data...)}
	return nil
}

func (t *tx) Delete(_ context.Context, path string) error {
	t.writes[path] = write{deleted: true}
	return nil
}

func get(base map[string][]byte, overlay map[string]write, path string) ([]byte, error) {
	if w, ok := overlay[path]; ok {
		if w.deleted {
			return nil, storage.ErrNotFound
		}
		return append([]byte(nil), w.data...), nil
	}
	data, ok := base[path]
	if !ok {
		return nil, storage.ErrNotFound
	}
	return append([]byte(nil), data...), nil
}

func list(base map[string][]byte, overlay map[string]write, collection string) []storage.Document {
	merged := make(map[string][]byte)
	for path, data := range base {
		if storage.Parent(path) == collection {
			merged[path] = data
		}
	}
	for path, w := range overlay {
		if storage.Parent(path) != collection {
			continue
		}
		if w.deleted {
			delete(merged, path)
			continue
		}
		merged[path] = w.data
	}
	out := make([]storage.Document, 0, len(merged))
	for path, data := range merged {
		out = append(out, storage.Document{Path: path, Data: append([]byte(nil), data...)})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Path < out[j].Path })
	return out
}
