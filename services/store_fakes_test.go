package services

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"salesquote/store"
)

var errInjected = errors.New("injected store failure")

func nopLogger() zerolog.Logger { return zerolog.New(io.Discard) }

// memStore is an in-memory store.Store. Rows keep insertion order and get a
// strictly increasing "created" time.
type memStore struct {
	mu    sync.Mutex
	seq   int
	clock time.Time
	rows  map[string][]store.Record
}

func newMemStore() *memStore {
	return &memStore{
		rows:  make(map[string][]store.Record),
		clock: time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC),
	}
}

func matches(r store.Record, f store.Filter) bool {
	for k, v := range f {
		if fmt.Sprint(r.Data[k]) != fmt.Sprint(v) {
			return false
		}
	}
	return true
}

func (m *memStore) Query(ctx context.Context, collection string, filter store.Filter, fields ...string) ([]store.Record, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []store.Record
	for _, r := range m.rows[collection] {
		if !matches(r, filter) {
			continue
		}
		data := make(map[string]any, len(r.Data))
		for k, v := range r.Data {
			data[k] = v
		}
		out = append(out, store.Record{ID: r.ID, Data: data})
	}
	return out, nil
}

func (m *memStore) Insert(ctx context.Context, collection string, data map[string]any) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.seq++
	m.clock = m.clock.Add(time.Second)
	id := fmt.Sprintf("%s_%d", collection, m.seq)
	row := store.Record{ID: id, Data: map[string]any{"created": m.clock}}
	for k, v := range data {
		row.Data[k] = v
	}
	m.rows[collection] = append(m.rows[collection], row)
	return id, nil
}

func (m *memStore) UpdateByID(ctx context.Context, collection, id string, data map[string]any) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, r := range m.rows[collection] {
		if r.ID == id {
			for k, v := range data {
				r.Data[k] = v
			}
			return nil
		}
	}
	return fmt.Errorf("%s/%s: %w", collection, id, store.ErrNotFound)
}

func (m *memStore) DeleteByID(ctx context.Context, collection, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	rows := m.rows[collection]
	for i, r := range rows {
		if r.ID == id {
			m.rows[collection] = append(rows[:i], rows[i+1:]...)
			return nil
		}
	}
	return fmt.Errorf("%s/%s: %w", collection, id, store.ErrNotFound)
}

// get returns the stored row by id (not a copy).
func (m *memStore) get(collection, id string) store.Record {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, r := range m.rows[collection] {
		if r.ID == id {
			return r
		}
	}
	return store.Record{}
}

func (m *memStore) count(collection string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.rows[collection])
}

// faultyStore fails selected operations and counts writes.
type faultyStore struct {
	store.Store

	mu         sync.Mutex
	failQuery  func(collection string, filter store.Filter) bool
	failInsert map[string]bool
	failUpdate map[string]bool
	writes     int
	queried    map[string]int
}

func newFaultyStore(inner store.Store) *faultyStore {
	return &faultyStore{
		Store:      inner,
		failInsert: map[string]bool{},
		failUpdate: map[string]bool{},
		queried:    map[string]int{},
	}
}

func (f *faultyStore) Query(ctx context.Context, collection string, filter store.Filter, fields ...string) ([]store.Record, error) {
	f.mu.Lock()
	f.queried[collection]++
	fail := f.failQuery != nil && f.failQuery(collection, filter)
	f.mu.Unlock()
	if fail {
		return nil, fmt.Errorf("query %s: %w", collection, errInjected)
	}
	return f.Store.Query(ctx, collection, filter, fields...)
}

func (f *faultyStore) Insert(ctx context.Context, collection string, data map[string]any) (string, error) {
	f.mu.Lock()
	f.writes++
	fail := f.failInsert[collection]
	f.mu.Unlock()
	if fail {
		return "", fmt.Errorf("insert %s: %w", collection, errInjected)
	}
	return f.Store.Insert(ctx, collection, data)
}

func (f *faultyStore) UpdateByID(ctx context.Context, collection, id string, data map[string]any) error {
	f.mu.Lock()
	f.writes++
	fail := f.failUpdate[collection]
	f.mu.Unlock()
	if fail {
		return fmt.Errorf("update %s/%s: %w", collection, id, errInjected)
	}
	return f.Store.UpdateByID(ctx, collection, id, data)
}

func (f *faultyStore) DeleteByID(ctx context.Context, collection, id string) error {
	f.mu.Lock()
	f.writes++
	f.mu.Unlock()
	return f.Store.DeleteByID(ctx, collection, id)
}

func (f *faultyStore) writeCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.writes
}

func (f *faultyStore) queryCount(collection string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.queried[collection]
}
