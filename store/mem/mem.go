// Package mem implements an in-memory history store.
package mem

import (
	"context"
	"sort"
	"sync"

	"github.com/bobg/wayback"
	"github.com/bobg/wayback/store"
)

var _ store.Store = &Store{}

// Store is a memory-based implementation of a history store.
type Store struct {
	mu        sync.Mutex
	snapshots map[string]*wayback.Snapshot
}

// New produces a new Store.
func New() *Store {
	return &Store{
		snapshots: make(map[string]*wayback.Snapshot),
	}
}

// Load gets the snapshot stored under name.
func (s *Store) Load(_ context.Context, name string) (*wayback.Snapshot, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if snap, ok := s.snapshots[name]; ok {
		return snap.Clone(), nil
	}
	return nil, store.ErrNotFound
}

// Save stores a copy of snap under name.
func (s *Store) Save(_ context.Context, name string, snap *wayback.Snapshot) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.snapshots[name] = snap.Clone()
	return nil
}

// Delete removes the snapshot stored under name.
func (s *Store) Delete(_ context.Context, name string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.snapshots, name)
	return nil
}

// List produces the names in the store after start, in lexicographic order.
func (s *Store) List(ctx context.Context, start string, f func(string) error) error {
	s.mu.Lock()
	names := make([]string, 0, len(s.snapshots))
	for name := range s.snapshots {
		names = append(names, name)
	}
	s.mu.Unlock()

	sort.Strings(names)
	index := sort.Search(len(names), func(n int) bool {
		return names[n] > start
	})

	for i := index; i < len(names); i++ {
		err := f(names[i])
		if err != nil {
			return err
		}
	}
	return nil
}

func init() {
	store.Register("mem", func(context.Context, map[string]interface{}) (store.Store, error) {
		return New(), nil
	})
}
