// Package lru implements a history store that acts as a least-recently-used cache for a nested history store.
package lru

import (
	"context"
	"encoding/json"

	lru "github.com/hashicorp/golang-lru"
	"github.com/pkg/errors"

	"github.com/bobg/wayback"
	"github.com/bobg/wayback/store"
)

var _ store.Store = &Store{}

// Store implements a memory-based least-recently-used cache for a history store.
// Writes pass through to the underlying store.
// It caches loaded and saved snapshots but not listings.
type Store struct {
	c *lru.Cache // name -> *wayback.Snapshot
	s store.Store
}

// New produces a new Store backed by `s` and caching up to `size` snapshots.
func New(s store.Store, size int) (*Store, error) {
	c, err := lru.New(size)
	return &Store{s: s, c: c}, err
}

// Load gets the snapshot stored under name.
func (s *Store) Load(ctx context.Context, name string) (*wayback.Snapshot, error) {
	if got, ok := s.c.Get(name); ok {
		return got.(*wayback.Snapshot).Clone(), nil
	}
	snap, err := s.s.Load(ctx, name)
	if err != nil {
		return nil, err
	}
	s.c.Add(name, snap.Clone())
	return snap, nil
}

// Save stores snap under name.
func (s *Store) Save(ctx context.Context, name string, snap *wayback.Snapshot) error {
	err := s.s.Save(ctx, name, snap)
	if err != nil {
		// The nested store's state is unknown.
		s.c.Remove(name)
		return err
	}
	s.c.Add(name, snap.Clone())
	return nil
}

// Delete removes the snapshot stored under name.
func (s *Store) Delete(ctx context.Context, name string) error {
	s.c.Remove(name)
	return s.s.Delete(ctx, name)
}

// List produces the names in the nested store after start, in lexicographic order.
func (s *Store) List(ctx context.Context, start string, f func(string) error) error {
	return s.s.List(ctx, start, f)
}

func init() {
	store.Register("lru", func(ctx context.Context, conf map[string]interface{}) (store.Store, error) {
		size, err := intParam(conf, "size")
		if err != nil {
			return nil, err
		}
		nestedStore, err := store.Nested(ctx, conf, "nested")
		if err != nil {
			return nil, errors.Wrap(err, "creating nested store")
		}
		return New(nestedStore, size)
	})
}

// Config files are decoded with UseNumber,
// but a conf map built in code may hold a plain int.
func intParam(conf map[string]interface{}, key string) (int, error) {
	switch v := conf[key].(type) {
	case int:
		return v, nil
	case float64:
		return int(v), nil
	case json.Number:
		n, err := v.Int64()
		return int(n), errors.Wrapf(err, "parsing %q parameter", key)
	}
	return 0, errors.Errorf("missing %q parameter", key)
}
