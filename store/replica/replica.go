// Package replica implements a history store that keeps the same histories in several nested stores.
package replica

import (
	"context"
	"encoding/json"
	"sync"

	"github.com/pkg/errors"
	"golang.org/x/sync/errgroup"

	"github.com/bobg/wayback"
	"github.com/bobg/wayback/store"
)

var _ store.Store = (*Store)(nil)

// Store is a history store that delegates reads and writes to two sets of nested stores.
// One set is synchronous:
// writes to all of these must succeed before a call to Save or Delete returns,
// and an error from any will cause the call to fail.
// The other set is asynchronous:
// a call to Save or Delete queues writes on these stores but does not wait for them to finish.
// However, if any asynchronous write encounters an error,
// the whole Store is put into an error state and further operations will fail.
type Store struct {
	sync   []store.Store
	async  []chan<- op
	cancel context.CancelFunc

	mu  sync.Mutex // protects err
	err error      // the error from an async goroutine, if any
}

// An op is a write queued for an asynchronous store.
// A nil snap means delete.
type op struct {
	name string
	snap *wayback.Snapshot
}

// New produces a new Store.
// The set of synchronous stores must be non-empty.
// The set of asynchronous stores may be empty.
// If there are any asynchronous stores,
// goroutines are launched for them,
// and canceling the given context object causes those to exit,
// placing the Store in an error state.
//
// The queue for each asynchronous store has a fixed length given by n,
// which must be 1 or greater.
// If any async store falls too far behind,
// Save and Delete block until all requests can be queued.
func New(ctx context.Context, sync []store.Store, async []store.Store, n int) *Store {
	result := &Store{sync: sync}

	if len(async) > 0 {
		ctx, result.cancel = context.WithCancel(ctx)

		errs := make(chan error, len(async))
		for _, a := range async {
			var (
				ops = make(chan op, n)
				a   = a
			)
			result.async = append(result.async, ops)
			go func() {
				errs <- runAsync(ctx, a, ops)
			}()
		}

		go func() {
			err := <-errs
			result.cancel()
			result.mu.Lock()
			result.err = err
			result.mu.Unlock()
		}()
	}

	return result
}

// Runs until ctx is canceled or an error occurs.
func runAsync(ctx context.Context, s store.Store, ops <-chan op) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()

		case o := <-ops:
			var err error
			if o.snap == nil {
				err = s.Delete(ctx, o.name)
			} else {
				err = s.Save(ctx, o.name, o.snap)
			}
			if err != nil {
				return errors.Wrapf(err, "replicating %s", o.name)
			}
		}
	}
}

// Save stores snap in all synchronous nested stores.
// An error from any of them causes Save to return an error.
// A copy of snap is queued for any asynchronous nested stores.
func (s *Store) Save(ctx context.Context, name string, snap *wayback.Snapshot) error {
	return s.write(ctx, op{name: name, snap: snap.Clone()}, func(ctx context.Context, nested store.Store) error {
		return nested.Save(ctx, name, snap)
	})
}

// Delete removes name from all nested stores,
// synchronously or asynchronously as with Save.
func (s *Store) Delete(ctx context.Context, name string) error {
	return s.write(ctx, op{name: name}, func(ctx context.Context, nested store.Store) error {
		return nested.Delete(ctx, name)
	})
}

func (s *Store) write(ctx context.Context, o op, f func(context.Context, store.Store) error) error {
	if err := s.checkErr(); err != nil {
		return errors.Wrap(err, "in async-store goroutine")
	}

	g, gctx := errgroup.WithContext(ctx)
	for _, nested := range s.sync {
		nested := nested
		g.Go(func() error { return f(gctx, nested) })
	}

	for _, a := range s.async {
		select {
		case <-ctx.Done():
			g.Wait()
			return ctx.Err()
		case a <- o:
		}
	}

	err := g.Wait()
	if err != nil && s.cancel != nil {
		s.cancel()
	}
	return err
}

// Load delegates the request to all of the synchronous stores in s,
// returning the result from the first one to respond without error
// and canceling the request to the others.
// If all synchronous stores respond with an error,
// one of those errors is returned,
// preferring one that is not store.ErrNotFound.
func (s *Store) Load(ctx context.Context, name string) (*wayback.Snapshot, error) {
	if err := s.checkErr(); err != nil {
		return nil, errors.Wrap(err, "in async-store goroutine")
	}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	type result struct {
		snap *wayback.Snapshot
		err  error
	}

	ch := make(chan result, len(s.sync))
	for _, nested := range s.sync {
		nested := nested
		go func() {
			snap, err := nested.Load(ctx, name)
			ch <- result{snap: snap, err: err}
		}()
	}

	err := store.ErrNotFound
	for range s.sync {
		r := <-ch
		if r.err == nil {
			return r.snap, nil
		}
		if !errors.Is(r.err, store.ErrNotFound) {
			err = r.err
		}
	}
	return nil, err
}

// List delegates the request to all of the synchronous stores in s
// and synthesizes the result from the union of their names.
func (s *Store) List(ctx context.Context, start string, f func(string) error) error {
	if err := s.checkErr(); err != nil {
		return errors.Wrap(err, "in async-store goroutine")
	}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	g, ctx := errgroup.WithContext(ctx)

	chans := make([]chan string, len(s.sync))
	for i, nested := range s.sync {
		var (
			ch     = make(chan string, 1)
			nested = nested
		)
		chans[i] = ch
		g.Go(func() error {
			defer close(ch)
			return nested.List(ctx, start, func(name string) error {
				select {
				case <-ctx.Done():
					return ctx.Err()
				case ch <- name:
					return nil
				}
			})
		})
	}

	type head struct {
		name string
		ok   bool
	}
	heads := make([]head, len(chans))
	for i, ch := range chans {
		heads[i].name, heads[i].ok = <-ch
	}

	for {
		best := -1
		for i, hd := range heads {
			if !hd.ok {
				continue
			}
			if best < 0 || hd.name < heads[best].name {
				best = i
			}
		}
		if best < 0 {
			break
		}
		name := heads[best].name
		if err := f(name); err != nil {
			cancel()
			g.Wait()
			return err
		}
		// Advance every stream that produced this name.
		for i := range heads {
			if heads[i].ok && heads[i].name == name {
				heads[i].name, heads[i].ok = <-chans[i]
			}
		}
	}

	return g.Wait()
}

func (s *Store) checkErr() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.err
}

func init() {
	store.Register("replica", func(ctx context.Context, conf map[string]interface{}) (store.Store, error) {
		syncStores, err := nestedList(ctx, conf, "sync")
		if err != nil {
			return nil, err
		}
		if len(syncStores) == 0 {
			return nil, errors.New(`missing "sync" parameter`)
		}
		asyncStores, err := nestedList(ctx, conf, "async")
		if err != nil {
			return nil, err
		}

		queueLen := int64(10)
		if queueLenNum, ok := conf["queuelen"].(json.Number); ok {
			queueLen, err = queueLenNum.Int64()
			if err != nil {
				return nil, errors.Wrapf(err, "parsing queue length %v", queueLenNum)
			}
		}

		return New(ctx, syncStores, asyncStores, int(queueLen)), nil
	})
}

// A list decoded from JSON is []interface{},
// while one built in code may be []map[string]interface{}.
func nestedList(ctx context.Context, conf map[string]interface{}, key string) ([]store.Store, error) {
	var items []map[string]interface{}
	switch v := conf[key].(type) {
	case nil:
		return nil, nil
	case []map[string]interface{}:
		items = v
	case []interface{}:
		for _, item := range v {
			m, ok := item.(map[string]interface{})
			if !ok {
				return nil, errors.Errorf("%q item is a %T, not an object", key, item)
			}
			items = append(items, m)
		}
	default:
		return nil, errors.Errorf("%q parameter is a %T, not a list", key, v)
	}

	var result []store.Store
	for _, nested := range items {
		nestedType, ok := nested["type"].(string)
		if !ok {
			return nil, errors.Errorf("%q item missing \"type\"", key)
		}
		nestedStore, err := store.Create(ctx, nestedType, nested)
		if err != nil {
			return nil, errors.Wrapf(err, "creating nested %s store", key)
		}
		result = append(result, nestedStore)
	}
	return result, nil
}
