// Package file implements a history store as a directory of files.
package file

import (
	"context"
	"encoding/hex"
	"os"
	"path/filepath"
	"sort"

	"github.com/bobg/flock"
	"github.com/pkg/errors"

	"github.com/bobg/wayback"
	"github.com/bobg/wayback/codec"
	"github.com/bobg/wayback/store"
)

var _ store.Store = &Store{}

// Store is a file-based implementation of a history store.
// Each history is a file beneath the root directory,
// named by the hex encoding of the history's name.
// A lock file in the root serializes access
// among processes sharing the directory.
type Store struct {
	root    string
	codec   codec.Codec
	flocker flock.Locker
}

// New produces a new Store storing data beneath `root`.
// Snapshots are encoded with c,
// or with codec.Proto if c is nil.
func New(root string, c codec.Codec) *Store {
	if c == nil {
		c = codec.Proto{}
	}
	return &Store{root: root, codec: c}
}

func (s *Store) histroot() string {
	return filepath.Join(s.root, "histories")
}

func (s *Store) histpath(name string) string {
	return filepath.Join(s.histroot(), hex.EncodeToString([]byte(name)))
}

func (s *Store) lockpath() string {
	return filepath.Join(s.root, "lock")
}

func (s *Store) lock() error {
	err := os.MkdirAll(s.histroot(), 0755)
	if err != nil {
		return errors.Wrapf(err, "ensuring %s exists", s.histroot())
	}
	return errors.Wrap(s.flocker.Lock(s.lockpath()), "locking store")
}

func (s *Store) unlock() error {
	return s.flocker.Unlock(s.lockpath())
}

// Load gets the snapshot stored under name.
func (s *Store) Load(_ context.Context, name string) (*wayback.Snapshot, error) {
	err := s.lock()
	if err != nil {
		return nil, err
	}
	defer s.unlock()

	path := s.histpath(name)
	b, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return nil, store.ErrNotFound
	}
	if err != nil {
		return nil, errors.Wrapf(err, "reading %s", path)
	}
	snap, err := s.codec.Unmarshal(b)
	return snap, errors.Wrapf(err, "decoding %s", path)
}

// Save stores snap under name.
// The file is replaced atomically.
func (s *Store) Save(_ context.Context, name string, snap *wayback.Snapshot) error {
	b, err := s.codec.Marshal(snap)
	if err != nil {
		return errors.Wrap(err, "encoding snapshot")
	}

	err = s.lock()
	if err != nil {
		return err
	}
	defer s.unlock()

	f, err := os.CreateTemp(s.histroot(), "tmp-")
	if err != nil {
		return errors.Wrap(err, "creating temp file")
	}
	tmpname := f.Name()
	defer os.Remove(tmpname) // no-op after a successful rename

	_, err = f.Write(b)
	if err != nil {
		f.Close()
		return errors.Wrapf(err, "writing %s", tmpname)
	}
	err = f.Close()
	if err != nil {
		return errors.Wrapf(err, "closing %s", tmpname)
	}

	path := s.histpath(name)
	err = os.Rename(tmpname, path)
	return errors.Wrapf(err, "renaming %s to %s", tmpname, path)
}

// Delete removes the snapshot stored under name.
func (s *Store) Delete(_ context.Context, name string) error {
	err := s.lock()
	if err != nil {
		return err
	}
	defer s.unlock()

	path := s.histpath(name)
	err = os.Remove(path)
	if errors.Is(err, os.ErrNotExist) {
		return nil
	}
	return errors.Wrapf(err, "removing %s", path)
}

// List produces the names in the store after start, in lexicographic order.
func (s *Store) List(ctx context.Context, start string, f func(string) error) error {
	names, err := s.names()
	if err != nil {
		return err
	}

	index := sort.Search(len(names), func(n int) bool {
		return names[n] > start
	})
	for i := index; i < len(names); i++ {
		err = f(names[i])
		if err != nil {
			return err
		}
	}
	return nil
}

func (s *Store) names() ([]string, error) {
	err := s.lock()
	if err != nil {
		return nil, err
	}
	defer s.unlock()

	entries, err := os.ReadDir(s.histroot())
	if err != nil {
		return nil, errors.Wrapf(err, "reading dir %s", s.histroot())
	}

	var names []string
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		name, err := hex.DecodeString(entry.Name())
		if err != nil {
			// Not one of ours, e.g. a leftover temp file.
			continue
		}
		names = append(names, string(name))
	}
	sort.Strings(names)
	return names, nil
}

func init() {
	store.Register("file", func(_ context.Context, conf map[string]interface{}) (store.Store, error) {
		root, ok := conf["root"].(string)
		if !ok {
			return nil, errors.New(`missing "root" parameter`)
		}
		var c codec.Codec
		if name, ok := conf["codec"].(string); ok {
			var err error
			c, err = codec.ByName(name)
			if err != nil {
				return nil, err
			}
		}
		return New(root, c), nil
	})
}
