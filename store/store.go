// Package store describes persistent storage for wayback histories.
//
// A store holds snapshots of any number of histories,
// each under its own name.
// Implementations live in subpackages
// and register themselves with Register,
// so that a program can choose one with Create
// from a parsed config file.
package store

import (
	"context"

	"github.com/pkg/errors"

	"github.com/bobg/wayback"
)

// Getter is a read-only Store (qv).
type Getter interface {
	// Load gets the snapshot stored under name.
	// If there is none, the error is ErrNotFound.
	Load(ctx context.Context, name string) (*wayback.Snapshot, error)

	// List calls a function for each name in the store in lexicographic order,
	// beginning with the first name _after_ the specified one.
	//
	// If the callback function returns an error,
	// List exits with that error.
	List(ctx context.Context, start string, f func(name string) error) error
}

// Store is a store of named history snapshots.
type Store interface {
	Getter

	// Save stores s under name,
	// replacing any snapshot already there.
	Save(ctx context.Context, name string, s *wayback.Snapshot) error

	// Delete removes the snapshot stored under name.
	// It is not an error if there is none.
	Delete(ctx context.Context, name string) error
}

// ErrNotFound is the error returned
// when a Getter tries to access a non-existent name.
var ErrNotFound = errors.New("not found")
