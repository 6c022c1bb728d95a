package store

import (
	"context"

	"github.com/pkg/errors"

	"github.com/bobg/wayback"
)

// Open loads the history stored under name in g.
// If there is none, the result is a new, empty history.
func Open(ctx context.Context, g Getter, name string, opts *wayback.Options) (*wayback.History, error) {
	h := wayback.New(opts)

	s, err := g.Load(ctx, name)
	if errors.Is(err, ErrNotFound) {
		return h, nil
	}
	if err != nil {
		return nil, errors.Wrapf(err, "loading %s", name)
	}

	err = h.Import(s)
	if err != nil {
		return nil, errors.Wrapf(err, "importing %s", name)
	}
	return h, nil
}

// Update opens the history stored under name in s,
// calls f on it,
// and saves the result.
// If f returns an error,
// nothing is saved and Update exits with that error.
func Update(ctx context.Context, s Store, name string, opts *wayback.Options, f func(*wayback.History) error) error {
	h, err := Open(ctx, s, name, opts)
	if err != nil {
		return err
	}
	err = f(h)
	if err != nil {
		return err
	}
	err = s.Save(ctx, name, h.Export())
	return errors.Wrapf(err, "saving %s", name)
}
