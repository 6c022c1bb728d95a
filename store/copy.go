package store

import (
	"context"

	"github.com/pkg/errors"
	"golang.org/x/sync/errgroup"
)

// Copy copies every history in src to dst,
// replacing any that dst already has under the same names.
// Listing src and writing to dst proceed concurrently.
func Copy(ctx context.Context, dst Store, src Getter) error {
	var (
		eg, ctx2 = errgroup.WithContext(ctx)
		names    = make(chan string)
	)

	eg.Go(func() error {
		defer close(names)
		return src.List(ctx2, "", func(name string) error {
			select {
			case <-ctx2.Done():
				return ctx2.Err()
			case names <- name:
			}
			return nil
		})
	})

	eg.Go(func() error {
		for name := range names {
			s, err := src.Load(ctx2, name)
			if errors.Is(err, ErrNotFound) {
				// Deleted since it was listed.
				continue
			}
			if err != nil {
				return errors.Wrapf(err, "loading %s", name)
			}
			err = dst.Save(ctx2, name, s)
			if err != nil {
				return errors.Wrapf(err, "saving %s", name)
			}
		}
		return nil
	})

	return eg.Wait()
}
