package main

import (
	"context"
	"fmt"

	"github.com/pkg/errors"

	"github.com/bobg/wayback"
	"github.com/bobg/wayback/codec"
)

// idArg opens the history,
// requiring exactly one positional argument: a revision ID.
func (c maincmd) idArg(ctx context.Context, args []string) (*wayback.History, wayback.ID, error) {
	if len(args) != 1 {
		return nil, wayback.Zero, errors.New("usage: ID")
	}
	h, err := c.open(ctx)
	return h, wayback.ID(args[0]), err
}

func (c maincmd) get(ctx context.Context, args []string) error {
	h, id, err := c.idArg(ctx, args)
	if err != nil {
		return err
	}
	rev, err := h.Get(id)
	if err != nil {
		return err
	}
	_, err = c.stdout.Write(rev.Data)
	return errors.Wrap(err, "writing payload")
}

func (c maincmd) seq(ctx context.Context, args []string) error {
	h, id, err := c.idArg(ctx, args)
	if err != nil {
		return err
	}
	blobs, err := h.Sequence(id)
	if err != nil {
		return err
	}
	for _, b := range blobs {
		fmt.Fprintf(c.stdout, "%s\n", b)
	}
	return nil
}

func (c maincmd) has(ctx context.Context, args []string) error {
	h, id, err := c.idArg(ctx, args)
	if err != nil {
		return err
	}
	fmt.Fprintln(c.stdout, h.Has(id))
	return nil
}

func (c maincmd) origin(ctx context.Context, args []string) error {
	h, id, err := c.idArg(ctx, args)
	if err != nil {
		return err
	}
	o, err := h.Origin(id)
	if err != nil {
		return err
	}
	fmt.Fprintln(c.stdout, o)
	return nil
}

func (c maincmd) head(ctx context.Context, _ []string) error {
	h, err := c.open(ctx)
	if err != nil {
		return err
	}
	fmt.Fprintln(c.stdout, h.Head())
	return nil
}

func (c maincmd) tail(ctx context.Context, _ []string) error {
	h, err := c.open(ctx)
	if err != nil {
		return err
	}
	fmt.Fprintln(c.stdout, h.Tail())
	return nil
}

func (c maincmd) len(ctx context.Context, _ []string) error {
	h, err := c.open(ctx)
	if err != nil {
		return err
	}
	fmt.Fprintln(c.stdout, h.Len())
	return nil
}

func (c maincmd) log(ctx context.Context, _ []string) error {
	h, err := c.open(ctx)
	if err != nil {
		return err
	}
	return h.Walk(func(id wayback.ID, rev wayback.Revision) error {
		fmt.Fprintf(c.stdout, "%s %d bytes\n", id, len(rev.Data))
		return nil
	})
}

func (c maincmd) export(ctx context.Context, format string, _ []string) error {
	cd, err := codecByName(format)
	if err != nil {
		return err
	}
	h, err := c.open(ctx)
	if err != nil {
		return err
	}
	b, err := cd.Marshal(h.Export())
	if err != nil {
		return errors.Wrap(err, "encoding snapshot")
	}
	_, err = c.stdout.Write(b)
	return errors.Wrap(err, "writing snapshot")
}

func (c maincmd) ls(ctx context.Context, _ []string) error {
	return c.s.List(ctx, "", func(name string) error {
		fmt.Fprintln(c.stdout, name)
		return nil
	})
}

func codecByName(name string) (codec.Codec, error) {
	if name == "json" {
		return codec.JSON{Indent: "  "}, nil
	}
	return codec.ByName(name)
}
