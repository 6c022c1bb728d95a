package main

import (
	"context"
	"fmt"
	"io/ioutil"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"

	"github.com/bobg/wayback"
)

func (c maincmd) push(ctx context.Context, _ []string) error {
	data, err := ioutil.ReadAll(c.stdin)
	if err != nil {
		return errors.Wrap(err, "reading stdin")
	}

	var id wayback.ID
	err = c.update(ctx, func(h *wayback.History) error {
		var err error
		id, err = h.Push(data)
		return errors.Wrap(err, "pushing")
	})
	if err != nil {
		return err
	}

	c.logger.WithFields(logrus.Fields{"name": c.name, "id": id}).Debug("pushed")
	fmt.Fprintln(c.stdout, id)
	return nil
}

func (c maincmd) insert(ctx context.Context, parent string, _ []string) error {
	if parent == "" {
		return errors.New("missing -parent")
	}

	data, err := ioutil.ReadAll(c.stdin)
	if err != nil {
		return errors.Wrap(err, "reading stdin")
	}

	var id, oldHead, newHead wayback.ID
	err = c.update(ctx, func(h *wayback.History) error {
		oldHead = h.Head()
		var err error
		id, err = h.Insert(wayback.ID(parent), data)
		newHead = h.Head()
		return errors.Wrapf(err, "inserting after %s", parent)
	})
	if err != nil {
		return err
	}

	c.logger.WithFields(logrus.Fields{
		"name":     c.name,
		"id":       id,
		"old_head": oldHead,
		"new_head": newHead,
	}).Debug("inserted")
	fmt.Fprintln(c.stdout, id)
	return nil
}

func (c maincmd) pop(ctx context.Context, _ []string) error {
	var rev wayback.Revision
	err := c.update(ctx, func(h *wayback.History) error {
		var err error
		_, rev, err = h.Pop()
		return errors.Wrap(err, "popping")
	})
	if err != nil {
		return err
	}

	_, err = c.stdout.Write(rev.Data)
	return errors.Wrap(err, "writing payload")
}

func (c maincmd) doImport(ctx context.Context, format string, _ []string) error {
	cd, err := codecByName(format)
	if err != nil {
		return err
	}

	b, err := ioutil.ReadAll(c.stdin)
	if err != nil {
		return errors.Wrap(err, "reading stdin")
	}
	snap, err := cd.Unmarshal(b)
	if err != nil {
		return errors.Wrap(err, "decoding snapshot")
	}

	h := wayback.New(c.opts)
	err = h.Import(snap)
	if err != nil {
		return errors.Wrap(err, "importing snapshot")
	}

	err = c.s.Save(ctx, c.name, h.Export())
	return errors.Wrapf(err, "saving %s", c.name)
}
