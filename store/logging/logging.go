// Package logging implements a store that delegates everything to a nested store,
// logging operations as they happen.
package logging

import (
	"context"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"

	"github.com/bobg/wayback"
	"github.com/bobg/wayback/store"
)

var _ store.Store = &Store{}

type Store struct {
	s      store.Store
	logger *logrus.Logger
}

// New produces a Store that logs to logger.
// If logger is nil, the logrus standard logger is used.
func New(s store.Store, logger *logrus.Logger) *Store {
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	return &Store{s: s, logger: logger}
}

func (s *Store) Load(ctx context.Context, name string) (*wayback.Snapshot, error) {
	snap, err := s.s.Load(ctx, name)
	log := s.logger.WithField("name", name)
	if err != nil {
		log.WithError(err).Error("Load")
	} else {
		log.WithFields(logrus.Fields{"length": snap.Len, "head": snap.Head}).Debug("Load")
	}
	return snap, err
}

func (s *Store) List(ctx context.Context, start string, f func(string) error) error {
	s.logger.WithField("start", start).Debug("List")
	return s.s.List(ctx, start, func(name string) error {
		err := f(name)
		log := s.logger.WithField("name", name)
		if err != nil {
			log.WithError(err).Error("  in List")
		} else {
			log.Debug("  List")
		}
		return err
	})
}

func (s *Store) Save(ctx context.Context, name string, snap *wayback.Snapshot) error {
	err := s.s.Save(ctx, name, snap)
	log := s.logger.WithFields(logrus.Fields{"name": name, "length": snap.Len, "head": snap.Head})
	if err != nil {
		log.WithError(err).Error("Save")
	} else {
		log.Info("Save")
	}
	return err
}

func (s *Store) Delete(ctx context.Context, name string) error {
	err := s.s.Delete(ctx, name)
	log := s.logger.WithField("name", name)
	if err != nil {
		log.WithError(err).Error("Delete")
	} else {
		log.Info("Delete")
	}
	return err
}

func init() {
	store.Register("logging", func(ctx context.Context, conf map[string]interface{}) (store.Store, error) {
		nestedStore, err := store.Nested(ctx, conf, "nested")
		if err != nil {
			return nil, errors.Wrap(err, "creating nested store")
		}
		return New(nestedStore, nil), nil
	})
}
