// Package gcs implements a history store on Google Cloud Storage.
package gcs

import (
	"context"
	"encoding/hex"
	stderrs "errors"
	"io"
	"strings"

	"cloud.google.com/go/storage"
	"github.com/pkg/errors"
	"google.golang.org/api/iterator"
	"google.golang.org/api/option"

	"github.com/bobg/wayback"
	"github.com/bobg/wayback/codec"
	"github.com/bobg/wayback/store"
)

var _ store.Store = &Store{}

// Store is a Google Cloud Storage-based implementation of a history store.
// Each history is an object
// whose name is a prefix followed by the hex encoding of the history's name.
// Hex encoding preserves the order of names.
type Store struct {
	bucket *storage.BucketHandle
}

// New produces a new Store.
func New(bucket *storage.BucketHandle) *Store {
	return &Store{bucket: bucket}
}

const objPrefix = "h:"

func objName(name string) string {
	return objPrefix + hex.EncodeToString([]byte(name))
}

func nameFromObjName(obj string) (string, error) {
	b, err := hex.DecodeString(strings.TrimPrefix(obj, objPrefix))
	return string(b), err
}

// Load gets the snapshot stored under name.
func (s *Store) Load(ctx context.Context, name string) (*wayback.Snapshot, error) {
	obj := objName(name)
	r, err := s.bucket.Object(obj).NewReader(ctx)
	if stderrs.Is(err, storage.ErrObjectNotExist) {
		return nil, store.ErrNotFound
	}
	if err != nil {
		return nil, errors.Wrapf(err, "reading object %s", obj)
	}
	defer r.Close()

	b, err := io.ReadAll(r)
	if err != nil {
		return nil, errors.Wrapf(err, "reading contents of object %s", obj)
	}
	snap, err := codec.Proto{}.Unmarshal(b)
	return snap, errors.Wrapf(err, "decoding object %s", obj)
}

// Save stores snap under name.
func (s *Store) Save(ctx context.Context, name string, snap *wayback.Snapshot) error {
	b, err := codec.Proto{}.Marshal(snap)
	if err != nil {
		return errors.Wrap(err, "encoding snapshot")
	}

	var (
		obj = objName(name)
		w   = s.bucket.Object(obj).NewWriter(ctx)
	)
	w.ContentType = "application/x-protobuf"

	_, err = w.Write(b)
	if err != nil {
		w.Close()
		return errors.Wrapf(err, "writing object %s", obj)
	}

	// The upload is not complete until Close succeeds.
	err = w.Close()
	return errors.Wrapf(err, "finishing object %s", obj)
}

// Delete removes the snapshot stored under name.
func (s *Store) Delete(ctx context.Context, name string) error {
	obj := objName(name)
	err := s.bucket.Object(obj).Delete(ctx)
	if stderrs.Is(err, storage.ErrObjectNotExist) {
		return nil
	}
	return errors.Wrapf(err, "deleting object %s", obj)
}

// List produces the names in the store after start, in lexicographic order.
func (s *Store) List(ctx context.Context, start string, f func(string) error) error {
	var (
		after = objName(start)
		iter  = s.bucket.Objects(ctx, &storage.Query{Prefix: objPrefix})
	)
	for {
		attrs, err := iter.Next()
		if stderrs.Is(err, iterator.Done) {
			return nil
		}
		if err != nil {
			return errors.Wrap(err, "iterating over objects")
		}
		if attrs.Name <= after {
			continue
		}
		name, err := nameFromObjName(attrs.Name)
		if err != nil {
			// Not one of ours.
			continue
		}
		err = f(name)
		if err != nil {
			return err
		}
	}
}

func init() {
	store.Register("gcs", func(ctx context.Context, conf map[string]interface{}) (store.Store, error) {
		var options []option.ClientOption
		creds, ok := conf["creds"].(string)
		if !ok {
			return nil, errors.New(`missing "creds" parameter`)
		}
		bucketName, ok := conf["bucket"].(string)
		if !ok {
			return nil, errors.New(`missing "bucket" parameter`)
		}
		options = append(options, option.WithCredentialsFile(creds))
		c, err := storage.NewClient(ctx, options...)
		if err != nil {
			return nil, errors.Wrap(err, "creating cloud storage client")
		}
		return New(c.Bucket(bucketName)), nil
	})
}
