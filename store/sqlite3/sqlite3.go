// Package sqlite3 implements a history store in a Sqlite database.
package sqlite3

import (
	"context"
	"database/sql"
	stderrs "errors"

	"github.com/bobg/sqlutil"
	_ "github.com/mattn/go-sqlite3" // register the sqlite3 type for sql.Open
	"github.com/pkg/errors"

	"github.com/bobg/wayback"
	"github.com/bobg/wayback/codec"
	"github.com/bobg/wayback/store"
)

var _ store.Store = &Store{}

// Store is a Sqlite-based history store.
type Store struct {
	db *sql.DB
}

// Schema is the SQL that New executes.
// It creates the `histories` table if it does not exist.
// (If it does exist, it must have the columns and constraints described here.)
const Schema = `
CREATE TABLE IF NOT EXISTS histories (
  name TEXT PRIMARY KEY NOT NULL,
  snapshot BLOB NOT NULL
);
`

// New produces a new Store using `db` for storage.
// It expects to create table `histories`,
// or for that table already to exist with the correct schema.
// (See variable Schema.)
func New(ctx context.Context, db *sql.DB) (*Store, error) {
	_, err := db.ExecContext(ctx, Schema)
	return &Store{db: db}, err
}

// Load gets the snapshot stored under name.
func (s *Store) Load(ctx context.Context, name string) (*wayback.Snapshot, error) {
	const q = `SELECT snapshot FROM histories WHERE name = $1`

	var b []byte
	err := s.db.QueryRowContext(ctx, q, name).Scan(&b)
	if stderrs.Is(err, sql.ErrNoRows) {
		return nil, store.ErrNotFound
	}
	if err != nil {
		return nil, errors.Wrapf(err, "querying history %s", name)
	}
	snap, err := codec.Proto{}.Unmarshal(b)
	return snap, errors.Wrapf(err, "decoding history %s", name)
}

// Save stores snap under name.
func (s *Store) Save(ctx context.Context, name string, snap *wayback.Snapshot) error {
	const q = `INSERT INTO histories (name, snapshot) VALUES ($1, $2)
		ON CONFLICT (name) DO UPDATE SET snapshot = excluded.snapshot`

	b, err := codec.Proto{}.Marshal(snap)
	if err != nil {
		return errors.Wrap(err, "encoding snapshot")
	}
	_, err = s.db.ExecContext(ctx, q, name, b)
	return errors.Wrapf(err, "storing history %s", name)
}

// Delete removes the snapshot stored under name.
func (s *Store) Delete(ctx context.Context, name string) error {
	const q = `DELETE FROM histories WHERE name = $1`

	_, err := s.db.ExecContext(ctx, q, name)
	return errors.Wrapf(err, "deleting history %s", name)
}

// List produces the names in the store after start, in lexicographic order.
func (s *Store) List(ctx context.Context, start string, f func(string) error) error {
	const q = `SELECT name FROM histories WHERE name > $1 ORDER BY name`
	return sqlutil.ForQueryRows(ctx, s.db, q, start, f)
}

func init() {
	store.Register("sqlite3", func(ctx context.Context, conf map[string]interface{}) (store.Store, error) {
		conn, ok := conf["conn"].(string)
		if !ok {
			return nil, errors.New(`missing "conn" parameter`)
		}
		db, err := sql.Open("sqlite3", conn)
		if err != nil {
			return nil, errors.Wrap(err, "opening db")
		}
		return New(ctx, db)
	})
}
