package sqlite3

import (
	"context"
	"database/sql"
	"os"
	"testing"

	"github.com/bobg/wayback/testutil"
)

func TestStore(t *testing.T) {
	ctx := context.Background()
	err := withTestStore(ctx, func(s *Store) error {
		testutil.Histories(ctx, t, s)
		return nil
	})
	if err != nil {
		t.Fatal(err)
	}
}

func withTestStore(ctx context.Context, fn func(*Store) error) error {
	f, err := os.CreateTemp("", "waybacksqlite3test")
	if err != nil {
		return err
	}

	tmpfile := f.Name()
	f.Close()
	defer os.Remove(tmpfile)

	db, err := sql.Open("sqlite3", tmpfile)
	if err != nil {
		return err
	}
	defer db.Close()

	s, err := New(ctx, db)
	if err != nil {
		return err
	}

	return fn(s)
}
