package lru

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/bobg/wayback/store"
	"github.com/bobg/wayback/store/mem"
	"github.com/bobg/wayback/testutil"
)

func TestStore(t *testing.T) {
	s, err := New(mem.New(), 1000)
	if err != nil {
		t.Fatal(err)
	}
	testutil.Histories(context.Background(), t, s)
}

func TestSmallCache(t *testing.T) {
	s, err := New(mem.New(), 1)
	if err != nil {
		t.Fatal(err)
	}
	testutil.Histories(context.Background(), t, s)
}

func TestCacheIsolation(t *testing.T) {
	var (
		ctx    = context.Background()
		nested = mem.New()
	)
	s, err := New(nested, 10)
	if err != nil {
		t.Fatal(err)
	}

	snap := testutil.Sample(t, 2).Export()
	if err := s.Save(ctx, "h", snap); err != nil {
		t.Fatal(err)
	}
	got, err := s.Load(ctx, "h")
	if err != nil {
		t.Fatal(err)
	}
	got.Head = "scribbled"

	again, err := s.Load(ctx, "h")
	if err != nil {
		t.Fatal(err)
	}
	if again.Head != snap.Head {
		t.Errorf("cached snapshot was modified: head %s, want %s", again.Head, snap.Head)
	}

	// Served from cache even when the nested store has lost it.
	if err := nested.Delete(ctx, "h"); err != nil {
		t.Fatal(err)
	}
	if _, err := s.Load(ctx, "h"); err != nil {
		t.Errorf("got error %v, want cached snapshot", err)
	}
}

func TestRegistry(t *testing.T) {
	ctx := context.Background()
	conf := map[string]interface{}{
		"type":   "lru",
		"size":   json.Number("5"),
		"nested": map[string]interface{}{"type": "mem"},
	}
	s, err := store.Create(ctx, "lru", conf)
	if err != nil {
		t.Fatal(err)
	}
	if _, ok := s.(*Store); !ok {
		t.Errorf("got %T, want *Store", s)
	}

	delete(conf, "size")
	if _, err := store.Create(ctx, "lru", conf); err == nil {
		t.Error("got no error without size")
	}
}
