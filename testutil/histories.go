// Package testutil holds tests shared by the store implementations.
package testutil

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/bobg/wayback"
	"github.com/bobg/wayback/store"
)

// Sample builds a history with n revisions at the head
// preceded by two that were inserted out of order,
// so that its snapshot contains aliases.
func Sample(t *testing.T, n int) *wayback.History {
	t.Helper()

	h := wayback.New(nil)
	first, err := h.Push(wayback.Blob("first"))
	if err != nil {
		t.Fatal(err)
	}
	for i := 0; i < n; i++ {
		_, err = h.Push(wayback.Blob(fmt.Sprintf("revision %d", i)))
		if err != nil {
			t.Fatal(err)
		}
	}
	id, err := h.Insert(first, wayback.Blob("forgotten"))
	if err != nil {
		t.Fatal(err)
	}
	_, err = h.Insert(id, wayback.Blob("also forgotten"))
	if err != nil {
		t.Fatal(err)
	}
	return h
}

// Histories tests a store.Store implementation.
// It uses only names beginning with "testutil-",
// deleting any such that exist before it starts.
func Histories(ctx context.Context, t *testing.T, s store.Store) {
	names := []string{
		"testutil-alpha",
		"testutil-beta",
		"testutil-delta/with/slashes",
		"testutil-gamma está",
	}

	for _, name := range names {
		err := s.Delete(ctx, name)
		if err != nil {
			t.Fatal(err)
		}
	}

	_, err := s.Load(ctx, names[0])
	if !errors.Is(err, store.ErrNotFound) {
		t.Fatalf("got error %v, want %v", err, store.ErrNotFound)
	}

	want := make(map[string]*wayback.Snapshot)
	for i, name := range names {
		snap := Sample(t, i+1).Export()
		err = s.Save(ctx, name, snap)
		if err != nil {
			t.Fatal(err)
		}
		want[name] = snap.Clone()

		// Changing the saved snapshot must not change the store.
		snap.Head = "changed"
	}

	for _, name := range names {
		t.Run(fmt.Sprintf("load_%s", name), func(t *testing.T) {
			got, err := s.Load(ctx, name)
			if err != nil {
				t.Fatal(err)
			}
			if diff := cmp.Diff(want[name], got); diff != "" {
				t.Errorf("mismatch (-want +got):\n%s", diff)
			}
		})
	}

	t.Run("overwrite", func(t *testing.T) {
		h := wayback.New(nil)
		_, err := h.Push(wayback.Blob("replacement"))
		if err != nil {
			t.Fatal(err)
		}
		err = s.Save(ctx, names[0], h.Export())
		if err != nil {
			t.Fatal(err)
		}
		got, err := s.Load(ctx, names[0])
		if err != nil {
			t.Fatal(err)
		}
		if diff := cmp.Diff(h.Export(), got); diff != "" {
			t.Errorf("mismatch (-want +got):\n%s", diff)
		}
	})

	t.Run("list", func(t *testing.T) {
		sorted := append([]string(nil), names...)
		sort.Strings(sorted)

		cases := []struct {
			start string
			want  []string
		}{
			{start: "", want: sorted},
			{start: "testutil-", want: sorted},
			{start: sorted[1], want: sorted[2:]},
			{start: sorted[len(sorted)-1], want: nil},
		}
		for i, c := range cases {
			t.Run(fmt.Sprintf("case_%02d", i+1), func(t *testing.T) {
				got := listOurs(ctx, t, s, c.start, names)
				if diff := cmp.Diff(c.want, got); diff != "" {
					t.Errorf("mismatch (-want +got):\n%s", diff)
				}
			})
		}

		stop := errors.New("stop")
		var n int
		err := s.List(ctx, "", func(string) error {
			n++
			return stop
		})
		if !errors.Is(err, stop) {
			t.Errorf("got error %v, want %v", err, stop)
		}
		if n != 1 {
			t.Errorf("got %d callbacks, want 1", n)
		}
	})

	t.Run("update", func(t *testing.T) {
		var pushed wayback.ID
		err := store.Update(ctx, s, names[1], nil, func(h *wayback.History) error {
			var err error
			pushed, err = h.Push(wayback.Blob("updated"))
			return err
		})
		if err != nil {
			t.Fatal(err)
		}

		h, err := store.Open(ctx, s, names[1], nil)
		if err != nil {
			t.Fatal(err)
		}
		if h.Head() != pushed {
			t.Errorf("got head %s, want %s", h.Head(), pushed)
		}
		if h.Len() != want[names[1]].Len+1 {
			t.Errorf("got len %d, want %d", h.Len(), want[names[1]].Len+1)
		}

		failure := errors.New("failure")
		err = store.Update(ctx, s, names[1], nil, func(h *wayback.History) error {
			if _, err := h.Push(wayback.Blob("discarded")); err != nil {
				return err
			}
			return failure
		})
		if !errors.Is(err, failure) {
			t.Fatalf("got error %v, want %v", err, failure)
		}
		h2, err := store.Open(ctx, s, names[1], nil)
		if err != nil {
			t.Fatal(err)
		}
		if h2.Head() != pushed {
			t.Errorf("failed update was saved: head %s, want %s", h2.Head(), pushed)
		}
	})

	t.Run("delete", func(t *testing.T) {
		for i := 0; i < 2; i++ {
			err := s.Delete(ctx, names[1])
			if err != nil {
				t.Fatal(err)
			}
		}
		_, err := s.Load(ctx, names[1])
		if !errors.Is(err, store.ErrNotFound) {
			t.Errorf("got error %v, want %v", err, store.ErrNotFound)
		}

		h, err := store.Open(ctx, s, names[1], nil)
		if err != nil {
			t.Fatal(err)
		}
		if h.Len() != 0 {
			t.Errorf("got len %d for deleted history, want 0", h.Len())
		}
	})
}

// listOurs lists the names in s after start,
// keeping only those in ours.
func listOurs(ctx context.Context, t *testing.T, s store.Getter, start string, ours []string) []string {
	t.Helper()

	keep := make(map[string]bool)
	for _, name := range ours {
		keep[name] = true
	}

	var result []string
	err := s.List(ctx, start, func(name string) error {
		if keep[name] {
			result = append(result, name)
		}
		return nil
	})
	if err != nil {
		t.Fatal(err)
	}
	return result
}
