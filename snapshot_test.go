package wayback

import (
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestExportImport(t *testing.T) {
	h := New(nil)
	a := mustPush(t, h, "A")
	mustPush(t, h, "B")
	mustPush(t, h, "C")
	mustInsert(t, h, a, "X")
	if _, _, err := h.Pop(); err != nil {
		t.Fatal(err)
	}

	s := h.Export()
	if s.Len != 3 || s.Head != h.Head() || s.Tail != h.Tail() {
		t.Errorf("got len %d, head %s, tail %s", s.Len, s.Head, s.Tail)
	}

	h2 := New(nil)
	err := h2.Import(s)
	if err != nil {
		t.Fatal(err)
	}
	checkChain(t, h2)
	if diff := cmp.Diff(s, h2.Export()); diff != "" {
		t.Errorf("mismatch (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff(payloads(t, h), payloads(t, h2)); diff != "" {
		t.Errorf("mismatch (-want +got):\n%s", diff)
	}

	// The imported history works like the original.
	id1, err := h.Push(Blob("D"))
	if err != nil {
		t.Fatal(err)
	}
	id2, err := h2.Push(Blob("D"))
	if err != nil {
		t.Fatal(err)
	}
	if id1 != id2 {
		t.Errorf("got %s, want %s", id2, id1)
	}
}

func TestExportIsolation(t *testing.T) {
	h := New(nil)
	id := mustPush(t, h, "sup")

	s := h.Export()
	rev := s.Revisions[id]
	rev.Data[0] = 'S'
	s.Head = "elsewhere"

	got, err := h.Get(id)
	if err != nil {
		t.Fatal(err)
	}
	if string(got.Data) != "sup" {
		t.Errorf("export shares data with history: got %q", got.Data)
	}
	if h.Head() != id {
		t.Errorf("got head %s, want %s", h.Head(), id)
	}

	h2 := New(nil)
	s = h.Export()
	if err := h2.Import(s); err != nil {
		t.Fatal(err)
	}
	s.Revisions[id].Data[0] = 'S'
	got, err = h2.Get(id)
	if err != nil {
		t.Fatal(err)
	}
	if string(got.Data) != "sup" {
		t.Errorf("import shares data with snapshot: got %q", got.Data)
	}
}

func TestImportEmpty(t *testing.T) {
	h := New(nil)
	mustPush(t, h, "sup")

	err := h.Import(&Snapshot{})
	if err != nil {
		t.Fatal(err)
	}
	checkChain(t, h)
	if h.Len() != 0 {
		t.Errorf("got len %d, want 0", h.Len())
	}
	if _, err := h.Push(Blob("again")); err != nil {
		t.Fatal(err)
	}
}

func TestImportBad(t *testing.T) {
	good := func() *Snapshot {
		return &Snapshot{
			Revisions: map[ID]Revision{
				"a": {Data: Blob("A"), Child: "b"},
				"b": {Data: Blob("B"), Parent: "a", Child: "c"},
				"c": {Data: Blob("C"), Parent: "b"},
			},
			Len:     3,
			Head:    "c",
			Tail:    "a",
			Aliases: map[ID]ID{"b0": "b"},
			Groups:  map[ID][]ID{"b": {"b0"}},
		}
	}

	cases := []struct {
		name   string
		mutate func(*Snapshot)
	}{
		{name: "length", mutate: func(s *Snapshot) { s.Len = 2 }},
		{name: "no head", mutate: func(s *Snapshot) { s.Head = "" }},
		{name: "missing head", mutate: func(s *Snapshot) { s.Head = "z" }},
		{name: "missing tail", mutate: func(s *Snapshot) { s.Tail = "z" }},
		{name: "wrong head", mutate: func(s *Snapshot) { s.Head = "b" }},
		{name: "wrong tail", mutate: func(s *Snapshot) { s.Tail = "b" }},
		{name: "broken link", mutate: func(s *Snapshot) {
			b := s.Revisions["b"]
			b.Child = "z"
			s.Revisions["b"] = b
		}},
		{name: "asymmetric link", mutate: func(s *Snapshot) {
			c := s.Revisions["c"]
			c.Parent = "a"
			s.Revisions["c"] = c
		}},
		{name: "cycle", mutate: func(s *Snapshot) {
			c := s.Revisions["c"]
			c.Child = "a"
			s.Revisions["c"] = c
		}},
		{name: "live alias", mutate: func(s *Snapshot) { s.Aliases["a"] = "b" }},
		{name: "missing alias", mutate: func(s *Snapshot) { s.Groups["c"] = []ID{"c0"} }},
		{name: "alias cycle", mutate: func(s *Snapshot) {
			s.Aliases["x"] = "y"
			s.Aliases["y"] = "x"
		}},
		{name: "dead group", mutate: func(s *Snapshot) {
			s.Aliases["z0"] = "z"
			s.Groups["z"] = []ID{"z0"}
		}},
		{name: "wrong group", mutate: func(s *Snapshot) {
			s.Aliases["c0"] = "c"
			s.Groups["b"] = append(s.Groups["b"], "c0")
		}},
		{name: "ungrouped alias", mutate: func(s *Snapshot) { s.Aliases["a0"] = "a" }},
		{name: "two groups", mutate: func(s *Snapshot) {
			s.Aliases["b1"] = "b0"
			s.Groups["b"] = append(s.Groups["b"], "b1")
			s.Groups["a"] = []ID{"b1"}
		}},
		{name: "empty with head", mutate: func(s *Snapshot) {
			*s = Snapshot{Head: "a"}
		}},
	}

	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			h := New(nil)
			mustPush(t, h, "existing")
			before := h.Export()

			s := good()
			c.mutate(s)
			err := h.Import(s)
			if !errors.Is(err, ErrBadSnapshot) {
				t.Fatalf("got error %v, want %v", err, ErrBadSnapshot)
			}
			if diff := cmp.Diff(before, h.Export()); diff != "" {
				t.Errorf("history changed (-before +after):\n%s", diff)
			}
		})
	}

	t.Run("good", func(t *testing.T) {
		h := New(nil)
		if err := h.Import(good()); err != nil {
			t.Fatal(err)
		}
		if got, err := h.Origin("b0"); err != nil || got != "b" {
			t.Errorf("got origin %s (error %v), want b", got, err)
		}
	})

	t.Run("too long", func(t *testing.T) {
		h := New(&Options{MaxRevisions: 2})
		err := h.Import(good())
		if !errors.Is(err, ErrBadSnapshot) {
			t.Fatalf("got error %v, want %v", err, ErrBadSnapshot)
		}
	})
}
