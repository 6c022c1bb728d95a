package codec

import (
	"bytes"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/bobg/wayback"
)

func testSnapshot(t *testing.T) *wayback.Snapshot {
	t.Helper()

	h := wayback.New(nil)
	for _, data := range []string{"sup", "sup again", "oh hey"} {
		if _, err := h.Push(wayback.Blob(data)); err != nil {
			t.Fatal(err)
		}
	}
	parent := h.Tail()
	for _, data := range []string{"so I forgot something", "so I forgot another thing"} {
		id, err := h.Insert(parent, wayback.Blob(data))
		if err != nil {
			t.Fatal(err)
		}
		parent = id
	}
	if _, err := h.Push(wayback.Blob{}); err != nil {
		t.Fatal(err)
	}
	return h.Export()
}

func TestRoundTrip(t *testing.T) {
	codecs := []Codec{JSON{}, JSON{Indent: "  "}, Proto{}}

	snapshots := map[string]*wayback.Snapshot{
		"empty": wayback.New(nil).Export(),
		"full":  testSnapshot(t),
	}

	for _, c := range codecs {
		for name, s := range snapshots {
			t.Run(c.Name()+"/"+name, func(t *testing.T) {
				b, err := c.Marshal(s)
				if err != nil {
					t.Fatal(err)
				}
				got, err := c.Unmarshal(b)
				if err != nil {
					t.Fatal(err)
				}
				if diff := cmp.Diff(s, got); diff != "" {
					t.Errorf("mismatch (-want +got):\n%s", diff)
				}

				h := wayback.New(nil)
				if err := h.Import(got); err != nil {
					t.Fatal(err)
				}
			})
		}
	}
}

func TestProtoDeterministic(t *testing.T) {
	s := testSnapshot(t)

	b1, err := Proto{}.Marshal(s)
	if err != nil {
		t.Fatal(err)
	}
	b2, err := Proto{}.Marshal(s.Clone())
	if err != nil {
		t.Fatal(err)
	}
	if !bytes.Equal(b1, b2) {
		t.Error("equal snapshots encoded differently")
	}
}

func TestProtoUnknownFields(t *testing.T) {
	s := testSnapshot(t)
	b, err := Proto{}.Marshal(s)
	if err != nil {
		t.Fatal(err)
	}

	// Field 15, varint 7; field 16, fixed32.
	b = append(b, 0x78, 0x07, 0x85, 0x01, 1, 2, 3, 4)

	got, err := Proto{}.Unmarshal(b)
	if err != nil {
		t.Fatal(err)
	}
	if diff := cmp.Diff(s, got); diff != "" {
		t.Errorf("mismatch (-want +got):\n%s", diff)
	}
}

func TestBadInput(t *testing.T) {
	cases := []struct {
		c     Codec
		input []byte
	}{
		{c: Proto{}, input: []byte{0x0a, 0x05, 0x01}},
		{c: Proto{}, input: []byte{0x0a}},
		{c: Proto{}, input: []byte{0x0a, 0x02, 0x0a, 0x09}},
		{c: JSON{}, input: []byte(`{"revisions": [`)},
		{c: JSON{}, input: []byte(`{"length": "three"}`)},
	}
	for _, c := range cases {
		t.Run(c.c.Name(), func(t *testing.T) {
			_, err := c.c.Unmarshal(c.input)
			if err == nil {
				t.Errorf("no error decoding %x", c.input)
			}
		})
	}
}

func TestByName(t *testing.T) {
	for _, name := range []string{"json", "proto"} {
		c, err := ByName(name)
		if err != nil {
			t.Fatal(err)
		}
		if c.Name() != name {
			t.Errorf("got %s, want %s", c.Name(), name)
		}
	}
	if _, err := ByName("xml"); err == nil {
		t.Error("got no error for xml")
	}
}
