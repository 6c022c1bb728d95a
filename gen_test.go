package wayback

import (
	"testing"
)

func TestContentHash(t *testing.T) {
	cases := []struct {
		name   string
		gen    ContentHash
		hexLen int
	}{
		{name: "sha256", gen: SHA256, hexLen: 64},
		{name: "sha1", gen: SHA1, hexLen: 40},
	}

	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			id1, err := c.gen.Generate(Zero, Blob("sup"))
			if err != nil {
				t.Fatal(err)
			}
			if len(id1) != c.hexLen {
				t.Errorf("got id length %d, want %d", len(id1), c.hexLen)
			}

			again, err := c.gen.Generate(Zero, Blob("sup"))
			if err != nil {
				t.Fatal(err)
			}
			if again != id1 {
				t.Errorf("not deterministic: %s vs. %s", id1, again)
			}

			id2, err := c.gen.Generate(id1, Blob("sup"))
			if err != nil {
				t.Fatal(err)
			}
			if id2 == id1 {
				t.Error("parent does not affect id")
			}

			id3, err := c.gen.Generate(Zero, Blob("sup again"))
			if err != nil {
				t.Fatal(err)
			}
			if id3 == id1 {
				t.Error("payload does not affect id")
			}

			// A null parent is not the same as an empty payload.
			id4, err := c.gen.Generate(Zero, nil)
			if err != nil {
				t.Fatal(err)
			}
			id5, err := c.gen.Generate(Zero, Blob{})
			if err != nil {
				t.Fatal(err)
			}
			if id4 == id1 || id5 == id1 {
				t.Error("empty payload collides")
			}
		})
	}

	if unchained(SHA256) {
		t.Error("SHA256 is unchained")
	}
}

func TestRandom(t *testing.T) {
	var g Generator = Random{}
	if !unchained(g) {
		t.Error("Random is not unchained")
	}
	seen := make(map[ID]bool)
	for i := 0; i < 100; i++ {
		id, err := g.Generate(Zero, Blob("same"))
		if err != nil {
			t.Fatal(err)
		}
		if seen[id] {
			t.Fatalf("duplicate id %s", id)
		}
		seen[id] = true
	}
}

func TestGeneratorByName(t *testing.T) {
	cases := []struct {
		name    string
		want    Generator
		wantErr bool
	}{
		{name: "", want: SHA256},
		{name: "sha256", want: SHA256},
		{name: "sha1", want: SHA1},
		{name: "random", want: Random{}},
		{name: "md5", wantErr: true},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			got, err := GeneratorByName(c.name)
			if c.wantErr {
				if err == nil {
					t.Error("got no error")
				}
				return
			}
			if err != nil {
				t.Fatal(err)
			}
			// ContentHash holds a func and is not comparable; compare outputs.
			want, err := c.want.Generate(Zero, Blob("x"))
			if err != nil {
				t.Fatal(err)
			}
			id, err := got.Generate(Zero, Blob("x"))
			if err != nil {
				t.Fatal(err)
			}
			if unchained(c.want) {
				if !unchained(got) {
					t.Error("want unchained generator")
				}
				return
			}
			if id != want {
				t.Errorf("got id %s, want %s", id, want)
			}
		})
	}
}
