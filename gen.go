package wayback

import (
	"crypto/sha1"
	"crypto/sha256"
	"encoding/hex"
	"hash"

	canonicaljson "github.com/gibson042/canonicaljson-go"
	"github.com/google/uuid"
	"github.com/pkg/errors"
)

// Generator produces the ID for a new revision
// from its parent's ID and its payload.
type Generator interface {
	Generate(parent ID, data Blob) (ID, error)
}

// Unchained is implemented by Generators whose IDs do not depend on the parent ID.
// When a History's Generator is Unchained,
// Insert links the new revision into place
// without rewriting the IDs downstream of it,
// and no aliases are ever created.
type Unchained interface {
	Unchained() bool
}

// GeneratorFunc adapts a function to the Generator interface.
// It can be used to supply IDs computed outside the History.
type GeneratorFunc func(parent ID, data Blob) (ID, error)

// Generate implements Generator.
func (f GeneratorFunc) Generate(parent ID, data Blob) (ID, error) {
	return f(parent, data)
}

// ContentHash is the default Generator.
// The ID of a revision is the hex-encoded hash
// of the canonical JSON serialization
// of the revision's parent ID and payload.
// Two revisions with the same parent and payload get the same ID.
type ContentHash struct {
	New func() hash.Hash
}

var (
	// SHA256 is the ContentHash using sha2-256.
	SHA256 = ContentHash{New: sha256.New}

	// SHA1 is the ContentHash using sha1.
	SHA1 = ContentHash{New: sha1.New}
)

type preimage struct {
	Parent *ID  `json:"parent"`
	Data   Blob `json:"data"`
}

// Generate implements Generator.
func (c ContentHash) Generate(parent ID, data Blob) (ID, error) {
	p := preimage{Data: data}
	if !parent.IsZero() {
		p.Parent = &parent
	}
	b, err := canonicaljson.Marshal(p)
	if err != nil {
		return Zero, errors.Wrap(err, "serializing revision")
	}
	h := c.New()
	h.Write(b)
	return ID(hex.EncodeToString(h.Sum(nil))), nil
}

// Random is a Generator producing a fresh random UUID for every revision.
// It is Unchained.
type Random struct{}

// Generate implements Generator.
func (Random) Generate(ID, Blob) (ID, error) {
	u, err := uuid.NewRandom()
	if err != nil {
		return Zero, errors.Wrap(err, "generating uuid")
	}
	return ID(u.String()), nil
}

// Unchained implements Unchained.
func (Random) Unchained() bool { return true }

// GeneratorByName maps the names "sha256", "sha1", and "random"
// to the corresponding Generator.
// The empty name means "sha256".
func GeneratorByName(name string) (Generator, error) {
	switch name {
	case "", "sha256":
		return SHA256, nil
	case "sha1":
		return SHA1, nil
	case "random":
		return Random{}, nil
	}
	return nil, errors.Errorf("unknown generator %s", name)
}

func unchained(g Generator) bool {
	u, ok := g.(Unchained)
	return ok && u.Unchained()
}
