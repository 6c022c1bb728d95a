package codec

import (
	"encoding/json"

	"github.com/pkg/errors"

	"github.com/bobg/wayback"
)

// JSON is the Codec for the JSON encoding of a snapshot.
type JSON struct {
	// Indent, if non-empty, is used to pretty-print the output.
	Indent string
}

// Name implements Codec.
func (JSON) Name() string { return "json" }

// Marshal implements Codec.
func (j JSON) Marshal(s *wayback.Snapshot) ([]byte, error) {
	var (
		b   []byte
		err error
	)
	if j.Indent != "" {
		b, err = json.MarshalIndent(s, "", j.Indent)
	} else {
		b, err = json.Marshal(s)
	}
	return b, errors.Wrap(err, "encoding snapshot as JSON")
}

// Unmarshal implements Codec.
func (JSON) Unmarshal(b []byte) (*wayback.Snapshot, error) {
	var s wayback.Snapshot
	err := json.Unmarshal(b, &s)
	if err != nil {
		return nil, errors.Wrap(err, "decoding JSON snapshot")
	}
	normalize(&s)
	return &s, nil
}
