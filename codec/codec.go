// Package codec encodes and decodes wayback snapshots
// for storage and transport.
package codec

import (
	"github.com/pkg/errors"

	"github.com/bobg/wayback"
)

// Codec is a serialization format for snapshots.
type Codec interface {
	Name() string
	Marshal(*wayback.Snapshot) ([]byte, error)
	Unmarshal([]byte) (*wayback.Snapshot, error)
}

var (
	_ Codec = JSON{}
	_ Codec = Proto{}
)

// ByName finds the Codec with the given name:
// "json" or "proto".
func ByName(name string) (Codec, error) {
	switch name {
	case "json":
		return JSON{}, nil
	case "proto":
		return Proto{}, nil
	}
	return nil, errors.Errorf("unknown codec %s", name)
}

// Make sure a decoded snapshot has the same shape as an exported one.
func normalize(s *wayback.Snapshot) {
	if s.Revisions == nil {
		s.Revisions = make(map[wayback.ID]wayback.Revision)
	}
	if s.Aliases == nil {
		s.Aliases = make(map[wayback.ID]wayback.ID)
	}
	if s.Groups == nil {
		s.Groups = make(map[wayback.ID][]wayback.ID)
	}
}
