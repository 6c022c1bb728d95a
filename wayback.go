package wayback

import (
	"github.com/pkg/errors"
)

type (
	// ID identifies a revision.
	// The empty ID is the null ID:
	// the parent of the oldest revision,
	// the child of the newest,
	// and the head and tail of an empty History.
	ID string

	// Blob is a revision's payload.
	// A History never looks inside it.
	Blob []byte
)

// Zero is the null ID.
var Zero ID

func (id ID) String() string {
	return string(id)
}

// IsZero tells whether id is the null ID.
func (id ID) IsZero() bool {
	return id == Zero
}

// Revision is one node in a History.
// The payload never changes after the revision is created;
// only its links to its neighbors do.
type Revision struct {
	Data   Blob `json:"data"`
	Parent ID   `json:"parent,omitempty"`
	Child  ID   `json:"child,omitempty"`
}

func (r Revision) clone() Revision {
	out := r
	if r.Data != nil {
		out.Data = append(Blob{}, r.Data...)
	}
	return out
}

var (
	// ErrUnknownRevision is the error returned
	// when an ID resolves neither to a live revision
	// nor, through its aliases, to one.
	ErrUnknownRevision = errors.New("unknown revision")

	// ErrEmptyHistory is the error returned by Pop on an empty History.
	ErrEmptyHistory = errors.New("empty history")

	// ErrCollision is the error returned
	// when a Push or Insert would create a revision
	// whose ID is already in use, live or as an alias.
	// With content-derived IDs this happens
	// when the same payload is added twice at the same position.
	ErrCollision = errors.New("id collision")

	// ErrBadSnapshot is the error returned by Import
	// for a snapshot that cannot describe a History.
	ErrBadSnapshot = errors.New("bad snapshot")
)
