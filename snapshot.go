package wayback

import (
	"github.com/pkg/errors"
)

// Snapshot is the complete state of a History,
// sufficient to reconstruct it.
type Snapshot struct {
	Revisions map[ID]Revision `json:"revisions"`
	Len       int             `json:"length"`
	Head      ID              `json:"head,omitempty"`
	Tail      ID              `json:"tail,omitempty"`

	// Aliases maps each superseded ID to the one that superseded it.
	Aliases map[ID]ID `json:"aliases"`

	// Groups maps each live ID to all the IDs it has been known by,
	// oldest first.
	Groups map[ID][]ID `json:"groups"`
}

// Clone produces a deep copy of s.
func (s *Snapshot) Clone() *Snapshot {
	out := &Snapshot{
		Revisions: make(map[ID]Revision, len(s.Revisions)),
		Len:       s.Len,
		Head:      s.Head,
		Tail:      s.Tail,
		Aliases:   make(map[ID]ID, len(s.Aliases)),
		Groups:    make(map[ID][]ID, len(s.Groups)),
	}
	for id, rev := range s.Revisions {
		out.Revisions[id] = rev.clone()
	}
	for k, v := range s.Aliases {
		out.Aliases[k] = v
	}
	for k, v := range s.Groups {
		out.Groups[k] = append([]ID(nil), v...)
	}
	return out
}

// Export produces a Snapshot of h.
// The Snapshot shares nothing with h.
func (h *History) Export() *Snapshot {
	a := h.aliases.clone()
	s := &Snapshot{
		Revisions: make(map[ID]Revision, len(h.revs)),
		Len:       h.n,
		Head:      h.head,
		Tail:      h.tail,
		Aliases:   a.m,
		Groups:    a.groups,
	}
	for id, rev := range h.revs {
		s.Revisions[id] = rev.clone()
	}
	return s
}

// Import replaces the state of h with a copy of s.
// The History's maximum size and Generator are unchanged.
//
// The IDs in s are taken as they are, not recomputed.
// But s must describe a single chain of revisions,
// and its aliases must be consistent with it;
// otherwise the error is ErrBadSnapshot
// and h is unchanged.
func (h *History) Import(s *Snapshot) error {
	err := s.check()
	if err != nil {
		return errors.Wrap(ErrBadSnapshot, err.Error())
	}
	if h.max > 0 && s.Len > h.max {
		return errors.Wrapf(ErrBadSnapshot, "length %d exceeds maximum %d", s.Len, h.max)
	}

	s = s.Clone()

	h.revs = make(map[ID]*Revision, len(s.Revisions))
	for id, rev := range s.Revisions {
		rev := rev
		h.revs[id] = &rev
	}
	h.n = s.Len
	h.head = s.Head
	h.tail = s.Tail
	h.aliases = aliases{m: s.Aliases, groups: s.Groups}

	return nil
}

func (s *Snapshot) check() error {
	if s.Len != len(s.Revisions) {
		return errors.Errorf("length %d but %d revisions", s.Len, len(s.Revisions))
	}
	if s.Len == 0 {
		if !s.Head.IsZero() || !s.Tail.IsZero() {
			return errors.New("head or tail set in empty snapshot")
		}
	} else {
		if _, ok := s.Revisions[s.Head]; !ok {
			return errors.Errorf("head %s not found", s.Head)
		}
		if _, ok := s.Revisions[s.Tail]; !ok {
			return errors.Errorf("tail %s not found", s.Tail)
		}
		if !s.Revisions[s.Head].Child.IsZero() {
			return errors.Errorf("head %s has a child", s.Head)
		}
	}

	var (
		n    int
		prev ID
	)
	for cur := s.Tail; !cur.IsZero(); {
		rev, ok := s.Revisions[cur]
		if !ok {
			return errors.Errorf("revision %s not found", cur)
		}
		// The tail's parent may be stale; only interior links must agree.
		if n > 0 && rev.Parent != prev {
			return errors.Errorf("revision %s has parent %s, want %s", cur, rev.Parent, prev)
		}
		n++
		if n > s.Len {
			return errors.New("chain is longer than length")
		}
		prev = cur
		cur = rev.Child
	}
	if n != s.Len {
		return errors.Errorf("chain has %d revisions, want %d", n, s.Len)
	}
	if prev != s.Head {
		return errors.Errorf("chain ends at %s, not head %s", prev, s.Head)
	}

	for old := range s.Aliases {
		if _, ok := s.Revisions[old]; ok {
			return errors.Errorf("alias %s is a live revision", old)
		}
		id := old
		for hops := 0; ; hops++ {
			next, ok := s.Aliases[id]
			if !ok {
				break
			}
			if hops == len(s.Aliases) {
				return errors.Errorf("alias %s is part of a cycle", old)
			}
			id = next
		}
	}
	// Every alias must belong to exactly one group,
	// headed by the live revision it resolves to,
	// or eviction could never prune it.
	member := make(map[ID]ID, len(s.Aliases))
	for canonical, group := range s.Groups {
		if _, ok := s.Revisions[canonical]; !ok {
			return errors.Errorf("alias group %s is not a live revision", canonical)
		}
		for _, old := range group {
			if _, ok := s.Aliases[old]; !ok {
				return errors.Errorf("alias %s of %s not found", old, canonical)
			}
			if r := s.resolve(old); r != canonical {
				return errors.Errorf("alias %s in group %s resolves to %s", old, canonical, r)
			}
			if other, ok := member[old]; ok {
				return errors.Errorf("alias %s is in groups %s and %s", old, other, canonical)
			}
			member[old] = canonical
		}
	}
	for old := range s.Aliases {
		if _, ok := member[old]; !ok {
			return errors.Errorf("alias %s is in no group", old)
		}
	}

	return nil
}

// resolve follows the snapshot's aliases from id.
// The aliases must already be known to be acyclic.
func (s *Snapshot) resolve(id ID) ID {
	for {
		next, ok := s.Aliases[id]
		if !ok {
			return id
		}
		id = next
	}
}
