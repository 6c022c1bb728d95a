package wayback

import (
	"github.com/pkg/errors"
)

// Options are the parameters of a new History.
type Options struct {
	// MaxRevisions, if positive, is the most revisions the History holds.
	// A Push or Insert that exceeds it evicts the oldest revision.
	MaxRevisions int

	// Generator mints revision IDs.
	// The default is SHA256.
	Generator Generator

	// OnEvict, if non-nil, is called with each revision
	// evicted because of MaxRevisions.
	// It is not called for explicit calls to Pop.
	OnEvict func(ID, Revision)
}

// History is an ordered chain of revisions,
// oldest (the tail) to newest (the head).
// It is not safe for concurrent use.
type History struct {
	revs       map[ID]*Revision
	head, tail ID
	n          int

	max     int
	gen     Generator
	onEvict func(ID, Revision)

	aliases aliases
}

// New produces a new, empty History.
// The opts may be nil.
func New(opts *Options) *History {
	h := &History{
		revs:    make(map[ID]*Revision),
		gen:     SHA256,
		aliases: newAliases(),
	}
	if opts != nil {
		if opts.MaxRevisions > 0 {
			h.max = opts.MaxRevisions
		}
		if opts.Generator != nil {
			h.gen = opts.Generator
		}
		h.onEvict = opts.OnEvict
	}
	return h
}

// Head is the ID of the newest revision,
// or Zero if the History is empty.
func (h *History) Head() ID { return h.head }

// Tail is the ID of the oldest revision,
// or Zero if the History is empty.
func (h *History) Tail() ID { return h.tail }

// Len is the number of revisions in the History.
func (h *History) Len() int { return h.n }

// Max is the most revisions the History holds,
// or 0 if it is unbounded.
func (h *History) Max() int { return h.max }

// Push adds a revision with the given payload at the head of the History
// and returns its ID.
// The History retains data; the caller must not modify it afterward.
func (h *History) Push(data Blob) (ID, error) {
	id, err := h.mint(h.head, data)
	if err != nil {
		return Zero, err
	}

	h.revs[id] = &Revision{Data: data, Parent: h.head}
	if h.head.IsZero() {
		h.tail = id
	} else {
		h.revs[h.head].Child = id
	}
	h.head = id
	h.n++

	h.evict()

	return id, nil
}

// Pop removes the oldest revision from the History
// and returns it together with its ID.
// Aliases of the removed revision are forgotten.
// If the History is empty, the error is ErrEmptyHistory.
func (h *History) Pop() (ID, Revision, error) {
	if h.n == 0 {
		return Zero, Revision{}, ErrEmptyHistory
	}

	id := h.tail
	rev := h.revs[id]
	delete(h.revs, id)
	h.aliases.prune(id)

	if rev.Child.IsZero() {
		h.head, h.tail = Zero, Zero
	} else {
		h.tail = rev.Child
		h.revs[rev.Child].Parent = Zero
	}
	h.n--

	return id, *rev, nil
}

// evict pops the tail if the History has outgrown its maximum.
func (h *History) evict() {
	if h.max <= 0 || h.n <= h.max {
		return
	}
	id, rev, err := h.Pop()
	if err == nil && h.onEvict != nil {
		h.onEvict(id, rev)
	}
}

// Has tells whether id is the ID of a revision in the History,
// either its current one or an alias.
func (h *History) Has(id ID) bool {
	_, ok := h.revs[h.aliases.resolve(id)]
	return ok
}

// Origin is the current ID of the revision known by id,
// which may be id itself.
// When id resolves to no revision
// (including when its revision, and so all its aliases, has been evicted)
// the error is ErrUnknownRevision.
func (h *History) Origin(id ID) (ID, error) {
	resolved := h.aliases.resolve(id)
	if _, ok := h.revs[resolved]; !ok {
		return Zero, errors.Wrapf(ErrUnknownRevision, "resolving %s", id)
	}
	return resolved, nil
}

// Get gets the revision known by id, resolving aliases.
// The returned Data must not be modified.
func (h *History) Get(id ID) (Revision, error) {
	rev, ok := h.revs[h.aliases.resolve(id)]
	if !ok {
		return Revision{}, errors.Wrapf(ErrUnknownRevision, "getting %s", id)
	}
	return *rev, nil
}

// Sequence produces the payloads of all revisions after the one known by id,
// in order toward the head.
// It is empty but non-nil when id is the head.
func (h *History) Sequence(id ID) ([]Blob, error) {
	rev, ok := h.revs[h.aliases.resolve(id)]
	if !ok {
		return nil, errors.Wrapf(ErrUnknownRevision, "sequence after %s", id)
	}
	result := []Blob{}
	for cur := rev.Child; !cur.IsZero(); cur = h.revs[cur].Child {
		result = append(result, h.revs[cur].Data)
	}
	return result, nil
}

// Walk calls f for each revision in the History, oldest first.
// If f returns an error, Walk exits with that error.
func (h *History) Walk(f func(ID, Revision) error) error {
	for cur := h.tail; !cur.IsZero(); {
		rev := h.revs[cur]
		err := f(cur, *rev)
		if err != nil {
			return err
		}
		cur = rev.Child
	}
	return nil
}

// Insert adds a revision with the given payload
// immediately after the one known by parent
// and returns the new revision's ID.
//
// Unless the History's Generator is Unchained,
// every revision after the new one gets a new ID,
// since each ID depends on the ID of its parent.
// The old IDs remain usable as aliases.
//
// If parent resolves to no revision,
// the error is ErrUnknownRevision.
// No error leaves the History changed.
func (h *History) Insert(parent ID, data Blob) (ID, error) {
	resolved := h.aliases.resolve(parent)
	p, ok := h.revs[resolved]
	if !ok {
		return Zero, errors.Wrapf(ErrUnknownRevision, "inserting after %s", parent)
	}
	if resolved == h.head {
		return h.Push(data)
	}

	id, err := h.mint(resolved, data)
	if err != nil {
		return Zero, err
	}

	if unchained(h.gen) {
		h.revs[id] = &Revision{Data: data, Parent: resolved, Child: p.Child}
		h.revs[p.Child].Parent = id
		p.Child = id
	} else {
		renames, err := h.cascade(p.Child, id)
		if err != nil {
			return Zero, err
		}

		h.revs[id] = &Revision{Data: data, Parent: resolved, Child: p.Child}
		p.Child = id

		prev := id
		for _, r := range renames {
			old := h.revs[r.oldID]
			h.revs[r.newID] = &Revision{Data: old.Data, Parent: prev, Child: old.Child}
			h.aliases.record(r.oldID, r.newID)
			h.revs[prev].Child = r.newID
			delete(h.revs, r.oldID)
			if old.Child.IsZero() {
				h.head = r.newID
			}
			prev = r.newID
		}
	}

	h.n++
	h.evict()

	return id, nil
}

type rename struct {
	oldID, newID ID
}

// cascade computes, without changing anything,
// the new IDs of the revisions from first up to the head,
// once inserted has become the parent of first.
func (h *History) cascade(first, inserted ID) ([]rename, error) {
	var (
		result []rename
		fresh  = map[ID]bool{inserted: true}
		prev   = inserted
	)
	for cur := first; !cur.IsZero(); cur = h.revs[cur].Child {
		id, err := h.mint(prev, h.revs[cur].Data)
		if err != nil {
			return nil, errors.Wrapf(err, "renaming %s", cur)
		}
		if fresh[id] {
			return nil, errors.Wrapf(ErrCollision, "renaming %s to %s", cur, id)
		}
		fresh[id] = true
		result = append(result, rename{oldID: cur, newID: id})
		prev = id
	}
	return result, nil
}

// mint generates the ID for a new revision
// and checks that it is not already in use.
func (h *History) mint(parent ID, data Blob) (ID, error) {
	id, err := h.gen.Generate(parent, data)
	if err != nil {
		return Zero, errors.Wrap(err, "generating id")
	}
	if id.IsZero() {
		return Zero, errors.New("generator produced the null id")
	}
	if _, ok := h.revs[id]; ok {
		return Zero, errors.Wrapf(ErrCollision, "%s is live", id)
	}
	if _, ok := h.aliases.m[id]; ok {
		return Zero, errors.Wrapf(ErrCollision, "%s is an alias", id)
	}
	return id, nil
}
