// Package wayback is an ordered, mutable history of opaque data revisions.
//
// Each revision in a History is identified by a ref-like ID
// computed from its content:
// the hash of its parent's ID together with its payload.
// Appending a revision at the head is cheap.
// So is discarding the oldest revision at the tail.
//
// Inserting a revision in the middle of the history is the interesting case.
// Since every ID depends on its parent's ID,
// inserting data between a revision and its child
// changes the ID of every revision from that child up to the head.
// The History rewrites those revisions under their new IDs,
// and remembers the old IDs as aliases,
// so that a caller holding an ID from before the insert can keep using it.
// Origin maps any such stale ID to the revision's current one.
//
// Aliases are forgotten when the revision they point to
// falls off the tail of the history,
// either through Pop
// or because the History was created with a maximum size
// and a Push or Insert exceeded it.
//
// A History is owned by a single goroutine.
// It does no locking of its own;
// callers sharing one must protect it with a single exclusive lock,
// since a reader must never observe an insert half-done.
//
// Snapshots of a History can be exported,
// encoded with the codec subpackage,
// and persisted with the store subpackages.
package wayback
