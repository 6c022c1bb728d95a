package codec

import (
	"sort"

	"github.com/pkg/errors"
	"google.golang.org/protobuf/encoding/protowire"

	"github.com/bobg/wayback"
)

// Proto is the Codec for the protocol-buffer wire encoding of a snapshot.
// The layout corresponds to these messages:
//
//	message Snapshot {
//	  repeated Revision revisions = 1;
//	  int64 length = 2;
//	  string head = 3;
//	  string tail = 4;
//	  repeated Alias aliases = 5;
//	  repeated Group groups = 6;
//	}
//	message Revision {
//	  string id = 1;
//	  bytes data = 2;
//	  string parent = 3;
//	  string child = 4;
//	}
//	message Alias {
//	  string old = 1;
//	  string new = 2;
//	}
//	message Group {
//	  string canonical = 1;
//	  repeated string members = 2;
//	}
//
// Repeated entries are written in ID order,
// so equal snapshots have equal encodings.
type Proto struct{}

// Name implements Codec.
func (Proto) Name() string { return "proto" }

const (
	snapshotRevisions protowire.Number = 1
	snapshotLen       protowire.Number = 2
	snapshotHead      protowire.Number = 3
	snapshotTail      protowire.Number = 4
	snapshotAliases   protowire.Number = 5
	snapshotGroups    protowire.Number = 6

	revisionID     protowire.Number = 1
	revisionData   protowire.Number = 2
	revisionParent protowire.Number = 3
	revisionChild  protowire.Number = 4

	aliasOld protowire.Number = 1
	aliasNew protowire.Number = 2

	groupCanonical protowire.Number = 1
	groupMembers   protowire.Number = 2
)

// Marshal implements Codec.
func (Proto) Marshal(s *wayback.Snapshot) ([]byte, error) {
	var b []byte

	for _, id := range sortedIDs(s.Revisions) {
		rev := s.Revisions[id]

		var m []byte
		m = appendString(m, revisionID, string(id))
		if rev.Data != nil {
			m = protowire.AppendTag(m, revisionData, protowire.BytesType)
			m = protowire.AppendBytes(m, rev.Data)
		}
		m = appendString(m, revisionParent, string(rev.Parent))
		m = appendString(m, revisionChild, string(rev.Child))

		b = protowire.AppendTag(b, snapshotRevisions, protowire.BytesType)
		b = protowire.AppendBytes(b, m)
	}

	if s.Len != 0 {
		b = protowire.AppendTag(b, snapshotLen, protowire.VarintType)
		b = protowire.AppendVarint(b, uint64(s.Len))
	}
	b = appendString(b, snapshotHead, string(s.Head))
	b = appendString(b, snapshotTail, string(s.Tail))

	for _, old := range sortedIDs(s.Aliases) {
		var m []byte
		m = appendString(m, aliasOld, string(old))
		m = appendString(m, aliasNew, string(s.Aliases[old]))

		b = protowire.AppendTag(b, snapshotAliases, protowire.BytesType)
		b = protowire.AppendBytes(b, m)
	}

	for _, canonical := range sortedIDs(s.Groups) {
		var m []byte
		m = appendString(m, groupCanonical, string(canonical))
		for _, member := range s.Groups[canonical] {
			// Members are written even when empty, to keep their positions.
			m = protowire.AppendTag(m, groupMembers, protowire.BytesType)
			m = protowire.AppendString(m, string(member))
		}

		b = protowire.AppendTag(b, snapshotGroups, protowire.BytesType)
		b = protowire.AppendBytes(b, m)
	}

	return b, nil
}

// Unmarshal implements Codec.
func (Proto) Unmarshal(b []byte) (*wayback.Snapshot, error) {
	s := new(wayback.Snapshot)
	normalize(s)

	err := eachField(b, func(num protowire.Number, typ protowire.Type, v []byte, x uint64) error {
		switch {
		case num == snapshotRevisions && typ == protowire.BytesType:
			id, rev, err := decodeRevision(v)
			if err != nil {
				return errors.Wrap(err, "decoding revision")
			}
			s.Revisions[id] = rev

		case num == snapshotLen && typ == protowire.VarintType:
			s.Len = int(int64(x))

		case num == snapshotHead && typ == protowire.BytesType:
			s.Head = wayback.ID(v)

		case num == snapshotTail && typ == protowire.BytesType:
			s.Tail = wayback.ID(v)

		case num == snapshotAliases && typ == protowire.BytesType:
			var old, newID wayback.ID
			err := eachField(v, func(num protowire.Number, typ protowire.Type, v []byte, _ uint64) error {
				switch {
				case num == aliasOld && typ == protowire.BytesType:
					old = wayback.ID(v)
				case num == aliasNew && typ == protowire.BytesType:
					newID = wayback.ID(v)
				}
				return nil
			})
			if err != nil {
				return errors.Wrap(err, "decoding alias")
			}
			s.Aliases[old] = newID

		case num == snapshotGroups && typ == protowire.BytesType:
			var (
				canonical wayback.ID
				members   = []wayback.ID{}
			)
			err := eachField(v, func(num protowire.Number, typ protowire.Type, v []byte, _ uint64) error {
				switch {
				case num == groupCanonical && typ == protowire.BytesType:
					canonical = wayback.ID(v)
				case num == groupMembers && typ == protowire.BytesType:
					members = append(members, wayback.ID(v))
				}
				return nil
			})
			if err != nil {
				return errors.Wrap(err, "decoding alias group")
			}
			s.Groups[canonical] = members
		}
		return nil
	})
	if err != nil {
		return nil, errors.Wrap(err, "decoding proto snapshot")
	}
	return s, nil
}

func decodeRevision(b []byte) (wayback.ID, wayback.Revision, error) {
	var (
		id  wayback.ID
		rev wayback.Revision
	)
	err := eachField(b, func(num protowire.Number, typ protowire.Type, v []byte, _ uint64) error {
		if typ != protowire.BytesType {
			return nil
		}
		switch num {
		case revisionID:
			id = wayback.ID(v)
		case revisionData:
			rev.Data = append(wayback.Blob{}, v...)
		case revisionParent:
			rev.Parent = wayback.ID(v)
		case revisionChild:
			rev.Child = wayback.ID(v)
		}
		return nil
	})
	return id, rev, err
}

// eachField calls f for each field in the encoded message b.
// For length-delimited fields, v is the field's contents.
// For varint fields, x is its value.
// Fields of other types are skipped.
func eachField(b []byte, f func(num protowire.Number, typ protowire.Type, v []byte, x uint64) error) error {
	for len(b) > 0 {
		num, typ, n := protowire.ConsumeTag(b)
		if n < 0 {
			return protowire.ParseError(n)
		}
		b = b[n:]

		var err error
		switch typ {
		case protowire.BytesType:
			v, n := protowire.ConsumeBytes(b)
			if n < 0 {
				return protowire.ParseError(n)
			}
			err = f(num, typ, v, 0)
			b = b[n:]

		case protowire.VarintType:
			x, n := protowire.ConsumeVarint(b)
			if n < 0 {
				return protowire.ParseError(n)
			}
			err = f(num, typ, nil, x)
			b = b[n:]

		default:
			n := protowire.ConsumeFieldValue(num, typ, b)
			if n < 0 {
				return protowire.ParseError(n)
			}
			b = b[n:]
		}
		if err != nil {
			return err
		}
	}
	return nil
}

func appendString(b []byte, num protowire.Number, s string) []byte {
	if s == "" {
		return b
	}
	b = protowire.AppendTag(b, num, protowire.BytesType)
	return protowire.AppendString(b, s)
}

func sortedIDs[V any](m map[wayback.ID]V) []wayback.ID {
	result := make([]wayback.ID, 0, len(m))
	for id := range m {
		result = append(result, id)
	}
	sort.Slice(result, func(i, j int) bool { return result[i] < result[j] })
	return result
}
