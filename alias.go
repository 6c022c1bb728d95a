package wayback

// aliases tracks the IDs superseded by insert cascades.
//
// Each superseded ID maps, one hop at a time, to the ID that replaced it.
// Each live ID that has ever been renamed
// also heads a group listing every ID it has been known by,
// oldest first,
// so that all of them can be forgotten at once when it is evicted.
type aliases struct {
	m      map[ID]ID   // superseded -> superseder
	groups map[ID][]ID // canonical -> all former IDs
}

func newAliases() aliases {
	return aliases{
		m:      make(map[ID]ID),
		groups: make(map[ID][]ID),
	}
}

// resolve follows the alias chain from id to its end.
// The result is id itself if id was never superseded.
// There are no cycles:
// every alias points toward an ID minted later.
func (a aliases) resolve(id ID) ID {
	for {
		next, ok := a.m[id]
		if !ok {
			return id
		}
		id = next
	}
}

// record notes that oldID has been superseded by newID.
// If oldID headed a group, the group moves to newID,
// with oldID appended.
func (a aliases) record(oldID, newID ID) {
	if group, ok := a.groups[oldID]; ok {
		a.groups[newID] = append(group, oldID)
		delete(a.groups, oldID)
	} else {
		a.groups[newID] = []ID{oldID}
	}
	a.m[oldID] = newID
}

// prune forgets every alias of id.
func (a aliases) prune(id ID) {
	for _, old := range a.groups[id] {
		delete(a.m, old)
	}
	delete(a.groups, id)
}

func (a aliases) clone() aliases {
	out := newAliases()
	for k, v := range a.m {
		out.m[k] = v
	}
	for k, v := range a.groups {
		out.groups[k] = append([]ID(nil), v...)
	}
	return out
}
