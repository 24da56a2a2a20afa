package relationship

// orderedSet is a unique string collection preserving insertion order, so
// sibling ordering in traversals and snapshots is deterministic.
type orderedSet struct {
	ids     []string
	members map[string]struct{}
}

func newOrderedSet() *orderedSet {
	return &orderedSet{members: make(map[string]struct{})}
}

// add inserts the ID if absent and reports whether it was inserted.
func (s *orderedSet) add(id string) bool {
	if _, ok := s.members[id]; ok {
		return false
	}
	s.members[id] = struct{}{}
	s.ids = append(s.ids, id)
	return true
}

// remove deletes the ID if present and reports whether it was removed.
func (s *orderedSet) remove(id string) bool {
	if _, ok := s.members[id]; !ok {
		return false
	}
	delete(s.members, id)
	for i, existing := range s.ids {
		if existing == id {
			s.ids = append(s.ids[:i], s.ids[i+1:]...)
			break
		}
	}
	return true
}

func (s *orderedSet) contains(id string) bool {
	if s == nil {
		return false
	}
	_, ok := s.members[id]
	return ok
}

func (s *orderedSet) empty() bool {
	return s == nil || len(s.ids) == 0
}

// values returns a copy in insertion order; nil receivers yield an empty,
// non-nil slice.
func (s *orderedSet) values() []string {
	if s == nil {
		return []string{}
	}
	out := make([]string, len(s.ids))
	copy(out, s.ids)
	return out
}
