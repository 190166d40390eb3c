package vdom

import "github.com/dshills/arbor/internal/mutation"

// idSlab hands out element identities. Identity 0 is the mount root and
// is never allocated. Released identities are reused most recent first.
type idSlab struct {
	next mutation.ElementID
	free []mutation.ElementID
	live int
}

func newIDSlab() *idSlab {
	return &idSlab{next: mutation.RootID + 1}
}

func (s *idSlab) alloc() mutation.ElementID {
	s.live++
	if n := len(s.free); n > 0 {
		id := s.free[n-1]
		s.free = s.free[:n-1]
		return id
	}
	id := s.next
	s.next++
	return id
}

func (s *idSlab) release(id mutation.ElementID) {
	if id == mutation.RootID {
		return
	}
	s.live--
	s.free = append(s.free, id)
}
