// Package selection tracks the learner's multi-selection of sub-terms on the
// current line of a sequence.
package selection

import "github.com/ray-pH/equaio/internal/expr"

// Set is an ordered, duplicate-free collection of addresses. The zero value
// is an empty set ready for use.
type Set struct {
	items []expr.Address
}

func New(addrs ...expr.Address) *Set {
	s := &Set{}
	for _, addr := range addrs {
		s.Toggle(addr, true)
	}
	return s
}

// Toggle makes the membership of addr match wantPresent. Adding an address
// that is already present is a no-op.
func (s *Set) Toggle(addr expr.Address, wantPresent bool) {
	if wantPresent {
		if !s.Contains(addr) {
			s.items = append(s.items, addr.Clone())
		}
		return
	}
	kept := s.items[:0]
	for _, item := range s.items {
		if !item.Equal(addr) {
			kept = append(kept, item)
		}
	}
	s.items = kept
}

func (s *Set) Contains(addr expr.Address) bool {
	for _, item := range s.items {
		if item.Equal(addr) {
			return true
		}
	}
	return false
}

func (s *Set) Clear() {
	s.items = nil
}

func (s *Set) Len() int {
	return len(s.items)
}

// Addresses returns a copy of the selection in insertion order.
func (s *Set) Addresses() []expr.Address {
	out := make([]expr.Address, len(s.items))
	for i, item := range s.items {
		out[i] = item.Clone()
	}
	return out
}
