package expr

import (
	"errors"
	"strconv"
	"strings"
)

var ErrInvalidAddress = errors.New("invalid address")

// Address is a path of child indices from the root of an Expression. The
// empty address denotes the root. An Address is only meaningful against the
// Expression it was computed for.
type Address []int

func Root() Address {
	return Address{}
}

func (a Address) Equal(other Address) bool {
	if len(a) != len(other) {
		return false
	}
	for i := range a {
		if a[i] != other[i] {
			return false
		}
	}
	return true
}

// HasPrefix reports whether a lies inside the subtree addressed by prefix.
func (a Address) HasPrefix(prefix Address) bool {
	if len(prefix) > len(a) {
		return false
	}
	return a[:len(prefix)].Equal(prefix)
}

// Child returns a new address for the i-th child; a is never aliased.
func (a Address) Child(i int) Address {
	out := make(Address, len(a)+1)
	copy(out, a)
	out[len(a)] = i
	return out
}

func (a Address) Parent() (Address, bool) {
	if len(a) == 0 {
		return nil, false
	}
	return a.Clone()[:len(a)-1], true
}

func (a Address) Clone() Address {
	out := make(Address, len(a))
	copy(out, a)
	return out
}

func (a Address) String() string {
	if len(a) == 0 {
		return "root"
	}
	parts := make([]string, len(a))
	for i, idx := range a {
		parts[i] = strconv.Itoa(idx)
	}
	return strings.Join(parts, ".")
}

func ParseAddress(value string) (Address, error) {
	value = strings.TrimSpace(value)
	if value == "" || value == "root" {
		return Root(), nil
	}
	parts := strings.Split(value, ".")
	out := make(Address, 0, len(parts))
	for _, part := range parts {
		idx, err := strconv.Atoi(part)
		if err != nil || idx < 0 {
			return nil, ErrInvalidAddress
		}
		out = append(out, idx)
	}
	return out, nil
}

// CommonPrefix returns the deepest address shared by every input.
func CommonPrefix(addrs ...Address) Address {
	if len(addrs) == 0 {
		return Root()
	}
	prefix := addrs[0].Clone()
	for _, addr := range addrs[1:] {
		n := 0
		for n < len(prefix) && n < len(addr) && prefix[n] == addr[n] {
			n++
		}
		prefix = prefix[:n]
	}
	return prefix
}
