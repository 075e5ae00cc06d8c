package topo

import (
	"strconv"

	"github.com/cespare/xxhash/v2"
)

// StringHasher interns long derived names behind short #<hex> references.
// The table is append-only: once a string is hashed its entry is never
// mutated or removed, so a reference stays resolvable for the lifetime of
// the owning document even after the producing object is deleted. One
// writer at a time; concurrent readers never observe partial state
// because entries are only ever added.
type StringHasher struct {
	byID  map[uint64]string
	byStr map[string]uint64
}

// NewStringHasher returns an empty interning table.
func NewStringHasher() *StringHasher {
	return &StringHasher{
		byID:  make(map[uint64]string),
		byStr: make(map[string]uint64),
	}
}

// Hash interns s and returns its #<hex> reference. Hashing the same
// string twice returns the same reference. Hash collisions are resolved
// by linear probing, which is stable because the table is append-only.
func (h *StringHasher) Hash(s string) MappedName {
	if id, ok := h.byStr[s]; ok {
		return MappedName{Name: ref(id)}
	}
	id := xxhash.Sum64String(s)
	for {
		prev, taken := h.byID[id]
		if !taken {
			break
		}
		if prev == s {
			break
		}
		id++
	}
	h.byID[id] = s
	h.byStr[s] = id
	return MappedName{Name: ref(id)}
}

// Resolve maps a #<hex> reference back to the interned string. Strings
// that are not references resolve to themselves.
func (h *StringHasher) Resolve(name string) (string, bool) {
	if len(name) < 2 || name[0] != '#' {
		return name, true
	}
	id, err := strconv.ParseUint(name[1:], 16, 64)
	if err != nil {
		return name, false
	}
	s, ok := h.byID[id]
	if !ok {
		return name, false
	}
	return s, true
}

// Ref returns the existing reference for an already interned string
// without interning it.
func (h *StringHasher) Ref(s string) (MappedName, bool) {
	id, ok := h.byStr[s]
	if !ok {
		return MappedName{}, false
	}
	return MappedName{Name: ref(id)}, true
}

// Size returns the number of interned strings.
func (h *StringHasher) Size() int { return len(h.byID) }

func ref(id uint64) string {
	return hashPrefix + strconv.FormatUint(id, 16)
}
