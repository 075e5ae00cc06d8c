package topo

import (
	"sort"

	"github.com/chazu/tenon/pkg/kernel"
)

// DefaultHashThreshold is the name length above which derived names are
// replaced by interned #<hex> references.
const DefaultHashThreshold = 40

// Shape wraps an opaque kernel shape with the persistent element name
// table. The zero value is the null shape. Copying a Shape is cheap: the
// name table is shared until either copy mutates it.
type Shape struct {
	// Tag identifies the owning feature object; 0 is anonymous.
	Tag int64

	// Hasher is the shared string interning table, owned by the document.
	Hasher *StringHasher

	// HashThreshold is the name length above which names are interned.
	// Zero disables compression.
	HashThreshold int

	kshape kernel.Shape
	emap   *elementMap
	owned  bool
}

// NewShape wraps a kernel shape with an empty name table.
func NewShape(ks kernel.Shape, tag int64, hasher *StringHasher) *Shape {
	return &Shape{
		Tag:           tag,
		Hasher:        hasher,
		HashThreshold: DefaultHashThreshold,
		kshape:        ks,
		emap:          newElementMap(),
		owned:         true,
	}
}

// IsNull reports whether the shape has no geometry.
func (s *Shape) IsNull() bool { return s == nil || s.kshape == nil }

// KernelShape exposes the underlying kernel shape.
func (s *Shape) KernelShape() kernel.Shape { return s.kshape }

// Type returns the topological kind, or KindNone for the null shape.
func (s *Shape) Type() kernel.Kind {
	if s.IsNull() {
		return kernel.KindNone
	}
	return s.kshape.Type()
}

// CountSubShapes returns the number of sub-elements of kind k.
func (s *Shape) CountSubShapes(k kernel.Kind) int {
	if s.IsNull() {
		return 0
	}
	return s.kshape.Count(k)
}

// Copy returns a shallow copy sharing the name table. The table is
// cloned lazily by whichever copy mutates first.
func (s *Shape) Copy() *Shape {
	c := *s
	s.owned = false
	c.owned = false
	return &c
}

// editMap returns the receiver's name table, cloning it first if it is
// still shared with another copy.
func (s *Shape) editMap() *elementMap {
	if s.emap == nil {
		s.emap = newElementMap()
		s.owned = true
	} else if !s.owned {
		s.emap = s.emap.clone()
		s.owned = true
	}
	return s.emap
}

// lookup finds an entry by mapped name text, trying the raw string, its
// hasher resolution and its existing interned reference.
func (s *Shape) lookup(name string) (*Element, bool) {
	if s.emap == nil || name == "" {
		return nil, false
	}
	if el, ok := s.emap.byMapped(name); ok {
		return el, true
	}
	if s.Hasher != nil {
		if resolved, ok := s.Hasher.Resolve(name); ok && resolved != name {
			if el, ok := s.emap.byMapped(resolved); ok {
				return el, true
			}
		}
		if ref, ok := s.Hasher.Ref(name); ok {
			if el, ok := s.emap.byMapped(ref.Name); ok {
				return el, true
			}
		}
	}
	return nil, false
}

// compress interns the name when it exceeds the threshold.
func (s *Shape) compress(m MappedName) MappedName {
	if s.Hasher == nil || s.HashThreshold <= 0 || m.IsHashed() || len(m.Name) <= s.HashThreshold {
		return m
	}
	return s.Hasher.Hash(m.Name)
}

// resolveText expands a hashed reference; foreign strings pass through.
func (s *Shape) resolveText(name string) string {
	if s.Hasher == nil {
		return name
	}
	resolved, _ := s.Hasher.Resolve(name)
	return resolved
}

// GetElementName normalizes any element reference to a mapped name: an
// index-style reference ("Face7") looks up its mapped name (empty if none
// is registered yet); everything else is treated as an opaque mapped name.
func (s *Shape) GetElementName(name string) MappedName {
	if idx, ok := ParseIndexedName(name); ok {
		return s.GetMappedName(idx)
	}
	return MappedName{Name: name}
}

// GetMappedName returns the mapped name registered for an index, or the
// empty name.
func (s *Shape) GetMappedName(idx IndexedName) MappedName {
	if s == nil || s.emap == nil {
		return MappedName{}
	}
	if el, ok := s.emap.byIndexed(idx); ok {
		return el.Name
	}
	return MappedName{}
}

// GetIndexedName resolves a mapped name to its current index. A name
// with no current index (unknown, or flagged missing) yields the invalid
// IndexedName.
func (s *Shape) GetIndexedName(m MappedName) IndexedName {
	if el, ok := s.lookup(m.Name); ok {
		return el.Index
	}
	if idx, ok := ParseIndexedName(m.Name); ok {
		// Index-style text resolves positionally when in range.
		if s.CountSubShapes(idx.Kind) >= idx.Index {
			return idx
		}
	}
	return IndexedName{}
}

// SetElementName registers a mapped name for an index, compressing long
// names through the hasher. Only the receiver's table is touched.
func (s *Shape) SetElementName(m MappedName, idx IndexedName, prov Provenance) MappedName {
	stored := s.compress(m)
	s.editMap().set(Element{Name: stored, Index: idx, Prov: prov})
	return stored
}

// SetElementComboName synthesizes and registers a name for a higher-level
// element from its component names. The resulting string is a pure
// function of (op, components, postfix): identical inputs always yield
// the identical name, independent of any shape revision state.
func (s *Shape) SetElementComboName(idx IndexedName, components []MappedName, op, postfix string) MappedName {
	name := MappedName{Name: ComboName(op, components, postfix)}
	stored := s.compress(name)
	s.editMap().set(Element{
		Name:  stored,
		Index: idx,
		Prov: Provenance{
			Op:      op,
			Sources: append([]MappedName(nil), components...),
		},
	})
	return stored
}

// DecodeElementComboName splits a combination name (possibly interned)
// back into its parts.
func (s *Shape) DecodeElementComboName(m MappedName) (op string, components []MappedName, postfix string, ok bool) {
	return DecodeComboName(s.resolveText(m.Name))
}

// HasElementEntry reports whether the name table holds an entry for the
// mapped name. History hops answered without an entry come from the
// textual decode fallback and are best-effort.
func (s *Shape) HasElementEntry(m MappedName) bool {
	_, ok := s.lookup(m.Name)
	return ok
}

// ResolveName expands a hashed name reference through the shape's
// hasher; plain names pass through.
func (s *Shape) ResolveName(m MappedName) string {
	return s.resolveText(m.Name)
}

// GetElementHistory decodes one hop of provenance for a mapped name: the
// tag of the shape that carried the source name, the source name itself,
// and intermediate names passed through inside this shape. Tag 0 means
// the name is original (leaf, synthesized combo, or unrecognized). The
// textual fallback decodes the name string itself, so a hop still
// resolves when the table entry is gone as long as the string survives.
func (s *Shape) GetElementHistory(m MappedName) (tag int64, original MappedName, intermediates []MappedName) {
	if el, ok := s.lookup(m.Name); ok {
		p := el.Prov
		if p.Tag == 0 {
			return 0, MappedName{}, nil
		}
		original = el.Name
		if len(p.Sources) > 0 {
			original = p.Sources[0]
		}
		return p.Tag, original, append([]MappedName(nil), p.Intermediates...)
	}
	if src, _, _, tg, ok := DecodeDerivedName(s.resolveText(m.Name)); ok {
		return tg, MappedName{Name: src}, nil
	}
	return 0, MappedName{}, nil
}

// ReTagElementMap rewrites the provenance tag of every entry and the
// shape's own tag; used when a shape is re-owned by a different feature
// (through a link) without altering the names themselves.
func (s *Shape) ReTagElementMap(newTag int64, hasher *StringHasher) {
	m := s.editMap()
	for _, el := range m.byName {
		el.Prov.Tag = newTag
	}
	s.Tag = newTag
	if hasher != nil {
		s.Hasher = hasher
	}
}

// InitElementNames seeds original leaf names ("v1", "e2", "f3") for every
// vertex, edge and face that has no name yet. Called once when a
// primitive feature first computes its shape.
func (s *Shape) InitElementNames() {
	if s.IsNull() {
		return
	}
	for _, k := range []kernel.Kind{kernel.KindVertex, kernel.KindEdge, kernel.KindFace} {
		n := s.kshape.Count(k)
		for i := 1; i <= n; i++ {
			idx := IndexedName{Kind: k, Index: i}
			if !s.GetMappedName(idx).IsEmpty() {
				continue
			}
			s.editMap().set(Element{Name: LeafName(k, i), Index: idx})
		}
	}
}

// GetSubTopoShape extracts the index-th sub-shape of the given kind,
// carrying a trimmed view of the name table so names keep resolving on
// the extracted shape. Out of range yields the null shape.
func (s *Shape) GetSubTopoShape(kind kernel.Kind, index int) *Shape {
	if s.IsNull() {
		return &Shape{}
	}
	sub := s.kshape.Sub(kind, index)
	if sub == nil {
		return &Shape{}
	}
	child := NewShape(sub, s.Tag, s.Hasher)
	child.HashThreshold = s.HashThreshold

	// The extracted element itself maps to index 1 of its own kind.
	if m := s.GetMappedName(IndexedName{Kind: kind, Index: index}); !m.IsEmpty() {
		if el, ok := s.lookup(m.Name); ok {
			child.editMap().set(Element{Name: el.Name, Index: IndexedName{Kind: kind, Index: 1}, Prov: el.Prov})
		}
	}
	// Lower elements keep their parent names under child-local indices.
	for k := kernel.KindVertex; k < kind; k++ {
		n := sub.Count(k)
		for i := 1; i <= n; i++ {
			ksub := sub.Sub(k, i)
			if ksub == nil {
				continue
			}
			pIdx := s.kshape.FindSub(ksub, k)
			if pIdx == 0 {
				continue
			}
			el, ok := s.emapLookupIndex(IndexedName{Kind: k, Index: pIdx})
			if !ok {
				continue
			}
			child.editMap().set(Element{Name: el.Name, Index: IndexedName{Kind: k, Index: i}, Prov: el.Prov})
		}
	}
	return child
}

func (s *Shape) emapLookupIndex(idx IndexedName) (*Element, bool) {
	if s.emap == nil {
		return nil, false
	}
	return s.emap.byIndexed(idx)
}

// FindAncestors returns the 1-based indices of the k-kind elements that
// contain the element at idx.
func (s *Shape) FindAncestors(idx IndexedName, k kernel.Kind) []int {
	if s.IsNull() {
		return nil
	}
	sub := s.kshape.Sub(idx.Kind, idx.Index)
	if sub == nil {
		return nil
	}
	return s.kshape.FindAncestors(sub, k)
}

// TransformShape applies an affine transform to the geometry in place
// and reports whether the transform carries scale. The name table is
// unaffected: enumeration order survives a transform.
func (s *Shape) TransformShape(m kernel.Matrix) (scaled bool, err error) {
	if s.IsNull() {
		return false, nil
	}
	ks, err := s.kshape.Transformed(m)
	if err != nil {
		return false, err
	}
	s.kshape = ks
	return m.HasScale(), nil
}

// IsValid reports kernel-level validity; the null shape is invalid.
func (s *Shape) IsValid() bool {
	return !s.IsNull() && s.kshape.IsValid()
}

// Fix runs kernel shape repair when validation fails, or unconditionally
// when forced. After repair, entries whose index fell outside the new
// topology are flagged missing rather than dropped.
func (s *Shape) Fix(force bool) error {
	if s.IsNull() {
		return nil
	}
	if !force && s.kshape.IsValid() {
		return nil
	}
	fixed, err := s.kshape.Fixed()
	if err != nil {
		return err
	}
	s.kshape = fixed
	s.markStaleEntries()
	return nil
}

// markStaleEntries flags entries whose index no longer exists in the
// current topology.
func (s *Shape) markStaleEntries() {
	if s.emap == nil {
		return
	}
	var stale []string
	for _, el := range s.emap.byName {
		if el.Index.IsValid() && el.Index.Index > s.kshape.Count(el.Index.Kind) {
			stale = append(stale, el.Name.Name)
		}
	}
	if len(stale) == 0 {
		return
	}
	m := s.editMap()
	for _, name := range stale {
		m.markMissing(name)
	}
}

// Entries returns the name table content sorted by mapped name, for
// callers that rebuild or inspect the map (serialization lives outside
// this layer).
func (s *Shape) Entries() []Element {
	if s.emap == nil {
		return nil
	}
	out := make([]Element, 0, s.emap.size())
	for _, el := range s.emap.byName {
		out = append(out, *el)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name.Name < out[j].Name.Name })
	return out
}

// MapOperation wraps an operation result in a new shape, deriving names
// for every traced element from the input shapes' names. Untraced or
// unnamed elements stay unnamed until a query synthesizes a name for
// them.
func MapOperation(op string, tag int64, hasher *StringHasher, res *kernel.OpResult, inputs ...*Shape) *Shape {
	out := NewShape(res.Shape, tag, hasher)
	for _, tr := range res.Traces {
		if tr.Input < 0 || tr.Input >= len(inputs) {
			continue
		}
		src := inputs[tr.Input]
		if src.IsNull() {
			continue
		}
		sm := src.GetMappedName(IndexedName{Kind: tr.From.Kind, Index: tr.From.Index})
		if sm.IsEmpty() {
			continue
		}
		to := IndexedName{Kind: tr.To.Kind, Index: tr.To.Index}
		if !out.GetMappedName(to).IsEmpty() {
			continue // first trace wins for coincident targets
		}
		derived := DeriveElementName(sm, op, tr.Generated, src.Tag)
		out.SetElementName(derived, to, Provenance{
			Tag:     src.Tag,
			Op:      op,
			Sources: []MappedName{sm},
		})
	}
	return out
}
