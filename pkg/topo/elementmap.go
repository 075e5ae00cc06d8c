package topo

// Provenance records where a mapped name came from: the tag of the shape
// that carried the source name, the operation code, the ordered source
// names, and any intermediate names the element passed through inside the
// same shape (local repair renames).
type Provenance struct {
	Tag           int64
	Op            string
	Sources       []MappedName
	Intermediates []MappedName
}

// Element is one entry of the name table: a bidirectional association
// between a persistent mapped name and the current indexed name, plus
// provenance.
type Element struct {
	Name  MappedName
	Index IndexedName
	Prov  Provenance
}

// elementMap is the per-shape name table. It is shared between shape
// copies until one of them mutates (copy-on-write, managed by Shape).
type elementMap struct {
	byName  map[string]*Element
	byIndex map[IndexedName]*Element
}

func newElementMap() *elementMap {
	return &elementMap{
		byName:  make(map[string]*Element),
		byIndex: make(map[IndexedName]*Element),
	}
}

func (m *elementMap) clone() *elementMap {
	c := &elementMap{
		byName:  make(map[string]*Element, len(m.byName)),
		byIndex: make(map[IndexedName]*Element, len(m.byIndex)),
	}
	for _, el := range m.byName {
		e := *el
		e.Prov.Sources = append([]MappedName(nil), el.Prov.Sources...)
		e.Prov.Intermediates = append([]MappedName(nil), el.Prov.Intermediates...)
		c.byName[e.Name.Name] = &e
		if e.Index.IsValid() {
			c.byIndex[e.Index] = &e
		}
	}
	return c
}

// set inserts or replaces an entry, unlinking any stale reverse
// associations first so both directions stay consistent.
func (m *elementMap) set(el Element) {
	if old, ok := m.byName[el.Name.Name]; ok && old.Index != el.Index {
		delete(m.byIndex, old.Index)
	}
	if old, ok := m.byIndex[el.Index]; ok && old.Name.Name != el.Name.Name {
		delete(m.byName, old.Name.Name)
	}
	e := el
	m.byName[e.Name.Name] = &e
	if e.Index.IsValid() {
		m.byIndex[e.Index] = &e
	}
}

func (m *elementMap) byMapped(name string) (*Element, bool) {
	el, ok := m.byName[name]
	return el, ok
}

func (m *elementMap) byIndexed(idx IndexedName) (*Element, bool) {
	el, ok := m.byIndex[idx]
	return el, ok
}

// markMissing flags an entry whose index no longer exists in the current
// topology. The entry is kept, not dropped, so the broken reference stays
// visible to callers.
func (m *elementMap) markMissing(name string) {
	if el, ok := m.byName[name]; ok {
		el.Name.Missing = true
		delete(m.byIndex, el.Index)
		el.Index = IndexedName{}
	}
}

func (m *elementMap) size() int { return len(m.byName) }
