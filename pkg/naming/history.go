// Package naming implements the query layer over the element name
// tables: history resolution across the feature dependency graph,
// on-demand name synthesis for higher-level elements, related-element
// discovery and cross-object element correlation.
package naming

import (
	"fmt"

	"github.com/google/uuid"

	"github.com/chazu/tenon/pkg/doc"
	"github.com/chazu/tenon/pkg/kernel"
	"github.com/chazu/tenon/pkg/topo"
)

// HistoryItem is one step of an element's ancestry chain.
type HistoryItem struct {
	// Owner is the object whose shape carried the name at this step; nil
	// when the producing object has been deleted.
	Owner doc.Object

	// Tag is the producer tag decoded from this step's name; 0 marks the
	// root of history.
	Tag int64

	// Name is the element's mapped name at this step.
	Name topo.MappedName

	// Index is the name resolved against the owner's current shape; the
	// invalid index when resolution failed.
	Index topo.IndexedName

	// Intermediates are names the element passed through inside the same
	// shape (local repair renames).
	Intermediates []topo.MappedName

	// Heuristic marks a step decoded from the name text alone, without a
	// table entry backing it. Best-effort: hash-based decoding across
	// documents can in principle produce false positives.
	Heuristic bool
}

type guardKey struct {
	doc uuid.UUID
	tag int64
}

// ElementHistory walks an element's ancestry backward through the
// feature dependency graph, starting at (obj, name). With recursive
// false it stops after one hop. With sameType true the walk prunes at
// the first step whose element kind differs from the start's.
//
// The walk stops gracefully at roots (tag 0), deleted producers (the
// final item carries the tag but a nil Owner), type-filter prunes, and
// repeated (document, tag) pairs, which are logged as cycles.
func ElementHistory(obj doc.Object, name string, recursive, sameType bool) []HistoryItem {
	owner, _ := doc.ResolveLinkedObject(obj)
	hs, ok := owner.(doc.HasShape)
	if !ok {
		return nil
	}
	shape := hs.TopoShape()
	if shape.IsNull() {
		return nil
	}
	current := shape.GetElementName(name)
	if current.IsEmpty() {
		current = topo.MappedName{Name: name}
	}
	ws := owner.Document().Workspace()
	startKind := kindOfName(shape, current)
	seen := make(map[guardKey]bool)

	var out []HistoryItem
	for {
		tag, original, inter := shape.GetElementHistory(current)
		item := HistoryItem{
			Owner:         owner,
			Tag:           tag,
			Name:          current,
			Index:         shape.GetIndexedName(current),
			Intermediates: inter,
			Heuristic:     tag != 0 && !shape.HasElementEntry(current),
		}
		out = append(out, item)

		if tag == 0 || original.IsEmpty() {
			return out
		}
		if sameType {
			if k := kindOfName(shape, original); k != kernel.KindNone && k != startKind {
				return out
			}
			pruned := false
			for _, im := range inter {
				if k := kindOfName(shape, im); k != kernel.KindNone && k != startKind {
					pruned = true
					break
				}
			}
			if pruned {
				return out
			}
		}

		d := owner.Document()
		key := guardKey{doc: d.ID, tag: tag}
		if seen[key] {
			ws.Log.WithField("document", d.Name).
				Warnf("element history cycle at tag %d, stopping", tag)
			return out
		}
		seen[key] = true

		next := d.ObjectByTag(tag)
		if next == nil {
			// The producer is gone; the interned name text still tells us
			// what the element was called there.
			out = append(out, HistoryItem{
				Tag:       tag,
				Name:      topo.MappedName{Name: shape.ResolveName(original)},
				Heuristic: true,
			})
			return out
		}
		next, _ = doc.ResolveLinkedObject(next)
		nhs, ok := next.(doc.HasShape)
		if !ok || nhs.TopoShape().IsNull() {
			out = append(out, HistoryItem{Owner: next, Tag: tag, Name: original})
			return out
		}
		nshape := nhs.TopoShape()

		// When the name no longer resolves upstream but a later
		// intermediate does, substitute the intermediate so a local
		// repair rename does not break the trace.
		if !nshape.GetIndexedName(original).IsValid() {
			for _, im := range inter {
				if nshape.GetIndexedName(im).IsValid() {
					out[len(out)-1].Intermediates = append(out[len(out)-1].Intermediates, original)
					original = im
					break
				}
			}
		}

		owner, shape, current = next, nshape, original
		if !recursive {
			out = append(out, HistoryItem{
				Owner: owner,
				Name:  current,
				Index: shape.GetIndexedName(current),
			})
			return out
		}
	}
}

// ElementSource returns the root of an element's history: the object and
// name the element originally came from. The returned index is the
// root name resolved on the root owner's shape.
func ElementSource(obj doc.Object, name string, sameType bool) (doc.Object, topo.MappedName, topo.IndexedName) {
	items := ElementHistory(obj, name, true, sameType)
	if len(items) == 0 {
		return nil, topo.MappedName{}, topo.IndexedName{}
	}
	last := items[len(items)-1]
	return last.Owner, last.Name, last.Index
}

// kindOfName determines the element kind a mapped name refers to: by
// resolving it on the shape when possible, otherwise by decoding the
// name text down to its leaf or combination root.
func kindOfName(shape *topo.Shape, m topo.MappedName) kernel.Kind {
	if idx := shape.GetIndexedName(m); idx.IsValid() {
		return idx.Kind
	}
	s := shape.ResolveName(m)
	for {
		src, _, _, _, ok := topo.DecodeDerivedName(s)
		if !ok {
			break
		}
		s = src
	}
	if op, _, _, ok := topo.DecodeComboName(s); ok {
		return topo.KindOfComboOp(op)
	}
	if k := topo.KindOfLeafName(s); k != kernel.KindNone {
		return k
	}
	if idx, ok := topo.ParseIndexedName(s); ok {
		return idx.Kind
	}
	return kernel.KindNone
}

// chainKey identifies a history item for tail comparison.
func chainKey(it HistoryItem) string {
	var docID uuid.UUID
	if it.Owner != nil {
		docID = it.Owner.Document().ID
	}
	name := it.Name.Name
	if it.Owner != nil {
		if hs, ok := it.Owner.(doc.HasShape); ok {
			name = hs.TopoShape().ResolveName(it.Name)
		}
	}
	return fmt.Sprintf("%s/%d/%s", docID, it.Tag, name)
}
