package naming

import (
	"github.com/chazu/tenon/pkg/doc"
	"github.com/chazu/tenon/pkg/topo"
)

// searchCacher is the per-object cache surface for geometric element
// searches, satisfied by every object embedding the document core.
type searchCacher interface {
	RegisterElementCache(prefix string)
	StoreElementSearch(name string, shape *topo.Shape, matches []topo.SearchMatch)
	SearchElementCache(name string) (*topo.Shape, []topo.SearchMatch, bool)
}

const searchCachePrefix = "src:"

// ElementFromSource finds the elements of obj's shape that descend from
// the named element of src. Name-based history matching is tried first;
// when no chain reaches the source element (names lost, foreign
// geometry), a tolerance-based geometric search against the source
// sub-shape takes over. Search results are cached on obj keyed by the
// source name and invalidated when obj's shape changes.
func ElementFromSource(obj doc.Object, name string, src doc.Object) []topo.MappedName {
	owner, _ := doc.ResolveLinkedObject(obj)
	source, _ := doc.ResolveLinkedObject(src)
	hs, ok := owner.(doc.HasShape)
	shs, sok := source.(doc.HasShape)
	if !ok || !sok {
		return nil
	}
	shape, sshape := hs.TopoShape(), shs.TopoShape()
	if shape.IsNull() || sshape.IsNull() {
		return nil
	}
	sm := sshape.GetElementName(name)
	if sm.IsEmpty() {
		sm = topo.MappedName{Name: name}
	}
	want := sshape.ResolveName(sm)

	var out []topo.MappedName
	for _, el := range shape.Entries() {
		if !el.Index.IsValid() {
			continue
		}
		for _, it := range ElementHistory(owner, el.Name.Name, true, false) {
			if it.Owner != source {
				continue
			}
			if sshape.ResolveName(it.Name) == want {
				out = append(out, el.Name)
				break
			}
		}
	}
	if len(out) > 0 {
		return out
	}

	// Geometric fallback: correlate the shapes by coincidence and keep
	// the pairs involving the source element.
	sIdx := sshape.GetIndexedName(sm)
	if !sIdx.IsValid() {
		return nil
	}
	ws := owner.Document().Workspace()
	cacheKey := searchCachePrefix + want

	var matches []topo.SearchMatch
	hit := false
	sc, hasCache := owner.(searchCacher)
	if hasCache {
		_, matches, hit = sc.SearchElementCache(cacheKey)
	}
	if !hit {
		all := shape.SearchSubShape(sshape, ws.Params.Tolerance, ws.Params.AngleTolerance)
		for _, mt := range all {
			if mt.Other == sIdx {
				matches = append(matches, mt)
			}
		}
		if hasCache {
			sc.RegisterElementCache(searchCachePrefix)
			sc.StoreElementSearch(cacheKey, sshape, matches)
		}
	}

	for _, mt := range matches {
		if mt.This.Kind != sIdx.Kind {
			continue
		}
		if m := shape.GetMappedName(mt.This); !m.IsEmpty() {
			out = append(out, m)
		} else {
			out = append(out, topo.MappedName{Name: mt.This.String()})
		}
	}
	return out
}
