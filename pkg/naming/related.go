package naming

import (
	"github.com/chazu/tenon/pkg/doc"
	"github.com/chazu/tenon/pkg/topo"
)

// relatedCacher is the per-object cache surface for related-elements
// queries, satisfied by every object embedding the document core.
type relatedCacher interface {
	RelatedCache(key string) ([]doc.RelatedResult, bool)
	StoreRelatedCache(key string, results []doc.RelatedResult)
}

// RelatedElements finds the elements of obj's shape that share ancestry
// with the named element: elements whose history chains pass through the
// same upstream elements. A chain name that still resolves on the shape
// answers directly; otherwise every entry's chain is scored by the
// number of history steps shared counting from the root, and only the
// top scorers are returned. With withCache the result is kept on the
// object until its shape changes.
func RelatedElements(obj doc.Object, name string, sameType, withCache bool) []doc.RelatedResult {
	owner, _ := doc.ResolveLinkedObject(obj)
	hs, ok := owner.(doc.HasShape)
	if !ok {
		return nil
	}
	shape := hs.TopoShape()
	if shape.IsNull() {
		return nil
	}
	m := shape.GetElementName(name)
	if m.IsEmpty() {
		m = topo.MappedName{Name: name}
	}

	key := m.Name + "|"
	if sameType {
		key += "t"
	}
	rc, hasCache := owner.(relatedCacher)
	hasCache = hasCache && withCache
	if hasCache {
		if r, hit := rc.RelatedCache(key); hit {
			return r
		}
	}

	items := ElementHistory(owner, m.Name, true, sameType)
	target := rootChain(items)
	if len(target) == 0 {
		return nil
	}
	targetIdx := shape.GetIndexedName(m)

	// Fast path: an earlier chain name that re-resolves on this shape is
	// the related element; no scan needed.
	for _, it := range items[1:] {
		idx := shape.GetIndexedName(it.Name)
		if !idx.IsValid() {
			continue
		}
		if sameType && targetIdx.IsValid() && idx.Kind != targetIdx.Kind {
			continue
		}
		rel := shape.GetMappedName(idx)
		if rel.IsEmpty() {
			rel = it.Name
		}
		if rel.Name == m.Name {
			continue
		}
		out := []doc.RelatedResult{{Name: rel, Index: idx, Score: len(target)}}
		if hasCache {
			rc.StoreRelatedCache(key, out)
		}
		return out
	}

	var results []doc.RelatedResult
	best := 0
	for _, el := range shape.Entries() {
		if el.Name.Name == m.Name || !el.Index.IsValid() {
			continue
		}
		if sameType && targetIdx.IsValid() && el.Index.Kind != targetIdx.Kind {
			continue
		}
		chain := rootChain(ElementHistory(owner, el.Name.Name, true, sameType))
		score := commonPrefix(target, chain)
		if score == 0 {
			continue
		}
		results = append(results, doc.RelatedResult{Name: el.Name, Index: el.Index, Score: score})
		if score > best {
			best = score
		}
	}

	top := results[:0]
	for _, r := range results {
		if r.Score == best {
			top = append(top, r)
		}
	}
	if len(top) == 0 {
		top = nil
	}
	if hasCache {
		rc.StoreRelatedCache(key, top)
	}
	return top
}

// rootChain renders a history root-first as comparable step keys.
func rootChain(items []HistoryItem) []string {
	out := make([]string, len(items))
	for i, it := range items {
		out[len(items)-1-i] = chainKey(it)
	}
	return out
}

func commonPrefix(a, b []string) int {
	n := 0
	for n < len(a) && n < len(b) && a[n] == b[n] {
		n++
	}
	return n
}
