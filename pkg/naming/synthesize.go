package naming

import (
	"sort"

	"github.com/chazu/tenon/pkg/doc"
	"github.com/chazu/tenon/pkg/kernel"
	"github.com/chazu/tenon/pkg/topo"
)

// ExportElementName returns a persistent name for a higher-level element
// (wire, shell, solid, compound), synthesizing and registering one from
// a minimal discriminating set of lower-element names when the element
// is not named yet. Faces and below are never synthesized here; their
// names come from operation traces.
//
// The synthesized name is a pure function of the discriminating set, so
// re-synthesis after an identical rebuild yields the identical string.
func ExportElementName(obj doc.Object, idx topo.IndexedName) topo.MappedName {
	owner, _ := doc.ResolveLinkedObject(obj)
	hs, ok := owner.(doc.HasShape)
	if !ok {
		return topo.MappedName{}
	}
	shape := hs.TopoShape()
	if shape.IsNull() || !idx.IsValid() {
		return topo.MappedName{}
	}
	if m := shape.GetMappedName(idx); !m.IsEmpty() {
		return m
	}
	lower := topo.LowerKind(idx.Kind)
	if lower == kernel.KindNone {
		return topo.MappedName{}
	}
	params := owner.Document().Workspace().Params

	ks := shape.KernelShape()
	target := ks.Sub(idx.Kind, idx.Index)
	if target == nil {
		return topo.MappedName{}
	}

	type candidate struct {
		name   topo.MappedName
		owners []int
	}
	var cands []candidate
	unique := 0
	n := target.Count(lower)
	for i := 1; i <= n && len(cands) < params.MaxLowerTopoNames; i++ {
		lsub := target.Sub(lower, i)
		if lsub == nil {
			continue
		}
		pIdx := ks.FindSub(lsub, lower)
		if pIdx == 0 {
			continue
		}
		lidx := topo.IndexedName{Kind: lower, Index: pIdx}
		m := shape.GetMappedName(lidx)
		if m.IsEmpty() {
			continue
		}
		owners := shape.FindAncestors(lidx, idx.Kind)
		if len(owners) == 0 {
			continue
		}
		cands = append(cands, candidate{name: m, owners: owners})
		if len(owners) == 1 {
			unique++
			if unique >= params.MinLowerTopoNames {
				break
			}
		}
	}
	if len(cands) == 0 {
		return topo.MappedName{}
	}

	// Prefer the most discriminating components: fewest containing
	// elements first, name order as the deterministic tie break.
	sort.Slice(cands, func(i, j int) bool {
		if len(cands[i].owners) != len(cands[j].owners) {
			return len(cands[i].owners) < len(cands[j].owners)
		}
		return cands[i].name.Name < cands[j].name.Name
	})

	set := make(map[int]bool, len(cands[0].owners))
	for _, o := range cands[0].owners {
		set[o] = true
	}
	comps := []topo.MappedName{cands[0].name}
	for _, c := range cands[1:] {
		if len(set) == 1 {
			break
		}
		ns := intersect(set, c.owners)
		if len(ns) == len(set) {
			continue // adds no discrimination
		}
		set = ns
		comps = append(comps, c.name)
	}

	postfix := ""
	if len(set) > 1 {
		// Still ambiguous after every candidate: disambiguate by the
		// target's position within the sorted surviving set.
		sorted := sortedKeys(set)
		pos := 0
		for i, v := range sorted {
			if v == idx.Index {
				pos = i
				break
			}
		}
		postfix = topo.DisambiguationPostfix(pos)
	}

	return shape.SetElementComboName(idx, comps, topo.ComboOp(idx.Kind), postfix)
}

// ResolveComboName re-binds a synthesized combination name against the
// shape's current topology by intersecting the containing elements of
// its components. A name whose components no longer pin down an element
// resolves to the invalid index, never to a guess.
func ResolveComboName(shape *topo.Shape, m topo.MappedName) topo.IndexedName {
	op, comps, postfix, ok := shape.DecodeElementComboName(m)
	if !ok {
		return topo.IndexedName{}
	}
	kind := topo.KindOfComboOp(op)
	if kind == kernel.KindNone || len(comps) == 0 {
		return topo.IndexedName{}
	}
	var set map[int]bool
	for _, c := range comps {
		li := shape.GetIndexedName(c)
		if !li.IsValid() {
			return topo.IndexedName{}
		}
		owners := shape.FindAncestors(li, kind)
		if set == nil {
			set = make(map[int]bool, len(owners))
			for _, o := range owners {
				set[o] = true
			}
		} else {
			set = intersect(set, owners)
		}
		if len(set) == 0 {
			return topo.IndexedName{}
		}
	}
	if len(set) == 1 {
		for v := range set {
			return topo.IndexedName{Kind: kind, Index: v}
		}
	}
	if _, pos, ok := topo.SplitPostfix(postfix); ok {
		sorted := sortedKeys(set)
		if pos < len(sorted) {
			return topo.IndexedName{Kind: kind, Index: sorted[pos]}
		}
	}
	return topo.IndexedName{}
}

// ResolveElement resolves any element reference on an object to a
// current index: registered names and index-style references through the
// name table, synthesized combination names through component
// re-intersection.
func ResolveElement(obj doc.Object, name string) topo.IndexedName {
	owner, _ := doc.ResolveLinkedObject(obj)
	hs, ok := owner.(doc.HasShape)
	if !ok {
		return topo.IndexedName{}
	}
	shape := hs.TopoShape()
	if shape.IsNull() {
		return topo.IndexedName{}
	}
	m := shape.GetElementName(name)
	if m.IsEmpty() {
		m = topo.MappedName{Name: name}
	}
	if idx := shape.GetIndexedName(m); idx.IsValid() {
		return idx
	}
	return ResolveComboName(shape, m)
}

func intersect(set map[int]bool, vals []int) map[int]bool {
	out := make(map[int]bool)
	for _, v := range vals {
		if set[v] {
			out[v] = true
		}
	}
	return out
}

func sortedKeys(set map[int]bool) []int {
	out := make([]int, 0, len(set))
	for v := range set {
		out = append(out, v)
	}
	sort.Ints(out)
	return out
}
