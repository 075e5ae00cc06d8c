package doc

import (
	"strings"

	"github.com/chazu/tenon/pkg/kernel"
	"github.com/chazu/tenon/pkg/topo"
)

// ShapeOptions controls GetTopoShape.
type ShapeOptions struct {
	// NeedSubElement extracts the addressed element as its own shape and
	// unwraps single-element compounds.
	NeedSubElement bool

	// ResolveLink follows link indirections on the starting object.
	ResolveLink bool

	// Transform is applied to the result after retrieval. The zero
	// matrix means no transform.
	Transform kernel.Matrix
}

// GetTopoShape is the single entry point answering "what is the
// effective shape of obj, optionally restricted to the sub-object path
// subname, optionally transformed". Unresolvable paths yield the null
// shape; kernel failures during transform are logged and yield the null
// shape, never an error return.
//
// Shapes are cached untransformed per (object, subname, options), so
// one cached shape serves callers at any placement. Caching is disabled
// when the path runs through a link carrying element visibility
// overrides, since the composite then depends on a temporarily-hidden
// element set; that gate is absolute. A scale-bearing transform forces
// the cache write past the config switch only, because a scaled shape
// cannot be re-derived cheaply from the unscaled one.
func (ws *Workspace) GetTopoShape(obj Object, subname string, opts ShapeOptions) *topo.Shape {
	if obj == nil {
		return &topo.Shape{}
	}

	canCache := true
	placement := kernel.Identity()
	var lastVis HasElementVisibility

	cur := obj
	if opts.ResolveLink {
		cur, placement, canCache, lastVis = unwindLinks(cur, placement, canCache, lastVis)
	}

	// Walk the dotted sub-object path.
	rest := subname
	for rest != "" {
		seg := rest
		tail := ""
		if i := strings.IndexByte(rest, '.'); i >= 0 {
			seg, tail = rest[:i], rest[i+1:]
		}
		child := childByName(cur, seg)
		if child == nil {
			break
		}
		cur = child
		rest = tail
		cur, placement, canCache, lastVis = unwindLinks(cur, placement, canCache, lastVis)
	}
	element := rest

	cacheable := canCache && !ws.Params.DisableShapeCache
	// The key carries every option that changes the built shape: a
	// resolved link yields the target's shape, an unresolved one the
	// link's own re-tagged shape.
	cacheKey := subname
	if opts.NeedSubElement {
		cacheKey += ";sub"
	}
	if opts.ResolveLink {
		cacheKey += ";link"
	}
	c := coreOf(obj)
	transform := effectiveTransform(opts.Transform)
	scaled := transform.HasScale()

	var s *topo.Shape
	if c != nil && cacheable {
		if cached, ok := c.cachedShape(cacheKey); ok {
			s = cached
		}
	}
	if s == nil {
		s = ws.buildShape(cur, element, lastVis, opts)
		if s.IsNull() {
			return s
		}
		if c != nil && canCache && (cacheable || scaled) {
			c.cacheShape(cacheKey, s)
		}
	}

	if m := placement.Mul(transform); !m.IsIdentity() {
		s = s.Copy()
		if _, err := s.TransformShape(m); err != nil {
			ws.Log.WithField("object", obj.Name()).
				Warnf("transform failed, dropping shape: %v", err)
			return &topo.Shape{}
		}
	}
	return s
}

// buildShape produces the untransformed shape of the resolved owner,
// restricted to the element reference when requested.
func (ws *Workspace) buildShape(owner Object, element string, lastVis HasElementVisibility, opts ShapeOptions) *topo.Shape {
	s := ws.ownerShape(owner, lastVis)
	if s.IsNull() {
		return s
	}

	if element != "" && opts.NeedSubElement {
		idx := s.GetIndexedName(topo.MappedName{Name: element})
		if !idx.IsValid() {
			return &topo.Shape{}
		}
		s = s.GetSubTopoShape(idx.Kind, idx.Index)
		return s
	}

	// A composite that collapsed to a single solid is returned as that
	// solid; callers asking for sub-elements expect "a solid", not "a
	// compound containing one solid".
	if opts.NeedSubElement && s.Type() == kernel.KindCompound && s.CountSubShapes(kernel.KindSolid) == 1 {
		s = s.GetSubTopoShape(kernel.KindSolid, 1)
	}
	return s
}

// ownerShape returns the owner's composite shape. A group reached
// through a link with visibility overrides is recomposed with the hidden
// children excluded; that recomposition is never cached.
func (ws *Workspace) ownerShape(owner Object, lastVis HasElementVisibility) *topo.Shape {
	if g, ok := owner.(*Group); ok && lastVis != nil && lastVis.HasVisibilityOverrides() {
		s, err := composeCompound(g.doc, g.tag, g.children, func(name string) bool {
			return lastVis.ElementVisible(name) == 0
		})
		if err != nil {
			ws.Log.WithField("object", owner.Name()).
				Warnf("filtered compound failed: %v", err)
			return &topo.Shape{}
		}
		return s
	}
	if hs, ok := owner.(HasShape); ok {
		return hs.TopoShape()
	}
	return &topo.Shape{}
}

// unwindLinks follows link indirections, accumulating placements and
// noting visibility overrides on the chain. A link with overrides makes
// the result uncacheable and becomes the visibility authority for
// composite filtering.
func unwindLinks(obj Object, placement kernel.Matrix, canCache bool, lastVis HasElementVisibility) (Object, kernel.Matrix, bool, HasElementVisibility) {
	seen := make(map[Object]bool)
	for obj != nil && !seen[obj] {
		seen[obj] = true
		if vis, ok := obj.(HasElementVisibility); ok && vis.HasVisibilityOverrides() {
			canCache = false
			lastVis = vis
		}
		l, ok := obj.(HasLinkedObject)
		if !ok {
			break
		}
		target, m := l.LinkedObject()
		if target == nil {
			break
		}
		placement = placement.Mul(m)
		obj = target
	}
	return obj, placement, canCache, lastVis
}

func coreOf(obj Object) *core {
	switch o := obj.(type) {
	case *Feature:
		return &o.core
	case *Link:
		return &o.core
	case *Group:
		return &o.core
	default:
		return nil
	}
}

// effectiveTransform maps the zero matrix to the identity so callers can
// leave ShapeOptions.Transform unset.
func effectiveTransform(m kernel.Matrix) kernel.Matrix {
	if m == (kernel.Matrix{}) {
		return kernel.Identity()
	}
	return m
}
