package topo

import (
	"math"

	"github.com/dhconnelly/rtreego"

	"github.com/chazu/tenon/pkg/kernel"
)

// SearchMatch pairs a coincident element of two shapes.
type SearchMatch struct {
	This  IndexedName
	Other IndexedName
}

// searchKinds are the element kinds correlated by geometry search.
var searchKinds = [...]kernel.Kind{kernel.KindVertex, kernel.KindEdge, kernel.KindFace}

type searchItem struct {
	rect rtreego.Rect
	idx  IndexedName
	sub  kernel.Shape
}

func (it *searchItem) Bounds() rtreego.Rect { return it.rect }

// SearchSubShape correlates elements of s with elements of other by
// geometry: candidates come from an r-tree over tolerance-inflated
// bounding boxes, then each candidate pair is verified by center
// distance, measure and, for faces, normal angle. This is the fallback
// used when name-based tracing cannot identify an element.
func (s *Shape) SearchSubShape(other *Shape, tol, atol float64) []SearchMatch {
	if s.IsNull() || other.IsNull() {
		return nil
	}
	if tol <= 0 {
		tol = 1e-7
	}
	var out []SearchMatch
	for _, kind := range searchKinds {
		n := s.kshape.Count(kind)
		if n == 0 || other.kshape.Count(kind) == 0 {
			continue
		}
		tree := rtreego.NewTree(3, 2, 8)
		for i := 1; i <= n; i++ {
			sub := s.kshape.Sub(kind, i)
			if sub == nil {
				continue
			}
			rect, err := inflatedRect(sub, tol)
			if err != nil {
				continue
			}
			tree.Insert(&searchItem{rect: rect, idx: IndexedName{Kind: kind, Index: i}, sub: sub})
		}
		m := other.kshape.Count(kind)
		for j := 1; j <= m; j++ {
			osub := other.kshape.Sub(kind, j)
			if osub == nil {
				continue
			}
			rect, err := inflatedRect(osub, tol)
			if err != nil {
				continue
			}
			for _, hit := range tree.SearchIntersect(rect) {
				it := hit.(*searchItem)
				if !coincident(it.sub, osub, tol, atol) {
					continue
				}
				out = append(out, SearchMatch{
					This:  it.idx,
					Other: IndexedName{Kind: kind, Index: j},
				})
			}
		}
	}
	return out
}

func inflatedRect(sub kernel.Shape, tol float64) (rtreego.Rect, error) {
	min, max := sub.BoundingBox()
	p := rtreego.Point{min.X - tol, min.Y - tol, min.Z - tol}
	lengths := []float64{
		max.X - min.X + 2*tol,
		max.Y - min.Y + 2*tol,
		max.Z - min.Z + 2*tol,
	}
	return rtreego.NewRect(p, lengths)
}

// coincident verifies a candidate pair: centers within tol, measures
// within a tolerance scaled by magnitude, and face normals within atol
// (orientation-insensitive, so flipped faces still match).
func coincident(a, b kernel.Shape, tol, atol float64) bool {
	if a.Center().Distance(b.Center()) > tol {
		return false
	}
	ma, mb := a.Measure(), b.Measure()
	if math.Abs(ma-mb) > tol*(1+math.Max(math.Abs(ma), math.Abs(mb))) {
		return false
	}
	na, aok := a.Normal()
	nb, bok := b.Normal()
	if aok != bok {
		return false
	}
	if aok {
		if atol <= 0 {
			atol = 1e-7
		}
		dot := math.Abs(na.Dot(nb))
		if dot < math.Cos(atol) {
			return false
		}
	}
	return true
}
