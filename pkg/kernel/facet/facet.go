// Package facet implements the kernel interface with a faceted boundary
// representation. Solids are closed polygonal shells carrying a companion
// signed distance field from github.com/deadsy/sdfx; booleans classify
// faces against the counterpart's distance field rather than computing
// exact intersections. The backend is deliberately prototype fidelity:
// the naming core above it only needs stable topology enumeration,
// per-element provenance traces and coarse geometric probes.
package facet

import (
	"math"

	"github.com/chazu/tenon/pkg/kernel"
)

// Compile-time interface checks.
var (
	_ kernel.Kernel = (*FacetKernel)(nil)
	_ kernel.Shape  = (*Solid)(nil)
	_ kernel.Shape  = (*elem)(nil)
)

// coordEps is the coordinate tolerance for vertex identity.
const coordEps = 1e-9

// topology is the canonical element table of one faceted solid.
// Enumeration order is construction order and never changes for the
// lifetime of the table.
type topology struct {
	verts []kernel.Vec3
	edges [][2]int // vertex index pairs, low index first
	faces [][]int  // vertex loops, outward orientation
}

// buildEdges fills the edge table from the face loops: unique undirected
// pairs in order of first appearance.
func (t *topology) buildEdges() {
	seen := make(map[[2]int]bool)
	for _, loop := range t.faces {
		for i := range loop {
			a, b := loop[i], loop[(i+1)%len(loop)]
			if a > b {
				a, b = b, a
			}
			key := [2]int{a, b}
			if !seen[key] {
				seen[key] = true
				t.edges = append(t.edges, key)
			}
		}
	}
}

// faceNormal returns the (unnormalized) Newell normal of face i.
func (t *topology) faceNormal(i int) kernel.Vec3 {
	var n kernel.Vec3
	loop := t.faces[i]
	for j := range loop {
		a := t.verts[loop[j]]
		b := t.verts[loop[(j+1)%len(loop)]]
		n.X += (a.Y - b.Y) * (a.Z + b.Z)
		n.Y += (a.Z - b.Z) * (a.X + b.X)
		n.Z += (a.X - b.X) * (a.Y + b.Y)
	}
	return n.Scale(0.5)
}

// faceCenter returns the vertex centroid of face i.
func (t *topology) faceCenter(i int) kernel.Vec3 {
	var c kernel.Vec3
	loop := t.faces[i]
	for _, vi := range loop {
		c = c.Add(t.verts[vi])
	}
	return c.Scale(1 / float64(len(loop)))
}

// faceHasEdge reports whether edge (a,b) is consecutive in face i's loop.
func (t *topology) faceHasEdge(i int, e [2]int) bool {
	loop := t.faces[i]
	for j := range loop {
		a, b := loop[j], loop[(j+1)%len(loop)]
		if a > b {
			a, b = b, a
		}
		if a == e[0] && b == e[1] {
			return true
		}
	}
	return false
}

// faceHasVert reports whether vertex vi is part of face i's loop.
func (t *topology) faceHasVert(i, vi int) bool {
	for _, v := range t.faces[i] {
		if v == vi {
			return true
		}
	}
	return false
}

// Solid is a faceted shape: either a single closed shell with a
// companion distance field, or a compound of child solids.
type Solid struct {
	top      *topology
	children []*Solid // non-nil marks a compound
	dist     distField
}

// isCompound reports whether s is a compound of child solids.
func (s *Solid) isCompound() bool { return s.children != nil }

// Type returns the topological kind of this shape.
func (s *Solid) Type() kernel.Kind {
	if s.isCompound() {
		return kernel.KindCompound
	}
	return kernel.KindSolid
}

// Count returns the number of sub-elements of kind k.
func (s *Solid) Count(k kernel.Kind) int {
	if s.isCompound() {
		n := 0
		for _, c := range s.children {
			n += c.Count(k)
		}
		return n
	}
	switch k {
	case kernel.KindVertex:
		return len(s.top.verts)
	case kernel.KindEdge:
		return len(s.top.edges)
	case kernel.KindWire, kernel.KindFace:
		return len(s.top.faces)
	case kernel.KindShell, kernel.KindSolid:
		return 1
	default:
		return 0
	}
}

// Sub returns the index-th (1-based) sub-element of kind k.
func (s *Solid) Sub(k kernel.Kind, index int) kernel.Shape {
	if index < 1 || index > s.Count(k) {
		return nil
	}
	if s.isCompound() {
		for _, c := range s.children {
			n := c.Count(k)
			if index <= n {
				return c.Sub(k, index)
			}
			index -= n
		}
		return nil
	}
	if k == kernel.KindSolid {
		return s
	}
	return &elem{owner: s, kind: k, index: index - 1}
}

// FindSub returns the 1-based index of sub within s's enumeration of
// kind k, or 0 when sub is not part of s.
func (s *Solid) FindSub(sub kernel.Shape, k kernel.Kind) int {
	owner, kind, idx, ok := resolve(sub)
	if !ok || kind != k {
		return 0
	}
	if s.isCompound() {
		base := 0
		for _, c := range s.children {
			if n := c.FindSub(sub, k); n > 0 {
				return base + n
			}
			base += c.Count(k)
		}
		return 0
	}
	if owner.top != s.top {
		return 0
	}
	return idx + 1
}

// FindAncestors returns the 1-based indices, ascending, of all k-kind
// elements of s that contain sub.
func (s *Solid) FindAncestors(sub kernel.Shape, k kernel.Kind) []int {
	owner, kind, idx, ok := resolve(sub)
	if !ok {
		return nil
	}
	var out []int
	base := 0
	walk := func(c *Solid) {
		if c.top != owner.top {
			base += c.Count(k)
			return
		}
		for i := 0; i < c.Count(k); i++ {
			if c.contains(k, i, kind, idx) {
				out = append(out, base+i+1)
			}
		}
		base += c.Count(k)
	}
	if s.isCompound() {
		for _, c := range s.children {
			walk(c)
		}
	} else {
		walk(s)
	}
	return out
}

// contains reports whether the i-th (0-based) k-kind element of s
// contains the subIdx-th subKind element. Both live in s's topology.
func (s *Solid) contains(k kernel.Kind, i int, subKind kernel.Kind, subIdx int) bool {
	if k <= subKind {
		return false
	}
	t := s.top
	switch k {
	case kernel.KindShell, kernel.KindSolid:
		return true // single shell/solid owns every lower element
	case kernel.KindFace, kernel.KindWire:
		switch subKind {
		case kernel.KindEdge:
			return t.faceHasEdge(i, t.edges[subIdx])
		case kernel.KindVertex:
			return t.faceHasVert(i, subIdx)
		case kernel.KindWire:
			return k == kernel.KindFace && i == subIdx
		}
	case kernel.KindEdge:
		if subKind == kernel.KindVertex {
			e := t.edges[i]
			return e[0] == subIdx || e[1] == subIdx
		}
	}
	return false
}

// BoundingBox returns the axis-aligned bounding box.
func (s *Solid) BoundingBox() (min, max kernel.Vec3) {
	if s.isCompound() {
		first := true
		for _, c := range s.children {
			cmin, cmax := c.BoundingBox()
			if first {
				min, max, first = cmin, cmax, false
				continue
			}
			min = vecMin(min, cmin)
			max = vecMax(max, cmax)
		}
		return min, max
	}
	return boundsOf(s.top.verts)
}

// Center returns the vertex centroid.
func (s *Solid) Center() kernel.Vec3 {
	if s.isCompound() {
		var c kernel.Vec3
		n := 0
		for _, ch := range s.children {
			c = c.Add(ch.Center().Scale(float64(len(ch.top.verts))))
			n += len(ch.top.verts)
		}
		if n == 0 {
			return kernel.Vec3{}
		}
		return c.Scale(1 / float64(n))
	}
	var c kernel.Vec3
	if len(s.top.verts) == 0 {
		return c
	}
	for _, v := range s.top.verts {
		c = c.Add(v)
	}
	return c.Scale(1 / float64(len(s.top.verts)))
}

// Measure returns the bounding-box volume.
func (s *Solid) Measure() float64 {
	min, max := s.BoundingBox()
	d := max.Sub(min)
	return d.X * d.Y * d.Z
}

// Normal is only defined for faces.
func (s *Solid) Normal() (kernel.Vec3, bool) { return kernel.Vec3{}, false }

// Transformed returns a copy of the solid with m applied to every vertex.
func (s *Solid) Transformed(m kernel.Matrix) (kernel.Shape, error) {
	if math.Abs(m.Det()) < 1e-15 {
		return nil, &kernel.Error{Op: "transform", Msg: "singular transform"}
	}
	if s.isCompound() {
		out := &Solid{children: make([]*Solid, 0, len(s.children))}
		for _, c := range s.children {
			tc, err := c.Transformed(m)
			if err != nil {
				return nil, err
			}
			out.children = append(out.children, tc.(*Solid))
		}
		return out, nil
	}
	t := &topology{
		verts: make([]kernel.Vec3, len(s.top.verts)),
		edges: append([][2]int(nil), s.top.edges...),
		faces: make([][]int, len(s.top.faces)),
	}
	for i, v := range s.top.verts {
		t.verts[i] = m.Apply(v)
	}
	for i, loop := range s.top.faces {
		t.faces[i] = append([]int(nil), loop...)
	}
	return &Solid{top: t, dist: s.dist.transformed(m)}, nil
}

// IsValid checks that every face has at least 3 distinct vertices and,
// for closed solids, that every edge borders exactly two faces.
func (s *Solid) IsValid() bool {
	if s.isCompound() {
		for _, c := range s.children {
			if !c.IsValid() {
				return false
			}
		}
		return true
	}
	for i, loop := range s.top.faces {
		if len(loop) < 3 {
			return false
		}
		if s.top.faceNormal(i).Length() < coordEps {
			return false
		}
	}
	for ei := range s.top.edges {
		n := 0
		for fi := range s.top.faces {
			if s.top.faceHasEdge(fi, s.top.edges[ei]) {
				n++
			}
		}
		if n != 2 {
			return false
		}
	}
	return true
}

// Fixed returns a repaired copy: duplicate vertices are merged and
// degenerate faces dropped. Open shells stay open; the repair is a
// cleanup pass, not a remesh.
func (s *Solid) Fixed() (kernel.Shape, error) {
	if s.isCompound() {
		out := &Solid{children: make([]*Solid, 0, len(s.children))}
		for _, c := range s.children {
			fc, err := c.Fixed()
			if err != nil {
				return nil, err
			}
			out.children = append(out.children, fc.(*Solid))
		}
		return out, nil
	}
	b := newBuilder()
	for i, loop := range s.top.faces {
		if len(loop) < 3 || s.top.faceNormal(i).Length() < coordEps {
			continue
		}
		pts := make([]kernel.Vec3, len(loop))
		for j, vi := range loop {
			pts[j] = s.top.verts[vi]
		}
		b.addFace(pts)
	}
	return &Solid{top: b.finish(), dist: s.dist}, nil
}

// elem is a view of one sub-element of a solid. It shares the owner's
// topology so identity comparisons are index comparisons.
type elem struct {
	owner *Solid
	kind  kernel.Kind
	index int // 0-based
}

func (e *elem) Type() kernel.Kind { return e.kind }

func (e *elem) Count(k kernel.Kind) int {
	t := e.owner.top
	switch e.kind {
	case kernel.KindFace, kernel.KindWire:
		switch k {
		case kernel.KindEdge:
			n := 0
			for ei := range t.edges {
				if t.faceHasEdge(e.index, t.edges[ei]) {
					n++
				}
			}
			return n
		case kernel.KindVertex:
			return len(t.faces[e.index])
		case kernel.KindWire:
			if e.kind == kernel.KindFace {
				return 1
			}
		}
	case kernel.KindEdge:
		if k == kernel.KindVertex {
			return 2
		}
	case kernel.KindShell:
		switch k {
		case kernel.KindFace, kernel.KindWire:
			return len(t.faces)
		case kernel.KindEdge:
			return len(t.edges)
		case kernel.KindVertex:
			return len(t.verts)
		}
	}
	return 0
}

func (e *elem) Sub(k kernel.Kind, index int) kernel.Shape {
	if index < 1 || index > e.Count(k) {
		return nil
	}
	t := e.owner.top
	switch e.kind {
	case kernel.KindFace, kernel.KindWire:
		switch k {
		case kernel.KindEdge:
			n := 0
			for ei := range t.edges {
				if t.faceHasEdge(e.index, t.edges[ei]) {
					n++
					if n == index {
						return &elem{owner: e.owner, kind: k, index: ei}
					}
				}
			}
		case kernel.KindVertex:
			return &elem{owner: e.owner, kind: k, index: t.faces[e.index][index-1]}
		case kernel.KindWire:
			return &elem{owner: e.owner, kind: k, index: e.index}
		}
	case kernel.KindEdge:
		if k == kernel.KindVertex {
			return &elem{owner: e.owner, kind: k, index: t.edges[e.index][index-1]}
		}
	case kernel.KindShell:
		return e.owner.Sub(k, index)
	}
	return nil
}

func (e *elem) FindSub(sub kernel.Shape, k kernel.Kind) int {
	owner, kind, idx, ok := resolve(sub)
	if !ok || kind != k || owner.top != e.owner.top {
		return 0
	}
	n := e.Count(k)
	for i := 1; i <= n; i++ {
		if s, _, si, ok := resolve(e.Sub(k, i)); ok && s.top == owner.top && si == idx {
			return i
		}
	}
	return 0
}

func (e *elem) FindAncestors(sub kernel.Shape, k kernel.Kind) []int {
	// Ancestor search is answered by the owning solid; an element view
	// delegates so indices stay in whole-shape enumeration order.
	return e.owner.FindAncestors(sub, k)
}

func (e *elem) BoundingBox() (min, max kernel.Vec3) {
	return boundsOf(e.points())
}

func (e *elem) Center() kernel.Vec3 {
	t := e.owner.top
	switch e.kind {
	case kernel.KindVertex:
		return t.verts[e.index]
	case kernel.KindEdge:
		ed := t.edges[e.index]
		return t.verts[ed[0]].Add(t.verts[ed[1]]).Scale(0.5)
	case kernel.KindFace, kernel.KindWire:
		return t.faceCenter(e.index)
	default:
		return e.owner.Center()
	}
}

func (e *elem) Measure() float64 {
	t := e.owner.top
	switch e.kind {
	case kernel.KindEdge:
		ed := t.edges[e.index]
		return t.verts[ed[0]].Distance(t.verts[ed[1]])
	case kernel.KindFace:
		return t.faceNormal(e.index).Length()
	case kernel.KindWire:
		loop := t.faces[e.index]
		sum := 0.0
		for j := range loop {
			sum += t.verts[loop[j]].Distance(t.verts[loop[(j+1)%len(loop)]])
		}
		return sum
	case kernel.KindShell:
		sum := 0.0
		for i := range t.faces {
			sum += t.faceNormal(i).Length()
		}
		return sum
	default:
		return 0
	}
}

func (e *elem) Normal() (kernel.Vec3, bool) {
	if e.kind != kernel.KindFace {
		return kernel.Vec3{}, false
	}
	return e.owner.top.faceNormal(e.index).Normalized(), true
}

// Transformed materializes the element as a standalone shape and
// transforms it. The result has no distance field and cannot take part
// in boolean operations.
func (e *elem) Transformed(m kernel.Matrix) (kernel.Shape, error) {
	return e.materialize().Transformed(m)
}

func (e *elem) IsValid() bool { return true }

func (e *elem) Fixed() (kernel.Shape, error) { return e, nil }

// points returns the defining vertices of the element.
func (e *elem) points() []kernel.Vec3 {
	t := e.owner.top
	switch e.kind {
	case kernel.KindVertex:
		return []kernel.Vec3{t.verts[e.index]}
	case kernel.KindEdge:
		ed := t.edges[e.index]
		return []kernel.Vec3{t.verts[ed[0]], t.verts[ed[1]]}
	case kernel.KindFace, kernel.KindWire:
		loop := t.faces[e.index]
		pts := make([]kernel.Vec3, len(loop))
		for j, vi := range loop {
			pts[j] = t.verts[vi]
		}
		return pts
	default:
		return t.verts
	}
}

// materialize copies the element into a standalone Solid so it can live
// independently of the owner (sub-shape extraction).
func (e *elem) materialize() *Solid {
	t := &topology{}
	switch e.kind {
	case kernel.KindVertex:
		t.verts = e.points()
	case kernel.KindEdge:
		t.verts = e.points()
		t.edges = [][2]int{{0, 1}}
	default:
		pts := e.points()
		loop := make([]int, len(pts))
		for i := range pts {
			t.verts = append(t.verts, pts[i])
			loop[i] = i
		}
		t.faces = [][]int{loop}
		t.buildEdges()
	}
	return &Solid{top: t}
}

// resolve extracts (owner, kind, canonical index) from any facet shape.
func resolve(s kernel.Shape) (*Solid, kernel.Kind, int, bool) {
	switch v := s.(type) {
	case *Solid:
		if v == nil || v.isCompound() {
			return nil, kernel.KindNone, 0, false
		}
		return v, kernel.KindSolid, 0, true
	case *elem:
		return v.owner, v.kind, v.index, true
	default:
		return nil, kernel.KindNone, 0, false
	}
}

func boundsOf(pts []kernel.Vec3) (min, max kernel.Vec3) {
	if len(pts) == 0 {
		return
	}
	min, max = pts[0], pts[0]
	for _, p := range pts[1:] {
		min = vecMin(min, p)
		max = vecMax(max, p)
	}
	return
}

func vecMin(a, b kernel.Vec3) kernel.Vec3 {
	return kernel.Vec3{X: math.Min(a.X, b.X), Y: math.Min(a.Y, b.Y), Z: math.Min(a.Z, b.Z)}
}

func vecMax(a, b kernel.Vec3) kernel.Vec3 {
	return kernel.Vec3{X: math.Max(a.X, b.X), Y: math.Max(a.Y, b.Y), Z: math.Max(a.Z, b.Z)}
}
