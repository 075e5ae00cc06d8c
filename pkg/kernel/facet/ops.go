package facet

import (
	"fmt"
	"math"

	"github.com/deadsy/sdfx/sdf"
	v3 "github.com/deadsy/sdfx/vec/v3"

	"github.com/chazu/tenon/pkg/kernel"
)

// classifyEps is the signed-distance band treated as "on the surface".
const classifyEps = 1e-7

// FacetKernel is the faceted backend.
type FacetKernel struct{}

// New returns a faceted kernel backend.
func New() *FacetKernel { return &FacetKernel{} }

// Box creates an axis-aligned box with its minimum corner at the origin.
func (k *FacetKernel) Box(x, y, z float64) (kernel.Shape, error) {
	if x <= 0 || y <= 0 || z <= 0 {
		return nil, &kernel.Error{Op: "box", Msg: "dimensions must be positive"}
	}
	t := &topology{
		verts: []kernel.Vec3{
			{X: 0, Y: 0, Z: 0}, {X: x, Y: 0, Z: 0}, {X: x, Y: y, Z: 0}, {X: 0, Y: y, Z: 0},
			{X: 0, Y: 0, Z: z}, {X: x, Y: 0, Z: z}, {X: x, Y: y, Z: z}, {X: 0, Y: y, Z: z},
		},
		faces: [][]int{
			{0, 3, 2, 1}, // bottom, -z
			{4, 5, 6, 7}, // top, +z
			{0, 1, 5, 4}, // -y
			{1, 2, 6, 5}, // +x
			{2, 3, 7, 6}, // +y
			{3, 0, 4, 7}, // -x
		},
	}
	t.buildEdges()

	// sdf.Box3D centers the box at the origin; shift to the min corner.
	s, err := sdf.Box3D(v3.Vec{X: x, Y: y, Z: z}, 0)
	if err != nil {
		return nil, &kernel.Error{Op: "box", Msg: err.Error()}
	}
	s = sdf.Transform3D(s, sdf.Translate3d(v3.Vec{X: x / 2, Y: y / 2, Z: z / 2}))
	return &Solid{top: t, dist: newDistField(s)}, nil
}

// Cylinder creates a prism approximation of a cylinder with its base on
// the z=0 plane. segments controls the number of side faces.
func (k *FacetKernel) Cylinder(height, radius float64, segments int) (kernel.Shape, error) {
	if height <= 0 || radius <= 0 {
		return nil, &kernel.Error{Op: "cylinder", Msg: "dimensions must be positive"}
	}
	if segments < 3 {
		segments = 16
	}
	t := &topology{}
	for i := 0; i < segments; i++ {
		a := 2 * math.Pi * float64(i) / float64(segments)
		t.verts = append(t.verts, kernel.Vec3{X: radius * math.Cos(a), Y: radius * math.Sin(a)})
	}
	for i := 0; i < segments; i++ {
		v := t.verts[i]
		t.verts = append(t.verts, kernel.Vec3{X: v.X, Y: v.Y, Z: height})
	}
	bottom := make([]int, segments)
	top := make([]int, segments)
	for i := 0; i < segments; i++ {
		bottom[i] = segments - 1 - i // reversed so the normal points -z
		top[i] = segments + i
	}
	t.faces = append(t.faces, bottom, top)
	for i := 0; i < segments; i++ {
		j := (i + 1) % segments
		t.faces = append(t.faces, []int{i, j, segments + j, segments + i})
	}
	t.buildEdges()

	s, err := sdf.Cylinder3D(height, radius, 0)
	if err != nil {
		return nil, &kernel.Error{Op: "cylinder", Msg: err.Error()}
	}
	s = sdf.Transform3D(s, sdf.Translate3d(v3.Vec{Z: height / 2}))
	return &Solid{top: t, dist: newDistField(s)}, nil
}

// Boolean combines two solids. Faces are kept or dropped whole based on
// where their centroid sits in the counterpart's distance field; no face
// splitting is performed.
func (k *FacetKernel) Boolean(op kernel.BoolOp, a, b kernel.Shape) (*kernel.OpResult, error) {
	sa, err := asSolid(a, op.String())
	if err != nil {
		return nil, err
	}
	sb, err := asSolid(b, op.String())
	if err != nil {
		return nil, err
	}

	type kept struct {
		input int
		face  int
		flip  bool
	}
	var keep []kept
	for fi := range sa.top.faces {
		d := sb.dist.eval(sa.top.faceCenter(fi))
		switch op {
		case kernel.BoolFuse:
			if d > -classifyEps {
				keep = append(keep, kept{0, fi, false})
			}
		case kernel.BoolCut:
			if d > classifyEps {
				keep = append(keep, kept{0, fi, false})
			}
		case kernel.BoolCommon:
			if d < classifyEps {
				keep = append(keep, kept{0, fi, false})
			}
		}
	}
	for fi := range sb.top.faces {
		d := sa.dist.eval(sb.top.faceCenter(fi))
		switch op {
		case kernel.BoolFuse:
			if d > classifyEps {
				keep = append(keep, kept{1, fi, false})
			}
		case kernel.BoolCut:
			// Buried faces of the tool become cavity walls, flipped.
			if d < -classifyEps {
				keep = append(keep, kept{1, fi, true})
			}
		case kernel.BoolCommon:
			if d < -classifyEps {
				keep = append(keep, kept{1, fi, false})
			}
		}
	}
	if len(keep) == 0 {
		return nil, &kernel.Error{Op: op.String(), Msg: "empty result"}
	}

	inputs := [2]*Solid{sa, sb}
	bld := newBuilder()
	var traces []kernel.Trace
	for _, kp := range keep {
		src := inputs[kp.input].top
		pts := facePoints(src, kp.face)
		if kp.flip {
			reversePoints(pts)
		}
		out := bld.addFace(pts)
		traces = append(traces,
			kernel.Trace{
				Input: kp.input,
				From:  kernel.SubRef{Kind: kernel.KindFace, Index: kp.face + 1},
				To:    kernel.SubRef{Kind: kernel.KindFace, Index: out + 1},
			},
			kernel.Trace{
				Input: kp.input,
				From:  kernel.SubRef{Kind: kernel.KindWire, Index: kp.face + 1},
				To:    kernel.SubRef{Kind: kernel.KindWire, Index: out + 1},
			})
	}

	var ds sdf.SDF3
	switch op {
	case kernel.BoolFuse:
		ds = sdf.Union3D(sa.dist.world(), sb.dist.world())
	case kernel.BoolCut:
		ds = sdf.Difference3D(sa.dist.world(), sb.dist.world())
	case kernel.BoolCommon:
		ds = sdf.Intersect3D(sa.dist.world(), sb.dist.world())
	default:
		return nil, &kernel.Error{Op: "boolean", Msg: fmt.Sprintf("unknown op %d", op)}
	}
	result := &Solid{top: bld.finish(), dist: newDistField(ds)}

	traces = append(traces, matchLowerTraces(result, sa, sb)...)
	for i := range inputs {
		traces = append(traces, kernel.Trace{
			Input: i,
			From:  kernel.SubRef{Kind: kernel.KindSolid, Index: 1},
			To:    kernel.SubRef{Kind: kernel.KindSolid, Index: 1},
		})
	}
	return &kernel.OpResult{Shape: result, Traces: traces}, nil
}

// Chamfer bevels the given edges (1-based). Each bevel is a quad placed
// along the edge, offset inward by size; adjacent faces are not trimmed.
// The bevel face is traced as generated from its edge, everything else
// carries over.
func (k *FacetKernel) Chamfer(s kernel.Shape, edges []int, size float64) (*kernel.OpResult, error) {
	sol, err := asSolid(s, "chamfer")
	if err != nil {
		return nil, err
	}
	if size <= 0 {
		return nil, &kernel.Error{Op: "chamfer", Msg: "size must be positive"}
	}
	if len(edges) == 0 {
		return nil, &kernel.Error{Op: "chamfer", Msg: "no edges selected"}
	}
	for _, e := range edges {
		if e < 1 || e > len(sol.top.edges) {
			return nil, &kernel.Error{Op: "chamfer", Msg: fmt.Sprintf("edge index %d out of range", e)}
		}
	}

	bld := newBuilder()
	var traces []kernel.Trace
	for fi := range sol.top.faces {
		out := bld.addFace(facePoints(sol.top, fi))
		traces = append(traces,
			kernel.Trace{
				From: kernel.SubRef{Kind: kernel.KindFace, Index: fi + 1},
				To:   kernel.SubRef{Kind: kernel.KindFace, Index: out + 1},
			},
			kernel.Trace{
				From: kernel.SubRef{Kind: kernel.KindWire, Index: fi + 1},
				To:   kernel.SubRef{Kind: kernel.KindWire, Index: out + 1},
			})
	}
	for _, ei := range edges {
		e := sol.top.edges[ei-1]
		v0, v1 := sol.top.verts[e[0]], sol.top.verts[e[1]]

		// Offset along the mean normal of the adjacent faces, inward.
		var n kernel.Vec3
		for fi := range sol.top.faces {
			if sol.top.faceHasEdge(fi, e) {
				n = n.Add(sol.top.faceNormal(fi).Normalized())
			}
		}
		d := n.Normalized().Scale(-size)
		if d.Length() < coordEps {
			d = kernel.Vec3{Z: -size}
		}
		out := bld.addFace([]kernel.Vec3{v0, v1, v1.Add(d), v0.Add(d)})
		traces = append(traces, kernel.Trace{
			From:      kernel.SubRef{Kind: kernel.KindEdge, Index: ei},
			To:        kernel.SubRef{Kind: kernel.KindFace, Index: out + 1},
			Generated: true,
		})
	}
	result := &Solid{top: bld.finish(), dist: sol.dist}
	traces = append(traces, matchLowerTraces(result, sol)...)
	traces = append(traces, kernel.Trace{
		From: kernel.SubRef{Kind: kernel.KindSolid, Index: 1},
		To:   kernel.SubRef{Kind: kernel.KindSolid, Index: 1},
	})
	return &kernel.OpResult{Shape: result, Traces: traces}, nil
}

// Compound wraps shapes into a compound. Nested compounds are flattened
// so the children are always leaf solids; traces map every element of
// every input to its offset position in the compound's enumeration.
func (k *FacetKernel) Compound(shapes []kernel.Shape) (*kernel.OpResult, error) {
	if len(shapes) == 0 {
		return nil, &kernel.Error{Op: "compound", Msg: "no shapes"}
	}
	out := &Solid{children: []*Solid{}}
	var traces []kernel.Trace
	offsets := map[kernel.Kind]int{}
	kinds := []kernel.Kind{
		kernel.KindVertex, kernel.KindEdge, kernel.KindWire,
		kernel.KindFace, kernel.KindShell, kernel.KindSolid,
	}
	for i, sh := range shapes {
		s, ok := sh.(*Solid)
		if !ok {
			return nil, &kernel.Error{Op: "compound", Msg: fmt.Sprintf("input %d is not a solid", i)}
		}
		leaves := []*Solid{s}
		if s.isCompound() {
			leaves = s.children
		}
		out.children = append(out.children, leaves...)
		for _, kind := range kinds {
			n := sh.Count(kind)
			for j := 1; j <= n; j++ {
				traces = append(traces, kernel.Trace{
					Input: i,
					From:  kernel.SubRef{Kind: kind, Index: j},
					To:    kernel.SubRef{Kind: kind, Index: offsets[kind] + j},
				})
			}
			offsets[kind] += n
		}
	}
	return &kernel.OpResult{Shape: out, Traces: traces}, nil
}

// ---------------------------------------------------------------------

// asSolid narrows a kernel.Shape to a leaf solid with a distance field.
func asSolid(s kernel.Shape, op string) (*Solid, error) {
	sol, ok := s.(*Solid)
	if !ok {
		return nil, &kernel.Error{Op: op, Msg: "operand is not a facet solid"}
	}
	if sol.isCompound() {
		return nil, &kernel.Error{Op: op, Msg: "operand is a compound"}
	}
	if sol.dist.s == nil {
		return nil, &kernel.Error{Op: op, Msg: "operand has no distance field"}
	}
	return sol, nil
}

func facePoints(t *topology, fi int) []kernel.Vec3 {
	loop := t.faces[fi]
	pts := make([]kernel.Vec3, len(loop))
	for j, vi := range loop {
		pts[j] = t.verts[vi]
	}
	return pts
}

func reversePoints(pts []kernel.Vec3) {
	for i, j := 0, len(pts)-1; i < j; i, j = i+1, j-1 {
		pts[i], pts[j] = pts[j], pts[i]
	}
}

// coordKey quantizes a point for identity lookups.
func coordKey(p kernel.Vec3) [3]int64 {
	const q = 1e6
	return [3]int64{
		int64(math.Round(p.X * q)),
		int64(math.Round(p.Y * q)),
		int64(math.Round(p.Z * q)),
	}
}

// builder accumulates faces into a topology, deduplicating vertices.
type builder struct {
	t     *topology
	index map[[3]int64]int
}

func newBuilder() *builder {
	return &builder{t: &topology{}, index: map[[3]int64]int{}}
}

func (b *builder) vert(p kernel.Vec3) int {
	key := coordKey(p)
	if i, ok := b.index[key]; ok {
		return i
	}
	i := len(b.t.verts)
	b.t.verts = append(b.t.verts, p)
	b.index[key] = i
	return i
}

// addFace appends a face and returns its 0-based index.
func (b *builder) addFace(pts []kernel.Vec3) int {
	loop := make([]int, len(pts))
	for i, p := range pts {
		loop[i] = b.vert(p)
	}
	b.t.faces = append(b.t.faces, loop)
	return len(b.t.faces) - 1
}

func (b *builder) finish() *topology {
	b.t.buildEdges()
	return b.t
}

// matchLowerTraces matches surviving vertices and edges of the inputs to
// the result by geometry. Faces are traced by construction, but the edge
// table is rebuilt from the face loops so edges need matching.
func matchLowerTraces(result *Solid, inputs ...*Solid) []kernel.Trace {
	vertAt := map[[3]int64]int{}
	for i, v := range result.top.verts {
		vertAt[coordKey(v)] = i
	}
	edgeAt := map[[2][3]int64]int{}
	for i, e := range result.top.edges {
		edgeAt[edgeKey(result.top.verts[e[0]], result.top.verts[e[1]])] = i
	}

	var traces []kernel.Trace
	for input, s := range inputs {
		for vi, v := range s.top.verts {
			if ri, ok := vertAt[coordKey(v)]; ok {
				traces = append(traces, kernel.Trace{
					Input: input,
					From:  kernel.SubRef{Kind: kernel.KindVertex, Index: vi + 1},
					To:    kernel.SubRef{Kind: kernel.KindVertex, Index: ri + 1},
				})
			}
		}
		for ei, e := range s.top.edges {
			key := edgeKey(s.top.verts[e[0]], s.top.verts[e[1]])
			if ri, ok := edgeAt[key]; ok {
				traces = append(traces, kernel.Trace{
					Input: input,
					From:  kernel.SubRef{Kind: kernel.KindEdge, Index: ei + 1},
					To:    kernel.SubRef{Kind: kernel.KindEdge, Index: ri + 1},
				})
			}
		}
	}
	return traces
}

func edgeKey(a, b kernel.Vec3) [2][3]int64 {
	ka, kb := coordKey(a), coordKey(b)
	for i := 0; i < 3; i++ {
		if ka[i] != kb[i] {
			if ka[i] > kb[i] {
				ka, kb = kb, ka
			}
			break
		}
	}
	return [2][3]int64{ka, kb}
}
