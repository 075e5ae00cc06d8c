// Package tessellate converts kernel shapes into flat-shaded triangle
// meshes for export and preview tooling. The tessellator is read-only:
// it never touches element name tables.
package tessellate

import (
	"github.com/chazu/tenon/pkg/doc"
	"github.com/chazu/tenon/pkg/kernel"
)

// Tessellate triangulates every face of a shape as a fan anchored at
// the face's first loop vertex. Vertices are emitted per face so each
// triangle carries the flat face normal.
func Tessellate(s kernel.Shape) *kernel.Mesh {
	m := &kernel.Mesh{}
	if s == nil {
		return m
	}
	n := s.Count(kernel.KindFace)
	for i := 1; i <= n; i++ {
		if f := s.Sub(kernel.KindFace, i); f != nil {
			appendFace(m, f)
		}
	}
	return m
}

// TessellateObjects produces one named mesh per shape-bearing object,
// resolving links and applying their placements through the accessor.
func TessellateObjects(ws *doc.Workspace, objs []doc.Object) []*kernel.Mesh {
	var out []*kernel.Mesh
	for _, o := range objs {
		if o == nil {
			continue
		}
		s := ws.GetTopoShape(o, "", doc.ShapeOptions{ResolveLink: true})
		if s.IsNull() {
			continue
		}
		m := Tessellate(s.KernelShape())
		if m.IsEmpty() {
			continue
		}
		m.Name = o.Name()
		out = append(out, m)
	}
	return out
}

func appendFace(m *kernel.Mesh, f kernel.Shape) {
	n := f.Count(kernel.KindVertex)
	if n < 3 {
		return
	}
	normal, ok := f.Normal()
	if !ok {
		return
	}
	base := uint32(m.VertexCount())
	for j := 1; j <= n; j++ {
		v := f.Sub(kernel.KindVertex, j)
		if v == nil {
			return
		}
		p := v.Center()
		m.Vertices = append(m.Vertices, float32(p.X), float32(p.Y), float32(p.Z))
		m.Normals = append(m.Normals, float32(normal.X), float32(normal.Y), float32(normal.Z))
	}
	for j := uint32(1); j+1 < uint32(n); j++ {
		m.Indices = append(m.Indices, base, base+j, base+j+1)
	}
}
