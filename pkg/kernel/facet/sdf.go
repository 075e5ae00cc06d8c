package facet

import (
	"github.com/deadsy/sdfx/sdf"
	v3 "github.com/deadsy/sdfx/vec/v3"

	"github.com/chazu/tenon/pkg/kernel"
)

// distField pairs an sdf.SDF3 with the transform from world space into
// the field's own frame. Keeping the transform outside the field lets
// shape transforms stay O(1) on the field side: vertices move eagerly,
// the field only accumulates an inverse.
type distField struct {
	s       sdf.SDF3
	toLocal kernel.Matrix
}

func newDistField(s sdf.SDF3) distField {
	return distField{s: s, toLocal: kernel.Identity()}
}

// eval returns the signed distance at a world-space point. Positive is
// outside. Under scaling the magnitude is off but the sign holds, which
// is all classification needs.
func (d distField) eval(p kernel.Vec3) float64 {
	q := d.toLocal.Apply(p)
	return d.s.Evaluate(v3.Vec{X: q.X, Y: q.Y, Z: q.Z})
}

// transformed composes a world-space transform into the field.
func (d distField) transformed(m kernel.Matrix) distField {
	if d.s == nil {
		return d
	}
	inv, err := m.Inverted()
	if err != nil {
		// Caller validates the transform before moving vertices.
		return d
	}
	return distField{s: d.s, toLocal: d.toLocal.Mul(inv)}
}

// world returns the field as an sdf.SDF3 evaluated in world space, so
// fields from differently placed solids can be combined.
func (d distField) world() sdf.SDF3 {
	if d.toLocal.IsIdentity() {
		return d.s
	}
	return &placedSDF{field: d}
}

// placedSDF adapts a distField to the sdf.SDF3 interface.
type placedSDF struct {
	field distField
}

func (p *placedSDF) Evaluate(q v3.Vec) float64 {
	return p.field.eval(kernel.Vec3{X: q.X, Y: q.Y, Z: q.Z})
}

func (p *placedSDF) BoundingBox() sdf.Box3 {
	// Transform the local box corners back to world and take the AABB.
	toWorld, err := p.field.toLocal.Inverted()
	if err != nil {
		return p.field.s.BoundingBox()
	}
	lb := p.field.s.BoundingBox()
	corners := [8]kernel.Vec3{
		{X: lb.Min.X, Y: lb.Min.Y, Z: lb.Min.Z},
		{X: lb.Max.X, Y: lb.Min.Y, Z: lb.Min.Z},
		{X: lb.Min.X, Y: lb.Max.Y, Z: lb.Min.Z},
		{X: lb.Max.X, Y: lb.Max.Y, Z: lb.Min.Z},
		{X: lb.Min.X, Y: lb.Min.Y, Z: lb.Max.Z},
		{X: lb.Max.X, Y: lb.Min.Y, Z: lb.Max.Z},
		{X: lb.Min.X, Y: lb.Max.Y, Z: lb.Max.Z},
		{X: lb.Max.X, Y: lb.Max.Y, Z: lb.Max.Z},
	}
	min, max := toWorld.Apply(corners[0]), toWorld.Apply(corners[0])
	for _, c := range corners[1:] {
		w := toWorld.Apply(c)
		min = vecMin(min, w)
		max = vecMax(max, w)
	}
	return sdf.Box3{Min: v3.Vec{X: min.X, Y: min.Y, Z: min.Z}, Max: v3.Vec{X: max.X, Y: max.Y, Z: max.Z}}
}
