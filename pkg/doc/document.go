package doc

import (
	"github.com/google/uuid"

	"github.com/chazu/tenon/pkg/kernel"
	"github.com/chazu/tenon/pkg/topo"
)

// Document is a directed acyclic dependency graph of feature objects.
// Each document owns the string hasher shared by the shapes of its
// objects; references into it stay resolvable after objects are deleted.
type Document struct {
	ID   uuid.UUID
	Name string

	ws      *Workspace
	hasher  *topo.StringHasher
	objects map[int64]Object
	order   []int64
	nextTag int64
}

func newDocument(ws *Workspace, name string) *Document {
	return &Document{
		ID:      uuid.New(),
		Name:    name,
		ws:      ws,
		hasher:  topo.NewStringHasher(),
		objects: make(map[int64]Object),
	}
}

// Workspace returns the owning workspace.
func (d *Document) Workspace() *Workspace { return d.ws }

// Hasher returns the document's shared string interning table.
func (d *Document) Hasher() *topo.StringHasher { return d.hasher }

// ObjectByTag resolves a tag to its object, or nil when the object was
// never created or has been removed.
func (d *Document) ObjectByTag(tag int64) Object {
	return d.objects[tag]
}

// Objects returns the document's objects in creation order.
func (d *Document) Objects() []Object {
	out := make([]Object, 0, len(d.order))
	for _, tag := range d.order {
		if o, ok := d.objects[tag]; ok {
			out = append(out, o)
		}
	}
	return out
}

// Remove deletes an object from the document. Shapes downstream keep
// their derived names; history chains through the removed object
// truncate gracefully.
func (d *Document) Remove(tag int64) {
	delete(d.objects, tag)
}

func (d *Document) register(o Object) {
	d.objects[o.Tag()] = o
	d.order = append(d.order, o.Tag())
}

func (d *Document) newTag() int64 {
	d.nextTag++
	return d.nextTag
}

// AddBox creates a box primitive feature.
func (d *Document) AddBox(name string, x, y, z float64) *Feature {
	f := newFeature(d, name, BoxOp{X: x, Y: y, Z: z})
	d.register(f)
	return f
}

// AddCylinder creates a cylinder primitive feature.
func (d *Document) AddCylinder(name string, height, radius float64, segments int) *Feature {
	f := newFeature(d, name, CylinderOp{Height: height, Radius: radius, Segments: segments})
	d.register(f)
	return f
}

// AddBoolean creates a boolean feature combining two upstream features.
func (d *Document) AddBoolean(name string, op kernel.BoolOp, base, tool Object) *Feature {
	f := newFeature(d, name, BooleanOp{Op: op, Base: base.Tag(), Tool: tool.Tag()})
	d.register(f)
	return f
}

// AddChamfer creates a chamfer feature. Edges are referenced by element
// name (mapped or indexed style) on the base feature's shape.
func (d *Document) AddChamfer(name string, base Object, edges []string, size float64) *Feature {
	f := newFeature(d, name, ChamferOp{Base: base.Tag(), Edges: append([]string(nil), edges...), Size: size})
	d.register(f)
	return f
}

// AddLink creates a link object referencing target, which may live in a
// different document.
func (d *Document) AddLink(name string, target Object) *Link {
	l := &Link{
		core:      newCore(d, name),
		target:    target,
		placement: kernel.Identity(),
	}
	d.register(l)
	return l
}

// AddGroup creates a group composing the given children.
func (d *Document) AddGroup(name string, children ...Object) *Group {
	g := &Group{
		core:     newCore(d, name),
		children: append([]Object(nil), children...),
	}
	d.register(g)
	return g
}
