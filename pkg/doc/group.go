package doc

import (
	"github.com/chazu/tenon/pkg/kernel"
	"github.com/chazu/tenon/pkg/topo"
)

// Group composes child objects into a compound shape.
type Group struct {
	core
	children []Object
}

var (
	_ Object        = (*Group)(nil)
	_ HasShape      = (*Group)(nil)
	_ HasSubObjects = (*Group)(nil)
)

// SubObjects returns the group's children in composition order.
func (g *Group) SubObjects() []Object {
	return append([]Object(nil), g.children...)
}

func (g *Group) dependencies() []int64 {
	var tags []int64
	for _, c := range g.children {
		if c != nil && c.Document() == g.doc {
			tags = append(tags, c.Tag())
		}
	}
	return tags
}

// execute builds the compound of all child shapes. The accessor rebuilds
// a filtered compound on demand when a link hides some children.
func (g *Group) execute() error {
	s, err := composeCompound(g.doc, g.tag, g.children, nil)
	if err != nil {
		g.setShape(&topo.Shape{})
		return &ExecError{Feature: g.name, Reason: "compound construction failed", Err: err}
	}
	g.setShape(s)
	return nil
}

// composeCompound builds a compound shape from the children's shapes,
// skipping hidden or shapeless children. hiddenBy consults per-element
// visibility overrides of the link the group was reached through.
func composeCompound(d *Document, tag int64, children []Object, hiddenBy func(name string) bool) (*topo.Shape, error) {
	var shapes []*topo.Shape
	for _, c := range children {
		if c == nil {
			continue
		}
		if hiddenBy != nil && hiddenBy(c.Name()) {
			continue
		}
		resolved, _ := ResolveLinkedObject(c)
		hs, ok := resolved.(HasShape)
		if !ok {
			continue
		}
		if s := hs.TopoShape(); !s.IsNull() {
			shapes = append(shapes, s)
		}
	}
	if len(shapes) == 0 {
		return &topo.Shape{}, nil
	}
	ks := make([]kernel.Shape, len(shapes))
	for i, s := range shapes {
		ks[i] = s.KernelShape()
	}
	res, err := d.ws.Kernel.Compound(ks)
	if err != nil {
		return nil, err
	}
	return topo.MapOperation(topo.OpCompound, tag, d.hasher, res, shapes...), nil
}
