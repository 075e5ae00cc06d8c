package doc_test

import (
	"testing"

	"github.com/chazu/tenon/pkg/config"
	"github.com/chazu/tenon/pkg/doc"
	"github.com/chazu/tenon/pkg/kernel"
	"github.com/chazu/tenon/pkg/kernel/facet"
	"github.com/chazu/tenon/pkg/topo"
)

func TestGetTopoShapeBasic(t *testing.T) {
	ws := newWorkspace()
	d := ws.NewDocument("test")
	a := d.AddBox("a", 1, 2, 3)
	mustRecompute(t, d)

	s := ws.GetTopoShape(a, "", doc.ShapeOptions{})
	if s.IsNull() {
		t.Fatal("shape is null")
	}
	if got := s.CountSubShapes(kernel.KindFace); got != 6 {
		t.Errorf("faces = %d", got)
	}

	// Unknown object path resolves to the null shape, not an error.
	if got := ws.GetTopoShape(nil, "", doc.ShapeOptions{}); !got.IsNull() {
		t.Error("nil object must yield the null shape")
	}
	if got := ws.GetTopoShape(a, "NoSuchChild.Face1", doc.ShapeOptions{NeedSubElement: true}); !got.IsNull() {
		t.Error("unresolvable path must yield the null shape")
	}
}

func TestGetTopoShapeSubElement(t *testing.T) {
	ws := newWorkspace()
	d := ws.NewDocument("test")
	a := d.AddBox("a", 1, 1, 1)
	mustRecompute(t, d)

	// Indexed style.
	f := ws.GetTopoShape(a, "Face3", doc.ShapeOptions{NeedSubElement: true})
	if f.IsNull() || f.Type() != kernel.KindFace {
		t.Fatalf("Face3 = %v", f.Type())
	}
	// Persistent mapped style resolves to the same element.
	f2 := ws.GetTopoShape(a, "f3", doc.ShapeOptions{NeedSubElement: true})
	if f2.IsNull() {
		t.Fatal("mapped style did not resolve")
	}
	if f.KernelShape().Center() != f2.KernelShape().Center() {
		t.Error("indexed and mapped style resolved different faces")
	}
	// Without NeedSubElement the whole shape comes back.
	whole := ws.GetTopoShape(a, "Face3", doc.ShapeOptions{})
	if whole.Type() != kernel.KindSolid {
		t.Errorf("whole = %v", whole.Type())
	}
}

func TestGetTopoShapeCaching(t *testing.T) {
	ws := newWorkspace()
	d := ws.NewDocument("test")
	a := d.AddBox("a", 1, 1, 1)
	mustRecompute(t, d)

	s1 := ws.GetTopoShape(a, "Face1", doc.ShapeOptions{NeedSubElement: true})
	s2 := ws.GetTopoShape(a, "Face1", doc.ShapeOptions{NeedSubElement: true})
	if s1 != s2 {
		t.Error("second call must hit the cache")
	}

	// Mutating the governing shape purges the cache.
	mustRecompute(t, d)
	s3 := ws.GetTopoShape(a, "Face1", doc.ShapeOptions{NeedSubElement: true})
	if s3 == s1 {
		t.Error("cache survived a shape change")
	}

	// Disabling the cache yields fresh shapes.
	ws2 := doc.NewWorkspace(facet.New(), func() config.Params {
		p := config.Default()
		p.DisableShapeCache = true
		return p
	}(), nil)
	d2 := ws2.NewDocument("test")
	b := d2.AddBox("b", 1, 1, 1)
	mustRecompute(t, d2)
	c1 := ws2.GetTopoShape(b, "Face1", doc.ShapeOptions{NeedSubElement: true})
	c2 := ws2.GetTopoShape(b, "Face1", doc.ShapeOptions{NeedSubElement: true})
	if c1 == c2 {
		t.Error("cache disabled but shape reused")
	}
}

func TestGetTopoShapeTransformAfterCache(t *testing.T) {
	ws := newWorkspace()
	d := ws.NewDocument("test")
	a := d.AddBox("a", 1, 1, 1)
	mustRecompute(t, d)

	m := kernel.Translation(kernel.Vec3{X: 5})
	moved := ws.GetTopoShape(a, "", doc.ShapeOptions{Transform: m})
	min, _ := moved.KernelShape().BoundingBox()
	if min.Distance(kernel.Vec3{X: 5}) > 1e-9 {
		t.Errorf("transformed min = %+v", min)
	}
	// The cached shape stays untransformed and serves other placements.
	plain := ws.GetTopoShape(a, "", doc.ShapeOptions{})
	pmin, _ := plain.KernelShape().BoundingBox()
	if pmin.Length() > 1e-9 {
		t.Errorf("cached shape was transformed: %+v", pmin)
	}
}

func TestGetTopoShapeLinkPlacement(t *testing.T) {
	ws := newWorkspace()
	d := ws.NewDocument("test")
	a := d.AddBox("a", 1, 1, 1)
	l := d.AddLink("l", a)
	l.SetPlacement(kernel.Translation(kernel.Vec3{X: 10}))
	mustRecompute(t, d)

	s := ws.GetTopoShape(l, "", doc.ShapeOptions{ResolveLink: true})
	if s.IsNull() {
		t.Fatal("link shape is null")
	}
	min, _ := s.KernelShape().BoundingBox()
	if min.Distance(kernel.Vec3{X: 10}) > 1e-9 {
		t.Errorf("link placement not applied: %+v", min)
	}
}

func TestGetTopoShapeLinkResolutionKeyedSeparately(t *testing.T) {
	ws := newWorkspace()
	d := ws.NewDocument("test")
	a := d.AddBox("a", 1, 1, 1)
	l := d.AddLink("l", a)
	mustRecompute(t, d)

	resolved := ws.GetTopoShape(l, "", doc.ShapeOptions{ResolveLink: true})
	if resolved.Tag != a.Tag() {
		t.Fatalf("resolved tag = %d, want %d", resolved.Tag, a.Tag())
	}

	// The unresolved call must not reuse the resolved entry; it answers
	// with the link's own re-tagged shape.
	own := ws.GetTopoShape(l, "", doc.ShapeOptions{})
	if own.Tag != l.Tag() {
		t.Errorf("unresolved tag = %d, want %d", own.Tag, l.Tag())
	}
}

func TestGetTopoShapeGroupPath(t *testing.T) {
	ws := newWorkspace()
	d := ws.NewDocument("test")
	a := d.AddBox("a", 1, 1, 1)
	b := d.AddBox("b", 2, 2, 2)
	g := d.AddGroup("g", a, b)
	mustRecompute(t, d)

	// Dotted path through the group down to one face of one child.
	f := ws.GetTopoShape(g, "b.Face2", doc.ShapeOptions{NeedSubElement: true})
	if f.IsNull() || f.Type() != kernel.KindFace {
		t.Fatalf("b.Face2 = %v", f.Type())
	}
	if got := f.KernelShape().Measure(); got < 3.9 || got > 4.1 {
		t.Errorf("face area = %v, want 4", got)
	}
}

func TestGetTopoShapeVisibilityFiltering(t *testing.T) {
	ws := newWorkspace()
	d := ws.NewDocument("test")
	a := d.AddBox("a", 1, 1, 1)
	b := d.AddBox("b", 2, 2, 2)
	g := d.AddGroup("g", a, b)
	l := d.AddLink("l", g)
	mustRecompute(t, d)

	full := ws.GetTopoShape(l, "", doc.ShapeOptions{ResolveLink: true})
	if got := full.CountSubShapes(kernel.KindSolid); got != 2 {
		t.Fatalf("full solids = %d", got)
	}

	l.SetElementVisible("a", false)
	filtered := ws.GetTopoShape(l, "", doc.ShapeOptions{ResolveLink: true})
	if got := filtered.CountSubShapes(kernel.KindSolid); got != 1 {
		t.Fatalf("filtered solids = %d, want 1", got)
	}

	// With NeedSubElement the single-child compound unwraps to the solid.
	single := ws.GetTopoShape(l, "", doc.ShapeOptions{ResolveLink: true, NeedSubElement: true})
	if single.Type() != kernel.KindSolid {
		t.Errorf("unwrapped type = %v, want Solid", single.Type())
	}

	// Clearing the override restores the full composite; the filtered
	// result must not have been cached.
	l.ClearElementVisible("a")
	restored := ws.GetTopoShape(l, "", doc.ShapeOptions{ResolveLink: true})
	if got := restored.CountSubShapes(kernel.KindSolid); got != 2 {
		t.Errorf("restored solids = %d, want 2", got)
	}
}

func TestGetTopoShapeScaleNeverCachesFilteredComposite(t *testing.T) {
	ws := newWorkspace()
	d := ws.NewDocument("test")
	a := d.AddBox("a", 1, 1, 1)
	b := d.AddBox("b", 2, 2, 2)
	g := d.AddGroup("g", a, b)
	l := d.AddLink("l", g)
	l2 := d.AddLink("l2", l)
	mustRecompute(t, d)

	// A scaled request while the inner link hides a child: the scale must
	// not force the filtered composite into l2's cache.
	l.SetElementVisible("a", false)
	scaled := ws.GetTopoShape(l2, "", doc.ShapeOptions{ResolveLink: true, Transform: kernel.Scaling(2)})
	if got := scaled.CountSubShapes(kernel.KindSolid); got != 1 {
		t.Fatalf("filtered solids = %d, want 1", got)
	}

	l.ClearElementVisible("a")
	restored := ws.GetTopoShape(l2, "", doc.ShapeOptions{ResolveLink: true})
	if got := restored.CountSubShapes(kernel.KindSolid); got != 2 {
		t.Errorf("restored solids = %d, want 2", got)
	}
}

func TestSearchElementCacheInvalidation(t *testing.T) {
	ws := newWorkspace()
	d := ws.NewDocument("test")
	a := d.AddBox("a", 1, 1, 1)
	mustRecompute(t, d)

	shape := a.TopoShape()
	a.RegisterElementCache("e")
	a.StoreElementSearch("e1", shape, []topo.SearchMatch{{
		This:  topo.IndexedName{Kind: kernel.KindEdge, Index: 1},
		Other: topo.IndexedName{Kind: kernel.KindEdge, Index: 1},
	}})
	a.StoreElementSearch("f1", shape, nil)

	if _, _, ok := a.SearchElementCache("e1"); !ok {
		t.Fatal("cache miss before mutation")
	}

	// Governing shape change purges entries under registered prefixes.
	a.SetShape(shape.Copy())
	if _, _, ok := a.SearchElementCache("e1"); ok {
		t.Error("stale entry under registered prefix survived")
	}
	// Entries outside any registered prefix survive the selective purge.
	if _, _, ok := a.SearchElementCache("f1"); !ok {
		t.Error("entry outside registered prefixes was purged")
	}
}

func TestSearchElementCacheFullClear(t *testing.T) {
	ws := newWorkspace()
	d := ws.NewDocument("test")
	a := d.AddBox("a", 1, 1, 1)
	mustRecompute(t, d)

	// No registered prefixes: everything goes on mutation.
	a.StoreElementSearch("e1", a.TopoShape(), nil)
	a.SetShape(a.TopoShape().Copy())
	if _, _, ok := a.SearchElementCache("e1"); ok {
		t.Error("cache survived with no registered prefixes")
	}
}
