package doc_test

import (
	"errors"
	"strings"
	"testing"

	"github.com/chazu/tenon/pkg/config"
	"github.com/chazu/tenon/pkg/doc"
	"github.com/chazu/tenon/pkg/kernel"
	"github.com/chazu/tenon/pkg/kernel/facet"
	"github.com/chazu/tenon/pkg/topo"
)

// spyKernel counts chamfer invocations so tests can assert the kernel is
// never reached on invalid parameters.
type spyKernel struct {
	kernel.Kernel
	chamferCalls int
}

func (s *spyKernel) Chamfer(sh kernel.Shape, edges []int, size float64) (*kernel.OpResult, error) {
	s.chamferCalls++
	return s.Kernel.Chamfer(sh, edges, size)
}

func newWorkspace() *doc.Workspace {
	return doc.NewWorkspace(facet.New(), config.Default(), nil)
}

func mustRecompute(t *testing.T, d *doc.Document) {
	t.Helper()
	if errs := d.Recompute(); len(errs) != 0 {
		t.Fatalf("recompute: %v", errs)
	}
}

func TestRecomputeBox(t *testing.T) {
	ws := newWorkspace()
	d := ws.NewDocument("test")
	b := d.AddBox("box", 1, 2, 3)
	mustRecompute(t, d)

	s := b.TopoShape()
	if s.IsNull() {
		t.Fatal("box shape is null")
	}
	if got := s.GetMappedName(topo.IndexedName{Kind: kernel.KindFace, Index: 1}); got.Name != "f1" {
		t.Errorf("Face1 = %q, want f1", got.Name)
	}
	if s.Tag != b.Tag() {
		t.Errorf("shape tag %d != feature tag %d", s.Tag, b.Tag())
	}
}

func TestRecomputeBooleanPipeline(t *testing.T) {
	ws := newWorkspace()
	d := ws.NewDocument("test")
	a := d.AddBox("a", 1, 1, 1)
	b := d.AddBox("b", 1, 1, 1)
	fuse := d.AddBoolean("fuse", kernel.BoolFuse, a, b)
	mustRecompute(t, d)

	s := fuse.TopoShape()
	if s.IsNull() {
		t.Fatal("fuse shape is null")
	}
	// Coincident boxes fuse into one box worth of faces, each with a
	// derived name pointing back at an input.
	m := s.GetMappedName(topo.IndexedName{Kind: kernel.KindFace, Index: 1})
	if m.IsEmpty() {
		t.Fatal("fused Face1 unnamed")
	}
	tag, original, _ := s.GetElementHistory(m)
	if tag != a.Tag() && tag != b.Tag() {
		t.Errorf("history tag = %d", tag)
	}
	if original.IsEmpty() {
		t.Error("history original empty")
	}
}

func TestChamferValidationShortCircuits(t *testing.T) {
	spy := &spyKernel{Kernel: facet.New()}
	ws := doc.NewWorkspace(spy, config.Default(), nil)
	d := ws.NewDocument("test")
	a := d.AddBox("a", 4, 4, 4)
	ch := d.AddChamfer("cham", a, []string{"e1"}, -1.0)

	errs := d.Recompute()
	if len(errs) != 1 {
		t.Fatalf("errs = %v, want one", errs)
	}
	if !strings.Contains(errs[0].Error(), "Size") {
		t.Errorf("error %q does not mention Size", errs[0].Error())
	}
	if spy.chamferCalls != 0 {
		t.Errorf("kernel chamfer invoked %d times on invalid size", spy.chamferCalls)
	}
	if ch.ExecuteError() == nil {
		t.Error("feature must record its execution error")
	}
}

func TestChamferByPersistentName(t *testing.T) {
	ws := newWorkspace()
	d := ws.NewDocument("test")
	a := d.AddBox("a", 4, 4, 4)
	ch := d.AddChamfer("cham", a, []string{"e1", "Edge2"}, 0.5)
	mustRecompute(t, d)

	s := ch.TopoShape()
	if s.IsNull() {
		t.Fatal("chamfer shape is null")
	}
	if got := s.CountSubShapes(kernel.KindFace); got != 8 {
		t.Errorf("faces = %d, want 8", got)
	}
	// Bevel faces carry generated names derived from the source edges.
	found := 0
	for i := 1; i <= 8; i++ {
		m := s.GetMappedName(topo.IndexedName{Kind: kernel.KindFace, Index: i})
		if strings.Contains(m.Name, topo.OpChamfer) && strings.Contains(m.Name, ";:G") {
			found++
		}
	}
	if found != 2 {
		t.Errorf("generated bevel names = %d, want 2", found)
	}

	// Unresolvable edge names are a validation error, not a kernel error.
	bad := d.AddChamfer("bad", a, []string{"nope"}, 0.5)
	errs := d.Recompute()
	if len(errs) != 1 || !strings.Contains(errs[0].Error(), "nope") {
		t.Errorf("errs = %v", errs)
	}
	_ = bad
}

func TestRecomputeCollectsErrors(t *testing.T) {
	ws := newWorkspace()
	d := ws.NewDocument("test")
	a := d.AddBox("a", 1, 1, 1)
	bad := d.AddChamfer("bad", a, []string{"e1"}, -1)
	good := d.AddBox("b", 2, 2, 2)

	errs := d.Recompute()
	if len(errs) != 1 {
		t.Fatalf("errs = %v", errs)
	}
	var execErr *doc.ExecError
	if !errors.As(errs[0], &execErr) {
		t.Fatalf("error type %T", errs[0])
	}
	if execErr.Feature != "bad" {
		t.Errorf("failing feature = %q", execErr.Feature)
	}
	// Unrelated features still computed.
	if good.TopoShape().IsNull() {
		t.Error("independent feature must still recompute")
	}
	_ = bad
}

func TestLinkRetagsShape(t *testing.T) {
	ws := newWorkspace()
	d := ws.NewDocument("test")
	a := d.AddBox("a", 1, 1, 1)
	l := d.AddLink("l", a)
	mustRecompute(t, d)

	ls := l.TopoShape()
	if ls.IsNull() {
		t.Fatal("link shape is null")
	}
	if ls.Tag != l.Tag() {
		t.Errorf("link shape tag = %d, want %d", ls.Tag, l.Tag())
	}
	// The target's own shape keeps its tag and provenance.
	if got := a.TopoShape().Tag; got != a.Tag() {
		t.Errorf("target shape tag = %d", got)
	}
	m := ls.GetElementName("Face1")
	if tag, _, _ := ls.GetElementHistory(m); tag != l.Tag() {
		t.Errorf("link history tag = %d, want %d", tag, l.Tag())
	}
}

func TestLinkCycleDetected(t *testing.T) {
	ws := newWorkspace()
	d := ws.NewDocument("test")
	a := d.AddBox("a", 1, 1, 1)
	l1 := d.AddLink("l1", a)
	l2 := d.AddLink("l2", l1)
	l1.SetTarget(l2)

	errs := d.Recompute()
	if len(errs) == 0 {
		t.Fatal("cycle must be reported")
	}
	found := false
	for _, err := range errs {
		if strings.Contains(err.Error(), "cycle") {
			found = true
		}
	}
	if !found {
		t.Errorf("no cycle error in %v", errs)
	}
}

func TestGroupCompound(t *testing.T) {
	ws := newWorkspace()
	d := ws.NewDocument("test")
	a := d.AddBox("a", 1, 1, 1)
	b := d.AddCylinder("b", 2, 0.5, 8)
	g := d.AddGroup("g", a, b)
	mustRecompute(t, d)

	s := g.TopoShape()
	if s.Type() != kernel.KindCompound {
		t.Fatalf("group shape type = %v", s.Type())
	}
	if got := s.CountSubShapes(kernel.KindSolid); got != 2 {
		t.Errorf("solids = %d, want 2", got)
	}
	// Compound faces carry names derived from the children.
	m := s.GetMappedName(topo.IndexedName{Kind: kernel.KindFace, Index: 7})
	if m.IsEmpty() || !strings.Contains(m.Name, topo.OpCompound) {
		t.Errorf("compound Face7 = %q", m.Name)
	}
}
