package doc

import (
	"fmt"

	"github.com/chazu/tenon/pkg/kernel"
	"github.com/chazu/tenon/pkg/topo"
)

// Op is the parametric recipe of a feature. Concrete op types carry the
// marker method so the switch in Execute is exhaustive by construction.
type Op interface{ opData() }

// BoxOp creates an axis-aligned box.
type BoxOp struct{ X, Y, Z float64 }

// CylinderOp creates a prism-approximated cylinder.
type CylinderOp struct {
	Height, Radius float64
	Segments       int
}

// BooleanOp combines two upstream features, referenced by tag.
type BooleanOp struct {
	Op         kernel.BoolOp
	Base, Tool int64
}

// ChamferOp bevels edges of an upstream feature. Edges are element
// names on the base shape (persistent mapped names survive upstream
// edits; index style works too).
type ChamferOp struct {
	Base  int64
	Edges []string
	Size  float64
}

func (BoxOp) opData()      {}
func (CylinderOp) opData() {}
func (BooleanOp) opData()  {}
func (ChamferOp) opData()  {}

// Feature is a shape-producing document object.
type Feature struct {
	core
	op      Op
	execErr error
}

var (
	_ Object   = (*Feature)(nil)
	_ HasShape = (*Feature)(nil)
)

func newFeature(d *Document, name string, op Op) *Feature {
	return &Feature{core: newCore(d, name), op: op}
}

// Op returns the feature's parametric recipe.
func (f *Feature) Op() Op { return f.op }

// ExecuteError returns the error recorded by the last Execute, if any.
func (f *Feature) ExecuteError() error { return f.execErr }

// SetShape replaces the governing shape property. All derived caches are
// invalidated before the new shape is installed.
func (f *Feature) SetShape(s *topo.Shape) { f.setShape(s) }

// dependencies lists the same-document tags this feature consumes.
func (f *Feature) dependencies() []int64 {
	switch op := f.op.(type) {
	case BooleanOp:
		return []int64{op.Base, op.Tool}
	case ChamferOp:
		return []int64{op.Base}
	default:
		return nil
	}
}

// execute recomputes the output shape from the op and the upstream
// shapes. Parameter validation runs before any kernel call; kernel
// failures are translated to *ExecError at this boundary.
func (f *Feature) execute() error {
	f.execErr = f.run()
	return f.execErr
}

func (f *Feature) run() error {
	ws := f.doc.ws
	var out *topo.Shape

	switch op := f.op.(type) {
	case BoxOp:
		ks, err := ws.Kernel.Box(op.X, op.Y, op.Z)
		if err != nil {
			return &ExecError{Feature: f.name, Reason: "box construction failed", Err: err}
		}
		out = f.newShape(ks)
		out.InitElementNames()

	case CylinderOp:
		ks, err := ws.Kernel.Cylinder(op.Height, op.Radius, op.Segments)
		if err != nil {
			return &ExecError{Feature: f.name, Reason: "cylinder construction failed", Err: err}
		}
		out = f.newShape(ks)
		out.InitElementNames()

	case BooleanOp:
		base, err := f.upstreamShape(op.Base)
		if err != nil {
			return err
		}
		tool, err := f.upstreamShape(op.Tool)
		if err != nil {
			return err
		}
		res, err := ws.Kernel.Boolean(op.Op, base.KernelShape(), tool.KernelShape())
		if err != nil {
			return &ExecError{Feature: f.name, Reason: op.Op.String() + " failed", Err: err}
		}
		out = topo.MapOperation(boolOpCode(op.Op), f.tag, f.doc.hasher, res, base, tool)

	case ChamferOp:
		if op.Size <= 0 {
			return &ExecError{
				Feature: f.name,
				Reason:  fmt.Sprintf("Size must be positive, got %g", op.Size),
			}
		}
		base, err := f.upstreamShape(op.Base)
		if err != nil {
			return err
		}
		if len(op.Edges) == 0 {
			return &ExecError{Feature: f.name, Reason: "no edges selected"}
		}
		indices := make([]int, 0, len(op.Edges))
		for _, e := range op.Edges {
			idx := base.GetIndexedName(topo.MappedName{Name: e})
			if !idx.IsValid() || idx.Kind != kernel.KindEdge {
				return &ExecError{
					Feature: f.name,
					Reason:  fmt.Sprintf("edge %q cannot be resolved on the base shape", e),
				}
			}
			indices = append(indices, idx.Index)
		}
		res, err := ws.Kernel.Chamfer(base.KernelShape(), indices, op.Size)
		if err != nil {
			return &ExecError{Feature: f.name, Reason: "chamfer failed", Err: err}
		}
		out = topo.MapOperation(topo.OpChamfer, f.tag, f.doc.hasher, res, base)

	default:
		return &ExecError{Feature: f.name, Reason: fmt.Sprintf("unknown op %T", f.op)}
	}

	if err := f.applyFixPolicy(out); err != nil {
		return err
	}
	f.setShape(out)
	return nil
}

func (f *Feature) newShape(ks kernel.Shape) *topo.Shape {
	s := topo.NewShape(ks, f.tag, f.doc.hasher)
	s.HashThreshold = f.doc.ws.Params.HashThreshold
	return s
}

// upstreamShape fetches the computed shape of a same-document object.
func (f *Feature) upstreamShape(tag int64) (*topo.Shape, error) {
	obj := f.doc.ObjectByTag(tag)
	if obj == nil {
		return nil, &ExecError{Feature: f.name, Reason: fmt.Sprintf("upstream object %d is gone", tag)}
	}
	hs, ok := obj.(HasShape)
	if !ok {
		return nil, &ExecError{Feature: f.name, Reason: fmt.Sprintf("object %q has no shape", obj.Name())}
	}
	s := hs.TopoShape()
	if s.IsNull() {
		return nil, &ExecError{Feature: f.name, Reason: fmt.Sprintf("upstream shape of %q is null", obj.Name())}
	}
	return s, nil
}

func (f *Feature) applyFixPolicy(s *topo.Shape) error {
	if err := fixShape(f.doc.ws, s); err != nil {
		return &ExecError{Feature: f.name, Reason: "shape repair failed", Err: err}
	}
	return nil
}

func boolOpCode(op kernel.BoolOp) string {
	switch op {
	case kernel.BoolFuse:
		return topo.OpFuse
	case kernel.BoolCut:
		return topo.OpCut
	default:
		return topo.OpCommon
	}
}
