// Package kernel defines the abstract geometry kernel interface.
// Implementations (facet, or a full B-rep engine) provide solid modeling
// and boolean operations behind this interface. The kernel abstraction
// allows swapping backends without changing the naming core; everything
// above this package treats shapes as opaque.
package kernel

// Kind enumerates the topological element kinds of a B-rep shape,
// ordered from lowest (Vertex) to highest (Compound).
type Kind int

const (
	KindNone Kind = iota
	KindVertex
	KindEdge
	KindWire
	KindFace
	KindShell
	KindSolid
	KindCompSolid
	KindCompound
)

var kindNames = [...]string{
	KindNone:      "",
	KindVertex:    "Vertex",
	KindEdge:      "Edge",
	KindWire:      "Wire",
	KindFace:      "Face",
	KindShell:     "Shell",
	KindSolid:     "Solid",
	KindCompSolid: "CompSolid",
	KindCompound:  "Compound",
}

func (k Kind) String() string {
	if k < KindNone || int(k) >= len(kindNames) {
		return "Unknown"
	}
	return kindNames[k]
}

// ParseKind returns the Kind named by a prefix of s and the length of the
// matched prefix, or (KindNone, 0) if s names no kind. Longer names win,
// so "CompSolid" is not mistaken for a "Comp"-prefixed "Solid".
func ParseKind(s string) (Kind, int) {
	best, n := KindNone, 0
	for k := KindVertex; k <= KindCompound; k++ {
		name := kindNames[k]
		if len(name) > n && len(s) >= len(name) && s[:len(name)] == name {
			best, n = k, len(name)
		}
	}
	return best, n
}

// Shape is an opaque handle to a geometry kernel shape or sub-element.
// All enumeration is 1-based and stable for the lifetime of the handle.
type Shape interface {
	// Type returns the topological kind of this shape.
	Type() Kind

	// Count returns the number of sub-elements of the given kind.
	Count(k Kind) int

	// Sub returns the index-th (1-based) sub-element of the given kind,
	// or nil when the index is out of range.
	Sub(k Kind, index int) Shape

	// FindSub returns the 1-based index of sub within this shape's
	// enumeration of kind k, or 0 when sub is not part of this shape.
	FindSub(sub Shape, k Kind) int

	// FindAncestors returns the 1-based indices, in ascending enumeration
	// order, of all k-kind elements that contain sub.
	FindAncestors(sub Shape, k Kind) []int

	// BoundingBox returns the axis-aligned bounding box.
	BoundingBox() (min, max Vec3)

	// Center returns a representative point (centroid) of the shape.
	Center() Vec3

	// Measure returns length for edges, area for faces and volume-like
	// magnitude for solids; 0 for vertices.
	Measure() float64

	// Normal returns the surface normal for faces; ok is false otherwise.
	Normal() (n Vec3, ok bool)

	// Transformed returns a copy of the shape with the affine transform
	// applied. Degenerate transforms yield a *kernel.Error.
	Transformed(m Matrix) (Shape, error)

	// IsValid reports whether the shape passes kernel validation.
	IsValid() bool

	// Fixed returns a repaired copy of the shape.
	Fixed() (Shape, error)
}

// BoolOp selects a boolean operation.
type BoolOp int

const (
	BoolFuse BoolOp = iota
	BoolCut
	BoolCommon
)

func (op BoolOp) String() string {
	switch op {
	case BoolFuse:
		return "fuse"
	case BoolCut:
		return "cut"
	case BoolCommon:
		return "common"
	default:
		return "unknown"
	}
}

// SubRef identifies one sub-element of a shape by kind and 1-based index.
type SubRef struct {
	Kind  Kind
	Index int
}

// Trace records where one output element of a modeling operation came
// from. Modified elements keep their kind; generated elements may change
// kind (a chamfer generates faces from edges).
type Trace struct {
	// Input is the 0-based position of the source shape in the
	// operation's argument list.
	Input int

	// From locates the source element in the input shape.
	From SubRef

	// To locates the resulting element in the output shape.
	To SubRef

	// Generated is true when To is new geometry derived from From,
	// false when To is From carried over or modified in place.
	Generated bool
}

// OpResult is the outcome of a modeling operation: the new shape plus the
// per-element provenance traces the naming layer consumes.
type OpResult struct {
	Shape  Shape
	Traces []Trace
}

// Kernel is the abstract geometry kernel interface.
type Kernel interface {
	// Primitives.
	Box(x, y, z float64) (Shape, error)
	Cylinder(height, radius float64, segments int) (Shape, error)

	// Boolean combines two shapes and reports element traces.
	Boolean(op BoolOp, a, b Shape) (*OpResult, error)

	// Chamfer bevels the given edges (1-based indices) of a shape.
	// Each bevel face is traced as generated from its edge.
	Chamfer(s Shape, edges []int, size float64) (*OpResult, error)

	// Compound wraps shapes into a compound; traces map every element of
	// every input to its position in the compound's enumeration.
	Compound(shapes []Shape) (*OpResult, error)
}
