package kernel_test

import (
	"math"
	"testing"

	"github.com/chazu/tenon/pkg/kernel"
)

func TestParseKind(t *testing.T) {
	tests := []struct {
		in    string
		kind  kernel.Kind
		width int
	}{
		{"Face7", kernel.KindFace, 4},
		{"Edge12", kernel.KindEdge, 4},
		{"Vertex1", kernel.KindVertex, 6},
		{"Wire2", kernel.KindWire, 4},
		{"Shell1", kernel.KindShell, 5},
		{"Solid1", kernel.KindSolid, 5},
		{"CompSolid1", kernel.KindCompSolid, 9},
		{"Compound1", kernel.KindCompound, 8},
		{"face7", kernel.KindNone, 0},
		{"", kernel.KindNone, 0},
		{"Fa", kernel.KindNone, 0},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			k, n := kernel.ParseKind(tt.in)
			if k != tt.kind || n != tt.width {
				t.Errorf("ParseKind(%q) = (%v, %d), want (%v, %d)",
					tt.in, k, n, tt.kind, tt.width)
			}
		})
	}
}

func TestMatrixMulApply(t *testing.T) {
	m := kernel.Translation(kernel.Vec3{X: 1, Y: 2, Z: 3}).
		Mul(kernel.Scaling(2))
	p := m.Apply(kernel.Vec3{X: 1, Y: 1, Z: 1})
	want := kernel.Vec3{X: 3, Y: 4, Z: 5}
	if p.Distance(want) > 1e-12 {
		t.Errorf("Apply: got %+v, want %+v", p, want)
	}
}

func TestMatrixHasScale(t *testing.T) {
	if kernel.Translation(kernel.Vec3{X: 5}).HasScale() {
		t.Error("translation must not report scale")
	}
	if kernel.RotationZ(math.Pi / 3).HasScale() {
		t.Error("rotation must not report scale")
	}
	if !kernel.Scaling(2).HasScale() {
		t.Error("scaling must report scale")
	}
}

func TestMatrixInverted(t *testing.T) {
	m := kernel.Translation(kernel.Vec3{X: 4, Y: -1, Z: 2}).
		Mul(kernel.RotationZ(0.7)).
		Mul(kernel.Scaling(3))
	inv, err := m.Inverted()
	if err != nil {
		t.Fatalf("Inverted: %v", err)
	}
	p := kernel.Vec3{X: 1.5, Y: -2, Z: 0.5}
	back := inv.Apply(m.Apply(p))
	if back.Distance(p) > 1e-9 {
		t.Errorf("round trip: got %+v, want %+v", back, p)
	}

	var singular kernel.Matrix // all zeros
	if _, err := singular.Inverted(); err == nil {
		t.Error("singular matrix must not invert")
	} else if !kernel.IsKernelError(err) {
		t.Errorf("expected kernel error, got %T", err)
	}
}
