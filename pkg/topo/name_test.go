package topo

import (
	"testing"

	"github.com/chazu/tenon/pkg/kernel"
)

func TestParseIndexedName(t *testing.T) {
	tests := []struct {
		in   string
		want IndexedName
		ok   bool
	}{
		{"Face7", IndexedName{kernel.KindFace, 7}, true},
		{"Edge12", IndexedName{kernel.KindEdge, 12}, true},
		{"Vertex1", IndexedName{kernel.KindVertex, 1}, true},
		{"CompSolid2", IndexedName{kernel.KindCompSolid, 2}, true},
		{"Face", IndexedName{}, false},
		{"Face0", IndexedName{}, false},
		{"Face-1", IndexedName{}, false},
		{"Face7x", IndexedName{}, false},
		{"f7", IndexedName{}, false},
		{"", IndexedName{}, false},
	}
	for _, tt := range tests {
		got, ok := ParseIndexedName(tt.in)
		if got != tt.want || ok != tt.ok {
			t.Errorf("ParseIndexedName(%q) = (%+v, %v), want (%+v, %v)",
				tt.in, got, ok, tt.want, tt.ok)
		}
	}
}

func TestDeriveDecodeRoundTrip(t *testing.T) {
	tests := []struct {
		src       string
		op        string
		generated bool
		tag       int64
	}{
		{"f1", OpFuse, false, 5},
		{"e3", OpChamfer, true, 12},
		{"f1;FUS;:T5", OpCut, false, 9},
		{"#a3f", OpCompound, false, 2},
	}
	for _, tt := range tests {
		d := DeriveElementName(MappedName{Name: tt.src}, tt.op, tt.generated, tt.tag)
		src, op, gen, tag, ok := DecodeDerivedName(d.Name)
		if !ok {
			t.Errorf("DecodeDerivedName(%q): not ok", d.Name)
			continue
		}
		if src != tt.src || op != tt.op || gen != tt.generated || tag != tt.tag {
			t.Errorf("round trip %q: got (%q, %q, %v, %d)", d.Name, src, op, gen, tag)
		}
	}

	for _, bad := range []string{"f1", "FUS(f1|f2)", "", ";:T5", "x;:Tzz"} {
		if _, _, _, _, ok := DecodeDerivedName(bad); ok {
			t.Errorf("DecodeDerivedName(%q) must fail", bad)
		}
	}
}

func TestComboNameRoundTrip(t *testing.T) {
	comps := []MappedName{
		{Name: "f1;FUS;:T5"},
		{Name: "f2"},
		{Name: "#1a2b"},
	}
	name := ComboName("SHL", comps, DisambiguationPostfix(1))
	if name != "SHL(f1;FUS;:T5|f2|#1a2b);I1" {
		t.Fatalf("ComboName = %q", name)
	}

	op, got, postfix, ok := DecodeComboName(name)
	if !ok || op != "SHL" || postfix != ";I1" {
		t.Fatalf("DecodeComboName(%q) = (%q, _, %q, %v)", name, op, postfix, ok)
	}
	if len(got) != len(comps) {
		t.Fatalf("components = %d, want %d", len(got), len(comps))
	}
	for i := range comps {
		if got[i].Name != comps[i].Name {
			t.Errorf("component %d = %q, want %q", i, got[i].Name, comps[i].Name)
		}
	}

	base, idx, ok := SplitPostfix(name)
	if !ok || idx != 1 || base != "SHL(f1;FUS;:T5|f2|#1a2b)" {
		t.Errorf("SplitPostfix = (%q, %d, %v)", base, idx, ok)
	}
}

func TestComboNameDeterministic(t *testing.T) {
	comps := []MappedName{{Name: "f1"}, {Name: "f2"}, {Name: "f3"}}
	a := ComboName("SLD", comps, "")
	b := ComboName("SLD", comps, "")
	if a != b {
		t.Errorf("combo name not deterministic: %q vs %q", a, b)
	}
}

func TestLowerKind(t *testing.T) {
	tests := []struct {
		in, want kernel.Kind
	}{
		{kernel.KindWire, kernel.KindEdge},
		{kernel.KindShell, kernel.KindFace},
		{kernel.KindSolid, kernel.KindFace},
		{kernel.KindCompSolid, kernel.KindFace},
		{kernel.KindCompound, kernel.KindFace},
		{kernel.KindFace, kernel.KindNone},
		{kernel.KindEdge, kernel.KindNone},
		{kernel.KindVertex, kernel.KindNone},
	}
	for _, tt := range tests {
		if got := LowerKind(tt.in); got != tt.want {
			t.Errorf("LowerKind(%v) = %v, want %v", tt.in, got, tt.want)
		}
	}
}

func TestStringHasher(t *testing.T) {
	h := NewStringHasher()

	long := "f1;FUS;:T5;CUT;:T9;CHF;:T12"
	ref1 := h.Hash(long)
	ref2 := h.Hash(long)
	if ref1 != ref2 {
		t.Errorf("same string hashed to %q and %q", ref1.Name, ref2.Name)
	}
	if !ref1.IsHashed() {
		t.Errorf("reference %q not marked hashed", ref1.Name)
	}

	back, ok := h.Resolve(ref1.Name)
	if !ok || back != long {
		t.Errorf("Resolve(%q) = (%q, %v)", ref1.Name, back, ok)
	}

	// Non-references resolve to themselves.
	if s, ok := h.Resolve("f1"); !ok || s != "f1" {
		t.Errorf("Resolve(plain) = (%q, %v)", s, ok)
	}
	// Unknown references fail without panicking.
	if _, ok := h.Resolve("#ffffffffffffffff"); ok {
		t.Error("unknown reference must not resolve")
	}

	if _, ok := h.Ref(long); !ok {
		t.Error("Ref must find the interned string")
	}
	if _, ok := h.Ref("never seen"); ok {
		t.Error("Ref must not intern")
	}
	if h.Size() != 1 {
		t.Errorf("Size = %d, want 1", h.Size())
	}
}
