package doc

import (
	"github.com/chazu/tenon/pkg/config"
	"github.com/chazu/tenon/pkg/kernel"
	"github.com/chazu/tenon/pkg/topo"
)

// Link is an indirection to another object, possibly in another
// document, with its own placement and per-element visibility overrides.
// Its output shape is the target's shape re-owned under the link's tag.
type Link struct {
	core
	target    Object
	placement kernel.Matrix
	hidden    map[string]bool
}

var (
	_ Object               = (*Link)(nil)
	_ HasShape             = (*Link)(nil)
	_ HasLinkedObject      = (*Link)(nil)
	_ HasElementVisibility = (*Link)(nil)
)

// LinkedObject returns the link target and the link's placement.
func (l *Link) LinkedObject() (Object, kernel.Matrix) {
	return l.target, l.placement
}

// SetPlacement installs the link's placement transform. The governing
// shape is unaffected; placement is applied by the accessor.
func (l *Link) SetPlacement(m kernel.Matrix) { l.placement = m }

// SetTarget retargets the link.
func (l *Link) SetTarget(o Object) {
	l.onBeforeChange()
	l.target = o
}

// SetElementVisible overrides the visibility of a named sub-object.
func (l *Link) SetElementVisible(sub string, visible bool) {
	l.onBeforeChange()
	if l.hidden == nil {
		l.hidden = make(map[string]bool)
	}
	l.hidden[sub] = !visible
}

// ClearElementVisible removes a visibility override.
func (l *Link) ClearElementVisible(sub string) {
	l.onBeforeChange()
	delete(l.hidden, sub)
}

// ElementVisible returns 1 (shown), 0 (hidden) or -1 (no override).
func (l *Link) ElementVisible(sub string) int {
	h, ok := l.hidden[sub]
	if !ok {
		return -1
	}
	if h {
		return 0
	}
	return 1
}

// HasVisibilityOverrides reports whether any override is set.
func (l *Link) HasVisibilityOverrides() bool { return len(l.hidden) > 0 }

func (l *Link) dependencies() []int64 {
	if l.target != nil && l.target.Document() == l.doc {
		return []int64{l.target.Tag()}
	}
	return nil
}

// execute re-owns the target's shape under the link's tag. The name
// table is copied lazily; retagging clones it, leaving the target's own
// map untouched.
func (l *Link) execute() error {
	target, _ := ResolveLinkedObject(l.target)
	hs, ok := target.(HasShape)
	if !ok || hs.TopoShape().IsNull() {
		l.setShape(&topo.Shape{})
		return &ExecError{Feature: l.name, Reason: "link target has no shape"}
	}
	s := hs.TopoShape().Copy()
	s.ReTagElementMap(l.tag, l.doc.hasher)
	l.setShape(s)
	return nil
}

func fixShape(ws *Workspace, s *topo.Shape) error {
	switch ws.Params.FixShape {
	case config.FixShapeDisabled:
		return nil
	case config.FixShapeAlways:
		return s.Fix(true)
	default:
		return s.Fix(false)
	}
}
