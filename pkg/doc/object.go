// Package doc implements the document-object graph: workspaces,
// documents, feature objects with their governing shapes and caches, and
// the shape accessor that resolves object/sub-object references through
// links and groups.
package doc

import (
	"strings"

	"github.com/chazu/tenon/pkg/kernel"
	"github.com/chazu/tenon/pkg/topo"
)

// Object is a document object identified by a per-document tag.
type Object interface {
	Tag() int64
	Name() string
	Document() *Document
}

// HasShape is the capability of objects carrying an authoritative output
// shape.
type HasShape interface {
	TopoShape() *topo.Shape
}

// HasLinkedObject is the capability of objects that are indirections to
// another object, possibly in another document. The returned transform
// is the link's placement of the target.
type HasLinkedObject interface {
	LinkedObject() (Object, kernel.Matrix)
}

// HasElementVisibility is the capability of objects with per-element
// visibility overrides. ElementVisible returns 1 (shown), 0 (hidden) or
// -1 (no override).
type HasElementVisibility interface {
	ElementVisible(sub string) int
	HasVisibilityOverrides() bool
}

// HasSubObjects is the capability of objects composing child objects.
type HasSubObjects interface {
	SubObjects() []Object
}

// ResolveLinkedObject follows a chain of link indirections until it
// reaches an object that is not a link, accumulating placements. A nil
// object resolves to nil; a link cycle stops at the repeated object.
func ResolveLinkedObject(obj Object) (Object, kernel.Matrix) {
	m := kernel.Identity()
	seen := make(map[Object]bool)
	for obj != nil && !seen[obj] {
		seen[obj] = true
		l, ok := obj.(HasLinkedObject)
		if !ok {
			break
		}
		target, placement := l.LinkedObject()
		if target == nil {
			break
		}
		m = m.Mul(placement)
		obj = target
	}
	return obj, m
}

// SplitSubName splits a dotted sub-object path into the leading child
// object names and the trailing element reference. A segment is a child
// name when the current object has a sub-object by that name; the first
// segment that is not resolves as the element part.
func SplitSubName(obj Object, subname string) (path []Object, element string) {
	cur := obj
	rest := subname
	for rest != "" {
		seg := rest
		tail := ""
		if i := strings.IndexByte(rest, '.'); i >= 0 {
			seg, tail = rest[:i], rest[i+1:]
		}
		child := childByName(cur, seg)
		if child == nil {
			return path, rest
		}
		path = append(path, child)
		cur = child
		rest = tail
	}
	return path, ""
}

func childByName(obj Object, name string) Object {
	resolved, _ := ResolveLinkedObject(obj)
	if resolved == nil {
		return nil
	}
	sub, ok := resolved.(HasSubObjects)
	if !ok {
		return nil
	}
	for _, c := range sub.SubObjects() {
		if c != nil && c.Name() == name {
			return c
		}
	}
	return nil
}
