// Package topo implements the persistent element naming layer over an
// opaque kernel shape: mapped names, index names, the element name table
// with provenance, and the string interning table used to compress long
// derived names.
package topo

import (
	"strconv"
	"strings"

	"github.com/chazu/tenon/pkg/kernel"
)

// Operation codes stamped into derived element names.
const (
	OpFuse     = "FUS"
	OpCut      = "CUT"
	OpCommon   = "CMN"
	OpChamfer  = "CHF"
	OpCompound = "CMP"
)

// Name grammar markers. A derived name reads
//
//	<source>;<OP>[;:G];:T<tag>
//
// where ;:G marks generated (new) geometry and ;:T carries the tag of the
// shape the source name lived on. A synthesized combination reads
//
//	<OP>(<c1>|<c2>|...)[;I<n>]
//
// with ;I<n> the disambiguation index. Names longer than the compression
// threshold are replaced by a #<hex> reference into the StringHasher.
const (
	tagMarker     = ";:T"
	genMarker     = ";:G"
	postfixMarker = ";I"
	hashPrefix    = "#"
)

// IndexedName is the ephemeral position-based identity of a sub-element,
// valid only against one shape snapshot's enumeration.
type IndexedName struct {
	Kind  kernel.Kind
	Index int // 1-based
}

// IsValid reports whether the name refers to an element at all.
func (n IndexedName) IsValid() bool { return n.Kind != kernel.KindNone && n.Index > 0 }

func (n IndexedName) String() string {
	if !n.IsValid() {
		return ""
	}
	return n.Kind.String() + strconv.Itoa(n.Index)
}

// ParseIndexedName parses "Face7"-style names. The whole string must be
// consumed; trailing or malformed text yields an invalid name.
func ParseIndexedName(s string) (IndexedName, bool) {
	kind, w := kernel.ParseKind(s)
	if kind == kernel.KindNone || w == len(s) {
		return IndexedName{}, false
	}
	idx, err := strconv.Atoi(s[w:])
	if err != nil || idx < 1 {
		return IndexedName{}, false
	}
	return IndexedName{Kind: kind, Index: idx}, true
}

// MappedName is the persistent symbolic identity of an element. Missing
// marks a name that could not be re-identified after a rebuild; such a
// name keeps its text so the reference stays diagnosable.
type MappedName struct {
	Name    string
	Missing bool
}

// IsEmpty reports whether the name carries no identity at all.
func (m MappedName) IsEmpty() bool { return m.Name == "" }

func (m MappedName) String() string { return m.Name }

// IsHashed reports whether the name is a reference into a StringHasher.
func (m MappedName) IsHashed() bool { return strings.HasPrefix(m.Name, hashPrefix) }

// LeafName returns the original per-element name stamped on primitive
// shapes: "v1", "e2", "f3". Lowercase keeps the leaf grammar disjoint
// from the "Face3" indexed style.
func LeafName(k kernel.Kind, index int) MappedName {
	var p string
	switch k {
	case kernel.KindVertex:
		p = "v"
	case kernel.KindEdge:
		p = "e"
	case kernel.KindFace:
		p = "f"
	default:
		return MappedName{}
	}
	return MappedName{Name: p + strconv.Itoa(index)}
}

// LowerKind returns the immediate lower element kind used when
// synthesizing a name for a higher-level element: wires are named from
// their edges, shells and above from their faces. Kinds at or below Face
// have no lower kind here; their names come from operation traces.
func LowerKind(k kernel.Kind) kernel.Kind {
	switch k {
	case kernel.KindWire:
		return kernel.KindEdge
	case kernel.KindShell, kernel.KindSolid, kernel.KindCompSolid, kernel.KindCompound:
		return kernel.KindFace
	default:
		return kernel.KindNone
	}
}

// ComboOp returns the operation code used for a synthesized combination
// name of the given target kind.
func ComboOp(k kernel.Kind) string {
	switch k {
	case kernel.KindWire:
		return "WIR"
	case kernel.KindShell:
		return "SHL"
	case kernel.KindSolid:
		return "SLD"
	case kernel.KindCompSolid:
		return "CSL"
	case kernel.KindCompound:
		return "CMP"
	default:
		return ""
	}
}

// KindOfComboOp is the inverse of ComboOp.
func KindOfComboOp(op string) kernel.Kind {
	switch op {
	case "WIR":
		return kernel.KindWire
	case "SHL":
		return kernel.KindShell
	case "SLD":
		return kernel.KindSolid
	case "CSL":
		return kernel.KindCompSolid
	case "CMP":
		return kernel.KindCompound
	default:
		return kernel.KindNone
	}
}

// KindOfLeafName returns the element kind of a leaf name, or KindNone.
func KindOfLeafName(s string) kernel.Kind {
	if len(s) < 2 {
		return kernel.KindNone
	}
	for _, c := range s[1:] {
		if c < '0' || c > '9' {
			return kernel.KindNone
		}
	}
	switch s[0] {
	case 'v':
		return kernel.KindVertex
	case 'e':
		return kernel.KindEdge
	case 'f':
		return kernel.KindFace
	default:
		return kernel.KindNone
	}
}

// DeriveElementName builds the name of an element produced from src by
// the given operation on a shape tagged srcTag.
func DeriveElementName(src MappedName, op string, generated bool, srcTag int64) MappedName {
	var b strings.Builder
	b.WriteString(src.Name)
	b.WriteByte(';')
	b.WriteString(op)
	if generated {
		b.WriteString(genMarker)
	}
	b.WriteString(tagMarker)
	b.WriteString(strconv.FormatInt(srcTag, 10))
	return MappedName{Name: b.String()}
}

// DecodeDerivedName splits a derived name back into its parts. ok is
// false for leaf names, combination names and foreign strings.
func DecodeDerivedName(s string) (src string, op string, generated bool, tag int64, ok bool) {
	i := strings.LastIndex(s, tagMarker)
	if i < 0 {
		return "", "", false, 0, false
	}
	tag, err := strconv.ParseInt(s[i+len(tagMarker):], 10, 64)
	if err != nil {
		return "", "", false, 0, false
	}
	head := s[:i]
	if strings.HasSuffix(head, genMarker) {
		generated = true
		head = head[:len(head)-len(genMarker)]
	}
	j := strings.LastIndex(head, ";")
	if j <= 0 || j == len(head)-1 {
		return "", "", false, 0, false
	}
	return head[:j], head[j+1:], generated, tag, true
}

// ComboName builds a synthesized combination name. It is a pure function
// of its arguments: the same components, operation and postfix always
// produce the same string.
func ComboName(op string, components []MappedName, postfix string) string {
	var b strings.Builder
	b.WriteString(op)
	b.WriteByte('(')
	for i, c := range components {
		if i > 0 {
			b.WriteByte('|')
		}
		b.WriteString(c.Name)
	}
	b.WriteByte(')')
	b.WriteString(postfix)
	return b.String()
}

// DecodeComboName splits a combination name back into operation code,
// component names and postfix. The component split is parenthesis-depth
// aware so components may themselves carry derived-name markers.
func DecodeComboName(s string) (op string, components []MappedName, postfix string, ok bool) {
	open := strings.Index(s, "(")
	if open <= 0 {
		return "", nil, "", false
	}
	depth := 0
	closeAt := -1
	for i := open; i < len(s); i++ {
		switch s[i] {
		case '(':
			depth++
		case ')':
			depth--
			if depth == 0 {
				closeAt = i
			}
		}
		if closeAt >= 0 {
			break
		}
	}
	if closeAt < 0 {
		return "", nil, "", false
	}
	op = s[:open]
	postfix = s[closeAt+1:]
	inner := s[open+1 : closeAt]
	depth = 0
	start := 0
	for i := 0; i < len(inner); i++ {
		switch inner[i] {
		case '(':
			depth++
		case ')':
			depth--
		case '|':
			if depth == 0 {
				components = append(components, MappedName{Name: inner[start:i]})
				start = i + 1
			}
		}
	}
	if start <= len(inner) {
		components = append(components, MappedName{Name: inner[start:]})
	}
	return op, components, postfix, true
}

// DisambiguationPostfix renders the ;I<n> suffix appended when a
// combination still matches several candidates.
func DisambiguationPostfix(n int) string {
	return postfixMarker + strconv.Itoa(n)
}

// SplitPostfix strips a trailing ;I<n> disambiguation suffix.
func SplitPostfix(s string) (base string, idx int, ok bool) {
	i := strings.LastIndex(s, postfixMarker)
	if i < 0 {
		return s, 0, false
	}
	n, err := strconv.Atoi(s[i+len(postfixMarker):])
	if err != nil || n < 0 {
		return s, 0, false
	}
	return s[:i], n, true
}
