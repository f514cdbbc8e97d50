// Package model defines the normalized, reference-resolved representation
// of one API schema document. Values are built once by the normalizer and
// never mutated afterwards; the diff and rules engines read them only.
package model

import (
	"sort"
	"strings"
)

// NodeKind discriminates the SchemaNode variant.
type NodeKind int

const (
	KindScalar NodeKind = iota
	KindObject
	KindArray
)

// String returns the lowercase kind name.
func (k NodeKind) String() string {
	switch k {
	case KindScalar:
		return "scalar"
	case KindObject:
		return "object"
	case KindArray:
		return "array"
	default:
		return "unknown"
	}
}

// SchemaNode represents any typed value in a schema. Exactly one variant
// is active, selected by Kind: Scalar uses Type/Format/Enum, Object uses
// Fields/Required, Array uses Items.
type SchemaNode struct {
	Kind NodeKind

	// Scalar
	Type   string // primitive type name, e.g. "integer", "string"
	Format string // optional format qualifier, e.g. "int64", "date-time"
	Enum   []string

	// Object. Fields preserves document order; it is used only for
	// stable reporting, never for semantics.
	Fields   []Field
	Required []string

	// Array
	Items *SchemaNode
}

// Field is one named member of an object node.
type Field struct {
	Name   string
	Schema *SchemaNode
}

// Field returns the named field's schema, or nil.
func (n *SchemaNode) Field(name string) *SchemaNode {
	for _, f := range n.Fields {
		if f.Name == name {
			return f.Schema
		}
	}
	return nil
}

// IsRequired reports whether name is in the node's required set.
func (n *SchemaNode) IsRequired(name string) bool {
	for _, r := range n.Required {
		if r == name {
			return true
		}
	}
	return false
}

// Parameter is one operation input. Identity is (Name, In).
type Parameter struct {
	Name     string
	In       string // path, query, header, cookie
	Required bool
	Schema   *SchemaNode
}

// Key returns the parameter identity key.
func (p Parameter) Key() string {
	return p.Name + ":" + p.In
}

// Operation is one method on one path.
type Operation struct {
	Method      string
	OperationID string
	Deprecated  bool
	Parameters  []Parameter
	RequestBody *SchemaNode
	Responses   map[string]*SchemaNode // status code -> body schema
}

// ResponseCodes returns the operation's status codes in ascending order.
func (op *Operation) ResponseCodes() []string {
	codes := make([]string, 0, len(op.Responses))
	for code := range op.Responses {
		codes = append(codes, code)
	}
	sort.Strings(codes)
	return codes
}

// PathItem is one path template and its operations, in document order.
type PathItem struct {
	Template   string
	Operations []*Operation
}

// Operation returns the operation for method, or nil.
func (pi *PathItem) Operation(method string) *Operation {
	for _, op := range pi.Operations {
		if op.Method == method {
			return op
		}
	}
	return nil
}

// SpecModel is the root of one normalized document.
type SpecModel struct {
	Version string      // info.version, empty when absent
	Paths   []*PathItem // document order
}

// Path returns the path item whose canonical template matches template's,
// or nil. Placeholder names do not participate in path identity.
func (m *SpecModel) Path(template string) *PathItem {
	want := CanonicalTemplate(template)
	for _, pi := range m.Paths {
		if CanonicalTemplate(pi.Template) == want {
			return pi
		}
	}
	return nil
}

// CanonicalTemplate strips placeholder names from a path template so that
// /users/{id} and /users/{userId} compare equal. Literal segments and
// segment count are preserved.
func CanonicalTemplate(template string) string {
	segs := strings.Split(template, "/")
	for i, s := range segs {
		if strings.HasPrefix(s, "{") && strings.HasSuffix(s, "}") {
			segs[i] = "{}"
		}
	}
	return strings.Join(segs, "/")
}

// LiteralSegments returns the non-placeholder, non-empty segments of a
// path template in order.
func LiteralSegments(template string) []string {
	var out []string
	for _, s := range strings.Split(template, "/") {
		if s == "" {
			continue
		}
		if strings.HasPrefix(s, "{") && strings.HasSuffix(s, "}") {
			continue
		}
		out = append(out, s)
	}
	return out
}
