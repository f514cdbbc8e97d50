// Package normalize turns a generic document tree into a SpecModel.
// Internal references are resolved eagerly and inlined, so downstream
// consumers never see reference indirection. The normalizer is
// deliberately permissive about document shape: conventions such as a
// present info.version are enforced by the rules engine, not here.
package normalize

import (
	"fmt"
	"strings"

	"github.com/wudi/specguard/internal/document"
	"github.com/wudi/specguard/internal/model"
)

// httpMethods contains the method keys recognized under a path item.
var httpMethods = map[string]bool{
	"get": true, "head": true, "post": true, "put": true,
	"delete": true, "patch": true, "options": true, "trace": true,
}

// Normalize builds a SpecModel from a decoded document tree. It fails
// with *ParseError (or *ReferenceResolutionError) on a malformed
// document; a successfully returned model is immutable and cycle-free.
func Normalize(tree document.Tree) (*model.SpecModel, error) {
	if _, ok := document.Mapping(tree); !ok {
		return nil, parseErrorf("", "document root is not a mapping")
	}

	r := &resolver{root: tree}
	m := &model.SpecModel{}

	if info, ok := document.Get(tree, "info"); ok {
		m.Version = document.GetString(info, "version")
	}

	rawPaths, ok := document.Get(tree, "paths")
	if !ok || rawPaths == nil {
		return m, nil // zero operations is a valid document
	}
	pathEntries, ok := document.Mapping(rawPaths)
	if !ok {
		return nil, parseErrorf("paths", "paths is not a mapping")
	}

	for _, pe := range pathEntries {
		item, err := r.pathItem(pe.Key, pe.Value)
		if err != nil {
			return nil, err
		}
		m.Paths = append(m.Paths, item)
	}
	return m, nil
}

// resolver resolves internal JSON-pointer references against the
// document root, detecting cycles.
type resolver struct {
	root document.Tree
}

func (r *resolver) pathItem(template string, v any) (*model.PathItem, error) {
	loc := "paths." + template
	v, err := r.deref(v, loc, nil)
	if err != nil {
		return nil, err
	}
	entries, ok := document.Mapping(v)
	if !ok {
		return nil, parseErrorf(loc, "path item is not a mapping")
	}

	item := &model.PathItem{Template: template}
	for _, e := range entries {
		method := strings.ToLower(e.Key)
		if !httpMethods[method] {
			continue // x- extensions, summary, path-level parameters
		}
		op, err := r.operation(method, e.Value, loc+"."+method)
		if err != nil {
			return nil, err
		}
		item.Operations = append(item.Operations, op)
	}
	return item, nil
}

func (r *resolver) operation(method string, v any, loc string) (*model.Operation, error) {
	v, err := r.deref(v, loc, nil)
	if err != nil {
		return nil, err
	}
	if _, ok := document.Mapping(v); !ok {
		return nil, parseErrorf(loc, "operation is not a mapping")
	}

	op := &model.Operation{
		Method:      strings.ToUpper(method),
		OperationID: document.GetString(v, "operationId"),
		Deprecated:  document.GetBool(v, "deprecated"),
	}

	if rawParams, ok := document.Get(v, "parameters"); ok && rawParams != nil {
		params, err := r.parameters(rawParams, loc)
		if err != nil {
			return nil, err
		}
		op.Parameters = params
	}

	if rawBody, ok := document.Get(v, "requestBody"); ok && rawBody != nil {
		schema, err := r.bodySchema(rawBody, loc+".requestBody")
		if err != nil {
			return nil, err
		}
		op.RequestBody = schema
	}

	if rawResps, ok := document.Get(v, "responses"); ok && rawResps != nil {
		resps, err := r.responses(rawResps, loc)
		if err != nil {
			return nil, err
		}
		op.Responses = resps
	}
	return op, nil
}

func (r *resolver) parameters(v any, loc string) ([]model.Parameter, error) {
	seq, ok := v.([]any)
	if !ok {
		return nil, parseErrorf(loc+".parameters", "parameters is not a sequence")
	}

	var out []model.Parameter
	seen := make(map[string]bool)
	for i, raw := range seq {
		ploc := fmt.Sprintf("%s.parameters[%d]", loc, i)
		raw, err := r.deref(raw, ploc, nil)
		if err != nil {
			return nil, err
		}
		if _, ok := document.Mapping(raw); !ok {
			return nil, parseErrorf(ploc, "parameter is not a mapping")
		}
		name := document.GetString(raw, "name")
		if name == "" {
			return nil, parseErrorf(ploc, "parameter has no name")
		}
		in := document.GetString(raw, "in")
		if in == "" {
			in = "query"
		}

		p := model.Parameter{
			Name:     name,
			In:       in,
			Required: document.GetBool(raw, "required"),
		}
		key := p.Key()
		if seen[key] {
			return nil, parseErrorf(ploc, "duplicate parameter %q in %s", name, in)
		}
		seen[key] = true

		if rawSchema, ok := document.Get(raw, "schema"); ok && rawSchema != nil {
			schema, err := r.schema(rawSchema, ploc+".schema", nil)
			if err != nil {
				return nil, err
			}
			p.Schema = schema
		} else if document.GetString(raw, "type") != "" {
			// Swagger 2 inline parameter type.
			schema, err := r.schema(raw, ploc, nil)
			if err != nil {
				return nil, err
			}
			p.Schema = schema
		}
		out = append(out, p)
	}
	return out, nil
}

func (r *resolver) responses(v any, loc string) (map[string]*model.SchemaNode, error) {
	entries, ok := document.Mapping(v)
	if !ok {
		return nil, parseErrorf(loc+".responses", "responses is not a mapping")
	}

	out := make(map[string]*model.SchemaNode)
	for _, e := range entries {
		rloc := loc + ".responses." + e.Key
		resp, err := r.deref(e.Value, rloc, nil)
		if err != nil {
			return nil, err
		}
		schema, err := r.bodySchema(resp, rloc)
		if err != nil {
			return nil, err
		}
		// A schemaless response keeps its status code with a nil
		// schema; dropping a body from an existing status must stay
		// visible to the diff.
		out[e.Key] = schema
	}
	if len(out) == 0 {
		return nil, nil
	}
	return out, nil
}

// bodySchema unwraps a request body or response object down to its
// schema: content.<media type>.schema for OpenAPI 3, a direct schema key
// for Swagger 2. Returns nil when the body declares no schema.
func (r *resolver) bodySchema(v any, loc string) (*model.SchemaNode, error) {
	v, err := r.deref(v, loc, nil)
	if err != nil {
		return nil, err
	}
	if content, ok := document.Get(v, "content"); ok && content != nil {
		entries, ok := document.Mapping(content)
		if !ok {
			return nil, parseErrorf(loc+".content", "content is not a mapping")
		}
		mt := pickMediaType(entries)
		if mt == nil {
			return nil, nil
		}
		rawSchema, ok := document.Get(mt.Value, "schema")
		if !ok || rawSchema == nil {
			return nil, nil
		}
		return r.schema(rawSchema, loc+".content."+mt.Key+".schema", nil)
	}
	if rawSchema, ok := document.Get(v, "schema"); ok && rawSchema != nil {
		return r.schema(rawSchema, loc+".schema", nil)
	}
	return nil, nil
}

// pickMediaType prefers application/json, then the first declared
// media type.
func pickMediaType(entries []document.Entry) *document.Entry {
	for i := range entries {
		if entries[i].Key == "application/json" {
			return &entries[i]
		}
	}
	if len(entries) > 0 {
		return &entries[0]
	}
	return nil
}

// schema converts a schema mapping into a SchemaNode, inlining
// references. stack holds the reference names currently being resolved;
// revisiting one is a cycle and fails the parse.
func (r *resolver) schema(v any, loc string, stack []string) (*model.SchemaNode, error) {
	v, stack, err := r.derefTracking(v, loc, stack)
	if err != nil {
		return nil, err
	}
	if _, ok := document.Mapping(v); !ok {
		return nil, parseErrorf(loc, "schema is not a mapping")
	}

	typRaw, hasType := document.Get(v, "type")
	typ := ""
	if hasType && typRaw != nil {
		s, ok := typRaw.(string)
		if !ok {
			return nil, parseErrorf(loc, "malformed type declaration: %v", typRaw)
		}
		typ = s
	}

	props, hasProps := document.Get(v, "properties")
	items, hasItems := document.Get(v, "items")

	switch {
	case typ == "object" || (typ == "" && hasProps):
		return r.objectNode(v, props, hasProps, loc, stack)
	case typ == "array" || (typ == "" && hasItems):
		node := &model.SchemaNode{Kind: model.KindArray}
		if hasItems && items != nil {
			item, err := r.schema(items, loc+".items", stack)
			if err != nil {
				return nil, err
			}
			node.Items = item
		}
		return node, nil
	default:
		node := &model.SchemaNode{
			Kind:   model.KindScalar,
			Type:   typ,
			Format: document.GetString(v, "format"),
		}
		if rawEnum, ok := document.Get(v, "enum"); ok {
			seq, ok := rawEnum.([]any)
			if !ok {
				return nil, parseErrorf(loc+".enum", "enum is not a sequence")
			}
			for _, ev := range seq {
				node.Enum = append(node.Enum, fmt.Sprint(ev))
			}
		}
		return node, nil
	}
}

func (r *resolver) objectNode(v, props any, hasProps bool, loc string, stack []string) (*model.SchemaNode, error) {
	node := &model.SchemaNode{Kind: model.KindObject}

	if hasProps && props != nil {
		entries, ok := document.Mapping(props)
		if !ok {
			return nil, parseErrorf(loc+".properties", "properties is not a mapping")
		}
		for _, e := range entries {
			child, err := r.schema(e.Value, loc+".properties."+e.Key, stack)
			if err != nil {
				return nil, err
			}
			node.Fields = append(node.Fields, model.Field{Name: e.Key, Schema: child})
		}
	}

	if rawReq, ok := document.Get(v, "required"); ok && rawReq != nil {
		seq, ok := rawReq.([]any)
		if !ok {
			return nil, parseErrorf(loc+".required", "required is not a sequence")
		}
		for _, rv := range seq {
			name, ok := rv.(string)
			if !ok {
				return nil, parseErrorf(loc+".required", "required entry is not a string")
			}
			node.Required = append(node.Required, name)
		}
	}
	return node, nil
}

// deref resolves $ref indirection without cycle tracking across calls;
// used for path items, operations, parameters and responses where the
// target cannot legally contain the source.
func (r *resolver) deref(v any, loc string, stack []string) (any, error) {
	out, _, err := r.derefTracking(v, loc, stack)
	return out, err
}

// derefTracking follows $ref chains, appending each reference to stack.
func (r *resolver) derefTracking(v any, loc string, stack []string) (any, []string, error) {
	for {
		entries, ok := document.Mapping(v)
		if !ok {
			return v, stack, nil
		}
		ref := ""
		for _, e := range entries {
			if e.Key == "$ref" {
				s, ok := e.Value.(string)
				if !ok {
					return nil, nil, parseErrorf(loc, "$ref is not a string")
				}
				ref = s
			}
		}
		if ref == "" {
			return v, stack, nil
		}
		for _, seen := range stack {
			if seen == ref {
				return nil, nil, refErrorf(loc, ref, "circular reference")
			}
		}
		target, err := r.lookup(ref, loc)
		if err != nil {
			return nil, nil, err
		}
		stack = append(stack, ref)
		v = target
	}
}

// lookup resolves an internal JSON-pointer reference against the
// document root.
func (r *resolver) lookup(ref, loc string) (any, error) {
	if !strings.HasPrefix(ref, "#/") {
		return nil, refErrorf(loc, ref, "external references are not supported")
	}
	v := r.root
	for _, seg := range strings.Split(strings.TrimPrefix(ref, "#/"), "/") {
		seg = strings.ReplaceAll(strings.ReplaceAll(seg, "~1", "/"), "~0", "~")
		next, ok := document.Get(v, seg)
		if !ok {
			return nil, refErrorf(loc, ref, "reference target not found")
		}
		v = next
	}
	return v, nil
}
