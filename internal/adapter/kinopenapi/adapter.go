// Package kinopenapi bridges hosts that already hold a kin-openapi
// document into the normalizer. The normalizer stays permissive about
// document shape, so this adapter is an optional front-end for callers
// that want kin-openapi's stricter loading, not the parse path itself.
package kinopenapi

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/getkin/kin-openapi/openapi3"

	"github.com/wudi/specguard/internal/document"
	"github.com/wudi/specguard/internal/model"
	"github.com/wudi/specguard/internal/normalize"
)

// Tree converts a loaded OpenAPI document into the generic document
// tree the normalizer consumes. Unresolved $refs survive the round-trip
// and are resolved by the normalizer as usual.
func Tree(doc *openapi3.T) (document.Tree, error) {
	data, err := doc.MarshalJSON()
	if err != nil {
		return nil, fmt.Errorf("failed to serialize OpenAPI document: %w", err)
	}
	var tree map[string]any
	if err := json.Unmarshal(data, &tree); err != nil {
		return nil, fmt.Errorf("failed to rebuild document tree: %w", err)
	}
	return tree, nil
}

// Normalize converts a loaded OpenAPI document straight into a
// SpecModel.
func Normalize(doc *openapi3.T) (*model.SpecModel, error) {
	tree, err := Tree(doc)
	if err != nil {
		return nil, err
	}
	return normalize.Normalize(tree)
}

// Load loads and validates an OpenAPI spec from a file with the
// kin-openapi loader, then normalizes it. Validation here is stricter
// than the normalizer's own: documents kin-openapi rejects (such as a
// missing info section) still load through document.Load.
func Load(ctx context.Context, path string) (*model.SpecModel, error) {
	loader := &openapi3.Loader{Context: ctx, IsExternalRefsAllowed: true}
	doc, err := loader.LoadFromFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to load OpenAPI spec: %w", err)
	}
	if err := doc.Validate(ctx); err != nil {
		return nil, fmt.Errorf("invalid OpenAPI spec: %w", err)
	}
	return Normalize(doc)
}
