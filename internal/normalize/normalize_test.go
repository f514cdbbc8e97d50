package normalize

import (
	"errors"
	"testing"

	"github.com/wudi/specguard/internal/document"
	"github.com/wudi/specguard/internal/model"
)

func mustTree(t *testing.T, src string) document.Tree {
	t.Helper()
	tree, err := document.Parse([]byte(src))
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	return tree
}

func mustNormalize(t *testing.T, src string) *model.SpecModel {
	t.Helper()
	m, err := Normalize(mustTree(t, src))
	if err != nil {
		t.Fatalf("normalize: %v", err)
	}
	return m
}

const orderSpec = `
info:
  version: 1.0.0
paths:
  /orders:
    post:
      operationId: createOrder
      parameters:
        - name: idempotency_key
          in: header
          required: false
          schema:
            type: string
      requestBody:
        content:
          application/json:
            schema:
              type: object
              required: [amount]
              properties:
                amount:
                  type: integer
                currency:
                  type: string
      responses:
        "201":
          content:
            application/json:
              schema:
                $ref: '#/components/schemas/Order'
components:
  schemas:
    Order:
      type: object
      properties:
        id:
          type: string
        amount:
          type: integer
        items:
          type: array
          items:
            $ref: '#/components/schemas/LineItem'
    LineItem:
      type: object
      properties:
        sku:
          type: string
`

func TestNormalizeBasic(t *testing.T) {
	m := mustNormalize(t, orderSpec)

	if m.Version != "1.0.0" {
		t.Fatalf("version = %q", m.Version)
	}
	if len(m.Paths) != 1 {
		t.Fatalf("expected 1 path, got %d", len(m.Paths))
	}

	op := m.Paths[0].Operation("POST")
	if op == nil {
		t.Fatal("expected POST operation")
	}
	if op.OperationID != "createOrder" {
		t.Fatalf("operationId = %q", op.OperationID)
	}
	if len(op.Parameters) != 1 || op.Parameters[0].In != "header" {
		t.Fatalf("unexpected parameters: %+v", op.Parameters)
	}

	body := op.RequestBody
	if body == nil || body.Kind != model.KindObject {
		t.Fatalf("expected object request body, got %+v", body)
	}
	if !body.IsRequired("amount") || body.IsRequired("currency") {
		t.Fatal("required set mismatch")
	}
	if len(body.Fields) != 2 || body.Fields[0].Name != "amount" || body.Fields[1].Name != "currency" {
		t.Fatalf("field order not preserved: %+v", body.Fields)
	}
}

func TestNormalizeInlinesReferences(t *testing.T) {
	m := mustNormalize(t, orderSpec)

	resp := m.Paths[0].Operation("POST").Responses["201"]
	if resp == nil || resp.Kind != model.KindObject {
		t.Fatalf("expected inlined object response, got %+v", resp)
	}
	items := resp.Field("items")
	if items == nil || items.Kind != model.KindArray {
		t.Fatalf("expected array field, got %+v", items)
	}
	if items.Items == nil || items.Items.Field("sku") == nil {
		t.Fatal("nested reference not inlined")
	}
}

func TestNormalizeMissingVersionIsValid(t *testing.T) {
	m := mustNormalize(t, "paths:\n  /things:\n    get:\n      operationId: listThings\n")
	if m.Version != "" {
		t.Fatalf("version = %q, want empty", m.Version)
	}
}

func TestNormalizeEmptyDocument(t *testing.T) {
	m := mustNormalize(t, "info:\n  title: empty\n")
	if len(m.Paths) != 0 {
		t.Fatalf("expected zero paths, got %d", len(m.Paths))
	}
}

func TestNormalizeNonMappingRoot(t *testing.T) {
	_, err := Normalize(mustTree(t, "- just\n- a\n- list\n"))
	var pe *ParseError
	if !errors.As(err, &pe) {
		t.Fatalf("expected ParseError, got %v", err)
	}
}

func TestNormalizeMalformedType(t *testing.T) {
	src := `
paths:
  /a:
    get:
      responses:
        "200":
          content:
            application/json:
              schema:
                type: [not, a, string]
`
	_, err := Normalize(mustTree(t, src))
	var pe *ParseError
	if !errors.As(err, &pe) {
		t.Fatalf("expected ParseError, got %v", err)
	}
	if pe.Location == "" {
		t.Fatal("ParseError should carry a location")
	}
}

func TestNormalizeDanglingReference(t *testing.T) {
	src := `
paths:
  /a:
    get:
      responses:
        "200":
          content:
            application/json:
              schema:
                $ref: '#/components/schemas/Nope'
`
	_, err := Normalize(mustTree(t, src))

	var re *ReferenceResolutionError
	if !errors.As(err, &re) {
		t.Fatalf("expected ReferenceResolutionError, got %v", err)
	}
	if re.Ref != "#/components/schemas/Nope" {
		t.Fatalf("ref = %q", re.Ref)
	}
	// A reference failure is still a parse failure.
	var pe *ParseError
	if !errors.As(err, &pe) {
		t.Fatal("ReferenceResolutionError must match ParseError")
	}
}

func TestNormalizeCircularReference(t *testing.T) {
	src := `
paths:
  /a:
    get:
      responses:
        "200":
          content:
            application/json:
              schema:
                $ref: '#/components/schemas/A'
components:
  schemas:
    A:
      type: object
      properties:
        b:
          $ref: '#/components/schemas/B'
    B:
      type: object
      properties:
        a:
          $ref: '#/components/schemas/A'
`
	_, err := Normalize(mustTree(t, src))
	var re *ReferenceResolutionError
	if !errors.As(err, &re) {
		t.Fatalf("expected ReferenceResolutionError, got %v", err)
	}
}

func TestNormalizeSiblingReferencesAreNotCycles(t *testing.T) {
	src := `
paths:
  /a:
    get:
      responses:
        "200":
          content:
            application/json:
              schema:
                type: object
                properties:
                  first:
                    $ref: '#/components/schemas/Leaf'
                  second:
                    $ref: '#/components/schemas/Leaf'
components:
  schemas:
    Leaf:
      type: string
`
	m := mustNormalize(t, src)
	resp := m.Paths[0].Operation("GET").Responses["200"]
	if resp.Field("first") == nil || resp.Field("second") == nil {
		t.Fatal("sibling references must both resolve")
	}
}

func TestNormalizeSchemalessResponseKeepsStatus(t *testing.T) {
	src := `
paths:
  /a:
    delete:
      responses:
        "204":
          description: no content
`
	m := mustNormalize(t, src)
	op := m.Paths[0].Operation("DELETE")
	schema, ok := op.Responses["204"]
	if !ok {
		t.Fatal("schemaless response must keep its status code")
	}
	if schema != nil {
		t.Fatalf("expected nil schema, got %+v", schema)
	}
}

func TestNormalizeDuplicateParameter(t *testing.T) {
	src := `
paths:
  /a:
    get:
      parameters:
        - name: q
          in: query
        - name: q
          in: query
`
	_, err := Normalize(mustTree(t, src))
	var pe *ParseError
	if !errors.As(err, &pe) {
		t.Fatalf("expected ParseError, got %v", err)
	}
}

func TestNormalizeSwagger2InlineParameterType(t *testing.T) {
	src := `
paths:
  /a:
    get:
      parameters:
        - name: limit
          in: query
          type: integer
          format: int32
`
	m := mustNormalize(t, src)
	p := m.Paths[0].Operation("GET").Parameters[0]
	if p.Schema == nil || p.Schema.Type != "integer" || p.Schema.Format != "int32" {
		t.Fatalf("unexpected parameter schema: %+v", p.Schema)
	}
}

func TestNormalizePrefersJSONMediaType(t *testing.T) {
	src := `
paths:
  /a:
    get:
      responses:
        "200":
          content:
            text/csv:
              schema:
                type: string
            application/json:
              schema:
                type: object
                properties:
                  ok:
                    type: boolean
`
	m := mustNormalize(t, src)
	resp := m.Paths[0].Operation("GET").Responses["200"]
	if resp.Kind != model.KindObject {
		t.Fatalf("expected the application/json schema, got %v", resp.Kind)
	}
}

func TestNormalizeSkipsExtensionKeys(t *testing.T) {
	src := `
paths:
  /a:
    x-internal: true
    summary: things
    get:
      operationId: getA
`
	m := mustNormalize(t, src)
	if len(m.Paths[0].Operations) != 1 {
		t.Fatalf("expected 1 operation, got %d", len(m.Paths[0].Operations))
	}
}

func TestNormalizeEnum(t *testing.T) {
	src := `
paths:
  /a:
    get:
      parameters:
        - name: status
          in: query
          schema:
            type: string
            enum: [open, closed]
`
	m := mustNormalize(t, src)
	p := m.Paths[0].Operation("GET").Parameters[0]
	if len(p.Schema.Enum) != 2 || p.Schema.Enum[0] != "open" {
		t.Fatalf("unexpected enum: %v", p.Schema.Enum)
	}
}
