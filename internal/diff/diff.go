// Package diff aligns two normalized spec models and produces an ordered
// list of classified changes. It never fails on well-formed models; a
// model violating the normalizer's invariants is a programming error,
// not a runtime condition.
package diff

import (
	"fmt"

	"github.com/wudi/specguard/internal/model"
)

// side distinguishes request-side from response-side schemas; the
// breaking direction of a requiredness flip depends on it.
type side int

const (
	requestSide side = iota
	responseSide
)

// Diff compares two spec models. Output is stable: grouped by path
// template then method (old model order first, then additions in new
// model order), and within a matched operation by parameters, request
// body, responses ascending, then metadata.
func Diff(oldModel, newModel *model.SpecModel) []ChangeRecord {
	var out []ChangeRecord

	type opRef struct {
		oldOp, newOp *model.Operation
		location     string
	}
	var ordered []opRef
	seen := make(map[string]bool)

	for _, pi := range oldModel.Paths {
		newItem := newModel.Path(pi.Template)
		for _, op := range pi.Operations {
			ref := opRef{
				oldOp:    op,
				location: op.Method + " " + pi.Template,
			}
			if newItem != nil {
				ref.newOp = newItem.Operation(op.Method)
			}
			seen[opKey(pi.Template, op.Method)] = true
			ordered = append(ordered, ref)
		}
	}
	for _, pi := range newModel.Paths {
		for _, op := range pi.Operations {
			if seen[opKey(pi.Template, op.Method)] {
				continue
			}
			ordered = append(ordered, opRef{
				newOp:    op,
				location: op.Method + " " + pi.Template,
			})
		}
	}

	for _, ref := range ordered {
		switch {
		case ref.newOp == nil:
			out = append(out, ChangeRecord{
				Location: ref.location,
				Kind:     KindRemoved,
				Severity: SeverityBreaking,
				Message:  "operation removed",
			})
		case ref.oldOp == nil:
			out = append(out, ChangeRecord{
				Location: ref.location,
				Kind:     KindAdded,
				Severity: SeverityCompatible,
				Message:  "operation added",
			})
		default:
			out = append(out, diffOperation(ref.location, ref.oldOp, ref.newOp)...)
		}
	}
	return out
}

func opKey(template, method string) string {
	return method + " " + model.CanonicalTemplate(template)
}

func diffOperation(loc string, oldOp, newOp *model.Operation) []ChangeRecord {
	var out []ChangeRecord
	out = append(out, diffParameters(loc, oldOp, newOp)...)
	out = append(out, diffSchema(loc+".requestBody", oldOp.RequestBody, newOp.RequestBody, requestSide)...)
	out = append(out, diffResponses(loc, oldOp, newOp)...)
	out = append(out, diffMetadata(loc, oldOp, newOp)...)
	return out
}

func diffParameters(loc string, oldOp, newOp *model.Operation) []ChangeRecord {
	var out []ChangeRecord

	newByKey := make(map[string]model.Parameter, len(newOp.Parameters))
	for _, p := range newOp.Parameters {
		newByKey[p.Key()] = p
	}

	oldKeys := make(map[string]bool, len(oldOp.Parameters))
	for _, oldP := range oldOp.Parameters {
		oldKeys[oldP.Key()] = true
		ploc := loc + ".parameters." + oldP.Name
		newP, ok := newByKey[oldP.Key()]
		if !ok {
			out = append(out, ChangeRecord{
				Location: ploc,
				Kind:     KindRemoved,
				Severity: SeverityBreaking,
				Message:  fmt.Sprintf("parameter %q (%s) removed", oldP.Name, oldP.In),
			})
			continue
		}
		if !oldP.Required && newP.Required {
			out = append(out, ChangeRecord{
				Location: ploc,
				Kind:     KindRequirednessChanged,
				Severity: SeverityBreaking,
				Message:  fmt.Sprintf("parameter %q became required", oldP.Name),
			})
		} else if oldP.Required && !newP.Required {
			out = append(out, ChangeRecord{
				Location: ploc,
				Kind:     KindRequirednessChanged,
				Severity: SeverityCompatible,
				Message:  fmt.Sprintf("parameter %q became optional", oldP.Name),
			})
		}
		out = append(out, diffSchema(ploc, oldP.Schema, newP.Schema, requestSide)...)
	}

	for _, newP := range newOp.Parameters {
		if oldKeys[newP.Key()] {
			continue
		}
		ploc := loc + ".parameters." + newP.Name
		if newP.Required {
			out = append(out, ChangeRecord{
				Location: ploc,
				Kind:     KindAdded,
				Severity: SeverityBreaking,
				Message:  fmt.Sprintf("new required parameter %q (%s)", newP.Name, newP.In),
			})
		} else {
			out = append(out, ChangeRecord{
				Location: ploc,
				Kind:     KindAdded,
				Severity: SeverityCompatible,
				Message:  fmt.Sprintf("new optional parameter %q (%s)", newP.Name, newP.In),
			})
		}
	}
	return out
}

func diffResponses(loc string, oldOp, newOp *model.Operation) []ChangeRecord {
	var out []ChangeRecord
	for _, code := range oldOp.ResponseCodes() {
		newSchema, ok := newOp.Responses[code]
		if !ok {
			continue // status alignment only; statuses are not diffed as entities
		}
		out = append(out, diffSchema(loc+".responses."+code, oldOp.Responses[code], newSchema, responseSide)...)
	}
	return out
}

func diffMetadata(loc string, oldOp, newOp *model.Operation) []ChangeRecord {
	var out []ChangeRecord
	if !oldOp.Deprecated && newOp.Deprecated {
		out = append(out, ChangeRecord{
			Location: loc,
			Kind:     KindDeprecated,
			Severity: SeverityDeprecation,
			Message:  "operation marked deprecated",
		})
	}
	if oldOp.OperationID != newOp.OperationID && oldOp.OperationID != "" && newOp.OperationID != "" {
		out = append(out, ChangeRecord{
			Location: loc,
			Kind:     KindMetadataChanged,
			Severity: SeverityCompatible,
			Message:  fmt.Sprintf("operationId changed from %q to %q", oldOp.OperationID, newOp.OperationID),
		})
	}
	return out
}

// diffSchema recursively compares two schema trees. The variant switch
// is exhaustive over NodeKind; a new kind must be handled here
// deliberately.
func diffSchema(loc string, oldS, newS *model.SchemaNode, s side) []ChangeRecord {
	switch {
	case oldS == nil && newS == nil:
		return nil
	case oldS == nil:
		return []ChangeRecord{{
			Location: loc,
			Kind:     KindAdded,
			Severity: SeverityCompatible,
			Message:  "schema added",
		}}
	case newS == nil:
		return []ChangeRecord{{
			Location: loc,
			Kind:     KindRemoved,
			Severity: SeverityBreaking,
			Message:  "schema removed",
		}}
	}

	if oldS.Kind != newS.Kind {
		return []ChangeRecord{{
			Location: loc,
			Kind:     KindTypeChanged,
			Severity: SeverityBreaking,
			Message:  fmt.Sprintf("%s became %s", oldS.Kind, newS.Kind),
		}}
	}

	switch oldS.Kind {
	case model.KindScalar:
		return diffScalar(loc, oldS, newS)
	case model.KindArray:
		if oldS.Items == nil || newS.Items == nil {
			return nil
		}
		return diffSchema(loc+"[]", oldS.Items, newS.Items, s)
	case model.KindObject:
		return diffObject(loc, oldS, newS, s)
	default:
		return nil
	}
}

func diffScalar(loc string, oldS, newS *model.SchemaNode) []ChangeRecord {
	if oldS.Type != newS.Type {
		severity := SeverityBreaking
		if scalarCompatible(oldS.Type, newS.Type) {
			severity = SeverityCompatible
		}
		return []ChangeRecord{{
			Location: loc,
			Kind:     KindTypeChanged,
			Severity: severity,
			Message:  fmt.Sprintf("type changed from %s to %s", oldS.Type, newS.Type),
		}}
	}
	if oldS.Format != newS.Format {
		return []ChangeRecord{{
			Location: loc,
			Kind:     KindTypeChanged,
			Severity: SeverityBreaking,
			Message:  fmt.Sprintf("format changed from %q to %q", oldS.Format, newS.Format),
		}}
	}

	// Enum narrowing: a value clients may already send stops being
	// accepted.
	var out []ChangeRecord
	if len(oldS.Enum) > 0 && len(newS.Enum) > 0 {
		newValues := make(map[string]bool, len(newS.Enum))
		for _, v := range newS.Enum {
			newValues[v] = true
		}
		for _, v := range oldS.Enum {
			if !newValues[v] {
				out = append(out, ChangeRecord{
					Location: loc,
					Kind:     KindTypeChanged,
					Severity: SeverityBreaking,
					Message:  fmt.Sprintf("enum value %q removed", v),
				})
			}
		}
	}
	return out
}

func diffObject(loc string, oldS, newS *model.SchemaNode, s side) []ChangeRecord {
	var out []ChangeRecord

	for _, f := range oldS.Fields {
		floc := loc + "." + f.Name
		newField := newS.Field(f.Name)
		if newField == nil {
			out = append(out, ChangeRecord{
				Location: floc,
				Kind:     KindRemoved,
				Severity: SeverityBreaking,
				Message:  fmt.Sprintf("field %q removed", f.Name),
			})
			continue
		}
		out = append(out, requirednessChange(floc, f.Name, oldS, newS, s)...)
		out = append(out, diffSchema(floc, f.Schema, newField, s)...)
	}

	for _, f := range newS.Fields {
		if oldS.Field(f.Name) != nil {
			continue
		}
		out = append(out, ChangeRecord{
			Location: loc + "." + f.Name,
			Kind:     KindAdded,
			Severity: SeverityCompatible,
			Message:  fmt.Sprintf("field %q added", f.Name),
		})
	}
	return out
}

// requirednessChange classifies a required-flag flip on a field present
// in both versions. The breaking direction depends on which side of the
// contract narrows: requests break when clients must newly supply a
// field, responses break when clients can no longer rely on one.
func requirednessChange(loc, name string, oldS, newS *model.SchemaNode, s side) []ChangeRecord {
	oldReq := oldS.IsRequired(name)
	newReq := newS.IsRequired(name)
	if oldReq == newReq {
		return nil
	}

	var severity Severity
	var msg string
	switch {
	case !oldReq && newReq && s == requestSide:
		severity, msg = SeverityBreaking, fmt.Sprintf("field %q became required", name)
	case !oldReq && newReq:
		severity, msg = SeverityCompatible, fmt.Sprintf("field %q became required", name)
	case s == responseSide:
		severity, msg = SeverityBreaking, fmt.Sprintf("field %q became optional", name)
	default:
		severity, msg = SeverityCompatible, fmt.Sprintf("field %q became optional", name)
	}
	return []ChangeRecord{{
		Location: loc,
		Kind:     KindRequirednessChanged,
		Severity: severity,
		Message:  msg,
	}}
}
