package transform

import (
	"github.com/samsarahq/stitchgate/schema"
	"github.com/samsarahq/stitchgate/subschema"
)

// AddTypename ensures every selection set that selects at least one field
// also selects __typename, so result merging (delegate.MergeExternal) can
// always identify the concrete type of a returned object. It runs last on
// the request side among the built-ins, after any field-dropping
// transform, per SPEC_FULL.md §4.4's tie-break rule.
type AddTypename struct{}

// TransformSelectionSet recursively adds __typename to set and to every
// non-empty nested selection set inside it, including the selection sets
// carried inside inline-fragment-style selections produced by
// ExpandAbstractTypes and WrapConcreteTypes.
func (AddTypename) TransformSelectionSet(parentTypeName string, set *schema.SelectionSet) *schema.SelectionSet {
	if set == nil || len(set.Selections) == 0 {
		return set
	}

	out := &schema.SelectionSet{Selections: append([]*schema.Selection{}, set.Selections...)}
	hasTypename := false
	for _, sel := range out.Selections {
		if sel.Name == "__typename" {
			hasTypename = true
			break
		}
	}
	if !hasTypename {
		out.Selections = append(out.Selections, &schema.Selection{Name: "__typename"})
	}

	for i, sel := range out.Selections {
		if sel.SelectionSet == nil {
			continue
		}
		cp := *sel
		cp.SelectionSet = AddTypename{}.TransformSelectionSet(sel.Name, sel.SelectionSet)
		out.Selections[i] = &cp
	}
	return out
}

// FilterToSchema drops fields, fragments, and arguments from a selection
// set that the target schema does not declare, and drops any selection
// set left empty by that filtering, per SPEC_FULL.md §4.4. Among the
// built-ins it runs after ExpandAbstractTypes and WrapConcreteTypes have
// had a chance to rewrite the shape of what it filters, and before
// AddTypename.
type FilterToSchema struct {
	TargetSchema *schema.Schema
}

// TransformSelectionSet filters set against the fields TargetSchema
// actually declares on parentTypeName, recursing into every surviving
// field's own selection set against its declared return type.
func (f FilterToSchema) TransformSelectionSet(parentTypeName string, set *schema.SelectionSet) *schema.SelectionSet {
	if set == nil {
		return nil
	}

	out := &schema.SelectionSet{}
	for _, sel := range set.Selections {
		if sel.Name == "__typename" {
			cp := *sel
			out.Selections = append(out.Selections, &cp)
			continue
		}

		typeName := parentTypeName
		if sel.TypeCondition != "" {
			typeName = sel.TypeCondition
			if _, ok := f.TargetSchema.Types[typeName]; !ok {
				continue
			}
		}

		// A pure fragment wrapper carries no field of its own, only a
		// TypeCondition guarding its nested selections (see WrapSelectionSet).
		if sel.Name == "" {
			filtered := f.TransformSelectionSet(typeName, sel.SelectionSet)
			if filtered == nil || len(filtered.Selections) == 0 {
				continue
			}
			cp := *sel
			cp.SelectionSet = filtered
			out.Selections = append(out.Selections, &cp)
			continue
		}

		fieldDef, ok := fieldsOf(f.TargetSchema.Types[typeName])[sel.Name]
		if !ok {
			continue
		}

		cp := *sel
		if len(sel.Arguments) > 0 {
			args := make(map[string]interface{}, len(sel.Arguments))
			for name, v := range sel.Arguments {
				if _, accepted := fieldDef.Arguments[name]; accepted {
					args[name] = v
				}
			}
			cp.Arguments = args
		}

		if sel.SelectionSet != nil {
			named := schema.Unwrap(fieldDef.Type)
			if named == nil {
				continue
			}
			filtered := f.TransformSelectionSet(named.TypeName(), sel.SelectionSet)
			if filtered == nil || len(filtered.Selections) == 0 {
				continue
			}
			cp.SelectionSet = filtered
		}
		out.Selections = append(out.Selections, &cp)
	}

	if len(out.Selections) == 0 {
		return nil
	}
	return out
}

func fieldsOf(t schema.Type) map[string]*schema.FieldDefinition {
	switch v := t.(type) {
	case *schema.Object:
		return v.Fields
	case *schema.Interface:
		return v.Fields
	default:
		return nil
	}
}

// ExpandAbstractTypes rewrites a selection against an abstract return type
// into one explicit inline fragment per concrete implementation present in
// the target subschema, so a subschema that only knows a subset of the
// composed schema's implementations still receives a selection it
// understands.
type ExpandAbstractTypes struct {
	TargetSchema *schema.Schema
}

// TransformSelectionSet delegates to ExpandSelectionSet, the standalone
// function that does the actual replication, so it can also be exercised
// directly (and unit tested) without building a Pipeline.
func (e ExpandAbstractTypes) TransformSelectionSet(parentTypeName string, set *schema.SelectionSet) *schema.SelectionSet {
	return ExpandSelectionSet(e.TargetSchema, parentTypeName, set)
}

// ExpandSelectionSet is the selection-set-level half of ExpandAbstractTypes:
// any selection whose TypeCondition names an interface or union known to
// the target schema is replicated once per concrete PossibleType the
// target schema actually has.
func ExpandSelectionSet(target *schema.Schema, parentType string, set *schema.SelectionSet) *schema.SelectionSet {
	if set == nil {
		return nil
	}
	out := &schema.SelectionSet{}
	for _, sel := range set.Selections {
		if sel.TypeCondition == "" {
			cp := *sel
			cp.SelectionSet = ExpandSelectionSet(target, sel.Name, sel.SelectionSet)
			out.Selections = append(out.Selections, &cp)
			continue
		}
		possible := possibleTypeNames(target, sel.TypeCondition)
		if len(possible) == 0 {
			continue
		}
		for _, concreteName := range possible {
			cp := *sel
			cp.TypeCondition = concreteName
			cp.SelectionSet = ExpandSelectionSet(target, concreteName, sel.SelectionSet)
			out.Selections = append(out.Selections, &cp)
		}
	}
	return out
}

func possibleTypeNames(target *schema.Schema, typeName string) []string {
	switch t := target.Types[typeName].(type) {
	case *schema.Interface:
		names := make([]string, len(t.PossibleTypes))
		for i, p := range t.PossibleTypes {
			names[i] = p.Name
		}
		return names
	case *schema.Union:
		names := make([]string, len(t.PossibleTypes))
		for i, p := range t.PossibleTypes {
			names[i] = p.Name
		}
		return names
	case *schema.Object:
		return []string{t.Name}
	default:
		return nil
	}
}

// WrapConcreteTypes wraps a selection set whose runtime type is concrete
// (not itself an abstract type) in an inline fragment, so the selection
// survives being sent through a target schema where the same field's
// static type is declared abstract.
type WrapConcreteTypes struct {
	TargetSchema *schema.Schema
}

// TransformSelectionSet delegates to WrapSelectionSet, the standalone
// function that does the actual wrapping.
func (w WrapConcreteTypes) TransformSelectionSet(declaredTypeName string, set *schema.SelectionSet) *schema.SelectionSet {
	return WrapSelectionSet(w.TargetSchema, declaredTypeName, set)
}

// WrapSelectionSet wraps set in a pure type-condition fragment (empty Name,
// TypeCondition set to declaredType) unless declaredType is itself
// abstract in target, in which case set already needs no wrapping.
func WrapSelectionSet(target *schema.Schema, declaredType string, set *schema.SelectionSet) *schema.SelectionSet {
	if set == nil || schema.IsAbstractType(typeOrNil(target, declaredType)) {
		return set
	}
	wrapped := &schema.Selection{
		TypeCondition: declaredType,
		SelectionSet:  set,
	}
	return &schema.SelectionSet{Selections: []*schema.Selection{wrapped}}
}

func typeOrNil(s *schema.Schema, name string) schema.Type {
	if t, ok := s.Types[name]; ok {
		return t
	}
	return nil
}

// StitchingIndex is the narrow slice of package stitch's StitchingInfo
// that AddSelectionSets needs: the per-subschema key selection set and
// per-field computed-field dependency for a merged type. Declared here
// rather than importing package stitch's concrete type to keep the
// dependency pointed the way composition already has it (package stitch
// builds a Pipeline out of these transforms, so transform cannot import
// stitch back without a cycle); *stitch.StitchingInfo satisfies this
// interface via the methods in stitch/selection_sets.go.
type StitchingIndex interface {
	KeySelectionSet(typeName, subschemaName string) *schema.SelectionSet
	FieldSelectionSet(typeName, subschemaName, fieldName string) (*schema.SelectionSet, bool)
}

// AddSelectionSets merges a merged type's stitching-index key selection
// set (and any requested @computed field's dependency selection set) into
// the outgoing selection set, guaranteeing the responding subschema
// receives everything it needs to serve this type's other fields later.
type AddSelectionSets struct {
	Info      StitchingIndex
	Subschema string
}

// TransformSelectionSet merges this subschema's required key selection set
// (and any requested computed field's own dependency) into set for typeName.
func (a AddSelectionSets) TransformSelectionSet(typeName string, set *schema.SelectionSet) *schema.SelectionSet {
	merged := schema.MergeSelectionSets(set, a.Info.KeySelectionSet(typeName, a.Subschema))
	for _, fieldName := range set.FieldNames() {
		if dep, ok := a.Info.FieldSelectionSet(typeName, a.Subschema, fieldName); ok {
			merged = schema.MergeSelectionSets(merged, dep)
		}
	}
	return merged
}

// DefaultTransforms returns the built-in transforms every subschema gets,
// appended after any it already installed: they make FilterToSchema,
// ExpandAbstractTypes, WrapConcreteTypes, and AddTypename shape every
// outgoing selection set against targetSchema regardless of what a
// caller-supplied transform did first. info may be nil (no merged types
// reference this subschema yet), in which case AddSelectionSets is
// skipped. Ordering matches SPEC_FULL.md §4.4's tie-break rule:
// ExpandAbstractTypes and WrapConcreteTypes run before FilterToSchema
// trims whatever they produced, and AddTypename runs last of all.
func DefaultTransforms(targetSchema *schema.Schema, info StitchingIndex, subschemaName string) []subschema.Transform {
	transforms := []subschema.Transform{
		ExpandAbstractTypes{TargetSchema: targetSchema},
		WrapConcreteTypes{TargetSchema: targetSchema},
	}
	if info != nil {
		transforms = append(transforms, AddSelectionSets{Info: info, Subschema: subschemaName})
	}
	return append(transforms,
		FilterToSchema{TargetSchema: targetSchema},
		AddTypename{},
	)
}
