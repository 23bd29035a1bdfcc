package stitch

import "github.com/samsarahq/stitchgate/schema"

// KeySelectionSet and FieldSelectionSet satisfy transform.StitchingIndex,
// letting package transform's AddSelectionSets consult this index without
// package transform importing package stitch (stitch already depends on
// transform to build each subschema's Pipeline).

// KeySelectionSet returns the key selection set subschemaName requires on
// a parent before it can resolve further fields of typeName.
func (info *StitchingInfo) KeySelectionSet(typeName, subschemaName string) *schema.SelectionSet {
	mti, ok := info.MergedTypes[typeName]
	if !ok {
		return nil
	}
	return mti.SelectionSets[subschemaName]
}

// FieldSelectionSet returns the computed-field dependency selection set
// for fieldName as served by subschemaName, if any.
func (info *StitchingInfo) FieldSelectionSet(typeName, subschemaName, fieldName string) (*schema.SelectionSet, bool) {
	mti, ok := info.MergedTypes[typeName]
	if !ok {
		return nil, false
	}
	fields, ok := mti.FieldSelectionSets[subschemaName]
	if !ok {
		return nil, false
	}
	sel, ok := fields[fieldName]
	return sel, ok
}
