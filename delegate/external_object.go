package delegate

import (
	"sync"

	"github.com/samsarahq/stitchgate/schema"
	"github.com/samsarahq/stitchgate/subschema"
)

// ExternalObject is a parent value returned by a delegated sub-execution.
// Its three hidden annotations (origin subschema, per-field provenance,
// unpathed errors) are what distinguishes it from a plain
// map[string]interface{}: IsExternalObject(x) holds iff x is an
// *ExternalObject, whether or not its UnpathedErrors is nil.
type ExternalObject struct {
	Data map[string]interface{}

	ObjectSubschema string

	mu                sync.Mutex
	FieldSubschemaMap map[string]string

	UnpathedErrors []*subschema.GraphQLError

	// Receiver is set when this object originated from a streamed
	// delegation; later field resolves may subscribe to it for deferred
	// patches (package resolve's default resolver does this on a field
	// miss when a receiver is present, per SPEC_FULL.md §4.9 step 4).
	Receiver Receiver

	// Path locates this object within its Receiver's patch-path namespace
	// (nil for an object with no Receiver, or for the receiver's own root).
	// A field resolve that falls through to its Receiver appends its
	// response key to Path to address the right patch.
	Path []interface{}
}

// Annotate attaches the three hidden annotations to data, returning the
// resulting ExternalObject. O(1).
func Annotate(data map[string]interface{}, errors []*subschema.GraphQLError, origin string) *ExternalObject {
	fsm := make(map[string]string, len(data))
	for k := range data {
		fsm[k] = origin
	}
	return &ExternalObject{
		Data:              data,
		ObjectSubschema:   origin,
		FieldSubschemaMap: fsm,
		UnpathedErrors:    errors,
	}
}

// IsExternalObject reports whether x is an *ExternalObject. O(1).
func IsExternalObject(x interface{}) bool {
	_, ok := x.(*ExternalObject)
	return ok
}

// SubschemaFor returns which subschema is recorded as the source of
// responseKey, or the object's origin if no specific provenance is
// recorded for that key.
func (o *ExternalObject) SubschemaFor(responseKey string) string {
	o.mu.Lock()
	defer o.mu.Unlock()
	if s, ok := o.FieldSubschemaMap[responseKey]; ok {
		return s
	}
	return o.ObjectSubschema
}

// Get returns the raw value stored for responseKey and whether it is
// present at all (present-but-nil and absent are distinguished, since the
// default resolver (C9) treats "absent" as "not yet fetched" and
// "present but nil" as "fetched and null").
func (o *ExternalObject) Get(responseKey string) (interface{}, bool) {
	v, ok := o.Data[responseKey]
	return v, ok
}

// relocate moves every error in errs with no Path to have path, returning
// the relocated copies; errors with an existing Path pass through
// untouched (SPEC_FULL.md invariant 4).
func relocate(errs []*subschema.GraphQLError, path []interface{}) []*subschema.GraphQLError {
	out := make([]*subschema.GraphQLError, len(errs))
	for i, e := range errs {
		if len(e.Path) == 0 {
			cp := *e
			cp.Path = path
			out[i] = &cp
		} else {
			out[i] = e
		}
	}
	return out
}

// MergeExternal merges one or more source results into target, producing a
// new *ExternalObject per SPEC_FULL.md §4.6. Each source is either an
// *ExternalObject, an error, or nil; an error or nil source becomes a
// synthesized null result whose every response key named in its
// selectionSet carries the relocated error (or a plain null if no error is
// given).
func MergeExternal(path []interface{}, target *ExternalObject, sources []interface{}, selectionSets []*schema.SelectionSet) *ExternalObject {
	merged := &ExternalObject{
		Data:              map[string]interface{}{},
		ObjectSubschema:   target.ObjectSubschema,
		FieldSubschemaMap: map[string]string{},
	}
	for k, v := range target.Data {
		merged.Data[k] = v
	}
	for k, v := range target.FieldSubschemaMap {
		merged.FieldSubschemaMap[k] = v
	}
	merged.UnpathedErrors = append(merged.UnpathedErrors, target.UnpathedErrors...)
	merged.Receiver = target.Receiver
	merged.Path = path

	for i, src := range sources {
		var selectionSet *schema.SelectionSet
		if i < len(selectionSets) {
			selectionSet = selectionSets[i]
		}
		mergeOneSource(merged, src, path, selectionSet)
	}
	return merged
}

func mergeOneSource(merged *ExternalObject, src interface{}, path []interface{}, selectionSet *schema.SelectionSet) {
	switch s := src.(type) {
	case nil:
		nullFields(merged, selectionSet, nil, path)
	case error:
		nullFields(merged, selectionSet, []*subschema.GraphQLError{{Message: s.Error()}}, path)
	case *ExternalObject:
		if s == nil {
			nullFields(merged, selectionSet, nil, path)
			return
		}
		deepMerge(merged.Data, s.Data)
		for k := range s.Data {
			if prov, ok := s.FieldSubschemaMap[k]; ok {
				merged.FieldSubschemaMap[k] = prov
			} else {
				merged.FieldSubschemaMap[k] = s.ObjectSubschema
			}
		}
		merged.UnpathedErrors = append(merged.UnpathedErrors, relocate(s.UnpathedErrors, path)...)
		if merged.Receiver == nil {
			merged.Receiver = s.Receiver
		}
	}
}

func nullFields(merged *ExternalObject, selectionSet *schema.SelectionSet, errs []*subschema.GraphQLError, path []interface{}) {
	names := selectionSet.FieldNames()
	for _, name := range names {
		merged.Data[name] = nil
		merged.FieldSubschemaMap[name] = merged.ObjectSubschema
		fieldPath := append(append([]interface{}{}, path...), name)
		merged.UnpathedErrors = append(merged.UnpathedErrors, relocate(errs, fieldPath)...)
	}
	if len(names) == 0 {
		merged.UnpathedErrors = append(merged.UnpathedErrors, relocate(errs, path)...)
	}
}

// deepMerge recursively merges src into dst: for every leaf key present in
// both, the later source wins; nested objects recurse; slices are
// replaced wholesale (element-wise merging of lists of merged types is the
// surrounding merged-type resolver's job, not this primitive's).
func deepMerge(dst, src map[string]interface{}) {
	for k, v := range src {
		existing, ok := dst[k]
		if !ok {
			dst[k] = v
			continue
		}
		existingMap, existingIsMap := existing.(map[string]interface{})
		srcMap, srcIsMap := v.(map[string]interface{})
		if existingIsMap && srcIsMap {
			deepMerge(existingMap, srcMap)
			continue
		}
		dst[k] = v
	}
}
