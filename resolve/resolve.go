// Package resolve implements the Default Merged Resolver (C9): the field
// resolver installed on every merged or proxied type, which short-circuits
// when the requested field is already present on the parent's external
// object and otherwise triggers the planner (package plan) through the
// per-parent batch loader.
package resolve

import (
	"context"
	"reflect"
	"unicode"

	"github.com/samsarahq/go/oops"

	"github.com/samsarahq/stitchgate/delegate"
	"github.com/samsarahq/stitchgate/plan"
	"github.com/samsarahq/stitchgate/schema"
	"github.com/samsarahq/stitchgate/stitch"
	"github.com/samsarahq/stitchgate/subschema"
)

// LoaderRegistry hands out one BatchLoader per merged type name, created
// lazily and reused for the lifetime of one request's context.
type LoaderRegistry struct {
	info    *stitch.StitchingInfo
	maxSize int
	loaders map[string]*plan.BatchLoader
}

// NewLoaderRegistry builds a registry over info. maxSize bounds each
// loader's batch size (0 means unbounded, coalescing only on MaxDuration).
func NewLoaderRegistry(info *stitch.StitchingInfo, maxSize int) *LoaderRegistry {
	return &LoaderRegistry{info: info, maxSize: maxSize, loaders: map[string]*plan.BatchLoader{}}
}

func (r *LoaderRegistry) loaderFor(typeName string) *plan.BatchLoader {
	if l, ok := r.loaders[typeName]; ok {
		return l
	}
	l := plan.NewBatchLoader(r.info, typeName, r.maxSize)
	r.loaders[typeName] = l
	return l
}

// Resolver is the default merged resolver: a subschema.Resolver bound to
// one merged type's LoaderRegistry entry.
type Resolver struct {
	Info     *stitch.StitchingInfo
	Loaders  *LoaderRegistry
	TypeName string
}

// AsResolver adapts r to the subschema.Resolver function type for
// installation on a composed schema field.
func (r *Resolver) AsResolver() subschema.Resolver {
	return r.Resolve
}

// Resolve implements SPEC_FULL.md §4.9: short-circuit on present data,
// otherwise delegate to the planner via the batch loader.
func (r *Resolver) Resolve(ctx context.Context, parent interface{}, info *subschema.ResolveInfo) (interface{}, error) {
	responseKey := info.ResponseKey
	if responseKey == "" {
		responseKey = info.FieldName
	}

	ext, ok := parent.(*delegate.ExternalObject)
	if !ok {
		// Step 1: the parent never went through a delegated sub-execution
		// (e.g. a plain nested object nested inside one), so there is no
		// provenance to consult and no planner to invoke -- resolve the
		// field the way any ordinary Go resolver would.
		return defaultFieldResolution(ctx, parent, info.FieldName)
	}

	if v, present := ext.Get(responseKey); present {
		return ResolveExternalValue(v, ext.UnpathedErrors, ext.SubschemaFor(responseKey), info)
	}

	if ext.Receiver != nil && r.fieldBelongsToSourceSubschema(ext.ObjectSubschema, info.FieldName) {
		// Step 4: the field lives in the subschema that already produced
		// ext, it just hasn't arrived yet -- await it on the receiver
		// instead of re-delegating through the planner.
		path := append(append([]interface{}{}, ext.Path...), responseKey)
		child, err := ext.Receiver.Request(ctx, path)
		if err != nil {
			return nil, oops.Wrapf(err, "stitchgate/resolve: awaiting streamed %s.%s", r.TypeName, info.FieldName)
		}
		merged := delegate.MergeExternal(path, ext, []interface{}{child}, []*schema.SelectionSet{schema.NewSelectionSet(info.FieldName)})
		v, _ := merged.Get(responseKey)
		return ResolveExternalValue(v, merged.UnpathedErrors, merged.SubschemaFor(responseKey), info)
	}

	mti, ok := r.Info.MergedTypes[r.TypeName]
	if !ok {
		return nil, oops.Errorf("stitchgate/resolve: %q is not a merged type", r.TypeName)
	}

	sources := []string{ext.ObjectSubschema}
	targets := mti.TargetSubschemas[ext.ObjectSubschema]
	if len(targets) == 0 {
		return nil, nil
	}

	node := plan.FieldNode{ResponseKey: responseKey, FieldName: info.FieldName}
	merged, err := r.Loaders.loaderFor(r.TypeName).Load(ctx, ext, node, sources, targets)
	if err != nil {
		return nil, oops.Wrapf(err, "stitchgate/resolve: resolving %s.%s", r.TypeName, info.FieldName)
	}

	v, _ := merged.Get(responseKey)
	return ResolveExternalValue(v, merged.UnpathedErrors, merged.SubschemaFor(responseKey), info)
}

// ResolveExternalValue converts a raw value read off an ExternalObject into
// the value the executor should see: for a nil value accompanied by a
// located error at this field's path, it raises that error; for a list, it
// recurses element-wise; otherwise the value passes through unchanged
// (scalar/enum wire-form conversion is the executor's responsibility, per
// this module's external-collaborator boundary).
func ResolveExternalValue(value interface{}, unpathedErrors []*subschema.GraphQLError, subschemaName string, info *subschema.ResolveInfo) (interface{}, error) {
	if value == nil {
		if err := firstErrorFor(unpathedErrors, info.ResponseKey); err != nil {
			return nil, err
		}
		return nil, nil
	}
	if list, ok := value.([]interface{}); ok {
		out := make([]interface{}, len(list))
		for i, v := range list {
			rv, err := ResolveExternalValue(v, unpathedErrors, subschemaName, info)
			if err != nil {
				return nil, err
			}
			out[i] = rv
		}
		return out, nil
	}
	return value, nil
}

// fieldBelongsToSourceSubschema reports whether subschemaName's own
// (transformed) schema declares fieldName on r.TypeName, distinguishing
// "not yet fetched from this subschema" from "owned by another subschema
// entirely" for step 4 of SPEC_FULL.md §4.9.
func (r *Resolver) fieldBelongsToSourceSubschema(subschemaName, fieldName string) bool {
	ss, ok := r.Info.SubschemaMap[subschemaName]
	if !ok || ss.TransformedSchema == nil {
		return false
	}
	obj, ok := ss.TransformedSchema.Types[r.TypeName].(*schema.Object)
	if !ok {
		return false
	}
	_, ok = obj.Fields[fieldName]
	return ok
}

// defaultFieldResolution implements step 1 of SPEC_FULL.md §4.9: a parent
// that did not come from a delegated sub-execution resolves its fields the
// way any plain Go resolver would -- a map lookup, an exported struct
// field, or a zero/ctx-argument method, matching fieldName capitalized.
func defaultFieldResolution(ctx context.Context, parent interface{}, fieldName string) (interface{}, error) {
	if parent == nil {
		return nil, nil
	}
	if m, ok := parent.(map[string]interface{}); ok {
		return m[fieldName], nil
	}

	v := reflect.ValueOf(parent)
	for v.Kind() == reflect.Ptr {
		if v.IsNil() {
			return nil, nil
		}
		v = v.Elem()
	}

	name := exportedName(fieldName)
	if v.Kind() == reflect.Struct {
		if f := v.FieldByName(name); f.IsValid() {
			return f.Interface(), nil
		}
	}

	method := reflect.ValueOf(parent).MethodByName(name)
	if !method.IsValid() {
		return nil, oops.Errorf("stitchgate/resolve: no field or method %q on %T", fieldName, parent)
	}

	var in []reflect.Value
	if method.Type().NumIn() == 1 && method.Type().In(0) == reflect.TypeOf((*context.Context)(nil)).Elem() {
		in = append(in, reflect.ValueOf(ctx))
	} else if method.Type().NumIn() != 0 {
		return nil, oops.Errorf("stitchgate/resolve: method %q on %T has unsupported signature", fieldName, parent)
	}

	out := method.Call(in)
	switch len(out) {
	case 1:
		return out[0].Interface(), nil
	case 2:
		var err error
		if !out[1].IsNil() {
			err, _ = out[1].Interface().(error)
		}
		return out[0].Interface(), err
	default:
		return nil, oops.Errorf("stitchgate/resolve: method %q on %T has unsupported signature", fieldName, parent)
	}
}

func exportedName(fieldName string) string {
	if fieldName == "" {
		return fieldName
	}
	r := []rune(fieldName)
	r[0] = unicode.ToUpper(r[0])
	return string(r)
}

func firstErrorFor(errs []*subschema.GraphQLError, responseKey string) error {
	for _, e := range errs {
		if len(e.Path) > 0 {
			if last, ok := e.Path[len(e.Path)-1].(string); ok && last == responseKey {
				return e
			}
		}
	}
	return nil
}
