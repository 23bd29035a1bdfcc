// Package stitch implements the Stitching Index (C3): given a composed
// schema and the subschemas it was built from, it compiles the per-type
// selection sets, field-ownership maps, and merged-type resolvers that the
// planner (package plan) and the default merged resolver (package resolve)
// consult at query time, and installs proxying resolvers on root fields.
package stitch

import (
	"context"

	"github.com/samsarahq/go/oops"

	"github.com/samsarahq/stitchgate/schema"
	"github.com/samsarahq/stitchgate/subschema"
	"github.com/samsarahq/stitchgate/transform"
)

// MergedTypeResolver fetches one subschema's view of a merged type given a
// (possibly partial) parent external object and the selection set the
// caller still needs resolved.
type MergedTypeResolver func(ctx context.Context, parent map[string]interface{}, selectionSet *schema.SelectionSet) (map[string]interface{}, []*subschema.GraphQLError, error)

// MergedTypeInfo is the compiled, per-type stitching record the planner
// (C7) reads to decide proxiability and dispatch delegation rounds.
type MergedTypeInfo struct {
	TypeName string

	// TargetSubschemas[s] lists every subschema able to serve this type
	// other than s itself.
	TargetSubschemas map[string][]string

	// SelectionSets[s] is the key selection set subschema s requires on a
	// parent before it can resolve further fields of this type.
	SelectionSets map[string]*schema.SelectionSet

	// FieldSelectionSets[s][f] is the dependency selection set for
	// @computed field f as served by subschema s.
	FieldSelectionSets map[string]map[string]*schema.SelectionSet

	// UniqueFields[f] names the one subschema able to serve field f.
	UniqueFields map[string]string

	// NonUniqueFields[f] lists every subschema able to serve field f, when
	// more than one can.
	NonUniqueFields map[string][]string

	// Resolvers[s] fetches this type from subschema s.
	Resolvers map[string]MergedTypeResolver
}

// StitchingInfo is the immutable, process-wide-per-composition index
// produced by Compile. It is safe for unsynchronized concurrent reads.
type StitchingInfo struct {
	SubschemaMap map[string]*subschema.Subschema
	MergedTypes  map[string]*MergedTypeInfo
}

// Compile builds a StitchingInfo from the composed schema and the
// subschemas that contributed to it. It must run once, after schema.Merge,
// and its result is treated as immutable thereafter (§5 of SPEC_FULL.md).
func Compile(composed *schema.Schema, subschemas map[string]*subschema.Subschema) (*StitchingInfo, error) {
	info := &StitchingInfo{
		SubschemaMap: subschemas,
		MergedTypes:  map[string]*MergedTypeInfo{},
	}

	for typeName, named := range composed.Types {
		obj, ok := named.(*schema.Object)
		if !ok {
			continue
		}
		contributors := contributingSubschemas(obj, subschemas)
		if len(contributors) < 2 {
			continue
		}
		mti, err := compileMergedType(typeName, obj, contributors, subschemas)
		if err != nil {
			return nil, oops.Wrapf(err, "stitchgate/stitch: compiling merged type %q", typeName)
		}
		info.MergedTypes[typeName] = mti
	}
	return info, nil
}

func contributingSubschemas(obj *schema.Object, subschemas map[string]*subschema.Subschema) []string {
	set := map[string]bool{}
	for _, owners := range obj.FieldSubschemas {
		for _, o := range owners {
			set[o] = true
		}
	}
	var out []string
	for name := range subschemas {
		if set[name] {
			out = append(out, name)
		}
	}
	return out
}

func compileMergedType(typeName string, obj *schema.Object, contributors []string, subschemas map[string]*subschema.Subschema) (*MergedTypeInfo, error) {
	mti := &MergedTypeInfo{
		TypeName:           typeName,
		TargetSubschemas:   map[string][]string{},
		SelectionSets:      map[string]*schema.SelectionSet{},
		FieldSelectionSets: map[string]map[string]*schema.SelectionSet{},
		UniqueFields:       map[string]string{},
		NonUniqueFields:    map[string][]string{},
		Resolvers:          map[string]MergedTypeResolver{},
	}

	for _, s := range contributors {
		var targets []string
		for _, other := range contributors {
			if other != s {
				targets = append(targets, other)
			}
		}
		mti.TargetSubschemas[s] = targets

		ss := subschemas[s]
		if cfg, ok := ss.Merge[typeName]; ok {
			mti.SelectionSets[s] = cfg.SelectionSet
			fieldSets := map[string]*schema.SelectionSet{}
			for fname, fcfg := range cfg.Fields {
				if fcfg.Computed {
					fieldSets[fname] = fcfg.SelectionSet
				}
			}
			mti.FieldSelectionSets[s] = fieldSets
			mti.Resolvers[s] = buildMergedTypeResolver(ss, typeName, cfg)
		}
	}

	for fname, owners := range obj.FieldSubschemas {
		unique := map[string]bool{}
		var list []string
		for _, o := range owners {
			if !unique[o] {
				unique[o] = true
				list = append(list, o)
			}
		}
		if len(list) == 1 {
			mti.UniqueFields[fname] = list[0]
		} else {
			mti.NonUniqueFields[fname] = list
		}
	}

	return mti, nil
}

// buildMergedTypeResolver builds the callable the planner invokes to fetch
// typeName from subschema ss, using its merge-config entry point (root
// FieldName plus Key/ArgsFromKeys for batch mode or Args for single mode).
// It applies ss's transform pipeline the same way delegate.Delegate does
// for an ordinary proxying resolver, matching the proxying-resolver split
// described in SPEC_FULL.md §4.3: this resolver shapes and transforms the
// root-field call, package subschema's Executor does the actual transport.
func buildMergedTypeResolver(ss *subschema.Subschema, typeName string, cfg *subschema.MergedTypeConfig) MergedTypeResolver {
	return func(ctx context.Context, parent map[string]interface{}, selectionSet *schema.SelectionSet) (map[string]interface{}, []*subschema.GraphQLError, error) {
		pipeline := &transform.Pipeline{Transforms: ss.Transforms}

		var args map[string]interface{}
		if ss.Batch && cfg.ArgsFromKeys != nil && cfg.Key != nil {
			args = cfg.ArgsFromKeys([]interface{}{cfg.Key(parent)})
		} else if cfg.Args != nil {
			args = cfg.Args(parent)
		}

		selectionSet = pipeline.ApplySelectionSet(typeName, selectionSet)

		req, err := buildEntryPointRequest(ss.TransformedSchema, cfg.FieldName, args, selectionSet)
		if err != nil {
			return nil, nil, oops.Wrapf(err, "building request for %s.%s", typeName, cfg.FieldName)
		}
		req, tctxs := pipeline.Apply(ctx, req)

		result, patches, err := ss.Executor.Execute(ctx, req)
		if err != nil {
			return nil, nil, oops.Wrapf(err, "executing %s.%s against subschema %q", typeName, cfg.FieldName, ss.Name)
		}
		if patches != nil {
			first, ok := <-patches
			if !ok {
				return nil, nil, oops.Errorf("subschema %q closed patch channel before an initial result", ss.Name)
			}
			res := pipeline.Unapply(ctx, &subschema.ExecutionResult{Data: first.Data, Errors: first.Errors}, tctxs)
			return extractRootField(res.Data, cfg.FieldName), res.Errors, nil
		}
		result = pipeline.Unapply(ctx, result, tctxs)
		return extractRootField(result.Data, cfg.FieldName), result.Errors, nil
	}
}

func extractRootField(data map[string]interface{}, fieldName string) map[string]interface{} {
	if data == nil {
		return nil
	}
	v, _ := data[fieldName].(map[string]interface{})
	return v
}
