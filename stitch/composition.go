package stitch

import (
	"github.com/samsarahq/go/oops"

	"github.com/samsarahq/stitchgate/schema"
	"github.com/samsarahq/stitchgate/subschema"
	"github.com/samsarahq/stitchgate/transform"
)

// Config is the input to StitchSchemas: everything needed to compose one
// gateway schema out of a set of subschemas.
type Config struct {
	Subschemas []*subschema.Subschema

	// Types and TypeDefs let the caller extend the composed schema with
	// types no subschema declares on its own.
	Types    []schema.NamedType
	TypeDefs string

	// MergeTypes controls C2's merge-vs-choose decision: bool, []string of
	// names, or func(string) bool.
	MergeTypes      interface{}
	MergeDirectives bool
	OnTypeConflict  func(prev, next schema.NamedType, info schema.ConflictInfo) schema.NamedType
	Canonical       map[string]string

	// NewReceiver wires package stream's Receiver constructor into every
	// proxying resolver's streamed-delegation path. Nil disables streaming
	// support: a streamed root field then returns only its initial result.
	NewReceiver NewReceiverFactory

	// SubschemaConfigTransforms runs pre-composition rewrites against every
	// subschema, e.g. directives.ApplyStitchingDirectives compiling @key and
	// @merge directives out of a subschema's SDL into its Merge config. Each
	// transform's returned canonical names are attributed to that subschema
	// in the composed schema's Canonical map, alongside cfg.Canonical.
	SubschemaConfigTransforms []subschema.ConfigTransform

	// TypeMergingOptions supplies, per merged type name, extra key fields
	// every contributing subschema's selection-set requirement is widened
	// by, independent of what each subschema's own Merge config declares.
	TypeMergingOptions map[string]TypeMergeOptions

	// Resolvers installs caller-authored resolvers on composed fields,
	// keyed by type name then field name, taking precedence over any
	// delegation-based resolver the composition would otherwise install
	// for that field. Used for fields with no subschema owner at all
	// (computed purely from already-resolved sibling data) as well as for
	// overriding a generated proxying resolver.
	Resolvers map[string]map[string]subschema.Resolver

	// InheritResolversFromInterfaces: when a composed object implements an
	// interface and has no resolver of its own (neither generated nor in
	// Resolvers) for one of that interface's fields, fall back to the
	// interface's entry in Resolvers for that field name.
	InheritResolversFromInterfaces bool
}

// TypeMergeOptions is one merged type's composition-wide merge tuning.
type TypeMergeOptions struct {
	// AdditionalSelectionSet is merged into every subschema's own key
	// selection set for this type, for key fields a directive or
	// hand-built MergedTypeConfig didn't think to request.
	AdditionalSelectionSet *schema.SelectionSet
}

// ComposedSchema is the output of composition: the merged schema, its
// stitching index, and the resolver map ready for an executor to install.
type ComposedSchema struct {
	Schema        *schema.Schema
	StitchingInfo *StitchingInfo

	// Resolvers maps "TypeName.fieldName" to the resolver to install on
	// the composed schema for that field: generated proxying resolvers for
	// root fields, plus Config.Resolvers and any inherited interface
	// resolvers.
	Resolvers map[string]subschema.Resolver
}

// StitchSchemas is the gateway's single composition entry point (§6 of
// SPEC_FULL.md): it runs C1 (candidate registry), C2 (type merger), C3
// (stitching index), and installs proxying resolvers on every root field,
// returning a ComposedSchema ready to drive query execution.
func StitchSchemas(cfg Config) (*ComposedSchema, error) {
	subschemas := map[string]*subschema.Subschema{}
	registry := schema.NewTypeCandidateRegistry()
	registry.MergeDirectives = cfg.MergeDirectives

	derivedCanonical := map[string]string{}
	for _, ss := range cfg.Subschemas {
		if ss.Name == "" {
			return nil, oops.Errorf("stitchgate: subschema with empty Name")
		}
		if _, dup := subschemas[ss.Name]; dup {
			return nil, oops.Errorf("stitchgate: duplicate subschema name %q", ss.Name)
		}
		subschemas[ss.Name] = ss

		for _, xform := range cfg.SubschemaConfigTransforms {
			names, err := xform(ss)
			if err != nil {
				return nil, oops.Wrapf(err, "stitchgate: applying config transform to subschema %q", ss.Name)
			}
			for _, name := range names {
				derivedCanonical[name] = ss.Name
			}
		}

		pipeline := &transform.Pipeline{Transforms: ss.Transforms}
		ss.TransformedSchema = pipeline.TransformSchema(ss.Schema)

		if err := registry.AddSubschema(ss.Name, ss.Schema); err != nil {
			return nil, oops.Wrapf(err, "stitchgate: adding subschema %q", ss.Name)
		}
	}

	for typeName, opts := range cfg.TypeMergingOptions {
		if opts.AdditionalSelectionSet == nil {
			continue
		}
		for _, ss := range subschemas {
			mtc, ok := ss.Merge[typeName]
			if !ok {
				continue
			}
			mtc.SelectionSet = schema.MergeSelectionSets(mtc.SelectionSet, opts.AdditionalSelectionSet)
		}
	}

	registry.AddTypes(cfg.Types...)
	if err := registry.AddTypeDefs(cfg.TypeDefs); err != nil {
		return nil, oops.Wrapf(err, "stitchgate: composing extension TypeDefs")
	}

	canonical := derivedCanonical
	for name, owner := range cfg.Canonical {
		canonical[name] = owner
	}

	mergeCfg := schema.MergeConfig{
		MergeTypes: cfg.MergeTypes,
		Canonical:  canonical,
	}
	if cfg.OnTypeConflict != nil {
		mergeCfg.OnTypeConflict = func(prev, next schema.NamedType, info schema.ConflictInfo) schema.NamedType {
			return cfg.OnTypeConflict(prev, next, info)
		}
	}

	composed, err := schema.Merge(registry, mergeCfg)
	if err != nil {
		return nil, oops.Wrapf(err, "stitchgate: merging types")
	}

	info, err := Compile(composed, subschemas)
	if err != nil {
		return nil, oops.Wrapf(err, "stitchgate: compiling stitching index")
	}

	// Install the C4 built-ins as every subschema's default transforms, run
	// after any caller-supplied ones, so the request actually delegated is
	// always shaped to fit the target subschema's own schema regardless of
	// what a caller-supplied transform produced. This must happen after
	// Compile, since AddSelectionSets needs the stitching index it builds;
	// ss.Transforms is only read later, at query time, so appending here is
	// not too late.
	for _, ss := range subschemas {
		ss.Transforms = append(ss.Transforms, transform.DefaultTransforms(ss.TransformedSchema, info, ss.Name)...)
	}

	resolvers := map[string]subschema.Resolver{}
	for _, ss := range subschemas {
		for opName, root := range map[string]*schema.Object{"query": composed.Query, "mutation": composed.Mutation, "subscription": composed.Subscription} {
			for fieldName, r := range InstallProxyingResolvers(root, opName, ss, cfg.NewReceiver) {
				resolvers[root.Name+"."+fieldName] = r
			}
		}
	}

	for typeName, fields := range cfg.Resolvers {
		for fieldName, r := range fields {
			resolvers[typeName+"."+fieldName] = r
		}
	}

	if cfg.InheritResolversFromInterfaces {
		for _, named := range composed.Types {
			obj, ok := named.(*schema.Object)
			if !ok {
				continue
			}
			for _, iface := range obj.Interfaces {
				ifaceFields := cfg.Resolvers[iface.Name]
				for fieldName, r := range ifaceFields {
					key := obj.Name + "." + fieldName
					if _, exists := resolvers[key]; exists {
						continue
					}
					resolvers[key] = r
				}
			}
		}
	}

	return &ComposedSchema{Schema: composed, StitchingInfo: info, Resolvers: resolvers}, nil
}
