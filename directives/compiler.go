// Package directives implements the Directive-Driven Config Compiler (C11):
// it reads the stitching directives (@key, @computed, @merge, @canonical)
// out of a subschema's SDL and produces the subschema.MergedTypeConfig map
// that package stitch consumes to build a StitchingInfo.
package directives

import (
	"fmt"
	"strings"

	"github.com/samsarahq/go/oops"
	"github.com/vektah/gqlparser/v2/ast"
	"github.com/vektah/gqlparser/v2/parser"

	"github.com/samsarahq/stitchgate/schema"
	"github.com/samsarahq/stitchgate/subschema"
)

const (
	directiveKey       = "key"
	directiveComputed  = "computed"
	directiveMerge     = "merge"
	directiveCanonical = "canonical"
)

// StitchingDirectiveDefs returns the DirectiveDefinitions for @key,
// @computed, @merge, and @canonical, plus @deprecated, for registration alongside a
// subschema's own schema-defined directives.
func StitchingDirectiveDefs() map[string]*schema.DirectiveDefinition {
	str := &schema.InputValueDefinition{Type: &schema.Scalar{Name: "String"}}

	return map[string]*schema.DirectiveDefinition{
		directiveKey: {
			Arguments: map[string]*schema.InputValueDefinition{"selectionSet": str},
			Locations: []schema.DirectiveLocation{schema.DirectiveLocationObject},
		},
		directiveComputed: {
			Arguments: map[string]*schema.InputValueDefinition{"selectionSet": str},
			Locations: []schema.DirectiveLocation{schema.DirectiveLocationFieldDef},
		},
		directiveMerge: {
			Arguments: map[string]*schema.InputValueDefinition{
				"keyField":       str,
				"key":            str,
				"keyArg":         str,
				"argsExpr":       str,
				"additionalArgs": str,
			},
			Locations: []schema.DirectiveLocation{schema.DirectiveLocationFieldDef},
		},
		directiveCanonical: {
			Arguments:  map[string]*schema.InputValueDefinition{},
			Repeatable: false,
			Locations: []schema.DirectiveLocation{
				schema.DirectiveLocationObject, schema.DirectiveLocationFieldDef,
				schema.DirectiveLocationInterface, schema.DirectiveLocationUnion,
				schema.DirectiveLocationEnum, schema.DirectiveLocationEnumValue,
				schema.DirectiveLocationScalar, schema.DirectiveLocationInputObject,
				schema.DirectiveLocationInputField,
			},
		},
		"deprecated": {
			Arguments: map[string]*schema.InputValueDefinition{"reason": str},
			Locations: []schema.DirectiveLocation{schema.DirectiveLocationFieldDef, schema.DirectiveLocationEnumValue},
		},
	}
}

// Compiled is the output of Compile: a subschema's merge configuration
// plus the set of type/field names marked @canonical, ready to feed into
// schema.MergeConfig.Canonical and subschema.Subschema.Merge.
type Compiled struct {
	Merge     map[string]*subschema.MergedTypeConfig
	Canonical []string // "TypeName" or "TypeName.fieldName"
}

// Compile parses sdl and returns the stitching configuration it declares.
// Selection-set strings named by @key and @computed are parsed exactly
// once here, at composition time, via gqlparser's query parser wrapped in
// a synthetic operation, and never reparsed per request.
func Compile(sdl string) (*Compiled, error) {
	doc, gqlErr := parser.ParseSchema(&ast.Source{Input: sdl, Name: "subschema.graphql"})
	if gqlErr != nil {
		return nil, oops.Wrapf(gqlErr, "stitchgate/directives: parsing SDL")
	}

	out := &Compiled{Merge: map[string]*subschema.MergedTypeConfig{}}

	for _, def := range doc.Definitions {
		if err := compileTypeDirectives(def, out); err != nil {
			return nil, oops.Wrapf(err, "stitchgate/directives: type %q", def.Name)
		}
		if def.Kind == ast.Object {
			for _, field := range def.Fields {
				if err := compileFieldDirectives(doc, def.Name, field, out); err != nil {
					return nil, oops.Wrapf(err, "stitchgate/directives: field %s.%s", def.Name, field.Name)
				}
			}
		}
	}
	return out, nil
}

// ApplyStitchingDirectives builds a subschema.ConfigTransform that compiles
// sdl once and merges its stitching directives into a subschema's Merge
// config at composition time, per SPEC_FULL.md §6's
// SubschemaConfigTransforms hook. Compiling sdl up front rather than inside
// the returned closure means a parse error surfaces immediately, at
// wiring time, instead of deferred to StitchSchemas.
func ApplyStitchingDirectives(sdl string) (subschema.ConfigTransform, error) {
	compiled, err := Compile(sdl)
	if err != nil {
		return nil, err
	}
	return func(ss *subschema.Subschema) ([]string, error) {
		if ss.Merge == nil {
			ss.Merge = map[string]*subschema.MergedTypeConfig{}
		}
		for typeName, cfg := range compiled.Merge {
			ss.Merge[typeName] = cfg
		}
		return compiled.Canonical, nil
	}, nil
}

// definitionKind looks up name's own ast.DefinitionKind within doc (not
// lists/non-nulls -- field.Type.Name() already strips those wrappers),
// returning "" if doc does not declare it (e.g. a built-in scalar).
func definitionKind(doc *ast.SchemaDocument, name string) ast.DefinitionKind {
	for _, def := range doc.Definitions {
		if def.Name == name {
			return def.Kind
		}
	}
	return ""
}

func mergedConfig(out *Compiled, typeName string) *subschema.MergedTypeConfig {
	cfg, ok := out.Merge[typeName]
	if !ok {
		cfg = &subschema.MergedTypeConfig{Fields: map[string]*subschema.MergedFieldConfig{}}
		out.Merge[typeName] = cfg
	}
	return cfg
}

func compileTypeDirectives(def *ast.Definition, out *Compiled) error {
	if d := def.Directives.ForName(directiveKey); d != nil {
		sel, err := parseSelectionSetArg(d, "selectionSet")
		if err != nil {
			return err
		}
		mergedConfig(out, def.Name).SelectionSet = sel
	}
	if def.Directives.ForName(directiveCanonical) != nil {
		out.Canonical = append(out.Canonical, def.Name)
	}
	return nil
}

func compileFieldDirectives(doc *ast.SchemaDocument, typeName string, field *ast.FieldDefinition, out *Compiled) error {
	fieldKey := typeName + "." + field.Name

	if d := field.Directives.ForName(directiveComputed); d != nil {
		sel, err := parseSelectionSetArg(d, "selectionSet")
		if err != nil {
			return err
		}
		cfg := mergedConfig(out, typeName)
		cfg.Fields[field.Name] = &subschema.MergedFieldConfig{SelectionSet: sel, Computed: true}
	}

	if d := field.Directives.ForName(directiveMerge); d != nil {
		if typeName != "Query" {
			return oops.Errorf("@merge is only valid on root Query fields, found on %s", fieldKey)
		}
		returnTypeName := field.Type.Name()
		if kind := definitionKind(doc, returnTypeName); kind != ast.Object && kind != ast.Interface && kind != ast.Union {
			return oops.Errorf("@merge on %s must return an object, interface, or union (or list thereof), found %s", fieldKey, returnTypeName)
		}
		cfg := mergedConfig(out, returnTypeName)
		cfg.FieldName = field.Name
		if err := configureMergeEntryPoint(d, cfg); err != nil {
			return err
		}
	}

	if field.Directives.ForName(directiveCanonical) != nil {
		out.Canonical = append(out.Canonical, fieldKey)
	}
	return nil
}

func configureMergeEntryPoint(d *ast.Directive, cfg *subschema.MergedTypeConfig) error {
	keyField := directiveArg(d, "keyField")
	key := directiveArg(d, "key")
	keyArg := directiveArg(d, "keyArg")
	argsExpr := directiveArg(d, "argsExpr")
	additionalArgs := directiveArg(d, "additionalArgs")

	if key != "" && keyField != "" {
		return oops.Errorf("@merge: key and keyField are mutually exclusive")
	}
	if argsExpr != "" && (keyArg != "" || additionalArgs != "") {
		return oops.Errorf("@merge: argsExpr excludes keyArg and additionalArgs")
	}
	for _, path := range []string{keyField, keyArg} {
		if path != "" && strings.ContainsAny(path, " \t\n") {
			return oops.Errorf("@merge: %q is not a dotted-name path", path)
		}
	}

	if argsExpr != "" {
		expr, err := parseArgsExpr(argsExpr)
		if err != nil {
			return oops.Wrapf(err, "@merge: argsExpr %q", argsExpr)
		}
		cfg.Args = func(parent map[string]interface{}) map[string]interface{} {
			return expr.eval(parent)
		}
		// argsExpr addresses arbitrary parent fields, not a single key, so
		// this entry point cannot be batched across keys the way keyArg can.
		return nil
	}

	path := keyField
	if path == "" {
		path = key
	}
	if path == "" {
		path = "id"
	}
	segments := strings.Split(path, ".")

	cfg.Key = func(parent map[string]interface{}) interface{} {
		return lookupPath(parent, segments)
	}

	argName := keyArg
	if argName == "" {
		argName = "id"
	}
	extra, err := parseArgsExpr(additionalArgs)
	if err != nil {
		return oops.Wrapf(err, "@merge: additionalArgs %q", additionalArgs)
	}
	cfg.ArgsFromKeys = func(keys []interface{}) map[string]interface{} {
		return map[string]interface{}{argName: keys}
	}
	cfg.Args = func(parent map[string]interface{}) map[string]interface{} {
		args := extra.eval(parent)
		args[argName] = lookupPath(parent, segments)
		return args
	}
	return nil
}

// argsExprTerm is one "name: value" entry parsed from an argsExpr or
// additionalArgs directive argument.
type argsExprTerm struct {
	name string
	// path is a dotted lookup into the parent object (set when the source
	// value began with '$'); literal holds a fixed value otherwise.
	path    []string
	literal interface{}
	isPath  bool
}

type argsExpr []argsExprTerm

func (e argsExpr) eval(parent map[string]interface{}) map[string]interface{} {
	out := make(map[string]interface{}, len(e))
	for _, term := range e {
		if term.isPath {
			out[term.name] = lookupPath(parent, term.path)
		} else {
			out[term.name] = term.literal
		}
	}
	return out
}

// parseArgsExpr parses a comma-separated "name: value" list, per
// SPEC_FULL.md §4.11's `argsExpr` merge-directive argument. A value prefixed
// with '$' is a dotted-path lookup into the parent object (e.g. "$author.id"
// reads parent["author"]["id"]); any other value is a literal, unquoted
// strings passing through as-is and quoted strings having their quotes
// stripped. An empty expression parses to an empty, always-no-op argsExpr.
func parseArgsExpr(raw string) (argsExpr, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil, nil
	}
	var out argsExpr
	for _, clause := range strings.Split(raw, ",") {
		clause = strings.TrimSpace(clause)
		if clause == "" {
			continue
		}
		parts := strings.SplitN(clause, ":", 2)
		if len(parts) != 2 {
			return nil, oops.Errorf("malformed clause %q, expected \"name: value\"", clause)
		}
		name := strings.TrimSpace(parts[0])
		value := strings.TrimSpace(parts[1])
		if name == "" {
			return nil, oops.Errorf("malformed clause %q, missing argument name", clause)
		}
		if strings.HasPrefix(value, "$") {
			out = append(out, argsExprTerm{name: name, path: strings.Split(value[1:], "."), isPath: true})
			continue
		}
		if len(value) >= 2 && value[0] == '"' && value[len(value)-1] == '"' {
			out = append(out, argsExprTerm{name: name, literal: value[1 : len(value)-1]})
			continue
		}
		out = append(out, argsExprTerm{name: name, literal: value})
	}
	return out, nil
}

func lookupPath(v map[string]interface{}, path []string) interface{} {
	var cur interface{} = v
	for _, p := range path {
		m, ok := cur.(map[string]interface{})
		if !ok {
			return nil
		}
		cur = m[p]
	}
	return cur
}

func directiveArg(d *ast.Directive, name string) string {
	arg := d.Arguments.ForName(name)
	if arg == nil || arg.Value == nil {
		return ""
	}
	return arg.Value.Raw
}

// parseSelectionSetArg parses a directive argument holding a selection-set
// string ("{ id name }") by wrapping it in a synthetic query document, per
// SPEC_FULL.md §4.11: "parsed exactly once, at composition time... wrapped
// in a synthetic query { ... } document".
func parseSelectionSetArg(d *ast.Directive, argName string) (*schema.SelectionSet, error) {
	raw := directiveArg(d, argName)
	if raw == "" {
		return nil, oops.Errorf("missing required argument %q", argName)
	}
	synthetic := fmt.Sprintf("query { __stitch %s }", raw)
	doc, gqlErr := parser.ParseQuery(&ast.Source{Input: synthetic, Name: "selectionSet"})
	if gqlErr != nil {
		return nil, oops.Wrapf(gqlErr, "parsing selectionSet %q", raw)
	}
	if len(doc.Operations) == 0 {
		return nil, oops.Errorf("selectionSet %q produced no operation", raw)
	}
	root := doc.Operations[0].SelectionSet
	field, ok := root[0].(*ast.Field)
	if !ok {
		return nil, oops.Errorf("selectionSet %q malformed", raw)
	}
	return convertSelectionSet(field.SelectionSet), nil
}

func convertSelectionSet(set ast.SelectionSet) *schema.SelectionSet {
	if len(set) == 0 {
		return nil
	}
	out := &schema.SelectionSet{}
	for _, sel := range set {
		switch s := sel.(type) {
		case *ast.Field:
			out.Selections = append(out.Selections, &schema.Selection{
				Alias:        s.Alias,
				Name:         s.Name,
				SelectionSet: convertSelectionSet(s.SelectionSet),
			})
		case *ast.InlineFragment:
			inner := convertSelectionSet(s.SelectionSet)
			if inner != nil {
				for _, innerSel := range inner.Selections {
					innerSel.TypeCondition = s.TypeCondition.Name
					out.Selections = append(out.Selections, innerSel)
				}
			}
		}
	}
	return out
}
