package schema

import (
	"fmt"

	"github.com/samsarahq/go/oops"
	"github.com/vektah/gqlparser/v2/ast"
	"github.com/vektah/gqlparser/v2/parser"
)

// Candidate is one subschema's (or extension's) contribution of a type
// under a given name. The merger (C2) groups candidates by name and decides
// whether to choose one or merge them all.
type Candidate struct {
	Type      NamedType
	Subschema string // empty for user-supplied extension types
}

// TypeCandidateRegistry collects every named type contributed by every
// subschema plus user-supplied extension types and SDL, grouped by name.
// This is C1: it never decides merge-vs-choose, it only gathers.
type TypeCandidateRegistry struct {
	Candidates map[string][]*Candidate
	Directives map[string]*DirectiveDefinition

	// MergeDirectives controls whether a directive definition with a name
	// already seen accumulates (true) or is overwritten, last write wins
	// (false, the default composition behavior).
	MergeDirectives bool
}

// NewTypeCandidateRegistry returns an empty registry.
func NewTypeCandidateRegistry() *TypeCandidateRegistry {
	return &TypeCandidateRegistry{
		Candidates: map[string][]*Candidate{},
		Directives: map[string]*DirectiveDefinition{},
	}
}

// AddSubschema registers every named type and every directive definition of
// s under subschemaName, excluding introspection types (names beginning
// with "__", which the gateway always regenerates over the composed
// schema rather than stitching together).
func (r *TypeCandidateRegistry) AddSubschema(subschemaName string, s *Schema) error {
	if s == nil {
		return oops.Errorf("stitchgate: subschema %q has a nil schema", subschemaName)
	}
	for name, t := range s.Types {
		if isIntrospectionName(name) {
			continue
		}
		r.add(name, &Candidate{Type: t, Subschema: subschemaName})
	}
	for name, d := range s.Directives {
		r.addDirective(name, d)
	}
	return nil
}

// AddTypes registers user-supplied NamedTypes with no owning subschema.
func (r *TypeCandidateRegistry) AddTypes(types ...NamedType) {
	for _, t := range types {
		r.add(t.TypeName(), &Candidate{Type: t})
	}
}

// AddTypeDefs parses an SDL fragment via gqlparser and registers every type
// definition it contains as a user-supplied candidate. This is the one
// point during composition where raw SDL text (as opposed to an already
// materialized *Schema from a subschema) enters the registry, per C1's
// "TypeDefs parsed to AST" input.
func (r *TypeCandidateRegistry) AddTypeDefs(typeDefs string) error {
	if typeDefs == "" {
		return nil
	}
	doc, err := parser.ParseSchema(&ast.Source{Input: typeDefs, Name: "TypeDefs"})
	if err != nil {
		return oops.Wrapf(err, "stitchgate: parsing TypeDefs")
	}
	for _, def := range doc.Definitions {
		t, err := convertDefinition(def)
		if err != nil {
			return oops.Wrapf(err, "stitchgate: TypeDefs type %q", def.Name)
		}
		if t != nil {
			r.add(t.TypeName(), &Candidate{Type: t})
		}
	}
	for _, def := range doc.Directives {
		r.addDirective(def.Name, convertDirectiveDefinition(def))
	}
	return nil
}

func (r *TypeCandidateRegistry) add(name string, c *Candidate) {
	r.Candidates[name] = append(r.Candidates[name], c)
}

func (r *TypeCandidateRegistry) addDirective(name string, d *DirectiveDefinition) {
	if r.MergeDirectives {
		if existing, ok := r.Directives[name]; ok {
			r.Directives[name] = mergeDirectiveDefinitions(existing, d)
			return
		}
	}
	r.Directives[name] = d
}

func mergeDirectiveDefinitions(a, b *DirectiveDefinition) *DirectiveDefinition {
	merged := &DirectiveDefinition{
		Description: a.Description,
		Arguments:   map[string]*InputValueDefinition{},
		Repeatable:  a.Repeatable || b.Repeatable,
	}
	for name, arg := range a.Arguments {
		merged.Arguments[name] = arg
	}
	for name, arg := range b.Arguments {
		merged.Arguments[name] = arg
	}
	locs := map[DirectiveLocation]bool{}
	for _, l := range append(append([]DirectiveLocation{}, a.Locations...), b.Locations...) {
		if !locs[l] {
			locs[l] = true
			merged.Locations = append(merged.Locations, l)
		}
	}
	return merged
}

func isIntrospectionName(name string) bool {
	return len(name) >= 2 && name[0] == '_' && name[1] == '_'
}

// convertDefinition maps a gqlparser ast.Definition for an object,
// interface, union, enum, scalar, or input object into the corresponding
// schema.NamedType. Field and argument *ast.Type references are left as
// unresolved *namedTypeRef placeholders; RewireTypes (see merge.go)
// resolves them against the final composed type map.
func convertDefinition(def *ast.Definition) (NamedType, error) {
	directives := convertDirectives(def.Directives)
	switch def.Kind {
	case ast.Object:
		return &Object{
			Name:            def.Name,
			Description:     def.Description,
			Interfaces:      nil, // resolved by RewireTypes from def.Interfaces names
			Fields:          convertFields(def.Fields, ""),
			Directives:      directives,
			FieldSubschemas: map[string][]string{},
			unresolvedInterfaces: append([]string{}, def.Interfaces...),
		}, nil
	case ast.Interface:
		return &Interface{
			Name:        def.Name,
			Description: def.Description,
			Fields:      convertFields(def.Fields, ""),
			Directives:  directives,
		}, nil
	case ast.Union:
		return &Union{
			Name:                def.Name,
			Description:         def.Description,
			Directives:          directives,
			unresolvedPossible: append([]string{}, def.Types...),
		}, nil
	case ast.Enum:
		values := map[string]*EnumValue{}
		for _, v := range def.EnumValues {
			values[v.Name] = &EnumValue{
				Name:        v.Name,
				Description: v.Description,
				Directives:  convertDirectives(v.Directives),
				Deprecated:  Find(convertDirectives(v.Directives), "deprecated") != nil,
			}
		}
		return &Enum{Name: def.Name, Description: def.Description, Values: values, Directives: directives}, nil
	case ast.Scalar:
		return &Scalar{Name: def.Name, Description: def.Description, Directives: directives}, nil
	case ast.InputObject:
		fields := map[string]*InputValueDefinition{}
		for _, f := range def.Fields {
			fields[f.Name] = convertInputValue(f)
		}
		return &InputObject{Name: def.Name, Description: def.Description, Fields: fields, Directives: directives}, nil
	default:
		return nil, fmt.Errorf("unsupported definition kind %v", def.Kind)
	}
}

func convertFields(fields ast.FieldList, subschema string) map[string]*FieldDefinition {
	out := map[string]*FieldDefinition{}
	for _, f := range fields {
		args := map[string]*InputValueDefinition{}
		for _, a := range f.Arguments {
			args[a.Name] = convertInputValue(a)
		}
		directives := convertDirectives(f.Directives)
		out[f.Name] = &FieldDefinition{
			Name:        f.Name,
			Description: f.Description,
			Type:        unresolvedType(f.Type),
			Arguments:   args,
			Directives:  directives,
			Deprecated:  Find(directives, "deprecated") != nil,
			Subschema:   subschema,
		}
	}
	return out
}

func convertInputValue(f *ast.FieldDefinition) *InputValueDefinition {
	v := &InputValueDefinition{
		Name:        f.Name,
		Description: f.Description,
		Type:        unresolvedType(f.Type),
		Directives:  convertDirectives(f.Directives),
	}
	if f.DefaultValue != nil {
		v.HasDefault = true
		v.DefaultValue = f.DefaultValue.Raw
	}
	return v
}

func convertDirectives(directives ast.DirectiveList) []*Directive {
	out := make([]*Directive, 0, len(directives))
	for _, d := range directives {
		args := map[string]interface{}{}
		for _, a := range d.Arguments {
			if a.Value != nil {
				args[a.Name] = a.Value.Raw
			}
		}
		out = append(out, &Directive{Name: d.Name, Arguments: args})
	}
	return out
}

func convertDirectiveDefinition(d *ast.DirectiveDefinition) *DirectiveDefinition {
	args := map[string]*InputValueDefinition{}
	for _, a := range d.Arguments {
		args[a.Name] = convertInputValue(a)
	}
	locs := make([]DirectiveLocation, 0, len(d.Locations))
	for _, l := range d.Locations {
		locs = append(locs, DirectiveLocation(l))
	}
	return &DirectiveDefinition{
		Description: d.Description,
		Arguments:   args,
		Locations:   locs,
		Repeatable:  d.IsRepeatable,
	}
}

// unresolvedType converts an ast.Type into a schema.Type tree whose leaf is
// a *namedTypeRef placeholder, to be resolved by RewireTypes once every
// candidate has been merged into the final type map.
func unresolvedType(t *ast.Type) Type {
	if t == nil {
		return nil
	}
	var base Type
	if t.NamedType != "" {
		base = &namedTypeRef{name: t.NamedType}
	} else {
		base = NewList(unresolvedType(t.Elem))
	}
	if t.NonNull {
		return NewNonNull(base)
	}
	return base
}

// namedTypeRef is a placeholder left by unresolvedType for a type name not
// yet looked up in the composed type map. RewireTypes replaces every
// namedTypeRef reachable from a merged type with the real NamedType.
type namedTypeRef struct {
	name string
}

func (r *namedTypeRef) String() string           { return r.name }
func (r *namedTypeRef) IsInputType() bool        { return true }
func (r *namedTypeRef) IsOutputType() bool       { return true }
func (r *namedTypeRef) IsSameType(other Type) bool {
	o, ok := other.(*namedTypeRef)
	return ok && o.name == r.name
}
func (r *namedTypeRef) IsSubTypeOf(other Type) bool { return r.IsSameType(other) }
func (r *namedTypeRef) TypeName() string            { return r.name }
