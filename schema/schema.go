package schema

// Schema is a single subschema's or the composed gateway's type system: the
// full set of named types plus the three root operation types.
type Schema struct {
	Query        *Object
	Mutation     *Object
	Subscription *Object

	Types      map[string]NamedType
	Directives map[string]*DirectiveDefinition
}

// New builds an empty Schema ready to have types registered into it.
func New() *Schema {
	return &Schema{
		Types:      map[string]NamedType{},
		Directives: map[string]*DirectiveDefinition{},
	}
}

// AddType registers t under its TypeName, overwriting any previous
// registration of the same name. Composition (C2) relies on overwrite
// semantics: a merged type replaces each subschema's candidate definition.
func (s *Schema) AddType(t NamedType) {
	s.Types[t.TypeName()] = t
}

// Type looks up a named type by name.
func (s *Schema) Type(name string) NamedType {
	return s.Types[name]
}

// RootFor returns the root Object for the given operation name
// ("query", "mutation", "subscription"), or nil.
func (s *Schema) RootFor(operation string) *Object {
	switch operation {
	case "mutation":
		return s.Mutation
	case "subscription":
		return s.Subscription
	default:
		return s.Query
	}
}
