package schema

// DirectiveLocation is one of the SDL locations a directive may appear at.
type DirectiveLocation string

const (
	DirectiveLocationObject      DirectiveLocation = "OBJECT"
	DirectiveLocationInterface   DirectiveLocation = "INTERFACE"
	DirectiveLocationUnion       DirectiveLocation = "UNION"
	DirectiveLocationEnum        DirectiveLocation = "ENUM"
	DirectiveLocationEnumValue   DirectiveLocation = "ENUM_VALUE"
	DirectiveLocationScalar      DirectiveLocation = "SCALAR"
	DirectiveLocationFieldDef    DirectiveLocation = "FIELD_DEFINITION"
	DirectiveLocationInputObject DirectiveLocation = "INPUT_OBJECT"
	DirectiveLocationInputField  DirectiveLocation = "INPUT_FIELD_DEFINITION"
)

// DirectiveDefinition describes a directive that may be applied in a
// subschema's SDL. The stitching directives (@key, @computed, @merge,
// @canonical) are DirectiveDefinitions registered by package directives.
type DirectiveDefinition struct {
	Description string
	Arguments   map[string]*InputValueDefinition
	Locations   []DirectiveLocation
	Repeatable  bool
}

// Directive is one application of a DirectiveDefinition to a schema element.
type Directive struct {
	Name      string
	Arguments map[string]interface{}
}

// Get returns the named argument, or (nil, false) if it was not provided.
func (d *Directive) Get(name string) (interface{}, bool) {
	if d == nil || d.Arguments == nil {
		return nil, false
	}
	v, ok := d.Arguments[name]
	return v, ok
}

// Find returns the first directive named name, or nil.
func Find(directives []*Directive, name string) *Directive {
	for _, d := range directives {
		if d.Name == name {
			return d
		}
	}
	return nil
}
