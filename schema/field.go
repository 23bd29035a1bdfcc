package schema

// InputValueDefinition describes a single input value: a field argument or
// an input object field.
type InputValueDefinition struct {
	Name         string
	Description  string
	Type         Type
	DefaultValue interface{}
	HasDefault   bool
	Directives   []*Directive
}

// FieldDefinition describes one field of an Object or Interface.
//
// Subschema is the name of the subschema the field was declared in before
// composition; it survives into the composed schema so the planner (C7) and
// delegator (C5) know where to route a selection of this field. A merged
// field (the same name declared identically by more than one subschema) has
// Subschema set to the owner chosen by @canonical, or the first declared if
// none is marked canonical.
type FieldDefinition struct {
	Name        string
	Description string
	Type        Type
	Arguments   map[string]*InputValueDefinition
	Directives  []*Directive
	Deprecated  bool
	DeprecationReason string

	Subschema string

	// Computed is set when this field was declared with @computed; its value
	// is never fetched from Subschema directly and is instead derived from
	// the listed requires fields by the owning subschema's resolver.
	Computed bool
	Requires []string

	// MergeArgsTemplate is set when this field is the merge entry point for
	// its return type (@merge); it maps argument name to the key-field path
	// whose runtime value fills that argument when delegating.
	MergeArgsTemplate map[string]string
}

// IsDeprecated reports whether the field carries a @deprecated directive.
func (f *FieldDefinition) IsDeprecated() bool { return f.Deprecated }
