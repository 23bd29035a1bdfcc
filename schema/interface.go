package schema

// Interface is an abstract output type; Objects declare conformance to it.
type Interface struct {
	Name        string
	Description string
	Fields      map[string]*FieldDefinition
	Directives  []*Directive

	// PossibleTypes is filled in by the merger (C2) once every contributing
	// subschema's object types have been merged and wired to their
	// interfaces.
	PossibleTypes []*Object
}

func (t *Interface) String() string     { return t.Name }
func (t *Interface) TypeName() string   { return t.Name }
func (t *Interface) IsInputType() bool  { return false }
func (t *Interface) IsOutputType() bool { return true }

func (t *Interface) IsSameType(other Type) bool {
	o, ok := other.(*Interface)
	return ok && o == t
}

func (t *Interface) IsSubTypeOf(other Type) bool {
	return t.IsSameType(other)
}

// IsPossibleType reports whether obj implements this interface in the
// composed schema.
func (t *Interface) IsPossibleType(obj *Object) bool {
	for _, p := range t.PossibleTypes {
		if p == obj {
			return true
		}
	}
	return false
}
