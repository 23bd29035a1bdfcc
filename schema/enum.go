package schema

// EnumValue is one member of an Enum type.
type EnumValue struct {
	Name              string
	Description       string
	Directives        []*Directive
	Deprecated        bool
	DeprecationReason string
}

// Enum is a scalar-like output and input type restricted to a fixed set of
// named values.
type Enum struct {
	Name        string
	Description string
	Values      map[string]*EnumValue
	Directives  []*Directive
}

func (t *Enum) String() string     { return t.Name }
func (t *Enum) TypeName() string   { return t.Name }
func (t *Enum) IsInputType() bool  { return true }
func (t *Enum) IsOutputType() bool { return true }

func (t *Enum) IsSameType(other Type) bool {
	o, ok := other.(*Enum)
	return ok && o == t
}

func (t *Enum) IsSubTypeOf(other Type) bool {
	return t.IsSameType(other)
}
