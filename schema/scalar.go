package schema

// Scalar is a leaf type whose value coercion is defined entirely by the
// underlying executor; the gateway treats every scalar as opaque.
type Scalar struct {
	Name        string
	Description string
	Directives  []*Directive
}

func (t *Scalar) String() string     { return t.Name }
func (t *Scalar) TypeName() string   { return t.Name }
func (t *Scalar) IsInputType() bool  { return true }
func (t *Scalar) IsOutputType() bool { return true }

func (t *Scalar) IsSameType(other Type) bool {
	o, ok := other.(*Scalar)
	return ok && o == t
}

func (t *Scalar) IsSubTypeOf(other Type) bool {
	return t.IsSameType(other)
}
