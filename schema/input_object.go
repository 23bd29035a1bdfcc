package schema

// InputObject is an input-only type whose fields are InputValueDefinitions.
type InputObject struct {
	Name        string
	Description string
	Fields      map[string]*InputValueDefinition
	Directives  []*Directive
}

func (t *InputObject) String() string     { return t.Name }
func (t *InputObject) TypeName() string   { return t.Name }
func (t *InputObject) IsInputType() bool  { return true }
func (t *InputObject) IsOutputType() bool { return false }

func (t *InputObject) IsSameType(other Type) bool {
	o, ok := other.(*InputObject)
	return ok && o == t
}

func (t *InputObject) IsSubTypeOf(other Type) bool {
	return t.IsSameType(other)
}
