package schema

// Union is an abstract output type defined as a fixed set of possible
// Object types, with no fields of its own.
type Union struct {
	Name          string
	Description   string
	Directives    []*Directive
	PossibleTypes []*Object

	// unresolvedPossible holds member type names from SDL parsing, before
	// RewireTypes (merge.go) resolves them into PossibleTypes.
	unresolvedPossible []string
}

func (t *Union) String() string     { return t.Name }
func (t *Union) TypeName() string   { return t.Name }
func (t *Union) IsInputType() bool  { return false }
func (t *Union) IsOutputType() bool { return true }

func (t *Union) IsSameType(other Type) bool {
	o, ok := other.(*Union)
	return ok && o == t
}

func (t *Union) IsSubTypeOf(other Type) bool {
	return t.IsSameType(other)
}

// IsPossibleType reports whether obj is one of this union's members.
func (t *Union) IsPossibleType(obj *Object) bool {
	for _, p := range t.PossibleTypes {
		if p == obj {
			return true
		}
	}
	return false
}
