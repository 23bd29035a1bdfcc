package schema

// Object is a concrete output type with a fixed set of named fields.
//
// A composed Object may have been contributed by more than one subschema.
// FieldSubschemas is a quick index of which subschemas (the field's own
// owning Subschema included) can resolve each field name, used by the
// planner (C7) to compute proxiability.
type Object struct {
	Name        string
	Description string
	Interfaces  []*Interface
	Fields      map[string]*FieldDefinition
	Directives  []*Directive

	// KeyFields maps a contributing subschema name to the selection set of
	// fields that subschema requires as its merge key, declared via @key.
	KeyFields map[string]*SelectionSet

	// FieldSubschemas maps a field name to every subschema capable of
	// resolving it directly. A field present for more than one subschema is
	// "non-unique" in planner terms (§4.7 of a merged-parent plan).
	FieldSubschemas map[string][]string

	// unresolvedInterfaces holds interface names from SDL parsing, before
	// RewireTypes (merge.go) resolves them into Interfaces.
	unresolvedInterfaces []string
}

func (t *Object) String() string      { return t.Name }
func (t *Object) TypeName() string    { return t.Name }
func (t *Object) IsInputType() bool   { return false }
func (t *Object) IsOutputType() bool  { return true }

func (t *Object) IsSameType(other Type) bool {
	o, ok := other.(*Object)
	return ok && o == t
}

func (t *Object) IsSubTypeOf(other Type) bool {
	if t.IsSameType(other) {
		return true
	}
	iface, ok := other.(*Interface)
	if !ok {
		return false
	}
	for _, i := range t.Interfaces {
		if i == iface {
			return true
		}
	}
	return false
}

// ImplementsInterface reports whether t declares name among its interfaces.
func (t *Object) ImplementsInterface(name string) bool {
	for _, i := range t.Interfaces {
		if i.Name == name {
			return true
		}
	}
	return false
}

// SubschemasForField returns every subschema able to resolve fieldName on
// this object, owner first.
func (t *Object) SubschemasForField(fieldName string) []string {
	if field, ok := t.Fields[fieldName]; ok {
		subschemas := []string{field.Subschema}
		for _, s := range t.FieldSubschemas[fieldName] {
			if s != field.Subschema {
				subschemas = append(subschemas, s)
			}
		}
		return subschemas
	}
	return nil
}
