// Package schema defines the composed schema's type system: the NamedType
// variants (object, interface, union, enum, scalar, input object), the
// candidate registry that collects type definitions from every subschema
// (C1), and the type merger that produces the single composed type map (C2).
package schema

import "fmt"

// Type is any type expressible in the composed schema: a NamedType, or a
// List/NonNull wrapper around one.
type Type interface {
	fmt.Stringer

	IsInputType() bool
	IsOutputType() bool
	IsSameType(other Type) bool
	IsSubTypeOf(other Type) bool
}

// NamedType is a Type with an identity in the schema's global type map.
// Object, Interface, Union, Enum, Scalar, and InputObject all implement it.
type NamedType interface {
	Type
	TypeName() string
}

// Unwrap strips List and NonNull wrappers, returning the underlying NamedType.
func Unwrap(t Type) NamedType {
	for {
		switch w := t.(type) {
		case *NonNull:
			t = w.Type
		case *List:
			t = w.Type
		case NamedType:
			return w
		default:
			return nil
		}
	}
}

// IsAbstractType reports whether t (after unwrapping) is an interface or union.
func IsAbstractType(t Type) bool {
	switch Unwrap(t).(type) {
	case *Interface, *Union:
		return true
	default:
		return false
	}
}
