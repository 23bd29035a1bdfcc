package schema

import "fmt"

// ConfigurationError reports a problem discovered while composing
// subschemas into one schema: a @key referencing a missing field, two
// subschemas disagreeing on a scalar's definition, a merge entry point
// with an argument that has no corresponding key field, and similar
// mistakes that can only be caught once every subschema's SDL is in hand.
type ConfigurationError struct {
	Subschema string
	TypeName  string
	FieldName string
	Reason    string
}

func (e *ConfigurationError) Error() string {
	switch {
	case e.FieldName != "":
		return fmt.Sprintf("stitchgate: %s.%s (%s): %s", e.TypeName, e.FieldName, e.Subschema, e.Reason)
	case e.TypeName != "":
		return fmt.Sprintf("stitchgate: %s (%s): %s", e.TypeName, e.Subschema, e.Reason)
	default:
		return fmt.Sprintf("stitchgate: %s: %s", e.Subschema, e.Reason)
	}
}
