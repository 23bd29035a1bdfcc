package delegate

import (
	"fmt"
	"sort"
	"strings"

	"github.com/samsarahq/stitchgate/schema"
	"github.com/samsarahq/stitchgate/subschema"
)

// buildRequest renders a DelegationContext's field call plus selectionSet
// into a request document, lifting every argument the target root field
// accepts (see acceptedArgs) to a variable. This is
// the pre-transform document the request transform pipeline (package
// transform) then folds over; a delegation with no registered transforms
// sends this document as-is.
func buildRequest(dctx *DelegationContext, selectionSet *schema.SelectionSet) (*subschema.Request, error) {
	op := dctx.Operation
	if op == "" {
		op = "query"
	}

	accepted := acceptedArgs(dctx.TransformedSchema, op, dctx.FieldName)

	names := make([]string, 0, len(dctx.Arguments))
	for name := range dctx.Arguments {
		if accepted != nil {
			if _, ok := accepted[name]; !ok {
				continue
			}
		}
		names = append(names, name)
	}
	sort.Strings(names)

	variables := make(map[string]interface{}, len(dctx.Arguments))
	var varDefs, argList []string
	for _, name := range names {
		varName := "$" + name
		variables[name] = dctx.Arguments[name]
		varDefs = append(varDefs, fmt.Sprintf("%s: Any", varName))
		argList = append(argList, fmt.Sprintf("%s: %s", name, varName))
	}

	var b strings.Builder
	b.WriteString(op)
	if len(varDefs) > 0 {
		b.WriteString("(")
		b.WriteString(strings.Join(varDefs, ", "))
		b.WriteString(")")
	}
	b.WriteString(" { ")
	b.WriteString(dctx.FieldName)
	if len(argList) > 0 {
		b.WriteString("(")
		b.WriteString(strings.Join(argList, ", "))
		b.WriteString(")")
	}
	sel := schema.Print(selectionSet)
	if sel == "" {
		sel = "{ __typename }"
	}
	b.WriteString(" ")
	b.WriteString(sel)
	b.WriteString(" }")

	return &subschema.Request{
		Document:      b.String(),
		Variables:     variables,
		OperationType: op,
	}, nil
}

// acceptedArgs returns the argument names s's root field named fieldName
// declares for operation, or nil if s is unknown (the delegation context
// didn't set a TransformedSchema, e.g. in a unit test), in which case no
// argument filtering happens.
func acceptedArgs(s *schema.Schema, operation, fieldName string) map[string]*schema.InputValueDefinition {
	if s == nil {
		return nil
	}
	root := s.RootFor(operation)
	if root == nil {
		return nil
	}
	field, ok := root.Fields[fieldName]
	if !ok {
		return nil
	}
	return field.Arguments
}
