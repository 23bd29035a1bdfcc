package stitch

import (
	"fmt"
	"sort"
	"strings"

	"github.com/samsarahq/stitchgate/schema"
	"github.com/samsarahq/stitchgate/subschema"
)

// buildEntryPointRequest renders a merge entry-point call into a document
// string, with args lifted to variables. It builds its own tiny document
// directly; the merged-type resolver then folds the subschema's transform
// pipeline around it. targetSchema, when non-nil, drops any arg the entry
// point's own root field does not declare, the same baseline filtering
// delegate.buildRequest applies to ordinary delegated fields.
func buildEntryPointRequest(targetSchema *schema.Schema, fieldName string, args map[string]interface{}, selectionSet *schema.SelectionSet) (*subschema.Request, error) {
	if fieldName == "" {
		return nil, fmt.Errorf("merge config has no entry-point field name")
	}

	accepted := acceptedArgs(targetSchema, "query", fieldName)

	names := make([]string, 0, len(args))
	for name := range args {
		if accepted != nil {
			if _, ok := accepted[name]; !ok {
				continue
			}
		}
		names = append(names, name)
	}
	sort.Strings(names)

	variables := make(map[string]interface{}, len(args))
	var varDefs, argList []string
	for _, name := range names {
		varName := "$" + name
		variables[name] = args[name]
		varDefs = append(varDefs, fmt.Sprintf("%s: Any", varName))
		argList = append(argList, fmt.Sprintf("%s: %s", name, varName))
	}

	var b strings.Builder
	b.WriteString("query")
	if len(varDefs) > 0 {
		b.WriteString("(")
		b.WriteString(strings.Join(varDefs, ", "))
		b.WriteString(")")
	}
	b.WriteString(" { ")
	b.WriteString(fieldName)
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
		OperationType: "query",
	}, nil
}

// acceptedArgs returns the argument names s's root field named fieldName
// declares for operation, or nil if s is unknown, in which case no
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
