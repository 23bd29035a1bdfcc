package transform

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/samsarahq/stitchgate/schema"
)

func TestAddTypenameInsertsAtEveryLevel(t *testing.T) {
	set := &schema.SelectionSet{Selections: []*schema.Selection{
		{Name: "id"},
		{Name: "friend", SelectionSet: schema.NewSelectionSet("name")},
	}}

	out := AddTypename{}.TransformSelectionSet("User", set)

	names := map[string]bool{}
	for _, sel := range out.Selections {
		names[sel.Name] = true
		if sel.Name == "friend" {
			nested := map[string]bool{}
			for _, n := range sel.SelectionSet.Selections {
				nested[n.Name] = true
			}
			assert.True(t, nested["__typename"])
		}
	}
	assert.True(t, names["__typename"])
}

func TestAddTypenameLeavesExistingAlone(t *testing.T) {
	set := &schema.SelectionSet{Selections: []*schema.Selection{{Name: "__typename"}, {Name: "id"}}}
	out := AddTypename{}.TransformSelectionSet("User", set)
	assert.Len(t, out.Selections, 2)
}

func TestFilterToSchemaDropsUnknownFieldsAndArguments(t *testing.T) {
	user := &schema.Object{Name: "User", Fields: map[string]*schema.FieldDefinition{
		"id":   {Name: "id", Arguments: map[string]*schema.InputValueDefinition{}},
		"name": {Name: "name", Arguments: map[string]*schema.InputValueDefinition{"locale": {Name: "locale"}}},
	}}
	target := &schema.Schema{Types: map[string]schema.NamedType{"User": user}}

	set := &schema.SelectionSet{Selections: []*schema.Selection{
		{Name: "id"},
		{Name: "ssn"},
		{Name: "name", Arguments: map[string]interface{}{"locale": "en", "unknown": "x"}},
	}}

	f := FilterToSchema{TargetSchema: target}
	out := f.TransformSelectionSet("User", set)

	names := map[string]bool{}
	for _, sel := range out.Selections {
		names[sel.Name] = true
		if sel.Name == "name" {
			_, hasUnknown := sel.Arguments["unknown"]
			assert.False(t, hasUnknown)
			assert.Equal(t, "en", sel.Arguments["locale"])
		}
	}
	assert.True(t, names["id"])
	assert.True(t, names["name"])
	assert.False(t, names["ssn"])
}

func TestFilterToSchemaDropsSelectionLeftEmpty(t *testing.T) {
	user := &schema.Object{Name: "User", Fields: map[string]*schema.FieldDefinition{
		"id": {Name: "id"},
	}}
	target := &schema.Schema{Types: map[string]schema.NamedType{"User": user}}

	set := &schema.SelectionSet{Selections: []*schema.Selection{
		{Name: "id"},
		{TypeCondition: "User", SelectionSet: schema.NewSelectionSet("ssn")},
	}}

	out := FilterToSchema{TargetSchema: target}.TransformSelectionSet("User", set)
	assert.Len(t, out.Selections, 1)
	assert.Equal(t, "id", out.Selections[0].Name)
}

func TestFilterToSchemaKeepsTypename(t *testing.T) {
	user := &schema.Object{Name: "User", Fields: map[string]*schema.FieldDefinition{"id": {Name: "id"}}}
	target := &schema.Schema{Types: map[string]schema.NamedType{"User": user}}

	set := &schema.SelectionSet{Selections: []*schema.Selection{{Name: "__typename"}, {Name: "id"}}}
	out := FilterToSchema{TargetSchema: target}.TransformSelectionSet("User", set)
	assert.Len(t, out.Selections, 2)
}
