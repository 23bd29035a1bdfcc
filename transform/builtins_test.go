package transform_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/samsarahq/stitchgate/schema"
	"github.com/samsarahq/stitchgate/transform"
)

func TestExpandSelectionSetReplicatesPerConcreteType(t *testing.T) {
	dog := &schema.Object{Name: "Dog", Fields: map[string]*schema.FieldDefinition{"bark": {Name: "bark"}}}
	cat := &schema.Object{Name: "Cat", Fields: map[string]*schema.FieldDefinition{"meow": {Name: "meow"}}}
	animal := &schema.Interface{Name: "Animal", PossibleTypes: []*schema.Object{dog, cat}}

	target := &schema.Schema{Types: map[string]schema.NamedType{"Animal": animal, "Dog": dog, "Cat": cat}}

	set := &schema.SelectionSet{Selections: []*schema.Selection{
		{TypeCondition: "Animal", Name: "bark", SelectionSet: nil},
	}}

	expanded := transform.ExpandSelectionSet(target, "Animal", set)
	assert.Len(t, expanded.Selections, 2)

	names := map[string]bool{}
	for _, s := range expanded.Selections {
		names[s.TypeCondition] = true
	}
	assert.True(t, names["Dog"])
	assert.True(t, names["Cat"])
}

func TestWrapSelectionSetLeavesAbstractUnwrapped(t *testing.T) {
	animal := &schema.Interface{Name: "Animal"}
	target := &schema.Schema{Types: map[string]schema.NamedType{"Animal": animal}}
	set := schema.NewSelectionSet("name")

	assert.Same(t, set, transform.WrapSelectionSet(target, "Animal", set))
}

func TestWrapSelectionSetWrapsConcreteType(t *testing.T) {
	dog := &schema.Object{Name: "Dog"}
	target := &schema.Schema{Types: map[string]schema.NamedType{"Dog": dog}}
	set := schema.NewSelectionSet("bark")

	wrapped := transform.WrapSelectionSet(target, "Dog", set)
	assert.Len(t, wrapped.Selections, 1)
	assert.Equal(t, "Dog", wrapped.Selections[0].TypeCondition)
}
