package stitch_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/samsarahq/stitchgate/schema"
	"github.com/samsarahq/stitchgate/stitch"
	"github.com/samsarahq/stitchgate/subschema"
)

func TestStitchSchemasWidensKeySelectionSetFromTypeMergingOptions(t *testing.T) {
	accountsUser := &schema.Object{Name: "User", Fields: map[string]*schema.FieldDefinition{
		"id":   {Name: "id", Subschema: "accounts"},
		"name": {Name: "name", Subschema: "accounts"},
	}}
	accounts := buildSubschema("accounts", "user", accountsUser)
	accounts.Merge = map[string]*subschema.MergedTypeConfig{
		"User": {FieldName: "user", SelectionSet: schema.NewSelectionSet("id")},
	}

	_, err := stitch.StitchSchemas(stitch.Config{
		Subschemas: []*subschema.Subschema{accounts},
		TypeMergingOptions: map[string]stitch.TypeMergeOptions{
			"User": {AdditionalSelectionSet: schema.NewSelectionSet("name")},
		},
	})
	require.NoError(t, err)

	assert.ElementsMatch(t, []string{"id", "name"}, accounts.Merge["User"].SelectionSet.FieldNames())
}

func TestStitchSchemasInstallsCallerResolversOverGenerated(t *testing.T) {
	accountsUser := &schema.Object{Name: "User", Fields: map[string]*schema.FieldDefinition{
		"id": {Name: "id", Subschema: "accounts"},
	}}
	accounts := buildSubschema("accounts", "user", accountsUser)

	called := false
	composed, err := stitch.StitchSchemas(stitch.Config{
		Subschemas: []*subschema.Subschema{accounts},
		Resolvers: map[string]map[string]subschema.Resolver{
			"Query": {
				"user": func(ctx context.Context, parent interface{}, info *subschema.ResolveInfo) (interface{}, error) {
					called = true
					return "overridden", nil
				},
			},
		},
	})
	require.NoError(t, err)

	v, err := composed.Resolvers["Query.user"](context.Background(), nil, &subschema.ResolveInfo{FieldName: "user"})
	require.NoError(t, err)
	assert.True(t, called)
	assert.Equal(t, "overridden", v)
}

func TestStitchSchemasInheritsInterfaceResolverWhenObjectHasNone(t *testing.T) {
	named := &schema.Interface{Name: "Named", Fields: map[string]*schema.FieldDefinition{
		"displayName": {Name: "displayName"},
	}}
	person := &schema.Object{
		Name:   "Person",
		Fields: map[string]*schema.FieldDefinition{"id": {Name: "id", Subschema: "accounts"}},
	}
	person.Interfaces = []*schema.Interface{named}

	query := &schema.Object{
		Name:            "Query",
		Fields:          map[string]*schema.FieldDefinition{"person": {Name: "person", Subschema: "accounts"}},
		FieldSubschemas: map[string][]string{"person": {"accounts"}},
	}

	s := schema.New()
	s.Query = query
	s.AddType(query)
	s.AddType(person)
	s.AddType(named)

	accounts := &subschema.Subschema{
		Name:   "accounts",
		Schema: s,
		Executor: subschema.ExecutorFunc(func(ctx context.Context, req *subschema.Request) (*subschema.ExecutionResult, <-chan *subschema.Patch, error) {
			return &subschema.ExecutionResult{Data: map[string]interface{}{"person": map[string]interface{}{"id": "1"}}}, nil, nil
		}),
	}

	inherited := func(ctx context.Context, parent interface{}, info *subschema.ResolveInfo) (interface{}, error) {
		return "inherited", nil
	}

	composed, err := stitch.StitchSchemas(stitch.Config{
		Subschemas:                     []*subschema.Subschema{accounts},
		InheritResolversFromInterfaces: true,
		Resolvers: map[string]map[string]subschema.Resolver{
			"Named": {"displayName": inherited},
		},
	})
	require.NoError(t, err)

	r, ok := composed.Resolvers["Person.displayName"]
	require.True(t, ok)
	v, err := r(context.Background(), nil, &subschema.ResolveInfo{FieldName: "displayName"})
	require.NoError(t, err)
	assert.Equal(t, "inherited", v)
}
