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

func TestCompileBuildsMergedTypeInfoForSharedObject(t *testing.T) {
	userObj := &schema.Object{
		Name: "User",
		Fields: map[string]*schema.FieldDefinition{
			"id":   {Name: "id"},
			"name": {Name: "name"},
			"plan": {Name: "plan"},
		},
		FieldSubschemas: map[string][]string{
			"id":   {"accounts", "billing"},
			"name": {"accounts"},
			"plan": {"billing"},
		},
	}
	composed := &schema.Schema{Types: map[string]schema.NamedType{"User": userObj}}

	accounts := &subschema.Subschema{
		Name: "accounts",
		Executor: subschema.ExecutorFunc(func(ctx context.Context, req *subschema.Request) (*subschema.ExecutionResult, <-chan *subschema.Patch, error) {
			return &subschema.ExecutionResult{Data: map[string]interface{}{
				"userByID": map[string]interface{}{"name": "ada"},
			}}, nil, nil
		}),
		Merge: map[string]*subschema.MergedTypeConfig{
			"User": {
				SelectionSet: schema.NewSelectionSet("id"),
				FieldName:    "userByID",
				Args: func(parent map[string]interface{}) map[string]interface{} {
					return map[string]interface{}{"id": parent["id"]}
				},
			},
		},
	}
	billing := &subschema.Subschema{Name: "billing"}

	subschemas := map[string]*subschema.Subschema{"accounts": accounts, "billing": billing}

	info, err := stitch.Compile(composed, subschemas)
	require.NoError(t, err)

	mti, ok := info.MergedTypes["User"]
	require.True(t, ok)
	assert.Equal(t, "billing", mti.UniqueFields["plan"])
	assert.Equal(t, "accounts", mti.UniqueFields["name"])
	assert.ElementsMatch(t, []string{"billing"}, mti.TargetSubschemas["accounts"])

	resolver, ok := mti.Resolvers["accounts"]
	require.True(t, ok)
	data, errs, err := resolver(context.Background(), map[string]interface{}{"id": "1"}, schema.NewSelectionSet("name"))
	require.NoError(t, err)
	assert.Empty(t, errs)
	assert.Equal(t, "ada", data["name"])
}

func TestCompileSkipsObjectsWithSingleContributor(t *testing.T) {
	obj := &schema.Object{
		Name:            "Widget",
		FieldSubschemas: map[string][]string{"id": {"accounts"}},
	}
	composed := &schema.Schema{Types: map[string]schema.NamedType{"Widget": obj}}
	subschemas := map[string]*subschema.Subschema{"accounts": {Name: "accounts"}}

	info, err := stitch.Compile(composed, subschemas)
	require.NoError(t, err)
	assert.NotContains(t, info.MergedTypes, "Widget")
}
