package subschema_test

import (
	"context"
	"testing"

	graphqllib "github.com/graphql-go/graphql"
	"github.com/stretchr/testify/require"

	"github.com/samsarahq/stitchgate/subschema"
)

func TestGraphQLGoExecutorSatisfiesExecutor(t *testing.T) {
	queryType := graphqllib.NewObject(graphqllib.ObjectConfig{
		Name: "Query",
		Fields: graphqllib.Fields{
			"hello": &graphqllib.Field{
				Type: graphqllib.String,
				Resolve: func(p graphqllib.ResolveParams) (interface{}, error) {
					return "world", nil
				},
			},
		},
	})
	schema, err := graphqllib.NewSchema(graphqllib.SchemaConfig{Query: queryType})
	require.NoError(t, err)

	exec := subschema.GraphQLGoExecutor{Schema: schema}

	result, patches, err := exec.Execute(context.Background(), &subschema.Request{
		Document: "query { hello }",
	})
	require.NoError(t, err)
	require.Nil(t, patches)
	require.Empty(t, result.Errors)
	require.Equal(t, "world", result.Data["hello"])
}
