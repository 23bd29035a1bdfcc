package plan_test

import (
	"context"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/samsarahq/stitchgate/delegate"
	"github.com/samsarahq/stitchgate/plan"
	"github.com/samsarahq/stitchgate/schema"
	"github.com/samsarahq/stitchgate/stitch"
	"github.com/samsarahq/stitchgate/subschema"
)

func TestBatchLoaderCoalescesConcurrentLoadsOnSameParent(t *testing.T) {
	var calls int32

	accountsSchema := &schema.Schema{Types: map[string]schema.NamedType{
		"User": &schema.Object{Name: "User", Fields: map[string]*schema.FieldDefinition{"id": {Name: "id"}}},
	}}

	info := &stitch.StitchingInfo{
		SubschemaMap: map[string]*subschema.Subschema{
			"accounts": {Name: "accounts", TransformedSchema: accountsSchema},
		},
		MergedTypes: map[string]*stitch.MergedTypeInfo{
			"User": {
				TypeName:         "User",
				TargetSubschemas: map[string][]string{"accounts": {"billing"}},
				SelectionSets:    map[string]*schema.SelectionSet{"billing": schema.NewSelectionSet("id")},
				UniqueFields:     map[string]string{"plan": "billing", "seats": "billing"},
				NonUniqueFields:  map[string][]string{},
				Resolvers: map[string]stitch.MergedTypeResolver{
					"billing": func(ctx context.Context, parent map[string]interface{}, sel *schema.SelectionSet) (map[string]interface{}, []*subschema.GraphQLError, error) {
						atomic.AddInt32(&calls, 1)
						data := map[string]interface{}{}
						for _, name := range sel.FieldNames() {
							data[name] = "resolved:" + name
						}
						return data, nil, nil
					},
				},
			},
		},
	}

	loader := plan.NewBatchLoader(info, "User", 0)
	ctx := plan.WithBatching(context.Background())
	parent := delegate.Annotate(map[string]interface{}{"id": "1"}, nil, "accounts")

	results := make(chan *delegate.ExternalObject, 2)
	errs := make(chan error, 2)
	for _, fieldName := range []string{"plan", "seats"} {
		fieldName := fieldName
		go func() {
			ext, err := loader.Load(ctx, parent, plan.FieldNode{ResponseKey: fieldName, FieldName: fieldName}, []string{"accounts"}, []string{"billing"})
			errs <- err
			results <- ext
		}()
	}

	for i := 0; i < 2; i++ {
		require.NoError(t, <-errs)
		ext := <-results
		assert.Equal(t, "resolved:plan", mustGet(t, ext, "plan"))
		assert.Equal(t, "resolved:seats", mustGet(t, ext, "seats"))
	}
}

func mustGet(t *testing.T, ext *delegate.ExternalObject, key string) interface{} {
	t.Helper()
	v, ok := ext.Get(key)
	require.True(t, ok)
	return v
}
