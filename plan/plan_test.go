package plan_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/samsarahq/stitchgate/plan"
	"github.com/samsarahq/stitchgate/schema"
	"github.com/samsarahq/stitchgate/stitch"
	"github.com/samsarahq/stitchgate/subschema"
)

func fixtureInfo() *stitch.StitchingInfo {
	accountsSchema := &schema.Schema{Types: map[string]schema.NamedType{
		"User": &schema.Object{Name: "User", Fields: map[string]*schema.FieldDefinition{
			"id":   {Name: "id"},
			"name": {Name: "name"},
		}},
	}}
	billingSchema := &schema.Schema{Types: map[string]schema.NamedType{
		"User": &schema.Object{Name: "User", Fields: map[string]*schema.FieldDefinition{
			"id":   {Name: "id"},
			"plan": {Name: "plan"},
		}},
	}}

	accounts := &subschema.Subschema{Name: "accounts", TransformedSchema: accountsSchema}
	billing := &subschema.Subschema{Name: "billing", TransformedSchema: billingSchema}

	return &stitch.StitchingInfo{
		SubschemaMap: map[string]*subschema.Subschema{"accounts": accounts, "billing": billing},
		MergedTypes: map[string]*stitch.MergedTypeInfo{
			"User": {
				TypeName:         "User",
				TargetSubschemas: map[string][]string{"accounts": {"billing"}, "billing": {"accounts"}},
				SelectionSets:    map[string]*schema.SelectionSet{"billing": schema.NewSelectionSet("id")},
				UniqueFields:     map[string]string{"name": "accounts", "plan": "billing"},
				NonUniqueFields:  map[string][]string{},
			},
		},
	}
}

func TestSortSubschemasByProxiability(t *testing.T) {
	info := fixtureInfo()
	ctx := plan.WithCache(context.Background())

	proxiable, nonProxiable := plan.SortSubschemasByProxiability(ctx, info, "User", []string{"accounts"}, []string{"billing"})

	assert.Equal(t, []string{"billing"}, proxiable)
	assert.Empty(t, nonProxiable)
}

func TestBuildDelegationPlanRoutesUniqueFields(t *testing.T) {
	info := fixtureInfo()
	mti := info.MergedTypes["User"]

	result := plan.BuildDelegationPlan(mti, []plan.FieldNode{
		{ResponseKey: "plan", FieldName: "plan"},
		{ResponseKey: "__typename", FieldName: "__typename"},
	}, []string{"billing"})

	require.Contains(t, result.DelegationMap, "billing")
	assert.Equal(t, []string{"plan"}, result.DelegationMap["billing"].FieldNames())
	assert.Len(t, result.ProxiableFieldNodes, 1)
	assert.Empty(t, result.UnproxiableFieldNodes)
}

func TestBuildDelegationPlanMarksUnproxiableWhenOwnerNotReady(t *testing.T) {
	info := fixtureInfo()
	mti := info.MergedTypes["User"]

	result := plan.BuildDelegationPlan(mti, []plan.FieldNode{{ResponseKey: "plan", FieldName: "plan"}}, nil)

	assert.Empty(t, result.ProxiableFieldNodes)
	require.Len(t, result.UnproxiableFieldNodes, 1)
}

func TestDumpRendersDelegationMap(t *testing.T) {
	info := fixtureInfo()
	mti := info.MergedTypes["User"]

	result := plan.BuildDelegationPlan(mti, []plan.FieldNode{
		{ResponseKey: "plan", FieldName: "plan"},
	}, []string{"billing"})

	out := plan.Dump(result)
	assert.Contains(t, out, "billing")
}
