package delegate_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/samsarahq/stitchgate/delegate"
	"github.com/samsarahq/stitchgate/schema"
)

func TestAnnotateAndIsExternalObject(t *testing.T) {
	obj := delegate.Annotate(map[string]interface{}{"id": "1"}, nil, "accounts")
	assert.True(t, delegate.IsExternalObject(obj))
	assert.False(t, delegate.IsExternalObject(map[string]interface{}{"id": "1"}))
	assert.Equal(t, "accounts", obj.SubschemaFor("id"))
}

func TestMergeExternalDeepMergesAndTracksProvenance(t *testing.T) {
	target := delegate.Annotate(map[string]interface{}{"id": "1", "name": "ada"}, nil, "accounts")
	billing := delegate.Annotate(map[string]interface{}{"plan": "pro"}, nil, "billing")

	merged := delegate.MergeExternal(nil, target, []interface{}{billing}, []*schema.SelectionSet{schema.NewSelectionSet("plan")})

	assert.Equal(t, "ada", merged.Data["name"])
	assert.Equal(t, "pro", merged.Data["plan"])
	assert.Equal(t, "billing", merged.SubschemaFor("plan"))
	assert.Equal(t, "accounts", merged.SubschemaFor("name"))
}

func TestMergeExternalNullsFieldsOnSourceError(t *testing.T) {
	target := delegate.Annotate(map[string]interface{}{"id": "1"}, nil, "accounts")
	err := assert.AnError

	merged := delegate.MergeExternal(nil, target, []interface{}{err}, []*schema.SelectionSet{schema.NewSelectionSet("plan")})

	v, present := merged.Get("plan")
	require.True(t, present)
	assert.Nil(t, v)
	require.Len(t, merged.UnpathedErrors, 1)
	assert.Equal(t, err.Error(), merged.UnpathedErrors[0].Message)
}

func TestMergeExternalNilSourceNullsFields(t *testing.T) {
	target := delegate.Annotate(map[string]interface{}{"id": "1"}, nil, "accounts")

	merged := delegate.MergeExternal(nil, target, []interface{}{nil}, []*schema.SelectionSet{schema.NewSelectionSet("plan")})

	v, present := merged.Get("plan")
	require.True(t, present)
	assert.Nil(t, v)
}
