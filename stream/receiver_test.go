package stream_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/samsarahq/stitchgate/stream"
	"github.com/samsarahq/stitchgate/subschema"
)

func TestReceiverInitialResult(t *testing.T) {
	patches := make(chan *subschema.Patch, 2)
	patches <- &subschema.Patch{Data: map[string]interface{}{"user": map[string]interface{}{"id": "1"}}, HasNext: true}

	r := stream.New("accounts", "user", patches)
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()

	initial, err := r.InitialResult(ctx)
	require.NoError(t, err)
	assert.Equal(t, "accounts", initial.ObjectSubschema)
	v, _ := initial.Get("id")
	assert.Equal(t, "1", v)
}

func TestReceiverRequestResolvesPublishedPatch(t *testing.T) {
	patches := make(chan *subschema.Patch, 2)
	patches <- &subschema.Patch{Data: map[string]interface{}{"user": map[string]interface{}{"id": "1"}}, HasNext: true}
	patches <- &subschema.Patch{
		Data:    map[string]interface{}{"name": "ada"},
		Path:    []interface{}{"user", "name"},
		HasNext: false,
	}

	r := stream.New("accounts", "user", patches)
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()

	_, err := r.InitialResult(ctx)
	require.NoError(t, err)

	ext, err := r.Request(ctx, []interface{}{"user", "name"})
	require.NoError(t, err)
	assert.Equal(t, "ada", ext.Data["name"])
}
