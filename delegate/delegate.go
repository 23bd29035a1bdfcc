// Package delegate implements the Delegator (C5) and the external-object
// annotation primitives (C6): building and executing a sub-request against
// one subschema, and attaching/merging the provenance metadata that lets
// later field resolves know which subschema answered for which key.
package delegate

import (
	"context"

	"github.com/samsarahq/go/oops"

	"github.com/samsarahq/stitchgate/schema"
	"github.com/samsarahq/stitchgate/subschema"
	"github.com/samsarahq/stitchgate/transform"
)

// Receiver is the capability delegate needs from a streamed delegation: a
// way to turn a channel of patches into something later field resolves can
// subscribe to. Package stream's Receiver implements this; delegate never
// imports stream directly, keeping the dependency pointed the way package
// stream already depends on delegate's ExternalObject and Annotate.
type Receiver interface {
	InitialResult(ctx context.Context) (*ExternalObject, error)

	// Request resolves the value at path, blocking until it has arrived if
	// the underlying patch carrying it hasn't been received yet. Package
	// resolve's default resolver calls this for a field that is absent from
	// an ExternalObject but still belongs to the object's own subschema
	// (SPEC_FULL.md §4.9 step 4): the field was merely deferred, not owned
	// by a different subschema.
	Request(ctx context.Context, path []interface{}) (*ExternalObject, error)
}

// DelegationContext is the immutable record a proxying or merged resolver
// builds once per delegation and passes to Delegate.
type DelegationContext struct {
	Subschema         *subschema.Subschema
	TransformedSchema *schema.Schema
	Operation         string // "query" | "mutation" | "subscription"
	FieldName         string
	Arguments         map[string]interface{}
	ReturnType        schema.Type
	Transforms        []subschema.Transform

	// NewReceiver builds a Receiver around a streamed execution's patch
	// channel. Left nil, a streamed execution's result is the deferred
	// value's initial result only (no further patches are delivered).
	NewReceiver func(patches <-chan *subschema.Patch) Receiver

	// SkipTypeMerging, when set, tells the default resolver installed on
	// the result not to attempt further merged-type delegation: used for a
	// root field that is itself a merge entry point, to avoid immediately
	// re-delegating the object it just fetched.
	SkipTypeMerging bool
}

// Delegate runs the full C5 sequence: build a request for selectionSet,
// fold request transforms, execute against dctx.Subschema, unfold result
// transforms, and annotate the value as an ExternalObject.
func Delegate(ctx context.Context, dctx *DelegationContext, selectionSet *schema.SelectionSet) (*ExternalObject, error) {
	pipeline := &transform.Pipeline{Transforms: dctx.Transforms}

	if parentType := schema.Unwrap(dctx.ReturnType); parentType != nil {
		selectionSet = pipeline.ApplySelectionSet(parentType.TypeName(), selectionSet)
	}

	req, err := buildRequest(dctx, selectionSet)
	if err != nil {
		return nil, oops.Wrapf(err, "stitchgate/delegate: building request for %s", dctx.FieldName)
	}

	req, tctxs := pipeline.Apply(ctx, req)

	result, patches, err := dctx.Subschema.Executor.Execute(ctx, req)
	if err != nil {
		return externalObjectForError(dctx, err), nil
	}

	if patches != nil {
		if dctx.NewReceiver != nil {
			recv := dctx.NewReceiver(patches)
			ext, err := recv.InitialResult(ctx)
			if err != nil {
				return externalObjectForError(dctx, err), nil
			}
			return ext, nil
		}
		first, ok := <-patches
		if !ok {
			return externalObjectForError(dctx, oops.Errorf("subschema %q closed patch channel with no initial result", dctx.Subschema.Name)), nil
		}
		result = pipeline.Unapply(ctx, &subschema.ExecutionResult{Data: first.Data, Errors: first.Errors}, tctxs)
		return Annotate(extractField(result.Data, dctx.FieldName), result.Errors, dctx.Subschema.Name), nil
	}

	result = pipeline.Unapply(ctx, result, tctxs)
	return Annotate(extractField(result.Data, dctx.FieldName), result.Errors, dctx.Subschema.Name), nil
}

// extractField unwraps the value of fieldName from a root-level execution
// result's data, since buildRequest always wraps the requested selection
// set one level deep under the delegated field's own call. A root field
// that returned a scalar or list rather than an object has no further
// fields to annotate, so this yields an empty object rather than failing.
func extractField(data map[string]interface{}, fieldName string) map[string]interface{} {
	if data == nil {
		return nil
	}
	v, _ := data[fieldName].(map[string]interface{})
	return v
}

func externalObjectForError(dctx *DelegationContext, err error) *ExternalObject {
	gqlErr := &subschema.GraphQLError{
		Message: err.Error(),
		Path:    []interface{}{dctx.FieldName},
	}
	return Annotate(nil, []*subschema.GraphQLError{gqlErr}, dctx.Subschema.Name)
}
