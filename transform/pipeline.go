// Package transform implements the Request Transform Pipeline (C4): an
// ordered set of bidirectional transforms applied around an outgoing
// sub-request and the matching sub-result. Transforms are a capability
// interface (subschema.SchemaTransformer / RequestTransformer /
// ResultTransformer) rather than a class hierarchy, mirroring how the
// teacher's schemabuilder composes independent resolver middleware instead
// of a fixed visitor chain.
package transform

import (
	"context"

	"github.com/samsarahq/stitchgate/schema"
	"github.com/samsarahq/stitchgate/subschema"
)

// Pipeline runs an ordered list of transforms: Apply folds the request
// transforms left to right, and Unapply unfolds the result transforms
// right to left, so each transform observes its own request-side additions
// on the way back.
type Pipeline struct {
	Transforms []subschema.Transform
}

// SelectionSetTransformer rewrites an outgoing selection set against its
// parent type before a request builder (delegate.buildRequest,
// stitch.buildEntryPointRequest) prints it into a document string. This is
// the only point in the pipeline where a transform can still compare
// fields, fragments, and arguments against the target schema or replicate
// a selection per concrete type: once schema.Print has run, nothing
// structured is left for TransformRequest to rewrite.
type SelectionSetTransformer interface {
	TransformSelectionSet(parentTypeName string, set *schema.SelectionSet) *schema.SelectionSet
}

// ApplySelectionSet folds TransformSelectionSet over set in pipeline
// order, ahead of Apply's document-level fold.
func (p *Pipeline) ApplySelectionSet(parentTypeName string, set *schema.SelectionSet) *schema.SelectionSet {
	for _, t := range p.Transforms {
		if st, ok := t.(SelectionSetTransformer); ok {
			set = st.TransformSelectionSet(parentTypeName, set)
		}
	}
	return set
}

// Apply folds TransformRequest over req in pipeline order, returning the
// final request and one transformation-context value per transform (to be
// passed back into Unapply).
func (p *Pipeline) Apply(ctx context.Context, req *subschema.Request) (*subschema.Request, []map[string]interface{}) {
	tctxs := make([]map[string]interface{}, len(p.Transforms))
	for i, t := range p.Transforms {
		tctxs[i] = map[string]interface{}{}
		if rt, ok := t.(subschema.RequestTransformer); ok {
			req = rt.TransformRequest(ctx, req, tctxs[i])
		}
	}
	return req, tctxs
}

// Unapply unfolds TransformResult over res in reverse pipeline order.
func (p *Pipeline) Unapply(ctx context.Context, res *subschema.ExecutionResult, tctxs []map[string]interface{}) *subschema.ExecutionResult {
	for i := len(p.Transforms) - 1; i >= 0; i-- {
		if rst, ok := p.Transforms[i].(subschema.ResultTransformer); ok {
			res = rst.TransformResult(ctx, res, tctxs[i])
		}
	}
	return res
}

// TransformSchema applies every transform's TransformSchema in pipeline
// order, used once at composition time to build a subschema's
// TransformedSchema.
func (p *Pipeline) TransformSchema(s *schema.Schema) *schema.Schema {
	for _, t := range p.Transforms {
		if st, ok := t.(subschema.SchemaTransformer); ok {
			s = st.TransformSchema(s)
		}
	}
	return s
}
